package middlewares

import (
	"github.com/gin-gonic/gin"

	"github.com/yeremiapane/canteen-app/utils"
)

// ChannelTokenMiddleware authenticates channel connections from the
// token query parameter (websocket clients cannot set headers). It only
// establishes session identity and role; it is not the app's user auth.
func ChannelTokenMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Query("token")
		if token == "" {
			c.AbortWithStatus(401)
			return
		}

		claims, err := utils.ParseChannelToken(token)
		if err != nil {
			c.AbortWithStatus(401)
			return
		}

		c.Set("role", claims.Role)
		c.Set("session_id", claims.SessionID)

		c.Next()
	}
}
