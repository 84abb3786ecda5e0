package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/yeremiapane/canteen-app/channel"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type ChannelController struct {
	Hub *channel.Hub
}

func NewChannelController(hub *channel.Hub) *ChannelController {
	return &ChannelController{Hub: hub}
}

// Handle -> push-channel endpoint. After the upgrade the client sends
// join_room requests; each join moves the connection into that canteen's
// room (one room per connection). Joins are fire-and-forget.
func (cc *ChannelController) Handle(c *gin.Context) {
	roleInterface, exists := c.Get("role")
	if !exists {
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}
	role := roleInterface.(string)

	if role != "buyer" && role != "vendor" {
		c.AbortWithStatus(http.StatusForbidden)
		return
	}

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	for {
		var req channel.JoinRequest
		if err := ws.ReadJSON(&req); err != nil {
			break
		}
		if req.Action == channel.ActionJoinRoom && req.CanteenID != "" {
			cc.Hub.Join(ws, req.CanteenID, role)
		}
	}

	cc.Hub.Leave(ws)
}
