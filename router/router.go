package router

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/yeremiapane/canteen-app/channel"
	"github.com/yeremiapane/canteen-app/controllers"
	"github.com/yeremiapane/canteen-app/middlewares"
	"github.com/yeremiapane/canteen-app/services"
)

func SetupRouter(db *gorm.DB, hub *channel.Hub, machine *services.StatusMachine, gateway *services.GatewayService, limiter *middlewares.RateLimiter) *gin.Engine {
	r := gin.Default()

	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddlewares())
	r.Use(middlewares.LoggerMiddleware())
	r.Use(limiter.RateLimit())

	orderCtrl := controllers.NewOrderController(db, machine)
	paymentCtrl := controllers.NewPaymentController(db, machine, gateway)
	channelCtrl := controllers.NewChannelController(hub)

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})

	// ORDERS
	r.POST("/orders", orderCtrl.CreateOrder)
	r.GET("/orders/:order_id", orderCtrl.GetOrderByID)
	r.PATCH("/orders/:order_id/status", orderCtrl.UpdateOrderStatus)
	r.GET("/canteens/:canteen_id/orders", orderCtrl.GetCanteenOrders)

	// PAYMENTS
	r.POST("/orders/:order_id/payments/cod", paymentCtrl.CreateCODPayment)
	r.POST("/orders/:order_id/payments/gateway", paymentCtrl.CreateGatewayOrder)
	r.POST("/payments/verify", paymentCtrl.VerifyGatewayPayment)

	// Push channel endpoint; token identifies the member and its role
	wsGroup := r.Group("/ws")
	wsGroup.Use(middlewares.ChannelTokenMiddleware())
	{
		wsGroup.GET("", channelCtrl.Handle)
	}

	return r
}
