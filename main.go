package main

import (
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"gorm.io/gorm"

	"github.com/yeremiapane/canteen-app/channel"
	"github.com/yeremiapane/canteen-app/config"
	"github.com/yeremiapane/canteen-app/middlewares"
	"github.com/yeremiapane/canteen-app/models"
	"github.com/yeremiapane/canteen-app/router"
	"github.com/yeremiapane/canteen-app/services"
	"github.com/yeremiapane/canteen-app/utils"
)

func main() {
	utils.InitLogger()

	if err := godotenv.Load(); err != nil {
		// Environment variables may come from the deployment instead.
		utils.InfoLogger.Println("Warning: .env file not found")
	}

	cfg := config.Load()

	db, err := config.InitDB(cfg.DBDSN)
	if err != nil {
		utils.ErrorLogger.Fatalf("Failed to connect to database: %v", err)
	}

	if os.Getenv("GIN_MODE") == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	autoMigrate(db)

	hub := channel.NewHub()
	machine := services.NewStatusMachine(db, hub)

	gateway := services.NewGatewayService(&services.GatewayConfig{
		ServerKey:    cfg.GatewayServerKey,
		ClientKey:    cfg.GatewayClientKey,
		IsProduction: cfg.GatewayEnv == "production",
	})
	if err := gateway.ValidateConfig(); err != nil {
		utils.ErrorLogger.Printf("Warning: %v", err)
	}

	paymentMonitor := services.NewPaymentMonitor(db, machine, cfg.PaymentExpiry)
	paymentMonitor.Start()
	defer paymentMonitor.Stop()

	rateLimiter := middlewares.NewRateLimiter(50, 100)

	r := router.SetupRouter(db, hub, machine, gateway, rateLimiter)

	utils.InfoLogger.Printf("Listening on port %s", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		utils.ErrorLogger.Fatal(err)
	}
}

func autoMigrate(db *gorm.DB) {
	err := db.AutoMigrate(
		&models.Order{},
		&models.OrderItem{},
	)
	if err != nil {
		utils.ErrorLogger.Fatalf("Failed to AutoMigrate: %v", err)
	}
	utils.InfoLogger.Println("AutoMigrate completed.")
}
