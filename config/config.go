package config

import (
	"os"
	"strconv"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

type Config struct {
	Port        string
	DBDSN       string
	RedisURL    string
	APIAddr     string // base address clients use for the order service API
	ChannelAddr string // base address clients dial for the push channel

	GatewayServerKey string
	GatewayClientKey string
	GatewayEnv       string // "sandbox" or "production"

	PaymentExpiry time.Duration // abandoned gateway payments are cancelled after this
	CartTTL       time.Duration
}

func Load() Config {
	return Config{
		Port:             getEnv("PORT", "8080"),
		DBDSN:            getEnv("DB_DSN", "canteen:canteen@tcp(localhost:3306)/canteen?charset=utf8mb4&parseTime=True&loc=Local"),
		RedisURL:         getEnv("REDIS_URL", "redis://localhost:6379"),
		APIAddr:          getEnv("API_ADDR", "http://localhost:8080"),
		ChannelAddr:      getEnv("CHANNEL_ADDR", "ws://localhost:8080/ws"),
		GatewayServerKey: getEnv("GATEWAY_SERVER_KEY", ""),
		GatewayClientKey: getEnv("GATEWAY_CLIENT_KEY", ""),
		GatewayEnv:       getEnv("GATEWAY_ENV", "sandbox"),
		PaymentExpiry:    getDurationMinutes("PAYMENT_EXPIRY_MINUTES", 30),
		CartTTL:          getDurationMinutes("CART_TTL_MINUTES", 7*24*60),
	}
}

// InitDB opens the MySQL connection used in production wiring.
func InitDB(dsn string) (*gorm.DB, error) {
	return gorm.Open(mysql.Open(dsn), &gorm.Config{})
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getDurationMinutes(key string, defaultMinutes int) time.Duration {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil && n > 0 {
			return time.Duration(n) * time.Minute
		}
	}
	return time.Duration(defaultMinutes) * time.Minute
}
