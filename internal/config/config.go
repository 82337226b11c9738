package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

var AppEnv Config

type Config struct {
	MongoURI       string
	DBName         string
	JWTSecret      string
	AccessTokenTTL time.Duration

	// CartMaxItems caps the total quantity across all lines of one cart.
	CartMaxItems int
	// ShippingCost is the flat standard shipping fee added at checkout.
	ShippingCost float64
	// LowStockThreshold is where cart reads start warning about stock.
	LowStockThreshold int
}

func Load() {
	if err := godotenv.Load(); err != nil {
		log.Println(".env not loaded:", err)
	}
	AppEnv = Config{
		MongoURI:          getEnvOrDefault("MONGO_URI", ""),
		DBName:            getEnvOrDefault("DB_NAME", "bookstore"),
		JWTSecret:         getEnvOrDefault("JWT_SECRET", ""),
		AccessTokenTTL:    getDurationEnv("ACCESS_TOKEN_TTL", 60, time.Minute),
		CartMaxItems:      getIntEnv("CART_MAX_ITEMS", 10),
		ShippingCost:      getFloatEnv("SHIPPING_COST", 50),
		LowStockThreshold: getIntEnv("LOW_STOCK_THRESHOLD", 5),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil && parsed > 0 {
			return parsed
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil && parsed >= 0 {
			return parsed
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue int, unit time.Duration) time.Duration {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil && parsed > 0 {
			return time.Duration(parsed) * unit
		}
	}
	return time.Duration(defaultValue) * unit
}
