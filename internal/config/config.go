package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server configuration
	Port string
	Mode string

	// Database configuration
	DatabaseURL string

	// Redis configuration
	RedisURL string

	// Duitku payment gateway configuration
	DuitkuMerchantCode string
	DuitkuAPIKey       string
	DuitkuBaseURL      string
	DuitkuCallbackURL  string
	DuitkuReturnURL    string

	// Fonnte WhatsApp configuration
	FonnteToken   string
	FonnteBaseURL string

	// Brevo email configuration
	BrevoAPIKey    string
	BrevoFromEmail string
	BrevoFromName  string

	// Site configuration
	SiteBaseURL string
	ServiceName string

	// Access keys
	AdminAPIKey string
	CronSecret  string

	// Reconciliation configuration
	SweepBatchSize        int
	GatewayTimeoutSeconds int
}

var AppConfig *Config

func InitConfig() error {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		// Ignore error if .env file doesn't exist
	}

	AppConfig = &Config{
		Port:                  getEnv("PORT", "8080"),
		Mode:                  getEnv("GIN_MODE", "debug"),
		DatabaseURL:           getEnv("DATABASE_URL", ""),
		RedisURL:              getEnv("REDIS_URL", "redis://localhost:6379/0"),
		DuitkuMerchantCode:    getEnv("DUITKU_MERCHANT_CODE", ""),
		DuitkuAPIKey:          getEnv("DUITKU_API_KEY", ""),
		DuitkuBaseURL:         getEnv("DUITKU_BASE_URL", "https://sandbox.duitku.com"),
		DuitkuCallbackURL:     getEnv("DUITKU_CALLBACK_URL", ""),
		DuitkuReturnURL:       getEnv("DUITKU_RETURN_URL", ""),
		FonnteToken:           getEnv("FONNTE_TOKEN", ""),
		FonnteBaseURL:         getEnv("FONNTE_BASE_URL", "https://api.fonnte.com"),
		BrevoAPIKey:           getEnv("BREVO_API_KEY", ""),
		BrevoFromEmail:        getEnv("BREVO_FROM_EMAIL", ""),
		BrevoFromName:         getEnv("BREVO_FROM_NAME", "Donation Service"),
		SiteBaseURL:           getEnv("SITE_BASE_URL", "http://localhost:3000"),
		ServiceName:           getEnv("SERVICE_NAME", "Donation Service"),
		AdminAPIKey:           getEnv("ADMIN_API_KEY", ""),
		CronSecret:            getEnv("CRON_SECRET", ""),
		SweepBatchSize:        getEnvInt("SWEEP_BATCH_SIZE", 50),
		GatewayTimeoutSeconds: getEnvInt("GATEWAY_TIMEOUT_SECONDS", 15),
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
