package middleware

import (
	"net/http"

	"donation-api/internal/config"
	"donation-api/internal/response"

	"github.com/gin-gonic/gin"
)

// AdminAuthMiddleware guards the admin routes with a static API key.
func AdminAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		apiKey := c.GetHeader("X-API-Key")
		if apiKey == "" {
			apiKey = c.Query("api_key")
		}

		if config.AppConfig.AdminAPIKey == "" || apiKey != config.AppConfig.AdminAPIKey {
			c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Invalid or missing API key"))
			c.Abort()
			return
		}

		c.Next()
	}
}

// CronAuthMiddleware guards the scheduled sweep endpoint. When no secret is
// configured the endpoint stays open for local development.
func CronAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		secret := config.AppConfig.CronSecret
		if secret != "" && c.GetHeader("X-Cron-Secret") != secret {
			c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Invalid cron secret"))
			c.Abort()
			return
		}

		c.Next()
	}
}
