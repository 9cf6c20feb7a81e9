package api

import (
	"donation-api/internal/middleware"
	"donation-api/internal/services"

	"github.com/gin-gonic/gin"
)

// Shared service instances, created once at startup. Tests replace these
// with instances pointing at fakes.
var (
	duitkuService   *services.DuitkuService
	reconciler      *services.ReconcilerService
	donationService *services.DonationService
	campaignService *services.CampaignService
	settingsService *services.SettingsService
)

// SetupRoutes sets up all routes
func SetupRoutes(r *gin.Engine) {
	duitkuService = services.NewDuitkuService()
	reconciler = services.NewReconcilerService(services.NewNotificationService())
	donationService = services.NewDonationService(duitkuService)
	campaignService = services.NewCampaignService()
	settingsService = services.NewSettingsService()

	r.Use(middleware.CORSMiddleware())

	// API route group
	api := r.Group("/api")
	{
		// Public campaign browsing
		campaigns := api.Group("/campaigns")
		{
			campaigns.GET("", ListCampaigns)
			campaigns.GET("/:slug", GetCampaign)
		}

		// Donation flow
		api.POST("/donations", CreateDonation)
		api.GET("/payment/methods", GetPaymentMethods)

		// Payment reconciliation entry points
		api.POST("/transactions/check", CheckTransaction)
		api.POST("/payment/callback", PaymentCallback)

		// Scheduled sweep over pending transactions
		cron := api.Group("/cron")
		cron.Use(middleware.CronAuthMiddleware())
		{
			cron.POST("/check-transactions", CronSweep)
		}

		// Admin routes (dashboard backend)
		admin := api.Group("/admin")
		admin.Use(middleware.AdminAuthMiddleware())
		{
			admin.GET("/campaigns", AdminListCampaigns)
			admin.POST("/campaigns", AdminCreateCampaign)
			admin.PUT("/campaigns/:id", AdminUpdateCampaign)
			admin.DELETE("/campaigns/:id", AdminDeleteCampaign)
			admin.GET("/transactions", AdminListTransactions)
			admin.GET("/settings", AdminGetSettings)
			admin.PUT("/settings", AdminUpdateSettings)
		}
	}

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"service": "donation-service",
		})
	})
}
