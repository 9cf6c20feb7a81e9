package api

import (
	"errors"
	"net/http"
	"time"

	"donation-api/internal/config"
	"donation-api/internal/database"
	"donation-api/internal/models"
	"donation-api/internal/services"
	"donation-api/pkg/logging"

	"github.com/gin-gonic/gin"
)

const sweepLockKey = "cron:check-transactions"

// SweepResult reports the outcome for one transaction in a sweep.
type SweepResult struct {
	MerchantOrderID string `json:"merchantOrderId"`
	Status          string `json:"status,omitempty"`
	Applied         bool   `json:"applied"`
	Error           string `json:"error,omitempty"`
}

// CronSweep re-examines pending transactions against the gateway. Each
// transaction is handled independently: a gateway outage or database error
// on one produces an error entry and the sweep continues with the rest.
func CronSweep(c *gin.Context) {
	ctx := c.Request.Context()

	locked, err := database.AcquireLock(ctx, sweepLockKey, 4*time.Minute)
	if err != nil {
		logging.Errorf("Failed to acquire sweep lock: %v", err)
	}
	if !locked {
		c.JSON(http.StatusOK, gin.H{
			"success":   true,
			"message":   "sweep already running",
			"processed": 0,
		})
		return
	}
	defer func() {
		if err := database.ReleaseLock(ctx, sweepLockKey); err != nil {
			logging.Errorf("Failed to release sweep lock: %v", err)
		}
	}()

	pending, err := donationService.ListPending(config.AppConfig.SweepBatchSize)
	if err != nil {
		logging.Errorf("Failed to list pending transactions: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "Failed to list pending transactions",
		})
		return
	}

	results := make([]SweepResult, 0, len(pending))
	for _, transaction := range pending {
		results = append(results, sweepOne(c, transaction.MerchantOrderID))
	}

	logging.Infof("Sweep processed %d pending transactions", len(results))
	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"processed": len(results),
		"results":   results,
	})
}

// sweepOne drives a single pending transaction through gateway query and
// reconcile. Errors are captured in the result entry, never propagated.
func sweepOne(c *gin.Context, merchantOrderID string) SweepResult {
	ctx := c.Request.Context()

	status, err := duitkuService.QueryStatus(ctx, merchantOrderID)
	if err != nil {
		logging.Errorf("Sweep status query failed for %s: %v", merchantOrderID, err)
		return SweepResult{MerchantOrderID: merchantOrderID, Error: err.Error()}
	}

	newStatus := services.MapResultCode(status.StatusCode)
	if newStatus == models.StatusPending {
		// Still pending at the gateway; the next sweep picks it up again.
		return SweepResult{MerchantOrderID: merchantOrderID, Status: models.StatusPending}
	}

	result, err := reconciler.Reconcile(ctx, merchantOrderID, newStatus, status.StatusCode, status.StatusMessage, status.Reference)
	if err != nil {
		if errors.Is(err, services.ErrTransactionNotFound) {
			logging.Errorf("Sweep found unknown order %s", merchantOrderID)
		} else {
			logging.Errorf("Sweep reconcile failed for %s: %v", merchantOrderID, err)
		}
		return SweepResult{MerchantOrderID: merchantOrderID, Error: err.Error()}
	}

	return SweepResult{MerchantOrderID: merchantOrderID, Status: result.Status, Applied: result.Applied}
}
