package api

import (
	"errors"
	"net/http"

	"donation-api/internal/services"
	"donation-api/pkg/logging"

	"github.com/gin-gonic/gin"
)

// CheckTransactionRequest is the user-initiated status check payload.
type CheckTransactionRequest struct {
	MerchantOrderID string `json:"merchantOrderId" binding:"required"`
}

// CheckTransaction is the user-initiated poll: the donor's browser asks
// whether their payment went through. Queries the gateway, reconciles and
// returns the resulting status for immediate display.
func CheckTransaction(c *gin.Context) {
	var req CheckTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "merchantOrderId is required",
		})
		return
	}

	transaction, err := donationService.GetByMerchantOrderID(req.MerchantOrderID)
	if err != nil {
		if errors.Is(err, services.ErrTransactionNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"success": false,
				"message": "Transaction not found",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "Failed to load transaction",
		})
		return
	}

	// Terminal already: answer from our own records without a gateway
	// round-trip.
	if transaction.IsTerminal() {
		c.JSON(http.StatusOK, gin.H{
			"success":         true,
			"merchantOrderId": transaction.MerchantOrderID,
			"status":          transaction.Status,
			"resultCode":      transaction.ResultCode,
		})
		return
	}

	status, err := duitkuService.QueryStatus(c.Request.Context(), req.MerchantOrderID)
	if err != nil {
		if errors.Is(err, services.ErrGatewayUnavailable) {
			c.JSON(http.StatusBadGateway, gin.H{
				"success": false,
				"message": "Payment gateway unavailable, try again later",
			})
			return
		}
		logging.Errorf("Status query failed for %s: %v", req.MerchantOrderID, err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "Failed to query payment status",
		})
		return
	}

	newStatus := services.MapResultCode(status.StatusCode)
	result, err := reconciler.Reconcile(c.Request.Context(), req.MerchantOrderID, newStatus, status.StatusCode, status.StatusMessage, status.Reference)
	if err != nil {
		if errors.Is(err, services.ErrTransactionNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"success": false,
				"message": "Transaction not found",
			})
			return
		}
		logging.Errorf("Check reconcile failed for %s: %v", req.MerchantOrderID, err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "Failed to update transaction",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":         true,
		"merchantOrderId": req.MerchantOrderID,
		"status":          result.Status,
		"resultCode":      status.StatusCode,
	})
}
