package api

import (
	"errors"
	"net/http"

	"donation-api/internal/services"
	"donation-api/pkg/logging"

	"github.com/gin-gonic/gin"
)

// CallbackRequest is the payload Duitku posts when a payment finishes.
// Duitku sends form-encoded bodies; JSON is accepted as well.
type CallbackRequest struct {
	MerchantCode    string `form:"merchantCode" json:"merchantCode"`
	Amount          string `form:"amount" json:"amount"`
	MerchantOrderID string `form:"merchantOrderId" json:"merchantOrderId"`
	ProductDetail   string `form:"productDetail" json:"productDetail"`
	PaymentCode     string `form:"paymentCode" json:"paymentCode"`
	ResultCode      string `form:"resultCode" json:"resultCode"`
	Reference       string `form:"reference" json:"reference"`
	Signature       string `form:"signature" json:"signature"`
	SettlementDate  string `form:"settlementDate" json:"settlementDate"`
}

// PaymentCallback handles the gateway's server-to-server payment
// notification. The signature is verified before anything is trusted; a
// forged callback must never reach the reconciler. The response code only
// matters to the gateway's retry logic: 200 acknowledges, anything else
// makes it retry.
func PaymentCallback(c *gin.Context) {
	var req CallbackRequest
	if err := c.ShouldBind(&req); err != nil {
		logging.Errorf("Invalid callback body: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "Invalid callback body",
		})
		return
	}

	if req.MerchantOrderID == "" || req.Signature == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "merchantOrderId and signature are required",
		})
		return
	}

	if !duitkuService.VerifyCallback(req.MerchantCode, req.Amount, req.MerchantOrderID, req.Signature) {
		logging.Errorf("Callback signature mismatch for order %s", req.MerchantOrderID)
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "Invalid signature",
		})
		return
	}

	newStatus := services.MapResultCode(req.ResultCode)
	result, err := reconciler.Reconcile(c.Request.Context(), req.MerchantOrderID, newStatus, req.ResultCode, "callback", req.Reference)
	if err != nil {
		if errors.Is(err, services.ErrTransactionNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"success": false,
				"message": "Unknown merchantOrderId",
			})
			return
		}
		logging.Errorf("Callback reconcile failed for %s: %v", req.MerchantOrderID, err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "Failed to process callback",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"applied": result.Applied,
		"status":  result.Status,
	})
}
