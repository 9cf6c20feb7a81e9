package api

import (
	"errors"
	"net/http"
	"strconv"

	"donation-api/internal/response"
	"donation-api/internal/services"
	"donation-api/pkg/logging"

	"github.com/gin-gonic/gin"
)

// CreateDonationRequest is the donor-facing donation initiation payload.
type CreateDonationRequest struct {
	CampaignSlug  string `json:"campaign_slug" binding:"required"`
	DonorName     string `json:"donor_name" binding:"required"`
	DonorPhone    string `json:"donor_phone"`
	DonorEmail    string `json:"donor_email"`
	IsAnonymous   bool   `json:"is_anonymous"`
	Amount        int64  `json:"amount" binding:"required,gt=0"`
	PaymentMethod string `json:"payment_method" binding:"required"`
}

// CreateDonation starts a donation: a pending transaction is stored and a
// gateway invoice created, and the donor is handed the payment URL.
func CreateDonation(c *gin.Context) {
	var req CreateDonationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorJSON(c, http.StatusBadRequest, "Invalid request format: "+err.Error())
		return
	}

	result, err := donationService.CreateDonation(c.Request.Context(), services.DonationRequest{
		CampaignSlug:  req.CampaignSlug,
		DonorName:     req.DonorName,
		DonorPhone:    req.DonorPhone,
		DonorEmail:    req.DonorEmail,
		IsAnonymous:   req.IsAnonymous,
		Amount:        req.Amount,
		PaymentMethod: req.PaymentMethod,
	})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrCampaignNotFound):
			response.ErrorJSON(c, http.StatusNotFound, "Campaign not found")
		case errors.Is(err, services.ErrGatewayUnavailable):
			response.ErrorJSON(c, http.StatusBadGateway, "Payment gateway unavailable, try again later")
		case errors.Is(err, services.ErrGatewayRejected):
			logging.Errorf("Gateway rejected donation for %s: %v", req.CampaignSlug, err)
			response.ErrorJSON(c, http.StatusBadRequest, "Payment gateway rejected the request")
		default:
			response.ErrorJSON(c, http.StatusBadRequest, err.Error())
		}
		return
	}

	response.SuccessJSON(c, result)
}

// GetPaymentMethods lists the gateway's payment methods for an amount.
func GetPaymentMethods(c *gin.Context) {
	amount, err := strconv.ParseInt(c.Query("amount"), 10, 64)
	if err != nil || amount <= 0 {
		response.ErrorJSON(c, http.StatusBadRequest, "amount query parameter is required")
		return
	}

	methods, err := duitkuService.GetPaymentMethods(c.Request.Context(), amount)
	if err != nil {
		if errors.Is(err, services.ErrGatewayUnavailable) {
			response.ErrorJSON(c, http.StatusBadGateway, "Payment gateway unavailable, try again later")
			return
		}
		logging.Errorf("Failed to fetch payment methods: %v", err)
		response.ErrorJSON(c, http.StatusInternalServerError, "Failed to fetch payment methods")
		return
	}

	response.SuccessJSON(c, methods)
}
