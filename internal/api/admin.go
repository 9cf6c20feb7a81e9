package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"donation-api/internal/models"
	"donation-api/internal/response"
	"donation-api/internal/services"

	"github.com/gin-gonic/gin"
)

// AdminListCampaigns lists every campaign including inactive ones.
func AdminListCampaigns(c *gin.Context) {
	campaigns, err := campaignService.GetAll()
	if err != nil {
		response.ErrorJSON(c, http.StatusInternalServerError, "Failed to list campaigns")
		return
	}
	response.SuccessJSON(c, campaigns)
}

// CreateCampaignRequest represents create campaign request
type CreateCampaignRequest struct {
	Slug         string     `json:"slug" binding:"required"`
	Title        string     `json:"title" binding:"required"`
	Description  string     `json:"description"`
	ImageURL     string     `json:"image_url"`
	TargetAmount int64      `json:"target_amount" binding:"required,gt=0"`
	OwnerName    string     `json:"owner_name"`
	OwnerPhone   string     `json:"owner_phone"`
	OwnerEmail   string     `json:"owner_email"`
	EndDate      *time.Time `json:"end_date"`
}

// AdminCreateCampaign creates a new campaign
func AdminCreateCampaign(c *gin.Context) {
	var req CreateCampaignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorJSON(c, http.StatusBadRequest, "Invalid request format: "+err.Error())
		return
	}

	campaign := &models.Campaign{
		Slug:         req.Slug,
		Title:        req.Title,
		Description:  req.Description,
		ImageURL:     req.ImageURL,
		TargetAmount: req.TargetAmount,
		OwnerName:    req.OwnerName,
		OwnerPhone:   req.OwnerPhone,
		OwnerEmail:   req.OwnerEmail,
		EndDate:      req.EndDate,
		IsActive:     true,
	}

	if err := campaignService.Create(campaign); err != nil {
		response.ErrorJSON(c, http.StatusBadRequest, "Failed to create campaign: "+err.Error())
		return
	}

	response.CreatedJSON(c, campaign)
}

// UpdateCampaignRequest represents update campaign request
type UpdateCampaignRequest struct {
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	ImageURL     string     `json:"image_url"`
	TargetAmount int64      `json:"target_amount"`
	OwnerName    string     `json:"owner_name"`
	OwnerPhone   string     `json:"owner_phone"`
	OwnerEmail   string     `json:"owner_email"`
	IsActive     *bool      `json:"is_active"`
	EndDate      *time.Time `json:"end_date"`
}

// AdminUpdateCampaign updates an existing campaign
func AdminUpdateCampaign(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.ErrorJSON(c, http.StatusBadRequest, "Invalid campaign id")
		return
	}

	var req UpdateCampaignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorJSON(c, http.StatusBadRequest, "Invalid request format: "+err.Error())
		return
	}

	// Build update map
	updates := make(map[string]interface{})
	if req.Title != "" {
		updates["title"] = req.Title
	}
	if req.Description != "" {
		updates["description"] = req.Description
	}
	if req.ImageURL != "" {
		updates["image_url"] = req.ImageURL
	}
	if req.TargetAmount > 0 {
		updates["target_amount"] = req.TargetAmount
	}
	if req.OwnerName != "" {
		updates["owner_name"] = req.OwnerName
	}
	if req.OwnerPhone != "" {
		updates["owner_phone"] = req.OwnerPhone
	}
	if req.OwnerEmail != "" {
		updates["owner_email"] = req.OwnerEmail
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}
	if req.EndDate != nil {
		updates["end_date"] = *req.EndDate
	}

	if err := campaignService.Update(uint(id), updates); err != nil {
		if errors.Is(err, services.ErrCampaignNotFound) {
			response.ErrorJSON(c, http.StatusNotFound, "Campaign not found")
			return
		}
		response.ErrorJSON(c, http.StatusBadRequest, "Failed to update campaign: "+err.Error())
		return
	}

	response.SuccessJSON(c, gin.H{"updated": true})
}

// AdminDeleteCampaign soft deletes a campaign
func AdminDeleteCampaign(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.ErrorJSON(c, http.StatusBadRequest, "Invalid campaign id")
		return
	}

	if err := campaignService.Delete(uint(id)); err != nil {
		if errors.Is(err, services.ErrCampaignNotFound) {
			response.ErrorJSON(c, http.StatusNotFound, "Campaign not found")
			return
		}
		response.ErrorJSON(c, http.StatusInternalServerError, "Failed to delete campaign: "+err.Error())
		return
	}

	response.SuccessJSON(c, gin.H{"deleted": true})
}

// AdminListTransactions lists transactions with optional status and
// campaign filters for the dashboard.
func AdminListTransactions(c *gin.Context) {
	status := c.Query("status")
	campaignID, _ := strconv.ParseUint(c.Query("campaign_id"), 10, 32)
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	transactions, total, err := donationService.List(status, uint(campaignID), limit, offset)
	if err != nil {
		response.ErrorJSON(c, http.StatusInternalServerError, "Failed to list transactions")
		return
	}

	response.SuccessJSON(c, gin.H{
		"total":        total,
		"transactions": transactions,
	})
}

// AdminGetSettings returns all settings rows.
func AdminGetSettings(c *gin.Context) {
	settings, err := settingsService.GetAll()
	if err != nil {
		response.ErrorJSON(c, http.StatusInternalServerError, "Failed to load settings")
		return
	}
	response.SuccessJSON(c, settings)
}

// AdminUpdateSettings upserts setting values by key.
func AdminUpdateSettings(c *gin.Context) {
	var values map[string]string
	if err := c.ShouldBindJSON(&values); err != nil {
		response.ErrorJSON(c, http.StatusBadRequest, "Invalid request format: "+err.Error())
		return
	}
	if len(values) == 0 {
		response.ErrorJSON(c, http.StatusBadRequest, "No settings provided")
		return
	}

	if err := settingsService.Update(c.Request.Context(), values); err != nil {
		response.ErrorJSON(c, http.StatusInternalServerError, "Failed to update settings: "+err.Error())
		return
	}

	response.SuccessJSON(c, gin.H{"updated": len(values)})
}
