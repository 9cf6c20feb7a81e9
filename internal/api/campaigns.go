package api

import (
	"errors"
	"net/http"

	"donation-api/internal/response"
	"donation-api/internal/services"
	"donation-api/pkg/logging"

	"github.com/gin-gonic/gin"
)

// ListCampaigns lists active campaigns for the public browse page.
func ListCampaigns(c *gin.Context) {
	campaigns, err := campaignService.GetActive()
	if err != nil {
		logging.Errorf("Failed to list campaigns: %v", err)
		response.ErrorJSON(c, http.StatusInternalServerError, "Failed to list campaigns")
		return
	}

	response.SuccessJSON(c, campaigns)
}

// GetCampaign returns one campaign with its recent donations. Anonymous
// donors are masked in the donation list.
func GetCampaign(c *gin.Context) {
	campaign, err := campaignService.GetBySlug(c.Param("slug"))
	if err != nil {
		if errors.Is(err, services.ErrCampaignNotFound) {
			response.ErrorJSON(c, http.StatusNotFound, "Campaign not found")
			return
		}
		response.ErrorJSON(c, http.StatusInternalServerError, "Failed to load campaign")
		return
	}

	donations, err := campaignService.RecentDonations(campaign.ID, 10)
	if err != nil {
		logging.Errorf("Failed to load donations for campaign %s: %v", campaign.Slug, err)
		donations = nil
	}

	recent := make([]gin.H, 0, len(donations))
	for _, donation := range donations {
		recent = append(recent, gin.H{
			"name":    donation.DisplayName(),
			"amount":  donation.Amount,
			"paid_at": donation.PaidAt,
		})
	}

	response.SuccessJSON(c, gin.H{
		"campaign":         campaign,
		"recent_donations": recent,
	})
}
