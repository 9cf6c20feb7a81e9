package services

import (
	"errors"
	"fmt"

	"donation-api/internal/database"
	"donation-api/internal/models"

	"gorm.io/gorm"
)

// ErrCampaignNotFound is returned when a campaign lookup matches nothing.
var ErrCampaignNotFound = errors.New("campaign not found")

// CampaignService provides campaign operations
type CampaignService struct {
	db *gorm.DB
}

// NewCampaignService creates a new campaign service
func NewCampaignService() *CampaignService {
	return &CampaignService{
		db: database.GetDB(),
	}
}

// GetActive lists active campaigns, newest first.
func (s *CampaignService) GetActive() ([]models.Campaign, error) {
	var campaigns []models.Campaign
	result := s.db.Where("is_active = ?", true).Order("created_at DESC").Find(&campaigns)
	if result.Error != nil {
		return nil, result.Error
	}
	return campaigns, nil
}

// GetAll lists every campaign including inactive ones.
func (s *CampaignService) GetAll() ([]models.Campaign, error) {
	var campaigns []models.Campaign
	result := s.db.Order("created_at DESC").Find(&campaigns)
	if result.Error != nil {
		return nil, result.Error
	}
	return campaigns, nil
}

// GetBySlug gets a campaign by its slug.
func (s *CampaignService) GetBySlug(slug string) (*models.Campaign, error) {
	var campaign models.Campaign
	result := s.db.Where("slug = ?", slug).First(&campaign)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrCampaignNotFound
		}
		return nil, result.Error
	}
	return &campaign, nil
}

// GetByID gets a campaign by primary key.
func (s *CampaignService) GetByID(id uint) (*models.Campaign, error) {
	var campaign models.Campaign
	result := s.db.First(&campaign, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrCampaignNotFound
		}
		return nil, result.Error
	}
	return &campaign, nil
}

// Create creates a new campaign
func (s *CampaignService) Create(campaign *models.Campaign) error {
	var existing models.Campaign
	result := s.db.Where("slug = ?", campaign.Slug).First(&existing)
	if result.Error == nil {
		return fmt.Errorf("campaign with slug %s already exists", campaign.Slug)
	}

	if err := s.db.Create(campaign).Error; err != nil {
		return fmt.Errorf("failed to create campaign: %w", err)
	}
	return nil
}

// Update updates an existing campaign. CurrentAmount is deliberately not
// updatable through here; only the reconciler's increment touches it.
func (s *CampaignService) Update(id uint, updates map[string]interface{}) error {
	delete(updates, "current_amount")

	result := s.db.Model(&models.Campaign{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("failed to update campaign: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrCampaignNotFound
	}
	return nil
}

// Delete soft deletes a campaign
func (s *CampaignService) Delete(id uint) error {
	result := s.db.Delete(&models.Campaign{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete campaign: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrCampaignNotFound
	}
	return nil
}

// RecentDonations lists the latest successful donations to a campaign for
// the public campaign page.
func (s *CampaignService) RecentDonations(campaignID uint, limit int) ([]models.Transaction, error) {
	var transactions []models.Transaction
	result := s.db.Where("campaign_id = ? AND status = ?", campaignID, models.StatusSuccess).
		Order("paid_at DESC").
		Limit(limit).
		Find(&transactions)
	if result.Error != nil {
		return nil, result.Error
	}
	return transactions, nil
}
