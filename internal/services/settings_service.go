package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"donation-api/internal/database"
	"donation-api/internal/models"
	"donation-api/pkg/logging"

	"gorm.io/gorm"
)

const (
	templatesCacheKey = "settings:notification_templates"
	templatesCacheTTL = 5 * time.Minute
)

// NotificationTemplates is a point-in-time snapshot of the message
// templates. The notifier takes one snapshot per invocation instead of
// re-querying the settings table for every transaction in a sweep.
type NotificationTemplates struct {
	WADonor           string `json:"wa_donor"`
	WACampaigner      string `json:"wa_campaigner"`
	EmailDonor        string `json:"email_donor"`
	EmailCampaigner   string `json:"email_campaigner"`
	SubjectDonor      string `json:"subject_donor"`
	SubjectCampaigner string `json:"subject_campaigner"`
}

// SettingsService provides app-level settings operations
type SettingsService struct {
	db *gorm.DB
}

// NewSettingsService creates a new settings service
func NewSettingsService() *SettingsService {
	return &SettingsService{
		db: database.GetDB(),
	}
}

// GetTemplates loads the notification template snapshot, preferring the
// Redis cache and falling back to the settings table.
func (s *SettingsService) GetTemplates(ctx context.Context) (*NotificationTemplates, error) {
	if cached, err := database.GetCache(ctx, templatesCacheKey); err == nil && cached != "" {
		var templates NotificationTemplates
		if err := json.Unmarshal([]byte(cached), &templates); err == nil {
			return &templates, nil
		}
	}

	values, err := s.GetValues(
		models.SettingWATemplateDonor,
		models.SettingWATemplateCampaigner,
		models.SettingEmailTemplateDonor,
		models.SettingEmailTemplateCampaigner,
		models.SettingEmailSubjectDonor,
		models.SettingEmailSubjectCampaigner,
	)
	if err != nil {
		return nil, err
	}

	templates := &NotificationTemplates{
		WADonor:           values[models.SettingWATemplateDonor],
		WACampaigner:      values[models.SettingWATemplateCampaigner],
		EmailDonor:        values[models.SettingEmailTemplateDonor],
		EmailCampaigner:   values[models.SettingEmailTemplateCampaigner],
		SubjectDonor:      values[models.SettingEmailSubjectDonor],
		SubjectCampaigner: values[models.SettingEmailSubjectCampaigner],
	}

	if data, err := json.Marshal(templates); err == nil {
		if err := database.SetCache(ctx, templatesCacheKey, string(data), templatesCacheTTL); err != nil {
			logging.Errorf("Failed to cache notification templates: %v", err)
		}
	}

	return templates, nil
}

// GetValues fetches the given setting keys as a map. Missing keys are
// simply absent from the result.
func (s *SettingsService) GetValues(keys ...string) (map[string]string, error) {
	var settings []models.Setting
	if err := s.db.Where("key IN ?", keys).Find(&settings).Error; err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}

	values := make(map[string]string, len(settings))
	for _, setting := range settings {
		values[setting.Key] = setting.Value
	}
	return values, nil
}

// GetAll returns every setting row.
func (s *SettingsService) GetAll() ([]models.Setting, error) {
	var settings []models.Setting
	if err := s.db.Order("key").Find(&settings).Error; err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}
	return settings, nil
}

// Update upserts the given settings and invalidates the template cache.
func (s *SettingsService) Update(ctx context.Context, values map[string]string) error {
	for key, value := range values {
		setting := models.Setting{Key: key, Value: value}
		result := s.db.Where("key = ?", key).Assign(models.Setting{Value: value}).FirstOrCreate(&setting)
		if result.Error != nil {
			return fmt.Errorf("failed to update setting %s: %w", key, result.Error)
		}
	}

	if err := database.DeleteCache(ctx, templatesCacheKey); err != nil {
		logging.Errorf("Failed to invalidate template cache: %v", err)
	}
	return nil
}
