package models

import (
	"time"

	"gorm.io/gorm"
)

// BaseModel provides common fields for all database models
type BaseModel struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `json:"deleted_at" gorm:"index"`
}

// Setting represents an app-level key/value setting, including the
// notification templates consumed by the notifier.
type Setting struct {
	BaseModel
	Key   string `json:"key" gorm:"uniqueIndex;not null;size:100"`
	Value string `json:"value" gorm:"type:text"`
}

// TableName specifies the table name
func (Setting) TableName() string {
	return "settings"
}

// Notification template setting keys. Template values may contain the
// placeholder tokens {name}, {amount}, {campaign} and {link}.
const (
	SettingWATemplateDonor         = "wa_template_donor"
	SettingWATemplateCampaigner    = "wa_template_campaigner"
	SettingEmailTemplateDonor      = "email_template_donor"
	SettingEmailTemplateCampaigner = "email_template_campaigner"
	SettingEmailSubjectDonor       = "email_subject_donor"
	SettingEmailSubjectCampaigner  = "email_subject_campaigner"
)
