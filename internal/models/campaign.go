package models

import (
	"time"
)

// Campaign represents a fundraising campaign.
//
// CurrentAmount is a running total maintained by the reconciler: it must
// always equal the sum of Amount over this campaign's transactions with
// status success. It is only ever changed through a database-level
// increment, never overwritten from application code.
type Campaign struct {
	BaseModel

	Slug        string `json:"slug" gorm:"not null;size:150;uniqueIndex"`
	Title       string `json:"title" gorm:"not null;size:200"`
	Description string `json:"description" gorm:"type:text"`
	ImageURL    string `json:"image_url" gorm:"size:500"`

	TargetAmount  int64 `json:"target_amount" gorm:"not null"`
	CurrentAmount int64 `json:"current_amount" gorm:"not null;default:0"`

	// Campaigner contact fields, used for new-donation notifications
	OwnerName  string `json:"owner_name" gorm:"size:100"`
	OwnerPhone string `json:"owner_phone" gorm:"size:30"`
	OwnerEmail string `json:"owner_email" gorm:"size:150"`

	IsActive bool       `json:"is_active" gorm:"default:true;index"`
	EndDate  *time.Time `json:"end_date"`
}

// TableName specifies the table name
func (Campaign) TableName() string {
	return "campaigns"
}
