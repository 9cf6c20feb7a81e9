package models

import (
	"time"
)

// Transaction status values. A transaction starts as pending and moves to
// exactly one of the terminal states; terminal states are never left.
const (
	StatusPending = "pending"
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

// Transaction represents one donation payment attempt against a campaign.
// Rows are created by the donation flow and mutated only by the reconciler.
type Transaction struct {
	BaseModel

	// Correlation keys
	MerchantOrderID string `json:"merchant_order_id" gorm:"not null;size:100;uniqueIndex"` // order id sent to the gateway
	InvoiceCode     string `json:"invoice_code" gorm:"size:50;index"`                      // human-facing invoice number

	// Donor contact fields
	DonorName   string `json:"donor_name" gorm:"size:100"`
	DonorPhone  string `json:"donor_phone" gorm:"size:30"`
	DonorEmail  string `json:"donor_email" gorm:"size:150"`
	IsAnonymous bool   `json:"is_anonymous" gorm:"default:false"`

	// Payment fields
	Amount        int64  `json:"amount" gorm:"not null"` // integer rupiah
	PaymentMethod string `json:"payment_method" gorm:"size:10"`
	Status        string `json:"status" gorm:"not null;size:20;default:'pending';index"`

	// Campaign reference
	CampaignID uint `json:"campaign_id" gorm:"not null;index"`

	// Gateway result fields
	Reference     string     `json:"reference" gorm:"size:100"` // gateway reference code
	ResultCode    string     `json:"result_code" gorm:"size:10"`
	StatusMessage string     `json:"status_message" gorm:"size:255"`
	PaidAt        *time.Time `json:"paid_at"`
}

// TableName specifies the table name
func (Transaction) TableName() string {
	return "transactions"
}

// IsTerminal reports whether the transaction has reached a final state.
func (t *Transaction) IsTerminal() bool {
	return t.Status == StatusSuccess || t.Status == StatusFailed
}

// DisplayName returns the donor name as shown publicly.
func (t *Transaction) DisplayName() string {
	if t.IsAnonymous {
		return "Anonymous"
	}
	return t.DonorName
}
