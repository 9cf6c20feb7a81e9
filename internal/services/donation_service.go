package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"donation-api/internal/database"
	"donation-api/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DonationService creates donation transactions and registers them with the
// payment gateway.
type DonationService struct {
	db     *gorm.DB
	duitku *DuitkuService
}

// NewDonationService creates a new donation service
func NewDonationService(duitku *DuitkuService) *DonationService {
	return &DonationService{
		db:     database.GetDB(),
		duitku: duitku,
	}
}

// DonationRequest describes a donor initiating a payment.
type DonationRequest struct {
	CampaignSlug  string
	DonorName     string
	DonorPhone    string
	DonorEmail    string
	IsAnonymous   bool
	Amount        int64
	PaymentMethod string
}

// DonationResult is returned to the donor to continue payment.
type DonationResult struct {
	MerchantOrderID string `json:"merchant_order_id"`
	InvoiceCode     string `json:"invoice_code"`
	PaymentURL      string `json:"payment_url"`
	VANumber        string `json:"va_number,omitempty"`
	QRString        string `json:"qr_string,omitempty"`
	Reference       string `json:"reference"`
	Amount          int64  `json:"amount"`
}

// CreateDonation stores a pending transaction and creates a gateway invoice
// for it. The transaction row is written first so a callback arriving
// immediately after invoice creation always finds its correlation key.
func (s *DonationService) CreateDonation(ctx context.Context, req DonationRequest) (*DonationResult, error) {
	if req.Amount <= 0 {
		return nil, fmt.Errorf("amount must be greater than zero")
	}

	campaignService := &CampaignService{db: s.db}
	campaign, err := campaignService.GetBySlug(req.CampaignSlug)
	if err != nil {
		return nil, err
	}
	if !campaign.IsActive {
		return nil, fmt.Errorf("campaign %s is not accepting donations", campaign.Slug)
	}

	now := time.Now()
	merchantOrderID := strings.ReplaceAll(uuid.New().String(), "-", "")
	invoiceCode := fmt.Sprintf("INV/%s/%s", now.Format("20060102"), strings.ToUpper(merchantOrderID[:6]))

	transaction := &models.Transaction{
		MerchantOrderID: merchantOrderID,
		InvoiceCode:     invoiceCode,
		DonorName:       req.DonorName,
		DonorPhone:      req.DonorPhone,
		DonorEmail:      req.DonorEmail,
		IsAnonymous:     req.IsAnonymous,
		Amount:          req.Amount,
		PaymentMethod:   req.PaymentMethod,
		Status:          models.StatusPending,
		CampaignID:      campaign.ID,
	}

	if err := s.db.WithContext(ctx).Create(transaction).Error; err != nil {
		return nil, fmt.Errorf("failed to create transaction: %w", err)
	}

	invoice, err := s.duitku.CreateInvoice(ctx, InvoiceRequest{
		MerchantOrderID: merchantOrderID,
		Amount:          req.Amount,
		PaymentMethod:   req.PaymentMethod,
		ProductDetails:  "Donasi: " + campaign.Title,
		CustomerName:    req.DonorName,
		Email:           req.DonorEmail,
		PhoneNumber:     req.DonorPhone,
	})
	if err != nil {
		return nil, err
	}

	// Record the gateway reference on the pending row; status stays pending
	// until the reconciler sees a result code.
	if err := s.db.WithContext(ctx).Model(transaction).
		UpdateColumn("reference", invoice.Reference).Error; err != nil {
		return nil, fmt.Errorf("failed to store gateway reference: %w", err)
	}

	return &DonationResult{
		MerchantOrderID: merchantOrderID,
		InvoiceCode:     invoiceCode,
		PaymentURL:      invoice.PaymentURL,
		VANumber:        invoice.VANumber,
		QRString:        invoice.QRString,
		Reference:       invoice.Reference,
		Amount:          req.Amount,
	}, nil
}

// GetByMerchantOrderID fetches one transaction by its correlation key.
func (s *DonationService) GetByMerchantOrderID(merchantOrderID string) (*models.Transaction, error) {
	var transaction models.Transaction
	result := s.db.Where("merchant_order_id = ?", merchantOrderID).First(&transaction)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrTransactionNotFound
		}
		return nil, result.Error
	}
	return &transaction, nil
}

// ListPending returns up to limit pending transactions, oldest first, for
// the cron sweep.
func (s *DonationService) ListPending(limit int) ([]models.Transaction, error) {
	var transactions []models.Transaction
	result := s.db.Where("status = ?", models.StatusPending).
		Order("created_at ASC").
		Limit(limit).
		Find(&transactions)
	if result.Error != nil {
		return nil, result.Error
	}
	return transactions, nil
}

// List returns transactions for the admin dashboard, optionally filtered by
// status and campaign.
func (s *DonationService) List(status string, campaignID uint, limit, offset int) ([]models.Transaction, int64, error) {
	query := s.db.Model(&models.Transaction{})
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if campaignID != 0 {
		query = query.Where("campaign_id = ?", campaignID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var transactions []models.Transaction
	result := query.Order("created_at DESC").Limit(limit).Offset(offset).Find(&transactions)
	if result.Error != nil {
		return nil, 0, result.Error
	}
	return transactions, total, nil
}
