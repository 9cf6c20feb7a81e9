package services

import (
	"context"
	"strconv"
	"strings"
	"time"

	"donation-api/internal/config"
	"donation-api/internal/models"
	"donation-api/pkg/logging"
)

// WhatsAppSender sends one WhatsApp message.
type WhatsAppSender interface {
	SendMessage(ctx context.Context, phone, message string) error
}

// EmailSender sends one transactional email.
type EmailSender interface {
	SendEmail(ctx context.Context, to, toName, subject, body string) error
}

// TemplateSource provides the notification template snapshot.
type TemplateSource interface {
	GetTemplates(ctx context.Context) (*NotificationTemplates, error)
}

// NotificationService fans a successful donation out to the donor and the
// campaigner over WhatsApp and email. Every channel is best-effort: a
// provider outage is logged per channel and never reaches the reconciler.
type NotificationService struct {
	templates TemplateSource
	whatsapp  WhatsAppSender
	email     EmailSender

	siteBaseURL string
}

// NewNotificationService creates a notification service wired to Fonnte and
// Brevo, reading templates from the settings table.
func NewNotificationService() *NotificationService {
	return &NotificationService{
		templates:   NewSettingsService(),
		whatsapp:    NewFonnteService(),
		email:       NewBrevoService(),
		siteBaseURL: config.AppConfig.SiteBaseURL,
	}
}

// NotifyDonationSuccess sends the donor thank-you and the campaigner
// new-donation messages. Templates are snapshotted once per call.
func (s *NotificationService) NotifyDonationSuccess(transaction models.Transaction, campaign models.Campaign) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	templates, err := s.templates.GetTemplates(ctx)
	if err != nil {
		logging.Errorf("Failed to load notification templates for %s: %v", transaction.MerchantOrderID, err)
		return
	}

	data := map[string]string{
		"name":     transaction.DisplayName(),
		"amount":   FormatRupiah(transaction.Amount),
		"campaign": campaign.Title,
		"link":     s.siteBaseURL + "/campaigns/" + campaign.Slug,
	}

	// Donor channels
	if transaction.DonorPhone != "" {
		s.sendWhatsApp(ctx, transaction.DonorPhone, RenderTemplate(templates.WADonor, data), transaction.MerchantOrderID)
	}
	if transaction.DonorEmail != "" {
		s.sendEmail(ctx, transaction.DonorEmail, transaction.DonorName,
			RenderTemplate(templates.SubjectDonor, data), RenderTemplate(templates.EmailDonor, data), transaction.MerchantOrderID)
	}

	// Campaigner channels
	if campaign.OwnerPhone != "" {
		s.sendWhatsApp(ctx, campaign.OwnerPhone, RenderTemplate(templates.WACampaigner, data), transaction.MerchantOrderID)
	}
	if campaign.OwnerEmail != "" {
		s.sendEmail(ctx, campaign.OwnerEmail, campaign.OwnerName,
			RenderTemplate(templates.SubjectCampaigner, data), RenderTemplate(templates.EmailCampaigner, data), transaction.MerchantOrderID)
	}
}

func (s *NotificationService) sendWhatsApp(ctx context.Context, phone, message, orderID string) {
	if err := s.whatsapp.SendMessage(ctx, phone, message); err != nil {
		logging.Errorf("WhatsApp notification failed for %s: %v", orderID, err)
		return
	}
	logging.Infof("WhatsApp notification sent for %s", orderID)
}

func (s *NotificationService) sendEmail(ctx context.Context, to, toName, subject, body, orderID string) {
	if err := s.email.SendEmail(ctx, to, toName, subject, body); err != nil {
		logging.Errorf("Email notification failed for %s: %v", orderID, err)
		return
	}
	logging.Infof("Email notification sent for %s", orderID)
}

// RenderTemplate substitutes the {name}, {amount}, {campaign} and {link}
// tokens. Unknown tokens are left as-is.
func RenderTemplate(template string, data map[string]string) string {
	out := template
	for key, value := range data {
		out = strings.ReplaceAll(out, "{"+key+"}", value)
	}
	return out
}

// FormatRupiah formats an integer rupiah amount as "Rp50.000".
func FormatRupiah(amount int64) string {
	digits := strconv.FormatInt(amount, 10)
	negative := false
	if strings.HasPrefix(digits, "-") {
		negative = true
		digits = digits[1:]
	}

	var b strings.Builder
	for i, d := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(d)
	}

	if negative {
		return "-Rp" + b.String()
	}
	return "Rp" + b.String()
}
