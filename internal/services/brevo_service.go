package services

import (
	"context"
	"fmt"

	"donation-api/internal/config"

	brevo "github.com/getbrevo/brevo-go/lib"
)

// BrevoService sends transactional email through the Brevo API.
type BrevoService struct {
	FromEmail string
	FromName  string

	client *brevo.APIClient
}

// NewBrevoService creates a new Brevo service instance
func NewBrevoService() *BrevoService {
	cfg := brevo.NewConfiguration()
	cfg.AddDefaultHeader("api-key", config.AppConfig.BrevoAPIKey)

	return &BrevoService{
		FromEmail: config.AppConfig.BrevoFromEmail,
		FromName:  config.AppConfig.BrevoFromName,
		client:    brevo.NewAPIClient(cfg),
	}
}

// SendEmail sends one plain-text transactional email.
func (s *BrevoService) SendEmail(ctx context.Context, to, toName, subject, body string) error {
	email := brevo.SendSmtpEmail{
		Sender: &brevo.SendSmtpEmailSender{
			Name:  s.FromName,
			Email: s.FromEmail,
		},
		To: []brevo.SendSmtpEmailTo{
			{Email: to, Name: toName},
		},
		Subject:     subject,
		TextContent: body,
	}

	_, resp, err := s.client.TransactionalEmailsApi.SendTransacEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("brevo API error: status %d", resp.StatusCode)
	}

	return nil
}
