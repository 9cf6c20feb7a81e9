package services

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"donation-api/internal/config"
)

// FonnteService sends WhatsApp messages through the Fonnte business API.
type FonnteService struct {
	Token   string
	BaseURL string

	httpClient *http.Client
}

// NewFonnteService creates a new Fonnte service instance
func NewFonnteService() *FonnteService {
	return &FonnteService{
		Token:   config.AppConfig.FonnteToken,
		BaseURL: config.AppConfig.FonnteBaseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// SendMessage sends one WhatsApp message to the given phone number.
func (s *FonnteService) SendMessage(ctx context.Context, phone, message string) error {
	form := url.Values{}
	form.Set("target", phone)
	form.Set("message", message)
	form.Set("countryCode", "62")

	req, err := http.NewRequestWithContext(ctx, "POST", s.BaseURL+"/send", strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", s.Token)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send WhatsApp message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("fonnte API error: status %d", resp.StatusCode)
	}

	return nil
}
