package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"donation-api/internal/models"
)

type mockTemplateSource struct {
	templates *NotificationTemplates
	err       error
}

func (m *mockTemplateSource) GetTemplates(ctx context.Context) (*NotificationTemplates, error) {
	return m.templates, m.err
}

type mockWhatsAppSender struct {
	mu       sync.Mutex
	messages map[string]string
	err      error
}

func (m *mockWhatsAppSender) SendMessage(ctx context.Context, phone, message string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.messages == nil {
		m.messages = make(map[string]string)
	}
	m.messages[phone] = message
	return m.err
}

type mockEmailSender struct {
	mu     sync.Mutex
	emails map[string]string
	err    error
}

func (m *mockEmailSender) SendEmail(ctx context.Context, to, toName, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.emails == nil {
		m.emails = make(map[string]string)
	}
	m.emails[to] = subject + "|" + body
	return m.err
}

func testTemplates() *NotificationTemplates {
	return &NotificationTemplates{
		WADonor:           "Terima kasih {name}, donasi {amount} untuk {campaign}: {link}",
		WACampaigner:      "Donasi baru dari {name}: {amount} untuk {campaign}",
		EmailDonor:        "Halo {name}, terima kasih atas donasi {amount}.",
		EmailCampaigner:   "{name} berdonasi {amount} untuk {campaign}.",
		SubjectDonor:      "Terima kasih",
		SubjectCampaigner: "Donasi baru",
	}
}

func testNotificationService(wa *mockWhatsAppSender, email *mockEmailSender) *NotificationService {
	return &NotificationService{
		templates:   &mockTemplateSource{templates: testTemplates()},
		whatsapp:    wa,
		email:       email,
		siteBaseURL: "https://donasi.example",
	}
}

func TestRenderTemplate(t *testing.T) {
	data := map[string]string{
		"name":     "Budi",
		"amount":   "Rp50.000",
		"campaign": "Bantu Sekolah",
		"link":     "https://donasi.example/campaigns/bantu-sekolah",
	}

	got := RenderTemplate("Halo {name}, donasi {amount} untuk {campaign}. Lihat {link}", data)
	want := "Halo Budi, donasi Rp50.000 untuk Bantu Sekolah. Lihat https://donasi.example/campaigns/bantu-sekolah"
	if got != want {
		t.Errorf("RenderTemplate = %q, want %q", got, want)
	}

	// Unknown tokens stay put
	if got := RenderTemplate("{name} {unknown}", data); got != "Budi {unknown}" {
		t.Errorf("expected unknown token preserved, got %q", got)
	}
}

func TestFormatRupiah(t *testing.T) {
	tests := []struct {
		amount int64
		want   string
	}{
		{0, "Rp0"},
		{500, "Rp500"},
		{50000, "Rp50.000"},
		{1500000, "Rp1.500.000"},
		{1234567890, "Rp1.234.567.890"},
		{-50000, "-Rp50.000"},
	}

	for _, tt := range tests {
		if got := FormatRupiah(tt.amount); got != tt.want {
			t.Errorf("FormatRupiah(%d) = %q, want %q", tt.amount, got, tt.want)
		}
	}
}

func TestNotifyDonationSuccess(t *testing.T) {
	wa := &mockWhatsAppSender{}
	email := &mockEmailSender{}
	service := testNotificationService(wa, email)

	transaction := models.Transaction{
		MerchantOrderID: "T1",
		DonorName:       "Budi",
		DonorPhone:      "08198765432",
		DonorEmail:      "budi@example.com",
		Amount:          50000,
	}
	campaign := models.Campaign{
		Slug:       "bantu-sekolah",
		Title:      "Bantu Sekolah",
		OwnerName:  "Ibu Sari",
		OwnerPhone: "08123456789",
		OwnerEmail: "sari@example.com",
	}

	service.NotifyDonationSuccess(transaction, campaign)

	if len(wa.messages) != 2 {
		t.Fatalf("expected 2 WhatsApp messages, got %d", len(wa.messages))
	}
	donorMsg := wa.messages["08198765432"]
	if donorMsg != "Terima kasih Budi, donasi Rp50.000 untuk Bantu Sekolah: https://donasi.example/campaigns/bantu-sekolah" {
		t.Errorf("unexpected donor message: %q", donorMsg)
	}
	if _, ok := wa.messages["08123456789"]; !ok {
		t.Error("expected campaigner WhatsApp message")
	}

	if len(email.emails) != 2 {
		t.Fatalf("expected 2 emails, got %d", len(email.emails))
	}
	if _, ok := email.emails["budi@example.com"]; !ok {
		t.Error("expected donor email")
	}
	if _, ok := email.emails["sari@example.com"]; !ok {
		t.Error("expected campaigner email")
	}
}

func TestNotifyAnonymousDonorMasked(t *testing.T) {
	wa := &mockWhatsAppSender{}
	email := &mockEmailSender{}
	service := testNotificationService(wa, email)

	transaction := models.Transaction{
		DonorName:   "Budi",
		DonorPhone:  "08198765432",
		IsAnonymous: true,
		Amount:      50000,
	}
	campaign := models.Campaign{Slug: "c1", Title: "C1", OwnerPhone: "08123456789"}

	service.NotifyDonationSuccess(transaction, campaign)

	campaignerMsg := wa.messages["08123456789"]
	if campaignerMsg != "Donasi baru dari Anonymous: Rp50.000 untuk C1" {
		t.Errorf("expected anonymous donor masked, got %q", campaignerMsg)
	}
}

func TestNotifyChannelIndependence(t *testing.T) {
	// WhatsApp provider is down; email must still go out.
	wa := &mockWhatsAppSender{err: errors.New("fonnte down")}
	email := &mockEmailSender{}
	service := testNotificationService(wa, email)

	transaction := models.Transaction{
		DonorName:  "Budi",
		DonorPhone: "08198765432",
		DonorEmail: "budi@example.com",
		Amount:     50000,
	}
	campaign := models.Campaign{Slug: "c1", Title: "C1", OwnerEmail: "sari@example.com"}

	service.NotifyDonationSuccess(transaction, campaign)

	if len(email.emails) != 2 {
		t.Errorf("expected both emails despite WhatsApp outage, got %d", len(email.emails))
	}
}

func TestNotifySkipsEmptyContacts(t *testing.T) {
	wa := &mockWhatsAppSender{}
	email := &mockEmailSender{}
	service := testNotificationService(wa, email)

	transaction := models.Transaction{DonorName: "Budi", Amount: 50000}
	campaign := models.Campaign{Slug: "c1", Title: "C1"}

	service.NotifyDonationSuccess(transaction, campaign)

	if len(wa.messages) != 0 || len(email.emails) != 0 {
		t.Errorf("expected no sends without contact details, got wa=%d email=%d", len(wa.messages), len(email.emails))
	}
}
