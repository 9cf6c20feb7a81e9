package services

import (
	"bytes"
	"context"
	"crypto/md5"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"donation-api/internal/config"
	"donation-api/pkg/logging"
)

// Gateway errors. ErrGatewayUnavailable marks transient transport failures:
// the transaction stays pending and the cron sweep retries it on its next
// run, so callers must not treat it as a terminal payment failure.
var (
	ErrGatewayUnavailable = errors.New("payment gateway unavailable")
	ErrGatewayRejected    = errors.New("payment gateway rejected request")
)

// Duitku result codes returned by the status endpoint and the callback.
const (
	ResultCodeSuccess = "00"
	ResultCodePending = "01"
	ResultCodeFailed  = "02"
)

// DuitkuService calls the Duitku payment gateway. All requests carry a keyed
// hash signature; the field order and hash algorithm per endpoint are fixed
// by the gateway contract.
type DuitkuService struct {
	MerchantCode string
	APIKey       string
	BaseURL      string
	CallbackURL  string
	ReturnURL    string

	httpClient *http.Client
}

// NewDuitkuService creates a new Duitku gateway client
func NewDuitkuService() *DuitkuService {
	timeout := time.Duration(config.AppConfig.GatewayTimeoutSeconds) * time.Second
	return &DuitkuService{
		MerchantCode: config.AppConfig.DuitkuMerchantCode,
		APIKey:       config.AppConfig.DuitkuAPIKey,
		BaseURL:      config.AppConfig.DuitkuBaseURL,
		CallbackURL:  config.AppConfig.DuitkuCallbackURL,
		ReturnURL:    config.AppConfig.DuitkuReturnURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// StatusSignature computes the MD5 signature for the transaction status
// endpoint: md5(merchantCode + merchantOrderId + apiKey).
func StatusSignature(merchantCode, merchantOrderID, apiKey string) string {
	sum := md5.Sum([]byte(merchantCode + merchantOrderID + apiKey))
	return hex.EncodeToString(sum[:])
}

// CallbackSignature computes the MD5 signature Duitku sends on callbacks:
// md5(merchantCode + amount + merchantOrderId + apiKey).
func CallbackSignature(merchantCode, amount, merchantOrderID, apiKey string) string {
	sum := md5.Sum([]byte(merchantCode + amount + merchantOrderID + apiKey))
	return hex.EncodeToString(sum[:])
}

// MethodSignature computes the SHA-256 signature for the payment method
// endpoint: sha256(merchantCode + amount + datetime + apiKey).
func MethodSignature(merchantCode, amount, datetime, apiKey string) string {
	sum := sha256.Sum256([]byte(merchantCode + amount + datetime + apiKey))
	return hex.EncodeToString(sum[:])
}

// InvoiceSignature computes the MD5 signature for invoice creation:
// md5(merchantCode + merchantOrderId + paymentAmount + apiKey).
func InvoiceSignature(merchantCode, merchantOrderID, paymentAmount, apiKey string) string {
	sum := md5.Sum([]byte(merchantCode + merchantOrderID + paymentAmount + apiKey))
	return hex.EncodeToString(sum[:])
}

// MapResultCode translates a gateway result code into the internal tri-state
// status. Unknown codes map to pending so the sweep can retry later instead
// of terminating the transaction on a code we do not understand.
func MapResultCode(code string) string {
	switch code {
	case ResultCodeSuccess:
		return "success"
	case ResultCodeFailed:
		return "failed"
	default:
		return "pending"
	}
}

// VerifyCallback recomputes the callback signature and compares it with the
// one supplied by the caller. A forged signature here would let an attacker
// mark arbitrary transactions successful, so reject on any mismatch.
func (s *DuitkuService) VerifyCallback(merchantCode, amount, merchantOrderID, signature string) bool {
	if merchantCode != s.MerchantCode {
		return false
	}
	expected := CallbackSignature(s.MerchantCode, amount, merchantOrderID, s.APIKey)
	return signature == expected
}

// StatusResult is the parsed response of the transaction status endpoint.
type StatusResult struct {
	MerchantOrderID string `json:"merchantOrderId"`
	Reference       string `json:"reference"`
	Amount          string `json:"amount"`
	StatusCode      string `json:"statusCode"`
	StatusMessage   string `json:"statusMessage"`
}

// QueryStatus asks the gateway for the current status of an order. Transport
// failures and gateway-side 5xx responses come back wrapped in
// ErrGatewayUnavailable; one immediate retry is attempted for those before
// giving up, business-level retries belong to the cron sweep.
func (s *DuitkuService) QueryStatus(ctx context.Context, merchantOrderID string) (*StatusResult, error) {
	payload := map[string]string{
		"merchantCode":    s.MerchantCode,
		"merchantOrderId": merchantOrderID,
		"signature":       StatusSignature(s.MerchantCode, merchantOrderID, s.APIKey),
	}

	var result StatusResult
	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		lastErr = s.postJSON(ctx, "/webapi/api/merchant/transactionStatus", payload, &result)
		if lastErr == nil {
			return &result, nil
		}
		if !errors.Is(lastErr, ErrGatewayUnavailable) {
			return nil, lastErr
		}
		logging.Errorf("Duitku status query failed for %s (attempt %d): %v", merchantOrderID, attempt+1, lastErr)
	}
	return nil, lastErr
}

// PaymentMethod is one entry of the payment method list.
type PaymentMethod struct {
	PaymentMethod string `json:"paymentMethod"`
	PaymentName   string `json:"paymentName"`
	PaymentImage  string `json:"paymentImage"`
	TotalFee      string `json:"totalFee"`
}

type paymentMethodResponse struct {
	PaymentFee      []PaymentMethod `json:"paymentFee"`
	ResponseCode    string          `json:"responseCode"`
	ResponseMessage string          `json:"responseMessage"`
}

// GetPaymentMethods fetches the payment methods available for an amount.
// This is the one flow signed with SHA-256 instead of MD5.
func (s *DuitkuService) GetPaymentMethods(ctx context.Context, amount int64) ([]PaymentMethod, error) {
	amountStr := strconv.FormatInt(amount, 10)
	datetime := time.Now().Format("2006-01-02 15:04:05")

	payload := map[string]string{
		"merchantcode": s.MerchantCode,
		"amount":       amountStr,
		"datetime":     datetime,
		"signature":    MethodSignature(s.MerchantCode, amountStr, datetime, s.APIKey),
	}

	var result paymentMethodResponse
	if err := s.postJSON(ctx, "/webapi/api/merchant/paymentmethod/getpaymentmethod", payload, &result); err != nil {
		return nil, err
	}
	if result.ResponseCode != ResultCodeSuccess {
		return nil, fmt.Errorf("%w: %s %s", ErrGatewayRejected, result.ResponseCode, result.ResponseMessage)
	}
	return result.PaymentFee, nil
}

// InvoiceRequest describes a new payment to register with the gateway.
type InvoiceRequest struct {
	MerchantOrderID string
	Amount          int64
	PaymentMethod   string
	ProductDetails  string
	CustomerName    string
	Email           string
	PhoneNumber     string
}

// InvoiceResult is the parsed response of invoice creation.
type InvoiceResult struct {
	Reference     string `json:"reference"`
	PaymentURL    string `json:"paymentUrl"`
	VANumber      string `json:"vaNumber"`
	QRString      string `json:"qrString"`
	Amount        string `json:"amount"`
	StatusCode    string `json:"statusCode"`
	StatusMessage string `json:"statusMessage"`
}

// CreateInvoice registers a payment with the gateway and returns the payment
// URL the donor is redirected to.
func (s *DuitkuService) CreateInvoice(ctx context.Context, req InvoiceRequest) (*InvoiceResult, error) {
	amountStr := strconv.FormatInt(req.Amount, 10)

	payload := map[string]interface{}{
		"merchantCode":    s.MerchantCode,
		"paymentAmount":   req.Amount,
		"paymentMethod":   req.PaymentMethod,
		"merchantOrderId": req.MerchantOrderID,
		"productDetails":  req.ProductDetails,
		"customerVaName":  req.CustomerName,
		"email":           req.Email,
		"phoneNumber":     req.PhoneNumber,
		"callbackUrl":     s.CallbackURL,
		"returnUrl":       s.ReturnURL,
		"expiryPeriod":    1440,
		"signature":       InvoiceSignature(s.MerchantCode, req.MerchantOrderID, amountStr, s.APIKey),
	}

	var result InvoiceResult
	if err := s.postJSON(ctx, "/webapi/api/merchant/v2/inquiry", payload, &result); err != nil {
		return nil, err
	}
	if result.StatusCode != ResultCodeSuccess {
		return nil, fmt.Errorf("%w: %s %s", ErrGatewayRejected, result.StatusCode, result.StatusMessage)
	}
	return &result, nil
}

// postJSON posts a JSON payload and decodes the JSON response. Network
// errors and 5xx responses are wrapped in ErrGatewayUnavailable, 4xx in
// ErrGatewayRejected.
func (s *DuitkuService) postJSON(ctx context.Context, path string, payload interface{}, out interface{}) error {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", s.BaseURL+path, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	client := s.httpClient
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}

	if resp.StatusCode >= 500 {
		return fmt.Errorf("%w: status %d", ErrGatewayUnavailable, resp.StatusCode)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("%w: status %d: %s", ErrGatewayRejected, resp.StatusCode, string(body))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to parse gateway response: %w", err)
	}
	return nil
}
