package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"

	"donation-api/internal/config"
	"donation-api/internal/database"
	"donation-api/internal/middleware"
	"donation-api/internal/models"
	"donation-api/internal/services"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	testMerchantCode = "DM1234"
	testAPIKey       = "secretkey"
)

func setupAPITest(t *testing.T, gatewayURL string) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := filepath.Join(t.TempDir(), "api.db") + "?_busy_timeout=5000"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := db.AutoMigrate(&models.Campaign{}, &models.Transaction{}, &models.Setting{}); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	database.DB = db
	database.RedisClient = nil
	config.AppConfig = &config.Config{
		SweepBatchSize:        50,
		GatewayTimeoutSeconds: 5,
		SiteBaseURL:           "https://donasi.example",
	}

	duitkuService = &services.DuitkuService{
		MerchantCode: testMerchantCode,
		APIKey:       testAPIKey,
		BaseURL:      gatewayURL,
	}
	reconciler = services.NewReconcilerService(nil)
	donationService = services.NewDonationService(duitkuService)
	campaignService = services.NewCampaignService()
	settingsService = services.NewSettingsService()

	r := gin.New()
	r.Use(middleware.CORSMiddleware())
	r.POST("/api/payment/callback", PaymentCallback)
	r.POST("/api/transactions/check", CheckTransaction)
	r.POST("/api/cron/check-transactions", CronSweep)
	return r, db
}

func seedPending(t *testing.T, db *gorm.DB, orderID string, amount int64) *models.Campaign {
	t.Helper()

	campaign := &models.Campaign{
		Slug:         "bantu-" + strings.ToLower(orderID),
		Title:        "Campaign " + orderID,
		TargetAmount: 10000000,
		IsActive:     true,
	}
	if err := db.Create(campaign).Error; err != nil {
		t.Fatalf("failed to seed campaign: %v", err)
	}

	transaction := &models.Transaction{
		MerchantOrderID: orderID,
		Amount:          amount,
		Status:          models.StatusPending,
		CampaignID:      campaign.ID,
	}
	if err := db.Create(transaction).Error; err != nil {
		t.Fatalf("failed to seed transaction: %v", err)
	}
	return campaign
}

func postCallback(r *gin.Engine, orderID, amount, signature string) *httptest.ResponseRecorder {
	form := url.Values{}
	form.Set("merchantCode", testMerchantCode)
	form.Set("amount", amount)
	form.Set("merchantOrderId", orderID)
	form.Set("resultCode", "00")
	form.Set("reference", "REF1")
	form.Set("signature", signature)

	req := httptest.NewRequest("POST", "/api/payment/callback", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestPaymentCallbackInvalidSignature(t *testing.T) {
	r, db := setupAPITest(t, "")
	campaign := seedPending(t, db, "ORD-1", 50000)

	w := postCallback(r, "ORD-1", "50000", "forged")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
	}

	// No mutation on rejected callbacks
	var trx models.Transaction
	db.Where("merchant_order_id = ?", "ORD-1").First(&trx)
	if trx.Status != models.StatusPending {
		t.Errorf("expected transaction to stay pending, got %s", trx.Status)
	}
	var updated models.Campaign
	db.First(&updated, campaign.ID)
	if updated.CurrentAmount != 0 {
		t.Errorf("expected campaign uncredited, got %d", updated.CurrentAmount)
	}
}

func TestPaymentCallbackSuccessAndDuplicate(t *testing.T) {
	r, db := setupAPITest(t, "")
	campaign := seedPending(t, db, "ORD-1", 50000)

	signature := services.CallbackSignature(testMerchantCode, "50000", "ORD-1", testAPIKey)

	w := postCallback(r, "ORD-1", "50000", signature)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var body struct {
		Applied bool   `json:"applied"`
		Status  string `json:"status"`
	}
	json.Unmarshal(w.Body.Bytes(), &body)
	if !body.Applied || body.Status != models.StatusSuccess {
		t.Errorf("unexpected callback response: %s", w.Body.String())
	}

	// Gateway retries the same callback: acknowledged but not re-applied
	w = postCallback(r, "ORD-1", "50000", signature)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 on duplicate, got %d", w.Code)
	}
	json.Unmarshal(w.Body.Bytes(), &body)
	if body.Applied {
		t.Error("expected duplicate callback to be a no-op")
	}

	var updated models.Campaign
	db.First(&updated, campaign.ID)
	if updated.CurrentAmount != 50000 {
		t.Errorf("expected exactly one credit, got %d", updated.CurrentAmount)
	}
}

func TestPaymentCallbackUnknownOrder(t *testing.T) {
	r, _ := setupAPITest(t, "")

	signature := services.CallbackSignature(testMerchantCode, "50000", "GHOST", testAPIKey)
	w := postCallback(r, "GHOST", "50000", signature)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d: %s", w.Code, w.Body.String())
	}
}

func TestPaymentCallbackPreflight(t *testing.T) {
	r, _ := setupAPITest(t, "")

	req := httptest.NewRequest("OPTIONS", "/api/payment/callback", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204 on preflight, got %d", w.Code)
	}
	if w.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("expected permissive CORS headers on preflight")
	}
}

// gatewayStub answers status queries per order id: map value is the result
// code, "500" makes the stub fail the request.
func gatewayStub(t *testing.T, codes map[string]string) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			MerchantOrderID string `json:"merchantOrderId"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("bad gateway request: %v", err)
		}

		code, ok := codes[req.MerchantOrderID]
		if !ok || code == "500" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(services.StatusResult{
			MerchantOrderID: req.MerchantOrderID,
			Reference:       "REF-" + req.MerchantOrderID,
			StatusCode:      code,
			StatusMessage:   "STATUS",
		})
	}))
}

func TestCheckTransaction(t *testing.T) {
	gateway := gatewayStub(t, map[string]string{"ORD-1": "00"})
	defer gateway.Close()

	r, db := setupAPITest(t, gateway.URL)
	campaign := seedPending(t, db, "ORD-1", 50000)

	payload, _ := json.Marshal(map[string]string{"merchantOrderId": "ORD-1"})
	req := httptest.NewRequest("POST", "/api/transactions/check", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var body struct {
		Status     string `json:"status"`
		ResultCode string `json:"resultCode"`
	}
	json.Unmarshal(w.Body.Bytes(), &body)
	if body.Status != models.StatusSuccess || body.ResultCode != "00" {
		t.Errorf("unexpected check response: %s", w.Body.String())
	}

	var updated models.Campaign
	db.First(&updated, campaign.ID)
	if updated.CurrentAmount != 50000 {
		t.Errorf("expected campaign credited, got %d", updated.CurrentAmount)
	}

	// Terminal transactions answer from local state, no gateway round-trip
	gateway.Close()
	w = httptest.NewRecorder()
	req = httptest.NewRequest("POST", "/api/transactions/check", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 from local state, got %d", w.Code)
	}
}

func TestCheckTransactionUnknown(t *testing.T) {
	r, _ := setupAPITest(t, "")

	payload, _ := json.Marshal(map[string]string{"merchantOrderId": "GHOST"})
	req := httptest.NewRequest("POST", "/api/transactions/check", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestCheckTransactionGatewayDown(t *testing.T) {
	gateway := gatewayStub(t, map[string]string{})
	gateway.Close()

	r, db := setupAPITest(t, gateway.URL)
	seedPending(t, db, "ORD-1", 50000)

	payload, _ := json.Marshal(map[string]string{"merchantOrderId": "ORD-1"})
	req := httptest.NewRequest("POST", "/api/transactions/check", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadGateway {
		t.Fatalf("expected 502 when gateway is down, got %d", w.Code)
	}

	var trx models.Transaction
	db.Where("merchant_order_id = ?", "ORD-1").First(&trx)
	if trx.Status != models.StatusPending {
		t.Errorf("expected transaction to stay pending for the next sweep, got %s", trx.Status)
	}
}

func TestCronSweepPartialFailure(t *testing.T) {
	gateway := gatewayStub(t, map[string]string{
		"ORD-1": "00",
		"ORD-2": "500",
		"ORD-3": "02",
	})
	defer gateway.Close()

	r, db := setupAPITest(t, gateway.URL)
	campaign1 := seedPending(t, db, "ORD-1", 50000)
	seedPending(t, db, "ORD-2", 25000)
	seedPending(t, db, "ORD-3", 10000)

	req := httptest.NewRequest("POST", "/api/cron/check-transactions", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var body struct {
		Processed int           `json:"processed"`
		Results   []SweepResult `json:"results"`
	}
	json.Unmarshal(w.Body.Bytes(), &body)
	if body.Processed != 3 {
		t.Fatalf("expected 3 processed, got %d", body.Processed)
	}

	byOrder := make(map[string]SweepResult)
	for _, result := range body.Results {
		byOrder[result.MerchantOrderID] = result
	}

	if !byOrder["ORD-1"].Applied || byOrder["ORD-1"].Status != models.StatusSuccess {
		t.Errorf("unexpected result for ORD-1: %+v", byOrder["ORD-1"])
	}
	if byOrder["ORD-2"].Error == "" {
		t.Errorf("expected error entry for ORD-2, got %+v", byOrder["ORD-2"])
	}
	if !byOrder["ORD-3"].Applied || byOrder["ORD-3"].Status != models.StatusFailed {
		t.Errorf("unexpected result for ORD-3: %+v", byOrder["ORD-3"])
	}

	// ORD-2 stays pending for the next sweep
	var trx models.Transaction
	db.Where("merchant_order_id = ?", "ORD-2").First(&trx)
	if trx.Status != models.StatusPending {
		t.Errorf("expected ORD-2 to stay pending, got %s", trx.Status)
	}

	// Only ORD-1's campaign was credited
	var updated models.Campaign
	db.First(&updated, campaign1.ID)
	if updated.CurrentAmount != 50000 {
		t.Errorf("expected campaign1 credited 50000, got %d", updated.CurrentAmount)
	}
}
