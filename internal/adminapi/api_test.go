package adminapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/veriseal/veriseal/config"
	"github.com/veriseal/veriseal/internal/app"
	"github.com/veriseal/veriseal/internal/domain"
	"github.com/veriseal/veriseal/internal/fingerprint"
	"github.com/veriseal/veriseal/internal/token"
	"github.com/veriseal/veriseal/internal/webserver"
)

func setupTestServer(t *testing.T) (*echo.Echo, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(domain.Tables...))

	cfg := &config.AppConfig{}
	*cfg = *config.DefaultAppConfig

	application := app.NewApplication(cfg)
	application.OverrideDB(db)
	application.InitVerifyService()

	webserver.Init(application)
	InitRouter()
	return webserver.Engine(), db
}

func doJSON(t *testing.T, e *echo.Echo, method, path string, payload interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var body *bytes.Buffer
	if payload != nil {
		data, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewBuffer(data)
	} else {
		body = bytes.NewBuffer(nil)
	}
	req := httptest.NewRequest(method, path, body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	var envelope struct {
		Code int             `json:"code"`
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.NoError(t, json.Unmarshal(envelope.Data, out))
}

func sampleProductPayload() map[string]interface{} {
	return map[string]interface{}{
		"serial":           "P-100",
		"name":             "Widget",
		"brand":            "Acme",
		"manufacture_date": "2024-01-01",
		"expiry_date":      "2030-01-01",
	}
}

func TestCreateProductComputesFingerprintAndToken(t *testing.T) {
	e, _ := setupTestServer(t)

	rec := doJSON(t, e, http.MethodPost, "/api/products", sampleProductPayload())
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var p domain.Product
	decodeData(t, rec, &p)

	want := fingerprint.Compute(fingerprint.Attributes{
		Serial:          "P-100",
		Name:            "Widget",
		Brand:           "Acme",
		ManufactureDate: "2024-01-01",
		ExpiryDate:      "2030-01-01",
	})
	assert.Equal(t, want, p.Fingerprint)

	decoded := token.Decode(p.Token)
	require.NotNil(t, decoded)
	assert.Equal(t, "P-100", decoded.Serial)
	assert.Equal(t, want, decoded.Fingerprint)
}

func TestCreateProductRejectsDuplicateSerial(t *testing.T) {
	e, _ := setupTestServer(t)

	rec := doJSON(t, e, http.MethodPost, "/api/products", sampleProductPayload())
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, e, http.MethodPost, "/api/products", sampleProductPayload())
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestCreateProductRejectsBadDates(t *testing.T) {
	e, _ := setupTestServer(t)

	payload := sampleProductPayload()
	payload["expiry_date"] = "not a date"
	rec := doJSON(t, e, http.MethodPost, "/api/products", payload)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateProductRecomputesFingerprint(t *testing.T) {
	e, _ := setupTestServer(t)

	rec := doJSON(t, e, http.MethodPost, "/api/products", sampleProductPayload())
	require.Equal(t, http.StatusOK, rec.Code)
	var created domain.Product
	decodeData(t, rec, &created)

	update := sampleProductPayload()
	update["brand"] = "AcmeCorp"
	rec = doJSON(t, e, http.MethodPut, "/api/products/"+strconv.FormatInt(created.ID, 10), update)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var updated domain.Product
	decodeData(t, rec, &updated)
	assert.NotEqual(t, created.Fingerprint, updated.Fingerprint)
	assert.NotEqual(t, created.Token, updated.Token)

	decoded := token.Decode(updated.Token)
	require.NotNil(t, decoded)
	assert.Equal(t, updated.Fingerprint, decoded.Fingerprint)
}

func TestUpdateProductSerialIsImmutable(t *testing.T) {
	e, _ := setupTestServer(t)

	rec := doJSON(t, e, http.MethodPost, "/api/products", sampleProductPayload())
	require.Equal(t, http.StatusOK, rec.Code)
	var created domain.Product
	decodeData(t, rec, &created)

	update := sampleProductPayload()
	update["serial"] = "P-999"
	rec = doJSON(t, e, http.MethodPut, "/api/products/"+strconv.FormatInt(created.ID, 10), update)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestProductQrcode(t *testing.T) {
	e, _ := setupTestServer(t)

	rec := doJSON(t, e, http.MethodPost, "/api/products", sampleProductPayload())
	require.Equal(t, http.StatusOK, rec.Code)
	var created domain.Product
	decodeData(t, rec, &created)

	req := httptest.NewRequest(http.MethodGet, "/api/products/"+strconv.FormatInt(created.ID, 10)+"/qrcode", nil)
	res := httptest.NewRecorder()
	e.ServeHTTP(res, req)
	require.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, "image/png", res.Header().Get(echo.HeaderContentType))
	assert.Equal(t, []byte{0x89, 0x50, 0x4e, 0x47}, res.Body.Bytes()[:4])
}

type verifyResult struct {
	Status  string `json:"status"`
	Mode    string `json:"mode"`
	Flagged bool   `json:"flagged"`
}

func TestVerifyEndpointWithToken(t *testing.T) {
	e, _ := setupTestServer(t)

	rec := doJSON(t, e, http.MethodPost, "/api/products", sampleProductPayload())
	require.Equal(t, http.StatusOK, rec.Code)
	var created domain.Product
	decodeData(t, rec, &created)

	rec = doJSON(t, e, http.MethodPost, "/api/verify", map[string]string{"code": created.Token})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var res verifyResult
	decodeData(t, rec, &res)
	assert.Equal(t, "original", res.Status)
	assert.Equal(t, "cryptographic", res.Mode)
	assert.False(t, res.Flagged)
}

func TestVerifyEndpointWithForgedToken(t *testing.T) {
	e, _ := setupTestServer(t)

	rec := doJSON(t, e, http.MethodPost, "/api/products", sampleProductPayload())
	require.Equal(t, http.StatusOK, rec.Code)

	forged, err := token.Encode(strings.Repeat("0", 64), "P-100")
	require.NoError(t, err)

	rec = doJSON(t, e, http.MethodPost, "/api/verify", map[string]string{"code": forged})
	require.Equal(t, http.StatusOK, rec.Code)

	var res verifyResult
	decodeData(t, rec, &res)
	assert.Equal(t, "fake", res.Status)
	assert.True(t, res.Flagged)
}

func TestVerifyEndpointManualFallback(t *testing.T) {
	e, _ := setupTestServer(t)

	rec := doJSON(t, e, http.MethodPost, "/api/products", sampleProductPayload())
	require.Equal(t, http.StatusOK, rec.Code)

	// A raw serial does not decode as a token and degrades to existence mode.
	rec = doJSON(t, e, http.MethodPost, "/api/verify", map[string]string{"code": "P-100"})
	require.Equal(t, http.StatusOK, rec.Code)

	var res verifyResult
	decodeData(t, rec, &res)
	assert.Equal(t, "original", res.Status)
	assert.Equal(t, "existence", res.Mode)
}

func TestVerifyEndpointUnknownWritesFlaggedRecord(t *testing.T) {
	e, db := setupTestServer(t)

	rec := doJSON(t, e, http.MethodPost, "/api/verify", map[string]string{"code": "NO-SUCH-ID"})
	require.Equal(t, http.StatusOK, rec.Code)

	var res verifyResult
	decodeData(t, rec, &res)
	assert.Equal(t, "unknown", res.Status)
	assert.True(t, res.Flagged)

	// The audit write is asynchronous.
	deadline := time.Now().Add(3 * time.Second)
	for {
		var stored domain.ScanRecord
		err := db.Where("serial = ?", "NO-SUCH-ID").First(&stored).Error
		if err == nil {
			assert.True(t, stored.Flagged)
			assert.Equal(t, "unknown", stored.Status)
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("flagged scan record was never written")
		}
		time.Sleep(20 * time.Millisecond)
	}
}

func TestVerifySerialEndpoint(t *testing.T) {
	e, _ := setupTestServer(t)

	rec := doJSON(t, e, http.MethodPost, "/api/products", sampleProductPayload())
	require.Equal(t, http.StatusOK, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/verify/P-100", nil)
	res := httptest.NewRecorder()
	e.ServeHTTP(res, req)
	require.Equal(t, http.StatusOK, res.Code)

	var out verifyResult
	decodeData(t, res, &out)
	assert.Equal(t, "original", out.Status)
	assert.Equal(t, "existence", out.Mode)
}

func TestListScansAfterVerification(t *testing.T) {
	e, db := setupTestServer(t)

	// Seed a scan record directly; listing does not depend on the async path.
	actor := "tester"
	require.NoError(t, db.Create(&domain.ScanRecord{
		ID: 1, Serial: "P-100", Actor: &actor, Status: "fake", Flagged: true, Reason: "fingerprint does not match registered product",
	}).Error)

	req := httptest.NewRequest(http.MethodGet, "/api/scans?flagged=true", nil)
	res := httptest.NewRecorder()
	e.ServeHTTP(res, req)
	require.Equal(t, http.StatusOK, res.Code)

	var envelope struct {
		Total int64             `json:"total"`
		Data  []json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &envelope))
	assert.EqualValues(t, 1, envelope.Total)
}

func TestCreateAndListReports(t *testing.T) {
	e, _ := setupTestServer(t)

	rec := doJSON(t, e, http.MethodPost, "/api/reports", map[string]string{
		"serial":      "P-100",
		"description": "bought at a market stall, label looks off",
		"contact":     "holder@example.com",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var r domain.Report
	decodeData(t, rec, &r)
	assert.Equal(t, "open", r.Status)

	req := httptest.NewRequest(http.MethodGet, "/api/reports?serial=P-100", nil)
	res := httptest.NewRecorder()
	e.ServeHTTP(res, req)
	require.Equal(t, http.StatusOK, res.Code)
}
