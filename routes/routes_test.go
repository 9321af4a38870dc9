package routes

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"boltnexus/config"
	"boltnexus/database"
	"boltnexus/locks"
	"boltnexus/middleware"
	"boltnexus/payments"
	"boltnexus/services"
	"boltnexus/utils"
)

type testServer struct {
	router *gin.Engine
	db     *gorm.DB
	cfg    *config.Config
}

func testConfig() *config.Config {
	return &config.Config{
		Environment:               "test",
		CORSOrigins:               []string{"*"},
		JWTSecret:                 "routes-secret",
		JWTExpiryHours:            1,
		DefaultTechnicianEmail:    "tech@boltnexus.in",
		DefaultTechnicianPassword: "s3cret",
	}
}

func setupTestServer(t *testing.T, cfg *config.Config, limiter *middleware.RateLimiterStore) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	utils.SetTestLoggerNop()

	db, err := database.OpenMemory(uuid.NewString())
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })
	require.NoError(t, database.SeedDefaultTechnician(db, cfg.DefaultTechnicianEmail, cfg.DefaultTechnicianPassword))

	gateway, err := payments.NewRazorpayGateway("rzp_test_dummy", "dummy_secret", true)
	require.NoError(t, err)

	router := NewRouter(Dependencies{
		Config:      cfg,
		DB:          db,
		Appliances:  services.NewApplianceService(db),
		Bookings:    services.NewBookingService(db, gateway, locks.NewMemoryLocker()),
		Technicians: services.NewTechnicianService(db, cfg.JWTSecret, cfg.JWTExpiration()),
		RateLimiter: limiter,
	})
	return &testServer{router: router, db: db, cfg: cfg}
}

func (s *testServer) do(t *testing.T, method, path string, body interface{}, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func decodeList(t *testing.T, w *httptest.ResponseRecorder) []map[string]interface{} {
	t.Helper()
	var out []map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func registerBody(email string) map[string]interface{} {
	return map[string]interface{}{
		"name":                "Asha",
		"email":               email,
		"phone":               "9876543210",
		"city":                "Bengaluru",
		"appliance_type":      "AC",
		"brand_model":         "Voltas 1.5T",
		"appliance_age_years": 2,
		"usage_hours_per_day": 10,
	}
}

func TestRootAndHealth(t *testing.T) {
	s := setupTestServer(t, testConfig(), nil)

	w := s.do(t, http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Bolt Nexus API is running")

	w = s.do(t, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	w = s.do(t, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get(middleware.HeaderRequestID))
}

func TestBookingLifecycle(t *testing.T) {
	s := setupTestServer(t, testConfig(), nil)

	// register: 100 - 4 (age) - 10 (usage) = 86, loss 1500 * 0.14 * 1.25
	w := s.do(t, http.MethodPost, "/api/register", registerBody("a@b.com"))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	reg := decode(t, w)
	assert.Equal(t, 86.0, reg["health_score"])
	assert.Equal(t, 262.5, reg["energy_loss_per_month"])
	assert.Equal(t, 183.75, reg["estimated_savings"])
	assert.Equal(t, 3000.0, reg["current_bill"])
	assert.Equal(t, map[string]interface{}{"one_time": 799.0, "amc": 999.0}, reg["pricing"])
	userID := uint(reg["user_id"].(float64))
	applianceID := uint(reg["appliance_id"].(float64))

	w = s.do(t, http.MethodGet, fmt.Sprintf("/api/users/%d", userID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "a@b.com", decode(t, w)["email"])

	// book
	w = s.do(t, http.MethodPost, "/api/bookings", map[string]interface{}{
		"user_id":        userID,
		"appliance_id":   applianceID,
		"service_type":   "one_time",
		"scheduled_date": time.Now().AddDate(0, 0, 2).Format("2006-01-02"),
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode(t, w)
	assert.Equal(t, true, created["payment_required"])
	assert.Equal(t, 799.0, created["amount"])
	booking := created["booking"].(map[string]interface{})
	assert.Equal(t, "pending", booking["status"])
	assert.Equal(t, "pending", booking["payment_status"])
	bookingID := uint(booking["id"].(float64))
	technicianID := uint(booking["technician_id"].(float64))

	// completing before payment is out of order
	w = s.do(t, http.MethodPost, fmt.Sprintf("/api/technician/jobs/%d/complete", bookingID), map[string]interface{}{"notes": "early"})
	assert.Equal(t, http.StatusConflict, w.Code)

	// pay
	w = s.do(t, http.MethodPost, "/api/payments/create-order", map[string]interface{}{
		"booking_id": bookingID,
		"amount":     799,
		"user_id":    userID,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	order := decode(t, w)
	assert.Equal(t, "INR", order["currency"])
	assert.Equal(t, "rzp_test_dummy", order["key"])
	assert.Contains(t, order["order_id"], fmt.Sprintf("order_booking_%d_", bookingID))
	paymentID := uint(order["payment_id"].(float64))

	w = s.do(t, http.MethodPost, "/api/payments/verify", map[string]interface{}{
		"payment_id":          paymentID,
		"booking_id":          bookingID,
		"razorpay_order_id":   order["order_id"],
		"razorpay_payment_id": "pay_123",
		"razorpay_signature":  "sig",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, true, decode(t, w)["success"])

	w = s.do(t, http.MethodGet, fmt.Sprintf("/api/bookings/%d", userID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	bookings := decodeList(t, w)
	require.Len(t, bookings, 1)
	assert.Equal(t, "confirmed", bookings[0]["status"])
	assert.Equal(t, "paid", bookings[0]["payment_status"])
	assert.NotNil(t, bookings[0]["appliance"])

	// paying twice is out of order
	w = s.do(t, http.MethodPost, "/api/payments/verify", map[string]interface{}{
		"payment_id":          paymentID,
		"booking_id":          bookingID,
		"razorpay_payment_id": "pay_124",
		"razorpay_signature":  "sig",
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	// technician view
	w = s.do(t, http.MethodGet, fmt.Sprintf("/api/technician/%d/jobs?status=confirmed", technicianID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	jobs := decodeList(t, w)
	require.Len(t, jobs, 1)
	assert.NotNil(t, jobs[0]["user"])

	// complete
	w = s.do(t, http.MethodPost, fmt.Sprintf("/api/technician/jobs/%d/complete", bookingID), map[string]interface{}{
		"technician_id":    technicianID,
		"notes":            "Cleaned filters",
		"parts_replaced":   "none",
		"verified_savings": 180,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(t, http.MethodGet, fmt.Sprintf("/api/appliances/%d", userID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	appliances := decodeList(t, w)
	require.Len(t, appliances, 1)
	assert.Equal(t, 95.0, appliances[0]["health_score"])
	assert.Equal(t, 0.0, appliances[0]["months_since_service"])
	assert.Equal(t, "serviced", appliances[0]["status"])

	w = s.do(t, http.MethodGet, fmt.Sprintf("/api/dashboard/%d", userID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	dash := decode(t, w)
	assert.Equal(t, 0.0, dash["appliances_needing_service"])
	assert.Len(t, dash["bookings"], 1)
}

func TestDiagnosticCreated(t *testing.T) {
	s := setupTestServer(t, testConfig(), nil)

	w := s.do(t, http.MethodPost, "/api/diagnostic", map[string]interface{}{
		"email":                "d@b.com",
		"appliance_type":       "Washing Machine",
		"year_of_purchase":     time.Now().Year() - 1,
		"usage_hours_per_day":  2,
		"months_since_service": 3,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	res := decode(t, w)
	// 100 - 9 (months) - 2 (age)
	assert.Equal(t, 89.0, res["health_score"])
	assert.NotZero(t, res["diagnostic_id"])
	assert.Equal(t, map[string]interface{}{"one_time": 649.0, "amc": 749.0}, res["pricing"])
}

func TestValidationAndNotFound(t *testing.T) {
	s := setupTestServer(t, testConfig(), nil)

	body := registerBody("")
	delete(body, "email")
	w := s.do(t, http.MethodPost, "/api/register", body)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	res := decode(t, w)
	assert.Equal(t, "Invalid request data", res["error"])
	assert.NotNil(t, res["details"])

	w = s.do(t, http.MethodGet, "/api/users/abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodGet, "/api/users/999", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"user not found"}`, w.Body.String())

	w = s.do(t, http.MethodPost, "/api/bookings", map[string]interface{}{
		"user_id": 1, "appliance_id": 999, "service_type": "amc", "scheduled_date": "2030-01-02",
	})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, http.MethodPost, "/api/bookings", map[string]interface{}{
		"user_id": 1, "appliance_id": 1, "service_type": "amc", "scheduled_date": "next tuesday",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPost, "/api/payments/create-order", map[string]interface{}{"booking_id": 999})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, http.MethodPost, "/api/payments/verify", map[string]interface{}{"booking_id": 1})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodGet, "/api/technician/1/jobs?status=lost", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRateLimitedRegister(t *testing.T) {
	s := setupTestServer(t, testConfig(), middleware.NewRateLimiterStore(0.001, 1))

	w := s.do(t, http.MethodPost, "/api/register", registerBody("a@b.com"))
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodPost, "/api/register", registerBody("a@b.com"))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	// reads are not limited
	w = s.do(t, http.MethodGet, "/api/appliances/1", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestTechnicianAuthRequired(t *testing.T) {
	cfg := testConfig()
	cfg.RequireTechnicianAuth = true
	s := setupTestServer(t, cfg, nil)

	w := s.do(t, http.MethodGet, "/api/technician/1/jobs", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(t, http.MethodPost, "/api/technician/login", map[string]interface{}{
		"email": "tech@boltnexus.in", "password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(t, http.MethodPost, "/api/technician/login", map[string]interface{}{
		"email": "tech@boltnexus.in", "password": "s3cret",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	login := decode(t, w)
	token := login["token"].(string)
	techID := uint(login["technician"].(map[string]interface{})["id"].(float64))

	w = s.do(t, http.MethodGet, fmt.Sprintf("/api/technician/%d/jobs", techID), nil, "Authorization", "Bearer "+token)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())

	w = s.do(t, http.MethodGet, fmt.Sprintf("/api/technician/%d/jobs", techID+1), nil, "Authorization", "Bearer "+token)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestServerErrorsAreHiddenOutsideDevelopment(t *testing.T) {
	s := setupTestServer(t, testConfig(), nil)
	require.NoError(t, database.Close(s.db))

	w := s.do(t, http.MethodGet, "/api/appliances/1", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"Server error"}`, w.Body.String())

	w = s.do(t, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestServerErrorsEchoedInDevelopment(t *testing.T) {
	cfg := testConfig()
	cfg.Environment = "development"
	s := setupTestServer(t, cfg, nil)
	require.NoError(t, database.Close(s.db))

	w := s.do(t, http.MethodGet, "/api/appliances/1", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	res := decode(t, w)
	assert.NotEqual(t, "Server error", res["error"])
	assert.NotEmpty(t, res["error"])
}
