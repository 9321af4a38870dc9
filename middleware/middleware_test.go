package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"boltnexus/utils"
)

const testSecret = "middleware-secret"

func init() {
	gin.SetMode(gin.TestMode)
}

func token(t *testing.T, role string) string {
	t.Helper()
	tok, err := utils.IssueStaffToken(testSecret, 7, "tech@boltnexus.in", role, time.Now().Add(time.Hour))
	require.NoError(t, err)
	return tok
}

// customerToken is correctly signed but carries a role staff tokens never have
func customerToken(t *testing.T) string {
	t.Helper()
	claims := utils.StaffClaims{
		Role: "customer",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    utils.TokenIssuer,
			Subject:   "7",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return tok
}

func protectedRouter() *gin.Engine {
	r := gin.New()
	r.GET("/jobs", AuthMiddleware(testSecret), TechnicianAuthMiddleware(), func(c *gin.Context) {
		id, _ := StaffID(c)
		c.JSON(http.StatusOK, gin.H{"caller": id})
	})
	return r
}

func TestAuthMiddleware(t *testing.T) {
	utils.SetTestLoggerNop()

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"not bearer", "Basic abc", http.StatusUnauthorized},
		{"garbage token", "Bearer nope", http.StatusUnauthorized},
		{"customer role", "Bearer " + customerToken(t), http.StatusUnauthorized},
		{"technician", "Bearer " + token(t, utils.RoleTechnician), http.StatusOK},
		{"admin", "Bearer " + token(t, utils.RoleAdmin), http.StatusOK},
	}

	r := protectedRouter()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/jobs", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.want, w.Code)
			if tt.want == http.StatusOK {
				assert.JSONEq(t, `{"caller":7}`, w.Body.String())
			} else {
				assert.Contains(t, w.Body.String(), `"error"`)
			}
		})
	}
}

func TestAuthMiddleware_ExpiredToken(t *testing.T) {
	utils.SetTestLoggerNop()

	tok, err := utils.IssueStaffToken(testSecret, 7, "tech@boltnexus.in", utils.RoleTechnician, time.Now().Add(-time.Minute))
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/jobs", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	w := httptest.NewRecorder()
	protectedRouter().ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRoleAuthMiddleware_Forbidden(t *testing.T) {
	utils.SetTestLoggerNop()

	r := gin.New()
	r.GET("/admin", AuthMiddleware(testSecret), RoleAuthMiddleware(utils.RoleAdmin), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+token(t, utils.RoleTechnician))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.JSONEq(t, `{"error":"Permission denied"}`, w.Body.String())
}

func TestRateLimit(t *testing.T) {
	utils.SetTestLoggerNop()

	r := gin.New()
	r.POST("/api/register", RateLimit(NewRateLimiterStore(0.001, 2)), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	send := func(ip string) int {
		req := httptest.NewRequest(http.MethodPost, "/api/register", nil)
		req.RemoteAddr = ip + ":1234"
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, send("10.0.0.1"))
	assert.Equal(t, http.StatusOK, send("10.0.0.1"))
	assert.Equal(t, http.StatusTooManyRequests, send("10.0.0.1"))
	assert.Equal(t, http.StatusOK, send("10.0.0.2"))
}

func TestRateLimit_NilStore(t *testing.T) {
	r := gin.New()
	r.GET("/", RateLimit(nil), func(c *gin.Context) { c.Status(http.StatusNoContent) })

	for i := 0; i < 5; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusNoContent, w.Code)
	}
}

func TestRateLimiterStore_ReusesLimiter(t *testing.T) {
	store := NewRateLimiterStore(1, 2)
	a := store.GetLimiter("10.0.0.1")
	assert.Same(t, a, store.GetLimiter("10.0.0.1"))
	assert.NotSame(t, a, store.GetLimiter("10.0.0.2"))
	assert.Equal(t, 2, a.Burst())
}

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	utils.SetTestCaptureLogger(&buf, zapcore.InfoLevel)
	t.Cleanup(utils.SetTestLoggerNop)

	r := gin.New()
	r.Use(RequestLogger())
	r.GET("/ping", func(c *gin.Context) {
		id, _ := c.Get(ContextRequestID)
		c.String(http.StatusOK, id.(string))
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	generated := w.Header().Get(HeaderRequestID)
	assert.NotEmpty(t, generated)
	assert.Equal(t, generated, w.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(HeaderRequestID, "req-123")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "req-123", w.Header().Get(HeaderRequestID))

	logs := buf.String()
	assert.Contains(t, logs, `"request_id":"req-123"`)
	assert.Contains(t, logs, `"path":"/ping"`)
	assert.Contains(t, logs, `"status":200`)
}
