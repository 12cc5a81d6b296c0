package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pepsafe/pepsafe-backend-go/internal/logging"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func okHandler(c *gin.Context) { c.String(http.StatusOK, "ok") }

func serve(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAPIKey(t *testing.T) {
	r := gin.New()
	r.POST("/ping", APIKey("secret", nil), okHandler)

	req := httptest.NewRequest(http.MethodPost, "/ping", nil)
	assert.Equal(t, http.StatusUnauthorized, serve(r, req).Code)

	req = httptest.NewRequest(http.MethodPost, "/ping", nil)
	req.Header.Set(APIKeyHeader, "wrong")
	assert.Equal(t, http.StatusUnauthorized, serve(r, req).Code)

	req = httptest.NewRequest(http.MethodPost, "/ping", nil)
	req.Header.Set(APIKeyHeader, "secret")
	assert.Equal(t, http.StatusOK, serve(r, req).Code)
}

func TestAPIKey_EmptyKeyIsInsecureMode(t *testing.T) {
	r := gin.New()
	r.POST("/ping", APIKey("", nil), okHandler)

	assert.Equal(t, http.StatusOK, serve(r, httptest.NewRequest(http.MethodPost, "/ping", nil)).Code)
}

func signed(t *testing.T, secret string, method jwt.SigningMethod, exp time.Time) string {
	t.Helper()
	claims := DashboardClaims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   "family",
		ExpiresAt: jwt.NewNumericDate(exp),
	}}
	s, err := jwt.NewWithClaims(method, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return s
}

func TestDashboardAuth(t *testing.T) {
	r := gin.New()
	r.GET("/dash", DashboardAuth("secret", "jwt-secret", nil), func(c *gin.Context) {
		if v, ok := c.Get(ClaimsKey); ok {
			c.String(http.StatusOK, v.(*DashboardClaims).Subject)
			return
		}
		c.String(http.StatusOK, "key")
	})

	get := func(header, value string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/dash", nil)
		if header != "" {
			req.Header.Set(header, value)
		}
		return serve(r, req)
	}

	assert.Equal(t, http.StatusUnauthorized, get("", "").Code)

	w := get(APIKeyHeader, "secret")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "key", w.Body.String())

	w = get("Authorization", "Bearer "+signed(t, "jwt-secret", jwt.SigningMethodHS256, time.Now().Add(time.Hour)))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "family", w.Body.String())

	assert.Equal(t, http.StatusUnauthorized,
		get("Authorization", "Bearer "+signed(t, "other", jwt.SigningMethodHS256, time.Now().Add(time.Hour))).Code)
	assert.Equal(t, http.StatusUnauthorized,
		get("Authorization", "Bearer "+signed(t, "jwt-secret", jwt.SigningMethodHS256, time.Now().Add(-time.Hour))).Code)
	assert.Equal(t, http.StatusUnauthorized,
		get("Authorization", "Bearer "+signed(t, "jwt-secret", jwt.SigningMethodHS384, time.Now().Add(time.Hour))).Code)
}

func TestBearerToken(t *testing.T) {
	tok, ok := bearerToken("Bearer abc")
	assert.True(t, ok)
	assert.Equal(t, "abc", tok)

	tok, ok = bearerToken("bearer abc")
	assert.True(t, ok)
	assert.Equal(t, "abc", tok)

	_, ok = bearerToken("Basic abc")
	assert.False(t, ok)
	_, ok = bearerToken("Bearer ")
	assert.False(t, ok)
}

func TestRateLimiter_Allow(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rl := NewRateLimiter(ctx, 2, time.Minute)
	now := time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	assert.True(t, rl.Allow("1.1.1.1"))
	assert.True(t, rl.Allow("1.1.1.1"))
	assert.False(t, rl.Allow("1.1.1.1"))
	assert.True(t, rl.Allow("2.2.2.2"))

	now = now.Add(61 * time.Second)
	assert.True(t, rl.Allow("1.1.1.1"))

	now = now.Add(2 * time.Minute)
	rl.sweep()
	assert.Zero(t, rl.Tracked())
}

func TestRateLimit_Middleware(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	r := gin.New()
	r.POST("/ping", RateLimit(NewRateLimiter(ctx, 1, time.Minute)), okHandler)

	assert.Equal(t, http.StatusOK, serve(r, httptest.NewRequest(http.MethodPost, "/ping", nil)).Code)

	w := serve(r, httptest.NewRequest(http.MethodPost, "/ping", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "60", w.Header().Get("Retry-After"))
}

func TestLogger_SetsRequestID(t *testing.T) {
	r := gin.New()
	r.Use(Logger(nil))
	r.GET("/x", func(c *gin.Context) {
		c.String(http.StatusOK, logging.RequestID(c.Request.Context()))
	})

	w := serve(r, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Body.String())
	assert.Equal(t, w.Body.String(), w.Header().Get(RequestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	w = serve(r, req)
	assert.Equal(t, "abc-123", w.Body.String())
}

func TestCORS_AllowsConfiguredOrigin(t *testing.T) {
	r := gin.New()
	r.Use(CORS("https://family.example"))
	r.GET("/x", okHandler)

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Origin", "https://family.example")
	w := serve(r, req)
	assert.Equal(t, "https://family.example", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Origin", "https://evil.example")
	assert.Equal(t, http.StatusForbidden, serve(r, req).Code)
}
