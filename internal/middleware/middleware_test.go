package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/radiusdt/vector-insights/internal/config"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRecoveryMiddleware(t *testing.T) {
	require := require.New(t)

	rm := NewRecoveryMiddleware(zap.NewNop())
	h := rm.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(http.StatusInternalServerError, rec.Code)
}

func TestAuthMiddlewareDisabled(t *testing.T) {
	require := require.New(t)

	a := NewAuthMiddleware(config.AuthConfig{Enabled: false}, zap.NewNop())
	rec := httptest.NewRecorder()
	a.Handler(okHandler()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/reports", nil))
	require.Equal(http.StatusOK, rec.Code)
}

func TestAuthMiddlewareValidatesKey(t *testing.T) {
	require := require.New(t)

	a := NewAuthMiddleware(config.AuthConfig{
		Enabled:   true,
		MasterKey: "secret",
		SkipPaths: []string{"/health"},
	}, zap.NewNop())
	h := a.Handler(okHandler())

	// Missing key
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/reports", nil))
	require.Equal(http.StatusUnauthorized, rec.Code)

	// Wrong key
	req := httptest.NewRequest(http.MethodGet, "/reports", nil)
	req.Header.Set(AuthHeaderName, "wrong")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(http.StatusUnauthorized, rec.Code)

	// Header key
	req = httptest.NewRequest(http.MethodGet, "/reports", nil)
	req.Header.Set(AuthHeaderName, "secret")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(http.StatusOK, rec.Code)

	// Query param key
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/reports?api_key=secret", nil))
	require.Equal(http.StatusOK, rec.Code)

	// Skip path needs no key
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(http.StatusOK, rec.Code)
}

func TestRateLimitMiddleware(t *testing.T) {
	require := require.New(t)

	rl := NewRateLimitMiddleware(config.RateLimitConfig{
		Enabled: true,
		RPS:     1,
		Burst:   2,
	}, zap.NewNop())
	h := rl.Handler(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/reports", nil)
	req.RemoteAddr = "10.0.0.1:1234"

	// Burst of 2 passes, the third is limited.
	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		require.Equal(http.StatusOK, rec.Code)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(http.StatusTooManyRequests, rec.Code)

	// A different client has its own bucket.
	other := httptest.NewRequest(http.MethodGet, "/reports", nil)
	other.RemoteAddr = "10.0.0.2:1234"
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, other)
	require.Equal(http.StatusOK, rec.Code)
}

func TestRateLimitMiddlewareDisabled(t *testing.T) {
	require := require.New(t)

	rl := NewRateLimitMiddleware(config.RateLimitConfig{Enabled: false}, zap.NewNop())
	h := rl.Handler(okHandler())

	for i := 0; i < 20; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/reports", nil))
		require.Equal(http.StatusOK, rec.Code)
	}
}

func TestRateLimitClientIPFromForwardedHeader(t *testing.T) {
	require := require.New(t)

	rl := NewRateLimitMiddleware(config.RateLimitConfig{Enabled: true, RPS: 1, Burst: 1}, zap.NewNop())
	h := rl.Handler(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/reports", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.5, 10.0.0.1")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(http.StatusTooManyRequests, rec.Code)

	rl.CleanupIPLimiters()
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(http.StatusOK, rec.Code)
}
