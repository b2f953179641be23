package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestTokenBucketLimiter_AllowsBurstThenRejects(t *testing.T) {
	l := NewTokenBucketLimiter(1, 3, 0)

	for i := 0; i < 3; i++ {
		allowed, _ := l.Allow("client")
		require.True(t, allowed, "request %d within burst", i)
	}
	allowed, info := l.Allow("client")
	assert.False(t, allowed)
	assert.Equal(t, 0, info.Remaining)
	assert.Equal(t, 3, info.Limit)
}

func TestTokenBucketLimiter_KeysAreIndependent(t *testing.T) {
	l := NewTokenBucketLimiter(1, 1, 0)

	allowed, _ := l.Allow("a")
	require.True(t, allowed)
	allowed, _ = l.Allow("a")
	require.False(t, allowed)

	allowed, _ = l.Allow("b")
	assert.True(t, allowed)
}

func TestTokenBucketLimiter_RefillsOverTime(t *testing.T) {
	l := NewTokenBucketLimiter(100, 1, 0)

	allowed, _ := l.Allow("client")
	require.True(t, allowed)
	allowed, _ = l.Allow("client")
	require.False(t, allowed)

	time.Sleep(20 * time.Millisecond)
	allowed, _ = l.Allow("client")
	assert.True(t, allowed)
}

func TestTokenBucketLimiter_CleanupDropsIdleBuckets(t *testing.T) {
	l := NewTokenBucketLimiter(1000, 2, time.Millisecond)
	defer l.Stop()

	l.Allow("client")
	require.Eventually(t, func() bool {
		return l.BucketCount() == 0
	}, time.Second, 5*time.Millisecond)
}

func TestRateLimit_SetsHeadersAndRejects(t *testing.T) {
	cfg := DefaultRateLimitConfig()
	limiter := NewTokenBucketLimiter(1, 1, 0)
	handler := RateLimit(limiter, cfg)(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/checks", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "1", w.Header().Get("X-RateLimit-Limit"))

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
	assert.Contains(t, w.Body.String(), "COMMON_007")
}

func TestRateLimit_SkipPathsBypass(t *testing.T) {
	cfg := DefaultRateLimitConfig()
	limiter := NewTokenBucketLimiter(1, 1, 0)
	handler := RateLimit(limiter, cfg)(okHandler())

	for i := 0; i < 5; i++ {
		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	}
}

func TestClientIPKeyFunc(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	assert.Equal(t, "10.0.0.1:1234", ClientIPKeyFunc(req))

	req.Header.Set("X-Real-IP", "192.168.1.5")
	assert.Equal(t, "192.168.1.5", ClientIPKeyFunc(req))

	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	assert.Equal(t, "203.0.113.9", ClientIPKeyFunc(req))
}
