package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HatfieldAlex/MyPocketSpice/pkg/auth"
	"github.com/HatfieldAlex/MyPocketSpice/pkg/contextkeys"
)

func TestRateLimiter_Allow(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	limiter := NewRateLimiter(RateLimitConfig{Rate: 1, Burst: 2})
	limiter.now = func() time.Time { return now }
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		d, err := limiter.Allow(ctx, "ip:1.2.3.4")
		require.NoError(t, err)
		assert.True(t, d.Allowed, "request %d", i)
		assert.Equal(t, 2, d.Limit)
	}

	d, err := limiter.Allow(ctx, "ip:1.2.3.4")
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Equal(t, time.Second, d.RetryAfter)

	// other clients have their own bucket
	d, _ = limiter.Allow(ctx, "ip:5.6.7.8")
	assert.True(t, d.Allowed)
	assert.Equal(t, 2, limiter.Len())

	now = now.Add(time.Second)
	d, _ = limiter.Allow(ctx, "ip:1.2.3.4")
	assert.True(t, d.Allowed)
	assert.Equal(t, 0, d.Remaining)
}

func TestNewRateLimiter_Defaults(t *testing.T) {
	limiter := NewRateLimiter(RateLimitConfig{})
	assert.Equal(t, DefaultRateLimitConfig(), limiter.config)
}

func TestClientKey(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/ai-match/", nil)
	req.RemoteAddr = "10.0.0.1:5555"
	assert.Equal(t, "ip:10.0.0.1", ClientKey(req))

	req.Header.Set("X-Forwarded-For", "203.0.113.9")
	assert.Equal(t, "ip:10.0.0.1", ClientKey(req), "forwarding headers need a trusted proxy")

	req = req.WithContext(contextkeys.WithClientIP(req.Context(), "203.0.113.9"))
	assert.Equal(t, "ip:203.0.113.9", ClientKey(req))

	authCtx := &auth.AuthContext{User: &auth.User{ID: 42}}
	req = req.WithContext(contextkeys.WithAuth(req.Context(), authCtx))
	assert.Equal(t, "user:42", ClientKey(req))
}

type stubLimiter struct {
	decision Decision
	err      error
}

func (s stubLimiter) Allow(context.Context, string) (Decision, error) {
	return s.decision, s.err
}

func TestRateLimit_Middleware(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	tests := []struct {
		name           string
		limiter        Limiter
		wantCode       int
		wantRetryAfter string
	}{
		{"allowed", stubLimiter{decision: Decision{Allowed: true, Limit: 5, Remaining: 4}}, http.StatusOK, ""},
		{"throttled", stubLimiter{decision: Decision{Limit: 5, RetryAfter: 1500 * time.Millisecond}}, http.StatusTooManyRequests, "2"},
		{"throttled sub-second", stubLimiter{decision: Decision{Limit: 5, RetryAfter: time.Millisecond}}, http.StatusTooManyRequests, "1"},
		{"limiter failure fails open", stubLimiter{err: errors.New("redis down")}, http.StatusOK, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			RateLimit(tt.limiter, nil)(ok).ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/ai-match/", nil))

			assert.Equal(t, tt.wantCode, w.Code)
			assert.Equal(t, tt.wantRetryAfter, w.Header().Get("Retry-After"))
			if tt.wantCode == http.StatusTooManyRequests {
				assert.JSONEq(t, `{"error":"Request was throttled."}`, w.Body.String())
				assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
			}
		})
	}
}

func TestRateLimit_WithRateLimiter(t *testing.T) {
	limiter := NewRateLimiter(RateLimitConfig{Rate: 0.001, Burst: 1})
	handler := RateLimit(limiter, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}
