package middleware

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/time/rate"

	"github.com/HatfieldAlex/MyPocketSpice/pkg/httputil"
	"github.com/HatfieldAlex/MyPocketSpice/pkg/observability"
)

// Decision is the outcome of one rate limit check
type Decision struct {
	Allowed    bool
	Limit      int
	Remaining  int
	RetryAfter time.Duration
}

// Limiter decides whether the client identified by key may proceed
type Limiter interface {
	Allow(ctx context.Context, key string) (Decision, error)
}

// RateLimitConfig defines rate limiting configuration
type RateLimitConfig struct {
	// Rate is the sustained number of requests per second
	Rate float64
	// Burst is the number of requests allowed at once
	Burst int
	// MaxClients bounds the number of tracked clients
	MaxClients int
	// IdleTTL forgets clients that have not been seen for this long
	IdleTTL time.Duration
}

// DefaultRateLimitConfig returns default rate limit settings
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		Rate:       0.5,
		Burst:      5,
		MaxClients: 10000,
		IdleTTL:    10 * time.Minute,
	}
}

// RateLimiter is an in-process token bucket per client
type RateLimiter struct {
	config  RateLimitConfig
	clients *expirable.LRU[string, *rate.Limiter]
	mu      sync.Mutex
	now     func() time.Time
}

// NewRateLimiter creates a new rate limiter. Zero fields take their defaults.
func NewRateLimiter(config RateLimitConfig) *RateLimiter {
	defaults := DefaultRateLimitConfig()
	if config.Rate <= 0 {
		config.Rate = defaults.Rate
	}
	if config.Burst <= 0 {
		config.Burst = defaults.Burst
	}
	if config.MaxClients <= 0 {
		config.MaxClients = defaults.MaxClients
	}
	if config.IdleTTL <= 0 {
		config.IdleTTL = defaults.IdleTTL
	}

	return &RateLimiter{
		config:  config,
		clients: expirable.NewLRU[string, *rate.Limiter](config.MaxClients, nil, config.IdleTTL),
		now:     time.Now,
	}
}

func (rl *RateLimiter) limiter(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if lim, ok := rl.clients.Get(key); ok {
		return lim
	}
	lim := rate.NewLimiter(rate.Limit(rl.config.Rate), rl.config.Burst)
	rl.clients.Add(key, lim)
	return lim
}

// Allow takes one token from the client's bucket
func (rl *RateLimiter) Allow(_ context.Context, key string) (Decision, error) {
	lim := rl.limiter(key)
	now := rl.now()

	decision := Decision{Limit: rl.config.Burst}
	reservation := lim.ReserveN(now, 1)
	if delay := reservation.DelayFrom(now); delay > 0 {
		reservation.CancelAt(now)
		decision.RetryAfter = delay
		return decision, nil
	}

	decision.Allowed = true
	decision.Remaining = int(math.Max(0, math.Floor(lim.TokensAt(now))))
	return decision, nil
}

// Len returns the number of tracked clients
func (rl *RateLimiter) Len() int {
	return rl.clients.Len()
}

// ClientKey identifies the caller: the user when authenticated, else the client IP
func ClientKey(r *http.Request) string {
	if authCtx := GetAuthContext(r); authCtx != nil && authCtx.User != nil {
		return fmt.Sprintf("user:%d", authCtx.User.ID)
	}
	return "ip:" + httputil.ClientIP(r)
}

// RateLimit returns middleware that rejects clients over their limit with
// 429. Limiter errors are logged and the request is let through.
func RateLimit(limiter Limiter, logger *observability.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = observability.NopLogger()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := ClientKey(r)
			decision, err := limiter.Allow(r.Context(), key)
			if err != nil {
				logger.WithError(err).WithField("client", key).Warn("rate limiter unavailable, allowing request")
				next.ServeHTTP(w, r)
				return
			}

			h := w.Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(decision.Limit))
			h.Set("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))

			if !decision.Allowed {
				retryAfter := int(math.Ceil(decision.RetryAfter.Seconds()))
				if retryAfter < 1 {
					retryAfter = 1
				}
				h.Set("Retry-After", strconv.Itoa(retryAfter))
				httputil.WriteTooManyRequests(w, "Request was throttled.")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
