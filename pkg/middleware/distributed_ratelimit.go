package middleware

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// DistributedRateLimiter implements rate limiting using Redis
// This allows rate limits to be shared across multiple instances
type DistributedRateLimiter struct {
	redis  *redis.Client
	limit  int
	window time.Duration
	prefix string
}

// NewDistributedRateLimiter allows limit requests per window for each key
func NewDistributedRateLimiter(redisClient *redis.Client, limit int, window time.Duration, prefix string) *DistributedRateLimiter {
	if prefix == "" {
		prefix = "ratelimit"
	}
	return &DistributedRateLimiter{
		redis:  redisClient,
		limit:  limit,
		window: window,
		prefix: prefix,
	}
}

// WindowFor converts a token bucket rate into a fixed window that admits
// burst requests
func WindowFor(ratePerSecond float64, burst int) time.Duration {
	if ratePerSecond <= 0 || burst <= 0 {
		return time.Minute
	}
	return time.Duration(float64(burst) / ratePerSecond * float64(time.Second))
}

// Allow counts the request in the current window
func (rl *DistributedRateLimiter) Allow(ctx context.Context, key string) (Decision, error) {
	redisKey := fmt.Sprintf("%s:%s", rl.prefix, key)
	decision := Decision{Limit: rl.limit}

	pipe := rl.redis.TxPipeline()
	incr := pipe.Incr(ctx, redisKey)
	ttl := pipe.PTTL(ctx, redisKey)
	if _, err := pipe.Exec(ctx); err != nil {
		return decision, fmt.Errorf("redis error: %w", err)
	}

	// First hit in the window (or a key that lost its expiry) starts the window
	remainingWindow := ttl.Val()
	if remainingWindow < 0 {
		if err := rl.redis.PExpire(ctx, redisKey, rl.window).Err(); err != nil {
			return decision, fmt.Errorf("redis error: %w", err)
		}
		remainingWindow = rl.window
	}

	count := incr.Val()
	if count > int64(rl.limit) {
		decision.RetryAfter = remainingWindow
		return decision, nil
	}
	decision.Allowed = true
	decision.Remaining = rl.limit - int(count)
	return decision, nil
}

// Reset clears the rate limit for a key
func (rl *DistributedRateLimiter) Reset(ctx context.Context, key string) error {
	redisKey := fmt.Sprintf("%s:%s", rl.prefix, key)
	return rl.redis.Del(ctx, redisKey).Err()
}
