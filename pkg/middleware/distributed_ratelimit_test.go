package middleware

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { client.Close() })
	return mr, client
}

func TestDistributedRateLimiter_Allow(t *testing.T) {
	mr, client := newTestRedis(t)
	limiter := NewDistributedRateLimiter(client, 2, 10*time.Second, "ratelimit:ai")
	ctx := context.Background()

	d, err := limiter.Allow(ctx, "ip:1.2.3.4")
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	assert.Equal(t, 1, d.Remaining)
	assert.Equal(t, 10*time.Second, mr.TTL("ratelimit:ai:ip:1.2.3.4"))

	d, err = limiter.Allow(ctx, "ip:1.2.3.4")
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	assert.Equal(t, 0, d.Remaining)

	d, err = limiter.Allow(ctx, "ip:1.2.3.4")
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Equal(t, 2, d.Limit)
	assert.Greater(t, d.RetryAfter, time.Duration(0))

	mr.FastForward(11 * time.Second)
	d, err = limiter.Allow(ctx, "ip:1.2.3.4")
	require.NoError(t, err)
	assert.True(t, d.Allowed)
}

func TestDistributedRateLimiter_SharedAcrossInstances(t *testing.T) {
	_, client := newTestRedis(t)
	a := NewDistributedRateLimiter(client, 1, time.Minute, "")
	b := NewDistributedRateLimiter(client, 1, time.Minute, "")
	ctx := context.Background()

	d, _ := a.Allow(ctx, "user:1")
	assert.True(t, d.Allowed)
	d, _ = b.Allow(ctx, "user:1")
	assert.False(t, d.Allowed)

	require.NoError(t, b.Reset(ctx, "user:1"))
	d, _ = a.Allow(ctx, "user:1")
	assert.True(t, d.Allowed)
}

func TestDistributedRateLimiter_RedisDown(t *testing.T) {
	mr, client := newTestRedis(t)
	limiter := NewDistributedRateLimiter(client, 1, time.Minute, "")
	mr.Close()

	_, err := limiter.Allow(context.Background(), "ip:1.2.3.4")
	assert.Error(t, err)
}

func TestWindowFor(t *testing.T) {
	assert.Equal(t, 10*time.Second, WindowFor(0.5, 5))
	assert.Equal(t, time.Second, WindowFor(2, 2))
	assert.Equal(t, time.Minute, WindowFor(0, 5))
}
