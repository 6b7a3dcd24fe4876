package sqldb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/HatfieldAlex/MyPocketSpice/pkg/storage"
)

// NewRedisClient creates a Redis client from the storage config and pings it
func NewRedisClient(ctx context.Context, config storage.Config) (*redis.Client, error) {
	opts, err := redis.ParseURL(config.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}

	if config.RedisPassword != "" {
		opts.Password = config.RedisPassword
	}
	if config.RedisDB > 0 {
		opts.DB = config.RedisDB
	}
	if config.RedisMaxRetries > 0 {
		opts.MaxRetries = config.RedisMaxRetries
	}
	if config.RedisPoolSize > 0 {
		opts.PoolSize = config.RedisPoolSize
	}

	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second
	opts.PoolTimeout = 4 * time.Second

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return client, nil
}

// errCacheMiss is returned by getJSON when the key is absent
var errCacheMiss = errors.New("cache miss")

func getJSON(ctx context.Context, client *redis.Client, key string, dest interface{}) error {
	data, err := client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return errCacheMiss
	}
	if err != nil {
		return fmt.Errorf("redis get failed: %w", err)
	}
	if err := json.Unmarshal(data, dest); err != nil {
		client.Del(ctx, key)
		return fmt.Errorf("failed to unmarshal %s: %w", key, err)
	}
	return nil
}

func setJSON(ctx context.Context, client *redis.Client, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", key, err)
	}
	return client.Set(ctx, key, data, ttl).Err()
}

// RevocationMirror keeps revoked token IDs in Redis until they expire
type RevocationMirror struct {
	client *redis.Client
	prefix string
	now    func() time.Time
}

// NewRevocationMirror creates a mirror using keys "<prefix><jti>"
func NewRevocationMirror(client *redis.Client) *RevocationMirror {
	return &RevocationMirror{client: client, prefix: "spice:revoked:", now: time.Now}
}

// MarkRevoked stores jti until expiresAt. Already-expired tokens are skipped.
func (m *RevocationMirror) MarkRevoked(ctx context.Context, jti string, expiresAt time.Time) error {
	ttl := expiresAt.Sub(m.now())
	if ttl <= 0 {
		return nil
	}
	return m.client.Set(ctx, m.prefix+jti, "1", ttl).Err()
}

// IsRevoked reports whether jti is in the mirror
func (m *RevocationMirror) IsRevoked(ctx context.Context, jti string) (bool, error) {
	n, err := m.client.Exists(ctx, m.prefix+jti).Result()
	if err != nil {
		return false, fmt.Errorf("redis exists failed: %w", err)
	}
	return n > 0, nil
}
