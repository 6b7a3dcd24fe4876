package storage

import (
	"fmt"
	"strings"
	"time"
)

// Supported database drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config for the storage backend. Field tags are read by pkg/config with the
// SPICE_ prefix applied.
type Config struct {
	// Relational database
	Driver      string        `env:"DB_DRIVER"`
	DatabaseURL string        `env:"DB_URL"`
	MaxConns    int           `env:"DB_MAX_CONNS"`
	MinConns    int           `env:"DB_MIN_CONNS"`
	Timeout     time.Duration `env:"DB_TIMEOUT"`
	AutoMigrate bool          `env:"DB_AUTO_MIGRATE"`

	// S3 snapshot export
	S3Endpoint     string `env:"S3_ENDPOINT"`
	S3Region       string `env:"S3_REGION"`
	S3Bucket       string `env:"S3_BUCKET"`
	S3AccessKey    string `env:"S3_ACCESS_KEY"`
	S3SecretKey    string `env:"S3_SECRET_KEY"`
	S3UsePathStyle bool   `env:"S3_USE_PATH_STYLE"`
	S3Prefix       string `env:"S3_PREFIX"`

	// Redis
	RedisURL        string `env:"REDIS_URL"`
	RedisPassword   string `env:"REDIS_PASSWORD"`
	RedisDB         int    `env:"REDIS_DB"`
	RedisMaxRetries int    `env:"REDIS_MAX_RETRIES"`
	RedisPoolSize   int    `env:"REDIS_POOL_SIZE"`

	// Recipe detail cache
	CacheEnabled   bool          `env:"CACHE_ENABLED"`
	CacheTTL       time.Duration `env:"CACHE_TTL"`
	L1CacheEntries int           `env:"L1_CACHE_ENTRIES"`
}

// DefaultConfig returns a local sqlite configuration suitable for development
func DefaultConfig() Config {
	return Config{
		Driver:          DriverSQLite,
		DatabaseURL:     "file:spice.db?_foreign_keys=on",
		MaxConns:        20,
		MinConns:        2,
		Timeout:         10 * time.Second,
		AutoMigrate:     true,
		S3Region:        "us-east-1",
		S3Prefix:        "snapshots/",
		RedisDB:         0,
		RedisMaxRetries: 3,
		RedisPoolSize:   10,
		CacheEnabled:    true,
		CacheTTL:        10 * time.Minute,
		L1CacheEntries:  512,
	}
}

// Validate checks driver-specific requirements
func (c Config) Validate() error {
	switch strings.ToLower(c.Driver) {
	case DriverSQLite, DriverPostgres:
	default:
		return fmt.Errorf("invalid database driver: %s (must be sqlite or postgres)", c.Driver)
	}
	if c.DatabaseURL == "" {
		return fmt.Errorf("database URL is required")
	}
	if c.MaxConns <= 0 {
		return fmt.Errorf("database max connections must be positive")
	}
	if c.S3Bucket != "" && c.S3Region == "" {
		return fmt.Errorf("S3 region is required when an S3 bucket is configured")
	}
	if c.CacheEnabled && c.L1CacheEntries <= 0 {
		return fmt.Errorf("L1 cache entries must be positive when caching is enabled")
	}
	return nil
}

// SnapshotsEnabled reports whether catalogue snapshots can be uploaded
func (c Config) SnapshotsEnabled() bool {
	return c.S3Bucket != ""
}
