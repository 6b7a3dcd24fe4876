package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, DriverSQLite, cfg.Driver)
	assert.Contains(t, cfg.DatabaseURL, "_foreign_keys=on")
	assert.True(t, cfg.CacheEnabled)
	assert.Positive(t, cfg.L1CacheEntries)
	assert.NoError(t, cfg.Validate())
	assert.False(t, cfg.SnapshotsEnabled())
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "postgres accepted",
			mutate: func(c *Config) { c.Driver = DriverPostgres; c.DatabaseURL = "postgres://localhost/spice" },
		},
		{
			name:    "unknown driver",
			mutate:  func(c *Config) { c.Driver = "mysql" },
			wantErr: "invalid database driver",
		},
		{
			name:    "missing url",
			mutate:  func(c *Config) { c.DatabaseURL = "" },
			wantErr: "database URL is required",
		},
		{
			name:    "bucket without region",
			mutate:  func(c *Config) { c.S3Bucket = "snapshots"; c.S3Region = "" },
			wantErr: "S3 region is required",
		},
		{
			name:    "cache without entries",
			mutate:  func(c *Config) { c.L1CacheEntries = 0 },
			wantErr: "L1 cache entries",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}
