package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HatfieldAlex/MyPocketSpice/pkg/observability"
	"github.com/HatfieldAlex/MyPocketSpice/pkg/storage"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("SPICE_JWT_SECRET", testSecret)

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "8000", cfg.Server.Port)
	assert.Equal(t, "9090", cfg.Server.HealthPort)
	assert.Equal(t, storage.DriverSQLite, cfg.Storage.Driver)
	assert.Equal(t, 15*time.Minute, cfg.Auth.AccessTokenTTL)
	assert.Equal(t, 24*time.Hour, cfg.Auth.RefreshTokenTTL)
	assert.Equal(t, []string{"gemini-2.0-flash", "gemini-1.5-flash", "gemini-1.5-pro", "gemini-pro"}, cfg.AI.Models)
	assert.False(t, cfg.AI.Enabled())
	assert.Equal(t, observability.InfoLevel, cfg.Observability.LogLevel)
}

func TestLoadConfig_FromEnvironment(t *testing.T) {
	t.Setenv("SPICE_JWT_SECRET", testSecret)
	t.Setenv("SPICE_PORT", "8081")
	t.Setenv("SPICE_DB_DRIVER", "POSTGRES")
	t.Setenv("SPICE_DB_URL", "postgres://spice@localhost/spice?sslmode=disable")
	t.Setenv("SPICE_CACHE_TTL", "90s")
	t.Setenv("SPICE_AI_MODELS", "gemini-2.5-flash,gemini-2.0-flash")
	t.Setenv("SPICE_LOG_LEVEL", "debug")
	t.Setenv("SPICE_CORS_ORIGINS", "https://spice.example.com")
	t.Setenv("SPICE_ACCESS_TOKEN_TTL", "5m")
	t.Setenv("SPICE_TRUSTED_PROXIES", "10.0.0.0/8,192.0.2.1")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "8081", cfg.Server.Port)
	assert.Equal(t, storage.DriverPostgres, cfg.Storage.Driver)
	assert.Equal(t, "postgres://spice@localhost/spice?sslmode=disable", cfg.Storage.DatabaseURL)
	assert.Equal(t, 90*time.Second, cfg.Storage.CacheTTL)
	assert.Equal(t, []string{"gemini-2.5-flash", "gemini-2.0-flash"}, cfg.AI.Models)
	assert.Equal(t, observability.DebugLevel, cfg.Observability.LogLevel)
	assert.Equal(t, []string{"https://spice.example.com"}, cfg.Server.CORSOrigins)
	assert.Equal(t, 5*time.Minute, cfg.Auth.AccessTokenTTL)
	assert.Equal(t, []string{"10.0.0.0/8", "192.0.2.1"}, cfg.Server.TrustedProxies)
}

func TestLoadConfig_GoogleKeyFallback(t *testing.T) {
	t.Setenv("SPICE_JWT_SECRET", testSecret)
	t.Setenv("GOOGLE_AI_API_KEY", "google-key")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "google-key", cfg.AI.APIKey)
	assert.True(t, cfg.AI.Enabled())

	t.Setenv("SPICE_AI_API_KEY", "spice-key")
	cfg, err = LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "spice-key", cfg.AI.APIKey)
}

func TestLoadConfig_MissingSecret(t *testing.T) {
	t.Setenv("SPICE_JWT_SECRET", "")

	_, err := LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")
}

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config {
		cfg := Default()
		cfg.Auth.JWTSecret = testSecret
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{
			name:    "missing port",
			mutate:  func(c *Config) { c.Server.Port = "" },
			wantErr: "server port is required",
		},
		{
			name:    "same ports",
			mutate:  func(c *Config) { c.Server.HealthPort = c.Server.Port },
			wantErr: "must be different",
		},
		{
			name:    "bad trusted proxy",
			mutate:  func(c *Config) { c.Server.TrustedProxies = []string{"10.0.0.0/8", "lb.internal"} },
			wantErr: "invalid trusted proxy",
		},
		{
			name:    "bad driver",
			mutate:  func(c *Config) { c.Storage.Driver = "oracle" },
			wantErr: "invalid database driver",
		},
		{
			name:    "short secret",
			mutate:  func(c *Config) { c.Auth.JWTSecret = "short" },
			wantErr: "JWT_SECRET",
		},
		{
			name:    "access outlives refresh",
			mutate:  func(c *Config) { c.Auth.AccessTokenTTL = 48 * time.Hour },
			wantErr: "must not exceed",
		},
		{
			name:    "no models",
			mutate:  func(c *Config) { c.AI.Models = nil },
			wantErr: "at least one AI model",
		},
		{
			name:    "blank model",
			mutate:  func(c *Config) { c.AI.Models = []string{"gemini-pro", " "} },
			wantErr: "must not be blank",
		},
		{
			name:    "zero rate",
			mutate:  func(c *Config) { c.AI.RateLimit = 0 },
			wantErr: "rate limit",
		},
		{
			name: "otel without endpoint",
			mutate: func(c *Config) {
				c.Observability.OTelEnabled = true
				c.Observability.OTelEndpoint = ""
			},
			wantErr: "OpenTelemetry endpoint",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestServerConfig_Addrs(t *testing.T) {
	s := ServerConfig{Host: "127.0.0.1", Port: "8000", HealthPort: "9090"}
	assert.Equal(t, "127.0.0.1:8000", s.ListenAddr())
	assert.Equal(t, "127.0.0.1:9090", s.HealthAddr())
}

func TestConfig_OTel(t *testing.T) {
	cfg := Default()
	cfg.Observability.OTelEnabled = true

	otelCfg := cfg.OTel()
	assert.True(t, otelCfg.Enabled)
	assert.Equal(t, "spice-api", otelCfg.ServiceName)
	assert.Equal(t, "localhost:4317", otelCfg.Endpoint)
}

func TestLoadStorageConfig(t *testing.T) {
	t.Run("defaults without a secret", func(t *testing.T) {
		cfg, err := LoadStorageConfig()
		require.NoError(t, err)
		assert.Equal(t, storage.DriverSQLite, cfg.Driver)
		assert.True(t, cfg.AutoMigrate)
		assert.False(t, cfg.SnapshotsEnabled())
	})

	t.Run("environment overrides", func(t *testing.T) {
		t.Setenv("SPICE_DB_DRIVER", "Postgres")
		t.Setenv("SPICE_DB_URL", "postgres://spice@db/spice")
		t.Setenv("SPICE_S3_BUCKET", "spice-snapshots")

		cfg, err := LoadStorageConfig()
		require.NoError(t, err)
		assert.Equal(t, storage.DriverPostgres, cfg.Driver)
		assert.Equal(t, "postgres://spice@db/spice", cfg.DatabaseURL)
		assert.True(t, cfg.SnapshotsEnabled())
	})

	t.Run("invalid driver", func(t *testing.T) {
		t.Setenv("SPICE_DB_DRIVER", "mysql")

		_, err := LoadStorageConfig()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid database driver")
	})
}
