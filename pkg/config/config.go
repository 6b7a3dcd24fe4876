package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/HatfieldAlex/MyPocketSpice/pkg/httputil"
	"github.com/HatfieldAlex/MyPocketSpice/pkg/observability"
	"github.com/HatfieldAlex/MyPocketSpice/pkg/storage"
)

// EnvPrefix is prepended to every variable name
const EnvPrefix = "SPICE_"

// Config holds all application configuration
type Config struct {
	Server        ServerConfig
	Storage       storage.Config
	Auth          AuthConfig
	AI            AIConfig
	Maintenance   MaintenanceConfig
	Observability ObservabilityConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string        `env:"HOST"`
	Port            string        `env:"PORT"`
	ReadTimeout     time.Duration `env:"READ_TIMEOUT"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT"`
	IdleTimeout     time.Duration `env:"IDLE_TIMEOUT"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT"`
	CORSOrigins     []string      `env:"CORS_ORIGINS" envSeparator:","`
	MaxBodyBytes    int64         `env:"MAX_BODY_BYTES"`
	// TrustedProxies lists the IPs and CIDRs whose forwarding headers name
	// the client. Empty means the peer address is always used.
	TrustedProxies []string `env:"TRUSTED_PROXIES" envSeparator:","`

	// Health/metrics server (separate port for k8s probes)
	HealthPort string `env:"HEALTH_PORT"`
}

// AuthConfig holds token signing settings
type AuthConfig struct {
	JWTSecret       string        `env:"JWT_SECRET"`
	Issuer          string        `env:"JWT_ISSUER"`
	AccessTokenTTL  time.Duration `env:"ACCESS_TOKEN_TTL"`
	RefreshTokenTTL time.Duration `env:"REFRESH_TOKEN_TTL"`
}

// AIConfig holds generative language API settings
type AIConfig struct {
	APIKey       string        `env:"AI_API_KEY"`
	BaseURL      string        `env:"AI_BASE_URL"`
	Models       []string      `env:"AI_MODELS" envSeparator:","`
	Timeout      time.Duration `env:"AI_TIMEOUT"`
	CacheTTL     time.Duration `env:"AI_CACHE_TTL"`
	CacheEntries int           `env:"AI_CACHE_ENTRIES"`
	RateLimit    float64       `env:"AI_RATE_LIMIT"`
	RateBurst    int           `env:"AI_RATE_BURST"`
}

// Enabled reports whether an API key is configured
func (c AIConfig) Enabled() bool {
	return c.APIKey != ""
}

// MaintenanceConfig holds cron schedules for background jobs
type MaintenanceConfig struct {
	TokenPurgeSchedule string `env:"TOKEN_PURGE_SCHEDULE"`
	SnapshotSchedule   string `env:"SNAPSHOT_SCHEDULE"`
}

// ObservabilityConfig holds observability settings
type ObservabilityConfig struct {
	LogLevel observability.LogLevel `env:"LOG_LEVEL"`

	MetricsEnabled bool `env:"METRICS_ENABLED"`

	OTelEnabled        bool    `env:"OTEL_ENABLED"`
	OTelEndpoint       string  `env:"OTEL_ENDPOINT"`
	OTelServiceName    string  `env:"OTEL_SERVICE_NAME"`
	OTelServiceVersion string  `env:"OTEL_SERVICE_VERSION"`
	OTelInsecure       bool    `env:"OTEL_INSECURE"`
	OTelSampleRatio    float64 `env:"OTEL_SAMPLE_RATIO"`
}

// Default returns the configuration used when no variables are set
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            "8000",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    60 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
			CORSOrigins:     []string{"http://localhost:5173", "http://localhost:3000"},
			MaxBodyBytes:    1 << 20,
			HealthPort:      "9090",
		},
		Storage: storage.DefaultConfig(),
		Auth: AuthConfig{
			Issuer:          "mypocketspice",
			AccessTokenTTL:  15 * time.Minute,
			RefreshTokenTTL: 24 * time.Hour,
		},
		AI: AIConfig{
			BaseURL:      "https://generativelanguage.googleapis.com/v1beta",
			Models:       []string{"gemini-2.0-flash", "gemini-1.5-flash", "gemini-1.5-pro", "gemini-pro"},
			Timeout:      30 * time.Second,
			CacheTTL:     10 * time.Minute,
			CacheEntries: 256,
			RateLimit:    0.5,
			RateBurst:    5,
		},
		Maintenance: MaintenanceConfig{
			TokenPurgeSchedule: "@hourly",
			SnapshotSchedule:   "0 3 * * *",
		},
		Observability: ObservabilityConfig{
			LogLevel:           observability.InfoLevel,
			MetricsEnabled:     true,
			OTelEndpoint:       "localhost:4317",
			OTelServiceName:    "spice-api",
			OTelServiceVersion: "dev",
			OTelInsecure:       true,
			OTelSampleRatio:    1,
		},
	}
}

// LoadConfig loads configuration from environment variables on top of Default
func LoadConfig() (*Config, error) {
	cfg := Default()

	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if cfg.AI.APIKey == "" {
		cfg.AI.APIKey = os.Getenv("GOOGLE_AI_API_KEY")
	}
	cfg.Storage.Driver = strings.ToLower(cfg.Storage.Driver)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// LoadStorageConfig loads only the storage section. Admin commands use it so
// they don't need a JWT secret.
func LoadStorageConfig() (storage.Config, error) {
	cfg := storage.DefaultConfig()
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return storage.Config{}, fmt.Errorf("parse env: %w", err)
	}
	cfg.Driver = strings.ToLower(cfg.Driver)
	if err := cfg.Validate(); err != nil {
		return storage.Config{}, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}
	if c.Server.HealthPort == "" {
		return fmt.Errorf("health port is required")
	}
	if c.Server.Port == c.Server.HealthPort {
		return fmt.Errorf("server port and health port must be different")
	}
	if _, err := httputil.ParseTrustedProxies(c.Server.TrustedProxies); err != nil {
		return err
	}

	if err := c.Storage.Validate(); err != nil {
		return err
	}

	if len(c.Auth.JWTSecret) < 32 {
		return fmt.Errorf("%sJWT_SECRET must be at least 32 characters", EnvPrefix)
	}
	if c.Auth.AccessTokenTTL <= 0 || c.Auth.RefreshTokenTTL <= 0 {
		return fmt.Errorf("token lifetimes must be positive")
	}
	if c.Auth.AccessTokenTTL > c.Auth.RefreshTokenTTL {
		return fmt.Errorf("access token lifetime must not exceed refresh token lifetime")
	}

	if len(c.AI.Models) == 0 {
		return fmt.Errorf("at least one AI model is required")
	}
	for _, m := range c.AI.Models {
		if strings.TrimSpace(m) == "" {
			return fmt.Errorf("AI model names must not be blank")
		}
	}
	if c.AI.RateLimit <= 0 || c.AI.RateBurst <= 0 {
		return fmt.Errorf("AI rate limit and burst must be positive")
	}

	if c.Observability.OTelEnabled {
		if c.Observability.OTelEndpoint == "" {
			return fmt.Errorf("OpenTelemetry endpoint is required when OTel is enabled")
		}
		if c.Observability.OTelServiceName == "" {
			return fmt.Errorf("OpenTelemetry service name is required when OTel is enabled")
		}
	}

	return nil
}

// OTel converts the observability section into an observability.OTelConfig
func (c *Config) OTel() observability.OTelConfig {
	return observability.OTelConfig{
		Enabled:        c.Observability.OTelEnabled,
		Endpoint:       c.Observability.OTelEndpoint,
		ServiceName:    c.Observability.OTelServiceName,
		ServiceVersion: c.Observability.OTelServiceVersion,
		Insecure:       c.Observability.OTelInsecure,
		SampleRatio:    c.Observability.OTelSampleRatio,
	}
}

// ListenAddr returns host:port for the API server
func (s ServerConfig) ListenAddr() string {
	return s.Host + ":" + s.Port
}

// HealthAddr returns host:port for the health/metrics server
func (s ServerConfig) HealthAddr() string {
	return s.Host + ":" + s.HealthPort
}
