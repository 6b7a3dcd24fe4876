// Package config loads application configuration from SPICE_* environment
// variables on top of built-in defaults, then validates it.
//
// Server settings:
//
//	SPICE_HOST="0.0.0.0"
//	SPICE_PORT="8000"
//	SPICE_HEALTH_PORT="9090"
//	SPICE_CORS_ORIGINS="http://localhost:5173,http://localhost:3000"
//
// Storage settings are described in pkg/storage.
//
// Auth settings:
//
//	SPICE_JWT_SECRET="..."           # required, 32+ characters
//	SPICE_ACCESS_TOKEN_TTL="15m"
//	SPICE_REFRESH_TOKEN_TTL="24h"
//
// AI match settings:
//
//	SPICE_AI_API_KEY="..."           # falls back to GOOGLE_AI_API_KEY
//	SPICE_AI_MODELS="gemini-2.0-flash,gemini-1.5-flash,gemini-1.5-pro,gemini-pro"
//	SPICE_AI_TIMEOUT="30s"
//	SPICE_AI_RATE_LIMIT="0.5"        # requests per second per client
//
// Maintenance:
//
//	SPICE_TOKEN_PURGE_SCHEDULE="@hourly"
//	SPICE_SNAPSHOT_SCHEDULE="0 3 * * *"
//
// Observability:
//
//	SPICE_LOG_LEVEL="info"           # debug, info, warn, error
//	SPICE_METRICS_ENABLED="true"
//	SPICE_OTEL_ENABLED="false"
//	SPICE_OTEL_ENDPOINT="otel-collector:4317"
package config
