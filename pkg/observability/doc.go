// Package observability provides structured logging, Prometheus metrics, health
// checks, OpenTelemetry setup and graceful shutdown for the recipe API.
//
// # Structured Logging
//
//	logger := observability.NewLogger(observability.InfoLevel, os.Stdout)
//	logger.WithField("recipe_id", id).Info("recipe created")
//
// Request handlers use FromContext, which adds request_id, user_id and the
// active trace IDs:
//
//	observability.FromContext(r.Context()).WithError(err).Error("create failed")
//
// # Prometheus Metrics
//
//	registry := prometheus.NewRegistry()
//	metrics := observability.NewMetrics(registry)
//	router.Use(observability.HTTPMetricsMiddleware(metrics))
//
// HTTP metrics are labelled with the mux route template, never the raw path.
//
// # Health Checks
//
//	checker := observability.NewHealthChecker(db, redisClient)
//	checker.AddCheck("s3", false, snapshots.HealthCheck)
//	observability.RegisterHealthRoutes(healthMux, checker)
//
// # OpenTelemetry
//
//	providers, err := observability.InitOTel(ctx, observability.OTelConfig{
//		Enabled:     true,
//		Endpoint:    "otel-collector:4317",
//		ServiceName: "spice-api",
//	}, logger)
//	defer providers.Shutdown(ctx)
//
// # Related Packages
//
//   - pkg/config: observability configuration
//   - pkg/httputil: request ID, logging and recovery middleware
package observability
