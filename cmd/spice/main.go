package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/HatfieldAlex/MyPocketSpice/pkg/aimatch"
	"github.com/HatfieldAlex/MyPocketSpice/pkg/api"
	"github.com/HatfieldAlex/MyPocketSpice/pkg/auth"
	"github.com/HatfieldAlex/MyPocketSpice/pkg/catalog"
	"github.com/HatfieldAlex/MyPocketSpice/pkg/config"
	"github.com/HatfieldAlex/MyPocketSpice/pkg/httputil"
	"github.com/HatfieldAlex/MyPocketSpice/pkg/maintenance"
	"github.com/HatfieldAlex/MyPocketSpice/pkg/middleware"
	"github.com/HatfieldAlex/MyPocketSpice/pkg/observability"
	"github.com/HatfieldAlex/MyPocketSpice/pkg/storage/sqldb"
)

// overridden during build with ldflags
var version = "dev"

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		observability.NewLogger(observability.ErrorLevel, os.Stderr).WithError(err).Error("Failed to load configuration")
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.Observability.LogLevel, os.Stdout)
	if err := run(cfg, logger); err != nil {
		logger.WithError(err).Error("Server exited")
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *observability.Logger) error {
	ctx := context.Background()

	otelProviders, err := observability.InitOTel(ctx, cfg.OTel(), logger)
	if err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := observability.NewMetrics(registry)

	// Database
	db, err := sqldb.Open(ctx, cfg.Storage)
	if err != nil {
		return err
	}
	db.SetMetrics(metrics)
	if cfg.Storage.AutoMigrate {
		applied, err := db.Migrate(ctx)
		if err != nil {
			db.Close()
			return err
		}
		logger.WithField("applied", applied).Info("Database migrated")
	}

	// Redis is optional
	var redisClient *redis.Client
	if cfg.Storage.RedisURL != "" {
		redisClient, err = sqldb.NewRedisClient(ctx, cfg.Storage)
		if err != nil {
			db.Close()
			return err
		}
		logger.Info("Connected to Redis")
	}

	var store catalog.Store = db
	if cfg.Storage.CacheEnabled {
		store = sqldb.NewCachedStore(db, cfg.Storage.L1CacheEntries, cfg.Storage.CacheTTL, redisClient, metrics)
	}

	tokens := auth.NewTokenManager(auth.TokenConfig{
		Secret:     cfg.Auth.JWTSecret,
		Issuer:     cfg.Auth.Issuer,
		AccessTTL:  cfg.Auth.AccessTokenTTL,
		RefreshTTL: cfg.Auth.RefreshTokenTTL,
	})
	authService := auth.NewService(db, db, tokens, logger, metrics)
	if redisClient != nil {
		authService.SetMirror(sqldb.NewRevocationMirror(redisClient))
	}

	var generator aimatch.Generator
	if cfg.AI.Enabled() {
		generator = aimatch.NewGeminiClient(cfg.AI.BaseURL, cfg.AI.APIKey, cfg.AI.Timeout)
	} else {
		logger.Warn("No AI API key configured; ingredient matching is limited to exact local matches")
	}
	matcher := aimatch.NewMatcher(store, generator, aimatch.Options{
		Models:       cfg.AI.Models,
		CacheEntries: cfg.AI.CacheEntries,
		CacheTTL:     cfg.AI.CacheTTL,
	}, metrics, logger)

	var matchLimiter middleware.Limiter
	if redisClient != nil {
		matchLimiter = middleware.NewDistributedRateLimiter(redisClient, cfg.AI.RateBurst,
			middleware.WindowFor(cfg.AI.RateLimit, cfg.AI.RateBurst), "spice:ratelimit:ai-match")
	} else {
		matchLimiter = middleware.NewRateLimiter(middleware.RateLimitConfig{
			Rate:  cfg.AI.RateLimit,
			Burst: cfg.AI.RateBurst,
		})
	}

	trustedProxies, err := httputil.ParseTrustedProxies(cfg.Server.TrustedProxies)
	if err != nil {
		return err
	}
	server := api.NewServer(api.Options{
		Store:          store,
		Auth:           authService,
		Matcher:        matcher,
		MatchLimiter:   matchLimiter,
		Metrics:        metrics,
		Logger:         logger,
		CORSOrigins:    cfg.Server.CORSOrigins,
		MaxBodyBytes:   cfg.Server.MaxBodyBytes,
		TrustedProxies: trustedProxies,
	})

	// Maintenance
	scheduler := maintenance.NewScheduler(logger, metrics)
	if err := scheduler.AddTokenPurge(cfg.Maintenance.TokenPurgeSchedule, db); err != nil {
		return err
	}
	if cfg.Storage.SnapshotsEnabled() {
		uploader, err := sqldb.NewSnapshotUploader(ctx, cfg.Storage)
		if err != nil {
			return err
		}
		if err := uploader.EnsureBucket(ctx); err != nil {
			logger.WithError(err).Warn("Snapshot bucket is not reachable; uploads will retry on schedule")
		}
		if err := scheduler.AddSnapshot(cfg.Maintenance.SnapshotSchedule, db, uploader); err != nil {
			return err
		}
	}
	scheduler.Start()

	// Health and metrics on their own port
	health := observability.NewHealthChecker(db.DB(), redisClient)
	health.SetVersion(version)
	healthMux := http.NewServeMux()
	observability.RegisterHealthRoutes(healthMux, health)
	if cfg.Observability.MetricsEnabled {
		observability.RegisterMetricsEndpoint(healthMux, registry)
	}

	apiServer := &http.Server{
		Addr:         cfg.Server.ListenAddr(),
		Handler:      server,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}
	healthServer := &http.Server{
		Addr:              cfg.Server.HealthAddr(),
		Handler:           healthMux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	statsCtx, stopStats := context.WithCancel(ctx)
	go recordDBStats(statsCtx, metrics, db)

	shutdown := observability.NewShutdownManager(logger, cfg.Server.ShutdownTimeout, apiServer, healthServer)
	shutdown.RegisterShutdownFunc(func(context.Context) error { return db.Close() })
	if redisClient != nil {
		shutdown.RegisterShutdownFunc(func(context.Context) error { return redisClient.Close() })
	}
	if otelProviders != nil {
		shutdown.RegisterShutdownFunc(otelProviders.Shutdown)
	}
	shutdown.RegisterShutdownFunc(func(context.Context) error {
		stopStats()
		return nil
	})
	shutdown.RegisterShutdownFunc(scheduler.Stop)

	serverErr := make(chan error, 2)
	for _, srv := range []*http.Server{apiServer, healthServer} {
		go func(srv *http.Server) {
			logger.WithField("addr", srv.Addr).Info("Listening")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				serverErr <- err
			}
		}(srv)
	}

	waitCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	failed := make(chan error, 1)
	go func() {
		err := <-serverErr
		logger.WithError(err).Error("HTTP server failed")
		failed <- err
		cancel()
	}()

	shutdownErr := shutdown.WaitForShutdown(waitCtx)
	select {
	case err := <-failed:
		return err
	default:
		return shutdownErr
	}
}

func recordDBStats(ctx context.Context, metrics *observability.Metrics, db *sqldb.Store) {
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()
	for {
		metrics.RecordDBStats(db.DB())
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
