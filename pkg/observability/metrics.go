package observability

import (
	"database/sql"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	HTTPResponseSize    *prometheus.HistogramVec

	// Storage metrics
	StorageOperationDuration *prometheus.HistogramVec
	StorageErrorsTotal       *prometheus.CounterVec

	// Cache metrics
	CacheHitsTotal   *prometheus.CounterVec
	CacheMissesTotal *prometheus.CounterVec

	// Database pool
	DBConnectionsOpen  prometheus.Gauge
	DBConnectionsInUse prometheus.Gauge
	DBConnectionsIdle  prometheus.Gauge

	// Catalogue metrics
	RecipesCreatedTotal prometheus.Counter
	RecipesDeletedTotal prometheus.Counter

	// AI match metrics
	AIMatchRequestsTotal *prometheus.CounterVec
	AIModelCallsTotal    *prometheus.CounterVec
	AIModelCallDuration  *prometheus.HistogramVec

	// Auth metrics
	AuthEventsTotal *prometheus.CounterVec

	// Maintenance
	MaintenanceRunsTotal *prometheus.CounterVec
}

// NewMetrics creates and registers all Prometheus metrics on registry
func NewMetrics(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "spice_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "spice_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		HTTPResponseSize: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "spice_http_response_size_bytes",
				Help:    "HTTP response size in bytes",
				Buckets: prometheus.ExponentialBuckets(100, 10, 6),
			},
			[]string{"method", "route"},
		),

		StorageOperationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "spice_storage_operation_duration_seconds",
				Help:    "Storage operation duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
			},
			[]string{"operation"},
		),
		StorageErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "spice_storage_errors_total",
				Help: "Total number of storage errors",
			},
			[]string{"operation"},
		),

		CacheHitsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "spice_cache_hits_total",
				Help: "Total number of cache hits",
			},
			[]string{"cache", "layer"},
		),
		CacheMissesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "spice_cache_misses_total",
				Help: "Total number of cache misses",
			},
			[]string{"cache", "layer"},
		),

		DBConnectionsOpen: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "spice_db_connections_open",
			Help: "Number of open database connections",
		}),
		DBConnectionsInUse: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "spice_db_connections_in_use",
			Help: "Number of database connections in use",
		}),
		DBConnectionsIdle: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "spice_db_connections_idle",
			Help: "Number of idle database connections",
		}),

		RecipesCreatedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "spice_recipes_created_total",
			Help: "Total number of recipes created",
		}),
		RecipesDeletedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "spice_recipes_deleted_total",
			Help: "Total number of recipes deleted",
		}),

		AIMatchRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "spice_ai_match_requests_total",
				Help: "AI match requests by answer source and outcome",
			},
			[]string{"source", "outcome"},
		),
		AIModelCallsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "spice_ai_model_calls_total",
				Help: "Calls to the generative language API by model and status",
			},
			[]string{"model", "status"},
		),
		AIModelCallDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "spice_ai_model_call_duration_seconds",
				Help:    "Generative language API latency in seconds",
				Buckets: []float64{.25, .5, 1, 2, 4, 8, 16, 32},
			},
			[]string{"model"},
		),

		AuthEventsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "spice_auth_events_total",
				Help: "Authentication events by type and result",
			},
			[]string{"event", "result"},
		),

		MaintenanceRunsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "spice_maintenance_runs_total",
				Help: "Scheduled maintenance job runs by job and result",
			},
			[]string{"job", "result"},
		),
	}

	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPResponseSize,
		m.StorageOperationDuration,
		m.StorageErrorsTotal,
		m.CacheHitsTotal,
		m.CacheMissesTotal,
		m.DBConnectionsOpen,
		m.DBConnectionsInUse,
		m.DBConnectionsIdle,
		m.RecipesCreatedTotal,
		m.RecipesDeletedTotal,
		m.AIMatchRequestsTotal,
		m.AIModelCallsTotal,
		m.AIModelCallDuration,
		m.AuthEventsTotal,
		m.MaintenanceRunsTotal,
	)

	return m
}

// ObserveStorage records the duration of a storage operation and counts failures.
// Safe to call on a nil receiver.
func (m *Metrics) ObserveStorage(operation string, start time.Time, err error) {
	if m == nil {
		return
	}
	m.StorageOperationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	if err != nil {
		m.StorageErrorsTotal.WithLabelValues(operation).Inc()
	}
}

// CacheHit counts a hit. Safe to call on a nil receiver.
func (m *Metrics) CacheHit(cache, layer string) {
	if m == nil {
		return
	}
	m.CacheHitsTotal.WithLabelValues(cache, layer).Inc()
}

// CacheMiss counts a miss. Safe to call on a nil receiver.
func (m *Metrics) CacheMiss(cache, layer string) {
	if m == nil {
		return
	}
	m.CacheMissesTotal.WithLabelValues(cache, layer).Inc()
}

// AuthEvent counts an authentication event. Safe to call on a nil receiver.
func (m *Metrics) AuthEvent(event, result string) {
	if m == nil {
		return
	}
	m.AuthEventsTotal.WithLabelValues(event, result).Inc()
}

// RecipeCreated counts a created recipe. Safe to call on a nil receiver.
func (m *Metrics) RecipeCreated() {
	if m == nil {
		return
	}
	m.RecipesCreatedTotal.Inc()
}

// RecipeDeleted counts a deleted recipe. Safe to call on a nil receiver.
func (m *Metrics) RecipeDeleted() {
	if m == nil {
		return
	}
	m.RecipesDeletedTotal.Inc()
}

// AIMatch counts an ingredient match request by source and outcome.
// Safe to call on a nil receiver.
func (m *Metrics) AIMatch(source, outcome string) {
	if m == nil {
		return
	}
	m.AIMatchRequestsTotal.WithLabelValues(source, outcome).Inc()
}

// ObserveModelCall records one generative model call. Safe to call on a nil receiver.
func (m *Metrics) ObserveModelCall(model string, start time.Time, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.AIModelCallsTotal.WithLabelValues(model, status).Inc()
	m.AIModelCallDuration.WithLabelValues(model).Observe(time.Since(start).Seconds())
}

// MaintenanceRun counts a scheduled job run. Safe to call on a nil receiver.
func (m *Metrics) MaintenanceRun(job string, err error) {
	if m == nil {
		return
	}
	result := "success"
	if err != nil {
		result = "failure"
	}
	m.MaintenanceRunsTotal.WithLabelValues(job, result).Inc()
}

// RecordDBStats copies database/sql pool statistics into the gauges
func (m *Metrics) RecordDBStats(db *sql.DB) {
	if m == nil || db == nil {
		return
	}
	stats := db.Stats()
	m.DBConnectionsOpen.Set(float64(stats.OpenConnections))
	m.DBConnectionsInUse.Set(float64(stats.InUse))
	m.DBConnectionsIdle.Set(float64(stats.Idle))
}

// responseWriter wraps http.ResponseWriter to capture status code and size
type responseWriter struct {
	http.ResponseWriter
	statusCode   int
	bytesWritten int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.bytesWritten += n
	return n, err
}

// routeLabel returns the mux path template so recipe IDs don't explode label cardinality
func routeLabel(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tpl, err := route.GetPathTemplate(); err == nil {
			return tpl
		}
	}
	return "unmatched"
}

// HTTPMetricsMiddleware instruments HTTP requests with Prometheus metrics.
// Install it with router.Use so the matched route is known.
func HTTPMetricsMiddleware(metrics *Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(rw, r)

			route := routeLabel(r)
			metrics.HTTPRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(rw.statusCode)).Inc()
			metrics.HTTPRequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
			metrics.HTTPResponseSize.WithLabelValues(r.Method, route).Observe(float64(rw.bytesWritten))
		})
	}
}

// RegisterMetricsEndpoint registers the /metrics endpoint
func RegisterMetricsEndpoint(mux *http.ServeMux, registry *prometheus.Registry) {
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
}
