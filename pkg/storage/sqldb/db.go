package sqldb

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"           // PostgreSQL driver
	_ "github.com/mattn/go-sqlite3" // SQLite driver
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/HatfieldAlex/MyPocketSpice/pkg/observability"
	"github.com/HatfieldAlex/MyPocketSpice/pkg/storage"
)

var tracer = otel.Tracer("github.com/HatfieldAlex/MyPocketSpice/pkg/storage/sqldb")

// querier is satisfied by *sql.DB and *sql.Tx
type querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// Store is the database/sql implementation of the catalogue, user and
// token stores. It speaks the subset of SQL shared by PostgreSQL and SQLite.
type Store struct {
	db      *sql.DB
	driver  string
	metrics *observability.Metrics
	now     func() time.Time
}

// Open connects to the configured database and verifies the connection
func Open(ctx context.Context, cfg storage.Config) (*Store, error) {
	driver := strings.ToLower(cfg.Driver)
	driverName := "postgres"
	if driver == storage.DriverSQLite {
		driverName = "sqlite3"
	}

	db, err := sql.Open(driverName, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", driver, err)
	}

	if driver == storage.DriverSQLite {
		// One connection keeps :memory: databases coherent and serialises writers
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(cfg.MaxConns)
		db.SetMaxIdleConns(cfg.MinConns)
		db.SetConnMaxLifetime(1 * time.Hour)
		db.SetConnMaxIdleTime(10 * time.Minute)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping %s: %w", driver, err)
	}

	return New(db, driver), nil
}

// New wraps an existing connection pool. driver is storage.DriverSQLite or
// storage.DriverPostgres.
func New(db *sql.DB, driver string) *Store {
	return &Store{
		db:     db,
		driver: driver,
		now:    time.Now,
	}
}

// SetMetrics enables storage metrics
func (s *Store) SetMetrics(m *observability.Metrics) {
	s.metrics = m
}

// DB returns the underlying pool for health checks
func (s *Store) DB() *sql.DB {
	return s.db
}

// Driver returns the configured driver name
func (s *Store) Driver() string {
	return s.driver
}

// Close closes the pool
func (s *Store) Close() error {
	return s.db.Close()
}

// startOp opens a span for a storage operation. The returned func must be
// called with the operation's final error.
func (s *Store) startOp(ctx context.Context, op string) (context.Context, func(error)) {
	start := time.Now()
	ctx, span := tracer.Start(ctx, "sqldb."+op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("db.system", s.driver),
			attribute.String("db.operation", op),
		),
	)
	return ctx, func(err error) {
		if err != nil && !isExpected(err) {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
		if isExpected(err) {
			err = nil
		}
		s.metrics.ObserveStorage(op, start, err)
	}
}

// withTx runs fn in a transaction, rolling back on error
func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (s *Store) timestamp() time.Time {
	return s.now().UTC()
}
