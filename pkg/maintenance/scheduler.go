package maintenance

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/HatfieldAlex/MyPocketSpice/pkg/observability"
)

// Job names used in logs and metrics
const (
	JobPurgeTokens = "purge_tokens"
	JobSnapshot    = "snapshot"
)

// Scheduler runs maintenance jobs on cron schedules (UTC). A job still
// running when its next run is due is skipped for that run.
type Scheduler struct {
	cron       *cron.Cron
	logger     *observability.Logger
	metrics    *observability.Metrics
	jobTimeout time.Duration
	now        func() time.Time
}

// NewScheduler creates a stopped Scheduler
func NewScheduler(logger *observability.Logger, metrics *observability.Metrics) *Scheduler {
	if logger == nil {
		logger = observability.NopLogger()
	}
	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(time.UTC),
			cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
		),
		logger:     logger,
		metrics:    metrics,
		jobTimeout: 10 * time.Minute,
		now:        time.Now,
	}
}

// AddTokenPurge schedules PurgeTokens
func (s *Scheduler) AddTokenPurge(spec string, purger TokenPurger) error {
	return s.add(spec, JobPurgeTokens, func(ctx context.Context) error {
		n, err := PurgeTokens(ctx, purger, s.now())
		if err == nil {
			s.logger.WithField("purged", n).Info("revoked tokens purged")
		}
		return err
	})
}

// AddSnapshot schedules ExportSnapshot
func (s *Scheduler) AddSnapshot(spec string, source SnapshotSource, sink SnapshotSink) error {
	return s.add(spec, JobSnapshot, func(ctx context.Context) error {
		location, err := ExportSnapshot(ctx, source, sink)
		if err == nil {
			s.logger.WithField("location", location).Info("catalogue snapshot uploaded")
		}
		return err
	})
}

func (s *Scheduler) add(spec, name string, fn func(context.Context) error) error {
	if _, err := s.cron.AddFunc(spec, func() { s.run(name, fn) }); err != nil {
		return fmt.Errorf("invalid schedule %q for %s: %w", spec, name, err)
	}
	s.logger.WithFields(map[string]interface{}{"job": name, "schedule": spec}).Info("maintenance job scheduled")
	return nil
}

func (s *Scheduler) run(name string, fn func(context.Context) error) {
	logger := s.logger.WithField("job", name)
	defer observability.RecoverPanicWithCallback(logger, "maintenance job", func(r interface{}) {
		s.metrics.MaintenanceRun(name, observability.PanicError(r))
	})

	ctx, cancel := context.WithTimeout(context.Background(), s.jobTimeout)
	defer cancel()

	start := time.Now()
	err := fn(ctx)
	s.metrics.MaintenanceRun(name, err)
	if err != nil {
		logger.WithError(err).Error("maintenance job failed")
		return
	}
	logger.WithField("duration_ms", time.Since(start).Milliseconds()).Debug("maintenance job finished")
}

// Len returns the number of scheduled jobs
func (s *Scheduler) Len() int {
	return len(s.cron.Entries())
}

// Start runs the scheduler in its own goroutine
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop stops scheduling and waits for running jobs or ctx
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
