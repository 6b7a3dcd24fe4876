package maintenance

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HatfieldAlex/MyPocketSpice/pkg/catalog"
	"github.com/HatfieldAlex/MyPocketSpice/pkg/observability"
)

type fakePurger struct {
	purgedAt time.Time
	err      error
}

func (f *fakePurger) PurgeExpiredTokens(_ context.Context, now time.Time) (int64, error) {
	f.purgedAt = now
	return 4, f.err
}

type fakeSource struct {
	err error
}

func (f fakeSource) Snapshot(context.Context) (*catalog.Snapshot, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &catalog.Snapshot{
		GeneratedAt: time.Date(2026, 6, 1, 3, 0, 0, 0, time.UTC),
		Categories:  []catalog.Category{{ID: 1, Name: "Dinner"}},
	}, nil
}

func newTestScheduler() (*Scheduler, *observability.Metrics) {
	metrics := observability.NewMetrics(prometheus.NewRegistry())
	return NewScheduler(observability.NopLogger(), metrics), metrics
}

func TestPurgeTokens(t *testing.T) {
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	purger := &fakePurger{}

	n, err := PurgeTokens(context.Background(), purger, now)
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)
	assert.Equal(t, now, purger.purgedAt)

	_, err = PurgeTokens(context.Background(), &fakePurger{err: errors.New("locked")}, now)
	assert.ErrorContains(t, err, "failed to purge revoked tokens: locked")
}

func TestExportSnapshot_FileSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "exports", "catalogue.json")

	location, err := ExportSnapshot(context.Background(), fakeSource{}, FileSink{Path: path})
	require.NoError(t, err)
	assert.Equal(t, path, location)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var snap catalog.Snapshot
	require.NoError(t, json.Unmarshal(data, &snap))
	assert.Equal(t, "Dinner", snap.Categories[0].Name)

	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))
}

func TestExportSnapshot_SourceFailure(t *testing.T) {
	_, err := ExportSnapshot(context.Background(), fakeSource{err: errors.New("db down")}, FileSink{Path: filepath.Join(t.TempDir(), "x.json")})
	assert.ErrorContains(t, err, "failed to build snapshot")
}

func TestScheduler_AddJobs(t *testing.T) {
	s, _ := newTestScheduler()

	require.NoError(t, s.AddTokenPurge("@hourly", &fakePurger{}))
	require.NoError(t, s.AddSnapshot("0 3 * * *", fakeSource{}, FileSink{Path: filepath.Join(t.TempDir(), "s.json")}))
	assert.Equal(t, 2, s.Len())

	err := s.AddTokenPurge("every day please", &fakePurger{})
	assert.ErrorContains(t, err, "invalid schedule")
	assert.Equal(t, 2, s.Len())
}

func TestScheduler_RunRecordsOutcome(t *testing.T) {
	s, metrics := newTestScheduler()
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	purger := &fakePurger{}
	s.run(JobPurgeTokens, func(ctx context.Context) error {
		_, err := PurgeTokens(ctx, purger, s.now())
		return err
	})
	assert.Equal(t, now, purger.purgedAt)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.MaintenanceRunsTotal.WithLabelValues(JobPurgeTokens, "success")))

	s.run(JobSnapshot, func(context.Context) error { return errors.New("bucket missing") })
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.MaintenanceRunsTotal.WithLabelValues(JobSnapshot, "failure")))
}

func TestScheduler_RunRecoversPanics(t *testing.T) {
	s, metrics := newTestScheduler()

	assert.NotPanics(t, func() {
		s.run(JobSnapshot, func(context.Context) error { panic("nil sink") })
	})
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.MaintenanceRunsTotal.WithLabelValues(JobSnapshot, "failure")))
}

func TestScheduler_StartStop(t *testing.T) {
	s, _ := newTestScheduler()
	require.NoError(t, s.AddTokenPurge("@hourly", &fakePurger{}))

	s.Start()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, s.Stop(ctx))
}
