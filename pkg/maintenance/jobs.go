package maintenance

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/HatfieldAlex/MyPocketSpice/pkg/catalog"
)

// TokenPurger deletes revocation rows for tokens that have expired
type TokenPurger interface {
	PurgeExpiredTokens(ctx context.Context, now time.Time) (int64, error)
}

// SnapshotSource exports the catalogue
type SnapshotSource interface {
	Snapshot(ctx context.Context) (*catalog.Snapshot, error)
}

// SnapshotSink stores a snapshot and returns where it was written
type SnapshotSink interface {
	Upload(ctx context.Context, snap *catalog.Snapshot) (string, error)
}

// PurgeTokens removes revocations that expired before now
func PurgeTokens(ctx context.Context, purger TokenPurger, now time.Time) (int64, error) {
	n, err := purger.PurgeExpiredTokens(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("failed to purge revoked tokens: %w", err)
	}
	return n, nil
}

// ExportSnapshot writes a catalogue snapshot to sink
func ExportSnapshot(ctx context.Context, source SnapshotSource, sink SnapshotSink) (string, error) {
	snap, err := source.Snapshot(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to build snapshot: %w", err)
	}
	location, err := sink.Upload(ctx, snap)
	if err != nil {
		return "", err
	}
	return location, nil
}

// FileSink writes snapshots as indented JSON to a local file
type FileSink struct {
	Path string
}

// Upload writes snap to the sink's path, replacing any existing file
func (f FileSink) Upload(_ context.Context, snap *catalog.Snapshot) (string, error) {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode snapshot: %w", err)
	}

	if dir := filepath.Dir(f.Path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}

	tmp := f.Path + ".tmp"
	if err := os.WriteFile(tmp, append(data, '\n'), 0o644); err != nil {
		return "", fmt.Errorf("failed to write snapshot: %w", err)
	}
	if err := os.Rename(tmp, f.Path); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("failed to write snapshot: %w", err)
	}
	return f.Path, nil
}
