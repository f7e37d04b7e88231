package core

// scheduler.go runs background maintenance for generated exports.
//
// Every export leaves a file under the export directory. The cleanup job
// removes files older than the retention age. It runs once on start and
// then on every tick until its context is cancelled. A failed run is logged
// and retried on the next tick.

import (
	"context"
	"log/slog"
	"time"
)

// CleanupConfig configures StartExportCleanup.
type CleanupConfig struct {
	Retention     time.Duration // Age after which an export is removed
	CheckInterval time.Duration // How often to look (default: 1h)
}

// StartExportCleanup blocks, removing expired exports until ctx is done.
// A zero Retention returns immediately.
func (s *Service) StartExportCleanup(ctx context.Context, cfg CleanupConfig) {
	if cfg.Retention <= 0 {
		slog.Info("export cleanup disabled")
		return
	}
	if cfg.CheckInterval <= 0 {
		cfg.CheckInterval = time.Hour
	}

	slog.Info("export cleanup started",
		"retention", cfg.Retention.String(),
		"interval", cfg.CheckInterval.String(),
	)

	s.CleanupExports(ctx, time.Now().Add(-cfg.Retention))

	ticker := time.NewTicker(cfg.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("export cleanup stopped")
			return
		case now := <-ticker.C:
			s.CleanupExports(ctx, now.Add(-cfg.Retention))
		}
	}
}

// CleanupExports removes exports last modified before cutoff and returns
// how many were removed.
func (s *Service) CleanupExports(ctx context.Context, cutoff time.Time) int {
	start := time.Now()

	dir := s.exportDir
	if dir == "" {
		dir = "."
	}

	removed, err := s.dir.RemoveOlderThan(dir, cutoff)
	if err != nil {
		slog.Error("export cleanup failed", "removed", removed, "error", err)
		return removed
	}

	slog.Debug("export cleanup completed",
		"removed", removed,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return removed
}
