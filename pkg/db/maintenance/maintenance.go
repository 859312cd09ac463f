// Package maintenance runs startup housekeeping on the run database.
package maintenance

import (
	"context"
	"log/slog"
	"time"

	"sliderlabel/pkg/db"
)

// Run prunes runs older than retention. A zero retention keeps everything.
// Failures are logged, never fatal to startup.
func Run(ctx context.Context, d *db.DB, retention time.Duration) {
	if retention <= 0 {
		return
	}
	slog.Info("Starting database maintenance...", "retention", retention)

	n, err := d.PruneRuns(ctx, retention)
	if err != nil {
		slog.Error("Run pruning failed", "error", err)
		return
	}
	slog.Info("Run pruning completed", "deleted", n)
}
