package core

// scheduler.go provides periodic refreshes for the long-running server.
//
// The scheduler is context-aware for graceful shutdown. A failed or aborted
// run is logged and the next tick runs again; the server keeps serving.

import (
	"context"
	"log/slog"
	"time"
)

// TriggerSchedule marks runs started by the scheduler.
const TriggerSchedule = "schedule"

// RunFunc starts one pipeline run.
type RunFunc func(ctx context.Context) (*RunSummary, error)

// StartScheduler calls run every interval until ctx is cancelled.
// The first run happens one interval after start.
func StartScheduler(ctx context.Context, interval time.Duration, run RunFunc) {
	logger := slog.Default().With("interval", interval.String())
	logger.Info("refresh scheduler started")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("refresh scheduler stopped")
			return
		case <-ticker.C:
			runScheduled(ctx, logger, run)
		}
	}
}

// runScheduled performs one scheduled refresh.
func runScheduled(ctx context.Context, logger *slog.Logger, run RunFunc) {
	start := time.Now()
	summary, err := run(ContextWithTrigger(ctx, TriggerSchedule))
	if err != nil {
		logger.Error("scheduled run aborted", "error", err, "code", ErrorCode(err))
		return
	}
	logger.Info("scheduled run completed",
		"run_id", summary.RunID,
		"errors", summary.ErrorCount(),
		"duration_ms", time.Since(start).Milliseconds(),
	)
}
