// Package jobs defines River background jobs. Jobs run only on PostgreSQL
// deployments; SQLite deployments have no queue and skip registration.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/riverqueue/river"
	"go.uber.org/zap"

	"tastebook.io/tastebook/internal/pkg/logger"
	"tastebook.io/tastebook/internal/repository"
)

// DefaultTelemetryRetention is the baseline retention for raw reading
// telemetry.
const DefaultTelemetryRetention = 90 * 24 * time.Hour

// TelemetryCleanupArgs is a periodic maintenance job that removes expired
// telemetry events.
type TelemetryCleanupArgs struct{}

// Kind returns the job kind identifier for periodic telemetry cleanup.
func (TelemetryCleanupArgs) Kind() string { return "telemetry_cleanup" }

// InsertOpts ensures at most one cleanup job is enqueued within the same day.
func (TelemetryCleanupArgs) InsertOpts() river.InsertOpts {
	return river.InsertOpts{
		Queue:       river.QueueDefault,
		MaxAttempts: 1,
		UniqueOpts: river.UniqueOpts{
			ByPeriod: 24 * time.Hour,
			ByQueue:  true,
			ByArgs:   true,
		},
	}
}

// TelemetryCleanupWorker deletes telemetry events older than the configured
// retention duration.
type TelemetryCleanupWorker struct {
	river.WorkerDefaults[TelemetryCleanupArgs]
	store     repository.Store
	retention time.Duration
}

// NewTelemetryCleanupWorker creates a cleanup worker. Non-positive retention
// falls back to the 90-day default.
func NewTelemetryCleanupWorker(store repository.Store, retention time.Duration) *TelemetryCleanupWorker {
	if retention <= 0 {
		retention = DefaultTelemetryRetention
	}
	return &TelemetryCleanupWorker{
		store:     store,
		retention: retention,
	}
}

// Work removes expired telemetry rows.
func (w *TelemetryCleanupWorker) Work(ctx context.Context, _ *river.Job[TelemetryCleanupArgs]) error {
	if w == nil || w.store == nil {
		return fmt.Errorf("telemetry cleanup worker is not initialized")
	}

	cutoff := time.Now().UTC().Add(-w.retention)
	deleted, err := w.store.DeleteTelemetryEventsBefore(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("delete expired telemetry events before %s: %w", cutoff.Format(time.RFC3339), err)
	}

	logger.Info("telemetry cleanup completed",
		zap.Int64("deleted_rows", deleted),
		zap.String("cutoff", cutoff.Format(time.RFC3339)),
		zap.Duration("retention", w.retention),
	)
	return nil
}
