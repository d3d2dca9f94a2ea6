package usecase

import (
	"context"

	"go.uber.org/zap"

	"tastebook.io/tastebook/internal/domain"
	"tastebook.io/tastebook/internal/pkg/logger"
	"tastebook.io/tastebook/internal/repository"
)

// ReportTelemetryInput is a batch of client-reported reading events.
type ReportTelemetryInput struct {
	Events []domain.TelemetryEvent
}

// ReportTelemetryOutput partitions the batch: every event lands in exactly
// one counter.
type ReportTelemetryOutput struct {
	Accepted int `json:"accepted"`
	Deduped  int `json:"deduped"`
	Rejected int `json:"rejected"`
}

// ReportTelemetryUseCase ingests telemetry batches. Ingestion is best
// effort per event: a bad or failing event never aborts the rest of the
// batch, and replays deduplicate on event_id.
type ReportTelemetryUseCase struct {
	store repository.Store
}

// NewReportTelemetryUseCase creates a new ReportTelemetryUseCase.
func NewReportTelemetryUseCase(store repository.Store) *ReportTelemetryUseCase {
	return &ReportTelemetryUseCase{store: store}
}

// Execute stores the batch and reports the accepted/deduped/rejected split.
func (uc *ReportTelemetryUseCase) Execute(ctx context.Context, input ReportTelemetryInput) (*ReportTelemetryOutput, error) {
	out := &ReportTelemetryOutput{}

	for i := range input.Events {
		ev := &input.Events[i]

		if err := ev.Validate(); err != nil {
			out.Rejected++
			logger.Debug("telemetry event rejected", zap.Error(err))
			continue
		}

		inserted, err := uc.store.InsertTelemetryEvent(ctx, ev)
		switch {
		case err != nil:
			// Storage trouble for one event must not fail the batch.
			out.Rejected++
			logger.Warn("telemetry event not stored",
				zap.String("event_id", ev.EventID), zap.Error(err))
		case inserted:
			out.Accepted++
		default:
			out.Deduped++
		}
	}

	if out.Accepted+out.Deduped+out.Rejected > 0 {
		logger.Debug("telemetry batch processed",
			zap.Int("accepted", out.Accepted),
			zap.Int("deduped", out.Deduped),
			zap.Int("rejected", out.Rejected))
	}
	return out, nil
}
