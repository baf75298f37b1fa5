package interfaces

import (
	"context"
)

// ObserverService runs the full observation pipeline for a ticker:
// candle lookup (cache first), analysis, persistence, narration, events.
type ObserverService interface {
	// Observe runs the pipeline and returns the stored record.
	Observe(ctx context.Context, ticker string) (*AnalysisRecord, error)
}

// SchedulerService runs recurring watchlist observations.
type SchedulerService interface {
	Start() error
	Stop()
}
