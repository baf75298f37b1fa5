// Package interfaces provides service interfaces for dependency injection.
package interfaces

import (
	"context"
	"time"

	"github.com/johnjames-bit/psiema/internal/marketdata"
	"github.com/johnjames-bit/psiema/internal/psi"
)

// AnalysisRecord is a persisted analysis run for a ticker.
type AnalysisRecord struct {
	// ID is the unique record ID ("obs_" prefix)
	ID string `json:"id" badgerhold:"key"`
	// Ticker is the normalized ticker symbol the run was computed for
	Ticker string `json:"ticker" badgerhold:"index"`
	// Periods is the number of samples the run covered
	Periods int `json:"periods"`
	// Analysis is the full computed result
	Analysis *psi.Analysis `json:"analysis"`
	// Narrative is the generated commentary, empty if narration was skipped
	Narrative string `json:"narrative,omitempty"`
	// NarrativeSource records which provider produced the narrative
	NarrativeSource string `json:"narrative_source,omitempty"`
	// CreatedAt is when the analysis completed
	CreatedAt time.Time `json:"created_at"`
}

// AnalysisStorage persists completed analysis runs.
type AnalysisStorage interface {
	// StoreAnalysis persists a record, overwriting any record with the same ID
	StoreAnalysis(ctx context.Context, record *AnalysisRecord) error

	// GetAnalysis retrieves a record by ID
	GetAnalysis(ctx context.Context, id string) (*AnalysisRecord, error)

	// GetLatestByTicker returns the most recent record for a ticker, nil if none
	GetLatestByTicker(ctx context.Context, ticker string) (*AnalysisRecord, error)

	// ListByTicker returns records for a ticker, newest first, up to limit
	ListByTicker(ctx context.Context, ticker string, limit int) ([]*AnalysisRecord, error)

	// CountAnalyses returns the total number of stored records
	CountAnalyses(ctx context.Context) (int, error)

	// DeleteAnalysis removes a record by ID
	DeleteAnalysis(ctx context.Context, id string) error
}

// CandleCache caches fetched candle history so repeated runs within the TTL
// do not hit the upstream API.
type CandleCache interface {
	// StoreCandles caches a candle series for a ticker
	StoreCandles(ctx context.Context, ticker string, candles []marketdata.Candle) error

	// GetCandles returns cached candles and true when a fresh entry exists.
	// Entries older than the configured TTL are treated as missing.
	GetCandles(ctx context.Context, ticker string) ([]marketdata.Candle, bool, error)

	// InvalidateTicker drops any cached entry for a ticker
	InvalidateTicker(ctx context.Context, ticker string) error
}

// StorageManager provides access to all storage services
type StorageManager interface {
	AnalysisStorage() AnalysisStorage
	CandleCache() CandleCache
	Close() error
}
