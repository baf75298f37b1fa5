package interfaces

import (
	"context"

	"github.com/johnjames-bit/psiema/internal/marketdata"
)

// CandleProvider supplies historical candle data for tickers.
// The concrete implementation is the EODHD client; tests substitute fakes.
type CandleProvider interface {
	// GetEOD returns end-of-day candles for the ticker, oldest first.
	// The period parameter controls how much history to return (e.g. "1y").
	GetEOD(ctx context.Context, ticker string, period string) ([]marketdata.Candle, error)
}
