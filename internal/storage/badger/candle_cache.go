package badger

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"

	"github.com/johnjames-bit/psiema/internal/interfaces"
	"github.com/johnjames-bit/psiema/internal/marketdata"
)

// candleEntry is the stored cache record, keyed by ticker.
type candleEntry struct {
	Ticker   string              `badgerhold:"key"`
	Candles  []marketdata.Candle `json:"candles"`
	StoredAt time.Time           `json:"stored_at"`
}

// CandleCache implements interfaces.CandleCache on Badger with a
// staleness bound. Entries older than maxAge read as cache misses.
type CandleCache struct {
	db     *BadgerDB
	logger arbor.ILogger
	maxAge time.Duration
}

// NewCandleCache creates a new CandleCache instance
func NewCandleCache(db *BadgerDB, logger arbor.ILogger, maxAge time.Duration) interfaces.CandleCache {
	return &CandleCache{
		db:     db,
		logger: logger,
		maxAge: maxAge,
	}
}

func (c *CandleCache) StoreCandles(ctx context.Context, ticker string, candles []marketdata.Candle) error {
	if ticker == "" {
		return fmt.Errorf("ticker is required")
	}

	entry := &candleEntry{
		Ticker:   ticker,
		Candles:  candles,
		StoredAt: time.Now(),
	}
	if err := c.db.Store().Upsert(ticker, entry); err != nil {
		return fmt.Errorf("failed to cache candles: %w", err)
	}
	return nil
}

func (c *CandleCache) GetCandles(ctx context.Context, ticker string) ([]marketdata.Candle, bool, error) {
	var entry candleEntry
	if err := c.db.Store().Get(ticker, &entry); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to read candle cache: %w", err)
	}

	if c.maxAge > 0 && time.Since(entry.StoredAt) > c.maxAge {
		c.logger.Debug().
			Str("ticker", ticker).
			Str("stored_at", entry.StoredAt.Format(time.RFC3339)).
			Msg("Candle cache entry is stale")
		return nil, false, nil
	}

	return entry.Candles, true, nil
}

func (c *CandleCache) InvalidateTicker(ctx context.Context, ticker string) error {
	if err := c.db.Store().Delete(ticker, &candleEntry{}); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil
		}
		return fmt.Errorf("failed to invalidate candle cache: %w", err)
	}
	return nil
}
