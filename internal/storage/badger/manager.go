package badger

import (
	"time"

	"github.com/ternarybob/arbor"

	"github.com/johnjames-bit/psiema/internal/common"
	"github.com/johnjames-bit/psiema/internal/interfaces"
)

// defaultCandleMaxAge bounds cache reuse when no max age is configured.
const defaultCandleMaxAge = 6 * time.Hour

// Manager implements the StorageManager interface for Badger
type Manager struct {
	db       *BadgerDB
	analysis interfaces.AnalysisStorage
	candles  interfaces.CandleCache
	logger   arbor.ILogger
}

// NewManager creates a new Badger storage manager. A non-positive
// candleMaxAge falls back to the default staleness bound.
func NewManager(logger arbor.ILogger, config *common.BadgerConfig, candleMaxAge time.Duration) (interfaces.StorageManager, error) {
	db, err := NewBadgerDB(logger, config)
	if err != nil {
		return nil, err
	}

	if candleMaxAge <= 0 {
		candleMaxAge = defaultCandleMaxAge
	}

	manager := &Manager{
		db:       db,
		analysis: NewAnalysisStorage(db, logger),
		candles:  NewCandleCache(db, logger, candleMaxAge),
		logger:   logger,
	}

	logger.Info().Msg("Badger storage manager initialized")

	return manager, nil
}

// AnalysisStorage returns the analysis storage interface
func (m *Manager) AnalysisStorage() interfaces.AnalysisStorage {
	return m.analysis
}

// CandleCache returns the candle cache interface
func (m *Manager) CandleCache() interfaces.CandleCache {
	return m.candles
}

// Close closes the database connection
func (m *Manager) Close() error {
	if m.db != nil {
		return m.db.Close()
	}
	return nil
}
