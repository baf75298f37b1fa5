package storage

import (
	"fmt"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/johnjames-bit/psiema/internal/common"
	"github.com/johnjames-bit/psiema/internal/interfaces"
	"github.com/johnjames-bit/psiema/internal/storage/badger"
)

// NewStorageManager creates a new storage manager based on config
func NewStorageManager(logger arbor.ILogger, config *common.Config) (interfaces.StorageManager, error) {
	// Badger is the only supported backend
	if config.Storage.Type != "badger" && config.Storage.Type != "" {
		return nil, fmt.Errorf("unsupported storage type: %s (only 'badger' is supported)", config.Storage.Type)
	}

	var candleMaxAge time.Duration
	if config.MarketData.CacheMaxAge != "" {
		parsed, err := time.ParseDuration(config.MarketData.CacheMaxAge)
		if err != nil {
			return nil, fmt.Errorf("invalid cache_max_age %q: %w", config.MarketData.CacheMaxAge, err)
		}
		candleMaxAge = parsed
	}

	return badger.NewManager(logger, &config.Storage.Badger, candleMaxAge)
}
