package badger

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"

	"github.com/johnjames-bit/psiema/internal/interfaces"
)

// AnalysisStorage implements interfaces.AnalysisStorage on Badger
type AnalysisStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewAnalysisStorage creates a new AnalysisStorage instance
func NewAnalysisStorage(db *BadgerDB, logger arbor.ILogger) interfaces.AnalysisStorage {
	return &AnalysisStorage{
		db:     db,
		logger: logger,
	}
}

func (s *AnalysisStorage) StoreAnalysis(ctx context.Context, record *interfaces.AnalysisRecord) error {
	if record.ID == "" {
		return fmt.Errorf("analysis record ID is required")
	}
	if record.Ticker == "" {
		return fmt.Errorf("analysis record ticker is required")
	}

	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now()
	}

	if err := s.db.Store().Upsert(record.ID, record); err != nil {
		return fmt.Errorf("failed to store analysis: %w", err)
	}
	return nil
}

func (s *AnalysisStorage) GetAnalysis(ctx context.Context, id string) (*interfaces.AnalysisRecord, error) {
	var record interfaces.AnalysisRecord
	if err := s.db.Store().Get(id, &record); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, fmt.Errorf("analysis not found: %s", id)
		}
		return nil, fmt.Errorf("failed to get analysis: %w", err)
	}
	return &record, nil
}

func (s *AnalysisStorage) GetLatestByTicker(ctx context.Context, ticker string) (*interfaces.AnalysisRecord, error) {
	records, err := s.ListByTicker(ctx, ticker, 1)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	return records[0], nil
}

func (s *AnalysisStorage) ListByTicker(ctx context.Context, ticker string, limit int) ([]*interfaces.AnalysisRecord, error) {
	var records []interfaces.AnalysisRecord
	query := badgerhold.Where("Ticker").Eq(ticker).Index("Ticker").SortBy("CreatedAt").Reverse()
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := s.db.Store().Find(&records, query); err != nil {
		return nil, fmt.Errorf("failed to list analyses: %w", err)
	}

	out := make([]*interfaces.AnalysisRecord, len(records))
	for i := range records {
		out[i] = &records[i]
	}
	return out, nil
}

func (s *AnalysisStorage) CountAnalyses(ctx context.Context) (int, error) {
	count, err := s.db.Store().Count(&interfaces.AnalysisRecord{}, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to count analyses: %w", err)
	}
	return int(count), nil
}

func (s *AnalysisStorage) DeleteAnalysis(ctx context.Context, id string) error {
	if err := s.db.Store().Delete(id, &interfaces.AnalysisRecord{}); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil
		}
		return fmt.Errorf("failed to delete analysis: %w", err)
	}
	return nil
}
