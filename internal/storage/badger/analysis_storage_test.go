package badger

import (
	"context"
	"testing"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"

	"github.com/johnjames-bit/psiema/internal/interfaces"
	"github.com/johnjames-bit/psiema/internal/marketdata"
	"github.com/johnjames-bit/psiema/internal/psi"
)

func newTestDB(t *testing.T) *BadgerDB {
	t.Helper()

	tmpDir := t.TempDir()

	options := badgerhold.DefaultOptions
	options.Dir = tmpDir
	options.ValueDir = tmpDir
	options.Logger = nil

	store, err := badgerhold.Open(options)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })

	return &BadgerDB{store: store, logger: arbor.NewLogger()}
}

func newTestRecord(id, ticker string, createdAt time.Time) *interfaces.AnalysisRecord {
	return &interfaces.AnalysisRecord{
		ID:      id,
		Ticker:  ticker,
		Periods: 60,
		Analysis: &psi.Analysis{
			Regime: psi.RegimeBreathing,
			Reading: psi.Reading{
				Label: "Breathing",
			},
		},
		CreatedAt: createdAt,
	}
}

func TestAnalysisStorageRoundTrip(t *testing.T) {
	db := newTestDB(t)
	storage := NewAnalysisStorage(db, arbor.NewLogger())
	ctx := context.Background()

	record := newTestRecord("obs_1", "AAPL.US", time.Now())
	if err := storage.StoreAnalysis(ctx, record); err != nil {
		t.Fatalf("StoreAnalysis failed: %v", err)
	}

	got, err := storage.GetAnalysis(ctx, "obs_1")
	if err != nil {
		t.Fatalf("GetAnalysis failed: %v", err)
	}
	if got.Ticker != "AAPL.US" {
		t.Errorf("expected ticker AAPL.US, got %q", got.Ticker)
	}
	if got.Analysis == nil || got.Analysis.Regime != psi.RegimeBreathing {
		t.Error("expected analysis regime to survive round trip")
	}

	count, err := storage.CountAnalyses(ctx)
	if err != nil {
		t.Fatalf("CountAnalyses failed: %v", err)
	}
	if count != 1 {
		t.Errorf("expected count 1, got %d", count)
	}
}

func TestAnalysisStorageValidation(t *testing.T) {
	db := newTestDB(t)
	storage := NewAnalysisStorage(db, arbor.NewLogger())
	ctx := context.Background()

	if err := storage.StoreAnalysis(ctx, &interfaces.AnalysisRecord{Ticker: "AAPL.US"}); err == nil {
		t.Error("expected error for missing ID")
	}
	if err := storage.StoreAnalysis(ctx, &interfaces.AnalysisRecord{ID: "obs_x"}); err == nil {
		t.Error("expected error for missing ticker")
	}
}

func TestAnalysisStorageLatestByTicker(t *testing.T) {
	db := newTestDB(t)
	storage := NewAnalysisStorage(db, arbor.NewLogger())
	ctx := context.Background()

	base := time.Now().Add(-time.Hour)
	for i, id := range []string{"obs_a", "obs_b", "obs_c"} {
		record := newTestRecord(id, "AAPL.US", base.Add(time.Duration(i)*time.Minute))
		if err := storage.StoreAnalysis(ctx, record); err != nil {
			t.Fatalf("StoreAnalysis failed: %v", err)
		}
	}
	// Different ticker should not interfere
	if err := storage.StoreAnalysis(ctx, newTestRecord("obs_other", "MSFT.US", time.Now())); err != nil {
		t.Fatalf("StoreAnalysis failed: %v", err)
	}

	latest, err := storage.GetLatestByTicker(ctx, "AAPL.US")
	if err != nil {
		t.Fatalf("GetLatestByTicker failed: %v", err)
	}
	if latest == nil {
		t.Fatal("expected a latest record")
	}
	if latest.ID != "obs_c" {
		t.Errorf("expected newest record obs_c, got %q", latest.ID)
	}

	records, err := storage.ListByTicker(ctx, "AAPL.US", 2)
	if err != nil {
		t.Fatalf("ListByTicker failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].ID != "obs_c" || records[1].ID != "obs_b" {
		t.Errorf("expected newest-first order, got %q then %q", records[0].ID, records[1].ID)
	}
}

func TestAnalysisStorageMissing(t *testing.T) {
	db := newTestDB(t)
	storage := NewAnalysisStorage(db, arbor.NewLogger())
	ctx := context.Background()

	if _, err := storage.GetAnalysis(ctx, "obs_missing"); err == nil {
		t.Error("expected error for missing record")
	}

	latest, err := storage.GetLatestByTicker(ctx, "NONE.US")
	if err != nil {
		t.Fatalf("GetLatestByTicker failed: %v", err)
	}
	if latest != nil {
		t.Error("expected nil for ticker with no records")
	}

	// Deleting a missing record is not an error
	if err := storage.DeleteAnalysis(ctx, "obs_missing"); err != nil {
		t.Errorf("DeleteAnalysis for missing record: %v", err)
	}
}

func TestCandleCacheRoundTrip(t *testing.T) {
	db := newTestDB(t)
	cache := NewCandleCache(db, arbor.NewLogger(), time.Hour)
	ctx := context.Background()

	candles := []marketdata.Candle{
		{DateStr: "2025-01-02", Close: 100, AdjustedClose: 99.5, Volume: 1000},
		{DateStr: "2025-01-03", Close: 101, AdjustedClose: 100.5, Volume: 1100},
	}

	if err := cache.StoreCandles(ctx, "AAPL.US", candles); err != nil {
		t.Fatalf("StoreCandles failed: %v", err)
	}

	got, ok, err := cache.GetCandles(ctx, "AAPL.US")
	if err != nil {
		t.Fatalf("GetCandles failed: %v", err)
	}
	if !ok {
		t.Fatal("expected cache hit")
	}
	if len(got) != 2 || got[1].Close != 101 {
		t.Errorf("unexpected cached candles: %+v", got)
	}

	_, ok, err = cache.GetCandles(ctx, "MSFT.US")
	if err != nil {
		t.Fatalf("GetCandles failed: %v", err)
	}
	if ok {
		t.Error("expected cache miss for unknown ticker")
	}
}

func TestCandleCacheStaleEntry(t *testing.T) {
	db := newTestDB(t)
	logger := arbor.NewLogger()
	ctx := context.Background()

	// Write with a long-lived cache, read back with an expired bound
	writer := NewCandleCache(db, logger, time.Hour)
	if err := writer.StoreCandles(ctx, "AAPL.US", []marketdata.Candle{{Close: 100}}); err != nil {
		t.Fatalf("StoreCandles failed: %v", err)
	}

	reader := NewCandleCache(db, logger, time.Nanosecond)
	time.Sleep(time.Millisecond)

	_, ok, err := reader.GetCandles(ctx, "AAPL.US")
	if err != nil {
		t.Fatalf("GetCandles failed: %v", err)
	}
	if ok {
		t.Error("expected stale entry to read as a miss")
	}
}

func TestCandleCacheInvalidate(t *testing.T) {
	db := newTestDB(t)
	cache := NewCandleCache(db, arbor.NewLogger(), time.Hour)
	ctx := context.Background()

	if err := cache.StoreCandles(ctx, "AAPL.US", []marketdata.Candle{{Close: 100}}); err != nil {
		t.Fatalf("StoreCandles failed: %v", err)
	}
	if err := cache.InvalidateTicker(ctx, "AAPL.US"); err != nil {
		t.Fatalf("InvalidateTicker failed: %v", err)
	}

	_, ok, err := cache.GetCandles(ctx, "AAPL.US")
	if err != nil {
		t.Fatalf("GetCandles failed: %v", err)
	}
	if ok {
		t.Error("expected miss after invalidation")
	}

	// Invalidating again is not an error
	if err := cache.InvalidateTicker(ctx, "AAPL.US"); err != nil {
		t.Errorf("InvalidateTicker for missing entry: %v", err)
	}
}
