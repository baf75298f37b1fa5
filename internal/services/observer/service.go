// Package observer orchestrates the analysis pipeline: candle lookup,
// oscillation analysis, persistence, narration and event publishing.
package observer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/johnjames-bit/psiema/internal/common"
	"github.com/johnjames-bit/psiema/internal/interfaces"
	"github.com/johnjames-bit/psiema/internal/marketdata"
	"github.com/johnjames-bit/psiema/internal/psi"
)

// Service runs the observation pipeline for a ticker.
type Service struct {
	provider interfaces.CandleProvider
	storage  interfaces.StorageManager
	narrator interfaces.NarrativeService
	events   interfaces.EventService
	config   *common.MarketDataConfig
	logger   arbor.ILogger
}

// NewService creates an observer service. The narrator and event service
// are optional; a nil narrator skips commentary and a nil event service
// skips publishing.
func NewService(
	provider interfaces.CandleProvider,
	storage interfaces.StorageManager,
	narrator interfaces.NarrativeService,
	events interfaces.EventService,
	config *common.MarketDataConfig,
	logger arbor.ILogger,
) *Service {
	return &Service{
		provider: provider,
		storage:  storage,
		narrator: narrator,
		events:   events,
		config:   config,
		logger:   logger,
	}
}

// Observe fetches candles (cache first), runs the analysis, persists the
// record, narrates it and publishes events. Returns the stored record.
func (s *Service) Observe(ctx context.Context, ticker string) (*interfaces.AnalysisRecord, error) {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	if ticker == "" {
		return nil, fmt.Errorf("ticker is required")
	}

	candles, err := s.loadCandles(ctx, ticker)
	if err != nil {
		return nil, err
	}

	closes := marketdata.Closes(candles)
	if max := s.config.DefaultRange; max > 0 && len(closes) > max {
		closes = closes[len(closes)-max:]
	}

	analysis, err := psi.Analyze(closes, nil)
	if err != nil {
		return nil, fmt.Errorf("analysis failed for %s: %w", ticker, err)
	}

	record := &interfaces.AnalysisRecord{
		ID:        common.NewAnalysisID(),
		Ticker:    ticker,
		Periods:   analysis.Summary.Periods,
		Analysis:  analysis,
		CreatedAt: time.Now(),
	}

	if s.narrator != nil {
		narrative, err := s.narrator.Narrate(ctx, ticker, analysis)
		if err != nil {
			s.logger.Warn().Str("ticker", ticker).Err(err).Msg("Narration failed")
		} else {
			record.Narrative = narrative.Text
			record.NarrativeSource = narrative.Source
		}
	}

	if err := s.storage.AnalysisStorage().StoreAnalysis(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to persist analysis for %s: %w", ticker, err)
	}

	s.logger.Info().
		Str("ticker", ticker).
		Str("id", record.ID).
		Str("reading", analysis.Reading.Label).
		Str("regime", string(analysis.Regime)).
		Int("periods", analysis.Summary.Periods).
		Msg("Observation completed")

	s.publishEvents(ctx, record)

	return record, nil
}

// loadCandles consults the cache before hitting the upstream API.
func (s *Service) loadCandles(ctx context.Context, ticker string) ([]marketdata.Candle, error) {
	cache := s.storage.CandleCache()

	cached, ok, err := cache.GetCandles(ctx, ticker)
	if err != nil {
		s.logger.Warn().Str("ticker", ticker).Err(err).Msg("Candle cache read failed")
	}
	if ok {
		s.logger.Debug().Str("ticker", ticker).Int("candles", len(cached)).Msg("Candle cache hit")
		return cached, nil
	}

	candles, err := s.provider.GetEOD(ctx, ticker, s.config.HistoryPeriod)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch candles for %s: %w", ticker, err)
	}
	if len(candles) == 0 {
		return nil, fmt.Errorf("no candle data available for %s", ticker)
	}

	if err := cache.StoreCandles(ctx, ticker, candles); err != nil {
		s.logger.Warn().Str("ticker", ticker).Err(err).Msg("Candle cache write failed")
	}

	return candles, nil
}

func (s *Service) publishEvents(ctx context.Context, record *interfaces.AnalysisRecord) {
	if s.events == nil {
		return
	}

	if err := s.events.Publish(ctx, interfaces.Event{
		Type:    interfaces.EventAnalysisCompleted,
		Payload: record,
	}); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to publish analysis event")
	}

	if record.Analysis != nil && record.Analysis.Pathogen != nil {
		if err := s.events.Publish(ctx, interfaces.Event{
			Type:    interfaces.EventPathogenDetected,
			Payload: record,
		}); err != nil {
			s.logger.Warn().Err(err).Msg("Failed to publish pathogen event")
		}
	}
}
