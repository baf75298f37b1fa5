package observer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"

	"github.com/johnjames-bit/psiema/internal/common"
	"github.com/johnjames-bit/psiema/internal/interfaces"
)

// defaultSchedule runs after US market close on weekdays.
const defaultSchedule = "30 16 * * 1-5"

// watchlistRunTimeout bounds a full watchlist sweep.
const watchlistRunTimeout = 10 * time.Minute

// Scheduler runs the observer over a configured watchlist on a cron
// schedule.
type Scheduler struct {
	observer interfaces.ObserverService
	events   interfaces.EventService
	config   *common.SchedulerConfig
	cron     *cron.Cron
	logger   arbor.ILogger
	mu       sync.Mutex
	running  bool
}

// NewScheduler creates a watchlist scheduler.
func NewScheduler(observer interfaces.ObserverService, events interfaces.EventService, config *common.SchedulerConfig, logger arbor.ILogger) *Scheduler {
	return &Scheduler{
		observer: observer,
		events:   events,
		config:   config,
		cron:     cron.New(),
		logger:   logger,
	}
}

// Start registers the cron entry and begins scheduling. A disabled
// config makes Start a no-op.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("scheduler already running")
	}
	if !s.config.Enabled {
		s.logger.Info().Msg("Watchlist scheduler disabled")
		return nil
	}
	if len(s.config.Watchlist) == 0 {
		s.logger.Warn().Msg("Watchlist scheduler enabled but watchlist is empty")
	}

	schedule := s.config.Schedule
	if schedule == "" {
		schedule = defaultSchedule
	}

	if _, err := s.cron.AddFunc(schedule, s.runWatchlist); err != nil {
		return fmt.Errorf("failed to add cron entry: %w", err)
	}

	s.cron.Start()
	s.running = true

	s.logger.Info().
		Str("schedule", schedule).
		Int("tickers", len(s.config.Watchlist)).
		Msg("Watchlist scheduler started")

	return nil
}

// Stop halts scheduling. Running sweeps finish their current ticker.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}
	s.cron.Stop()
	s.running = false
	s.logger.Info().Msg("Watchlist scheduler stopped")
}

// runWatchlist observes every ticker in sequence. Failures are logged
// per ticker so one bad symbol does not abort the sweep.
func (s *Scheduler) runWatchlist() {
	ctx, cancel := context.WithTimeout(context.Background(), watchlistRunTimeout)
	defer cancel()

	started := time.Now()
	var failures int

	for _, ticker := range s.config.Watchlist {
		if ctx.Err() != nil {
			s.logger.Warn().Msg("Watchlist sweep aborted by timeout")
			break
		}
		if _, err := s.observer.Observe(ctx, ticker); err != nil {
			failures++
			s.logger.Error().Str("ticker", ticker).Err(err).Msg("Scheduled observation failed")
		}
	}

	s.logger.Info().
		Int("tickers", len(s.config.Watchlist)).
		Int("failures", failures).
		Str("elapsed", time.Since(started).Round(time.Millisecond).String()).
		Msg("Watchlist sweep completed")

	if s.events != nil {
		if err := s.events.Publish(ctx, interfaces.Event{
			Type: interfaces.EventWatchlistRun,
			Payload: map[string]interface{}{
				"tickers":  len(s.config.Watchlist),
				"failures": failures,
			},
		}); err != nil {
			s.logger.Warn().Err(err).Msg("Failed to publish watchlist event")
		}
	}
}
