package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/johnjames-bit/psiema/internal/common"
	"github.com/johnjames-bit/psiema/internal/handlers"
)

// Server manages the HTTP server and routes
type Server struct {
	config   *common.Config
	logger   arbor.ILogger
	analysis *handlers.AnalysisHandler
	status   *handlers.StatusHandler
	ws       *handlers.WebSocketHandler
	router   *http.ServeMux
	server   *http.Server
}

// New creates a new HTTP server wired to the given handlers
func New(
	config *common.Config,
	logger arbor.ILogger,
	analysis *handlers.AnalysisHandler,
	status *handlers.StatusHandler,
	ws *handlers.WebSocketHandler,
) *Server {
	s := &Server{
		config:   config,
		logger:   logger,
		analysis: analysis,
		status:   status,
		ws:       ws,
	}

	s.router = s.setupRoutes()

	addr := fmt.Sprintf("%s:%d", config.Server.Host, config.Server.Port)
	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.withConditionalMiddleware(s.router),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.logger.Info().
		Str("address", s.server.Addr).
		Msg("HTTP server starting")

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server failed: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info().Msg("Shutting down HTTP server...")

	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	s.logger.Info().Msg("HTTP server stopped")
	return nil
}
