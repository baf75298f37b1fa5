package server

import (
	"net/http"
	"strings"
)

// setupRoutes registers all HTTP routes
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	// WebSocket endpoint for live analysis events
	mux.HandleFunc("/ws", s.ws.HandleWebSocket)

	// Observation pipeline
	mux.HandleFunc("/api/observe", s.analysis.ObserveHandler) // POST - run analysis for a ticker

	// Stored analyses
	mux.HandleFunc("/api/analyses", s.analysis.ListHandler)  // GET - list by ticker
	mux.HandleFunc("/api/analyses/", s.handleAnalysisRoutes) // GET /{id} and /latest

	// Health and status
	mux.HandleFunc("/api/health", s.status.HealthHandler)
	mux.HandleFunc("/api/status", s.status.StatusHandler)

	return mux
}

// handleAnalysisRoutes dispatches /api/analyses/latest and /api/analyses/{id}
func (s *Server) handleAnalysisRoutes(w http.ResponseWriter, r *http.Request) {
	if strings.TrimPrefix(r.URL.Path, "/api/analyses/") == "latest" {
		s.analysis.LatestHandler(w, r)
		return
	}
	s.analysis.GetHandler(w, r)
}
