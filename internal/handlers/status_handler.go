package handlers

import (
	"net/http"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/johnjames-bit/psiema/internal/common"
	"github.com/johnjames-bit/psiema/internal/interfaces"
)

// StatusHandler serves health and status endpoints.
type StatusHandler struct {
	storage   interfaces.AnalysisStorage
	logger    arbor.ILogger
	startedAt time.Time
}

// NewStatusHandler creates a new StatusHandler
func NewStatusHandler(storage interfaces.AnalysisStorage, logger arbor.ILogger) *StatusHandler {
	return &StatusHandler{
		storage:   storage,
		logger:    logger,
		startedAt: time.Now(),
	}
}

// HealthHandler is a liveness probe.
// GET /api/health
func (h *StatusHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// StatusHandler reports version, uptime and stored analysis count.
// GET /api/status
func (h *StatusHandler) StatusHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	count, err := h.storage.CountAnalyses(r.Context())
	if err != nil {
		h.logger.Warn().Err(err).Msg("Failed to count analyses for status")
		count = -1
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status":   "ok",
		"version":  common.GetFullVersion(),
		"uptime":   time.Since(h.startedAt).Round(time.Second).String(),
		"analyses": count,
	})
}
