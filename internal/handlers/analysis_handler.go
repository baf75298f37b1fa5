package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/johnjames-bit/psiema/internal/interfaces"
)

const defaultListLimit = 20

// AnalysisHandler serves analysis runs over HTTP.
type AnalysisHandler struct {
	observer interfaces.ObserverService
	storage  interfaces.AnalysisStorage
	logger   arbor.ILogger
}

// NewAnalysisHandler creates a new AnalysisHandler
func NewAnalysisHandler(observer interfaces.ObserverService, storage interfaces.AnalysisStorage, logger arbor.ILogger) *AnalysisHandler {
	return &AnalysisHandler{
		observer: observer,
		storage:  storage,
		logger:   logger,
	}
}

type observeRequest struct {
	Ticker string `json:"ticker"`
}

// ObserveHandler runs the observation pipeline for a ticker.
// POST /api/observe with {"ticker": "AAPL.US"}
func (h *AnalysisHandler) ObserveHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req observeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Ticker) == "" {
		WriteError(w, http.StatusBadRequest, "ticker is required")
		return
	}

	record, err := h.observer.Observe(r.Context(), req.Ticker)
	if err != nil {
		h.logger.Error().Str("ticker", req.Ticker).Err(err).Msg("Observation failed")
		WriteError(w, http.StatusBadGateway, err.Error())
		return
	}

	WriteJSON(w, http.StatusOK, record)
}

// GetHandler returns a stored analysis by ID.
// GET /api/analyses/{id}
func (h *AnalysisHandler) GetHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/api/analyses/")
	if id == "" || strings.Contains(id, "/") {
		WriteError(w, http.StatusBadRequest, "analysis ID is required")
		return
	}

	record, err := h.storage.GetAnalysis(r.Context(), id)
	if err != nil {
		WriteError(w, http.StatusNotFound, "analysis not found")
		return
	}

	WriteJSON(w, http.StatusOK, record)
}

// LatestHandler returns the most recent analysis for a ticker.
// GET /api/analyses/latest?ticker=AAPL.US
func (h *AnalysisHandler) LatestHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	ticker := strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("ticker")))
	if ticker == "" {
		WriteError(w, http.StatusBadRequest, "ticker query parameter is required")
		return
	}

	record, err := h.storage.GetLatestByTicker(r.Context(), ticker)
	if err != nil {
		h.logger.Error().Str("ticker", ticker).Err(err).Msg("Failed to load latest analysis")
		WriteError(w, http.StatusInternalServerError, "failed to load analysis")
		return
	}
	if record == nil {
		WriteError(w, http.StatusNotFound, "no analysis for ticker")
		return
	}

	WriteJSON(w, http.StatusOK, record)
}

// ListHandler returns recent analyses for a ticker, newest first.
// GET /api/analyses?ticker=AAPL.US&limit=10
func (h *AnalysisHandler) ListHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	ticker := strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("ticker")))
	if ticker == "" {
		WriteError(w, http.StatusBadRequest, "ticker query parameter is required")
		return
	}

	limit := defaultListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			WriteError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	records, err := h.storage.ListByTicker(r.Context(), ticker, limit)
	if err != nil {
		h.logger.Error().Str("ticker", ticker).Err(err).Msg("Failed to list analyses")
		WriteError(w, http.StatusInternalServerError, "failed to list analyses")
		return
	}
	if records == nil {
		records = []*interfaces.AnalysisRecord{}
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"ticker":  ticker,
		"count":   len(records),
		"results": records,
	})
}
