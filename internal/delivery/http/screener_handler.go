package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"stock-screener-backend/internal/domain"
	"stock-screener-backend/internal/usecase"
)

// ScreenerHandler serves scan results and triggers new scans.
type ScreenerHandler struct {
	screener   *usecase.ScreenerUsecase
	results    domain.ResultRepository
	watchlists *usecase.WatchlistUsecase
	log        zerolog.Logger
}

// NewScreenerHandler creates a new screener handler
func NewScreenerHandler(screener *usecase.ScreenerUsecase, results domain.ResultRepository, watchlists *usecase.WatchlistUsecase, log zerolog.Logger) *ScreenerHandler {
	return &ScreenerHandler{
		screener:   screener,
		results:    results,
		watchlists: watchlists,
		log:        log.With().Str("component", "screener_handler").Logger(),
	}
}

// GetResults returns the latest scan snapshot: ranked results, failures
// and the time the scan finished.
func (h *ScreenerHandler) GetResults(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.results.GetSnapshot())
}

type scanRequest struct {
	Tickers     []string `json:"tickers"`
	WatchlistID string   `json:"watchlistId"`
}

type scanStartedResponse struct {
	Status  string `json:"status"`
	Tickers int    `json:"tickers"`
}

// TriggerScan starts a scan in the background. The ticker universe comes
// from the request body, a named watchlist, or the active watchlist, in
// that order. Returns 409 when a scan is already running.
func (h *ScreenerHandler) TriggerScan(w http.ResponseWriter, r *http.Request) {
	// An empty or absent body means "scan the active watchlist".
	var req scanRequest
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	tickers := req.Tickers
	if len(tickers) == 0 && req.WatchlistID != "" {
		wl, err := h.watchlists.Get(r.Context(), req.WatchlistID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				writeError(w, http.StatusNotFound, "watchlist not found")
				return
			}
			h.log.Error().Err(err).Str("watchlist_id", req.WatchlistID).Msg("Failed to load watchlist")
			writeError(w, http.StatusInternalServerError, "failed to load watchlist")
			return
		}
		tickers = wl.Tickers
	}
	if len(tickers) == 0 {
		active, err := h.watchlists.ActiveTickers(r.Context())
		if err != nil {
			h.log.Error().Err(err).Msg("Failed to load active watchlist")
			writeError(w, http.StatusInternalServerError, "failed to load active watchlist")
			return
		}
		tickers = active
	}
	if len(tickers) == 0 {
		writeError(w, http.StatusBadRequest, "no tickers to scan")
		return
	}

	if err := h.screener.StartScan(tickers); err != nil {
		if errors.Is(err, usecase.ErrScanInProgress) {
			writeError(w, http.StatusConflict, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusAccepted, scanStartedResponse{
		Status:  "scan started",
		Tickers: len(tickers),
	})
}

// AnalyzeTicker runs the full analysis pipeline for a single ticker and
// returns the result without touching the stored snapshot.
func (h *ScreenerHandler) AnalyzeTicker(w http.ResponseWriter, r *http.Request) {
	ticker := domain.NormalizeTicker(chi.URLParam(r, "ticker"))
	if ticker == "" {
		writeError(w, http.StatusBadRequest, "ticker is required")
		return
	}

	result, err := h.screener.Analyze(r.Context(), ticker)
	if err != nil {
		h.log.Error().Err(err).Str("ticker", ticker).Msg("Analysis failed")
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, result)
}
