package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"stock-screener-backend/internal/domain"
	"stock-screener-backend/internal/usecase"
)

// WatchlistHandler manages the ticker watchlists the screener scans.
type WatchlistHandler struct {
	watchlists *usecase.WatchlistUsecase
	log        zerolog.Logger
}

// NewWatchlistHandler creates a new watchlist handler
func NewWatchlistHandler(watchlists *usecase.WatchlistUsecase, log zerolog.Logger) *WatchlistHandler {
	return &WatchlistHandler{
		watchlists: watchlists,
		log:        log.With().Str("component", "watchlist_handler").Logger(),
	}
}

type watchlistsResponse struct {
	Watchlists []domain.Watchlist `json:"watchlists"`
	ActiveID   string             `json:"activeId,omitempty"`
}

type watchlistNameRequest struct {
	Name string `json:"name"`
}

type watchlistTickerRequest struct {
	Ticker string `json:"ticker"`
}

type watchlistActiveRequest struct {
	ID string `json:"id"`
}

// List returns all watchlists together with the id of the active one.
func (h *WatchlistHandler) List(w http.ResponseWriter, r *http.Request) {
	lists, err := h.watchlists.List(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list watchlists")
		writeError(w, http.StatusInternalServerError, "failed to list watchlists")
		return
	}

	resp := watchlistsResponse{Watchlists: lists}
	if active, err := h.watchlists.Active(r.Context()); err == nil {
		resp.ActiveID = active.ID
	}

	writeJSON(w, http.StatusOK, resp)
}

// Get returns a single watchlist by id.
func (h *WatchlistHandler) Get(w http.ResponseWriter, r *http.Request) {
	wl, err := h.watchlists.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, err, "Failed to load watchlist")
		return
	}
	writeJSON(w, http.StatusOK, wl)
}

// Create makes a new empty watchlist.
func (h *WatchlistHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req watchlistNameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	wl, err := h.watchlists.Create(r.Context(), req.Name)
	if err != nil {
		h.respondError(w, err, "Failed to create watchlist")
		return
	}

	writeJSON(w, http.StatusCreated, wl)
}

// Rename changes a watchlist's name.
func (h *WatchlistHandler) Rename(w http.ResponseWriter, r *http.Request) {
	var req watchlistNameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	id := chi.URLParam(r, "id")
	if err := h.watchlists.Rename(r.Context(), id, req.Name); err != nil {
		h.respondError(w, err, "Failed to rename watchlist")
		return
	}

	h.respondWatchlist(w, r, id)
}

// Delete removes a watchlist. Deleting the active watchlist re-points
// the active marker at the first remaining list.
func (h *WatchlistHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.watchlists.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.respondError(w, err, "Failed to delete watchlist")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AddTicker adds a ticker to a watchlist and returns the updated list.
func (h *WatchlistHandler) AddTicker(w http.ResponseWriter, r *http.Request) {
	var req watchlistTickerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if domain.NormalizeTicker(req.Ticker) == "" {
		writeError(w, http.StatusBadRequest, "ticker is required")
		return
	}

	id := chi.URLParam(r, "id")
	if err := h.watchlists.AddTicker(r.Context(), id, req.Ticker); err != nil {
		h.respondError(w, err, "Failed to add ticker")
		return
	}

	h.respondWatchlist(w, r, id)
}

// RemoveTicker removes a ticker from a watchlist and returns the updated list.
func (h *WatchlistHandler) RemoveTicker(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	ticker := chi.URLParam(r, "ticker")
	if err := h.watchlists.RemoveTicker(r.Context(), id, ticker); err != nil {
		h.respondError(w, err, "Failed to remove ticker")
		return
	}

	h.respondWatchlist(w, r, id)
}

// GetActive returns the watchlist scheduled scans run against.
func (h *WatchlistHandler) GetActive(w http.ResponseWriter, r *http.Request) {
	wl, err := h.watchlists.Active(r.Context())
	if err != nil {
		h.respondError(w, err, "Failed to load active watchlist")
		return
	}
	writeJSON(w, http.StatusOK, wl)
}

// SetActive marks a watchlist as the scan target.
func (h *WatchlistHandler) SetActive(w http.ResponseWriter, r *http.Request) {
	var req watchlistActiveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ID == "" {
		writeError(w, http.StatusBadRequest, "id is required")
		return
	}

	if err := h.watchlists.SetActive(r.Context(), req.ID); err != nil {
		h.respondError(w, err, "Failed to set active watchlist")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *WatchlistHandler) respondWatchlist(w http.ResponseWriter, r *http.Request, id string) {
	wl, err := h.watchlists.Get(r.Context(), id)
	if err != nil {
		h.respondError(w, err, "Failed to load watchlist")
		return
	}
	writeJSON(w, http.StatusOK, wl)
}

func (h *WatchlistHandler) respondError(w http.ResponseWriter, err error, logMsg string) {
	if errors.Is(err, domain.ErrNotFound) {
		writeError(w, http.StatusNotFound, "watchlist not found")
		return
	}
	h.log.Error().Err(err).Msg(logMsg)
	writeError(w, http.StatusInternalServerError, err.Error())
}
