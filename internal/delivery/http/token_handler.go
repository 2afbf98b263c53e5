package http

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"stock-screener-backend/internal/repository"
)

// TokenHandler manages FCM device token registration for push alerts.
type TokenHandler struct {
	tokenRepo *repository.TokenRepository
	log       zerolog.Logger
}

// NewTokenHandler creates a new token handler
func NewTokenHandler(tokenRepo *repository.TokenRepository, log zerolog.Logger) *TokenHandler {
	return &TokenHandler{
		tokenRepo: tokenRepo,
		log:       log.With().Str("component", "token_handler").Logger(),
	}
}

type RegisterTokenRequest struct {
	Token    string `json:"token"`
	Platform string `json:"platform"`
}

type TokenResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Count   int    `json:"count"`
}

// RegisterToken stores a device token so the screener can push buy signals.
func (h *TokenHandler) RegisterToken(w http.ResponseWriter, r *http.Request) {
	var req RegisterTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Token == "" {
		writeError(w, http.StatusBadRequest, "token is required")
		return
	}

	if req.Platform == "" {
		req.Platform = "android"
	}

	h.tokenRepo.RegisterToken(req.Token, req.Platform)
	h.log.Debug().Str("platform", req.Platform).Msg("Device token registered")

	writeJSON(w, http.StatusOK, TokenResponse{
		Success: true,
		Message: "Token registered successfully",
		Count:   h.tokenRepo.GetTokenCount(),
	})
}

// UnregisterToken removes a device token.
func (h *TokenHandler) UnregisterToken(w http.ResponseWriter, r *http.Request) {
	var req RegisterTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Token == "" {
		writeError(w, http.StatusBadRequest, "token is required")
		return
	}

	h.tokenRepo.UnregisterToken(req.Token)

	writeJSON(w, http.StatusOK, TokenResponse{
		Success: true,
		Message: "Token unregistered successfully",
		Count:   h.tokenRepo.GetTokenCount(),
	})
}

// GetTokenCount reports how many devices are registered.
func (h *TokenHandler) GetTokenCount(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, TokenResponse{
		Success: true,
		Message: "Token count retrieved",
		Count:   h.tokenRepo.GetTokenCount(),
	})
}
