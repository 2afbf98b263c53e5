package http

import (
	"net/http"

	"github.com/rs/zerolog"

	"stock-screener-backend/internal/infrastructure/fcm"
	"stock-screener-backend/internal/repository"
)

// NotificationHandler exposes a test endpoint so users can verify their
// device receives pushes before relying on scan alerts.
type NotificationHandler struct {
	fcmClient *fcm.Client
	tokenRepo *repository.TokenRepository
	log       zerolog.Logger
}

// NewNotificationHandler creates a new notification handler
func NewNotificationHandler(fcmClient *fcm.Client, tokenRepo *repository.TokenRepository, log zerolog.Logger) *NotificationHandler {
	return &NotificationHandler{
		fcmClient: fcmClient,
		tokenRepo: tokenRepo,
		log:       log.With().Str("component", "notification_handler").Logger(),
	}
}

// SendTestNotification pushes a test message to every registered device.
func (h *NotificationHandler) SendTestNotification(w http.ResponseWriter, r *http.Request) {
	if h.fcmClient == nil || !h.fcmClient.IsEnabled() {
		writeJSON(w, http.StatusServiceUnavailable, TokenResponse{
			Success: false,
			Message: "FCM not configured",
		})
		return
	}

	tokens := h.tokenRepo.GetAllTokens()
	if len(tokens) == 0 {
		writeJSON(w, http.StatusOK, TokenResponse{
			Success: false,
			Message: "No registered devices",
			Count:   0,
		})
		return
	}

	title := "🧪 Test Notification"
	body := "This is a test notification from Stock Screener. If you see this, notifications are working! ✅"
	data := map[string]string{
		"type": "test",
	}

	if err := h.fcmClient.SendMulticast(tokens, title, body, data); err != nil {
		h.log.Error().Err(err).Msg("Test notification failed")
		writeJSON(w, http.StatusBadGateway, TokenResponse{
			Success: false,
			Message: "Failed to send notification: " + err.Error(),
			Count:   len(tokens),
		})
		return
	}

	writeJSON(w, http.StatusOK, TokenResponse{
		Success: true,
		Message: "Test notification sent successfully",
		Count:   len(tokens),
	})
}
