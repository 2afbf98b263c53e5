package websocket

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"stock-screener-backend/internal/domain"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for now
	},
}

// Handler streams scan snapshots to connected clients. Every client gets
// the current snapshot on connect and a fresh one whenever a scan finishes.
type Handler struct {
	results domain.ResultRepository
	log     zerolog.Logger
}

func NewHandler(results domain.ResultRepository, log zerolog.Logger) *Handler {
	return &Handler{
		results: results,
		log:     log.With().Str("component", "websocket").Logger(),
	}
}

func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("Upgrade failed")
		return
	}
	defer conn.Close()

	h.log.Debug().Str("remote", conn.RemoteAddr().String()).Msg("Client connected")

	// Send initial data immediately
	snap := h.results.GetSnapshot()
	if err := conn.WriteJSON(snap); err != nil {
		h.log.Debug().Err(err).Msg("Write error")
		return
	}
	lastSent := snap.UpdatedAt

	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for range ticker.C {
		snap = h.results.GetSnapshot()
		if snap.UpdatedAt.Equal(lastSent) {
			// Nothing new. Ping so dead connections get noticed.
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second)); err != nil {
				h.log.Debug().Err(err).Msg("Client gone")
				return
			}
			continue
		}

		if err := conn.WriteJSON(snap); err != nil {
			h.log.Debug().Err(err).Msg("Write error")
			return
		}
		lastSent = snap.UpdatedAt
	}
}
