package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"
)

// Server is the HTTP edge of the screener: the REST API the mobile app
// talks to plus the websocket results stream.
type Server struct {
	router *chi.Mux
	server *http.Server
	log    zerolog.Logger
}

// Config wires the handlers into the server.
type Config struct {
	Port          int
	Log           zerolog.Logger
	Screener      *ScreenerHandler
	Watchlists    *WatchlistHandler
	Tokens        *TokenHandler
	Notifications *NotificationHandler
	WebSocket     http.HandlerFunc
}

// New creates a new HTTP server
func New(cfg Config) *Server {
	s := &Server{
		router: chi.NewRouter(),
		log:    cfg.Log.With().Str("component", "server").Logger(),
	}

	s.setupMiddleware()
	s.setupRoutes(cfg)

	s.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: s.router,
		// No global read/write timeouts: /ws holds connections open
		// indefinitely. The REST routes carry their own timeout.
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return s
}

// setupMiddleware configures middleware
func (s *Server) setupMiddleware() {
	// Recovery from panics
	s.router.Use(middleware.Recoverer)

	// Request ID
	s.router.Use(middleware.RequestID)

	// Real IP
	s.router.Use(middleware.RealIP)

	// Logging
	s.router.Use(s.loggingMiddleware)

	// CORS
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Compress responses
	s.router.Use(middleware.Compress(5))
}

// setupRoutes configures all routes
func (s *Server) setupRoutes(cfg Config) {
	// Health check
	s.router.Get("/healthz", s.handleHealth)

	// Websocket stream stays outside the request timeout.
	s.router.Get("/ws", cfg.WebSocket)

	// API routes
	s.router.Route("/api", func(r chi.Router) {
		r.Use(middleware.Timeout(60 * time.Second))

		r.Route("/screener", func(r chi.Router) {
			r.Get("/results", cfg.Screener.GetResults)
			r.Post("/scan", cfg.Screener.TriggerScan)
		})

		r.Get("/stocks/{ticker}/analysis", cfg.Screener.AnalyzeTicker)

		r.Route("/watchlists", func(r chi.Router) {
			r.Get("/", cfg.Watchlists.List)
			r.Post("/", cfg.Watchlists.Create)
			r.Get("/active", cfg.Watchlists.GetActive)
			r.Put("/active", cfg.Watchlists.SetActive)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", cfg.Watchlists.Get)
				r.Patch("/", cfg.Watchlists.Rename)
				r.Delete("/", cfg.Watchlists.Delete)
				r.Post("/tickers", cfg.Watchlists.AddTicker)
				r.Delete("/tickers/{ticker}", cfg.Watchlists.RemoveTicker)
			})
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Post("/register", cfg.Tokens.RegisterToken)
			r.Post("/unregister", cfg.Tokens.UnregisterToken)
			r.Get("/count", cfg.Tokens.GetTokenCount)
			r.Post("/test", cfg.Notifications.SendTestNotification)
		})
	})
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.log.Info().Str("addr", s.server.Addr).Msg("Starting HTTP server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration_ms", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("HTTP request")
	})
}
