package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"stock-screener-backend/internal/config"
	httpapi "stock-screener-backend/internal/delivery/http"
	"stock-screener-backend/internal/delivery/websocket"
	"stock-screener-backend/internal/domain"
	"stock-screener-backend/internal/infrastructure/alphavantage"
	"stock-screener-backend/internal/infrastructure/db"
	"stock-screener-backend/internal/infrastructure/fcm"
	"stock-screener-backend/internal/infrastructure/yahoo"
	"stock-screener-backend/internal/repository"
	"stock-screener-backend/internal/scheduler"
	"stock-screener-backend/internal/usecase"
	"stock-screener-backend/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLog := logger.New(logger.Config{Level: "info", Pretty: true})
		bootLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{Level: cfg.LogLevel, Pretty: cfg.LogPretty})
	logger.SetGlobalLogger(log)

	ctx := context.Background()

	// Market data cache: Postgres when DATABASE_URL is set, otherwise a
	// local SQLite file. Both serve the same store and watchlist interfaces.
	var (
		store     domain.MarketDataStore
		watchRepo domain.WatchlistRepository
	)
	if cfg.DatabaseURL != "" {
		pool, err := db.NewPool(ctx, cfg.DatabaseURL, db.PoolConfigFromEnv())
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to Postgres")
		}
		defer pool.Close()

		if err := db.Migrate(ctx, pool); err != nil {
			log.Fatal().Err(err).Msg("Failed to run migrations")
		}

		store = repository.NewPostgresMarketStore(pool)
		watchRepo = repository.NewPostgresWatchlistRepository(pool)
		log.Info().Msg("Using Postgres cache")
	} else {
		sqlDB, err := db.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to open SQLite database")
		}
		defer sqlDB.Close()

		if err := db.MigrateSQLite(sqlDB); err != nil {
			log.Fatal().Err(err).Msg("Failed to run migrations")
		}

		store = repository.NewSQLiteMarketStore(sqlDB)
		watchRepo = repository.NewSQLiteWatchlistRepository(sqlDB)
		log.Info().Str("path", cfg.SQLitePath).Msg("Using SQLite cache")
	}

	results := repository.NewInMemoryResultRepository()
	tokenRepo := repository.NewTokenRepository()

	fcmClient, err := fcm.NewClient(log)
	if err != nil {
		log.Warn().Err(err).Msg("FCM initialization failed, notifications disabled")
		fcmClient = nil
	}

	// Data sources. The non-preferred source serves as fallback.
	yahooClient := yahoo.NewClient(log)
	avClient := alphavantage.NewClient(cfg.AlphaVantageAPIKey, log)

	var primary, fallback domain.MarketDataSource = yahooClient, avClient
	if cfg.PreferredSource == domain.SourceAlphaVantage {
		primary, fallback = avClient, yahooClient
	}

	provider := usecase.NewMarketDataUsecase(store, primary, fallback, cfg.DataFreshness, log)

	watchlists := usecase.NewWatchlistUsecase(watchRepo, log)
	if err := watchlists.EnsureDefault(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to seed default watchlist")
	}

	screener := usecase.NewScreenerUsecase(provider, results, watchlists, tokenRepo, fcmClient, usecase.ScreenerConfig{
		Strategy:    cfg.Strategy,
		Concurrency: cfg.ScanConcurrency,
		Cooldown:    cfg.NotificationCooldown,
	}, log)

	// Scheduled scans of the active watchlist.
	sched := scheduler.New(log)
	err = sched.AddJob(cfg.ScanSchedule, scheduler.FuncJob{
		JobName: "watchlist-scan",
		Fn: func() error {
			return screener.ScanActiveWatchlist(context.Background())
		},
	})
	if err != nil {
		log.Fatal().Err(err).Str("schedule", cfg.ScanSchedule).Msg("Invalid scan schedule")
	}
	sched.Start()

	if cfg.ScanOnStart {
		go func() {
			if err := screener.ScanActiveWatchlist(context.Background()); err != nil {
				log.Error().Err(err).Msg("Startup scan failed")
			}
		}()
	}

	wsHandler := websocket.NewHandler(results, log)

	srv := httpapi.New(httpapi.Config{
		Port:          cfg.Port,
		Log:           log,
		Screener:      httpapi.NewScreenerHandler(screener, results, watchlists, log),
		Watchlists:    httpapi.NewWatchlistHandler(watchlists, log),
		Tokens:        httpapi.NewTokenHandler(tokenRepo, log),
		Notifications: httpapi.NewNotificationHandler(fcmClient, tokenRepo, log),
		WebSocket:     wsHandler.Handle,
	})

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down")

	sched.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server shutdown failed")
	}

	log.Info().Msg("Server stopped")
}
