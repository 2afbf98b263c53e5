package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"stock-screener-backend/internal/domain"
	"stock-screener-backend/internal/infrastructure/fcm"
	"stock-screener-backend/internal/repository"
)

// ErrScanInProgress is returned when a scan is requested while another one
// is still running.
var ErrScanInProgress = errors.New("a scan is already running")

// ProgressFunc receives advisory batch progress: fraction complete in
// [0,1] and a human-readable status line. It must never be relied on for
// correctness; a nil callback is fine.
type ProgressFunc func(fraction float64, status string)

// ScreenerConfig tunes the batch runner.
type ScreenerConfig struct {
	Strategy    domain.StrategyConfig
	Concurrency int           // parallel ticker evaluations per scan
	Cooldown    time.Duration // minimum gap between push alerts per ticker
}

// ScreenerUsecase runs the screening pipeline: fetch data per ticker,
// analyze, rank by composite score, publish the snapshot and alert on buy
// signals.
type ScreenerUsecase struct {
	provider   domain.MarketDataProvider
	results    domain.ResultRepository
	watchlists *WatchlistUsecase
	tokenRepo  *repository.TokenRepository
	fcmClient  *fcm.Client
	cfg        ScreenerConfig
	scanning   atomic.Bool
	notified   map[string]time.Time // last alert per ticker
	mu         sync.RWMutex
	log        zerolog.Logger
}

func NewScreenerUsecase(
	provider domain.MarketDataProvider,
	results domain.ResultRepository,
	watchlists *WatchlistUsecase,
	tokenRepo *repository.TokenRepository,
	fcmClient *fcm.Client,
	cfg ScreenerConfig,
	log zerolog.Logger,
) *ScreenerUsecase {
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = 6 * time.Hour
	}
	return &ScreenerUsecase{
		provider:   provider,
		results:    results,
		watchlists: watchlists,
		tokenRepo:  tokenRepo,
		fcmClient:  fcmClient,
		cfg:        cfg,
		notified:   make(map[string]time.Time),
		log:        log.With().Str("component", "screener").Logger(),
	}
}

// Analyze fetches one ticker's data and runs the strategy on it.
func (uc *ScreenerUsecase) Analyze(ctx context.Context, ticker string) (domain.AnalysisResult, error) {
	ticker = domain.NormalizeTicker(ticker)
	if ticker == "" {
		return domain.AnalysisResult{}, errors.New("empty ticker")
	}

	series, fundamentals, err := uc.provider.GetStockData(ctx, ticker)
	if err != nil {
		return domain.AnalysisResult{}, fmt.Errorf("fetch %s: %w", ticker, err)
	}

	return AnalyzeSeries(ticker, series, fundamentals, uc.cfg.Strategy), nil
}

// ScanTickers evaluates every ticker independently across a bounded worker
// pool and ranks the successes by composite score, descending. One
// ticker's failure never aborts the batch; it becomes a failure entry
// instead, so len(results)+len(failures) always equals len(tickers).
// Ranking is deterministic for a fixed input: results are re-assembled in
// input order before the stable sort, so completion order cannot leak into
// tie-breaking. Cancellation is cooperative, checked once per item and
// never mid-computation.
func (uc *ScreenerUsecase) ScanTickers(ctx context.Context, tickers []string, progress ProgressFunc) domain.ScanSnapshot {
	started := time.Now()
	total := len(tickers)

	results := make([]*domain.AnalysisResult, total)
	failures := make([]*domain.ScanFailure, total)

	var wg sync.WaitGroup
	var mu sync.Mutex
	done := 0
	sem := make(chan struct{}, uc.cfg.Concurrency)

	for i, t := range tickers {
		wg.Add(1)
		go func(idx int, ticker string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			if ctx.Err() != nil {
				failures[idx] = &domain.ScanFailure{Ticker: domain.NormalizeTicker(ticker), Reason: "scan cancelled"}
			} else if res, err := uc.Analyze(ctx, ticker); err != nil {
				failures[idx] = &domain.ScanFailure{Ticker: domain.NormalizeTicker(ticker), Reason: err.Error()}
			} else {
				results[idx] = &res
			}

			mu.Lock()
			done++
			if progress != nil {
				progress(float64(done)/float64(total), fmt.Sprintf("Analyzed %s (%d/%d)", ticker, done, total))
			}
			mu.Unlock()
		}(i, t)
	}

	wg.Wait()

	ranked := make([]domain.AnalysisResult, 0, total)
	failed := make([]domain.ScanFailure, 0)
	for i := range tickers {
		if results[i] != nil {
			ranked = append(ranked, *results[i])
		}
		if failures[i] != nil {
			failed = append(failed, *failures[i])
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].CompositeScore > ranked[j].CompositeScore
	})
	for i := range ranked {
		ranked[i].Rank = i + 1
	}

	return domain.ScanSnapshot{
		Results:   ranked,
		Failures:  failed,
		StartedAt: started,
		UpdatedAt: time.Now(),
	}
}

// RunScan performs a full scan cycle synchronously: scan, publish, alert.
func (uc *ScreenerUsecase) RunScan(ctx context.Context, tickers []string) (domain.ScanSnapshot, error) {
	if !uc.scanning.CompareAndSwap(false, true) {
		return domain.ScanSnapshot{}, ErrScanInProgress
	}
	defer uc.scanning.Store(false)

	return uc.runCycle(ctx, tickers), nil
}

// StartScan launches a scan cycle in the background. Only one scan runs
// at a time.
func (uc *ScreenerUsecase) StartScan(tickers []string) error {
	if !uc.scanning.CompareAndSwap(false, true) {
		return ErrScanInProgress
	}

	go func() {
		defer uc.scanning.Store(false)
		uc.runCycle(context.Background(), tickers)
	}()
	return nil
}

// IsScanning reports whether a scan cycle is currently running.
func (uc *ScreenerUsecase) IsScanning() bool {
	return uc.scanning.Load()
}

// ScanActiveWatchlist runs a scan cycle over the active watchlist.
func (uc *ScreenerUsecase) ScanActiveWatchlist(ctx context.Context) error {
	tickers, err := uc.watchlists.ActiveTickers(ctx)
	if err != nil {
		return fmt.Errorf("load active watchlist: %w", err)
	}
	if len(tickers) == 0 {
		uc.log.Info().Msg("Active watchlist is empty, nothing to scan")
		return nil
	}

	_, err = uc.RunScan(ctx, tickers)
	return err
}

func (uc *ScreenerUsecase) runCycle(ctx context.Context, tickers []string) domain.ScanSnapshot {
	start := time.Now()
	uc.log.Info().Int("tickers", len(tickers)).Msg("Starting screening cycle")

	snap := uc.ScanTickers(ctx, tickers, uc.logProgress)
	uc.results.SaveSnapshot(snap)
	uc.notifyBuySignals(snap.Results)

	uc.log.Info().
		Dur("elapsed", time.Since(start)).
		Int("ranked", len(snap.Results)).
		Int("failed", len(snap.Failures)).
		Msg("Screening cycle completed")

	return snap
}

func (uc *ScreenerUsecase) logProgress(fraction float64, status string) {
	uc.log.Debug().Float64("progress", fraction).Msg(status)
}
