package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"stock-screener-backend/internal/domain"
)

// defaultTickers seeds the watchlist created on first run.
var defaultTickers = []string{"AAPL", "MSFT", "GOOGL", "AMZN", "NVDA", "META", "TSLA"}

// WatchlistUsecase manages named ticker lists and the active-list pointer
// the scheduled scan reads from.
type WatchlistUsecase struct {
	repo domain.WatchlistRepository
	log  zerolog.Logger
}

func NewWatchlistUsecase(repo domain.WatchlistRepository, log zerolog.Logger) *WatchlistUsecase {
	return &WatchlistUsecase{
		repo: repo,
		log:  log.With().Str("component", "watchlist").Logger(),
	}
}

// EnsureDefault bootstraps storage on first run: if no watchlist exists
// yet, a seeded "Default" list is created and made active.
func (uc *WatchlistUsecase) EnsureDefault(ctx context.Context) error {
	lists, err := uc.repo.List(ctx)
	if err != nil {
		return fmt.Errorf("list watchlists: %w", err)
	}

	if len(lists) == 0 {
		wl, err := uc.Create(ctx, "Default")
		if err != nil {
			return err
		}
		for _, t := range defaultTickers {
			if err := uc.repo.AddTicker(ctx, wl.ID, t); err != nil {
				return fmt.Errorf("seed default watchlist: %w", err)
			}
		}
		uc.log.Info().Str("id", wl.ID).Int("tickers", len(defaultTickers)).Msg("Created default watchlist")
		lists = []domain.Watchlist{wl}
	}

	// Repair a missing or dangling active pointer.
	activeID, err := uc.repo.GetActiveID(ctx)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("get active watchlist: %w", err)
	}
	for _, wl := range lists {
		if wl.ID == activeID {
			return nil
		}
	}
	return uc.repo.SetActiveID(ctx, lists[0].ID)
}

func (uc *WatchlistUsecase) List(ctx context.Context) ([]domain.Watchlist, error) {
	return uc.repo.List(ctx)
}

func (uc *WatchlistUsecase) Get(ctx context.Context, id string) (domain.Watchlist, error) {
	return uc.repo.Get(ctx, id)
}

func (uc *WatchlistUsecase) Create(ctx context.Context, name string) (domain.Watchlist, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.Watchlist{}, errors.New("watchlist name is required")
	}

	now := time.Now()
	wl := domain.Watchlist{
		ID:        uuid.NewString(),
		Name:      name,
		Tickers:   []string{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := uc.repo.Create(ctx, wl); err != nil {
		return domain.Watchlist{}, fmt.Errorf("create watchlist: %w", err)
	}
	return wl, nil
}

func (uc *WatchlistUsecase) Rename(ctx context.Context, id, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return errors.New("watchlist name is required")
	}
	return uc.repo.Rename(ctx, id, name)
}

// Delete removes a watchlist. Deleting the active list moves the active
// pointer to whichever list remains first, if any.
func (uc *WatchlistUsecase) Delete(ctx context.Context, id string) error {
	activeID, err := uc.repo.GetActiveID(ctx)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return err
	}

	if err := uc.repo.Delete(ctx, id); err != nil {
		return err
	}

	if activeID != id {
		return nil
	}
	lists, err := uc.repo.List(ctx)
	if err != nil || len(lists) == 0 {
		return err
	}
	return uc.repo.SetActiveID(ctx, lists[0].ID)
}

func (uc *WatchlistUsecase) AddTicker(ctx context.Context, id, ticker string) error {
	ticker = domain.NormalizeTicker(ticker)
	if ticker == "" {
		return errors.New("ticker is required")
	}
	return uc.repo.AddTicker(ctx, id, ticker)
}

func (uc *WatchlistUsecase) RemoveTicker(ctx context.Context, id, ticker string) error {
	return uc.repo.RemoveTicker(ctx, id, domain.NormalizeTicker(ticker))
}

// SetActive marks a watchlist as the one scheduled scans run over.
func (uc *WatchlistUsecase) SetActive(ctx context.Context, id string) error {
	if _, err := uc.repo.Get(ctx, id); err != nil {
		return err
	}
	return uc.repo.SetActiveID(ctx, id)
}

// Active returns the currently active watchlist.
func (uc *WatchlistUsecase) Active(ctx context.Context) (domain.Watchlist, error) {
	id, err := uc.repo.GetActiveID(ctx)
	if err != nil {
		return domain.Watchlist{}, err
	}
	return uc.repo.Get(ctx, id)
}

// ActiveTickers returns the tickers of the active watchlist.
func (uc *WatchlistUsecase) ActiveTickers(ctx context.Context) ([]string, error) {
	wl, err := uc.Active(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return wl.Tickers, nil
}
