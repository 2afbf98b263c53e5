package domain

import "context"

// ResultRepository holds the latest scan snapshot for delivery to clients.
// Results are ephemeral; only price series and fundamentals are persisted.
type ResultRepository interface {
	SaveSnapshot(snap ScanSnapshot)
	GetSnapshot() ScanSnapshot
}

// MarketDataStore caches price series and fundamentals per ticker.
// Implementations: Postgres (Supabase) and SQLite.
type MarketDataStore interface {
	SavePriceSeries(ctx context.Context, series PriceSeries) error
	GetPriceSeries(ctx context.Context, ticker, interval string) (PriceSeries, error)
	SaveFundamentals(ctx context.Context, rec FundamentalsRecord) error
	GetFundamentals(ctx context.Context, ticker string) (FundamentalsRecord, error)
}

// WatchlistRepository persists watchlists and the active-watchlist pointer.
// Callers assign IDs; implementations only store.
type WatchlistRepository interface {
	List(ctx context.Context) ([]Watchlist, error)
	Get(ctx context.Context, id string) (Watchlist, error)
	Create(ctx context.Context, wl Watchlist) error
	Rename(ctx context.Context, id, name string) error
	Delete(ctx context.Context, id string) error
	AddTicker(ctx context.Context, id, ticker string) error
	RemoveTicker(ctx context.Context, id, ticker string) error
	GetActiveID(ctx context.Context) (string, error)
	SetActiveID(ctx context.Context, id string) error
}

// MarketDataSource fetches fresh data from one external provider.
type MarketDataSource interface {
	Name() string
	FetchPriceSeries(ctx context.Context, ticker string) (PriceSeries, error)
	FetchFundamentals(ctx context.Context, ticker string) (FundamentalsRecord, error)
}

// MarketDataProvider supplies the screener with analysis inputs. A price
// series is mandatory; fundamentals may come back zero-valued when no
// source had them (analysis then degrades instead of failing).
type MarketDataProvider interface {
	GetStockData(ctx context.Context, ticker string) (PriceSeries, FundamentalsRecord, error)
}
