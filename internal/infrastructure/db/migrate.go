package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Migrate creates the tables the screener needs.
// This keeps setup simple (no external migration tool), but still gives persistence.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	stmts := []string{
		`create table if not exists stock_prices (
			ticker text not null,
			interval text not null,
			date date not null,
			open double precision not null default 0,
			high double precision not null default 0,
			low double precision not null default 0,
			close double precision not null,
			volume bigint null,
			source text not null default '',
			fetched_at timestamptz not null,
			primary key (ticker, interval, date)
		);`,
		`create table if not exists stock_fundamentals (
			ticker text primary key,
			name text not null default '',
			sector text not null default '',
			industry text not null default '',
			pe_ratio double precision null,
			revenue_growth double precision null,
			profit_margin double precision null,
			net_income_positive boolean null,
			earnings_trend text not null default 'UNKNOWN',
			source text not null default '',
			updated_at timestamptz not null
		);`,
		`create table if not exists watchlists (
			id text primary key,
			name text not null,
			created_at timestamptz not null default now(),
			updated_at timestamptz not null default now()
		);`,
		`create table if not exists watchlist_tickers (
			watchlist_id text not null references watchlists(id) on delete cascade,
			ticker text not null,
			added_at timestamptz not null default now(),
			primary key (watchlist_id, ticker)
		);`,
		`create table if not exists app_settings (
			key text primary key,
			value text not null,
			updated_at timestamptz not null default now()
		);`,
	}

	for _, stmt := range stmts {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
