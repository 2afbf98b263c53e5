package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// OpenSQLite opens (creating if needed) the local cache database used when
// no DATABASE_URL is configured.
func OpenSQLite(path string) (*sql.DB, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)", path)
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	// A single connection sidesteps SQLite's writer lock contention.
	sqlDB.SetMaxOpenConns(1)

	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, err
	}
	return sqlDB, nil
}

// MigrateSQLite mirrors the Postgres schema in SQLite's dialect. Dates and
// timestamps are stored as ISO-8601 text.
func MigrateSQLite(sqlDB *sql.DB) error {
	stmts := []string{
		`create table if not exists stock_prices (
			ticker text not null,
			interval text not null,
			date text not null,
			open real not null default 0,
			high real not null default 0,
			low real not null default 0,
			close real not null,
			volume integer null,
			source text not null default '',
			fetched_at text not null,
			primary key (ticker, interval, date)
		);`,
		`create table if not exists stock_fundamentals (
			ticker text primary key,
			name text not null default '',
			sector text not null default '',
			industry text not null default '',
			pe_ratio real null,
			revenue_growth real null,
			profit_margin real null,
			net_income_positive integer null,
			earnings_trend text not null default 'UNKNOWN',
			source text not null default '',
			updated_at text not null
		);`,
		`create table if not exists watchlists (
			id text primary key,
			name text not null,
			created_at text not null,
			updated_at text not null
		);`,
		`create table if not exists watchlist_tickers (
			watchlist_id text not null references watchlists(id) on delete cascade,
			ticker text not null,
			added_at text not null,
			primary key (watchlist_id, ticker)
		);`,
		`create table if not exists app_settings (
			key text primary key,
			value text not null,
			updated_at text not null
		);`,
	}

	for _, stmt := range stmts {
		if _, err := sqlDB.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}
