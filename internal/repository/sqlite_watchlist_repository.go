package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"stock-screener-backend/internal/domain"
)

// SQLiteWatchlistRepository is the local-file counterpart of
// PostgresWatchlistRepository.
type SQLiteWatchlistRepository struct {
	db *sql.DB
}

func NewSQLiteWatchlistRepository(db *sql.DB) *SQLiteWatchlistRepository {
	return &SQLiteWatchlistRepository{db: db}
}

func (r *SQLiteWatchlistRepository) List(ctx context.Context) ([]domain.Watchlist, error) {
	rows, err := r.db.QueryContext(ctx, `
		select id, name, created_at, updated_at
		from watchlists
		order by created_at asc
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	lists := make([]domain.Watchlist, 0)
	for rows.Next() {
		wl, err := scanSQLiteWatchlist(rows)
		if err != nil {
			return nil, err
		}
		lists = append(lists, wl)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	tickerRows, err := r.db.QueryContext(ctx, `
		select watchlist_id, ticker
		from watchlist_tickers
		order by added_at asc, ticker asc
	`)
	if err != nil {
		return nil, err
	}
	defer tickerRows.Close()

	byList := make(map[string][]string)
	for tickerRows.Next() {
		var listID, ticker string
		if err := tickerRows.Scan(&listID, &ticker); err != nil {
			return nil, err
		}
		byList[listID] = append(byList[listID], ticker)
	}
	if err := tickerRows.Err(); err != nil {
		return nil, err
	}

	for i := range lists {
		if tickers, ok := byList[lists[i].ID]; ok {
			lists[i].Tickers = tickers
		}
	}
	return lists, nil
}

func (r *SQLiteWatchlistRepository) Get(ctx context.Context, id string) (domain.Watchlist, error) {
	row := r.db.QueryRowContext(ctx, `
		select id, name, created_at, updated_at
		from watchlists
		where id=?
	`, id)

	wl, err := scanSQLiteWatchlist(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Watchlist{}, domain.ErrNotFound
		}
		return domain.Watchlist{}, err
	}

	rows, err := r.db.QueryContext(ctx, `
		select ticker
		from watchlist_tickers
		where watchlist_id=?
		order by added_at asc, ticker asc
	`, id)
	if err != nil {
		return domain.Watchlist{}, err
	}
	defer rows.Close()

	for rows.Next() {
		var ticker string
		if err := rows.Scan(&ticker); err != nil {
			return domain.Watchlist{}, err
		}
		wl.Tickers = append(wl.Tickers, ticker)
	}
	return wl, rows.Err()
}

func (r *SQLiteWatchlistRepository) Create(ctx context.Context, wl domain.Watchlist) error {
	_, err := r.db.ExecContext(ctx, `
		insert into watchlists(id, name, created_at, updated_at)
		values (?,?,?,?)
	`,
		wl.ID,
		wl.Name,
		wl.CreatedAt.UTC().Format(sqliteTimeLayout),
		wl.UpdatedAt.UTC().Format(sqliteTimeLayout),
	)
	return err
}

func (r *SQLiteWatchlistRepository) Rename(ctx context.Context, id, name string) error {
	res, err := r.db.ExecContext(ctx, `
		update watchlists set name=?, updated_at=? where id=?
	`, name, nowSQLite(), id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (r *SQLiteWatchlistRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `delete from watchlists where id=?`, id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (r *SQLiteWatchlistRepository) AddTicker(ctx context.Context, id, ticker string) error {
	if err := r.touch(ctx, id); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx, `
		insert into watchlist_tickers(watchlist_id, ticker, added_at)
		values (?,?,?)
		on conflict (watchlist_id, ticker) do nothing
	`, id, ticker, nowSQLite())
	return err
}

func (r *SQLiteWatchlistRepository) RemoveTicker(ctx context.Context, id, ticker string) error {
	if err := r.touch(ctx, id); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx, `
		delete from watchlist_tickers where watchlist_id=? and ticker=?
	`, id, ticker)
	return err
}

func (r *SQLiteWatchlistRepository) GetActiveID(ctx context.Context) (string, error) {
	var id string
	err := r.db.QueryRowContext(ctx, `
		select value from app_settings where key=?
	`, activeWatchlistKey).Scan(&id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", domain.ErrNotFound
		}
		return "", err
	}
	return id, nil
}

func (r *SQLiteWatchlistRepository) SetActiveID(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `
		insert into app_settings(key, value, updated_at)
		values (?,?,?)
		on conflict (key) do update set value=excluded.value, updated_at=excluded.updated_at
	`, activeWatchlistKey, id, nowSQLite())
	return err
}

func (r *SQLiteWatchlistRepository) touch(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `update watchlists set updated_at=? where id=?`, nowSQLite(), id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func scanSQLiteWatchlist(s scanner) (domain.Watchlist, error) {
	var wl domain.Watchlist
	var createdStr, updatedStr string
	if err := s.Scan(&wl.ID, &wl.Name, &createdStr, &updatedStr); err != nil {
		return domain.Watchlist{}, err
	}
	if t, err := time.Parse(sqliteTimeLayout, createdStr); err == nil {
		wl.CreatedAt = t
	}
	if t, err := time.Parse(sqliteTimeLayout, updatedStr); err == nil {
		wl.UpdatedAt = t
	}
	wl.Tickers = []string{}
	return wl, nil
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func nowSQLite() string {
	return time.Now().UTC().Format(sqliteTimeLayout)
}

// compile-time check
var _ domain.WatchlistRepository = (*SQLiteWatchlistRepository)(nil)
