package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"stock-screener-backend/internal/domain"
)

// activeWatchlistKey is the app_settings row holding the active-list id.
const activeWatchlistKey = "active_watchlist"

// PostgresWatchlistRepository persists watchlists in Postgres. Tickers
// live in a child table; the active-list pointer lives in app_settings.
type PostgresWatchlistRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresWatchlistRepository(pool *pgxpool.Pool) *PostgresWatchlistRepository {
	return &PostgresWatchlistRepository{pool: pool}
}

func (r *PostgresWatchlistRepository) List(ctx context.Context) ([]domain.Watchlist, error) {
	rows, err := r.pool.Query(ctx, `
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
		var wl domain.Watchlist
		if err := rows.Scan(&wl.ID, &wl.Name, &wl.CreatedAt, &wl.UpdatedAt); err != nil {
			return nil, err
		}
		wl.Tickers = []string{}
		lists = append(lists, wl)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	tickerRows, err := r.pool.Query(ctx, `
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

func (r *PostgresWatchlistRepository) Get(ctx context.Context, id string) (domain.Watchlist, error) {
	var wl domain.Watchlist
	err := r.pool.QueryRow(ctx, `
		select id, name, created_at, updated_at
		from watchlists
		where id=$1
	`, id).Scan(&wl.ID, &wl.Name, &wl.CreatedAt, &wl.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Watchlist{}, domain.ErrNotFound
		}
		return domain.Watchlist{}, err
	}

	rows, err := r.pool.Query(ctx, `
		select ticker
		from watchlist_tickers
		where watchlist_id=$1
		order by added_at asc, ticker asc
	`, id)
	if err != nil {
		return domain.Watchlist{}, err
	}
	defer rows.Close()

	wl.Tickers = []string{}
	for rows.Next() {
		var ticker string
		if err := rows.Scan(&ticker); err != nil {
			return domain.Watchlist{}, err
		}
		wl.Tickers = append(wl.Tickers, ticker)
	}
	return wl, rows.Err()
}

func (r *PostgresWatchlistRepository) Create(ctx context.Context, wl domain.Watchlist) error {
	_, err := r.pool.Exec(ctx, `
		insert into watchlists(id, name, created_at, updated_at)
		values ($1,$2,$3,$4)
	`, wl.ID, wl.Name, wl.CreatedAt, wl.UpdatedAt)
	return err
}

func (r *PostgresWatchlistRepository) Rename(ctx context.Context, id, name string) error {
	tag, err := r.pool.Exec(ctx, `
		update watchlists set name=$2, updated_at=now() where id=$1
	`, id, name)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *PostgresWatchlistRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `delete from watchlists where id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *PostgresWatchlistRepository) AddTicker(ctx context.Context, id, ticker string) error {
	if err := r.touch(ctx, id); err != nil {
		return err
	}
	_, err := r.pool.Exec(ctx, `
		insert into watchlist_tickers(watchlist_id, ticker, added_at)
		values ($1,$2,now())
		on conflict (watchlist_id, ticker) do nothing
	`, id, ticker)
	return err
}

func (r *PostgresWatchlistRepository) RemoveTicker(ctx context.Context, id, ticker string) error {
	if err := r.touch(ctx, id); err != nil {
		return err
	}
	_, err := r.pool.Exec(ctx, `
		delete from watchlist_tickers where watchlist_id=$1 and ticker=$2
	`, id, ticker)
	return err
}

func (r *PostgresWatchlistRepository) GetActiveID(ctx context.Context) (string, error) {
	var id string
	err := r.pool.QueryRow(ctx, `
		select value from app_settings where key=$1
	`, activeWatchlistKey).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", domain.ErrNotFound
		}
		return "", err
	}
	return id, nil
}

func (r *PostgresWatchlistRepository) SetActiveID(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, `
		insert into app_settings(key, value, updated_at)
		values ($1,$2,now())
		on conflict (key) do update set value=excluded.value, updated_at=now()
	`, activeWatchlistKey, id)
	return err
}

// touch bumps updated_at and doubles as the existence check.
func (r *PostgresWatchlistRepository) touch(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `update watchlists set updated_at=now() where id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// compile-time check
var _ domain.WatchlistRepository = (*PostgresWatchlistRepository)(nil)
