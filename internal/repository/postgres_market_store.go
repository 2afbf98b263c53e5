package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"stock-screener-backend/internal/domain"
)

// PostgresMarketStore caches price series and fundamentals in Postgres
// (Supabase in the hosted setup). Bars accumulate across fetches; each
// upsert refreshes overlapping dates and leaves older history in place.
type PostgresMarketStore struct {
	pool *pgxpool.Pool
}

func NewPostgresMarketStore(pool *pgxpool.Pool) *PostgresMarketStore {
	return &PostgresMarketStore{pool: pool}
}

func (r *PostgresMarketStore) SavePriceSeries(ctx context.Context, series domain.PriceSeries) error {
	if series.Ticker == "" || series.Interval == "" {
		return errors.New("series needs ticker and interval")
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for _, b := range series.Bars {
		if _, err := tx.Exec(ctx, `
			insert into stock_prices(ticker, interval, date, open, high, low, close, volume, source, fetched_at)
			values ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
			on conflict (ticker, interval, date) do update set
				open=excluded.open,
				high=excluded.high,
				low=excluded.low,
				close=excluded.close,
				volume=excluded.volume,
				source=excluded.source,
				fetched_at=excluded.fetched_at
		`,
			series.Ticker,
			series.Interval,
			b.Date,
			b.Open,
			b.High,
			b.Low,
			b.Close,
			nullableInt64(b.Volume),
			series.Source,
			series.FetchedAt,
		); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func (r *PostgresMarketStore) GetPriceSeries(ctx context.Context, ticker, interval string) (domain.PriceSeries, error) {
	ticker = domain.NormalizeTicker(ticker)

	rows, err := r.pool.Query(ctx, `
		select date, open, high, low, close, volume, source, fetched_at
		from stock_prices
		where ticker=$1 and interval=$2
		order by date asc
	`, ticker, interval)
	if err != nil {
		return domain.PriceSeries{}, err
	}
	defer rows.Close()

	series := domain.PriceSeries{Ticker: ticker, Interval: interval}
	for rows.Next() {
		var b domain.PriceBar
		var volume pgtype.Int8
		var source string
		var fetchedAt time.Time

		if err := rows.Scan(&b.Date, &b.Open, &b.High, &b.Low, &b.Close, &volume, &source, &fetchedAt); err != nil {
			return domain.PriceSeries{}, err
		}
		if volume.Valid {
			v := volume.Int64
			b.Volume = &v
		}
		series.Bars = append(series.Bars, b)
		series.Source = source
		if fetchedAt.After(series.FetchedAt) {
			series.FetchedAt = fetchedAt
		}
	}
	if err := rows.Err(); err != nil {
		return domain.PriceSeries{}, err
	}
	if len(series.Bars) == 0 {
		return domain.PriceSeries{}, domain.ErrNotFound
	}
	return series, nil
}

func (r *PostgresMarketStore) SaveFundamentals(ctx context.Context, rec domain.FundamentalsRecord) error {
	if rec.Ticker == "" {
		return errors.New("fundamentals need a ticker")
	}
	if rec.EarningsTrend == "" {
		rec.EarningsTrend = domain.EarningsUnknown
	}

	_, err := r.pool.Exec(ctx, `
		insert into stock_fundamentals(
			ticker, name, sector, industry,
			pe_ratio, revenue_growth, profit_margin, net_income_positive,
			earnings_trend, source, updated_at
		) values ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		on conflict (ticker) do update set
			name=excluded.name,
			sector=excluded.sector,
			industry=excluded.industry,
			pe_ratio=excluded.pe_ratio,
			revenue_growth=excluded.revenue_growth,
			profit_margin=excluded.profit_margin,
			net_income_positive=excluded.net_income_positive,
			earnings_trend=excluded.earnings_trend,
			source=excluded.source,
			updated_at=excluded.updated_at
	`,
		rec.Ticker,
		rec.Name,
		rec.Sector,
		rec.Industry,
		nullableFloat(rec.PERatio),
		nullableFloat(rec.RevenueGrowth),
		nullableFloat(rec.ProfitMargin),
		nullableBool(rec.NetIncomePositive),
		string(rec.EarningsTrend),
		rec.Source,
		rec.UpdatedAt,
	)
	return err
}

func (r *PostgresMarketStore) GetFundamentals(ctx context.Context, ticker string) (domain.FundamentalsRecord, error) {
	row := r.pool.QueryRow(ctx, `
		select ticker, name, sector, industry,
			pe_ratio, revenue_growth, profit_margin, net_income_positive,
			earnings_trend, source, updated_at
		from stock_fundamentals
		where ticker=$1
	`, domain.NormalizeTicker(ticker))

	rec, err := scanFundamentals(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.FundamentalsRecord{}, domain.ErrNotFound
		}
		return domain.FundamentalsRecord{}, err
	}
	return rec, nil
}

// Helpers

type scanner interface {
	Scan(dest ...any) error
}

func scanFundamentals(s scanner) (domain.FundamentalsRecord, error) {
	var rec domain.FundamentalsRecord
	var peRatio, revenueGrowth, profitMargin pgtype.Float8
	var netIncomePositive pgtype.Bool
	var trend string

	if err := s.Scan(
		&rec.Ticker,
		&rec.Name,
		&rec.Sector,
		&rec.Industry,
		&peRatio,
		&revenueGrowth,
		&profitMargin,
		&netIncomePositive,
		&trend,
		&rec.Source,
		&rec.UpdatedAt,
	); err != nil {
		return domain.FundamentalsRecord{}, err
	}

	if peRatio.Valid {
		v := peRatio.Float64
		rec.PERatio = &v
	}
	if revenueGrowth.Valid {
		v := revenueGrowth.Float64
		rec.RevenueGrowth = &v
	}
	if profitMargin.Valid {
		v := profitMargin.Float64
		rec.ProfitMargin = &v
	}
	if netIncomePositive.Valid {
		v := netIncomePositive.Bool
		rec.NetIncomePositive = &v
	}
	rec.EarningsTrend = domain.EarningsTrend(trend)

	return rec, nil
}

func nullableFloat(v *float64) any {
	if v == nil {
		return pgtype.Float8{Valid: false}
	}
	return pgtype.Float8{Valid: true, Float64: *v}
}

func nullableInt64(v *int64) any {
	if v == nil {
		return pgtype.Int8{Valid: false}
	}
	return pgtype.Int8{Valid: true, Int64: *v}
}

func nullableBool(v *bool) any {
	if v == nil {
		return pgtype.Bool{Valid: false}
	}
	return pgtype.Bool{Valid: true, Bool: *v}
}

// compile-time check
var _ domain.MarketDataStore = (*PostgresMarketStore)(nil)
