package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"stock-screener-backend/internal/domain"
)

const (
	sqliteDateLayout = "2006-01-02"
	sqliteTimeLayout = time.RFC3339
)

// SQLiteMarketStore is the local-file counterpart of PostgresMarketStore,
// used when no DATABASE_URL is configured. Dates and timestamps travel as
// ISO-8601 text.
type SQLiteMarketStore struct {
	db *sql.DB
}

func NewSQLiteMarketStore(db *sql.DB) *SQLiteMarketStore {
	return &SQLiteMarketStore{db: db}
}

func (r *SQLiteMarketStore) SavePriceSeries(ctx context.Context, series domain.PriceSeries) error {
	if series.Ticker == "" || series.Interval == "" {
		return errors.New("series needs ticker and interval")
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, b := range series.Bars {
		var volume sql.NullInt64
		if b.Volume != nil {
			volume = sql.NullInt64{Int64: *b.Volume, Valid: true}
		}
		if _, err := tx.ExecContext(ctx, `
			insert into stock_prices(ticker, interval, date, open, high, low, close, volume, source, fetched_at)
			values (?,?,?,?,?,?,?,?,?,?)
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
			b.Date.UTC().Format(sqliteDateLayout),
			b.Open,
			b.High,
			b.Low,
			b.Close,
			volume,
			series.Source,
			series.FetchedAt.UTC().Format(sqliteTimeLayout),
		); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (r *SQLiteMarketStore) GetPriceSeries(ctx context.Context, ticker, interval string) (domain.PriceSeries, error) {
	ticker = domain.NormalizeTicker(ticker)

	rows, err := r.db.QueryContext(ctx, `
		select date, open, high, low, close, volume, source, fetched_at
		from stock_prices
		where ticker=? and interval=?
		order by date asc
	`, ticker, interval)
	if err != nil {
		return domain.PriceSeries{}, err
	}
	defer rows.Close()

	series := domain.PriceSeries{Ticker: ticker, Interval: interval}
	for rows.Next() {
		var b domain.PriceBar
		var dateStr, source, fetchedStr string
		var volume sql.NullInt64

		if err := rows.Scan(&dateStr, &b.Open, &b.High, &b.Low, &b.Close, &volume, &source, &fetchedStr); err != nil {
			return domain.PriceSeries{}, err
		}
		date, err := time.Parse(sqliteDateLayout, dateStr)
		if err != nil {
			continue
		}
		b.Date = date
		if volume.Valid {
			v := volume.Int64
			b.Volume = &v
		}
		series.Bars = append(series.Bars, b)
		series.Source = source
		if fetched, err := time.Parse(sqliteTimeLayout, fetchedStr); err == nil && fetched.After(series.FetchedAt) {
			series.FetchedAt = fetched
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

func (r *SQLiteMarketStore) SaveFundamentals(ctx context.Context, rec domain.FundamentalsRecord) error {
	if rec.Ticker == "" {
		return errors.New("fundamentals need a ticker")
	}
	if rec.EarningsTrend == "" {
		rec.EarningsTrend = domain.EarningsUnknown
	}

	var peRatio, revenueGrowth, profitMargin sql.NullFloat64
	if rec.PERatio != nil {
		peRatio = sql.NullFloat64{Float64: *rec.PERatio, Valid: true}
	}
	if rec.RevenueGrowth != nil {
		revenueGrowth = sql.NullFloat64{Float64: *rec.RevenueGrowth, Valid: true}
	}
	if rec.ProfitMargin != nil {
		profitMargin = sql.NullFloat64{Float64: *rec.ProfitMargin, Valid: true}
	}
	var netIncomePositive sql.NullBool
	if rec.NetIncomePositive != nil {
		netIncomePositive = sql.NullBool{Bool: *rec.NetIncomePositive, Valid: true}
	}

	_, err := r.db.ExecContext(ctx, `
		insert into stock_fundamentals(
			ticker, name, sector, industry,
			pe_ratio, revenue_growth, profit_margin, net_income_positive,
			earnings_trend, source, updated_at
		) values (?,?,?,?,?,?,?,?,?,?,?)
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
		peRatio,
		revenueGrowth,
		profitMargin,
		netIncomePositive,
		string(rec.EarningsTrend),
		rec.Source,
		rec.UpdatedAt.UTC().Format(sqliteTimeLayout),
	)
	return err
}

func (r *SQLiteMarketStore) GetFundamentals(ctx context.Context, ticker string) (domain.FundamentalsRecord, error) {
	row := r.db.QueryRowContext(ctx, `
		select ticker, name, sector, industry,
			pe_ratio, revenue_growth, profit_margin, net_income_positive,
			earnings_trend, source, updated_at
		from stock_fundamentals
		where ticker=?
	`, domain.NormalizeTicker(ticker))

	var rec domain.FundamentalsRecord
	var peRatio, revenueGrowth, profitMargin sql.NullFloat64
	var netIncomePositive sql.NullBool
	var trend, updatedStr string

	err := row.Scan(
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
		&updatedStr,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.FundamentalsRecord{}, domain.ErrNotFound
		}
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
	if updated, err := time.Parse(sqliteTimeLayout, updatedStr); err == nil {
		rec.UpdatedAt = updated
	}

	return rec, nil
}

// compile-time check
var _ domain.MarketDataStore = (*SQLiteMarketStore)(nil)
