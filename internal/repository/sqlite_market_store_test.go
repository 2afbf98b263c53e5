package repository

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stock-screener-backend/internal/domain"
	"stock-screener-backend/internal/infrastructure/db"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	sqlDB, err := db.OpenSQLite(filepath.Join(t.TempDir(), "screener.db"))
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, db.MigrateSQLite(sqlDB))
	return sqlDB
}

func testBars(n int) []domain.PriceBar {
	start := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)
	bars := make([]domain.PriceBar, n)
	for i := range bars {
		v := int64(1000 + i)
		bars[i] = domain.PriceBar{
			Date:   start.AddDate(0, 0, 7*i),
			Open:   100 + float64(i),
			High:   102 + float64(i),
			Low:    99 + float64(i),
			Close:  101 + float64(i),
			Volume: &v,
		}
	}
	return bars
}

func TestSQLiteMarketStorePriceRoundTrip(t *testing.T) {
	store := NewSQLiteMarketStore(openTestDB(t))
	ctx := context.Background()

	fetchedAt := time.Date(2025, 8, 1, 12, 0, 0, 0, time.UTC)
	saved := domain.PriceSeries{
		Ticker:    "AAPL",
		Interval:  domain.IntervalWeekly,
		Source:    domain.SourceYahoo,
		FetchedAt: fetchedAt,
		Bars:      testBars(3),
	}
	require.NoError(t, store.SavePriceSeries(ctx, saved))

	got, err := store.GetPriceSeries(ctx, "AAPL", domain.IntervalWeekly)
	require.NoError(t, err)
	require.Equal(t, 3, got.Len())
	assert.Equal(t, domain.SourceYahoo, got.Source)
	assert.True(t, got.FetchedAt.Equal(fetchedAt))

	for i, bar := range got.Bars {
		assert.True(t, bar.Date.Equal(saved.Bars[i].Date), "bar %d date", i)
		assert.Equal(t, saved.Bars[i].Close, bar.Close)
		require.NotNil(t, bar.Volume)
		assert.Equal(t, *saved.Bars[i].Volume, *bar.Volume)
	}
}

func TestSQLiteMarketStoreUpsertsBars(t *testing.T) {
	store := NewSQLiteMarketStore(openTestDB(t))
	ctx := context.Background()

	first := domain.PriceSeries{
		Ticker:    "AAPL",
		Interval:  domain.IntervalWeekly,
		FetchedAt: time.Now().UTC(),
		Bars:      testBars(3),
	}
	require.NoError(t, store.SavePriceSeries(ctx, first))

	// Re-fetch overlaps the old bars and extends by one week.
	second := first
	second.Bars = testBars(4)
	second.Bars[2].Close = 999
	require.NoError(t, store.SavePriceSeries(ctx, second))

	got, err := store.GetPriceSeries(ctx, "AAPL", domain.IntervalWeekly)
	require.NoError(t, err)
	require.Equal(t, 4, got.Len())
	assert.Equal(t, 999.0, got.Bars[2].Close)
}

func TestSQLiteMarketStoreMissingTicker(t *testing.T) {
	store := NewSQLiteMarketStore(openTestDB(t))

	_, err := store.GetPriceSeries(context.Background(), "NOPE", domain.IntervalWeekly)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSQLiteMarketStoreNilVolume(t *testing.T) {
	store := NewSQLiteMarketStore(openTestDB(t))
	ctx := context.Background()

	bars := testBars(1)
	bars[0].Volume = nil
	require.NoError(t, store.SavePriceSeries(ctx, domain.PriceSeries{
		Ticker:    "AAPL",
		Interval:  domain.IntervalWeekly,
		FetchedAt: time.Now().UTC(),
		Bars:      bars,
	}))

	got, err := store.GetPriceSeries(ctx, "AAPL", domain.IntervalWeekly)
	require.NoError(t, err)
	require.Equal(t, 1, got.Len())
	assert.Nil(t, got.Bars[0].Volume)
}

func TestSQLiteMarketStoreRejectsUnkeyedSeries(t *testing.T) {
	store := NewSQLiteMarketStore(openTestDB(t))

	err := store.SavePriceSeries(context.Background(), domain.PriceSeries{Ticker: "AAPL"})
	assert.Error(t, err)
}

func TestSQLiteMarketStoreFundamentalsRoundTrip(t *testing.T) {
	store := NewSQLiteMarketStore(openTestDB(t))
	ctx := context.Background()

	pe := 21.5
	growth := 0.12
	profitable := true
	saved := domain.FundamentalsRecord{
		Ticker:            "AAPL",
		Name:              "Apple Inc.",
		Sector:            "Technology",
		Industry:          "Consumer Electronics",
		PERatio:           &pe,
		RevenueGrowth:     &growth,
		NetIncomePositive: &profitable,
		EarningsTrend:     domain.EarningsIncreasing,
		Source:            domain.SourceYahoo,
		UpdatedAt:         time.Date(2025, 8, 1, 12, 0, 0, 0, time.UTC),
	}
	require.NoError(t, store.SaveFundamentals(ctx, saved))

	got, err := store.GetFundamentals(ctx, "aapl")
	require.NoError(t, err)
	assert.Equal(t, "Apple Inc.", got.Name)
	require.NotNil(t, got.PERatio)
	assert.Equal(t, pe, *got.PERatio)
	require.NotNil(t, got.RevenueGrowth)
	assert.Equal(t, growth, *got.RevenueGrowth)
	assert.Nil(t, got.ProfitMargin)
	require.NotNil(t, got.NetIncomePositive)
	assert.True(t, *got.NetIncomePositive)
	assert.Equal(t, domain.EarningsIncreasing, got.EarningsTrend)
	assert.True(t, got.UpdatedAt.Equal(saved.UpdatedAt))
}

func TestSQLiteMarketStoreFundamentalsUpsert(t *testing.T) {
	store := NewSQLiteMarketStore(openTestDB(t))
	ctx := context.Background()

	rec := domain.FundamentalsRecord{Ticker: "AAPL", Name: "Apple", UpdatedAt: time.Now().UTC()}
	require.NoError(t, store.SaveFundamentals(ctx, rec))

	rec.Name = "Apple Inc."
	require.NoError(t, store.SaveFundamentals(ctx, rec))

	got, err := store.GetFundamentals(ctx, "AAPL")
	require.NoError(t, err)
	assert.Equal(t, "Apple Inc.", got.Name)
	// Absent trend defaults to unknown on write.
	assert.Equal(t, domain.EarningsUnknown, got.EarningsTrend)
}

func TestSQLiteMarketStoreFundamentalsMissing(t *testing.T) {
	store := NewSQLiteMarketStore(openTestDB(t))

	_, err := store.GetFundamentals(context.Background(), "NOPE")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
