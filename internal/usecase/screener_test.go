package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stock-screener-backend/internal/domain"
	"stock-screener-backend/internal/repository"
)

type fakeProvider struct {
	mu     sync.Mutex
	calls  int
	series map[string]domain.PriceSeries
	funds  map[string]domain.FundamentalsRecord
	errs   map[string]error
	delay  time.Duration
}

func (f *fakeProvider) GetStockData(ctx context.Context, ticker string) (domain.PriceSeries, domain.FundamentalsRecord, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()

	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if err, ok := f.errs[ticker]; ok {
		return domain.PriceSeries{}, domain.FundamentalsRecord{}, err
	}
	series, ok := f.series[ticker]
	if !ok {
		return domain.PriceSeries{}, domain.FundamentalsRecord{}, domain.ErrNoPriceData
	}
	return series, f.funds[ticker], nil
}

func newTestScreener(p domain.MarketDataProvider) (*ScreenerUsecase, *repository.InMemoryResultRepository) {
	results := repository.NewInMemoryResultRepository()
	uc := NewScreenerUsecase(p, results, nil, repository.NewTokenRepository(), nil, ScreenerConfig{
		Strategy:    domain.DefaultStrategyConfig(),
		Concurrency: 4,
	}, zerolog.Nop())
	return uc, results
}

func TestAnalyzeNormalizesTicker(t *testing.T) {
	provider := &fakeProvider{series: map[string]domain.PriceSeries{"AAPL": breakoutSeries()}}
	uc, _ := newTestScreener(provider)

	res, err := uc.Analyze(context.Background(), " aapl ")
	require.NoError(t, err)
	assert.Equal(t, "AAPL", res.Ticker)
}

func TestAnalyzeRejectsEmptyTicker(t *testing.T) {
	uc, _ := newTestScreener(&fakeProvider{})

	_, err := uc.Analyze(context.Background(), "   ")
	assert.Error(t, err)
}

func TestScanTickersPartitionsResultsAndFailures(t *testing.T) {
	provider := &fakeProvider{
		series: map[string]domain.PriceSeries{"GOOD": breakoutSeries()},
		errs:   map[string]error{"BAD": errors.New("boom")},
	}
	uc, _ := newTestScreener(provider)

	snap := uc.ScanTickers(context.Background(), []string{"GOOD", "BAD", "MISSING"}, nil)

	assert.Len(t, snap.Results, 1)
	assert.Len(t, snap.Failures, 2)
	assert.Equal(t, "GOOD", snap.Results[0].Ticker)

	reasons := map[string]string{}
	for _, f := range snap.Failures {
		reasons[f.Ticker] = f.Reason
	}
	assert.Contains(t, reasons["BAD"], "boom")
	assert.Contains(t, reasons["MISSING"], domain.ErrNoPriceData.Error())
}

func TestScanTickersRanksByCompositeScore(t *testing.T) {
	provider := &fakeProvider{
		series: map[string]domain.PriceSeries{
			"STRONG": breakoutSeries(),
			"FLAT":   flatSeries(52),
			"YOUNG":  risingSeries(20),
		},
	}
	uc, _ := newTestScreener(provider)

	snap := uc.ScanTickers(context.Background(), []string{"FLAT", "YOUNG", "STRONG"}, nil)

	require.Len(t, snap.Results, 3)
	assert.Equal(t, "STRONG", snap.Results[0].Ticker)
	assert.Equal(t, "FLAT", snap.Results[1].Ticker)
	assert.Equal(t, "YOUNG", snap.Results[2].Ticker)
	for i, res := range snap.Results {
		assert.Equal(t, i+1, res.Rank)
	}
	assert.True(t, snap.Results[0].CompositeScore >= snap.Results[1].CompositeScore)
	assert.True(t, snap.Results[1].CompositeScore >= snap.Results[2].CompositeScore)
}

func TestScanTickersTieBreaksByInputOrder(t *testing.T) {
	// Identical data means identical scores; the stable sort must then
	// preserve input order no matter which worker finishes first.
	provider := &fakeProvider{
		series: map[string]domain.PriceSeries{
			"ZZZ": breakoutSeries(),
			"AAA": breakoutSeries(),
		},
		delay: time.Millisecond,
	}
	uc, _ := newTestScreener(provider)

	snap := uc.ScanTickers(context.Background(), []string{"ZZZ", "AAA"}, nil)

	require.Len(t, snap.Results, 2)
	assert.Equal(t, "ZZZ", snap.Results[0].Ticker)
	assert.Equal(t, "AAA", snap.Results[1].Ticker)
	assert.Equal(t, snap.Results[0].CompositeScore, snap.Results[1].CompositeScore)
}

func TestScanTickersCancelledContext(t *testing.T) {
	provider := &fakeProvider{series: map[string]domain.PriceSeries{"AAPL": breakoutSeries()}}
	uc, _ := newTestScreener(provider)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	snap := uc.ScanTickers(ctx, []string{"AAPL", "MSFT"}, nil)

	assert.Empty(t, snap.Results)
	require.Len(t, snap.Failures, 2)
	for _, f := range snap.Failures {
		assert.Equal(t, "scan cancelled", f.Reason)
	}
}

func TestScanTickersReportsProgress(t *testing.T) {
	provider := &fakeProvider{
		series: map[string]domain.PriceSeries{"A": breakoutSeries(), "B": flatSeries(52), "C": flatSeries(52)},
	}
	uc, _ := newTestScreener(provider)

	var fractions []float64
	snap := uc.ScanTickers(context.Background(), []string{"A", "B", "C"}, func(fraction float64, status string) {
		fractions = append(fractions, fraction)
		assert.NotEmpty(t, status)
	})

	require.Len(t, fractions, 3)
	assert.Equal(t, 1.0, fractions[len(fractions)-1])
	assert.Equal(t, 3, len(snap.Results)+len(snap.Failures))
}

func TestRunScanPublishesSnapshot(t *testing.T) {
	provider := &fakeProvider{series: map[string]domain.PriceSeries{"AAPL": breakoutSeries()}}
	uc, results := newTestScreener(provider)

	snap, err := uc.RunScan(context.Background(), []string{"AAPL"})
	require.NoError(t, err)
	assert.Len(t, snap.Results, 1)

	stored := results.GetSnapshot()
	assert.Equal(t, snap.UpdatedAt, stored.UpdatedAt)
	assert.Len(t, stored.Results, 1)
}

func TestStartScanRejectsConcurrentScan(t *testing.T) {
	provider := &fakeProvider{
		series: map[string]domain.PriceSeries{"AAPL": breakoutSeries()},
		delay:  50 * time.Millisecond,
	}
	uc, _ := newTestScreener(provider)

	require.NoError(t, uc.StartScan([]string{"AAPL"}))
	assert.True(t, uc.IsScanning())

	_, err := uc.RunScan(context.Background(), []string{"AAPL"})
	assert.ErrorIs(t, err, ErrScanInProgress)

	require.Eventually(t, func() bool { return !uc.IsScanning() }, 2*time.Second, 10*time.Millisecond)
}

func TestStartScanRunsInBackground(t *testing.T) {
	provider := &fakeProvider{series: map[string]domain.PriceSeries{"AAPL": breakoutSeries()}}
	uc, results := newTestScreener(provider)

	require.NoError(t, uc.StartScan([]string{"AAPL"}))

	require.Eventually(t, func() bool {
		return len(results.GetSnapshot().Results) == 1
	}, 2*time.Second, 10*time.Millisecond)
}
