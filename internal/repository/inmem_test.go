package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stock-screener-backend/internal/domain"
)

func TestInMemoryResultRepositoryStartsEmpty(t *testing.T) {
	repo := NewInMemoryResultRepository()

	snap := repo.GetSnapshot()
	// Empty slices, not nil: clients receive [] instead of null.
	assert.NotNil(t, snap.Results)
	assert.NotNil(t, snap.Failures)
	assert.Empty(t, snap.Results)
	assert.True(t, snap.UpdatedAt.IsZero())
}

func TestInMemoryResultRepositoryRoundTrip(t *testing.T) {
	repo := NewInMemoryResultRepository()

	saved := domain.ScanSnapshot{
		Results: []domain.AnalysisResult{
			{Ticker: "AAPL", CompositeScore: 81.5, Rank: 1},
			{Ticker: "MSFT", CompositeScore: 74.0, Rank: 2},
		},
		Failures:  []domain.ScanFailure{{Ticker: "BAD", Reason: "no price data"}},
		StartedAt: time.Now().Add(-time.Minute),
		UpdatedAt: time.Now(),
	}
	repo.SaveSnapshot(saved)

	got := repo.GetSnapshot()
	require.Len(t, got.Results, 2)
	assert.Equal(t, "AAPL", got.Results[0].Ticker)
	require.Len(t, got.Failures, 1)
	assert.Equal(t, saved.UpdatedAt, got.UpdatedAt)
}

func TestInMemoryResultRepositoryReplacesWholesale(t *testing.T) {
	repo := NewInMemoryResultRepository()

	repo.SaveSnapshot(domain.ScanSnapshot{
		Results: []domain.AnalysisResult{{Ticker: "AAPL"}, {Ticker: "MSFT"}},
	})
	repo.SaveSnapshot(domain.ScanSnapshot{
		Results: []domain.AnalysisResult{{Ticker: "NVDA"}},
	})

	got := repo.GetSnapshot()
	require.Len(t, got.Results, 1)
	assert.Equal(t, "NVDA", got.Results[0].Ticker)
}

func TestInMemoryResultRepositoryCopiesSlices(t *testing.T) {
	repo := NewInMemoryResultRepository()
	repo.SaveSnapshot(domain.ScanSnapshot{
		Results: []domain.AnalysisResult{{Ticker: "AAPL"}},
	})

	first := repo.GetSnapshot()
	first.Results[0].Ticker = "MUTATED"

	second := repo.GetSnapshot()
	assert.Equal(t, "AAPL", second.Results[0].Ticker)
}
