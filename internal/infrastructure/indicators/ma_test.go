package indicators

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculateSMA(t *testing.T) {
	values := []float64{1, 2, 3, 4, 5}

	sma := CalculateSMA(values, 3)
	require.NotNil(t, sma)
	assert.InDelta(t, 4.0, *sma, 1e-12)

	sma = CalculateSMA(values, 5)
	require.NotNil(t, sma)
	assert.InDelta(t, 3.0, *sma, 1e-12)
}

func TestCalculateSMAInsufficientData(t *testing.T) {
	assert.Nil(t, CalculateSMA(nil, 4))
	assert.Nil(t, CalculateSMA([]float64{1, 2, 3}, 4))
	assert.Nil(t, CalculateSMA([]float64{1, 2, 3}, 0))
}

func TestHighestHigh(t *testing.T) {
	values := []float64{10, 50, 20, 30, 40}

	h := HighestHigh(values, 3)
	require.NotNil(t, h)
	assert.Equal(t, 40.0, *h)

	// Lookback longer than the series uses everything.
	h = HighestHigh(values, 52)
	require.NotNil(t, h)
	assert.Equal(t, 50.0, *h)

	assert.Nil(t, HighestHigh(nil, 52))
}
