package indicators

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculateRSIInsufficientData(t *testing.T) {
	assert.Nil(t, CalculateRSI(nil, 14))
	assert.Nil(t, CalculateRSI([]float64{100}, 14))
	// period+1 closes are required
	closes := make([]float64, 14)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}
	assert.Nil(t, CalculateRSI(closes, 14))
}

func TestCalculateRSIFlatSeriesIsMaximal(t *testing.T) {
	closes := make([]float64, 60)
	for i := range closes {
		closes[i] = 100
	}
	rsi := CalculateRSI(closes, 14)
	require.NotNil(t, rsi)
	assert.Equal(t, 100.0, *rsi)
}

func TestCalculateRSIAllGainsIsMaximal(t *testing.T) {
	closes := make([]float64, 52)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}
	rsi := CalculateRSI(closes, 14)
	require.NotNil(t, rsi)
	assert.Equal(t, 100.0, *rsi)
}

func TestCalculateRSIAllLossesIsMinimal(t *testing.T) {
	closes := make([]float64, 52)
	for i := range closes {
		closes[i] = 200 - float64(i)
	}
	rsi := CalculateRSI(closes, 14)
	require.NotNil(t, rsi)
	assert.Equal(t, 0.0, *rsi)
}

func TestCalculateRSIKnownValue(t *testing.T) {
	// Deltas +1, -0.5, +1 with period 2:
	// seed avgGain=0.5, avgLoss=0.25; after the last delta
	// avgGain=0.75, avgLoss=0.125, RS=6, RSI=100-100/7.
	closes := []float64{10, 11, 10.5, 11.5}
	rsi := CalculateRSI(closes, 2)
	require.NotNil(t, rsi)
	assert.InDelta(t, 100.0-100.0/7.0, *rsi, 1e-12)
}

func TestCalculateRSIStaysInBounds(t *testing.T) {
	closes := []float64{
		44.34, 44.09, 44.15, 43.61, 44.33, 44.83, 45.10, 45.42,
		45.84, 46.08, 45.89, 46.03, 45.61, 46.28, 46.28, 46.00,
		46.03, 46.41, 46.22, 45.64, 46.21, 46.25, 45.71, 46.45,
	}
	rsi := CalculateRSI(closes, 14)
	require.NotNil(t, rsi)
	assert.GreaterOrEqual(t, *rsi, 0.0)
	assert.LessOrEqual(t, *rsi, 100.0)
}
