package indicators

import "gonum.org/v1/gonum/stat"

// CalculateSMA returns the simple moving average of the trailing period
// values, or nil when fewer than period values exist.
func CalculateSMA(values []float64, period int) *float64 {
	if period <= 0 || len(values) < period {
		return nil
	}
	m := stat.Mean(values[len(values)-period:], nil)
	return &m
}

// HighestHigh returns the maximum over the trailing lookback values, using
// the whole slice when it is shorter than lookback. Nil on empty input.
func HighestHigh(values []float64, lookback int) *float64 {
	if len(values) == 0 || lookback <= 0 {
		return nil
	}
	start := len(values) - lookback
	if start < 0 {
		start = 0
	}
	high := values[start]
	for _, v := range values[start+1:] {
		if v > high {
			high = v
		}
	}
	return &high
}
