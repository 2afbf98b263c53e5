package indicators

// CalculateRSI computes the Wilder-smoothed Relative Strength Index at the
// last close. Seed averages are simple means over the first period deltas;
// every later delta is folded in with avg = (avg*(period-1) + x) / period.
// A zero average loss (including a completely flat series) is defined as
// RSI 100 instead of dividing by zero. Returns nil when fewer than
// period+1 closes are available.
func CalculateRSI(closes []float64, period int) *float64 {
	if period <= 0 || len(closes) < period+1 {
		return nil
	}

	var avgGain, avgLoss float64
	for i := 1; i <= period; i++ {
		change := closes[i] - closes[i-1]
		if change > 0 {
			avgGain += change
		} else {
			avgLoss += -change
		}
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)

	for i := period + 1; i < len(closes); i++ {
		change := closes[i] - closes[i-1]
		gain, loss := 0.0, 0.0
		if change > 0 {
			gain = change
		} else {
			loss = -change
		}
		avgGain = (avgGain*float64(period-1) + gain) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)
	}

	rsi := 100.0
	if avgLoss != 0 {
		rs := avgGain / avgLoss
		rsi = 100.0 - 100.0/(1.0+rs)
	}
	return &rsi
}
