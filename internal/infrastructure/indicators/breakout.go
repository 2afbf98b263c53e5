package indicators

import "gonum.org/v1/gonum/stat"

// consolidationWindow is the size of each volatility window: the most
// recent bars versus the bars immediately before them.
const consolidationWindow = 6

// DetectBreakout reports a breakout from consolidation: the mean bar range
// of the recent window contracted below contraction times the previous
// window's mean while the close advanced more than minChange over the
// recent window. A series shorter than two windows, or any undefined ratio
// (zero low, zero reference close), yields false.
func DetectBreakout(highs, lows, closes []float64, contraction, minChange float64) bool {
	n := len(closes)
	if n < 2*consolidationWindow || len(highs) < n || len(lows) < n {
		return false
	}

	rangePct := make([]float64, 2*consolidationWindow)
	for i := range rangePct {
		idx := n - 2*consolidationWindow + i
		if lows[idx] <= 0 {
			return false
		}
		rangePct[i] = (highs[idx] - lows[idx]) / lows[idx]
	}

	previous := stat.Mean(rangePct[:consolidationWindow], nil)
	recent := stat.Mean(rangePct[consolidationWindow:], nil)

	ref := closes[n-consolidationWindow]
	if ref <= 0 {
		return false
	}
	change := (closes[n-1] - ref) / ref

	return recent < previous*contraction && change > minChange
}
