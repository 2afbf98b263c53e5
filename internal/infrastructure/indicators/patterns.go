package indicators

// FindLocalLows returns the values of strict local minima in chronological
// order. A point qualifies when it is strictly below both immediate
// neighbors; the first and last points never qualify.
func FindLocalLows(lows []float64) []float64 {
	var found []float64
	for i := 1; i < len(lows)-1; i++ {
		if lows[i] < lows[i-1] && lows[i] < lows[i+1] {
			found = append(found, lows[i])
		}
	}
	return found
}

// HasHigherLows reports whether the window contains at least two local
// lows that increase strictly from each one to the next.
func HasHigherLows(lows []float64) bool {
	found := FindLocalLows(lows)
	if len(found) < 2 {
		return false
	}
	for i := 1; i < len(found); i++ {
		if found[i] <= found[i-1] {
			return false
		}
	}
	return true
}
