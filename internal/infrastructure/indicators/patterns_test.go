package indicators

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFindLocalLows(t *testing.T) {
	tests := []struct {
		name string
		lows []float64
		want []float64
	}{
		{"two lows", []float64{5, 3, 4, 2, 6, 7}, []float64{3, 2}},
		{"monotonic has none", []float64{1, 2, 3, 4, 5}, nil},
		{"plateau is not a low", []float64{5, 3, 3, 4}, nil},
		{"endpoints never qualify", []float64{1, 5, 2}, nil},
		{"too short", []float64{2, 1}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FindLocalLows(tt.lows))
		})
	}
}

func TestHasHigherLows(t *testing.T) {
	tests := []struct {
		name string
		lows []float64
		want bool
	}{
		{"rising lows", []float64{5, 3, 4, 3.5, 5, 4.8, 6}, true},
		{"three rising lows", []float64{9, 4, 6, 5, 7, 6, 8}, true},
		{"falling lows", []float64{5, 3, 4, 2, 6, 7}, false},
		{"equal lows are not higher", []float64{5, 3, 4, 3, 5}, false},
		{"single low", []float64{5, 3, 4, 5, 6}, false},
		{"no lows at all", []float64{1, 2, 3, 4, 5, 6}, false},
		{"empty window", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HasHigherLows(tt.lows))
		})
	}
}
