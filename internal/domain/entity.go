package domain

import (
	"sort"
	"strings"
	"time"
)

// Signal is the discrete trade recommendation for a single stock.
type Signal string

const (
	SignalBuy  Signal = "BUY"
	SignalHold Signal = "HOLD"
	SignalSell Signal = "SELL"
)

// EarningsTrend classifies the direction of a company's yearly earnings.
type EarningsTrend string

const (
	EarningsIncreasing         EarningsTrend = "INCREASING"
	EarningsRecentlyIncreasing EarningsTrend = "RECENTLY_INCREASING"
	EarningsDecreasing         EarningsTrend = "DECREASING"
	EarningsRecentlyDecreasing EarningsTrend = "RECENTLY_DECREASING"
	EarningsUnknown            EarningsTrend = "UNKNOWN"
)

// ClassifyEarningsTrend labels a chronological sequence of yearly earnings
// by its year-over-year growth: every year up, every year down, or
// whichever way the latest year moved. Fewer than two usable years is
// Unknown. Years following a zero value are skipped since growth is
// undefined there.
func ClassifyEarningsTrend(yearly []float64) EarningsTrend {
	if len(yearly) < 2 {
		return EarningsUnknown
	}

	growth := make([]float64, 0, len(yearly)-1)
	for i := 1; i < len(yearly); i++ {
		prev := yearly[i-1]
		if prev == 0 {
			continue
		}
		growth = append(growth, (yearly[i]-prev)/prev)
	}
	if len(growth) == 0 {
		return EarningsUnknown
	}

	allUp, allDown := true, true
	for _, g := range growth {
		if g <= 0 {
			allUp = false
		}
		if g >= 0 {
			allDown = false
		}
	}

	switch {
	case allUp:
		return EarningsIncreasing
	case allDown:
		return EarningsDecreasing
	case growth[len(growth)-1] > 0:
		return EarningsRecentlyIncreasing
	default:
		return EarningsRecentlyDecreasing
	}
}

// Data sources the screener knows how to talk to. Fundamentals tagged with
// one of these count as coming from a recognized provider when scoring
// data quality.
const (
	SourceYahoo        = "yahoo"
	SourceAlphaVantage = "alphavantage"
)

// IntervalWeekly is the bar interval the strategy is calibrated for.
const IntervalWeekly = "1wk"

// PriceBar is one OHLCV observation. Close drives all indicator math.
// Volume is nil when the provider did not report it (unknown, not zero).
type PriceBar struct {
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume *int64    `json:"volume,omitempty"`
}

// PriceSeries is an ordered, ascending-by-date, de-duplicated sequence of
// bars for one ticker. Producers (data sources, cache) are responsible for
// calling Normalize before handing a series to the analysis code.
type PriceSeries struct {
	Ticker    string     `json:"ticker"`
	Interval  string     `json:"interval"`
	Source    string     `json:"source"`
	FetchedAt time.Time  `json:"fetchedAt"`
	Bars      []PriceBar `json:"bars"`
}

func (s PriceSeries) Len() int { return len(s.Bars) }

// LastBar returns the most recent bar, ok=false on an empty series.
func (s PriceSeries) LastBar() (PriceBar, bool) {
	if len(s.Bars) == 0 {
		return PriceBar{}, false
	}
	return s.Bars[len(s.Bars)-1], true
}

func (s PriceSeries) Closes() []float64 {
	out := make([]float64, len(s.Bars))
	for i, b := range s.Bars {
		out[i] = b.Close
	}
	return out
}

func (s PriceSeries) Highs() []float64 {
	out := make([]float64, len(s.Bars))
	for i, b := range s.Bars {
		out[i] = b.High
	}
	return out
}

func (s PriceSeries) Lows() []float64 {
	out := make([]float64, len(s.Bars))
	for i, b := range s.Bars {
		out[i] = b.Low
	}
	return out
}

// Normalize sorts bars ascending by date and drops duplicate dates,
// keeping the later entry. Dates are compared at day granularity.
func (s *PriceSeries) Normalize() {
	if len(s.Bars) < 2 {
		return
	}
	sort.SliceStable(s.Bars, func(i, j int) bool {
		return s.Bars[i].Date.Before(s.Bars[j].Date)
	})
	deduped := s.Bars[:1]
	for _, b := range s.Bars[1:] {
		prev := &deduped[len(deduped)-1]
		if sameDay(prev.Date, b.Date) {
			*prev = b
			continue
		}
		deduped = append(deduped, b)
	}
	s.Bars = deduped
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// FundamentalsRecord is a snapshot of a company's financial metrics.
// All ratio fields are optional; nil means the provider had no usable value.
// PERatio is already resolved by the ingestion side: trailing P/E if present
// and positive, else forward P/E, else nil.
type FundamentalsRecord struct {
	Ticker            string        `json:"ticker"`
	Name              string        `json:"name,omitempty"`
	Sector            string        `json:"sector,omitempty"`
	Industry          string        `json:"industry,omitempty"`
	PERatio           *float64      `json:"peRatio,omitempty"`
	RevenueGrowth     *float64      `json:"revenueGrowth,omitempty"` // fractional, 0.12 = 12%
	ProfitMargin      *float64      `json:"profitMargin,omitempty"`  // fractional
	NetIncomePositive *bool         `json:"netIncomePositive,omitempty"`
	EarningsTrend     EarningsTrend `json:"earningsTrend,omitempty"`
	Source            string        `json:"source,omitempty"`
	UpdatedAt         time.Time     `json:"updatedAt,omitempty"`
}

// IsProfitable treats unknown profitability as not profitable.
func (f FundamentalsRecord) IsProfitable() bool {
	return f.NetIncomePositive != nil && *f.NetIncomePositive
}

// IndicatorSet holds the technical indicators evaluated at a series' last
// bar. Every boolean defaults to false when the series is too short; the
// numeric values are nil when undefined.
type IndicatorSet struct {
	AboveMAShort      bool     `json:"aboveMaShort"`
	AboveMALong       bool     `json:"aboveMaLong"`
	RSIAboveThreshold bool     `json:"rsiAboveThreshold"`
	HigherLows        bool     `json:"higherLows"`
	Near52wHigh       bool     `json:"near52wHigh"`
	Breakout          bool     `json:"breakout"`
	MAShortValue      *float64 `json:"maShortValue,omitempty"`
	MALongValue       *float64 `json:"maLongValue,omitempty"`
	CurrentRSI        *float64 `json:"currentRsi,omitempty"`
}

// AnalysisResult is one analyzed stock, ready for ranking and display.
// Created fresh per analysis call and never mutated after scoring.
type AnalysisResult struct {
	Ticker         string             `json:"ticker"`
	Name           string             `json:"name,omitempty"`
	Date           time.Time          `json:"date"`
	Price          float64            `json:"price"`
	Indicators     IndicatorSet       `json:"indicators"`
	Fundamentals   FundamentalsRecord `json:"fundamentals"`
	TechScore      int                `json:"techScore"`
	FundamentalOK  bool               `json:"fundamentalOk"`
	Signal         Signal             `json:"signal"`
	CompositeScore float64            `json:"compositeScore"`
	Rank           int                `json:"rank,omitempty"` // 1-based, assigned in batch runs
}

// ScanFailure records one ticker the batch could not analyze.
type ScanFailure struct {
	Ticker string `json:"ticker"`
	Reason string `json:"reason"`
}

// ScanSnapshot is the outcome of one batch scan: results ranked by
// composite score plus the tickers that failed.
type ScanSnapshot struct {
	Results   []AnalysisResult `json:"results"`
	Failures  []ScanFailure    `json:"failures"`
	StartedAt time.Time        `json:"startedAt"`
	UpdatedAt time.Time        `json:"updatedAt"`
}

// Watchlist is a named set of tickers the user tracks.
type Watchlist struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Tickers   []string  `json:"tickers"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NormalizeTicker canonicalizes user-entered ticker symbols.
func NormalizeTicker(t string) string {
	return strings.ToUpper(strings.TrimSpace(t))
}
