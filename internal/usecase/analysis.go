package usecase

import (
	"stock-screener-backend/internal/domain"
	"stock-screener-backend/internal/infrastructure/indicators"
)

// yearHighLookback is the number of trailing bars scanned for the 52-week
// high on weekly data.
const yearHighLookback = 52

// higherLowsLookback is the size of the trailing window, excluding the
// last bar, examined for the higher-lows pattern.
const higherLowsLookback = 12

// ComputeIndicators evaluates the technical indicators at the series' last
// bar. A series shorter than the long MA period returns an IndicatorSet
// with every boolean false and every value nil: there is not enough
// history to judge the trend, and the policy is "assume bearish" rather
// than fail. No bar after the last one is ever consulted.
func ComputeIndicators(series domain.PriceSeries, cfg domain.IndicatorConfig) domain.IndicatorSet {
	var set domain.IndicatorSet

	n := series.Len()
	if n < cfg.LongPeriod {
		return set
	}

	closes := series.Closes()
	highs := series.Highs()
	lows := series.Lows()
	lastClose := closes[n-1]

	set.MAShortValue = indicators.CalculateSMA(closes, cfg.ShortPeriod)
	set.MALongValue = indicators.CalculateSMA(closes, cfg.LongPeriod)
	set.AboveMAShort = set.MAShortValue != nil && lastClose > *set.MAShortValue
	set.AboveMALong = set.MALongValue != nil && lastClose > *set.MALongValue

	set.CurrentRSI = indicators.CalculateRSI(closes, cfg.RSIPeriod)
	set.RSIAboveThreshold = set.CurrentRSI != nil && *set.CurrentRSI > cfg.RSIThreshold

	// The pattern window stops one bar short of "now" so a forming bar
	// cannot count as a trough.
	start := n - 1 - higherLowsLookback
	if start < 0 {
		start = 0
	}
	set.HigherLows = indicators.HasHigherLows(lows[start : n-1])

	if high := indicators.HighestHigh(highs, yearHighLookback); high != nil {
		set.Near52wHigh = lastClose > *high*cfg.NearHighThreshold
	}

	set.Breakout = indicators.DetectBreakout(highs, lows, closes,
		cfg.VolatilityContraction, cfg.BreakoutMinChange)

	return set
}

// AnalyzeSeries runs the full single-stock pipeline: indicators, scores and
// signal. It is pure; fetching and caching happen upstream.
func AnalyzeSeries(ticker string, series domain.PriceSeries, fundamentals domain.FundamentalsRecord, cfg domain.StrategyConfig) domain.AnalysisResult {
	res := domain.AnalysisResult{
		Ticker:       ticker,
		Name:         fundamentals.Name,
		Fundamentals: fundamentals,
	}

	if last, ok := series.LastBar(); ok {
		res.Date = last.Date
		res.Price = last.Close
	}

	res.Indicators = ComputeIndicators(series, cfg.Indicators)
	res.TechScore = TechnicalScore(res.Indicators)
	res.FundamentalOK = FundamentalCheck(fundamentals, cfg.Scoring)
	res.Signal = ClassifySignal(res.TechScore, res.Indicators.AboveMALong, res.FundamentalOK, cfg.Scoring)
	res.CompositeScore = CompositeScore(res)

	return res
}
