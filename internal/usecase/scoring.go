package usecase

import (
	"stock-screener-backend/internal/domain"
)

// Technical score weights. Trend confirmation via the long MA dominates;
// momentum and pattern confirmations are secondary.
const (
	pointsAboveMALong  = 30
	pointsAboveMAShort = 15
	pointsRSI          = 15
	pointsHigherLows   = 15
	pointsNear52wHigh  = 15
	pointsBreakout     = 10
)

// Composite score weights. Tuned for cross-stock ranking, not for the
// Buy/Hold/Sell signal.
const (
	weightTechnical   = 0.40
	weightFundamental = 0.30
	weightMomentum    = 0.20
	weightQuality     = 0.10
)

// TechnicalScore sums the fixed point allocation over the six indicator
// booleans. Pure weighted addition: always in [0,100], input order
// irrelevant.
func TechnicalScore(ind domain.IndicatorSet) int {
	score := 0
	if ind.AboveMALong {
		score += pointsAboveMALong
	}
	if ind.AboveMAShort {
		score += pointsAboveMAShort
	}
	if ind.RSIAboveThreshold {
		score += pointsRSI
	}
	if ind.HigherLows {
		score += pointsHigherLows
	}
	if ind.Near52wHigh {
		score += pointsNear52wHigh
	}
	if ind.Breakout {
		score += pointsBreakout
	}
	return score
}

// FundamentalCheck gates the buy signal: the company must be profitable
// (unknown counts as not profitable) and show either a reasonable
// valuation or growing revenue. A missing P/E passes the valuation leg;
// missing revenue growth fails the growth leg.
func FundamentalCheck(f domain.FundamentalsRecord, cfg domain.ScoringConfig) bool {
	if !f.IsProfitable() {
		return false
	}

	peOK := f.PERatio == nil || *f.PERatio < cfg.PEMax
	growthOK := f.RevenueGrowth != nil && *f.RevenueGrowth > 0

	return peOK || growthOK
}

// ClassifySignal derives the trade signal. Buy needs a high score,
// confirmed fundamentals and an intact long trend; sell triggers on either
// a weak score or a broken long trend. A true sell condition is never
// softened to Hold.
func ClassifySignal(techScore int, aboveMALong bool, fundamentalOK bool, cfg domain.ScoringConfig) domain.Signal {
	buySignal := techScore >= cfg.BuyThreshold && fundamentalOK && aboveMALong
	sellSignal := techScore < cfg.SellThreshold || !aboveMALong

	switch {
	case buySignal:
		return domain.SignalBuy
	case sellSignal:
		return domain.SignalSell
	default:
		return domain.SignalHold
	}
}

// CompositeScore blends four 0-100 sub-scores into the ranking score:
// 40% technical, 30% fundamental, 20% momentum, 10% data quality.
func CompositeScore(res domain.AnalysisResult) float64 {
	score := weightTechnical*float64(res.TechScore) +
		weightFundamental*fundamentalSubScore(res.Fundamentals) +
		weightMomentum*momentumSubScore(res.Indicators) +
		weightQuality*qualitySubScore(res.Fundamentals)

	return clampScore(score)
}

// fundamentalSubScore rates the fundamentals on their own 0-100 scale.
// Profitability: 0-20. Valuation: 0-20. Revenue growth: 0-15.
// Margin: 0-15. Earnings trend: 0-30.
func fundamentalSubScore(f domain.FundamentalsRecord) float64 {
	score := 0.0

	if f.IsProfitable() {
		score += 20
	}

	// Reasonable P/E gets full credit; a very low but positive P/E only
	// half, since it often prices in trouble.
	if f.PERatio != nil {
		pe := *f.PERatio
		if pe >= 5 && pe <= 25 {
			score += 20
		} else if pe > 0 && pe < 5 {
			score += 10
		}
	}

	if f.RevenueGrowth != nil {
		if *f.RevenueGrowth > 0.10 {
			score += 15
		} else if *f.RevenueGrowth > 0.05 {
			score += 10
		}
	}

	if f.ProfitMargin != nil {
		if *f.ProfitMargin > 0.15 {
			score += 15
		} else if *f.ProfitMargin > 0.05 {
			score += 10
		}
	}

	switch f.EarningsTrend {
	case domain.EarningsIncreasing:
		score += 30
	case domain.EarningsRecentlyIncreasing:
		score += 20
	}

	return clampScore(score)
}

// momentumSubScore re-weights the indicator booleans for ranking, where
// both moving averages and RSI carry equal weight.
func momentumSubScore(ind domain.IndicatorSet) float64 {
	score := 0.0
	if ind.AboveMALong {
		score += 25
	}
	if ind.AboveMAShort {
		score += 25
	}
	if ind.RSIAboveThreshold {
		score += 25
	}
	if ind.HigherLows {
		score += 10
	}
	if ind.Near52wHigh {
		score += 10
	}
	if ind.Breakout {
		score += 5
	}
	return clampScore(score)
}

// qualitySubScore rates how much the fundamentals can be trusted: a
// recognized provider and populated key ratios raise it above the base.
func qualitySubScore(f domain.FundamentalsRecord) float64 {
	score := 50.0

	if f.Source == domain.SourceYahoo || f.Source == domain.SourceAlphaVantage {
		score += 20
	}
	if f.PERatio != nil {
		score += 15
	}
	if f.RevenueGrowth != nil {
		score += 15
	}

	return clampScore(score)
}

func clampScore(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
