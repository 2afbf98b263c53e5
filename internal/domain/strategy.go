package domain

// IndicatorConfig holds the tunable parameters of the indicator engine.
// Defaults match the strategy's weekly-bar calibration: a 4-week short MA,
// a 40-week long MA, and a 14-period RSI.
type IndicatorConfig struct {
	ShortPeriod       int
	LongPeriod        int
	RSIPeriod         int
	RSIThreshold      float64
	NearHighThreshold float64
	// Breakout constants. Literal values carried from the strategy's
	// original calibration: recent volatility must drop below 80% of the
	// previous window while price advances more than 5%.
	VolatilityContraction float64
	BreakoutMinChange     float64
}

func DefaultIndicatorConfig() IndicatorConfig {
	return IndicatorConfig{
		ShortPeriod:           4,
		LongPeriod:            40,
		RSIPeriod:             14,
		RSIThreshold:          50,
		NearHighThreshold:     0.85,
		VolatilityContraction: 0.8,
		BreakoutMinChange:     0.05,
	}
}

// ScoringConfig holds the thresholds of the scoring engine.
type ScoringConfig struct {
	PEMax         float64
	BuyThreshold  int
	SellThreshold int
}

func DefaultScoringConfig() ScoringConfig {
	return ScoringConfig{
		PEMax:         35,
		BuyThreshold:  70,
		SellThreshold: 40,
	}
}

// StrategyConfig bundles both engines' parameters.
type StrategyConfig struct {
	Indicators IndicatorConfig
	Scoring    ScoringConfig
}

func DefaultStrategyConfig() StrategyConfig {
	return StrategyConfig{
		Indicators: DefaultIndicatorConfig(),
		Scoring:    DefaultScoringConfig(),
	}
}
