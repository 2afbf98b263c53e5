package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"stock-screener-backend/internal/domain"
)

// Config holds application configuration.
type Config struct {
	Port      int
	LogLevel  string
	LogPretty bool

	// DatabaseURL selects Postgres (Supabase) when set; otherwise the
	// cache lives in a local SQLite file.
	DatabaseURL string
	SQLitePath  string

	PreferredSource    string
	AlphaVantageAPIKey string
	DataFreshness      time.Duration

	ScanSchedule    string
	ScanOnStart     bool
	ScanConcurrency int

	NotificationCooldown time.Duration

	Strategy domain.StrategyConfig
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	strategy := domain.DefaultStrategyConfig()
	strategy.Indicators.ShortPeriod = getEnvAsInt("MA_SHORT_PERIOD", strategy.Indicators.ShortPeriod)
	strategy.Indicators.LongPeriod = getEnvAsInt("MA_LONG_PERIOD", strategy.Indicators.LongPeriod)
	strategy.Indicators.RSIPeriod = getEnvAsInt("RSI_PERIOD", strategy.Indicators.RSIPeriod)
	strategy.Indicators.RSIThreshold = getEnvAsFloat("RSI_THRESHOLD", strategy.Indicators.RSIThreshold)
	strategy.Indicators.NearHighThreshold = getEnvAsFloat("NEAR_HIGH_THRESHOLD", strategy.Indicators.NearHighThreshold)
	strategy.Indicators.VolatilityContraction = getEnvAsFloat("VOLATILITY_CONTRACTION", strategy.Indicators.VolatilityContraction)
	strategy.Indicators.BreakoutMinChange = getEnvAsFloat("BREAKOUT_MIN_CHANGE", strategy.Indicators.BreakoutMinChange)
	strategy.Scoring.PEMax = getEnvAsFloat("PE_MAX", strategy.Scoring.PEMax)
	strategy.Scoring.BuyThreshold = getEnvAsInt("BUY_THRESHOLD", strategy.Scoring.BuyThreshold)
	strategy.Scoring.SellThreshold = getEnvAsInt("SELL_THRESHOLD", strategy.Scoring.SellThreshold)

	cfg := &Config{
		Port:      getEnvAsInt("PORT", 8080),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogPretty: getEnvAsBool("LOG_PRETTY", false),

		DatabaseURL: getEnv("DATABASE_URL", ""),
		SQLitePath:  getEnv("SQLITE_PATH", "./data/screener.db"),

		PreferredSource:    getEnv("PREFERRED_SOURCE", domain.SourceYahoo),
		AlphaVantageAPIKey: getEnv("ALPHAVANTAGE_API_KEY", ""),
		DataFreshness:      getEnvAsDuration("DATA_FRESHNESS", 14*time.Hour),

		ScanSchedule:    getEnv("SCAN_SCHEDULE", "@every 6h"),
		ScanOnStart:     getEnvAsBool("SCAN_ON_START", false),
		ScanConcurrency: getEnvAsInt("SCAN_CONCURRENCY", 4),

		NotificationCooldown: getEnvAsDuration("NOTIFICATION_COOLDOWN", 6*time.Hour),

		Strategy: strategy,
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535")
	}
	if c.DatabaseURL == "" && c.SQLitePath == "" {
		return fmt.Errorf("either DATABASE_URL or SQLITE_PATH is required")
	}
	if c.ScanConcurrency < 1 {
		return fmt.Errorf("SCAN_CONCURRENCY must be at least 1")
	}

	switch c.PreferredSource {
	case domain.SourceYahoo, domain.SourceAlphaVantage:
	default:
		return fmt.Errorf("PREFERRED_SOURCE must be %q or %q", domain.SourceYahoo, domain.SourceAlphaVantage)
	}
	if c.PreferredSource == domain.SourceAlphaVantage && c.AlphaVantageAPIKey == "" {
		return fmt.Errorf("ALPHAVANTAGE_API_KEY is required when PREFERRED_SOURCE=alphavantage")
	}

	ind := c.Strategy.Indicators
	if ind.ShortPeriod < 1 || ind.LongPeriod <= ind.ShortPeriod {
		return fmt.Errorf("moving average periods must satisfy 0 < MA_SHORT_PERIOD < MA_LONG_PERIOD")
	}
	if ind.RSIPeriod < 1 {
		return fmt.Errorf("RSI_PERIOD must be at least 1")
	}
	if ind.NearHighThreshold <= 0 || ind.NearHighThreshold > 1 {
		return fmt.Errorf("NEAR_HIGH_THRESHOLD must be in (0, 1]")
	}
	if c.Strategy.Scoring.BuyThreshold <= c.Strategy.Scoring.SellThreshold {
		return fmt.Errorf("BUY_THRESHOLD must be greater than SELL_THRESHOLD")
	}

	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
