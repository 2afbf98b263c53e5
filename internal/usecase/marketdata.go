package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"stock-screener-backend/internal/domain"
)

// MarketDataUsecase serves price and fundamentals data through a local
// cache. Fresh cache entries are returned without touching the network;
// otherwise the primary source is tried, then the fallback, and if both
// fail a stale cache entry still beats an error.
type MarketDataUsecase struct {
	store     domain.MarketDataStore
	primary   domain.MarketDataSource
	fallback  domain.MarketDataSource // optional
	freshness time.Duration
	log       zerolog.Logger
}

func NewMarketDataUsecase(
	store domain.MarketDataStore,
	primary domain.MarketDataSource,
	fallback domain.MarketDataSource,
	freshness time.Duration,
	log zerolog.Logger,
) *MarketDataUsecase {
	if freshness <= 0 {
		freshness = 14 * time.Hour
	}
	return &MarketDataUsecase{
		store:     store,
		primary:   primary,
		fallback:  fallback,
		freshness: freshness,
		log:       log.With().Str("component", "marketdata").Logger(),
	}
}

// GetStockData returns the weekly price series and fundamentals for a
// ticker. Fundamentals are best effort: when they cannot be fetched the
// zero record is returned and analysis degrades to neutral, only missing
// prices fail the call.
func (uc *MarketDataUsecase) GetStockData(ctx context.Context, ticker string) (domain.PriceSeries, domain.FundamentalsRecord, error) {
	ticker = domain.NormalizeTicker(ticker)

	cached, cacheErr := uc.store.GetPriceSeries(ctx, ticker, domain.IntervalWeekly)
	if cacheErr == nil && cached.Len() > 0 && time.Since(cached.FetchedAt) < uc.freshness {
		return cached, uc.loadCachedFundamentals(ctx, ticker), nil
	}

	series, src, err := uc.fetchPrices(ctx, ticker)
	if err != nil {
		if cacheErr == nil && cached.Len() > 0 {
			uc.log.Warn().Err(err).Str("ticker", ticker).Msg("All sources failed, serving stale cache")
			return cached, uc.loadCachedFundamentals(ctx, ticker), nil
		}
		return domain.PriceSeries{}, domain.FundamentalsRecord{}, err
	}

	series.Normalize()
	if saveErr := uc.store.SavePriceSeries(ctx, series); saveErr != nil {
		uc.log.Warn().Err(saveErr).Str("ticker", ticker).Msg("Failed to cache price series")
	}

	return series, uc.refreshFundamentals(ctx, ticker, src), nil
}

// fetchPrices tries the primary source first and falls back to the
// secondary. A source answering with zero bars counts as a failure so the
// next source still gets a chance.
func (uc *MarketDataUsecase) fetchPrices(ctx context.Context, ticker string) (domain.PriceSeries, domain.MarketDataSource, error) {
	series, err := uc.primary.FetchPriceSeries(ctx, ticker)
	if err == nil && series.Len() > 0 {
		return series, uc.primary, nil
	}
	if err == nil {
		err = domain.ErrNoPriceData
	}
	primaryErr := fmt.Errorf("%s: %w", uc.primary.Name(), err)

	if uc.fallback == nil {
		return domain.PriceSeries{}, nil, primaryErr
	}

	uc.log.Warn().Err(primaryErr).Str("ticker", ticker).Msg("Primary source failed, trying fallback")

	series, err = uc.fallback.FetchPriceSeries(ctx, ticker)
	if err == nil && series.Len() > 0 {
		return series, uc.fallback, nil
	}
	if err == nil {
		err = domain.ErrNoPriceData
	}
	return domain.PriceSeries{}, nil, fmt.Errorf("%v; %s: %w", primaryErr, uc.fallback.Name(), err)
}

func (uc *MarketDataUsecase) refreshFundamentals(ctx context.Context, ticker string, src domain.MarketDataSource) domain.FundamentalsRecord {
	rec, err := src.FetchFundamentals(ctx, ticker)
	if err != nil {
		uc.log.Warn().Err(err).Str("ticker", ticker).Str("source", src.Name()).Msg("Fundamentals fetch failed, falling back to cache")
		return uc.loadCachedFundamentals(ctx, ticker)
	}

	if saveErr := uc.store.SaveFundamentals(ctx, rec); saveErr != nil {
		uc.log.Warn().Err(saveErr).Str("ticker", ticker).Msg("Failed to cache fundamentals")
	}
	return rec
}

func (uc *MarketDataUsecase) loadCachedFundamentals(ctx context.Context, ticker string) domain.FundamentalsRecord {
	rec, err := uc.store.GetFundamentals(ctx, ticker)
	if err != nil {
		return domain.FundamentalsRecord{Ticker: ticker}
	}
	return rec
}
