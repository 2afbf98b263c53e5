package alphavantage

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"stock-screener-backend/internal/domain"
)

const (
	defaultBaseURL = "https://www.alphavantage.co/query"

	// maxBars caps how much weekly history is kept. Alpha Vantage always
	// returns the full series; two years is plenty for every indicator
	// window.
	maxBars = 104

	// maxRetries is lower than Yahoo's: the free tier has a daily quota,
	// so hammering a 429 buys nothing.
	maxRetries = 2
)

// Client is the Alpha Vantage fallback data source. Without an API key it
// stays wired but disabled, answering every call with ErrSourceDisabled.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	retryWait  time.Duration
	log        zerolog.Logger
}

func NewClient(apiKey string, log zerolog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    defaultBaseURL,
		apiKey:     apiKey,
		retryWait:  2 * time.Second,
		log:        log.With().Str("component", "alphavantage").Logger(),
	}
}

func (c *Client) Name() string { return domain.SourceAlphaVantage }

// avBar mirrors Alpha Vantage's stringly-typed OHLCV fields.
type avBar struct {
	Open   string `json:"1. open"`
	High   string `json:"2. high"`
	Low    string `json:"3. low"`
	Close  string `json:"4. close"`
	Volume string `json:"6. volume"`
}

type avOverview struct {
	Symbol                    string `json:"Symbol"`
	Name                      string `json:"Name"`
	Sector                    string `json:"Sector"`
	Industry                  string `json:"Industry"`
	PERatio                   string `json:"PERatio"`
	ForwardPE                 string `json:"ForwardPE"`
	ProfitMargin              string `json:"ProfitMargin"`
	QuarterlyRevenueGrowthYOY string `json:"QuarterlyRevenueGrowthYOY"`
	EPS                       string `json:"EPS"`

	Note        string `json:"Note"`
	Information string `json:"Information"`
}

type avEarnings struct {
	AnnualEarnings []struct {
		FiscalDateEnding string `json:"fiscalDateEnding"`
		ReportedEPS      string `json:"reportedEPS"`
	} `json:"annualEarnings"`

	Note        string `json:"Note"`
	Information string `json:"Information"`
}

// FetchPriceSeries returns up to two years of weekly candles for a ticker.
func (c *Client) FetchPriceSeries(ctx context.Context, ticker string) (domain.PriceSeries, error) {
	if c.apiKey == "" {
		return domain.PriceSeries{}, domain.ErrSourceDisabled
	}
	ticker = domain.NormalizeTicker(ticker)

	var payload map[string]json.RawMessage
	if err := c.getJSON(ctx, c.queryURL("TIME_SERIES_WEEKLY_ADJUSTED", ticker), &payload); err != nil {
		return domain.PriceSeries{}, err
	}
	if err := apiError(payload); err != nil {
		return domain.PriceSeries{}, err
	}

	// The time series key names its interval ("Weekly Adjusted Time
	// Series"), so it has to be found rather than addressed.
	var rawSeries json.RawMessage
	for key, raw := range payload {
		if strings.Contains(key, "Time Series") {
			rawSeries = raw
			break
		}
	}
	if rawSeries == nil {
		return domain.PriceSeries{}, domain.ErrNoPriceData
	}

	byDate := make(map[string]avBar)
	if err := json.Unmarshal(rawSeries, &byDate); err != nil {
		return domain.PriceSeries{}, fmt.Errorf("alphavantage decode: %w", err)
	}

	bars := make([]domain.PriceBar, 0, len(byDate))
	for dateStr, bar := range byDate {
		date, err := time.Parse("2006-01-02", dateStr)
		if err != nil {
			continue
		}
		cl := parseNumber(bar.Close)
		if cl == nil || *cl <= 0 {
			continue
		}
		b := domain.PriceBar{Date: date, Close: *cl}
		if o := parseNumber(bar.Open); o != nil {
			b.Open = *o
		}
		if h := parseNumber(bar.High); h != nil {
			b.High = *h
		}
		if l := parseNumber(bar.Low); l != nil {
			b.Low = *l
		}
		if v, err := strconv.ParseInt(strings.TrimSpace(bar.Volume), 10, 64); err == nil && v > 0 {
			b.Volume = &v
		}
		bars = append(bars, b)
	}
	if len(bars) == 0 {
		return domain.PriceSeries{}, domain.ErrNoPriceData
	}

	series := domain.PriceSeries{
		Ticker:    ticker,
		Interval:  domain.IntervalWeekly,
		Source:    domain.SourceAlphaVantage,
		FetchedAt: time.Now(),
		Bars:      bars,
	}
	series.Normalize()
	if len(series.Bars) > maxBars {
		series.Bars = series.Bars[len(series.Bars)-maxBars:]
	}
	return series, nil
}

// FetchFundamentals returns the company overview mapped into a
// fundamentals record. The earnings trend comes from a second call to the
// EARNINGS endpoint and degrades to Unknown when that call fails.
func (c *Client) FetchFundamentals(ctx context.Context, ticker string) (domain.FundamentalsRecord, error) {
	if c.apiKey == "" {
		return domain.FundamentalsRecord{}, domain.ErrSourceDisabled
	}
	ticker = domain.NormalizeTicker(ticker)

	var ov avOverview
	if err := c.getJSON(ctx, c.queryURL("OVERVIEW", ticker), &ov); err != nil {
		return domain.FundamentalsRecord{}, err
	}
	if err := rateLimited(ov.Note, ov.Information); err != nil {
		return domain.FundamentalsRecord{}, err
	}
	if ov.Symbol == "" {
		return domain.FundamentalsRecord{}, fmt.Errorf("alphavantage: no overview for %s: %w", ticker, domain.ErrNoFundamentals)
	}

	rec := domain.FundamentalsRecord{
		Ticker:        ticker,
		Name:          ov.Name,
		Sector:        ov.Sector,
		Industry:      ov.Industry,
		EarningsTrend: domain.EarningsUnknown,
		Source:        domain.SourceAlphaVantage,
		UpdatedAt:     time.Now(),
	}
	rec.PERatio = resolvePE(parseNumber(ov.PERatio), parseNumber(ov.ForwardPE))
	rec.RevenueGrowth = parseNumber(ov.QuarterlyRevenueGrowthYOY)
	rec.ProfitMargin = parseNumber(ov.ProfitMargin)
	if eps := parseNumber(ov.EPS); eps != nil {
		positive := *eps > 0
		rec.NetIncomePositive = &positive
	}

	if trend, err := c.fetchEarningsTrend(ctx, ticker); err != nil {
		c.log.Warn().Err(err).Str("ticker", ticker).Msg("Earnings history unavailable")
	} else {
		rec.EarningsTrend = trend
	}

	return rec, nil
}

func (c *Client) fetchEarningsTrend(ctx context.Context, ticker string) (domain.EarningsTrend, error) {
	var earnings avEarnings
	if err := c.getJSON(ctx, c.queryURL("EARNINGS", ticker), &earnings); err != nil {
		return domain.EarningsUnknown, err
	}
	if err := rateLimited(earnings.Note, earnings.Information); err != nil {
		return domain.EarningsUnknown, err
	}

	annual := earnings.AnnualEarnings
	sort.Slice(annual, func(i, j int) bool {
		return annual[i].FiscalDateEnding < annual[j].FiscalDateEnding
	})

	values := make([]float64, 0, len(annual))
	for _, y := range annual {
		if eps := parseNumber(y.ReportedEPS); eps != nil {
			values = append(values, *eps)
		}
	}
	return domain.ClassifyEarningsTrend(values), nil
}

func (c *Client) queryURL(function, ticker string) string {
	return fmt.Sprintf("%s?function=%s&symbol=%s&apikey=%s",
		c.baseURL, function, url.QueryEscape(ticker), url.QueryEscape(c.apiKey))
}

// getJSON fetches a URL and decodes the JSON body. Rate limits and server
// errors are retried with exponential backoff; other failures return
// immediately.
func (c *Client) getJSON(ctx context.Context, u string, out interface{}) error {
	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			wait := c.retryWait * time.Duration(1<<(attempt-1))
			c.log.Warn().Err(lastErr).Dur("wait", wait).Int("attempt", attempt).Msg("Alpha Vantage request failed, retrying")
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return err
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("alphavantage fetch: %w", err)
			continue
		}
		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("alphavantage read body: %w", err)
			continue
		}
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			lastErr = fmt.Errorf("alphavantage: status %d", resp.StatusCode)
			continue
		}
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("alphavantage: status %d, body: %s", resp.StatusCode, string(body))
		}

		if err := json.Unmarshal(body, out); err != nil {
			return fmt.Errorf("alphavantage decode: %w", err)
		}
		return nil
	}
	return lastErr
}

// apiError surfaces the throttle and error payloads Alpha Vantage hides
// inside an HTTP 200 response.
func apiError(payload map[string]json.RawMessage) error {
	var note, info, errMsg string
	if raw, ok := payload["Note"]; ok {
		_ = json.Unmarshal(raw, &note)
	}
	if raw, ok := payload["Information"]; ok {
		_ = json.Unmarshal(raw, &info)
	}
	if err := rateLimited(note, info); err != nil {
		return err
	}
	if raw, ok := payload["Error Message"]; ok {
		_ = json.Unmarshal(raw, &errMsg)
		return fmt.Errorf("alphavantage: %s", errMsg)
	}
	return nil
}

func rateLimited(note, information string) error {
	if note != "" {
		return fmt.Errorf("alphavantage throttled: %s", note)
	}
	if information != "" {
		return fmt.Errorf("alphavantage throttled: %s", information)
	}
	return nil
}

// parseNumber converts Alpha Vantage's stringly-typed numbers. Missing
// values come through as "None", "-" or an empty string.
func parseNumber(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" || s == "None" || s == "-" {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &f
}

// resolvePE prefers the trailing P/E and falls back to the forward one.
// Zero and negative ratios carry no valuation meaning and are dropped.
func resolvePE(trailing, forward *float64) *float64 {
	if trailing != nil && *trailing > 0 {
		return trailing
	}
	if forward != nil && *forward > 0 {
		return forward
	}
	return nil
}
