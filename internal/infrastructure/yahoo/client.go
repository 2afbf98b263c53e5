package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"stock-screener-backend/internal/domain"
)

const (
	defaultBaseURL = "https://query1.finance.yahoo.com"
	maxRetries     = 3
)

// Client fetches weekly candles and company fundamentals from Yahoo
// Finance's public chart and quoteSummary endpoints, the same data the
// yfinance library reads.
type Client struct {
	httpClient *http.Client
	baseURL    string
	retryWait  time.Duration
	log        zerolog.Logger
}

func NewClient(log zerolog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    defaultBaseURL,
		retryWait:  2 * time.Second,
		log:        log.With().Str("component", "yahoo").Logger(),
	}
}

func (c *Client) Name() string { return domain.SourceYahoo }

// yahooChart is the response structure of the chart API.
type yahooChart struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []interface{} `json:"open"`
					High   []interface{} `json:"high"`
					Low    []interface{} `json:"low"`
					Close  []interface{} `json:"close"`
					Volume []interface{} `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// yahooNumber is Yahoo's {"raw": 24.5, "fmt": "24.50"} wrapper. Missing
// values come through as an empty object, leaving Raw nil.
type yahooNumber struct {
	Raw *float64 `json:"raw"`
}

type yahooEarningsYear struct {
	Date     int         `json:"date"`
	Earnings yahooNumber `json:"earnings"`
}

// yahooQuoteSummary is the response structure of the quoteSummary API,
// limited to the modules requested in FetchFundamentals.
type yahooQuoteSummary struct {
	QuoteSummary struct {
		Result []struct {
			SummaryDetail *struct {
				TrailingPE yahooNumber `json:"trailingPE"`
				ForwardPE  yahooNumber `json:"forwardPE"`
			} `json:"summaryDetail"`
			DefaultKeyStatistics *struct {
				ForwardPE         yahooNumber `json:"forwardPE"`
				NetIncomeToCommon yahooNumber `json:"netIncomeToCommon"`
			} `json:"defaultKeyStatistics"`
			FinancialData *struct {
				RevenueGrowth yahooNumber `json:"revenueGrowth"`
				ProfitMargins yahooNumber `json:"profitMargins"`
			} `json:"financialData"`
			AssetProfile *struct {
				Sector   string `json:"sector"`
				Industry string `json:"industry"`
			} `json:"assetProfile"`
			Price *struct {
				LongName  string `json:"longName"`
				ShortName string `json:"shortName"`
			} `json:"price"`
			Earnings *struct {
				FinancialsChart struct {
					Yearly []yahooEarningsYear `json:"yearly"`
				} `json:"financialsChart"`
			} `json:"earnings"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"quoteSummary"`
}

func toFloat(v interface{}) float64 {
	f, _ := v.(float64)
	return f
}

func toVolume(v interface{}) *int64 {
	f, ok := v.(float64)
	if !ok || f <= 0 {
		return nil
	}
	n := int64(f)
	return &n
}

// FetchPriceSeries returns one year of weekly candles for a ticker.
func (c *Client) FetchPriceSeries(ctx context.Context, ticker string) (domain.PriceSeries, error) {
	ticker = domain.NormalizeTicker(ticker)
	u := fmt.Sprintf("%s/v8/finance/chart/%s?interval=%s&range=1y",
		c.baseURL, url.PathEscape(ticker), domain.IntervalWeekly)

	var chart yahooChart
	if err := c.getJSON(ctx, u, &chart); err != nil {
		return domain.PriceSeries{}, err
	}
	if chart.Chart.Error != nil {
		return domain.PriceSeries{}, fmt.Errorf("yahoo api error: %s", chart.Chart.Error.Description)
	}
	if len(chart.Chart.Result) == 0 || len(chart.Chart.Result[0].Timestamp) == 0 {
		return domain.PriceSeries{}, domain.ErrNoPriceData
	}

	result := chart.Chart.Result[0]
	if len(result.Indicators.Quote) == 0 {
		return domain.PriceSeries{}, domain.ErrNoPriceData
	}
	quote := result.Indicators.Quote[0]

	bars := make([]domain.PriceBar, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		if i >= len(quote.Close) {
			break
		}
		o := toFloat(quote.Open[i])
		h := toFloat(quote.High[i])
		l := toFloat(quote.Low[i])
		cl := toFloat(quote.Close[i])
		if o == 0 && h == 0 && l == 0 && cl == 0 {
			continue // skip null bars (holidays etc.)
		}
		bars = append(bars, domain.PriceBar{
			Date:   time.Unix(ts, 0).UTC(),
			Open:   o,
			High:   h,
			Low:    l,
			Close:  cl,
			Volume: toVolume(quote.Volume[i]),
		})
	}

	series := domain.PriceSeries{
		Ticker:    ticker,
		Interval:  domain.IntervalWeekly,
		Source:    domain.SourceYahoo,
		FetchedAt: time.Now(),
		Bars:      bars,
	}
	series.Normalize()
	return series, nil
}

// FetchFundamentals returns valuation, growth and earnings-trend data for
// a ticker. Fields Yahoo does not report stay nil.
func (c *Client) FetchFundamentals(ctx context.Context, ticker string) (domain.FundamentalsRecord, error) {
	ticker = domain.NormalizeTicker(ticker)
	u := fmt.Sprintf("%s/v10/finance/quoteSummary/%s?modules=summaryDetail,defaultKeyStatistics,financialData,assetProfile,price,earnings",
		c.baseURL, url.PathEscape(ticker))

	var summary yahooQuoteSummary
	if err := c.getJSON(ctx, u, &summary); err != nil {
		return domain.FundamentalsRecord{}, err
	}
	if summary.QuoteSummary.Error != nil {
		return domain.FundamentalsRecord{}, fmt.Errorf("yahoo api error: %s", summary.QuoteSummary.Error.Description)
	}
	if len(summary.QuoteSummary.Result) == 0 {
		return domain.FundamentalsRecord{}, fmt.Errorf("yahoo: no fundamentals for %s: %w", ticker, domain.ErrNoFundamentals)
	}

	rec := domain.FundamentalsRecord{
		Ticker:        ticker,
		EarningsTrend: domain.EarningsUnknown,
		Source:        domain.SourceYahoo,
		UpdatedAt:     time.Now(),
	}

	res := summary.QuoteSummary.Result[0]
	if p := res.Price; p != nil {
		rec.Name = p.LongName
		if rec.Name == "" {
			rec.Name = p.ShortName
		}
	}
	if a := res.AssetProfile; a != nil {
		rec.Sector = a.Sector
		rec.Industry = a.Industry
	}

	var trailing, forward *float64
	if sd := res.SummaryDetail; sd != nil {
		trailing = sd.TrailingPE.Raw
		forward = sd.ForwardPE.Raw
	}
	if ks := res.DefaultKeyStatistics; ks != nil {
		if forward == nil {
			forward = ks.ForwardPE.Raw
		}
		if ks.NetIncomeToCommon.Raw != nil {
			positive := *ks.NetIncomeToCommon.Raw > 0
			rec.NetIncomePositive = &positive
		}
	}
	rec.PERatio = resolvePE(trailing, forward)

	if fd := res.FinancialData; fd != nil {
		rec.RevenueGrowth = fd.RevenueGrowth.Raw
		rec.ProfitMargin = fd.ProfitMargins.Raw
	}
	if e := res.Earnings; e != nil {
		rec.EarningsTrend = deriveEarningsTrend(e.FinancialsChart.Yearly)
	}

	return rec, nil
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

func deriveEarningsTrend(yearly []yahooEarningsYear) domain.EarningsTrend {
	sort.Slice(yearly, func(i, j int) bool { return yearly[i].Date < yearly[j].Date })

	earnings := make([]float64, 0, len(yearly))
	for _, y := range yearly {
		if y.Earnings.Raw != nil {
			earnings = append(earnings, *y.Earnings.Raw)
		}
	}
	return domain.ClassifyEarningsTrend(earnings)
}

// getJSON fetches a URL and decodes the JSON body. Rate limits and server
// errors are retried with exponential backoff; other failures return
// immediately.
func (c *Client) getJSON(ctx context.Context, u string, out interface{}) error {
	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			wait := c.retryWait * time.Duration(1<<(attempt-1))
			c.log.Warn().Err(lastErr).Dur("wait", wait).Int("attempt", attempt).Msg("Yahoo request failed, retrying")
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
		req.Header.Set("User-Agent", "Mozilla/5.0")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("yahoo fetch: %w", err)
			continue
		}
		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("yahoo read body: %w", err)
			continue
		}
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			lastErr = fmt.Errorf("yahoo: status %d", resp.StatusCode)
			continue
		}
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("yahoo: status %d, body: %s", resp.StatusCode, string(body))
		}

		if err := json.Unmarshal(body, out); err != nil {
			return fmt.Errorf("yahoo decode: %w", err)
		}
		return nil
	}
	return lastErr
}
