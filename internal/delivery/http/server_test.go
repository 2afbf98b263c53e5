package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stock-screener-backend/internal/domain"
	"stock-screener-backend/internal/infrastructure/db"
	"stock-screener-backend/internal/repository"
	"stock-screener-backend/internal/usecase"
)

type stubProvider struct {
	series map[string]domain.PriceSeries
	delay  time.Duration
}

func (p *stubProvider) GetStockData(ctx context.Context, ticker string) (domain.PriceSeries, domain.FundamentalsRecord, error) {
	if p.delay > 0 {
		time.Sleep(p.delay)
	}
	series, ok := p.series[ticker]
	if !ok {
		return domain.PriceSeries{}, domain.FundamentalsRecord{}, domain.ErrNoPriceData
	}
	return series, domain.FundamentalsRecord{Ticker: ticker}, nil
}

func stubSeries(n int) domain.PriceSeries {
	start := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)
	bars := make([]domain.PriceBar, n)
	for i := range bars {
		c := 100 + float64(i)
		bars[i] = domain.PriceBar{Date: start.AddDate(0, 0, 7*i), Open: c, High: c + 1, Low: c - 1, Close: c}
	}
	return domain.PriceSeries{Ticker: "STUB", Interval: domain.IntervalWeekly, Bars: bars}
}

type testEnv struct {
	srv        *Server
	screener   *usecase.ScreenerUsecase
	watchlists *usecase.WatchlistUsecase
	results    *repository.InMemoryResultRepository
	tokens     *repository.TokenRepository
}

func newTestEnv(t *testing.T, provider domain.MarketDataProvider) *testEnv {
	t.Helper()

	sqlDB, err := db.OpenSQLite(filepath.Join(t.TempDir(), "screener.db"))
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, db.MigrateSQLite(sqlDB))

	log := zerolog.Nop()
	results := repository.NewInMemoryResultRepository()
	tokens := repository.NewTokenRepository()
	watchlists := usecase.NewWatchlistUsecase(repository.NewSQLiteWatchlistRepository(sqlDB), log)
	screener := usecase.NewScreenerUsecase(provider, results, watchlists, tokens, nil, usecase.ScreenerConfig{
		Strategy:    domain.DefaultStrategyConfig(),
		Concurrency: 2,
	}, log)

	srv := New(Config{
		Port:          0,
		Log:           log,
		Screener:      NewScreenerHandler(screener, results, watchlists, log),
		Watchlists:    NewWatchlistHandler(watchlists, log),
		Tokens:        NewTokenHandler(tokens, log),
		Notifications: NewNotificationHandler(nil, tokens, log),
		WebSocket:     func(w http.ResponseWriter, r *http.Request) {},
	})

	return &testEnv{srv: srv, screener: screener, watchlists: watchlists, results: results, tokens: tokens}
}

func (e *testEnv) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	e.srv.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v))
	return v
}

func TestHealthz(t *testing.T) {
	env := newTestEnv(t, &stubProvider{})

	rec := env.do(t, http.MethodGet, "/healthz", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody[map[string]string](t, rec)
	assert.Equal(t, "ok", body["status"])
}

func TestGetResults(t *testing.T) {
	env := newTestEnv(t, &stubProvider{})
	env.results.SaveSnapshot(domain.ScanSnapshot{
		Results:   []domain.AnalysisResult{{Ticker: "AAPL", Rank: 1, CompositeScore: 72}},
		Failures:  []domain.ScanFailure{},
		UpdatedAt: time.Now(),
	})

	rec := env.do(t, http.MethodGet, "/api/screener/results", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	snap := decodeBody[domain.ScanSnapshot](t, rec)
	require.Len(t, snap.Results, 1)
	assert.Equal(t, "AAPL", snap.Results[0].Ticker)
}

func TestAnalyzeTicker(t *testing.T) {
	env := newTestEnv(t, &stubProvider{series: map[string]domain.PriceSeries{"AAPL": stubSeries(52)}})

	rec := env.do(t, http.MethodGet, "/api/stocks/aapl/analysis", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	res := decodeBody[domain.AnalysisResult](t, rec)
	assert.Equal(t, "AAPL", res.Ticker)
	assert.NotEmpty(t, res.Signal)
}

func TestAnalyzeTickerUpstreamFailure(t *testing.T) {
	env := newTestEnv(t, &stubProvider{})

	rec := env.do(t, http.MethodGet, "/api/stocks/NOPE/analysis", nil)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestTriggerScanRequiresTickers(t *testing.T) {
	env := newTestEnv(t, &stubProvider{})

	rec := env.do(t, http.MethodPost, "/api/screener/scan", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTriggerScanExplicitTickers(t *testing.T) {
	env := newTestEnv(t, &stubProvider{series: map[string]domain.PriceSeries{"AAPL": stubSeries(52)}})

	rec := env.do(t, http.MethodPost, "/api/screener/scan", scanRequest{Tickers: []string{"AAPL"}})
	require.Equal(t, http.StatusAccepted, rec.Code)

	body := decodeBody[scanStartedResponse](t, rec)
	assert.Equal(t, "scan started", body.Status)
	assert.Equal(t, 1, body.Tickers)

	require.Eventually(t, func() bool {
		return len(env.results.GetSnapshot().Results) == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestTriggerScanConflict(t *testing.T) {
	env := newTestEnv(t, &stubProvider{
		series: map[string]domain.PriceSeries{"AAPL": stubSeries(52)},
		delay:  100 * time.Millisecond,
	})

	first := env.do(t, http.MethodPost, "/api/screener/scan", scanRequest{Tickers: []string{"AAPL"}})
	require.Equal(t, http.StatusAccepted, first.Code)

	second := env.do(t, http.MethodPost, "/api/screener/scan", scanRequest{Tickers: []string{"AAPL"}})
	assert.Equal(t, http.StatusConflict, second.Code)

	require.Eventually(t, func() bool { return !env.screener.IsScanning() }, 2*time.Second, 10*time.Millisecond)
}

func TestTriggerScanByWatchlist(t *testing.T) {
	env := newTestEnv(t, &stubProvider{series: map[string]domain.PriceSeries{"AAPL": stubSeries(52)}})

	created := env.do(t, http.MethodPost, "/api/watchlists", watchlistNameRequest{Name: "Tech"})
	require.Equal(t, http.StatusCreated, created.Code)
	wl := decodeBody[domain.Watchlist](t, created)

	added := env.do(t, http.MethodPost, "/api/watchlists/"+wl.ID+"/tickers", watchlistTickerRequest{Ticker: "AAPL"})
	require.Equal(t, http.StatusOK, added.Code)

	rec := env.do(t, http.MethodPost, "/api/screener/scan", scanRequest{WatchlistID: wl.ID})
	require.Equal(t, http.StatusAccepted, rec.Code)
	body := decodeBody[scanStartedResponse](t, rec)
	assert.Equal(t, 1, body.Tickers)

	require.Eventually(t, func() bool { return !env.screener.IsScanning() }, 2*time.Second, 10*time.Millisecond)
}

func TestTriggerScanUnknownWatchlist(t *testing.T) {
	env := newTestEnv(t, &stubProvider{})

	rec := env.do(t, http.MethodPost, "/api/screener/scan", scanRequest{WatchlistID: "nope"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestWatchlistLifecycle(t *testing.T) {
	env := newTestEnv(t, &stubProvider{})

	// Create
	created := env.do(t, http.MethodPost, "/api/watchlists", watchlistNameRequest{Name: "Growth"})
	require.Equal(t, http.StatusCreated, created.Code)
	wl := decodeBody[domain.Watchlist](t, created)
	assert.NotEmpty(t, wl.ID)

	// List
	listed := env.do(t, http.MethodGet, "/api/watchlists", nil)
	require.Equal(t, http.StatusOK, listed.Code)
	lists := decodeBody[watchlistsResponse](t, listed)
	require.Len(t, lists.Watchlists, 1)

	// Add tickers
	added := env.do(t, http.MethodPost, "/api/watchlists/"+wl.ID+"/tickers", watchlistTickerRequest{Ticker: " msft "})
	require.Equal(t, http.StatusOK, added.Code)
	withTicker := decodeBody[domain.Watchlist](t, added)
	assert.Equal(t, []string{"MSFT"}, withTicker.Tickers)

	// Rename
	renamed := env.do(t, http.MethodPatch, "/api/watchlists/"+wl.ID, watchlistNameRequest{Name: "Value"})
	require.Equal(t, http.StatusOK, renamed.Code)
	assert.Equal(t, "Value", decodeBody[domain.Watchlist](t, renamed).Name)

	// Activate
	activated := env.do(t, http.MethodPut, "/api/watchlists/active", watchlistActiveRequest{ID: wl.ID})
	require.Equal(t, http.StatusNoContent, activated.Code)

	active := env.do(t, http.MethodGet, "/api/watchlists/active", nil)
	require.Equal(t, http.StatusOK, active.Code)
	assert.Equal(t, wl.ID, decodeBody[domain.Watchlist](t, active).ID)

	// Remove ticker
	removed := env.do(t, http.MethodDelete, "/api/watchlists/"+wl.ID+"/tickers/MSFT", nil)
	require.Equal(t, http.StatusOK, removed.Code)
	assert.Empty(t, decodeBody[domain.Watchlist](t, removed).Tickers)

	// Delete
	deleted := env.do(t, http.MethodDelete, "/api/watchlists/"+wl.ID, nil)
	require.Equal(t, http.StatusNoContent, deleted.Code)

	missing := env.do(t, http.MethodGet, "/api/watchlists/"+wl.ID, nil)
	assert.Equal(t, http.StatusNotFound, missing.Code)
}

func TestCreateWatchlistRequiresName(t *testing.T) {
	env := newTestEnv(t, &stubProvider{})

	rec := env.do(t, http.MethodPost, "/api/watchlists", watchlistNameRequest{Name: "  "})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTokenRegistration(t *testing.T) {
	env := newTestEnv(t, &stubProvider{})

	registered := env.do(t, http.MethodPost, "/api/notifications/register", RegisterTokenRequest{Token: "device-1"})
	require.Equal(t, http.StatusOK, registered.Code)
	body := decodeBody[TokenResponse](t, registered)
	assert.True(t, body.Success)
	assert.Equal(t, 1, body.Count)

	count := env.do(t, http.MethodGet, "/api/notifications/count", nil)
	require.Equal(t, http.StatusOK, count.Code)
	assert.Equal(t, 1, decodeBody[TokenResponse](t, count).Count)

	unregistered := env.do(t, http.MethodPost, "/api/notifications/unregister", RegisterTokenRequest{Token: "device-1"})
	require.Equal(t, http.StatusOK, unregistered.Code)
	assert.Equal(t, 0, decodeBody[TokenResponse](t, unregistered).Count)
}

func TestRegisterTokenRequiresToken(t *testing.T) {
	env := newTestEnv(t, &stubProvider{})

	rec := env.do(t, http.MethodPost, "/api/notifications/register", RegisterTokenRequest{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTestNotificationWithoutFCM(t *testing.T) {
	env := newTestEnv(t, &stubProvider{})

	rec := env.do(t, http.MethodPost, "/api/notifications/test", nil)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	body := decodeBody[TokenResponse](t, rec)
	assert.False(t, body.Success)
	assert.Equal(t, "FCM not configured", body.Message)
}
