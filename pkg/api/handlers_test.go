package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arshadjafri/defi-risk-platform/internal/sentiment"
	"github.com/arshadjafri/defi-risk-platform/internal/store"
	"github.com/arshadjafri/defi-risk-platform/internal/ws"
	"github.com/arshadjafri/defi-risk-platform/pkg/metrics"
	"github.com/arshadjafri/defi-risk-platform/pkg/models"
	"github.com/arshadjafri/defi-risk-platform/pkg/utils/errors"
)

var testRecorder = metrics.NewRecorder()

type jsonObj = map[string]interface{}

type fakeAssessor struct {
	bundle *models.RiskMetrics
	err    error
	lastID string
}

func (f *fakeAssessor) Assess(ctx context.Context, portfolioID string, timePeriod int) (*models.RiskMetrics, error) {
	f.lastID = portfolioID
	if f.err != nil {
		return nil, f.err
	}
	bundle := *f.bundle
	bundle.PortfolioID = portfolioID
	return &bundle, nil
}

type capturedBroadcast struct {
	userID string
	bundle *models.RiskMetrics
}

type fakeBroadcaster struct {
	sent []capturedBroadcast
}

func (f *fakeBroadcaster) BroadcastRiskMetrics(userID string, m *models.RiskMetrics) {
	f.sent = append(f.sent, capturedBroadcast{userID: userID, bundle: m})
}

type testEnv struct {
	server     *Server
	portfolios *store.InMemoryPortfolioStore
	alerts     *store.InMemoryAlertStore
	assessor   *fakeAssessor
	broadcast  *fakeBroadcaster
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	portfolios := store.NewInMemoryPortfolioStore()
	history := store.NewInMemoryHistoryStore()
	market := store.NewInMemoryMarketStore()
	yields := store.NewInMemoryYieldStore()
	alerts := store.NewInMemoryAlertStore()
	sentiments := store.NewInMemorySentimentStore()

	aggregator := sentiment.NewAggregator(sentiments,
		sentiment.NewSyntheticSource("twitter", 500),
		sentiment.NewSyntheticSource("reddit", 200),
	)

	assessor := &fakeAssessor{
		bundle: &models.RiskMetrics{
			ID:             "bundle-1",
			ValueAtRisk:    127.57,
			ConditionalVaR: 135.71,
			SharpeRatio:    0.42,
			Volatility:     0.08,
			MaxDrawdown:    -0.18,
			Status:         models.RiskStatusOK,
		},
	}
	broadcast := &fakeBroadcaster{}

	riskMetrics := store.NewInMemoryRiskMetricsStore()

	handlers := NewHandlers(HandlerDeps{
		Portfolios:  portfolios,
		History:     history,
		Market:      market,
		Yields:      yields,
		Alerts:      alerts,
		RiskMetrics: riskMetrics,
		Sentiments:  sentiments,
		Sentiment:   aggregator,
		Assessor:    assessor,
		Broadcast:   broadcast,
	})

	hub := ws.NewHub(testRecorder)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)

	server := NewServer(Config{Host: "127.0.0.1", Port: 0}, handlers, hub, testRecorder)

	return &testEnv{
		server:     server,
		portfolios: portfolios,
		alerts:     alerts,
		assessor:   assessor,
		broadcast:  broadcast,
	}
}

func (e *testEnv) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	e.server.Router().ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out))
}

func TestHealthCheck(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	decode(t, rec, &body)
	assert.Equal(t, "ok", body["status"])
	assert.NotEmpty(t, body["timestamp"])
}

func TestCreatePortfolioWithDemoHoldings(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/portfolio/create", jsonObj{
		"user_id":        "user-1",
		"wallet_address": "0xabc",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var portfolio models.Portfolio
	decode(t, rec, &portfolio)

	assert.Equal(t, "user-1", portfolio.UserID)
	assert.Equal(t, "0xabc", portfolio.WalletAddress)
	require.Len(t, portfolio.Tokens, 5)

	// 2.5 ETH + 1500 USDC + 75 LINK + 40 UNI + 0.15 BTC at seeded
	// quotes comes to 15046.05.
	assert.InDelta(t, 15046.05, portfolio.TotalValueUSD, 1e-9)
	assert.GreaterOrEqual(t, portfolio.RiskScore, 0.0)
	assert.LessOrEqual(t, portfolio.RiskScore, 100.0)
	assert.Greater(t, portfolio.DiversificationScore, 0.0)

	saved, err := env.portfolios.GetPortfolio(portfolio.ID)
	require.NoError(t, err)
	assert.Equal(t, portfolio.TotalValueUSD, saved.TotalValueUSD)
}

func TestCreatePortfolioWithExplicitHoldings(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/portfolio/create", jsonObj{
		"user_id":        "user-2",
		"wallet_address": "0xdef",
		"holdings": []jsonObj{
			{"symbol": "ETH", "balance": 10.0},
			{"symbol": "DOGE", "balance": 1000.0},
		},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var portfolio models.Portfolio
	decode(t, rec, &portfolio)
	require.Len(t, portfolio.Tokens, 2)

	// Unquoted symbols are carried at zero value.
	assert.InDelta(t, 22800.0, portfolio.TotalValueUSD, 1e-9)
	assert.Equal(t, 0.0, portfolio.Tokens[1].PriceUSD)
}

func TestCreatePortfolioValidation(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/portfolio/create", jsonObj{"user_id": "user-1"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/portfolio/create", jsonObj{
		"user_id":        "user-1",
		"wallet_address": "0xabc",
		"holdings":       []jsonObj{{"symbol": "ETH", "balance": -1.0}},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetPortfolioNotFound(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/portfolio/missing", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAnalyzePortfolioRisk(t *testing.T) {
	env := newTestEnv(t)

	portfolio := models.NewPortfolio("user-1", "0xabc")
	require.NoError(t, env.portfolios.SavePortfolio(portfolio))

	rec := env.do(t, http.MethodPost, fmt.Sprintf("/api/portfolio/%s/risk-analysis", portfolio.ID), jsonObj{
		"time_period": 30,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var bundle models.RiskMetrics
	decode(t, rec, &bundle)
	assert.Equal(t, portfolio.ID, bundle.PortfolioID)
	assert.InDelta(t, 127.57, bundle.ValueAtRisk, 1e-9)

	// The computed bundle is pushed to the owner's dashboard.
	require.Len(t, env.broadcast.sent, 1)
	assert.Equal(t, "user-1", env.broadcast.sent[0].userID)
}

func TestAnalyzePortfolioRiskErrors(t *testing.T) {
	env := newTestEnv(t)

	env.assessor.err = errors.NotFound("portfolio missing not found")
	rec := env.do(t, http.MethodPost, "/api/portfolio/missing/risk-analysis", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	env.assessor.err = errors.InsufficientData("need at least 3 valuations")
	rec = env.do(t, http.MethodPost, "/api/portfolio/missing/risk-analysis", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	env.assessor.err = nil
	rec = env.do(t, http.MethodPost, "/api/portfolio/missing/risk-analysis", jsonObj{"time_period": -5})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAnalyzeSentiment(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/sentiment/analyze", jsonObj{
		"symbols": []string{"BTC", "ETH"},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Results []*models.SentimentData `json:"results"`
	}
	decode(t, rec, &body)
	require.Len(t, body.Results, 2)
	for _, result := range body.Results {
		assert.GreaterOrEqual(t, result.SentimentScore, -1.0)
		assert.LessOrEqual(t, result.SentimentScore, 1.0)
		assert.Equal(t, "aggregated", result.Source)
	}

	rec = env.do(t, http.MethodPost, "/api/sentiment/analyze", jsonObj{"symbols": []string{}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetMarketData(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/market-data/BTC", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var quote models.MarketData
	decode(t, rec, &quote)
	assert.Equal(t, "BTC", quote.Symbol)
	assert.InDelta(t, 43250.0, quote.Price, 1e-9)

	rec = env.do(t, http.MethodGet, "/api/market-data/NOPE", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetYieldOpportunities(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/yield-opportunities", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Opportunities []*models.YieldOpportunity `json:"opportunities"`
	}
	decode(t, rec, &body)
	require.NotEmpty(t, body.Opportunities)

	for i := 1; i < len(body.Opportunities); i++ {
		assert.GreaterOrEqual(t, body.Opportunities[i-1].APY, body.Opportunities[i].APY)
	}
}

func TestGetDashboard(t *testing.T) {
	env := newTestEnv(t)

	first := models.NewPortfolio("user-1", "0xabc")
	first.TotalValueUSD = 10000
	first.RiskScore = 40
	require.NoError(t, env.portfolios.SavePortfolio(first))

	second := models.NewPortfolio("user-1", "0xdef")
	second.TotalValueUSD = 30000
	second.RiskScore = 60
	require.NoError(t, env.portfolios.SavePortfolio(second))

	require.NoError(t, env.alerts.SaveAlert(models.NewAlert("user-1", first.ID, models.AlertTypeHighRisk, "risk score above threshold", models.AlertSeverityHigh)))

	// Populate the recent risk metrics and sentiment feeds.
	rec := env.do(t, http.MethodPost, fmt.Sprintf("/api/portfolio/%s/risk-analysis", first.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = env.do(t, http.MethodPost, "/api/sentiment/analyze", jsonObj{"symbols": []string{"BTC"}})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/dashboard/user-1", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Portfolios         []*models.Portfolio        `json:"portfolios"`
		RiskMetrics        []*models.RiskMetrics      `json:"risk_metrics"`
		SentimentData      []*models.SentimentData    `json:"sentiment_data"`
		MarketData         []*models.MarketData       `json:"market_data"`
		YieldOpportunities []*models.YieldOpportunity `json:"yield_opportunities"`
		Alerts             []*models.Alert            `json:"alerts"`
		Summary            DashboardSummary           `json:"summary"`
	}
	decode(t, rec, &body)

	assert.Len(t, body.Portfolios, 2)
	require.Len(t, body.RiskMetrics, 1)
	assert.Equal(t, first.ID, body.RiskMetrics[0].PortfolioID)
	require.Len(t, body.SentimentData, 1)
	assert.Equal(t, "BTC", body.SentimentData[0].Symbol)
	assert.NotEmpty(t, body.MarketData)
	assert.NotEmpty(t, body.YieldOpportunities)
	assert.Len(t, body.Alerts, 1)

	assert.InDelta(t, 40000.0, body.Summary.TotalPortfolioValue, 1e-9)
	assert.Equal(t, 2, body.Summary.PortfolioCount)
	assert.InDelta(t, 50.0, body.Summary.AvgRiskScore, 1e-9)
	assert.Equal(t, 1, body.Summary.TotalAlerts)
}

func TestGetAlerts(t *testing.T) {
	env := newTestEnv(t)

	for i := 0; i < 5; i++ {
		alert := models.NewAlert("user-1", "p1", models.AlertTypeHighRisk, fmt.Sprintf("alert %d", i), models.AlertSeverityMedium)
		require.NoError(t, env.alerts.SaveAlert(alert))
	}

	rec := env.do(t, http.MethodGet, "/api/alerts/user-1?limit=3", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Alerts []*models.Alert `json:"alerts"`
	}
	decode(t, rec, &body)
	assert.Len(t, body.Alerts, 3)

	rec = env.do(t, http.MethodGet, "/api/alerts/user-1?limit=abc", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUnknownRouteAndCORS(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/nope", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	req := httptest.NewRequest(http.MethodOptions, "/api/health", nil)
	w := httptest.NewRecorder()
	env.server.Router().ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
