package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arshadjafri/defi-risk-platform/pkg/models"
)

func TestPortfolioStoreCRUD(t *testing.T) {
	s := NewInMemoryPortfolioStore()

	_, err := s.GetPortfolio("missing")
	assert.Error(t, err)

	p := models.NewPortfolio("u-1", "0xabc")
	require.NoError(t, s.SavePortfolio(p))

	got, err := s.GetPortfolio(p.ID)
	require.NoError(t, err)
	assert.Equal(t, p, got)

	other := models.NewPortfolio("u-2", "0xdef")
	require.NoError(t, s.SavePortfolio(other))

	mine, err := s.GetPortfoliosByUser("u-1")
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, p.ID, mine[0].ID)

	all, err := s.GetAllPortfolios()
	require.NoError(t, err)
	assert.Len(t, all, 2)

	require.NoError(t, s.DeletePortfolio(p.ID))
	_, err = s.GetPortfolio(p.ID)
	assert.Error(t, err)

	assert.Error(t, s.SavePortfolio(nil))
	assert.Error(t, s.SavePortfolio(&models.Portfolio{}))
}

func TestPortfolioStoreDetachesCopies(t *testing.T) {
	s := NewInMemoryPortfolioStore()

	p := models.NewPortfolio("u-1", "0xabc")
	p.Tokens = append(p.Tokens, models.TokenBalance{
		Symbol:   "ETH",
		Balance:  2.5,
		PriceUSD: 2280,
		ValueUSD: 5700,
	})
	p.TotalValueUSD = 5700
	require.NoError(t, s.SavePortfolio(p))

	// Mutating the caller's struct after save must not leak into the store.
	p.Tokens[0].PriceUSD = 1
	p.TotalValueUSD = 1

	got, err := s.GetPortfolio(p.ID)
	require.NoError(t, err)
	assert.Equal(t, 2280.0, got.Tokens[0].PriceUSD)
	assert.Equal(t, 5700.0, got.TotalValueUSD)

	// Mutating a read result must not alter the stored portfolio.
	got.Tokens[0].ValueUSD = 0
	got.RiskScore = 99

	again, err := s.GetPortfolio(p.ID)
	require.NoError(t, err)
	assert.Equal(t, 5700.0, again.Tokens[0].ValueUSD)
	assert.Zero(t, again.RiskScore)

	all, err := s.GetAllPortfolios()
	require.NoError(t, err)
	require.Len(t, all, 1)
	all[0].Tokens[0].Symbol = "???"

	final, err := s.GetPortfolio(p.ID)
	require.NoError(t, err)
	assert.Equal(t, "ETH", final.Tokens[0].Symbol)
}

func TestHistoryStoreWindow(t *testing.T) {
	s := NewInMemoryHistoryStore()
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 10; i++ {
		err := s.AppendValuation("p-1", models.ValuationPoint{
			Timestamp: base.AddDate(0, 0, i),
			ValueUSD:  1000 + float64(i)*10,
		})
		require.NoError(t, err)
	}

	// Latest sample is day 9; a 5-day window keeps days 4 through 9.
	got, err := s.GetValuations("p-1", 5)
	require.NoError(t, err)
	require.Len(t, got, 6)
	assert.Equal(t, base.AddDate(0, 0, 4), got[0].Timestamp)
	assert.Equal(t, 1090.0, got[len(got)-1].ValueUSD)

	// A wider window returns everything.
	got, err = s.GetValuations("p-1", 365)
	require.NoError(t, err)
	assert.Len(t, got, 10)
}

func TestHistoryStoreRejectsOutOfOrder(t *testing.T) {
	s := NewInMemoryHistoryStore()
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, s.AppendValuation("p-1", models.ValuationPoint{Timestamp: base, ValueUSD: 1000}))
	err := s.AppendValuation("p-1", models.ValuationPoint{Timestamp: base.Add(-time.Hour), ValueUSD: 990})
	assert.Error(t, err)
}

func TestHistoryStoreSyntheticFallback(t *testing.T) {
	s := NewInMemoryHistoryStore()

	a, err := s.GetValuations("unseen", 30)
	require.NoError(t, err)
	require.Len(t, a, 30)

	// Deterministic: a second read yields the identical series.
	b, err := s.GetValuations("unseen", 30)
	require.NoError(t, err)
	assert.Equal(t, a, b)

	for _, p := range a {
		assert.Greater(t, p.ValueUSD, 0.0)
	}

	_, err = s.GetValuations("unseen", 0)
	assert.Error(t, err)
}

func TestMarketStore(t *testing.T) {
	s := NewInMemoryMarketStore()

	// Seeded symbols are served immediately.
	eth, err := s.GetMarketData("ETH")
	require.NoError(t, err)
	assert.Equal(t, "ETH", eth.Symbol)
	assert.Greater(t, eth.Price, 0.0)

	_, err = s.GetMarketData("NOPE")
	assert.Error(t, err)

	tick := models.PriceTick{Symbol: "DOGE", Price: 0.085, Change24h: -4.2, Timestamp: time.Now().UTC()}
	require.NoError(t, s.SaveMarketData(models.NewMarketData(tick)))

	doge, err := s.GetMarketData("DOGE")
	require.NoError(t, err)
	assert.Equal(t, 0.085, doge.Price)
	assert.Equal(t, 4.2, doge.Volatility)
}

func TestYieldStoreSortedByAPY(t *testing.T) {
	s := NewInMemoryYieldStore()

	opps, err := s.GetOpportunities()
	require.NoError(t, err)
	require.Len(t, opps, 4)

	for i := 1; i < len(opps); i++ {
		assert.GreaterOrEqual(t, opps[i-1].APY, opps[i].APY)
	}
	assert.Equal(t, "Curve", opps[0].Protocol)
}

func TestAlertStore(t *testing.T) {
	s := NewInMemoryAlertStore()

	first := models.NewAlert("u-1", "p-1", models.AlertTypeHighRisk, "risk score 85", models.AlertSeverityHigh)
	first.TriggeredAt = time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	second := models.NewAlert("u-1", "p-1", models.AlertTypeVaRBreach, "VaR above limit", models.AlertSeverityCritical)
	second.TriggeredAt = time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)

	require.NoError(t, s.SaveAlert(first))
	require.NoError(t, s.SaveAlert(second))

	alerts, err := s.GetAlertsByUser("u-1", 10)
	require.NoError(t, err)
	require.Len(t, alerts, 2)
	assert.Equal(t, second.ID, alerts[0].ID)

	limited, err := s.GetAlertsByUser("u-1", 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	require.NoError(t, s.ResolveAlert(first.ID))
	alerts, _ = s.GetAlertsByUser("u-1", 10)
	assert.True(t, alerts[1].Resolved)

	assert.Error(t, s.ResolveAlert("missing"))

	none, err := s.GetAlertsByUser("u-2", 10)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestSentimentStore(t *testing.T) {
	s := NewInMemorySentimentStore()

	_, err := s.GetSentiment("ETH")
	assert.Error(t, err)

	reading := models.NewSentimentData("ETH", "aggregate", 0.42, 0.8, 1200, "bullish on upgrades")
	require.NoError(t, s.SaveSentiment(reading))

	got, err := s.GetSentiment("ETH")
	require.NoError(t, err)
	assert.Equal(t, 0.42, got.SentimentScore)
}

func TestSentimentStoreRecent(t *testing.T) {
	s := NewInMemorySentimentStore()

	for i, symbol := range []string{"BTC", "ETH", "LINK"} {
		reading := models.NewSentimentData(symbol, "aggregated", 0.1, 0.5, 100, "")
		reading.Timestamp = time.Date(2025, 6, 1, i, 0, 0, 0, time.UTC)
		require.NoError(t, s.SaveSentiment(reading))
	}

	recent, err := s.GetRecentSentiment(2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "LINK", recent[0].Symbol)
	assert.Equal(t, "ETH", recent[1].Symbol)
}

func TestRiskMetricsStore(t *testing.T) {
	s := NewInMemoryRiskMetricsStore()

	recent, err := s.GetRecentRiskMetrics(10)
	require.NoError(t, err)
	assert.Empty(t, recent)

	assert.Error(t, s.SaveRiskMetrics(nil))
	assert.Error(t, s.SaveRiskMetrics(&models.RiskMetrics{}))

	for i := 0; i < 5; i++ {
		m := models.NewRiskMetrics("p-1")
		m.ValueAtRisk = float64(i)
		require.NoError(t, s.SaveRiskMetrics(m))
	}

	recent, err = s.GetRecentRiskMetrics(3)
	require.NoError(t, err)
	require.Len(t, recent, 3)
	assert.Equal(t, 4.0, recent[0].ValueAtRisk)
	assert.Equal(t, 2.0, recent[2].ValueAtRisk)
}
