package risk

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arshadjafri/defi-risk-platform/pkg/metrics"
	"github.com/arshadjafri/defi-risk-platform/pkg/models"
	"github.com/arshadjafri/defi-risk-platform/pkg/utils/errors"
)

// One recorder per test binary: promauto registers against the default
// registry and re-registration panics.
var testRecorder = metrics.NewRecorder()

type fakePortfolioStore struct {
	portfolios map[string]*models.Portfolio
}

func (s *fakePortfolioStore) GetPortfolio(id string) (*models.Portfolio, error) {
	p, ok := s.portfolios[id]
	if !ok {
		return nil, errors.NotFound("portfolio " + id + " not found")
	}
	return p, nil
}

func (s *fakePortfolioStore) GetPortfoliosByUser(userID string) ([]*models.Portfolio, error) {
	var out []*models.Portfolio
	for _, p := range s.portfolios {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	return out, nil
}

type fakeHistoryStore struct {
	valuations map[string]models.ValuationSeries
}

func (s *fakeHistoryStore) GetValuations(portfolioID string, days int) (models.ValuationSeries, error) {
	v, ok := s.valuations[portfolioID]
	if !ok {
		return nil, errors.NotFound("no valuation history for portfolio " + portfolioID)
	}
	return v, nil
}

type capturingPublisher struct {
	published []*models.RiskMetrics
}

func (p *capturingPublisher) PublishRiskMetrics(_ context.Context, m *models.RiskMetrics) error {
	p.published = append(p.published, m)
	return nil
}

func newTestAssessor(pub MetricsPublisher) (*Assessor, *fakePortfolioStore, *fakeHistoryStore) {
	portfolios := &fakePortfolioStore{portfolios: map[string]*models.Portfolio{
		"p-1": {ID: "p-1", UserID: "u-1", WalletAddress: "0xabc"},
	}}
	history := &fakeHistoryStore{valuations: map[string]models.ValuationSeries{
		"p-1": series(1000, 1100, 990, 1050, 900, 950),
	}}
	a := NewAssessor(AssessorConfig{
		ConfidenceLevel: 0.95,
		RiskFreeRate:    0.02,
		PeriodsPerYear:  365,
	}, portfolios, history, pub, testRecorder)
	return a, portfolios, history
}

func TestAssessComputesAndPublishes(t *testing.T) {
	pub := &capturingPublisher{}
	a, _, _ := newTestAssessor(pub)

	m, err := a.Assess(context.Background(), "p-1", 30)
	require.NoError(t, err)

	assert.Equal(t, "p-1", m.PortfolioID)
	assert.Equal(t, models.RiskStatusOK, m.Status)
	assert.InDelta(t, 127.57142857142857, m.ValueAtRisk, 1e-9)

	require.Len(t, pub.published, 1)
	assert.Equal(t, m, pub.published[0])
}

func TestAssessUnknownPortfolio(t *testing.T) {
	a, _, _ := newTestAssessor(nil)

	_, err := a.Assess(context.Background(), "missing", 30)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeNotFound))
}

func TestAssessInsufficientHistory(t *testing.T) {
	a, _, history := newTestAssessor(nil)
	history.valuations["p-1"] = series(100, 110)

	_, err := a.Assess(context.Background(), "p-1", 30)
	require.Error(t, err)
	assert.True(t, IsInsufficientData(err))
}

func TestScorePortfolio(t *testing.T) {
	assert.Equal(t, 50.0, ScorePortfolio(nil))

	tokens := []models.TokenBalance{
		{Symbol: "ETH", Change24h: 10},
		{Symbol: "BTC", Change24h: -6},
	}
	assert.InDelta(t, 58.0, ScorePortfolio(tokens), 1e-12)

	// Clamped at 100 for extreme moves.
	wild := []models.TokenBalance{{Symbol: "MEME", Change24h: -400}}
	assert.Equal(t, 100.0, ScorePortfolio(wild))
}

func TestDiversificationScore(t *testing.T) {
	assert.Equal(t, 0.0, DiversificationScore(nil))

	single := []models.TokenBalance{{Symbol: "ETH", ValueUSD: 1000}}
	assert.Equal(t, 0.0, DiversificationScore(single))

	even := []models.TokenBalance{
		{Symbol: "ETH", ValueUSD: 500},
		{Symbol: "BTC", ValueUSD: 500},
	}
	assert.InDelta(t, 50.0, DiversificationScore(even), 1e-12)
}
