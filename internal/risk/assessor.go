package risk

import (
	"context"
	"math"
	"time"

	"github.com/arshadjafri/defi-risk-platform/pkg/metrics"
	"github.com/arshadjafri/defi-risk-platform/pkg/models"
	"github.com/arshadjafri/defi-risk-platform/pkg/utils/errors"
	"github.com/arshadjafri/defi-risk-platform/pkg/utils/logger"
)

// AssessorConfig contains configuration for the portfolio risk assessor.
type AssessorConfig struct {
	ConfidenceLevel float64
	RiskFreeRate    float64
	PeriodsPerYear  int
	// DefaultHistoryDays bounds the valuation window when a request does
	// not specify one.
	DefaultHistoryDays int
}

// PortfolioStore gives the assessor access to stored portfolios.
type PortfolioStore interface {
	GetPortfolio(id string) (*models.Portfolio, error)
	GetPortfoliosByUser(userID string) ([]*models.Portfolio, error)
}

// HistoryStore supplies per-portfolio valuation histories.
type HistoryStore interface {
	GetValuations(portfolioID string, days int) (models.ValuationSeries, error)
}

// MetricsPublisher pushes computed bundles onto the risk.metrics topic for
// downstream consumers (the portfolio monitor, analytics sinks).
type MetricsPublisher interface {
	PublishRiskMetrics(ctx context.Context, m *models.RiskMetrics) error
}

// Assessor resolves a portfolio's valuation history and runs the risk
// engine over it. The engine stays pure; all I/O lives here.
type Assessor struct {
	config     AssessorConfig
	engine     *Engine
	portfolios PortfolioStore
	history    HistoryStore
	publisher  MetricsPublisher
	recorder   *metrics.Recorder
	log        *logger.Logger
}

// NewAssessor creates a risk assessor. The publisher may be nil when no
// pipeline is attached (tests, one-shot tools).
func NewAssessor(config AssessorConfig, portfolios PortfolioStore, history HistoryStore, publisher MetricsPublisher, recorder *metrics.Recorder) *Assessor {
	if config.DefaultHistoryDays <= 0 {
		config.DefaultHistoryDays = 30
	}
	engine := NewEngine(EngineConfig{
		ConfidenceLevel: config.ConfidenceLevel,
		RiskFreeRate:    config.RiskFreeRate,
		PeriodsPerYear:  config.PeriodsPerYear,
		OnCoerce:        recorder.RecordSanitization,
	})
	return &Assessor{
		config:     config,
		engine:     engine,
		portfolios: portfolios,
		history:    history,
		publisher:  publisher,
		recorder:   recorder,
		log:        logger.GetLogger("risk.assessor"),
	}
}

// Assess computes the risk bundle for a portfolio over the trailing
// timePeriod days of valuation history.
func (a *Assessor) Assess(ctx context.Context, portfolioID string, timePeriod int) (*models.RiskMetrics, error) {
	start := time.Now()

	if _, err := a.portfolios.GetPortfolio(portfolioID); err != nil {
		return nil, err
	}

	days := timePeriod
	if days <= 0 {
		days = a.config.DefaultHistoryDays
	}

	valuations, err := a.history.GetValuations(portfolioID, days)
	if err != nil {
		return nil, err
	}

	result, err := a.engine.Compute(portfolioID, valuations)
	if err != nil {
		a.recorder.RecordRiskCalculation("risk_analysis", portfolioID, "error", time.Since(start))
		return nil, err
	}

	a.recorder.RecordRiskCalculation("risk_analysis", portfolioID, result.Status, time.Since(start))
	a.recorder.RecordVaR(portfolioID, result.ValueAtRisk)
	a.recorder.RecordCVaR(portfolioID, result.ConditionalVaR)

	if result.Status == models.RiskStatusDegenerate {
		a.log.Warnf("degenerate valuation history for portfolio %s: metrics are legitimate zeros", portfolioID)
	}

	if a.publisher != nil {
		if err := a.publisher.PublishRiskMetrics(ctx, result); err != nil {
			// Publishing is best-effort; the caller still gets the bundle.
			a.log.Errorf("failed to publish risk metrics for portfolio %s: %v", portfolioID, err)
		}
	}

	a.log.Infof("computed risk metrics for portfolio %s in %v (status=%s)", portfolioID, time.Since(start), result.Status)
	return result, nil
}

// ScorePortfolio derives the 0-100 headline risk score the dashboard
// displays: 50 baseline plus the average absolute 24h move across
// holdings, clamped to [0, 100].
func ScorePortfolio(tokens []models.TokenBalance) float64 {
	if len(tokens) == 0 {
		return 50
	}
	var sum float64
	for _, t := range tokens {
		sum += math.Abs(t.Change24h)
	}
	score := 50 + sum/float64(len(tokens))
	return math.Min(100, math.Max(0, score))
}

// DiversificationScore is 100*(1 - Herfindahl index) over holding value
// weights: 0 for a single-asset portfolio, approaching 100 as value is
// spread evenly across many assets.
func DiversificationScore(tokens []models.TokenBalance) float64 {
	var total float64
	for _, t := range tokens {
		total += t.ValueUSD
	}
	if total <= 0 {
		return 0
	}
	var hhi float64
	for _, t := range tokens {
		w := t.ValueUSD / total
		hhi += w * w
	}
	return 100 * (1 - hhi)
}

// IsInsufficientData reports whether err is the engine's too-few-samples
// rejection, which the API maps to 422 rather than 500.
func IsInsufficientData(err error) bool {
	return errors.IsType(err, errors.ErrorTypeInsufficientData)
}
