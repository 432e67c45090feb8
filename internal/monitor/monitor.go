package monitor

import (
	"context"
	"encoding/json"
	"time"

	"github.com/arshadjafri/defi-risk-platform/pkg/metrics"
	"github.com/arshadjafri/defi-risk-platform/pkg/models"
	"github.com/arshadjafri/defi-risk-platform/pkg/utils/logger"
)

// Config for the portfolio monitor.
type Config struct {
	Rules         RuleConfig
	CheckInterval time.Duration
	// HistoryDays is the valuation window each sweep assesses.
	HistoryDays int
}

// PortfolioLister supplies the portfolios to sweep and to match against
// incoming risk bundles.
type PortfolioLister interface {
	GetPortfolio(id string) (*models.Portfolio, error)
	GetAllPortfolios() ([]*models.Portfolio, error)
}

// RiskAssessor computes the risk bundle for one portfolio.
type RiskAssessor interface {
	Assess(ctx context.Context, portfolioID string, timePeriod int) (*models.RiskMetrics, error)
}

// AlertPublisher delivers raised alerts to the risk.alerts topic.
type AlertPublisher interface {
	PublishAlert(ctx context.Context, alert *models.Alert) error
}

// Monitor periodically assesses every portfolio and raises alerts when a
// rule trips. Alerts go through Kafka; the API side consumes them into
// the alert store and pushes them to websocket clients.
type Monitor struct {
	config     Config
	portfolios PortfolioLister
	assessor   RiskAssessor
	publisher  AlertPublisher
	recorder   *metrics.Recorder
	log        *logger.Logger
}

// New creates a portfolio monitor
func New(config Config, portfolios PortfolioLister, assessor RiskAssessor, publisher AlertPublisher, recorder *metrics.Recorder) *Monitor {
	if config.CheckInterval <= 0 {
		config.CheckInterval = 5 * time.Minute
	}
	if config.HistoryDays <= 0 {
		config.HistoryDays = 30
	}
	if config.Rules.RiskScoreThreshold <= 0 {
		config.Rules = DefaultRuleConfig()
	}
	return &Monitor{
		config:     config,
		portfolios: portfolios,
		assessor:   assessor,
		publisher:  publisher,
		recorder:   recorder,
		log:        logger.GetLogger("monitor"),
	}
}

// Run sweeps on the configured interval until the context is cancelled.
func (m *Monitor) Run(ctx context.Context) error {
	m.log.Infof("monitoring portfolios every %v", m.config.CheckInterval)
	ticker := time.NewTicker(m.config.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			m.Sweep(ctx)
		}
	}
}

// Sweep assesses every portfolio once and publishes any triggered alerts.
func (m *Monitor) Sweep(ctx context.Context) {
	portfolios, err := m.portfolios.GetAllPortfolios()
	if err != nil {
		m.log.Errorf("failed to list portfolios: %v", err)
		return
	}

	raised := 0
	for _, portfolio := range portfolios {
		bundle, err := m.assessor.Assess(ctx, portfolio.ID, m.config.HistoryDays)
		if err != nil {
			// Rules that only need the portfolio itself still apply.
			m.log.Warnf("risk assessment failed for portfolio %s: %v", portfolio.ID, err)
			bundle = nil
		}

		for _, alert := range Evaluate(m.config.Rules, portfolio, bundle) {
			if err := m.publisher.PublishAlert(ctx, alert); err != nil {
				m.log.Errorf("failed to publish alert for portfolio %s: %v", portfolio.ID, err)
				continue
			}
			m.recorder.RecordAlert(alert.AlertType, alert.Severity)
			raised++
		}
	}

	m.log.Infof("swept %d portfolios, raised %d alerts", len(portfolios), raised)
}

// HandleMetrics evaluates the alert rules against a risk bundle arriving
// on the risk.metrics topic. Bundles for portfolios this instance does not
// know are skipped.
func (m *Monitor) HandleMetrics(ctx context.Context, _ []byte, value []byte) error {
	var bundle models.RiskMetrics
	if err := json.Unmarshal(value, &bundle); err != nil {
		m.log.Warnf("dropping malformed risk metrics message: %v", err)
		return nil
	}

	portfolio, err := m.portfolios.GetPortfolio(bundle.PortfolioID)
	if err != nil {
		m.log.Debugf("no local portfolio for incoming bundle %s", bundle.PortfolioID)
		return nil
	}

	for _, alert := range Evaluate(m.config.Rules, portfolio, &bundle) {
		if err := m.publisher.PublishAlert(ctx, alert); err != nil {
			return err
		}
		m.recorder.RecordAlert(alert.AlertType, alert.Severity)
	}
	return nil
}
