package models

import (
	"time"

	"github.com/google/uuid"
)

// Risk metric computation status values.
const (
	// RiskStatusOK means the metrics were computed from a series with
	// real variance.
	RiskStatusOK = "ok"
	// RiskStatusDegenerate means the series was valid but flat: every
	// metric is a legitimate zero, not a failed computation.
	RiskStatusDegenerate = "degenerate"
)

// RiskMetrics is the full risk bundle for one portfolio over one window.
// All numeric fields are finite; the engine never emits NaN or Inf.
type RiskMetrics struct {
	ID             string    `json:"id"`
	PortfolioID    string    `json:"portfolio_id"`
	ValueAtRisk    float64   `json:"value_at_risk"`
	ConditionalVaR float64   `json:"conditional_var"`
	SharpeRatio    float64   `json:"sharpe_ratio"`
	SortinoRatio   float64   `json:"sortino_ratio"`
	Volatility     float64   `json:"volatility"`
	MaxDrawdown    float64   `json:"max_drawdown"`
	Skewness       float64   `json:"skewness"`
	Kurtosis       float64   `json:"kurtosis"`
	Status         string    `json:"status"`
	Timestamp      time.Time `json:"timestamp"`
}

// NewRiskMetrics creates an empty bundle for a portfolio.
func NewRiskMetrics(portfolioID string) *RiskMetrics {
	return &RiskMetrics{
		ID:          uuid.NewString(),
		PortfolioID: portfolioID,
		Status:      RiskStatusOK,
		Timestamp:   time.Now().UTC(),
	}
}

// RiskLimit is a per-portfolio threshold evaluated by the monitor.
type RiskLimit struct {
	PortfolioID string  `json:"portfolio_id"`
	LimitType   string  `json:"limit_type"`
	LimitValue  float64 `json:"limit_value"`
}
