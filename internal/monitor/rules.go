package monitor

import (
	"fmt"

	"github.com/arshadjafri/defi-risk-platform/pkg/models"
)

// RuleConfig holds the alerting thresholds.
type RuleConfig struct {
	// RiskScoreThreshold triggers a HIGH_RISK alert when exceeded.
	RiskScoreThreshold float64
	// VaRLimitFraction of total portfolio value the VaR may reach before
	// a VAR_LIMIT_BREACH alert triggers.
	VaRLimitFraction float64
}

// DefaultRuleConfig returns the standard thresholds.
func DefaultRuleConfig() RuleConfig {
	return RuleConfig{
		RiskScoreThreshold: 80,
		VaRLimitFraction:   0.25,
	}
}

// Evaluate checks a portfolio and its freshly computed risk bundle
// against every rule and returns the alerts to raise, possibly none.
func Evaluate(cfg RuleConfig, portfolio *models.Portfolio, metrics *models.RiskMetrics) []*models.Alert {
	var alerts []*models.Alert

	if portfolio.RiskScore > cfg.RiskScoreThreshold {
		severity := models.AlertSeverityHigh
		if portfolio.RiskScore >= 90 {
			severity = models.AlertSeverityCritical
		}
		alerts = append(alerts, models.NewAlert(
			portfolio.UserID,
			portfolio.ID,
			models.AlertTypeHighRisk,
			fmt.Sprintf("Portfolio risk score is %.1f (threshold %.1f)", portfolio.RiskScore, cfg.RiskScoreThreshold),
			severity,
		))
	}

	if metrics != nil && cfg.VaRLimitFraction > 0 && portfolio.TotalValueUSD > 0 {
		limit := cfg.VaRLimitFraction * portfolio.TotalValueUSD
		if metrics.ValueAtRisk > limit {
			alerts = append(alerts, models.NewAlert(
				portfolio.UserID,
				portfolio.ID,
				models.AlertTypeVaRBreach,
				fmt.Sprintf("Value at Risk $%.2f exceeds limit $%.2f (%.0f%% of portfolio value)",
					metrics.ValueAtRisk, limit, cfg.VaRLimitFraction*100),
				models.AlertSeverityCritical,
			))
		}
	}

	if metrics != nil && metrics.Status == models.RiskStatusDegenerate {
		alerts = append(alerts, models.NewAlert(
			portfolio.UserID,
			portfolio.ID,
			models.AlertTypeDegenerate,
			"Valuation history is flat; risk metrics are not informative",
			models.AlertSeverityLow,
		))
	}

	return alerts
}
