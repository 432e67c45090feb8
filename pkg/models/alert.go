package models

import (
	"time"

	"github.com/google/uuid"
)

// Alert severities, lowest to highest.
const (
	AlertSeverityLow      = "low"
	AlertSeverityMedium   = "medium"
	AlertSeverityHigh     = "high"
	AlertSeverityCritical = "critical"
)

// Alert types emitted by the portfolio monitor.
const (
	AlertTypeHighRisk   = "HIGH_RISK"
	AlertTypeVaRBreach  = "VAR_LIMIT_BREACH"
	AlertTypeDegenerate = "DEGENERATE_HISTORY"
)

// Alert is a triggered portfolio condition delivered to the user.
type Alert struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	PortfolioID string    `json:"portfolio_id"`
	AlertType   string    `json:"alert_type"`
	Message     string    `json:"message"`
	Severity    string    `json:"severity"`
	TriggeredAt time.Time `json:"triggered_at"`
	Resolved    bool      `json:"resolved"`
}

// NewAlert creates an unresolved alert.
func NewAlert(userID, portfolioID, alertType, message, severity string) *Alert {
	return &Alert{
		ID:          uuid.NewString(),
		UserID:      userID,
		PortfolioID: portfolioID,
		AlertType:   alertType,
		Message:     message,
		Severity:    severity,
		TriggeredAt: time.Now().UTC(),
	}
}
