package models

import (
	"time"

	"github.com/google/uuid"
)

// TokenBalance is a single token holding inside a portfolio.
type TokenBalance struct {
	ID            string    `json:"id"`
	Symbol        string    `json:"symbol"`
	Name          string    `json:"name"`
	Balance       float64   `json:"balance"`
	ValueUSD      float64   `json:"value_usd"`
	PriceUSD      float64   `json:"price_usd"`
	Change24h     float64   `json:"change_24h"`
	WalletAddress string    `json:"wallet_address"`
	Timestamp     time.Time `json:"timestamp"`
}

// Portfolio is a wallet's set of token holdings plus summary scores.
type Portfolio struct {
	ID                   string         `json:"id"`
	UserID               string         `json:"user_id"`
	WalletAddress        string         `json:"wallet_address"`
	TotalValueUSD        float64        `json:"total_value_usd"`
	Tokens               []TokenBalance `json:"tokens"`
	RiskScore            float64        `json:"risk_score"`
	SharpeRatio          float64        `json:"sharpe_ratio"`
	Volatility           float64        `json:"volatility"`
	DiversificationScore float64        `json:"diversification_score"`
	CreatedAt            time.Time      `json:"created_at"`
	UpdatedAt            time.Time      `json:"updated_at"`
}

// NewPortfolio creates an empty portfolio for a user/wallet pair.
func NewPortfolio(userID, walletAddress string) *Portfolio {
	now := time.Now().UTC()
	return &Portfolio{
		ID:            uuid.NewString(),
		UserID:        userID,
		WalletAddress: walletAddress,
		Tokens:        make([]TokenBalance, 0),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// Clone returns a deep copy with its own token slice, so callers can
// mutate the copy without affecting shared state.
func (p *Portfolio) Clone() *Portfolio {
	if p == nil {
		return nil
	}
	clone := *p
	clone.Tokens = make([]TokenBalance, len(p.Tokens))
	copy(clone.Tokens, p.Tokens)
	return &clone
}

// ValuationPoint is one (timestamp, total portfolio value) sample.
type ValuationPoint struct {
	Timestamp time.Time `json:"timestamp"`
	ValueUSD  float64   `json:"value_usd"`
}

// ValuationSeries is a time-ordered sequence of valuation samples,
// oldest first.
type ValuationSeries []ValuationPoint
