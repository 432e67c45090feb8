package models

import (
	"time"

	"github.com/google/uuid"
)

// YieldOpportunity is one liquidity pool the dashboard can surface.
type YieldOpportunity struct {
	ID          string    `json:"id"`
	Protocol    string    `json:"protocol"`
	PoolAddress string    `json:"pool_address"`
	TokenPair   string    `json:"token_pair"`
	APY         float64   `json:"apy"`
	TVL         float64   `json:"tvl"`
	RiskScore   float64   `json:"risk_score"`
	Fees24h     float64   `json:"fees_24h"`
	Timestamp   time.Time `json:"timestamp"`
}

// NewYieldOpportunity creates a catalog entry for a pool.
func NewYieldOpportunity(protocol, poolAddress, tokenPair string, apy, tvl, riskScore, fees24h float64) *YieldOpportunity {
	return &YieldOpportunity{
		ID:          uuid.NewString(),
		Protocol:    protocol,
		PoolAddress: poolAddress,
		TokenPair:   tokenPair,
		APY:         apy,
		TVL:         tvl,
		RiskScore:   riskScore,
		Fees24h:     fees24h,
		Timestamp:   time.Now().UTC(),
	}
}
