package models

import (
	"time"

	"github.com/google/uuid"
)

// MarketData is the latest quote for one token symbol.
type MarketData struct {
	ID         string    `json:"id"`
	Symbol     string    `json:"symbol"`
	Price      float64   `json:"price"`
	Volume24h  float64   `json:"volume_24h"`
	MarketCap  float64   `json:"market_cap"`
	Change24h  float64   `json:"change_24h"`
	Volatility float64   `json:"volatility"`
	Timestamp  time.Time `json:"timestamp"`
}

// PriceTick is the wire format of a market price update consumed from Kafka.
type PriceTick struct {
	Symbol    string    `json:"symbol"`
	Price     float64   `json:"price"`
	Volume24h float64   `json:"volume_24h"`
	MarketCap float64   `json:"market_cap"`
	Change24h float64   `json:"change_24h"`
	Timestamp time.Time `json:"timestamp"`
}

// NewMarketData builds a MarketData record from a tick. Volatility here is
// the simplified 24h-change magnitude the dashboard displays, not the
// return-series volatility the risk engine computes.
func NewMarketData(tick PriceTick) *MarketData {
	vol := tick.Change24h
	if vol < 0 {
		vol = -vol
	}
	ts := tick.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	return &MarketData{
		ID:         uuid.NewString(),
		Symbol:     tick.Symbol,
		Price:      tick.Price,
		Volume24h:  tick.Volume24h,
		MarketCap:  tick.MarketCap,
		Change24h:  tick.Change24h,
		Volatility: vol,
		Timestamp:  ts,
	}
}
