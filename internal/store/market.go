package store

import (
	"sync"
	"time"

	"github.com/arshadjafri/defi-risk-platform/pkg/models"
	"github.com/arshadjafri/defi-risk-platform/pkg/utils/errors"
	"github.com/arshadjafri/defi-risk-platform/pkg/utils/logger"
)

// InMemoryMarketStore keeps the latest quote per symbol.
type InMemoryMarketStore struct {
	quotes map[string]*models.MarketData
	mu     sync.RWMutex
	log    *logger.Logger
}

// NewInMemoryMarketStore creates a market store seeded with sample quotes
// for the common symbols so the API serves data before the first tick
// arrives.
func NewInMemoryMarketStore() *InMemoryMarketStore {
	store := &InMemoryMarketStore{
		quotes: make(map[string]*models.MarketData),
		log:    logger.GetLogger("store.market"),
	}
	store.initializeSampleData()
	return store
}

// initializeSampleData seeds quotes for the symbols the dashboard tracks
func (s *InMemoryMarketStore) initializeSampleData() {
	now := time.Now().UTC()
	seeds := []models.PriceTick{
		{Symbol: "BTC", Price: 43250.0, Volume24h: 28500000000, MarketCap: 845000000000, Change24h: 2.4, Timestamp: now},
		{Symbol: "ETH", Price: 2280.0, Volume24h: 15200000000, MarketCap: 274000000000, Change24h: 3.1, Timestamp: now},
		{Symbol: "USDC", Price: 1.0, Volume24h: 6400000000, MarketCap: 24500000000, Change24h: 0.01, Timestamp: now},
		{Symbol: "LINK", Price: 14.85, Volume24h: 620000000, MarketCap: 8700000000, Change24h: -1.2, Timestamp: now},
		{Symbol: "UNI", Price: 6.12, Volume24h: 180000000, MarketCap: 4600000000, Change24h: -0.8, Timestamp: now},
		{Symbol: "AAVE", Price: 98.40, Volume24h: 145000000, MarketCap: 1450000000, Change24h: 1.7, Timestamp: now},
	}

	for _, tick := range seeds {
		s.quotes[tick.Symbol] = models.NewMarketData(tick)
	}
}

// GetMarketData returns the latest quote for a symbol
func (s *InMemoryMarketStore) GetMarketData(symbol string) (*models.MarketData, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	quote, exists := s.quotes[symbol]
	if !exists {
		return nil, errors.NotFound("market data not found: " + symbol)
	}

	return quote, nil
}

// GetAllMarketData returns the latest quote for every known symbol
func (s *InMemoryMarketStore) GetAllMarketData() ([]*models.MarketData, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	quotes := make([]*models.MarketData, 0, len(s.quotes))
	for _, q := range s.quotes {
		quotes = append(quotes, q)
	}

	return quotes, nil
}

// SaveMarketData upserts the latest quote for a symbol
func (s *InMemoryMarketStore) SaveMarketData(data *models.MarketData) error {
	if data == nil {
		return errors.InvalidArgument("cannot save nil market data")
	}
	if data.Symbol == "" {
		return errors.InvalidArgument("market data symbol cannot be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.quotes[data.Symbol] = data
	return nil
}
