package store

import (
	"sort"
	"sync"

	"github.com/arshadjafri/defi-risk-platform/pkg/models"
	"github.com/arshadjafri/defi-risk-platform/pkg/utils/errors"
	"github.com/arshadjafri/defi-risk-platform/pkg/utils/logger"
)

// InMemoryYieldStore holds the yield opportunity catalog.
type InMemoryYieldStore struct {
	opportunities map[string]*models.YieldOpportunity
	mu            sync.RWMutex
	log           *logger.Logger
}

// NewInMemoryYieldStore creates a yield store seeded with the catalog the
// dashboard surfaces by default.
func NewInMemoryYieldStore() *InMemoryYieldStore {
	store := &InMemoryYieldStore{
		opportunities: make(map[string]*models.YieldOpportunity),
		log:           logger.GetLogger("store.yield"),
	}
	store.initializeSampleData()
	return store
}

// initializeSampleData seeds the default pool catalog
func (s *InMemoryYieldStore) initializeSampleData() {
	seeds := []*models.YieldOpportunity{
		models.NewYieldOpportunity("Uniswap V3", "0x8ad599c3a0ff1de082011efddc58f1908eb6e6d8", "ETH/USDC", 12.5, 150000000, 3.2, 125000),
		models.NewYieldOpportunity("Compound", "0x39aa39c021dfbae8fac545936693ac917d5e7563", "USDC", 8.3, 800000000, 2.1, 85000),
		models.NewYieldOpportunity("Aave", "0x030ba81f1c18d280636f32af80b9aad02cf0854e", "WETH", 6.7, 1200000000, 1.8, 95000),
		models.NewYieldOpportunity("Curve", "0xbebc44782c7db0a1a60cb6fe97d0b483032ff1c7", "3Pool", 15.2, 300000000, 4.1, 180000),
	}

	for _, opp := range seeds {
		s.opportunities[opp.ID] = opp
	}
}

// GetOpportunities returns the catalog sorted by descending APY
func (s *InMemoryYieldStore) GetOpportunities() ([]*models.YieldOpportunity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	opportunities := make([]*models.YieldOpportunity, 0, len(s.opportunities))
	for _, opp := range s.opportunities {
		opportunities = append(opportunities, opp)
	}

	sort.Slice(opportunities, func(i, j int) bool {
		return opportunities[i].APY > opportunities[j].APY
	})

	return opportunities, nil
}

// SaveOpportunity adds or updates a catalog entry
func (s *InMemoryYieldStore) SaveOpportunity(opp *models.YieldOpportunity) error {
	if opp == nil {
		return errors.InvalidArgument("cannot save nil yield opportunity")
	}
	if opp.ID == "" {
		return errors.InvalidArgument("yield opportunity ID cannot be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.opportunities[opp.ID] = opp
	return nil
}
