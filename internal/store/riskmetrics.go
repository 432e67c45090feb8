package store

import (
	"sync"

	"github.com/arshadjafri/defi-risk-platform/pkg/models"
	"github.com/arshadjafri/defi-risk-platform/pkg/utils/errors"
	"github.com/arshadjafri/defi-risk-platform/pkg/utils/logger"
)

// maxRiskMetricsRetained bounds the rolling window of computed bundles.
const maxRiskMetricsRetained = 1000

// InMemoryRiskMetricsStore keeps a rolling window of computed risk
// bundles, newest last.
type InMemoryRiskMetricsStore struct {
	bundles []*models.RiskMetrics
	mu      sync.RWMutex
	log     *logger.Logger
}

// NewInMemoryRiskMetricsStore creates a new in-memory risk metrics store
func NewInMemoryRiskMetricsStore() *InMemoryRiskMetricsStore {
	return &InMemoryRiskMetricsStore{
		bundles: make([]*models.RiskMetrics, 0),
		log:     logger.GetLogger("store.riskmetrics"),
	}
}

// SaveRiskMetrics appends a computed bundle, evicting the oldest entry
// once the retention cap is reached
func (s *InMemoryRiskMetricsStore) SaveRiskMetrics(m *models.RiskMetrics) error {
	if m == nil {
		return errors.InvalidArgument("cannot save nil risk metrics")
	}
	if m.PortfolioID == "" {
		return errors.InvalidArgument("risk metrics portfolio ID cannot be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.bundles = append(s.bundles, m)
	if len(s.bundles) > maxRiskMetricsRetained {
		s.bundles = s.bundles[len(s.bundles)-maxRiskMetricsRetained:]
	}
	return nil
}

// GetRecentRiskMetrics returns up to limit of the latest bundles, newest
// first.
func (s *InMemoryRiskMetricsStore) GetRecentRiskMetrics(limit int) ([]*models.RiskMetrics, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := len(s.bundles)
	if limit <= 0 || limit > n {
		limit = n
	}

	recent := make([]*models.RiskMetrics, 0, limit)
	for i := n - 1; i >= n-limit; i-- {
		recent = append(recent, s.bundles[i])
	}
	return recent, nil
}
