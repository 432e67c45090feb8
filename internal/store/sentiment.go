package store

import (
	"sort"
	"sync"

	"github.com/arshadjafri/defi-risk-platform/pkg/models"
	"github.com/arshadjafri/defi-risk-platform/pkg/utils/errors"
	"github.com/arshadjafri/defi-risk-platform/pkg/utils/logger"
)

// InMemorySentimentStore keeps the latest aggregated sentiment per symbol.
type InMemorySentimentStore struct {
	readings map[string]*models.SentimentData
	mu       sync.RWMutex
	log      *logger.Logger
}

// NewInMemorySentimentStore creates a new in-memory sentiment store
func NewInMemorySentimentStore() *InMemorySentimentStore {
	return &InMemorySentimentStore{
		readings: make(map[string]*models.SentimentData),
		log:      logger.GetLogger("store.sentiment"),
	}
}

// GetSentiment returns the latest sentiment reading for a symbol
func (s *InMemorySentimentStore) GetSentiment(symbol string) (*models.SentimentData, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	reading, exists := s.readings[symbol]
	if !exists {
		return nil, errors.NotFound("no sentiment data for symbol: " + symbol)
	}

	return reading, nil
}

// GetRecentSentiment returns up to limit of the latest readings, newest
// first.
func (s *InMemorySentimentStore) GetRecentSentiment(limit int) ([]*models.SentimentData, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	readings := make([]*models.SentimentData, 0, len(s.readings))
	for _, r := range s.readings {
		readings = append(readings, r)
	}
	sort.Slice(readings, func(i, j int) bool {
		return readings[i].Timestamp.After(readings[j].Timestamp)
	})
	if limit > 0 && len(readings) > limit {
		readings = readings[:limit]
	}
	return readings, nil
}

// SaveSentiment upserts the latest reading for a symbol
func (s *InMemorySentimentStore) SaveSentiment(data *models.SentimentData) error {
	if data == nil {
		return errors.InvalidArgument("cannot save nil sentiment data")
	}
	if data.Symbol == "" {
		return errors.InvalidArgument("sentiment symbol cannot be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.readings[data.Symbol] = data
	return nil
}
