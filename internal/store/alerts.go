package store

import (
	"sort"
	"sync"

	"github.com/arshadjafri/defi-risk-platform/pkg/models"
	"github.com/arshadjafri/defi-risk-platform/pkg/utils/errors"
	"github.com/arshadjafri/defi-risk-platform/pkg/utils/logger"
)

// InMemoryAlertStore keeps raised alerts grouped by user.
type InMemoryAlertStore struct {
	alerts map[string][]*models.Alert
	byID   map[string]*models.Alert
	mu     sync.RWMutex
	log    *logger.Logger
}

// NewInMemoryAlertStore creates a new in-memory alert store
func NewInMemoryAlertStore() *InMemoryAlertStore {
	return &InMemoryAlertStore{
		alerts: make(map[string][]*models.Alert),
		byID:   make(map[string]*models.Alert),
		log:    logger.GetLogger("store.alerts"),
	}
}

// SaveAlert records a raised alert
func (s *InMemoryAlertStore) SaveAlert(alert *models.Alert) error {
	if alert == nil {
		return errors.InvalidArgument("cannot save nil alert")
	}
	if alert.ID == "" || alert.UserID == "" {
		return errors.InvalidArgument("alert ID and user ID cannot be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.alerts[alert.UserID] = append(s.alerts[alert.UserID], alert)
	s.byID[alert.ID] = alert
	return nil
}

// GetAlertsByUser returns the user's most recent alerts, newest first,
// capped at limit when limit is positive.
func (s *InMemoryAlertStore) GetAlertsByUser(userID string, limit int) ([]*models.Alert, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored := s.alerts[userID]
	alerts := make([]*models.Alert, len(stored))
	copy(alerts, stored)

	sort.Slice(alerts, func(i, j int) bool {
		return alerts[i].TriggeredAt.After(alerts[j].TriggeredAt)
	})

	if limit > 0 && len(alerts) > limit {
		alerts = alerts[:limit]
	}

	return alerts, nil
}

// ResolveAlert marks an alert resolved
func (s *InMemoryAlertStore) ResolveAlert(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	alert, exists := s.byID[id]
	if !exists {
		return errors.NotFound("alert not found: " + id)
	}

	alert.Resolved = true
	return nil
}
