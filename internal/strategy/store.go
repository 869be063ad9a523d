package strategy

import (
	"sync"
	"time"

	"github.com/plateiq/pkg/models"
)

// MetricsStore holds the latest business metrics snapshot. Categories are
// replaced wholesale on update; a category absent from the update keeps its
// previous value.
type MetricsStore struct {
	mu      sync.RWMutex
	current models.BusinessMetrics
}

// NewMetricsStore creates an empty metrics store.
func NewMetricsStore() *MetricsStore {
	return &MetricsStore{}
}

// Update replaces the categories present in the incoming snapshot.
func (s *MetricsStore) Update(update models.BusinessMetrics, now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if update.Revenue != nil {
		rev := *update.Revenue
		s.current.Revenue = &rev
	}
	if update.Users != nil {
		users := *update.Users
		s.current.Users = &users
	}
	if update.Engagement != nil {
		eng := *update.Engagement
		s.current.Engagement = &eng
	}
	if update.Operational != nil {
		ops := *update.Operational
		s.current.Operational = &ops
	}
	s.current.UpdatedAt = now
}

// Snapshot returns a copy of the current metrics.
func (s *MetricsStore) Snapshot() models.BusinessMetrics {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := s.current
	if s.current.Revenue != nil {
		rev := *s.current.Revenue
		out.Revenue = &rev
	}
	if s.current.Users != nil {
		users := *s.current.Users
		out.Users = &users
	}
	if s.current.Engagement != nil {
		eng := *s.current.Engagement
		out.Engagement = &eng
	}
	if s.current.Operational != nil {
		ops := *s.current.Operational
		out.Operational = &ops
	}
	return out
}
