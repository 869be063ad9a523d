package store

import (
	"context"
	"sort"
	"sync"

	"github.com/plateiq/pkg/models"
)

// MemoryStore is the in-process ProfileStore. Profiles are stored and
// returned by value so callers can never mutate a stored snapshot.
type MemoryStore struct {
	mu       sync.RWMutex
	profiles map[string]models.CustomerProfile
}

// NewMemoryStore creates an empty in-memory profile store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		profiles: make(map[string]models.CustomerProfile),
	}
}

// Get returns the latest snapshot for the id, or ErrNotFound.
func (s *MemoryStore) Get(ctx context.Context, id string) (models.CustomerProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.profiles[id]
	if !ok {
		return models.CustomerProfile{}, ErrNotFound
	}
	return copyProfile(p), nil
}

// Put stores the snapshot, replacing any previous one. Last write wins.
func (s *MemoryStore) Put(ctx context.Context, profile models.CustomerProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[profile.ID] = copyProfile(profile)
	return nil
}

// List returns all snapshots ordered by customer id.
func (s *MemoryStore) List(ctx context.Context) ([]models.CustomerProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.CustomerProfile, 0, len(s.profiles))
	for _, p := range s.profiles {
		out = append(out, copyProfile(p))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// copyProfile deep-copies the slice-valued fields so stored and returned
// values share no memory with the caller.
func copyProfile(p models.CustomerProfile) models.CustomerProfile {
	out := p
	out.Behavior.FeaturesUsed = append([]string(nil), p.Behavior.FeaturesUsed...)
	out.Behavior.RecentActions = append([]models.ActionRecord(nil), p.Behavior.RecentActions...)
	return out
}
