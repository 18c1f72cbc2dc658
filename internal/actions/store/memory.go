// Package store persists Global Actions.
package store

import (
	"context"
	"sync"

	"complio/internal/actions/models"
	"complio/pkg/platform/sentinel"
)

// ErrNotFound is returned when an action does not exist.
var ErrNotFound = sentinel.ErrNotFound

// InMemoryStore keeps actions in a map. Safe for concurrent use.
type InMemoryStore struct {
	mu      sync.RWMutex
	actions map[string]*models.Action
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{actions: make(map[string]*models.Action)}
}

func (s *InMemoryStore) Create(_ context.Context, action *models.Action) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.actions[action.ID]; exists {
		return sentinel.ErrConflict
	}
	s.actions[action.ID] = clone(action)
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, id string) (*models.Action, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.actions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return clone(a), nil
}

// FindByIDs returns the actions that exist, in the order requested.
func (s *InMemoryStore) FindByIDs(_ context.Context, ids []string) ([]*models.Action, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Action, 0, len(ids))
	for _, id := range ids {
		if a, ok := s.actions[id]; ok {
			out = append(out, clone(a))
		}
	}
	return out, nil
}

func (s *InMemoryStore) Update(_ context.Context, action *models.Action) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.actions[action.ID]; !ok {
		return ErrNotFound
	}
	s.actions[action.ID] = clone(action)
	return nil
}

func (s *InMemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.actions[id]; !ok {
		return ErrNotFound
	}
	delete(s.actions, id)
	return nil
}

func clone(a *models.Action) *models.Action {
	c := *a
	if a.DueDate != nil {
		d := *a.DueDate
		c.DueDate = &d
	}
	return &c
}
