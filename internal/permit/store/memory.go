// Package store persists permits and their approval logs.
package store

import (
	"context"
	"sort"
	"sync"

	"complio/internal/permit/models"
	"complio/pkg/platform/sentinel"
)

var (
	ErrNotFound = sentinel.ErrNotFound
	ErrConflict = sentinel.ErrConflict
)

// ListFilter narrows ListPermits. Empty fields match everything.
type ListFilter struct {
	Status models.Status
}

type InMemoryStore struct {
	mu        sync.RWMutex
	permits   map[string]*models.Permit
	approvals map[string][]*models.Approval
	seq       int64
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{
		permits:   make(map[string]*models.Permit),
		approvals: make(map[string][]*models.Approval),
	}
}

func (s *InMemoryStore) CreatePermit(_ context.Context, p *models.Permit) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.permits[p.ID]; exists {
		return ErrConflict
	}
	c := *p
	s.permits[p.ID] = &c
	return nil
}

func (s *InMemoryStore) FindPermit(_ context.Context, id string) (*models.Permit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.permits[id]
	if !ok {
		return nil, ErrNotFound
	}
	c := *p
	return &c, nil
}

// ListPermits returns matching permits, most recently created first.
func (s *InMemoryStore) ListPermits(_ context.Context, filter ListFilter) ([]*models.Permit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Permit, 0, len(s.permits))
	for _, p := range s.permits {
		if filter.Status != "" && p.Status != filter.Status {
			continue
		}
		c := *p
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *InMemoryStore) UpdatePermit(_ context.Context, p *models.Permit) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.permits[p.ID]; !ok {
		return ErrNotFound
	}
	c := *p
	s.permits[p.ID] = &c
	return nil
}

// DeletePermit removes the permit and its approval log.
func (s *InMemoryStore) DeletePermit(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.permits[id]; !ok {
		return ErrNotFound
	}
	delete(s.permits, id)
	delete(s.approvals, id)
	return nil
}

// AppendApproval stores a and assigns its Seq.
func (s *InMemoryStore) AppendApproval(_ context.Context, a *models.Approval) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.permits[a.PermitID]; !ok {
		return ErrNotFound
	}
	s.seq++
	a.Seq = s.seq
	s.approvals[a.PermitID] = append(s.approvals[a.PermitID], cloneApproval(a))
	return nil
}

// ListApprovals returns the permit's approvals by level, then insertion order.
func (s *InMemoryStore) ListApprovals(_ context.Context, permitID string) ([]*models.Approval, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows := s.approvals[permitID]
	out := make([]*models.Approval, 0, len(rows))
	for _, a := range rows {
		out = append(out, cloneApproval(a))
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Level != out[j].Level {
			return out[i].Level < out[j].Level
		}
		return out[i].Seq < out[j].Seq
	})
	return out, nil
}

func cloneApproval(a *models.Approval) *models.Approval {
	c := *a
	if a.SignedAt != nil {
		t := *a.SignedAt
		c.SignedAt = &t
	}
	return &c
}
