// Package store persists non-conformance cases together with their actions and
// audit trail.
package store

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"complio/internal/nonconformance/models"
	"complio/pkg/platform/sentinel"
)

var (
	ErrNotFound = sentinel.ErrNotFound
	ErrConflict = sentinel.ErrConflict
)

// ListFilter narrows ListCases. Empty fields match everything.
type ListFilter struct {
	Status   models.CaseStatus
	CaseType models.CaseType
}

func (f ListFilter) matches(c *models.Case) bool {
	if f.Status != "" && c.Status != f.Status {
		return false
	}
	if f.CaseType != "" && c.CaseType != f.CaseType {
		return false
	}
	return true
}

// InMemoryStore keeps cases, actions and audit entries in maps. Deleting a case
// removes its actions and audit entries, mirroring the foreign keys of the
// Postgres schema.
type InMemoryStore struct {
	mu      sync.RWMutex
	cases   map[string]*models.Case
	actions map[string][]*models.Action
	audit   map[string][]*models.AuditEntry
	refSeq  map[string]int
	seq     int64
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{
		cases:   make(map[string]*models.Case),
		actions: make(map[string][]*models.Action),
		audit:   make(map[string][]*models.AuditEntry),
		refSeq:  make(map[string]int),
	}
}

func (s *InMemoryStore) CreateCase(_ context.Context, c *models.Case) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.cases[c.ID]; exists {
		return ErrConflict
	}
	for _, existing := range s.cases {
		if existing.RefNumber == c.RefNumber {
			return ErrConflict
		}
	}
	s.cases[c.ID] = cloneCase(c)
	return nil
}

func (s *InMemoryStore) FindCase(_ context.Context, id string) (*models.Case, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.cases[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneCase(c), nil
}

// ListCases returns matching cases, newest first.
func (s *InMemoryStore) ListCases(_ context.Context, filter ListFilter) ([]*models.Case, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Case, 0, len(s.cases))
	for _, c := range s.cases {
		if filter.matches(c) {
			out = append(out, cloneCase(c))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].RefNumber > out[j].RefNumber
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *InMemoryStore) UpdateCase(_ context.Context, c *models.Case) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.cases[c.ID]; !ok {
		return ErrNotFound
	}
	s.cases[c.ID] = cloneCase(c)
	return nil
}

func (s *InMemoryStore) DeleteCase(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.cases[id]; !ok {
		return ErrNotFound
	}
	delete(s.cases, id)
	delete(s.actions, id)
	delete(s.audit, id)
	return nil
}

// NextRefSeq returns one past the highest suffix ever issued under prefix.
// Deleted cases keep their numbers.
func (s *InMemoryStore) NextRefSeq(_ context.Context, prefix string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	last := s.refSeq[prefix]
	for _, c := range s.cases {
		suffix, ok := strings.CutPrefix(c.RefNumber, prefix)
		if !ok {
			continue
		}
		if n, err := strconv.Atoi(suffix); err == nil && n > last {
			last = n
		}
	}
	s.refSeq[prefix] = last + 1
	return last + 1, nil
}

func (s *InMemoryStore) CreateAction(_ context.Context, a *models.Action) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.cases[a.CaseID]; !ok {
		return ErrNotFound
	}
	s.actions[a.CaseID] = append(s.actions[a.CaseID], cloneAction(a))
	return nil
}

func (s *InMemoryStore) FindAction(_ context.Context, caseID, actionID string) (*models.Action, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, a := range s.actions[caseID] {
		if a.ID == actionID {
			return cloneAction(a), nil
		}
	}
	return nil, ErrNotFound
}

// ListActions returns a case's actions in creation order.
func (s *InMemoryStore) ListActions(_ context.Context, caseID string) ([]*models.Action, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	src := s.actions[caseID]
	out := make([]*models.Action, 0, len(src))
	for _, a := range src {
		out = append(out, cloneAction(a))
	}
	return out, nil
}

// ListActionsByCases groups the actions of several cases by case id.
func (s *InMemoryStore) ListActionsByCases(_ context.Context, caseIDs []string) (map[string][]*models.Action, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string][]*models.Action, len(caseIDs))
	for _, id := range caseIDs {
		for _, a := range s.actions[id] {
			out[id] = append(out[id], cloneAction(a))
		}
	}
	return out, nil
}

func (s *InMemoryStore) UpdateAction(_ context.Context, a *models.Action) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, existing := range s.actions[a.CaseID] {
		if existing.ID == a.ID {
			s.actions[a.CaseID][i] = cloneAction(a)
			return nil
		}
	}
	return ErrNotFound
}

func (s *InMemoryStore) DeleteAction(_ context.Context, caseID, actionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := s.actions[caseID]
	for i, existing := range list {
		if existing.ID == actionID {
			s.actions[caseID] = append(list[:i:i], list[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

// AppendAudit assigns the next sequence number and stores the entry.
func (s *InMemoryStore) AppendAudit(_ context.Context, e *models.AuditEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.cases[e.CaseID]; !ok {
		return ErrNotFound
	}
	s.seq++
	e.Seq = s.seq
	s.audit[e.CaseID] = append(s.audit[e.CaseID], cloneEntry(e))
	return nil
}

// ListAudit returns a case's entries in append order.
func (s *InMemoryStore) ListAudit(_ context.Context, caseID string) ([]*models.AuditEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	src := s.audit[caseID]
	out := make([]*models.AuditEntry, 0, len(src))
	for _, e := range src {
		out = append(out, cloneEntry(e))
	}
	return out, nil
}

func cloneCase(c *models.Case) *models.Case {
	out := *c
	out.DueDate = cloneTime(c.DueDate)
	out.ClosedDate = cloneTime(c.ClosedDate)
	out.ClosureApprovedAt = cloneTime(c.ClosureApprovedAt)
	out.ClosureApprovedBy = cloneString(c.ClosureApprovedBy)
	out.ClosureSignature = cloneString(c.ClosureSignature)
	out.ClosureComments = cloneString(c.ClosureComments)
	return &out
}

func cloneAction(a *models.Action) *models.Action {
	out := *a
	out.DueDate = cloneTime(a.DueDate)
	out.CompletedDate = cloneTime(a.CompletedDate)
	out.GlobalActionID = cloneString(a.GlobalActionID)
	return &out
}

func cloneEntry(e *models.AuditEntry) *models.AuditEntry {
	out := *e
	if e.Metadata != nil {
		out.Metadata = make(map[string]any, len(e.Metadata))
		for k, v := range e.Metadata {
			out.Metadata[k] = v
		}
	}
	return &out
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
