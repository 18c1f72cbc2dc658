// Package memory is an audit.Sink that keeps events in process, for tests and
// single-node development.
package memory

import (
	"context"
	"sync"

	audit "complio/pkg/platform/audit"
)

type Sink struct {
	mu     sync.RWMutex
	events []audit.Event
}

func NewSink() *Sink {
	return &Sink{}
}

func (s *Sink) Write(_ context.Context, events []audit.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, events...)
	return nil
}

// ListByEntity returns the events for one case or permit in write order.
func (s *Sink) ListByEntity(entityID string) []audit.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []audit.Event
	for _, e := range s.events {
		if e.EntityID == entityID {
			out = append(out, e)
		}
	}
	return out
}

func (s *Sink) ListAll() []audit.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]audit.Event{}, s.events...)
}
