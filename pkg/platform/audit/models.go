// Package audit streams audit trail entries out of the service once they have
// been committed. The database audit log stays the record of truth; the
// stream feeds downstream consumers such as reporting and SIEM.
package audit

import (
	"context"
	"time"
)

// Category routes events to retention tiers downstream.
type Category string

const (
	// CategoryCompliance covers case and permit decisions with regulatory weight.
	CategoryCompliance Category = "compliance"
	// CategoryOperations covers housekeeping such as deletions.
	CategoryOperations Category = "operations"
)

// Stream names the aggregate an event belongs to.
type Stream string

const (
	StreamNonConformance Stream = "nonconformance"
	StreamPermit         Stream = "permit"
)

// Event is one committed audit fact. EntityID is the partition key so events
// for one case or permit stay ordered.
type Event struct {
	ID          string         `json:"id"`
	Category    Category       `json:"category"`
	Stream      Stream         `json:"stream"`
	Action      string         `json:"action"`
	EntityID    string         `json:"entity_id"`
	ActorID     string         `json:"actor_id,omitempty"`
	RequestID   string         `json:"request_id,omitempty"`
	TraceID     string         `json:"trace_id,omitempty"`
	Description string         `json:"description,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	Timestamp   time.Time      `json:"timestamp"`
}

// Sink delivers a batch of events.
type Sink interface {
	Write(ctx context.Context, events []Event) error
}

// Emitter is what services depend on.
type Emitter interface {
	Emit(ctx context.Context, event Event) error
}

// Nop discards every event. Used when no stream is configured.
type Nop struct{}

func (Nop) Emit(context.Context, Event) error { return nil }
