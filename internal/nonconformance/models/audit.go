package models

import (
	"fmt"
	"time"
)

type EventType string

const (
	EventCreated      EventType = "CREATED"
	EventEdited       EventType = "EDITED"
	EventStatusChange EventType = "STATUS_CHANGE"
	EventClosed       EventType = "CLOSED"
)

// AuditEntry is one append-only record in a case's history. Seq orders entries
// within a case and is assigned by the store.
type AuditEntry struct {
	ID          string         `json:"id"`
	CaseID      string         `json:"case_id"`
	Seq         int64          `json:"seq"`
	EventType   EventType      `json:"event_type"`
	Description string         `json:"description"`
	ActorID     string         `json:"actor_id"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
}

func NewCreatedEntry(id string, c *Case, actorID string, now time.Time) *AuditEntry {
	return &AuditEntry{
		ID:          id,
		CaseID:      c.ID,
		EventType:   EventCreated,
		Description: fmt.Sprintf("Case %s created by %s", c.RefNumber, actorID),
		ActorID:     actorID,
		Metadata: map[string]any{
			"caseType": string(c.CaseType),
			"severity": string(c.Severity),
		},
		CreatedAt: now,
	}
}

func NewEditedEntry(id string, c *Case, actorID string, changed []string, now time.Time) *AuditEntry {
	return &AuditEntry{
		ID:          id,
		CaseID:      c.ID,
		EventType:   EventEdited,
		Description: fmt.Sprintf("Case %s updated by %s", c.RefNumber, actorID),
		ActorID:     actorID,
		Metadata:    map[string]any{"changedFields": changed},
		CreatedAt:   now,
	}
}

func NewStatusChangeEntry(id string, c *Case, from CaseStatus, actorID string, now time.Time) *AuditEntry {
	return &AuditEntry{
		ID:          id,
		CaseID:      c.ID,
		EventType:   EventStatusChange,
		Description: fmt.Sprintf("Case %s moved from %s to %s", c.RefNumber, from, c.Status),
		ActorID:     actorID,
		Metadata:    map[string]any{"from": string(from), "to": string(c.Status)},
		CreatedAt:   now,
	}
}

func NewClosedEntry(id string, c *Case, actorID string, totalActions int, now time.Time) *AuditEntry {
	var comments any
	if c.ClosureComments != nil {
		comments = *c.ClosureComments
	}
	return &AuditEntry{
		ID:          id,
		CaseID:      c.ID,
		EventType:   EventClosed,
		Description: fmt.Sprintf("Case %s closed by %s", c.RefNumber, actorID),
		ActorID:     actorID,
		Metadata: map[string]any{
			"closureComments": comments,
			"totalActions":    totalActions,
		},
		CreatedAt: now,
	}
}

// ChangedFields names the fields a patch touches, for the EDITED entry metadata.
func (p CasePatch) ChangedFields() []string {
	fields := []string{}
	if p.Title != nil {
		fields = append(fields, "title")
	}
	if p.Description != nil {
		fields = append(fields, "description")
	}
	if p.Category != nil {
		fields = append(fields, "category")
	}
	if p.Severity != nil {
		fields = append(fields, "severity")
	}
	if p.Owner != nil {
		fields = append(fields, "owner")
	}
	if p.Status != nil {
		fields = append(fields, "status")
	}
	if p.DueDate != nil {
		fields = append(fields, "dueDate")
	}
	if p.ContainmentNeeded != nil {
		fields = append(fields, "containmentNeeded")
	}
	return fields
}
