// Package models defines the Global Action register entries that workflow
// engines link their local actions to.
package models

import (
	"strings"
	"time"

	dErrors "complio/pkg/domain-errors"
)

type Type string

const (
	TypeCorrective  Type = "CORRECTIVE"
	TypePreventive  Type = "PREVENTIVE"
	TypeContainment Type = "CONTAINMENT"
	TypeImprovement Type = "IMPROVEMENT"
)

type Status string

const (
	StatusOpen       Status = "OPEN"
	StatusInProgress Status = "IN_PROGRESS"
	StatusCompleted  Status = "COMPLETED"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusOpen, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

// Action is one entry in the register.
type Action struct {
	ID        string     `json:"id"`
	Type      Type       `json:"type"`
	Title     string     `json:"title"`
	Details   string     `json:"details,omitempty"`
	Owner     string     `json:"owner,omitempty"`
	DueDate   *time.Time `json:"due_date,omitempty"`
	Status    Status     `json:"status"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// NewAction builds an OPEN action, enforcing the fields every entry needs.
func NewAction(id string, actionType Type, title, details, owner string, dueDate *time.Time, now time.Time) (*Action, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "action title is required")
	}
	if actionType == "" {
		actionType = TypeCorrective
	}
	return &Action{
		ID:        id,
		Type:      actionType,
		Title:     title,
		Details:   details,
		Owner:     owner,
		DueDate:   dueDate,
		Status:    StatusOpen,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// ApplyStatus moves the action to status. Setting the current status is a no-op
// and reports false.
func (a *Action) ApplyStatus(status Status, now time.Time) bool {
	if a.Status == status {
		return false
	}
	a.Status = status
	a.UpdatedAt = now
	return true
}
