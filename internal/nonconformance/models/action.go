package models

import (
	"strings"
	"time"

	dErrors "complio/pkg/domain-errors"
)

type ActionType string

const (
	ActionContainment ActionType = "CONTAINMENT"
	ActionCorrective  ActionType = "CORRECTIVE"
	ActionPreventive  ActionType = "PREVENTIVE"
)

func (t ActionType) IsValid() bool {
	switch t {
	case ActionContainment, ActionCorrective, ActionPreventive:
		return true
	}
	return false
}

type ActionStatus string

const (
	ActionOpen       ActionStatus = "OPEN"
	ActionInProgress ActionStatus = "IN_PROGRESS"
	ActionDone       ActionStatus = "DONE"
)

func (s ActionStatus) IsValid() bool {
	switch s {
	case ActionOpen, ActionInProgress, ActionDone:
		return true
	}
	return false
}

type Priority string

const (
	PriorityHigh   Priority = "HIGH"
	PriorityMedium Priority = "MEDIUM"
	PriorityLow    Priority = "LOW"
)

// Action is a remediation step owned by a case. DONE is terminal.
type Action struct {
	ID             string       `json:"id"`
	CaseID         string       `json:"case_id"`
	ActionType     ActionType   `json:"action_type"`
	Title          string       `json:"title"`
	Description    string       `json:"description,omitempty"`
	Owner          string       `json:"owner,omitempty"`
	DueDate        *time.Time   `json:"due_date,omitempty"`
	Priority       Priority     `json:"priority"`
	Status         ActionStatus `json:"status"`
	CompletedDate  *time.Time   `json:"completed_date,omitempty"`
	GlobalActionID *string      `json:"global_action_id,omitempty"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
}

// NewActionInput carries the caller-supplied fields of a new action.
type NewActionInput struct {
	ActionType  ActionType
	Title       string
	Description string
	Owner       string
	DueDate     *time.Time
	Priority    Priority
}

func NewAction(id, caseID string, in NewActionInput, now time.Time) (*Action, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "action title is required")
	}
	if !in.ActionType.IsValid() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "action type must be one of [CONTAINMENT CORRECTIVE PREVENTIVE]")
	}
	priority := in.Priority
	if priority == "" {
		priority = PriorityMedium
	}
	return &Action{
		ID:          id,
		CaseID:      caseID,
		ActionType:  in.ActionType,
		Title:       title,
		Description: in.Description,
		Owner:       in.Owner,
		DueDate:     in.DueDate,
		Priority:    priority,
		Status:      ActionOpen,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

func (a *Action) IsDone() bool {
	return a.Status == ActionDone
}

// LinkGlobalAction records the register entry mirroring this action.
func (a *Action) LinkGlobalAction(globalActionID string) {
	a.GlobalActionID = &globalActionID
}

// ActionPatch holds the fields an action update may change.
type ActionPatch struct {
	Title       *string
	Description *string
	Owner       *string
	DueDate     *time.Time
	Priority    *Priority
	Status      *ActionStatus
}

func (a *Action) CanApplyPatch(p ActionPatch) error {
	if p.Title != nil && strings.TrimSpace(*p.Title) == "" {
		return dErrors.New(dErrors.CodeValidation, "title cannot be empty")
	}
	if p.Status == nil {
		return nil
	}
	if !p.Status.IsValid() {
		return dErrors.New(dErrors.CodeValidation, "status must be one of [OPEN IN_PROGRESS DONE]")
	}
	if a.IsDone() && *p.Status != ActionDone {
		return dErrors.New(dErrors.CodePreconditionFailed, "completed actions cannot be reopened")
	}
	return nil
}

// ApplyPatch writes the non-nil fields of p. A status change to DONE stamps the
// completion date; any other status clears it.
func (a *Action) ApplyPatch(p ActionPatch, now time.Time) {
	if p.Title != nil {
		a.Title = strings.TrimSpace(*p.Title)
	}
	if p.Description != nil {
		a.Description = *p.Description
	}
	if p.Owner != nil {
		a.Owner = *p.Owner
	}
	if p.DueDate != nil {
		d := *p.DueDate
		a.DueDate = &d
	}
	if p.Priority != nil {
		a.Priority = *p.Priority
	}
	if p.Status != nil {
		if *p.Status == ActionDone && !a.IsDone() {
			completed := now
			a.CompletedDate = &completed
		} else if *p.Status != ActionDone {
			a.CompletedDate = nil
		}
		a.Status = *p.Status
	}
	a.UpdatedAt = now
}
