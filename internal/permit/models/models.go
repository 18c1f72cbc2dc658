// Package models holds permits-to-work and the approval log that advances them.
package models

import (
	"strings"
	"time"

	dErrors "complio/pkg/domain-errors"
)

type Status string

const (
	StatusPending  Status = "PENDING"
	StatusApproved Status = "APPROVED"
	StatusActive   Status = "ACTIVE"
	StatusRejected Status = "REJECTED"
	StatusExpired  Status = "EXPIRED"
	StatusClosed   Status = "CLOSED"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusActive, StatusRejected, StatusExpired, StatusClosed:
		return true
	}
	return false
}

// Permit is a work authorization that needs internal and client sign-off.
type Permit struct {
	ID               string    `json:"id"`
	Title            string    `json:"title"`
	Type             string    `json:"type"`
	Location         string    `json:"location,omitempty"`
	Contractor       string    `json:"contractor,omitempty"`
	IssuedBy         string    `json:"issued_by,omitempty"`
	InternalApprover string    `json:"internal_approver,omitempty"`
	ClientApprover   string    `json:"client_approver,omitempty"`
	ValidFrom        time.Time `json:"valid_from"`
	ValidUntil       time.Time `json:"valid_until"`
	Status           Status    `json:"status"`
	Hazards          string    `json:"hazards,omitempty"`
	ControlMeasures  string    `json:"control_measures,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

type NewPermitInput struct {
	Title           string
	Type            string
	Location        string
	Contractor      string
	IssuedBy        string
	ValidFrom       time.Time
	ValidUntil      time.Time
	Status          Status
	Hazards         string
	ControlMeasures string
}

func NewPermit(id string, in NewPermitInput, now time.Time) (*Permit, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "title is required")
	}
	if strings.TrimSpace(in.Type) == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "permit type is required")
	}
	status := in.Status
	if status == "" {
		status = StatusPending
	}
	if !status.IsValid() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "invalid permit status")
	}
	if err := checkWindow(in.ValidFrom, in.ValidUntil); err != nil {
		return nil, err
	}
	return &Permit{
		ID:              id,
		Title:           title,
		Type:            in.Type,
		Location:        in.Location,
		Contractor:      in.Contractor,
		IssuedBy:        in.IssuedBy,
		ValidFrom:       in.ValidFrom,
		ValidUntil:      in.ValidUntil,
		Status:          status,
		Hazards:         in.Hazards,
		ControlMeasures: in.ControlMeasures,
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}

func checkWindow(from, until time.Time) error {
	if from.IsZero() || until.IsZero() {
		return dErrors.New(dErrors.CodeInvariantViolation, "validity window requires valid_from and valid_until")
	}
	if from.After(until) {
		return dErrors.New(dErrors.CodeInvariantViolation, "valid_from must not be after valid_until")
	}
	return nil
}

// PermitPatch is a partial update. Nil fields are left unchanged.
type PermitPatch struct {
	Title           *string
	Type            *string
	Location        *string
	Contractor      *string
	IssuedBy        *string
	ValidFrom       *time.Time
	ValidUntil      *time.Time
	Status          *Status
	Hazards         *string
	ControlMeasures *string
}

func (p *Permit) CanApplyPatch(patch PermitPatch) error {
	if patch.Title != nil && strings.TrimSpace(*patch.Title) == "" {
		return dErrors.New(dErrors.CodeInvariantViolation, "title is required")
	}
	if patch.Status != nil && !patch.Status.IsValid() {
		return dErrors.New(dErrors.CodeInvariantViolation, "invalid permit status")
	}
	from, until := p.ValidFrom, p.ValidUntil
	if patch.ValidFrom != nil {
		from = *patch.ValidFrom
	}
	if patch.ValidUntil != nil {
		until = *patch.ValidUntil
	}
	return checkWindow(from, until)
}

func (p *Permit) ApplyPatch(patch PermitPatch, now time.Time) {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	if patch.Title != nil {
		p.Title = strings.TrimSpace(*patch.Title)
	}
	set(&p.Type, patch.Type)
	set(&p.Location, patch.Location)
	set(&p.Contractor, patch.Contractor)
	set(&p.IssuedBy, patch.IssuedBy)
	set(&p.Hazards, patch.Hazards)
	set(&p.ControlMeasures, patch.ControlMeasures)
	if patch.ValidFrom != nil {
		p.ValidFrom = *patch.ValidFrom
	}
	if patch.ValidUntil != nil {
		p.ValidUntil = *patch.ValidUntil
	}
	if patch.Status != nil {
		p.Status = *patch.Status
	}
	p.UpdatedAt = now
}

// ApplyApproval moves the permit forward for an APPROVED approval row. A
// level-1 approval names the internal approver and marks the permit APPROVED
// unless it has already moved past approval. A level-2 approval only names the
// client approver; activation stays with the caller. It reports whether the
// permit changed.
func (p *Permit) ApplyApproval(a *Approval, now time.Time) bool {
	if a.Status != ApprovalApproved {
		return false
	}
	switch a.Level {
	case LevelInternal:
		p.InternalApprover = a.ApproverName
		switch p.Status {
		case StatusPending, StatusApproved, StatusRejected:
			p.Status = StatusApproved
		}
	case LevelClient:
		p.ClientApprover = a.ApproverName
	default:
		return false
	}
	p.UpdatedAt = now
	return true
}
