// Package models defines non-conformance cases, their actions and their audit
// trail, together with the transition rules that guard them.
package models

import (
	"fmt"
	"strings"
	"time"

	dErrors "complio/pkg/domain-errors"
)

type CaseStatus string

const (
	StatusOpen                CaseStatus = "OPEN"
	StatusInProgress          CaseStatus = "IN_PROGRESS"
	StatusPendingVerification CaseStatus = "PENDING_VERIFICATION"
	StatusClosed              CaseStatus = "CLOSED"
)

func (s CaseStatus) IsValid() bool {
	switch s {
	case StatusOpen, StatusInProgress, StatusPendingVerification, StatusClosed:
		return true
	}
	return false
}

type CaseType string

const (
	CaseTypeNC        CaseType = "NC"
	CaseTypeComplaint CaseType = "COMPLAINT"
	CaseTypeSupplier  CaseType = "SUPPLIER"
	CaseTypeOFI       CaseType = "OFI"
)

type Severity string

const (
	SeverityCritical Severity = "CRITICAL"
	SeverityHigh     Severity = "HIGH"
	SeverityMedium   Severity = "MEDIUM"
	SeverityLow      Severity = "LOW"
)

func (s Severity) IsValid() bool {
	switch s {
	case SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow:
		return true
	}
	return false
}

// ResponseDays is how long a case of this severity has before it is due.
func (s Severity) ResponseDays() int {
	switch s {
	case SeverityCritical:
		return 5
	case SeverityHigh:
		return 10
	case SeverityLow:
		return 20
	default:
		return 15
	}
}

// Case is a single non-conformance record.
//
// Invariants:
//   - Status is CLOSED only if every action on the case is DONE
//   - Closure fields are set only on the transition to CLOSED
//   - CLOSED is terminal
type Case struct {
	ID                string     `json:"id"`
	RefNumber         string     `json:"ref_number"`
	CaseType          CaseType   `json:"case_type"`
	Title             string     `json:"title"`
	Description       string     `json:"description,omitempty"`
	Category          string     `json:"category,omitempty"`
	Severity          Severity   `json:"severity"`
	Owner             string     `json:"owner,omitempty"`
	RaisedBy          string     `json:"raised_by,omitempty"`
	Status            CaseStatus `json:"status"`
	DueDate           *time.Time `json:"due_date,omitempty"`
	ContainmentNeeded bool       `json:"containment_needed"`

	ClosedDate        *time.Time `json:"closed_date,omitempty"`
	ClosureApprovedAt *time.Time `json:"closure_approved_at,omitempty"`
	ClosureApprovedBy *string    `json:"closure_approved_by,omitempty"`
	ClosureSignature  *string    `json:"closure_signature,omitempty"`
	ClosureComments   *string    `json:"closure_comments,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewCaseInput carries the caller-supplied fields of a new case.
type NewCaseInput struct {
	CaseType          CaseType
	Title             string
	Description       string
	Category          string
	Severity          Severity
	Owner             string
	RaisedBy          string
	DueDate           *time.Time
	ContainmentNeeded bool
}

// RefPrefix is the shared prefix of every reference number issued for caseType
// in the year of now.
func RefPrefix(caseType CaseType, now time.Time) string {
	return fmt.Sprintf("%s-%d-", caseType, now.Year())
}

// FormatRef renders the n-th reference number under prefix.
func FormatRef(prefix string, n int) string {
	return fmt.Sprintf("%s%04d", prefix, n)
}

// NewCase builds an OPEN case. Severity defaults to MEDIUM, owner to the
// raiser, and the due date to the severity's response window.
func NewCase(id, refNumber string, in NewCaseInput, now time.Time) (*Case, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "title is required")
	}
	if in.CaseType == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "case type is required")
	}
	severity := in.Severity
	if severity == "" {
		severity = SeverityMedium
	}
	if !severity.IsValid() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "severity must be one of [CRITICAL HIGH MEDIUM LOW]")
	}
	owner := in.Owner
	if owner == "" {
		owner = in.RaisedBy
	}
	due := in.DueDate
	if due == nil {
		d := now.AddDate(0, 0, severity.ResponseDays())
		due = &d
	}
	return &Case{
		ID:                id,
		RefNumber:         refNumber,
		CaseType:          in.CaseType,
		Title:             title,
		Description:       in.Description,
		Category:          in.Category,
		Severity:          severity,
		Owner:             owner,
		RaisedBy:          in.RaisedBy,
		Status:            StatusOpen,
		DueDate:           due,
		ContainmentNeeded: in.ContainmentNeeded,
		CreatedAt:         now,
		UpdatedAt:         now,
	}, nil
}

func (c *Case) IsClosed() bool {
	return c.Status == StatusClosed
}

// NeedsContainment reports whether creation should open a containment action.
func (c *Case) NeedsContainment() bool {
	return c.ContainmentNeeded && c.CaseType == CaseTypeNC
}

// CasePatch holds the fields an update may change. Nil fields are left alone.
type CasePatch struct {
	Title             *string
	Description       *string
	Category          *string
	Severity          *Severity
	Owner             *string
	Status            *CaseStatus
	DueDate           *time.Time
	ContainmentNeeded *bool
}

// CanApplyPatch rejects patches that would bypass the closure gate or reopen a
// closed case.
func (c *Case) CanApplyPatch(p CasePatch) error {
	if p.Title != nil && strings.TrimSpace(*p.Title) == "" {
		return dErrors.New(dErrors.CodeValidation, "title cannot be empty")
	}
	if p.Severity != nil && !p.Severity.IsValid() {
		return dErrors.New(dErrors.CodeValidation, "severity must be one of [CRITICAL HIGH MEDIUM LOW]")
	}
	if p.Status == nil {
		return nil
	}
	if !p.Status.IsValid() {
		return dErrors.New(dErrors.CodeValidation, "status must be one of [OPEN IN_PROGRESS PENDING_VERIFICATION CLOSED]")
	}
	if *p.Status == StatusClosed && !c.IsClosed() {
		return dErrors.New(dErrors.CodeValidation, "cases can only be closed through the close operation")
	}
	if c.IsClosed() && *p.Status != StatusClosed {
		return dErrors.New(dErrors.CodePreconditionFailed, "closed cases cannot be reopened")
	}
	return nil
}

// ApplyPatch writes the non-nil fields of p. Call CanApplyPatch first.
func (c *Case) ApplyPatch(p CasePatch, now time.Time) {
	if p.Title != nil {
		c.Title = strings.TrimSpace(*p.Title)
	}
	if p.Description != nil {
		c.Description = *p.Description
	}
	if p.Category != nil {
		c.Category = *p.Category
	}
	if p.Severity != nil {
		c.Severity = *p.Severity
	}
	if p.Owner != nil {
		c.Owner = *p.Owner
	}
	if p.Status != nil {
		c.Status = *p.Status
	}
	if p.DueDate != nil {
		d := *p.DueDate
		c.DueDate = &d
	}
	if p.ContainmentNeeded != nil {
		c.ContainmentNeeded = *p.ContainmentNeeded
	}
	c.UpdatedAt = now
}

// Closure carries the optional sign-off details recorded on close.
type Closure struct {
	Signature  *string
	ApprovedBy *string
	Comments   *string
}

// CanClose enforces the closure gate: the case must be open and every action DONE.
func (c *Case) CanClose(actions []*Action) error {
	if c.IsClosed() {
		return dErrors.New(dErrors.CodePreconditionFailed, "case is already closed")
	}
	for _, a := range actions {
		if !a.IsDone() {
			return dErrors.New(dErrors.CodePreconditionFailed, "Cannot close: Not all actions are completed")
		}
	}
	return nil
}

// ApplyClosure moves the case to CLOSED. Call CanClose first.
func (c *Case) ApplyClosure(cl Closure, now time.Time) {
	c.Status = StatusClosed
	closed := now
	approved := now
	c.ClosedDate = &closed
	c.ClosureApprovedAt = &approved
	c.ClosureSignature = cl.Signature
	c.ClosureApprovedBy = cl.ApprovedBy
	c.ClosureComments = cl.Comments
	c.UpdatedAt = now
}

// ReadyForVerification reports whether completing the last action should move
// the case to PENDING_VERIFICATION.
func (c *Case) ReadyForVerification(actions []*Action) bool {
	if c.IsClosed() || c.Status == StatusPendingVerification || len(actions) == 0 {
		return false
	}
	for _, a := range actions {
		if !a.IsDone() {
			return false
		}
	}
	return true
}

func (c *Case) ApplyPendingVerification(now time.Time) {
	c.Status = StatusPendingVerification
	c.UpdatedAt = now
}
