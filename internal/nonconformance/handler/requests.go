package handler

import (
	"strings"
	"time"

	"complio/internal/nonconformance/models"
	"complio/internal/nonconformance/service"
	dErrors "complio/pkg/domain-errors"
	"complio/pkg/platform/validation"
)

// CreateCaseRequest is the body of POST /nonconformance.
type CreateCaseRequest struct {
	CaseType          string     `json:"case_type" validate:"required,max=32"`
	Title             string     `json:"title" validate:"required,max=200"`
	Description       string     `json:"description" validate:"max=5000"`
	Category          string     `json:"category" validate:"max=100"`
	Severity          string     `json:"severity" validate:"omitempty,oneof=CRITICAL HIGH MEDIUM LOW"`
	Owner             string     `json:"owner" validate:"max=200"`
	RaisedBy          string     `json:"raised_by" validate:"max=200"`
	DueDate           *time.Time `json:"due_date"`
	ContainmentNeeded bool       `json:"containment_needed"`
}

func (r *CreateCaseRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	r.CaseType = strings.ToUpper(strings.TrimSpace(r.CaseType))
	r.Title = strings.TrimSpace(r.Title)
	return validation.Struct(r)
}

func (r *CreateCaseRequest) toInput(actorID string) service.CreateInput {
	return service.CreateInput{
		NewCaseInput: models.NewCaseInput{
			CaseType:          models.CaseType(r.CaseType),
			Title:             r.Title,
			Description:       r.Description,
			Category:          r.Category,
			Severity:          models.Severity(r.Severity),
			Owner:             r.Owner,
			RaisedBy:          r.RaisedBy,
			DueDate:           r.DueDate,
			ContainmentNeeded: r.ContainmentNeeded,
		},
		ActorID: actorID,
	}
}

// UpdateCaseRequest is the body of PUT /nonconformance/{id}. Absent fields are
// left unchanged.
type UpdateCaseRequest struct {
	Title             *string    `json:"title" validate:"omitempty,max=200"`
	Description       *string    `json:"description" validate:"omitempty,max=5000"`
	Category          *string    `json:"category" validate:"omitempty,max=100"`
	Severity          *string    `json:"severity" validate:"omitempty,oneof=CRITICAL HIGH MEDIUM LOW"`
	Owner             *string    `json:"owner" validate:"omitempty,max=200"`
	Status            *string    `json:"status" validate:"omitempty,oneof=OPEN IN_PROGRESS PENDING_VERIFICATION CLOSED"`
	DueDate           *time.Time `json:"due_date"`
	ContainmentNeeded *bool      `json:"containment_needed"`
	UpdatedBy         string     `json:"updated_by" validate:"max=200"`
}

func (r *UpdateCaseRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	return validation.Struct(r)
}

func (r *UpdateCaseRequest) toPatch() models.CasePatch {
	p := models.CasePatch{
		Title:             r.Title,
		Description:       r.Description,
		Category:          r.Category,
		Owner:             r.Owner,
		DueDate:           r.DueDate,
		ContainmentNeeded: r.ContainmentNeeded,
	}
	if r.Severity != nil {
		sev := models.Severity(*r.Severity)
		p.Severity = &sev
	}
	if r.Status != nil {
		st := models.CaseStatus(*r.Status)
		p.Status = &st
	}
	return p
}

// CloseCaseRequest is the body of POST /nonconformance/{id}/close.
type CloseCaseRequest struct {
	Signature  *string `json:"signature" validate:"omitempty,max=100000"`
	ApprovedBy *string `json:"approved_by" validate:"omitempty,max=200"`
	Comments   *string `json:"comments" validate:"omitempty,max=5000"`
}

func (r *CloseCaseRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	return validation.Struct(r)
}

// AddActionRequest is the body of POST /nonconformance/{id}/actions.
type AddActionRequest struct {
	ActionType  string     `json:"action_type" validate:"required,oneof=CONTAINMENT CORRECTIVE PREVENTIVE"`
	Title       string     `json:"title" validate:"required,max=200"`
	Description string     `json:"description" validate:"max=5000"`
	Owner       string     `json:"owner" validate:"max=200"`
	DueDate     *time.Time `json:"due_date"`
	Priority    string     `json:"priority" validate:"omitempty,oneof=HIGH MEDIUM LOW"`
	LinkGlobal  bool       `json:"link_global_action"`
}

func (r *AddActionRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	r.Title = strings.TrimSpace(r.Title)
	return validation.Struct(r)
}

func (r *AddActionRequest) toInput() service.AddActionInput {
	return service.AddActionInput{
		NewActionInput: models.NewActionInput{
			ActionType:  models.ActionType(r.ActionType),
			Title:       r.Title,
			Description: r.Description,
			Owner:       r.Owner,
			DueDate:     r.DueDate,
			Priority:    models.Priority(r.Priority),
		},
		LinkGlobal: r.LinkGlobal,
	}
}

// UpdateActionRequest is the body of PUT /nonconformance/{id}/actions/{actionID}.
type UpdateActionRequest struct {
	Title       *string    `json:"title" validate:"omitempty,max=200"`
	Description *string    `json:"description" validate:"omitempty,max=5000"`
	Owner       *string    `json:"owner" validate:"omitempty,max=200"`
	DueDate     *time.Time `json:"due_date"`
	Priority    *string    `json:"priority" validate:"omitempty,oneof=HIGH MEDIUM LOW"`
	Status      *string    `json:"status" validate:"omitempty,oneof=OPEN IN_PROGRESS DONE"`
}

func (r *UpdateActionRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	return validation.Struct(r)
}

func (r *UpdateActionRequest) toPatch() models.ActionPatch {
	p := models.ActionPatch{
		Title:       r.Title,
		Description: r.Description,
		Owner:       r.Owner,
		DueDate:     r.DueDate,
	}
	if r.Priority != nil {
		pr := models.Priority(*r.Priority)
		p.Priority = &pr
	}
	if r.Status != nil {
		st := models.ActionStatus(*r.Status)
		p.Status = &st
	}
	return p
}
