package handler

import (
	"time"

	"complio/internal/permit/models"
	dErrors "complio/pkg/domain-errors"
	"complio/pkg/platform/validation"
)

type CreatePermitRequest struct {
	Title           string    `json:"title" validate:"required,max=200"`
	Type            string    `json:"type" validate:"required,max=64"`
	Location        string    `json:"location" validate:"max=200"`
	Contractor      string    `json:"contractor" validate:"max=200"`
	IssuedBy        string    `json:"issued_by" validate:"max=200"`
	ValidFrom       time.Time `json:"valid_from" validate:"required"`
	ValidUntil      time.Time `json:"valid_until" validate:"required"`
	Status          string    `json:"status" validate:"omitempty,oneof=PENDING APPROVED ACTIVE REJECTED EXPIRED CLOSED"`
	Hazards         string    `json:"hazards" validate:"max=5000"`
	ControlMeasures string    `json:"control_measures" validate:"max=5000"`
}

func (r *CreatePermitRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if err := validation.Struct(r); err != nil {
		return err
	}
	if r.ValidFrom.After(r.ValidUntil) {
		return dErrors.New(dErrors.CodeValidation, "valid_from must not be after valid_until")
	}
	return nil
}

func (r *CreatePermitRequest) toInput() models.NewPermitInput {
	return models.NewPermitInput{
		Title:           r.Title,
		Type:            r.Type,
		Location:        r.Location,
		Contractor:      r.Contractor,
		IssuedBy:        r.IssuedBy,
		ValidFrom:       r.ValidFrom,
		ValidUntil:      r.ValidUntil,
		Status:          models.Status(r.Status),
		Hazards:         r.Hazards,
		ControlMeasures: r.ControlMeasures,
	}
}

// UpdatePermitRequest leaves absent fields unchanged.
type UpdatePermitRequest struct {
	Title           *string    `json:"title" validate:"omitempty,max=200"`
	Type            *string    `json:"type" validate:"omitempty,max=64"`
	Location        *string    `json:"location" validate:"omitempty,max=200"`
	Contractor      *string    `json:"contractor" validate:"omitempty,max=200"`
	IssuedBy        *string    `json:"issued_by" validate:"omitempty,max=200"`
	ValidFrom       *time.Time `json:"valid_from"`
	ValidUntil      *time.Time `json:"valid_until"`
	Status          *string    `json:"status" validate:"omitempty,oneof=PENDING APPROVED ACTIVE REJECTED EXPIRED CLOSED"`
	Hazards         *string    `json:"hazards" validate:"omitempty,max=5000"`
	ControlMeasures *string    `json:"control_measures" validate:"omitempty,max=5000"`
}

func (r *UpdatePermitRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	return validation.Struct(r)
}

func (r *UpdatePermitRequest) toPatch() models.PermitPatch {
	p := models.PermitPatch{
		Title:           r.Title,
		Type:            r.Type,
		Location:        r.Location,
		Contractor:      r.Contractor,
		IssuedBy:        r.IssuedBy,
		ValidFrom:       r.ValidFrom,
		ValidUntil:      r.ValidUntil,
		Hazards:         r.Hazards,
		ControlMeasures: r.ControlMeasures,
	}
	if r.Status != nil {
		st := models.Status(*r.Status)
		p.Status = &st
	}
	return p
}

// RecordApprovalRequest is the body of POST /permits/{id}/approvals.
type RecordApprovalRequest struct {
	Level        int    `json:"level" validate:"required,oneof=1 2"`
	ApproverRole string `json:"approver_role" validate:"required,max=100"`
	ApproverName string `json:"approver_name" validate:"max=200"`
	Status       string `json:"status" validate:"omitempty,oneof=PENDING APPROVED REJECTED"`
	Comments     string `json:"comments" validate:"max=5000"`
}

func (r *RecordApprovalRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	return validation.Struct(r)
}

func (r *RecordApprovalRequest) toInput() models.NewApprovalInput {
	return models.NewApprovalInput{
		Level:        r.Level,
		ApproverRole: r.ApproverRole,
		ApproverName: r.ApproverName,
		Status:       models.ApprovalStatus(r.Status),
		Comments:     r.Comments,
	}
}
