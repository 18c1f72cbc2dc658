package models

import (
	"strings"
	"time"

	dErrors "complio/pkg/domain-errors"
)

const (
	LevelInternal = 1
	LevelClient   = 2
)

type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "PENDING"
	ApprovalApproved ApprovalStatus = "APPROVED"
	ApprovalRejected ApprovalStatus = "REJECTED"
)

func (s ApprovalStatus) IsValid() bool {
	switch s {
	case ApprovalPending, ApprovalApproved, ApprovalRejected:
		return true
	}
	return false
}

// Approval is one row of a permit's approval log. Rows are never edited;
// a later decision at the same level is a new row.
type Approval struct {
	ID           string         `json:"id"`
	PermitID     string         `json:"permit_id"`
	Seq          int64          `json:"seq"`
	Level        int            `json:"level"`
	ApproverRole string         `json:"approver_role"`
	ApproverName string         `json:"approver_name,omitempty"`
	Status       ApprovalStatus `json:"status"`
	Comments     string         `json:"comments,omitempty"`
	SignedAt     *time.Time     `json:"signed_at,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
}

type NewApprovalInput struct {
	Level        int
	ApproverRole string
	ApproverName string
	Status       ApprovalStatus
	Comments     string
}

// NewApproval builds an approval row. Status defaults to PENDING and SignedAt
// is stamped once the row carries a decision.
func NewApproval(id, permitID string, in NewApprovalInput, now time.Time) (*Approval, error) {
	if in.Level != LevelInternal && in.Level != LevelClient {
		return nil, dErrors.New(dErrors.CodeValidation, "level must be 1 or 2")
	}
	role := strings.TrimSpace(in.ApproverRole)
	if role == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "approver role is required")
	}
	status := in.Status
	if status == "" {
		status = ApprovalPending
	}
	if !status.IsValid() {
		return nil, dErrors.New(dErrors.CodeValidation, "status must be one of [PENDING APPROVED REJECTED]")
	}
	a := &Approval{
		ID:           id,
		PermitID:     permitID,
		Level:        in.Level,
		ApproverRole: role,
		ApproverName: in.ApproverName,
		Status:       status,
		Comments:     in.Comments,
		CreatedAt:    now,
	}
	if status != ApprovalPending {
		signed := now
		a.SignedAt = &signed
	}
	return a, nil
}
