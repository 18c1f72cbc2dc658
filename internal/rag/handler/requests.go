package handler

import (
	"time"

	"complio/internal/rag"
	dErrors "complio/pkg/domain-errors"
	"complio/pkg/platform/validation"
)

// maxBatchSize bounds the number of subjects classified per request.
const maxBatchSize = 500

// ClassifyRequest is the HTTP request body for POST /rag/classify.
type ClassifyRequest struct {
	Subjects []SubjectRequest `json:"subjects" validate:"required,min=1,dive"`
}

// SubjectRequest is one record to classify.
type SubjectRequest struct {
	Kind        string     `json:"kind" validate:"required,oneof=training risk document calibration"`
	Status      string     `json:"status" validate:"max=32"`
	DueDate     *time.Time `json:"due_date"`
	NextReview  *time.Time `json:"next_review"`
	PerformedOn *time.Time `json:"performed_on"`
	Score       *int       `json:"score" validate:"omitempty,min=0,max=25"`
}

// Validate implements httputil.Validatable.
func (r *ClassifyRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if len(r.Subjects) > maxBatchSize {
		return dErrors.New(dErrors.CodeValidation, "too many subjects")
	}
	return validation.Struct(r)
}

func (s SubjectRequest) toSubject() (rag.Kind, rag.Subject) {
	return rag.Kind(s.Kind), rag.Subject{
		Status:      s.Status,
		DueDate:     s.DueDate,
		NextReview:  s.NextReview,
		PerformedOn: s.PerformedOn,
		Score:       s.Score,
	}
}
