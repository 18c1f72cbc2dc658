package service

import (
	"context"
	"strconv"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"complio/internal/permit/models"
	"complio/internal/permit/store"
	dErrors "complio/pkg/domain-errors"
	audit "complio/pkg/platform/audit"
	"complio/pkg/platform/tx"
	"complio/pkg/requestcontext"
)

func (s *Service) Create(ctx context.Context, in models.NewPermitInput) (*models.Permit, error) {
	ctx, span := tracer.Start(ctx, "permit.Create")
	defer span.End()

	if in.IssuedBy == "" {
		in.IssuedBy = requestcontext.ActorID(ctx)
	}
	p, err := models.NewPermit(s.newID(), in, s.now(ctx))
	if err != nil {
		return nil, err
	}
	if err := s.store.CreatePermit(ctx, p); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "create failed")
		return nil, translate(err, "failed to create permit")
	}
	span.SetAttributes(attribute.String("permit.id", p.ID))
	s.metrics.IncrementCreated()
	s.logger.InfoContext(ctx, "permit created",
		"log_type", "audit",
		"permit_id", p.ID,
		"actor_id", requestcontext.ActorID(ctx),
		"request_id", requestcontext.RequestID(ctx),
	)
	return p, nil
}

func (s *Service) Get(ctx context.Context, id string) (*models.Permit, error) {
	p, err := s.store.FindPermit(ctx, id)
	if err != nil {
		return nil, translate(err, "failed to load permit")
	}
	return p, nil
}

func (s *Service) List(ctx context.Context, filter store.ListFilter) ([]*models.Permit, error) {
	permits, err := s.store.ListPermits(ctx, filter)
	if err != nil {
		return nil, translate(err, "failed to list permits")
	}
	return permits, nil
}

// Update applies patch. Any valid status may be set here; activation once
// both parties have signed is a caller decision.
func (s *Service) Update(ctx context.Context, id string, patch models.PermitPatch) (*models.Permit, error) {
	ctx, span := tracer.Start(ctx, "permit.Update")
	defer span.End()
	span.SetAttributes(attribute.String("permit.id", id))

	var updated *models.Permit
	err := s.withPermitLock(ctx, id, func() error {
		return s.tx.RunInTx(ctx, func(txCtx context.Context) error {
			p, err := s.store.FindPermit(txCtx, id)
			if err != nil {
				return translate(err, "failed to load permit")
			}
			if err := p.CanApplyPatch(patch); err != nil {
				return err
			}
			p.ApplyPatch(patch, s.now(txCtx))
			if err := s.store.UpdatePermit(txCtx, p); err != nil {
				return translate(err, "failed to update permit")
			}
			updated = p
			return nil
		})
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "update failed")
		return nil, err
	}
	return updated, nil
}

// Delete removes the permit and its approval log.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.withPermitLock(ctx, id, func() error {
		if err := s.store.DeletePermit(ctx, id); err != nil {
			return translate(err, "failed to delete permit")
		}
		s.logger.InfoContext(ctx, "permit deleted",
			"log_type", "audit",
			"permit_id", id,
			"actor_id", requestcontext.ActorID(ctx),
			"request_id", requestcontext.RequestID(ctx),
		)
		return nil
	})
}

// ApprovalResult is the recorded row and the permit as it stands afterwards.
type ApprovalResult struct {
	Approval *models.Approval `json:"approval"`
	Permit   *models.Permit   `json:"permit"`
}

// RecordApproval appends an approval row and, for APPROVED rows, advances the
// permit. Both writes commit together. Earlier rows are never re-evaluated.
//
// A level-1 approval does not move a permit that is already ACTIVE, EXPIRED or
// CLOSED back to APPROVED. The row is still recorded and the approver named.
func (s *Service) RecordApproval(ctx context.Context, permitID string, in models.NewApprovalInput) (*ApprovalResult, error) {
	ctx, span := tracer.Start(ctx, "permit.RecordApproval")
	defer span.End()
	span.SetAttributes(
		attribute.String("permit.id", permitID),
		attribute.Int("approval.level", in.Level),
	)

	var result *ApprovalResult
	err := s.withPermitLock(ctx, permitID, func() error {
		return s.tx.RunInTx(ctx, func(txCtx context.Context) error {
			now := s.now(txCtx)
			a, err := models.NewApproval(s.newID(), permitID, in, now)
			if err != nil {
				return err
			}
			p, err := s.store.FindPermit(txCtx, permitID)
			if err != nil {
				return translate(err, "failed to load permit")
			}
			if err := s.store.AppendApproval(txCtx, a); err != nil {
				return translate(err, "failed to record approval")
			}
			if p.ApplyApproval(a, now) {
				if err := s.store.UpdatePermit(txCtx, p); err != nil {
					return translate(err, "failed to update permit")
				}
				s.metrics.IncrementAdvanced()
			}
			result = &ApprovalResult{Approval: a, Permit: p}
			s.publishApproval(txCtx, a, p)
			return nil
		})
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "record approval failed")
		return nil, err
	}

	s.metrics.IncrementApproval(strconv.Itoa(result.Approval.Level), string(result.Approval.Status))
	s.logger.InfoContext(ctx, "permit approval recorded",
		"log_type", "audit",
		"permit_id", permitID,
		"level", result.Approval.Level,
		"approval_status", string(result.Approval.Status),
		"permit_status", string(result.Permit.Status),
		"actor_id", requestcontext.ActorID(ctx),
		"request_id", requestcontext.RequestID(ctx),
	)
	return result, nil
}

// ListApprovals returns the permit's approval log ordered by level, then by
// insertion within a level. Duplicate rows per level are returned as-is.
func (s *Service) ListApprovals(ctx context.Context, permitID string) ([]*models.Approval, error) {
	if _, err := s.store.FindPermit(ctx, permitID); err != nil {
		return nil, translate(err, "failed to load permit")
	}
	rows, err := s.store.ListApprovals(ctx, permitID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list approvals")
	}
	return rows, nil
}

func (s *Service) publishApproval(ctx context.Context, a *models.Approval, p *models.Permit) {
	event := audit.Event{
		ID:        a.ID,
		Category:  audit.CategoryCompliance,
		Stream:    audit.StreamPermit,
		Action:    "APPROVAL_RECORDED",
		EntityID:  p.ID,
		ActorID:   requestcontext.ActorID(ctx),
		RequestID: requestcontext.RequestID(ctx),
		Metadata: map[string]any{
			"level":        a.Level,
			"approverRole": a.ApproverRole,
			"status":       string(a.Status),
			"permitStatus": string(p.Status),
		},
		Timestamp: a.CreatedAt,
	}
	tx.AfterCommit(ctx, func(ctx context.Context) {
		if err := s.events.Emit(ctx, event); err != nil {
			s.logger.WarnContext(ctx, "audit event not published", "permit_id", p.ID, "error", err)
		}
	})
}
