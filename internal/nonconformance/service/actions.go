package service

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	actionmodels "complio/internal/actions/models"
	"complio/internal/nonconformance/models"
	dErrors "complio/pkg/domain-errors"
	"complio/pkg/requestcontext"
)

// AddActionInput describes a new action on a case. LinkGlobal mirrors it into
// the Global Action register.
type AddActionInput struct {
	models.NewActionInput
	LinkGlobal bool
}

// globalStatusFor maps a case action's status onto the register's vocabulary.
func globalStatusFor(status models.ActionStatus) actionmodels.Status {
	switch status {
	case models.ActionDone:
		return actionmodels.StatusCompleted
	case models.ActionInProgress:
		return actionmodels.StatusInProgress
	default:
		return actionmodels.StatusOpen
	}
}

func globalTypeFor(t models.ActionType) actionmodels.Type {
	switch t {
	case models.ActionPreventive:
		return actionmodels.TypePreventive
	case models.ActionContainment:
		return actionmodels.TypeContainment
	default:
		return actionmodels.TypeCorrective
	}
}

func (s *Service) requireOpenCase(ctx context.Context, caseID string) (*models.Case, error) {
	c, err := s.loadCase(ctx, caseID)
	if err != nil {
		return nil, err
	}
	if c.IsClosed() {
		return nil, dErrors.New(dErrors.CodePreconditionFailed, "case is closed")
	}
	return c, nil
}

// AddAction attaches a new OPEN action to a case that is not closed. A case
// awaiting verification goes back to IN_PROGRESS.
func (s *Service) AddAction(ctx context.Context, caseID string, in AddActionInput) (*models.Action, error) {
	ctx, span := tracer.Start(ctx, "nonconformance.AddAction")
	defer span.End()
	span.SetAttributes(attribute.String("case.id", caseID))

	var (
		added  *models.Action
		parent *models.Case
	)
	err := s.withCaseLock(ctx, caseID, func() error {
		err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
			cs, err := s.requireOpenCase(txCtx, caseID)
			if err != nil {
				return err
			}
			now := s.now(txCtx)
			a, err := models.NewAction(s.newID(), caseID, in.NewActionInput, now)
			if err != nil {
				if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
					return dErrors.New(dErrors.CodeValidation, err.Error())
				}
				return err
			}
			if err := s.store.CreateAction(txCtx, a); err != nil {
				return translate(err, "case not found", "failed to create action")
			}
			if cs.Status == models.StatusPendingVerification {
				from := cs.Status
				cs.Status = models.StatusInProgress
				cs.UpdatedAt = now
				if err := s.store.UpdateCase(txCtx, cs); err != nil {
					return translate(err, "case not found", "failed to update case")
				}
				entry := models.NewStatusChangeEntry(s.newID(), cs, from, requestcontext.SystemActor, now)
				if err := s.appendAudit(txCtx, entry); err != nil {
					return err
				}
			}
			added, parent = a, cs
			return nil
		})
		if err != nil {
			return err
		}
		if in.LinkGlobal {
			s.mirrorAction(ctx, parent, added, globalTypeFor(added.ActionType), parent.RefNumber+": "+added.Title)
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "add action failed")
		return nil, err
	}
	return added, nil
}

// UpdateAction patches an action. DONE stamps the completion date. The linked
// Global Action follows the new status best-effort, and completing the last
// open action moves the case to PENDING_VERIFICATION.
func (s *Service) UpdateAction(ctx context.Context, caseID, actionID string, patch models.ActionPatch) (*models.Action, error) {
	ctx, span := tracer.Start(ctx, "nonconformance.UpdateAction")
	defer span.End()
	span.SetAttributes(attribute.String("case.id", caseID), attribute.String("action.id", actionID))

	var updated *models.Action
	err := s.withCaseLock(ctx, caseID, func() error {
		return s.tx.RunInTx(ctx, func(txCtx context.Context) error {
			c, err := s.requireOpenCase(txCtx, caseID)
			if err != nil {
				return err
			}
			a, err := s.store.FindAction(txCtx, caseID, actionID)
			if err != nil {
				return translate(err, "action not found", "failed to load action")
			}
			if err := a.CanApplyPatch(patch); err != nil {
				return err
			}
			now := s.now(txCtx)
			a.ApplyPatch(patch, now)
			if err := s.store.UpdateAction(txCtx, a); err != nil {
				return translate(err, "action not found", "failed to update action")
			}
			updated = a

			if patch.Status == nil {
				return nil
			}
			actions, err := s.store.ListActions(txCtx, caseID)
			if err != nil {
				return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load actions")
			}
			if !c.ReadyForVerification(actions) {
				return nil
			}
			from := c.Status
			c.ApplyPendingVerification(now)
			if err := s.store.UpdateCase(txCtx, c); err != nil {
				return translate(err, "case not found", "failed to update case")
			}
			return s.appendAudit(txCtx, models.NewStatusChangeEntry(s.newID(), c, from, requestcontext.SystemActor, now))
		})
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "update action failed")
		return nil, err
	}

	if patch.Status != nil && updated.GlobalActionID != nil {
		if err := s.registry.SetStatus(ctx, *updated.GlobalActionID, globalStatusFor(updated.Status)); err != nil {
			s.logger.WarnContext(ctx, "failed to sync linked global action",
				"case_id", caseID,
				"action_id", actionID,
				"global_action_id", *updated.GlobalActionID,
				"error", err,
				"request_id", requestcontext.RequestID(ctx),
			)
		}
	}
	return updated, nil
}

// DeleteAction removes an action from a case that is not closed, deleting its
// linked Global Action first on a best-effort basis.
func (s *Service) DeleteAction(ctx context.Context, caseID, actionID string) error {
	ctx, span := tracer.Start(ctx, "nonconformance.DeleteAction")
	defer span.End()

	return s.withCaseLock(ctx, caseID, func() error {
		if _, err := s.requireOpenCase(ctx, caseID); err != nil {
			return err
		}
		a, err := s.store.FindAction(ctx, caseID, actionID)
		if err != nil {
			return translate(err, "action not found", "failed to load action")
		}
		if a.GlobalActionID != nil {
			if err := s.registry.Delete(ctx, *a.GlobalActionID); err != nil && !dErrors.HasCode(err, dErrors.CodeNotFound) {
				s.logger.WarnContext(ctx, "failed to delete linked global action",
					"case_id", caseID,
					"action_id", actionID,
					"global_action_id", *a.GlobalActionID,
					"error", err,
					"request_id", requestcontext.RequestID(ctx),
				)
			}
		}
		if err := s.store.DeleteAction(ctx, caseID, actionID); err != nil {
			return translate(err, "action not found", "failed to delete action")
		}
		return nil
	})
}
