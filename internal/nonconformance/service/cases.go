package service

import (
	"context"
	"errors"
	"slices"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	actionmodels "complio/internal/actions/models"
	actionservice "complio/internal/actions/service"
	"complio/internal/nonconformance/models"
	"complio/internal/nonconformance/store"
	"complio/internal/rag"
	dErrors "complio/pkg/domain-errors"
	"complio/pkg/requestcontext"
)

// containmentWindow is how long an automatically raised containment action has.
const containmentWindow = 24 * time.Hour

func newUUID() string {
	return uuid.NewString()
}

// CaseDetails is a case with its actions in creation order and its audit log
// most recent first.
type CaseDetails struct {
	Case     *models.Case         `json:"case"`
	Actions  []*models.Action     `json:"actions"`
	AuditLog []*models.AuditEntry `json:"audit_log"`
}

// CaseSummary is one row of a case listing.
type CaseSummary struct {
	Case         *models.Case `json:"case"`
	TotalActions int          `json:"total_actions"`
	OpenActions  int          `json:"open_actions"`
	DaysUntilDue *int         `json:"days_until_due,omitempty"`
}

// CreateInput carries a new case plus the actor raising it.
type CreateInput struct {
	models.NewCaseInput
	ActorID string
}

// Create opens a case under the next reference number for its type and year.
// NC cases flagged for containment also get a containment action, mirrored
// into the Global Action register.
func (s *Service) Create(ctx context.Context, in CreateInput) (*CaseDetails, error) {
	ctx, span := tracer.Start(ctx, "nonconformance.Create")
	defer span.End()

	now := s.now(ctx)
	actorID := actor(ctx, in.ActorID)
	if in.RaisedBy == "" {
		in.RaisedBy = actorID
	}
	created, containment, err := s.insertCase(ctx, in.NewCaseInput, actorID, now)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "create failed")
		return nil, err
	}
	span.SetAttributes(attribute.String("case.id", created.ID), attribute.String("case.ref", created.RefNumber))
	s.metrics.IncrementCreated(string(created.CaseType))

	if containment != nil {
		err := s.withCaseLock(ctx, created.ID, func() error {
			s.mirrorAction(ctx, created, containment, actionmodels.TypeCorrective,
				created.RefNumber+": Implement immediate containment measures")
			return nil
		})
		if err != nil {
			s.logger.WarnContext(ctx, "containment action not linked to global action",
				"case_id", created.ID,
				"action_id", containment.ID,
				"error", err,
				"request_id", requestcontext.RequestID(ctx),
			)
		}
	}
	return s.details(ctx, created.ID)
}

// insertCase allocates the reference number and writes the case, its
// containment action and the CREATED entry in one unit of work. Allocation
// serializes per prefix; numbers of deleted cases are not reissued.
func (s *Service) insertCase(ctx context.Context, in models.NewCaseInput, actorID string, now time.Time) (*models.Case, *models.Action, error) {
	prefix := models.RefPrefix(in.CaseType, now)
	release, err := s.locker.Lock(ctx, "nc-ref:"+prefix)
	if err != nil {
		return nil, nil, translateLockErr(err)
	}
	defer release()

	var (
		created     *models.Case
		containment *models.Action
	)
	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		n, err := s.store.NextRefSeq(txCtx, prefix)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to allocate reference number")
		}
		c, err := models.NewCase(s.newID(), models.FormatRef(prefix, n), in, now)
		if err != nil {
			if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
				return dErrors.New(dErrors.CodeValidation, err.Error())
			}
			return err
		}
		if err := s.store.CreateCase(txCtx, c); err != nil {
			if errors.Is(err, store.ErrConflict) {
				return dErrors.New(dErrors.CodeConflict, "reference number already issued, retry")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to create case")
		}
		if c.NeedsContainment() {
			due := now.Add(containmentWindow)
			a, err := models.NewAction(s.newID(), c.ID, models.NewActionInput{
				ActionType: models.ActionContainment,
				Title:      "Implement immediate containment measures",
				Owner:      c.Owner,
				DueDate:    &due,
				Priority:   models.PriorityHigh,
			}, now)
			if err != nil {
				return err
			}
			if err := s.store.CreateAction(txCtx, a); err != nil {
				return dErrors.Wrap(err, dErrors.CodeInternal, "failed to create containment action")
			}
			containment = a
		}
		created = c
		return s.appendAudit(txCtx, models.NewCreatedEntry(s.newID(), c, actorID, now))
	})
	if err != nil {
		return nil, nil, err
	}
	return created, containment, nil
}

// mirrorAction creates a register entry for a and links it. Failures leave the
// action unlinked and are logged.
func (s *Service) mirrorAction(ctx context.Context, c *models.Case, a *models.Action, actionType actionmodels.Type, title string) {
	global, err := s.registry.Create(ctx, actionservice.CreateInput{
		Type:    actionType,
		Title:   title,
		Details: a.Description,
		Owner:   a.Owner,
		DueDate: a.DueDate,
	})
	if err != nil {
		s.logger.WarnContext(ctx, "failed to create linked global action",
			"case_id", c.ID,
			"action_id", a.ID,
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		return
	}
	a.LinkGlobalAction(global.ID)
	if err := s.store.UpdateAction(ctx, a); err != nil {
		s.logger.WarnContext(ctx, "failed to link global action",
			"case_id", c.ID,
			"action_id", a.ID,
			"global_action_id", global.ID,
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
	}
}

// Get returns the case with its actions and audit log.
func (s *Service) Get(ctx context.Context, id string) (*CaseDetails, error) {
	return s.details(ctx, id)
}

func (s *Service) details(ctx context.Context, id string) (*CaseDetails, error) {
	c, err := s.loadCase(ctx, id)
	if err != nil {
		return nil, err
	}
	actions, err := s.store.ListActions(ctx, id)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load actions")
	}
	entries, err := s.store.ListAudit(ctx, id)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load audit log")
	}
	slices.Reverse(entries)
	return &CaseDetails{Case: c, Actions: actions, AuditLog: entries}, nil
}

// List returns matching cases newest first with action progress.
func (s *Service) List(ctx context.Context, filter store.ListFilter) ([]CaseSummary, error) {
	cases, err := s.store.ListCases(ctx, filter)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list cases")
	}
	ids := make([]string, len(cases))
	for i, c := range cases {
		ids[i] = c.ID
	}
	actionsByCase, err := s.store.ListActionsByCases(ctx, ids)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load actions")
	}

	now := s.now(ctx)
	out := make([]CaseSummary, 0, len(cases))
	for _, c := range cases {
		summary := CaseSummary{Case: c}
		for _, a := range actionsByCase[c.ID] {
			summary.TotalActions++
			if !a.IsDone() {
				summary.OpenActions++
			}
		}
		if c.DueDate != nil && !c.IsClosed() {
			days := rag.DaysUntil(now, *c.DueDate)
			summary.DaysUntilDue = &days
		}
		out = append(out, summary)
	}
	return out, nil
}

// Update applies patch and appends exactly one EDITED entry, even for an empty
// patch. Closure is only reachable through Close.
//
// Some patches are rejected outright. Setting status CLOSED on an open case is
// a validation error. Changing the status of a closed case is a precondition
// failure, so closed cases cannot be reopened here.
func (s *Service) Update(ctx context.Context, id string, patch models.CasePatch, actorID string) (*CaseDetails, error) {
	ctx, span := tracer.Start(ctx, "nonconformance.Update")
	defer span.End()
	span.SetAttributes(attribute.String("case.id", id))

	actorID = actor(ctx, actorID)
	err := s.withCaseLock(ctx, id, func() error {
		return s.tx.RunInTx(ctx, func(txCtx context.Context) error {
			c, err := s.loadCase(txCtx, id)
			if err != nil {
				return err
			}
			if err := c.CanApplyPatch(patch); err != nil {
				return err
			}
			now := s.now(txCtx)
			c.ApplyPatch(patch, now)
			if err := s.store.UpdateCase(txCtx, c); err != nil {
				return translate(err, "case not found", "failed to update case")
			}
			return s.appendAudit(txCtx, models.NewEditedEntry(s.newID(), c, actorID, patch.ChangedFields(), now))
		})
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "update failed")
		return nil, err
	}
	return s.details(ctx, id)
}

// Delete removes the case. Its actions and audit entries go with it; linked
// Global Actions are left in the register.
func (s *Service) Delete(ctx context.Context, id string) error {
	ctx, span := tracer.Start(ctx, "nonconformance.Delete")
	defer span.End()

	return s.withCaseLock(ctx, id, func() error {
		if err := s.store.DeleteCase(ctx, id); err != nil {
			return translate(err, "case not found", "failed to delete case")
		}
		s.logger.InfoContext(ctx, "case deleted",
			"log_type", "audit",
			"case_id", id,
			"actor_id", actor(ctx, ""),
			"request_id", requestcontext.RequestID(ctx),
		)
		return nil
	})
}
