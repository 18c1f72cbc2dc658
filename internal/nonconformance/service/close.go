package service

import (
	"context"
	"encoding/json"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"

	"complio/internal/nonconformance/models"
	dErrors "complio/pkg/domain-errors"
	"complio/pkg/requestcontext"
)

// CascadeFailure reports a linked Global Action that could not be marked
// completed after the case closed. The closure stands regardless.
type CascadeFailure struct {
	ActionID       string `json:"action_id"`
	GlobalActionID string `json:"global_action_id"`
	Err            error  `json:"-"`
}

func (f CascadeFailure) MarshalJSON() ([]byte, error) {
	type alias struct {
		ActionID       string `json:"action_id"`
		GlobalActionID string `json:"global_action_id"`
		Error          string `json:"error"`
	}
	msg := ""
	if f.Err != nil {
		msg = f.Err.Error()
	}
	return json.Marshal(alias{ActionID: f.ActionID, GlobalActionID: f.GlobalActionID, Error: msg})
}

// CloseResult is the closed case plus any cascade failures.
type CloseResult struct {
	CaseDetails
	CascadeFailures []CascadeFailure `json:"cascade_failures"`
}

// CloseInput carries the optional sign-off details and the closing actor.
type CloseInput struct {
	models.Closure
	ActorID string
}

// Close closes a case whose actions are all DONE.
//
// The status change and its CLOSED audit entry commit together. Afterwards
// every linked Global Action is marked completed independently: one failing
// does not stop the others and does not undo the closure.
func (s *Service) Close(ctx context.Context, id string, in CloseInput) (*CloseResult, error) {
	start := time.Now()
	defer s.metrics.ObserveClose(start)

	ctx, span := tracer.Start(ctx, "nonconformance.Close")
	defer span.End()
	span.SetAttributes(attribute.String("case.id", id))

	actorID := actor(ctx, in.ActorID)
	var (
		closed  *models.Case
		actions []*models.Action
	)
	err := s.withCaseLock(ctx, id, func() error {
		return s.tx.RunInTx(ctx, func(txCtx context.Context) error {
			c, err := s.loadCase(txCtx, id)
			if err != nil {
				return err
			}
			actions, err = s.store.ListActions(txCtx, id)
			if err != nil {
				return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load actions")
			}
			if err := c.CanClose(actions); err != nil {
				if !c.IsClosed() {
					s.metrics.IncrementCloseRejected()
				}
				return err
			}
			now := s.now(txCtx)
			c.ApplyClosure(in.Closure, now)
			if err := s.store.UpdateCase(txCtx, c); err != nil {
				return translate(err, "case not found", "failed to close case")
			}
			closed = c
			return s.appendAudit(txCtx, models.NewClosedEntry(s.newID(), c, actorID, len(actions), now))
		})
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "close failed")
		return nil, err
	}
	s.metrics.IncrementClosed()

	// The closure is committed; finish the cascade even if the caller goes away.
	failures := s.cascadeCompletion(context.WithoutCancel(ctx), id, actions)
	if len(failures) > 0 {
		span.SetAttributes(attribute.Int("cascade.failures", len(failures)))
	}

	details, err := s.details(ctx, id)
	if err != nil {
		// Already committed: answer from what the transaction wrote.
		s.logger.WarnContext(ctx, "failed to reload closed case",
			"case_id", id,
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		details = &CaseDetails{Case: closed, Actions: actions}
	}
	return &CloseResult{CaseDetails: *details, CascadeFailures: failures}, nil
}

// cascadeCompletion marks every linked Global Action completed with bounded
// concurrency. Each attempt is independent; failures are collected in action
// order rather than returned as an error.
func (s *Service) cascadeCompletion(ctx context.Context, caseID string, actions []*models.Action) []CascadeFailure {
	results := make([]error, len(actions))
	var g errgroup.Group
	g.SetLimit(s.cascadeConcurrency)
	for i, a := range actions {
		if a.GlobalActionID == nil {
			continue
		}
		globalID := *a.GlobalActionID
		g.Go(func() error {
			results[i] = s.registry.MarkCompleted(ctx, globalID)
			return nil
		})
	}
	_ = g.Wait()

	failures := []CascadeFailure{}
	for i, err := range results {
		if err == nil {
			continue
		}
		a := actions[i]
		failures = append(failures, CascadeFailure{
			ActionID:       a.ID,
			GlobalActionID: *a.GlobalActionID,
			Err:            err,
		})
		s.logger.WarnContext(ctx, "failed to complete linked global action",
			"case_id", caseID,
			"action_id", a.ID,
			"global_action_id", *a.GlobalActionID,
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
	}
	s.metrics.AddCascadeFailures(len(failures))
	return failures
}
