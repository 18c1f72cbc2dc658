package service

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks Store,GlobalActionRegistry

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	actionmodels "complio/internal/actions/models"
	actionservice "complio/internal/actions/service"
	"complio/internal/nonconformance/models"
	"complio/internal/nonconformance/service/mocks"
	"complio/internal/nonconformance/store"
	"complio/internal/platform/lock"
	dErrors "complio/pkg/domain-errors"
	audit "complio/pkg/platform/audit"
	"complio/pkg/platform/audit/memory"
	"complio/pkg/requestcontext"
)

// =============================================================================
// Non-Conformance Service Test Suite
// =============================================================================
// Runs the lifecycle against the in-memory store with a mocked Global Action
// register so cascade calls can be asserted and made to fail.

type ServiceSuite struct {
	suite.Suite
	ctrl     *gomock.Controller
	registry *mocks.MockGlobalActionRegistry
	store    *store.InMemoryStore
	service  *Service
	now      time.Time
	ctx      context.Context
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.registry = mocks.NewMockGlobalActionRegistry(s.ctrl)
	s.store = store.NewInMemory()
	s.now = time.Date(2025, 4, 10, 9, 0, 0, 0, time.UTC)
	s.ctx = context.Background()

	svc, err := New(s.store, s.registry,
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithClock(func() time.Time { return s.now }),
	)
	s.Require().NoError(err)
	s.service = svc
}

func (s *ServiceSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *ServiceSuite) createCase(caseType models.CaseType) *models.Case {
	details, err := s.service.Create(s.ctx, CreateInput{
		NewCaseInput: models.NewCaseInput{CaseType: caseType, Title: "Burr on housing", Severity: models.SeverityHigh},
		ActorID:      "alice",
	})
	s.Require().NoError(err)
	return details.Case
}

func (s *ServiceSuite) addAction(caseID, title string) *models.Action {
	a, err := s.service.AddAction(s.ctx, caseID, AddActionInput{
		NewActionInput: models.NewActionInput{ActionType: models.ActionCorrective, Title: title},
	})
	s.Require().NoError(err)
	return a
}

func (s *ServiceSuite) addLinkedAction(caseID, title, globalID string) *models.Action {
	s.registry.EXPECT().Create(gomock.Any(), gomock.Any()).
		Return(&actionmodels.Action{ID: globalID}, nil)
	a, err := s.service.AddAction(s.ctx, caseID, AddActionInput{
		NewActionInput: models.NewActionInput{ActionType: models.ActionCorrective, Title: title},
		LinkGlobal:     true,
	})
	s.Require().NoError(err)
	s.Require().NotNil(a.GlobalActionID)
	return a
}

// markDone completes an action directly in the store, bypassing the register sync.
func (s *ServiceSuite) markDone(a *models.Action) {
	stored, err := s.store.FindAction(s.ctx, a.CaseID, a.ID)
	s.Require().NoError(err)
	done := models.ActionDone
	stored.ApplyPatch(models.ActionPatch{Status: &done}, s.now)
	s.Require().NoError(s.store.UpdateAction(s.ctx, stored))
}

func (s *ServiceSuite) auditOf(caseID string, event models.EventType) []*models.AuditEntry {
	entries, err := s.store.ListAudit(s.ctx, caseID)
	s.Require().NoError(err)
	var out []*models.AuditEntry
	for _, e := range entries {
		if e.EventType == event {
			out = append(out, e)
		}
	}
	return out
}

// =============================================================================
// Constructor
// =============================================================================

func (s *ServiceSuite) TestNew() {
	s.Run("nil store returns error", func() {
		_, err := New(nil, s.registry)
		s.ErrorContains(err, "store is required")
	})
	s.Run("nil registry returns error", func() {
		_, err := New(s.store, nil)
		s.ErrorContains(err, "registry is required")
	})
}

// =============================================================================
// Create
// =============================================================================

func (s *ServiceSuite) TestCreate() {
	s.Run("issues sequential reference numbers per type and year", func() {
		first := s.createCase(models.CaseTypeNC)
		second := s.createCase(models.CaseTypeNC)
		complaint := s.createCase(models.CaseTypeComplaint)

		s.Equal("NC-2025-0001", first.RefNumber)
		s.Equal("NC-2025-0002", second.RefNumber)
		s.Equal("COMPLAINT-2025-0001", complaint.RefNumber)
	})

	s.Run("derives due date from severity and owner from raiser", func() {
		c := s.createCase(models.CaseTypeOFI)
		s.Require().NotNil(c.DueDate)
		s.Equal(s.now.AddDate(0, 0, 10), *c.DueDate)
		s.Equal("alice", c.Owner)
		s.Equal("alice", c.RaisedBy)
		s.Equal(models.StatusOpen, c.Status)
	})

	s.Run("appends a CREATED entry", func() {
		c := s.createCase(models.CaseTypeSupplier)
		created := s.auditOf(c.ID, models.EventCreated)
		s.Require().Len(created, 1)
		s.Equal("alice", created[0].ActorID)
	})

	s.Run("missing title is a validation error", func() {
		_, err := s.service.Create(s.ctx, CreateInput{NewCaseInput: models.NewCaseInput{CaseType: models.CaseTypeNC}})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func (s *ServiceSuite) TestCreateDoesNotReissueDeletedRefNumbers() {
	first := s.createCase(models.CaseTypeNC)
	second := s.createCase(models.CaseTypeNC)
	s.Require().Equal("NC-2025-0002", second.RefNumber)

	s.Require().NoError(s.service.Delete(s.ctx, first.ID))

	third := s.createCase(models.CaseTypeNC)
	s.Equal("NC-2025-0003", third.RefNumber)

	s.Require().NoError(s.service.Delete(s.ctx, third.ID))
	fourth := s.createCase(models.CaseTypeNC)
	s.Equal("NC-2025-0004", fourth.RefNumber, "latest number is not reissued either")
}

func (s *ServiceSuite) TestCreateWithContainment() {
	s.Run("NC case gets a linked containment action", func() {
		s.registry.EXPECT().Create(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, in actionservice.CreateInput) (*actionmodels.Action, error) {
				s.Equal(actionmodels.TypeCorrective, in.Type)
				s.Equal("NC-2025-0001: Implement immediate containment measures", in.Title)
				return &actionmodels.Action{ID: "ga-containment"}, nil
			})

		details, err := s.service.Create(s.ctx, CreateInput{
			NewCaseInput: models.NewCaseInput{CaseType: models.CaseTypeNC, Title: "Leak", ContainmentNeeded: true},
		})
		s.Require().NoError(err)
		s.Require().Len(details.Actions, 1)
		action := details.Actions[0]
		s.Equal(models.ActionContainment, action.ActionType)
		s.Require().NotNil(action.DueDate)
		s.Equal(s.now.Add(24*time.Hour), *action.DueDate)
		s.Require().NotNil(action.GlobalActionID)
		s.Equal("ga-containment", *action.GlobalActionID)
	})

	s.Run("other case types get no containment action", func() {
		details, err := s.service.Create(s.ctx, CreateInput{
			NewCaseInput: models.NewCaseInput{CaseType: models.CaseTypeComplaint, Title: "Late delivery", ContainmentNeeded: true},
		})
		s.Require().NoError(err)
		s.Empty(details.Actions)
	})

	s.Run("register failure leaves the action unlinked", func() {
		s.registry.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil, errors.New("register down"))

		details, err := s.service.Create(s.ctx, CreateInput{
			NewCaseInput: models.NewCaseInput{CaseType: models.CaseTypeNC, Title: "Spill", ContainmentNeeded: true},
		})
		s.Require().NoError(err)
		s.Require().Len(details.Actions, 1)
		s.Nil(details.Actions[0].GlobalActionID)
	})

	s.Run("case lock failure is logged and leaves the action unlinked", func() {
		var logs bytes.Buffer
		svc, err := New(s.store, s.registry,
			WithLogger(slog.New(slog.NewJSONHandler(&logs, nil))),
			WithClock(func() time.Time { return s.now }),
			WithLocker(caseLockFailer{inner: lock.NewSharded()}),
		)
		s.Require().NoError(err)

		details, err := svc.Create(s.ctx, CreateInput{
			NewCaseInput: models.NewCaseInput{CaseType: models.CaseTypeNC, Title: "Crack", ContainmentNeeded: true},
		})
		s.Require().NoError(err)
		s.Require().Len(details.Actions, 1)
		s.Nil(details.Actions[0].GlobalActionID)
		s.Contains(logs.String(), "containment action not linked to global action")
		s.Contains(logs.String(), details.Case.ID)
	})
}

// caseLockFailer refuses per-case locks and delegates every other key.
type caseLockFailer struct{ inner lock.Locker }

func (l caseLockFailer) Lock(ctx context.Context, key string) (func(), error) {
	if strings.HasPrefix(key, "nc:") {
		return nil, lock.ErrLocked
	}
	return l.inner.Lock(ctx, key)
}

// =============================================================================
// Update
// =============================================================================

func (s *ServiceSuite) TestUpdate() {
	s.Run("empty patch still appends exactly one EDITED entry", func() {
		c := s.createCase(models.CaseTypeNC)
		details, err := s.service.Update(s.ctx, c.ID, models.CasePatch{}, "bob")
		s.Require().NoError(err)

		edited := s.auditOf(c.ID, models.EventEdited)
		s.Require().Len(edited, 1)
		s.Equal("Case "+c.RefNumber+" updated by bob", edited[0].Description)
		s.Equal("bob", edited[0].ActorID)
		s.Equal(models.EventEdited, details.AuditLog[0].EventType, "audit log is most recent first")
	})

	s.Run("each update appends one more entry", func() {
		c := s.createCase(models.CaseTypeNC)
		title := "Burr on housing, batch 7"
		inProgress := models.StatusInProgress
		_, err := s.service.Update(s.ctx, c.ID, models.CasePatch{Title: &title}, "bob")
		s.Require().NoError(err)
		details, err := s.service.Update(s.ctx, c.ID, models.CasePatch{Status: &inProgress}, "bob")
		s.Require().NoError(err)

		s.Len(s.auditOf(c.ID, models.EventEdited), 2)
		s.Equal(title, details.Case.Title)
		s.Equal(models.StatusInProgress, details.Case.Status)
	})

	s.Run("actor falls back to request context then System", func() {
		c := s.createCase(models.CaseTypeNC)
		_, err := s.service.Update(requestcontext.WithActorID(s.ctx, "carol"), c.ID, models.CasePatch{}, "")
		s.Require().NoError(err)
		_, err = s.service.Update(s.ctx, c.ID, models.CasePatch{}, "")
		s.Require().NoError(err)

		edited := s.auditOf(c.ID, models.EventEdited)
		s.Require().Len(edited, 2)
		s.Equal("carol", edited[0].ActorID)
		s.Equal(requestcontext.SystemActor, edited[1].ActorID)
	})

	s.Run("missing case is not found", func() {
		_, err := s.service.Update(s.ctx, "missing", models.CasePatch{}, "bob")
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("patch cannot close a case", func() {
		c := s.createCase(models.CaseTypeNC)
		closed := models.StatusClosed
		_, err := s.service.Update(s.ctx, c.ID, models.CasePatch{Status: &closed}, "bob")
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
		s.Empty(s.auditOf(c.ID, models.EventEdited))
	})
}

// =============================================================================
// Close
// =============================================================================

func (s *ServiceSuite) TestCloseWithOpenActionFails() {
	c := s.createCase(models.CaseTypeNC)
	done := s.addAction(c.ID, "Deburr stock")
	s.addLinkedAction(c.ID, "Update work instruction", "ga-1")
	s.markDone(done)

	_, err := s.service.Close(s.ctx, c.ID, CloseInput{})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodePreconditionFailed))
	s.Contains(err.Error(), "Cannot close: Not all actions are completed")

	stored, err := s.store.FindCase(s.ctx, c.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusOpen, stored.Status)
	s.Nil(stored.ClosedDate)
	s.Empty(s.auditOf(c.ID, models.EventClosed))
}

func (s *ServiceSuite) TestCloseCascadesToLinkedActions() {
	c := s.createCase(models.CaseTypeNC)
	a1 := s.addLinkedAction(c.ID, "Replace fixture", "ga-1")
	a2 := s.addLinkedAction(c.ID, "Retrain operators", "ga-2")
	a3 := s.addAction(c.ID, "Quarantine stock")
	for _, a := range []*models.Action{a1, a2, a3} {
		s.markDone(a)
	}

	s.registry.EXPECT().MarkCompleted(gomock.Any(), "ga-1").Return(nil)
	s.registry.EXPECT().MarkCompleted(gomock.Any(), "ga-2").Return(nil)

	s.now = s.now.Add(2 * time.Hour)
	signature := "sig-data"
	comments := "Verified effective"
	result, err := s.service.Close(s.ctx, c.ID, CloseInput{
		Closure: models.Closure{Signature: &signature, Comments: &comments},
		ActorID: "qa-lead",
	})
	s.Require().NoError(err)
	s.Empty(result.CascadeFailures)
	s.NotNil(result.CascadeFailures)

	closed := result.Case
	s.Equal(models.StatusClosed, closed.Status)
	s.Require().NotNil(closed.ClosedDate)
	s.Equal(s.now, *closed.ClosedDate)
	s.Equal(s.now, *closed.ClosureApprovedAt)
	s.Equal("sig-data", *closed.ClosureSignature)
	s.Nil(closed.ClosureApprovedBy)

	entries := s.auditOf(c.ID, models.EventClosed)
	s.Require().Len(entries, 1)
	s.Equal("qa-lead", entries[0].ActorID)
	s.Equal(3, entries[0].Metadata["totalActions"])
	s.Equal("Verified effective", entries[0].Metadata["closureComments"])
}

func (s *ServiceSuite) TestCloseCascadeFailureDoesNotStopOthers() {
	c := s.createCase(models.CaseTypeNC)
	ids := []string{"ga-1", "ga-2", "ga-3"}
	for i, id := range ids {
		s.markDone(s.addLinkedAction(c.ID, "step "+string(rune('A'+i)), id))
	}

	var (
		mu        sync.Mutex
		attempted []string
	)
	record := func(_ context.Context, id string) error {
		mu.Lock()
		defer mu.Unlock()
		attempted = append(attempted, id)
		if id == "ga-1" {
			return errors.New("register unavailable")
		}
		return nil
	}
	s.registry.EXPECT().MarkCompleted(gomock.Any(), gomock.Any()).DoAndReturn(record).Times(3)

	result, err := s.service.Close(s.ctx, c.ID, CloseInput{})
	s.Require().NoError(err)

	s.ElementsMatch(ids, attempted)
	s.Require().Len(result.CascadeFailures, 1)
	s.Equal("ga-1", result.CascadeFailures[0].GlobalActionID)
	s.Equal(models.StatusClosed, result.Case.Status)

	stored, err := s.store.FindCase(s.ctx, c.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusClosed, stored.Status, "closure is not rolled back")
	s.Len(s.auditOf(c.ID, models.EventClosed), 1)
}

func (s *ServiceSuite) TestCloseEdgeCases() {
	s.Run("case without actions closes", func() {
		c := s.createCase(models.CaseTypeNC)
		result, err := s.service.Close(s.ctx, c.ID, CloseInput{})
		s.Require().NoError(err)
		s.Equal(models.StatusClosed, result.Case.Status)
		s.Equal(0, s.auditOf(c.ID, models.EventClosed)[0].Metadata["totalActions"])

		body, err := json.Marshal(result)
		s.Require().NoError(err)
		s.Contains(string(body), `"cascade_failures":[]`)
	})

	s.Run("already closed is a precondition failure", func() {
		c := s.createCase(models.CaseTypeNC)
		_, err := s.service.Close(s.ctx, c.ID, CloseInput{})
		s.Require().NoError(err)
		_, err = s.service.Close(s.ctx, c.ID, CloseInput{})
		s.True(dErrors.HasCode(err, dErrors.CodePreconditionFailed))
		s.Len(s.auditOf(c.ID, models.EventClosed), 1)
	})

	s.Run("closed case cannot be reopened by update", func() {
		c := s.createCase(models.CaseTypeNC)
		_, err := s.service.Close(s.ctx, c.ID, CloseInput{})
		s.Require().NoError(err)
		open := models.StatusOpen
		_, err = s.service.Update(s.ctx, c.ID, models.CasePatch{Status: &open}, "bob")
		s.True(dErrors.HasCode(err, dErrors.CodePreconditionFailed))
	})

	s.Run("missing case is not found", func() {
		_, err := s.service.Close(s.ctx, "missing", CloseInput{})
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

// =============================================================================
// Actions
// =============================================================================

func (s *ServiceSuite) TestUpdateActionSyncsRegisterAndAdvancesCase() {
	c := s.createCase(models.CaseTypeNC)
	linked := s.addLinkedAction(c.ID, "Replace fixture", "ga-1")
	plain := s.addAction(c.ID, "Quarantine stock")

	inProgress := models.ActionInProgress
	s.registry.EXPECT().SetStatus(gomock.Any(), "ga-1", actionmodels.StatusInProgress).Return(nil)
	updated, err := s.service.UpdateAction(s.ctx, c.ID, linked.ID, models.ActionPatch{Status: &inProgress})
	s.Require().NoError(err)
	s.Nil(updated.CompletedDate)

	done := models.ActionDone
	s.registry.EXPECT().SetStatus(gomock.Any(), "ga-1", actionmodels.StatusCompleted).Return(nil)
	updated, err = s.service.UpdateAction(s.ctx, c.ID, linked.ID, models.ActionPatch{Status: &done})
	s.Require().NoError(err)
	s.Require().NotNil(updated.CompletedDate)
	s.Equal(s.now, *updated.CompletedDate)

	stored, _ := s.store.FindCase(s.ctx, c.ID)
	s.Equal(models.StatusOpen, stored.Status, "one action still open")

	_, err = s.service.UpdateAction(s.ctx, c.ID, plain.ID, models.ActionPatch{Status: &done})
	s.Require().NoError(err)

	stored, _ = s.store.FindCase(s.ctx, c.ID)
	s.Equal(models.StatusPendingVerification, stored.Status)
	changes := s.auditOf(c.ID, models.EventStatusChange)
	s.Require().Len(changes, 1)
	s.Equal(requestcontext.SystemActor, changes[0].ActorID)
}

func (s *ServiceSuite) TestUpdateActionRules() {
	c := s.createCase(models.CaseTypeNC)
	a := s.addAction(c.ID, "Quarantine stock")
	done := models.ActionDone
	_, err := s.service.UpdateAction(s.ctx, c.ID, a.ID, models.ActionPatch{Status: &done})
	s.Require().NoError(err)

	s.Run("done is terminal", func() {
		open := models.ActionOpen
		_, err := s.service.UpdateAction(s.ctx, c.ID, a.ID, models.ActionPatch{Status: &open})
		s.True(dErrors.HasCode(err, dErrors.CodePreconditionFailed))
	})

	s.Run("register sync failure does not fail the update", func() {
		linked := s.addLinkedAction(c.ID, "Retrain", "ga-9")
		s.registry.EXPECT().SetStatus(gomock.Any(), "ga-9", actionmodels.StatusCompleted).Return(errors.New("down"))
		updated, err := s.service.UpdateAction(s.ctx, c.ID, linked.ID, models.ActionPatch{Status: &done})
		s.Require().NoError(err)
		s.Equal(models.ActionDone, updated.Status)
	})

	s.Run("missing action is not found", func() {
		_, err := s.service.UpdateAction(s.ctx, c.ID, "missing", models.ActionPatch{})
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *ServiceSuite) TestAddActionReopensVerification() {
	c := s.createCase(models.CaseTypeNC)
	a := s.addAction(c.ID, "Quarantine stock")
	done := models.ActionDone
	_, err := s.service.UpdateAction(s.ctx, c.ID, a.ID, models.ActionPatch{Status: &done})
	s.Require().NoError(err)

	s.addAction(c.ID, "Follow-up audit")
	stored, _ := s.store.FindCase(s.ctx, c.ID)
	s.Equal(models.StatusInProgress, stored.Status)
	s.Len(s.auditOf(c.ID, models.EventStatusChange), 2)
}

func (s *ServiceSuite) TestActionsOnClosedCase() {
	c := s.createCase(models.CaseTypeNC)
	_, err := s.service.Close(s.ctx, c.ID, CloseInput{})
	s.Require().NoError(err)

	_, err = s.service.AddAction(s.ctx, c.ID, AddActionInput{
		NewActionInput: models.NewActionInput{ActionType: models.ActionCorrective, Title: "Late"},
	})
	s.True(dErrors.HasCode(err, dErrors.CodePreconditionFailed))
}

func (s *ServiceSuite) TestDeleteAction() {
	c := s.createCase(models.CaseTypeNC)
	linked := s.addLinkedAction(c.ID, "Replace fixture", "ga-1")
	other := s.addLinkedAction(c.ID, "Retrain", "ga-2")

	s.registry.EXPECT().Delete(gomock.Any(), "ga-1").Return(nil)
	s.Require().NoError(s.service.DeleteAction(s.ctx, c.ID, linked.ID))

	s.registry.EXPECT().Delete(gomock.Any(), "ga-2").Return(errors.New("down"))
	s.Require().NoError(s.service.DeleteAction(s.ctx, c.ID, other.ID), "register failure is tolerated")

	actions, err := s.store.ListActions(s.ctx, c.ID)
	s.Require().NoError(err)
	s.Empty(actions)

	err = s.service.DeleteAction(s.ctx, c.ID, linked.ID)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

// =============================================================================
// Delete / List
// =============================================================================

func (s *ServiceSuite) TestDelete() {
	c := s.createCase(models.CaseTypeNC)
	s.addAction(c.ID, "Quarantine stock")

	s.Require().NoError(s.service.Delete(s.ctx, c.ID))
	_, err := s.service.Get(s.ctx, c.ID)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))

	err = s.service.Delete(s.ctx, c.ID)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *ServiceSuite) TestList() {
	c := s.createCase(models.CaseTypeNC)
	a := s.addAction(c.ID, "One")
	s.addAction(c.ID, "Two")
	s.markDone(a)
	s.createCase(models.CaseTypeComplaint)

	all, err := s.service.List(s.ctx, store.ListFilter{})
	s.Require().NoError(err)
	s.Len(all, 2)

	ncOnly, err := s.service.List(s.ctx, store.ListFilter{CaseType: models.CaseTypeNC})
	s.Require().NoError(err)
	s.Require().Len(ncOnly, 1)
	s.Equal(2, ncOnly[0].TotalActions)
	s.Equal(1, ncOnly[0].OpenActions)
	s.Require().NotNil(ncOnly[0].DaysUntilDue)
	s.Equal(10, *ncOnly[0].DaysUntilDue)
}

// =============================================================================
// Audit stream
// =============================================================================

func (s *ServiceSuite) TestCommittedAuditEntriesArePublished() {
	sink := memory.NewSink()
	svc, err := New(s.store, s.registry,
		WithClock(func() time.Time { return s.now }),
		WithAuditPublisher(sinkEmitter{sink}),
	)
	s.Require().NoError(err)

	details, err := svc.Create(s.ctx, CreateInput{
		NewCaseInput: models.NewCaseInput{CaseType: models.CaseTypeNC, Title: "Porosity", Severity: models.SeverityLow},
		ActorID:      "alice",
	})
	s.Require().NoError(err)
	caseID := details.Case.ID

	_, err = svc.Close(s.ctx, caseID, CloseInput{ActorID: "qa-lead"})
	s.Require().NoError(err)

	title := "should not stick"
	_, _ = svc.Update(s.ctx, "missing", models.CasePatch{Title: &title}, "bob")

	events := sink.ListByEntity(caseID)
	s.Require().Len(events, 2)
	s.Equal(audit.StreamNonConformance, events[0].Stream)
	s.Equal(string(models.EventCreated), events[0].Action)
	s.Equal("alice", events[0].ActorID)
	s.Equal(string(models.EventClosed), events[1].Action)
	s.Equal(audit.CategoryCompliance, events[1].Category)
	s.Len(sink.ListAll(), 2, "failed units of work publish nothing")
}

// sinkEmitter writes straight to the sink so assertions need no waiting.
type sinkEmitter struct{ sink *memory.Sink }

func (e sinkEmitter) Emit(ctx context.Context, ev audit.Event) error {
	return e.sink.Write(ctx, []audit.Event{ev})
}

// =============================================================================
// Store failures
// =============================================================================

func (s *ServiceSuite) TestStoreFailuresAreInternal() {
	mockStore := mocks.NewMockStore(s.ctrl)
	svc, err := New(mockStore, s.registry, WithClock(func() time.Time { return s.now }))
	s.Require().NoError(err)

	s.Run("load failure", func() {
		mockStore.EXPECT().FindCase(gomock.Any(), "c1").Return(nil, errors.New("connection reset"))
		_, err := svc.Update(s.ctx, "c1", models.CasePatch{}, "bob")
		s.True(dErrors.HasCode(err, dErrors.CodeInternal))
	})

	s.Run("audit append failure aborts the update", func() {
		c := &models.Case{ID: "c1", RefNumber: "NC-2025-0001", Status: models.StatusOpen}
		mockStore.EXPECT().FindCase(gomock.Any(), "c1").Return(c, nil)
		mockStore.EXPECT().UpdateCase(gomock.Any(), gomock.Any()).Return(nil)
		mockStore.EXPECT().AppendAudit(gomock.Any(), gomock.Any()).Return(errors.New("disk full"))

		_, err := svc.Update(s.ctx, "c1", models.CasePatch{}, "bob")
		s.True(dErrors.HasCode(err, dErrors.CodeInternal))
	})

	s.Run("close failure skips the cascade", func() {
		c := &models.Case{ID: "c1", RefNumber: "NC-2025-0001", Status: models.StatusOpen}
		gid := "ga-1"
		actions := []*models.Action{{ID: "a1", CaseID: "c1", Status: models.ActionDone, GlobalActionID: &gid}}
		mockStore.EXPECT().FindCase(gomock.Any(), "c1").Return(c, nil)
		mockStore.EXPECT().ListActions(gomock.Any(), "c1").Return(actions, nil)
		mockStore.EXPECT().UpdateCase(gomock.Any(), gomock.Any()).Return(errors.New("serialization failure"))

		_, err := svc.Close(s.ctx, "c1", CloseInput{})
		s.True(dErrors.HasCode(err, dErrors.CodeInternal))
	})

	s.Run("reload failure after commit still reports the closure", func() {
		c := &models.Case{ID: "c1", RefNumber: "NC-2025-0001", Status: models.StatusOpen}
		gid := "ga-1"
		actions := []*models.Action{{ID: "a1", CaseID: "c1", Status: models.ActionDone, GlobalActionID: &gid}}
		mockStore.EXPECT().FindCase(gomock.Any(), "c1").Return(c, nil)
		mockStore.EXPECT().ListActions(gomock.Any(), "c1").Return(actions, nil)
		mockStore.EXPECT().UpdateCase(gomock.Any(), gomock.Any()).Return(nil)
		mockStore.EXPECT().AppendAudit(gomock.Any(), gomock.Any()).Return(nil)
		s.registry.EXPECT().MarkCompleted(gomock.Any(), "ga-1").Return(errors.New("register unavailable"))
		mockStore.EXPECT().FindCase(gomock.Any(), "c1").Return(nil, errors.New("connection reset"))

		result, err := svc.Close(s.ctx, "c1", CloseInput{})
		s.Require().NoError(err)
		s.Equal(models.StatusClosed, result.Case.Status)
		s.Require().NotNil(result.Case.ClosedDate)
		s.Equal(actions, result.Actions)
		s.Require().Len(result.CascadeFailures, 1)
		s.Equal("ga-1", result.CascadeFailures[0].GlobalActionID)
	})
}
