// Package service runs the non-conformance lifecycle: case creation, edits,
// gated closure with its append-only audit trail, and the best-effort cascade
// of completions into the Global Action register.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"

	actionmodels "complio/internal/actions/models"
	actionservice "complio/internal/actions/service"
	"complio/internal/nonconformance/metrics"
	"complio/internal/nonconformance/models"
	"complio/internal/nonconformance/store"
	"complio/internal/platform/lock"
	dErrors "complio/pkg/domain-errors"
	audit "complio/pkg/platform/audit"
	"complio/pkg/platform/tx"
	"complio/pkg/requestcontext"
)

var tracer = otel.Tracer("complio/nonconformance")

// defaultCascadeConcurrency bounds parallel registry calls during a closure.
const defaultCascadeConcurrency = 4

type Store interface {
	CreateCase(ctx context.Context, c *models.Case) error
	FindCase(ctx context.Context, id string) (*models.Case, error)
	ListCases(ctx context.Context, filter store.ListFilter) ([]*models.Case, error)
	UpdateCase(ctx context.Context, c *models.Case) error
	DeleteCase(ctx context.Context, id string) error
	NextRefSeq(ctx context.Context, prefix string) (int, error)

	CreateAction(ctx context.Context, a *models.Action) error
	FindAction(ctx context.Context, caseID, actionID string) (*models.Action, error)
	ListActions(ctx context.Context, caseID string) ([]*models.Action, error)
	ListActionsByCases(ctx context.Context, caseIDs []string) (map[string][]*models.Action, error)
	UpdateAction(ctx context.Context, a *models.Action) error
	DeleteAction(ctx context.Context, caseID, actionID string) error

	AppendAudit(ctx context.Context, e *models.AuditEntry) error
	ListAudit(ctx context.Context, caseID string) ([]*models.AuditEntry, error)
}

// GlobalActionRegistry is the cross-cutting action register linked actions
// mirror into.
type GlobalActionRegistry interface {
	Create(ctx context.Context, in actionservice.CreateInput) (*actionmodels.Action, error)
	MarkCompleted(ctx context.Context, id string) error
	SetStatus(ctx context.Context, id string, status actionmodels.Status) error
	Delete(ctx context.Context, id string) error
}

type Service struct {
	store              Store
	registry           GlobalActionRegistry
	tx                 tx.Runner
	locker             lock.Locker
	logger             *slog.Logger
	metrics            *metrics.Metrics
	clock              func() time.Time
	newID              func() string
	cascadeConcurrency int
	events             audit.Emitter
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithClock(clock func() time.Time) Option {
	return func(s *Service) {
		s.clock = clock
	}
}

// WithTxRunner sets the unit-of-work boundary. Postgres deployments pass a
// tx.SQLRunner so case and audit writes commit together.
func WithTxRunner(runner tx.Runner) Option {
	return func(s *Service) {
		s.tx = runner
	}
}

func WithLocker(locker lock.Locker) Option {
	return func(s *Service) {
		s.locker = locker
	}
}

// WithAuditPublisher mirrors committed audit entries to an event stream.
func WithAuditPublisher(e audit.Emitter) Option {
	return func(s *Service) {
		s.events = e
	}
}

func WithCascadeConcurrency(n int) Option {
	return func(s *Service) {
		s.cascadeConcurrency = n
	}
}

// WithIDGenerator overrides uuid generation. Used by tests for stable ids.
func WithIDGenerator(newID func() string) Option {
	return func(s *Service) {
		s.newID = newID
	}
}

func New(store Store, registry GlobalActionRegistry, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("nonconformance store is required")
	}
	if registry == nil {
		return nil, errors.New("global action registry is required")
	}
	s := &Service{
		store:              store,
		registry:           registry,
		cascadeConcurrency: defaultCascadeConcurrency,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.tx == nil {
		s.tx = tx.NewInMemoryRunner()
	}
	if s.locker == nil {
		s.locker = lock.NewSharded()
	}
	if s.newID == nil {
		s.newID = newUUID
	}
	if s.events == nil {
		s.events = audit.Nop{}
	}
	if s.cascadeConcurrency < 1 {
		s.cascadeConcurrency = 1
	}
	return s, nil
}

func (s *Service) now(ctx context.Context) time.Time {
	if s.clock != nil {
		return s.clock()
	}
	return requestcontext.Now(ctx)
}

// actor resolves who is acting: the explicit argument, then the request
// context, then the system actor.
func actor(ctx context.Context, explicit string) string {
	if explicit != "" {
		return explicit
	}
	if id := requestcontext.ActorID(ctx); id != "" {
		return id
	}
	return requestcontext.SystemActor
}

// withCaseLock runs fn while holding the per-case lock.
func (s *Service) withCaseLock(ctx context.Context, caseID string, fn func() error) error {
	release, err := s.locker.Lock(ctx, "nc:"+caseID)
	if err != nil {
		return translateLockErr(err)
	}
	defer release()
	return fn()
}

func translateLockErr(err error) error {
	if errors.Is(err, lock.ErrLocked) {
		return dErrors.Wrap(err, dErrors.CodeConflict, "case is being modified, retry later")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "failed to acquire case lock")
}

// translate maps store errors onto domain errors. Domain errors pass through.
func translate(err error, notFound, internal string) error {
	if _, ok := dErrors.As(err); ok {
		return err
	}
	if errors.Is(err, store.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, notFound)
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, internal)
}

func (s *Service) loadCase(ctx context.Context, id string) (*models.Case, error) {
	c, err := s.store.FindCase(ctx, id)
	if err != nil {
		return nil, translate(err, "case not found", "failed to load case")
	}
	return c, nil
}

func (s *Service) appendAudit(ctx context.Context, e *models.AuditEntry) error {
	if err := s.store.AppendAudit(ctx, e); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to append audit entry")
	}
	s.logger.InfoContext(ctx, string(e.EventType),
		"log_type", "audit",
		"case_id", e.CaseID,
		"actor_id", e.ActorID,
		"request_id", requestcontext.RequestID(ctx),
	)
	event := audit.Event{
		ID:          e.ID,
		Category:    auditCategory(e.EventType),
		Stream:      audit.StreamNonConformance,
		Action:      string(e.EventType),
		EntityID:    e.CaseID,
		ActorID:     e.ActorID,
		RequestID:   requestcontext.RequestID(ctx),
		Description: e.Description,
		Metadata:    e.Metadata,
		Timestamp:   e.CreatedAt,
	}
	tx.AfterCommit(ctx, func(ctx context.Context) {
		if err := s.events.Emit(ctx, event); err != nil {
			s.logger.WarnContext(ctx, "audit event not published", "case_id", e.CaseID, "error", err)
		}
	})
	return nil
}

func auditCategory(t models.EventType) audit.Category {
	if t == models.EventEdited {
		return audit.CategoryOperations
	}
	return audit.CategoryCompliance
}
