// Package service runs the permit-to-work approval workflow: permit CRUD and
// an append-only approval log whose APPROVED rows advance the permit.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"

	"complio/internal/permit/metrics"
	"complio/internal/permit/models"
	"complio/internal/permit/store"
	"complio/internal/platform/lock"
	dErrors "complio/pkg/domain-errors"
	audit "complio/pkg/platform/audit"
	"complio/pkg/platform/tx"
	"complio/pkg/requestcontext"
)

var tracer = otel.Tracer("complio/permit")

type Store interface {
	CreatePermit(ctx context.Context, p *models.Permit) error
	FindPermit(ctx context.Context, id string) (*models.Permit, error)
	ListPermits(ctx context.Context, filter store.ListFilter) ([]*models.Permit, error)
	UpdatePermit(ctx context.Context, p *models.Permit) error
	DeletePermit(ctx context.Context, id string) error
	AppendApproval(ctx context.Context, a *models.Approval) error
	ListApprovals(ctx context.Context, permitID string) ([]*models.Approval, error)
}

type Service struct {
	store   Store
	tx      tx.Runner
	locker  lock.Locker
	logger  *slog.Logger
	metrics *metrics.Metrics
	clock   func() time.Time
	newID   func() string
	events  audit.Emitter
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

// WithAuditPublisher mirrors committed approvals to an event stream.
func WithAuditPublisher(e audit.Emitter) Option {
	return func(s *Service) {
		s.events = e
	}
}

func WithIDGenerator(newID func() string) Option {
	return func(s *Service) {
		s.newID = newID
	}
}

func New(store Store, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("permit store is required")
	}
	s := &Service{store: store}
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
		s.newID = uuid.NewString
	}
	if s.events == nil {
		s.events = audit.Nop{}
	}
	return s, nil
}

func (s *Service) now(ctx context.Context) time.Time {
	if s.clock != nil {
		return s.clock()
	}
	return requestcontext.Now(ctx)
}

func (s *Service) withPermitLock(ctx context.Context, id string, fn func() error) error {
	release, err := s.locker.Lock(ctx, "permit:"+id)
	if err != nil {
		if errors.Is(err, lock.ErrLocked) {
			return dErrors.Wrap(err, dErrors.CodeConflict, "permit is being modified, retry later")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to acquire permit lock")
	}
	defer release()
	return fn()
}

func translate(err error, internal string) error {
	if _, ok := dErrors.As(err); ok {
		return err
	}
	if errors.Is(err, store.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "permit not found")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, internal)
}
