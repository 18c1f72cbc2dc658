// Package service implements the Global Action register that workflow engines
// push completion and status changes into.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"complio/internal/actions/models"
	"complio/internal/actions/store"
	dErrors "complio/pkg/domain-errors"
	"complio/pkg/requestcontext"
)

var tracer = otel.Tracer("complio/actions")

type Store interface {
	Create(ctx context.Context, action *models.Action) error
	FindByID(ctx context.Context, id string) (*models.Action, error)
	FindByIDs(ctx context.Context, ids []string) ([]*models.Action, error)
	Update(ctx context.Context, action *models.Action) error
	Delete(ctx context.Context, id string) error
}

// CreateInput describes a new register entry.
type CreateInput struct {
	Type    models.Type
	Title   string
	Details string
	Owner   string
	DueDate *time.Time
}

type Service struct {
	store  Store
	logger *slog.Logger
	clock  func() time.Time
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithClock(clock func() time.Time) Option {
	return func(s *Service) {
		s.clock = clock
	}
}

func New(store Store, opts ...Option) *Service {
	s := &Service{store: store}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

func (s *Service) now(ctx context.Context) time.Time {
	if s.clock != nil {
		return s.clock()
	}
	return requestcontext.Now(ctx)
}

func (s *Service) Create(ctx context.Context, in CreateInput) (*models.Action, error) {
	ctx, span := tracer.Start(ctx, "actions.Create")
	defer span.End()

	action, err := models.NewAction(uuid.NewString(), in.Type, in.Title, in.Details, in.Owner, in.DueDate, s.now(ctx))
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
			return nil, dErrors.New(dErrors.CodeValidation, err.Error())
		}
		return nil, err
	}
	if err := s.store.Create(ctx, action); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "create failed")
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create global action")
	}
	span.SetAttributes(attribute.String("action.id", action.ID))
	return action, nil
}

func (s *Service) Get(ctx context.Context, id string) (*models.Action, error) {
	action, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, s.translate(err, "failed to load global action")
	}
	return action, nil
}

// List returns the actions among ids that exist, in request order.
func (s *Service) List(ctx context.Context, ids []string) ([]*models.Action, error) {
	actions, err := s.store.FindByIDs(ctx, ids)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load global actions")
	}
	return actions, nil
}

// MarkCompleted is the cascade target of a case closure.
func (s *Service) MarkCompleted(ctx context.Context, id string) error {
	return s.SetStatus(ctx, id, models.StatusCompleted)
}

func (s *Service) SetStatus(ctx context.Context, id string, status models.Status) error {
	ctx, span := tracer.Start(ctx, "actions.SetStatus")
	defer span.End()
	span.SetAttributes(attribute.String("action.id", id), attribute.String("action.status", string(status)))

	if !status.IsValid() {
		return dErrors.New(dErrors.CodeValidation, "status must be one of [OPEN IN_PROGRESS COMPLETED]")
	}
	action, err := s.store.FindByID(ctx, id)
	if err != nil {
		return s.translate(err, "failed to load global action")
	}
	if !action.ApplyStatus(status, s.now(ctx)) {
		return nil
	}
	if err := s.store.Update(ctx, action); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "update failed")
		return s.translate(err, "failed to update global action")
	}
	s.logger.InfoContext(ctx, "global action status changed",
		"action_id", id,
		"status", status,
		"request_id", requestcontext.RequestID(ctx),
	)
	return nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return s.translate(err, "failed to delete global action")
	}
	return nil
}

func (s *Service) translate(err error, msg string) error {
	if errors.Is(err, store.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "global action not found")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, msg)
}
