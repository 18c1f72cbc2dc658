package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"complio/internal/actions/models"
	"complio/internal/actions/store"
	dErrors "complio/pkg/domain-errors"
)

type ServiceSuite struct {
	suite.Suite
	store   *store.InMemoryStore
	service *Service
	now     time.Time
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.now = time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)
	s.store = store.NewInMemory()
	s.service = New(s.store, WithClock(func() time.Time { return s.now }))
}

func (s *ServiceSuite) create() *models.Action {
	a, err := s.service.Create(context.Background(), CreateInput{Title: "Recalibrate gauge"})
	s.Require().NoError(err)
	return a
}

func (s *ServiceSuite) TestCreate() {
	a := s.create()
	s.NotEmpty(a.ID)
	s.Equal(models.StatusOpen, a.Status)
	s.Equal(s.now, a.CreatedAt)

	_, err := s.service.Create(context.Background(), CreateInput{Title: ""})
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
}

func (s *ServiceSuite) TestMarkCompleted() {
	a := s.create()
	s.now = s.now.Add(time.Hour)
	s.Require().NoError(s.service.MarkCompleted(context.Background(), a.ID))

	got, err := s.service.Get(context.Background(), a.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusCompleted, got.Status)
	s.Equal(s.now, got.UpdatedAt)

	s.Run("idempotent", func() {
		s.NoError(s.service.MarkCompleted(context.Background(), a.ID))
	})
}

func (s *ServiceSuite) TestSetStatusValidation() {
	a := s.create()
	err := s.service.SetStatus(context.Background(), a.ID, models.Status("DONE"))
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
}

func (s *ServiceSuite) TestMissingActionIsNotFound() {
	ctx := context.Background()
	s.True(dErrors.HasCode(s.service.MarkCompleted(ctx, "missing"), dErrors.CodeNotFound))
	s.True(dErrors.HasCode(s.service.Delete(ctx, "missing"), dErrors.CodeNotFound))
	_, err := s.service.Get(ctx, "missing")
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *ServiceSuite) TestList() {
	a, b := s.create(), s.create()
	got, err := s.service.List(context.Background(), []string{b.ID, a.ID})
	s.Require().NoError(err)
	s.Require().Len(got, 2)
	s.Equal(b.ID, got[0].ID)
}

type failingStore struct{ *store.InMemoryStore }

func (failingStore) Update(context.Context, *models.Action) error { return errors.New("disk full") }

func (s *ServiceSuite) TestStoreFailureIsInternal() {
	fs := failingStore{InMemoryStore: store.NewInMemory()}
	svc := New(fs)
	a, err := svc.Create(context.Background(), CreateInput{Title: "x"})
	s.Require().NoError(err)

	err = svc.MarkCompleted(context.Background(), a.ID)
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))
}
