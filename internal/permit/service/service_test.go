package service

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks Store

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"complio/internal/permit/metrics"
	"complio/internal/permit/models"
	"complio/internal/permit/service/mocks"
	"complio/internal/permit/store"
	dErrors "complio/pkg/domain-errors"
	audit "complio/pkg/platform/audit"
	"complio/pkg/platform/audit/memory"
	"complio/pkg/platform/audit/publisher"
	"complio/pkg/requestcontext"
)

type ServiceSuite struct {
	suite.Suite
	store   *store.InMemoryStore
	metrics *metrics.Metrics
	service *Service
	now     time.Time
	ctx     context.Context
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.store = store.NewInMemory()
	s.metrics = metrics.New(prometheus.NewRegistry())
	s.now = time.Date(2025, 6, 2, 8, 0, 0, 0, time.UTC)
	s.ctx = requestcontext.WithActorID(context.Background(), "permit.officer")

	svc, err := New(s.store,
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithMetrics(s.metrics),
		WithClock(func() time.Time { return s.now }),
	)
	s.Require().NoError(err)
	s.service = svc
}

func (s *ServiceSuite) createPermit() *models.Permit {
	p, err := s.service.Create(s.ctx, models.NewPermitInput{
		Title:      "Isolation of conveyor 3",
		Type:       "ELECTRICAL_ISOLATION",
		Contractor: "Acme Electrical",
		ValidFrom:  s.now,
		ValidUntil: s.now.Add(12 * time.Hour),
	})
	s.Require().NoError(err)
	return p
}

func (s *ServiceSuite) record(permitID string, level int, status models.ApprovalStatus, name string) *ApprovalResult {
	res, err := s.service.RecordApproval(s.ctx, permitID, models.NewApprovalInput{
		Level: level, ApproverRole: "Approver", ApproverName: name, Status: status,
	})
	s.Require().NoError(err)
	return res
}

func (s *ServiceSuite) TestNewRequiresStore() {
	_, err := New(nil)
	s.Error(err)
}

func (s *ServiceSuite) TestCreate() {
	p := s.createPermit()
	s.Equal(models.StatusPending, p.Status)
	s.Equal("permit.officer", p.IssuedBy)
	s.Equal(1.0, testutil.ToFloat64(s.metrics.PermitsCreated))

	_, err := s.service.Create(s.ctx, models.NewPermitInput{
		Title: "x", Type: "GENERAL", ValidFrom: s.now, ValidUntil: s.now.Add(-time.Hour),
	})
	s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))
}

func (s *ServiceSuite) TestLevelOneApprovalAdvancesPermit() {
	p := s.createPermit()
	res := s.record(p.ID, models.LevelInternal, models.ApprovalApproved, "J. Ortiz")

	s.Equal(models.StatusApproved, res.Permit.Status)
	s.Equal("J. Ortiz", res.Permit.InternalApprover)
	s.Require().NotNil(res.Approval.SignedAt)
	s.Equal(s.now, *res.Approval.SignedAt)

	stored, err := s.service.Get(s.ctx, p.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusApproved, stored.Status)
	s.Equal(1.0, testutil.ToFloat64(s.metrics.ApprovalsRecorded.WithLabelValues("1", "APPROVED")))
}

func (s *ServiceSuite) TestLevelTwoApprovalNamesClientOnly() {
	p := s.createPermit()
	res := s.record(p.ID, models.LevelClient, models.ApprovalApproved, "Client Rep")

	s.Equal(models.StatusPending, res.Permit.Status)
	s.Equal("Client Rep", res.Permit.ClientApprover)
	s.Empty(res.Permit.InternalApprover)
}

func (s *ServiceSuite) TestPendingAndRejectedLeavePermitUntouched() {
	p := s.createPermit()

	pending := s.record(p.ID, models.LevelInternal, "", "J. Ortiz")
	s.Equal(models.ApprovalPending, pending.Approval.Status)
	s.Nil(pending.Approval.SignedAt)

	rejected := s.record(p.ID, models.LevelInternal, models.ApprovalRejected, "J. Ortiz")
	s.NotNil(rejected.Approval.SignedAt)

	stored, err := s.service.Get(s.ctx, p.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusPending, stored.Status)
	s.Empty(stored.InternalApprover)
	s.Equal(0.0, testutil.ToFloat64(s.metrics.PermitsAdvanced))
}

func (s *ServiceSuite) TestLaterApprovalDoesNotRewriteHistory() {
	p := s.createPermit()
	s.record(p.ID, models.LevelInternal, models.ApprovalRejected, "First Reviewer")
	s.record(p.ID, models.LevelInternal, models.ApprovalApproved, "Second Reviewer")

	rows, err := s.service.ListApprovals(s.ctx, p.ID)
	s.Require().NoError(err)
	s.Require().Len(rows, 2)
	s.Equal(models.ApprovalRejected, rows[0].Status)
	s.Equal(models.ApprovalApproved, rows[1].Status)

	stored, _ := s.service.Get(s.ctx, p.ID)
	s.Equal("Second Reviewer", stored.InternalApprover)
	s.Equal(models.StatusApproved, stored.Status)
}

func (s *ServiceSuite) TestRecordedApprovalsArePublished() {
	sink := memory.NewSink()
	pub := publisher.NewPublisher(sink)
	defer pub.Close()
	svc, err := New(s.store, WithClock(func() time.Time { return s.now }), WithAuditPublisher(pub))
	s.Require().NoError(err)

	p := s.createPermit()
	_, err = svc.RecordApproval(s.ctx, p.ID, models.NewApprovalInput{
		Level: models.LevelInternal, ApproverRole: "Site Manager", Status: models.ApprovalApproved,
	})
	s.Require().NoError(err)
	_, err = svc.RecordApproval(s.ctx, p.ID, models.NewApprovalInput{Level: 3, ApproverRole: "x", Status: models.ApprovalApproved})
	s.Require().Error(err)

	events := sink.ListByEntity(p.ID)
	s.Require().Len(events, 1)
	s.Equal(audit.StreamPermit, events[0].Stream)
	s.Equal("permit.officer", events[0].ActorID)
	s.Equal(1, events[0].Metadata["level"])
	s.Equal(string(models.StatusApproved), events[0].Metadata["permitStatus"])
}

func (s *ServiceSuite) TestApprovalDoesNotRegressActivePermit() {
	p := s.createPermit()
	active := models.StatusActive
	_, err := s.service.Update(s.ctx, p.ID, models.PermitPatch{Status: &active})
	s.Require().NoError(err)

	res := s.record(p.ID, models.LevelInternal, models.ApprovalApproved, "J. Ortiz")
	s.Equal(models.StatusActive, res.Permit.Status)
	s.Equal("J. Ortiz", res.Permit.InternalApprover)
}

func (s *ServiceSuite) TestRecordApprovalValidation() {
	p := s.createPermit()
	cases := map[string]models.NewApprovalInput{
		"missing level": {ApproverRole: "Approver"},
		"level 3":       {Level: 3, ApproverRole: "Approver"},
		"empty role":    {Level: 1},
		"bad status":    {Level: 1, ApproverRole: "Approver", Status: "DEFERRED"},
	}
	for name, in := range cases {
		s.Run(name, func() {
			_, err := s.service.RecordApproval(s.ctx, p.ID, in)
			s.True(dErrors.HasCode(err, dErrors.CodeValidation))
		})
	}
	rows, err := s.service.ListApprovals(s.ctx, p.ID)
	s.Require().NoError(err)
	s.Empty(rows)

	_, err = s.service.RecordApproval(s.ctx, "missing", models.NewApprovalInput{Level: 1, ApproverRole: "Approver"})
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *ServiceSuite) TestListApprovalsOrdering() {
	p := s.createPermit()
	s.record(p.ID, models.LevelClient, models.ApprovalApproved, "client-a")
	s.record(p.ID, models.LevelInternal, models.ApprovalApproved, "internal-a")
	s.record(p.ID, models.LevelClient, models.ApprovalRejected, "client-b")

	rows, err := s.service.ListApprovals(s.ctx, p.ID)
	s.Require().NoError(err)
	var names []string
	for _, r := range rows {
		names = append(names, r.ApproverName)
	}
	s.Equal([]string{"internal-a", "client-a", "client-b"}, names)

	_, err = s.service.ListApprovals(s.ctx, "missing")
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *ServiceSuite) TestUpdateAndDelete() {
	p := s.createPermit()
	late := p.ValidFrom.Add(24 * time.Hour)
	_, err := s.service.Update(s.ctx, p.ID, models.PermitPatch{ValidFrom: &late})
	s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))

	loc := "Line 3"
	updated, err := s.service.Update(s.ctx, p.ID, models.PermitPatch{Location: &loc})
	s.Require().NoError(err)
	s.Equal("Line 3", updated.Location)

	s.Require().NoError(s.service.Delete(s.ctx, p.ID))
	_, err = s.service.Get(s.ctx, p.ID)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	s.True(dErrors.HasCode(s.service.Delete(s.ctx, p.ID), dErrors.CodeNotFound))
}

func (s *ServiceSuite) TestList() {
	first := s.createPermit()
	s.now = s.now.Add(time.Minute)
	second := s.createPermit()
	s.record(first.ID, models.LevelInternal, models.ApprovalApproved, "J. Ortiz")

	all, err := s.service.List(s.ctx, store.ListFilter{})
	s.Require().NoError(err)
	s.Require().Len(all, 2)
	s.Equal(second.ID, all[0].ID)

	approved, err := s.service.List(s.ctx, store.ListFilter{Status: models.StatusApproved})
	s.Require().NoError(err)
	s.Require().Len(approved, 1)
	s.Equal(first.ID, approved[0].ID)
}

func (s *ServiceSuite) TestStoreFailures() {
	ctrl := gomock.NewController(s.T())
	mockStore := mocks.NewMockStore(ctrl)
	svc, err := New(mockStore, WithClock(func() time.Time { return s.now }), WithIDGenerator(func() string { return "a-1" }))
	s.Require().NoError(err)

	permit := func() *models.Permit {
		return &models.Permit{ID: "p-1", Status: models.StatusPending, ValidFrom: s.now, ValidUntil: s.now}
	}

	s.Run("permit update failure fails the approval", func() {
		mockStore.EXPECT().FindPermit(gomock.Any(), "p-1").Return(permit(), nil)
		mockStore.EXPECT().AppendApproval(gomock.Any(), gomock.Any()).Return(nil)
		mockStore.EXPECT().UpdatePermit(gomock.Any(), gomock.Any()).Return(errors.New("serialization failure"))

		_, err := svc.RecordApproval(s.ctx, "p-1", models.NewApprovalInput{
			Level: 1, ApproverRole: "Approver", Status: models.ApprovalApproved,
		})
		s.True(dErrors.HasCode(err, dErrors.CodeInternal))
	})

	s.Run("append failure skips the permit write", func() {
		mockStore.EXPECT().FindPermit(gomock.Any(), "p-1").Return(permit(), nil)
		mockStore.EXPECT().AppendApproval(gomock.Any(), gomock.Any()).Return(errors.New("disk full"))

		_, err := svc.RecordApproval(s.ctx, "p-1", models.NewApprovalInput{
			Level: 1, ApproverRole: "Approver", Status: models.ApprovalApproved,
		})
		s.True(dErrors.HasCode(err, dErrors.CodeInternal))
	})

	s.Run("rejection never writes the permit", func() {
		mockStore.EXPECT().FindPermit(gomock.Any(), "p-1").Return(permit(), nil)
		mockStore.EXPECT().AppendApproval(gomock.Any(), gomock.Any()).Return(nil)

		res, err := svc.RecordApproval(s.ctx, "p-1", models.NewApprovalInput{
			Level: 1, ApproverRole: "Approver", Status: models.ApprovalRejected,
		})
		s.Require().NoError(err)
		s.Equal("a-1", res.Approval.ID)
	})
}
