package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "complio/pkg/domain-errors"
)

var now = time.Date(2025, 6, 2, 8, 0, 0, 0, time.UTC)

func newPermit(t *testing.T, status Status) *Permit {
	t.Helper()
	p, err := NewPermit("p-1", NewPermitInput{
		Title:      "Hot work in boiler house",
		Type:       "HOT_WORK",
		ValidFrom:  now,
		ValidUntil: now.Add(8 * time.Hour),
		Status:     status,
	}, now)
	require.NoError(t, err)
	return p
}

func approval(t *testing.T, level int, status ApprovalStatus, name string) *Approval {
	t.Helper()
	a, err := NewApproval("a-1", "p-1", NewApprovalInput{
		Level: level, ApproverRole: "Site Manager", ApproverName: name, Status: status,
	}, now)
	require.NoError(t, err)
	return a
}

func TestNewPermit(t *testing.T) {
	t.Run("defaults to pending", func(t *testing.T) {
		assert.Equal(t, StatusPending, newPermit(t, "").Status)
	})

	t.Run("rejects inverted window", func(t *testing.T) {
		_, err := NewPermit("p-1", NewPermitInput{
			Title: "x", Type: "GENERAL", ValidFrom: now, ValidUntil: now.Add(-time.Minute),
		}, now)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})

	t.Run("equal bounds allowed", func(t *testing.T) {
		_, err := NewPermit("p-1", NewPermitInput{
			Title: "x", Type: "GENERAL", ValidFrom: now, ValidUntil: now,
		}, now)
		assert.NoError(t, err)
	})
}

func TestPatchWindow(t *testing.T) {
	p := newPermit(t, "")
	early := now.Add(-time.Hour)
	assert.NoError(t, p.CanApplyPatch(PermitPatch{ValidFrom: &early}))

	late := now.Add(24 * time.Hour)
	assert.Error(t, p.CanApplyPatch(PermitPatch{ValidFrom: &late}))

	active := StatusActive
	require.NoError(t, p.CanApplyPatch(PermitPatch{Status: &active}))
	p.ApplyPatch(PermitPatch{Status: &active}, now)
	assert.Equal(t, StatusActive, p.Status)
}

func TestNewApproval(t *testing.T) {
	a := approval(t, LevelInternal, "", "")
	assert.Equal(t, ApprovalPending, a.Status)
	assert.Nil(t, a.SignedAt)

	a = approval(t, LevelClient, ApprovalRejected, "Client Rep")
	require.NotNil(t, a.SignedAt)
	assert.Equal(t, now, *a.SignedAt)

	for name, in := range map[string]NewApprovalInput{
		"level zero":   {Level: 0, ApproverRole: "x"},
		"level three":  {Level: 3, ApproverRole: "x"},
		"missing role": {Level: 1, ApproverRole: "  "},
		"bad status":   {Level: 1, ApproverRole: "x", Status: "MAYBE"},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := NewApproval("a", "p", in, now)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
		})
	}
}

func TestApplyApproval(t *testing.T) {
	t.Run("level 1 approves pending permit", func(t *testing.T) {
		p := newPermit(t, "")
		assert.True(t, p.ApplyApproval(approval(t, LevelInternal, ApprovalApproved, "J. Ortiz"), now))
		assert.Equal(t, StatusApproved, p.Status)
		assert.Equal(t, "J. Ortiz", p.InternalApprover)
	})

	t.Run("level 2 names client only", func(t *testing.T) {
		p := newPermit(t, "")
		assert.True(t, p.ApplyApproval(approval(t, LevelClient, ApprovalApproved, "Client Rep"), now))
		assert.Equal(t, StatusPending, p.Status)
		assert.Equal(t, "Client Rep", p.ClientApprover)
	})

	t.Run("rejection changes nothing", func(t *testing.T) {
		p := newPermit(t, "")
		assert.False(t, p.ApplyApproval(approval(t, LevelInternal, ApprovalRejected, "J. Ortiz"), now))
		assert.Equal(t, StatusPending, p.Status)
		assert.Empty(t, p.InternalApprover)
	})

	t.Run("later lifecycle states are not regressed", func(t *testing.T) {
		for _, st := range []Status{StatusActive, StatusExpired, StatusClosed} {
			p := newPermit(t, st)
			p.ApplyApproval(approval(t, LevelInternal, ApprovalApproved, "J. Ortiz"), now)
			assert.Equal(t, st, p.Status)
			assert.Equal(t, "J. Ortiz", p.InternalApprover)
		}
	})
}
