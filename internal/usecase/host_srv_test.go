package usecase

import (
	"context"
	"testing"
	"time"

	"krib-booking/internal/dto/request"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestAutoApproveSettings(t *testing.T) {
	f := newFixture()
	svc := NewHostService(f.hosts, f.sessions, zap.NewNop())

	current, err := svc.GetAutoApprove(context.Background(), f.host.ID)
	require.NoError(t, err)
	assert.True(t, current.AutoApproveBookings)
	assert.Equal(t, 3000.0, current.AutoApproveAmountLimit)

	enabled := false
	updated, err := svc.UpdateAutoApprove(context.Background(), f.host.ID, &request.AutoApproveSettingsRequest{
		Enabled:     &enabled,
		AmountLimit: floatPtr(1250.567),
	})
	require.NoError(t, err)
	assert.False(t, updated.AutoApproveBookings)
	assert.Equal(t, 1250.57, updated.AutoApproveAmountLimit)
}

func TestAutoApproveSettings_Rejections(t *testing.T) {
	f := newFixture()
	svc := NewHostService(f.hosts, f.sessions, zap.NewNop())
	enabled := true

	var vErr *ValidationError
	_, err := svc.UpdateAutoApprove(context.Background(), f.host.ID, &request.AutoApproveSettingsRequest{Enabled: &enabled})
	assert.ErrorAs(t, err, &vErr)

	_, err = svc.UpdateAutoApprove(context.Background(), f.host.ID, &request.AutoApproveSettingsRequest{
		Enabled:     &enabled,
		AmountLimit: floatPtr(-1),
	})
	assert.ErrorAs(t, err, &vErr)

	var nf *NotFoundError
	_, err = svc.GetAutoApprove(context.Background(), uuid.New())
	assert.ErrorAs(t, err, &nf)
}

func TestSessionLifecycle(t *testing.T) {
	f := newFixture()
	svc := NewHostService(f.hosts, f.sessions, zap.NewNop()).(*hostService)
	svc.now = fixedNow

	session, err := svc.IssueSession(context.Background(), f.host.ID, 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, f.host.ID, session.HostID)
	assert.Equal(t, testNow.Add(24*time.Hour), session.ExpiresAt)

	found, err := f.sessions.FindValidSession(context.Background(), session.Token)
	require.NoError(t, err)
	require.NotNil(t, found)

	require.NoError(t, svc.Logout(context.Background(), session.Token.String()))
	found, err = f.sessions.FindValidSession(context.Background(), session.Token)
	require.NoError(t, err)
	assert.Nil(t, found)

	var nf *NotFoundError
	assert.ErrorAs(t, svc.Logout(context.Background(), session.Token.String()), &nf)

	var vErr *ValidationError
	assert.ErrorAs(t, svc.Logout(context.Background(), "not-a-token"), &vErr)
}

func TestIssueSession_InactiveHost(t *testing.T) {
	f := newFixture()
	f.host.IsActive = false
	svc := NewHostService(f.hosts, f.sessions, zap.NewNop())

	_, err := svc.IssueSession(context.Background(), f.host.ID, time.Hour)

	var nf *NotFoundError
	assert.ErrorAs(t, err, &nf)
	assert.Empty(t, f.sessions.sessions)
}

func TestRevokeSessions(t *testing.T) {
	f := newFixture()
	svc := NewHostService(f.hosts, f.sessions, zap.NewNop()).(*hostService)
	svc.now = fixedNow

	first, err := svc.IssueSession(context.Background(), f.host.ID, time.Hour)
	require.NoError(t, err)
	second, err := svc.IssueSession(context.Background(), f.host.ID, time.Hour)
	require.NoError(t, err)

	revoked, err := svc.RevokeSessions(context.Background(), f.host.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), revoked)

	for _, token := range []uuid.UUID{first.Token, second.Token} {
		found, err := f.sessions.FindValidSession(context.Background(), token)
		require.NoError(t, err)
		assert.Nil(t, found)
	}

	revoked, err = svc.RevokeSessions(context.Background(), f.host.ID)
	require.NoError(t, err)
	assert.Zero(t, revoked)

	var nf *NotFoundError
	_, err = svc.RevokeSessions(context.Background(), uuid.New())
	assert.ErrorAs(t, err, &nf)
}
