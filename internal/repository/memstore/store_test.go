package memstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/arnold/wellness-api/internal/models"
	"github.com/arnold/wellness-api/internal/repository"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedGroup(t *testing.T, s *Store, maxMembers int) *models.Group {
	t.Helper()
	g := &models.Group{
		Name:               "Walkers",
		InviteCode:         "WALK01",
		SponsorID:          uuid.New(),
		MaxMembers:         maxMembers,
		CurrentMemberCount: 1,
		Status:             models.GroupActive,
	}
	require.NoError(t, s.Groups().Create(context.Background(), g))
	return g
}

func TestTransaction_RestoresSnapshotOnError(t *testing.T) {
	ctx := context.Background()
	s := New()
	g := seedGroup(t, s, 10)
	boom := errors.New("boom")

	err := s.Transaction(ctx, func(tx repository.Store) error {
		require.NoError(t, tx.Groups().IncrementMemberCount(ctx, g.ID))
		require.NoError(t, tx.Members().Create(ctx, &models.GroupMember{GroupID: g.ID, UserID: uuid.New()}))
		require.NoError(t, tx.Activities().RecordTrainingModule(ctx, g.SponsorID, "m1", time.Now()))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	got, err := s.Groups().Get(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.CurrentMemberCount)

	n, err := s.Members().Count(ctx, g.ID)
	require.NoError(t, err)
	assert.Zero(t, n)

	modules, err := s.Activities().CountTrainingModules(ctx, g.SponsorID)
	require.NoError(t, err)
	assert.Zero(t, modules)
}

func TestTransaction_CommitsOnSuccess(t *testing.T) {
	ctx := context.Background()
	s := New()
	g := seedGroup(t, s, 10)

	err := s.Transaction(ctx, func(tx repository.Store) error {
		if err := tx.Groups().IncrementMemberCount(ctx, g.ID); err != nil {
			return err
		}
		// nested transactions join the outer one
		return tx.Transaction(ctx, func(inner repository.Store) error {
			return inner.Members().Create(ctx, &models.GroupMember{GroupID: g.ID, UserID: uuid.New()})
		})
	})
	require.NoError(t, err)

	got, err := s.Groups().Get(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.CurrentMemberCount)
}

func TestGroups_CapacityAndStatus(t *testing.T) {
	ctx := context.Background()
	s := New()
	g := seedGroup(t, s, 2)

	require.NoError(t, s.Groups().IncrementMemberCount(ctx, g.ID))
	assert.ErrorIs(t, s.Groups().IncrementMemberCount(ctx, g.ID), repository.ErrGroupFull)

	require.NoError(t, s.Groups().DecrementMemberCount(ctx, g.ID))
	got, err := s.Groups().Get(ctx, g.ID)
	require.NoError(t, err)
	got.Status = models.GroupInactive
	require.NoError(t, s.Groups().Update(ctx, got))
	assert.ErrorIs(t, s.Groups().IncrementMemberCount(ctx, g.ID), repository.ErrGroupInactive)

	dup := &models.Group{Name: "Copy", InviteCode: "WALK01", MaxMembers: 10}
	assert.ErrorIs(t, s.Groups().Create(ctx, dup), repository.ErrDuplicate)
}

func TestGet_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := New()
	g := seedGroup(t, s, 10)

	got, err := s.Groups().Get(ctx, g.ID)
	require.NoError(t, err)
	got.Name = "changed"

	again, err := s.Groups().Get(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, "Walkers", again.Name)
}

func TestAchievements_Duplicate(t *testing.T) {
	ctx := context.Background()
	s := New()
	a := models.MemberAchievement{UserID: uuid.New(), GroupID: uuid.New(), Type: "training_graduate"}

	first := a
	require.NoError(t, s.Achievements().Create(ctx, &first))
	second := a
	assert.ErrorIs(t, s.Achievements().Create(ctx, &second), repository.ErrDuplicate)
}

func TestNotifications_DeleteExpiredKeepsPersistent(t *testing.T) {
	ctx := context.Background()
	s := New()
	user := uuid.New()
	past := time.Now().Add(-time.Minute)

	require.NoError(t, s.Notifications().Create(ctx, &models.GroupNotification{RecipientID: user, ExpiresAt: &past}))
	require.NoError(t, s.Notifications().Create(ctx, &models.GroupNotification{RecipientID: user, ExpiresAt: &past, Persistent: true}))
	require.NoError(t, s.Notifications().Create(ctx, &models.GroupNotification{RecipientID: user}))

	n, err := s.Notifications().DeleteExpired(ctx, time.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	left, err := s.Notifications().ListForRecipient(ctx, user, repository.NotificationFilter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, left, 1)

	marked, err := s.Notifications().MarkAllRead(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, int64(2), marked)
}

func TestMembers_UpdateStatsKeepsRole(t *testing.T) {
	ctx := context.Background()
	s := New()
	g := seedGroup(t, s, 10)
	user := uuid.New()
	require.NoError(t, s.Members().Create(ctx, &models.GroupMember{GroupID: g.ID, UserID: user, Role: models.RoleMember}))

	stale, err := s.Members().GetForUpdate(ctx, g.ID, user)
	require.NoError(t, err)
	require.NoError(t, s.Members().SetRole(ctx, g.ID, user, models.RoleSponsor))

	stale.Stats.TotalSteps = 4200
	require.NoError(t, s.Members().UpdateStats(ctx, g.ID, user, stale.Stats, time.Now()))

	got, err := s.Members().Get(ctx, g.ID, user)
	require.NoError(t, err)
	assert.True(t, got.IsSponsor())
	assert.Equal(t, int64(4200), got.Stats.TotalSteps)

	assert.ErrorIs(t, s.Members().UpdateStats(ctx, g.ID, uuid.New(), stale.Stats, time.Now()), repository.ErrNotFound)
}

func TestInvitations_AcceptPendingMatchesIDOrEmail(t *testing.T) {
	ctx := context.Background()
	s := New()
	g := seedGroup(t, s, 10)
	user := uuid.New()

	byID := &models.GroupInvitation{GroupID: g.ID, InviteeID: &user, InviteCode: g.InviteCode, Status: models.InvitationPending}
	byEmail := &models.GroupInvitation{GroupID: g.ID, InviteeEmail: "Uma@Example.com", InviteCode: g.InviteCode, Status: models.InvitationPending}
	other := &models.GroupInvitation{GroupID: g.ID, InviteeEmail: "vic@example.com", InviteCode: g.InviteCode, Status: models.InvitationPending}
	for _, inv := range []*models.GroupInvitation{byID, byEmail, other} {
		require.NoError(t, s.Invitations().Create(ctx, inv))
	}

	n, err := s.Invitations().AcceptPending(ctx, g.ID, user, "uma@example.com")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	got, err := s.Invitations().Get(ctx, other.ID)
	require.NoError(t, err)
	assert.Equal(t, models.InvitationPending, got.Status)

	require.NoError(t, s.Invitations().SetStatus(ctx, other.ID, models.InvitationRevoked))
	got, err = s.Invitations().Get(ctx, other.ID)
	require.NoError(t, err)
	assert.Equal(t, models.InvitationRevoked, got.Status)

	_, err = s.Invitations().Get(ctx, uuid.New())
	assert.ErrorIs(t, err, repository.ErrNotFound)
}
