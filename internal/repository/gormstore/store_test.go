package gormstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/arnold/wellness-api/internal/database"
	"github.com/arnold/wellness-api/internal/models"
	"github.com/arnold/wellness-api/internal/repository"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := database.Open(":memory:", false)
	require.NoError(t, err)

	// every connection to :memory: is a separate database
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.Migrate(db))
	return New(db)
}

func seedGroup(t *testing.T, s *Store, maxMembers int) *models.Group {
	t.Helper()
	g := &models.Group{
		Name:               "Walkers",
		InviteCode:         "WALK01",
		SponsorID:          uuid.New(),
		MaxMembers:         maxMembers,
		CurrentMemberCount: 1,
		Status:             models.GroupActive,
		Settings:           models.DefaultGroupSettings(),
	}
	require.NoError(t, s.Groups().Create(context.Background(), g))
	return g
}

func TestGroups_CreateAndLookup(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	g := seedGroup(t, s, 3)

	got, err := s.Groups().GetByInviteCode(ctx, "WALK01")
	require.NoError(t, err)
	assert.Equal(t, g.ID, got.ID)
	assert.Equal(t, models.DefaultDailyStepGoal, got.Settings.DailyStepGoal)

	exists, err := s.Groups().InviteCodeExists(ctx, "WALK01")
	require.NoError(t, err)
	assert.True(t, exists)

	_, err = s.Groups().Get(ctx, uuid.New())
	assert.ErrorIs(t, err, repository.ErrNotFound)

	dup := &models.Group{Name: "Copy", InviteCode: "WALK01", SponsorID: uuid.New(), MaxMembers: 10, Status: models.GroupActive}
	assert.ErrorIs(t, s.Groups().Create(ctx, dup), repository.ErrDuplicate)
}

func TestGroups_IncrementMemberCount(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	g := seedGroup(t, s, 3)

	require.NoError(t, s.Groups().IncrementMemberCount(ctx, g.ID))
	require.NoError(t, s.Groups().IncrementMemberCount(ctx, g.ID))
	assert.ErrorIs(t, s.Groups().IncrementMemberCount(ctx, g.ID), repository.ErrGroupFull)

	got, err := s.Groups().Get(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, got.CurrentMemberCount)

	got.Status = models.GroupInactive
	require.NoError(t, s.Groups().Update(ctx, got))
	require.NoError(t, s.Groups().DecrementMemberCount(ctx, g.ID))
	assert.ErrorIs(t, s.Groups().IncrementMemberCount(ctx, g.ID), repository.ErrGroupInactive)
}

func TestMembers_UniquePerGroup(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	g := seedGroup(t, s, 10)
	user := uuid.New()

	require.NoError(t, s.Members().Create(ctx, &models.GroupMember{GroupID: g.ID, UserID: user, Role: models.RoleMember}))
	err := s.Members().Create(ctx, &models.GroupMember{GroupID: g.ID, UserID: user, Role: models.RoleMember})
	assert.ErrorIs(t, err, repository.ErrDuplicate)

	require.NoError(t, s.Members().SetRole(ctx, g.ID, user, models.RoleSponsor))
	m, err := s.Members().Get(ctx, g.ID, user)
	require.NoError(t, err)
	assert.True(t, m.IsSponsor())

	n, err := s.Members().Count(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	require.NoError(t, s.Members().Delete(ctx, g.ID, user))
	assert.ErrorIs(t, s.Members().Delete(ctx, g.ID, user), repository.ErrNotFound)
}

func TestTransaction_RollsBack(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	g := seedGroup(t, s, 10)
	boom := errors.New("boom")

	err := s.Transaction(ctx, func(tx repository.Store) error {
		if err := tx.Groups().IncrementMemberCount(ctx, g.ID); err != nil {
			return err
		}
		if err := tx.Members().Create(ctx, &models.GroupMember{GroupID: g.ID, UserID: uuid.New()}); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	got, err := s.Groups().Get(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.CurrentMemberCount)

	n, err := s.Members().Count(ctx, g.ID)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestAchievements_OncePerType(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	g := seedGroup(t, s, 10)
	user := uuid.New()

	award := func() error {
		return s.Achievements().Create(ctx, &models.MemberAchievement{
			UserID:  user,
			GroupID: g.ID,
			Type:    "training_graduate",
			Title:   "Training Graduate",
		})
	}
	require.NoError(t, award())
	assert.ErrorIs(t, award(), repository.ErrDuplicate)

	list, err := s.Achievements().ListForMember(ctx, g.ID, user)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestActivities_TrainingModulesAreDistinct(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	user := uuid.New()
	now := time.Now()

	require.NoError(t, s.Activities().RecordTrainingModule(ctx, user, "m1", now))
	require.NoError(t, s.Activities().RecordTrainingModule(ctx, user, "m1", now))
	require.NoError(t, s.Activities().RecordTrainingModule(ctx, user, "m2", now))

	n, err := s.Activities().CountTrainingModules(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestActivities_ListSinceAndPrune(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	user := uuid.New()

	for _, d := range []string{"2024-03-01", "2024-03-08", "2024-03-10"} {
		require.NoError(t, s.Activities().Create(ctx, &models.UserActivity{UserID: user, Type: models.ActivitySteps, ActivityDate: d}))
	}

	rows, err := s.Activities().ListSince(ctx, user, "2024-03-08")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "2024-03-10", rows[0].ActivityDate)

	n, err := s.Activities().PruneBefore(ctx, user, "2024-03-08")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestNotifications_ExpiryAndRead(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	user, group := uuid.New(), uuid.New()
	past := time.Now().Add(-time.Hour)

	expired := &models.GroupNotification{RecipientID: user, GroupID: group, Type: models.NotifyNewMessage, Title: "a", ExpiresAt: &past}
	kept := &models.GroupNotification{RecipientID: user, GroupID: group, Type: models.NotifyGroupDeleted, Title: "b", ExpiresAt: &past, Persistent: true}
	fresh := &models.GroupNotification{RecipientID: user, GroupID: group, Type: models.NotifyMemberJoined, Title: "c"}
	for _, n := range []*models.GroupNotification{expired, kept, fresh} {
		require.NoError(t, s.Notifications().Create(ctx, n))
	}

	unread, err := s.Notifications().CountUnread(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, int64(3), unread)

	require.NoError(t, s.Notifications().MarkRead(ctx, user, fresh.ID))
	assert.ErrorIs(t, s.Notifications().MarkRead(ctx, uuid.New(), fresh.ID), repository.ErrNotFound)

	removed, err := s.Notifications().DeleteExpired(ctx, time.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	list, err := s.Notifications().ListForRecipient(ctx, user, repository.NotificationFilter{UnreadOnly: true})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, kept.ID, list[0].ID)
}

func TestPreferences_Upsert(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	user, group := uuid.New(), uuid.New()

	_, err := s.Preferences().Get(ctx, user, group)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	prefs := models.DefaultNotificationPreferences(user, group)
	require.NoError(t, s.Preferences().Upsert(ctx, prefs))

	prefs.SetEnabledTypes([]models.NotificationType{models.NotifyMemberJoined})
	prefs.QuietHoursEnabled = true
	require.NoError(t, s.Preferences().Upsert(ctx, prefs))

	got, err := s.Preferences().Get(ctx, user, group)
	require.NoError(t, err)
	assert.True(t, got.QuietHoursEnabled)
	assert.Equal(t, []models.NotificationType{models.NotifyMemberJoined}, got.Types())
}

func TestMembers_UpdateStatsKeepsRole(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	g := seedGroup(t, s, 10)
	user := uuid.New()
	require.NoError(t, s.Members().Create(ctx, &models.GroupMember{GroupID: g.ID, UserID: user, Role: models.RoleMember}))

	var stale *models.GroupMember
	err := s.Transaction(ctx, func(tx repository.Store) error {
		var err error
		stale, err = tx.Members().GetForUpdate(ctx, g.ID, user)
		return err
	})
	require.NoError(t, err)

	// a concurrent ownership transfer lands between the read and the write
	require.NoError(t, s.Members().SetRole(ctx, g.ID, user, models.RoleSponsor))

	stale.Stats.TotalSteps = 4200
	stale.Stats.LastActivityDate = "2024-03-10"
	require.NoError(t, s.Members().UpdateStats(ctx, g.ID, user, stale.Stats, time.Now()))

	got, err := s.Members().Get(ctx, g.ID, user)
	require.NoError(t, err)
	assert.True(t, got.IsSponsor())
	assert.Equal(t, int64(4200), got.Stats.TotalSteps)
	assert.Equal(t, "2024-03-10", got.Stats.LastActivityDate)

	assert.ErrorIs(t, s.Members().UpdateStats(ctx, g.ID, uuid.New(), stale.Stats, time.Now()), repository.ErrNotFound)
}

func TestInvitations_AcceptPendingAndStatus(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	g := seedGroup(t, s, 10)
	user := uuid.New()

	byID := &models.GroupInvitation{GroupID: g.ID, InviterID: g.SponsorID, InviteeID: &user, InviteCode: g.InviteCode, Status: models.InvitationPending}
	byEmail := &models.GroupInvitation{GroupID: g.ID, InviterID: g.SponsorID, InviteeEmail: "Uma@Example.com", InviteCode: g.InviteCode, Status: models.InvitationPending}
	other := &models.GroupInvitation{GroupID: g.ID, InviterID: g.SponsorID, InviteeEmail: "vic@example.com", InviteCode: g.InviteCode, Status: models.InvitationPending}
	for _, inv := range []*models.GroupInvitation{byID, byEmail, other} {
		require.NoError(t, s.Invitations().Create(ctx, inv))
	}

	n, err := s.Invitations().AcceptPending(ctx, g.ID, user, "uma@example.com")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	got, err := s.Invitations().Get(ctx, byEmail.ID)
	require.NoError(t, err)
	assert.Equal(t, models.InvitationAccepted, got.Status)

	require.NoError(t, s.Invitations().SetStatus(ctx, other.ID, models.InvitationRevoked))
	got, err = s.Invitations().Get(ctx, other.ID)
	require.NoError(t, err)
	assert.Equal(t, models.InvitationRevoked, got.Status)

	// accepted and revoked invitations are not reopened
	n, err = s.Invitations().AcceptPending(ctx, g.ID, user, "vic@example.com")
	require.NoError(t, err)
	assert.Zero(t, n)

	_, err = s.Invitations().Get(ctx, uuid.New())
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.ErrorIs(t, s.Invitations().SetStatus(ctx, uuid.New(), models.InvitationRevoked), repository.ErrNotFound)
}
