package workers

import (
	"context"
	"testing"
	"time"

	"github.com/arnold/wellness-api/internal/models"
	"github.com/arnold/wellness-api/internal/repository/memstore"
	"github.com/arnold/wellness-api/internal/services"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleaner_RunOnce(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	store := memstore.New()
	p := services.NewPipeline(services.PipelineDeps{Store: store, Clock: clock})

	sponsor := uuid.New()
	require.NoError(t, store.Users().Upsert(ctx, &models.UserProfile{ID: sponsor, Role: models.UserRoleSuperAdmin}))
	g, err := p.Groups.CreateGroup(ctx, models.CreateGroupRequest{Name: "Walkers"}, sponsor)
	require.NoError(t, err)

	old := now.AddDate(0, 0, -(services.RetentionDays + 5))
	require.NoError(t, store.Feed().Create(ctx, &models.GroupFeedActivity{GroupID: g.ID, UserID: sponsor, Type: models.FeedStepsLogged, Title: "old", CreatedAt: old}))
	require.NoError(t, store.Feed().Create(ctx, &models.GroupFeedActivity{GroupID: g.ID, UserID: sponsor, Type: models.FeedStepsLogged, Title: "new", CreatedAt: now}))
	require.NoError(t, store.MemberActivities().Create(ctx, &models.MemberActivityEntry{GroupID: g.ID, UserID: sponsor, Type: models.ActivitySteps, ActivityDate: models.DateKey(old)}))

	expired := now.Add(-time.Hour)
	require.NoError(t, store.Notifications().Create(ctx, &models.GroupNotification{RecipientID: sponsor, GroupID: g.ID, Type: models.NotifyNewMessage, ExpiresAt: &expired}))

	require.NoError(t, store.Groups().SetMemberCount(ctx, g.ID, 4))

	report, err := NewCleaner(store, p, nil, nil, clock).RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), report.ExpiredNotifications)
	assert.Equal(t, int64(1), report.FeedPruned)
	assert.Equal(t, int64(1), report.EntriesPruned)
	assert.Equal(t, 1, report.GroupsReconciled)

	stored, err := store.Groups().Get(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.CurrentMemberCount)
}

func TestNewScheduler_RejectsBadSpec(t *testing.T) {
	p := services.NewPipeline(services.PipelineDeps{Store: memstore.New()})
	cleaner := NewCleaner(memstore.New(), p, nil, nil, nil)

	_, err := NewScheduler(cleaner, "not a schedule", nil)
	assert.Error(t, err)

	s, err := NewScheduler(cleaner, "@every 1h", nil)
	require.NoError(t, err)
	s.Start()
	s.Stop(context.Background())
}
