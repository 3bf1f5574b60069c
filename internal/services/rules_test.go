package services

import (
	"testing"
	"time"

	"github.com/arnold/wellness-api/internal/events"
	"github.com/arnold/wellness-api/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthScore(t *testing.T) {
	assert.Equal(t, 0, HealthScore(0, 0, 0, 0, true))

	// 0.4*0.5 + 0.2*1 + 0.2*0.2 = 0.44, plus the sponsor bonus
	assert.Equal(t, 64, HealthScore(10, 5, 20, 2, true))
	assert.Equal(t, 44, HealthScore(10, 5, 20, 2, false))
	assert.Equal(t, 100, HealthScore(4, 4, 50, 4, true))
}

func TestHealthBandFor(t *testing.T) {
	assert.Equal(t, HealthHealthy, HealthBandFor(70))
	assert.Equal(t, HealthModerate, HealthBandFor(69))
	assert.Equal(t, HealthModerate, HealthBandFor(40))
	assert.Equal(t, HealthAtRisk, HealthBandFor(39))
}

func TestInQuietHours(t *testing.T) {
	prefs := &models.NotificationPreferences{QuietHoursEnabled: true, QuietStart: "22:00", QuietEnd: "07:00", Timezone: "UTC"}
	at := func(h, m int) time.Time { return time.Date(2024, 3, 10, h, m, 0, 0, time.UTC) }

	assert.True(t, InQuietHours(prefs, at(23, 30)))
	assert.True(t, InQuietHours(prefs, at(2, 0)))
	assert.True(t, InQuietHours(prefs, at(22, 0)))
	assert.False(t, InQuietHours(prefs, at(7, 0)))
	assert.False(t, InQuietHours(prefs, at(12, 0)))

	day := &models.NotificationPreferences{QuietHoursEnabled: true, QuietStart: "09:00", QuietEnd: "17:00"}
	assert.True(t, InQuietHours(day, at(9, 0)))
	assert.False(t, InQuietHours(day, at(17, 0)))

	prefs.QuietHoursEnabled = false
	assert.False(t, InQuietHours(prefs, at(23, 30)))
	assert.False(t, InQuietHours(nil, at(23, 30)))

	same := &models.NotificationPreferences{QuietHoursEnabled: true, QuietStart: "08:00", QuietEnd: "08:00"}
	assert.False(t, InQuietHours(same, at(8, 0)))
}

func TestParseClock(t *testing.T) {
	m, err := parseClock("07:30")
	require.NoError(t, err)
	assert.Equal(t, 450, m)

	for _, bad := range []string{"7:30", "24:00", "12:60", "noon", ""} {
		_, err := parseClock(bad)
		assert.ErrorIs(t, err, ErrInvalidInput, bad)
	}
}

func TestFeedEntryForActivity(t *testing.T) {
	g, u := uuid.New(), uuid.New()

	e := FeedEntryForActivity(g, u, events.ActivityPayload{DisplayName: "Ana", ActivityType: models.ActivitySteps, Value: 10000})
	require.NotNil(t, e)
	assert.Equal(t, models.FeedStepsMilestone, e.Type)
	assert.True(t, e.IsHighlight)

	e = FeedEntryForActivity(g, u, events.ActivityPayload{ActivityType: models.ActivitySteps, Value: 9999})
	require.NotNil(t, e)
	assert.Equal(t, models.FeedStepsLogged, e.Type)
	assert.False(t, e.IsHighlight)
	assert.Contains(t, e.Title, "A member")

	e = FeedEntryForActivity(g, u, events.ActivityPayload{ActivityType: models.ActivityFoodEntry, FoodStreak: 14, FirstOfDay: true})
	assert.Equal(t, models.FeedFoodStreak, e.Type)

	e = FeedEntryForActivity(g, u, events.ActivityPayload{ActivityType: models.ActivityFoodEntry, FoodStreak: 14})
	assert.Equal(t, models.FeedFoodLogged, e.Type, "only the first entry of the day announces the streak")

	e = FeedEntryForActivity(g, u, events.ActivityPayload{
		ActivityType: models.ActivityTrainingCompletion,
		Metadata:     models.TrainingMetadata{ModuleID: "m8", ModuleNumber: 8, TotalModules: 8},
	})
	assert.Equal(t, models.FeedTrainingCompleted, e.Type)

	e = FeedEntryForActivity(g, u, events.ActivityPayload{
		ActivityType: models.ActivityTrainingCompletion,
		Metadata:     models.TrainingMetadata{ModuleID: "m3", ModuleNumber: 3, TotalModules: 8},
	})
	assert.Equal(t, models.FeedTrainingProgress, e.Type)
	assert.Equal(t, "Module 3 of 8", e.Description)

	assert.Nil(t, FeedEntryForActivity(g, u, events.ActivityPayload{ActivityType: models.ActivityGroupInteraction}))
}

func TestGoalEntryForActivity(t *testing.T) {
	g, u := uuid.New(), uuid.New()
	steps := func(value, today float64) events.ActivityPayload {
		return events.ActivityPayload{DisplayName: "Ana", ActivityType: models.ActivitySteps, Value: value, StepsToday: today, StepGoal: 8000}
	}

	e := GoalEntryForActivity(g, u, steps(3000, 8500))
	require.NotNil(t, e)
	assert.Equal(t, models.FeedMilestoneReached, e.Type)
	assert.True(t, e.IsHighlight)
	assert.Equal(t, "Ana reached the daily step goal!", e.Title)
	assert.Equal(t, "8500 of 8000 steps today", e.Description)

	require.NotNil(t, GoalEntryForActivity(g, u, steps(8000, 8000)), "exactly on the goal")
	assert.Nil(t, GoalEntryForActivity(g, u, steps(500, 7999)), "below the goal")
	assert.Nil(t, GoalEntryForActivity(g, u, steps(1000, 9500)), "already over the goal")

	noGoal := steps(9000, 9000)
	noGoal.StepGoal = 0
	assert.Nil(t, GoalEntryForActivity(g, u, noGoal))
	assert.Nil(t, GoalEntryForActivity(g, u, events.ActivityPayload{ActivityType: models.ActivityFoodEntry, StepsToday: 9000, StepGoal: 8000}))
}

func TestInviteCodes(t *testing.T) {
	code, err := GenerateInviteCode()
	require.NoError(t, err)
	assert.Len(t, code, InviteCodeLength)
	assert.Equal(t, code, NormalizeInviteCode(code))
	assert.True(t, validInviteCode(code))

	assert.Equal(t, "ABC123", NormalizeInviteCode(" abc-123 "))
	assert.False(t, validInviteCode("ABC12"))
	assert.False(t, validInviteCode("ABC12!"))
}

func TestCreateGroup_InviteCodeCollisionsExhaust(t *testing.T) {
	f := newFixture(t)
	_, _ = f.group(t)
	existing, err := f.store.Groups().List(f.ctx)
	require.NoError(t, err)
	require.Len(t, existing, 1)

	taken := existing[0].InviteCode
	f.p.Groups.NewInviteCode = func() (string, error) { return taken, nil }

	sponsor := f.user(t, "Sue", models.UserRoleSuperAdmin)
	_, err = f.p.Groups.CreateGroup(f.ctx, models.CreateGroupRequest{Name: "Second"}, sponsor)
	assert.ErrorIs(t, err, ErrInviteCodeExhausted)
}
