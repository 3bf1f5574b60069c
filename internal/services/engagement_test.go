package services

import (
	"testing"

	"github.com/arnold/wellness-api/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestEngagementScore_Bounds(t *testing.T) {
	assert.Equal(t, 0, EngagementScore(EngagementWindow{Days: 7}))

	maxed := EngagementWindow{
		Days:                     7,
		ActiveDays:               7,
		StepsLogged:              7 * 20000,
		FoodEntriesLogged:        50,
		TrainingModulesCompleted: 20,
		GroupInteractions:        20,
	}
	assert.Equal(t, 100, EngagementScore(maxed))
}

func TestEngagementScore_Components(t *testing.T) {
	// 3 active days = 18, half the step target = 10, no food, 2 interactions = 4
	w := EngagementWindow{Days: 7, ActiveDays: 3, StepsLogged: 7 * 4000, GroupInteractions: 2}
	assert.Equal(t, 32, EngagementScore(w))
}

func TestEngagementScore_Monotonic(t *testing.T) {
	base := EngagementWindow{Days: 7, ActiveDays: 2, StepsLogged: 10000, FoodEntriesLogged: 3}
	score := EngagementScore(base)

	more := base
	more.ActiveDays++
	assert.GreaterOrEqual(t, EngagementScore(more), score)

	more = base
	more.StepsLogged += 5000
	assert.GreaterOrEqual(t, EngagementScore(more), score)

	more = base
	more.FoodEntriesLogged += 4
	assert.GreaterOrEqual(t, EngagementScore(more), score)

	more = base
	more.GroupInteractions += 3
	assert.GreaterOrEqual(t, EngagementScore(more), score)
}

func TestEngagementLevelFor(t *testing.T) {
	assert.Equal(t, EngagementHigh, EngagementLevelFor(80))
	assert.Equal(t, EngagementMedium, EngagementLevelFor(79))
	assert.Equal(t, EngagementMedium, EngagementLevelFor(60))
	assert.Equal(t, EngagementLow, EngagementLevelFor(30))
	assert.Equal(t, EngagementInactive, EngagementLevelFor(29))
}

func TestTrendFor(t *testing.T) {
	assert.Equal(t, TrendStable, TrendFor(EngagementWindow{}, EngagementWindow{}))
	assert.Equal(t, TrendIncreasing, TrendFor(EngagementWindow{ActiveDays: 1}, EngagementWindow{}))
	assert.Equal(t, TrendIncreasing, TrendFor(EngagementWindow{ActiveDays: 7}, EngagementWindow{ActiveDays: 10}))
	assert.Equal(t, TrendDecreasing, TrendFor(EngagementWindow{ActiveDays: 0}, EngagementWindow{ActiveDays: 10}))
	assert.Equal(t, TrendStable, TrendFor(EngagementWindow{ActiveDays: 7}, EngagementWindow{ActiveDays: 30}))
}

func TestWindowOf_IgnoresEntriesOutsideWindow(t *testing.T) {
	entries := []models.MemberActivityEntry{
		{Type: models.ActivitySteps, Value: 5000, ActivityDate: "2024-03-10"},
		{Type: models.ActivitySteps, Value: 3000, ActivityDate: "2024-03-10"},
		{Type: models.ActivityFoodEntry, ActivityDate: "2024-03-09"},
		{Type: models.ActivityGroupInteraction, ActivityDate: "2024-03-01"},
	}

	w := windowOf(entries, "2024-03-10", 7)
	assert.Equal(t, int64(8000), w.StepsLogged)
	assert.Equal(t, 1, w.FoodEntriesLogged)
	assert.Equal(t, 0, w.GroupInteractions)
	assert.Equal(t, 2, w.ActiveDays)

	e := computeEngagement(uuid.New(), uuid.New(), entries, "2024-03-10")
	assert.Equal(t, 2, e.Streak.Current)
	assert.Equal(t, EngagementScore(e.Last7), e.Score)
}
