package services

import (
	"fmt"
	"testing"
	"time"

	"github.com/arnold/wellness-api/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (f *fixture) logActivity(t *testing.T, g *models.Group, userID uuid.UUID, typ models.ActivityType, value float64, meta models.ActivityMetadata) *LogResult {
	t.Helper()
	res, err := f.p.Aggregator.LogMemberActivity(f.ctx, g.ID, userID, typ, value, "", meta)
	require.NoError(t, err)
	return res
}

func (f *fixture) earned(t *testing.T, userID, groupID uuid.UUID) map[models.AchievementType]bool {
	t.Helper()
	rows, err := f.p.Achievements.GetUserAchievements(f.ctx, userID, &groupID)
	require.NoError(t, err)
	out := make(map[models.AchievementType]bool, len(rows))
	for _, a := range rows {
		out[a.Type] = true
	}
	return out
}

// feedOf reads the whole feed of a group, past the service's page limit.
func (f *fixture) feedOf(t *testing.T, groupID uuid.UUID, typ models.FeedActivityType) []models.GroupFeedActivity {
	t.Helper()
	all, err := f.store.Feed().ListForGroup(f.ctx, groupID, 0, false)
	require.NoError(t, err)
	var out []models.GroupFeedActivity
	for _, e := range all {
		if e.Type == typ {
			out = append(out, e)
		}
	}
	return out
}

func TestAchievements_TrainingGraduateCountsDistinctModules(t *testing.T) {
	f := newFixture(t)
	g, _ := f.group(t)
	u := f.join(t, g, "Uma")

	repeat := models.TrainingMetadata{ModuleID: "m1", ModuleNumber: 1, TotalModules: 8}
	for i := 0; i < 5; i++ {
		res := f.logActivity(t, g, u, models.ActivityTrainingCompletion, 1, repeat)
		assert.Equal(t, 1, res.Stats.TrainingModules)
	}
	assert.False(t, f.earned(t, u, g.ID)[AchievementTrainingGraduate])

	for i := 2; i <= 4; i++ {
		f.logActivity(t, g, u, models.ActivityTrainingCompletion, 1, models.TrainingMetadata{ModuleID: fmt.Sprintf("m%d", i), ModuleNumber: i, TotalModules: 8})
	}
	assert.False(t, f.earned(t, u, g.ID)[AchievementTrainingGraduate], "four distinct modules")

	res := f.logActivity(t, g, u, models.ActivityTrainingCompletion, 1, models.TrainingMetadata{ModuleID: "m5", ModuleNumber: 5, TotalModules: 8})
	assert.Equal(t, 5, res.Stats.TrainingModules)
	assert.True(t, f.earned(t, u, g.ID)[AchievementTrainingGraduate])
}

func TestAchievements_FoodLoggingStreak(t *testing.T) {
	f := newFixture(t)
	g, _ := f.group(t)
	u := f.join(t, g, "Uma")
	lunch := models.FoodEntryMetadata{MealType: "lunch"}

	for day := 1; day <= FoodStreakMilestone-1; day++ {
		if day > 1 {
			f.clock.Advance(24 * time.Hour)
		}
		f.logActivity(t, g, u, models.ActivityFoodEntry, 1, lunch)
	}
	assert.False(t, f.earned(t, u, g.ID)[AchievementFoodLoggingStreak], "13 days")
	assert.Empty(t, f.feedOf(t, g.ID, models.FeedFoodStreak))

	f.clock.Advance(24 * time.Hour)
	f.logActivity(t, g, u, models.ActivityFoodEntry, 1, lunch)
	assert.True(t, f.earned(t, u, g.ID)[AchievementFoodLoggingStreak])

	streaks := f.feedOf(t, g.ID, models.FeedFoodStreak)
	require.Len(t, streaks, 1)
	assert.True(t, streaks[0].IsHighlight)
	assert.Equal(t, u, streaks[0].UserID)
	assert.Contains(t, streaks[0].Title, "14 day")

	// a second meal the same day is an ordinary entry
	f.logActivity(t, g, u, models.ActivityFoodEntry, 1, models.FoodEntryMetadata{MealType: "dinner"})
	assert.Len(t, f.feedOf(t, g.ID, models.FeedFoodStreak), 1)
}

func TestAchievements_StepGoalStreak(t *testing.T) {
	f := newFixture(t)
	g, _ := f.group(t)
	require.Equal(t, 8000, g.StepGoal())
	onGoal := f.join(t, g, "Uma")
	short := f.join(t, g, "Vic")

	for day := 1; day <= 7; day++ {
		if day > 1 {
			f.clock.Advance(24 * time.Hour)
		}
		// split across two logs; the goal counts the day's total
		f.logActivity(t, g, onGoal, models.ActivitySteps, 5000, nil)
		f.logActivity(t, g, onGoal, models.ActivitySteps, 3000, nil)
		f.logActivity(t, g, short, models.ActivitySteps, 7999, nil)

		if day == 6 {
			assert.False(t, f.earned(t, onGoal, g.ID)[AchievementStepGoalStreak], "six days")
		}
	}

	assert.True(t, f.earned(t, onGoal, g.ID)[AchievementStepGoalStreak])
	assert.False(t, f.earned(t, short, g.ID)[AchievementStepGoalStreak], "one step short every day")
}

func TestAchievements_FirstWeekWarrior(t *testing.T) {
	f := newFixture(t)
	g, _ := f.group(t)
	daily := f.join(t, g, "Uma")
	patchy := f.join(t, g, "Vic")

	for day := 0; day <= 7; day++ {
		if day > 0 {
			f.clock.Advance(24 * time.Hour)
		}
		f.logActivity(t, g, daily, models.ActivityFoodEntry, 1, nil)
		if day <= 4 || day == 7 {
			f.logActivity(t, g, patchy, models.ActivityFoodEntry, 1, nil)
		}
		if day == 6 {
			assert.False(t, f.earned(t, daily, g.ID)[AchievementFirstWeekWarrior], "seven active days but only six since joining")
		}
	}

	assert.True(t, f.earned(t, daily, g.ID)[AchievementFirstWeekWarrior])
	assert.False(t, f.earned(t, patchy, g.ID)[AchievementFirstWeekWarrior], "six active days")
}

func TestAchievements_SocialButterfly(t *testing.T) {
	f := newFixture(t)
	g, _ := f.group(t)
	chatty := f.join(t, g, "Uma")

	for i := 0; i < 10; i++ {
		f.logActivity(t, g, chatty, models.ActivityGroupInteraction, 1, nil)
	}
	assert.False(t, f.earned(t, chatty, g.ID)[AchievementSocialButterfly], "two member group")

	late := f.join(t, g, "Vic")
	for i := 0; i < 9; i++ {
		f.logActivity(t, g, late, models.ActivityGroupInteraction, 1, nil)
	}
	assert.False(t, f.earned(t, late, g.ID)[AchievementSocialButterfly], "nine interactions")

	result, err := f.p.Achievements.CheckUserAchievements(f.ctx, chatty, g.ID)
	require.NoError(t, err)
	require.Len(t, result.Awarded, 1)
	assert.Equal(t, AchievementSocialButterfly, result.Awarded[0].Type)

	res := f.logActivity(t, g, late, models.ActivityGroupInteraction, 1, nil)
	assert.Equal(t, 10, res.Stats.Interactions)
	assert.True(t, f.earned(t, late, g.ID)[AchievementSocialButterfly], "ties with the top member")

	quiet := f.join(t, g, "Wes")
	for i := 0; i < 10; i++ {
		f.logActivity(t, g, chatty, models.ActivityGroupInteraction, 1, nil)
		f.logActivity(t, g, quiet, models.ActivityGroupInteraction, 1, nil)
	}
	assert.False(t, f.earned(t, quiet, g.ID)[AchievementSocialButterfly], "another member has more")
}

func TestAchievements_ConsistencyChampion(t *testing.T) {
	f := newFixture(t)
	g, _ := f.group(t)
	every := f.join(t, g, "Uma")
	noChat := f.join(t, g, "Vic")

	for day := 1; day <= 30; day++ {
		if day > 1 {
			f.clock.Advance(24 * time.Hour)
		}
		for _, u := range []uuid.UUID{every, noChat} {
			f.logActivity(t, g, u, models.ActivitySteps, 1000, nil)
			f.logActivity(t, g, u, models.ActivityFoodEntry, 1, nil)
			f.logActivity(t, g, u, models.ActivityTrainingCompletion, 1, models.TrainingMetadata{ModuleID: fmt.Sprintf("day-%d", day)})
		}
		f.logActivity(t, g, every, models.ActivityGroupInteraction, 1, nil)

		if day == 29 {
			assert.False(t, f.earned(t, every, g.ID)[AchievementConsistencyChampion], "29 days")
		}
	}

	assert.True(t, f.earned(t, every, g.ID)[AchievementConsistencyChampion])
	assert.False(t, f.earned(t, noChat, g.ID)[AchievementConsistencyChampion], "three activity types a day")
}

func TestAchievements_MilestoneMaster(t *testing.T) {
	f := newFixture(t)
	g, _ := f.group(t)
	u := f.join(t, g, "Uma")
	slow := f.join(t, g, "Vic")
	final := models.TrainingMetadata{ModuleID: "m8", ModuleNumber: 8, TotalModules: 8}

	// steps milestone plus the daily goal: two kinds
	f.logActivity(t, g, u, models.ActivitySteps, StepsMilestone, nil)
	f.logActivity(t, g, slow, models.ActivitySteps, StepsMilestone, nil)
	assert.False(t, f.earned(t, u, g.ID)[AchievementMilestoneMaster], "two milestone kinds")

	f.logActivity(t, g, u, models.ActivityTrainingCompletion, 1, final)
	assert.True(t, f.earned(t, u, g.ID)[AchievementMilestoneMaster])

	completed := f.feedOf(t, g.ID, models.FeedTrainingCompleted)
	require.Len(t, completed, 1)
	assert.True(t, completed[0].IsHighlight)
	assert.Equal(t, u, completed[0].UserID)
	assert.Contains(t, completed[0].Title, "completed the training program")

	// the earlier milestones have left the 7 day window
	f.clock.Advance(8 * 24 * time.Hour)
	f.logActivity(t, g, slow, models.ActivityTrainingCompletion, 1, final)
	assert.False(t, f.earned(t, slow, g.ID)[AchievementMilestoneMaster], "milestones older than a week")
}

func TestTrainingProgress_IsNotAHighlight(t *testing.T) {
	f := newFixture(t)
	g, _ := f.group(t)
	u := f.join(t, g, "Uma")

	f.logActivity(t, g, u, models.ActivityTrainingCompletion, 1, models.TrainingMetadata{ModuleID: "m7", ModuleNumber: 7, TotalModules: 8})
	progress := f.feedOf(t, g.ID, models.FeedTrainingProgress)
	require.Len(t, progress, 1)
	assert.False(t, progress[0].IsHighlight)
	assert.Empty(t, f.feedOf(t, g.ID, models.FeedTrainingCompleted))
}
