package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/arnold/wellness-api/internal/events"
	"github.com/arnold/wellness-api/internal/metrics"
	"github.com/arnold/wellness-api/internal/models"
	"github.com/arnold/wellness-api/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	AchievementFirstWeekWarrior    models.AchievementType = "first_week_warrior"
	AchievementStepGoalStreak      models.AchievementType = "step_goal_streak"
	AchievementFoodLoggingStreak   models.AchievementType = "food_logging_streak"
	AchievementTrainingGraduate    models.AchievementType = "training_graduate"
	AchievementSocialButterfly     models.AchievementType = "social_butterfly"
	AchievementConsistencyChampion models.AchievementType = "consistency_champion"
	AchievementMilestoneMaster     models.AchievementType = "milestone_master"
)

// AchievementDefinition is one catalog entry: display data plus the rule
// that decides whether a member has earned it.
type AchievementDefinition struct {
	Type        models.AchievementType           `json:"type"`
	Title       string                           `json:"title"`
	Description string                           `json:"description"`
	Icon        string                           `json:"icon"`
	Category    models.AchievementCategory       `json:"category"`
	Difficulty  models.AchievementDifficulty     `json:"difficulty"`
	Earned      func(ec *EvaluationContext) bool `json:"-"`
}

var catalog = []AchievementDefinition{
	{
		Type:        AchievementFirstWeekWarrior,
		Title:       "First Week Warrior",
		Description: "Stayed active for 7 days after joining the group",
		Icon:        "🗓️",
		Category:    models.CategoryConsistency,
		Difficulty:  models.DifficultyEasy,
		Earned: func(ec *EvaluationContext) bool {
			joined := models.DateKey(ec.Member.JoinedAt)
			if dayDiff(joined, ec.Today) < 7 {
				return false
			}
			active := 0
			for d := range ec.ActiveDates() {
				if d >= joined {
					active++
				}
			}
			return active >= 7
		},
	},
	{
		Type:        AchievementStepGoalStreak,
		Title:       "Step Goal Streak",
		Description: "Met the group's daily step goal 7 days in a row",
		Icon:        "👟",
		Category:    models.CategoryActivity,
		Difficulty:  models.DifficultyMedium,
		Earned: func(ec *EvaluationContext) bool {
			goal := float64(ec.Group.StepGoal())
			var dates []string
			for d, steps := range ec.StepsByDate() {
				if steps >= goal {
					dates = append(dates, d)
				}
			}
			return Streaks(dates, ec.Today).Longest >= 7
		},
	},
	{
		Type:        AchievementFoodLoggingStreak,
		Title:       "Food Journal Pro",
		Description: "Logged food 14 days in a row",
		Icon:        "🥗",
		Category:    models.CategoryConsistency,
		Difficulty:  models.DifficultyHard,
		Earned: func(ec *EvaluationContext) bool {
			return Streaks(keys(ec.DatesWith(models.ActivityFoodEntry)), ec.Today).Longest >= 14
		},
	},
	{
		Type:        AchievementTrainingGraduate,
		Title:       "Training Graduate",
		Description: "Completed 5 training modules",
		Icon:        "🎓",
		Category:    models.CategoryMilestone,
		Difficulty:  models.DifficultyMedium,
		Earned: func(ec *EvaluationContext) bool {
			return ec.TrainingModules >= 5
		},
	},
	{
		Type:        AchievementSocialButterfly,
		Title:       "Social Butterfly",
		Description: "Most group interactions, with at least 10, in a group of 3 or more",
		Icon:        "🦋",
		Category:    models.CategorySocial,
		Difficulty:  models.DifficultyMedium,
		Earned: func(ec *EvaluationContext) bool {
			if len(ec.Members) < 3 || ec.Member.Stats.Interactions < 10 {
				return false
			}
			for _, m := range ec.Members {
				if m.UserID != ec.Member.UserID && m.Stats.Interactions > ec.Member.Stats.Interactions {
					return false
				}
			}
			return true
		},
	},
	{
		Type:        AchievementConsistencyChampion,
		Title:       "Consistency Champion",
		Description: "Logged every activity type every day for 30 days",
		Icon:        "🏆",
		Category:    models.CategoryConsistency,
		Difficulty:  models.DifficultyHard,
		Earned: func(ec *EvaluationContext) bool {
			var complete []string
			for d, types := range ec.TypesByDate() {
				if len(types) == len(models.AllActivityTypes) {
					complete = append(complete, d)
				}
			}
			return Streaks(complete, ec.Today).Longest >= 30
		},
	},
	{
		Type:        AchievementMilestoneMaster,
		Title:       "Milestone Master",
		Description: "Reached 3 different milestones within a week",
		Icon:        "⭐",
		Category:    models.CategoryMilestone,
		Difficulty:  models.DifficultyHard,
		Earned: func(ec *EvaluationContext) bool {
			distinct := make(map[models.FeedActivityType]bool)
			for _, f := range ec.RecentFeed {
				if f.Type.IsMilestoneType() {
					distinct[f.Type] = true
				}
			}
			return len(distinct) >= 3
		},
	},
}

// Catalog returns the achievement definitions in award order.
func Catalog() []AchievementDefinition {
	out := make([]AchievementDefinition, len(catalog))
	copy(out, catalog)
	return out
}

// EvaluationContext is loaded once per check and shared by every rule.
type EvaluationContext struct {
	Today           string
	Group           *models.Group
	Member          *models.GroupMember
	Members         []models.GroupMember
	Entries         []models.MemberActivityEntry
	RecentFeed      []models.GroupFeedActivity
	TrainingModules int
}

func (ec *EvaluationContext) ActiveDates() map[string]bool {
	out := make(map[string]bool)
	for _, e := range ec.Entries {
		out[e.ActivityDate] = true
	}
	return out
}

func (ec *EvaluationContext) DatesWith(t models.ActivityType) map[string]bool {
	return datesOfType(ec.Entries, t)
}

func (ec *EvaluationContext) StepsByDate() map[string]float64 {
	out := make(map[string]float64)
	for _, e := range ec.Entries {
		if e.Type == models.ActivitySteps {
			out[e.ActivityDate] += stepCount(e)
		}
	}
	return out
}

func (ec *EvaluationContext) TypesByDate() map[string]map[models.ActivityType]bool {
	out := make(map[string]map[models.ActivityType]bool)
	for _, e := range ec.Entries {
		if out[e.ActivityDate] == nil {
			out[e.ActivityDate] = make(map[models.ActivityType]bool)
		}
		out[e.ActivityDate][e.Type] = true
	}
	return out
}

func keys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

type CheckResult struct {
	Awarded       []models.MemberAchievement `json:"awarded"`
	AlreadyEarned []models.AchievementType   `json:"alreadyEarned"`
	SideEffects   SideEffectReport           `json:"sideEffects"`
}

type AchievementEngine struct {
	store      repository.Store
	dispatcher *Dispatcher
	log        *zap.Logger
	clock      Clock
	metrics    *metrics.Metrics
}

func NewAchievementEngine(store repository.Store, dispatcher *Dispatcher, log *zap.Logger, clock Clock, m *metrics.Metrics) *AchievementEngine {
	if log == nil {
		log = zap.NewNop()
	}
	return &AchievementEngine{store: store, dispatcher: dispatcher, log: log, clock: clock, metrics: m}
}

func (e *AchievementEngine) loadContext(ctx context.Context, userID, groupID uuid.UUID) (*EvaluationContext, error) {
	group, err := e.store.Groups().Get(ctx, groupID)
	if err != nil {
		return nil, notFound(err)
	}
	member, err := e.store.Members().Get(ctx, groupID, userID)
	if err != nil {
		return nil, notMember(err)
	}
	members, err := e.store.Members().ListByGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	entries, err := e.store.MemberActivities().ListForMember(ctx, groupID, userID, e.clock.daysAgo(RetentionDays))
	if err != nil {
		return nil, err
	}
	feed, err := e.store.Feed().ListForMemberSince(ctx, groupID, userID, e.clock.now().AddDate(0, 0, -7))
	if err != nil {
		return nil, err
	}

	// distinct modules; repeated completions of one module count once
	modules, err := e.store.Activities().CountTrainingModules(ctx, userID)
	if err != nil {
		e.log.Warn("count training modules", zap.String("userId", userID.String()), zap.Error(err))
		modules = member.Stats.TrainingModules
	}

	return &EvaluationContext{
		Today:           e.clock.today(),
		Group:           group,
		Member:          member,
		Members:         members,
		Entries:         entries,
		RecentFeed:      feed,
		TrainingModules: modules,
	}, nil
}

// CheckUserAchievements evaluates every rule the member has not earned yet
// and awards the ones that pass. Each type is awarded at most once per
// (user, group).
func (e *AchievementEngine) CheckUserAchievements(ctx context.Context, userID, groupID uuid.UUID) (*CheckResult, error) {
	ec, err := e.loadContext(ctx, userID, groupID)
	if err != nil {
		return nil, err
	}

	earned, err := e.store.Achievements().ListForMember(ctx, groupID, userID)
	if err != nil {
		return nil, fmt.Errorf("load earned achievements: %w", err)
	}
	have := make(map[models.AchievementType]bool, len(earned))
	result := &CheckResult{Awarded: []models.MemberAchievement{}, AlreadyEarned: []models.AchievementType{}}
	for _, a := range earned {
		have[a.Type] = true
		result.AlreadyEarned = append(result.AlreadyEarned, a.Type)
	}

	now := e.clock.now()
	for _, def := range catalog {
		if have[def.Type] || !def.Earned(ec) {
			continue
		}
		award := models.MemberAchievement{
			UserID:         userID,
			GroupID:        groupID,
			Type:           def.Type,
			Title:          def.Title,
			Description:    def.Description,
			Icon:           def.Icon,
			Category:       def.Category,
			Difficulty:     def.Difficulty,
			EarnedAt:       now,
			VisibleToGroup: true,
		}
		if err := e.store.Achievements().Create(ctx, &award); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				result.AlreadyEarned = append(result.AlreadyEarned, def.Type)
				continue
			}
			return result, fmt.Errorf("award %s: %w", def.Type, err)
		}
		e.metrics.Award(string(def.Type))
		e.log.Info("achievement awarded",
			zap.String("userId", userID.String()),
			zap.String("groupId", groupID.String()),
			zap.String("type", string(def.Type)),
		)
		result.Awarded = append(result.Awarded, award)
	}

	name := displayName(ctx, e.store, userID)
	for _, a := range result.Awarded {
		result.SideEffects.Merge(e.dispatcher.Dispatch(ctx, events.Event{
			Type:       events.AchievementEarned,
			GroupID:    groupID,
			UserID:     userID,
			Payload:    events.AchievementPayload{DisplayName: name, Achievement: a},
			OccurredAt: now,
		}))
	}
	return result, nil
}

// GetUserAchievements lists the user's achievements, optionally limited to
// one group.
func (e *AchievementEngine) GetUserAchievements(ctx context.Context, userID uuid.UUID, groupID *uuid.UUID) ([]models.MemberAchievement, error) {
	if groupID != nil {
		return e.store.Achievements().ListForMember(ctx, *groupID, userID)
	}
	return e.store.Achievements().ListForUser(ctx, userID)
}

// GetGroupLeaderboard ranks members by achievement count, earliest latest
// award first on ties.
func (e *AchievementEngine) GetGroupLeaderboard(ctx context.Context, groupID uuid.UUID) ([]models.LeaderboardEntry, error) {
	all, err := e.store.Achievements().ListForGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}

	byUser := make(map[uuid.UUID]*models.LeaderboardEntry)
	for _, a := range all {
		entry, ok := byUser[a.UserID]
		if !ok {
			entry = &models.LeaderboardEntry{
				UserID:     a.UserID,
				ByCategory: make(map[models.AchievementCategory]int),
			}
			byUser[a.UserID] = entry
		}
		entry.AchievementCount++
		entry.ByCategory[a.Category]++
		if a.EarnedAt.After(entry.LatestEarnedAt) {
			entry.LatestEarnedAt = a.EarnedAt
		}
	}

	out := make([]models.LeaderboardEntry, 0, len(byUser))
	for userID, entry := range byUser {
		entry.DisplayName = displayName(ctx, e.store, userID)
		out = append(out, *entry)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].AchievementCount != out[j].AchievementCount {
			return out[i].AchievementCount > out[j].AchievementCount
		}
		if !out[i].LatestEarnedAt.Equal(out[j].LatestEarnedAt) {
			return out[i].LatestEarnedAt.Before(out[j].LatestEarnedAt)
		}
		return out[i].UserID.String() < out[j].UserID.String()
	})
	return out, nil
}

// achievementSummary counts awards by category since a cutoff.
func achievementSummary(all []models.MemberAchievement, since time.Time) (int, map[models.AchievementCategory]int) {
	byCategory := make(map[models.AchievementCategory]int)
	total := 0
	for _, a := range all {
		if a.EarnedAt.Before(since) {
			continue
		}
		total++
		byCategory[a.Category]++
	}
	return total, byCategory
}
