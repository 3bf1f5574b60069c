package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/arnold/wellness-api/internal/events"
	"github.com/arnold/wellness-api/internal/models"
	"github.com/arnold/wellness-api/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

const (
	StepsMilestone      = 10000
	FoodStreakMilestone = 14

	defaultFeedLimit = 50
	maxFeedLimit     = 100
)

// Broadcaster pushes new feed entries to live subscribers of a group.
type Broadcaster interface {
	BroadcastFeed(groupID uuid.UUID, entry models.GroupFeedActivity)
}

type FeedService struct {
	store       repository.Store
	broadcaster Broadcaster
	log         *zap.Logger
	clock       Clock
}

func NewFeedService(store repository.Store, broadcaster Broadcaster, log *zap.Logger, clock Clock) *FeedService {
	if log == nil {
		log = zap.NewNop()
	}
	return &FeedService{store: store, broadcaster: broadcaster, log: log, clock: clock}
}

func isHighlightType(t models.FeedActivityType) bool {
	switch t {
	case models.FeedMemberJoined, models.FeedAchievementEarned:
		return true
	}
	return t.IsMilestoneType()
}

// Record appends entry to its group's feed and drops entries older than the
// retention window.
func (f *FeedService) Record(ctx context.Context, entry *models.GroupFeedActivity) error {
	if isHighlightType(entry.Type) {
		entry.IsHighlight = true
	}
	now := f.clock.now()
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = now
	}
	if err := f.store.Feed().Create(ctx, entry); err != nil {
		return fmt.Errorf("record feed entry: %w", err)
	}

	if _, err := f.store.Feed().PruneBefore(ctx, entry.GroupID, now.AddDate(0, 0, -RetentionDays)); err != nil {
		f.log.Warn("prune feed", zap.String("groupId", entry.GroupID.String()), zap.Error(err))
	}
	if f.broadcaster != nil {
		f.broadcaster.BroadcastFeed(entry.GroupID, *entry)
	}
	return nil
}

// RecordActivity turns a logged activity into feed entries and returns the
// ones recorded. Interactions are not shown in the feed.
func (f *FeedService) RecordActivity(ctx context.Context, groupID, userID uuid.UUID, p events.ActivityPayload) ([]models.GroupFeedActivity, error) {
	var recorded []models.GroupFeedActivity
	for _, entry := range []*models.GroupFeedActivity{
		FeedEntryForActivity(groupID, userID, p),
		GoalEntryForActivity(groupID, userID, p),
	} {
		if entry == nil {
			continue
		}
		if err := f.Record(ctx, entry); err != nil {
			return recorded, err
		}
		recorded = append(recorded, *entry)
	}
	return recorded, nil
}

// GoalEntryForActivity returns a milestone entry when a steps log carries
// the member across the group's daily step goal, and nil otherwise.
func GoalEntryForActivity(groupID, userID uuid.UUID, p events.ActivityPayload) *models.GroupFeedActivity {
	if p.ActivityType != models.ActivitySteps || p.StepGoal <= 0 {
		return nil
	}
	goal := float64(p.StepGoal)
	if p.StepsToday < goal || p.StepsToday-p.Value >= goal {
		return nil
	}
	name := p.DisplayName
	if name == "" {
		name = "A member"
	}
	entry := &models.GroupFeedActivity{
		GroupID:     groupID,
		UserID:      userID,
		Type:        models.FeedMilestoneReached,
		Title:       name + " reached the daily step goal!",
		Description: fmt.Sprintf("%.0f of %d steps today", p.StepsToday, p.StepGoal),
		IsHighlight: true,
	}
	if raw, err := json.Marshal(map[string]interface{}{"stepsToday": p.StepsToday, "goal": p.StepGoal}); err == nil {
		entry.Metadata = datatypes.JSON(raw)
	}
	return entry
}

// FeedEntryForActivity classifies one activity: 10,000 steps or more is a
// steps milestone, the first food entry of a day on a 14 day streak is a
// food streak, and finishing the last training module is a completion.
func FeedEntryForActivity(groupID, userID uuid.UUID, p events.ActivityPayload) *models.GroupFeedActivity {
	name := p.DisplayName
	if name == "" {
		name = "A member"
	}
	entry := &models.GroupFeedActivity{GroupID: groupID, UserID: userID}
	meta := map[string]interface{}{"value": p.Value}

	switch p.ActivityType {
	case models.ActivitySteps:
		if p.Value >= StepsMilestone {
			entry.Type = models.FeedStepsMilestone
			entry.Title = fmt.Sprintf("%s walked %.0f steps!", name, p.Value)
			entry.Description = "Reached the 10,000 step milestone"
		} else {
			entry.Type = models.FeedStepsLogged
			entry.Title = fmt.Sprintf("%s logged %.0f steps", name, p.Value)
		}
	case models.ActivityFoodEntry:
		meta["streak"] = p.FoodStreak
		if p.FirstOfDay && p.FoodStreak >= FoodStreakMilestone {
			entry.Type = models.FeedFoodStreak
			entry.Title = fmt.Sprintf("%s is on a %d day food logging streak!", name, p.FoodStreak)
		} else {
			entry.Type = models.FeedFoodLogged
			entry.Title = name + " logged a meal"
			if food, ok := p.Metadata.(models.FoodEntryMetadata); ok && food.MealType != "" {
				entry.Description = food.MealType
			}
		}
	case models.ActivityTrainingCompletion:
		entry.Type = models.FeedTrainingProgress
		entry.Title = name + " completed a training module"
		if t, ok := p.Metadata.(models.TrainingMetadata); ok {
			meta["moduleId"] = t.ModuleID
			if t.TotalModules > 0 {
				entry.Description = fmt.Sprintf("Module %d of %d", t.ModuleNumber, t.TotalModules)
			}
			if t.IsFinalModule() {
				entry.Type = models.FeedTrainingCompleted
				entry.Title = name + " completed the training program!"
			}
		}
	default:
		return nil
	}

	if raw, err := json.Marshal(meta); err == nil {
		entry.Metadata = datatypes.JSON(raw)
	}
	entry.IsHighlight = isHighlightType(entry.Type)
	return entry
}

// GetGroupFeed returns the newest entries first. The viewer must be a member.
func (f *FeedService) GetGroupFeed(ctx context.Context, groupID, viewerID uuid.UUID, limit int, highlightsOnly bool) ([]models.GroupFeedActivity, error) {
	if _, err := f.store.Members().Get(ctx, groupID, viewerID); err != nil {
		return nil, notMember(err)
	}
	if limit < 1 {
		limit = defaultFeedLimit
	}
	if limit > maxFeedLimit {
		limit = maxFeedLimit
	}
	entries, err := f.store.Feed().ListForGroup(ctx, groupID, limit, highlightsOnly)
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []models.GroupFeedActivity{}
	}
	return entries, nil
}
