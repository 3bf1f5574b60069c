package services

import (
	"context"
	"fmt"

	"github.com/arnold/wellness-api/internal/metrics"
	"github.com/arnold/wellness-api/internal/models"
	"github.com/arnold/wellness-api/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RetentionDays bounds the raw activity log, the member activity log and
// the group feed.
const RetentionDays = 90

type EligibilityWindow struct {
	Met          bool     `json:"met"`
	DaysActive   int      `json:"daysActive"`
	RequiredDays int      `json:"requiredDays"`
	ActiveDates  []string `json:"activeDates"`
	MissingDates []string `json:"missingDates"`
}

type ActivitySummary struct {
	Days          int                         `json:"days"`
	Total         int                         `json:"total"`
	ByType        map[models.ActivityType]int `json:"byType"`
	CurrentStreak int                         `json:"currentStreak"`
	LongestStreak int                         `json:"longestStreak"`
	AveragePerDay float64                     `json:"averagePerDay"`
}

// ActivityTracker owns the per-user raw activity log.
type ActivityTracker struct {
	store   repository.Store
	log     *zap.Logger
	clock   Clock
	metrics *metrics.Metrics
	// members receives activities tracked against a group.
	members *MemberActivityAggregator
}

func NewActivityTracker(store repository.Store, log *zap.Logger, clock Clock, m *metrics.Metrics) *ActivityTracker {
	if log == nil {
		log = zap.NewNop()
	}
	return &ActivityTracker{store: store, log: log, clock: clock, metrics: m}
}

// TrackActivity appends one entry dated today and prunes entries that fell
// out of the retention window. With a group the activity goes through the
// member aggregator, which also updates the member's rollups, the feed and
// achievements.
func (t *ActivityTracker) TrackActivity(ctx context.Context, userID uuid.UUID, activityType models.ActivityType, meta models.ActivityMetadata, groupID *uuid.UUID) (*models.UserActivity, error) {
	if err := models.CheckMetadata(activityType, meta); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if groupID != nil && t.members != nil {
		result, err := t.members.LogMemberActivity(ctx, *groupID, userID, activityType, activityValue(meta), models.SourceManual, meta)
		if err != nil {
			return nil, err
		}
		if !result.SideEffects.OK() {
			t.log.Warn("tracked activity side effects failed",
				zap.String("userId", userID.String()),
				zap.String("groupId", groupID.String()),
				zap.Error(result.SideEffects.Err()),
			)
		}
		return result.Activity, nil
	}

	raw, err := models.EncodeMetadata(meta)
	if err != nil {
		return nil, err
	}

	now := t.clock.now()
	activity := &models.UserActivity{
		UserID:       userID,
		GroupID:      groupID,
		Type:         activityType,
		ActivityDate: models.DateKey(now),
		Metadata:     raw,
		CreatedAt:    now,
	}

	err = t.store.Transaction(ctx, func(tx repository.Store) error {
		return appendRaw(ctx, tx, activity, meta)
	})
	if err != nil {
		return nil, fmt.Errorf("track activity: %w", err)
	}
	t.metrics.Activity(string(activityType))

	if n, err := t.store.Activities().PruneBefore(ctx, userID, t.clock.daysAgo(RetentionDays)); err != nil {
		t.log.Warn("prune activity log", zap.String("userId", userID.String()), zap.Error(err))
	} else if n > 0 {
		t.log.Debug("pruned activity log", zap.String("userId", userID.String()), zap.Int64("removed", n))
	}

	return activity, nil
}

// appendRaw writes one raw log row and, for training, the module completion.
func appendRaw(ctx context.Context, tx repository.Store, activity *models.UserActivity, meta models.ActivityMetadata) error {
	if err := tx.Activities().Create(ctx, activity); err != nil {
		return err
	}
	if training, ok := meta.(models.TrainingMetadata); ok && training.ModuleID != "" {
		return tx.Activities().RecordTrainingModule(ctx, activity.UserID, training.ModuleID, activity.CreatedAt)
	}
	return nil
}

// activityValue is the numeric value logged for a tracked activity: the
// step count for steps, one for everything else.
func activityValue(meta models.ActivityMetadata) float64 {
	if steps, ok := meta.(models.StepsMetadata); ok {
		return float64(steps.Steps)
	}
	return 1
}

// GetUserActivity returns entries from the trailing days calendar days
// (today included), newest first.
func (t *ActivityTracker) GetUserActivity(ctx context.Context, userID uuid.UUID, days int) ([]models.UserActivity, error) {
	if days < 1 {
		days = 1
	}
	return t.store.Activities().ListSince(ctx, userID, t.clock.daysAgo(days-1))
}

// CheckActivityEligibility reports which of the trailing requiredDays dates
// carry at least one activity.
func (t *ActivityTracker) CheckActivityEligibility(ctx context.Context, userID uuid.UUID, requiredDays int) (EligibilityWindow, error) {
	if requiredDays < 1 {
		requiredDays = 1
	}
	window := EligibilityWindow{
		RequiredDays: requiredDays,
		ActiveDates:  []string{},
		MissingDates: []string{},
	}

	dates := dateRange(t.clock.today(), requiredDays)
	rows, err := t.store.Activities().ListSince(ctx, userID, dates[0])
	if err != nil {
		return window, err
	}

	active := make(map[string]bool, len(rows))
	for _, r := range rows {
		active[r.ActivityDate] = true
	}
	for _, d := range dates {
		if active[d] {
			window.ActiveDates = append(window.ActiveDates, d)
		} else {
			window.MissingDates = append(window.MissingDates, d)
		}
	}
	window.DaysActive = len(window.ActiveDates)
	window.Met = window.DaysActive >= requiredDays
	return window, nil
}

func (t *ActivityTracker) GetActivitySummary(ctx context.Context, userID uuid.UUID, days int) (*ActivitySummary, error) {
	rows, err := t.GetUserActivity(ctx, userID, days)
	if err != nil {
		return nil, err
	}
	if days < 1 {
		days = 1
	}

	summary := &ActivitySummary{
		Days:   days,
		Total:  len(rows),
		ByType: make(map[models.ActivityType]int, len(models.AllActivityTypes)),
	}
	for _, at := range models.AllActivityTypes {
		summary.ByType[at] = 0
	}

	dates := make([]string, 0, len(rows))
	for _, r := range rows {
		summary.ByType[r.Type]++
		dates = append(dates, r.ActivityDate)
	}

	streak := Streaks(dates, t.clock.today())
	summary.CurrentStreak = streak.Current
	summary.LongestStreak = streak.Longest
	summary.AveragePerDay = float64(summary.Total) / float64(days)
	return summary, nil
}
