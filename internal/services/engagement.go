package services

import (
	"context"
	"fmt"
	"math"

	"github.com/arnold/wellness-api/internal/events"
	"github.com/arnold/wellness-api/internal/metrics"
	"github.com/arnold/wellness-api/internal/models"
	"github.com/arnold/wellness-api/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type EngagementLevel string

const (
	EngagementHigh     EngagementLevel = "high"
	EngagementMedium   EngagementLevel = "medium"
	EngagementLow      EngagementLevel = "low"
	EngagementInactive EngagementLevel = "inactive"
)

type Trend string

const (
	TrendIncreasing Trend = "increasing"
	TrendDecreasing Trend = "decreasing"
	TrendStable     Trend = "stable"
)

const (
	dailyStepTarget = 8000
	dailyFoodTarget = 3
)

type EngagementWindow struct {
	Days                     int   `json:"days"`
	StepsLogged              int64 `json:"stepsLogged"`
	FoodEntriesLogged        int   `json:"foodEntriesLogged"`
	TrainingModulesCompleted int   `json:"trainingModulesCompleted"`
	GroupInteractions        int   `json:"groupInteractions"`
	ActiveDays               int   `json:"activeDays"`
}

type MemberEngagement struct {
	GroupID uuid.UUID        `json:"groupId"`
	UserID  uuid.UUID        `json:"userId"`
	Last7   EngagementWindow `json:"last7Days"`
	Last30  EngagementWindow `json:"last30Days"`
	Streak  StreakSummary    `json:"streak"`
	Score   int              `json:"score"`
	Level   EngagementLevel  `json:"level"`
	Trend   Trend            `json:"trend"`
}

// EngagementScore weighs a window out of 100: up to 40 for active days at 6
// each, 20 for average steps against 8000/day, 20 for food entries against
// 3/day and 20 for training plus interactions at 2 each.
func EngagementScore(w EngagementWindow) int {
	days := float64(w.Days)
	if days <= 0 {
		days = 1
	}

	active := math.Min(float64(w.ActiveDays*6), 40)
	steps := math.Min(float64(w.StepsLogged)/days/dailyStepTarget, 1) * 20
	food := math.Min(float64(w.FoodEntriesLogged)/days/dailyFoodTarget, 1) * 20
	social := math.Min(float64((w.TrainingModulesCompleted+w.GroupInteractions)*2), 20)

	total := math.Round(math.Max(active, 0) + math.Max(steps, 0) + math.Max(food, 0) + math.Max(social, 0))
	return int(math.Max(0, math.Min(100, total)))
}

func EngagementLevelFor(score int) EngagementLevel {
	switch {
	case score >= 80:
		return EngagementHigh
	case score >= 60:
		return EngagementMedium
	case score >= 30:
		return EngagementLow
	default:
		return EngagementInactive
	}
}

// TrendFor compares daily active rates: more than 20% above the 30-day rate
// is increasing, more than 20% below is decreasing.
func TrendFor(w7, w30 EngagementWindow) Trend {
	rate7 := float64(w7.ActiveDays) / 7
	rate30 := float64(w30.ActiveDays) / 30
	switch {
	case rate30 == 0:
		if rate7 > 0 {
			return TrendIncreasing
		}
		return TrendStable
	case rate7 > rate30*1.2:
		return TrendIncreasing
	case rate7 < rate30*0.8:
		return TrendDecreasing
	default:
		return TrendStable
	}
}

type LogResult struct {
	Entry       *models.MemberActivityEntry `json:"entry"`
	Activity    *models.UserActivity        `json:"activity"`
	Stats       models.ActivityStats        `json:"activityStats"`
	SideEffects SideEffectReport            `json:"sideEffects"`
}

// MemberActivityAggregator keeps the group-scoped activity log and the
// rollups on each membership row. Every entry is mirrored into the member's
// raw activity log so group activity counts toward eligibility.
type MemberActivityAggregator struct {
	store      repository.Store
	dispatcher *Dispatcher
	log        *zap.Logger
	clock      Clock
	metrics    *metrics.Metrics
}

func NewMemberActivityAggregator(store repository.Store, dispatcher *Dispatcher, log *zap.Logger, clock Clock, m *metrics.Metrics) *MemberActivityAggregator {
	if log == nil {
		log = zap.NewNop()
	}
	return &MemberActivityAggregator{store: store, dispatcher: dispatcher, log: log, clock: clock, metrics: m}
}

func (a *MemberActivityAggregator) LogMemberActivity(ctx context.Context, groupID, userID uuid.UUID, activityType models.ActivityType, value float64, source models.ActivitySource, meta models.ActivityMetadata) (*LogResult, error) {
	if err := models.CheckMetadata(activityType, meta); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if value < 0 || math.IsNaN(value) || math.IsInf(value, 0) {
		return nil, fmt.Errorf("%w: value must be a non-negative number", ErrInvalidInput)
	}
	if source == "" {
		source = models.SourceManual
	}

	switch m := meta.(type) {
	case nil:
		if activityType == models.ActivitySteps {
			meta = models.StepsMetadata{Steps: int(value)}
		}
	case models.StepsMetadata:
		if value == 0 {
			value = float64(m.Steps)
		}
	}

	raw, err := models.EncodeMetadata(meta)
	if err != nil {
		return nil, err
	}

	now := a.clock.now()
	today := models.DateKey(now)
	entry := &models.MemberActivityEntry{
		GroupID:      groupID,
		UserID:       userID,
		Type:         activityType,
		Value:        value,
		Source:       source,
		ActivityDate: today,
		Metadata:     raw,
		CreatedAt:    now,
	}

	activity := &models.UserActivity{
		UserID:       userID,
		GroupID:      &groupID,
		Type:         activityType,
		ActivityDate: today,
		Metadata:     raw,
		CreatedAt:    now,
	}

	var (
		member     *models.GroupMember
		foodStreak int
		firstOfDay bool
		stepsToday float64
		stepGoal   int
	)
	err = a.store.Transaction(ctx, func(tx repository.Store) error {
		var err error
		member, err = tx.Members().GetForUpdate(ctx, groupID, userID)
		if err != nil {
			return notMember(err)
		}
		firstOfDay = member.Stats.LastActivityDate != today

		switch activityType {
		case models.ActivityFoodEntry:
			history, err := tx.MemberActivities().ListForMember(ctx, groupID, userID, a.clock.daysAgo(RetentionDays))
			if err != nil {
				return err
			}
			foodDays := datesOfType(history, models.ActivityFoodEntry)
			firstOfDay = !foodDays[today]
			foodDays[today] = true
			foodStreak = consecutiveRunEnding(today, func(d string) bool { return foodDays[d] })
		case models.ActivitySteps:
			todays, err := tx.MemberActivities().ListForMember(ctx, groupID, userID, today)
			if err != nil {
				return err
			}
			for _, e := range todays {
				if e.Type == models.ActivitySteps && e.ActivityDate == today {
					stepsToday += stepCount(e)
				}
			}
			stepsToday += value
			group, err := tx.Groups().Get(ctx, groupID)
			if err != nil {
				return notFound(err)
			}
			stepGoal = group.StepGoal()
		}

		if err := tx.MemberActivities().Create(ctx, entry); err != nil {
			return err
		}
		if err := appendRaw(ctx, tx, activity, meta); err != nil {
			return err
		}

		applyToStats(&member.Stats, activityType, value)
		if activityType == models.ActivityTrainingCompletion {
			modules, err := tx.Activities().CountTrainingModules(ctx, userID)
			if err != nil {
				return err
			}
			member.Stats.TrainingModules = modules
		}
		member.Stats.CurrentStreak = NextStreak(member.Stats.CurrentStreak, member.Stats.LastActivityDate, today)
		if member.Stats.CurrentStreak > member.Stats.LongestStreak {
			member.Stats.LongestStreak = member.Stats.CurrentStreak
		}
		member.Stats.LastActivityDate = today
		member.LastActiveAt = now
		return tx.Members().UpdateStats(ctx, groupID, userID, member.Stats, now)
	})
	if err != nil {
		return nil, err
	}

	a.metrics.Activity(string(activityType))

	if _, err := a.store.MemberActivities().PruneBefore(ctx, groupID, a.clock.daysAgo(RetentionDays)); err != nil {
		a.log.Warn("prune member activity", zap.String("groupId", groupID.String()), zap.Error(err))
	}
	if _, err := a.store.Activities().PruneBefore(ctx, userID, a.clock.daysAgo(RetentionDays)); err != nil {
		a.log.Warn("prune activity log", zap.String("userId", userID.String()), zap.Error(err))
	}

	report := a.dispatcher.Dispatch(ctx, events.Event{
		Type:    events.ActivityLogged,
		GroupID: groupID,
		UserID:  userID,
		Payload: events.ActivityPayload{
			DisplayName:   displayName(ctx, a.store, userID),
			ActivityType:  activityType,
			Value:         value,
			Metadata:      meta,
			CurrentStreak: member.Stats.CurrentStreak,
			FoodStreak:    foodStreak,
			FirstOfDay:    firstOfDay,
			StepsToday:    stepsToday,
			StepGoal:      stepGoal,
		},
		OccurredAt: now,
	})

	return &LogResult{Entry: entry, Activity: activity, Stats: member.Stats, SideEffects: report}, nil
}

func applyToStats(stats *models.ActivityStats, t models.ActivityType, value float64) {
	switch t {
	case models.ActivitySteps:
		stats.TotalSteps += int64(value)
	case models.ActivityFoodEntry:
		stats.FoodEntries++
	case models.ActivityGroupInteraction:
		stats.Interactions++
	}
}

func (a *MemberActivityAggregator) GetMemberEngagement(ctx context.Context, groupID, userID uuid.UUID) (*MemberEngagement, error) {
	if _, err := a.store.Members().Get(ctx, groupID, userID); err != nil {
		return nil, notMember(err)
	}
	entries, err := a.store.MemberActivities().ListForMember(ctx, groupID, userID, a.clock.daysAgo(RetentionDays))
	if err != nil {
		return nil, err
	}
	e := computeEngagement(groupID, userID, entries, a.clock.today())
	return &e, nil
}

// GetGroupEngagement computes engagement for every current member.
func (a *MemberActivityAggregator) GetGroupEngagement(ctx context.Context, groupID uuid.UUID) ([]MemberEngagement, error) {
	members, err := a.store.Members().ListByGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	entries, err := a.store.MemberActivities().ListForGroup(ctx, groupID, a.clock.daysAgo(RetentionDays))
	if err != nil {
		return nil, err
	}

	byUser := make(map[uuid.UUID][]models.MemberActivityEntry)
	for _, e := range entries {
		byUser[e.UserID] = append(byUser[e.UserID], e)
	}

	today := a.clock.today()
	out := make([]MemberEngagement, 0, len(members))
	for _, m := range members {
		out = append(out, computeEngagement(groupID, m.UserID, byUser[m.UserID], today))
	}
	return out, nil
}

func computeEngagement(groupID, userID uuid.UUID, entries []models.MemberActivityEntry, today string) MemberEngagement {
	w7 := windowOf(entries, today, 7)
	w30 := windowOf(entries, today, 30)

	dates := make([]string, 0, len(entries))
	for _, e := range entries {
		dates = append(dates, e.ActivityDate)
	}

	score := EngagementScore(w7)
	return MemberEngagement{
		GroupID: groupID,
		UserID:  userID,
		Last7:   w7,
		Last30:  w30,
		Streak:  Streaks(dates, today),
		Score:   score,
		Level:   EngagementLevelFor(score),
		Trend:   TrendFor(w7, w30),
	}
}

func windowOf(entries []models.MemberActivityEntry, today string, days int) EngagementWindow {
	w := EngagementWindow{Days: days}
	since := dateRange(today, days)[0]
	active := make(map[string]bool)
	for _, e := range entries {
		if e.ActivityDate < since || e.ActivityDate > today {
			continue
		}
		active[e.ActivityDate] = true
		switch e.Type {
		case models.ActivitySteps:
			w.StepsLogged += int64(stepCount(e))
		case models.ActivityFoodEntry:
			w.FoodEntriesLogged++
		case models.ActivityTrainingCompletion:
			w.TrainingModulesCompleted++
		case models.ActivityGroupInteraction:
			w.GroupInteractions++
		}
	}
	w.ActiveDays = len(active)
	return w
}

// stepCount prefers the logged value and falls back to the payload.
func stepCount(e models.MemberActivityEntry) float64 {
	if e.Value > 0 {
		return e.Value
	}
	payload, err := e.Payload()
	if err != nil {
		return 0
	}
	if steps, ok := payload.(models.StepsMetadata); ok {
		return float64(steps.Steps)
	}
	return 0
}

func datesOfType(entries []models.MemberActivityEntry, t models.ActivityType) map[string]bool {
	out := make(map[string]bool)
	for _, e := range entries {
		if e.Type == t {
			out[e.ActivityDate] = true
		}
	}
	return out
}
