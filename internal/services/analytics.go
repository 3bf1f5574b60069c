package services

import (
	"context"
	"math"
	"strconv"
	"time"

	"github.com/arnold/wellness-api/internal/cache"
	"github.com/arnold/wellness-api/internal/models"
	"github.com/arnold/wellness-api/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type HealthBand string

const (
	HealthHealthy  HealthBand = "healthy"
	HealthModerate HealthBand = "moderate"
	HealthAtRisk   HealthBand = "at_risk"
)

const (
	defaultAnalyticsDays = 30
	trendBand            = 0.10
	sponsorActiveBonus   = 20
)

type EngagementDistribution struct {
	High         int     `json:"high"`
	Medium       int     `json:"medium"`
	Low          int     `json:"low"`
	Inactive     int     `json:"inactive"`
	AverageScore float64 `json:"averageScore"`
}

type DailyCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// ActivityTrend compares the average daily activity of the first and second
// half of the window.
type ActivityTrend struct {
	Direction         Trend        `json:"direction"`
	FirstHalfAverage  float64      `json:"firstHalfAverage"`
	SecondHalfAverage float64      `json:"secondHalfAverage"`
	ChangePercent     float64      `json:"changePercent"`
	Daily             []DailyCount `json:"daily"`
}

type AchievementDistribution struct {
	Total                   int                                `json:"total"`
	MembersWithAchievements int                                `json:"membersWithAchievements"`
	ByCategory              map[models.AchievementCategory]int `json:"byCategory"`
	ByType                  map[models.AchievementType]int     `json:"byType"`
}

type CommunicationStats struct {
	Messages          int     `json:"messages"`
	SystemMessages    int     `json:"systemMessages"`
	ActiveSenders     int     `json:"activeSenders"`
	MessagesPerMember float64 `json:"messagesPerMember"`
	Interactions      int     `json:"interactions"`
}

type ActivityPatterns struct {
	ByHour      [24]int `json:"byHour"`
	ByWeekday   [7]int  `json:"byWeekday"`
	PeakHour    int     `json:"peakHour"`
	PeakWeekday string  `json:"peakWeekday"`
}

type GroupAnalytics struct {
	GroupID       uuid.UUID               `json:"groupId"`
	Days          int                     `json:"days"`
	MemberCount   int                     `json:"memberCount"`
	Engagement    EngagementDistribution  `json:"engagement"`
	Trend         ActivityTrend           `json:"trend"`
	Achievements  AchievementDistribution `json:"achievements"`
	Communication CommunicationStats      `json:"communication"`
	Patterns      ActivityPatterns        `json:"patterns"`
	GeneratedAt   time.Time               `json:"generatedAt"`
}

type MemberAnalytics struct {
	GroupID        uuid.UUID                   `json:"groupId"`
	UserID         uuid.UUID                   `json:"userId"`
	Engagement     MemberEngagement            `json:"engagement"`
	EngagementRank int                         `json:"engagementRank"`
	Achievements   []models.MemberAchievement  `json:"achievements"`
	ByType         map[models.ActivityType]int `json:"byType"`
	Daily          []DailyCount                `json:"daily"`
	MessagesSent   int                         `json:"messagesSent"`
	Patterns       ActivityPatterns            `json:"patterns"`
}

type GroupHealth struct {
	GroupID     uuid.UUID          `json:"groupId"`
	Name        string             `json:"name"`
	Status      models.GroupStatus `json:"status"`
	MemberCount int                `json:"memberCount"`
	Score       int                `json:"score"`
	Band        HealthBand         `json:"band"`
}

type SystemOverview struct {
	TotalGroups       int                `json:"totalGroups"`
	ActiveGroups      int                `json:"activeGroups"`
	TotalMembers      int                `json:"totalMembers"`
	TotalAchievements int                `json:"totalAchievements"`
	AverageGroupSize  float64            `json:"averageGroupSize"`
	RetentionRate     float64            `json:"retentionRate"`
	HealthBands       map[HealthBand]int `json:"healthBands"`
	Groups            []GroupHealth      `json:"groups"`
	GeneratedAt       time.Time          `json:"generatedAt"`
}

// AnalyticsService is read only. A failing sub-aggregate is logged and
// reported as its zero value.
type AnalyticsService struct {
	store      repository.Store
	aggregator *MemberActivityAggregator
	cache      *cache.AnalyticsCache
	log        *zap.Logger
	clock      Clock
}

func NewAnalyticsService(store repository.Store, aggregator *MemberActivityAggregator, c *cache.AnalyticsCache, log *zap.Logger, clock Clock) *AnalyticsService {
	if log == nil {
		log = zap.NewNop()
	}
	return &AnalyticsService{store: store, aggregator: aggregator, cache: c, log: log, clock: clock}
}

func (a *AnalyticsService) degraded(what string, groupID uuid.UUID, err error) {
	a.log.Warn("analytics: "+what+" unavailable", zap.String("groupId", groupID.String()), zap.Error(err))
}

func clampDays(days int) int {
	if days < 1 {
		return defaultAnalyticsDays
	}
	if days > RetentionDays {
		return RetentionDays
	}
	return days
}

func (a *AnalyticsService) GetGroupAnalytics(ctx context.Context, groupID, viewerID uuid.UUID, days int) (*GroupAnalytics, error) {
	if _, err := a.store.Groups().Get(ctx, groupID); err != nil {
		return nil, notFound(err)
	}
	if _, err := a.store.Members().Get(ctx, groupID, viewerID); err != nil {
		return nil, notMember(err)
	}
	days = clampDays(days)

	key := cache.Key("group", groupID.String(), strconv.Itoa(days))
	var cached GroupAnalytics
	if hit, err := a.cache.Get(ctx, key, &cached); err != nil {
		a.log.Warn("analytics cache read", zap.String("key", key), zap.Error(err))
	} else if hit {
		return &cached, nil
	}

	now := a.clock.now()
	today := models.DateKey(now)
	dates := dateRange(today, days)
	since := now.AddDate(0, 0, -days)
	out := &GroupAnalytics{GroupID: groupID, Days: days, GeneratedAt: now}

	members, err := a.store.Members().ListByGroup(ctx, groupID)
	if err != nil {
		a.degraded("members", groupID, err)
	}
	out.MemberCount = len(members)

	if engagement, err := a.aggregator.GetGroupEngagement(ctx, groupID); err != nil {
		a.degraded("engagement", groupID, err)
	} else {
		out.Engagement = distributionOf(engagement)
	}

	entries, err := a.store.MemberActivities().ListForGroup(ctx, groupID, dates[0])
	if err != nil {
		a.degraded("activity", groupID, err)
	}
	out.Trend = trendOf(entries, dates)
	out.Patterns = patternsOf(entries, nil)

	if achievements, err := a.store.Achievements().ListForGroup(ctx, groupID); err != nil {
		a.degraded("achievements", groupID, err)
		out.Achievements = AchievementDistribution{
			ByCategory: map[models.AchievementCategory]int{},
			ByType:     map[models.AchievementType]int{},
		}
	} else {
		out.Achievements = achievementDistributionOf(achievements, since)
	}

	if msgs, err := a.store.Messages().ListByGroup(ctx, groupID, since); err != nil {
		a.degraded("messages", groupID, err)
	} else {
		out.Communication = communicationOf(msgs, len(members))
		out.Patterns = patternsOf(entries, msgs)
	}
	for _, e := range entries {
		if e.Type == models.ActivityGroupInteraction {
			out.Communication.Interactions++
		}
	}

	if err := a.cache.Set(ctx, key, out); err != nil {
		a.log.Warn("analytics cache write", zap.String("key", key), zap.Error(err))
	}
	return out, nil
}

func (a *AnalyticsService) GetMemberAnalytics(ctx context.Context, groupID, userID, viewerID uuid.UUID) (*MemberAnalytics, error) {
	if _, err := a.store.Members().Get(ctx, groupID, viewerID); err != nil {
		return nil, notMember(err)
	}
	engagement, err := a.aggregator.GetMemberEngagement(ctx, groupID, userID)
	if err != nil {
		return nil, err
	}

	now := a.clock.now()
	dates := dateRange(models.DateKey(now), defaultAnalyticsDays)
	out := &MemberAnalytics{
		GroupID:        groupID,
		UserID:         userID,
		Engagement:     *engagement,
		EngagementRank: 1,
		Achievements:   []models.MemberAchievement{},
		ByType:         make(map[models.ActivityType]int, len(models.AllActivityTypes)),
	}
	for _, t := range models.AllActivityTypes {
		out.ByType[t] = 0
	}

	if all, err := a.aggregator.GetGroupEngagement(ctx, groupID); err != nil {
		a.degraded("engagement rank", groupID, err)
	} else {
		for _, other := range all {
			if other.UserID != userID && other.Score > engagement.Score {
				out.EngagementRank++
			}
		}
	}

	if achievements, err := a.store.Achievements().ListForMember(ctx, groupID, userID); err != nil {
		a.degraded("member achievements", groupID, err)
	} else if achievements != nil {
		out.Achievements = achievements
	}

	entries, err := a.store.MemberActivities().ListForMember(ctx, groupID, userID, dates[0])
	if err != nil {
		a.degraded("member activity", groupID, err)
	}
	for _, e := range entries {
		out.ByType[e.Type]++
	}
	out.Daily = trendOf(entries, dates).Daily

	var sent []models.ChatMessage
	if msgs, err := a.store.Messages().ListByGroup(ctx, groupID, now.AddDate(0, 0, -defaultAnalyticsDays)); err != nil {
		a.degraded("member messages", groupID, err)
	} else {
		for _, m := range msgs {
			if m.Kind == models.MessageUser && m.SenderID == userID {
				sent = append(sent, m)
			}
		}
	}
	out.MessagesSent = len(sent)
	out.Patterns = patternsOf(entries, sent)
	return out, nil
}

// GetSystemOverview scores every group's health: 40 points for the share of
// members active in the last 7 days, 20 for messages per member, 20 for the
// share of members holding an achievement and 20 when the sponsor is active.
func (a *AnalyticsService) GetSystemOverview(ctx context.Context) (*SystemOverview, error) {
	key := cache.Key("system", "overview")
	var cached SystemOverview
	if hit, err := a.cache.Get(ctx, key, &cached); err == nil && hit {
		return &cached, nil
	}

	now := a.clock.now()
	groups, err := a.store.Groups().List(ctx)
	if err != nil {
		a.degraded("groups", uuid.Nil, err)
		return &SystemOverview{
			HealthBands: map[HealthBand]int{HealthHealthy: 0, HealthModerate: 0, HealthAtRisk: 0},
			Groups:      []GroupHealth{},
			GeneratedAt: now,
		}, nil
	}

	weekAgo := now.AddDate(0, 0, -7)
	activeSince := a.clock.daysAgo(6)
	out := &SystemOverview{
		TotalGroups: len(groups),
		HealthBands: map[HealthBand]int{HealthHealthy: 0, HealthModerate: 0, HealthAtRisk: 0},
		Groups:      make([]GroupHealth, 0, len(groups)),
		GeneratedAt: now,
	}
	if n, err := a.store.Members().CountAll(ctx); err != nil {
		a.degraded("member count", uuid.Nil, err)
	} else {
		out.TotalMembers = n
	}
	if n, err := a.store.Achievements().CountAll(ctx); err != nil {
		a.degraded("achievement count", uuid.Nil, err)
	} else {
		out.TotalAchievements = n
	}

	retained := 0
	for _, g := range groups {
		if g.Status == models.GroupActive {
			out.ActiveGroups++
		}
		h := GroupHealth{GroupID: g.ID, Name: g.Name, Status: g.Status}

		members, err := a.store.Members().ListByGroup(ctx, g.ID)
		if err != nil {
			a.degraded("members", g.ID, err)
		}
		h.MemberCount = len(members)

		var activeMembers int
		sponsorActive := false
		for _, m := range members {
			if m.Stats.LastActivityDate >= activeSince {
				activeMembers++
				if m.IsSponsor() {
					sponsorActive = true
				}
			}
		}
		retained += activeMembers

		var messages int
		if msgs, err := a.store.Messages().ListByGroup(ctx, g.ID, weekAgo); err != nil {
			a.degraded("messages", g.ID, err)
		} else {
			for _, m := range msgs {
				if m.Kind == models.MessageUser {
					messages++
				}
			}
		}

		achievers := make(map[uuid.UUID]bool)
		if achievements, err := a.store.Achievements().ListForGroup(ctx, g.ID); err != nil {
			a.degraded("achievements", g.ID, err)
		} else {
			for _, ach := range achievements {
				achievers[ach.UserID] = true
			}
		}

		h.Score = HealthScore(len(members), activeMembers, messages, len(achievers), sponsorActive)
		h.Band = HealthBandFor(h.Score)
		out.HealthBands[h.Band]++
		out.Groups = append(out.Groups, h)
	}

	if out.TotalGroups > 0 {
		out.AverageGroupSize = round2(float64(out.TotalMembers) / float64(out.TotalGroups))
	}
	if out.TotalMembers > 0 {
		out.RetentionRate = round2(float64(retained) / float64(out.TotalMembers) * 100)
	}

	if err := a.cache.Set(ctx, key, out); err != nil {
		a.log.Warn("analytics cache write", zap.String("key", key), zap.Error(err))
	}
	return out, nil
}

func HealthScore(members, activeMembers, messages, achievers int, sponsorActive bool) int {
	if members <= 0 {
		return 0
	}
	n := float64(members)
	activeRate := float64(activeMembers) / n
	messageRate := math.Min(float64(messages)/n, 1)
	achievementRate := float64(achievers) / n

	score := (0.4*activeRate + 0.2*messageRate + 0.2*achievementRate) * 100
	if sponsorActive {
		score += sponsorActiveBonus
	}
	return int(math.Min(100, math.Round(score)))
}

func HealthBandFor(score int) HealthBand {
	switch {
	case score >= 70:
		return HealthHealthy
	case score >= 40:
		return HealthModerate
	default:
		return HealthAtRisk
	}
}

func distributionOf(all []MemberEngagement) EngagementDistribution {
	var d EngagementDistribution
	if len(all) == 0 {
		return d
	}
	total := 0
	for _, e := range all {
		total += e.Score
		switch e.Level {
		case EngagementHigh:
			d.High++
		case EngagementMedium:
			d.Medium++
		case EngagementLow:
			d.Low++
		default:
			d.Inactive++
		}
	}
	d.AverageScore = round2(float64(total) / float64(len(all)))
	return d
}

// trendOf splits dates (oldest first) in half and compares the average
// daily entry count, with a 10% band counted as stable.
func trendOf(entries []models.MemberActivityEntry, dates []string) ActivityTrend {
	counts := make(map[string]int, len(dates))
	for _, e := range entries {
		counts[e.ActivityDate]++
	}

	t := ActivityTrend{Direction: TrendStable, Daily: make([]DailyCount, 0, len(dates))}
	for _, d := range dates {
		t.Daily = append(t.Daily, DailyCount{Date: d, Count: counts[d]})
	}
	if len(dates) < 2 {
		return t
	}

	mid := len(dates) / 2
	first, second := averageCount(t.Daily[:mid]), averageCount(t.Daily[mid:])
	t.FirstHalfAverage = round2(first)
	t.SecondHalfAverage = round2(second)
	if first == 0 {
		if second > 0 {
			t.Direction = TrendIncreasing
		}
		return t
	}

	change := (second - first) / first
	t.ChangePercent = round2(change * 100)
	switch {
	case change > trendBand:
		t.Direction = TrendIncreasing
	case change < -trendBand:
		t.Direction = TrendDecreasing
	}
	return t
}

func averageCount(days []DailyCount) float64 {
	if len(days) == 0 {
		return 0
	}
	total := 0
	for _, d := range days {
		total += d.Count
	}
	return float64(total) / float64(len(days))
}

func achievementDistributionOf(all []models.MemberAchievement, since time.Time) AchievementDistribution {
	total, byCategory := achievementSummary(all, since)
	d := AchievementDistribution{
		Total:      total,
		ByCategory: byCategory,
		ByType:     make(map[models.AchievementType]int),
	}
	holders := make(map[uuid.UUID]bool)
	for _, a := range all {
		if a.EarnedAt.Before(since) {
			continue
		}
		d.ByType[a.Type]++
		holders[a.UserID] = true
	}
	d.MembersWithAchievements = len(holders)
	return d
}

func communicationOf(msgs []models.ChatMessage, members int) CommunicationStats {
	var c CommunicationStats
	senders := make(map[uuid.UUID]bool)
	for _, m := range msgs {
		if m.Kind == models.MessageSystem {
			c.SystemMessages++
			continue
		}
		c.Messages++
		senders[m.SenderID] = true
	}
	c.ActiveSenders = len(senders)
	if members > 0 {
		c.MessagesPerMember = round2(float64(c.Messages) / float64(members))
	}
	return c
}

// patternsOf buckets activity entries and user messages by UTC hour and
// weekday. Ties resolve to the earliest bucket.
func patternsOf(entries []models.MemberActivityEntry, msgs []models.ChatMessage) ActivityPatterns {
	var p ActivityPatterns
	add := func(t time.Time) {
		t = t.UTC()
		p.ByHour[t.Hour()]++
		p.ByWeekday[t.Weekday()]++
	}
	for _, e := range entries {
		add(e.CreatedAt)
	}
	for _, m := range msgs {
		if m.Kind == models.MessageUser {
			add(m.CreatedAt)
		}
	}

	for h := range p.ByHour {
		if p.ByHour[h] > p.ByHour[p.PeakHour] {
			p.PeakHour = h
		}
	}
	peakDay := 0
	for d := range p.ByWeekday {
		if p.ByWeekday[d] > p.ByWeekday[peakDay] {
			peakDay = d
		}
	}
	p.PeakWeekday = time.Weekday(peakDay).String()
	return p
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
