package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/arnold/wellness-api/internal/metrics"
	"github.com/arnold/wellness-api/internal/models"
	"github.com/arnold/wellness-api/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

const messageNotificationTTL = 24 * time.Hour

type NotificationOptions struct {
	Priority   models.NotificationPriority
	ExpiresAt  *time.Time
	ExpiresIn  time.Duration
	ActionURL  string
	Persistent bool
	Metadata   map[string]interface{}
}

// FanoutResult counts the outcome per recipient of a group broadcast.
type FanoutResult struct {
	Sent       int `json:"sent"`
	Suppressed int `json:"suppressed"`
	Failed     int `json:"failed"`
}

func (f *FanoutResult) add(other FanoutResult) {
	f.Sent += other.Sent
	f.Suppressed += other.Suppressed
	f.Failed += other.Failed
}

type NotificationService struct {
	store   repository.Store
	pusher  Pusher
	log     *zap.Logger
	clock   Clock
	metrics *metrics.Metrics
}

func NewNotificationService(store repository.Store, pusher Pusher, log *zap.Logger, clock Clock, m *metrics.Metrics) *NotificationService {
	if log == nil {
		log = zap.NewNop()
	}
	return &NotificationService{store: store, pusher: pusher, log: log, clock: clock, metrics: m}
}

// preferences falls back to the defaults when nothing was saved or the
// stored row cannot be read.
func (s *NotificationService) preferences(ctx context.Context, userID, groupID uuid.UUID) *models.NotificationPreferences {
	prefs, err := s.store.Preferences().Get(ctx, userID, groupID)
	if err == nil {
		return prefs
	}
	if !errors.Is(err, repository.ErrNotFound) {
		s.log.Warn("load notification preferences", zap.String("userId", userID.String()), zap.Error(err))
	}
	return models.DefaultNotificationPreferences(userID, groupID)
}

// SendNotification stores a notification for one recipient. It returns
// (nil, nil) when the recipient's preferences suppress it: the type is
// unknown or disabled, or quiet hours are on and the priority is not high.
func (s *NotificationService) SendNotification(ctx context.Context, recipientID, groupID uuid.UUID, t models.NotificationType, title, message string, opts NotificationOptions) (*models.GroupNotification, error) {
	if !t.Valid() {
		s.metrics.NotificationSuppressed("unknown_type")
		return nil, nil
	}

	prefs := s.preferences(ctx, recipientID, groupID)
	if !prefs.Allows(t) {
		s.metrics.NotificationSuppressed("disabled")
		return nil, nil
	}

	priority := opts.Priority
	if priority == "" {
		priority = models.PriorityMedium
	}
	now := s.clock.now()
	if priority != models.PriorityHigh && InQuietHours(prefs, now) {
		s.metrics.NotificationSuppressed("quiet_hours")
		return nil, nil
	}

	n := &models.GroupNotification{
		RecipientID: recipientID,
		GroupID:     groupID,
		Type:        t,
		Title:       title,
		Message:     message,
		Priority:    priority,
		Persistent:  opts.Persistent,
		ActionURL:   opts.ActionURL,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	switch {
	case opts.ExpiresAt != nil:
		n.ExpiresAt = opts.ExpiresAt
	case opts.ExpiresIn > 0:
		exp := now.Add(opts.ExpiresIn)
		n.ExpiresAt = &exp
	}
	if len(opts.Metadata) > 0 {
		raw, err := json.Marshal(opts.Metadata)
		if err != nil {
			return nil, fmt.Errorf("encode notification metadata: %w", err)
		}
		n.Metadata = datatypes.JSON(raw)
	}

	if err := s.store.Notifications().Create(ctx, n); err != nil {
		return nil, fmt.Errorf("store notification: %w", err)
	}
	s.metrics.NotificationSent(string(t))

	if prefs.PushEnabled && s.pusher != nil {
		data := map[string]string{
			"type":           string(t),
			"groupId":        groupID.String(),
			"notificationId": n.ID.String(),
		}
		if err := s.pusher.Send(ctx, recipientID, title, message, data); err != nil {
			s.log.Warn("push notification", zap.String("userId", recipientID.String()), zap.Error(err))
		}
	}
	return n, nil
}

// SendGroupNotification fans out to every current member except exclude.
func (s *NotificationService) SendGroupNotification(ctx context.Context, groupID uuid.UUID, t models.NotificationType, title, message string, opts NotificationOptions, exclude ...uuid.UUID) (FanoutResult, error) {
	var result FanoutResult
	members, err := s.store.Members().ListByGroup(ctx, groupID)
	if err != nil {
		return result, fmt.Errorf("list recipients: %w", err)
	}

	skip := make(map[uuid.UUID]bool, len(exclude))
	for _, id := range exclude {
		skip[id] = true
	}
	for _, m := range members {
		if skip[m.UserID] {
			continue
		}
		n, err := s.SendNotification(ctx, m.UserID, groupID, t, title, message, opts)
		switch {
		case err != nil:
			result.Failed++
			s.log.Warn("group notification",
				zap.String("groupId", groupID.String()),
				zap.String("userId", m.UserID.String()),
				zap.Error(err),
			)
		case n == nil:
			result.Suppressed++
		default:
			result.Sent++
		}
	}
	if result.Failed > 0 {
		return result, fmt.Errorf("%d of %d notifications failed", result.Failed, result.Failed+result.Sent+result.Suppressed)
	}
	return result, nil
}

func groupURL(groupID uuid.UUID) string {
	return "/groups/" + groupID.String()
}

func (s *NotificationService) NotifyMemberJoined(ctx context.Context, groupID uuid.UUID, groupName string, userID uuid.UUID, name string) (FanoutResult, error) {
	return s.SendGroupNotification(ctx, groupID, models.NotifyMemberJoined,
		"New member",
		fmt.Sprintf("%s joined %s", name, groupName),
		NotificationOptions{ActionURL: groupURL(groupID), Metadata: map[string]interface{}{"userId": userID}},
		userID,
	)
}

// NotifyMemberLeft tells the remaining members; removed selects the
// member_removed kind.
func (s *NotificationService) NotifyMemberLeft(ctx context.Context, groupID uuid.UUID, groupName string, userID uuid.UUID, name string, removed bool) (FanoutResult, error) {
	t, verb := models.NotifyMemberLeft, "left"
	if removed {
		t, verb = models.NotifyMemberRemoved, "was removed from"
	}
	return s.SendGroupNotification(ctx, groupID, t,
		"Member update",
		fmt.Sprintf("%s %s %s", name, verb, groupName),
		NotificationOptions{Priority: models.PriorityLow, ActionURL: groupURL(groupID)},
		userID,
	)
}

// NotifyAchievementEarned broadcasts to the group and sends the achiever a
// separate high priority notification.
func (s *NotificationService) NotifyAchievementEarned(ctx context.Context, groupID, userID uuid.UUID, name string, a models.MemberAchievement, broadcast bool) (FanoutResult, error) {
	var result FanoutResult
	var errs []error
	meta := map[string]interface{}{"achievementType": a.Type, "userId": userID}

	if broadcast {
		r, err := s.SendGroupNotification(ctx, groupID, models.NotifyAchievementEarned,
			a.Icon+" "+a.Title,
			fmt.Sprintf("%s earned %s", name, a.Title),
			NotificationOptions{ActionURL: groupURL(groupID), Metadata: meta},
			userID,
		)
		result.add(r)
		if err != nil {
			errs = append(errs, err)
		}
	}

	n, err := s.SendNotification(ctx, userID, groupID, models.NotifyPersonalAchievement,
		"Achievement unlocked: "+a.Title,
		a.Description,
		NotificationOptions{Priority: models.PriorityHigh, Persistent: true, ActionURL: groupURL(groupID), Metadata: meta},
	)
	switch {
	case err != nil:
		result.Failed++
		errs = append(errs, err)
	case n == nil:
		result.Suppressed++
	default:
		result.Sent++
	}
	return result, errors.Join(errs...)
}

func (s *NotificationService) NotifyNewMessage(ctx context.Context, groupID, senderID uuid.UUID, senderName, body string) (FanoutResult, error) {
	return s.SendGroupNotification(ctx, groupID, models.NotifyNewMessage,
		"New message from "+senderName,
		preview(body, 100),
		NotificationOptions{Priority: models.PriorityLow, ExpiresIn: messageNotificationTTL, ActionURL: groupURL(groupID) + "/chat"},
		senderID,
	)
}

func (s *NotificationService) NotifyMilestoneReached(ctx context.Context, groupID, userID uuid.UUID, name, milestone string) (FanoutResult, error) {
	return s.SendGroupNotification(ctx, groupID, models.NotifyMilestoneReached,
		"Milestone reached",
		fmt.Sprintf("%s: %s", name, milestone),
		NotificationOptions{ActionURL: groupURL(groupID) + "/feed"},
		userID,
	)
}

func preview(body string, limit int) string {
	body = strings.TrimSpace(body)
	if utf8.RuneCountInString(body) <= limit {
		return body
	}
	runes := []rune(body)
	return string(runes[:limit]) + "…"
}

// GetUserNotifications lists unexpired notifications, newest first.
func (s *NotificationService) GetUserNotifications(ctx context.Context, userID uuid.UUID, f repository.NotificationFilter) ([]models.GroupNotification, error) {
	rows, err := s.store.Notifications().ListForRecipient(ctx, userID, f)
	if err != nil {
		return nil, err
	}
	now := s.clock.now()
	kept := rows[:0]
	for _, n := range rows {
		if !n.Expired(now) {
			kept = append(kept, n)
		}
	}
	return kept, nil
}

func (s *NotificationService) MarkRead(ctx context.Context, userID, notificationID uuid.UUID) error {
	err := s.store.Notifications().MarkRead(ctx, userID, notificationID)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNotificationMissing
	}
	return err
}

func (s *NotificationService) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	return s.store.Notifications().MarkAllRead(ctx, userID)
}

func (s *NotificationService) UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	return s.store.Notifications().CountUnread(ctx, userID)
}

func (s *NotificationService) GetPreferences(ctx context.Context, userID, groupID uuid.UUID) (*models.NotificationPreferences, error) {
	prefs, err := s.store.Preferences().Get(ctx, userID, groupID)
	if errors.Is(err, repository.ErrNotFound) {
		return models.DefaultNotificationPreferences(userID, groupID), nil
	}
	return prefs, err
}

// UpdatePreferences applies the non-nil fields of req. Unknown notification
// types, malformed HH:MM values and unknown time zones are rejected.
func (s *NotificationService) UpdatePreferences(ctx context.Context, userID, groupID uuid.UUID, req models.UpdatePreferencesRequest) (*models.NotificationPreferences, error) {
	if _, err := s.store.Members().Get(ctx, groupID, userID); err != nil {
		return nil, notMember(err)
	}
	prefs, err := s.GetPreferences(ctx, userID, groupID)
	if err != nil {
		return nil, err
	}

	if req.EnabledTypes != nil {
		seen := make(map[models.NotificationType]bool, len(req.EnabledTypes))
		types := make([]models.NotificationType, 0, len(req.EnabledTypes))
		for _, t := range req.EnabledTypes {
			if !t.Valid() {
				return nil, fmt.Errorf("%w: %q", ErrUnknownNotification, t)
			}
			if !seen[t] {
				seen[t] = true
				types = append(types, t)
			}
		}
		prefs.SetEnabledTypes(types)
	}
	if req.QuietStart != nil {
		if _, err := parseClock(*req.QuietStart); err != nil {
			return nil, err
		}
		prefs.QuietStart = *req.QuietStart
	}
	if req.QuietEnd != nil {
		if _, err := parseClock(*req.QuietEnd); err != nil {
			return nil, err
		}
		prefs.QuietEnd = *req.QuietEnd
	}
	if req.Timezone != nil {
		if _, err := time.LoadLocation(*req.Timezone); err != nil {
			return nil, fmt.Errorf("%w: unknown timezone %q", ErrInvalidInput, *req.Timezone)
		}
		prefs.Timezone = *req.Timezone
	}
	if req.QuietHoursEnabled != nil {
		prefs.QuietHoursEnabled = *req.QuietHoursEnabled
	}
	if req.PushEnabled != nil {
		prefs.PushEnabled = *req.PushEnabled
	}
	if req.EmailEnabled != nil {
		prefs.EmailEnabled = *req.EmailEnabled
	}

	prefs.UpdatedAt = s.clock.now()
	if err := s.store.Preferences().Upsert(ctx, prefs); err != nil {
		return nil, err
	}
	return prefs, nil
}

// CleanupExpiredNotifications removes expired notifications that are not
// marked persistent.
func (s *NotificationService) CleanupExpiredNotifications(ctx context.Context) (int64, error) {
	return s.store.Notifications().DeleteExpired(ctx, s.clock.now())
}

// InQuietHours reports whether now falls in the recipient's quiet window,
// evaluated in their time zone. The window may wrap midnight; equal start
// and end means no quiet time.
func InQuietHours(p *models.NotificationPreferences, now time.Time) bool {
	if p == nil || !p.QuietHoursEnabled {
		return false
	}
	start, err := parseClock(p.QuietStart)
	if err != nil {
		return false
	}
	end, err := parseClock(p.QuietEnd)
	if err != nil || start == end {
		return false
	}

	if p.Timezone != "" {
		if loc, err := time.LoadLocation(p.Timezone); err == nil {
			now = now.In(loc)
		}
	}
	minute := now.Hour()*60 + now.Minute()
	if start < end {
		return minute >= start && minute < end
	}
	return minute >= start || minute < end
}

// parseClock turns "HH:MM" into minutes after midnight.
func parseClock(v string) (int, error) {
	bad := fmt.Errorf("%w: time must be HH:MM, got %q", ErrInvalidInput, v)
	parts := strings.Split(v, ":")
	if len(parts) != 2 || len(parts[0]) != 2 || len(parts[1]) != 2 {
		return 0, bad
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, bad
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, bad
	}
	return h*60 + m, nil
}
