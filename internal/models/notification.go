package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type NotificationType string

const (
	NotifyMemberJoined         NotificationType = "member_joined"
	NotifyMemberLeft           NotificationType = "member_left"
	NotifyMemberRemoved        NotificationType = "member_removed"
	NotifyAchievementEarned    NotificationType = "achievement_earned"
	NotifyPersonalAchievement  NotificationType = "personal_achievement"
	NotifyNewMessage           NotificationType = "new_message"
	NotifyMilestoneReached     NotificationType = "milestone_reached"
	NotifyWeeklySummary        NotificationType = "weekly_summary"
	NotifyGroupInvitation      NotificationType = "group_invitation"
	NotifyOwnershipTransferred NotificationType = "ownership_transferred"
	NotifyGroupDeleted         NotificationType = "group_deleted"
	NotifyGroupUpdated         NotificationType = "group_updated"
	NotifyStreakReminder       NotificationType = "streak_reminder"
	NotifyInactivityReminder   NotificationType = "inactivity_reminder"
	NotifyGoalReached          NotificationType = "goal_reached"
	NotifyTrainingCompleted    NotificationType = "training_completed"
	NotifySponsorAnnouncement  NotificationType = "sponsor_announcement"
)

// AllNotificationTypes is the closed set of notification kinds.
var AllNotificationTypes = []NotificationType{
	NotifyMemberJoined,
	NotifyMemberLeft,
	NotifyMemberRemoved,
	NotifyAchievementEarned,
	NotifyPersonalAchievement,
	NotifyNewMessage,
	NotifyMilestoneReached,
	NotifyWeeklySummary,
	NotifyGroupInvitation,
	NotifyOwnershipTransferred,
	NotifyGroupDeleted,
	NotifyGroupUpdated,
	NotifyStreakReminder,
	NotifyInactivityReminder,
	NotifyGoalReached,
	NotifyTrainingCompleted,
	NotifySponsorAnnouncement,
}

// DefaultEnabledNotificationTypes is what a member receives before saving
// preferences. Reminders and summaries are opt-in.
var DefaultEnabledNotificationTypes = []NotificationType{
	NotifyMemberJoined,
	NotifyMemberLeft,
	NotifyMemberRemoved,
	NotifyAchievementEarned,
	NotifyPersonalAchievement,
	NotifyNewMessage,
	NotifyMilestoneReached,
	NotifyGroupInvitation,
	NotifyOwnershipTransferred,
	NotifyGroupDeleted,
	NotifyGroupUpdated,
	NotifyGoalReached,
	NotifySponsorAnnouncement,
}

func (t NotificationType) Valid() bool {
	for _, known := range AllNotificationTypes {
		if t == known {
			return true
		}
	}
	return false
}

type NotificationPriority string

const (
	PriorityLow    NotificationPriority = "low"
	PriorityMedium NotificationPriority = "medium"
	PriorityHigh   NotificationPriority = "high"
)

type GroupNotification struct {
	ID          uuid.UUID            `json:"id" gorm:"type:uuid;primaryKey"`
	RecipientID uuid.UUID            `json:"recipientId" gorm:"type:uuid;not null;index"`
	GroupID     uuid.UUID            `json:"groupId" gorm:"type:uuid;index"`
	Type        NotificationType     `json:"type" gorm:"not null"`
	Title       string               `json:"title" gorm:"not null"`
	Message     string               `json:"message"`
	Read        bool                 `json:"read" gorm:"default:false"`
	Priority    NotificationPriority `json:"priority" gorm:"not null;default:'medium'"`
	Persistent  bool                 `json:"persistent" gorm:"default:false"`
	ExpiresAt   *time.Time           `json:"expiresAt" gorm:"index"`
	ActionURL   string               `json:"actionUrl,omitempty"`
	Metadata    datatypes.JSON       `json:"metadata,omitempty"`
	CreatedAt   time.Time            `json:"createdAt"`
	UpdatedAt   time.Time            `json:"updatedAt"`
}

func (n *GroupNotification) BeforeCreate(tx *gorm.DB) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return nil
}

// Expired reports whether a non-persistent notification has passed its expiry.
func (n *GroupNotification) Expired(now time.Time) bool {
	return !n.Persistent && n.ExpiresAt != nil && !now.Before(*n.ExpiresAt)
}

// NotificationPreferences is stored per (user, group). EnabledTypes is a
// comma-separated allow-list.
type NotificationPreferences struct {
	ID                uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	UserID            uuid.UUID `json:"userId" gorm:"type:uuid;not null;uniqueIndex:idx_user_group_prefs"`
	GroupID           uuid.UUID `json:"groupId" gorm:"type:uuid;not null;uniqueIndex:idx_user_group_prefs"`
	EnabledTypes      string    `json:"-" gorm:"not null"`
	QuietHoursEnabled bool      `json:"quietHoursEnabled"`
	QuietStart        string    `json:"quietStart" gorm:"size:5"`
	QuietEnd          string    `json:"quietEnd" gorm:"size:5"`
	Timezone          string    `json:"timezone"`
	PushEnabled       bool      `json:"pushEnabled"`
	EmailEnabled      bool      `json:"emailEnabled"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

func (p *NotificationPreferences) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// DefaultNotificationPreferences is used when a member never saved preferences.
func DefaultNotificationPreferences(userID, groupID uuid.UUID) *NotificationPreferences {
	p := &NotificationPreferences{
		UserID:      userID,
		GroupID:     groupID,
		QuietStart:  "22:00",
		QuietEnd:    "07:00",
		PushEnabled: true,
	}
	p.SetEnabledTypes(DefaultEnabledNotificationTypes)
	return p
}

func (p *NotificationPreferences) Types() []NotificationType {
	if p.EnabledTypes == "" {
		return nil
	}
	parts := strings.Split(p.EnabledTypes, ",")
	out := make([]NotificationType, 0, len(parts))
	for _, s := range parts {
		out = append(out, NotificationType(s))
	}
	return out
}

func (p *NotificationPreferences) SetEnabledTypes(types []NotificationType) {
	parts := make([]string, len(types))
	for i, t := range types {
		parts[i] = string(t)
	}
	p.EnabledTypes = strings.Join(parts, ",")
}

// Allows reports whether t is on the allow-list. Unknown types never pass.
func (p *NotificationPreferences) Allows(t NotificationType) bool {
	if !t.Valid() {
		return false
	}
	for _, enabled := range p.Types() {
		if enabled == t {
			return true
		}
	}
	return false
}

// Notification DTOs
type NotificationPreferencesView struct {
	EnabledTypes      []NotificationType `json:"enabledTypes"`
	QuietHoursEnabled bool               `json:"quietHoursEnabled"`
	QuietStart        string             `json:"quietStart"`
	QuietEnd          string             `json:"quietEnd"`
	Timezone          string             `json:"timezone"`
	PushEnabled       bool               `json:"pushEnabled"`
	EmailEnabled      bool               `json:"emailEnabled"`
}

func (p *NotificationPreferences) View() NotificationPreferencesView {
	return NotificationPreferencesView{
		EnabledTypes:      p.Types(),
		QuietHoursEnabled: p.QuietHoursEnabled,
		QuietStart:        p.QuietStart,
		QuietEnd:          p.QuietEnd,
		Timezone:          p.Timezone,
		PushEnabled:       p.PushEnabled,
		EmailEnabled:      p.EmailEnabled,
	}
}

type UpdatePreferencesRequest struct {
	EnabledTypes      []NotificationType `json:"enabledTypes"`
	QuietHoursEnabled *bool              `json:"quietHoursEnabled"`
	QuietStart        *string            `json:"quietStart"`
	QuietEnd          *string            `json:"quietEnd"`
	Timezone          *string            `json:"timezone"`
	PushEnabled       *bool              `json:"pushEnabled"`
	EmailEnabled      *bool              `json:"emailEnabled"`
}
