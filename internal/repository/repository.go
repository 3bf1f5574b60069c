// Package repository defines the persistence contracts used by the
// engagement services. Services depend on these interfaces only; gormstore
// and memstore provide the implementations.
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/arnold/wellness-api/internal/models"
	"github.com/google/uuid"
)

var (
	ErrNotFound      = errors.New("record not found")
	ErrDuplicate     = errors.New("record already exists")
	ErrGroupFull     = errors.New("group is at capacity")
	ErrGroupInactive = errors.New("group is not active")
)

// Store groups the per-entity repositories behind one transaction boundary.
type Store interface {
	Groups() GroupRepository
	Members() MembershipRepository
	Activities() ActivityRepository
	MemberActivities() MemberActivityRepository
	Achievements() AchievementRepository
	Notifications() NotificationRepository
	Preferences() PreferenceRepository
	Feed() FeedRepository
	Invitations() InvitationRepository
	Messages() MessageRepository
	Users() UserRepository

	// Transaction runs fn against a Store whose writes commit together.
	// Returning an error from fn rolls every write back.
	Transaction(ctx context.Context, fn func(tx Store) error) error
}

type GroupRepository interface {
	Create(ctx context.Context, group *models.Group) error
	Get(ctx context.Context, groupID uuid.UUID) (*models.Group, error)
	// GetForUpdate locks the group row for the rest of the transaction.
	GetForUpdate(ctx context.Context, groupID uuid.UUID) (*models.Group, error)
	GetByInviteCode(ctx context.Context, code string) (*models.Group, error)
	InviteCodeExists(ctx context.Context, code string) (bool, error)
	List(ctx context.Context) ([]models.Group, error)
	ListByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Group, error)
	Update(ctx context.Context, group *models.Group) error
	// IncrementMemberCount adds one member if the group is active and below
	// capacity. It returns ErrGroupFull or ErrGroupInactive otherwise.
	IncrementMemberCount(ctx context.Context, groupID uuid.UUID) error
	DecrementMemberCount(ctx context.Context, groupID uuid.UUID) error
	SetMemberCount(ctx context.Context, groupID uuid.UUID, count int) error
	SetSponsor(ctx context.Context, groupID, sponsorID uuid.UUID) error
	Delete(ctx context.Context, groupID uuid.UUID) error
}

type MembershipRepository interface {
	// Create returns ErrDuplicate when the user already belongs to the group.
	Create(ctx context.Context, member *models.GroupMember) error
	Get(ctx context.Context, groupID, userID uuid.UUID) (*models.GroupMember, error)
	// GetForUpdate locks the membership row for the rest of the transaction.
	GetForUpdate(ctx context.Context, groupID, userID uuid.UUID) (*models.GroupMember, error)
	ListByGroup(ctx context.Context, groupID uuid.UUID) ([]models.GroupMember, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.GroupMember, error)
	Count(ctx context.Context, groupID uuid.UUID) (int, error)
	CountAll(ctx context.Context) (int, error)
	// UpdateStats writes the activity rollup and lastActiveAt only, leaving
	// role and eligibility untouched.
	UpdateStats(ctx context.Context, groupID, userID uuid.UUID, stats models.ActivityStats, lastActiveAt time.Time) error
	SetRole(ctx context.Context, groupID, userID uuid.UUID, role models.MemberRole) error
	Delete(ctx context.Context, groupID, userID uuid.UUID) error
	DeleteByGroup(ctx context.Context, groupID uuid.UUID) (int64, error)
}

type ActivityRepository interface {
	Create(ctx context.Context, activity *models.UserActivity) error
	// ListSince returns the user's entries dated on or after since, newest first.
	ListSince(ctx context.Context, userID uuid.UUID, since string) ([]models.UserActivity, error)
	// PruneBefore deletes the user's entries dated strictly before date.
	PruneBefore(ctx context.Context, userID uuid.UUID, date string) (int64, error)
	RecordTrainingModule(ctx context.Context, userID uuid.UUID, moduleID string, at time.Time) error
	CountTrainingModules(ctx context.Context, userID uuid.UUID) (int, error)
}

type MemberActivityRepository interface {
	Create(ctx context.Context, entry *models.MemberActivityEntry) error
	ListForMember(ctx context.Context, groupID, userID uuid.UUID, since string) ([]models.MemberActivityEntry, error)
	ListForGroup(ctx context.Context, groupID uuid.UUID, since string) ([]models.MemberActivityEntry, error)
	PruneBefore(ctx context.Context, groupID uuid.UUID, date string) (int64, error)
	DeleteByGroup(ctx context.Context, groupID uuid.UUID) (int64, error)
}

type AchievementRepository interface {
	// Create returns ErrDuplicate when the (user, group, type) triple exists.
	Create(ctx context.Context, achievement *models.MemberAchievement) error
	ListForMember(ctx context.Context, groupID, userID uuid.UUID) ([]models.MemberAchievement, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]models.MemberAchievement, error)
	ListForGroup(ctx context.Context, groupID uuid.UUID) ([]models.MemberAchievement, error)
	CountAll(ctx context.Context) (int, error)
}

type NotificationFilter struct {
	GroupID    *uuid.UUID
	UnreadOnly bool
	Limit      int
	Offset     int
}

type NotificationRepository interface {
	Create(ctx context.Context, n *models.GroupNotification) error
	ListForRecipient(ctx context.Context, recipientID uuid.UUID, f NotificationFilter) ([]models.GroupNotification, error)
	CountUnread(ctx context.Context, recipientID uuid.UUID) (int64, error)
	MarkRead(ctx context.Context, recipientID, notificationID uuid.UUID) error
	MarkAllRead(ctx context.Context, recipientID uuid.UUID) (int64, error)
	// DeleteExpired removes non-persistent notifications whose expiry is at or before now.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
	DeleteByGroup(ctx context.Context, groupID uuid.UUID) (int64, error)
}

type PreferenceRepository interface {
	Get(ctx context.Context, userID, groupID uuid.UUID) (*models.NotificationPreferences, error)
	Upsert(ctx context.Context, prefs *models.NotificationPreferences) error
	DeleteByGroup(ctx context.Context, groupID uuid.UUID) (int64, error)
}

type FeedRepository interface {
	Create(ctx context.Context, entry *models.GroupFeedActivity) error
	ListForGroup(ctx context.Context, groupID uuid.UUID, limit int, highlightsOnly bool) ([]models.GroupFeedActivity, error)
	ListForMemberSince(ctx context.Context, groupID, userID uuid.UUID, since time.Time) ([]models.GroupFeedActivity, error)
	PruneBefore(ctx context.Context, groupID uuid.UUID, before time.Time) (int64, error)
	DeleteByGroup(ctx context.Context, groupID uuid.UUID) (int64, error)
}

type InvitationRepository interface {
	Create(ctx context.Context, inv *models.GroupInvitation) error
	Get(ctx context.Context, invitationID uuid.UUID) (*models.GroupInvitation, error)
	ListByGroup(ctx context.Context, groupID uuid.UUID) ([]models.GroupInvitation, error)
	SetStatus(ctx context.Context, invitationID uuid.UUID, status models.InvitationStatus) error
	// AcceptPending marks the user's pending invitations to the group accepted.
	AcceptPending(ctx context.Context, groupID, userID uuid.UUID, email string) (int64, error)
	DeleteByGroup(ctx context.Context, groupID uuid.UUID) (int64, error)
}

type MessageRepository interface {
	Create(ctx context.Context, msg *models.ChatMessage) error
	ListByGroup(ctx context.Context, groupID uuid.UUID, since time.Time) ([]models.ChatMessage, error)
	DeleteByGroup(ctx context.Context, groupID uuid.UUID) (int64, error)
}

type UserRepository interface {
	Get(ctx context.Context, userID uuid.UUID) (*models.UserProfile, error)
	Upsert(ctx context.Context, profile *models.UserProfile) error
	SetFCMToken(ctx context.Context, userID uuid.UUID, token string) error
}
