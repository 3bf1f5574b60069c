// Package events carries domain events produced by committed mutations.
package events

import (
	"context"
	"time"

	"github.com/arnold/wellness-api/internal/models"
	"github.com/google/uuid"
)

type Type string

const (
	MemberJoined      Type = "member_joined"
	MemberLeft        Type = "member_left"
	MemberRemoved     Type = "member_removed"
	OwnershipTransfer Type = "ownership_transferred"
	GroupDeleted      Type = "group_deleted"
	GroupUpdated      Type = "group_updated"
	ActivityLogged    Type = "activity_logged"
	AchievementEarned Type = "achievement_earned"
	MessagePosted     Type = "message_posted"
	InvitationCreated Type = "invitation_created"
)

// Event is produced inside a mutation and dispatched only after it commits.
type Event struct {
	Type       Type        `json:"type"`
	GroupID    uuid.UUID   `json:"groupId"`
	UserID     uuid.UUID   `json:"userId"`
	Payload    interface{} `json:"payload,omitempty"`
	OccurredAt time.Time   `json:"occurredAt"`
}

// Sink receives every dispatched event after in-process handlers ran.
type Sink interface {
	Publish(ctx context.Context, e Event) error
}

type MemberPayload struct {
	DisplayName string    `json:"displayName"`
	GroupName   string    `json:"groupName"`
	ActorID     uuid.UUID `json:"actorId,omitempty"`
}

type OwnershipPayload struct {
	GroupName         string    `json:"groupName"`
	PreviousSponsorID uuid.UUID `json:"previousSponsorId"`
	NewSponsorID      uuid.UUID `json:"newSponsorId"`
}

type GroupPayload struct {
	GroupName string             `json:"groupName"`
	ActorID   uuid.UUID          `json:"actorId"`
	MemberIDs []uuid.UUID        `json:"memberIds,omitempty"`
	Status    models.GroupStatus `json:"status,omitempty"`
}

// ActivityPayload describes one logged member activity and the streak state
// right after it.
type ActivityPayload struct {
	DisplayName   string                  `json:"displayName"`
	ActivityType  models.ActivityType     `json:"activityType"`
	Value         float64                 `json:"value"`
	Metadata      models.ActivityMetadata `json:"metadata,omitempty"`
	CurrentStreak int                     `json:"currentStreak"`
	FoodStreak    int                     `json:"foodStreak"`
	FirstOfDay    bool                    `json:"firstOfDay"`

	// StepsToday includes Value; both are zero for other activity types.
	StepsToday float64 `json:"stepsToday,omitempty"`
	StepGoal   int     `json:"stepGoal,omitempty"`
}

type AchievementPayload struct {
	DisplayName string                   `json:"displayName"`
	Achievement models.MemberAchievement `json:"achievement"`
}

type MessagePayload struct {
	MessageID  uuid.UUID `json:"messageId"`
	SenderName string    `json:"senderName"`
	Body       string    `json:"body"`
}

type InvitationPayload struct {
	Invitation models.GroupInvitation `json:"invitation"`
	GroupName  string                 `json:"groupName"`
}
