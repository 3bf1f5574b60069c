package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type FeedActivityType string

const (
	FeedStepsLogged       FeedActivityType = "steps_logged"
	FeedStepsMilestone    FeedActivityType = "steps_milestone"
	FeedFoodLogged        FeedActivityType = "food_logged"
	FeedFoodStreak        FeedActivityType = "food_streak"
	FeedTrainingProgress  FeedActivityType = "training_progress"
	FeedTrainingCompleted FeedActivityType = "training_completed"
	FeedMemberJoined      FeedActivityType = "member_joined"
	FeedMemberLeft        FeedActivityType = "member_left"
	FeedAchievementEarned FeedActivityType = "achievement_earned"
	FeedMilestoneReached  FeedActivityType = "milestone_reached"
)

// GroupFeedActivity is an append-only entry in a group's activity feed.
type GroupFeedActivity struct {
	ID          uuid.UUID        `json:"id" gorm:"type:uuid;primaryKey"`
	GroupID     uuid.UUID        `json:"groupId" gorm:"type:uuid;not null;index"`
	UserID      uuid.UUID        `json:"userId" gorm:"type:uuid;not null"`
	Type        FeedActivityType `json:"type" gorm:"not null"`
	Title       string           `json:"title" gorm:"not null"`
	Description string           `json:"description"`
	IsHighlight bool             `json:"isHighlight" gorm:"default:false"`
	Metadata    datatypes.JSON   `json:"metadata,omitempty"`
	CreatedAt   time.Time        `json:"createdAt" gorm:"index"`
}

func (f *GroupFeedActivity) BeforeCreate(tx *gorm.DB) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	return nil
}

// IsMilestoneType reports whether entries of this type count as milestones.
func (t FeedActivityType) IsMilestoneType() bool {
	switch t {
	case FeedStepsMilestone, FeedFoodStreak, FeedTrainingCompleted, FeedMilestoneReached:
		return true
	}
	return false
}
