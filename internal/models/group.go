package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type GroupStatus string

const (
	GroupActive   GroupStatus = "active"
	GroupInactive GroupStatus = "inactive"
)

const (
	DefaultMaxMembers          = 10
	DefaultDailyStepGoal       = 8000
	DefaultDailyFoodEntryGoal  = 3
	DefaultWeeklyActiveDayGoal = 5
)

// GroupSettings is embedded into the groups table with a settings_ prefix.
type GroupSettings struct {
	DailyStepGoal       int  `json:"dailyStepGoal"`
	DailyFoodEntryGoal  int  `json:"dailyFoodEntryGoal"`
	WeeklyActiveDayGoal int  `json:"weeklyActiveDayGoal"`
	AllowMemberInvites  bool `json:"allowMemberInvites"`
	NotifyOnJoin        bool `json:"notifyOnJoin"`
	NotifyOnAchievement bool `json:"notifyOnAchievement"`
}

// DefaultGroupSettings returns the settings a new group starts with.
func DefaultGroupSettings() GroupSettings {
	return GroupSettings{
		DailyStepGoal:       DefaultDailyStepGoal,
		DailyFoodEntryGoal:  DefaultDailyFoodEntryGoal,
		WeeklyActiveDayGoal: DefaultWeeklyActiveDayGoal,
		NotifyOnJoin:        true,
		NotifyOnAchievement: true,
	}
}

type Group struct {
	ID                 uuid.UUID     `json:"id" gorm:"type:uuid;primaryKey"`
	Name               string        `json:"name" gorm:"not null"`
	Description        string        `json:"description"`
	InviteCode         string        `json:"inviteCode" gorm:"size:6;uniqueIndex;not null"`
	SponsorID          uuid.UUID     `json:"sponsorId" gorm:"type:uuid;index;not null"`
	MaxMembers         int           `json:"maxMembers" gorm:"not null;default:10"`
	CurrentMemberCount int           `json:"currentMemberCount" gorm:"not null;default:0"`
	Status             GroupStatus   `json:"status" gorm:"not null;default:'active'"`
	Settings           GroupSettings `json:"settings" gorm:"embedded;embeddedPrefix:settings_"`
	CreatedAt          time.Time     `json:"createdAt"`
	UpdatedAt          time.Time     `json:"updatedAt"`
}

func (g *Group) BeforeCreate(tx *gorm.DB) error {
	if g.ID == uuid.Nil {
		g.ID = uuid.New()
	}
	return nil
}

// IsFull reports whether the group has reached its capacity.
func (g *Group) IsFull() bool {
	return g.CurrentMemberCount >= g.MaxMembers
}

// StepGoal falls back to the default when the group never configured one.
func (g *Group) StepGoal() int {
	if g.Settings.DailyStepGoal <= 0 {
		return DefaultDailyStepGoal
	}
	return g.Settings.DailyStepGoal
}

// Group DTOs
type CreateGroupRequest struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	MaxMembers  int            `json:"maxMembers"`
	Settings    *GroupSettings `json:"settings"`
}

type JoinGroupRequest struct {
	InviteCode string `json:"inviteCode"`
}

type UpdateGroupSettingsRequest struct {
	Name        *string        `json:"name"`
	Description *string        `json:"description"`
	Settings    *GroupSettings `json:"settings"`
}

type TransferOwnershipRequest struct {
	NewSponsorID uuid.UUID `json:"newSponsorId"`
}

type UpdateGroupStatusRequest struct {
	Status GroupStatus `json:"status"`
}

type GroupSummary struct {
	ID                 uuid.UUID   `json:"id"`
	Name               string      `json:"name"`
	Role               MemberRole  `json:"role"`
	CurrentMemberCount int         `json:"currentMemberCount"`
	MaxMembers         int         `json:"maxMembers"`
	Status             GroupStatus `json:"status"`
}
