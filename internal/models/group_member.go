package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type MemberRole string

const (
	RoleMember  MemberRole = "member"
	RoleSponsor MemberRole = "sponsor"
)

// ActivityStats is the rollup kept on each membership row.
type ActivityStats struct {
	TotalSteps       int64  `json:"totalSteps"`
	FoodEntries      int    `json:"foodEntries"`
	TrainingModules  int    `json:"trainingModules"`
	Interactions     int    `json:"interactions"`
	CurrentStreak    int    `json:"currentStreak"`
	LongestStreak    int    `json:"longestStreak"`
	LastActivityDate string `json:"lastActivityDate"`
}

type GroupMember struct {
	ID           uuid.UUID     `json:"id" gorm:"type:uuid;primaryKey"`
	GroupID      uuid.UUID     `json:"groupId" gorm:"type:uuid;not null;uniqueIndex:idx_group_member"`
	UserID       uuid.UUID     `json:"userId" gorm:"type:uuid;not null;uniqueIndex:idx_group_member;index"`
	Role         MemberRole    `json:"role" gorm:"not null;default:'member'"`
	JoinedAt     time.Time     `json:"joinedAt"`
	LastActiveAt time.Time     `json:"lastActiveAt"`
	Stats        ActivityStats `json:"activityStats" gorm:"embedded;embeddedPrefix:stats_"`
	IsEligible   bool          `json:"isEligible"`
	CreatedAt    time.Time     `json:"createdAt"`
	UpdatedAt    time.Time     `json:"updatedAt"`
}

func (gm *GroupMember) BeforeCreate(tx *gorm.DB) error {
	if gm.ID == uuid.Nil {
		gm.ID = uuid.New()
	}
	if gm.JoinedAt.IsZero() {
		gm.JoinedAt = time.Now()
	}
	if gm.LastActiveAt.IsZero() {
		gm.LastActiveAt = gm.JoinedAt
	}
	return nil
}

func (gm *GroupMember) IsSponsor() bool {
	return gm.Role == RoleSponsor
}

type MemberInfo struct {
	UserID       uuid.UUID     `json:"userId"`
	DisplayName  string        `json:"displayName"`
	Role         MemberRole    `json:"role"`
	JoinedAt     time.Time     `json:"joinedAt"`
	LastActiveAt time.Time     `json:"lastActiveAt"`
	Stats        ActivityStats `json:"activityStats"`
}
