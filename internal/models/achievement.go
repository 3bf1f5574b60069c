package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AchievementType string

type AchievementCategory string

const (
	CategoryActivity    AchievementCategory = "activity"
	CategoryConsistency AchievementCategory = "consistency"
	CategorySocial      AchievementCategory = "social"
	CategoryMilestone   AchievementCategory = "milestone"
)

type AchievementDifficulty string

const (
	DifficultyEasy   AchievementDifficulty = "easy"
	DifficultyMedium AchievementDifficulty = "medium"
	DifficultyHard   AchievementDifficulty = "hard"
)

// MemberAchievement is unique per (user, group, type).
type MemberAchievement struct {
	ID             uuid.UUID             `json:"id" gorm:"type:uuid;primaryKey"`
	UserID         uuid.UUID             `json:"userId" gorm:"type:uuid;not null;uniqueIndex:idx_member_achievement"`
	GroupID        uuid.UUID             `json:"groupId" gorm:"type:uuid;not null;uniqueIndex:idx_member_achievement;index"`
	Type           AchievementType       `json:"type" gorm:"not null;uniqueIndex:idx_member_achievement"`
	Title          string                `json:"title" gorm:"not null"`
	Description    string                `json:"description"`
	Icon           string                `json:"icon"`
	Category       AchievementCategory   `json:"category"`
	Difficulty     AchievementDifficulty `json:"difficulty"`
	EarnedAt       time.Time             `json:"earnedAt"`
	VisibleToGroup bool                  `json:"visibleToGroup" gorm:"default:true"`
}

func (a *MemberAchievement) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.EarnedAt.IsZero() {
		a.EarnedAt = time.Now()
	}
	return nil
}

type LeaderboardEntry struct {
	UserID           uuid.UUID                   `json:"userId"`
	DisplayName      string                      `json:"displayName"`
	AchievementCount int                         `json:"achievementCount"`
	ByCategory       map[AchievementCategory]int `json:"byCategory"`
	LatestEarnedAt   time.Time                   `json:"latestEarnedAt"`
}
