package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type UserRole string

const (
	UserRoleGuest       UserRole = "guest"
	UserRoleParticipant UserRole = "participant"
	UserRoleSponsor     UserRole = "sponsor"
	UserRoleAdmin       UserRole = "admin"
	UserRoleSuperAdmin  UserRole = "super_admin"
)

// CanSponsor reports whether the role may own a group once the activity
// and training gates are met.
func (r UserRole) CanSponsor() bool {
	switch r {
	case UserRoleParticipant, UserRoleSponsor, UserRoleAdmin, UserRoleSuperAdmin:
		return true
	default:
		return false
	}
}

// UserProfile mirrors the identity carried in access tokens. Credentials
// live with the identity provider, not here.
type UserProfile struct {
	ID          uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	Email       string    `json:"email" gorm:"index"`
	DisplayName string    `json:"displayName"`
	Role        UserRole  `json:"role" gorm:"not null;default:'participant'"`
	FCMToken    string    `json:"-" gorm:"column:fcm_token"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func (u *UserProfile) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if u.Role == "" {
		u.Role = UserRoleParticipant
	}
	return nil
}

// Name prefers the display name and falls back to the email address.
func (u *UserProfile) Name() string {
	if u.DisplayName != "" {
		return u.DisplayName
	}
	if u.Email != "" {
		return u.Email
	}
	return "A member"
}

type TrainingCompletion struct {
	ID          uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	UserID      uuid.UUID `json:"userId" gorm:"type:uuid;not null;uniqueIndex:idx_user_module"`
	ModuleID    string    `json:"moduleId" gorm:"not null;uniqueIndex:idx_user_module"`
	CompletedAt time.Time `json:"completedAt"`
}

func (t *TrainingCompletion) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	if t.CompletedAt.IsZero() {
		t.CompletedAt = time.Now()
	}
	return nil
}
