package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type InvitationStatus string

const (
	InvitationPending  InvitationStatus = "pending"
	InvitationAccepted InvitationStatus = "accepted"
	InvitationRevoked  InvitationStatus = "revoked"
)

// GroupInvitation is a directed invite sent by a sponsor. Joining still
// goes through the group's invite code.
type GroupInvitation struct {
	ID           uuid.UUID        `json:"id" gorm:"type:uuid;primaryKey"`
	GroupID      uuid.UUID        `json:"groupId" gorm:"type:uuid;index;not null"`
	InviterID    uuid.UUID        `json:"inviterId" gorm:"type:uuid;not null"`
	InviteeEmail string           `json:"inviteeEmail"`
	InviteeID    *uuid.UUID       `json:"inviteeId" gorm:"type:uuid"`
	InviteCode   string           `json:"inviteCode" gorm:"size:6;not null"`
	Status       InvitationStatus `json:"status" gorm:"not null;default:'pending'"`
	ExpiresAt    *time.Time       `json:"expiresAt"`
	CreatedAt    time.Time        `json:"createdAt"`
	UpdatedAt    time.Time        `json:"updatedAt"`
}

func (gi *GroupInvitation) BeforeCreate(tx *gorm.DB) error {
	if gi.ID == uuid.Nil {
		gi.ID = uuid.New()
	}
	return nil
}

// IsValid checks if the invitation can still be used
func (gi *GroupInvitation) IsValid(now time.Time) bool {
	if gi.Status != InvitationPending {
		return false
	}
	if gi.ExpiresAt != nil && now.After(*gi.ExpiresAt) {
		return false
	}
	return true
}

type CreateInvitationRequest struct {
	InviteeEmail string     `json:"inviteeEmail"`
	InviteeID    *uuid.UUID `json:"inviteeId"`
	ExpiresIn    int        `json:"expiresIn"` // hours, 0 = never
}
