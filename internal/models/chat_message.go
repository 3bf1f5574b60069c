package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type MessageKind string

const (
	MessageUser   MessageKind = "user"
	MessageSystem MessageKind = "system"
)

type ChatMessage struct {
	ID        uuid.UUID   `json:"id" gorm:"type:uuid;primaryKey"`
	GroupID   uuid.UUID   `json:"groupId" gorm:"type:uuid;index;not null"`
	SenderID  uuid.UUID   `json:"senderId" gorm:"type:uuid"` // uuid.Nil for system messages
	Kind      MessageKind `json:"kind" gorm:"not null;default:'user'"`
	Body      string      `json:"body" gorm:"not null"`
	CreatedAt time.Time   `json:"createdAt" gorm:"index"`
}

func (m *ChatMessage) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

type PostMessageRequest struct {
	Body string `json:"body"`
}
