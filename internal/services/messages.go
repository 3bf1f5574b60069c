package services

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/arnold/wellness-api/internal/events"
	"github.com/arnold/wellness-api/internal/models"
	"github.com/arnold/wellness-api/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const maxMessageLength = 2000

// MessageService is the group chat. System messages are posted by the
// pipeline and carry uuid.Nil as sender.
type MessageService struct {
	store      repository.Store
	dispatcher *Dispatcher
	log        *zap.Logger
	clock      Clock
}

func NewMessageService(store repository.Store, dispatcher *Dispatcher, log *zap.Logger, clock Clock) *MessageService {
	if log == nil {
		log = zap.NewNop()
	}
	return &MessageService{store: store, dispatcher: dispatcher, log: log, clock: clock}
}

func (s *MessageService) PostMessage(ctx context.Context, groupID, senderID uuid.UUID, body string) (*models.ChatMessage, SideEffectReport, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, SideEffectReport{}, fmt.Errorf("%w: message body is required", ErrInvalidInput)
	}
	if utf8.RuneCountInString(body) > maxMessageLength {
		return nil, SideEffectReport{}, fmt.Errorf("%w: message is longer than %d characters", ErrInvalidInput, maxMessageLength)
	}
	if _, err := s.store.Members().Get(ctx, groupID, senderID); err != nil {
		return nil, SideEffectReport{}, notMember(err)
	}

	msg := &models.ChatMessage{
		GroupID:   groupID,
		SenderID:  senderID,
		Kind:      models.MessageUser,
		Body:      body,
		CreatedAt: s.clock.now(),
	}
	if err := s.store.Messages().Create(ctx, msg); err != nil {
		return nil, SideEffectReport{}, err
	}

	report := s.dispatcher.Dispatch(ctx, events.Event{
		Type:    events.MessagePosted,
		GroupID: groupID,
		UserID:  senderID,
		Payload: events.MessagePayload{
			MessageID:  msg.ID,
			SenderName: displayName(ctx, s.store, senderID),
			Body:       body,
		},
		OccurredAt: msg.CreatedAt,
	})
	return msg, report, nil
}

func (s *MessageService) PostSystemMessage(ctx context.Context, groupID uuid.UUID, body string) (*models.ChatMessage, error) {
	msg := &models.ChatMessage{
		GroupID:   groupID,
		SenderID:  uuid.Nil,
		Kind:      models.MessageSystem,
		Body:      body,
		CreatedAt: s.clock.now(),
	}
	if err := s.store.Messages().Create(ctx, msg); err != nil {
		return nil, fmt.Errorf("post system message: %w", err)
	}
	return msg, nil
}

// ListMessages returns messages oldest first; a zero since returns the
// whole history.
func (s *MessageService) ListMessages(ctx context.Context, groupID, viewerID uuid.UUID, since time.Time) ([]models.ChatMessage, error) {
	if _, err := s.store.Members().Get(ctx, groupID, viewerID); err != nil {
		return nil, notMember(err)
	}
	msgs, err := s.store.Messages().ListByGroup(ctx, groupID, since)
	if err != nil {
		return nil, err
	}
	if msgs == nil {
		msgs = []models.ChatMessage{}
	}
	return msgs, nil
}
