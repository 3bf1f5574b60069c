package services

import (
	"context"
	"errors"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"github.com/arnold/wellness-api/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

// Pusher delivers a notification to the user's devices.
type Pusher interface {
	Send(ctx context.Context, userID uuid.UUID, title, body string, data map[string]string) error
}

// FCMPusher sends push notifications via Firebase Cloud Messaging to the
// token stored on the user's profile.
type FCMPusher struct {
	client *messaging.Client
	users  repository.UserRepository
	log    *zap.Logger
}

// NewFCMPusher initializes the Firebase messaging client.
// Returns a disabled pusher if no service account is configured (dev mode).
func NewFCMPusher(ctx context.Context, serviceAccountPath string, users repository.UserRepository, log *zap.Logger) *FCMPusher {
	if log == nil {
		log = zap.NewNop()
	}
	p := &FCMPusher{users: users, log: log}
	if serviceAccountPath == "" {
		log.Info("fcm: no service account configured, push notifications disabled")
		return p
	}

	app, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(serviceAccountPath))
	if err != nil {
		log.Warn("fcm: failed to initialize firebase app", zap.Error(err))
		return p
	}
	client, err := app.Messaging(ctx)
	if err != nil {
		log.Warn("fcm: failed to get messaging client", zap.Error(err))
		return p
	}

	p.client = client
	log.Info("fcm: push notifications enabled")
	return p
}

func (p *FCMPusher) Enabled() bool { return p != nil && p.client != nil }

// Send is a no-op if push is not configured or the user has no FCM token.
func (p *FCMPusher) Send(ctx context.Context, userID uuid.UUID, title, body string, data map[string]string) error {
	if !p.Enabled() {
		return nil
	}

	user, err := p.users.Get(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if user.FCMToken == "" {
		return nil
	}

	msg := &messaging.Message{
		Token: user.FCMToken,
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
	}
	if data != nil {
		msg.Data = data
	}

	if _, err := p.client.Send(ctx, msg); err != nil {
		p.log.Warn("fcm: send failed", zap.String("userId", userID.String()), zap.Error(err))
		return err
	}
	return nil
}
