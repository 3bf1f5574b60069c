// Package gormstore implements the repository contracts on top of gorm,
// backed by PostgreSQL in production and SQLite for local runs and tests.
package gormstore

import (
	"context"
	"errors"
	"strings"

	"github.com/arnold/wellness-api/internal/repository"
	"gorm.io/gorm"
)

// Ensure Store implements repository.Store
var _ repository.Store = (*Store)(nil)

type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Groups() repository.GroupRepository                { return groupRepo{db: s.db} }
func (s *Store) Members() repository.MembershipRepository           { return memberRepo{db: s.db} }
func (s *Store) Activities() repository.ActivityRepository          { return activityRepo{db: s.db} }
func (s *Store) MemberActivities() repository.MemberActivityRepository {
	return memberActivityRepo{db: s.db}
}
func (s *Store) Achievements() repository.AchievementRepository   { return achievementRepo{db: s.db} }
func (s *Store) Notifications() repository.NotificationRepository { return notificationRepo{db: s.db} }
func (s *Store) Preferences() repository.PreferenceRepository     { return preferenceRepo{db: s.db} }
func (s *Store) Feed() repository.FeedRepository                  { return feedRepo{db: s.db} }
func (s *Store) Invitations() repository.InvitationRepository     { return invitationRepo{db: s.db} }
func (s *Store) Messages() repository.MessageRepository           { return messageRepo{db: s.db} }
func (s *Store) Users() repository.UserRepository                 { return userRepo{db: s.db} }

func (s *Store) Transaction(ctx context.Context, fn func(tx repository.Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx})
	})
}

// translate maps gorm and driver errors onto repository sentinels.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return repository.ErrNotFound
	case isDuplicate(err):
		return repository.ErrDuplicate
	}
	return err
}

func isDuplicate(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value")
}
