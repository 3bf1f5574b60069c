// Package memstore is an in-memory repository.Store. Every call is
// serialized on one mutex; Transaction restores a snapshot when fn fails.
package memstore

import (
	"context"
	"sync"
	"time"

	"github.com/arnold/wellness-api/internal/models"
	"github.com/arnold/wellness-api/internal/repository"
	"github.com/google/uuid"
)

var _ repository.Store = (*Store)(nil)

type memberKey struct {
	GroupID uuid.UUID
	UserID  uuid.UUID
}

type state struct {
	groups        map[uuid.UUID]models.Group
	members       map[memberKey]models.GroupMember
	activities    []models.UserActivity
	training      map[uuid.UUID]map[string]time.Time
	entries       []models.MemberActivityEntry
	achievements  []models.MemberAchievement
	notifications []models.GroupNotification
	prefs         map[memberKey]models.NotificationPreferences
	feed          []models.GroupFeedActivity
	invitations   []models.GroupInvitation
	messages      []models.ChatMessage
	users         map[uuid.UUID]models.UserProfile
}

func newState() *state {
	return &state{
		groups:   make(map[uuid.UUID]models.Group),
		members:  make(map[memberKey]models.GroupMember),
		training: make(map[uuid.UUID]map[string]time.Time),
		prefs:    make(map[memberKey]models.NotificationPreferences),
		users:    make(map[uuid.UUID]models.UserProfile),
	}
}

func (st *state) clone() state {
	out := state{
		groups:        make(map[uuid.UUID]models.Group, len(st.groups)),
		members:       make(map[memberKey]models.GroupMember, len(st.members)),
		activities:    append([]models.UserActivity(nil), st.activities...),
		training:      make(map[uuid.UUID]map[string]time.Time, len(st.training)),
		entries:       append([]models.MemberActivityEntry(nil), st.entries...),
		achievements:  append([]models.MemberAchievement(nil), st.achievements...),
		notifications: append([]models.GroupNotification(nil), st.notifications...),
		prefs:         make(map[memberKey]models.NotificationPreferences, len(st.prefs)),
		feed:          append([]models.GroupFeedActivity(nil), st.feed...),
		invitations:   append([]models.GroupInvitation(nil), st.invitations...),
		messages:      append([]models.ChatMessage(nil), st.messages...),
		users:         make(map[uuid.UUID]models.UserProfile, len(st.users)),
	}
	for k, v := range st.groups {
		out.groups[k] = v
	}
	for k, v := range st.members {
		out.members[k] = v
	}
	for k, v := range st.training {
		modules := make(map[string]time.Time, len(v))
		for m, at := range v {
			modules[m] = at
		}
		out.training[k] = modules
	}
	for k, v := range st.prefs {
		out.prefs[k] = v
	}
	for k, v := range st.users {
		out.users[k] = v
	}
	return out
}

type Store struct {
	mu   *sync.Mutex
	st   *state
	inTx bool
}

func New() *Store {
	return &Store{mu: &sync.Mutex{}, st: newState()}
}

func (s *Store) lock() func() {
	if s.inTx {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func (s *Store) Transaction(ctx context.Context, fn func(tx repository.Store) error) error {
	if s.inTx {
		return fn(s)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.st.clone()
	tx := &Store{mu: s.mu, st: s.st, inTx: true}
	if err := fn(tx); err != nil {
		*s.st = snapshot
		return err
	}
	return nil
}

func (s *Store) Groups() repository.GroupRepository                    { return groupRepo{s} }
func (s *Store) Members() repository.MembershipRepository              { return memberRepo{s} }
func (s *Store) Activities() repository.ActivityRepository             { return activityRepo{s} }
func (s *Store) MemberActivities() repository.MemberActivityRepository { return memberActivityRepo{s} }
func (s *Store) Achievements() repository.AchievementRepository        { return achievementRepo{s} }
func (s *Store) Notifications() repository.NotificationRepository      { return notificationRepo{s} }
func (s *Store) Preferences() repository.PreferenceRepository          { return preferenceRepo{s} }
func (s *Store) Feed() repository.FeedRepository                       { return feedRepo{s} }
func (s *Store) Invitations() repository.InvitationRepository          { return invitationRepo{s} }
func (s *Store) Messages() repository.MessageRepository                { return messageRepo{s} }
func (s *Store) Users() repository.UserRepository                      { return userRepo{s} }

func stamp(t *time.Time) {
	if t.IsZero() {
		*t = time.Now()
	}
}
