package memstore

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/arnold/wellness-api/internal/models"
	"github.com/arnold/wellness-api/internal/repository"
	"github.com/google/uuid"
)

type activityRepo struct{ s *Store }

func (r activityRepo) Create(ctx context.Context, activity *models.UserActivity) error {
	defer r.s.lock()()
	_ = activity.BeforeCreate(nil)
	stamp(&activity.CreatedAt)
	r.s.st.activities = append(r.s.st.activities, *activity)
	return nil
}

func (r activityRepo) ListSince(ctx context.Context, userID uuid.UUID, since string) ([]models.UserActivity, error) {
	defer r.s.lock()()
	var out []models.UserActivity
	for _, a := range r.s.st.activities {
		if a.UserID == userID && a.ActivityDate >= since {
			out = append(out, a)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].ActivityDate != out[j].ActivityDate {
			return out[i].ActivityDate > out[j].ActivityDate
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (r activityRepo) PruneBefore(ctx context.Context, userID uuid.UUID, date string) (int64, error) {
	defer r.s.lock()()
	kept := r.s.st.activities[:0]
	var n int64
	for _, a := range r.s.st.activities {
		if a.UserID == userID && a.ActivityDate < date {
			n++
			continue
		}
		kept = append(kept, a)
	}
	r.s.st.activities = kept
	return n, nil
}

func (r activityRepo) RecordTrainingModule(ctx context.Context, userID uuid.UUID, moduleID string, at time.Time) error {
	defer r.s.lock()()
	modules, ok := r.s.st.training[userID]
	if !ok {
		modules = make(map[string]time.Time)
		r.s.st.training[userID] = modules
	}
	if _, done := modules[moduleID]; !done {
		modules[moduleID] = at
	}
	return nil
}

func (r activityRepo) CountTrainingModules(ctx context.Context, userID uuid.UUID) (int, error) {
	defer r.s.lock()()
	return len(r.s.st.training[userID]), nil
}

type memberActivityRepo struct{ s *Store }

func (r memberActivityRepo) Create(ctx context.Context, entry *models.MemberActivityEntry) error {
	defer r.s.lock()()
	_ = entry.BeforeCreate(nil)
	stamp(&entry.CreatedAt)
	r.s.st.entries = append(r.s.st.entries, *entry)
	return nil
}

func (r memberActivityRepo) list(match func(models.MemberActivityEntry) bool) []models.MemberActivityEntry {
	var out []models.MemberActivityEntry
	for _, e := range r.s.st.entries {
		if match(e) {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].ActivityDate != out[j].ActivityDate {
			return out[i].ActivityDate < out[j].ActivityDate
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

func (r memberActivityRepo) ListForMember(ctx context.Context, groupID, userID uuid.UUID, since string) ([]models.MemberActivityEntry, error) {
	defer r.s.lock()()
	return r.list(func(e models.MemberActivityEntry) bool {
		return e.GroupID == groupID && e.UserID == userID && e.ActivityDate >= since
	}), nil
}

func (r memberActivityRepo) ListForGroup(ctx context.Context, groupID uuid.UUID, since string) ([]models.MemberActivityEntry, error) {
	defer r.s.lock()()
	return r.list(func(e models.MemberActivityEntry) bool {
		return e.GroupID == groupID && e.ActivityDate >= since
	}), nil
}

func (r memberActivityRepo) remove(match func(models.MemberActivityEntry) bool) int64 {
	kept := r.s.st.entries[:0]
	var n int64
	for _, e := range r.s.st.entries {
		if match(e) {
			n++
			continue
		}
		kept = append(kept, e)
	}
	r.s.st.entries = kept
	return n
}

func (r memberActivityRepo) PruneBefore(ctx context.Context, groupID uuid.UUID, date string) (int64, error) {
	defer r.s.lock()()
	return r.remove(func(e models.MemberActivityEntry) bool {
		return e.GroupID == groupID && e.ActivityDate < date
	}), nil
}

func (r memberActivityRepo) DeleteByGroup(ctx context.Context, groupID uuid.UUID) (int64, error) {
	defer r.s.lock()()
	return r.remove(func(e models.MemberActivityEntry) bool { return e.GroupID == groupID }), nil
}

type achievementRepo struct{ s *Store }

func (r achievementRepo) Create(ctx context.Context, a *models.MemberAchievement) error {
	defer r.s.lock()()
	for _, existing := range r.s.st.achievements {
		if existing.UserID == a.UserID && existing.GroupID == a.GroupID && existing.Type == a.Type {
			return repository.ErrDuplicate
		}
	}
	_ = a.BeforeCreate(nil)
	stamp(&a.EarnedAt)
	r.s.st.achievements = append(r.s.st.achievements, *a)
	return nil
}

func (r achievementRepo) list(match func(models.MemberAchievement) bool) []models.MemberAchievement {
	var out []models.MemberAchievement
	for _, a := range r.s.st.achievements {
		if match(a) {
			out = append(out, a)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].EarnedAt.Before(out[j].EarnedAt) })
	return out
}

func (r achievementRepo) ListForMember(ctx context.Context, groupID, userID uuid.UUID) ([]models.MemberAchievement, error) {
	defer r.s.lock()()
	return r.list(func(a models.MemberAchievement) bool {
		return a.GroupID == groupID && a.UserID == userID
	}), nil
}

func (r achievementRepo) ListForUser(ctx context.Context, userID uuid.UUID) ([]models.MemberAchievement, error) {
	defer r.s.lock()()
	return r.list(func(a models.MemberAchievement) bool { return a.UserID == userID }), nil
}

func (r achievementRepo) ListForGroup(ctx context.Context, groupID uuid.UUID) ([]models.MemberAchievement, error) {
	defer r.s.lock()()
	return r.list(func(a models.MemberAchievement) bool { return a.GroupID == groupID }), nil
}

func (r achievementRepo) CountAll(ctx context.Context) (int, error) {
	defer r.s.lock()()
	return len(r.s.st.achievements), nil
}

type notificationRepo struct{ s *Store }

func (r notificationRepo) Create(ctx context.Context, n *models.GroupNotification) error {
	defer r.s.lock()()
	_ = n.BeforeCreate(nil)
	stamp(&n.CreatedAt)
	n.UpdatedAt = n.CreatedAt
	r.s.st.notifications = append(r.s.st.notifications, *n)
	return nil
}

func (r notificationRepo) ListForRecipient(ctx context.Context, recipientID uuid.UUID, f repository.NotificationFilter) ([]models.GroupNotification, error) {
	defer r.s.lock()()
	var out []models.GroupNotification
	for _, n := range r.s.st.notifications {
		if n.RecipientID != recipientID {
			continue
		}
		if f.GroupID != nil && n.GroupID != *f.GroupID {
			continue
		}
		if f.UnreadOnly && n.Read {
			continue
		}
		out = append(out, n)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })

	if f.Offset > 0 {
		if f.Offset >= len(out) {
			return nil, nil
		}
		out = out[f.Offset:]
	}
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (r notificationRepo) CountUnread(ctx context.Context, recipientID uuid.UUID) (int64, error) {
	defer r.s.lock()()
	var n int64
	for _, item := range r.s.st.notifications {
		if item.RecipientID == recipientID && !item.Read {
			n++
		}
	}
	return n, nil
}

func (r notificationRepo) MarkRead(ctx context.Context, recipientID, notificationID uuid.UUID) error {
	defer r.s.lock()()
	for i := range r.s.st.notifications {
		n := &r.s.st.notifications[i]
		if n.ID == notificationID && n.RecipientID == recipientID {
			n.Read = true
			n.UpdatedAt = time.Now()
			return nil
		}
	}
	return repository.ErrNotFound
}

func (r notificationRepo) MarkAllRead(ctx context.Context, recipientID uuid.UUID) (int64, error) {
	defer r.s.lock()()
	var count int64
	for i := range r.s.st.notifications {
		n := &r.s.st.notifications[i]
		if n.RecipientID == recipientID && !n.Read {
			n.Read = true
			count++
		}
	}
	return count, nil
}

func (r notificationRepo) remove(match func(models.GroupNotification) bool) int64 {
	kept := r.s.st.notifications[:0]
	var n int64
	for _, item := range r.s.st.notifications {
		if match(item) {
			n++
			continue
		}
		kept = append(kept, item)
	}
	r.s.st.notifications = kept
	return n
}

func (r notificationRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	defer r.s.lock()()
	return r.remove(func(n models.GroupNotification) bool {
		return !n.Persistent && n.ExpiresAt != nil && !n.ExpiresAt.After(now)
	}), nil
}

func (r notificationRepo) DeleteByGroup(ctx context.Context, groupID uuid.UUID) (int64, error) {
	defer r.s.lock()()
	return r.remove(func(n models.GroupNotification) bool { return n.GroupID == groupID }), nil
}

type preferenceRepo struct{ s *Store }

func (r preferenceRepo) Get(ctx context.Context, userID, groupID uuid.UUID) (*models.NotificationPreferences, error) {
	defer r.s.lock()()
	p, ok := r.s.st.prefs[memberKey{groupID, userID}]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &p, nil
}

func (r preferenceRepo) Upsert(ctx context.Context, prefs *models.NotificationPreferences) error {
	defer r.s.lock()()
	key := memberKey{prefs.GroupID, prefs.UserID}
	if existing, ok := r.s.st.prefs[key]; ok {
		prefs.ID = existing.ID
		prefs.CreatedAt = existing.CreatedAt
	} else {
		_ = prefs.BeforeCreate(nil)
		stamp(&prefs.CreatedAt)
	}
	prefs.UpdatedAt = time.Now()
	r.s.st.prefs[key] = *prefs
	return nil
}

func (r preferenceRepo) DeleteByGroup(ctx context.Context, groupID uuid.UUID) (int64, error) {
	defer r.s.lock()()
	var n int64
	for key := range r.s.st.prefs {
		if key.GroupID == groupID {
			delete(r.s.st.prefs, key)
			n++
		}
	}
	return n, nil
}

type feedRepo struct{ s *Store }

func (r feedRepo) Create(ctx context.Context, entry *models.GroupFeedActivity) error {
	defer r.s.lock()()
	_ = entry.BeforeCreate(nil)
	stamp(&entry.CreatedAt)
	r.s.st.feed = append(r.s.st.feed, *entry)
	return nil
}

func (r feedRepo) ListForGroup(ctx context.Context, groupID uuid.UUID, limit int, highlightsOnly bool) ([]models.GroupFeedActivity, error) {
	defer r.s.lock()()
	var out []models.GroupFeedActivity
	for _, f := range r.s.st.feed {
		if f.GroupID != groupID || (highlightsOnly && !f.IsHighlight) {
			continue
		}
		out = append(out, f)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r feedRepo) ListForMemberSince(ctx context.Context, groupID, userID uuid.UUID, since time.Time) ([]models.GroupFeedActivity, error) {
	defer r.s.lock()()
	var out []models.GroupFeedActivity
	for _, f := range r.s.st.feed {
		if f.GroupID == groupID && f.UserID == userID && !f.CreatedAt.Before(since) {
			out = append(out, f)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r feedRepo) remove(match func(models.GroupFeedActivity) bool) int64 {
	kept := r.s.st.feed[:0]
	var n int64
	for _, f := range r.s.st.feed {
		if match(f) {
			n++
			continue
		}
		kept = append(kept, f)
	}
	r.s.st.feed = kept
	return n
}

func (r feedRepo) PruneBefore(ctx context.Context, groupID uuid.UUID, before time.Time) (int64, error) {
	defer r.s.lock()()
	return r.remove(func(f models.GroupFeedActivity) bool {
		return f.GroupID == groupID && f.CreatedAt.Before(before)
	}), nil
}

func (r feedRepo) DeleteByGroup(ctx context.Context, groupID uuid.UUID) (int64, error) {
	defer r.s.lock()()
	return r.remove(func(f models.GroupFeedActivity) bool { return f.GroupID == groupID }), nil
}

type invitationRepo struct{ s *Store }

func (r invitationRepo) Create(ctx context.Context, inv *models.GroupInvitation) error {
	defer r.s.lock()()
	_ = inv.BeforeCreate(nil)
	stamp(&inv.CreatedAt)
	inv.UpdatedAt = inv.CreatedAt
	r.s.st.invitations = append(r.s.st.invitations, *inv)
	return nil
}

func (r invitationRepo) Get(ctx context.Context, invitationID uuid.UUID) (*models.GroupInvitation, error) {
	defer r.s.lock()()
	for _, inv := range r.s.st.invitations {
		if inv.ID == invitationID {
			inv := inv
			return &inv, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r invitationRepo) ListByGroup(ctx context.Context, groupID uuid.UUID) ([]models.GroupInvitation, error) {
	defer r.s.lock()()
	var out []models.GroupInvitation
	for _, inv := range r.s.st.invitations {
		if inv.GroupID == groupID {
			out = append(out, inv)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r invitationRepo) SetStatus(ctx context.Context, invitationID uuid.UUID, status models.InvitationStatus) error {
	defer r.s.lock()()
	for i, inv := range r.s.st.invitations {
		if inv.ID == invitationID {
			r.s.st.invitations[i].Status = status
			r.s.st.invitations[i].UpdatedAt = time.Now()
			return nil
		}
	}
	return repository.ErrNotFound
}

func (r invitationRepo) AcceptPending(ctx context.Context, groupID, userID uuid.UUID, email string) (int64, error) {
	defer r.s.lock()()
	var n int64
	for i, inv := range r.s.st.invitations {
		if inv.GroupID != groupID || inv.Status != models.InvitationPending {
			continue
		}
		byID := inv.InviteeID != nil && *inv.InviteeID == userID
		byEmail := email != "" && strings.EqualFold(inv.InviteeEmail, email)
		if byID || byEmail {
			r.s.st.invitations[i].Status = models.InvitationAccepted
			r.s.st.invitations[i].UpdatedAt = time.Now()
			n++
		}
	}
	return n, nil
}

func (r invitationRepo) DeleteByGroup(ctx context.Context, groupID uuid.UUID) (int64, error) {
	defer r.s.lock()()
	kept := r.s.st.invitations[:0]
	var n int64
	for _, inv := range r.s.st.invitations {
		if inv.GroupID == groupID {
			n++
			continue
		}
		kept = append(kept, inv)
	}
	r.s.st.invitations = kept
	return n, nil
}

type messageRepo struct{ s *Store }

func (r messageRepo) Create(ctx context.Context, msg *models.ChatMessage) error {
	defer r.s.lock()()
	_ = msg.BeforeCreate(nil)
	stamp(&msg.CreatedAt)
	r.s.st.messages = append(r.s.st.messages, *msg)
	return nil
}

func (r messageRepo) ListByGroup(ctx context.Context, groupID uuid.UUID, since time.Time) ([]models.ChatMessage, error) {
	defer r.s.lock()()
	var out []models.ChatMessage
	for _, m := range r.s.st.messages {
		if m.GroupID == groupID && !m.CreatedAt.Before(since) {
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r messageRepo) DeleteByGroup(ctx context.Context, groupID uuid.UUID) (int64, error) {
	defer r.s.lock()()
	kept := r.s.st.messages[:0]
	var n int64
	for _, m := range r.s.st.messages {
		if m.GroupID == groupID {
			n++
			continue
		}
		kept = append(kept, m)
	}
	r.s.st.messages = kept
	return n, nil
}

type userRepo struct{ s *Store }

func (r userRepo) Get(ctx context.Context, userID uuid.UUID) (*models.UserProfile, error) {
	defer r.s.lock()()
	u, ok := r.s.st.users[userID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func (r userRepo) Upsert(ctx context.Context, profile *models.UserProfile) error {
	defer r.s.lock()()
	_ = profile.BeforeCreate(nil)
	if existing, ok := r.s.st.users[profile.ID]; ok {
		profile.CreatedAt = existing.CreatedAt
		if profile.FCMToken == "" {
			profile.FCMToken = existing.FCMToken
		}
	} else {
		stamp(&profile.CreatedAt)
	}
	profile.UpdatedAt = time.Now()
	r.s.st.users[profile.ID] = *profile
	return nil
}

func (r userRepo) SetFCMToken(ctx context.Context, userID uuid.UUID, token string) error {
	defer r.s.lock()()
	u, ok := r.s.st.users[userID]
	if !ok {
		return repository.ErrNotFound
	}
	u.FCMToken = token
	r.s.st.users[userID] = u
	return nil
}
