package memstore

import (
	"context"
	"sort"
	"time"

	"github.com/arnold/wellness-api/internal/models"
	"github.com/arnold/wellness-api/internal/repository"
	"github.com/google/uuid"
)

type groupRepo struct{ s *Store }

func (r groupRepo) Create(ctx context.Context, group *models.Group) error {
	defer r.s.lock()()
	_ = group.BeforeCreate(nil)
	if _, ok := r.s.st.groups[group.ID]; ok {
		return repository.ErrDuplicate
	}
	for _, g := range r.s.st.groups {
		if g.InviteCode == group.InviteCode {
			return repository.ErrDuplicate
		}
	}
	stamp(&group.CreatedAt)
	group.UpdatedAt = group.CreatedAt
	r.s.st.groups[group.ID] = *group
	return nil
}

func (r groupRepo) Get(ctx context.Context, groupID uuid.UUID) (*models.Group, error) {
	defer r.s.lock()()
	g, ok := r.s.st.groups[groupID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &g, nil
}

func (r groupRepo) GetForUpdate(ctx context.Context, groupID uuid.UUID) (*models.Group, error) {
	return r.Get(ctx, groupID)
}

func (r groupRepo) GetByInviteCode(ctx context.Context, code string) (*models.Group, error) {
	defer r.s.lock()()
	for _, g := range r.s.st.groups {
		if g.InviteCode == code {
			g := g
			return &g, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r groupRepo) InviteCodeExists(ctx context.Context, code string) (bool, error) {
	_, err := r.GetByInviteCode(ctx, code)
	if err == repository.ErrNotFound {
		return false, nil
	}
	return err == nil, err
}

func (r groupRepo) List(ctx context.Context) ([]models.Group, error) {
	defer r.s.lock()()
	out := make([]models.Group, 0, len(r.s.st.groups))
	for _, g := range r.s.st.groups {
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r groupRepo) ListByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Group, error) {
	defer r.s.lock()()
	var out []models.Group
	for _, id := range ids {
		if g, ok := r.s.st.groups[id]; ok {
			out = append(out, g)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r groupRepo) Update(ctx context.Context, group *models.Group) error {
	defer r.s.lock()()
	existing, ok := r.s.st.groups[group.ID]
	if !ok {
		return repository.ErrNotFound
	}
	group.CreatedAt = existing.CreatedAt
	group.UpdatedAt = time.Now()
	r.s.st.groups[group.ID] = *group
	return nil
}

func (r groupRepo) IncrementMemberCount(ctx context.Context, groupID uuid.UUID) error {
	defer r.s.lock()()
	g, ok := r.s.st.groups[groupID]
	if !ok {
		return repository.ErrNotFound
	}
	if g.Status != models.GroupActive {
		return repository.ErrGroupInactive
	}
	if g.CurrentMemberCount >= g.MaxMembers {
		return repository.ErrGroupFull
	}
	g.CurrentMemberCount++
	r.s.st.groups[groupID] = g
	return nil
}

func (r groupRepo) DecrementMemberCount(ctx context.Context, groupID uuid.UUID) error {
	defer r.s.lock()()
	g, ok := r.s.st.groups[groupID]
	if !ok {
		return repository.ErrNotFound
	}
	if g.CurrentMemberCount > 0 {
		g.CurrentMemberCount--
	}
	r.s.st.groups[groupID] = g
	return nil
}

func (r groupRepo) SetMemberCount(ctx context.Context, groupID uuid.UUID, count int) error {
	defer r.s.lock()()
	g, ok := r.s.st.groups[groupID]
	if !ok {
		return repository.ErrNotFound
	}
	g.CurrentMemberCount = count
	r.s.st.groups[groupID] = g
	return nil
}

func (r groupRepo) SetSponsor(ctx context.Context, groupID, sponsorID uuid.UUID) error {
	defer r.s.lock()()
	g, ok := r.s.st.groups[groupID]
	if !ok {
		return repository.ErrNotFound
	}
	g.SponsorID = sponsorID
	r.s.st.groups[groupID] = g
	return nil
}

func (r groupRepo) Delete(ctx context.Context, groupID uuid.UUID) error {
	defer r.s.lock()()
	if _, ok := r.s.st.groups[groupID]; !ok {
		return repository.ErrNotFound
	}
	delete(r.s.st.groups, groupID)
	return nil
}

type memberRepo struct{ s *Store }

func (r memberRepo) Create(ctx context.Context, member *models.GroupMember) error {
	defer r.s.lock()()
	key := memberKey{member.GroupID, member.UserID}
	if _, ok := r.s.st.members[key]; ok {
		return repository.ErrDuplicate
	}
	_ = member.BeforeCreate(nil)
	stamp(&member.CreatedAt)
	member.UpdatedAt = member.CreatedAt
	r.s.st.members[key] = *member
	return nil
}

func (r memberRepo) Get(ctx context.Context, groupID, userID uuid.UUID) (*models.GroupMember, error) {
	defer r.s.lock()()
	m, ok := r.s.st.members[memberKey{groupID, userID}]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &m, nil
}

func (r memberRepo) list(match func(models.GroupMember) bool) []models.GroupMember {
	var out []models.GroupMember
	for _, m := range r.s.st.members {
		if match(m) {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].JoinedAt.Equal(out[j].JoinedAt) {
			return out[i].UserID.String() < out[j].UserID.String()
		}
		return out[i].JoinedAt.Before(out[j].JoinedAt)
	})
	return out
}

func (r memberRepo) ListByGroup(ctx context.Context, groupID uuid.UUID) ([]models.GroupMember, error) {
	defer r.s.lock()()
	return r.list(func(m models.GroupMember) bool { return m.GroupID == groupID }), nil
}

func (r memberRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.GroupMember, error) {
	defer r.s.lock()()
	return r.list(func(m models.GroupMember) bool { return m.UserID == userID }), nil
}

func (r memberRepo) Count(ctx context.Context, groupID uuid.UUID) (int, error) {
	defer r.s.lock()()
	return len(r.list(func(m models.GroupMember) bool { return m.GroupID == groupID })), nil
}

func (r memberRepo) CountAll(ctx context.Context) (int, error) {
	defer r.s.lock()()
	return len(r.s.st.members), nil
}

func (r memberRepo) GetForUpdate(ctx context.Context, groupID, userID uuid.UUID) (*models.GroupMember, error) {
	return r.Get(ctx, groupID, userID)
}

func (r memberRepo) UpdateStats(ctx context.Context, groupID, userID uuid.UUID, stats models.ActivityStats, lastActiveAt time.Time) error {
	defer r.s.lock()()
	key := memberKey{groupID, userID}
	m, ok := r.s.st.members[key]
	if !ok {
		return repository.ErrNotFound
	}
	m.Stats = stats
	m.LastActiveAt = lastActiveAt
	m.UpdatedAt = time.Now()
	r.s.st.members[key] = m
	return nil
}

func (r memberRepo) SetRole(ctx context.Context, groupID, userID uuid.UUID, role models.MemberRole) error {
	defer r.s.lock()()
	key := memberKey{groupID, userID}
	m, ok := r.s.st.members[key]
	if !ok {
		return repository.ErrNotFound
	}
	m.Role = role
	r.s.st.members[key] = m
	return nil
}

func (r memberRepo) Delete(ctx context.Context, groupID, userID uuid.UUID) error {
	defer r.s.lock()()
	key := memberKey{groupID, userID}
	if _, ok := r.s.st.members[key]; !ok {
		return repository.ErrNotFound
	}
	delete(r.s.st.members, key)
	return nil
}

func (r memberRepo) DeleteByGroup(ctx context.Context, groupID uuid.UUID) (int64, error) {
	defer r.s.lock()()
	var n int64
	for key := range r.s.st.members {
		if key.GroupID == groupID {
			delete(r.s.st.members, key)
			n++
		}
	}
	return n, nil
}
