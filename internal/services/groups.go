package services

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/arnold/wellness-api/internal/events"
	"github.com/arnold/wellness-api/internal/metrics"
	"github.com/arnold/wellness-api/internal/models"
	"github.com/arnold/wellness-api/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	inviteCodeAlphabet    = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	InviteCodeLength      = 6
	maxInviteCodeAttempts = 10
)

// GroupRegistry owns the group and membership lifecycle.
type GroupRegistry struct {
	store      repository.Store
	tracker    *ActivityTracker
	dispatcher *Dispatcher
	log        *zap.Logger
	clock      Clock
	metrics    *metrics.Metrics

	// NewInviteCode is replaceable so collisions can be forced in tests.
	NewInviteCode func() (string, error)
}

func NewGroupRegistry(store repository.Store, tracker *ActivityTracker, dispatcher *Dispatcher, log *zap.Logger, clock Clock, m *metrics.Metrics) *GroupRegistry {
	if log == nil {
		log = zap.NewNop()
	}
	return &GroupRegistry{
		store:         store,
		tracker:       tracker,
		dispatcher:    dispatcher,
		log:           log,
		clock:         clock,
		metrics:       m,
		NewInviteCode: GenerateInviteCode,
	}
}

type JoinResult struct {
	Group       *models.Group       `json:"group"`
	Member      *models.GroupMember `json:"member"`
	SideEffects SideEffectReport    `json:"sideEffects"`
}

// GenerateInviteCode returns 6 random characters from [A-Z0-9].
func GenerateInviteCode() (string, error) {
	b := make([]byte, InviteCodeLength)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	for i := range b {
		b[i] = inviteCodeAlphabet[int(b[i])%len(inviteCodeAlphabet)]
	}
	return string(b), nil
}

// NormalizeInviteCode trims, uppercases and strips one hyphen.
func NormalizeInviteCode(code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	return strings.Replace(code, "-", "", 1)
}

func validInviteCode(code string) bool {
	if len(code) != InviteCodeLength {
		return false
	}
	for _, c := range code {
		if !strings.ContainsRune(inviteCodeAlphabet, c) {
			return false
		}
	}
	return true
}

func (r *GroupRegistry) allocateInviteCode(ctx context.Context) (string, error) {
	for attempt := 0; attempt < maxInviteCodeAttempts; attempt++ {
		code, err := r.NewInviteCode()
		if err != nil {
			return "", fmt.Errorf("generate invite code: %w", err)
		}
		exists, err := r.store.Groups().InviteCodeExists(ctx, code)
		if err != nil {
			return "", err
		}
		if !exists {
			return code, nil
		}
		r.log.Debug("invite code collision", zap.String("code", code), zap.Int("attempt", attempt+1))
	}
	return "", ErrInviteCodeExhausted
}

func (r *GroupRegistry) CreateGroup(ctx context.Context, req models.CreateGroupRequest, sponsorID uuid.UUID) (*models.Group, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if req.MaxMembers < 0 {
		return nil, fmt.Errorf("%w: maxMembers must be positive", ErrInvalidInput)
	}

	eligibility, err := r.CheckEligibility(ctx, sponsorID)
	if err != nil {
		return nil, err
	}
	if !eligibility.Eligible {
		return nil, fmt.Errorf("%w: %s", ErrNotEligible, strings.Join(eligibility.Reasons, "; "))
	}

	code, err := r.allocateInviteCode(ctx)
	if err != nil {
		return nil, err
	}

	settings := models.DefaultGroupSettings()
	if req.Settings != nil {
		settings = withDefaults(*req.Settings)
	}
	maxMembers := req.MaxMembers
	if maxMembers == 0 {
		maxMembers = models.DefaultMaxMembers
	}

	now := r.clock.now()
	group := &models.Group{
		Name:               name,
		Description:        strings.TrimSpace(req.Description),
		InviteCode:         code,
		SponsorID:          sponsorID,
		MaxMembers:         maxMembers,
		CurrentMemberCount: 1,
		Status:             models.GroupActive,
		Settings:           settings,
		CreatedAt:          now,
	}

	err = r.store.Transaction(ctx, func(tx repository.Store) error {
		if err := tx.Groups().Create(ctx, group); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return ErrInviteCodeExhausted
			}
			return err
		}
		return tx.Members().Create(ctx, &models.GroupMember{
			GroupID:      group.ID,
			UserID:       sponsorID,
			Role:         models.RoleSponsor,
			JoinedAt:     now,
			LastActiveAt: now,
			IsEligible:   true,
			CreatedAt:    now,
		})
	})
	if err != nil {
		return nil, fmt.Errorf("create group: %w", err)
	}

	r.log.Info("group created",
		zap.String("groupId", group.ID.String()),
		zap.String("sponsorId", sponsorID.String()),
		zap.String("inviteCode", code),
	)
	return group, nil
}

func withDefaults(s models.GroupSettings) models.GroupSettings {
	if s.DailyStepGoal <= 0 {
		s.DailyStepGoal = models.DefaultDailyStepGoal
	}
	if s.DailyFoodEntryGoal <= 0 {
		s.DailyFoodEntryGoal = models.DefaultDailyFoodEntryGoal
	}
	if s.WeeklyActiveDayGoal <= 0 {
		s.WeeklyActiveDayGoal = models.DefaultWeeklyActiveDayGoal
	}
	return s
}

// JoinGroup adds userID to the active group behind the invite code. The
// capacity check and the membership insert commit together.
func (r *GroupRegistry) JoinGroup(ctx context.Context, req models.JoinGroupRequest, userID uuid.UUID) (*JoinResult, error) {
	code := NormalizeInviteCode(req.InviteCode)
	if !validInviteCode(code) {
		r.metrics.Join("invalid_code")
		return nil, ErrInvalidInviteCode
	}

	group, err := r.store.Groups().GetByInviteCode(ctx, code)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			r.metrics.Join("invalid_code")
			return nil, ErrInvalidInviteCode
		}
		return nil, err
	}

	now := r.clock.now()
	member := &models.GroupMember{
		GroupID:      group.ID,
		UserID:       userID,
		Role:         models.RoleMember,
		JoinedAt:     now,
		LastActiveAt: now,
		CreatedAt:    now,
	}

	err = r.store.Transaction(ctx, func(tx repository.Store) error {
		locked, err := tx.Groups().GetForUpdate(ctx, group.ID)
		if err != nil {
			return err
		}
		if locked.Status != models.GroupActive {
			return ErrInvalidInviteCode
		}
		if locked.IsFull() {
			return ErrGroupFull
		}
		if _, err := tx.Members().Get(ctx, group.ID, userID); err == nil {
			return ErrAlreadyMember
		} else if !errors.Is(err, repository.ErrNotFound) {
			return err
		}

		if err := tx.Groups().IncrementMemberCount(ctx, group.ID); err != nil {
			switch {
			case errors.Is(err, repository.ErrGroupFull):
				return ErrGroupFull
			case errors.Is(err, repository.ErrGroupInactive):
				return ErrInvalidInviteCode
			}
			return err
		}
		if err := tx.Members().Create(ctx, member); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return ErrAlreadyMember
			}
			return err
		}

		var email string
		if profile, err := tx.Users().Get(ctx, userID); err == nil {
			email = profile.Email
		}
		if _, err := tx.Invitations().AcceptPending(ctx, group.ID, userID, email); err != nil {
			return fmt.Errorf("accept invitations: %w", err)
		}

		group, err = tx.Groups().Get(ctx, group.ID)
		return err
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrGroupFull):
			r.metrics.Join("full")
		case errors.Is(err, ErrAlreadyMember):
			r.metrics.Join("already_member")
		case errors.Is(err, ErrInvalidInviteCode):
			r.metrics.Join("invalid_code")
		default:
			r.metrics.Join("error")
		}
		return nil, err
	}
	r.metrics.Join("joined")

	r.log.Info("member joined",
		zap.String("groupId", group.ID.String()),
		zap.String("userId", userID.String()),
		zap.Int("memberCount", group.CurrentMemberCount),
	)

	report := r.dispatcher.Dispatch(ctx, events.Event{
		Type:    events.MemberJoined,
		GroupID: group.ID,
		UserID:  userID,
		Payload: events.MemberPayload{
			DisplayName: displayName(ctx, r.store, userID),
			GroupName:   group.Name,
		},
		OccurredAt: now,
	})

	return &JoinResult{Group: group, Member: member, SideEffects: report}, nil
}

// RemoveMember lets the sponsor remove another member.
func (r *GroupRegistry) RemoveMember(ctx context.Context, groupID, sponsorID, targetID uuid.UUID) (SideEffectReport, error) {
	var group *models.Group
	err := r.store.Transaction(ctx, func(tx repository.Store) error {
		var err error
		group, err = r.requireSponsor(ctx, tx, groupID, sponsorID)
		if err != nil {
			return err
		}
		if targetID == group.SponsorID {
			return ErrCannotRemoveSponsor
		}
		return r.deleteMembership(ctx, tx, groupID, targetID)
	})
	if err != nil {
		return SideEffectReport{}, err
	}

	r.log.Info("member removed",
		zap.String("groupId", groupID.String()),
		zap.String("userId", targetID.String()),
	)
	return r.dispatcher.Dispatch(ctx, events.Event{
		Type:    events.MemberRemoved,
		GroupID: groupID,
		UserID:  targetID,
		Payload: events.MemberPayload{
			DisplayName: displayName(ctx, r.store, targetID),
			GroupName:   group.Name,
			ActorID:     sponsorID,
		},
		OccurredAt: r.clock.now(),
	}), nil
}

func (r *GroupRegistry) LeaveGroup(ctx context.Context, groupID, userID uuid.UUID) (SideEffectReport, error) {
	var group *models.Group
	err := r.store.Transaction(ctx, func(tx repository.Store) error {
		var err error
		group, err = tx.Groups().GetForUpdate(ctx, groupID)
		if err != nil {
			return notFound(err)
		}
		member, err := tx.Members().Get(ctx, groupID, userID)
		if err != nil {
			return notMember(err)
		}
		if member.IsSponsor() || group.SponsorID == userID {
			return ErrSponsorCannotLeave
		}
		return r.deleteMembership(ctx, tx, groupID, userID)
	})
	if err != nil {
		return SideEffectReport{}, err
	}

	r.log.Info("member left",
		zap.String("groupId", groupID.String()),
		zap.String("userId", userID.String()),
	)
	return r.dispatcher.Dispatch(ctx, events.Event{
		Type:    events.MemberLeft,
		GroupID: groupID,
		UserID:  userID,
		Payload: events.MemberPayload{
			DisplayName: displayName(ctx, r.store, userID),
			GroupName:   group.Name,
		},
		OccurredAt: r.clock.now(),
	}), nil
}

func (r *GroupRegistry) deleteMembership(ctx context.Context, tx repository.Store, groupID, userID uuid.UUID) error {
	if err := tx.Members().Delete(ctx, groupID, userID); err != nil {
		return notMember(err)
	}
	return tx.Groups().DecrementMemberCount(ctx, groupID)
}

// TransferOwnership swaps the sponsor and member roles of exactly two rows
// and repoints the group's sponsor, all in one transaction.
func (r *GroupRegistry) TransferOwnership(ctx context.Context, groupID, currentSponsorID, newSponsorID uuid.UUID) (SideEffectReport, error) {
	if currentSponsorID == newSponsorID {
		return SideEffectReport{}, ErrSameSponsor
	}

	var group *models.Group
	err := r.store.Transaction(ctx, func(tx repository.Store) error {
		var err error
		group, err = r.requireSponsor(ctx, tx, groupID, currentSponsorID)
		if err != nil {
			return err
		}
		if _, err := tx.Members().Get(ctx, groupID, newSponsorID); err != nil {
			return notMember(err)
		}
		if err := tx.Members().SetRole(ctx, groupID, currentSponsorID, models.RoleMember); err != nil {
			return err
		}
		if err := tx.Members().SetRole(ctx, groupID, newSponsorID, models.RoleSponsor); err != nil {
			return err
		}
		return tx.Groups().SetSponsor(ctx, groupID, newSponsorID)
	})
	if err != nil {
		return SideEffectReport{}, err
	}

	r.log.Info("ownership transferred",
		zap.String("groupId", groupID.String()),
		zap.String("from", currentSponsorID.String()),
		zap.String("to", newSponsorID.String()),
	)
	return r.dispatcher.Dispatch(ctx, events.Event{
		Type:    events.OwnershipTransfer,
		GroupID: groupID,
		UserID:  newSponsorID,
		Payload: events.OwnershipPayload{
			GroupName:         group.Name,
			PreviousSponsorID: currentSponsorID,
			NewSponsorID:      newSponsorID,
		},
		OccurredAt: r.clock.now(),
	}), nil
}

// DeleteGroup removes the group and every group-scoped row.
func (r *GroupRegistry) DeleteGroup(ctx context.Context, groupID, callerID uuid.UUID) (SideEffectReport, error) {
	var (
		group     *models.Group
		memberIDs []uuid.UUID
	)
	err := r.store.Transaction(ctx, func(tx repository.Store) error {
		var err error
		group, err = r.requireSponsor(ctx, tx, groupID, callerID)
		if err != nil {
			return err
		}
		members, err := tx.Members().ListByGroup(ctx, groupID)
		if err != nil {
			return err
		}
		for _, m := range members {
			memberIDs = append(memberIDs, m.UserID)
		}

		cascade := []struct {
			name string
			fn   func(context.Context, uuid.UUID) (int64, error)
		}{
			{"members", tx.Members().DeleteByGroup},
			{"invitations", tx.Invitations().DeleteByGroup},
			{"feed", tx.Feed().DeleteByGroup},
			{"member activity", tx.MemberActivities().DeleteByGroup},
			{"messages", tx.Messages().DeleteByGroup},
			{"preferences", tx.Preferences().DeleteByGroup},
			{"notifications", tx.Notifications().DeleteByGroup},
		}
		for _, step := range cascade {
			if _, err := step.fn(ctx, groupID); err != nil {
				return fmt.Errorf("delete %s: %w", step.name, err)
			}
		}
		return tx.Groups().Delete(ctx, groupID)
	})
	if err != nil {
		return SideEffectReport{}, err
	}

	r.log.Info("group deleted",
		zap.String("groupId", groupID.String()),
		zap.Int("members", len(memberIDs)),
	)
	return r.dispatcher.Dispatch(ctx, events.Event{
		Type:    events.GroupDeleted,
		GroupID: groupID,
		UserID:  callerID,
		Payload: events.GroupPayload{
			GroupName: group.Name,
			ActorID:   callerID,
			MemberIDs: memberIDs,
		},
		OccurredAt: r.clock.now(),
	}), nil
}

// SetStatus moves a group between active and inactive. Inactive groups
// reject joins.
func (r *GroupRegistry) SetStatus(ctx context.Context, groupID, callerID uuid.UUID, status models.GroupStatus) (*models.Group, error) {
	if status != models.GroupActive && status != models.GroupInactive {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, status)
	}

	var group *models.Group
	err := r.store.Transaction(ctx, func(tx repository.Store) error {
		var err error
		group, err = r.requireSponsor(ctx, tx, groupID, callerID)
		if err != nil {
			return err
		}
		group.Status = status
		return tx.Groups().Update(ctx, group)
	})
	if err != nil {
		return nil, err
	}

	r.dispatcher.Dispatch(ctx, events.Event{
		Type:       events.GroupUpdated,
		GroupID:    groupID,
		UserID:     callerID,
		Payload:    events.GroupPayload{GroupName: group.Name, ActorID: callerID, Status: status},
		OccurredAt: r.clock.now(),
	})
	return group, nil
}

func (r *GroupRegistry) UpdateSettings(ctx context.Context, groupID, callerID uuid.UUID, req models.UpdateGroupSettingsRequest) (*models.Group, error) {
	if req.Name != nil && strings.TrimSpace(*req.Name) == "" {
		return nil, fmt.Errorf("%w: name cannot be empty", ErrInvalidInput)
	}

	var group *models.Group
	err := r.store.Transaction(ctx, func(tx repository.Store) error {
		var err error
		group, err = r.requireSponsor(ctx, tx, groupID, callerID)
		if err != nil {
			return err
		}
		if req.Name != nil {
			group.Name = strings.TrimSpace(*req.Name)
		}
		if req.Description != nil {
			group.Description = strings.TrimSpace(*req.Description)
		}
		if req.Settings != nil {
			group.Settings = withDefaults(*req.Settings)
		}
		return tx.Groups().Update(ctx, group)
	})
	if err != nil {
		return nil, err
	}

	r.dispatcher.Dispatch(ctx, events.Event{
		Type:       events.GroupUpdated,
		GroupID:    groupID,
		UserID:     callerID,
		Payload:    events.GroupPayload{GroupName: group.Name, ActorID: callerID, Status: group.Status},
		OccurredAt: r.clock.now(),
	})
	return group, nil
}

// GetGroup returns the group if viewerID belongs to it.
func (r *GroupRegistry) GetGroup(ctx context.Context, groupID, viewerID uuid.UUID) (*models.Group, error) {
	group, err := r.store.Groups().Get(ctx, groupID)
	if err != nil {
		return nil, notFound(err)
	}
	if _, err := r.store.Members().Get(ctx, groupID, viewerID); err != nil {
		return nil, notMember(err)
	}
	return group, nil
}

func (r *GroupRegistry) ListUserGroups(ctx context.Context, userID uuid.UUID) ([]models.GroupSummary, error) {
	memberships, err := r.store.Members().ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(memberships) == 0 {
		return []models.GroupSummary{}, nil
	}

	roles := make(map[uuid.UUID]models.MemberRole, len(memberships))
	ids := make([]uuid.UUID, 0, len(memberships))
	for _, m := range memberships {
		roles[m.GroupID] = m.Role
		ids = append(ids, m.GroupID)
	}

	groups, err := r.store.Groups().ListByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make([]models.GroupSummary, 0, len(groups))
	for _, g := range groups {
		out = append(out, models.GroupSummary{
			ID:                 g.ID,
			Name:               g.Name,
			Role:               roles[g.ID],
			CurrentMemberCount: g.CurrentMemberCount,
			MaxMembers:         g.MaxMembers,
			Status:             g.Status,
		})
	}
	return out, nil
}

func (r *GroupRegistry) ListMembers(ctx context.Context, groupID, viewerID uuid.UUID) ([]models.MemberInfo, error) {
	if _, err := r.GetGroup(ctx, groupID, viewerID); err != nil {
		return nil, err
	}
	members, err := r.store.Members().ListByGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	out := make([]models.MemberInfo, 0, len(members))
	for _, m := range members {
		out = append(out, models.MemberInfo{
			UserID:       m.UserID,
			DisplayName:  displayName(ctx, r.store, m.UserID),
			Role:         m.Role,
			JoinedAt:     m.JoinedAt,
			LastActiveAt: m.LastActiveAt,
			Stats:        m.Stats,
		})
	}
	return out, nil
}

// CreateInvitation records a directed invite. Sponsors may always invite;
// members only when the group allows member invites.
func (r *GroupRegistry) CreateInvitation(ctx context.Context, groupID, inviterID uuid.UUID, req models.CreateInvitationRequest) (*models.GroupInvitation, error) {
	if strings.TrimSpace(req.InviteeEmail) == "" && req.InviteeID == nil {
		return nil, fmt.Errorf("%w: inviteeEmail or inviteeId is required", ErrInvalidInput)
	}

	group, err := r.GetGroup(ctx, groupID, inviterID)
	if err != nil {
		return nil, err
	}
	if group.SponsorID != inviterID && !group.Settings.AllowMemberInvites {
		return nil, ErrNotSponsor
	}
	if group.Status != models.GroupActive {
		return nil, ErrGroupInactive
	}

	now := r.clock.now()
	inv := &models.GroupInvitation{
		GroupID:      groupID,
		InviterID:    inviterID,
		InviteeEmail: strings.TrimSpace(req.InviteeEmail),
		InviteeID:    req.InviteeID,
		InviteCode:   group.InviteCode,
		Status:       models.InvitationPending,
		CreatedAt:    now,
	}
	if req.ExpiresIn > 0 {
		exp := now.Add(time.Duration(req.ExpiresIn) * time.Hour)
		inv.ExpiresAt = &exp
	}

	if err := r.store.Invitations().Create(ctx, inv); err != nil {
		return nil, fmt.Errorf("create invitation: %w", err)
	}

	r.dispatcher.Dispatch(ctx, events.Event{
		Type:       events.InvitationCreated,
		GroupID:    groupID,
		UserID:     inviterID,
		Payload:    events.InvitationPayload{Invitation: *inv, GroupName: group.Name},
		OccurredAt: now,
	})
	return inv, nil
}

func (r *GroupRegistry) ListInvitations(ctx context.Context, groupID, callerID uuid.UUID) ([]models.GroupInvitation, error) {
	if _, err := r.requireSponsor(ctx, r.store, groupID, callerID); err != nil {
		return nil, err
	}
	return r.store.Invitations().ListByGroup(ctx, groupID)
}

// RevokeInvitation withdraws a pending invitation (sponsor only).
func (r *GroupRegistry) RevokeInvitation(ctx context.Context, groupID, callerID, invitationID uuid.UUID) (*models.GroupInvitation, error) {
	if _, err := r.requireSponsor(ctx, r.store, groupID, callerID); err != nil {
		return nil, err
	}
	inv, err := r.store.Invitations().Get(ctx, invitationID)
	if errors.Is(err, repository.ErrNotFound) || (err == nil && inv.GroupID != groupID) {
		return nil, ErrInvitationMissing
	}
	if err != nil {
		return nil, err
	}
	if inv.Status != models.InvitationPending {
		return nil, ErrInvitationClosed
	}
	if err := r.store.Invitations().SetStatus(ctx, invitationID, models.InvitationRevoked); err != nil {
		return nil, fmt.Errorf("revoke invitation: %w", err)
	}
	inv.Status = models.InvitationRevoked
	return inv, nil
}

// ReconcileMemberCount resets the cached member count to the number of
// membership rows and returns the corrected value.
func (r *GroupRegistry) ReconcileMemberCount(ctx context.Context, groupID uuid.UUID) (int, error) {
	var count int
	err := r.store.Transaction(ctx, func(tx repository.Store) error {
		group, err := tx.Groups().GetForUpdate(ctx, groupID)
		if err != nil {
			return notFound(err)
		}
		count, err = tx.Members().Count(ctx, groupID)
		if err != nil {
			return err
		}
		if count == group.CurrentMemberCount {
			return nil
		}
		r.log.Warn("member count drift",
			zap.String("groupId", groupID.String()),
			zap.Int("stored", group.CurrentMemberCount),
			zap.Int("actual", count),
		)
		return tx.Groups().SetMemberCount(ctx, groupID, count)
	})
	return count, err
}

// ReconcileAll runs ReconcileMemberCount over every group and returns how
// many were visited.
func (r *GroupRegistry) ReconcileAll(ctx context.Context) (int, error) {
	groups, err := r.store.Groups().List(ctx)
	if err != nil {
		return 0, err
	}
	for _, g := range groups {
		if _, err := r.ReconcileMemberCount(ctx, g.ID); err != nil {
			r.log.Warn("reconcile member count", zap.String("groupId", g.ID.String()), zap.Error(err))
		}
	}
	return len(groups), nil
}

func (r *GroupRegistry) requireSponsor(ctx context.Context, tx repository.Store, groupID, userID uuid.UUID) (*models.Group, error) {
	group, err := tx.Groups().GetForUpdate(ctx, groupID)
	if err != nil {
		return nil, notFound(err)
	}
	if group.SponsorID != userID {
		return nil, ErrNotSponsor
	}
	member, err := tx.Members().Get(ctx, groupID, userID)
	if err != nil || !member.IsSponsor() {
		return nil, ErrNotSponsor
	}
	return group, nil
}

func notFound(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return ErrGroupNotFound
	}
	return err
}

func notMember(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNotMember
	}
	return err
}

func displayName(ctx context.Context, store repository.Store, userID uuid.UUID) string {
	profile, err := store.Users().Get(ctx, userID)
	if err != nil {
		return "A member"
	}
	return profile.Name()
}
