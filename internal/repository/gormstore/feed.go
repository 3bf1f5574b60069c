package gormstore

import (
	"context"
	"time"

	"github.com/arnold/wellness-api/internal/models"
	"github.com/arnold/wellness-api/internal/repository"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type feedRepo struct {
	db *gorm.DB
}

func (r feedRepo) Create(ctx context.Context, entry *models.GroupFeedActivity) error {
	return translate(r.db.WithContext(ctx).Create(entry).Error)
}

func (r feedRepo) ListForGroup(ctx context.Context, groupID uuid.UUID, limit int, highlightsOnly bool) ([]models.GroupFeedActivity, error) {
	q := r.db.WithContext(ctx).Where("group_id = ?", groupID)
	if highlightsOnly {
		q = q.Where("is_highlight = ?", true)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	var out []models.GroupFeedActivity
	err := q.Order("created_at DESC").Find(&out).Error
	return out, err
}

func (r feedRepo) ListForMemberSince(ctx context.Context, groupID, userID uuid.UUID, since time.Time) ([]models.GroupFeedActivity, error) {
	var out []models.GroupFeedActivity
	err := r.db.WithContext(ctx).
		Where("group_id = ? AND user_id = ? AND created_at >= ?", groupID, userID, since).
		Order("created_at ASC").
		Find(&out).Error
	return out, err
}

func (r feedRepo) PruneBefore(ctx context.Context, groupID uuid.UUID, before time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("group_id = ? AND created_at < ?", groupID, before).
		Delete(&models.GroupFeedActivity{})
	return res.RowsAffected, res.Error
}

func (r feedRepo) DeleteByGroup(ctx context.Context, groupID uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).Where("group_id = ?", groupID).Delete(&models.GroupFeedActivity{})
	return res.RowsAffected, res.Error
}

type invitationRepo struct {
	db *gorm.DB
}

func (r invitationRepo) Create(ctx context.Context, inv *models.GroupInvitation) error {
	return translate(r.db.WithContext(ctx).Create(inv).Error)
}

func (r invitationRepo) Get(ctx context.Context, invitationID uuid.UUID) (*models.GroupInvitation, error) {
	var inv models.GroupInvitation
	if err := r.db.WithContext(ctx).First(&inv, "id = ?", invitationID).Error; err != nil {
		return nil, translate(err)
	}
	return &inv, nil
}

func (r invitationRepo) ListByGroup(ctx context.Context, groupID uuid.UUID) ([]models.GroupInvitation, error) {
	var out []models.GroupInvitation
	err := r.db.WithContext(ctx).
		Where("group_id = ?", groupID).
		Order("created_at DESC").
		Find(&out).Error
	return out, err
}

func (r invitationRepo) SetStatus(ctx context.Context, invitationID uuid.UUID, status models.InvitationStatus) error {
	res := r.db.WithContext(ctx).Model(&models.GroupInvitation{}).
		Where("id = ?", invitationID).
		Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r invitationRepo) AcceptPending(ctx context.Context, groupID, userID uuid.UUID, email string) (int64, error) {
	q := r.db.WithContext(ctx).Model(&models.GroupInvitation{}).
		Where("group_id = ? AND status = ?", groupID, models.InvitationPending)
	if email != "" {
		q = q.Where("(invitee_id = ? OR LOWER(invitee_email) = LOWER(?))", userID, email)
	} else {
		q = q.Where("invitee_id = ?", userID)
	}
	res := q.Update("status", models.InvitationAccepted)
	return res.RowsAffected, res.Error
}

func (r invitationRepo) DeleteByGroup(ctx context.Context, groupID uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).Where("group_id = ?", groupID).Delete(&models.GroupInvitation{})
	return res.RowsAffected, res.Error
}

type messageRepo struct {
	db *gorm.DB
}

func (r messageRepo) Create(ctx context.Context, msg *models.ChatMessage) error {
	return translate(r.db.WithContext(ctx).Create(msg).Error)
}

func (r messageRepo) ListByGroup(ctx context.Context, groupID uuid.UUID, since time.Time) ([]models.ChatMessage, error) {
	var out []models.ChatMessage
	err := r.db.WithContext(ctx).
		Where("group_id = ? AND created_at >= ?", groupID, since).
		Order("created_at ASC").
		Find(&out).Error
	return out, err
}

func (r messageRepo) DeleteByGroup(ctx context.Context, groupID uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).Where("group_id = ?", groupID).Delete(&models.ChatMessage{})
	return res.RowsAffected, res.Error
}

type userRepo struct {
	db *gorm.DB
}

func (r userRepo) Get(ctx context.Context, userID uuid.UUID) (*models.UserProfile, error) {
	var u models.UserProfile
	if err := r.db.WithContext(ctx).First(&u, "id = ?", userID).Error; err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (r userRepo) Upsert(ctx context.Context, profile *models.UserProfile) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"email", "display_name", "role", "updated_at"}),
	}).Create(profile).Error
}

func (r userRepo) SetFCMToken(ctx context.Context, userID uuid.UUID, token string) error {
	res := r.db.WithContext(ctx).Model(&models.UserProfile{}).
		Where("id = ?", userID).
		Update("fcm_token", token)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return translate(gorm.ErrRecordNotFound)
	}
	return nil
}
