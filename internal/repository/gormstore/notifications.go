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

type notificationRepo struct {
	db *gorm.DB
}

func (r notificationRepo) Create(ctx context.Context, n *models.GroupNotification) error {
	return translate(r.db.WithContext(ctx).Create(n).Error)
}

func (r notificationRepo) ListForRecipient(ctx context.Context, recipientID uuid.UUID, f repository.NotificationFilter) ([]models.GroupNotification, error) {
	q := r.db.WithContext(ctx).Where("recipient_id = ?", recipientID)
	if f.GroupID != nil {
		q = q.Where("group_id = ?", *f.GroupID)
	}
	if f.UnreadOnly {
		q = q.Where("read = ?", false)
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}
	if f.Offset > 0 {
		q = q.Offset(f.Offset)
	}

	var out []models.GroupNotification
	err := q.Order("created_at DESC").Find(&out).Error
	return out, err
}

func (r notificationRepo) CountUnread(ctx context.Context, recipientID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.GroupNotification{}).
		Where("recipient_id = ? AND read = ?", recipientID, false).
		Count(&count).Error
	return count, err
}

func (r notificationRepo) MarkRead(ctx context.Context, recipientID, notificationID uuid.UUID) error {
	res := r.db.WithContext(ctx).Model(&models.GroupNotification{}).
		Where("id = ? AND recipient_id = ?", notificationID, recipientID).
		Update("read", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r notificationRepo) MarkAllRead(ctx context.Context, recipientID uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).Model(&models.GroupNotification{}).
		Where("recipient_id = ? AND read = ?", recipientID, false).
		Update("read", true)
	return res.RowsAffected, res.Error
}

func (r notificationRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("persistent = ? AND expires_at IS NOT NULL AND expires_at <= ?", false, now).
		Delete(&models.GroupNotification{})
	return res.RowsAffected, res.Error
}

func (r notificationRepo) DeleteByGroup(ctx context.Context, groupID uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).Where("group_id = ?", groupID).Delete(&models.GroupNotification{})
	return res.RowsAffected, res.Error
}

type preferenceRepo struct {
	db *gorm.DB
}

func (r preferenceRepo) Get(ctx context.Context, userID, groupID uuid.UUID) (*models.NotificationPreferences, error) {
	var p models.NotificationPreferences
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND group_id = ?", userID, groupID).
		First(&p).Error; err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

func (r preferenceRepo) Upsert(ctx context.Context, prefs *models.NotificationPreferences) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "group_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"enabled_types", "quiet_hours_enabled", "quiet_start", "quiet_end",
			"timezone", "push_enabled", "email_enabled", "updated_at",
		}),
	}).Create(prefs).Error
}

func (r preferenceRepo) DeleteByGroup(ctx context.Context, groupID uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).Where("group_id = ?", groupID).Delete(&models.NotificationPreferences{})
	return res.RowsAffected, res.Error
}
