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

type activityRepo struct {
	db *gorm.DB
}

func (r activityRepo) Create(ctx context.Context, activity *models.UserActivity) error {
	return translate(r.db.WithContext(ctx).Create(activity).Error)
}

func (r activityRepo) ListSince(ctx context.Context, userID uuid.UUID, since string) ([]models.UserActivity, error) {
	var out []models.UserActivity
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND activity_date >= ?", userID, since).
		Order("activity_date DESC, created_at DESC").
		Find(&out).Error
	return out, err
}

func (r activityRepo) PruneBefore(ctx context.Context, userID uuid.UUID, date string) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND activity_date < ?", userID, date).
		Delete(&models.UserActivity{})
	return res.RowsAffected, res.Error
}

func (r activityRepo) RecordTrainingModule(ctx context.Context, userID uuid.UUID, moduleID string, at time.Time) error {
	tc := models.TrainingCompletion{UserID: userID, ModuleID: moduleID, CompletedAt: at}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&tc).Error
}

func (r activityRepo) CountTrainingModules(ctx context.Context, userID uuid.UUID) (int, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.TrainingCompletion{}).
		Where("user_id = ?", userID).
		Count(&count).Error
	return int(count), err
}

type memberActivityRepo struct {
	db *gorm.DB
}

func (r memberActivityRepo) Create(ctx context.Context, entry *models.MemberActivityEntry) error {
	return translate(r.db.WithContext(ctx).Create(entry).Error)
}

func (r memberActivityRepo) ListForMember(ctx context.Context, groupID, userID uuid.UUID, since string) ([]models.MemberActivityEntry, error) {
	var out []models.MemberActivityEntry
	err := r.db.WithContext(ctx).
		Where("group_id = ? AND user_id = ? AND activity_date >= ?", groupID, userID, since).
		Order("activity_date ASC, created_at ASC").
		Find(&out).Error
	return out, err
}

func (r memberActivityRepo) ListForGroup(ctx context.Context, groupID uuid.UUID, since string) ([]models.MemberActivityEntry, error) {
	var out []models.MemberActivityEntry
	err := r.db.WithContext(ctx).
		Where("group_id = ? AND activity_date >= ?", groupID, since).
		Order("activity_date ASC, created_at ASC").
		Find(&out).Error
	return out, err
}

func (r memberActivityRepo) PruneBefore(ctx context.Context, groupID uuid.UUID, date string) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("group_id = ? AND activity_date < ?", groupID, date).
		Delete(&models.MemberActivityEntry{})
	return res.RowsAffected, res.Error
}

func (r memberActivityRepo) DeleteByGroup(ctx context.Context, groupID uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).Where("group_id = ?", groupID).Delete(&models.MemberActivityEntry{})
	return res.RowsAffected, res.Error
}

type achievementRepo struct {
	db *gorm.DB
}

func (r achievementRepo) Create(ctx context.Context, a *models.MemberAchievement) error {
	return translate(r.db.WithContext(ctx).Create(a).Error)
}

func (r achievementRepo) ListForMember(ctx context.Context, groupID, userID uuid.UUID) ([]models.MemberAchievement, error) {
	var out []models.MemberAchievement
	err := r.db.WithContext(ctx).
		Where("group_id = ? AND user_id = ?", groupID, userID).
		Order("earned_at ASC").
		Find(&out).Error
	return out, err
}

func (r achievementRepo) ListForUser(ctx context.Context, userID uuid.UUID) ([]models.MemberAchievement, error) {
	var out []models.MemberAchievement
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("earned_at ASC").
		Find(&out).Error
	return out, err
}

func (r achievementRepo) ListForGroup(ctx context.Context, groupID uuid.UUID) ([]models.MemberAchievement, error) {
	var out []models.MemberAchievement
	err := r.db.WithContext(ctx).
		Where("group_id = ?", groupID).
		Order("earned_at ASC").
		Find(&out).Error
	return out, err
}

func (r achievementRepo) CountAll(ctx context.Context) (int, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.MemberAchievement{}).Count(&count).Error
	return int(count), err
}

var _ repository.AchievementRepository = achievementRepo{}
