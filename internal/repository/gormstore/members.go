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

type memberRepo struct {
	db *gorm.DB
}

func (r memberRepo) Create(ctx context.Context, member *models.GroupMember) error {
	return translate(r.db.WithContext(ctx).Create(member).Error)
}

func (r memberRepo) Get(ctx context.Context, groupID, userID uuid.UUID) (*models.GroupMember, error) {
	var m models.GroupMember
	if err := r.db.WithContext(ctx).
		Where("group_id = ? AND user_id = ?", groupID, userID).
		First(&m).Error; err != nil {
		return nil, translate(err)
	}
	return &m, nil
}

func (r memberRepo) GetForUpdate(ctx context.Context, groupID, userID uuid.UUID) (*models.GroupMember, error) {
	var m models.GroupMember
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("group_id = ? AND user_id = ?", groupID, userID).
		First(&m).Error; err != nil {
		return nil, translate(err)
	}
	return &m, nil
}

func (r memberRepo) ListByGroup(ctx context.Context, groupID uuid.UUID) ([]models.GroupMember, error) {
	var members []models.GroupMember
	err := r.db.WithContext(ctx).
		Where("group_id = ?", groupID).
		Order("joined_at ASC").
		Find(&members).Error
	return members, err
}

func (r memberRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.GroupMember, error) {
	var members []models.GroupMember
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("joined_at ASC").
		Find(&members).Error
	return members, err
}

func (r memberRepo) Count(ctx context.Context, groupID uuid.UUID) (int, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.GroupMember{}).
		Where("group_id = ?", groupID).
		Count(&count).Error
	return int(count), err
}

func (r memberRepo) CountAll(ctx context.Context) (int, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.GroupMember{}).Count(&count).Error
	return int(count), err
}

func (r memberRepo) UpdateStats(ctx context.Context, groupID, userID uuid.UUID, stats models.ActivityStats, lastActiveAt time.Time) error {
	res := r.db.WithContext(ctx).Model(&models.GroupMember{}).
		Where("group_id = ? AND user_id = ?", groupID, userID).
		Updates(map[string]interface{}{
			"stats_total_steps":        stats.TotalSteps,
			"stats_food_entries":       stats.FoodEntries,
			"stats_training_modules":   stats.TrainingModules,
			"stats_interactions":       stats.Interactions,
			"stats_current_streak":     stats.CurrentStreak,
			"stats_longest_streak":     stats.LongestStreak,
			"stats_last_activity_date": stats.LastActivityDate,
			"last_active_at":           lastActiveAt,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r memberRepo) SetRole(ctx context.Context, groupID, userID uuid.UUID, role models.MemberRole) error {
	res := r.db.WithContext(ctx).Model(&models.GroupMember{}).
		Where("group_id = ? AND user_id = ?", groupID, userID).
		Update("role", role)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r memberRepo) Delete(ctx context.Context, groupID, userID uuid.UUID) error {
	res := r.db.WithContext(ctx).
		Where("group_id = ? AND user_id = ?", groupID, userID).
		Delete(&models.GroupMember{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r memberRepo) DeleteByGroup(ctx context.Context, groupID uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).Where("group_id = ?", groupID).Delete(&models.GroupMember{})
	return res.RowsAffected, res.Error
}
