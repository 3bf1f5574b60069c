package gormstore

import (
	"context"

	"github.com/arnold/wellness-api/internal/models"
	"github.com/arnold/wellness-api/internal/repository"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type groupRepo struct {
	db *gorm.DB
}

func (r groupRepo) Create(ctx context.Context, group *models.Group) error {
	return translate(r.db.WithContext(ctx).Create(group).Error)
}

func (r groupRepo) Get(ctx context.Context, groupID uuid.UUID) (*models.Group, error) {
	var g models.Group
	if err := r.db.WithContext(ctx).First(&g, "id = ?", groupID).Error; err != nil {
		return nil, translate(err)
	}
	return &g, nil
}

func (r groupRepo) GetForUpdate(ctx context.Context, groupID uuid.UUID) (*models.Group, error) {
	var g models.Group
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&g, "id = ?", groupID).Error; err != nil {
		return nil, translate(err)
	}
	return &g, nil
}

func (r groupRepo) GetByInviteCode(ctx context.Context, code string) (*models.Group, error) {
	var g models.Group
	if err := r.db.WithContext(ctx).Where("invite_code = ?", code).First(&g).Error; err != nil {
		return nil, translate(err)
	}
	return &g, nil
}

func (r groupRepo) InviteCodeExists(ctx context.Context, code string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Group{}).
		Where("invite_code = ?", code).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r groupRepo) List(ctx context.Context) ([]models.Group, error) {
	var groups []models.Group
	err := r.db.WithContext(ctx).Order("created_at ASC").Find(&groups).Error
	return groups, err
}

func (r groupRepo) ListByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Group, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var groups []models.Group
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Order("created_at ASC").Find(&groups).Error
	return groups, err
}

func (r groupRepo) Update(ctx context.Context, group *models.Group) error {
	res := r.db.WithContext(ctx).Model(group).Select("*").Omit("created_at").Updates(group)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r groupRepo) IncrementMemberCount(ctx context.Context, groupID uuid.UUID) error {
	res := r.db.WithContext(ctx).Model(&models.Group{}).
		Where("id = ? AND status = ? AND current_member_count < max_members", groupID, models.GroupActive).
		UpdateColumn("current_member_count", gorm.Expr("current_member_count + 1"))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 1 {
		return nil
	}

	// Nothing matched: work out which precondition failed.
	g, err := r.Get(ctx, groupID)
	if err != nil {
		return err
	}
	if g.Status != models.GroupActive {
		return repository.ErrGroupInactive
	}
	return repository.ErrGroupFull
}

func (r groupRepo) DecrementMemberCount(ctx context.Context, groupID uuid.UUID) error {
	res := r.db.WithContext(ctx).Model(&models.Group{}).
		Where("id = ? AND current_member_count > 0", groupID).
		UpdateColumn("current_member_count", gorm.Expr("current_member_count - 1"))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		if _, err := r.Get(ctx, groupID); err != nil {
			return err
		}
	}
	return nil
}

func (r groupRepo) SetMemberCount(ctx context.Context, groupID uuid.UUID, count int) error {
	res := r.db.WithContext(ctx).Model(&models.Group{}).
		Where("id = ?", groupID).
		UpdateColumn("current_member_count", count)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r groupRepo) SetSponsor(ctx context.Context, groupID, sponsorID uuid.UUID) error {
	res := r.db.WithContext(ctx).Model(&models.Group{}).
		Where("id = ?", groupID).
		Update("sponsor_id", sponsorID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r groupRepo) Delete(ctx context.Context, groupID uuid.UUID) error {
	res := r.db.WithContext(ctx).Where("id = ?", groupID).Delete(&models.Group{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}
