package rdb

import (
	"context"

	"gorm.io/gorm"

	"yatube/internal/model"
)

type GroupRepository struct {
	DB *gorm.DB
}

func (r *GroupRepository) Create(ctx context.Context, group *model.Group) error {
	return r.DB.WithContext(ctx).Create(group).Error
}

func (r *GroupRepository) FindBySlug(ctx context.Context, slug string) (*model.Group, error) {
	var group model.Group
	err := r.DB.WithContext(ctx).Where("slug = ?", slug).First(&group).Error
	return &group, err
}

func (r *GroupRepository) FindByID(ctx context.Context, id uint64) (*model.Group, error) {
	var group model.Group
	err := r.DB.WithContext(ctx).First(&group, id).Error
	return &group, err
}

// List returns every group ordered by title, for the post form selector.
func (r *GroupRepository) List(ctx context.Context) ([]model.Group, error) {
	var list []model.Group
	err := r.DB.WithContext(ctx).Order("title ASC, id ASC").Find(&list).Error
	return list, err
}

// Delete removes the group by slug and applies policy to its posts.
// Returns how many posts were detached or removed.
func (r *GroupRepository) Delete(ctx context.Context, slug string, policy model.DeletePolicy) (int64, error) {
	var affected int64
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var group model.Group
		if err := tx.Where("slug = ?", slug).First(&group).Error; err != nil {
			return err
		}
		posts := tx.Model(&model.Post{}).Where("group_id = ?", group.ID)
		switch policy {
		case model.PolicyRestrict:
			var n int64
			if err := posts.Count(&n).Error; err != nil {
				return err
			}
			if n > 0 {
				return ErrInUse
			}
		case model.PolicyCascade:
			res := tx.Where("group_id = ?", group.ID).Delete(&model.Post{})
			if res.Error != nil {
				return res.Error
			}
			affected = res.RowsAffected
		default:
			res := posts.Update("group_id", nil)
			if res.Error != nil {
				return res.Error
			}
			affected = res.RowsAffected
		}
		return tx.Delete(&group).Error
	})
	return affected, err
}
