package rdb

import (
	"context"

	"gorm.io/gorm"

	"yatube/internal/model"
)

type UserRepository struct {
	DB *gorm.DB
}

func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	return r.DB.WithContext(ctx).Create(user).Error
}

func (r *UserRepository) FindByID(ctx context.Context, id uint64) (*model.User, error) {
	var user model.User
	err := r.DB.WithContext(ctx).First(&user, id).Error
	return &user, err
}

// FindByUsername matches the username exactly.
func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	var user model.User
	err := r.DB.WithContext(ctx).Where("username = ?", username).First(&user).Error
	return &user, err
}

func (r *UserRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&model.User{}).Where("username = ?", username).Count(&n).Error
	return n > 0, err
}

// Delete removes the user. Restrict refuses while the user has posts,
// cascade removes the posts first. Returns the number of posts removed.
func (r *UserRepository) Delete(ctx context.Context, id uint64, policy model.DeletePolicy) (int64, error) {
	var removed int64
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user model.User
		if err := tx.First(&user, id).Error; err != nil {
			return err
		}
		var n int64
		if err := tx.Model(&model.Post{}).Where("author_id = ?", id).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			if policy != model.PolicyCascade {
				return ErrInUse
			}
			res := tx.Where("author_id = ?", id).Delete(&model.Post{})
			if res.Error != nil {
				return res.Error
			}
			removed = res.RowsAffected
		}
		return tx.Delete(&user).Error
	})
	return removed, err
}
