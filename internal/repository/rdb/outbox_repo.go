package rdb

import (
	"context"

	"gorm.io/gorm"

	"yatube/internal/model"
)

type OutboxRepository struct {
	DB *gorm.DB
}

// List returns pending and failed rows that still have retries left.
func (r *OutboxRepository) List(ctx context.Context, batchSize, maxRetry int) ([]model.PostOutbox, error) {
	var list []model.PostOutbox
	if err := r.DB.WithContext(ctx).
		Where("status IN ? AND retry < ?", []int8{model.OutboxPending, model.OutboxFailed}, maxRetry).
		Order("id ASC").
		Limit(batchSize).
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *OutboxRepository) RetryUpdate(ctx context.Context, id uint64) error {
	return r.DB.WithContext(ctx).Model(&model.PostOutbox{}).Where("id = ?", id).
		Updates(map[string]any{"status": model.OutboxFailed, "retry": gorm.Expr("retry + 1")}).Error
}

func (r *OutboxRepository) SuccessUpdate(ctx context.Context, id uint64) error {
	return r.DB.WithContext(ctx).Model(&model.PostOutbox{}).Where("id = ?", id).
		Update("status", model.OutboxSent).Error
}
