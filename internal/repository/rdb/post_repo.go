package rdb

import (
	"context"
	"encoding/json"
	"time"

	"gorm.io/gorm"

	"yatube/internal/model"
)

type PostRepository struct {
	DB *gorm.DB
}

// PostFilter narrows a listing; zero fields are ignored.
type PostFilter struct {
	GroupID  uint64
	AuthorID uint64
}

func (f PostFilter) apply(q *gorm.DB) *gorm.DB {
	if f.GroupID != 0 {
		q = q.Where("group_id = ?", f.GroupID)
	}
	if f.AuthorID != 0 {
		q = q.Where("author_id = ?", f.AuthorID)
	}
	return q
}

func (r *PostRepository) Count(ctx context.Context, f PostFilter) (int64, error) {
	var n int64
	err := f.apply(r.DB.WithContext(ctx).Model(&model.Post{})).Count(&n).Error
	return n, err
}

// List returns newest first, ties broken by id.
func (r *PostRepository) List(ctx context.Context, f PostFilter, offset, limit int) ([]model.Post, error) {
	var list []model.Post
	err := f.apply(r.DB.WithContext(ctx)).
		Preload("Author").
		Preload("Group").
		Order("pub_date DESC, id DESC").
		Offset(offset).
		Limit(limit).
		Find(&list).Error
	return list, err
}

func (r *PostRepository) FindByID(ctx context.Context, id uint64) (*model.Post, error) {
	var post model.Post
	err := r.DB.WithContext(ctx).
		Preload("Author").
		Preload("Group").
		First(&post, id).Error
	return &post, err
}

func (r *PostRepository) CountByAuthor(ctx context.Context, authorID uint64) (int64, error) {
	return r.Count(ctx, PostFilter{AuthorID: authorID})
}

// AuthorIDs lists the distinct authors of the matching posts.
func (r *PostRepository) AuthorIDs(ctx context.Context, f PostFilter) ([]uint64, error) {
	var ids []uint64
	err := f.apply(r.DB.WithContext(ctx).Model(&model.Post{})).Distinct().Pluck("author_id", &ids).Error
	return ids, err
}

// Create inserts the post and its post_created event atomically.
func (r *PostRepository) Create(ctx context.Context, post *model.Post) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Author", "Group").Create(post).Error; err != nil {
			return err
		}
		return r.insertOutbox(tx, model.EventPostCreated, post)
	})
}

// Update writes the mutable columns only; author and pub_date never change.
func (r *PostRepository) Update(ctx context.Context, post *model.Post) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.Post{ID: post.ID}).
			Select("text", "group_id", "image").
			Updates(map[string]any{
				"text":     post.Text,
				"group_id": post.GroupID,
				"image":    post.Image,
			}).Error; err != nil {
			return err
		}
		return r.insertOutbox(tx, model.EventPostEdited, post)
	})
}

func (r *PostRepository) insertOutbox(tx *gorm.DB, event string, post *model.Post) error {
	payload, err := json.Marshal(map[string]any{
		"event_time": time.Now().UTC().Format(time.RFC3339Nano),
		"post_id":    post.ID,
		"author_id":  post.AuthorID,
		"group_id":   post.GroupID,
		"image":      post.Image,
		"preview":    post.String(),
	})
	if err != nil {
		return err
	}
	ob := &model.PostOutbox{
		EventType: event,
		PostID:    post.ID,
		AuthorID:  post.AuthorID,
		Payload:   string(payload),
		Status:    model.OutboxPending,
	}
	return tx.Create(ob).Error
}
