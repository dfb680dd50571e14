package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"gorm.io/gorm"

	"yatube/internal/model"
	"yatube/internal/repository/rdb"
)

var slugPattern = regexp.MustCompile(`^[-a-zA-Z0-9_]{1,50}$`)

type GroupService struct {
	groups *rdb.GroupRepository
	posts  *rdb.PostRepository
	counts CountCache
}

func NewGroupService(db *gorm.DB, counts CountCache) *GroupService {
	return &GroupService{
		groups: &rdb.GroupRepository{DB: db},
		posts:  &rdb.PostRepository{DB: db},
		counts: counts,
	}
}

// List returns all groups ordered by title.
func (s *GroupService) List(ctx context.Context) ([]model.Group, error) {
	return s.groups.List(ctx)
}

func (s *GroupService) Get(ctx context.Context, id uint64) (*model.Group, error) {
	g, err := s.groups.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrGroupNotFound
	}
	return g, err
}

func (s *GroupService) FindBySlug(ctx context.Context, slug string) (*model.Group, error) {
	g, err := s.groups.FindBySlug(ctx, slug)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrGroupNotFound
	}
	return g, err
}

func (s *GroupService) Create(ctx context.Context, title, slug, description string) (*model.Group, error) {
	title = strings.TrimSpace(title)
	if title == "" || len([]rune(title)) > 200 {
		return nil, ErrInvalidTitle
	}
	if !slugPattern.MatchString(slug) {
		return nil, ErrInvalidSlug
	}
	g := &model.Group{Title: title, Slug: slug, Description: description}
	if err := s.groups.Create(ctx, g); err != nil {
		return nil, fmt.Errorf("create group %q: %w", slug, err)
	}
	return g, nil
}

// Delete removes a group, applying policy to the posts that reference it.
func (s *GroupService) Delete(ctx context.Context, slug string, policy model.DeletePolicy) (int64, error) {
	var authors []uint64
	if policy == model.PolicyCascade && s.counts != nil {
		if g, err := s.groups.FindBySlug(ctx, slug); err == nil {
			authors, _ = s.posts.AuthorIDs(ctx, rdb.PostFilter{GroupID: g.ID})
		}
	}
	n, err := s.groups.Delete(ctx, slug, policy)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return 0, ErrGroupNotFound
	case errors.Is(err, rdb.ErrInUse):
		return 0, ErrGroupInUse
	case err != nil:
		return 0, err
	}
	for _, id := range authors {
		_ = s.counts.Invalidate(ctx, id)
	}
	return n, nil
}
