package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"yatube/internal/model"
	"yatube/internal/pkg"
	"yatube/internal/repository/rdb"
)

type PostService struct {
	posts  *rdb.PostRepository
	users  *rdb.UserRepository
	groups *rdb.GroupRepository
	counts CountCache
}

// NewPostService wires the post repositories; counts may be nil.
func NewPostService(db *gorm.DB, counts CountCache) *PostService {
	return &PostService{
		posts:  &rdb.PostRepository{DB: db},
		users:  &rdb.UserRepository{DB: db},
		groups: &rdb.GroupRepository{DB: db},
		counts: counts,
	}
}

func (s *PostService) page(ctx context.Context, f rdb.PostFilter, rawPage string) (*pkg.Page[model.Post], error) {
	total, err := s.posts.Count(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("count posts: %w", err)
	}
	p := pkg.NewPaginator(total, pkg.PostsPerPage)
	number := p.Number(rawPage)
	offset, limit := p.Bounds(number)
	items, err := s.posts.List(ctx, f, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	return pkg.NewPage(p, number, items), nil
}

// ListAll is the global feed.
func (s *PostService) ListAll(ctx context.Context, rawPage string) (*pkg.Page[model.Post], error) {
	return s.page(ctx, rdb.PostFilter{}, rawPage)
}

func (s *PostService) ListByGroup(ctx context.Context, slug, rawPage string) (*model.Group, *pkg.Page[model.Post], error) {
	group, err := s.groups.FindBySlug(ctx, slug)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, ErrGroupNotFound
	}
	if err != nil {
		return nil, nil, err
	}
	page, err := s.page(ctx, rdb.PostFilter{GroupID: group.ID}, rawPage)
	return group, page, err
}

// ListByAuthor returns the author's feed; page.Total is the author's post count.
func (s *PostService) ListByAuthor(ctx context.Context, username, rawPage string) (*model.User, *pkg.Page[model.Post], error) {
	author, err := s.users.FindByUsername(ctx, username)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, ErrUserNotFound
	}
	if err != nil {
		return nil, nil, err
	}
	page, err := s.page(ctx, rdb.PostFilter{AuthorID: author.ID}, rawPage)
	return author, page, err
}

// Get loads one post together with its author's post count.
func (s *PostService) Get(ctx context.Context, id uint64) (*model.Post, int64, error) {
	post, err := s.Find(ctx, id)
	if err != nil {
		return nil, 0, err
	}
	n, err := s.AuthorPostCount(ctx, post.AuthorID)
	if err != nil {
		return nil, 0, err
	}
	return post, n, nil
}

func (s *PostService) Find(ctx context.Context, id uint64) (*model.Post, error) {
	post, err := s.posts.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrPostNotFound
	}
	if err != nil {
		return nil, err
	}
	return post, nil
}

// AuthorPostCount reads through the count cache. This is the only path that
// fills it; writers invalidate.
func (s *PostService) AuthorPostCount(ctx context.Context, authorID uint64) (int64, error) {
	if s.counts != nil {
		if n, err := s.counts.Get(ctx, authorID); err == nil {
			return n, nil
		}
	}
	n, err := s.posts.CountByAuthor(ctx, authorID)
	if err != nil {
		return 0, fmt.Errorf("count author posts: %w", err)
	}
	s.cacheCount(ctx, authorID, n)
	return n, nil
}

// Create stores post as written by author. Author and pub date are set here
// and never change afterwards.
func (s *PostService) Create(ctx context.Context, author *model.User, post *model.Post) error {
	post.ID = 0
	post.AuthorID = author.ID
	post.Author = *author
	if err := s.posts.Create(ctx, post); err != nil {
		return fmt.Errorf("create post: %w", err)
	}
	s.invalidateCount(ctx, author.ID)
	return nil
}

// Update persists the editable fields of an existing post.
func (s *PostService) Update(ctx context.Context, post *model.Post) error {
	if err := s.posts.Update(ctx, post); err != nil {
		return fmt.Errorf("update post %d: %w", post.ID, err)
	}
	return nil
}

func (s *PostService) cacheCount(ctx context.Context, authorID uint64, n int64) {
	if s.counts == nil {
		return
	}
	if err := s.counts.Set(ctx, authorID, n); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Uint64("author_id", authorID).Msg("cache post count")
	}
}

func (s *PostService) invalidateCount(ctx context.Context, authorID uint64) {
	if s.counts == nil {
		return
	}
	if err := s.counts.Invalidate(ctx, authorID); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Uint64("author_id", authorID).Msg("invalidate post count")
	}
}
