package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var ErrCacheMiss = errors.New("cache miss")

const (
	PostCountPrefix = "posts:count:author"
	PostCountExpire = 10 * time.Minute
)

// PostCountRepository caches how many posts each author has.
type PostCountRepository struct {
	Client *redis.Client
}

func NewPostCountRepository() *PostCountRepository {
	return &PostCountRepository{Client: Client}
}

func countKey(authorID uint64) string {
	return fmt.Sprintf("%s:%d", PostCountPrefix, authorID)
}

func (r *PostCountRepository) Get(ctx context.Context, authorID uint64) (int64, error) {
	n, err := r.Client.Get(ctx, countKey(authorID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, ErrCacheMiss
	}
	if err != nil {
		return 0, ErrRedisUnavailable
	}
	return n, nil
}

func (r *PostCountRepository) Set(ctx context.Context, authorID uint64, n int64) error {
	if err := r.Client.Set(ctx, countKey(authorID), n, PostCountExpire).Err(); err != nil {
		return ErrRedisUnavailable
	}
	return nil
}

func (r *PostCountRepository) Invalidate(ctx context.Context, authorID uint64) error {
	if err := r.Client.Del(ctx, countKey(authorID)).Err(); err != nil {
		return ErrRedisUnavailable
	}
	return nil
}
