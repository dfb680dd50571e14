package service

import "context"

// TokenStore holds the one active session token per user. GetUserToken
// reports a missing token as redis.ErrTokenNotFound.
type TokenStore interface {
	AddUserToken(ctx context.Context, userID uint64, token string) error
	GetUserToken(ctx context.Context, userID uint64) (string, error)
	ExtendUserToken(ctx context.Context, userID uint64) error
	DeleteUserToken(ctx context.Context, userID uint64) error
}

// CountCache caches per-author post counts.
type CountCache interface {
	Get(ctx context.Context, authorID uint64) (int64, error)
	Set(ctx context.Context, authorID uint64, n int64) error
	Invalidate(ctx context.Context, authorID uint64) error
}
