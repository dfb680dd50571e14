package service

import "errors"

var (
	ErrPostNotFound       = errors.New("post not found")
	ErrGroupNotFound      = errors.New("group not found")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUsernameTaken      = errors.New("username already taken")
	ErrSessionInvalid     = errors.New("session invalid")
	ErrGroupInUse         = errors.New("group still has posts")
	ErrUserHasPosts       = errors.New("user still has posts")
	ErrInvalidSlug        = errors.New("invalid slug")
	ErrInvalidTitle       = errors.New("title must be 1-200 characters")
)
