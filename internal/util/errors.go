package util

import "errors"

var (
	ErrUserNotFound     = errors.New("user not found")
	ErrInvalidUserID    = errors.New("invalid user id")
	ErrInvalidAttemptID = errors.New("invalid attempt id")
	ErrEmptyBlock       = errors.New("block is required")
)
