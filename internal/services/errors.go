package services

import "errors"

var (
	// ErrUserNotFound means the requested business id resolves to no user.
	ErrUserNotFound = errors.New("user not found")

	// ErrBatchSize means a batch status request was empty or exceeded the
	// 100-target bound.
	ErrBatchSize = errors.New("batch must contain between 1 and 100 usernames")

	// errNotFollowing marks an unfollow of a non-existent edge inside the
	// transaction so the rollback happens before the no-op response is built.
	errNotFollowing = errors.New("not following")
)
