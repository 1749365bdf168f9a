package cache

import "errors"

var (
	// ErrRedisNotAvailable means the Redis connection was never established.
	ErrRedisNotAvailable = errors.New("redis not available")

	// ErrLockNotAcquired means the distributed lock could not be taken.
	ErrLockNotAcquired = errors.New("failed to acquire distributed lock")
)
