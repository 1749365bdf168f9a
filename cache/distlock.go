package cache

import (
	"fmt"
	"time"

	"github.com/go-redsync/redsync/v4"
	goredsync "github.com/go-redsync/redsync/v4/redis/goredis/v9"
	"github.com/redis/go-redis/v9"
)

// AdmissionLocker serializes ballot admissions per (election, device)
// across service instances. The database unique index already guarantees at
// most one ballot per pair; the lock is the externally-serialized admission
// point for deployments whose store cannot express that constraint, and it
// also turns the racy second concurrent tap into a clean fast-path
// rejection instead of a constraint error.
type AdmissionLocker struct {
	rs *redsync.Redsync
}

// NewAdmissionLocker builds the locker on an existing Redis client.
func NewAdmissionLocker(client *redis.Client) *AdmissionLocker {
	pool := goredsync.NewPool(client)
	return &AdmissionLocker{rs: redsync.New(pool)}
}

// AdmissionLockName is the per-pair lock key.
func AdmissionLockName(electionID uint, deviceHash string) string {
	return fmt.Sprintf("admission:%d:%s", electionID, deviceHash)
}

// WithLock runs action while holding the named lock.
func (l *AdmissionLocker) WithLock(name string, expiry time.Duration, action func() error) error {
	mutex := l.rs.NewMutex(name,
		redsync.WithExpiry(expiry),
		redsync.WithTries(5),
		redsync.WithRetryDelay(50*time.Millisecond),
		redsync.WithDriftFactor(0.01),
	)

	if err := mutex.Lock(); err != nil {
		return ErrLockNotAcquired
	}
	defer mutex.Unlock()

	return action()
}
