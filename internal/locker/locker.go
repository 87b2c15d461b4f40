package locker

import (
	"context"
	"errors"
	"time"
)

// ErrNotObtained is returned when the lock is held by someone else
var ErrNotObtained = errors.New("lock not obtained")

type Lock interface {
	Release(ctx context.Context) error
	Key() string
}

// Locker hands out exclusive locks shared between processes
type Locker interface {
	// TryAcquire makes a single attempt, it fails with ErrNotObtained instead of waiting
	TryAcquire(ctx context.Context, key string, ttl time.Duration, owner string) (Lock, error)
}
