package locker

import (
	"context"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	"github.com/go-redis/redis/v8"
)

type RedisLocker struct {
	rlc *redislock.Client
}

func NewRedisLocker(rdb *redis.Client) *RedisLocker {
	return &RedisLocker{rlc: redislock.New(rdb)}
}

func (rl *RedisLocker) TryAcquire(ctx context.Context, key string, ttl time.Duration, owner string) (Lock, error) {
	lock, err := rl.rlc.Obtain(ctx, lockKey(key), ttl, &redislock.Options{
		RetryStrategy: redislock.NoRetry(),
		Metadata:      owner,
	})
	if err == redislock.ErrNotObtained {
		return nil, ErrNotObtained
	}
	if err != nil {
		return nil, err
	}
	return &redisLock{l: lock}, nil
}

type redisLock struct {
	l *redislock.Lock
}

func (r *redisLock) Release(ctx context.Context) error {
	err := r.l.Release(ctx)
	// the ttl ran out before the pass finished, nothing left to release
	if err == redislock.ErrLockNotHeld {
		return nil
	}
	return err
}

func (r *redisLock) Key() string {
	return r.l.Key()
}

func lockKey(key string) string {
	return fmt.Sprintf("__lock:%s", key)
}
