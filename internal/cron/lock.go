package cron

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/angelmondragon/stn-picking/pkg/redis"
	"github.com/google/uuid"
)

const defaultLockTTL = 10 * time.Minute

// Lock keeps a single cron-worker replica running jobs at a time.
type Lock interface {
	Acquire(ctx context.Context) (bool, error)
	// Extend pushes the expiry out by a full TTL; false means another
	// replica owns the key now.
	Extend(ctx context.Context) (bool, error)
	Release(ctx context.Context) error
}

// RedisLock stores a random owner token under key. Release and Extend only
// touch the key while it still carries that token.
type RedisLock struct {
	keys  redis.OwnedKeys
	key   string
	ttl   time.Duration
	owner string
}

func NewRedisLock(keys redis.OwnedKeys, key string, ttl time.Duration) (*RedisLock, error) {
	if keys == nil {
		return nil, errors.New("redis client required for lock")
	}
	if key == "" {
		return nil, errors.New("lock key is required")
	}
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	return &RedisLock{keys: keys, key: key, ttl: ttl}, nil
}

func (l *RedisLock) Acquire(ctx context.Context) (bool, error) {
	token := uuid.NewString()
	ok, err := l.keys.SetNX(ctx, l.key, token, l.ttl)
	if err != nil {
		return false, fmt.Errorf("setnx %s: %w", l.key, err)
	}
	if ok {
		l.owner = token
	}
	return ok, nil
}

func (l *RedisLock) Extend(ctx context.Context) (bool, error) {
	if l.owner == "" {
		return false, nil
	}
	held, err := l.keys.ExtendIfOwner(ctx, l.key, l.owner, l.ttl)
	if err != nil {
		return false, fmt.Errorf("extend %s: %w", l.key, err)
	}
	if !held {
		l.owner = ""
	}
	return held, nil
}

func (l *RedisLock) Release(ctx context.Context) error {
	if l.owner == "" {
		return nil
	}
	if _, err := l.keys.ReleaseIfOwner(ctx, l.key, l.owner); err != nil {
		return fmt.Errorf("release %s: %w", l.key, err)
	}
	l.owner = ""
	return nil
}
