package cron

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Lock serializes cron cycles across worker replicas.
type Lock interface {
	Acquire(ctx context.Context) (bool, error)
	Release(ctx context.Context) error
}

type lockStore interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
}

// Held slightly longer than a daily cadence so a crashed holder cannot wedge
// the schedule forever.
const defaultLockTTL = 25 * time.Hour

// RedisLock is a best-effort distributed lock backed by SETNX.
type RedisLock struct {
	store lockStore
	key   string
	owner string
	ttl   time.Duration
}

// NewRedisLock builds a lock stored at key with the given TTL.
func NewRedisLock(store lockStore, key string, ttl time.Duration) (*RedisLock, error) {
	if store == nil {
		return nil, errors.New("redis store is required")
	}
	if key == "" {
		return nil, errors.New("lock key is required")
	}
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	return &RedisLock{
		store: store,
		key:   key,
		owner: uuid.NewString(),
		ttl:   ttl,
	}, nil
}

// Acquire attempts to take the lock. It returns false when another worker
// holds it.
func (l *RedisLock) Acquire(ctx context.Context) (bool, error) {
	acquired, err := l.store.SetNX(ctx, l.key, l.owner, l.ttl)
	if err != nil {
		return false, fmt.Errorf("acquiring cron lock: %w", err)
	}
	return acquired, nil
}

// Release drops the lock only if this instance still owns it.
func (l *RedisLock) Release(ctx context.Context) error {
	current, err := l.store.Get(ctx, l.key)
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}
		return fmt.Errorf("reading cron lock: %w", err)
	}
	if current != l.owner {
		return nil
	}
	if err := l.store.Del(ctx, l.key); err != nil {
		return fmt.Errorf("releasing cron lock: %w", err)
	}
	return nil
}
