package cron

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/teeforge-backend/pkg/instance"
	"github.com/angelmondragon/teeforge-backend/pkg/redis"
)

const defaultLockTTL = 55 * time.Minute

// Lock keeps two cron workers from sweeping at the same time.
type Lock interface {
	Acquire(ctx context.Context) (bool, error)
	Release(ctx context.Context) error
}

type lockStore interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
}

// RedisLock holds a SETNX key whose value names the owning worker.
type RedisLock struct {
	store lockStore
	key   string
	ttl   time.Duration
	owner string
}

func NewRedisLock(store lockStore, key string, ttl time.Duration) (*RedisLock, error) {
	if store == nil {
		return nil, errors.New("redis client required for lock")
	}
	if key == "" {
		return nil, errors.New("lock key is required")
	}
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	return &RedisLock{store: store, key: key, ttl: ttl}, nil
}

func (l *RedisLock) Acquire(ctx context.Context) (bool, error) {
	owner := instance.GetID() + ":" + uuid.NewString()
	ok, err := l.store.SetNX(ctx, l.key, owner, l.ttl)
	if err != nil {
		return false, fmt.Errorf("acquire cron lock: %w", err)
	}
	if ok {
		l.owner = owner
	}
	return ok, nil
}

// Release deletes the key only while this worker still owns it. A lock that
// expired and was taken by another worker is left alone.
func (l *RedisLock) Release(ctx context.Context) error {
	if l.owner == "" {
		return nil
	}
	ctx = context.WithoutCancel(ctx)
	current, err := l.store.Get(ctx, l.key)
	switch {
	case redis.IsNil(err):
		l.owner = ""
		return nil
	case err != nil:
		return fmt.Errorf("read cron lock owner: %w", err)
	}
	if current != l.owner {
		l.owner = ""
		return nil
	}
	if err := l.store.Del(ctx, l.key); err != nil {
		return fmt.Errorf("release cron lock: %w", err)
	}
	l.owner = ""
	return nil
}
