package cron

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	pkgredis "github.com/angelmondragon/lensretail-backend/pkg/redis"
)

// Locker grants exclusive use of a cycle across cron-worker replicas. When
// held is false another replica owns the cycle and unlock is nil.
type Locker interface {
	TryLock(ctx context.Context) (held bool, unlock func(context.Context) error, err error)
}

type lockStore interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
}

// RedisLocker stores a random owner token under key with a TTL so a crashed
// worker cannot hold the cycle forever.
type RedisLocker struct {
	store lockStore
	key   string
	ttl   time.Duration
}

func NewRedisLocker(store lockStore, key string, ttl time.Duration) (*RedisLocker, error) {
	if store == nil {
		return nil, errors.New("cron: lock store required")
	}
	if key == "" {
		return nil, errors.New("cron: lock key required")
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &RedisLocker{store: store, key: key, ttl: ttl}, nil
}

func (l *RedisLocker) TryLock(ctx context.Context) (bool, func(context.Context) error, error) {
	token := uuid.NewString()
	held, err := l.store.SetNX(ctx, l.key, token, l.ttl)
	if err != nil {
		return false, nil, fmt.Errorf("cron: take lock %s: %w", l.key, err)
	}
	if !held {
		return false, nil, nil
	}
	return true, func(ctx context.Context) error { return l.release(ctx, token) }, nil
}

// release deletes the key only while it still carries token; an expired lock
// re-taken by another replica is left alone.
func (l *RedisLocker) release(ctx context.Context, token string) error {
	current, err := l.store.Get(ctx, l.key)
	switch {
	case pkgredis.IsMiss(err):
		return nil
	case err != nil:
		return fmt.Errorf("cron: read lock %s: %w", l.key, err)
	case current != token:
		return nil
	}
	if err := l.store.Del(ctx, l.key); err != nil {
		return fmt.Errorf("cron: drop lock %s: %w", l.key, err)
	}
	return nil
}
