package redis

import (
	"context"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

// ErrLockHeld is returned when another instance holds the lock.
var ErrLockHeld = errors.New("lock held by another instance")

type Locker struct {
	cli *redis.Client
}

func NewLocker(c *Client) *Locker {
	return &Locker{cli: c.cli}
}

// TryLock takes key for ttl and returns the token that owns it.
func (l *Locker) TryLock(ctx context.Context, key string, ttl time.Duration) (string, error) {
	token := uuid.NewString()
	for i := 0; i < 5; i++ { // 5 tries
		ok, err := l.cli.SetNX(ctx, keyPrefix+key, token, ttl).Result()
		if err != nil {
			return "", err
		}
		if ok {
			return token, nil
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(50 * time.Millisecond):
		}
	}
	return "", ErrLockHeld
}

var luaRefresh = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
else
	return 0
end`)

// Refresh extends a lock still owned by token.
func (l *Locker) Refresh(ctx context.Context, key, token string, ttl time.Duration) error {
	n, err := luaRefresh.Run(ctx, l.cli, []string{keyPrefix + key}, token, ttl.Milliseconds()).Int()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrLockHeld
	}
	return nil
}

var luaUnlock = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
else
	return 0
end`)

func (l *Locker) Unlock(ctx context.Context, key, token string) error {
	_, err := luaUnlock.Run(ctx, l.cli, []string{keyPrefix + key}, token).Result()
	return err
}

// Hold keeps the lock alive until ctx ends, then releases it. It returns
// ErrLockHeld if ownership is lost.
func (l *Locker) Hold(ctx context.Context, key, token string, ttl time.Duration) error {
	defer func() {
		_ = l.Unlock(context.WithoutCancel(ctx), key, token)
	}()
	t := time.NewTicker(ttl / 3)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			if err := l.Refresh(ctx, key, token, ttl); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				return err
			}
		}
	}
}
