//go:build integration

package redis

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"channel-relay-bot/internal/config"
	"channel-relay-bot/internal/infra/ratelimit"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	url := os.Getenv("REDIS_URL")
	if url == "" {
		t.Skip("REDIS_URL not set")
	}
	ctx := context.Background()
	c, err := NewClient(ctx, &config.RedisConfig{URL: url})
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	if err := c.cli.FlushDB(ctx).Err(); err != nil {
		t.Fatalf("flush: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestRateStoreAdmit(t *testing.T) {
	c := newTestClient(t)
	s := NewRateStore(c, ratelimit.DefaultOptions())
	ctx := context.Background()
	t0 := time.Now()

	ok, err := s.Admit(ctx, 1, t0)
	if err != nil || !ok {
		t.Fatalf("first admit = %v, %v", ok, err)
	}
	if ok, _ := s.Admit(ctx, 1, t0.Add(time.Second)); ok {
		t.Fatal("cooldown not enforced")
	}

	for i := 1; i < 10; i++ {
		if ok, _ := s.Admit(ctx, 1, t0.Add(time.Duration(i)*5*time.Second)); !ok {
			t.Fatalf("message %d should be admitted", i)
		}
	}
	if ok, _ := s.Admit(ctx, 1, t0.Add(55*time.Second)); ok {
		t.Fatal("quota not enforced")
	}
	if ok, _ := s.Admit(ctx, 1, t0.Add(106*time.Second)); !ok {
		t.Fatal("window did not reset")
	}
}

func TestRateStoreTouchAndSweep(t *testing.T) {
	c := newTestClient(t)
	opts := ratelimit.DefaultOptions()
	opts.MaxActive = 2
	s := NewRateStore(c, opts)
	ctx := context.Background()
	t0 := time.Now()

	if ok, _ := s.Touch(ctx, 1, t0); !ok {
		t.Fatal("user 1 should fit")
	}
	if ok, _ := s.Touch(ctx, 2, t0.Add(4*time.Minute)); !ok {
		t.Fatal("user 2 should fit")
	}
	if ok, _ := s.Touch(ctx, 3, t0); ok {
		t.Fatal("user 3 is over capacity")
	}

	removed, err := s.Sweep(ctx, t0.Add(5*time.Minute+time.Second))
	if err != nil || removed != 1 {
		t.Fatalf("sweep = %d, %v", removed, err)
	}
	if n, _ := s.ActiveCount(ctx); n != 1 {
		t.Fatalf("active = %d, want 1", n)
	}
}

func TestDedupeStoreClaim(t *testing.T) {
	c := newTestClient(t)
	d := NewDedupeStore(c, time.Minute)
	ctx := context.Background()

	if ok, _ := d.Claim(ctx, "msg:1:1", time.Now()); !ok {
		t.Fatal("first claim must win")
	}
	if ok, _ := d.Claim(ctx, "msg:1:1", time.Now()); ok {
		t.Fatal("second claim must lose")
	}
}

func TestLockerExclusive(t *testing.T) {
	c := newTestClient(t)
	l := NewLocker(c)
	ctx := context.Background()

	token, err := l.TryLock(ctx, "instance:test", time.Second)
	if err != nil {
		t.Fatalf("TryLock: %v", err)
	}
	if _, err := l.TryLock(ctx, "instance:test", time.Second); !errors.Is(err, ErrLockHeld) {
		t.Fatalf("second TryLock = %v, want ErrLockHeld", err)
	}
	if err := l.Refresh(ctx, "instance:test", "someone-else", time.Second); !errors.Is(err, ErrLockHeld) {
		t.Fatalf("foreign refresh = %v", err)
	}
	if err := l.Refresh(ctx, "instance:test", token, time.Second); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if err := l.Unlock(ctx, "instance:test", token); err != nil {
		t.Fatalf("Unlock: %v", err)
	}
	if _, err := l.TryLock(ctx, "instance:test", time.Second); err != nil {
		t.Fatalf("TryLock after unlock: %v", err)
	}
}
