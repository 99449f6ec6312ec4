package sched

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"channel-relay-bot/internal/infra/ratelimit"

	"github.com/rs/zerolog"
)

func TestSweepWorkerEvictsInactiveUsers(t *testing.T) {
	logger := zerolog.New(io.Discard)
	rates := ratelimit.NewMemoryStore(ratelimit.DefaultOptions())
	dedupe := ratelimit.NewDedupeStore(24 * time.Hour)
	ctx := context.Background()

	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	_, _ = rates.Touch(ctx, 1, t0)
	_, _ = rates.Touch(ctx, 2, t0.Add(3*time.Minute))
	_, _ = dedupe.Claim(ctx, "old", t0.Add(-25*time.Hour))

	w := NewSweepWorker(time.Minute, rates, dedupe, &logger)
	w.now = func() time.Time { return t0.Add(6 * time.Minute) }
	w.sweep(ctx)

	if n, _ := rates.ActiveCount(ctx); n != 1 {
		t.Fatalf("active = %d, want 1", n)
	}
	if ok, _ := dedupe.Claim(ctx, "old", t0); !ok {
		t.Fatal("expired claim should have been swept")
	}
}

func TestSweepWorkerStopsOnCancel(t *testing.T) {
	logger := zerolog.New(io.Discard)
	w := NewSweepWorker(10*time.Millisecond,
		ratelimit.NewMemoryStore(ratelimit.DefaultOptions()),
		ratelimit.NewDedupeStore(time.Hour),
		&logger)

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- w.Run(ctx) }()

	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case err := <-errc:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("Run returned %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
