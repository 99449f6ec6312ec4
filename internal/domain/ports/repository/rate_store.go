package repository

import (
	"context"
	"time"
)

// RateStore holds per-user rate state and the active-user set.
type RateStore interface {
	// Admit applies the cooldown and per-window quota and records the
	// message when it is admitted.
	Admit(ctx context.Context, userID int64, now time.Time) (bool, error)
	// Touch marks the user active. It returns false, without adding the
	// user, when the active set is already at capacity.
	Touch(ctx context.Context, userID int64, now time.Time) (bool, error)
	// Sweep evicts users inactive for longer than the inactivity window and
	// returns how many active users were removed.
	Sweep(ctx context.Context, now time.Time) (int, error)
	ActiveCount(ctx context.Context) (int, error)
}

// DedupeStore records event ids so that each is handled once.
type DedupeStore interface {
	// Claim returns true only for the first caller with a given id.
	Claim(ctx context.Context, eventID string, now time.Time) (bool, error)
	Sweep(ctx context.Context, now time.Time) (int, error)
}
