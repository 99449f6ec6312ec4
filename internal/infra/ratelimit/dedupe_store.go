package ratelimit

import (
	"context"
	"sync"
	"time"

	"channel-relay-bot/internal/domain/ports/repository"
)

var _ repository.DedupeStore = (*DedupeStore)(nil)

// DedupeStore is an in-memory claim set with TTL-based eviction.
type DedupeStore struct {
	ttl time.Duration

	mu     sync.Mutex
	claims map[string]time.Time
}

func NewDedupeStore(ttl time.Duration) *DedupeStore {
	return &DedupeStore{ttl: ttl, claims: make(map[string]time.Time)}
}

func (d *DedupeStore) Claim(_ context.Context, eventID string, now time.Time) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, seen := d.claims[eventID]; seen {
		return false, nil
	}
	d.claims[eventID] = now
	return true, nil
}

func (d *DedupeStore) Sweep(_ context.Context, now time.Time) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	cutoff := now.Add(-d.ttl)
	removed := 0
	for id, at := range d.claims {
		if at.Before(cutoff) {
			delete(d.claims, id)
			removed++
		}
	}
	return removed, nil
}
