package redis

import (
	"context"
	"fmt"
	"time"

	"channel-relay-bot/internal/domain/ports/repository"

	"github.com/go-redis/redis/v8"
)

var _ repository.DedupeStore = (*DedupeStore)(nil)

// DedupeStore claims event ids with SETNX; entries expire after ttl.
type DedupeStore struct {
	cli *redis.Client
	ttl time.Duration
}

func NewDedupeStore(c *Client, ttl time.Duration) *DedupeStore {
	return &DedupeStore{cli: c.cli, ttl: ttl}
}

func (d *DedupeStore) Claim(ctx context.Context, eventID string, now time.Time) (bool, error) {
	ok, err := d.cli.SetNX(ctx, keyPrefix+"event:"+eventID, now.UnixMilli(), d.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis claim: %w", err)
	}
	return ok, nil
}

// Sweep is a no-op: claims carry their own TTL.
func (d *DedupeStore) Sweep(context.Context, time.Time) (int, error) { return 0, nil }
