package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"channel-relay-bot/internal/domain/ports/repository"
	"channel-relay-bot/internal/infra/ratelimit"

	"github.com/go-redis/redis/v8"
)

var _ repository.RateStore = (*RateStore)(nil)

// luaAdmit applies window reset, quota and cooldown to one user hash.
// KEYS[1] user hash; ARGV now_ms, window_ms, max, cooldown_ms, ttl_ms.
var luaAdmit = redis.NewScript(`
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local max = tonumber(ARGV[3])
local cooldown = tonumber(ARGV[4])
local ws = tonumber(redis.call("HGET", KEYS[1], "ws") or now)
local cnt = tonumber(redis.call("HGET", KEYS[1], "cnt") or "0")
local last = tonumber(redis.call("HGET", KEYS[1], "last") or "-1")
if now - ws >= window then
	cnt = 0
	ws = now
end
local ok = 0
if cnt < max and (last < 0 or now - last >= cooldown) then
	last = now
	cnt = cnt + 1
	ok = 1
end
redis.call("HSET", KEYS[1], "ws", ws, "cnt", cnt, "last", last)
if ok == 1 then
	redis.call("PEXPIRE", KEYS[1], ARGV[5])
end
return ok`)

// luaTouch refreshes or adds a member of the active set unless full.
// KEYS[1] active zset; ARGV now_ms, member, max.
var luaTouch = redis.NewScript(`
if redis.call("ZSCORE", KEYS[1], ARGV[2]) then
	redis.call("ZADD", KEYS[1], ARGV[1], ARGV[2])
	return 1
end
if redis.call("ZCARD", KEYS[1]) >= tonumber(ARGV[3]) then
	return 0
end
redis.call("ZADD", KEYS[1], ARGV[1], ARGV[2])
return 1`)

// RateStore keeps one hash per user (expiring after the inactivity window)
// and the active-user set as a sorted set scored by last activity.
type RateStore struct {
	cli  *redis.Client
	opts ratelimit.Options
}

func NewRateStore(c *Client, opts ratelimit.Options) *RateStore {
	return &RateStore{cli: c.cli, opts: opts}
}

func userKey(userID int64) string {
	return fmt.Sprintf("%srate:%d", keyPrefix, userID)
}

const activeKey = keyPrefix + "active"

func (s *RateStore) Admit(ctx context.Context, userID int64, now time.Time) (bool, error) {
	res, err := luaAdmit.Run(ctx, s.cli, []string{userKey(userID)},
		now.UnixMilli(),
		s.opts.Window.Milliseconds(),
		s.opts.MaxPerWindow,
		s.opts.Cooldown.Milliseconds(),
		s.opts.InactiveAfter.Milliseconds(),
	).Int()
	if err != nil {
		return false, fmt.Errorf("redis admit: %w", err)
	}
	return res == 1, nil
}

func (s *RateStore) Touch(ctx context.Context, userID int64, now time.Time) (bool, error) {
	res, err := luaTouch.Run(ctx, s.cli, []string{activeKey},
		now.UnixMilli(),
		strconv.FormatInt(userID, 10),
		s.opts.MaxActive,
	).Int()
	if err != nil {
		return false, fmt.Errorf("redis touch: %w", err)
	}
	return res == 1, nil
}

// Sweep trims the active set; user hashes expire on their own.
func (s *RateStore) Sweep(ctx context.Context, now time.Time) (int, error) {
	cutoff := now.Add(-s.opts.InactiveAfter).UnixMilli()
	n, err := s.cli.ZRemRangeByScore(ctx, activeKey, "-inf", "("+strconv.FormatInt(cutoff, 10)).Result()
	if err != nil {
		return 0, fmt.Errorf("redis sweep: %w", err)
	}
	return int(n), nil
}

func (s *RateStore) ActiveCount(ctx context.Context) (int, error) {
	n, err := s.cli.ZCard(ctx, activeKey).Result()
	if err != nil {
		return 0, fmt.Errorf("redis active count: %w", err)
	}
	return int(n), nil
}
