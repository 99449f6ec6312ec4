package ratelimit

import (
	"time"

	"channel-relay-bot/internal/config"
)

// Options are the admission parameters shared by every RateStore backend.
type Options struct {
	Cooldown      time.Duration
	MaxPerWindow  int
	Window        time.Duration
	MaxActive     int
	InactiveAfter time.Duration
}

func OptionsFromConfig(cfg config.RateLimitConfig) Options {
	return Options{
		Cooldown:      cfg.Cooldown,
		MaxPerWindow:  cfg.MaxPerWindow,
		Window:        cfg.Window,
		MaxActive:     cfg.MaxConcurrentUsers,
		InactiveAfter: cfg.InactiveAfter,
	}
}

// DefaultOptions: 5s cooldown, 10 messages per minute, 1000 active users,
// 5 minutes of inactivity before eviction.
func DefaultOptions() Options {
	return Options{
		Cooldown:      5 * time.Second,
		MaxPerWindow:  10,
		Window:        time.Minute,
		MaxActive:     1000,
		InactiveAfter: 5 * time.Minute,
	}
}
