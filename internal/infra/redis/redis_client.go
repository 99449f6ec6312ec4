package redis

import (
	"context"
	"fmt"
	"strings"

	"channel-relay-bot/internal/config"

	"github.com/go-redis/redis/v8"
)

// keyPrefix namespaces every key written by this process.
const keyPrefix = "relay:"

type Client struct {
	cli *redis.Client
}

// NewClient accepts either a redis:// URL or a bare host:port address.
func NewClient(ctx context.Context, cfg *config.RedisConfig) (*Client, error) {
	var opts *redis.Options
	if strings.Contains(cfg.URL, "://") {
		parsed, err := redis.ParseURL(cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		opts = parsed
	} else {
		opts = &redis.Options{Addr: cfg.URL, DB: cfg.DB}
	}
	if cfg.Password != "" {
		opts.Password = cfg.Password
	}
	c := redis.NewClient(opts)
	if err := c.Ping(ctx).Err(); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &Client{cli: c}, nil
}

func (c *Client) Ping(ctx context.Context) error { return c.cli.Ping(ctx).Err() }

func (c *Client) Close() error { return c.cli.Close() }
