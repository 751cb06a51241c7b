package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/5ys-5y5/alsign-sub001/pkg/config"
)

// Client wraps the Redis client. A disabled client is a valid no-op: every
// cache helper checks Enabled() so callers need no nil guards.
type Client struct {
	rdb     *redis.Client
	enabled bool
}

// New creates a new Redis client from config.
func New(cfg *config.Config) (*Client, error) {
	if !cfg.Redis.Enabled {
		return &Client{enabled: false}, nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.Redis.Host, cfg.Redis.Port),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	return &Client{rdb: rdb, enabled: true}, nil
}

// Close closes the Redis connection.
func (c *Client) Close() error {
	if c.rdb != nil {
		return c.rdb.Close()
	}
	return nil
}

// Enabled returns whether Redis is enabled.
func (c *Client) Enabled() bool {
	return c.enabled
}

// Redis returns the underlying redis client.
func (c *Client) Redis() *redis.Client {
	return c.rdb
}
