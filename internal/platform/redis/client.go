// Package redis dials the cache backing the change detector. Deployments
// without a REDIS_URL run with diff caching disabled.
package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"ontoreg/internal/platform/config"
)

// Client wraps go-redis so callers can health-check the connection without
// knowing the underlying library.
type Client struct {
	*redis.Client
}

// New connects using the configured URL and pool settings. A blank URL
// returns a nil client; main treats nil as cache-off rather than an error.
func New(cfg config.RedisConfig) (*Client, error) {
	if cfg.URL == "" {
		return nil, nil
	}

	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns
	opts.DialTimeout = cfg.DialTimeout
	opts.ReadTimeout = cfg.ReadTimeout
	opts.WriteTimeout = cfg.WriteTimeout

	client := redis.NewClient(opts)

	// Fail at startup rather than on the first cached diff.
	if err := client.Ping(context.Background()).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &Client{Client: client}, nil
}

// Health reports whether the connection still answers.
func (c *Client) Health(ctx context.Context) error {
	return c.Ping(ctx).Err()
}

// Close releases the connection pool.
func (c *Client) Close() error {
	return c.Client.Close()
}
