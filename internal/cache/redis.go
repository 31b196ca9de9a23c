// Package cache holds the Redis-backed token cache and credential rate limiter.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	defaultPoolSize = 10
	defaultTokenTTL = 5 * time.Minute
)

// Options configures the Redis connection and cache lifetimes.
type Options struct {
	URL string
	// PoolSize caps open connections. Zero means 10.
	PoolSize int
	// TokenTTL bounds how long a resolved token is served from Redis.
	// Zero means 5 minutes.
	TokenTTL time.Duration
}

func (o Options) withDefaults() Options {
	if o.PoolSize <= 0 {
		o.PoolSize = defaultPoolSize
	}
	if o.TokenTTL <= 0 {
		o.TokenTTL = defaultTokenTTL
	}
	return o
}

// Cache serves resolved tokens and rate limit buckets from Redis.
type Cache struct {
	client   *redis.Client
	tokenTTL time.Duration
}

// New connects to Redis and verifies the connection.
func New(ctx context.Context, opts Options) (*Cache, error) {
	opts = opts.withDefaults()

	opt, err := redis.ParseURL(opts.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	opt.PoolSize = opts.PoolSize
	opt.MinIdleConns = max(1, opts.PoolSize/5)
	opt.PoolTimeout = 4 * time.Second
	opt.ConnMaxIdleTime = 5 * time.Minute

	client := redis.NewClient(opt)

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}

	return &Cache{client: client, tokenTTL: opts.TokenTTL}, nil
}

// Ping reports whether Redis answers. Used by /readyz.
func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close releases the connection pool.
func (c *Cache) Close(ctx context.Context) error {
	return c.client.Close()
}

// Client exposes the underlying client for test cleanup.
func (c *Cache) Client() *redis.Client {
	return c.client
}
