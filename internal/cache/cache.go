// Package cache wraps the mo-broker's external stats cache: a Redis
// hash that exposes queue depths to operators outside the process
// (spec.md §4.7, §6 "Cache (mo-broker)").
package cache

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// queueKey is the Redis hash that holds one field per mo-broker queue
// id, mapping to its current depth.
const queueKey = "mo.queue"

// Client publishes queue-depth samples to Redis. It satisfies
// stats.Sink without importing that package, so cache stays usable
// standalone.
type Client struct {
	rdb *redis.Client
}

// Config is the subset of gwconfig.Config this package needs, kept
// separate so cache has no dependency on the config package.
type Config struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// New opens a lazy Redis connection; go-redis dials on first use, so
// construction never blocks or fails outright.
func New(cfg Config) *Client {
	rdb := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	return &Client{rdb: rdb}
}

// Reset deletes the stats hash, matching the original's startup
// behavior of clearing stale depths from a previous run before the
// first sample is published.
func (c *Client) Reset(ctx context.Context) error {
	return c.rdb.Del(ctx, queueKey).Err()
}

// Set publishes one queue's depth as a hash field.
func (c *Client) Set(ctx context.Context, id uint32, depth int) error {
	return c.rdb.HSet(ctx, queueKey, id, depth).Err()
}

// Ping verifies the Redis connection is reachable, mirroring
// dbroute.Open's eager connectivity check so an unreachable cache is a
// startup failure rather than a silently-degraded sampler (spec.md §7).
func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// Close releases the underlying connection pool.
func (c *Client) Close() error {
	return c.rdb.Close()
}
