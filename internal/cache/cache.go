// Package cache holds short-lived, non-authoritative state such as the
// resend-OTP cooldown. Redis is optional; every operation fails safe.
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Client wraps redis.Client but fails safe by swallowing connectivity errors.
// A nil *Client, or one built with NewMemory, keeps state in process.
type Client struct {
	client *redis.Client

	mu     sync.Mutex
	memory map[string]time.Time // key -> expiry
	now    func() time.Time
}

// New creates a Redis-backed client.
func New(addr, password string, db int) *Client {
	opts := &redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	}
	return &Client{client: redis.NewClient(opts), now: time.Now}
}

// NewMemory creates a single-process client for deployments without Redis.
func NewMemory() *Client {
	return &Client{memory: make(map[string]time.Time), now: time.Now}
}

// Ping reports whether Redis is reachable. Memory clients always succeed.
func (c *Client) Ping(ctx context.Context) error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Ping(ctx).Err()
}

// Acquire claims key for ttl and reports whether the caller got it. A false
// result means the key is still held by an earlier call. When Redis is
// unreachable the claim is granted, so a cache outage never blocks users.
func (c *Client) Acquire(ctx context.Context, key string, ttl time.Duration) bool {
	if c == nil {
		return true
	}
	if c.client != nil {
		ok, err := c.client.SetNX(ctx, key, "1", ttl).Result()
		if err != nil {
			// fail safe: behave as if the key was free
			return true
		}
		return ok
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	if exp, held := c.memory[key]; held && now.Before(exp) {
		return false
	}
	c.memory[key] = now.Add(ttl)
	c.sweepLocked(now)
	return true
}

// Delete removes a key, ignoring redis errors.
func (c *Client) Delete(ctx context.Context, key string) error {
	if c == nil {
		return nil
	}
	if c.client != nil {
		if err := c.client.Del(ctx, key).Err(); err != nil {
			return nil
		}
		return nil
	}
	c.mu.Lock()
	delete(c.memory, key)
	c.mu.Unlock()
	return nil
}

// Close releases the Redis connection pool.
func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

// sweepLocked drops expired entries so the map does not grow unbounded.
func (c *Client) sweepLocked(now time.Time) {
	if len(c.memory) < 1024 {
		return
	}
	for k, exp := range c.memory {
		if !now.Before(exp) {
			delete(c.memory, k)
		}
	}
}
