// Package infra provides shared infrastructure components used across
// the application: caching, rate limiting, and HTTP utilities.
package infra

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// --- Simple in-memory cache ---

// CacheEntry holds a cached value with expiration.
type CacheEntry struct {
	Value     any
	ExpiresAt time.Time
}

// Cache is a thread-safe in-memory cache with per-entry TTL. A cache
// miss in GetOrFetch triggers exactly one upstream load per key even
// under concurrent callers.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]CacheEntry
	ttl     time.Duration
	group   singleflight.Group
}

// NewCache creates a new cache with the given default TTL.
func NewCache(ttl time.Duration) *Cache {
	return &Cache{
		entries: make(map[string]CacheEntry),
		ttl:     ttl,
	}
}

// Get retrieves a value from the cache. Returns nil, false if not found or expired.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok || time.Now().After(entry.ExpiresAt) {
		return nil, false
	}
	return entry.Value, true
}

// Set stores a value in the cache with the default TTL.
func (c *Cache) Set(key string, value any) {
	c.SetWithTTL(key, value, c.ttl)
}

// SetWithTTL stores a value in the cache with a custom TTL.
func (c *Cache) SetWithTTL(key string, value any, ttl time.Duration) {
	c.mu.Lock()
	c.entries[key] = CacheEntry{
		Value:     value,
		ExpiresAt: time.Now().Add(ttl),
	}
	c.mu.Unlock()
}

// GetOrFetch returns the cached value for key, loading it with loader
// on a miss and storing the result for ttl. Concurrent misses on the
// same key are coalesced into a single loader call. A loader error is
// returned to every waiting caller and nothing is cached.
func (c *Cache) GetOrFetch(key string, ttl time.Duration, loader func() (any, error)) (any, error) {
	if v, ok := c.Get(key); ok {
		return v, nil
	}
	v, err, _ := c.group.Do(key, func() (any, error) {
		// Another caller may have filled the entry while we queued.
		if v, ok := c.Get(key); ok {
			return v, nil
		}
		v, err := loader()
		if err != nil {
			return nil, err
		}
		c.SetWithTTL(key, v, ttl)
		return v, nil
	})
	return v, err
}

// Invalidate removes a key from the cache.
func (c *Cache) Invalidate(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

// Flush removes all entries from the cache.
func (c *Cache) Flush() {
	c.mu.Lock()
	c.entries = make(map[string]CacheEntry)
	c.mu.Unlock()
}

// Cleanup removes expired entries. Can be called periodically.
func (c *Cache) Cleanup() {
	c.mu.Lock()
	now := time.Now()
	for k, v := range c.entries {
		if now.After(v.ExpiresAt) {
			delete(c.entries, k)
		}
	}
	c.mu.Unlock()
}

// --- Rate limiter ---

// RateLimiter enforces at most maxCalls acquisitions within any
// trailing period, sliding-window style. Wait never rejects a call: it
// sleeps until the window has room, then records the acquisition.
type RateLimiter struct {
	mu         sync.Mutex
	maxCalls   int
	period     time.Duration
	timestamps []time.Time
	now        func() time.Time
	sleep      func(context.Context, time.Duration) error
}

// NewRateLimiter creates a limiter allowing maxCalls per period.
func NewRateLimiter(maxCalls int, period time.Duration) *RateLimiter {
	return &RateLimiter{
		maxCalls: maxCalls,
		period:   period,
		now:      time.Now,
		sleep:    sleepCtx,
	}
}

// Wait blocks until an acquisition is admissible or ctx is cancelled.
func (rl *RateLimiter) Wait(ctx context.Context) error {
	for {
		rl.mu.Lock()
		now := rl.now()
		rl.prune(now)
		if len(rl.timestamps) < rl.maxCalls {
			rl.timestamps = append(rl.timestamps, now)
			rl.mu.Unlock()
			return nil
		}
		// Sleep until the oldest call leaves the window, plus a second
		// of slack against upstream clock skew.
		wait := rl.period - now.Sub(rl.timestamps[0]) + time.Second
		rl.mu.Unlock()

		if wait < 0 {
			wait = 0
		}
		if err := rl.sleep(ctx, wait); err != nil {
			return err
		}
	}
}

// prune discards timestamps older than the trailing period. Must be
// called with mu held.
func (rl *RateLimiter) prune(now time.Time) {
	cut := 0
	for cut < len(rl.timestamps) && now.Sub(rl.timestamps[cut]) >= rl.period {
		cut++
	}
	if cut > 0 {
		rl.timestamps = append(rl.timestamps[:0], rl.timestamps[cut:]...)
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// --- HTTP helper ---

var httpClient = &http.Client{Timeout: 30 * time.Second}

// DoGet performs a GET request with the given headers and returns the
// response body and status code. Non-2xx statuses are returned as
// errors with the body drained and closed.
func DoGet(ctx context.Context, url string, headers map[string]string) (io.ReadCloser, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, err
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("GET %s: %w", url, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		return nil, resp.StatusCode, fmt.Errorf("GET %s: status %d", url, resp.StatusCode)
	}
	return resp.Body, resp.StatusCode, nil
}

// ReadAll drains a response body returned by DoGet and closes it.
func ReadAll(body io.ReadCloser) ([]byte, error) {
	defer body.Close()
	return io.ReadAll(body)
}
