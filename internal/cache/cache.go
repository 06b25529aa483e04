package cache

import (
	"context"
	"fmt"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Cache is a process-local TTL cache shared by the data collaborators.
type Cache struct {
	memory *gocache.Cache
	ttl    time.Duration
}

// New creates a cache whose entries expire after ttl unless a call overrides it.
func New(ttl time.Duration) *Cache {
	cleanup := ttl * 2
	if cleanup <= 0 {
		cleanup = time.Minute
	}
	return &Cache{
		memory: gocache.New(ttl, cleanup),
		ttl:    ttl,
	}
}

// Key joins a method name and its full argument tuple. Keys are
// case-insensitive so checksummed and lower-case addresses share entries.
func Key(method string, args ...any) string {
	parts := make([]string, 0, len(args)+1)
	parts = append(parts, method)
	for _, arg := range args {
		parts = append(parts, fmt.Sprint(arg))
	}
	return strings.ToLower(strings.Join(parts, ":"))
}

func (c *Cache) Get(key string) (any, bool) {
	if c == nil {
		return nil, false
	}
	return c.memory.Get(key)
}

// Set stores value; a zero ttl uses the cache default.
func (c *Cache) Set(key string, value any, ttl time.Duration) {
	if c == nil {
		return
	}
	if ttl <= 0 {
		ttl = gocache.DefaultExpiration
	}
	c.memory.Set(key, value, ttl)
}

// Load returns the cached value for key or calls fetch and caches its result.
// Errors are never cached. A nil cache always fetches.
func Load[T any](ctx context.Context, c *Cache, key string, ttl time.Duration, fetch func(context.Context) (T, error)) (T, error) {
	if v, ok := c.Get(key); ok {
		if typed, ok := v.(T); ok {
			return typed, nil
		}
	}
	v, err := fetch(ctx)
	if err != nil {
		var zero T
		return zero, err
	}
	c.Set(key, v, ttl)
	return v, nil
}
