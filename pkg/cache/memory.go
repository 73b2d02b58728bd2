package cache

import (
	"context"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// MemoryCache is an in-process, LRU-bounded cache. It keeps the most
// recently used entries up to a fixed capacity, which makes it safe to use
// in long-running processes without watching its footprint.
//
// Memory entries never expire by time; the ttl argument to Set is ignored.
type MemoryCache struct {
	lru *lru.Cache[string, []byte]
}

// NewMemoryCache creates a memory cache holding at most capacity entries.
// Capacity must be positive; 256 is a reasonable default for response
// bodies.
func NewMemoryCache(capacity int) (*MemoryCache, error) {
	l, err := lru.New[string, []byte](capacity)
	if err != nil {
		return nil, err
	}
	return &MemoryCache{lru: l}, nil
}

// Get retrieves a value from the cache.
func (c *MemoryCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, ok := c.lru.Get(key)
	return data, ok, nil
}

// Set stores a value in the cache.
func (c *MemoryCache) Set(ctx context.Context, key string, data []byte, _ time.Duration) error {
	// Copy so later mutation of the caller's slice can't change the entry.
	buf := make([]byte, len(data))
	copy(buf, data)
	c.lru.Add(key, buf)
	return nil
}

// Delete removes a value from the cache.
func (c *MemoryCache) Delete(ctx context.Context, key string) error {
	c.lru.Remove(key)
	return nil
}

// Keys lists stored keys beginning with prefix.
func (c *MemoryCache) Keys(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	for _, key := range c.lru.Keys() {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	return keys, nil
}

// Purge removes every entry whose key begins with prefix.
func (c *MemoryCache) Purge(ctx context.Context, prefix string) error {
	for _, key := range c.lru.Keys() {
		if strings.HasPrefix(key, prefix) {
			c.lru.Remove(key)
		}
	}
	return nil
}

// Close does nothing for memory cache.
func (c *MemoryCache) Close() error {
	return nil
}

// Ensure MemoryCache implements Cache.
var _ Cache = (*MemoryCache)(nil)
