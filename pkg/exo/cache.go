package exo

import (
	"context"
	"sync"
	"time"

	"github.com/GreyCorbel/ExoHelper/internal/constants"
)

// CacheEntry is one cached value with its freshness bookkeeping.
type CacheEntry struct {
	Value    []byte        `json:"value"`
	StoredAt time.Time     `json:"stored_at"`
	TTL      time.Duration `json:"ttl"`
}

// Expired reports whether the entry has outlived its TTL. Entries without a
// TTL never expire.
func (e *CacheEntry) Expired() bool {
	if e.TTL <= 0 {
		return false
	}

	return time.Since(e.StoredAt) > e.TTL
}

// Cache is a small pluggable cache used for slowly rotating remote state,
// such as the protector's public key material.
type Cache interface {
	Get(ctx context.Context, key string) (*CacheEntry, error)
	Set(ctx context.Context, key string, entry *CacheEntry) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
	Has(ctx context.Context, key string) bool
}

// MemoryCache is an in-process Cache safe for concurrent use.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]*CacheEntry
	maxSize int
}

// NewMemoryCache creates a memory cache holding at most maxSize entries.
// Non-positive maxSize falls back to a small default.
func NewMemoryCache(maxSize int) *MemoryCache {
	if maxSize <= 0 {
		maxSize = 64
	}

	return &MemoryCache{
		entries: make(map[string]*CacheEntry),
		maxSize: maxSize,
	}
}

// Get retrieves a live entry.
func (c *MemoryCache) Get(ctx context.Context, key string) (*CacheEntry, error) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok {
		return nil, constants.ErrCacheEntryNotFound
	}

	if entry.Expired() {
		_ = c.Delete(ctx, key)

		return nil, constants.ErrCacheEntryNotFound
	}

	return entry, nil
}

// Set stores an entry, evicting expired entries when the cache is full.
func (c *MemoryCache) Set(ctx context.Context, key string, entry *CacheEntry) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.entries) >= c.maxSize {
		for k, e := range c.entries {
			if e.Expired() {
				delete(c.entries, k)
			}
		}
	}

	c.entries[key] = entry

	return nil
}

// Delete removes an entry.
func (c *MemoryCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, key)

	return nil
}

// Clear removes all entries.
func (c *MemoryCache) Clear(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]*CacheEntry)

	return nil
}

// Has reports whether a live entry exists.
func (c *MemoryCache) Has(ctx context.Context, key string) bool {
	_, err := c.Get(ctx, key)

	return err == nil
}

// NoOpCache is a Cache that stores nothing.
type NoOpCache struct{}

// NewNoOpCache creates a cache that never caches.
func NewNoOpCache() *NoOpCache {
	return &NoOpCache{}
}

// Get always misses.
func (c *NoOpCache) Get(ctx context.Context, key string) (*CacheEntry, error) {
	return nil, constants.ErrCacheDisabled
}

// Set does nothing.
func (c *NoOpCache) Set(ctx context.Context, key string, entry *CacheEntry) error {
	return nil
}

// Delete does nothing.
func (c *NoOpCache) Delete(ctx context.Context, key string) error {
	return nil
}

// Clear does nothing.
func (c *NoOpCache) Clear(ctx context.Context) error {
	return nil
}

// Has always reports false.
func (c *NoOpCache) Has(ctx context.Context, key string) bool {
	return false
}
