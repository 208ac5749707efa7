package cache

import (
	"context"
	"sync"
	"time"

	"github.com/hbox/claimtrack/common/logger"
)

// Cache is a keyed TTL store for serialized query results. Entries carry a
// set of tags; a write that could affect a cached query invalidates the
// matching tags rather than pattern-matching on key strings.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration, tags ...string) error
	Delete(ctx context.Context, key string) error
	InvalidateTags(ctx context.Context, tags ...string) error
	Close() error
}

// MemoryCache is the in-process implementation used in the default
// single-instance deployment.
type MemoryCache struct {
	data  map[string]*cacheEntry
	byTag map[string]map[string]struct{}
	mu    sync.RWMutex
	log   *logger.Logger

	// now is replaceable in tests to pin freshness boundaries
	now func() time.Time
}

type cacheEntry struct {
	value     []byte
	expiresAt time.Time
	tags      []string
}

// NewMemoryCache creates a new in-memory cache
func NewMemoryCache(log *logger.Logger) *MemoryCache {
	c := &MemoryCache{
		data:  make(map[string]*cacheEntry),
		byTag: make(map[string]map[string]struct{}),
		log:   log,
		now:   time.Now,
	}

	go c.sweep()

	return c
}

// Get retrieves a value from cache. Freshness is checked lazily on read.
func (c *MemoryCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, exists := c.data[key]
	if !exists {
		return nil, false, nil
	}

	if !c.now().Before(entry.expiresAt) {
		return nil, false, nil
	}

	return entry.value, true, nil
}

// Set stores a value with a TTL and associates it with the given tags
func (c *MemoryCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration, tags ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if old, ok := c.data[key]; ok {
		c.dropTagsLocked(key, old.tags)
	}

	c.data[key] = &cacheEntry{
		value:     value,
		expiresAt: c.now().Add(ttl),
		tags:      tags,
	}
	for _, tag := range tags {
		keys, ok := c.byTag[tag]
		if !ok {
			keys = make(map[string]struct{})
			c.byTag[tag] = keys
		}
		keys[key] = struct{}{}
	}

	return nil
}

// Delete removes a single key
func (c *MemoryCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.removeLocked(key)
	return nil
}

// InvalidateTags evicts every entry associated with any of the tags
func (c *MemoryCache) InvalidateTags(ctx context.Context, tags ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, tag := range tags {
		for key := range c.byTag[tag] {
			c.removeLocked(key)
		}
		delete(c.byTag, tag)
	}
	return nil
}

// Close closes the cache
func (c *MemoryCache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.data = make(map[string]*cacheEntry)
	c.byTag = make(map[string]map[string]struct{})
	c.log.Info("memory cache closed")
	return nil
}

func (c *MemoryCache) removeLocked(key string) {
	if entry, ok := c.data[key]; ok {
		c.dropTagsLocked(key, entry.tags)
		delete(c.data, key)
	}
}

func (c *MemoryCache) dropTagsLocked(key string, tags []string) {
	for _, tag := range tags {
		if keys, ok := c.byTag[tag]; ok {
			delete(keys, key)
			if len(keys) == 0 {
				delete(c.byTag, tag)
			}
		}
	}
}

// sweep removes expired entries periodically so the map does not grow
// unbounded between restarts
func (c *MemoryCache) sweep() {
	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		c.mu.Lock()
		now := c.now()
		for key, entry := range c.data {
			if !now.Before(entry.expiresAt) {
				c.removeLocked(key)
			}
		}
		c.mu.Unlock()
	}
}

// Stats returns cache statistics
func (c *MemoryCache) Stats() map[string]interface{} {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return map[string]interface{}{
		"entries": len(c.data),
		"tags":    len(c.byTag),
		"type":    "memory",
	}
}
