// file: internal/cache/cache.go
// version: 2.0.0
// guid: 30ed6fa0-f773-4f47-ac26-9068423769b7

package cache

import (
	"sync"
	"time"
)

type entry[T any] struct {
	value     T
	version   uint64
	expiresAt time.Time
}

// Cache is a generic TTL cache safe for concurrent use. Entries may also be
// tagged with the version of the data they were derived from; a lookup with a
// newer version misses, so derived values go stale as soon as the source
// collection changes.
type Cache[T any] struct {
	mu         sync.RWMutex
	items      map[string]entry[T]
	defaultTTL time.Duration
	now        func() time.Time
}

// New creates a cache with the given default TTL.
func New[T any](defaultTTL time.Duration) *Cache[T] {
	return &Cache[T]{
		items:      make(map[string]entry[T]),
		defaultTTL: defaultTTL,
		now:        time.Now,
	}
}

// Get retrieves a value if it exists and hasn't expired.
func (c *Cache[T]) Get(key string) (T, bool) {
	c.mu.RLock()
	e, ok := c.items[key]
	c.mu.RUnlock()
	if !ok || c.now().After(e.expiresAt) {
		var zero T
		return zero, false
	}
	return e.value, true
}

// GetVersion is Get restricted to entries stored for exactly version.
func (c *Cache[T]) GetVersion(key string, version uint64) (T, bool) {
	c.mu.RLock()
	e, ok := c.items[key]
	c.mu.RUnlock()
	if !ok || e.version != version || c.now().After(e.expiresAt) {
		var zero T
		return zero, false
	}
	return e.value, true
}

// Set stores a value with the default TTL.
func (c *Cache[T]) Set(key string, value T) {
	c.SetVersion(key, 0, value)
}

// SetVersion stores a value derived from the given data version.
func (c *Cache[T]) SetVersion(key string, version uint64, value T) {
	c.mu.Lock()
	c.items[key] = entry[T]{value: value, version: version, expiresAt: c.now().Add(c.defaultTTL)}
	c.mu.Unlock()
}

// GetOrLoad returns the cached value for (key, version) or computes, stores
// and returns a fresh one. A load error is returned and nothing is cached.
func (c *Cache[T]) GetOrLoad(key string, version uint64, load func() (T, error)) (T, error) {
	if v, ok := c.GetVersion(key, version); ok {
		return v, nil
	}
	v, err := load()
	if err != nil {
		var zero T
		return zero, err
	}
	c.SetVersion(key, version, v)
	return v, nil
}

// Invalidate removes a single key.
func (c *Cache[T]) Invalidate(key string) {
	c.mu.Lock()
	delete(c.items, key)
	c.mu.Unlock()
}

// InvalidateAll removes all entries.
func (c *Cache[T]) InvalidateAll() {
	c.mu.Lock()
	c.items = make(map[string]entry[T])
	c.mu.Unlock()
}

// Len returns the number of stored entries, expired ones included.
func (c *Cache[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}
