// file: internal/catalog/collection.go
// version: 1.1.0
// guid: bcb93aa7-8026-4ae3-ac77-ec228f1d6d4a

package catalog

import (
	"context"
	"sync"
	"time"

	"github.com/jdfalk/cliqbook/internal/database"
	"github.com/jdfalk/cliqbook/internal/operations"
	"github.com/rs/zerolog"
)

// collection is the in-memory mirror of one store-backed list. Reads take a
// copy under the read lock; writes go through the collection's queue so that
// read-modify-persist never interleaves. The mirror is only replaced after
// the store accepted the new value, so a failed write leaves both untouched.
type collection[T any] struct {
	name  string
	key   string
	store database.Store
	queue *operations.Queue
	clone func(T) T

	mu      sync.RWMutex
	items   []T
	version uint64
}

func newCollection[T any](name, key string, store database.Store, log zerolog.Logger, clone func(T) T) *collection[T] {
	return &collection[T]{
		name:  name,
		key:   key,
		store: store,
		queue: operations.NewQueue(name, log),
		clone: clone,
		items: []T{},
	}
}

// load replaces the mirror with the persisted value. An absent key leaves
// the collection empty and reports found=false.
func (c *collection[T]) load() (bool, error) {
	var items []T
	found, err := database.GetJSON(c.store, c.key, &items)
	if err != nil {
		return found, err
	}
	if items == nil {
		items = []T{}
	}
	c.mu.Lock()
	c.items = items
	c.version++
	c.mu.Unlock()
	return found, nil
}

func (c *collection[T]) snapshot() []T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.copyLocked()
}

func (c *collection[T]) copyLocked() []T {
	out := make([]T, len(c.items))
	for i, item := range c.items {
		out[i] = c.clone(item)
	}
	return out
}

func (c *collection[T]) len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Version increases by one with every load or successful mutation.
func (c *collection[T]) Version() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.version
}

// mutate runs fn against a private copy of the items and, when fn succeeds,
// persists the result and swaps it in.
func (c *collection[T]) mutate(ctx context.Context, opType string, fn func(items []T) ([]T, error)) error {
	return c.queue.Submit(ctx, c.name+"."+opType, func(ctx context.Context) error {
		c.mu.RLock()
		working := c.copyLocked()
		c.mu.RUnlock()

		next, err := fn(working)
		if err != nil {
			return err
		}
		if next == nil {
			next = []T{}
		}
		if err := database.SetJSON(c.store, c.key, next); err != nil {
			return err
		}

		c.mu.Lock()
		c.items = next
		c.version++
		c.mu.Unlock()
		return nil
	})
}

func (c *collection[T]) close(timeout time.Duration) error {
	return c.queue.Shutdown(timeout)
}
