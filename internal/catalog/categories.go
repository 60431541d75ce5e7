// file: internal/catalog/categories.go
// version: 1.1.0
// guid: d2d2f129-b225-4b21-9ada-07779421e9a9

package catalog

import (
	"sync"

	"github.com/jdfalk/cliqbook/internal/apperrors"
	"github.com/jdfalk/cliqbook/internal/models"
)

// Categories is the read-only category reference list. It is never
// persisted; the seed loader sets it at startup and on fixture changes.
type Categories struct {
	notifier Notifier

	mu      sync.RWMutex
	items   []models.Category
	version uint64
}

// NewCategories creates an empty list.
func NewCategories(notifier Notifier) *Categories {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	return &Categories{notifier: notifier, items: []models.Category{}}
}

// Set replaces the list.
func (c *Categories) Set(items []models.Category) {
	next := append([]models.Category{}, items...)
	c.mu.Lock()
	c.items = next
	c.version++
	c.mu.Unlock()
	c.notifier.Changed(CollectionCategories, "reload", "")
}

// Version changes on every Set.
func (c *Categories) Version() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.version
}

// List returns a copy of the categories.
func (c *Categories) List() []models.Category {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]models.Category{}, c.items...)
}

// Find looks a category up by id.
func (c *Categories) Find(id string) (models.Category, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, cat := range c.items {
		if cat.ID == id {
			return cat, nil
		}
	}
	return models.Category{}, apperrors.NotFound("category", id)
}
