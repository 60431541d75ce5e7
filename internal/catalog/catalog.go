// file: internal/catalog/catalog.go
// version: 1.0.0
// guid: 0678d2e8-d865-40f8-9cd2-585ffc56bad9

// Package catalog holds the domain services for books, users, categories,
// the activity log and settings. Each collection is mirrored in memory and
// written back whole to the store on every mutation.
package catalog

import (
	"errors"
	"time"

	"github.com/rs/zerolog"
)

// Catalog bundles the services built over one store.
type Catalog struct {
	Books      *Books
	Users      *Users
	Categories *Categories
	Activity   *ActivityLog
	Settings   *SettingsService
	Dashboard  *Dashboard

	log zerolog.Logger
}

// New wires the services together. Call Load before use.
func New(deps Deps, limits UploadLimits) *Catalog {
	deps = deps.withDefaults()
	activity := NewActivityLog(deps)
	books := NewBooks(deps, activity, limits)
	users := NewUsers(deps, activity)
	categories := NewCategories(deps.Notifier)
	return &Catalog{
		Books:      books,
		Users:      users,
		Categories: categories,
		Activity:   activity,
		Settings:   NewSettingsService(deps, activity),
		Dashboard:  NewDashboard(books, users, categories, activity),
		log:        deps.Log.With().Str("service", "catalog").Logger(),
	}
}

// Load reads every collection from the store. A collection that cannot be
// read is logged and left empty; the combined error is returned so callers
// can decide whether that is fatal.
func (c *Catalog) Load() error {
	var errs []error
	for name, load := range map[string]func() error{
		CollectionBooks:      c.Books.Load,
		CollectionUsers:      c.Users.Load,
		CollectionActivities: c.Activity.Load,
		CollectionSettings:   c.Settings.Load,
	} {
		if err := load(); err != nil {
			c.log.Error().Err(err).Str("collection", name).Msg("failed to load collection, starting empty")
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close stops the per-collection queues, letting in-flight writes finish.
func (c *Catalog) Close(timeout time.Duration) error {
	return errors.Join(
		c.Books.close(timeout),
		c.Users.close(timeout),
		c.Settings.close(timeout),
		c.Activity.close(timeout),
	)
}
