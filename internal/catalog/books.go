// file: internal/catalog/books.go
// version: 1.1.0
// guid: 41b8e4a7-92d5-458d-a560-97638a1d89b1

package catalog

import (
	"context"
	"strings"
	"time"

	"github.com/jdfalk/cliqbook/internal/apperrors"
	"github.com/jdfalk/cliqbook/internal/database"
	"github.com/jdfalk/cliqbook/internal/filter"
	"github.com/jdfalk/cliqbook/internal/metrics"
	"github.com/jdfalk/cliqbook/internal/models"
	"github.com/rs/zerolog"
)

// DefaultPreviewPages is given to new books that do not set one.
const DefaultPreviewPages = 15

// Books manages the book collection.
type Books struct {
	col      *collection[models.Book]
	activity *ActivityLog
	notifier Notifier
	limits   UploadLimits
	log      zerolog.Logger
	now      func() time.Time
}

// NewBooks creates the book service. Zero limits fall back to the defaults.
func NewBooks(deps Deps, activity *ActivityLog, limits UploadLimits) *Books {
	deps = deps.withDefaults()
	defaults := DefaultUploadLimits()
	if limits.BookFile <= 0 {
		limits.BookFile = defaults.BookFile
	}
	if limits.Cover <= 0 {
		limits.Cover = defaults.Cover
	}
	log := deps.Log.With().Str("service", "books").Logger()
	return &Books{
		col:      newCollection(CollectionBooks, database.KeyBooks, deps.Store, log, models.Book.Clone),
		activity: activity,
		notifier: deps.Notifier,
		limits:   limits,
		log:      log,
		now:      deps.Now,
	}
}

// Load reads the persisted collection.
func (s *Books) Load() error {
	_, err := s.col.load()
	metrics.SetBooks(s.col.len())
	return err
}

// List returns every book in catalog order.
func (s *Books) List() []models.Book { return s.col.snapshot() }

// Count returns the number of books.
func (s *Books) Count() int { return s.col.len() }

// Version changes whenever the collection does.
func (s *Books) Version() uint64 { return s.col.Version() }

// Limits returns the upload limits in force.
func (s *Books) Limits() UploadLimits { return s.limits }

// Find returns the book with id.
func (s *Books) Find(id string) (models.Book, error) {
	for _, b := range s.List() {
		if b.ID == id {
			return b, nil
		}
	}
	return models.Book{}, apperrors.NotFound("book", id)
}

func validateBook(b models.Book) error {
	if strings.TrimSpace(b.Title) == "" {
		return apperrors.Invalid("title", "is required")
	}
	if strings.TrimSpace(b.Author) == "" {
		return apperrors.Invalid("author", "is required")
	}
	if !models.IsValidAccessLevel(b.AccessLevel) {
		return apperrors.Invalid("accessLevel", "must be free, standard or premium")
	}
	if b.Price < 0 {
		return apperrors.Invalid("price", "must not be negative")
	}
	if b.Rating < 0 || b.Rating > 5 {
		return apperrors.Invalid("rating", "must be between 0 and 5")
	}
	if b.Reviews < 0 {
		return apperrors.Invalid("reviews", "must not be negative")
	}
	if b.PreviewPages < 0 {
		return apperrors.Invalid("previewPages", "must not be negative")
	}
	return nil
}

func (s *Books) applyUploads(b *models.Book, files Uploads) error {
	if files.Cover != nil {
		url, err := coverDataURL(files.Cover, s.limits.Cover)
		if err != nil {
			return err
		}
		b.Cover = url
	}
	if files.BookFile != nil {
		url, err := DataURL("bookFile", files.BookFile, s.limits.BookFile)
		if err != nil {
			return err
		}
		b.FileURL = url
	}
	return nil
}

// Create assigns an id and the new-book defaults, then stores draft.
//
// Defaults: rating 0, reviews 0, publishDate today, tags empty, summary
// copied from the description, 15 preview pages, access level free.
func (s *Books) Create(ctx context.Context, draft models.Book, files Uploads) (models.Book, error) {
	b := draft.Clone()
	now := s.now()
	b.Rating = 0
	b.Reviews = 0
	if b.AccessLevel == "" {
		b.AccessLevel = models.AccessFree
	}
	if b.PublishDate == "" {
		b.PublishDate = now.Format(time.DateOnly)
	}
	if b.Tags == nil {
		b.Tags = []string{}
	}
	if b.KeyLessons == nil {
		b.KeyLessons = []string{}
	}
	if b.Summary == "" {
		b.Summary = b.Description
	}
	if b.PreviewPages == 0 {
		b.PreviewPages = DefaultPreviewPages
	}
	b.CreatedAt = now.UTC().Format(time.RFC3339)

	if err := validateBook(b); err != nil {
		return models.Book{}, err
	}
	if err := s.applyUploads(&b, files); err != nil {
		return models.Book{}, err
	}

	err := s.col.mutate(ctx, "create", func(items []models.Book) ([]models.Book, error) {
		ids := make([]string, len(items))
		for i, it := range items {
			ids[i] = it.ID
		}
		b.ID = nextID("b", ids)
		return append(items, b), nil
	})
	if err != nil {
		return models.Book{}, err
	}

	s.afterChange(ctx, "create", b.ID, "New book added: %s", b.Title)
	return b.Clone(), nil
}

// Update merges patch and any uploads into the book with id.
func (s *Books) Update(ctx context.Context, id string, patch models.BookPatch, files Uploads) (models.Book, error) {
	var updated models.Book
	err := s.col.mutate(ctx, "update", func(items []models.Book) ([]models.Book, error) {
		for i, it := range items {
			if it.ID != id {
				continue
			}
			next := patch.Apply(it)
			if err := validateBook(next); err != nil {
				return nil, err
			}
			if err := s.applyUploads(&next, files); err != nil {
				return nil, err
			}
			items[i] = next
			updated = next
			return items, nil
		}
		return nil, apperrors.NotFound("book", id)
	})
	if err != nil {
		return models.Book{}, err
	}

	s.afterChange(ctx, "update", id, "Book updated: %s", updated.Title)
	return updated.Clone(), nil
}

// Delete removes the book with id. A missing id is NotFound and logs nothing.
func (s *Books) Delete(ctx context.Context, id string) error {
	var removed models.Book
	err := s.col.mutate(ctx, "delete", func(items []models.Book) ([]models.Book, error) {
		for i, it := range items {
			if it.ID == id {
				removed = it
				return append(items[:i], items[i+1:]...), nil
			}
		}
		return nil, apperrors.NotFound("book", id)
	})
	if err != nil {
		return err
	}

	s.afterChange(ctx, "delete", id, "Book deleted: %s", removed.Title)
	return nil
}

func (s *Books) afterChange(ctx context.Context, action, id, format string, args ...any) {
	metrics.SetBooks(s.col.len())
	s.log.Info().Str("action", action).Str("book", id).Msg("book collection changed")
	s.activity.record(ctx, format, args...)
	s.notifier.Changed(CollectionBooks, action, id)
}

// Filter applies the storefront filter against the given categories.
func (s *Books) Filter(categories []models.Category, state models.FilterState) []models.Book {
	return filter.Books(s.log, s.List(), categories, state)
}

// Search matches title, author, description or tags.
func (s *Books) Search(query string) []models.Book { return filter.Search(s.List(), query) }

// AdminSearch matches title, author or category name.
func (s *Books) AdminSearch(query string) []models.Book { return filter.AdminBooks(s.List(), query) }

// ByCategory lists books in the named category; limit <= 0 means all.
func (s *Books) ByCategory(name string, limit int) []models.Book {
	return filter.ByCategory(s.List(), name, limit)
}

// Trending lists the most reviewed books.
func (s *Books) Trending(limit int) []models.Book { return filter.Trending(s.List(), limit) }

// Featured lists the best rated books at or above 4.5.
func (s *Books) Featured(limit int) []models.Book { return filter.Featured(s.List(), limit) }

// Suggest returns fuzzy title completions.
func (s *Books) Suggest(query string, limit int) []filter.Suggestion {
	return filter.Suggest(s.List(), query, limit)
}

func (s *Books) close(timeout time.Duration) error { return s.col.close(timeout) }
