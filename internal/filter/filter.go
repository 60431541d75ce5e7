// file: internal/filter/filter.go
// version: 1.0.0
// guid: 341560d5-6f39-44a0-911c-4cc7844f2670

// Package filter computes storefront views of the book collection. Every
// function is pure: inputs are never modified and results are fresh slices.
package filter

import (
	"sort"
	"strings"

	"github.com/jdfalk/cliqbook/internal/models"
	"github.com/rs/zerolog"
	"golang.org/x/text/cases"
)

// Default result sizes for the storefront rails.
const (
	DefaultTrendingLimit = 10
	DefaultFeaturedLimit = 8
	FeaturedMinRating    = 4.5
)

// fold lowers s with full Unicode case folding so "STRASSE" finds "straße".
func fold(s string) string {
	return cases.Fold().String(s)
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(fold(haystack), needle)
}

func equalFold(a, b string) bool {
	return fold(a) == fold(b)
}

func active(v string) bool {
	return v != "" && v != models.FilterAll
}

// Books applies state to books conjunctively and preserves input order.
//
// An unknown category id is logged and the category criterion skipped, so a
// stale link shows the whole catalog instead of an empty page.
func Books(log zerolog.Logger, books []models.Book, categories []models.Category, state models.FilterState) []models.Book {
	var categoryName string
	categoryActive := false
	if active(state.Category) {
		for _, c := range categories {
			if c.ID == state.Category {
				categoryName = c.Name
				categoryActive = true
				break
			}
		}
		if !categoryActive {
			log.Warn().Str("category", state.Category).Msg("invalid category id in filter, skipping category filter")
		}
	}

	term := ""
	if state.Search != "" {
		term = fold(state.Search)
	}

	out := make([]models.Book, 0, len(books))
	for _, b := range books {
		if categoryActive && !equalFold(b.Category, categoryName) {
			continue
		}
		if state.Rating > 0 && b.Rating < state.Rating {
			continue
		}
		if term != "" && !matchesTerm(b, term, false) {
			continue
		}
		if active(state.AccessLevel) && b.AccessLevel != state.AccessLevel {
			continue
		}
		out = append(out, b.Clone())
	}
	return out
}

// matchesTerm checks title, author, tags and optionally description against
// an already folded term.
func matchesTerm(b models.Book, term string, withDescription bool) bool {
	if containsFold(b.Title, term) || containsFold(b.Author, term) {
		return true
	}
	if withDescription && containsFold(b.Description, term) {
		return true
	}
	for _, tag := range b.Tags {
		if containsFold(tag, term) {
			return true
		}
	}
	return false
}

// Search is the free-text search used by the search page: like the filter's
// search criterion but the description is matched too. An empty query
// matches every book.
func Search(books []models.Book, query string) []models.Book {
	term := fold(query)
	out := make([]models.Book, 0)
	for _, b := range books {
		if matchesTerm(b, term, true) {
			out = append(out, b.Clone())
		}
	}
	return out
}

// ByCategory returns books whose category name matches name case-insensitively.
// A limit of zero or less means no limit.
func ByCategory(books []models.Book, name string, limit int) []models.Book {
	out := make([]models.Book, 0)
	for _, b := range books {
		if equalFold(b.Category, name) {
			out = append(out, b.Clone())
		}
	}
	return truncate(out, limit)
}

// Trending returns the most reviewed books first; ties keep catalog order.
func Trending(books []models.Book, limit int) []models.Book {
	out := cloneAll(books)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Reviews > out[j].Reviews })
	return truncate(out, limit)
}

// Featured returns books rated at least 4.5, best first; ties keep catalog order.
func Featured(books []models.Book, limit int) []models.Book {
	out := make([]models.Book, 0)
	for _, b := range books {
		if b.Rating >= FeaturedMinRating {
			out = append(out, b.Clone())
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Rating > out[j].Rating })
	return truncate(out, limit)
}

// AdminBooks is the admin table search: title, author or category name.
func AdminBooks(books []models.Book, query string) []models.Book {
	term := fold(query)
	out := make([]models.Book, 0)
	for _, b := range books {
		if containsFold(b.Title, term) || containsFold(b.Author, term) || containsFold(b.Category, term) {
			out = append(out, b.Clone())
		}
	}
	return out
}

// AdminUsers is the admin table search: name or email.
func AdminUsers(users []models.User, query string) []models.User {
	term := fold(query)
	out := make([]models.User, 0)
	for _, u := range users {
		if containsFold(u.Name, term) || containsFold(u.Email, term) {
			out = append(out, u.Clone())
		}
	}
	return out
}

// Page is one page of a result set.
type Page struct {
	Books      []models.Book `json:"books"`
	Page       int           `json:"page"`
	PerPage    int           `json:"perPage"`
	Total      int           `json:"total"`
	TotalPages int           `json:"totalPages"`
}

// Paginate slices books into pages of perPage, numbered from 1. Pages past the
// end are empty; page numbers below 1 are treated as 1.
func Paginate(books []models.Book, page, perPage int) Page {
	if perPage <= 0 {
		perPage = models.DefaultBooksPerPage
	}
	if page < 1 {
		page = 1
	}
	total := len(books)
	totalPages := (total + perPage - 1) / perPage

	start := (page - 1) * perPage
	if start > total {
		start = total
	}
	end := start + perPage
	if end > total {
		end = total
	}
	return Page{
		Books:      cloneAll(books[start:end]),
		Page:       page,
		PerPage:    perPage,
		Total:      total,
		TotalPages: totalPages,
	}
}

func cloneAll(books []models.Book) []models.Book {
	out := make([]models.Book, len(books))
	for i, b := range books {
		out[i] = b.Clone()
	}
	return out
}

func truncate(books []models.Book, limit int) []models.Book {
	if limit > 0 && len(books) > limit {
		return books[:limit]
	}
	return books
}
