// file: internal/models/catalog.go
// version: 1.0.0
// guid: 857143cd-8408-4aac-86ca-2dcfcb936268

package models

import "time"

// Category is read-only reference data loaded from the categories fixture.
type Category struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Icon        string `json:"icon,omitempty"`
	Description string `json:"description,omitempty"`
	BookCount   int    `json:"bookCount"`
	Popular     bool   `json:"popular"`
}

// ActivityEntry is one line of the admin audit trail.
type ActivityEntry struct {
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// Settings is the single persisted admin settings record.
type Settings struct {
	BooksPerPage int `json:"booksPerPage"`
}

// DefaultBooksPerPage is used when no settings record has been saved.
const DefaultBooksPerPage = 20

// DefaultSettings returns the settings used before the admin saves any.
func DefaultSettings() Settings {
	return Settings{BooksPerPage: DefaultBooksPerPage}
}

// Filter sentinel meaning "do not filter on this attribute".
const FilterAll = "all"

// FilterState is the request-scoped storefront filter.
type FilterState struct {
	Category    string  `json:"category" form:"category"`
	Rating      float64 `json:"rating" form:"rating"`
	Search      string  `json:"search" form:"search"`
	AccessLevel string  `json:"accessLevel" form:"access"`
}

// DefaultFilter returns the identity filter: every book, original order.
func DefaultFilter() FilterState {
	return FilterState{Category: FilterAll, AccessLevel: FilterAll}
}
