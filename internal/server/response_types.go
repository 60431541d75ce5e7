// file: internal/server/response_types.go
// version: 2.0.0
// guid: edd72ba7-7518-4070-9f5c-423d07116088

package server

import (
	"github.com/jdfalk/cliqbook/internal/access"
	"github.com/jdfalk/cliqbook/internal/models"
)

// ListResponse provides a consistent format for list responses
type ListResponse[T any] struct {
	Items []T `json:"items"`
	Count int `json:"count"`
}

// MessageResponse provides a consistent format for status messages
type MessageResponse struct {
	Message string `json:"message"`
}

// DeleteResponse provides a consistent format for deletion responses
type DeleteResponse struct {
	Deleted bool   `json:"deleted"`
	ID      string `json:"id"`
}

// StatusResponse is the health check payload
type StatusResponse struct {
	Status    string         `json:"status"` // "ok", "degraded"
	Timestamp int64          `json:"timestamp"`
	Version   string         `json:"version"`
	Metrics   map[string]int `json:"metrics"`
}

// SessionResponse is returned by login and register
type SessionResponse struct {
	Token     string      `json:"token"`
	User      models.User `json:"user"`
	ExpiresIn int64       `json:"expiresIn"` // seconds
}

// ReaderResponse is the reader page payload
type ReaderResponse struct {
	Book   models.Book     `json:"book"`
	Access access.Decision `json:"access"`
}

// SearchResult pairs a book with its relevance score
type SearchResult struct {
	Book  models.Book `json:"book"`
	Score float64     `json:"score"`
}

// BookmarkResponse reports the bookmark state after a toggle
type BookmarkResponse struct {
	BookID     string   `json:"bookId"`
	Bookmarked bool     `json:"bookmarked"`
	Bookmarks  []string `json:"bookmarks"`
}

// CategoryResponse is a category with its books
type CategoryResponse struct {
	Category models.Category `json:"category"`
	Books    []models.Book   `json:"books"`
}
