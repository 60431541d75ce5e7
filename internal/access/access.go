// file: internal/access/access.go
// version: 1.1.0
// guid: 14379799-eca5-4f96-88a0-f4b1da92d97d

// Package access holds the membership policy that decides who may read a book.
package access

import "github.com/jdfalk/cliqbook/internal/models"

// HasPremium reports whether user is signed in with a premium membership.
func HasPremium(user *models.User) bool {
	return user.IsPremium()
}

// CanAccess reports whether user may read book in full. Premium books need a
// premium member; free and standard books are open to everyone, including
// anonymous visitors.
func CanAccess(user *models.User, book models.Book) bool {
	if book.AccessLevel == models.AccessPremium {
		return HasPremium(user)
	}
	return true
}

// Redact returns book as user may see it outside the reader: the file is
// dropped when CanAccess says no.
func Redact(user *models.User, book models.Book) models.Book {
	if !CanAccess(user, book) {
		book.FileURL = ""
	}
	return book
}

// RedactAll applies Redact to every book in place and returns the slice.
func RedactAll(user *models.User, books []models.Book) []models.Book {
	for i := range books {
		books[i] = Redact(user, books[i])
	}
	return books
}

// Decision is what the reader endpoint returns alongside a book.
type Decision struct {
	Allowed      bool   `json:"allowed"`
	PreviewPages int    `json:"previewPages"`
	Reason       string `json:"reason,omitempty"`
}

// Decide explains the CanAccess outcome. Denied readers are limited to the
// book's preview pages.
func Decide(user *models.User, book models.Book) Decision {
	if CanAccess(user, book) {
		return Decision{Allowed: true, PreviewPages: book.PreviewPages}
	}
	reason := "premium membership required"
	if user == nil {
		reason = "sign in with a premium membership to read this book"
	}
	return Decision{Allowed: false, PreviewPages: book.PreviewPages, Reason: reason}
}
