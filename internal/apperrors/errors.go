// file: internal/apperrors/errors.go
// version: 1.0.0
// guid: 6d6e8a02-9027-4ffe-9c37-209acc77afba

package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNotFound is returned when a record id is absent on find, update or delete.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a unique attribute (user email) is already taken.
	ErrConflict = errors.New("conflict")
	// ErrInvalidCredentials is returned by login when email or password do not match.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrUnauthenticated is returned when an operation needs a logged-in user.
	ErrUnauthenticated = errors.New("not authenticated")
	// ErrForbidden is returned when the current user lacks the required role or tier.
	ErrForbidden = errors.New("forbidden")
	// ErrStorageUnavailable is returned when the backing key-value store rejects a read or write.
	ErrStorageUnavailable = errors.New("storage unavailable")
	// ErrFetch is returned when a fixture file cannot be fetched or decoded.
	ErrFetch = errors.New("fixture fetch failed")
)

// ValidationError reports a single invalid or missing input field.
type ValidationError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

func (e *ValidationError) Error() string {
	if e.Reason == "" {
		return "validation error: " + e.Field
	}
	return fmt.Sprintf("validation error: %s (%s)", e.Field, e.Reason)
}

// Invalid builds a ValidationError for field.
func Invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// NotFound wraps ErrNotFound with the resource kind and id.
func NotFound(kind, id string) error {
	return fmt.Errorf("%s %q: %w", kind, id, ErrNotFound)
}

// Storage wraps a backend failure so callers can match ErrStorageUnavailable.
func Storage(op, key string, err error) error {
	return fmt.Errorf("%s %s: %w: %v", op, key, ErrStorageUnavailable, err)
}

// IsValidation reports whether err carries a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// HTTPError is the transport view of a domain error.
type HTTPError struct {
	StatusCode int
	Message    string
	Code       string
}

func (e *HTTPError) Error() string {
	return e.Message
}

// MapErrorToHTTP classifies domain errors into HTTP status codes and stable codes.
func MapErrorToHTTP(err error) *HTTPError {
	var ve *ValidationError
	switch {
	case err == nil:
		return nil
	case errors.As(err, &ve):
		return &HTTPError{StatusCode: http.StatusBadRequest, Message: ve.Error(), Code: "VALIDATION_ERROR"}
	case errors.Is(err, ErrNotFound):
		return &HTTPError{StatusCode: http.StatusNotFound, Message: err.Error(), Code: "NOT_FOUND"}
	case errors.Is(err, ErrConflict):
		return &HTTPError{StatusCode: http.StatusConflict, Message: err.Error(), Code: "CONFLICT"}
	case errors.Is(err, ErrInvalidCredentials), errors.Is(err, ErrUnauthenticated):
		return &HTTPError{StatusCode: http.StatusUnauthorized, Message: err.Error(), Code: "UNAUTHORIZED"}
	case errors.Is(err, ErrForbidden):
		return &HTTPError{StatusCode: http.StatusForbidden, Message: err.Error(), Code: "FORBIDDEN"}
	case errors.Is(err, ErrStorageUnavailable):
		return &HTTPError{StatusCode: http.StatusServiceUnavailable, Message: "storage unavailable", Code: "STORAGE_UNAVAILABLE"}
	default:
		return &HTTPError{StatusCode: http.StatusInternalServerError, Message: "internal server error", Code: "INTERNAL_ERROR"}
	}
}
