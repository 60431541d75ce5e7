// file: internal/apperrors/errors_test.go
// version: 1.0.0
// guid: d8d36f45-3e12-4d8f-857e-991d4319f651

package apperrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapErrorToHTTP(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"validation", Invalid("title", "required"), http.StatusBadRequest, "VALIDATION_ERROR"},
		{"wrapped validation", fmt.Errorf("create: %w", Invalid("email", "")), http.StatusBadRequest, "VALIDATION_ERROR"},
		{"not found", NotFound("book", "b999"), http.StatusNotFound, "NOT_FOUND"},
		{"conflict", fmt.Errorf("email taken: %w", ErrConflict), http.StatusConflict, "CONFLICT"},
		{"credentials", ErrInvalidCredentials, http.StatusUnauthorized, "UNAUTHORIZED"},
		{"unauthenticated", ErrUnauthenticated, http.StatusUnauthorized, "UNAUTHORIZED"},
		{"forbidden", ErrForbidden, http.StatusForbidden, "FORBIDDEN"},
		{"storage", Storage("set", "cliqbook_books", errors.New("disk full")), http.StatusServiceUnavailable, "STORAGE_UNAVAILABLE"},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			httpErr := MapErrorToHTTP(tt.err)
			require.NotNil(t, httpErr)
			assert.Equal(t, tt.status, httpErr.StatusCode)
			assert.Equal(t, tt.code, httpErr.Code)
		})
	}
	assert.Nil(t, MapErrorToHTTP(nil))
}

func TestStorageKeepsCause(t *testing.T) {
	err := Storage("get", "cliqbook_users", errors.New("quota exceeded"))
	assert.ErrorIs(t, err, ErrStorageUnavailable)
	assert.Contains(t, err.Error(), "quota exceeded")
	assert.Contains(t, err.Error(), "cliqbook_users")
}

func TestValidationErrorMessage(t *testing.T) {
	assert.Equal(t, "validation error: title", Invalid("title", "").Error())
	assert.Equal(t, "validation error: price (must not be negative)", Invalid("price", "must not be negative").Error())
	assert.True(t, IsValidation(fmt.Errorf("wrap: %w", Invalid("x", "y"))))
	assert.False(t, IsValidation(ErrConflict))
}
