// file: internal/server/error_handler_test.go
// version: 2.0.0
// guid: 19bd582c-bc24-488a-a8ce-d7449e2e695d

package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/jdfalk/cliqbook/internal/apperrors"
)

func newTestContext(target string) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest("GET", target, nil)
	return c, w
}

func TestRespondWithBadRequest(t *testing.T) {
	c, w := newTestContext("/")
	RespondWithBadRequest(c, "test error")

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "test error") {
		t.Errorf("expected error message in response, got %q", w.Body.String())
	}
}

func TestRespondWithNotFound(t *testing.T) {
	c, w := newTestContext("/")
	RespondWithNotFound(c, "book", "b123")

	if w.Code != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "book not found: b123") {
		t.Errorf("expected 'book not found: b123' in response, got %q", w.Body.String())
	}
}

func TestRespondWithInternalError(t *testing.T) {
	c, w := newTestContext("/")
	RespondWithInternalError(c, "database error")

	if w.Code != http.StatusInternalServerError {
		t.Errorf("expected status 500, got %d", w.Code)
	}
}

func TestRespondWithCreated(t *testing.T) {
	c, w := newTestContext("/")
	RespondWithCreated(c, map[string]string{"id": "b011"})

	if w.Code != http.StatusCreated {
		t.Errorf("expected status 201, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"data":{"id":"b011"}`) {
		t.Errorf("expected data envelope, got %q", w.Body.String())
	}
}

func TestRespondWithListNil(t *testing.T) {
	c, w := newTestContext("/")
	RespondWithList[string](c, nil)

	if got := w.Body.String(); got != `{"items":[],"count":0}` {
		t.Errorf("expected empty list, got %q", got)
	}
}

func TestRespondWithDomainError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
		field  string
	}{
		{"validation", apperrors.Invalid("price", "must not be negative"), http.StatusBadRequest, "VALIDATION_ERROR", "price"},
		{"not found", apperrors.NotFound("book", "b999"), http.StatusNotFound, "NOT_FOUND", ""},
		{"conflict", fmt.Errorf("create user: %w", apperrors.ErrConflict), http.StatusConflict, "CONFLICT", ""},
		{"credentials", apperrors.ErrInvalidCredentials, http.StatusUnauthorized, "UNAUTHORIZED", ""},
		{"forbidden", apperrors.ErrForbidden, http.StatusForbidden, "FORBIDDEN", ""},
		{"storage", apperrors.Storage("write", "books", fmt.Errorf("disk full")), http.StatusServiceUnavailable, "STORAGE_UNAVAILABLE", ""},
		{"unknown", fmt.Errorf("boom"), http.StatusInternalServerError, "INTERNAL_ERROR", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, w := newTestContext("/")
			RespondWithDomainError(c, tt.err)

			if w.Code != tt.status {
				t.Fatalf("expected status %d, got %d", tt.status, w.Code)
			}
			var resp ErrorResponse
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatalf("invalid JSON: %v", err)
			}
			if resp.Code != tt.code {
				t.Errorf("expected code %q, got %q", tt.code, resp.Code)
			}
			if resp.Field != tt.field {
				t.Errorf("expected field %q, got %q", tt.field, resp.Field)
			}
			if resp.Status != tt.status {
				t.Errorf("expected status field %d, got %d", tt.status, resp.Status)
			}
		})
	}
}

func TestStorageErrorHidesCause(t *testing.T) {
	c, w := newTestContext("/")
	RespondWithDomainError(c, apperrors.Storage("write", "users", fmt.Errorf("pebble: /secret/path locked")))

	if strings.Contains(w.Body.String(), "/secret/path") {
		t.Errorf("storage cause leaked into response: %q", w.Body.String())
	}
}

func TestHandleBindError(t *testing.T) {
	c, w := newTestContext("/")
	if HandleBindError(c, nil) {
		t.Fatal("nil error should not be handled")
	}
	if !HandleBindError(c, fmt.Errorf("unexpected EOF")) {
		t.Fatal("expected error to be handled")
	}
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", w.Code)
	}
}

func TestParseQueryInt(t *testing.T) {
	c, _ := newTestContext("/?limit=25&bad=x")

	if got := ParseQueryInt(c, "limit", 10); got != 25 {
		t.Errorf("expected 25, got %d", got)
	}
	if got := ParseQueryInt(c, "bad", 10); got != 10 {
		t.Errorf("expected default for invalid value, got %d", got)
	}
	if got := ParseQueryInt(c, "missing", 7); got != 7 {
		t.Errorf("expected default for missing value, got %d", got)
	}
}

func TestParseLimit(t *testing.T) {
	tests := []struct {
		query string
		want  int
	}{
		{"/", 10},
		{"/?limit=5", 5},
		{"/?limit=0", 10},
		{"/?limit=-3", 10},
		{"/?limit=500", 50},
	}
	for _, tt := range tests {
		c, _ := newTestContext(tt.query)
		if got := ParseLimit(c, 10, 50); got != tt.want {
			t.Errorf("ParseLimit(%s) = %d, want %d", tt.query, got, tt.want)
		}
	}
}

func TestParseQueryBool(t *testing.T) {
	c, _ := newTestContext("/?a=true&b=1&c=TRUE&d=no")

	for key, want := range map[string]bool{"a": true, "b": true, "c": true, "d": false} {
		if got := ParseQueryBool(c, key, false); got != want {
			t.Errorf("ParseQueryBool(%s) = %v, want %v", key, got, want)
		}
	}
	if !ParseQueryBool(c, "missing", true) {
		t.Error("expected default for missing key")
	}
}
