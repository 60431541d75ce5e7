// file: internal/server/middleware/auth.go
// version: 2.0.0
// guid: b344f6b0-264e-4d70-94c3-29d53d840e8f

package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/jdfalk/cliqbook/internal/apperrors"
	"github.com/jdfalk/cliqbook/internal/models"
)

const (
	// SessionCookieName is the auth session cookie used by browser clients.
	SessionCookieName = "cliqbook_session"
	contextUserKey    = "auth_user"
	contextTokenKey   = "auth_token"
)

// Authenticator resolves a session token to the live user.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (models.User, error)
}

// SessionTokenFromRequest extracts the session token from Bearer auth or cookie.
func SessionTokenFromRequest(r *http.Request) string {
	if r == nil {
		return ""
	}
	authHeader := strings.TrimSpace(r.Header.Get("Authorization"))
	if strings.HasPrefix(strings.ToLower(authHeader), "bearer ") {
		token := strings.TrimSpace(authHeader[len("Bearer "):])
		if token != "" {
			return token
		}
	}
	if cookie, err := r.Cookie(SessionCookieName); err == nil && strings.TrimSpace(cookie.Value) != "" {
		return strings.TrimSpace(cookie.Value)
	}
	return ""
}

// CurrentUser fetches the authenticated user from Gin context.
func CurrentUser(c *gin.Context) (*models.User, bool) {
	if c == nil {
		return nil, false
	}
	value, ok := c.Get(contextUserKey)
	if !ok || value == nil {
		return nil, false
	}
	user, ok := value.(*models.User)
	return user, ok && user != nil
}

// CurrentToken returns the session token that authenticated the request.
func CurrentToken(c *gin.Context) string {
	return c.GetString(contextTokenKey)
}

// LoadUser resolves the request's session token, when present, and stores the
// user in the context. Requests without a valid session continue anonymously;
// storage failures abort with 503.
func LoadUser(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := SessionTokenFromRequest(c.Request)
		if token == "" || auth == nil {
			c.Next()
			return
		}
		user, err := auth.Authenticate(c.Request.Context(), token)
		switch {
		case err == nil:
			c.Set(contextUserKey, &user)
			c.Set(contextTokenKey, token)
		case errors.Is(err, apperrors.ErrStorageUnavailable):
			abort(c, http.StatusServiceUnavailable, "storage unavailable", "STORAGE_UNAVAILABLE")
			return
		}
		c.Next()
	}
}

// RequireAuth rejects anonymous requests. It must run after LoadUser.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := CurrentUser(c); !ok {
			abort(c, http.StatusUnauthorized, "authentication required", "UNAUTHORIZED")
			return
		}
		c.Next()
	}
}

// RequireAdmin rejects requests whose session does not belong to an admin.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok {
			abort(c, http.StatusUnauthorized, "authentication required", "UNAUTHORIZED")
			return
		}
		if !user.IsAdmin {
			abort(c, http.StatusForbidden, "admin access required", "FORBIDDEN")
			return
		}
		c.Next()
	}
}

func abort(c *gin.Context, status int, message, code string) {
	c.AbortWithStatusJSON(status, gin.H{"error": message, "code": code, "status": status})
}
