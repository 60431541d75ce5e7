// file: internal/server/middleware/auth_test.go
// version: 2.0.0
// guid: 54f3eb27-467c-48f3-ba7c-73c6e6013070

package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/jdfalk/cliqbook/internal/apperrors"
	"github.com/jdfalk/cliqbook/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAuthenticator map[string]models.User

func (f fakeAuthenticator) Authenticate(_ context.Context, token string) (models.User, error) {
	if token == "broken" {
		return models.User{}, apperrors.Storage("get", "cliqbook_user", assert.AnError)
	}
	u, ok := f[token]
	if !ok {
		return models.User{}, apperrors.ErrUnauthenticated
	}
	return u, nil
}

func authRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	auth := fakeAuthenticator{
		"member-token": {ID: "u002", Name: "Jane"},
		"admin-token":  {ID: "u001", Name: "John", IsAdmin: true},
	}
	r := gin.New()
	r.Use(LoadUser(auth))
	r.GET("/public", func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok {
			c.String(http.StatusOK, "anonymous")
			return
		}
		c.String(http.StatusOK, user.ID+":"+CurrentToken(c))
	})
	r.GET("/private", RequireAuth(), func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/admin", RequireAdmin(), func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func doAuth(r http.Handler, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestSessionTokenFromRequest(t *testing.T) {
	t.Parallel()

	assert.Empty(t, SessionTokenFromRequest(nil))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "bearer  abc ")
	assert.Equal(t, "abc", SessionTokenFromRequest(req))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "from-cookie"})
	assert.Equal(t, "from-cookie", SessionTokenFromRequest(req))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Basic Zm9vOmJhcg==")
	assert.Empty(t, SessionTokenFromRequest(req))
}

func TestLoadUser(t *testing.T) {
	t.Parallel()
	r := authRouter()

	assert.Equal(t, "anonymous", doAuth(r, "/public", "").Body.String())
	assert.Equal(t, "anonymous", doAuth(r, "/public", "stale").Body.String())
	assert.Equal(t, "u002:member-token", doAuth(r, "/public", "member-token").Body.String())

	w := doAuth(r, "/public", "broken")
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "STORAGE_UNAVAILABLE")
}

func TestRequireAuthAndAdmin(t *testing.T) {
	t.Parallel()
	r := authRouter()

	assert.Equal(t, http.StatusUnauthorized, doAuth(r, "/private", "").Code)
	assert.Equal(t, http.StatusOK, doAuth(r, "/private", "member-token").Code)

	assert.Equal(t, http.StatusUnauthorized, doAuth(r, "/admin", "").Code)
	assert.Equal(t, http.StatusForbidden, doAuth(r, "/admin", "member-token").Code)
	assert.Equal(t, http.StatusOK, doAuth(r, "/admin", "admin-token").Code)
}

func TestRequestID(t *testing.T) {
	t.Parallel()

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, GetRequestID(c)) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	generated := w.Header().Get(RequestIDHeader)
	assert.Len(t, generated, 36)
	assert.Equal(t, generated, w.Body.String())

	const incoming = "6f1c2a0e-4b7d-4c1e-9a55-0d3f2b8e7c10"
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, incoming)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, incoming, w.Header().Get(RequestIDHeader))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "<script>")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.NotEqual(t, "<script>", w.Header().Get(RequestIDHeader))
}
