// file: internal/server/middleware/basicauth_test.go
// version: 2.0.0
// guid: e4b091b6-d82a-454a-8a1b-d20750af3bc0

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func setupBasicAuthRouter(user, pass string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/metrics", BasicAuth(user, pass), func(c *gin.Context) {
		c.String(http.StatusOK, "metrics")
	})
	return r
}

func TestBasicAuth_Disabled(t *testing.T) {
	t.Parallel()

	r := setupBasicAuthRouter("", "")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestBasicAuth_Enabled(t *testing.T) {
	t.Parallel()

	r := setupBasicAuthRouter("scraper", "s3cret")
	tests := []struct {
		name       string
		user, pass string
		setAuth    bool
		want       int
	}{
		{"no credentials", "", "", false, http.StatusUnauthorized},
		{"wrong password", "scraper", "nope", true, http.StatusUnauthorized},
		{"wrong user", "admin", "s3cret", true, http.StatusUnauthorized},
		{"valid", "scraper", "s3cret", true, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
			if tt.setAuth {
				req.SetBasicAuth(tt.user, tt.pass)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tt.want, w.Code)
			if tt.want == http.StatusUnauthorized {
				assert.Contains(t, w.Header().Get("WWW-Authenticate"), "CliqBook")
			}
		})
	}
}
