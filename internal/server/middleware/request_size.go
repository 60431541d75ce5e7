// file: internal/server/middleware/request_size.go
// version: 2.0.0
// guid: f2129ae7-cf11-4888-bd4f-ab4b578f8f18

package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// BookUploadRoutes are the admin book forms that carry a cover and a book
// file. Keys are "METHOD route-pattern".
var BookUploadRoutes = []string{
	http.MethodPost + " /api/v1/admin/books",
	http.MethodPut + " /api/v1/admin/books/:id",
}

// BodyLimits caps request bodies. Upload applies to the listed routes,
// JSON to every other request that carries a body.
type BodyLimits struct {
	JSON         int64
	Upload       int64
	UploadRoutes []string
}

func (b BodyLimits) limitFor(method, route string) int64 {
	key := method + " " + route
	for _, r := range b.UploadRoutes {
		if r == key {
			return b.Upload
		}
	}
	return b.JSON
}

// LimitBody rejects bodies whose declared length exceeds the route's limit
// and cuts off streamed bodies at the same size. Routes are matched by
// pattern, so unknown paths get the JSON limit.
func LimitBody(limits BodyLimits) gin.HandlerFunc {
	if limits.JSON < 1 {
		limits.JSON = 1 << 20
	}
	limits.Upload = max(limits.Upload, limits.JSON)

	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodPost, http.MethodPut, http.MethodPatch:
		default:
			c.Next()
			return
		}

		limit := limits.limitFor(c.Request.Method, c.FullPath())
		if c.Request.ContentLength > limit {
			abort(c, http.StatusRequestEntityTooLarge, "request body too large", "PAYLOAD_TOO_LARGE")
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		c.Next()
	}
}
