// file: internal/server/middleware/logging.go
// version: 1.0.0
// guid: 692bd8ac-8371-46e4-9931-698a051a7e39

package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jdfalk/cliqbook/internal/metrics"
	"github.com/rs/zerolog"
)

// RequestLogger logs each request and records it in the HTTP metrics. Routes
// are labelled by their pattern to keep metric cardinality bounded. A child
// logger carrying the request id is attached to the request context for
// zerolog.Ctx. Must run after RequestID.
func RequestLogger(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		reqLog := log.With().Str("request_id", GetRequestID(c)).Logger()
		c.Request = c.Request.WithContext(reqLog.WithContext(c.Request.Context()))
		c.Next()
		latency := time.Since(start)

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		metrics.ObserveRequest(c.Request.Method, route, strconv.Itoa(status), latency)

		var event *zerolog.Event
		switch {
		case status >= 500:
			event = reqLog.Error()
		case status >= 400:
			event = reqLog.Warn()
		default:
			event = reqLog.Info()
		}
		if len(c.Errors) > 0 {
			event = event.Str("errors", c.Errors.String())
		}
		event.
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Dur("latency", latency).
			Str("client_ip", c.ClientIP()).
			Int("bytes", c.Writer.Size()).
			Msg("request")
	}
}
