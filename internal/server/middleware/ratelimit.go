// file: internal/server/middleware/ratelimit.go
// version: 2.0.0
// guid: 1331705a-85cb-4158-92f5-5ce203d8a0e7

package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jdfalk/cliqbook/internal/metrics"
	"golang.org/x/time/rate"
)

// sweepEvery bounds how often idle client buckets are dropped.
const sweepEvery = time.Minute

type clientBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// CredentialLimiter throttles the endpoints that accept a password. Login
// and register share one bucket per client IP, so alternating between them
// buys no extra guesses.
type CredentialLimiter struct {
	perMinute int
	burst     int
	idleTTL   time.Duration
	now       func() time.Time

	mu        sync.Mutex
	clients   map[string]*clientBucket
	lastSweep time.Time
}

// NewCredentialLimiter allows perMinute attempts per client IP with the
// given burst. Values below one are raised to one.
func NewCredentialLimiter(perMinute, burst int) *CredentialLimiter {
	return &CredentialLimiter{
		perMinute: max(1, perMinute),
		burst:     max(1, burst),
		idleTTL:   15 * time.Minute,
		now:       time.Now,
		clients:   make(map[string]*clientBucket),
	}
}

// reserve takes a token for ip, or reports how long until one is free.
func (l *CredentialLimiter) reserve(ip string) (time.Duration, bool) {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	if now.Sub(l.lastSweep) >= sweepEvery {
		for key, b := range l.clients {
			if now.Sub(b.lastSeen) > l.idleTTL {
				delete(l.clients, key)
			}
		}
		l.lastSweep = now
	}

	b, ok := l.clients[ip]
	if !ok {
		b = &clientBucket{limiter: rate.NewLimiter(rate.Limit(float64(l.perMinute)/60), l.burst)}
		l.clients[ip] = b
	}
	b.lastSeen = now

	r := b.limiter.ReserveN(now, 1)
	if delay := r.DelayFrom(now); delay > 0 {
		r.CancelAt(now)
		return delay, false
	}
	return 0, true
}

// Middleware rejects over-limit clients with 429 and a Retry-After header
// saying when their next attempt will be accepted.
func (l *CredentialLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		if ip == "" {
			ip = "unknown"
		}
		wait, ok := l.reserve(ip)
		if !ok {
			metrics.IncLogin("rate_limited")
			c.Header("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
			abort(c, http.StatusTooManyRequests, "too many sign-in attempts, try again later", "RATE_LIMITED")
			return
		}
		c.Next()
	}
}
