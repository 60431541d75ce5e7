// file: internal/metrics/metrics.go
// version: 2.0.0
// guid: 24410102-14f0-4a44-ab3c-4c50c6842cdb

package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	operationStarted = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cliqbook",
		Name:      "operations_started_total",
		Help:      "Total number of queued mutations started by type",
	}, []string{"type"})
	operationCompleted = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cliqbook",
		Name:      "operations_completed_total",
		Help:      "Total number of queued mutations successfully completed by type",
	}, []string{"type"})
	operationFailed = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cliqbook",
		Name:      "operations_failed_total",
		Help:      "Total number of queued mutations failed by type",
	}, []string{"type"})
	operationDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "cliqbook",
		Name:      "operation_duration_seconds",
		Help:      "Histogram of queued mutation durations in seconds by type",
		Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms up to ~2s
	}, []string{"type"})

	httpRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cliqbook",
		Name:      "http_requests_total",
		Help:      "HTTP requests by method, route and status code",
	}, []string{"method", "route", "status"})
	httpDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "cliqbook",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by route",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route"})

	loginAttempts = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cliqbook",
		Name:      "login_attempts_total",
		Help:      "Login attempts by result (success, invalid, rate_limited)",
	}, []string{"result"})

	booksGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "cliqbook",
		Name:      "books_total",
		Help:      "Current total number of books in the catalog",
	})
	usersGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "cliqbook",
		Name:      "users_total",
		Help:      "Current total number of registered users",
	})
	premiumGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "cliqbook",
		Name:      "premium_members",
		Help:      "Current number of premium members",
	})
	sseClientsGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "cliqbook",
		Name:      "sse_clients",
		Help:      "Number of connected change-notification clients",
	})
)

// Register initializes metrics with the global Prometheus registry (idempotent)
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(operationStarted, operationCompleted, operationFailed, operationDuration,
			httpRequests, httpDuration, loginAttempts,
			booksGauge, usersGauge, premiumGauge, sseClientsGauge)
	})
}

// Operation lifecycle helpers
func IncOperationStarted(opType string)   { operationStarted.WithLabelValues(opType).Inc() }
func IncOperationCompleted(opType string) { operationCompleted.WithLabelValues(opType).Inc() }
func IncOperationFailed(opType string)    { operationFailed.WithLabelValues(opType).Inc() }
func ObserveOperationDuration(opType string, d time.Duration) {
	operationDuration.WithLabelValues(opType).Observe(d.Seconds())
}

// HTTP helpers
func ObserveRequest(method, route, status string, d time.Duration) {
	httpRequests.WithLabelValues(method, route, status).Inc()
	httpDuration.WithLabelValues(route).Observe(d.Seconds())
}

func IncLogin(result string) { loginAttempts.WithLabelValues(result).Inc() }

// Gauges
func SetBooks(n int)      { booksGauge.Set(float64(n)) }
func SetUsers(n int)      { usersGauge.Set(float64(n)) }
func SetPremium(n int)    { premiumGauge.Set(float64(n)) }
func SetSSEClients(n int) { sseClientsGauge.Set(float64(n)) }
