// file: internal/metrics/metrics_test.go
// version: 2.0.0
// guid: 72a73cab-92f7-4258-95ea-449efe1660ae

package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRegisterIsIdempotent(t *testing.T) {
	assert.NotPanics(t, func() {
		Register()
		Register()
	})
}

func TestOperationCounters(t *testing.T) {
	opType := "books.create"
	before := testutil.ToFloat64(operationStarted.WithLabelValues(opType))

	IncOperationStarted(opType)
	IncOperationCompleted(opType)
	IncOperationFailed(opType)
	ObserveOperationDuration(opType, 10*time.Millisecond)

	assert.Equal(t, before+1, testutil.ToFloat64(operationStarted.WithLabelValues(opType)))
	assert.GreaterOrEqual(t, testutil.ToFloat64(operationCompleted.WithLabelValues(opType)), 1.0)
	assert.GreaterOrEqual(t, testutil.ToFloat64(operationFailed.WithLabelValues(opType)), 1.0)
}

func TestObserveRequest(t *testing.T) {
	ObserveRequest("GET", "/api/v1/books", "200", 5*time.Millisecond)
	assert.GreaterOrEqual(t, testutil.ToFloat64(httpRequests.WithLabelValues("GET", "/api/v1/books", "200")), 1.0)
}

func TestLoginCounter(t *testing.T) {
	before := testutil.ToFloat64(loginAttempts.WithLabelValues("invalid"))
	IncLogin("invalid")
	assert.Equal(t, before+1, testutil.ToFloat64(loginAttempts.WithLabelValues("invalid")))
}

func TestGauges(t *testing.T) {
	SetBooks(12)
	SetUsers(3)
	SetPremium(2)
	SetSSEClients(1)

	assert.Equal(t, 12.0, testutil.ToFloat64(booksGauge))
	assert.Equal(t, 3.0, testutil.ToFloat64(usersGauge))
	assert.Equal(t, 2.0, testutil.ToFloat64(premiumGauge))
	assert.Equal(t, 1.0, testutil.ToFloat64(sseClientsGauge))
}
