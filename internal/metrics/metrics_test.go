package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMiddleware(t *testing.T) {
	// Arrange
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/orders/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("404", http.MethodGet, "GET /api/v1/orders/{id}"))

	// Act
	rr := httptest.NewRecorder()
	Middleware(mux).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/orders/123", nil))

	// Assert
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, before+1, testutil.ToFloat64(httpRequestsTotal.WithLabelValues("404", http.MethodGet, "GET /api/v1/orders/{id}")))
	assert.Zero(t, testutil.ToFloat64(httpRequestsInFlight))
}

func TestSagaCounters(t *testing.T) {
	before := testutil.ToFloat64(stockShortfallsTotal)

	RecordStockShortfalls(2)
	RecordCheckout(OutcomeStarted)
	RecordOrderTransition("paid", TriggerWebhook)

	assert.Equal(t, before+2, testutil.ToFloat64(stockShortfallsTotal))
	assert.GreaterOrEqual(t, testutil.ToFloat64(checkoutsTotal.WithLabelValues(OutcomeStarted)), 1.0)
	assert.GreaterOrEqual(t, testutil.ToFloat64(orderTransitionsTotal.WithLabelValues("paid", TriggerWebhook)), 1.0)
}
