package metrics

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"code", "method", "path"},
	)
	httpRequestsDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	httpRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_requests_in_flight",
			Help: "Current Number of HTTP requests being processed.",
		},
	)

	checkoutsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "checkout_attempts_total",
			Help: "Checkout attempts by outcome.",
		},
		[]string{"outcome"},
	)

	orderTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "order_transitions_total",
			Help: "Order status transitions by target status and trigger.",
		},
		[]string{"status", "trigger"},
	)

	stockShortfallsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "stock_shortfalls_total",
			Help: "Order items that could not be taken from stock after payment.",
		},
	)

	notificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_total",
			Help: "Notifications by kind and delivery status.",
		},
		[]string{"kind", "status"},
	)

	notificationQueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "notification_queue_depth",
			Help: "Notifications waiting for the dispatcher.",
		},
	)
)

const (
	OutcomeStarted           = "started"
	OutcomeEmptyCart         = "empty_cart"
	OutcomeInsufficientStock = "insufficient_stock"
	OutcomePersistenceFailed = "persistence_failed"
	OutcomePaymentFailed     = "payment_failed"

	TriggerRedirect = "redirect"
	TriggerWebhook  = "webhook"
	TriggerSweeper  = "sweeper"
)

func init() {
	if err := prometheus.Register(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{})); err != nil {
		slog.Debug("ProcessCollector registration skipped (likely already registered)",
			slog.String("error", err.Error()))
	}

	if err := prometheus.Register(collectors.NewGoCollector()); err != nil {
		slog.Debug("GoCollector registration skipped (likely already registered)",
			slog.String("error", err.Error()))
	}
}

func RecordCheckout(outcome string) {
	checkoutsTotal.WithLabelValues(outcome).Inc()
}

func RecordOrderTransition(status, trigger string) {
	orderTransitionsTotal.WithLabelValues(status, trigger).Inc()
}

func RecordStockShortfalls(n int) {
	stockShortfallsTotal.Add(float64(n))
}

func RecordNotification(kind, status string) {
	notificationsTotal.WithLabelValues(kind, status).Inc()
}

func SetNotificationQueueDepth(n int) {
	notificationQueueDepth.Set(float64(n))
}

// wrapper around http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func newResponseWriter(w http.ResponseWriter) *responseWriter {
	return &responseWriter{w, http.StatusOK}
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {

		start := time.Now()
		httpRequestsInFlight.Inc()

		rw := newResponseWriter(w)

		defer func() {

			// ServeMux fills in the matched pattern, which keeps ids out of the labels.
			path := r.Pattern
			if path == "" {
				path = "unmatched"
			}

			httpRequestsTotal.WithLabelValues(strconv.Itoa(rw.statusCode), r.Method, path).Inc()
			httpRequestsDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
			httpRequestsInFlight.Dec()

		}()

		next.ServeHTTP(rw, r)

	})
}

// http.Handler for the Prometheus /metrics endpoint
func Handler() http.Handler {

	return promhttp.Handler()
}
