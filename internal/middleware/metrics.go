package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total HTTP requests served.",
		},
		[]string{"method", "path", "status"},
	)

	requestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	requestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_requests_in_flight",
			Help: "HTTP requests currently being served.",
		},
	)

	routingRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "routing_requests_total",
			Help: "Total calls to the external routing provider.",
		},
		[]string{"operation", "status", "cached"},
	)

	routingRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "routing_request_duration_seconds",
			Help:    "External routing call latency in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "cached"},
	)
)

// NewMetricsHandler returns a middleware recording request count, latency,
// and in-flight gauge for every request. The path label uses the chi route
// pattern, not the raw URL, so path parameters do not explode cardinality.
func NewMetricsHandler() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestsInFlight.Inc()
			defer requestsInFlight.Dec()

			start := time.Now()
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			path := "unmatched"
			if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
				path = rctx.RoutePattern()
			}
			requestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(ww.Status())).Inc()
			requestDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
		})
	}
}

// TrackRoutingCall records one call to the external routing provider.
// operation is "geocode" or "route"; status is "ok" or "error".
func TrackRoutingCall(operation, status string, cached bool, duration time.Duration) {
	c := strconv.FormatBool(cached)
	routingRequestsTotal.WithLabelValues(operation, status, c).Inc()
	routingRequestDuration.WithLabelValues(operation, c).Observe(duration.Seconds())
}
