// Package metrics holds the Prometheus collectors exposed on /metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aocmap_http_requests_total",
			Help: "HTTP requests by method, route and status code",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "aocmap_http_request_duration_seconds",
			Help:    "HTTP request latency by method and route",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	PinMutationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aocmap_pin_mutations_total",
			Help: "Successful pin writes by operation",
		},
		[]string{"operation"},
	)

	LoginsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aocmap_logins_total",
			Help: "Discord login attempts by outcome",
		},
		[]string{"outcome"},
	)
)

// RecordRequest records one finished HTTP request.
func RecordRequest(method, route, status string, duration time.Duration) {
	HTTPRequestsTotal.WithLabelValues(method, route, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordPinMutation counts a successful create, update or delete.
func RecordPinMutation(operation string) {
	PinMutationsTotal.WithLabelValues(operation).Inc()
}

// RecordLogin counts a callback outcome: success, denied, failed.
func RecordLogin(outcome string) {
	LoginsTotal.WithLabelValues(outcome).Inc()
}
