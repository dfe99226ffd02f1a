// Package metrics exposes Prometheus collectors for the tango API.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests, labeled by method and code.",
		},
		[]string{"method", "code"},
	)

	httpRequestDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Histogram of HTTP request latencies, labeled by method and route.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 15, 30},
		},
		[]string{"method", "route"},
	)

	milongasRefreshTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "milongas_refresh_total",
			Help: "Refresh attempts of the milonga count, labeled by outcome.",
		},
		[]string{"outcome"},
	)

	milongasMalformedRecordsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "milongas_malformed_records_total",
			Help: "Linked-data records skipped because they could not be decoded.",
		},
	)

	milongasNow = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "milongas_now",
			Help: "Milongas running today as of the last successful refresh.",
		},
	)

	contactMessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "contact_messages_total",
			Help: "Contact form submissions, labeled by outcome.",
		},
		[]string{"outcome"},
	)
)

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveHTTPRequest increments the HTTP request metrics.
func ObserveHTTPRequest(method, route string, code int, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route).Observe(duration.Seconds())
}

// ObserveMilongaRefresh counts one refresh attempt.
func ObserveMilongaRefresh(outcome string) {
	milongasRefreshTotal.WithLabelValues(outcome).Inc()
}

// AddMalformedRecords adds skipped records from one extraction pass.
func AddMalformedRecords(n int) {
	if n > 0 {
		milongasMalformedRecordsTotal.Add(float64(n))
	}
}

// SetMilongasNow records the freshly computed count.
func SetMilongasNow(n int) {
	milongasNow.Set(float64(n))
}

// ObserveContactMessage counts one contact form submission.
func ObserveContactMessage(outcome string) {
	contactMessagesTotal.WithLabelValues(outcome).Inc()
}
