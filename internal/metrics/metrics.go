// Package metrics exposes Prometheus collectors for the monitor service.
package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	monitorChecksTotal          *prometheus.CounterVec
	monitorCheckDurationSeconds prometheus.Histogram
	monitorFetchesTotal         *prometheus.CounterVec
	monitorFetchDurationSeconds prometheus.Histogram
	monitorDetectionsTotal      prometheus.Counter
	monitorNotificationsTotal   *prometheus.CounterVec
	monitorRestartsTotal        *prometheus.CounterVec
	monitorConsecutiveErrors    prometheus.Gauge
	monitorActive               prometheus.Gauge
	httpRequestsTotal           *prometheus.CounterVec
	httpRequestDurationSeconds  *prometheus.HistogramVec

	once sync.Once
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		monitorChecksTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "monitor_checks_total",
				Help: "Total number of page checks, labeled by outcome.",
			},
			[]string{"outcome"},
		)

		monitorCheckDurationSeconds = promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "monitor_check_duration_seconds",
				Help:    "Histogram of full check (fetch+detect+notify) durations.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
			},
		)

		monitorFetchesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "monitor_fetches_total",
				Help: "Total number of page fetches, labeled by HTTP status code.",
			},
			[]string{"code"},
		)

		monitorFetchDurationSeconds = promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "monitor_fetch_duration_seconds",
				Help:    "Histogram of page fetch latencies.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
			},
		)

		monitorDetectionsTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "monitor_detections_total",
				Help: "Total number of checks that surfaced a non-empty highlight set.",
			},
		)

		monitorNotificationsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "monitor_notifications_total",
				Help: "Total number of notification attempts, labeled by kind and outcome.",
			},
			[]string{"kind", "outcome"},
		)

		monitorRestartsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "monitor_restarts_total",
				Help: "Total number of monitor restarts, labeled by scope (inner or outer).",
			},
			[]string{"scope"},
		)

		monitorConsecutiveErrors = promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "monitor_consecutive_errors",
				Help: "Current streak of consecutive failed checks.",
			},
		)

		monitorActive = promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "monitor_active",
				Help: "Whether the supervising loop is running (1) or not (0).",
			},
		)

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
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
			},
			[]string{"method", "route"},
		)
	})
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveCheck records one completed check.
func ObserveCheck(outcome string, duration time.Duration) {
	monitorChecksTotal.WithLabelValues(outcome).Inc()
	monitorCheckDurationSeconds.Observe(duration.Seconds())
}

// ObserveFetch records one page fetch attempt. A zero status code means the
// request never produced a response.
func ObserveFetch(statusCode int, duration time.Duration) {
	monitorFetchesTotal.WithLabelValues(strconv.Itoa(statusCode)).Inc()
	monitorFetchDurationSeconds.Observe(duration.Seconds())
}

// ObserveDetection counts a check that surfaced bright numbers.
func ObserveDetection() {
	monitorDetectionsTotal.Inc()
}

// ObserveNotification counts a notification attempt.
func ObserveNotification(kind string, delivered bool) {
	outcome := "delivered"
	if !delivered {
		outcome = "failed"
	}
	monitorNotificationsTotal.WithLabelValues(kind, outcome).Inc()
}

// ObserveRestart counts a restart of the given scope ("inner" or "outer").
func ObserveRestart(scope string) {
	monitorRestartsTotal.WithLabelValues(scope).Inc()
}

// SetConsecutiveErrors publishes the current failed-check streak.
func SetConsecutiveErrors(n int64) {
	monitorConsecutiveErrors.Set(float64(n))
}

// SetMonitorActive publishes whether the supervising loop is running.
func SetMonitorActive(active bool) {
	if active {
		monitorActive.Set(1)
		return
	}
	monitorActive.Set(0)
}

// ObserveHTTPRequest increments the HTTP request metrics.
func ObserveHTTPRequest(method, route string, code int, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route).Observe(duration.Seconds())
}
