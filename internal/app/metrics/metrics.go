package metrics

import (
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "gameoflife",
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gameoflife",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "gameoflife",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		},
		[]string{"method", "path"},
	)

	generations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gameoflife",
			Subsystem: "engine",
			Name:      "generations_total",
			Help:      "Total number of generations computed and persisted.",
		},
		[]string{"operation"},
	)

	advanceDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "gameoflife",
			Subsystem: "engine",
			Name:      "advance_duration_seconds",
			Help:      "Duration of multi-generation advances.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 14), // 1ms to ~16s
		},
		[]string{"operation"},
	)

	limitWarnings = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gameoflife",
			Subsystem: "engine",
			Name:      "limit_warnings_total",
			Help:      "Advances clamped by the increment limit.",
		},
		[]string{"operation"},
	)

	cellsEvaluated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "gameoflife",
			Subsystem: "engine",
			Name:      "cells_evaluated_total",
			Help:      "Total number of cells evaluated by the rules.",
		},
	)
)

func init() {
	Registry.MustRegister(
		httpInFlight,
		httpRequests,
		httpDuration,
		generations,
		advanceDuration,
		limitWarnings,
		cellsEvaluated,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// IncInFlight marks the start of a request.
func IncInFlight() { httpInFlight.Inc() }

// DecInFlight marks the end of a request.
func DecInFlight() { httpInFlight.Dec() }

// ObserveHTTPRequest records one handled request.
func ObserveHTTPRequest(method, path, status string, duration time.Duration) {
	method = strings.ToUpper(method)
	httpRequests.WithLabelValues(method, path, status).Inc()
	httpDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordCellsEvaluated counts cells passed through the rules for one generation.
func RecordCellsEvaluated(n int) {
	if n > 0 {
		cellsEvaluated.Add(float64(n))
	}
}

// RecordAdvance records a completed advance of one or more generations.
func RecordAdvance(operation string, generationsComputed int, duration time.Duration, limited bool) {
	if operation == "" {
		operation = "unknown"
	}
	if duration <= 0 {
		duration = time.Microsecond
	}
	if generationsComputed > 0 {
		generations.WithLabelValues(operation).Add(float64(generationsComputed))
	}
	advanceDuration.WithLabelValues(operation).Observe(duration.Seconds())
	if limited {
		limitWarnings.WithLabelValues(operation).Inc()
	}
}

// CanonicalPath collapses board ids and step counts so label cardinality
// stays bounded.
func CanonicalPath(raw string) string {
	trimmed := strings.Trim(raw, "/")
	if trimmed == "" {
		return "/"
	}
	parts := strings.Split(trimmed, "/")
	if parts[0] != "GameOfLife" {
		return "/" + parts[0]
	}
	switch len(parts) {
	case 1:
		return "/GameOfLife"
	case 2:
		return "/GameOfLife/{boardId}"
	case 3:
		return "/GameOfLife/" + parts[1] + "/{boardId}"
	default:
		return "/GameOfLife/" + parts[1] + "/{boardId}/{statesToIncrement}"
	}
}
