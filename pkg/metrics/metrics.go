// Package metrics provides Prometheus metrics instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestDuration tracks HTTP request duration.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path", "status"},
	)

	// RequestsTotal tracks total HTTP requests.
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// ChatTurnsTotal tracks completed chat turns by classified state.
	ChatTurnsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_turns_total",
			Help: "Total chat turns processed",
		},
		[]string{"state"},
	)

	// LLMRequestDuration tracks LLM completion latency.
	LLMRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "llm_request_duration_seconds",
			Help:    "LLM completion request duration",
			Buckets: []float64{.25, .5, 1, 2, 5, 10, 20, 30, 60},
		},
		[]string{"provider", "purpose", "status"},
	)

	// LLMFallbacksTotal tracks completions replaced by canned responses.
	LLMFallbacksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "llm_fallbacks_total",
			Help: "LLM calls that degraded to a canned fallback",
		},
		[]string{"purpose"},
	)

	// PageCacheOps tracks content cache hits, misses and purges.
	PageCacheOps = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "page_cache_ops_total",
			Help: "Content cache operations by outcome",
		},
		[]string{"outcome"},
	)

	// ScrapeDuration tracks page fetch + extraction duration.
	ScrapeDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "scrape_duration_seconds",
			Help:    "Page retrieval duration",
			Buckets: []float64{.1, .25, .5, 1, 2, 5, 10, 20},
		},
		[]string{"status"},
	)

	// AnalyticsEventsTotal tracks recorded analytics events.
	AnalyticsEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "analytics_events_total",
			Help: "Total analytics events recorded",
		},
		[]string{"type"},
	)

	// StoreErrorsTotal tracks swallowed persistence failures.
	StoreErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "store_errors_total",
			Help: "Persistence failures that were logged and swallowed",
		},
		[]string{"store", "op"},
	)
)

// RecordRequest records metrics for an HTTP request.
func RecordRequest(method, path, status string, duration float64) {
	RequestDuration.WithLabelValues(method, path, status).Observe(duration)
	RequestsTotal.WithLabelValues(method, path, status).Inc()
}

// RecordLLMRequest records latency for one LLM completion.
func RecordLLMRequest(provider, purpose, status string, duration float64) {
	LLMRequestDuration.WithLabelValues(provider, purpose, status).Observe(duration)
}

// RecordCacheHit records a content cache hit.
func RecordCacheHit() { PageCacheOps.WithLabelValues("hit").Inc() }

// RecordCacheMiss records a content cache miss.
func RecordCacheMiss() { PageCacheOps.WithLabelValues("miss").Inc() }

// RecordCachePurge records a corrupt entry purge.
func RecordCachePurge() { PageCacheOps.WithLabelValues("purge").Inc() }

// RecordCacheReject records a payload rejected for size.
func RecordCacheReject() { PageCacheOps.WithLabelValues("reject").Inc() }
