package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequestsTotal counts handled HTTP requests by route, method and status.
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "addonshub_http_requests_total",
			Help: "Total number of HTTP requests processed",
		},
		[]string{"path", "method", "status"},
	)

	// HTTPRequestDuration observes request latency per route.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "addonshub_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path", "method"},
	)

	// MarketplaceRequestsTotal counts calls to the Addons marketplace API.
	MarketplaceRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "addonshub_marketplace_requests_total",
			Help: "Total marketplace API calls by action and outcome",
		},
		[]string{"action", "status"},
	)

	// MarketplaceRetriesTotal counts retried marketplace attempts.
	MarketplaceRetriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "addonshub_marketplace_retries_total",
			Help: "Total marketplace request retries",
		},
		[]string{"action"},
	)

	// LoginAttemptsTotal counts marketplace login attempts by result.
	LoginAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "addonshub_login_attempts_total",
			Help: "Marketplace login attempts by result",
		},
		[]string{"result"},
	)

	// ModuleLifecycleTotal counts module manager operations by outcome.
	ModuleLifecycleTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "addonshub_module_lifecycle_total",
			Help: "Module lifecycle operations by operation and outcome",
		},
		[]string{"operation", "outcome"},
	)

	rateLimitKeys = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "addonshub_ratelimit_tracked_keys",
			Help: "Number of per-key rate limiters currently tracked",
		},
	)

	rateLimitSweeps = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "addonshub_ratelimit_sweeps_total",
			Help: "Number of rate limiter cache sweeps",
		},
	)
)

// RecordMarketplaceRequest records one marketplace call outcome.
func RecordMarketplaceRequest(action, status string) {
	MarketplaceRequestsTotal.WithLabelValues(action, status).Inc()
}

// RecordMarketplaceRetry records a retried attempt against the marketplace.
func RecordMarketplaceRetry(action string) {
	MarketplaceRetriesTotal.WithLabelValues(action).Inc()
}

// RecordLoginAttempt records a login attempt ("success" or "failure").
func RecordLoginAttempt(result string) {
	LoginAttemptsTotal.WithLabelValues(result).Inc()
}

// RecordModuleLifecycle records an upgrade/disable/enable outcome.
func RecordModuleLifecycle(operation, outcome string) {
	ModuleLifecycleTotal.WithLabelValues(operation, outcome).Inc()
}

// SetRateLimitKeyGauge updates the tracked limiter key count.
func SetRateLimitKeyGauge(n int) { rateLimitKeys.Set(float64(n)) }

// RecordRateLimitSweep counts a limiter cache sweep.
func RecordRateLimitSweep() { rateLimitSweeps.Inc() }
