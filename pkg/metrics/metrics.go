// Package metrics provides the centralized Prometheus metrics registry
// for the Snyk batch client. All metrics are defined in their respective
// packages (snyk, ratelimit, dispatcher) to maintain modularity and
// avoid circular dependencies.
//
// This package provides documentation and reference for all available
// metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry is the default Prometheus registry used by the batch client.
// All metrics are automatically registered via promauto in their
// respective packages.
var Registry = prometheus.DefaultRegisterer

// Metrics Documentation
//
// Request Metrics (pkg/snyk):
//   - snyk_requests_total{operation, status} (Counter): Total requests by operation (list_projects, update_project) and HTTP status
//   - snyk_request_duration_seconds{operation} (Histogram): Request duration by operation
//   - snyk_errors_total{class} (Counter): Errors by class (client, server, rate_limit, network)
//
// Rate Limit Metrics (pkg/ratelimit):
//   - snyk_rate_limit_hits_total (Counter): 429 responses that triggered a backoff pause
//   - snyk_rate_limit_backoff_seconds (Histogram): Backoff duration after rate limit hits
//
// Dispatch Metrics (pkg/dispatcher):
//   - snyk_updates_total{outcome} (Counter): Update attempts by outcome (success, failed, rate_limited)
//   - snyk_malformed_projects_total (Counter): Fetched projects skipped for missing ID
//
// Example Prometheus Queries:
//
//   # Update success rate
//   sum(rate(snyk_updates_total{outcome="success"}[5m])) /
//   sum(rate(snyk_updates_total{outcome!="rate_limited"}[5m]))
//
//   # Rate limit pressure
//   rate(snyk_rate_limit_hits_total[5m])
//
//   # P95 request latency per operation
//   histogram_quantile(0.95, rate(snyk_request_duration_seconds_bucket[5m]))
