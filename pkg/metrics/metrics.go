// Package metrics provides the centralized Prometheus registry reference for
// the fetcher. All metrics are defined in their owning packages (fetcher,
// admission) to maintain modularity and avoid circular dependencies.
//
// This package provides documentation and reference for all available metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry is the default Prometheus registry used by the fetcher.
// All metrics are automatically registered via promauto in their packages.
var Registry = prometheus.DefaultRegisterer

// Metrics Documentation
//
// Admission Metrics (pkg/admission):
//   - fetch_active_requests (Gauge): Fetches currently holding an admission slot
//   - fetch_admission_waits_total (Counter): Acquisitions that had to wait for a free slot
//
// Request Metrics (pkg/fetcher):
//   - fetch_requests_total{status} (Counter): Fetch attempts by HTTP status ('error' for transport failures)
//   - fetch_request_duration_seconds (Histogram): Duration of successful fetches
//   - fetch_errors_total{class} (Counter): Failed attempts by class (client, server, network, payload, auth)
//
// Retry Metrics (pkg/fetcher):
//   - fetch_retries_total{error_class} (Counter): Retry attempts by error class
//   - fetch_retry_backoff_seconds{error_class} (Histogram): Backoff duration by error class
//   - fetch_retry_exhausted_total{error_class} (Counter): URLs that exhausted their retry budget
//
// Batch Metrics (pkg/fetcher):
//   - fetch_batches_total (Counter): Completed batch runs
//   - fetch_batch_duration_seconds (Histogram): Batch run duration
//
// Example Prometheus Queries:
//
//   # Live concurrency vs the configured cap
//   fetch_active_requests
//
//   # Per-URL success rate
//   sum(rate(fetch_requests_total{status="200"}[5m])) /
//   sum(rate(fetch_requests_total[5m]))
//
//   # Retry pressure by error class
//   rate(fetch_retries_total[5m])
//
//   # P95 fetch latency
//   histogram_quantile(0.95, rate(fetch_request_duration_seconds_bucket[5m]))
