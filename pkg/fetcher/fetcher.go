// Package fetcher implements a bounded-concurrency retrying HTTP URL
// fetcher: it multiplexes many URL fetches over a capped number of in-flight
// requests, classifies each outcome, and applies a linear backoff policy.
package fetcher

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/asyncfetch/go-fetcher/pkg/admission"
	"github.com/asyncfetch/go-fetcher/pkg/auth"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Prometheus metrics for fetch operations.
var (
	fetchRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fetch_requests_total",
		Help: "Total fetch attempts by HTTP status (or 'error' for transport failures)",
	}, []string{"status"})

	fetchRequestDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "fetch_request_duration_seconds",
		Help:    "Duration of successful fetches in seconds",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10},
	})

	fetchErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fetch_errors_total",
		Help: "Total failed fetch attempts by error class",
	}, []string{"class"})

	fetchRetriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fetch_retries_total",
		Help: "Total retry attempts by error class",
	}, []string{"error_class"})

	fetchRetryBackoffSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "fetch_retry_backoff_seconds",
		Help:    "Backoff duration before retries by error class",
		Buckets: []float64{0.25, 0.5, 1, 1.5, 2, 5},
	}, []string{"error_class"})

	fetchRetryExhaustedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fetch_retry_exhausted_total",
		Help: "Total number of URLs that exhausted their retry budget by error class",
	}, []string{"error_class"})

	fetchBatchesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fetch_batches_total",
		Help: "Total number of completed batch runs",
	})

	fetchBatchDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "fetch_batch_duration_seconds",
		Help:    "Duration of batch runs in seconds",
		Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60},
	})
)

// Config holds the fetcher configuration.
type Config struct {
	// Concurrency caps the number of in-flight fetches. Required, must be
	// positive; there is no unbounded mode.
	Concurrency int

	// MaxRetries is the number of retries after the initial attempt.
	MaxRetries int

	// BackoffBase is the linear backoff unit. Zero uses the 500ms default.
	BackoffBase time.Duration

	// TimeoutRules select per-attempt timeout profiles by URL. Nil uses
	// DefaultTimeoutRules.
	TimeoutRules []TimeoutRule

	// Auth optionally supplies bearer credentials. When set, a 401 response
	// triggers a one-shot refresh and a single retried request outside the
	// normal retry budget.
	Auth auth.TokenProvider

	// UserAgent header sent with every request.
	UserAgent string

	// Logger receives all fetch events. Nil derives a component logger from
	// the global zerolog logger.
	Logger *zerolog.Logger
}

// DefaultConfig returns a safe default configuration for the given
// concurrency limit.
func DefaultConfig(concurrency int) Config {
	return Config{
		Concurrency: concurrency,
		MaxRetries:  2,
		BackoffBase: defaultBackoffBase,
		UserAgent:   "go-fetcher/0.1.0",
	}
}

// Fetcher fetches batches of URLs over one shared transport session.
type Fetcher struct {
	httpClient *http.Client
	gate       *admission.Controller
	config     Config
	backoff    LinearBackoff
	rules      []TimeoutRule
	logger     zerolog.Logger
}

// New creates a fetcher. Configuration errors are reported here, before any
// network activity.
func New(cfg Config) (*Fetcher, error) {
	if cfg.Concurrency <= 0 {
		return nil, fmt.Errorf("%w (got %d)", ErrInvalidConcurrency, cfg.Concurrency)
	}

	if cfg.MaxRetries < 0 {
		return nil, fmt.Errorf("max retries must be >= 0 (got %d)", cfg.MaxRetries)
	}

	gate, err := admission.NewController(cfg.Concurrency)
	if err != nil {
		return nil, err
	}

	rules := cfg.TimeoutRules
	if rules == nil {
		rules = DefaultTimeoutRules()
	}

	var logger zerolog.Logger
	if cfg.Logger != nil {
		logger = *cfg.Logger
	} else {
		logger = log.With().Str("component", "fetcher").Logger()
	}

	return &Fetcher{
		// No client-level timeout: each attempt carries its own total
		// timeout from the selected profile.
		httpClient: &http.Client{Transport: newTransport(cfg.Concurrency)},
		gate:       gate,
		config:     cfg,
		backoff:    LinearBackoff{Base: cfg.BackoffBase},
		rules:      rules,
		logger:     logger,
	}, nil
}

// Result is the outcome of fetching one URL. Body is only meaningful when
// OK is true; failure detail is available through the log events.
type Result struct {
	Body string
	OK   bool
}

// BatchStats aggregates one FetchAll run. Derived once per batch, never
// mutated afterwards; SuccessCount is always <= TotalURLs.
type BatchStats struct {
	TotalURLs         int
	SuccessCount      int
	Duration          time.Duration
	Concurrency       int
	RequestsPerSecond float64
}

func newBatchStats(total, success int, duration time.Duration, concurrency int) BatchStats {
	stats := BatchStats{
		TotalURLs:    total,
		SuccessCount: success,
		Duration:     duration,
		Concurrency:  concurrency,
	}
	if duration > 0 {
		stats.RequestsPerSecond = float64(success) / duration.Seconds()
	}
	return stats
}

// FetchAll fetches all urls with at most Concurrency requests in flight at
// once, sharing one transport session. The returned slice has the same
// length and order as urls regardless of completion order; results[i].OK is
// false iff urls[i] failed. The error is non-nil only for pre-flight
// failures (the initial credential fetch); per-URL failures never abort the
// batch.
func (f *Fetcher) FetchAll(ctx context.Context, urls []string) ([]Result, BatchStats, error) {
	if len(urls) == 0 {
		return []Result{}, newBatchStats(0, 0, 0, f.config.Concurrency), nil
	}

	start := time.Now()

	if f.config.Auth != nil {
		if err := f.config.Auth.Refresh(ctx); err != nil {
			f.logger.Error().Err(err).Msg("Initial authentication failed")
			return nil, BatchStats{}, fmt.Errorf("%w: %v", ErrAuthFailed, err)
		}
	}

	results := make([]Result, len(urls))

	var wg sync.WaitGroup
	for i, url := range urls {
		wg.Add(1)
		go func(i int, url string) {
			defer wg.Done()
			results[i] = f.fetchOne(ctx, url)
		}(i, url)
	}
	wg.Wait()

	duration := time.Since(start)
	success := 0
	for _, r := range results {
		if r.OK {
			success++
		}
	}
	stats := newBatchStats(len(urls), success, duration, f.config.Concurrency)

	fetchBatchesTotal.Inc()
	fetchBatchDurationSeconds.Observe(duration.Seconds())

	f.logger.Info().
		Int("total_urls", stats.TotalURLs).
		Int("success_count", stats.SuccessCount).
		Dur("duration", stats.Duration).
		Int("concurrency", stats.Concurrency).
		Float64("requests_per_second", stats.RequestsPerSecond).
		Msg("Batch complete")

	return results, stats, nil
}

// ActiveCount returns the number of fetches currently in flight.
func (f *Fetcher) ActiveCount() int {
	return f.gate.ActiveCount()
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (f *Fetcher) SetHTTPClient(client *http.Client) {
	f.httpClient = client
}
