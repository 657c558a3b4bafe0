// Package ratelimit implements the request pacing shared by the fetcher
// and the dispatcher: a fixed short delay between consecutive requests
// and a fixed longer pause after an HTTP 429. The pacing is a simple
// blocking delay, not a token bucket, and exactly one request is in
// flight at any time.
package ratelimit

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

// Fixed delays, matching the API's documented rate limit headroom.
const (
	// DefaultRequestDelay is the pause between consecutive requests.
	DefaultRequestDelay = 50 * time.Millisecond

	// DefaultBackoffDelay is the pause after a 429 before retrying the
	// same request.
	DefaultBackoffDelay = 10 * time.Second
)

// Prometheus metrics for rate limit handling.
var (
	snykRateLimitHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "snyk_rate_limit_hits_total",
		Help: "Total number of 429 responses that triggered a backoff pause",
	})

	snykRateLimitBackoffSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "snyk_rate_limit_backoff_seconds",
		Help:    "Backoff duration after rate limit hits",
		Buckets: []float64{1, 5, 10, 30, 60},
	})
)

// Pacer applies the fixed inter-request and backoff delays.
type Pacer struct {
	requestDelay time.Duration
	backoffDelay time.Duration
	logger       zerolog.Logger
}

// NewPacer creates a pacer with the given delays. Non-positive values
// fall back to the defaults.
func NewPacer(requestDelay, backoffDelay time.Duration, logger zerolog.Logger) *Pacer {
	if requestDelay <= 0 {
		requestDelay = DefaultRequestDelay
	}
	if backoffDelay <= 0 {
		backoffDelay = DefaultBackoffDelay
	}

	return &Pacer{
		requestDelay: requestDelay,
		backoffDelay: backoffDelay,
		logger:       logger,
	}
}

// Pace blocks for the fixed inter-request delay.
func (p *Pacer) Pace(ctx context.Context) error {
	return p.wait(ctx, p.requestDelay)
}

// Backoff blocks for the fixed rate limit pause and records the hit.
func (p *Pacer) Backoff(ctx context.Context) error {
	snykRateLimitHitsTotal.Inc()
	snykRateLimitBackoffSeconds.Observe(p.backoffDelay.Seconds())

	p.logger.Warn().
		Dur("backoff", p.backoffDelay).
		Msg("Rate limit hit, pausing before retry")

	return p.wait(ctx, p.backoffDelay)
}

// RequestDelay returns the configured inter-request delay.
func (p *Pacer) RequestDelay() time.Duration {
	return p.requestDelay
}

// BackoffDelay returns the configured rate limit pause.
func (p *Pacer) BackoffDelay() time.Duration {
	return p.backoffDelay
}

func (p *Pacer) wait(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
