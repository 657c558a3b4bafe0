// Package dispatcher applies the frequency update to each fetched
// project, one request at a time, and produces the run summary.
//
// Each project moves through a small state machine: pending, in flight,
// rate limited, then done (success or failed). Done states are terminal
// and are the only transitions that touch the summary counters. A rate
// limited project is retried after a fixed pause, by default without an
// attempt cap, so a sustained server-side limit stalls the run on that
// project rather than miscounting it.
package dispatcher

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"

	"github.com/Sternrassler/snyk-batch-client/pkg/logging"
	"github.com/Sternrassler/snyk-batch-client/pkg/ratelimit"
	"github.com/Sternrassler/snyk-batch-client/pkg/snyk"
)

// Prometheus metrics for update dispatching.
var (
	snykUpdatesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "snyk_updates_total",
		Help: "Total update attempts by outcome",
	}, []string{"outcome"})

	snykMalformedProjectsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "snyk_malformed_projects_total",
		Help: "Total fetched projects skipped for missing ID",
	})
)

// Outcome is the tagged result of one update attempt.
type Outcome int

const (
	// OutcomeSuccess marks a definitive 2xx response.
	OutcomeSuccess Outcome = iota

	// OutcomeFailed marks a permanent failure (HTTP or network error).
	OutcomeFailed

	// OutcomeRateLimited marks a transient 429; the same project is
	// retried after a pause and neither counter changes.
	OutcomeRateLimited
)

// String returns the outcome name for logs and metrics.
func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeFailed:
		return "failed"
	case OutcomeRateLimited:
		return "rate_limited"
	default:
		return "unknown"
	}
}

// ClassifyOutcome maps an update error to its outcome.
func ClassifyOutcome(err error) Outcome {
	switch {
	case err == nil:
		return OutcomeSuccess
	case snyk.IsRateLimited(err):
		return OutcomeRateLimited
	default:
		return OutcomeFailed
	}
}

// ProjectUpdater is the subset of the Snyk client the dispatcher needs.
type ProjectUpdater interface {
	UpdateProjectFrequency(ctx context.Context, orgID, projectID string, freq snyk.Frequency) error
}

// Summary is the final result of a dispatcher run. On any run that
// completes, Updated+Failed == Total.
type Summary struct {
	Updated int
	Failed  int
	Total   int
	Fetched int
}

// Config holds dispatcher configuration.
type Config struct {
	// MaxRateLimitRetries caps the retries after 429 responses for a
	// single project. 0 means unlimited, which trusts the server to
	// lift the limit eventually; a capped run marks the project Failed
	// once the cap is exceeded.
	MaxRateLimitRetries int
}

// Dispatcher iterates the fetched projects and applies the update.
type Dispatcher struct {
	client ProjectUpdater
	pacer  *ratelimit.Pacer
	config Config
	logger zerolog.Logger
}

// New creates a new dispatcher.
func New(client ProjectUpdater, pacer *ratelimit.Pacer, cfg Config) *Dispatcher {
	return &Dispatcher{
		client: client,
		pacer:  pacer,
		config: cfg,
		logger: logging.NewLogger("dispatcher"),
	}
}

// Run updates every project to the target frequency and returns the
// summary. Projects are processed strictly in fetch order with one
// request in flight at a time. A failure on one project never blocks
// the rest. Run returns an error only when the context ends during a
// pacing or backoff pause; the summary then covers the work done so far.
func (d *Dispatcher) Run(ctx context.Context, orgID string, projects []snyk.Project, freq snyk.Frequency) (Summary, error) {
	summary := Summary{
		Total:   len(projects),
		Fetched: len(projects),
	}

	for i, project := range projects {
		if project.ID == "" {
			snykMalformedProjectsTotal.Inc()
			snykUpdatesTotal.WithLabelValues(OutcomeFailed.String()).Inc()
			summary.Failed++
			d.logger.Warn().
				Int("index", i+1).
				Int("total", summary.Total).
				Msg("Skipping project, no project ID found")
			continue
		}

		d.logger.Info().
			Int("index", i+1).
			Int("total", summary.Total).
			Str("project_id", project.ID).
			Str("project_name", project.DisplayName()).
			Msg("Updating project")

		if err := d.updateOne(ctx, orgID, project, freq, &summary); err != nil {
			return summary, err
		}

		if err := d.pacer.Pace(ctx); err != nil {
			return summary, err
		}
	}

	d.logger.Info().
		Int("updated", summary.Updated).
		Int("failed", summary.Failed).
		Int("total", summary.Total).
		Msg("Update run complete")

	return summary, nil
}

// updateOne drives a single project to a terminal outcome, retrying on
// rate limit responses. Only the terminal transition increments a
// summary counter.
func (d *Dispatcher) updateOne(ctx context.Context, orgID string, project snyk.Project, freq snyk.Frequency, summary *Summary) error {
	retries := 0

	for {
		err := d.client.UpdateProjectFrequency(ctx, orgID, project.ID, freq)
		outcome := ClassifyOutcome(err)
		snykUpdatesTotal.WithLabelValues(outcome.String()).Inc()

		switch outcome {
		case OutcomeSuccess:
			summary.Updated++
			d.logger.Info().
				Str("project_id", project.ID).
				Msg("Project updated")
			return nil

		case OutcomeFailed:
			summary.Failed++
			d.logger.Error().
				Err(err).
				Str("project_id", project.ID).
				Msg("Project update failed")
			return nil

		case OutcomeRateLimited:
			retries++
			if d.config.MaxRateLimitRetries > 0 && retries > d.config.MaxRateLimitRetries {
				summary.Failed++
				d.logger.Error().
					Str("project_id", project.ID).
					Int("retries", retries-1).
					Msg("Rate limit retries exhausted, marking project failed")
				return nil
			}

			d.logger.Warn().
				Str("project_id", project.ID).
				Int("attempt", retries).
				Msg("Rate limited, retrying same project after pause")

			if err := d.pacer.Backoff(ctx); err != nil {
				return err
			}
		}
	}
}
