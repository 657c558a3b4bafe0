package fetcher

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/Sternrassler/snyk-batch-client/pkg/logging"
	"github.com/Sternrassler/snyk-batch-client/pkg/ratelimit"
	"github.com/Sternrassler/snyk-batch-client/pkg/snyk"
)

// ProjectLister is the subset of the Snyk client the fetcher needs.
type ProjectLister interface {
	// ListProjectsURL builds the initial listing URL for an organization.
	ListProjectsURL(orgID string, limit int, types []string) string

	// ListProjectsPage fetches one listing page by URL.
	ListProjectsPage(ctx context.Context, pageURL string) (*snyk.ProjectPage, error)
}

// Fetcher follows the listing cursor chain and aggregates all pages.
type Fetcher struct {
	client ProjectLister
	pacer  *ratelimit.Pacer
	logger zerolog.Logger
}

// New creates a new fetcher.
func New(client ProjectLister, pacer *ratelimit.Pacer) *Fetcher {
	return &Fetcher{
		client: client,
		pacer:  pacer,
		logger: logging.NewLogger("fetcher"),
	}
}

// FetchAll returns every project across all listing pages, in server
// order. Any page error aborts the entire fetch; no partial list is
// returned.
func (f *Fetcher) FetchAll(ctx context.Context, orgID string, limit int, types []string) ([]snyk.Project, error) {
	start := time.Now()
	nextURL := f.client.ListProjectsURL(orgID, limit, types)

	var projects []snyk.Project
	page := 0

	for nextURL != "" {
		page++

		f.logger.Info().
			Str("org_id", orgID).
			Int("page", page).
			Msg("Fetching page")

		envelope, err := f.client.ListProjectsPage(ctx, nextURL)
		if err != nil {
			f.logger.Error().
				Err(err).
				Str("org_id", orgID).
				Int("page", page).
				Msg("Listing page failed, aborting fetch")
			return nil, fmt.Errorf("fetch page %d: %w", page, err)
		}

		projects = append(projects, envelope.Data...)
		nextURL = envelope.Links.Next

		if nextURL != "" {
			if err := f.pacer.Pace(ctx); err != nil {
				return nil, err
			}
		}
	}

	f.logger.Info().
		Str("org_id", orgID).
		Int("pages", page).
		Int("projects", len(projects)).
		Dur("duration", time.Since(start)).
		Msg("Fetch complete")

	return projects, nil
}
