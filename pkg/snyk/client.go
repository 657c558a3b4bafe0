// Package snyk provides the Snyk REST API client used by the batch
// updater: project listing with cursor pagination support and per-project
// test frequency updates, with error classification and structured logging.
package snyk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Sternrassler/snyk-batch-client/pkg/filter"
)

// Snyk REST API defaults.
const (
	// DefaultAPIHost is the base host for the Snyk REST API.
	DefaultAPIHost = "https://api.snyk.io"

	// DefaultAPIVersion is the API version sent with every request.
	DefaultAPIVersion = "2024-05-23"

	// DefaultPageLimit is the page size requested from the listing endpoint.
	DefaultPageLimit = 100

	// contentTypeJSONAPI is the JSON:API media type the REST API speaks.
	contentTypeJSONAPI = "application/vnd.api+json"

	// apiBasePath is the path prefix for all REST API endpoints.
	apiBasePath = "/rest"
)

// Prometheus metrics for Snyk API operations.
var (
	snykRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "snyk_requests_total",
		Help: "Total Snyk API requests by operation and status",
	}, []string{"operation", "status"})

	snykRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "snyk_request_duration_seconds",
		Help:    "Snyk API request duration in seconds by operation",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10},
	}, []string{"operation"})

	snykErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "snyk_errors_total",
		Help: "Total Snyk API errors by class",
	}, []string{"class"})
)

// Config holds the client configuration.
type Config struct {
	// Host is the API host, including scheme (default: DefaultAPIHost).
	Host string

	// Version is the mandatory API version query parameter.
	Version string

	// Token is the Snyk API token (REQUIRED).
	Token string

	// Timeout is the per-request HTTP timeout.
	Timeout time.Duration
}

// DefaultConfig returns a safe default configuration.
func DefaultConfig(token string) Config {
	return Config{
		Host:    DefaultAPIHost,
		Version: DefaultAPIVersion,
		Token:   token,
		Timeout: 30 * time.Second,
	}
}

// Client is the Snyk REST API client.
type Client struct {
	httpClient *http.Client
	host       string
	version    string
	token      string
	logger     zerolog.Logger
}

// New creates a new Snyk client.
func New(cfg Config) (*Client, error) {
	if cfg.Token == "" {
		return nil, fmt.Errorf("api token is required")
	}
	if cfg.Host == "" {
		cfg.Host = DefaultAPIHost
	}
	if cfg.Version == "" {
		cfg.Version = DefaultAPIVersion
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	logger := log.With().Str("component", "snyk-client").Logger()

	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		host:    strings.TrimSuffix(cfg.Host, "/"),
		version: cfg.Version,
		token:   cfg.Token,
		logger:  logger,
	}, nil
}

// ListProjectsURL builds the initial listing URL for an organization,
// with the fixed version and page limit parameters and the optional
// type filter serialized as a comma-joined query parameter.
func (c *Client) ListProjectsURL(orgID string, limit int, types []string) string {
	if limit <= 0 {
		limit = DefaultPageLimit
	}

	params := url.Values{}
	params.Set("version", c.version)
	params.Set("limit", strconv.Itoa(limit))
	if len(types) > 0 {
		params.Set("types", filter.QueryValue(types))
	}

	return fmt.Sprintf("%s%s/orgs/%s/projects?%s",
		c.host, apiBasePath, url.PathEscape(orgID), params.Encode())
}

// ResolvePageURL turns a continuation link into an absolute URL. The
// API returns next links either absolute or host-relative.
func (c *Client) ResolvePageURL(pageURL string) string {
	if strings.HasPrefix(pageURL, "/") {
		return c.host + pageURL
	}
	return pageURL
}

// ListProjectsPage fetches a single listing page. pageURL may be the
// initial URL from ListProjectsURL or a continuation link from a
// previous page's envelope.
func (c *Client) ListProjectsPage(ctx context.Context, pageURL string) (*ProjectPage, error) {
	resolved := c.ResolvePageURL(pageURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, resolved, nil)
	if err != nil {
		return nil, fmt.Errorf("create list request: %w", err)
	}
	req.Header.Set("Accept", contentTypeJSONAPI)

	resp, err := c.do(req, "list_projects")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, c.apiError(resp, "list_projects", nil)
	}

	var page ProjectPage
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("decode listing page: %w", err)
	}

	c.logger.Debug().
		Str("endpoint", req.URL.Path).
		Int("projects", len(page.Data)).
		Bool("has_next", page.Links.Next != "").
		Msg("Listing page fetched")

	return &page, nil
}

// updateRequest is the JSON:API body for a project frequency update.
type updateRequest struct {
	Data updateData `json:"data"`
}

type updateData struct {
	Type       string           `json:"type"`
	ID         string           `json:"id"`
	Attributes updateAttributes `json:"attributes"`
}

type updateAttributes struct {
	TestFrequency Frequency `json:"test_frequency"`
}

// UpdateProjectFrequency sets the test frequency attribute on a single
// project. A 429 response is returned as an APIError wrapping
// ErrRateLimited so callers can distinguish it from permanent failures.
func (c *Client) UpdateProjectFrequency(ctx context.Context, orgID, projectID string, freq Frequency) error {
	if !freq.Valid() {
		return fmt.Errorf("invalid frequency %q", freq)
	}

	endpoint := fmt.Sprintf("%s%s/orgs/%s/projects/%s?version=%s",
		c.host, apiBasePath, url.PathEscape(orgID), url.PathEscape(projectID),
		url.QueryEscape(c.version))

	body, err := json.Marshal(updateRequest{
		Data: updateData{
			Type:       "project",
			ID:         projectID,
			Attributes: updateAttributes{TestFrequency: freq},
		},
	})
	if err != nil {
		return fmt.Errorf("encode update body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create update request: %w", err)
	}
	req.Header.Set("Accept", contentTypeJSONAPI)
	req.Header.Set("Content-Type", contentTypeJSONAPI)

	resp, err := c.do(req, "update_project")
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusTooManyRequests:
		return c.apiError(resp, "update_project", ErrRateLimited)
	default:
		return c.apiError(resp, "update_project", nil)
	}
}

// do executes a request with auth header, metrics, and network error
// classification. Retry policy belongs to the caller.
func (c *Client) do(req *http.Request, operation string) (*http.Response, error) {
	req.Header.Set("Authorization", "token "+c.token)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	snykRequestDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())

	if err != nil {
		snykErrorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
		snykRequestsTotal.WithLabelValues(operation, "network_error").Inc()
		c.logger.Error().Err(err).Str("endpoint", req.URL.Path).Msg("HTTP request failed")
		return nil, &APIError{
			ErrorClass: ErrorClassNetwork,
			Endpoint:   req.URL.Path,
			Err:        err,
		}
	}

	snykRequestsTotal.WithLabelValues(operation, strconv.Itoa(resp.StatusCode)).Inc()
	return resp, nil
}

// apiError builds an APIError from an HTTP error response, consuming a
// bounded amount of the body for diagnostics.
func (c *Client) apiError(resp *http.Response, operation string, wrapped error) *APIError {
	class := classify(resp.StatusCode, nil)
	snykErrorsTotal.WithLabelValues(string(class)).Inc()

	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))

	c.logger.Warn().
		Str("operation", operation).
		Str("endpoint", resp.Request.URL.Path).
		Int("status", resp.StatusCode).
		Str("error_class", string(class)).
		Msg("Snyk API request error")

	return &APIError{
		StatusCode: resp.StatusCode,
		ErrorClass: class,
		Endpoint:   resp.Request.URL.Path,
		Message:    strings.TrimSpace(string(snippet)),
		Err:        wrapped,
	}
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}

// Host returns the configured API host.
func (c *Client) Host() string {
	return c.host
}
