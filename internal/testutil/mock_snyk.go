// Package testutil provides testing utilities for the Snyk batch client.
package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"

	"github.com/Sternrassler/snyk-batch-client/pkg/snyk"
)

// MockSnyk is a configurable mock Snyk REST API server for testing.
type MockSnyk struct {
	server   *httptest.Server
	mu       sync.RWMutex
	handlers map[string]http.HandlerFunc

	// Tracking
	RequestCount int
	ListCount    int
	PatchCounts  map[string]int
	LastAuth     string
	LastQuery    map[string][]string
}

// NewMockSnyk creates a new mock Snyk server.
func NewMockSnyk() *MockSnyk {
	mock := &MockSnyk{
		handlers:    make(map[string]http.HandlerFunc),
		PatchCounts: make(map[string]int),
	}

	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mock.mu.Lock()
		mock.RequestCount++
		mock.LastAuth = r.Header.Get("Authorization")
		mock.LastQuery = r.URL.Query()
		mock.mu.Unlock()

		mock.mu.RLock()
		handler, exists := mock.handlers[r.Method+" "+r.URL.Path]
		mock.mu.RUnlock()

		if exists {
			handler(w, r)
			return
		}

		w.Header().Set("Content-Type", "application/vnd.api+json")
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"errors":[{"detail":"not found"}]}`))
	}))

	return mock
}

// URL returns the mock server URL.
func (m *MockSnyk) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockSnyk) Close() {
	m.server.Close()
}

// Reset clears all tracking counters and registered handlers.
func (m *MockSnyk) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RequestCount = 0
	m.ListCount = 0
	m.PatchCounts = make(map[string]int)
	m.LastAuth = ""
	m.LastQuery = nil
	m.handlers = make(map[string]http.HandlerFunc)
}

// SetHandler registers a custom handler for a method and path.
func (m *MockSnyk) SetHandler(method, path string, handler http.HandlerFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[method+" "+path] = handler
}

// ListPath returns the listing endpoint path for an organization.
func ListPath(orgID string) string {
	return fmt.Sprintf("/rest/orgs/%s/projects", orgID)
}

// ProjectPath returns the update endpoint path for a project.
func ProjectPath(orgID, projectID string) string {
	return fmt.Sprintf("/rest/orgs/%s/projects/%s", orgID, projectID)
}

// SetProjectPages serves the given pages from the listing endpoint,
// chained by host-relative next links with a "page" cursor parameter.
func (m *MockSnyk) SetProjectPages(orgID string, pages [][]snyk.Project) {
	m.setListHandler(orgID, pages, 0, 0)
}

// SetProjectPagesFailingAt behaves like SetProjectPages but returns the
// given HTTP status for the failPage-th page (1-based).
func (m *MockSnyk) SetProjectPagesFailingAt(orgID string, pages [][]snyk.Project, failPage, status int) {
	m.setListHandler(orgID, pages, failPage, status)
}

func (m *MockSnyk) setListHandler(orgID string, pages [][]snyk.Project, failPage, failStatus int) {
	path := ListPath(orgID)
	m.SetHandler(http.MethodGet, path, func(w http.ResponseWriter, r *http.Request) {
		m.mu.Lock()
		m.ListCount++
		m.mu.Unlock()

		page := 1
		if p := r.URL.Query().Get("page"); p != "" {
			page, _ = strconv.Atoi(p)
		}

		if failPage > 0 && page == failPage {
			w.Header().Set("Content-Type", "application/vnd.api+json")
			w.WriteHeader(failStatus)
			w.Write([]byte(`{"errors":[{"detail":"listing failed"}]}`))
			return
		}

		if page < 1 || page > len(pages) {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		envelope := snyk.ProjectPage{Data: pages[page-1]}
		if page < len(pages) {
			// Host-relative next link, as the REST API returns.
			envelope.Links.Next = fmt.Sprintf("%s?version=%s&page=%d",
				path, r.URL.Query().Get("version"), page+1)
		}

		w.Header().Set("Content-Type", "application/vnd.api+json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(envelope)
	})
}

// SetUpdateStatuses scripts the PATCH responses for a project: call n
// receives statuses[n], with the final status repeating once the script
// is exhausted. Use 429 followed by 200 to exercise retry behavior.
func (m *MockSnyk) SetUpdateStatuses(orgID, projectID string, statuses ...int) {
	var mu sync.Mutex
	call := 0

	m.SetHandler(http.MethodPatch, ProjectPath(orgID, projectID), func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		status := statuses[min(call, len(statuses)-1)]
		call++
		mu.Unlock()

		m.mu.Lock()
		m.PatchCounts[projectID]++
		m.mu.Unlock()

		w.Header().Set("Content-Type", "application/vnd.api+json")
		w.WriteHeader(status)
		if status == http.StatusTooManyRequests {
			w.Write([]byte(`{"errors":[{"detail":"too many requests"}]}`))
		}
	})
}

// GetRequestCount returns the number of requests served.
func (m *MockSnyk) GetRequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.RequestCount
}

// GetPatchCount returns the number of PATCH calls for a project.
func (m *MockSnyk) GetPatchCount(projectID string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.PatchCounts[projectID]
}

// GetListCount returns the number of listing page requests served.
func (m *MockSnyk) GetListCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.ListCount
}
