package snyk

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrRateLimited signals an HTTP 429 response. It is transient: callers
// are expected to pause and retry the same request.
var ErrRateLimited = errors.New("rate limited")

// ErrorClass represents a classification of request errors.
type ErrorClass string

const (
	// ErrorClassClient represents 4xx client errors (other than 429).
	ErrorClassClient ErrorClass = "client"

	// ErrorClassServer represents 5xx server errors.
	ErrorClassServer ErrorClass = "server"

	// ErrorClassRateLimit represents 429 rate limit responses.
	ErrorClassRateLimit ErrorClass = "rate_limit"

	// ErrorClassNetwork represents network/timeout errors.
	ErrorClassNetwork ErrorClass = "network"
)

// APIError represents a failed Snyk API request with additional context.
type APIError struct {
	StatusCode int
	ErrorClass ErrorClass
	Endpoint   string
	Message    string
	Err        error
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Err != nil && e.StatusCode == 0 {
		return fmt.Sprintf("snyk %s error (%s): %v", e.ErrorClass, e.Endpoint, e.Err)
	}
	return fmt.Sprintf("snyk %s error (status %d, %s): %s",
		e.ErrorClass, e.StatusCode, e.Endpoint, e.Message)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *APIError) Unwrap() error {
	return e.Err
}

// classify categorizes a response or transport error.
func classify(statusCode int, err error) ErrorClass {
	if err != nil {
		return ErrorClassNetwork
	}

	switch {
	case statusCode == http.StatusTooManyRequests:
		return ErrorClassRateLimit
	case statusCode >= 400 && statusCode < 500:
		return ErrorClassClient
	case statusCode >= 500:
		return ErrorClassServer
	default:
		return ""
	}
}

// IsRateLimited reports whether err represents an HTTP 429 response.
func IsRateLimited(err error) bool {
	return errors.Is(err, ErrRateLimited)
}
