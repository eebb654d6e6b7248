package search

import (
	"fmt"
	"net/http"
)

// UnavailableError reports that the web search could not be completed
type UnavailableError struct {
	Provider   string
	Query      string
	StatusCode int // 0 when no HTTP response was received
	Cause      error
}

func (e *UnavailableError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("search unavailable (%s, HTTP %d) for %q: %v", e.Provider, e.StatusCode, e.Query, e.Cause)
	}
	return fmt.Sprintf("search unavailable (%s) for %q: %v", e.Provider, e.Query, e.Cause)
}

func (e *UnavailableError) Unwrap() error {
	return e.Cause
}

// StatusError is returned by providers for non-200 HTTP responses
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("http %d %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("http %d: %s", e.StatusCode, e.Body)
}

// Transient reports whether the status is worth retrying
func (e *StatusError) Transient() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}
