// Package search runs web searches against a pluggable provider.
//
// Available providers:
//
//   - tavily: Tavily search API (default)
//   - google: Google Programmable Search (requires a search engine ID)
//
// Every call is bounded by a timeout and retried at most once on transient
// failures. All failures surface as *UnavailableError.
package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"time"

	"github.com/elifbarlik/AIResearchAutomationAgent/internal/types"
)

// Provider names
const (
	ProviderTavily = "tavily"
	ProviderGoogle = "google"
)

// DefaultTimeout bounds a single provider call
const DefaultTimeout = 30 * time.Second

// RetryDelay is the pause before the single retry. Tests override this.
var RetryDelay = 1 * time.Second

// ErrNoResults is the cause reported when every query of a request came back empty
var ErrNoResults = errors.New("no results")

// Provider is implemented by search backends
type Provider interface {
	// Name returns the provider identifier (e.g., "tavily", "google")
	Name() string
	// Search returns up to maxResults hits in relevance order
	Search(ctx context.Context, query string, maxResults int) ([]types.SearchResult, error)
}

// Options selects and configures a provider
type Options struct {
	Provider string
	APIKey   string
	GoogleCX string
	Timeout  time.Duration
	Logger   *slog.Logger
}

// Client wraps a Provider with a timeout, a bounded retry and typed errors
type Client struct {
	provider Provider
	timeout  time.Duration
	logger   *slog.Logger
}

// New builds a Client for the provider named in opts
func New(ctx context.Context, opts Options) (*Client, error) {
	var (
		provider Provider
		err      error
	)
	switch strings.ToLower(opts.Provider) {
	case "", ProviderTavily:
		provider = NewTavily(opts.APIKey)
	case ProviderGoogle:
		provider, err = NewGoogle(ctx, opts.APIKey, opts.GoogleCX)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unknown search provider %q", opts.Provider)
	}
	return NewClient(provider, opts.Timeout, opts.Logger), nil
}

// NewClient wraps an existing provider
func NewClient(provider Provider, timeout time.Duration, logger *slog.Logger) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		provider: provider,
		timeout:  timeout,
		logger:   logger.With("component", "search", "provider", provider.Name()),
	}
}

// Name returns the provider identifier
func (c *Client) Name() string {
	return c.provider.Name()
}

// Search queries the provider. An empty result list is not an error here;
// callers decide whether zero hits across all queries is fatal.
func (c *Client) Search(ctx context.Context, query string, maxResults int) ([]types.SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, &UnavailableError{Provider: c.provider.Name(), Query: query, Cause: errors.New("empty query")}
	}

	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		if attempt > 0 {
			c.logger.Warn("retrying search", "query", query, "error", lastErr)
			select {
			case <-ctx.Done():
				return nil, c.unavailable(query, ctx.Err())
			case <-time.After(RetryDelay):
			}
		}

		results, err := c.searchOnce(ctx, query, maxResults)
		if err == nil {
			c.logger.Debug("search completed", "query", query, "results", len(results))
			return results, nil
		}
		lastErr = err
		if ctx.Err() != nil || !isTransient(err) {
			break
		}
	}

	return nil, c.unavailable(query, lastErr)
}

func (c *Client) searchOnce(ctx context.Context, query string, maxResults int) ([]types.SearchResult, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	results, err := c.provider.Search(ctx, query, maxResults)
	if err != nil {
		return nil, err
	}
	if maxResults > 0 && len(results) > maxResults {
		results = results[:maxResults]
	}
	return results, nil
}

func (c *Client) unavailable(query string, err error) *UnavailableError {
	ue := &UnavailableError{Provider: c.provider.Name(), Query: query, Cause: err}
	var se *StatusError
	if errors.As(err, &se) {
		ue.StatusCode = se.StatusCode
	}
	return ue
}

// isTransient reports whether a failed attempt may succeed on retry
func isTransient(err error) bool {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Transient()
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
