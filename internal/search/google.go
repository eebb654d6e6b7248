package search

import (
	"context"
	"errors"
	"fmt"

	"github.com/elifbarlik/AIResearchAutomationAgent/internal/types"
	"google.golang.org/api/customsearch/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// googleMaxResults is the per-request cap of the Custom Search API
const googleMaxResults = 10

// Google searches via Google Programmable Search
type Google struct {
	svc *customsearch.Service
	cx  string
}

// NewGoogle creates a Google provider for the given search engine ID
func NewGoogle(ctx context.Context, apiKey string, cx string, opts ...option.ClientOption) (*Google, error) {
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	if cx == "" {
		return nil, errors.New("google search engine ID (cx) is required")
	}

	svc, err := customsearch.NewService(ctx, append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to create customsearch service: %w", err)
	}
	return &Google{svc: svc, cx: cx}, nil
}

// Name implements Provider
func (g *Google) Name() string { return ProviderGoogle }

// Search implements Provider
func (g *Google) Search(ctx context.Context, query string, maxResults int) ([]types.SearchResult, error) {
	if maxResults <= 0 || maxResults > googleMaxResults {
		maxResults = googleMaxResults
	}

	resp, err := g.svc.Cse.List().Cx(g.cx).Q(query).Num(int64(maxResults)).Context(ctx).Do()
	if err != nil {
		var apiErr *googleapi.Error
		if errors.As(err, &apiErr) {
			return nil, &StatusError{StatusCode: apiErr.Code, Body: apiErr.Message}
		}
		return nil, err
	}

	results := make([]types.SearchResult, 0, len(resp.Items))
	for _, item := range resp.Items {
		results = append(results, types.SearchResult{Title: item.Title, URL: item.Link, Snippet: item.Snippet})
	}
	return results, nil
}
