package search

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/elifbarlik/AIResearchAutomationAgent/internal/types"
)

// TavilyEndpoint is the Tavily search URL. Tests point it at an httptest server.
var TavilyEndpoint = "https://api.tavily.com/search"

// ErrMissingAPIKey is returned when a provider that needs a key has none
var ErrMissingAPIKey = errors.New("search API key is missing")

// Tavily calls the Tavily search API.
type Tavily struct {
	APIKey string
	client *http.Client
}

// NewTavily constructs a Tavily search provider. Timeouts come from the caller's context.
func NewTavily(apiKey string) *Tavily {
	return &Tavily{APIKey: apiKey, client: &http.Client{}}
}

// NewTavilyWithClient constructs a Tavily search provider using the supplied HTTP client.
func NewTavilyWithClient(apiKey string, client *http.Client) *Tavily {
	return &Tavily{APIKey: apiKey, client: client}
}

// Name implements Provider
func (t *Tavily) Name() string { return ProviderTavily }

type tavilyRequest struct {
	APIKey     string `json:"api_key"`
	Query      string `json:"query"`
	MaxResults int    `json:"max_results,omitempty"`
}

type tavilyResponse struct {
	Results []struct {
		Title   string `json:"title"`
		URL     string `json:"url"`
		Content string `json:"content"`
		Snippet string `json:"snippet"`
	} `json:"results"`
}

// Search posts a query to Tavily.
func (t *Tavily) Search(ctx context.Context, query string, maxResults int) ([]types.SearchResult, error) {
	if strings.TrimSpace(t.APIKey) == "" {
		return nil, ErrMissingAPIKey
	}

	payload, err := json.Marshal(tavilyRequest{APIKey: t.APIKey, Query: query, MaxResults: maxResults})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, TavilyEndpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	var response tavilyResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("failed to decode tavily response: %w", err)
	}

	results := make([]types.SearchResult, 0, len(response.Results))
	for _, r := range response.Results {
		snippet := r.Content
		if snippet == "" {
			snippet = r.Snippet
		}
		results = append(results, types.SearchResult{Title: r.Title, URL: r.URL, Snippet: snippet})
	}
	return results, nil
}
