package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"mealplanner"
)

const defaultSearchEndpoint = "https://api.tavily.com/search"

var (
	// ErrSearchDisabled is returned when no API key is configured.
	ErrSearchDisabled = errors.New("web search disabled")
	errNoPrice        = errors.New("no price in search results")
)

// SearchResult is one hit from the search API.
type SearchResult struct {
	Title   string  `json:"title"`
	URL     string  `json:"url"`
	Content string  `json:"content"`
	Score   float64 `json:"score"`
}

// SearchRequest is the body sent to a Tavily-compatible search API.
type SearchRequest struct {
	APIKey         string   `json:"api_key"`
	Query          string   `json:"query"`
	SearchDepth    string   `json:"search_depth"`
	MaxResults     int      `json:"max_results"`
	IncludeDomains []string `json:"include_domains,omitempty"`
}

type searchResponse struct {
	Results []SearchResult `json:"results"`
}

// WebSearch calls a Tavily-compatible HTTP search API.
type WebSearch struct {
	endpoint   string
	apiKey     string
	httpClient mealplanner.HTTPClient
}

type WebSearchOpts struct {
	Endpoint   string
	APIKey     string
	HTTPClient mealplanner.HTTPClient
}

func NewWebSearch(opts WebSearchOpts) *WebSearch {
	if opts.Endpoint == "" {
		opts.Endpoint = defaultSearchEndpoint
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	return &WebSearch{
		endpoint:   opts.Endpoint,
		apiKey:     opts.APIKey,
		httpClient: opts.HTTPClient,
	}
}

// Enabled reports whether searches will reach the API. A nil WebSearch is disabled.
func (w *WebSearch) Enabled() bool {
	return w != nil && w.apiKey != ""
}

// Search runs a basic-depth query, optionally restricted to domains.
func (w *WebSearch) Search(ctx context.Context, query string, maxResults int, domains ...string) ([]SearchResult, error) {
	if !w.Enabled() {
		return nil, ErrSearchDisabled
	}

	body, err := json.Marshal(SearchRequest{
		APIKey:         w.apiKey,
		Query:          query,
		SearchDepth:    "basic",
		MaxResults:     maxResults,
		IncludeDomains: domains,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal search request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create search request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read search response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search API returned %d: %s", resp.StatusCode, string(respBody))
	}

	var out searchResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}
	return out.Results, nil
}
