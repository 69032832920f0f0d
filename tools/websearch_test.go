package tools

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWebSearch_Search(t *testing.T) {
	tests := []struct {
		name        string
		client      *mockHTTPClient
		domains     []string
		wantResults int
		wantErr     string
	}{
		{
			name: "results",
			client: &mockHTTPClient{results: []SearchResult{
				{Title: "Tofu - Mart", URL: "https://mart.example/tofu", Content: "100g당 1,200원"},
			}},
			wantResults: 1,
		},
		{
			name:        "domains are forwarded",
			client:      &mockHTTPClient{},
			domains:     []string{"10000recipe.com"},
			wantResults: 0,
		},
		{
			name:    "non-200 status",
			client:  &mockHTTPClient{status: http.StatusUnauthorized},
			wantErr: "search API returned 401",
		},
		{
			name:    "transport error",
			client:  &mockHTTPClient{err: errNetwork},
			wantErr: "connection refused",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results, err := newTestSearch(tt.client).Search(context.Background(), "tofu", 3, tt.domains...)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Len(t, results, tt.wantResults)

			require.Len(t, tt.client.requests, 1)
			sent := tt.client.requests[0]
			assert.Equal(t, "test-key", sent.APIKey)
			assert.Equal(t, "tofu", sent.Query)
			assert.Equal(t, "basic", sent.SearchDepth)
			assert.Equal(t, 3, sent.MaxResults)
			assert.Equal(t, tt.domains, sent.IncludeDomains)
		})
	}
}

func TestWebSearch_Disabled(t *testing.T) {
	var nilSearch *WebSearch
	assert.False(t, nilSearch.Enabled())

	client := &mockHTTPClient{}
	ws := NewWebSearch(WebSearchOpts{HTTPClient: client})
	assert.False(t, ws.Enabled())

	_, err := ws.Search(context.Background(), "tofu", 3)
	assert.ErrorIs(t, err, ErrSearchDisabled)
	assert.Zero(t, client.calls())
}
