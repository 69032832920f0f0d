package tools

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"sync"
)

// mockHTTPClient serves canned search results and records request bodies.
type mockHTTPClient struct {
	mu       sync.Mutex
	status   int
	results  []SearchResult
	err      error
	requests []SearchRequest
}

func (m *mockHTTPClient) Do(req *http.Request) (*http.Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var body SearchRequest
	if req.Body != nil {
		b, _ := io.ReadAll(req.Body)
		_ = json.Unmarshal(b, &body)
	}
	m.requests = append(m.requests, body)

	if m.err != nil {
		return nil, m.err
	}
	status := m.status
	if status == 0 {
		status = http.StatusOK
	}
	b, _ := json.Marshal(map[string]any{"results": m.results})
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(bytes.NewReader(b)),
		Header:     make(http.Header),
	}, nil
}

func (m *mockHTTPClient) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

var errNetwork = errors.New("connection refused")

func newTestSearch(client *mockHTTPClient) *WebSearch {
	return NewWebSearch(WebSearchOpts{APIKey: "test-key", Endpoint: "http://search.test/search", HTTPClient: client})
}
