package ollama

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mealplanner/oracle"
)

// mockHTTPClient implements the HTTPClient interface for testing
type mockHTTPClient struct {
	response *http.Response
	err      error
	request  *http.Request
	body     []byte
}

func (m *mockHTTPClient) Do(req *http.Request) (*http.Response, error) {
	m.request = req
	if req.Body != nil {
		m.body, _ = io.ReadAll(req.Body)
	}
	return m.response, m.err
}

// createMockResponse creates a mock HTTP response
func createMockResponse(statusCode int, body string) *http.Response {
	return &http.Response{
		StatusCode: statusCode,
		Status:     http.StatusText(statusCode),
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     make(http.Header),
	}
}

func TestNewClient(t *testing.T) {
	tests := []struct {
		name       string
		opts       ClientOpts
		wantErr    bool
		wantPrompt string
		wantURL    string
	}{
		{
			name:       "defaults",
			opts:       ClientOpts{BaseEndpoint: "http://localhost:11434", ModelID: "llama3.2", HTTPClient: &mockHTTPClient{}},
			wantPrompt: defaultSystemPrompt,
			wantURL:    "http://localhost:11434/api/chat",
		},
		{
			name:       "custom system prompt and trailing slash",
			opts:       ClientOpts{BaseEndpoint: "http://ollama:11434/", ModelID: "qwen2.5", SystemPrompt: "Be brief"},
			wantPrompt: "Be brief",
			wantURL:    "http://ollama:11434/api/chat",
		},
		{
			name:    "missing model",
			opts:    ClientOpts{BaseEndpoint: "http://localhost:11434"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewClient(tt.opts)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantPrompt, got.systemPrompt)
			assert.Equal(t, tt.wantURL, got.endpoint)
			assert.NotNil(t, got.httpClient)
			assert.Equal(t, 0.7, got.options.Temperature)
		})
	}
}

func TestClient_Invoke(t *testing.T) {
	tests := []struct {
		name         string
		mockResponse *http.Response
		mockError    error
		expected     string
		wantErr      bool
		errContains  string
		rateLimited  bool
	}{
		{
			name: "successful response with content",
			mockResponse: createMockResponse(200, `{
				"message": {
					"role": "assistant",
					"content": "{\"menu_name\": \"kimchi stew\"}"
				},
				"done": true,
				"eval_count": 42
			}`),
			expected: `{"menu_name": "kimchi stew"}`,
		},
		{
			name:         "HTTP error",
			mockResponse: createMockResponse(500, `{"error": "Internal server error"}`),
			wantErr:      true,
			errContains:  "LLM_CLIENT:",
		},
		{
			name:         "rate limited",
			mockResponse: createMockResponse(429, `{"error": "slow down"}`),
			wantErr:      true,
			rateLimited:  true,
		},
		{
			name:      "network error",
			mockError: io.EOF,
			wantErr:   true,
		},
		{
			name:         "empty content",
			mockResponse: createMockResponse(200, `{"message": {"role": "assistant", "content": "  "}}`),
			wantErr:      true,
			errContains:  "empty response",
		},
		{
			name: "malformed JSON response",
			mockResponse: createMockResponse(200, `{
				"message": {
					"role": "assistant",
					"content": "Invalid JSON response"
				}
			`), // Missing closing brace
			expected: `{
				"message": {
					"role": "assistant",
					"content": "Invalid JSON response"
				}
			`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := NewClient(ClientOpts{
				BaseEndpoint: "http://localhost:11434",
				ModelID:      "llama3.2",
				HTTPClient:   &mockHTTPClient{response: tt.mockResponse, err: tt.mockError},
			})
			require.NoError(t, err)

			result, err := client.Invoke(context.Background(), "ROLE: nutrition\nMEAL: day 1 of 1, lunch")

			if tt.wantErr {
				require.Error(t, err)
				if tt.errContains != "" {
					assert.Contains(t, err.Error(), tt.errContains)
				}
				if tt.rateLimited {
					assert.ErrorIs(t, err, oracle.ErrRateLimited)
				}
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestClient_InvokeRequest(t *testing.T) {
	httpClient := &mockHTTPClient{response: createMockResponse(200, `{"message": {"role": "assistant", "content": "{}"}}`)}
	client, err := NewClient(ClientOpts{
		BaseEndpoint: "http://localhost:11434",
		ModelID:      "llama3.2",
		SystemPrompt: "system rules",
		MaxTokens:    512,
		HTTPClient:   httpClient,
	})
	require.NoError(t, err)

	_, err = client.Invoke(context.Background(), "ROLE: cost")
	require.NoError(t, err)

	require.NotNil(t, httpClient.request)
	assert.Equal(t, http.MethodPost, httpClient.request.Method)
	assert.Equal(t, "application/json", httpClient.request.Header.Get("Content-Type"))

	var sent wireRequest
	require.NoError(t, json.Unmarshal(httpClient.body, &sent))
	assert.Equal(t, "llama3.2", sent.Model)
	assert.Equal(t, "json", sent.Format)
	assert.False(t, sent.Stream)
	assert.Equal(t, 512, sent.Options.NumPredict)
	assert.Equal(t, []Message{
		{Role: "system", Content: "system rules"},
		{Role: "user", Content: "ROLE: cost"},
	}, sent.Messages)
}

func TestClient_buildMessages(t *testing.T) {
	c := &Client{}
	assert.Equal(t, []Message{{Role: "user", Content: "hi"}}, c.buildMessages("hi"))

	c.systemPrompt = "rules"
	assert.Equal(t, []Message{{Role: "system", Content: "rules"}, {Role: "user", Content: "hi"}}, c.buildMessages("hi"))
}
