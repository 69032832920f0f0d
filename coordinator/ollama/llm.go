package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"mealplanner"
	"mealplanner/oracle"
)

type Client struct {
	endpoint     string
	model        string
	systemPrompt string
	httpClient   mealplanner.HTTPClient
	options      options
}

var _ mealplanner.Oracle = (*Client)(nil)

type ClientOpts struct {
	BaseEndpoint string
	ModelID      string
	// SystemPrompt replaces the default system prompt when set.
	SystemPrompt string
	Temperature  float64
	MaxTokens    int
	HTTPClient   mealplanner.HTTPClient
}

func NewClient(opts ClientOpts) (*Client, error) {
	if strings.TrimSpace(opts.ModelID) == "" {
		return nil, fmt.Errorf("model id is required")
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.SystemPrompt == "" {
		opts.SystemPrompt = defaultSystemPrompt
	}
	if opts.Temperature == 0 {
		opts.Temperature = 0.7
	}

	return &Client{
		model:        opts.ModelID,
		systemPrompt: opts.SystemPrompt,
		httpClient:   opts.HTTPClient,
		endpoint:     strings.TrimRight(opts.BaseEndpoint, "/") + "/api/chat",
		options: options{
			Temperature:   opts.Temperature,
			TopP:          0.9,
			RepeatPenalty: 1.05,
			NumCtx:        16384, // instructor note: 16384 used as a safe default; raise if your machine can handle it
			NumPredict:    opts.MaxTokens,
		},
	}, nil
}

// Invoke sends the prompt to the Ollama chat API in JSON mode and returns the
// model's content verbatim. Extracting the JSON object is left to the caller.
func (c *Client) Invoke(ctx context.Context, prompt string) (string, error) {
	slog.Info("LLM_CLIENT: Invoked", "model", c.model, "prompt_len", len(prompt))

	reqBytes, err := json.Marshal(wireRequest{
		Model:    c.model,
		Messages: c.buildMessages(prompt),
		Format:   "json",
		Stream:   false,
		Options:  c.options,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewBuffer(reqBytes))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return "", fmt.Errorf("%w: LLM_CLIENT: %s: %s", oracle.ErrRateLimited, resp.Status, string(body))
	case resp.StatusCode != http.StatusOK:
		return "", fmt.Errorf("LLM_CLIENT: %s: %s", resp.Status, string(body))
	}

	var wr wireResponse
	if err := json.Unmarshal(body, &wr); err != nil {
		slog.Warn("LLM_CLIENT: decode failed, returning raw", "err", err, "body", string(body))
		return string(body), nil
	}
	if strings.TrimSpace(wr.Message.Content) == "" {
		return "", errors.New("LLM_CLIENT: empty response content")
	}

	slog.Info("LLM_CLIENT: Ollama invoke succeeded", "prompt_tokens", wr.PromptEvalCount, "output_tokens", wr.EvalCount)
	return wr.Message.Content, nil
}
