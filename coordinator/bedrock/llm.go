package bedrock

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"mealplanner"
	"mealplanner/oracle"
)

const (
	// defaultModelID is the default model ID for Bedrock Claude.
	// It's an inference profile ID or ARN, not the foundation model's ID.
	// See https://docs.aws.amazon.com/bedrock/latest/userguide/inference-profiles.html.
	defaultModelID = "us.anthropic.claude-3-7-sonnet-20250219-v1:0"

	// A merged menu with recipe steps fits comfortably in 2k tokens.
	defaultMaxTokens = 2000

	defaultTemperature = 0.7

	defaultTopP = 0.9
)

var ErrMaxTokens = errors.New("model hit MaxTokens limit; consider increasing MaxTokens")

var ErrContentFiltered = errors.New("model response blocked by Bedrock safety filters")

type bedrockRuntimeClient interface {
	Converse(context.Context, *bedrockruntime.ConverseInput, ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error)
}

type LLMOptions struct {
	ModelID     string
	MaxTokens   int32
	Temperature float32
	TopP        float32
	// Meter, when set, receives token usage counters.
	Meter metric.Meter
}

type LLMClient struct {
	brc  bedrockRuntimeClient
	opts LLMOptions

	inputTokens  metric.Int64Counter
	outputTokens metric.Int64Counter
}

var _ mealplanner.Oracle = (*LLMClient)(nil)

func NewLLMClient(brc bedrockRuntimeClient, opts LLMOptions) *LLMClient {
	if opts.ModelID == "" {
		opts.ModelID = defaultModelID
	}
	if opts.MaxTokens == 0 {
		opts.MaxTokens = defaultMaxTokens
	}
	if opts.Temperature == 0 {
		opts.Temperature = defaultTemperature
	}
	if opts.TopP == 0 {
		opts.TopP = defaultTopP
	}

	c := &LLMClient{brc: brc, opts: opts}
	if opts.Meter != nil {
		c.inputTokens, _ = opts.Meter.Int64Counter("llm_input_tokens_total",
			metric.WithDescription("Total number of input tokens sent to Bedrock"))
		c.outputTokens, _ = opts.Meter.Int64Counter("llm_output_tokens_total",
			metric.WithDescription("Total number of output tokens received from Bedrock"))
	}
	return c
}

// Invoke sends prompt as a single user turn and returns the assistant text.
// Throttling is reported as oracle.ErrRateLimited.
func (c *LLMClient) Invoke(ctx context.Context, prompt string) (string, error) {
	slog.Info("LLM_CLIENT: Invoked", "prompt_len", len(prompt))

	out, err := c.brc.Converse(ctx, newConverseInput(c.opts, prompt))
	if err != nil {
		var throttled *types.ThrottlingException
		if errors.As(err, &throttled) {
			slog.Warn("LLM_CLIENT: Bedrock throttled the request", "error", err)
			return "", fmt.Errorf("%w: %w", oracle.ErrRateLimited, err)
		}
		slog.Error("LLM_CLIENT: Bedrock Claude invoke failed", "error", err, "model", c.opts.ModelID)
		return "", err
	}

	c.recordUsage(ctx, out)

	switch out.StopReason {
	case types.StopReasonEndTurn, types.StopReasonStopSequence:
		text := textFromOutput(out)
		if text == "" {
			return "", fmt.Errorf("model returned no text")
		}
		slog.Info("LLM_CLIENT: Extracted text", "text_len", len(text))
		return text, nil

	case types.StopReasonMaxTokens:
		slog.Warn("LLM_CLIENT: Model hit MaxTokens limit", "max_tokens", c.opts.MaxTokens)
		return "", ErrMaxTokens

	case types.StopReasonGuardrailIntervened, "content_filtered":
		slog.Warn("LLM_CLIENT: Model response blocked by Bedrock safety filters")
		return "", ErrContentFiltered

	default:
		// Fallback if the model didn't specify a stop reason
		text := textFromOutput(out)
		if text == "" {
			return "", fmt.Errorf("model stopped with %q and no text", out.StopReason)
		}
		return text, nil
	}
}

func (c *LLMClient) recordUsage(ctx context.Context, out *bedrockruntime.ConverseOutput) {
	var latency int64
	if out.Metrics != nil {
		latency = aws.ToInt64(out.Metrics.LatencyMs)
	}
	var in, outTokens int32
	if out.Usage != nil {
		in = aws.ToInt32(out.Usage.InputTokens)
		outTokens = aws.ToInt32(out.Usage.OutputTokens)
	}

	slog.Info("LLM_CLIENT: Bedrock Claude invoke succeeded",
		"stop_reason", out.StopReason,
		"latency_ms", latency,
		"input_tokens", in,
		"output_tokens", outTokens,
	)

	if c.inputTokens != nil {
		attrs := metric.WithAttributes(attribute.String("model", c.opts.ModelID))
		c.inputTokens.Add(ctx, int64(in), attrs)
		c.outputTokens.Add(ctx, int64(outTokens), attrs)
	}
}

// textFromOutput returns the assistant text. When a block looks like a single
// JSON object the last such block wins; otherwise text blocks are joined with
// newlines.
func textFromOutput(out *bedrockruntime.ConverseOutput) string {
	if out == nil || out.Output == nil {
		return ""
	}

	msg, ok := out.Output.(*types.ConverseOutputMemberMessage)
	if !ok || msg == nil || len(msg.Value.Content) == 0 {
		return ""
	}

	texts := make([]string, 0, len(msg.Value.Content))
	for _, cb := range msg.Value.Content {
		if t, ok := cb.(*types.ContentBlockMemberText); ok && t != nil && t.Value != "" {
			texts = append(texts, t.Value)
		}
	}
	if len(texts) == 0 {
		return ""
	}

	for i := len(texts) - 1; i >= 0; i-- {
		s := strings.TrimSpace(texts[i])
		if len(s) > 1 && s[0] == '{' && s[len(s)-1] == '}' {
			return s
		}
	}

	return strings.Join(texts, "\n")
}
