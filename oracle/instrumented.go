package oracle

import (
	"context"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"mealplanner"
)

// Instrumented traces every oracle call and records prompt and response sizes.
type Instrumented struct {
	next   mealplanner.Oracle
	tracer trace.Tracer

	promptSize      metric.Int64Gauge
	responseLength  metric.Int64Gauge
	responseTime    metric.Float64Histogram
	failedResponses metric.Int64Counter
}

func NewInstrumented(next mealplanner.Oracle, tracer trace.Tracer, meter metric.Meter) *Instrumented {
	in := &Instrumented{next: next, tracer: tracer}
	in.promptSize, _ = meter.Int64Gauge("prompt_size_bytes",
		metric.WithDescription("Size of the prompt sent to LLM in bytes"))
	in.responseLength, _ = meter.Int64Gauge("response_content_length",
		metric.WithDescription("Length of the response content from LLM"))
	in.responseTime, _ = meter.Float64Histogram("llm_response_time_seconds",
		metric.WithDescription("Time taken to receive response from LLM in seconds"))
	in.failedResponses, _ = meter.Int64Counter("llm_failed_responses_total",
		metric.WithDescription("Total number of LLM calls that returned an error"))
	return in
}

func (i *Instrumented) Invoke(ctx context.Context, prompt string) (string, error) {
	role := roleOf(prompt)
	ctx, span := i.tracer.Start(ctx, "Oracle.Invoke", trace.WithAttributes(
		attribute.String("role", role),
		attribute.Int("prompt_bytes", len(prompt)),
	))
	defer span.End()

	attrs := metric.WithAttributes(attribute.String("role", role))
	i.promptSize.Record(ctx, int64(len(prompt)), attrs)

	start := time.Now()
	out, err := i.next.Invoke(ctx, prompt)
	i.responseTime.Record(ctx, time.Since(start).Seconds(), attrs)

	if err != nil {
		i.failedResponses.Add(ctx, 1, attrs)
		span.SetStatus(codes.Error, "oracle call failed")
		span.RecordError(err)
		return "", err
	}

	i.responseLength.Record(ctx, int64(len(out)), attrs)
	span.SetAttributes(attribute.Int("response_bytes", len(out)))
	span.SetStatus(codes.Ok, "")
	return out, nil
}

// roleOf reads the ROLE header of a prompt.
func roleOf(prompt string) string {
	first, _, _ := strings.Cut(prompt, "\n")
	role, ok := strings.CutPrefix(strings.TrimSpace(first), "ROLE:")
	if !ok {
		return "unknown"
	}
	return strings.TrimSpace(role)
}
