// Package genai wraps the Anthropic Messages API for the generative
// analyzer and transit planner backends. One call in, one text
// completion out; response parsing belongs to the callers.
package genai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/tidwall/gjson"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/NERVsystems/geoscout/pkg/tracing"
)

// Client issues completions against a fixed model with a fixed token
// budget.
type Client struct {
	api       anthropic.Client
	model     string
	maxTokens int64
}

// New creates a client. Extra request options are mainly for tests
// (custom base URL, HTTP client).
func New(apiKey, model string, maxTokens int, opts ...option.RequestOption) *Client {
	opts = append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)
	return &Client{
		api:       anthropic.NewClient(opts...),
		model:     model,
		maxTokens: int64(maxTokens),
	}
}

// Complete sends one message and returns the concatenated text blocks
// of the reply.
func (c *Client) Complete(ctx context.Context, system, prompt string) (string, error) {
	ctx, span := tracing.StartSpan(ctx, "genai.complete",
		trace.WithAttributes(
			attribute.String(tracing.AttrServiceName, tracing.ServiceAnthropic),
			attribute.String("genai.model", c.model),
		),
	)
	defer span.End()

	resp, err := c.api.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: c.maxTokens,
		System: []anthropic.TextBlockParam{
			{Text: system},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "completion failed")
		slog.Default().Error("model completion failed", "model", c.model, "error", err)
		return "", fmt.Errorf("model completion: %w", err)
	}

	var text strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	if text.Len() == 0 {
		span.SetStatus(codes.Error, "no text content")
		return "", errors.New("model returned no text content")
	}

	span.SetAttributes(attribute.Int("genai.response_chars", text.Len()))
	span.SetStatus(codes.Ok, "")
	return text.String(), nil
}

// ExtractJSON returns the JSON document embedded in model output,
// tolerating markdown fences and surrounding prose. The input is
// returned unchanged when no valid document can be isolated.
func ExtractJSON(s string) string {
	trimmed := strings.TrimSpace(s)

	// Strip a ```json ... ``` fence if present.
	if start := strings.Index(trimmed, "```"); start >= 0 {
		rest := trimmed[start+3:]
		if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
			rest = rest[nl+1:]
		}
		if end := strings.Index(rest, "```"); end >= 0 {
			trimmed = strings.TrimSpace(rest[:end])
		}
	}

	objStart := strings.IndexByte(trimmed, '{')
	arrStart := strings.IndexByte(trimmed, '[')
	start := objStart
	end := strings.LastIndexByte(trimmed, '}')
	if objStart < 0 || (arrStart >= 0 && arrStart < objStart) {
		start = arrStart
		end = strings.LastIndexByte(trimmed, ']')
	}
	if start < 0 || end <= start {
		return trimmed
	}

	candidate := trimmed[start : end+1]
	if !gjson.Valid(candidate) {
		return trimmed
	}
	return candidate
}
