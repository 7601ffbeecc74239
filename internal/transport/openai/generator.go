// Package openai implements the generation provider client against any
// OpenAI-compatible chat completions API (Groq in the default config).
package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/hackice20/perplexity-clone/internal/domain"
	"github.com/hackice20/perplexity-clone/internal/metrics"
)

// Generator issues chat completion requests, streamed and non-streamed.
type Generator struct {
	client *openai.Client
	model  string
	logger *zap.Logger
}

// Config holds the generation provider settings.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Logger  *zap.Logger
}

// NewGenerator creates an OpenAI-compatible generation client.
func NewGenerator(cfg *Config) *Generator {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	clientCfg.BaseURL = cfg.BaseURL

	return &Generator{
		client: openai.NewClientWithConfig(clientCfg),
		model:  cfg.Model,
		logger: cfg.Logger,
	}
}

// Complete issues a non-streamed request and returns the first choice's
// message content.
func (g *Generator) Complete(ctx context.Context, messages []domain.Message) (string, error) {
	start := time.Now()

	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    g.model,
		Messages: toProviderMessages(messages),
	})

	duration := time.Since(start)

	if err != nil {
		metrics.LLMRequestsTotal.WithLabelValues("complete", "error").Inc()
		return "", parseAPIError(err)
	}

	if len(resp.Choices) == 0 {
		metrics.LLMRequestsTotal.WithLabelValues("complete", "error").Inc()
		return "", fmt.Errorf("completion has no choices: %w", domain.ErrMalformedCompletion)
	}
	content := resp.Choices[0].Message.Content
	if content == "" {
		metrics.LLMRequestsTotal.WithLabelValues("complete", "error").Inc()
		return "", fmt.Errorf("completion content is empty: %w", domain.ErrMalformedCompletion)
	}

	metrics.LLMRequestsTotal.WithLabelValues("complete", "success").Inc()
	metrics.LLMRequestDuration.WithLabelValues("complete").Observe(duration.Seconds())
	recordUsage("complete", resp.Usage)

	return content, nil
}

// Stream opens a streamed request. The caller owns closing the stream.
func (g *Generator) Stream(ctx context.Context, messages []domain.Message) (domain.AnswerStream, error) {
	stream, err := g.client.CreateChatCompletionStream(ctx, openai.ChatCompletionRequest{
		Model:    g.model,
		Messages: toProviderMessages(messages),
		Stream:   true,
	})
	if err != nil {
		metrics.LLMRequestsTotal.WithLabelValues("stream", "error").Inc()
		return nil, parseAPIError(err)
	}

	metrics.LLMRequestsTotal.WithLabelValues("stream", "success").Inc()
	return &answerStream{stream: stream, started: time.Now()}, nil
}

// answerStream adapts the provider stream to domain.AnswerStream.
type answerStream struct {
	stream  *openai.ChatCompletionStream
	started time.Time
}

func (s *answerStream) Recv() (domain.StreamChunk, error) {
	resp, err := s.stream.Recv()
	if err != nil {
		if errors.Is(err, io.EOF) {
			metrics.LLMRequestDuration.WithLabelValues("stream").Observe(time.Since(s.started).Seconds())
			return domain.StreamChunk{}, io.EOF
		}
		return domain.StreamChunk{}, parseAPIError(err)
	}

	raw, err := json.Marshal(resp)
	if err != nil {
		return domain.StreamChunk{}, fmt.Errorf("marshal stream chunk: %w", err)
	}

	chunk := domain.StreamChunk{Raw: raw}
	if len(resp.Choices) > 0 {
		chunk.Content = resp.Choices[0].Delta.Content
	}
	return chunk, nil
}

func (s *answerStream) Close() error {
	return s.stream.Close() //nolint:wrapcheck // delegating to provider stream
}

func toProviderMessages(messages []domain.Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, len(messages))
	for i, m := range messages {
		out[i] = openai.ChatCompletionMessage{
			Role:    string(m.Role),
			Content: m.Content,
		}
	}
	return out
}

func recordUsage(kind string, usage openai.Usage) {
	if usage.TotalTokens == 0 {
		return
	}
	metrics.LLMTokensTotal.WithLabelValues(kind, "prompt").Add(float64(usage.PromptTokens))
	metrics.LLMTokensTotal.WithLabelValues(kind, "completion").Add(float64(usage.CompletionTokens))
	metrics.LLMTokensTotal.WithLabelValues(kind, "total").Add(float64(usage.TotalTokens))
}

// errBodyLimit bounds provider error bodies carried in wrapped errors.
const errBodyLimit = 100

// parseAPIError extracts a human-readable error from the API response.
// All errors are wrapped with domain.ErrGenerationProvider for uniform
// upstream-fatal handling.
func parseAPIError(err error) error {
	wrap := domain.ErrGenerationProvider

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		body := reqErr.Body
		if len(body) > errBodyLimit {
			body = body[:errBodyLimit]
		}
		return fmt.Errorf("generation API error %d: %s: %w",
			reqErr.HTTPStatusCode, string(body), wrap)
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("generation API error %d: %s: %w",
			apiErr.HTTPStatusCode, apiErr.Message, wrap)
	}

	return fmt.Errorf("generation request failed: %w", wrap)
}
