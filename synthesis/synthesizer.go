package synthesis

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/c360studio/contentpipe/llm"
)

// FallbackContent is the content a synthesized overview degrades to when
// the model is unreachable or returns something unusable.
const FallbackContent = "Content generation failed."

// overviewMaxTokens bounds overview generation; ~500 words of prose.
const overviewMaxTokens = 2048

// CompletionClient is the slice of llm.Client the synthesizer needs.
// Defined here so tests can substitute a mock.
type CompletionClient interface {
	Complete(ctx context.Context, req llm.Request) (*llm.Response, error)
}

// Synthesizer asks a generative model for JSON conforming to a Shape and
// degrades to a caller-supplied fallback when it cannot get it.
type Synthesizer struct {
	client      CompletionClient
	logger      *slog.Logger
	temperature *float64
}

// Option configures a Synthesizer.
type Option func(*Synthesizer)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Synthesizer) {
		s.logger = logger
	}
}

// WithTemperature sets an explicit sampling temperature.
func WithTemperature(t float64) Option {
	return func(s *Synthesizer) {
		s.temperature = &t
	}
}

// New creates a Synthesizer on the given completion client.
func New(client CompletionClient, opts ...Option) *Synthesizer {
	s := &Synthesizer{
		client: client,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Synthesize issues exactly one model request for JSON matching shape and
// returns the parsed value. Every failure mode — transport error,
// unparseable response, shape mismatch — resolves to the supplied
// fallback; callers never see an error. Transport failures and malformed
// output are distinguished in the logs only.
func (s *Synthesizer) Synthesize(ctx context.Context, instructions string, shape Shape, fallback any) any {
	prompt := fmt.Sprintf("%s\n\nOutput must strictly follow this JSON shape:\n%s\n\nReturn only valid JSON, no markdown formatting.",
		instructions, shape.Describe())

	resp, err := s.client.Complete(ctx, llm.Request{
		Messages: []llm.Message{
			{Role: "user", Content: prompt},
		},
		Temperature: s.temperature,
		MaxTokens:   overviewMaxTokens,
	})
	if err != nil {
		if llm.IsTransient(err) {
			s.logger.Warn("Model service unreachable, using fallback", "error", err)
		} else {
			s.logger.Error("Model request rejected, using fallback", "error", err)
		}
		return fallback
	}

	value, ok := s.parse(resp.Content, shape)
	if !ok {
		s.logger.Warn("Model response malformed, using fallback",
			"model", resp.Model,
			"finish_reason", resp.FinishReason)
		return fallback
	}

	return value
}

// parse normalizes the raw response (stripping code fences and other
// formatting artifacts), parses it as JSON, and checks it against shape.
// The parsed value passes through unreshaped.
func (s *Synthesizer) parse(content string, shape Shape) (any, bool) {
	var raw string
	if shape.Kind == KindArray {
		raw = llm.ExtractJSONArray(content)
	} else {
		raw = llm.ExtractJSON(content)
	}
	if raw == "" {
		return nil, false
	}

	var value any
	if err := json.Unmarshal([]byte(raw), &value); err != nil {
		return nil, false
	}

	if !shape.Matches(value) {
		return nil, false
	}

	return value, true
}

// GenerateOverview synthesizes a professional introductory overview for a
// topic. Used when no web content could be acquired; always returns text,
// degrading to FallbackContent.
func (s *Synthesizer) GenerateOverview(ctx context.Context, title, description string) string {
	instructions := fmt.Sprintf(overviewPrompt, title, description)
	shape := ObjectShape("content").WithExample(`{"content": "The full markdown or text content of the overview"}`)
	fallback := map[string]any{"content": FallbackContent}

	result := s.Synthesize(ctx, instructions, shape, fallback)

	obj, ok := result.(map[string]any)
	if !ok {
		return FallbackContent
	}
	content, ok := obj["content"].(string)
	if !ok || content == "" {
		return FallbackContent
	}
	return content
}
