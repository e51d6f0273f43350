package llm

import (
	"context"
	"io"

	"github.com/google/generative-ai-go/genai"
)

// Request is one schema-constrained generation call.
type Request struct {
	Model             string
	Prompt            string
	SystemInstruction string
	Schema            *genai.Schema
	MaxOutputTokens   int32
}

// Response carries the raw JSON text returned by the model.
type Response struct {
	Text string
}

// Generator is the capability the pipeline depends on: prompt and schema in, JSON text out.
// Implementations return *TransientError (or an error IsTransient recognizes) for retryable failures.
type Generator interface {
	Generate(ctx context.Context, req Request) (Response, error)
}

// GeneratorFunc adapts a function to the Generator interface.
type GeneratorFunc func(ctx context.Context, req Request) (Response, error)

// Generate calls f.
func (f GeneratorFunc) Generate(ctx context.Context, req Request) (Response, error) {
	return f(ctx, req)
}

// NewGenerator picks the strategy for a mode. Real mode without an API key is a
// *ConfigError; it never silently falls back to the mock.
func NewGenerator(ctx context.Context, mode ModelMode, apiKey string) (Generator, error) {
	switch mode {
	case ModeReal:
		return NewGeminiGenerator(ctx, apiKey)
	case ModeMock, "":
		return NewMockGenerator(), nil
	default:
		return nil, &ConfigError{Message: "unknown model mode " + string(mode)}
	}
}

// Close releases a generator's resources if it holds any.
func Close(g Generator) error {
	if c, ok := g.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
