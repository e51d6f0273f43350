package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// GeminiGenerator implements Generator for Google Gemini.
type GeminiGenerator struct {
	client      *genai.Client
	temperature float32
}

// NewGeminiGenerator creates a Gemini-backed generator.
func NewGeminiGenerator(ctx context.Context, apiKey string) (*GeminiGenerator, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, &ConfigError{Message: "GEMINI_API_KEY is required in real mode"}
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, &ConfigError{Message: "failed to create Gemini client", Cause: err}
	}

	return &GeminiGenerator{client: client, temperature: 0.1}, nil
}

// Generate sends one JSON-mode request constrained by the response schema.
func (g *GeminiGenerator) Generate(ctx context.Context, req Request) (Response, error) {
	if req.Model == "" {
		return Response{}, &ConfigError{Message: "no model configured for request"}
	}

	model := g.client.GenerativeModel(req.Model)
	model.SetTemperature(g.temperature)
	model.ResponseMIMEType = "application/json"
	if req.Schema != nil {
		model.ResponseSchema = req.Schema
	}
	if req.MaxOutputTokens > 0 {
		model.SetMaxOutputTokens(req.MaxOutputTokens)
	}
	if req.SystemInstruction != "" {
		model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(req.SystemInstruction)}}
	}

	resp, err := model.GenerateContent(ctx, genai.Text(req.Prompt))
	if err != nil {
		return Response{}, classifyGeminiError(err)
	}

	text, err := extractTextFromResponse(resp)
	if err != nil {
		return Response{}, err
	}
	return Response{Text: text}, nil
}

// Close releases resources held by the client
func (g *GeminiGenerator) Close() error {
	if g.client != nil {
		return g.client.Close()
	}
	return nil
}

// classifyGeminiError tags API failures with their HTTP status so the retry policy can decide.
func classifyGeminiError(err error) error {
	var ge *googleapi.Error
	if errors.As(err, &ge) && transientStatuses[ge.Code] {
		return &TransientError{Status: ge.Code, Message: ge.Message, Cause: err}
	}
	return fmt.Errorf("failed to generate content: %w", err)
}

// extractTextFromResponse extracts text from Gemini API response
func extractTextFromResponse(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", &ParseError{Message: "no candidates in response"}
	}

	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", &ParseError{Message: fmt.Sprintf("no content in response (finish reason %s)", candidate.FinishReason)}
	}

	var parts []string
	for _, part := range candidate.Content.Parts {
		if text, ok := part.(genai.Text); ok {
			parts = append(parts, string(text))
		}
	}

	if len(parts) == 0 {
		return "", &ParseError{Message: "no text parts in response"}
	}

	return strings.Join(parts, ""), nil
}
