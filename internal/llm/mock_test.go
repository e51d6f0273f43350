package llm

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/resume-optimizer/internal/prompts"
)

func mockRequest(t *testing.T, payload map[string]any) Request {
	t.Helper()
	quoted, err := prompts.QuotePayload(payload)
	require.NoError(t, err)
	return Request{Model: "mock", Prompt: "Do the thing.\n\n" + quoted}
}

func generateObject(t *testing.T, payload map[string]any) map[string]any {
	t.Helper()
	resp, err := NewMockGenerator().Generate(context.Background(), mockRequest(t, payload))
	require.NoError(t, err)
	var out map[string]any
	require.NoError(t, json.Unmarshal([]byte(resp.Text), &out))
	return out
}

func TestMockGenerator_ExtractFacts(t *testing.T) {
	out := generateObject(t, map[string]any{
		"stage":          "extractFacts",
		"resume":         "Backend Engineer\nSkills: Go, PostgreSQL\n- Built billing APIs\n- 6 years on call rotation",
		"jobDescription": "Senior Go Engineer\nWe need Go.",
	})

	assert.Equal(t, "Backend Engineer", out["headline"])
	assert.Equal(t, []any{"Go", "PostgreSQL"}, out["skills"])
	assert.Equal(t, []any{"Built billing APIs", "6 years on call rotation"}, out["achievements"])
	assert.Equal(t, float64(6), out["yearsExperience"])
	assert.Equal(t, "Senior Go Engineer", out["jobTitle"])
	assert.Nil(t, out["candidateName"])
}

func TestMockGenerator_ScoreMatch(t *testing.T) {
	out := generateObject(t, map[string]any{
		"stage": "scoreMatch",
		"advisoryCoverage": map[string]any{
			"keywordCoverage":         map[string]any{"matched": []any{"Go"}, "partial": []any{}, "missing": []any{"Kafka"}},
			"hardRequirementsMissing": []any{"Kafka experience"},
		},
	})

	breakdown := out["scoreBreakdown"].(map[string]any)
	assert.Equal(t, float64(50), breakdown["keywords"])
	assert.Nil(t, breakdown["experience"])
	improvements := out["improvements"].([]any)
	require.Len(t, improvements, 1)
	assert.Equal(t, "keywords", improvements[0].(map[string]any)["category"])
}

func TestMockGenerator_RewriteDropsUnauthorizedNumbers(t *testing.T) {
	out := generateObject(t, map[string]any{
		"stage":          "rewriteDocs",
		"resume":         "Engineer\nContact: [PII_EMAIL_1]\nPhone: +1 (555) 123-4567\nCut latency by 120 ms\nGrew revenue 40%",
		"coverLetter":    "Dear team,\nI shipped 3 products.",
		"allowedNumbers": []any{"120"},
	})

	resume := out["optimizedResume"].(string)
	assert.Contains(t, resume, "Cut latency by 120 ms")
	assert.Contains(t, resume, "[PII_EMAIL_1]")
	assert.Contains(t, resume, "+1 (555) 123-4567")
	assert.NotContains(t, resume, "40%")
	assert.Equal(t, "Dear team,", out["optimizedCoverLetter"])
	assert.Len(t, out["changeSummary"], 2)
}

func TestMockGenerator_Deterministic(t *testing.T) {
	req := mockRequest(t, map[string]any{"stage": "extractFacts", "resume": "A\n- b"})
	g := NewMockGenerator()
	first, err := g.Generate(context.Background(), req)
	require.NoError(t, err)
	second, err := g.Generate(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestMockGenerator_Errors(t *testing.T) {
	g := NewMockGenerator()

	_, err := g.Generate(context.Background(), Request{Prompt: "no payload"})
	var se *SchemaError
	assert.ErrorAs(t, err, &se)

	_, err = g.Generate(context.Background(), mockRequest(t, map[string]any{"stage": "other"}))
	assert.ErrorAs(t, err, &se)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = g.Generate(ctx, mockRequest(t, map[string]any{"stage": "extractFacts"}))
	assert.ErrorIs(t, err, context.Canceled)
}
