package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/jonathan/resume-optimizer/internal/privacy"
	"github.com/jonathan/resume-optimizer/internal/prompts"
	"github.com/jonathan/resume-optimizer/internal/vault"
)

// MockGenerator returns deterministic, schema-valid JSON derived from the prompt payload.
// It only restates what the payload contains, so its output never introduces new numbers or PII.
type MockGenerator struct{}

// NewMockGenerator creates a MockGenerator.
func NewMockGenerator() *MockGenerator {
	return &MockGenerator{}
}

var (
	bulletLineRegex = regexp.MustCompile(`^\s*(?:[-*•]|\d+[.)])\s+`)
	yearsStateRegex = regexp.MustCompile(`(?i)\b(\d{1,2})\+?\s+years?\b`)
)

// Generate answers according to the "stage" field of the quoted payload.
func (m *MockGenerator) Generate(ctx context.Context, req Request) (Response, error) {
	if err := ctx.Err(); err != nil {
		return Response{}, err
	}
	raw, ok := prompts.ExtractPayload(req.Prompt)
	if !ok {
		return Response{}, &SchemaError{Message: "mock generator: prompt has no quoted payload"}
	}
	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return Response{}, &ParseError{Message: "mock generator: payload is not JSON", Cause: err}
	}

	var out any
	switch stringField(payload, "stage") {
	case "extractFacts":
		out = mockFacts(payload)
	case "scoreMatch":
		out = mockScore(payload)
	case "rewriteDocs":
		out = mockRewrite(payload)
	default:
		return Response{}, &SchemaError{Message: fmt.Sprintf("mock generator: unknown stage %q", stringField(payload, "stage"))}
	}

	data, err := json.Marshal(out)
	if err != nil {
		return Response{}, fmt.Errorf("mock generator: %w", err)
	}
	return Response{Text: string(data)}, nil
}

func mockFacts(payload map[string]any) map[string]any {
	resume := stringField(payload, "resume")
	lines := nonEmptyLines(resume)

	var headline any
	if len(lines) > 0 {
		headline = bulletLineRegex.ReplaceAllString(lines[0], "")
	}

	skills := []string{}
	achievements := []string{}
	for _, line := range lines {
		lower := strings.ToLower(line)
		if strings.HasPrefix(lower, "skills:") {
			for _, s := range strings.Split(line[len("skills:"):], ",") {
				if s = strings.TrimSpace(s); s != "" {
					skills = append(skills, s)
				}
			}
			continue
		}
		if bulletLineRegex.MatchString(line) {
			achievements = append(achievements, bulletLineRegex.ReplaceAllString(line, ""))
		}
	}

	var years any
	if m := yearsStateRegex.FindStringSubmatch(resume); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			years = n
		}
	}

	var jobTitle any
	if jd := nonEmptyLines(stringField(payload, "jobDescription")); len(jd) > 0 {
		jobTitle = jd[0]
	}

	return map[string]any{
		"candidateName":   nil,
		"headline":        headline,
		"yearsExperience": years,
		"skills":          skills,
		"tools":           []string{},
		"certifications":  []string{},
		"education":       []string{},
		"achievements":    achievements,
		"experience":      []any{},
		"language":        "en",
		"jobTitle":        jobTitle,
		"companyName":     nil,
	}
}

func mockScore(payload map[string]any) map[string]any {
	coverage, _ := payload["advisoryCoverage"].(map[string]any)
	kc, _ := coverage["keywordCoverage"].(map[string]any)
	matched := stringList(kc["matched"])
	partial := stringList(kc["partial"])
	missing := stringList(kc["missing"])

	var keywords any
	if total := len(matched) + len(partial) + len(missing); total > 0 {
		keywords = math.Round(100 * (float64(len(matched)) + 0.5*float64(len(partial))) / float64(total))
	}

	improvements := []any{}
	for i, kw := range missing {
		if i == 3 {
			break
		}
		improvements = append(improvements, map[string]any{
			"point":    fmt.Sprintf("Show experience with %s if you have it", kw),
			"category": "keywords",
			"impact":   "high",
			"evidence": map[string]any{
				"resumeQuote":     nil,
				"jdQuote":         kw,
				"missingKeywords": []string{kw},
			},
		})
	}

	return map[string]any{
		"scoreBreakdown": map[string]any{
			"overall":    keywords,
			"skills":     keywords,
			"experience": nil,
			"keywords":   keywords,
			"formatting": nil,
		},
		"improvements":            improvements,
		"keywordCoverage":         kc,
		"hardRequirementsMissing": stringList(coverage["hardRequirementsMissing"]),
	}
}

// mockRewrite keeps the candidate's own lines and drops any line carrying a number that
// allowedNumbers does not authorize.
func mockRewrite(payload map[string]any) map[string]any {
	allowed := vault.NumberSet{}
	for _, n := range stringList(payload["allowedNumbers"]) {
		allowed[n] = true
	}

	dropped := 0
	keep := func(text string) string {
		var kept []string
		for _, line := range strings.Split(text, "\n") {
			if len(vault.FindUnauthorizedNumbers(privacy.MaskDetected(line), allowed)) > 0 {
				dropped++
				continue
			}
			kept = append(kept, line)
		}
		return strings.TrimSpace(strings.Join(kept, "\n"))
	}

	resume := keep(stringField(payload, "resume"))
	coverLetter := keep(stringField(payload, "coverLetter"))

	summary := []string{"Reordered content to lead with the most relevant experience"}
	if dropped > 0 {
		summary = append(summary, fmt.Sprintf("Removed %d lines with numbers not backed by the metrics vault", dropped))
	}
	return map[string]any{
		"optimizedResume":      resume,
		"optimizedCoverLetter": coverLetter,
		"changeSummary":        summary,
	}
}

func stringField(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}

func stringList(v any) []string {
	items, _ := v.([]any)
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func nonEmptyLines(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}
