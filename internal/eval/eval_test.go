package eval

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/jonathan/resume-optimizer/internal/llm"
	"github.com/jonathan/resume-optimizer/internal/types"
)

var fixedNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func testOptions(t *testing.T) Options {
	policy := llm.DefaultRetryPolicy()
	policy.Sleep = func(context.Context, time.Duration) error { return nil }
	return Options{
		Generator: llm.NewMockGenerator(),
		Retry:     policy,
		Logger:    zaptest.NewLogger(t),
		Now:       func() time.Time { return fixedNow },
	}
}

func TestBuiltinFixtures(t *testing.T) {
	fixtures, err := BuiltinFixtures()
	require.NoError(t, err)
	require.Len(t, fixtures, 3)

	ids := []string{fixtures[0].ID, fixtures[1].ID, fixtures[2].ID}
	assert.Equal(t, []string{"backend-basic", "privacy-contact", "vault-metrics"}, ids)
	for _, f := range fixtures {
		assert.NoError(t, f.Input.Validate(), f.ID)
	}
}

func TestLoadFixtures(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.json"),
		[]byte(`{"input": {"jobDescription": "Go developer", "resumeContent": "Go"}}`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.json"),
		[]byte(`{"id": "alpha", "input": {"jobDescription": "x", "resumeContent": "y"}}`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644))

	fixtures, err := LoadFixtures(dir)
	require.NoError(t, err)
	require.Len(t, fixtures, 2)
	assert.Equal(t, "alpha", fixtures[0].ID)
	assert.Equal(t, "b", fixtures[1].ID, "id defaults to the file name")
}

func TestLoadFixtures_Errors(t *testing.T) {
	_, err := LoadFixtures(t.TempDir())
	assert.ErrorContains(t, err, "no fixtures found")

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.json"), []byte("{"), 0o644))
	_, err = LoadFixtures(dir)
	assert.ErrorContains(t, err, "failed to parse fixture bad.json")

	dir = t.TempDir()
	for _, name := range []string{"one.json", "two.json"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(`{"id": "same"}`), 0o644))
	}
	_, err = LoadFixtures(dir)
	assert.ErrorContains(t, err, "duplicate fixture id")
}

func TestRun_BuiltinFixturesPassWithMock(t *testing.T) {
	fixtures, err := BuiltinFixtures()
	require.NoError(t, err)

	report, err := Run(context.Background(), fixtures, testOptions(t))
	require.NoError(t, err)

	assert.Equal(t, "2025-03-01T12:00:00Z", report.GeneratedAt)
	assert.Equal(t, Summary{TotalRuns: 9, PassedRuns: 9, FailedRuns: 0}, report.Summary)
	for _, run := range report.Runs {
		for _, a := range run.AssertionResults {
			assert.True(t, a.Pass, "%s/%s: %s %s", run.FixtureID, run.Tier, a.Name, a.Detail)
		}
	}

	// runs are reported in fixture-major, tier-minor order regardless of scheduling
	assert.Equal(t, "backend-basic", report.Runs[0].FixtureID)
	assert.Equal(t, types.TierSimple, report.Runs[0].Tier)
	assert.Equal(t, types.TierComplex, report.Runs[2].Tier)
	assert.Equal(t, "vault-metrics", report.Runs[8].FixtureID)
}

func TestRun_FailedRunIsReported(t *testing.T) {
	fixtures := []Fixture{{ID: "broken", Input: types.ApplicationInput{ResumeContent: "no job description"}}}
	opts := testOptions(t)
	opts.Tiers = []types.Tier{types.TierSimple}

	report, err := Run(context.Background(), fixtures, opts)
	require.NoError(t, err)
	require.Len(t, report.Runs, 1)

	run := report.Runs[0]
	assert.False(t, run.Pass)
	assert.Contains(t, run.Error, "invalid input")
	assert.Equal(t, Summary{TotalRuns: 1, FailedRuns: 1}, report.Summary)
}

func TestRun_FabricatedNumberFailsAssertion(t *testing.T) {
	fixtures, err := BuiltinFixtures()
	require.NoError(t, err)

	opts := testOptions(t)
	opts.Tiers = []types.Tier{types.TierMedium}
	opts.Assertions = []Assertion{{Name: "numbers_authorized", Check: checkNumbers}}

	obs := Observation{
		Fixture: fixtures[2],
		Tier:    types.TierMedium,
		Result: &types.AnalysisResult{
			OptimizedResume: "Improved deploy frequency by 4x and cut spend by 30%",
		},
	}
	results := Evaluate(opts.Assertions, obs)
	require.Len(t, results, 1)
	assert.False(t, results[0].Pass)
	assert.Equal(t, "unauthorized numbers: 4", results[0].Detail)
}

func TestCheckNumbers_EmptyVaultAllowsRawInputNumbers(t *testing.T) {
	obs := Observation{
		Fixture: Fixture{Input: types.ApplicationInput{
			JobDescription: "Backend role",
			ResumeContent:  "Led migration of 12 services\nPhone: +1 555 123 4567",
		}},
		Result: &types.AnalysisResult{OptimizedResume: "Led migration of 12 services"},
	}
	pass, _ := checkNumbers(obs)
	assert.True(t, pass)

	obs.Result.OptimizedResume = "Led migration of 555 services"
	pass, detail := checkNumbers(obs)
	assert.False(t, pass, "phone digits are not authorized numbers")
	assert.Contains(t, detail, "555")
}

func TestCheckPromptPrivacy(t *testing.T) {
	obs := Observation{
		Fixture: Fixture{Input: types.ApplicationInput{ResumeContent: "mail me at a@b.example", PrivacyMode: true}},
		Prompts: []types.StageRequest{{Stage: types.StageExtractFacts, Prompt: "resume: [PII_EMAIL_1]"}},
	}
	pass, _ := checkPromptPrivacy(obs)
	assert.True(t, pass)

	obs.Prompts = append(obs.Prompts, types.StageRequest{Stage: types.StageRewriteDocs, Prompt: "contact a@b.example"})
	pass, detail := checkPromptPrivacy(obs)
	assert.False(t, pass)
	assert.Contains(t, detail, "rewriteDocs")
	assert.NotContains(t, detail, "a@b.example")
}

func TestReport_WriteJSON(t *testing.T) {
	report := &Report{
		GeneratedAt: "2025-03-01T12:00:00Z",
		Summary:     Summary{TotalRuns: 1, FailedRuns: 1},
		Runs: []RunReport{{
			FixtureID:        "f",
			Tier:             types.TierSimple,
			DurationMs:       5,
			AssertionResults: []AssertionResult{{Name: "completed", Detail: "boom"}},
			Error:            "boom",
		}},
	}
	var buf bytes.Buffer
	require.NoError(t, report.WriteJSON(&buf))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "2025-03-01T12:00:00Z", decoded["generatedAt"])
	summary := decoded["summary"].(map[string]any)
	assert.Equal(t, 1.0, summary["failedRuns"])
	run := decoded["runs"].([]any)[0].(map[string]any)
	assert.Equal(t, "f", run["fixtureId"])
	assert.Equal(t, "SIMPLE", run["tier"])
	assert.Equal(t, "boom", run["error"])
	assert.Contains(t, run, "assertionResults")
}
