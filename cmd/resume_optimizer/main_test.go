package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/resume-optimizer/internal/eval"
	"github.com/jonathan/resume-optimizer/internal/types"
)

const (
	jobText    = "Backend Engineer\nRequirements:\n- Go\n- PostgreSQL\n- Kubernetes"
	resumeText = "Jane Doe\nEmail: jane@example.com\nPlatform Engineer\nSkills: Go, PostgreSQL, Docker\n- Built the billing service"
)

// isolate keeps the caller's environment from reaching the commands.
func isolate(t *testing.T) {
	t.Helper()
	for _, key := range []string{"MODEL_MODE", "GEMINI_API_KEY", "DATABASE_URL", "REDIS_ADDR", "LOG_LEVEL", "LOG_FORMAT"} {
		t.Setenv(key, "")
	}
	t.Setenv("LOG_LEVEL", "error")
}

func execute(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCmd()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestAnalyzeCommand_Files(t *testing.T) {
	isolate(t)
	job := writeFile(t, "job.txt", jobText)
	resume := writeFile(t, "resume.txt", resumeText)

	stdout, _, err := execute(t, "", "analyze", "--job", job, "--resume", resume, "--privacy")
	require.NoError(t, err)

	var result types.AnalysisResult
	require.NoError(t, json.Unmarshal([]byte(stdout), &result))
	assert.Len(t, result.AnalysisTrace.InputHash, 64)
	assert.Contains(t, result.OptimizedResume, "jane@example.com")
	assert.Contains(t, result.KeywordCoverage.Missing, "Kubernetes")
}

func TestAnalyzeCommand_StdinAndOutFile(t *testing.T) {
	isolate(t)
	doc, err := json.Marshal(types.ApplicationInput{JobDescription: jobText, ResumeContent: resumeText})
	require.NoError(t, err)
	out := filepath.Join(t.TempDir(), "result.json")

	stdout, stderr, err := execute(t, string(doc), "analyze", "--in", "-", "--tier", "complex", "--out", out, "--verbose")
	require.NoError(t, err)
	assert.Empty(t, stdout)
	assert.Contains(t, stderr, "ANALYSIS TRACE")
	assert.Contains(t, stderr, "EXTRACTED FACTS")

	raw, err := os.ReadFile(out)
	require.NoError(t, err)
	var result types.AnalysisResult
	require.NoError(t, json.Unmarshal(raw, &result))
	assert.Equal(t, types.TierComplex, result.AnalysisTrace.Tier)
}

func TestAnalyzeCommand_Errors(t *testing.T) {
	isolate(t)
	job := writeFile(t, "job.txt", jobText)

	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{name: "no input", args: []string{"analyze"}, wantErr: "provide --in"},
		{name: "missing resume", args: []string{"analyze", "--job", job}, wantErr: "provide --in"},
		{name: "bad tier", args: []string{"analyze", "--job", job, "--resume", job, "--tier", "huge"}, wantErr: "unknown tier"},
		{name: "missing file", args: []string{"analyze", "--in", "/nonexistent/input.json"}, wantErr: "failed to read input file"},
		{name: "real mode without key", args: []string{"analyze", "--model-mode", "real", "--job", job, "--resume", job}, wantErr: "GEMINI_API_KEY"},
		{name: "in with job", args: []string{"analyze", "--in", job, "--job", job}, wantErr: "none of the others can be"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := execute(t, "", tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestAnalyzeCommand_InvalidInput(t *testing.T) {
	isolate(t)
	stdin := `{"jobDescription": "", "resumeContent": "x"}`

	_, _, err := execute(t, stdin, "analyze", "--in", "-")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "analysis failed")
}

func TestEvalCommand(t *testing.T) {
	isolate(t)
	out := filepath.Join(t.TempDir(), "report.json")

	_, _, err := execute(t, "", "eval", "--tiers", "SIMPLE,medium", "--concurrency", "2", "--out", out)
	require.NoError(t, err)

	raw, err := os.ReadFile(out)
	require.NoError(t, err)
	var report eval.Report
	require.NoError(t, json.Unmarshal(raw, &report))

	fixtures, err := eval.BuiltinFixtures()
	require.NoError(t, err)
	assert.Equal(t, 2*len(fixtures), report.Summary.TotalRuns)
	assert.Zero(t, report.Summary.FailedRuns)
}

func TestEvalCommand_BadFixturesDir(t *testing.T) {
	isolate(t)
	_, _, err := execute(t, "", "eval", "--fixtures", t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no fixtures found")
}

func TestChunksCommand(t *testing.T) {
	job := writeFile(t, "job.txt", jobText)
	resume := writeFile(t, "resume.txt", resumeText)

	stdout, _, err := execute(t, "", "chunks", "--job", job, "--resume", resume, "--limit", "2")
	require.NoError(t, err)

	var report chunksReport
	require.NoError(t, json.Unmarshal([]byte(stdout), &report))
	assert.Len(t, report.InputHash, 64)
	assert.NotEmpty(t, report.Decision.Tier)
	assert.LessOrEqual(t, len(report.Selection.Chunks), 2)
	assert.Len(t, report.Selection.Trace, len(report.Selection.Chunks))

	pretty, _, err := execute(t, "", "chunks", "--job", job, "--resume", resume, "--pretty")
	require.NoError(t, err)
	assert.Contains(t, pretty, "RETRIEVAL SELECTION")
}

func TestRedactCommand(t *testing.T) {
	job := writeFile(t, "job.txt", jobText)
	resume := writeFile(t, "resume.txt", resumeText)

	stdout, _, err := execute(t, "", "redact", "--job", job, "--resume", resume)
	require.NoError(t, err)
	assert.Contains(t, stdout, "PRIVACY PREVIEW")
	assert.Contains(t, stdout, string(types.PiiEmail))
	assert.NotContains(t, stdout, "jane@example.com")

	stdout, _, err = execute(t, "", "redact", "--job", job, "--resume", resume, "--sanitized")
	require.NoError(t, err)
	var report redactReport
	require.NoError(t, json.Unmarshal([]byte(stdout), &report))
	require.NotNil(t, report.Sanitized)
	assert.NotContains(t, report.Sanitized.ResumeContent, "jane@example.com")
	require.NotEmpty(t, report.Preview)
	assert.Contains(t, report.Sanitized.ResumeContent, report.Preview[0].Placeholder)
}

func TestParseTiers(t *testing.T) {
	tiers, err := parseTiers("simple, COMPLEX,")
	require.NoError(t, err)
	assert.Equal(t, []types.Tier{types.TierSimple, types.TierComplex}, tiers)

	tiers, err = parseTiers("")
	require.NoError(t, err)
	assert.Empty(t, tiers)

	_, err = parseTiers("SIMPLE,tiny")
	assert.Error(t, err)
}
