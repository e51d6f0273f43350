package eval

import (
	"fmt"
	"slices"
	"strings"

	"github.com/jonathan/resume-optimizer/internal/input"
	"github.com/jonathan/resume-optimizer/internal/privacy"
	"github.com/jonathan/resume-optimizer/internal/schemas"
	"github.com/jonathan/resume-optimizer/internal/types"
	"github.com/jonathan/resume-optimizer/internal/vault"
)

// AssertionResult is the outcome of one check on one run.
type AssertionResult struct {
	Name   string `json:"name"`
	Pass   bool   `json:"pass"`
	Detail string `json:"detail,omitempty"`
}

// Observation is everything the assertions look at for one run.
type Observation struct {
	Fixture Fixture
	Tier    types.Tier
	Result  *types.AnalysisResult
	Prompts []types.StageRequest
}

// Assertion checks one property of a finished run.
type Assertion struct {
	Name  string
	Check func(Observation) (bool, string)
}

// DefaultAssertions is the suite every run is checked against.
func DefaultAssertions() []Assertion {
	return []Assertion{
		{Name: "schema_valid", Check: checkSchema},
		{Name: "input_hash", Check: checkInputHash},
		{Name: "tier", Check: checkTier},
		{Name: "retrieval_trace", Check: checkRetrievalTrace},
		{Name: "evidence_length", Check: checkEvidenceLength},
		{Name: "numbers_authorized", Check: checkNumbers},
		{Name: "no_pii_in_prompts", Check: checkPromptPrivacy},
		{Name: "no_unauthorized_pii", Check: checkOutputPrivacy},
		{Name: "expected_coverage", Check: checkExpectedCoverage},
	}
}

// Evaluate runs every assertion against a completed run.
func Evaluate(assertions []Assertion, obs Observation) []AssertionResult {
	results := make([]AssertionResult, 0, len(assertions))
	for _, a := range assertions {
		pass, detail := a.Check(obs)
		results = append(results, AssertionResult{Name: a.Name, Pass: pass, Detail: detail})
	}
	return results
}

func checkSchema(obs Observation) (bool, string) {
	if err := schemas.ValidateAnalysisResult(*obs.Result); err != nil {
		return false, err.Error()
	}
	return true, ""
}

func checkInputHash(obs Observation) (bool, string) {
	want, err := input.Hash(obs.Fixture.Input)
	if err != nil {
		return false, err.Error()
	}
	if got := obs.Result.AnalysisTrace.InputHash; got != want {
		return false, fmt.Sprintf("trace hash %s, input hashes to %s", got, want)
	}
	return true, ""
}

func checkTier(obs Observation) (bool, string) {
	if got := obs.Result.AnalysisTrace.Tier; got != obs.Tier {
		return false, fmt.Sprintf("ran at %s, trace says %s", obs.Tier, got)
	}
	for _, p := range obs.Prompts {
		if p.Tier != obs.Tier {
			return false, fmt.Sprintf("stage %s sent at tier %s", p.Stage, p.Tier)
		}
	}
	return true, ""
}

func checkRetrievalTrace(obs Observation) (bool, string) {
	trace := obs.Result.AnalysisTrace
	if len(trace.RetrievalChunkIDs) == 0 {
		return false, "no chunks selected"
	}
	seen := map[string]bool{}
	for _, id := range trace.RetrievalChunkIDs {
		if seen[id] {
			return false, "duplicate chunk id " + id
		}
		seen[id] = true
	}
	for _, entry := range trace.RetrievalTrace {
		if !seen[entry.ChunkID] {
			return false, "trace entry for unselected chunk " + entry.ChunkID
		}
	}
	return true, ""
}

func checkEvidenceLength(obs Observation) (bool, string) {
	for i, imp := range obs.Result.Improvements {
		for _, quote := range []*string{imp.Evidence.ResumeQuote, imp.Evidence.JdQuote} {
			if quote != nil && schemas.WordCount(*quote) > schemas.MaxEvidenceWords {
				return false, fmt.Sprintf("improvement %d quotes %d words", i, schemas.WordCount(*quote))
			}
		}
	}
	return true, ""
}

// checkNumbers applies the empty-vault relaxation: with no vault, numbers from the raw
// documents are authorized. Detected PII is masked first so phone digits never count.
func checkNumbers(obs Observation) (bool, string) {
	in := obs.Fixture.Input
	var raw []string
	for _, f := range in.TextFields() {
		raw = append(raw, privacy.MaskDetected(f.Text))
	}
	allowed := vault.AuthorizedNumbers(in.MetricsVault, raw...)

	text := privacy.MaskDetected(vault.RewriteText(types.RewriteDocsResult{
		OptimizedResume:      obs.Result.OptimizedResume,
		OptimizedCoverLetter: obs.Result.OptimizedCoverLetter,
	}))
	if bad := vault.FindUnauthorizedNumbers(text, allowed); len(bad) > 0 {
		return false, "unauthorized numbers: " + strings.Join(bad, ", ")
	}
	return true, ""
}

func checkPromptPrivacy(obs Observation) (bool, string) {
	if !obs.Fixture.Input.PrivacyMode {
		return true, "privacy mode off"
	}
	entries := privacy.CollectEntries(obs.Fixture.Input)
	for _, p := range obs.Prompts {
		for _, e := range entries {
			if strings.Contains(p.Prompt, e.Original) || strings.Contains(p.SystemInstruction, e.Original) {
				return false, fmt.Sprintf("stage %s prompt contains a raw %s", p.Stage, e.Type)
			}
		}
	}
	return true, ""
}

func checkOutputPrivacy(obs Observation) (bool, string) {
	in := obs.Fixture.Input
	text := vault.RewriteText(types.RewriteDocsResult{
		OptimizedResume:      obs.Result.OptimizedResume,
		OptimizedCoverLetter: obs.Result.OptimizedCoverLetter,
	})
	if findings := privacy.FindUnauthorizedPii(text, privacy.CollectEntries(in)); len(findings) > 0 {
		return false, findings[0].String()
	}
	if unresolved := privacy.FindUnresolvedPiiPlaceholders(text, nil); len(unresolved) > 0 {
		return false, "unresolved placeholders: " + strings.Join(unresolved, ", ")
	}
	return true, ""
}

func checkExpectedCoverage(obs Observation) (bool, string) {
	expect := obs.Fixture.Expect
	coverage := obs.Result.KeywordCoverage
	var problems []string
	for _, kw := range expect.MatchedKeywords {
		if !slices.Contains(coverage.Matched, kw) {
			problems = append(problems, kw+" not matched")
		}
	}
	for _, kw := range expect.MissingKeywords {
		if !slices.Contains(coverage.Missing, kw) {
			problems = append(problems, kw+" not missing")
		}
	}
	for _, req := range expect.HardRequirementsMissing {
		if !slices.Contains(obs.Result.HardRequirementsMissing, req) {
			problems = append(problems, fmt.Sprintf("hard requirement %q not reported missing", req))
		}
	}
	if len(problems) > 0 {
		return false, strings.Join(problems, "; ")
	}
	return true, ""
}
