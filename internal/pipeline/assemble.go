package pipeline

import (
	"time"

	"github.com/jonathan/resume-optimizer/internal/ats"
	"github.com/jonathan/resume-optimizer/internal/privacy"
	"github.com/jonathan/resume-optimizer/internal/schemas"
	"github.com/jonathan/resume-optimizer/internal/stages"
	"github.com/jonathan/resume-optimizer/internal/types"
)

// atsAdvisory computes the coverage offered to the scoring model as guidance.
func atsAdvisory(jobDescription string, facts types.ExtractFactsResult) (types.ParsedJdRequirements, types.AtsCoverageResult) {
	return ats.Analyze(jobDescription, facts)
}

// assemble builds the final result. Keyword coverage and missing requirements are recomputed
// from the raw job description; whatever the scoring model reported for them is discarded.
func assemble(p prepared, facts types.ExtractFactsResult, score types.ScoreMatchResult, draft types.RewriteDocsResult, retries int, now time.Time) *types.AnalysisResult {
	_, coverage := ats.Analyze(p.raw.JobDescription, facts)

	language := facts.Language
	if language == "" {
		language = "en"
	}

	return &types.AnalysisResult{
		ScoreBreakdown:          score.ScoreBreakdown,
		Improvements:            restoreImprovements(score.Improvements, p.privacy.Entries),
		OptimizedResume:         draft.OptimizedResume,
		OptimizedCoverLetter:    draft.OptimizedCoverLetter,
		Language:                language,
		KeywordCoverage:         nonNilCoverage(coverage.KeywordCoverage),
		HardRequirementsMissing: nonNil(coverage.HardRequirementsMissing),
		AnalysisTrace: types.AnalysisTrace{
			InputHash:         p.hash,
			RetrievalChunkIDs: p.selection.ChunkIDs(),
			RetrievalTrace:    nonNilTrace(p.selection.Trace),
			Model:             p.settings.Model,
			Tier:              p.decision.Tier,
			Timestamp:         now.UTC().Format(time.RFC3339),
			Retries:           retries,
		},
	}
}

// restoreImprovements reinserts personal data into improvement text and caps every quote
// at the evidence word limit.
func restoreImprovements(improvements []types.Improvement, entries []types.PiiRedactionEntry) []types.Improvement {
	out := make([]types.Improvement, 0, len(improvements))
	for _, imp := range improvements {
		imp.Point = privacy.Reinsert(imp.Point, entries)
		imp.Evidence.ResumeQuote = restoreQuote(imp.Evidence.ResumeQuote, entries)
		imp.Evidence.JdQuote = restoreQuote(imp.Evidence.JdQuote, entries)
		imp.Evidence.MissingKeywords = nonNil(imp.Evidence.MissingKeywords)
		out = append(out, imp)
	}
	return out
}

func restoreQuote(quote *string, entries []types.PiiRedactionEntry) *string {
	if quote == nil {
		return nil
	}
	restored := stages.TruncateWords(privacy.Reinsert(*quote, entries), schemas.MaxEvidenceWords)
	return &restored
}

func validateResult(result *types.AnalysisResult) error {
	return schemas.ValidateAnalysisResult(*result)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func nonNilCoverage(c types.KeywordCoverage) types.KeywordCoverage {
	return types.KeywordCoverage{
		Matched: nonNil(c.Matched),
		Missing: nonNil(c.Missing),
		Partial: nonNil(c.Partial),
	}
}

func nonNilTrace(t []types.RetrievalTraceEntry) []types.RetrievalTraceEntry {
	if t == nil {
		return []types.RetrievalTraceEntry{}
	}
	return t
}
