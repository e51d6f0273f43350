package schemas

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/resume-optimizer/internal/types"
)

func strPtr(s string) *string { return &s }

func floatPtr(f float64) *float64 { return &f }

func validResult() types.AnalysisResult {
	return types.AnalysisResult{
		ScoreBreakdown: types.ScoreBreakdown{Overall: floatPtr(72), Skills: floatPtr(80)},
		Improvements: []types.Improvement{{
			Point:    "Mention Airflow explicitly",
			Category: types.CategoryKeywords,
			Impact:   types.ImpactHigh,
			Evidence: types.Evidence{JdQuote: strPtr("Experience with Airflow"), MissingKeywords: []string{"Airflow"}},
		}},
		OptimizedResume:         "Data engineer building pipelines in Python.",
		OptimizedCoverLetter:    "Dear team,",
		Language:                "en",
		KeywordCoverage:         types.KeywordCoverage{Matched: []string{"Python"}, Missing: []string{"Airflow"}, Partial: []string{}},
		HardRequirementsMissing: []string{},
		AnalysisTrace: types.AnalysisTrace{
			InputHash:         strings.Repeat("a", 64),
			RetrievalChunkIDs: []string{"jobDescription:0:0-120"},
			RetrievalTrace:    []types.RetrievalTraceEntry{{ChunkID: "jobDescription:0:0-120", Reason: "source=jobDescription priority=5 tokens=30"}},
			Model:             "gemini-2.5-flash",
			Tier:              types.TierMedium,
			Timestamp:         "2026-01-02T15:04:05Z",
			Retries:           0,
		},
	}
}

func TestValidateAnalysisResult_Valid(t *testing.T) {
	assert.NoError(t, ValidateAnalysisResult(validResult()))
}

func TestValidateAnalysisResultJSON_RetriesAsString(t *testing.T) {
	data, err := json.Marshal(validResult())
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	doc["analysisTrace"].(map[string]any)["retries"] = "2"
	data, err = json.Marshal(doc)
	require.NoError(t, err)

	err = ValidateAnalysisResultJSON(data)
	require.Error(t, err)

	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Fields(), "analysisTrace.retries")
}

func TestValidateAnalysisResultJSON_AccumulatesErrors(t *testing.T) {
	data, err := json.Marshal(validResult())
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	doc["optimizedResume"] = 12
	doc["hardRequirementsMissing"] = []any{"ok", 3}
	doc["analysisTrace"].(map[string]any)["tier"] = "HUGE"
	data, err = json.Marshal(doc)
	require.NoError(t, err)

	var ve *ValidationError
	require.ErrorAs(t, ValidateAnalysisResultJSON(data), &ve)
	fields := ve.Fields()
	assert.Contains(t, fields, "optimizedResume")
	assert.Contains(t, fields, "hardRequirementsMissing.1")
	assert.Contains(t, fields, "analysisTrace.tier")
	assert.GreaterOrEqual(t, len(ve.Errors), 3)
}

func TestValidateAnalysisResult_NilSlicesRejected(t *testing.T) {
	r := validResult()
	r.Improvements = nil

	var ve *ValidationError
	require.ErrorAs(t, ValidateAnalysisResult(r), &ve)
	assert.Contains(t, ve.Fields(), "improvements")
}

func TestValidateAnalysisResult_CrossFieldRules(t *testing.T) {
	r := validResult()
	r.AnalysisTrace.RetrievalTrace = append(r.AnalysisTrace.RetrievalTrace, types.RetrievalTraceEntry{ChunkID: "resumeContent:0:0-10", Reason: "x"})
	r.Improvements[0].Evidence.ResumeQuote = strPtr(strings.Repeat("word ", MaxEvidenceWords+1))

	var ve *ValidationError
	require.ErrorAs(t, ValidateAnalysisResult(r), &ve)
	assert.ElementsMatch(t, []string{
		"analysisTrace.retrievalTrace.1.chunkId",
		"improvements.0.evidence.resumeQuote",
	}, ve.Fields())
}

func TestValidateDocument_StageSchemas(t *testing.T) {
	assert.NoError(t, ValidateDocument(RewriteDocsSchema, []byte(`{"optimizedResume":"a","optimizedCoverLetter":"b"}`)))
	assert.Error(t, ValidateDocument(RewriteDocsSchema, []byte(`{"optimizedResume":"a"}`)))
	assert.NoError(t, ValidateDocument(ExtractFactsSchema, []byte(`{"skills":"Go, SQL","yearsExperience":null}`)))
	assert.Error(t, ValidateDocument(ScoreMatchSchema, []byte(`[]`)))
}

func TestValidateDocument_UnknownSchema(t *testing.T) {
	var le *SchemaLoadError
	require.ErrorAs(t, ValidateDocument("missing.schema.json", []byte(`{}`)), &le)
}

func TestValidationError_Message(t *testing.T) {
	ve := &ValidationError{Errors: []FieldError{{Field: "a", Message: "bad"}}}
	assert.Contains(t, ve.Error(), "1. a: bad")
}
