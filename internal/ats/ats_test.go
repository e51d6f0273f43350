package ats

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/resume-optimizer/internal/types"
)

func strPtr(s string) *string { return &s }

func floatPtr(f float64) *float64 { return &f }

const structuredJD = `Senior Data Engineer

About the role:
You will build pipelines.

Required: Python, SQL, AWS
- 3+ years AWS
- Experience with Airflow; strong communication | ownership mindset

Nice to have:
- Kafka
- Familiarity with dbt

Benefits:
- Remote friendly`

func TestParseJdRequirements_Structured(t *testing.T) {
	parsed := ParseJdRequirements(structuredJD)

	assert.Equal(t, []string{
		"Python, SQL, AWS",
		"3+ years AWS",
		"Experience with Airflow",
		"strong communication",
		"ownership mindset",
	}, parsed.HardRequirements)
	assert.Equal(t, []string{"Kafka", "Familiarity with dbt"}, parsed.SoftRequirements)
	assert.Equal(t, []string{"Python", "SQL", "AWS", "Airflow", "Kafka", "dbt"}, parsed.ToolsTechKeywords)
}

func TestParseJdRequirements_SentenceFallback(t *testing.T) {
	jd := "We build payment systems. You must have 5+ years of Go experience. Experience with Kubernetes is a plus. We value kindness."
	parsed := ParseJdRequirements(jd)

	assert.Equal(t, []string{"You must have 5+ years of Go experience"}, parsed.HardRequirements)
	assert.Equal(t, []string{"Experience with Kubernetes is a plus"}, parsed.SoftRequirements)
	assert.Equal(t, []string{"Go", "Kubernetes"}, parsed.ToolsTechKeywords)
}

func TestParseJdRequirements_ConflictingSignalsIgnored(t *testing.T) {
	parsed := ParseJdRequirements("Python is required, Rust preferred.")
	assert.Empty(t, parsed.HardRequirements)
	assert.Empty(t, parsed.SoftRequirements)
}

func TestParseJdRequirements_Dedupes(t *testing.T) {
	jd := "Requirements:\n- Python\n-   python \n- PYTHON"
	parsed := ParseJdRequirements(jd)
	assert.Equal(t, []string{"Python"}, parsed.HardRequirements)
	assert.Equal(t, []string{"Python"}, parsed.ToolsTechKeywords)
}

func TestParseJdRequirements_Empty(t *testing.T) {
	parsed := ParseJdRequirements("")
	assert.NotNil(t, parsed.HardRequirements)
	assert.NotNil(t, parsed.SoftRequirements)
	assert.NotNil(t, parsed.ToolsTechKeywords)
}

func TestExtractToolKeywords(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{name: "acronyms", text: "Experience with GCP and ETL, EEO employer", want: []string{"GCP", "ETL"}},
		{name: "special chars", text: "C++ and C# and Node.js services", want: []string{"C++", "C#", "Node.js"}},
		{name: "ci/cd not split", text: "Own our CI/CD pipelines", want: []string{"CI/CD"}},
		{name: "case sensitive go", text: "Ready to go? We use Go daily", want: []string{"Go"}},
		{name: "no substring", text: "PostgreSQL only", want: []string{"PostgreSQL"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractToolKeywords(tt.text))
		})
	}
}

func TestComputeCoverage_RequiredHeading(t *testing.T) {
	parsed := ParseJdRequirements(structuredJD)
	facts := types.ExtractFactsResult{
		Skills: []string{"Python", "SQL"},
		Experience: []types.ExperienceEntry{
			{Employer: strPtr("DataCo"), Role: strPtr("Data Engineer"), Achievements: []string{"Built ETL in Python"}},
		},
	}

	result := ComputeCoverage(parsed, facts)

	assert.Contains(t, result.KeywordCoverage.Matched, "Python")
	assert.Contains(t, result.KeywordCoverage.Matched, "SQL")
	assert.Contains(t, result.KeywordCoverage.Missing, "AWS")
	assert.NotContains(t, result.KeywordCoverage.Matched, "AWS")
	assert.Contains(t, result.HardRequirementsMissing, "3+ years AWS")
	assert.NotContains(t, result.HardRequirementsMissing, "Python, SQL, AWS")
}

func TestComputeCoverage_YearsSatisfy(t *testing.T) {
	parsed := types.ParsedJdRequirements{HardRequirements: []string{"3+ years AWS"}}

	withYears := ComputeCoverage(parsed, types.ExtractFactsResult{YearsExperience: floatPtr(4)})
	assert.Empty(t, withYears.HardRequirementsMissing)

	stated := ComputeCoverage(parsed, types.ExtractFactsResult{Achievements: []string{"5 years building backends"}})
	assert.Empty(t, stated.HardRequirementsMissing)

	tooFew := ComputeCoverage(parsed, types.ExtractFactsResult{YearsExperience: floatPtr(2)})
	assert.Equal(t, []string{"3+ years AWS"}, tooFew.HardRequirementsMissing)
}

func TestComputeCoverage_TokenOverlap(t *testing.T) {
	parsed := types.ParsedJdRequirements{HardRequirements: []string{"Experience designing distributed payment systems"}}
	facts := types.ExtractFactsResult{Achievements: []string{"Led design of distributed payment systems"}}

	result := ComputeCoverage(parsed, facts)
	// designing is absent but distributed, payment, systems are present (3/4 >= 60%)
	assert.Empty(t, result.HardRequirementsMissing)
}

func TestClassifyKeyword(t *testing.T) {
	corpus := BuildResumeCorpus(types.ExtractFactsResult{
		Skills: []string{"PostgreSQL", "Machine Learning", "Go"},
		Tools:  []string{"GitHub"},
	})

	tests := []struct {
		keyword string
		want    KeywordStatus
	}{
		{keyword: "Go", want: StatusMatched},
		{keyword: "machine learning", want: StatusMatched},
		{keyword: "Postgres", want: StatusPartial},
		{keyword: "Deep Learning", want: StatusPartial},
		{keyword: "GitHub Actions", want: StatusPartial},
		{keyword: "AWS", want: StatusMissing},
	}
	for _, tt := range tests {
		t.Run(tt.keyword, func(t *testing.T) {
			assert.Equal(t, tt.want, corpus.ClassifyKeyword(tt.keyword))
		})
	}
}

func TestComputeCoverage_Deterministic(t *testing.T) {
	parsed := ParseJdRequirements(structuredJD)
	facts := types.ExtractFactsResult{Skills: []string{"Python", "Kafka"}}
	first := ComputeCoverage(parsed, facts)
	for i := 0; i < 3; i++ {
		require.Equal(t, first, ComputeCoverage(parsed, facts))
	}
}

func TestMinYears(t *testing.T) {
	years, ok := MinYears("3-5 years of Go")
	require.True(t, ok)
	assert.InDelta(t, 3.0, years, 1e-9)

	_, ok = MinYears("Go expertise")
	assert.False(t, ok)
}
