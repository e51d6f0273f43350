package types

// ParsedJdRequirements holds requirements and keywords derived purely from job description text.
type ParsedJdRequirements struct {
	HardRequirements  []string `json:"hardRequirements"`
	SoftRequirements  []string `json:"softRequirements"`
	ToolsTechKeywords []string `json:"toolsTechKeywords"`
}

// KeywordCoverage buckets each job keyword by how well the résumé covers it.
type KeywordCoverage struct {
	Matched []string `json:"matched"`
	Missing []string `json:"missing"`
	Partial []string `json:"partial"`
}

// AtsCoverageResult is the deterministic coverage verdict for a résumé against a job description.
type AtsCoverageResult struct {
	KeywordCoverage         KeywordCoverage `json:"keywordCoverage"`
	HardRequirementsMissing []string        `json:"hardRequirementsMissing"`
}
