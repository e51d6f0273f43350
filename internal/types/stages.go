package types

// ExperienceEntry is one role from the candidate's work history, as stated in the résumé.
type ExperienceEntry struct {
	Employer     *string  `json:"employer"`
	Role         *string  `json:"role"`
	StartDate    *string  `json:"startDate"`
	EndDate      *string  `json:"endDate"`
	Achievements []string `json:"achievements"`
}

// ExtractFactsResult holds candidate facts extracted from the résumé and cover letter.
// Pointer fields are nil when the source text does not support a value.
type ExtractFactsResult struct {
	CandidateName   *string           `json:"candidateName"`
	Headline        *string           `json:"headline"`
	YearsExperience *float64          `json:"yearsExperience"`
	Skills          []string          `json:"skills"`
	Tools           []string          `json:"tools"`
	Certifications  []string          `json:"certifications"`
	Education       []string          `json:"education"`
	Achievements    []string          `json:"achievements"`
	Experience      []ExperienceEntry `json:"experience"`
	Language        string            `json:"language"`
	JobTitle        *string           `json:"jobTitle"`
	CompanyName     *string           `json:"companyName"`
}

// ScoreBreakdown holds 0-100 scores; nil means the model had insufficient evidence.
type ScoreBreakdown struct {
	Overall    *float64 `json:"overall"`
	Skills     *float64 `json:"skills"`
	Experience *float64 `json:"experience"`
	Keywords   *float64 `json:"keywords"`
	Formatting *float64 `json:"formatting"`
}

// Improvement categories
const (
	CategorySkills     = "skills"
	CategoryExperience = "experience"
	CategoryKeywords   = "keywords"
	CategoryFormatting = "formatting"
	CategoryImpact     = "impact"
)

// Improvement impact levels
const (
	ImpactHigh   = "high"
	ImpactMedium = "medium"
	ImpactLow    = "low"
)

// Evidence backs an improvement with verifiable quotes from the source documents.
type Evidence struct {
	ResumeQuote     *string  `json:"resumeQuote"`
	JdQuote         *string  `json:"jdQuote"`
	MissingKeywords []string `json:"missingKeywords"`
}

// Improvement is a single actionable suggestion.
type Improvement struct {
	Point    string   `json:"point"`
	Category string   `json:"category"`
	Impact   string   `json:"impact"`
	Evidence Evidence `json:"evidence"`
}

// ScoreMatchResult is the output of the match scoring stage.
type ScoreMatchResult struct {
	ScoreBreakdown          ScoreBreakdown  `json:"scoreBreakdown"`
	Improvements            []Improvement   `json:"improvements"`
	KeywordCoverage         KeywordCoverage `json:"keywordCoverage"`
	HardRequirementsMissing []string        `json:"hardRequirementsMissing"`
}

// RewriteDocsResult is the output of the document rewriting stage.
type RewriteDocsResult struct {
	OptimizedResume      string   `json:"optimizedResume"`
	OptimizedCoverLetter string   `json:"optimizedCoverLetter"`
	ChangeSummary        []string `json:"changeSummary"`
}
