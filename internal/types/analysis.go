package types

// AnalysisTrace makes a run auditable: which input, which chunks, which model, how many retries.
type AnalysisTrace struct {
	InputHash         string                `json:"inputHash"`
	RetrievalChunkIDs []string              `json:"retrievalChunkIds"`
	RetrievalTrace    []RetrievalTraceEntry `json:"retrievalTrace"`
	Model             string                `json:"model"`
	Tier              Tier                  `json:"tier"`
	Timestamp         string                `json:"timestamp"`
	Retries           int                   `json:"retries"`
}

// AnalysisResult is the final output contract of the pipeline.
type AnalysisResult struct {
	ScoreBreakdown          ScoreBreakdown  `json:"scoreBreakdown"`
	Improvements            []Improvement   `json:"improvements"`
	OptimizedResume         string          `json:"optimizedResume"`
	OptimizedCoverLetter    string          `json:"optimizedCoverLetter"`
	Language                string          `json:"language"`
	KeywordCoverage         KeywordCoverage `json:"keywordCoverage"`
	HardRequirementsMissing []string        `json:"hardRequirementsMissing"`
	AnalysisTrace           AnalysisTrace   `json:"analysisTrace"`
}

// StageName identifies a model-backed stage.
type StageName string

const (
	StageExtractFacts StageName = "extractFacts"
	StageScoreMatch   StageName = "scoreMatch"
	StageRewriteDocs  StageName = "rewriteDocs"
)

// StageRequest is emitted before every generator call so callers can audit outbound prompts.
type StageRequest struct {
	Stage             StageName `json:"stage"`
	Model             string    `json:"model"`
	Tier              Tier      `json:"tier"`
	Prompt            string    `json:"prompt"`
	SystemInstruction string    `json:"systemInstruction"`
}
