package db

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Run statuses
const (
	RunStatusRunning = "running"
	RunStatusDone    = "done"
	RunStatusFailed  = "failed"
)

// Artifact steps written by the pipeline
const (
	StepTierDecision = "tier_decision"
	StepRetrieval    = "retrieval"
	StepFacts        = "extract_facts"
	StepScore        = "score_match"
	StepRewrite      = "rewrite_docs"
	StepGuardrail    = "guardrail_issues"
	StepResult       = "analysis_result"
)

// Artifact categories
const (
	CategoryInput  = "input"
	CategoryStage  = "stage"
	CategoryOutput = "output"
)

// Run represents an analysis run record
type Run struct {
	ID           uuid.UUID  `json:"id"`
	InputHash    string     `json:"input_hash"`
	Tier         string     `json:"tier"`
	AnalysisMode string     `json:"analysis_mode"`
	Status       string     `json:"status"`
	ErrorMessage *string    `json:"error_message,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
}

// Artifact represents one stored step output
type Artifact struct {
	ID        uuid.UUID       `json:"id"`
	RunID     uuid.UUID       `json:"run_id"`
	Step      string          `json:"step"`
	Category  string          `json:"category"`
	Content   json.RawMessage `json:"content"`
	CreatedAt time.Time       `json:"created_at"`
}
