package input

import (
	"regexp"

	"github.com/jonathan/resume-optimizer/internal/types"
)

const (
	// complexTokenThreshold forces COMPLEX when the estimated total exceeds it
	complexTokenThreshold = 6000
	// complexFieldChars forces COMPLEX when any single field is longer
	complexFieldChars = 12000
	// simpleMaxJDChars and simpleMaxResumeChars bound SIMPLE-tier inputs
	simpleMaxJDChars     = 2500
	simpleMaxResumeChars = 4000
	// fastModeTokenCeiling additionally bounds SIMPLE in fast mode
	fastModeTokenCeiling = 2200
)

var deepIntentRegex = regexp.MustCompile(`(?i)\b(?:deep[\s-]?dive|(?:deep|thorough|detailed|in[\s-]?depth|comprehensive|exhaustive)\s+(?:analysis|review|assessment|evaluation))\b`)

// HasDeepIntent reports whether free text explicitly asks for a deep analysis.
func HasDeepIntent(text string) bool {
	return deepIntentRegex.MatchString(text)
}

// TierDecision explains a tier choice for logging and tracing.
type TierDecision struct {
	Tier        types.Tier `json:"tier"`
	Reason      string     `json:"reason"`
	TotalTokens int        `json:"totalTokens"`
}

// SelectTier picks SIMPLE, MEDIUM or COMPLEX for the input.
// COMPLEX wins on any trigger; SIMPLE requires a short JD and résumé; everything else is MEDIUM.
func SelectTier(in types.ApplicationInput) TierDecision {
	norm := Normalize(in)
	total := 0
	longest := 0
	for _, f := range norm.TextFields() {
		total += EstimateTokens(f.Text)
		longest = max(longest, len(f.Text))
	}
	for _, e := range norm.MetricsVault.Entries() {
		total += EstimateTokens(e.Text)
	}

	mode := norm.Mode()
	switch {
	case mode == types.ModeDeep:
		return TierDecision{Tier: types.TierComplex, Reason: "deep mode requested", TotalTokens: total}
	case HasDeepIntent(norm.AdditionalContext):
		return TierDecision{Tier: types.TierComplex, Reason: "deep analysis intent in additional context", TotalTokens: total}
	case total > complexTokenThreshold || longest > complexFieldChars:
		return TierDecision{Tier: types.TierComplex, Reason: "input length over complex threshold", TotalTokens: total}
	}

	short := len(norm.JobDescription) <= simpleMaxJDChars && len(norm.ResumeContent) <= simpleMaxResumeChars
	if short && (mode != types.ModeFast || total <= fastModeTokenCeiling) {
		return TierDecision{Tier: types.TierSimple, Reason: "short job description and résumé", TotalTokens: total}
	}
	return TierDecision{Tier: types.TierMedium, Reason: "default", TotalTokens: total}
}
