// Package repair validates a rewrite draft against the numeric and privacy guardrails and runs
// the single corrective re-prompt when the first draft fails.
package repair

import (
	"fmt"

	"github.com/jonathan/resume-optimizer/internal/privacy"
	"github.com/jonathan/resume-optimizer/internal/types"
	"github.com/jonathan/resume-optimizer/internal/vault"
)

// IssueKind classifies a guardrail violation.
type IssueKind string

const (
	IssueUnauthorizedNumber    IssueKind = "unauthorized_number"
	IssueUnauthorizedPii       IssueKind = "unauthorized_pii"
	IssueUnresolvedPlaceholder IssueKind = "unresolved_placeholder"
)

// Issue is one guardrail violation. Detail never contains a raw PII value.
type Issue struct {
	Kind   IssueKind `json:"kind"`
	Detail string    `json:"detail"`
}

func (i Issue) String() string {
	switch i.Kind {
	case IssueUnauthorizedNumber:
		return fmt.Sprintf("number %s is not in the allowed set", i.Detail)
	case IssueUnauthorizedPii:
		return fmt.Sprintf("personal data %s is not allowed", i.Detail)
	case IssueUnresolvedPlaceholder:
		return fmt.Sprintf("placeholder %s does not exist", i.Detail)
	default:
		return string(i.Kind) + ": " + i.Detail
	}
}

// Guard holds what a draft is checked against.
type Guard struct {
	// Placeholders are the run's redaction entries, reinserted into every draft.
	Placeholders []types.PiiRedactionEntry
	// AllowedPII is the personal data the candidate supplied.
	AllowedPII []types.PiiRedactionEntry
	// AllowedNumbers is the set of numbers the draft may contain.
	AllowedNumbers vault.NumberSet
	// Outbound, when set, is the redactor applied to outgoing prompts. Placeholders it
	// issued during the run are restorable like the prepared ones.
	Outbound *privacy.Redactor
}

// entries merges the prepared placeholders with any the outbound redactor issued since.
func (g Guard) entries() []types.PiiRedactionEntry {
	if g.Outbound == nil {
		return g.Placeholders
	}
	out := append([]types.PiiRedactionEntry(nil), g.Placeholders...)
	seen := make(map[string]bool, len(out))
	for _, e := range out {
		seen[e.Placeholder] = true
	}
	for _, e := range g.Outbound.Entries() {
		if !seen[e.Placeholder] {
			seen[e.Placeholder] = true
			out = append(out, e)
		}
	}
	return out
}

// Restore reinserts the original values behind every known placeholder.
func (g Guard) Restore(draft types.RewriteDocsResult) types.RewriteDocsResult {
	entries := g.entries()
	draft.OptimizedResume = privacy.Reinsert(draft.OptimizedResume, entries)
	draft.OptimizedCoverLetter = privacy.Reinsert(draft.OptimizedCoverLetter, entries)
	return draft
}

// Check validates a restored draft and lists every violation: unauthorized numbers, personal
// data the candidate never supplied, and placeholders no entry accounts for.
func (g Guard) Check(restored types.RewriteDocsResult) []Issue {
	text := vault.RewriteText(restored)
	var issues []Issue

	for _, n := range vault.FindUnauthorizedNumbers(privacy.MaskDetected(text), g.AllowedNumbers) {
		issues = append(issues, Issue{Kind: IssueUnauthorizedNumber, Detail: n})
	}
	for _, f := range privacy.FindUnauthorizedPii(text, g.AllowedPII) {
		issues = append(issues, Issue{Kind: IssueUnauthorizedPii, Detail: f.String()})
	}
	for _, p := range privacy.FindUnresolvedPiiPlaceholders(text, g.entries()) {
		issues = append(issues, Issue{Kind: IssueUnresolvedPlaceholder, Detail: p})
	}
	return issues
}

// PlaceholderTokens lists the placeholders a draft may use.
func (g Guard) PlaceholderTokens() []string {
	entries := g.entries()
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Placeholder)
	}
	return out
}
