package repair

import (
	"context"

	"github.com/jonathan/resume-optimizer/internal/types"
)

// Phase marks progress through the validate-then-correct cycle.
type Phase string

const (
	PhaseValidating           Phase = "validating"
	PhaseCorrecting           Phase = "correcting"
	PhaseValidatingCorrection Phase = "validating_correction"
)

// GenerateFunc produces a draft. issues is nil on the first call and lists the first draft's
// violations on the corrective call.
type GenerateFunc func(ctx context.Context, issues []Issue) (types.RewriteDocsResult, error)

// Outcome is a draft that passed the guardrails.
type Outcome struct {
	// Draft has every placeholder restored.
	Draft types.RewriteDocsResult
	// Corrected is true when the first draft failed and the corrective pass was used.
	Corrected bool
	// FirstIssues lists what the first draft violated, if anything.
	FirstIssues []Issue
}

// CorrectOnce generates a draft, validates it, and on failure asks for exactly one correction.
// A correction that still fails is a *GuardrailError. Generation errors are returned unchanged.
// onPhase, when set, is told when each phase starts.
func CorrectOnce(ctx context.Context, g Guard, generate GenerateFunc, onPhase func(Phase)) (Outcome, error) {
	enter := func(p Phase) {
		if onPhase != nil {
			onPhase(p)
		}
	}

	first, err := generate(ctx, nil)
	if err != nil {
		return Outcome{}, err
	}

	enter(PhaseValidating)
	restored := g.Restore(first)
	issues := g.Check(restored)
	if len(issues) == 0 {
		return Outcome{Draft: restored}, nil
	}

	enter(PhaseCorrecting)
	second, err := generate(ctx, issues)
	if err != nil {
		return Outcome{FirstIssues: issues}, err
	}

	enter(PhaseValidatingCorrection)
	restored = g.Restore(second)
	if remaining := g.Check(restored); len(remaining) > 0 {
		return Outcome{FirstIssues: issues}, &GuardrailError{Issues: remaining}
	}
	return Outcome{Draft: restored, Corrected: true, FirstIssues: issues}, nil
}

// Describe renders issues for a corrective prompt.
func Describe(issues []Issue) []string {
	out := make([]string, 0, len(issues))
	for _, i := range issues {
		out = append(out, i.String())
	}
	return out
}
