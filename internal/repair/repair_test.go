package repair

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/resume-optimizer/internal/privacy"
	"github.com/jonathan/resume-optimizer/internal/types"
	"github.com/jonathan/resume-optimizer/internal/vault"
)

var entries = []types.PiiRedactionEntry{
	{Placeholder: "[PII_EMAIL_1]", Original: "ada@example.com", Type: types.PiiEmail},
	{Placeholder: "[PII_PHONE_1]", Original: "+1 (555) 123-4567", Type: types.PiiPhone},
}

func testGuard() Guard {
	return Guard{
		Placeholders:   entries,
		AllowedPII:     entries,
		AllowedNumbers: vault.AllowedNumbers(types.MetricsVault{ProjectImpact: "conversion +18%", LatencyReduction: "120 ms"}),
	}
}

func draft(resume string) types.RewriteDocsResult {
	return types.RewriteDocsResult{OptimizedResume: resume, OptimizedCoverLetter: "Dear team,", ChangeSummary: []string{}}
}

func TestGuard_Check(t *testing.T) {
	g := testGuard()

	clean := g.Restore(draft("Contact [PII_EMAIL_1] / [PII_PHONE_1]. Improved conversion by 18% and cut latency 120 ms."))
	assert.Contains(t, clean.OptimizedResume, "ada@example.com")
	assert.Contains(t, clean.OptimizedResume, "+1 (555) 123-4567")
	assert.Empty(t, g.Check(clean))

	dirty := g.Restore(draft("Improved retention by 42%. Write to bob@evil.example or [PII_EMAIL_9]."))
	issues := g.Check(dirty)
	require.Len(t, issues, 3)
	assert.Equal(t, Issue{Kind: IssueUnauthorizedNumber, Detail: "42"}, issues[0])
	assert.Equal(t, IssueUnauthorizedPii, issues[1].Kind)
	assert.NotContains(t, issues[1].Detail, "bob@")
	assert.Equal(t, Issue{Kind: IssueUnresolvedPlaceholder, Detail: "[PII_EMAIL_9]"}, issues[2])
}

func TestGuard_OutboundPlaceholdersRestore(t *testing.T) {
	outbound := privacy.NewRedactorFromEntries(entries)
	assert.Equal(t, "Site: mailto:[PII_EMAIL_2]", outbound.Redact("Site: mailto:ada.personal@example.org"))

	g := testGuard()
	g.Outbound = outbound
	assert.Contains(t, g.PlaceholderTokens(), "[PII_EMAIL_2]")

	restored := g.Restore(draft("Reach me at [PII_EMAIL_1] or [PII_EMAIL_2]"))
	assert.Contains(t, restored.OptimizedResume, "ada.personal@example.org")
	assert.NotContains(t, restored.OptimizedResume, "[PII_")

	// restorable, but only allowed when the candidate supplied it
	issues := g.Check(restored)
	require.Len(t, issues, 1)
	assert.Equal(t, IssueUnauthorizedPii, issues[0].Kind)

	g.AllowedPII = outbound.Entries()
	assert.Empty(t, g.Check(restored))
}

func TestCorrectOnce_FirstDraftPasses(t *testing.T) {
	calls := 0
	var phases []Phase
	out, err := CorrectOnce(context.Background(), testGuard(), func(_ context.Context, issues []Issue) (types.RewriteDocsResult, error) {
		calls++
		assert.Nil(t, issues)
		return draft("Reach me at [PII_EMAIL_1]"), nil
	}, func(p Phase) { phases = append(phases, p) })

	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.False(t, out.Corrected)
	assert.Equal(t, "Reach me at ada@example.com", out.Draft.OptimizedResume)
	assert.Equal(t, []Phase{PhaseValidating}, phases)
}

func TestCorrectOnce_CorrectionSucceeds(t *testing.T) {
	var seen [][]Issue
	var phases []Phase
	out, err := CorrectOnce(context.Background(), testGuard(), func(_ context.Context, issues []Issue) (types.RewriteDocsResult, error) {
		seen = append(seen, issues)
		if issues == nil {
			return draft("Grew retention 42%"), nil
		}
		return draft("Improved conversion by 18%"), nil
	}, func(p Phase) { phases = append(phases, p) })

	require.NoError(t, err)
	assert.True(t, out.Corrected)
	assert.Equal(t, []Issue{{Kind: IssueUnauthorizedNumber, Detail: "42"}}, out.FirstIssues)
	require.Len(t, seen, 2)
	assert.Equal(t, out.FirstIssues, seen[1])
	assert.Equal(t, []Phase{PhaseValidating, PhaseCorrecting, PhaseValidatingCorrection}, phases)
	assert.Equal(t, []string{"number 42 is not in the allowed set"}, Describe(seen[1]))
}

func TestCorrectOnce_CorrectionStillFails(t *testing.T) {
	calls := 0
	_, err := CorrectOnce(context.Background(), testGuard(), func(context.Context, []Issue) (types.RewriteDocsResult, error) {
		calls++
		return draft("Served 9000 users"), nil
	}, nil)

	var ge *GuardrailError
	require.ErrorAs(t, err, &ge)
	assert.Equal(t, 2, calls)
	assert.Equal(t, []Issue{{Kind: IssueUnauthorizedNumber, Detail: "9000"}}, ge.Issues)
	assert.Contains(t, err.Error(), "9000")
}

func TestCorrectOnce_GenerationErrorPassesThrough(t *testing.T) {
	boom := errors.New("boom")
	_, err := CorrectOnce(context.Background(), testGuard(), func(context.Context, []Issue) (types.RewriteDocsResult, error) {
		return types.RewriteDocsResult{}, boom
	}, nil)
	assert.ErrorIs(t, err, boom)
}

func TestGuard_PhoneDigitsAreNotMetrics(t *testing.T) {
	g := Guard{AllowedPII: entries, AllowedNumbers: vault.NumberSet{}}
	assert.Empty(t, g.Check(draft("Call +1 555 123 4567")))
}
