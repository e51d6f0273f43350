// Package observability provides Prometheus metrics for the pipeline and formatted output
// for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/jonathan/resume-optimizer/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(content, "\n") {
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, clip(line, boxWidth-4))
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// clip shortens s to at most n runes, marking the cut with "..."
func clip(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-3]) + "..."
}

func writeList(sb *strings.Builder, heading string, items []string, limit int) {
	if len(items) == 0 {
		return
	}
	sb.WriteString(heading + ":\n")
	count := min(len(items), limit)
	for i := 0; i < count; i++ {
		sb.WriteString(fmt.Sprintf("  • %s\n", items[i]))
	}
	if len(items) > limit {
		sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(items)-limit))
	}
}

// PrintRetrieval outputs the selected chunks and why each was chosen.
func (p *Printer) PrintRetrieval(selection types.RetrievalSelection) {
	if len(selection.Chunks) == 0 {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Selected %d chunks:\n\n", len(selection.Chunks)))
	for i, entry := range selection.Trace {
		sb.WriteString(fmt.Sprintf("#%d  %s\n", i+1, entry.ChunkID))
		sb.WriteString(fmt.Sprintf("    %s\n", entry.Reason))
	}
	p.printBox("RETRIEVAL SELECTION", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintPrivacyPreview outputs the masked redaction preview. Raw values are never printed.
func (p *Printer) PrintPrivacyPreview(preview []types.PiiPreviewItem) {
	if len(preview) == 0 {
		p.printBox("PRIVACY PREVIEW", "No personal data detected")
		return
	}

	var sb strings.Builder
	for _, item := range preview {
		row := fmt.Sprintf("%-23s %-14s ", item.Placeholder, item.Type)
		// masked values too wide for the last column get their own line
		if utf8.RuneCountInString(row+item.Masked) > boxWidth-4 {
			sb.WriteString(strings.TrimRight(row, " ") + "\n")
			row = "    "
		}
		sb.WriteString(row + item.Masked + "\n")
	}
	p.printBox("PRIVACY PREVIEW", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintFacts outputs a summary of the extracted candidate facts.
func (p *Printer) PrintFacts(facts *types.ExtractFactsResult) {
	if facts == nil {
		return
	}

	var sb strings.Builder
	if facts.Headline != nil {
		sb.WriteString(fmt.Sprintf("Headline: %s\n", *facts.Headline))
	}
	if facts.YearsExperience != nil {
		sb.WriteString(fmt.Sprintf("Years:    %g\n", *facts.YearsExperience))
	}
	sb.WriteString(fmt.Sprintf("Language: %s\n\n", facts.Language))
	writeList(&sb, "Skills", facts.Skills, maxItemsToShow)
	writeList(&sb, "Achievements", facts.Achievements, 3)

	p.printBox("EXTRACTED FACTS", strings.TrimSuffix(sb.String(), "\n"))
}

func formatScore(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.0f", *v)
}

// PrintScore outputs the score breakdown and the top improvements.
func (p *Printer) PrintScore(score *types.ScoreMatchResult) {
	if score == nil {
		return
	}

	b := score.ScoreBreakdown
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Overall: %s  Skills: %s  Experience: %s\n",
		formatScore(b.Overall), formatScore(b.Skills), formatScore(b.Experience)))
	sb.WriteString(fmt.Sprintf("Keywords: %s  Formatting: %s\n\n",
		formatScore(b.Keywords), formatScore(b.Formatting)))

	count := min(len(score.Improvements), maxItemsToShow)
	for i := 0; i < count; i++ {
		imp := score.Improvements[i]
		sb.WriteString(fmt.Sprintf("[%s/%s] %s\n", imp.Impact, imp.Category, imp.Point))
	}
	if len(score.Improvements) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("... and %d more improvements", len(score.Improvements)-maxItemsToShow))
	}

	p.printBox("MATCH SCORE", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintCoverage outputs the deterministic keyword and requirement coverage.
func (p *Printer) PrintCoverage(coverage types.KeywordCoverage, hardMissing []string) {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Matched: %d  Partial: %d  Missing: %d\n\n",
		len(coverage.Matched), len(coverage.Partial), len(coverage.Missing)))
	writeList(&sb, "Missing keywords", coverage.Missing, maxItemsToShow)
	writeList(&sb, "Hard requirements missing", hardMissing, maxItemsToShow)

	p.printBox("ATS COVERAGE", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintGuardrailIssues outputs the violations found in a rewrite draft.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintGuardrailIssues(issues []string) {
	if len(issues) == 0 {
		fmt.Fprintf(p.out, "┌%s┐\n", strings.Repeat("─", boxWidth-2))
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, "✅ REWRITE PASSED GUARDRAILS")
		fmt.Fprintf(p.out, "└%s┘\n", strings.Repeat("─", boxWidth-2))
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Found %d issues:\n\n", len(issues)))
	for _, issue := range issues {
		sb.WriteString(fmt.Sprintf("⚠ %s\n", issue))
	}
	p.printBox("GUARDRAIL ISSUES", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintTrace outputs the audit trace of a finished run.
func (p *Printer) PrintTrace(trace types.AnalysisTrace) {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Input hash: %s\n", clip(trace.InputHash, 16)))
	sb.WriteString(fmt.Sprintf("Tier:       %s\n", trace.Tier))
	sb.WriteString(fmt.Sprintf("Model:      %s\n", trace.Model))
	sb.WriteString(fmt.Sprintf("Retries:    %d\n", trace.Retries))
	sb.WriteString(fmt.Sprintf("Chunks:     %d\n", len(trace.RetrievalChunkIDs)))
	sb.WriteString(fmt.Sprintf("Timestamp:  %s", trace.Timestamp))
	p.printBox("ANALYSIS TRACE", sb.String())
}
