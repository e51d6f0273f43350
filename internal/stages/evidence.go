package stages

import (
	"strings"

	"github.com/jonathan/resume-optimizer/internal/types"
)

// foldText lowercases and collapses whitespace so quotes compare loosely.
func foldText(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// containsLoose reports whether needle occurs in haystack ignoring case and whitespace runs.
func containsLoose(haystack, needle string) bool {
	n := foldText(needle)
	return n != "" && strings.Contains(foldText(haystack), n)
}

// FilterEvidence drops every quote or missing keyword that cannot be found in its source:
// resume quotes in the résumé, JD quotes and missing keywords in the job description.
func FilterEvidence(improvements []types.Improvement, resume, jobDescription string) []types.Improvement {
	out := make([]types.Improvement, 0, len(improvements))
	for _, imp := range improvements {
		ev := imp.Evidence
		if ev.ResumeQuote != nil && !containsLoose(resume, *ev.ResumeQuote) {
			ev.ResumeQuote = nil
		}
		if ev.JdQuote != nil && !containsLoose(jobDescription, *ev.JdQuote) {
			ev.JdQuote = nil
		}
		keywords := []string{}
		for _, kw := range ev.MissingKeywords {
			if containsLoose(jobDescription, kw) {
				keywords = append(keywords, kw)
			}
		}
		ev.MissingKeywords = keywords
		imp.Evidence = ev
		out = append(out, imp)
	}
	return out
}

// TruncateWords keeps the first max words of s.
func TruncateWords(s string, max int) string {
	words := strings.Fields(s)
	if len(words) <= max {
		return s
	}
	return strings.Join(words[:max], " ")
}
