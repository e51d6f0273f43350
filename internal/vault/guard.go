// Package vault enforces the metrics vault: numbers in generated documents must come from
// the candidate's approved numeric claims.
package vault

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/jonathan/resume-optimizer/internal/types"
)

var (
	numberRegex        = regexp.MustCompile(`\d{1,3}(?:,\d{3})+(?:\.\d+)?|\d+(?:\.\d+)?`)
	listNumberingRegex = regexp.MustCompile(`(?m)^[ \t]*\d+[.)][ \t]`)
	placeholderRegex   = regexp.MustCompile(`\[PII_[A-Z_]+_\d+\]`)
)

// NumberSet is a set of normalized numbers.
type NumberSet map[string]bool

// Contains reports whether the normalized form of token is in the set.
func (s NumberSet) Contains(token string) bool {
	n, ok := NormalizeNumber(token)
	return ok && s[n]
}

// Sorted returns the members in numeric order.
func (s NumberSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for n := range s {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool {
		a, _ := strconv.ParseFloat(out[i], 64)
		b, _ := strconv.ParseFloat(out[j], 64)
		if a != b {
			return a < b
		}
		return out[i] < out[j]
	})
	return out
}

// NormalizeNumber strips thousands separators and round-trips the token through float parsing,
// so "2,300", "2300" and "2300.0" all become "2300".
func NormalizeNumber(token string) (string, bool) {
	f, err := strconv.ParseFloat(strings.ReplaceAll(token, ",", ""), 64)
	if err != nil {
		return "", false
	}
	return strconv.FormatFloat(f, 'f', -1, 64), true
}

// ExtractNumbers returns the distinct normalized numbers in text, in order of first appearance.
// Leading list numbering such as "1. " or "2) " and PII placeholder indexes are ignored.
func ExtractNumbers(text string) []string {
	text = listNumberingRegex.ReplaceAllString(text, "")
	text = placeholderRegex.ReplaceAllString(text, " ")
	var out []string
	seen := map[string]bool{}
	for _, token := range numberRegex.FindAllString(text, -1) {
		n, ok := NormalizeNumber(token)
		if !ok || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}

// NumbersIn collects the normalized numbers of every text into one set.
func NumbersIn(texts ...string) NumberSet {
	set := NumberSet{}
	for _, t := range texts {
		for _, n := range ExtractNumbers(t) {
			set[n] = true
		}
	}
	return set
}

// AllowedNumbers is the set of numbers the vault authorizes.
func AllowedNumbers(v types.MetricsVault) NumberSet {
	var texts []string
	for _, e := range v.Entries() {
		texts = append(texts, e.Text)
	}
	return NumbersIn(texts...)
}

// FindUnauthorizedNumbers returns every normalized number in text that is not in allowed,
// in order of first appearance.
func FindUnauthorizedNumbers(text string, allowed NumberSet) []string {
	var out []string
	for _, n := range ExtractNumbers(text) {
		if !allowed[n] {
			out = append(out, n)
		}
	}
	return out
}

// RewriteText joins the two generated documents that the guard inspects.
func RewriteText(draft types.RewriteDocsResult) string {
	return draft.OptimizedResume + "\n" + draft.OptimizedCoverLetter
}

// FindUnauthorizedNumbersForRewrite checks the optimized résumé and cover letter against the vault only.
func FindUnauthorizedNumbersForRewrite(draft types.RewriteDocsResult, v types.MetricsVault) []string {
	return FindUnauthorizedNumbers(RewriteText(draft), AllowedNumbers(v))
}

// AuthorizedNumbers decides which numbers a caller should accept in generated text.
// A non-empty vault is authoritative. With an empty vault, any number that already appears
// in the candidate's raw documents is accepted instead.
func AuthorizedNumbers(v types.MetricsVault, rawTexts ...string) NumberSet {
	if !v.IsEmpty() {
		return AllowedNumbers(v)
	}
	return NumbersIn(rawTexts...)
}
