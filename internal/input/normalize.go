// Package input canonicalizes application inputs, hashes them, and selects the analysis tier.
package input

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/crypto/blake2b"

	"github.com/jonathan/resume-optimizer/internal/types"
)

var whitespaceRegex = regexp.MustCompile(`\s+`)

// NormalizeText collapses every whitespace run to a single space and trims the result.
func NormalizeText(s string) string {
	return strings.TrimSpace(whitespaceRegex.ReplaceAllString(s, " "))
}

// Normalize returns a canonical copy of the input. The original is not modified.
// Free-text fields and vault entries are whitespace-normalized, empty portfolio links are dropped,
// and an empty analysis mode becomes balanced.
func Normalize(in types.ApplicationInput) types.ApplicationInput {
	out := in.Clone()
	out.JobDescription = NormalizeText(in.JobDescription)
	out.CompanyInfo = NormalizeText(in.CompanyInfo)
	out.ResumeContent = NormalizeText(in.ResumeContent)
	out.CoverLetterContent = NormalizeText(in.CoverLetterContent)
	out.AdditionalContext = NormalizeText(in.AdditionalContext)
	out.AnalysisMode = in.Mode()
	out.MetricsVault = in.MetricsVault.WithEntries(func(_, text string) string {
		return NormalizeText(text)
	})

	links := make([]string, 0, len(in.PortfolioLinks))
	for _, link := range in.PortfolioLinks {
		if trimmed := strings.TrimSpace(link); trimmed != "" {
			links = append(links, trimmed)
		}
	}
	out.PortfolioLinks = links
	return out
}

// Hash computes a stable content hash of the normalized input.
// Inputs differing only in incidental whitespace hash identically.
func Hash(in types.ApplicationInput) (string, error) {
	canonical, err := json.Marshal(Normalize(in))
	if err != nil {
		return "", fmt.Errorf("failed to marshal input for hashing: %w", err)
	}
	sum := blake2b.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}

// EstimateTokens approximates the token count of s at four characters per token.
func EstimateTokens(s string) int {
	n := len(s)
	if n == 0 {
		return 0
	}
	return (n + 3) / 4
}
