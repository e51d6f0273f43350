package ats

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/jonathan/resume-optimizer/internal/types"
)

// KeywordStatus is the coverage class of one keyword.
type KeywordStatus string

const (
	StatusMatched KeywordStatus = "matched"
	StatusPartial KeywordStatus = "partial"
	StatusMissing KeywordStatus = "missing"
)

const (
	partialTokenRatio     = 0.5
	requirementTokenRatio = 0.6
	fuzzyMinTokenLen      = 4
)

// yearsRegex captures the lower bound of "3+ years", "3-5 years", "at least 3 yrs".
var yearsRegex = regexp.MustCompile(`(?i)\b(\d+(?:\.\d+)?)(?:\s*(?:-|–|to)\s*\d+(?:\.\d+)?)?\s*\+?\s*(?:years|yrs)\b`)

// ResumeCorpus is the searchable form of a candidate's extracted facts.
type ResumeCorpus struct {
	phrase   string
	tokens   map[string]bool
	maxYears float64
	hasYears bool
}

// BuildResumeCorpus flattens skills, tools, achievements, education, certifications and every
// experience entry's employer, role and achievements into one normalized corpus.
func BuildResumeCorpus(facts types.ExtractFactsResult) ResumeCorpus {
	var parts []string
	parts = append(parts, facts.Skills...)
	parts = append(parts, facts.Tools...)
	parts = append(parts, facts.Achievements...)
	parts = append(parts, facts.Education...)
	parts = append(parts, facts.Certifications...)
	if facts.Headline != nil {
		parts = append(parts, *facts.Headline)
	}
	for _, exp := range facts.Experience {
		if exp.Employer != nil {
			parts = append(parts, *exp.Employer)
		}
		if exp.Role != nil {
			parts = append(parts, *exp.Role)
		}
		parts = append(parts, exp.Achievements...)
	}

	raw := strings.Join(parts, "\n")
	corpus := ResumeCorpus{
		phrase: normalizePhrase(raw),
		tokens: map[string]bool{},
	}
	for _, tok := range tokenize(raw) {
		corpus.tokens[tok] = true
	}

	if facts.YearsExperience != nil {
		corpus.maxYears = *facts.YearsExperience
		corpus.hasYears = true
	}
	for _, m := range yearsRegex.FindAllStringSubmatch(raw, -1) {
		if years, err := strconv.ParseFloat(m[1], 64); err == nil && (!corpus.hasYears || years > corpus.maxYears) {
			corpus.maxYears = years
			corpus.hasYears = true
		}
	}
	return corpus
}

// MaxYears returns the largest years-of-experience figure stated in the corpus.
func (c ResumeCorpus) MaxYears() (float64, bool) {
	return c.maxYears, c.hasYears
}

// ClassifyKeyword decides whether a keyword is matched, partially matched, or missing.
func (c ResumeCorpus) ClassifyKeyword(keyword string) KeywordStatus {
	if containsPhrase(c.phrase, normalizePhrase(keyword)) {
		return StatusMatched
	}

	sig := significantTokens(keyword)
	if len(sig) == 0 {
		return StatusMissing
	}
	present := 0
	for _, tok := range sig {
		if c.tokens[tok] {
			present++
		}
	}
	if float64(present)/float64(len(sig)) >= partialTokenRatio {
		return StatusPartial
	}
	if c.fuzzyContains(sig) {
		return StatusPartial
	}
	return StatusMissing
}

// fuzzyContains reports whether any keyword token of fuzzyMinTokenLen+ characters is contained in,
// or contains, a corpus token of that length.
func (c ResumeCorpus) fuzzyContains(keywordTokens []string) bool {
	for _, kt := range keywordTokens {
		if len(kt) < fuzzyMinTokenLen {
			continue
		}
		for ct := range c.tokens {
			if len(ct) < fuzzyMinTokenLen {
				continue
			}
			if strings.Contains(ct, kt) || strings.Contains(kt, ct) {
				return true
			}
		}
	}
	return false
}

// RequirementSatisfied checks one hard requirement against the corpus.
// It passes when a matched keyword appears in the requirement, when at least 60% of the
// requirement's significant tokens appear in the résumé, or when a stated minimum years of
// experience is met by the résumé's maximum stated years.
func (c ResumeCorpus) RequirementSatisfied(requirement string, matchedKeywords []string) bool {
	reqPhrase := normalizePhrase(requirement)
	for _, kw := range matchedKeywords {
		if containsPhrase(reqPhrase, normalizePhrase(kw)) {
			return true
		}
	}

	if sig := significantTokens(requirement); len(sig) > 0 {
		present := 0
		for _, tok := range sig {
			if c.tokens[tok] {
				present++
			}
		}
		if float64(present)/float64(len(sig)) >= requirementTokenRatio {
			return true
		}
	}

	if minYears, ok := MinYears(requirement); ok && c.hasYears && c.maxYears >= minYears {
		return true
	}
	return false
}

// MinYears extracts the minimum years of experience a requirement states, if any.
func MinYears(requirement string) (float64, bool) {
	m := yearsRegex.FindStringSubmatch(requirement)
	if m == nil {
		return 0, false
	}
	years, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, false
	}
	return years, true
}

// ComputeCoverage classifies every job keyword against the candidate's facts and lists the hard
// requirements left unsatisfied. The result depends only on its arguments.
func ComputeCoverage(req types.ParsedJdRequirements, facts types.ExtractFactsResult) types.AtsCoverageResult {
	corpus := BuildResumeCorpus(facts)
	result := types.AtsCoverageResult{
		KeywordCoverage: types.KeywordCoverage{
			Matched: []string{},
			Missing: []string{},
			Partial: []string{},
		},
		HardRequirementsMissing: []string{},
	}

	for _, kw := range dedupe(req.ToolsTechKeywords) {
		switch corpus.ClassifyKeyword(kw) {
		case StatusMatched:
			result.KeywordCoverage.Matched = append(result.KeywordCoverage.Matched, kw)
		case StatusPartial:
			result.KeywordCoverage.Partial = append(result.KeywordCoverage.Partial, kw)
		default:
			result.KeywordCoverage.Missing = append(result.KeywordCoverage.Missing, kw)
		}
	}

	for _, hr := range dedupe(req.HardRequirements) {
		if !corpus.RequirementSatisfied(hr, result.KeywordCoverage.Matched) {
			result.HardRequirementsMissing = append(result.HardRequirementsMissing, hr)
		}
	}
	return result
}

// Analyze parses the job description and scores coverage in one call.
func Analyze(jobDescription string, facts types.ExtractFactsResult) (types.ParsedJdRequirements, types.AtsCoverageResult) {
	req := ParseJdRequirements(jobDescription)
	return req, ComputeCoverage(req, facts)
}
