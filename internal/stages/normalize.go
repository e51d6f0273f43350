package stages

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/jonathan/resume-optimizer/internal/types"
)

var languageRegex = regexp.MustCompile(`^[a-z]{2}$`)

// optionalString returns nil for missing, non-string or blank values.
func optionalString(v any) *string {
	s, ok := v.(string)
	if !ok {
		return nil
	}
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "null") {
		return nil
	}
	return &s
}

func plainString(v any) string {
	if s := optionalString(v); s != nil {
		return *s
	}
	return ""
}

// stringSlice coerces v into a list of non-blank strings. A bare string becomes a one-element
// list and numbers are formatted; anything else is dropped.
func stringSlice(v any) []string {
	out := []string{}
	add := func(item any) {
		switch x := item.(type) {
		case string:
			if x = strings.TrimSpace(x); x != "" {
				out = append(out, x)
			}
		case float64:
			out = append(out, strconv.FormatFloat(x, 'f', -1, 64))
		}
	}
	switch x := v.(type) {
	case []any:
		for _, item := range x {
			add(item)
		}
	case string, float64:
		add(x)
	}
	return out
}

// optionalNumber accepts numbers and numeric strings.
func optionalNumber(v any) *float64 {
	switch x := v.(type) {
	case float64:
		return &x
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(x), "%")), 64)
		if err != nil {
			return nil
		}
		return &f
	}
	return nil
}

// score is a 0-100 number; anything outside the range is treated as missing.
func score(v any) *float64 {
	n := optionalNumber(v)
	if n == nil || *n < 0 || *n > 100 {
		return nil
	}
	return n
}

func object(v any) map[string]any {
	m, _ := v.(map[string]any)
	return m
}

func objects(v any) []map[string]any {
	items, _ := v.([]any)
	out := make([]map[string]any, 0, len(items))
	for _, item := range items {
		if m, ok := item.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}

// language returns a lowercase ISO 639-1 code, defaulting to "en".
func language(v any) string {
	s := strings.ToLower(plainString(v))
	if i := strings.IndexAny(s, "-_"); i > 0 {
		s = s[:i]
	}
	if !languageRegex.MatchString(s) {
		return "en"
	}
	return s
}

// category falls back to experience, the least specific bucket.
func category(v any) string {
	switch s := strings.ToLower(plainString(v)); s {
	case types.CategorySkills, types.CategoryExperience, types.CategoryKeywords, types.CategoryFormatting, types.CategoryImpact:
		return s
	default:
		return types.CategoryExperience
	}
}

// impact falls back to low so an unrecognized value never overstates a suggestion.
func impact(v any) string {
	switch s := strings.ToLower(plainString(v)); s {
	case types.ImpactHigh, types.ImpactMedium, types.ImpactLow:
		return s
	default:
		return types.ImpactLow
	}
}

// NormalizeFacts maps a decoded extract-facts response onto the strict result shape.
func NormalizeFacts(obj map[string]any) types.ExtractFactsResult {
	facts := types.ExtractFactsResult{
		CandidateName:   optionalString(obj["candidateName"]),
		Headline:        optionalString(obj["headline"]),
		YearsExperience: optionalNumber(obj["yearsExperience"]),
		Skills:          stringSlice(obj["skills"]),
		Tools:           stringSlice(obj["tools"]),
		Certifications:  stringSlice(obj["certifications"]),
		Education:       stringSlice(obj["education"]),
		Achievements:    stringSlice(obj["achievements"]),
		Experience:      []types.ExperienceEntry{},
		Language:        language(obj["language"]),
		JobTitle:        optionalString(obj["jobTitle"]),
		CompanyName:     optionalString(obj["companyName"]),
	}
	if facts.YearsExperience != nil && *facts.YearsExperience < 0 {
		facts.YearsExperience = nil
	}
	for _, e := range objects(obj["experience"]) {
		facts.Experience = append(facts.Experience, types.ExperienceEntry{
			Employer:     optionalString(e["employer"]),
			Role:         optionalString(e["role"]),
			StartDate:    optionalString(e["startDate"]),
			EndDate:      optionalString(e["endDate"]),
			Achievements: stringSlice(e["achievements"]),
		})
	}
	return facts
}

// NormalizeScore maps a decoded score-match response onto the strict result shape.
// Improvements without a point are dropped.
func NormalizeScore(obj map[string]any) types.ScoreMatchResult {
	sb := object(obj["scoreBreakdown"])
	result := types.ScoreMatchResult{
		ScoreBreakdown: types.ScoreBreakdown{
			Overall:    score(sb["overall"]),
			Skills:     score(sb["skills"]),
			Experience: score(sb["experience"]),
			Keywords:   score(sb["keywords"]),
			Formatting: score(sb["formatting"]),
		},
		Improvements: []types.Improvement{},
	}
	for _, imp := range objects(obj["improvements"]) {
		point := plainString(imp["point"])
		if point == "" {
			continue
		}
		ev := object(imp["evidence"])
		result.Improvements = append(result.Improvements, types.Improvement{
			Point:    point,
			Category: category(imp["category"]),
			Impact:   impact(imp["impact"]),
			Evidence: types.Evidence{
				ResumeQuote:     optionalString(ev["resumeQuote"]),
				JdQuote:         optionalString(ev["jdQuote"]),
				MissingKeywords: stringSlice(ev["missingKeywords"]),
			},
		})
	}
	kc := object(obj["keywordCoverage"])
	result.KeywordCoverage = types.KeywordCoverage{
		Matched: stringSlice(kc["matched"]),
		Missing: stringSlice(kc["missing"]),
		Partial: stringSlice(kc["partial"]),
	}
	result.HardRequirementsMissing = stringSlice(obj["hardRequirementsMissing"])
	return result
}

// NormalizeRewrite maps a decoded rewrite-docs response onto the strict result shape.
func NormalizeRewrite(obj map[string]any) types.RewriteDocsResult {
	resume, _ := obj["optimizedResume"].(string)
	cover, _ := obj["optimizedCoverLetter"].(string)
	return types.RewriteDocsResult{
		OptimizedResume:      strings.TrimSpace(resume),
		OptimizedCoverLetter: strings.TrimSpace(cover),
		ChangeSummary:        stringSlice(obj["changeSummary"]),
	}
}
