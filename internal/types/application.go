// Package types provides type definitions for structured data used throughout the resume-optimizer system.
//
//nolint:revive // types is a standard Go package name pattern
package types

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// AnalysisMode is the analysis depth requested by the caller.
type AnalysisMode string

const (
	// ModeFast favors the cheapest tier that fits the input
	ModeFast AnalysisMode = "fast"
	// ModeBalanced is the default mode
	ModeBalanced AnalysisMode = "balanced"
	// ModeDeep always selects the COMPLEX tier
	ModeDeep AnalysisMode = "deep"
)

// Tier controls model choice and token budgets for a run.
type Tier string

const (
	TierSimple  Tier = "SIMPLE"
	TierMedium  Tier = "MEDIUM"
	TierComplex Tier = "COMPLEX"
)

// Tiers lists all tiers in ascending order of cost.
func Tiers() []Tier {
	return []Tier{TierSimple, TierMedium, TierComplex}
}

// ParseTier parses a tier name case-insensitively.
func ParseTier(s string) (Tier, error) {
	t := Tier(strings.ToUpper(strings.TrimSpace(s)))
	switch t {
	case TierSimple, TierMedium, TierComplex:
		return t, nil
	}
	return "", fmt.Errorf("unknown tier %q (valid: SIMPLE, MEDIUM, COMPLEX)", s)
}

// MetricsVault holds the user-approved numeric claims, one free-text string per category.
// It is the only authorized source of numbers in generated documents.
type MetricsVault struct {
	ProjectImpact    string `json:"projectImpact,omitempty"`
	RevenueImpact    string `json:"revenueImpact,omitempty"`
	CostSavings      string `json:"costSavings,omitempty"`
	LatencyReduction string `json:"latencyReduction,omitempty"`
	TeamLeadership   string `json:"teamLeadership,omitempty"`
	ScaleVolume      string `json:"scaleVolume,omitempty"`
}

// VaultEntry is a single (category, text) pair from a MetricsVault.
type VaultEntry struct {
	Category string `json:"category"`
	Text     string `json:"text"`
}

// Entries returns the vault's entries in fixed category order, including empty ones.
func (v MetricsVault) Entries() []VaultEntry {
	return []VaultEntry{
		{Category: "projectImpact", Text: v.ProjectImpact},
		{Category: "revenueImpact", Text: v.RevenueImpact},
		{Category: "costSavings", Text: v.CostSavings},
		{Category: "latencyReduction", Text: v.LatencyReduction},
		{Category: "teamLeadership", Text: v.TeamLeadership},
		{Category: "scaleVolume", Text: v.ScaleVolume},
	}
}

// IsEmpty reports whether every vault category is blank.
func (v MetricsVault) IsEmpty() bool {
	for _, e := range v.Entries() {
		if strings.TrimSpace(e.Text) != "" {
			return false
		}
	}
	return true
}

// WithEntries returns a copy of the vault with each category's text replaced by fn(category, text).
func (v MetricsVault) WithEntries(fn func(category, text string) string) MetricsVault {
	return MetricsVault{
		ProjectImpact:    fn("projectImpact", v.ProjectImpact),
		RevenueImpact:    fn("revenueImpact", v.RevenueImpact),
		CostSavings:      fn("costSavings", v.CostSavings),
		LatencyReduction: fn("latencyReduction", v.LatencyReduction),
		TeamLeadership:   fn("teamLeadership", v.TeamLeadership),
		ScaleVolume:      fn("scaleVolume", v.ScaleVolume),
	}
}

// ApplicationInput is everything the user submits for one optimization run.
// It is treated as immutable; sanitized variants are always derived copies.
type ApplicationInput struct {
	JobDescription     string       `json:"jobDescription" validate:"required"`
	CompanyInfo        string       `json:"companyInfo,omitempty"`
	ResumeContent      string       `json:"resumeContent" validate:"required"`
	CoverLetterContent string       `json:"coverLetterContent,omitempty"`
	PortfolioLinks     []string     `json:"portfolioLinks,omitempty" validate:"omitempty,dive,required"`
	AdditionalContext  string       `json:"additionalContext,omitempty"`
	AnalysisMode       AnalysisMode `json:"analysisMode,omitempty" validate:"omitempty,oneof=fast balanced deep"`
	PrivacyMode        bool         `json:"privacyMode"`
	MetricsVault       MetricsVault `json:"metricsVault"`
}

// Validate validates the ApplicationInput using the validator.
func (in *ApplicationInput) Validate() error {
	validate := validator.New()
	return validate.Struct(in)
}

// Mode returns the requested analysis mode, defaulting to balanced.
func (in ApplicationInput) Mode() AnalysisMode {
	if in.AnalysisMode == "" {
		return ModeBalanced
	}
	return in.AnalysisMode
}

// Clone returns a deep copy of the input so callers can derive variants without aliasing slices.
func (in ApplicationInput) Clone() ApplicationInput {
	out := in
	if in.PortfolioLinks != nil {
		out.PortfolioLinks = append([]string(nil), in.PortfolioLinks...)
	}
	return out
}

// TextFields returns the labeled free-text fields in canonical order.
// Portfolio links and the vault are not included.
func (in ApplicationInput) TextFields() []TextField {
	return []TextField{
		{Source: SourceJobDescription, Text: in.JobDescription},
		{Source: SourceResumeContent, Text: in.ResumeContent},
		{Source: SourceCoverLetterContent, Text: in.CoverLetterContent},
		{Source: SourceCompanyInfo, Text: in.CompanyInfo},
		{Source: SourceAdditionalContext, Text: in.AdditionalContext},
	}
}

// TextField is one labeled input text.
type TextField struct {
	Source string
	Text   string
}

// Source labels for input text fields.
const (
	SourceJobDescription     = "jobDescription"
	SourceResumeContent      = "resumeContent"
	SourceCoverLetterContent = "coverLetterContent"
	SourceCompanyInfo        = "companyInfo"
	SourceAdditionalContext  = "additionalContext"
)
