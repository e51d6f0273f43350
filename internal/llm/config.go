// Package llm defines the generator contract the pipeline calls, its Gemini and mock
// strategies, the per-tier model table, and the transient-error retry policy.
package llm

import (
	"fmt"
	"strings"

	"github.com/jonathan/resume-optimizer/internal/types"
)

// ModelMode selects the generator strategy.
type ModelMode string

const (
	// ModeReal calls the Gemini API.
	ModeReal ModelMode = "real"
	// ModeMock returns deterministic, schema-valid responses without network access.
	ModeMock ModelMode = "mock"
)

// ParseModelMode accepts "real" or "mock", case-insensitively. Empty means mock.
func ParseModelMode(s string) (ModelMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(ModeMock):
		return ModeMock, nil
	case string(ModeReal):
		return ModeReal, nil
	default:
		return "", &ConfigError{Message: fmt.Sprintf("unknown model mode %q (want real or mock)", s)}
	}
}

// TierSettings is the generation budget for one tier.
type TierSettings struct {
	Model           string `json:"model"`
	MaxOutputTokens int32  `json:"maxOutputTokens"`
	RetrievalLimit  int    `json:"retrievalLimit"`
}

// Config holds the model configuration for the application.
// It is read-only once a run starts.
type Config struct {
	Tiers map[types.Tier]TierSettings
}

// DefaultConfig returns the default Gemini tier table.
func DefaultConfig() *Config {
	return &Config{
		Tiers: map[types.Tier]TierSettings{
			types.TierSimple:  {Model: "gemini-2.5-flash-lite", MaxOutputTokens: 2048, RetrievalLimit: 6},
			types.TierMedium:  {Model: "gemini-2.5-flash", MaxOutputTokens: 4096, RetrievalLimit: 8},
			types.TierComplex: {Model: "gemini-2.5-pro", MaxOutputTokens: 8192, RetrievalLimit: 8},
		},
	}
}

// For returns the settings for a tier, falling back to MEDIUM and then SIMPLE.
func (c *Config) For(tier types.Tier) TierSettings {
	if s, ok := c.Tiers[tier]; ok {
		return s
	}
	if s, ok := c.Tiers[types.TierMedium]; ok {
		return s
	}
	return c.Tiers[types.TierSimple]
}

// WithModel returns a new Config with a specific model for a tier
func (c *Config) WithModel(tier types.Tier, model string) *Config {
	next := &Config{Tiers: make(map[types.Tier]TierSettings, len(c.Tiers))}
	for k, v := range c.Tiers {
		next.Tiers[k] = v
	}
	s := next.For(tier)
	s.Model = model
	next.Tiers[tier] = s
	return next
}
