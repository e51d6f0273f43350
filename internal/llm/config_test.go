package llm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/resume-optimizer/internal/types"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, TierSettings{Model: "gemini-2.5-flash-lite", MaxOutputTokens: 2048, RetrievalLimit: 6}, cfg.For(types.TierSimple))
	assert.Equal(t, TierSettings{Model: "gemini-2.5-flash", MaxOutputTokens: 4096, RetrievalLimit: 8}, cfg.For(types.TierMedium))
	assert.Equal(t, TierSettings{Model: "gemini-2.5-pro", MaxOutputTokens: 8192, RetrievalLimit: 8}, cfg.For(types.TierComplex))
}

func TestFor_Fallback(t *testing.T) {
	cfg := &Config{Tiers: map[types.Tier]TierSettings{types.TierSimple: {Model: "only"}}}
	assert.Equal(t, "only", cfg.For(types.TierComplex).Model)
}

func TestWithModel(t *testing.T) {
	original := DefaultConfig()
	updated := original.WithModel(types.TierComplex, "custom-pro")

	assert.Equal(t, "custom-pro", updated.For(types.TierComplex).Model)
	assert.Equal(t, int32(8192), updated.For(types.TierComplex).MaxOutputTokens)
	assert.Equal(t, "gemini-2.5-pro", original.For(types.TierComplex).Model)
}

func TestParseModelMode(t *testing.T) {
	mode, err := ParseModelMode("REAL")
	require.NoError(t, err)
	assert.Equal(t, ModeReal, mode)

	mode, err = ParseModelMode("")
	require.NoError(t, err)
	assert.Equal(t, ModeMock, mode)

	_, err = ParseModelMode("fake")
	var ce *ConfigError
	assert.ErrorAs(t, err, &ce)
}

func TestNewGenerator(t *testing.T) {
	_, err := NewGenerator(context.Background(), ModeReal, "")
	var ce *ConfigError
	require.ErrorAs(t, err, &ce)
	assert.Contains(t, err.Error(), "GEMINI_API_KEY")

	g, err := NewGenerator(context.Background(), ModeMock, "")
	require.NoError(t, err)
	assert.IsType(t, &MockGenerator{}, g)
	assert.NoError(t, Close(g))
}
