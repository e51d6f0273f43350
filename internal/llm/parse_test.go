package llm

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseResponse(t *testing.T) {
	t.Run("ok with fence", func(t *testing.T) {
		p := ParseResponse("```json\n{\"a\": 1}\n```", nil)
		require.Equal(t, ParsedOK, p.Outcome)
		obj, err := p.Result()
		require.NoError(t, err)
		assert.Equal(t, float64(1), obj["a"])
		assert.JSONEq(t, `{"a":1}`, string(p.JSON))
	})

	t.Run("invalid json", func(t *testing.T) {
		p := ParseResponse("{not json", nil)
		assert.Equal(t, ParsedInvalidJSON, p.Outcome)
		_, err := p.Result()
		var pe *ParseError
		assert.ErrorAs(t, err, &pe)
		assert.True(t, IsFatalOutput(err))
		assert.False(t, IsTransient(err))
	})

	t.Run("array is a schema error", func(t *testing.T) {
		p := ParseResponse(`[1,2]`, nil)
		assert.Equal(t, ParsedSchemaMismatch, p.Outcome)
		var se *SchemaError
		assert.ErrorAs(t, p.Err, &se)
	})

	t.Run("validator failure", func(t *testing.T) {
		cause := errors.New("missing optimizedResume")
		p := ParseResponse(`{}`, func([]byte) error { return cause })
		assert.Equal(t, ParsedSchemaMismatch, p.Outcome)
		assert.ErrorIs(t, p.Err, cause)
		assert.Equal(t, "schema_error", p.Outcome.String())
	})
}
