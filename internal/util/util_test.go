package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateParameters(t *testing.T) {
	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"subject_id": map[string]any{"type": "string"},
			"limit":      map[string]any{"type": "integer"},
		},
		"required": []string{"subject_id"},
	}

	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, ValidateParameters(map[string]any{"subject_id": "s1", "limit": float64(3)}, schema))
	})

	t.Run("missing required", func(t *testing.T) {
		err := ValidateParameters(map[string]any{}, schema)
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "subject_id", verr.Field)
	})

	t.Run("empty required", func(t *testing.T) {
		assert.Error(t, ValidateParameters(map[string]any{"subject_id": ""}, schema))
	})

	t.Run("wrong type", func(t *testing.T) {
		err := ValidateParameters(map[string]any{"subject_id": "s1", "limit": 1.5}, schema)
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "limit", verr.Field)
	})

	t.Run("decoded required list", func(t *testing.T) {
		decoded := map[string]any{"required": []any{"subject_id"}}
		assert.Error(t, ValidateParameters(map[string]any{}, decoded))
	})
}

func TestRenderTemplate(t *testing.T) {
	out, err := RenderTemplate("no markers", nil)
	require.NoError(t, err)
	assert.Equal(t, "no markers", out)

	out, err = RenderTemplate(`Q: {{.query}} / {{default "none" .subject}}`, map[string]any{"query": "<math>"})
	require.NoError(t, err)
	assert.Equal(t, "Q: <math> / none", out)
}
