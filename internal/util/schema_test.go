package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type timeArgs struct {
	Timezone string `json:"timezone" description:"IANA timezone name" enum:"Asia/Seoul,UTC"`
	Verbose  bool   `json:"verbose,omitempty"`
	Count    *int   `json:"count,omitempty"`
}

func TestCreateSchema(t *testing.T) {
	schema := CreateSchema(timeArgs{})

	assert.Equal(t, "object", schema["type"])

	props := schema["properties"].(map[string]any)
	tz := props["timezone"].(map[string]any)
	assert.Equal(t, "string", tz["type"])
	assert.Equal(t, "IANA timezone name", tz["description"])
	assert.Equal(t, []any{"Asia/Seoul", "UTC"}, tz["enum"])

	require.Contains(t, schema, "required")
	assert.Equal(t, []string{"timezone"}, schema["required"])
}

func TestCreateSchemaNonStruct(t *testing.T) {
	schema := CreateSchema("not a struct")
	assert.Equal(t, "object", schema["type"])
	assert.Empty(t, schema["properties"])
}

func TestValidateParameters(t *testing.T) {
	schema := CreateSchema(timeArgs{})

	t.Run("valid", func(t *testing.T) {
		err := ValidateParameters(map[string]any{"timezone": "UTC"}, schema)
		assert.NoError(t, err)
	})

	t.Run("missing required", func(t *testing.T) {
		err := ValidateParameters(map[string]any{}, schema)
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "timezone", verr.Field)
	})

	t.Run("wrong type", func(t *testing.T) {
		err := ValidateParameters(map[string]any{"timezone": 7}, schema)
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "timezone", verr.Field)
	})

	t.Run("enum violation", func(t *testing.T) {
		err := ValidateParameters(map[string]any{"timezone": "Mars/Olympus"}, schema)
		assert.Error(t, err)
	})

	t.Run("json number as integer", func(t *testing.T) {
		schema := map[string]any{
			"type":       "object",
			"properties": map[string]any{"count": map[string]any{"type": "integer"}},
		}
		assert.NoError(t, ValidateParameters(map[string]any{"count": float64(3)}, schema))
		assert.Error(t, ValidateParameters(map[string]any{"count": 3.5}, schema))
	})

	t.Run("extra fields pass through", func(t *testing.T) {
		err := ValidateParameters(map[string]any{"timezone": "UTC", "unknown": 1}, schema)
		assert.NoError(t, err)
	})
}

func TestRenderTemplate(t *testing.T) {
	t.Run("no markers", func(t *testing.T) {
		out, err := RenderTemplate("plain text", nil)
		require.NoError(t, err)
		assert.Equal(t, "plain text", out)
	})

	t.Run("state substitution", func(t *testing.T) {
		out, err := RenderTemplate("Hello {{.name}}", map[string]any{"name": "world"})
		require.NoError(t, err)
		assert.Equal(t, "Hello world", out)
	})

	t.Run("default helper", func(t *testing.T) {
		out, err := RenderTemplate(`{{default "anon" .name}}`, map[string]any{})
		require.NoError(t, err)
		assert.Equal(t, "anon", out)
	})

	t.Run("parse error", func(t *testing.T) {
		_, err := RenderTemplate("{{.broken", nil)
		assert.Error(t, err)
	})
}
