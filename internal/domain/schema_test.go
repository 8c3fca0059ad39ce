package domain_test

import (
	"encoding/json"
	"testing"

	"github.com/bkyoung/doc-analyzer/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSchema() domain.Schema {
	return domain.Schema{
		Title: "TableAnalysis",
		Properties: map[string]domain.Property{
			"markdown":   {Type: "string", Description: "Table rendered as markdown"},
			"confidence": {Type: "number"},
		},
		Required: []string{"markdown"},
	}
}

func TestSchema_Document(t *testing.T) {
	t.Run("serializes to a JSON Schema object", func(t *testing.T) {
		data, err := testSchema().Document()
		require.NoError(t, err)

		var doc map[string]any
		require.NoError(t, json.Unmarshal(data, &doc))

		assert.Equal(t, "object", doc["type"])
		assert.Equal(t, "TableAnalysis", doc["title"])

		props, ok := doc["properties"].(map[string]any)
		require.True(t, ok)
		assert.Contains(t, props, "markdown")
		assert.Contains(t, props, "confidence")

		assert.Equal(t, []any{"markdown"}, doc["required"])
	})

	t.Run("rejects a schema without properties", func(t *testing.T) {
		_, err := domain.Schema{Title: "Empty"}.Document()
		assert.Error(t, err)
	})
}

func TestSchema_MissingRequired(t *testing.T) {
	schema := testSchema()

	tests := []struct {
		name    string
		payload map[string]any
		missing []string
	}{
		{"all present", map[string]any{"markdown": "| a |"}, nil},
		{"required absent", map[string]any{"confidence": 0.9}, []string{"markdown"}},
		{"empty payload", map[string]any{}, []string{"markdown"}},
		{"mistyped value still counts as present", map[string]any{"markdown": 42}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.missing, schema.MissingRequired(tt.payload))
		})
	}
}

func TestParseSchema(t *testing.T) {
	t.Run("round-trips a serialized schema", func(t *testing.T) {
		data, err := testSchema().Document()
		require.NoError(t, err)

		parsed, err := domain.ParseSchema(data)
		require.NoError(t, err)

		assert.Equal(t, "TableAnalysis", parsed.Title)
		assert.Equal(t, []string{"markdown"}, parsed.Required)
		assert.Equal(t, "string", parsed.Properties["markdown"].Type)
	})

	t.Run("rejects non-object schemas", func(t *testing.T) {
		_, err := domain.ParseSchema([]byte(`{"type":"array","properties":{"x":{"type":"string"}}}`))
		assert.Error(t, err)
	})

	t.Run("rejects invalid JSON", func(t *testing.T) {
		_, err := domain.ParseSchema([]byte(`{`))
		assert.Error(t, err)
	})

	t.Run("rejects a schema without properties", func(t *testing.T) {
		_, err := domain.ParseSchema([]byte(`{"type":"object"}`))
		assert.Error(t, err)
	})
}
