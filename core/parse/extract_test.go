package parse

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leofalp/uigen/core/schema"
)

func fenced(body string) string {
	return "```json\n" + body + "\n```"
}

func TestExtractJSON(t *testing.T) {
	t.Run("empty input is invalid input", func(t *testing.T) {
		_, err := ExtractJSON("   \n\t")
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("no blocks", func(t *testing.T) {
		_, err := ExtractJSON("not json")
		assert.ErrorIs(t, err, ErrNoBlocks)
		assert.EqualError(t, err, "no JSON blocks found")
	})

	t.Run("stray marker in prose", func(t *testing.T) {
		value, err := ExtractJSON("Use ``` fences.\n" + fenced(`{"ok": true}`))
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"ok": true}, value)
	})

	t.Run("malformed block does not abort the scan", func(t *testing.T) {
		input := fenced(`{"broken": }`) + "\nretry:\n" + fenced(`{"ok": true}`)
		value, err := ExtractJSON(input)
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"ok": true}, value)
	})

	t.Run("all blocks malformed", func(t *testing.T) {
		input := fenced(`{"a": }`) + fenced(`{`)
		_, err := ExtractJSON(input)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrParseFailed)

		var blockErr *BlockError
		require.True(t, errors.As(err, &blockErr))
		assert.Equal(t, 0, blockErr.Index)
		assert.Equal(t, 2, blockErr.Total)
		assert.Contains(t, err.Error(), "failed to parse block 0")
	})

	t.Run("repair fixes sloppy JSON", func(t *testing.T) {
		input := fenced(`{'name': 'John', 'age': 30,}`)

		_, err := ExtractJSON(input)
		require.Error(t, err)

		value, err := ExtractJSON(input, WithRepair())
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"name": "John", "age": float64(30)}, value)
	})
}

func TestExtractAllJSON_Completeness(t *testing.T) {
	for n := 0; n <= 5; n++ {
		t.Run(fmt.Sprintf("%d blocks", n), func(t *testing.T) {
			var text strings.Builder
			text.WriteString("Intro prose.\n")
			for i := 0; i < n; i++ {
				text.WriteString(fenced(fmt.Sprintf(`{"index": %d, "nested": {"list": [%d]}}`, i, i)))
				text.WriteString(fmt.Sprintf("\nSome prose between block %d and the next.\n", i))
			}

			values := ExtractAllJSON(text.String())
			require.Len(t, values, n)
			for i, value := range values {
				assert.Equal(t, float64(i), value.(map[string]any)["index"])
			}
		})
	}
}

func TestExtractAllJSON_SkipsUnparseable(t *testing.T) {
	input := fenced(`{"a":1}`) + "\n" + fenced(`nope`) + "\n" + fenced(`[true]`)
	values := ExtractAllJSON(input)
	assert.Equal(t, []any{map[string]any{"a": float64(1)}, []any{true}}, values)
}

func TestExtractUISchema(t *testing.T) {
	t.Run("injects default version", func(t *testing.T) {
		got, ok := ExtractUISchema(fenced(`{"root":{"id":"r","type":"Stack"}}`))
		require.True(t, ok)
		assert.Equal(t, schema.DefaultVersion, got.Version)
		assert.Equal(t, "Stack", got.Root.Type)
	})

	t.Run("keeps explicit version", func(t *testing.T) {
		got, ok := ExtractUISchema(fenced(`{"version":"2.1","root":{"id":"r","type":"Stack"}}`))
		require.True(t, ok)
		assert.Equal(t, "2.1", got.Version)
	})

	t.Run("skips blocks without a minimal root", func(t *testing.T) {
		input := fenced(`{"root":{"type":"Button"}}`) + fenced(`{"root":{"id":"b","type":"Button"}}`)
		got, ok := ExtractUISchema(input)
		require.True(t, ok)
		assert.Equal(t, "b", got.Root.ID)
	})

	t.Run("none", func(t *testing.T) {
		_, ok := ExtractUISchema(fenced(`{"root":{"type":"Button"}}`))
		assert.False(t, ok)
	})
}

func TestExtractCandidate(t *testing.T) {
	input := fenced(`[1]`) + fenced(`{bad`) + fenced(`{"version":"1.0"}`)
	candidate, err := ExtractCandidate(input)
	require.NoError(t, err)
	assert.Equal(t, 2, candidate.Index)

	candidate, err = ExtractCandidate(fenced(`"just a string"`))
	require.NoError(t, err)
	assert.Equal(t, "just a string", candidate.Value)

	_, err = ExtractCandidate(fenced(`{bad`))
	assert.ErrorIs(t, err, ErrParseFailed)
}

// Wrapping a valid schema in a fence and running extraction plus validation
// must give back the same schema.
func TestRoundTrip(t *testing.T) {
	schemas := []schema.UISchema{
		{
			Version: "1.0",
			Root:    schema.Component{ID: "root", Type: "Button", Text: "Save"},
		},
		{
			Version: "1.2",
			Root: schema.Component{
				ID:    "page",
				Type:  "Stack",
				Props: map[string]any{"gap": float64(8), "direction": "vertical", "wrap": false},
				Children: []schema.Component{
					{ID: "title", Type: "Text", Text: "Settings"},
					{ID: "row", Type: "Row", Children: []schema.Component{
						{ID: "ok", Type: "Button", Props: map[string]any{"variant": "primary"}},
						{ID: "cancel", Type: "Button"},
					}},
				},
			},
			Data: map[string]any{"user": map[string]any{"name": "Ada"}},
		},
	}

	validator := schema.NewValidator()
	for _, want := range schemas {
		t.Run(want.Root.ID, func(t *testing.T) {
			encoded, err := json.Marshal(want)
			require.NoError(t, err)

			value, err := ExtractJSON("Sure!\n```json\n" + string(encoded) + "\n```\nLet me know.")
			require.NoError(t, err)

			result := validator.Validate(value)
			require.True(t, result.Valid, result.Summary())

			got, err := schema.Decode(value)
			require.NoError(t, err)
			assert.Equal(t, want, *got)
		})
	}
}
