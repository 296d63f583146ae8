package parse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractBlocks(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    []string
		format  Format
		wantLen int
	}{
		{
			name:    "single json fence",
			input:   "Here you go:\n```json\n{\"a\":1}\n```\nThanks",
			want:    []string{"{\"a\":1}\n"},
			format:  FormatJSON,
			wantLen: 1,
		},
		{
			name:    "json tag is case-insensitive",
			input:   "```JSON\n[1,2]\n```",
			want:    []string{"[1,2]\n"},
			format:  FormatJSON,
			wantLen: 1,
		},
		{
			name:    "tagged fences win over generic ones",
			input:   "```\n{\"generic\":true}\n```\ntext\n```json\n{\"tagged\":true}\n```",
			want:    []string{"{\"tagged\":true}\n"},
			format:  FormatJSON,
			wantLen: 1,
		},
		{
			name:    "generic fences when no tagged ones",
			input:   "```\n{\"a\":1}\n```\nand\n```\n  [2]\n```\n```\nplain text\n```",
			want:    []string{"{\"a\":1}\n", "  [2]\n"},
			format:  FormatGeneric,
			wantLen: 2,
		},
		{
			name:    "other languages are ignored",
			input:   "```python\nprint({'a': 1})\n```",
			wantLen: 0,
		},
		{
			name:    "no guessing outside fences",
			input:   "The answer is {\"a\": 1} obviously",
			wantLen: 0,
		},
		{
			name:    "unterminated fence",
			input:   "```json\n{\"a\":1}",
			wantLen: 0,
		},
		{
			name:    "single-line fence",
			input:   "inline ```json {\"a\":1}``` done",
			want:    []string{" {\"a\":1}"},
			format:  FormatJSON,
			wantLen: 1,
		},
		{
			name:    "stray marker in prose before a tagged fence",
			input:   "Wrap the output in ``` fences as asked.\n```json\n{\"version\":\"1.0\",\"root\":{\"id\":\"a\",\"type\":\"Button\"}}\n```\n",
			want:    []string{"{\"version\":\"1.0\",\"root\":{\"id\":\"a\",\"type\":\"Button\"}}\n"},
			format:  FormatJSON,
			wantLen: 1,
		},
		{
			name:    "tagged fence after another language",
			input:   "```python\nx = 1\n```\nthen\n```json\n{\"a\":1}\n```",
			want:    []string{"{\"a\":1}\n"},
			format:  FormatJSON,
			wantLen: 1,
		},
		{
			name:    "body indentation is kept verbatim",
			input:   "```json\n    {\n      \"a\": 1\n    }\n```",
			want:    []string{"    {\n      \"a\": 1\n    }\n"},
			format:  FormatJSON,
			wantLen: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			blocks := ExtractBlocks(tt.input)
			require.Len(t, blocks, tt.wantLen)
			for i, block := range blocks {
				assert.Equal(t, tt.want[i], block.Content)
				assert.Equal(t, tt.format, block.Format)
				assert.Equal(t, block.Content, tt.input[block.Start:block.End])
			}
		})
	}
}

func TestExtractBlocks_OrderAndOffsets(t *testing.T) {
	input := "a\n```json\n{\"n\":1}\n```\nb\n```json\n{\"n\":2}\n```\nc\n```json\n{\"n\":3}\n```"

	blocks := ExtractBlocks(input)
	require.Len(t, blocks, 3)
	for i := 1; i < len(blocks); i++ {
		assert.Less(t, blocks[i-1].End, blocks[i].Start)
	}
	assert.Equal(t, "{\"n\":1}\n", blocks[0].Content)
	assert.Equal(t, "{\"n\":3}\n", blocks[2].Content)
}
