package prompt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilder_Sections(t *testing.T) {
	b := NewBuilder("Create a signup form",
		WithLanguage("Italian"),
		WithCatalogDocs("2.0.0", "- Button: a clickable control"),
		WithExamples(`{"version":"1.0","root":{"id":"r","type":"Stack"}}`),
		WithDesignTokens(map[string]string{"color.primary": "#0055ff", "space.md": "16px"}),
	)

	sections, err := b.Sections()
	require.NoError(t, err)

	names := make([]string, 0, len(sections))
	for _, s := range sections {
		names = append(names, s.Name)
	}
	assert.Equal(t, []string{SectionTask, SectionOutputFormat, SectionCatalog, SectionExamples, SectionDesignTokens}, names)

	assert.Contains(t, sections[0].Content, "Create a signup form")
	assert.Contains(t, sections[1].Content, "Write all user-visible text in Italian.")
	assert.Contains(t, sections[2].Content, "(version 2.0.0)")
	assert.Contains(t, sections[3].Content, "Example 1:")
	assert.Contains(t, sections[4].Content, "- color.primary: #0055ff\n- space.md: 16px")
}

func TestBuilder_OptionalSectionsOmitted(t *testing.T) {
	sections, err := NewBuilder("Make a card").Sections()
	require.NoError(t, err)
	require.Len(t, sections, 2)
	assert.NotContains(t, sections[1].Content, "Write all user-visible text")
}

func TestBuilder_CatalogHTML(t *testing.T) {
	result, err := NewBuilder("Make a card", WithCatalogHTML("1.0.0", "<ul><li>Card</li></ul>")).Build()
	require.NoError(t, err)
	assert.True(t, result.Includes(SectionCatalog))
	assert.Contains(t, result.Text, "- Card")
	assert.NotContains(t, result.Text, "<li>")
}

func TestBuilder_BudgetDropsDesignTokensFirst(t *testing.T) {
	b := NewBuilder("Make a card",
		WithDesignTokens(map[string]string{"color.primary": "#0055ff"}),
		WithExamples("example reply"),
	)
	full, err := b.Build()
	require.NoError(t, err)

	tokensSection := full.TotalTokens
	trimmed, err := NewBuilder("Make a card",
		WithDesignTokens(map[string]string{"color.primary": "#0055ff"}),
		WithExamples("example reply"),
		WithTokenBudget(tokensSection-1),
	).Build()
	require.NoError(t, err)
	assert.False(t, trimmed.Includes(SectionDesignTokens))
	assert.True(t, trimmed.Includes(SectionExamples))
	assert.True(t, trimmed.Includes(SectionTask))
}

func TestBuilder_Key(t *testing.T) {
	newBuilder := func(opts ...BuilderOption) *Builder {
		base := []BuilderOption{
			WithCatalogDocs("1.0.0", "docs"),
			WithTokenBudget(1000),
			WithLanguage("English"),
		}
		return NewBuilder("Create a form", append(base, opts...)...)
	}

	key := newBuilder().Key()
	assert.Len(t, key, 64)
	assert.Equal(t, key, newBuilder().Key(), "same inputs must give the same key")

	variants := map[string]*Builder{
		"task":          NewBuilder("Create a table", WithCatalogDocs("1.0.0", "docs"), WithTokenBudget(1000), WithLanguage("English")),
		"budget":        newBuilder(WithTokenBudget(999)),
		"language":      newBuilder(WithLanguage("German")),
		"catalog":       newBuilder(WithCatalogDocs("1.1.0", "docs")),
		"examples":      newBuilder(WithExamples("x")),
		"design tokens": newBuilder(WithDesignTokens(map[string]string{"a": "b"})),
	}
	for name, variant := range variants {
		assert.NotEqual(t, key, variant.Key(), "changing %s must change the key", name)
	}
}

func TestBuilder_KeyIgnoresMapOrder(t *testing.T) {
	a := NewBuilder("t", WithDesignTokens(map[string]string{"a": "1", "b": "2", "c": "3"}))
	b := NewBuilder("t", WithDesignTokens(map[string]string{"c": "3", "b": "2", "a": "1"}))
	assert.Equal(t, a.Key(), b.Key())
}
