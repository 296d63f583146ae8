package prompt

import (
	"fmt"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
)

// Section is an atomic part of a prompt. Lower priorities are dropped first
// when the prompt does not fit its budget.
type Section struct {
	Name            string `json:"name"`
	Priority        int    `json:"priority"`
	Content         string `json:"content"`
	EstimatedTokens int    `json:"estimated_tokens"`
}

// NewSection returns a section with EstimatedTokens filled in.
func NewSection(name string, priority int, content string) Section {
	return Section{
		Name:            name,
		Priority:        priority,
		Content:         content,
		EstimatedTokens: EstimateTokens(content),
	}
}

// HTMLSection converts html to markdown and returns it as a section. Component
// documentation is often authored as HTML; markdown is both shorter and easier
// for the model to follow.
func HTMLSection(name string, priority int, html string) (Section, error) {
	markdown, err := htmltomarkdown.ConvertString(html)
	if err != nil {
		return Section{}, fmt.Errorf("convert section %q to markdown: %w", name, err)
	}
	return NewSection(name, priority, strings.TrimSpace(markdown)), nil
}
