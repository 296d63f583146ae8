package prompt

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Standard section names, in prompt order.
const (
	SectionTask         = "task"
	SectionOutputFormat = "output_format"
	SectionCatalog      = "catalog"
	SectionExamples     = "examples"
	SectionDesignTokens = "design_tokens"
)

// Standard section priorities. The task is the last section to be dropped.
const (
	PriorityTask         = 100
	PriorityOutputFormat = 80
	PriorityCatalog      = 60
	PriorityExamples     = 40
	PriorityDesignTokens = 20
)

// Builder assembles the standard sections for a UI generation task.
type Builder struct {
	task           string
	language       string
	tokenBudget    int
	catalogVersion string
	catalogDocs    string
	catalogIsHTML  bool
	examples       []string
	designTokens   map[string]string
}

// BuilderOption configures a Builder.
type BuilderOption func(*Builder)

// WithLanguage asks the model to write user-visible text in language.
func WithLanguage(language string) BuilderOption {
	return func(b *Builder) {
		b.language = language
	}
}

// WithTokenBudget sets the budget passed to Build. Zero means unlimited.
func WithTokenBudget(budget int) BuilderOption {
	return func(b *Builder) {
		b.tokenBudget = budget
	}
}

// WithCatalogDocs adds the markdown documentation of the component catalog.
func WithCatalogDocs(version, markdown string) BuilderOption {
	return func(b *Builder) {
		b.catalogVersion = version
		b.catalogDocs = markdown
		b.catalogIsHTML = false
	}
}

// WithCatalogHTML adds catalog documentation authored as HTML. It is
// converted to markdown when the prompt is built.
func WithCatalogHTML(version, html string) BuilderOption {
	return func(b *Builder) {
		b.catalogVersion = version
		b.catalogDocs = html
		b.catalogIsHTML = true
	}
}

// WithExamples adds few-shot examples, each one a complete reply.
func WithExamples(examples ...string) BuilderOption {
	return func(b *Builder) {
		b.examples = append(b.examples, examples...)
	}
}

// WithDesignTokens adds a summary of the design tokens components may use.
func WithDesignTokens(tokens map[string]string) BuilderOption {
	return func(b *Builder) {
		if b.designTokens == nil {
			b.designTokens = make(map[string]string, len(tokens))
		}
		for name, value := range tokens {
			b.designTokens[name] = value
		}
	}
}

// NewBuilder returns a Builder for task.
func NewBuilder(task string, opts ...BuilderOption) *Builder {
	b := &Builder{task: task}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Task returns the task text, unchanged.
func (b *Builder) Task() string {
	return b.task
}

// Sections returns the standard sections in prompt order. Optional sections
// with no content are left out.
func (b *Builder) Sections() ([]Section, error) {
	sections := []Section{NewSection(SectionTask, PriorityTask, "## Task\n"+b.task)}

	var format strings.Builder
	if err := templates.ExecuteTemplate(&format, "format", struct{ Language string }{b.language}); err != nil {
		return nil, fmt.Errorf("render output format section: %w", err)
	}
	sections = append(sections, NewSection(SectionOutputFormat, PriorityOutputFormat, format.String()))

	if strings.TrimSpace(b.catalogDocs) != "" {
		docs := b.catalogDocs
		if b.catalogIsHTML {
			converted, err := HTMLSection(SectionCatalog, PriorityCatalog, docs)
			if err != nil {
				return nil, err
			}
			docs = converted.Content
		}
		header := "## Component catalog"
		if b.catalogVersion != "" {
			header += " (version " + b.catalogVersion + ")"
		}
		sections = append(sections, NewSection(SectionCatalog, PriorityCatalog, header+"\n"+docs))
	}

	if len(b.examples) > 0 {
		var examples strings.Builder
		examples.WriteString("## Examples")
		for i, example := range b.examples {
			fmt.Fprintf(&examples, "\n\nExample %d:\n%s", i+1, strings.TrimSpace(example))
		}
		sections = append(sections, NewSection(SectionExamples, PriorityExamples, examples.String()))
	}

	if len(b.designTokens) > 0 {
		var tokens strings.Builder
		tokens.WriteString("## Design tokens\nUse these token names in props instead of raw values:")
		for _, name := range sortedKeys(b.designTokens) {
			fmt.Fprintf(&tokens, "\n- %s: %s", name, b.designTokens[name])
		}
		sections = append(sections, NewSection(SectionDesignTokens, PriorityDesignTokens, tokens.String()))
	}

	return sections, nil
}

// Build builds the prompt under the configured token budget.
func (b *Builder) Build() (BuildResult, error) {
	sections, err := b.Sections()
	if err != nil {
		return BuildResult{}, err
	}
	return Build(sections, b.tokenBudget), nil
}

// Key returns a hex SHA-256 digest of every input that affects the built
// text. Two builders with the same inputs always share a key.
func (b *Builder) Key() string {
	h := sha256.New()
	write := func(field, value string) {
		// Length-prefixed so adjacent fields cannot run into each other.
		fmt.Fprintf(h, "%s:%d:%s;", field, len(value), value)
	}

	write("task", b.task)
	write("catalog_version", b.catalogVersion)
	write("token_budget", strconv.Itoa(b.tokenBudget))
	write("language", b.language)
	write("catalog_docs", b.catalogDocs)
	write("catalog_html", strconv.FormatBool(b.catalogIsHTML))
	for _, example := range b.examples {
		write("example", example)
	}
	for _, name := range sortedKeys(b.designTokens) {
		write("design_token", name+"="+b.designTokens[name])
	}

	return hex.EncodeToString(h.Sum(nil))
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
