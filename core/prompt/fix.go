package prompt

import (
	"fmt"
	"strings"

	"github.com/leofalp/uigen/core/schema"
	"github.com/leofalp/uigen/internal/utils"
)

// DefaultMaxOutputChars bounds the previous output quoted in a fix prompt.
const DefaultMaxOutputChars = 4000

// FixInput is what the corrective prompt is built from.
type FixInput struct {
	// Task is the original task text. It is repeated verbatim.
	Task           string
	PreviousOutput string
	Errors         []schema.ValidationError
	// MaxOutputChars bounds PreviousOutput. Zero uses DefaultMaxOutputChars.
	MaxOutputChars int
}

// FixPrompt renders the prompt sent after a failed attempt: the original
// task, a marker saying the previous attempt was invalid, the previous output
// (truncated when long) and one bullet per error in the given order.
func FixPrompt(in FixInput) (string, error) {
	limit := in.MaxOutputChars
	if limit <= 0 {
		limit = DefaultMaxOutputChars
	}

	data := struct {
		Task           string
		PreviousOutput string
		Errors         []schema.ValidationError
	}{
		Task:           in.Task,
		PreviousOutput: utils.TruncateString(strings.TrimSpace(in.PreviousOutput), limit),
		Errors:         in.Errors,
	}
	if data.PreviousOutput == "" {
		data.PreviousOutput = "(empty response)"
	}

	var out strings.Builder
	if err := templates.ExecuteTemplate(&out, "fix", data); err != nil {
		return "", fmt.Errorf("render fix prompt: %w", err)
	}
	return out.String(), nil
}
