package retry

import (
	"time"

	"github.com/leofalp/uigen/core/schema"
)

// Attempt is one generate → extract → validate cycle.
type Attempt struct {
	// Index starts at 1.
	Index int `json:"index"`
	// Prompt is the user prompt sent for this attempt.
	Prompt      string `json:"prompt"`
	RawResponse string `json:"raw_response"`
	// Extracted is the decoded candidate when the reply held a JSON object
	// shaped like a schema, valid or not.
	Extracted  *schema.UISchema        `json:"extracted,omitempty"`
	Validation schema.ValidationResult `json:"validation"`
	Elapsed    time.Duration           `json:"elapsed"`
}

// Succeeded reports whether the attempt validated.
func (a Attempt) Succeeded() bool {
	return a.Validation.Valid
}

// Result reports a finished run. Attempts holds every attempt in order,
// including the one interrupted by cancellation or timeout.
type Result struct {
	RunID       string           `json:"run_id"`
	Attempts    []Attempt        `json:"attempts"`
	FinalSchema *schema.UISchema `json:"final_schema,omitempty"`
	Succeeded   bool             `json:"succeeded"`
	// FixRate is nil when fewer than two attempts failed.
	FixRate *float64      `json:"fix_rate,omitempty"`
	State   State         `json:"state"`
	Elapsed time.Duration `json:"elapsed"`
}

// LastAttempt returns the final attempt, or nil for an empty result.
func (r *Result) LastAttempt() *Attempt {
	if r == nil || len(r.Attempts) == 0 {
		return nil
	}
	return &r.Attempts[len(r.Attempts)-1]
}

// ErrorCounts returns the number of validation errors of every attempt.
func (r *Result) ErrorCounts() []int {
	counts := make([]int, len(r.Attempts))
	for i, attempt := range r.Attempts {
		counts[i] = len(attempt.Validation.Errors)
	}
	return counts
}

// FixRate measures how much consecutive failing attempts improved. Given
// the error counts f1..fk of the failing attempts, it is the sum of
// max(0, f_i − f_{i+1}) divided by f1, clamped to [0, 1]. It returns nil
// when fewer than two attempts failed, or when the first failure had no
// countable errors.
func FixRate(attempts []Attempt) *float64 {
	var failing []int
	for _, attempt := range attempts {
		if !attempt.Validation.Valid {
			failing = append(failing, len(attempt.Validation.Errors))
		}
	}
	if len(failing) < 2 || failing[0] == 0 {
		return nil
	}

	resolved := 0
	for i := 0; i+1 < len(failing); i++ {
		if delta := failing[i] - failing[i+1]; delta > 0 {
			resolved += delta
		}
	}

	rate := float64(resolved) / float64(failing[0])
	rate = min(max(rate, 0), 1)
	return &rate
}
