// Package retry drives the generate → extract → validate loop that turns
// model completions into a valid schema.UISchema.
//
// An [Orchestrator] runs one attempt at a time. Each failed attempt feeds its
// path-addressed validation errors into a corrective prompt for the next one,
// until an attempt validates, MaxAttempts is reached, TotalTimeout elapses or
// the caller cancels. Malformed model output never surfaces as a Go error: it
// is recorded on the [Attempt] and reported in the [Result]. Only invalid
// configuration fails Run before the first attempt.
//
// Orchestrators hold no per-run state and may be shared by concurrent runs.
package retry
