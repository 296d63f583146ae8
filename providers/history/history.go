package history

import (
	"context"
	"errors"
	"time"

	"github.com/leofalp/uigen/core/retry"
)

// ErrNotFound is returned by Get for an unknown run id.
var ErrNotFound = errors.New("run not found")

// Record is one persisted run. Result holds the complete report, attempts
// included; the other fields are denormalized for filtering.
type Record struct {
	RunID     string        `json:"run_id"`
	Task      string        `json:"task"`
	PromptKey string        `json:"prompt_key,omitempty"`
	Succeeded bool          `json:"succeeded"`
	State     retry.State   `json:"state"`
	Attempts  int           `json:"attempts"`
	FixRate   *float64      `json:"fix_rate,omitempty"`
	Elapsed   time.Duration `json:"elapsed"`
	CreatedAt time.Time     `json:"created_at"`
	Result    *retry.Result `json:"result,omitempty"`
}

// NewRecord summarizes result for storage.
func NewRecord(task, promptKey string, result *retry.Result, createdAt time.Time) Record {
	return Record{
		RunID:     result.RunID,
		Task:      task,
		PromptKey: promptKey,
		Succeeded: result.Succeeded,
		State:     result.State,
		Attempts:  len(result.Attempts),
		FixRate:   result.FixRate,
		Elapsed:   result.Elapsed,
		CreatedAt: createdAt.UTC(),
		Result:    result,
	}
}

// Components counts the components of the final schema. It is zero for a
// failed run or a record listed without its result.
func (r Record) Components() int {
	if r.Result == nil || r.Result.FinalSchema == nil {
		return 0
	}
	return r.Result.FinalSchema.Root.Count()
}

// Filter narrows List. Zero values match everything.
type Filter struct {
	// Limit caps the number of records; zero means no limit.
	Limit     int
	Succeeded *bool
	State     retry.State
}

// Matches reports whether record passes the filter, ignoring Limit.
func (f Filter) Matches(record Record) bool {
	if f.Succeeded != nil && record.Succeeded != *f.Succeeded {
		return false
	}
	if f.State != "" && record.State != f.State {
		return false
	}
	return true
}

// Stats aggregates every stored run.
type Stats struct {
	Runs            int     `json:"runs"`
	Succeeded       int     `json:"succeeded"`
	AverageAttempts float64 `json:"average_attempts"`
	// AverageFixRate is nil when no stored run has a fix rate.
	AverageFixRate *float64 `json:"average_fix_rate,omitempty"`
}

// SuccessRate returns Succeeded / Runs, or 0 with no runs.
func (s Stats) SuccessRate() float64 {
	if s.Runs == 0 {
		return 0
	}
	return float64(s.Succeeded) / float64(s.Runs)
}

// ComputeStats aggregates records in memory.
func ComputeStats(records []Record) Stats {
	var stats Stats
	attempts := 0
	fixRates, fixRateSum := 0, 0.0
	for _, record := range records {
		stats.Runs++
		if record.Succeeded {
			stats.Succeeded++
		}
		attempts += record.Attempts
		if record.FixRate != nil {
			fixRates++
			fixRateSum += *record.FixRate
		}
	}
	if stats.Runs > 0 {
		stats.AverageAttempts = float64(attempts) / float64(stats.Runs)
	}
	if fixRates > 0 {
		average := fixRateSum / float64(fixRates)
		stats.AverageFixRate = &average
	}
	return stats
}

// Provider stores run records. Implementations must be safe for concurrent
// use. Saving a run id twice replaces the earlier record.
type Provider interface {
	Save(ctx context.Context, record Record) error
	Get(ctx context.Context, runID string) (*Record, error)
	// List returns matching records, newest first.
	List(ctx context.Context, filter Filter) ([]Record, error)
	Stats(ctx context.Context) (Stats, error)
}
