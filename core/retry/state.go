package retry

// State is a step of a run's state machine:
//
//	Idle → Generating → Extracting → Validating → Success
//	                                             → Retrying → Generating …
//	                                             → Exhausted | TimedOut | Cancelled
type State string

const (
	StateIdle       State = "idle"
	StateGenerating State = "generating"
	StateExtracting State = "extracting"
	StateValidating State = "validating"
	StateRetrying   State = "retrying"
	StateSuccess    State = "success"
	StateExhausted  State = "exhausted"
	StateTimedOut   State = "timed_out"
	StateCancelled  State = "cancelled"
)

// Terminal reports whether a run ends in s.
func (s State) Terminal() bool {
	switch s {
	case StateSuccess, StateExhausted, StateTimedOut, StateCancelled:
		return true
	}
	return false
}

// StateHook observes transitions. It runs on the goroutine calling Run and
// must not block.
type StateHook func(runID string, from, to State)
