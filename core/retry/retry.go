package retry

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/leofalp/uigen/core/parse"
	"github.com/leofalp/uigen/core/prompt"
	"github.com/leofalp/uigen/core/schema"
	"github.com/leofalp/uigen/providers/ai"
	"github.com/leofalp/uigen/providers/observability"
)

// Orchestrator runs retry loops. It is safe for concurrent use.
type Orchestrator struct {
	config       Config
	hooks        []StateHook
	observer     observability.Provider
	limiter      *rate.Limiter
	validator    *schema.Validator
	parseOptions []parse.Option
}

// New returns an Orchestrator with DefaultConfig unless WithConfig is given.
func New(opts ...Option) *Orchestrator {
	o := &Orchestrator{
		config:    DefaultConfig(),
		validator: schema.NewValidator(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Config returns the effective configuration, defaults applied.
func (o *Orchestrator) Config() Config {
	return o.config.withDefaults()
}

// run is the mutable state of one Run call.
type run struct {
	*Orchestrator
	id     string
	config Config
	state  State
	start  time.Time
	span   observability.Span
}

// Run drives attempts until one validates or the run is bounded out. The
// returned error is non-nil only for invalid configuration or input, in which
// case no attempt is made. Every other outcome, cancellation included, is a
// Result with at least one attempt.
func (o *Orchestrator) Run(ctx context.Context, initialPrompt string, generate GenerateFunc) (*Result, error) {
	if err := o.config.Validate(); err != nil {
		return nil, err
	}
	if generate == nil {
		return nil, fmt.Errorf("%w: generate function is required", ErrInvalidConfig)
	}
	if strings.TrimSpace(initialPrompt) == "" {
		return nil, ErrEmptyPrompt
	}

	r := &run{
		Orchestrator: o,
		id:           uuid.NewString(),
		config:       o.config.withDefaults(),
		state:        StateIdle,
		start:        time.Now(),
	}

	if o.observer != nil {
		ctx = observability.ContextWithObserver(ctx, o.observer)
		ctx, r.span = o.observer.StartSpan(ctx, observability.SpanRetryRun,
			observability.String(observability.AttrRunID, r.id),
			observability.Int(observability.AttrMaxAttempts, r.config.MaxAttempts),
		)
		defer r.span.End()
		o.observer.Debug(ctx, "retry run started",
			observability.String(observability.AttrRunID, r.id),
			observability.Int(observability.AttrMaxAttempts, r.config.MaxAttempts),
			observability.Duration("uigen.total_timeout", r.config.TotalTimeout),
		)
	}

	result := r.loop(ctx, initialPrompt, generate)
	r.finish(ctx, result)
	return result, nil
}

func (r *run) loop(ctx context.Context, initialPrompt string, generate GenerateFunc) *Result {
	runCtx, cancel := context.WithTimeout(ctx, r.config.TotalTimeout)
	defer cancel()

	result := &Result{RunID: r.id}
	var history []ai.Message
	currentPrompt := initialPrompt

	for index := 1; ; index++ {
		attempt := r.attempt(ctx, runCtx, index, currentPrompt, history, generate)
		result.Attempts = append(result.Attempts, attempt)

		if attempt.Validation.Valid {
			result.Succeeded = true
			result.FinalSchema = attempt.Extracted
			r.transition(ctx, StateSuccess)
			return result
		}
		if stop := r.interruption(ctx, runCtx); stop != "" {
			r.transition(ctx, stop)
			return result
		}
		if index >= r.config.MaxAttempts {
			r.transition(ctx, StateExhausted)
			return result
		}
		if time.Since(r.start) >= r.config.TotalTimeout {
			r.transition(ctx, StateTimedOut)
			return result
		}

		r.transition(ctx, StateRetrying)
		if wait := r.config.backoff(index); wait > 0 {
			timer := time.NewTimer(wait)
			select {
			case <-runCtx.Done():
				timer.Stop()
				r.transition(ctx, r.interruption(ctx, runCtx))
				return result
			case <-timer.C:
			}
		}

		// History grows by copy so slices handed to earlier generate calls
		// never change underneath them.
		history = append(slices.Clip(history),
			ai.UserMessage(currentPrompt),
			ai.AssistantMessage(attempt.RawResponse),
		)
		currentPrompt = r.fixPrompt(ctx, initialPrompt, attempt)
	}
}

// interruption reports the terminal state a done context implies: Cancelled
// when the caller's context ended, TimedOut when only the run budget did.
func (r *run) interruption(ctx, runCtx context.Context) State {
	switch {
	case ctx.Err() != nil:
		return StateCancelled
	case runCtx.Err() != nil:
		return StateTimedOut
	}
	return ""
}

type generation struct {
	text string
	err  error
}

func (r *run) attempt(ctx, runCtx context.Context, index int, currentPrompt string, history []ai.Message, generate GenerateFunc) Attempt {
	started := time.Now()
	attempt := Attempt{Index: index, Prompt: currentPrompt}

	spanCtx := runCtx
	var span observability.Span
	if r.observer != nil {
		spanCtx, span = r.observer.StartSpan(runCtx, observability.SpanAttempt,
			observability.String(observability.AttrRunID, r.id),
			observability.Int(observability.AttrAttempt, index),
		)
		defer span.End()
	}

	r.transition(ctx, StateGenerating)
	text, err := r.generate(spanCtx, currentPrompt, history, generate)
	attempt.RawResponse = text

	if err != nil {
		attempt.Validation = r.generationFailure(ctx, runCtx, err)
	} else {
		attempt.Extracted, attempt.Validation = r.check(ctx, text)
	}
	attempt.Elapsed = time.Since(started)

	r.recordAttempt(ctx, span, attempt)
	return attempt
}

// generate waits for the rate limiter, then races the call against the
// per-attempt deadline. A call that ignores its context is abandoned, not
// waited for.
func (r *run) generate(ctx context.Context, currentPrompt string, history []ai.Message, generate GenerateFunc) (string, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, r.config.PerAttemptTimeout)
	defer cancel()

	if r.limiter != nil {
		if err := r.limiter.Wait(attemptCtx); err != nil {
			return "", errWaitLimiter{err}
		}
	}

	done := make(chan generation, 1)
	go func() {
		text, err := generate(attemptCtx, currentPrompt, slices.Clone(history))
		done <- generation{text: text, err: err}
	}()

	select {
	case out := <-done:
		if out.err == nil && attemptCtx.Err() != nil && ctx.Err() == nil {
			// Finished, but past the per-attempt deadline.
			return out.text, context.DeadlineExceeded
		}
		return out.text, out.err
	case <-attemptCtx.Done():
		return "", attemptCtx.Err()
	}
}

type errWaitLimiter struct{ err error }

func (e errWaitLimiter) Error() string { return "rate limiter: " + e.err.Error() }
func (e errWaitLimiter) Unwrap() error { return e.err }

// generationFailure classifies a failed generate call.
func (r *run) generationFailure(ctx, runCtx context.Context, err error) schema.ValidationResult {
	var limiterErr errWaitLimiter
	switch {
	case ctx.Err() != nil:
		return schema.Failure(schema.CodeCancelled, "", "run was cancelled during generation")
	case runCtx.Err() != nil:
		return schema.Failure(schema.CodeTimeout, "", fmt.Sprintf("total timeout of %s exceeded", r.config.TotalTimeout))
	case errors.Is(err, context.DeadlineExceeded):
		return schema.Failure(schema.CodeTimeout, "", fmt.Sprintf("generation did not finish within %s", r.config.PerAttemptTimeout))
	case errors.As(err, &limiterErr):
		return schema.Failure(schema.CodeTimeout, "", "rate limiter wait exceeds the attempt deadline")
	default:
		return schema.Failure(schema.CodeGenerationFailed, "", err.Error())
	}
}

// check extracts the candidate from text and validates it.
func (r *run) check(ctx context.Context, text string) (*schema.UISchema, schema.ValidationResult) {
	r.transition(ctx, StateExtracting)
	candidate, err := parse.ExtractCandidate(text, r.parseOptions...)
	if err != nil {
		message := err.Error()
		if errors.Is(err, parse.ErrInvalidInput) {
			message = "response is empty"
		}
		return nil, schema.Failure(schema.CodeExtractionFailed, "", message)
	}

	r.transition(ctx, StateValidating)
	validation := r.validator.Validate(candidate.Value)

	var extracted *schema.UISchema
	if _, isObject := candidate.Value.(map[string]any); isObject {
		if decoded, err := schema.Decode(candidate.Value); err == nil {
			extracted = decoded
		}
	}
	return extracted, validation
}

func (r *run) fixPrompt(ctx context.Context, task string, attempt Attempt) string {
	text, err := prompt.FixPrompt(prompt.FixInput{
		Task:           task,
		PreviousOutput: attempt.RawResponse,
		Errors:         attempt.Validation.Errors,
		MaxOutputChars: r.config.MaxPreviousOutputChars,
	})
	if err != nil {
		if r.observer != nil {
			r.observer.Warn(ctx, "fix prompt rendering failed, resending task", observability.Error(err))
		}
		return task
	}
	return text
}

func (r *run) transition(ctx context.Context, to State) {
	from := r.state
	if from == to {
		return
	}
	r.state = to
	for _, hook := range r.hooks {
		hook(r.id, from, to)
	}
	if r.span != nil {
		r.span.AddEvent(observability.EventStateChange,
			observability.String("uigen.state.from", string(from)),
			observability.String(observability.AttrState, string(to)),
		)
	}
	if r.observer != nil {
		r.observer.Trace(ctx, "retry state change",
			observability.String(observability.AttrRunID, r.id),
			observability.String("uigen.state.from", string(from)),
			observability.String(observability.AttrState, string(to)),
		)
	}
}
