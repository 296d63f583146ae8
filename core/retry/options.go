package retry

import (
	"golang.org/x/time/rate"

	"github.com/leofalp/uigen/core/parse"
	"github.com/leofalp/uigen/core/schema"
	"github.com/leofalp/uigen/providers/observability"
)

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithConfig replaces the run bounds. It is validated by Run.
func WithConfig(config Config) Option {
	return func(o *Orchestrator) {
		o.config = config
	}
}

// WithStateHook adds a transition observer. Hooks run in registration order.
func WithStateHook(hook StateHook) Option {
	return func(o *Orchestrator) {
		if hook != nil {
			o.hooks = append(o.hooks, hook)
		}
	}
}

// WithObserver reports spans, metrics and logs for every run.
func WithObserver(observer observability.Provider) Option {
	return func(o *Orchestrator) {
		o.observer = observer
	}
}

// WithRateLimiter paces generate calls across every run sharing limiter.
func WithRateLimiter(limiter *rate.Limiter) Option {
	return func(o *Orchestrator) {
		o.limiter = limiter
	}
}

// WithValidator replaces the default catalog-less validator.
func WithValidator(validator *schema.Validator) Option {
	return func(o *Orchestrator) {
		if validator != nil {
			o.validator = validator
		}
	}
}

// WithRepair lets extraction repair almost-JSON blocks before giving up.
func WithRepair() Option {
	return func(o *Orchestrator) {
		o.parseOptions = append(o.parseOptions, parse.WithRepair())
	}
}
