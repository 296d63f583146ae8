package client

import (
	"maps"

	"github.com/Masterminds/semver/v3"
	"golang.org/x/time/rate"

	"github.com/leofalp/uigen/core/retry"
	"github.com/leofalp/uigen/core/schema"
	"github.com/leofalp/uigen/providers/cache"
	"github.com/leofalp/uigen/providers/history"
	"github.com/leofalp/uigen/providers/observability"
)

// Catalog is the component registry the client validates against and
// documents in the prompt. *catalog.Catalog and *catalog.Watcher implement
// it.
type Catalog interface {
	schema.PropCatalog
	Version() string
	// Describe renders the catalog as markdown for the prompt.
	Describe() string
}

// Option configures a Client.
type Option func(*Client)

// WithCatalog validates components against catalog and documents it in every
// prompt. Without a catalog any non-empty component type is accepted.
func WithCatalog(catalog Catalog) Option {
	return func(c *Client) {
		c.catalog = catalog
	}
}

// WithUnknownComponentsAsWarnings downgrades unknown component types from
// errors to warnings. It only matters together with WithCatalog.
func WithUnknownComponentsAsWarnings() Option {
	return func(c *Client) {
		c.validatorOptions = append(c.validatorOptions, schema.WithUnknownComponentsAsWarnings())
	}
}

// WithVersionConstraint requires the schema version to satisfy constraint.
func WithVersionConstraint(constraint *semver.Constraints) Option {
	return func(c *Client) {
		c.validatorOptions = append(c.validatorOptions, schema.WithVersionConstraint(constraint))
	}
}

// WithCache memoises built prompts by their key.
func WithCache(provider cache.Provider) Option {
	return func(c *Client) {
		c.cache = provider
	}
}

// WithObserver reports spans, metrics and logs for every stage.
func WithObserver(observer observability.Provider) Option {
	return func(c *Client) {
		c.observer = observer
	}
}

// WithRetryConfig replaces the run bounds. Zero fields take the retry
// package defaults.
func WithRetryConfig(config retry.Config) Option {
	return func(c *Client) {
		c.retryConfig = config
	}
}

// WithHistory saves every finished run to store.
func WithHistory(store history.Provider) Option {
	return func(c *Client) {
		c.history = store
	}
}

// WithTokenBudget caps the estimated size of the initial prompt. Zero means
// no limit.
func WithTokenBudget(budget int) Option {
	return func(c *Client) {
		c.tokenBudget = budget
	}
}

// WithLanguage asks the model to write user-visible text in language.
func WithLanguage(language string) Option {
	return func(c *Client) {
		c.language = language
	}
}

// WithExamples adds few-shot example replies to every prompt.
func WithExamples(examples ...string) Option {
	return func(c *Client) {
		c.examples = append(c.examples, examples...)
	}
}

// WithDesignTokens lists the design tokens components may reference.
func WithDesignTokens(tokens map[string]string) Option {
	return func(c *Client) {
		if c.designTokens == nil {
			c.designTokens = make(map[string]string, len(tokens))
		}
		maps.Copy(c.designTokens, tokens)
	}
}

// WithRateLimit paces provider calls to limit per second with the given
// burst, across every run of the client.
func WithRateLimit(limit rate.Limit, burst int) Option {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(limit, burst)
	}
}

// WithRepair lets extraction repair almost-JSON replies before counting
// them as failed.
func WithRepair() Option {
	return func(c *Client) {
		c.repair = true
	}
}

// WithStateHook observes the state transitions of every run.
func WithStateHook(hook retry.StateHook) Option {
	return func(c *Client) {
		c.hooks = append(c.hooks, hook)
	}
}

// WithMiddleware wraps provider calls. The first middleware is the
// outermost.
func WithMiddleware(middlewares ...Middleware) Option {
	return func(c *Client) {
		c.middlewares = append(c.middlewares, middlewares...)
	}
}
