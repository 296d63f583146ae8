package client

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/leofalp/uigen/core/prompt"
	"github.com/leofalp/uigen/core/retry"
	"github.com/leofalp/uigen/core/schema"
	"github.com/leofalp/uigen/internal/utils"
	"github.com/leofalp/uigen/providers/ai"
	"github.com/leofalp/uigen/providers/cache"
	"github.com/leofalp/uigen/providers/history"
	"github.com/leofalp/uigen/providers/observability"
)

// Client generates UI schemas. It is immutable after New and safe for
// concurrent use.
type Client struct {
	cfg          ai.GenerationConfig
	generate     retry.GenerateFunc
	orchestrator *retry.Orchestrator

	catalog          Catalog
	cache            cache.Provider
	history          history.Provider
	observer         observability.Provider
	retryConfig      retry.Config
	validatorOptions []schema.ValidatorOption
	limiter          *rate.Limiter
	repair           bool
	hooks            []retry.StateHook
	middlewares      []Middleware

	tokenBudget  int
	language     string
	examples     []string
	designTokens map[string]string

	now func() time.Time
}

// New validates cfg and the retry bounds and returns a ready Client.
// Configuration problems are reported here rather than on the first call.
func New(provider ai.Provider, cfg ai.GenerationConfig, opts ...Option) (*Client, error) {
	c := &Client{
		cfg:         cfg,
		retryConfig: retry.DefaultConfig(),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}

	base, err := retry.FromProvider(provider, cfg)
	if err != nil {
		return nil, err
	}
	if err := c.retryConfig.Validate(); err != nil {
		return nil, err
	}

	middlewares := c.middlewares
	if c.observer != nil {
		middlewares = append(middlewares[:len(middlewares):len(middlewares)], NewObservabilityMiddleware(c.observer, cfg.Model))
	}
	c.generate = chain(base, middlewares)

	validatorOptions := c.validatorOptions
	if c.catalog != nil {
		validatorOptions = append([]schema.ValidatorOption{schema.WithCatalog(c.catalog)}, validatorOptions...)
	}

	retryOptions := []retry.Option{
		retry.WithConfig(c.retryConfig),
		retry.WithValidator(schema.NewValidator(validatorOptions...)),
		retry.WithObserver(c.observer),
		retry.WithRateLimiter(c.limiter),
	}
	if c.repair {
		retryOptions = append(retryOptions, retry.WithRepair())
	}
	for _, hook := range c.hooks {
		retryOptions = append(retryOptions, retry.WithStateHook(hook))
	}
	c.orchestrator = retry.New(retryOptions...)

	return c, nil
}

// Config returns the generation settings the client was built with.
func (c *Client) Config() ai.GenerationConfig {
	return c.cfg
}

// Builder returns the prompt builder for task with the client's catalog,
// language, examples, design tokens and token budget applied.
func (c *Client) Builder(task string) *prompt.Builder {
	opts := []prompt.BuilderOption{
		prompt.WithTokenBudget(c.tokenBudget),
		prompt.WithLanguage(c.language),
		prompt.WithExamples(c.examples...),
		prompt.WithDesignTokens(c.designTokens),
	}
	if c.catalog != nil {
		opts = append(opts, prompt.WithCatalogDocs(c.catalog.Version(), c.catalog.Describe()))
	}
	return prompt.NewBuilder(task, opts...)
}

// BuildPrompt builds the initial prompt for task, through the cache when one
// is configured.
func (c *Client) BuildPrompt(ctx context.Context, task string) (prompt.BuildResult, string, error) {
	builder := c.Builder(task)
	key := builder.Key()

	if c.observer != nil {
		var span observability.Span
		ctx, span = c.observer.StartSpan(ctx, observability.SpanPromptBuild,
			observability.String(observability.AttrPromptKey, key),
		)
		defer span.End()
	}

	var (
		built prompt.BuildResult
		err   error
	)
	if c.cache != nil {
		built, err = c.cache.GetOrBuild(ctx, key, builder.Build)
	} else {
		built, err = builder.Build()
	}
	if err != nil {
		return prompt.BuildResult{}, key, fmt.Errorf("build prompt: %w", err)
	}

	if span := observability.SpanFromContext(ctx); span != nil {
		span.SetAttributes(
			observability.Int(observability.AttrPromptTokens, built.TotalTokens),
			observability.String(observability.AttrPromptSections, strings.Join(built.IncludedSections, ",")),
			observability.Bool(observability.AttrPromptOverBudget, built.OverBudget),
		)
	}
	if built.OverBudget && c.observer != nil {
		c.observer.Warn(ctx, "prompt exceeds token budget",
			observability.String(observability.AttrPromptKey, key),
			observability.Int(observability.AttrPromptTokens, built.TotalTokens),
			observability.Int("uigen.prompt.budget", c.tokenBudget),
		)
	}
	return built, key, nil
}

// GenerateUI turns task into a validated UI schema. The returned error is
// non-nil only when no attempt could be made (empty task, prompt build
// failure). A model that never produces a valid schema yields a Result with
// Succeeded false; check Result.State for why the run ended.
//
// When a history store is configured the finished run is saved even if ctx
// was cancelled. A failed save is logged, not returned.
func (c *Client) GenerateUI(ctx context.Context, task string) (*retry.Result, error) {
	if strings.TrimSpace(task) == "" {
		return nil, retry.ErrEmptyPrompt
	}

	var span observability.Span
	if c.observer != nil {
		ctx, span = c.observer.StartSpan(ctx, observability.SpanGenerateUI,
			observability.String(observability.AttrTask, utils.TruncateString(task, utils.DefaultMaxStringLength)),
		)
		defer span.End()
	}

	built, key, err := c.BuildPrompt(ctx, task)
	if err != nil {
		if span != nil {
			span.RecordError(err)
			span.SetStatus(observability.StatusError, err.Error())
		}
		return nil, err
	}

	result, err := c.orchestrator.Run(ctx, built.Text, c.generate)
	if err != nil {
		if span != nil {
			span.RecordError(err)
			span.SetStatus(observability.StatusError, err.Error())
		}
		return nil, err
	}

	if span != nil {
		span.SetAttributes(
			observability.String(observability.AttrRunID, result.RunID),
			observability.String(observability.AttrState, string(result.State)),
			observability.Bool(observability.AttrSucceeded, result.Succeeded),
		)
		if result.Succeeded {
			span.SetAttributes(observability.Int(observability.AttrComponents, result.FinalSchema.Root.Count()))
			span.SetStatus(observability.StatusOK, "")
		} else {
			span.SetStatus(observability.StatusError, "run ended in "+string(result.State))
		}
	}

	c.save(ctx, task, key, result)
	return result, nil
}

func (c *Client) save(ctx context.Context, task, key string, result *retry.Result) {
	if c.history == nil {
		return
	}
	ctx = context.WithoutCancel(ctx)

	if c.observer != nil {
		var span observability.Span
		ctx, span = c.observer.StartSpan(ctx, observability.SpanHistorySave,
			observability.String(observability.AttrRunID, result.RunID),
		)
		defer span.End()
	}

	record := history.NewRecord(task, key, result, c.now())
	if err := c.history.Save(ctx, record); err != nil && c.observer != nil {
		c.observer.Warn(ctx, "saving run history failed",
			observability.String(observability.AttrRunID, result.RunID),
			observability.Error(err),
		)
	}
}

// InvalidatePrompts drops every cached prompt. Call it when the catalog
// changes; catalog.OnReload is the usual trigger.
func (c *Client) InvalidatePrompts(ctx context.Context) error {
	if c.cache == nil {
		return nil
	}
	if err := c.cache.Purge(ctx); err != nil {
		return fmt.Errorf("invalidate prompts: %w", err)
	}
	if c.observer != nil {
		if span := observability.SpanFromContext(ctx); span != nil {
			span.AddEvent(observability.EventCacheInvalidated)
		}
		c.observer.Info(ctx, "prompt cache invalidated")
	}
	return nil
}
