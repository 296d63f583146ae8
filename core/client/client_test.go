package client

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leofalp/uigen/core/retry"
	"github.com/leofalp/uigen/core/schema"
	"github.com/leofalp/uigen/providers/ai"
	cachemem "github.com/leofalp/uigen/providers/cache/inmemory"
	"github.com/leofalp/uigen/providers/catalog"
	"github.com/leofalp/uigen/providers/history"
	historymem "github.com/leofalp/uigen/providers/history/inmemory"
	"github.com/leofalp/uigen/providers/observability"
	"github.com/leofalp/uigen/providers/observability/observabilitytest"
)

const (
	validReply     = "```json\n{\"version\":\"1.0\",\"root\":{\"id\":\"submit\",\"type\":\"Button\",\"text\":\"Send\"}}\n```"
	missingIDReply = "```json\n{\"version\":\"1.0\",\"root\":{\"type\":\"Button\"}}\n```"
	cardReply      = "```json\n{\"version\":\"1.0\",\"root\":{\"id\":\"c\",\"type\":\"Card\"}}\n```"
)

// fakeProvider answers with replies in order; the last one repeats.
type fakeProvider struct {
	mu       sync.Mutex
	replies  []string
	err      error
	block    bool
	requests []ai.ChatRequest
}

func (p *fakeProvider) SendMessage(ctx context.Context, request ai.ChatRequest) (*ai.ChatResponse, error) {
	p.mu.Lock()
	p.requests = append(p.requests, request)
	n := len(p.requests)
	p.mu.Unlock()

	if p.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if p.err != nil {
		return nil, p.err
	}
	return &ai.ChatResponse{Content: p.replies[min(n-1, len(p.replies)-1)]}, nil
}

func (p *fakeProvider) calls() []ai.ChatRequest {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]ai.ChatRequest(nil), p.requests...)
}

func testConfig() ai.GenerationConfig {
	return ai.GenerationConfig{Provider: ai.ProviderOllama, Model: "llama3", SystemPrompt: "You design UIs."}
}

func fastRetry() retry.Config {
	return retry.Config{MaxAttempts: 3, PerAttemptTimeout: time.Second, TotalTimeout: 5 * time.Second}
}

func TestNew_RejectsInvalidConfiguration(t *testing.T) {
	provider := &fakeProvider{replies: []string{validReply}}

	tests := []struct {
		name     string
		provider ai.Provider
		cfg      ai.GenerationConfig
		opts     []Option
		wantErr  error
	}{
		{name: "nil provider", cfg: testConfig(), wantErr: retry.ErrNilProvider},
		{name: "missing provider name", provider: provider, cfg: ai.GenerationConfig{Model: "m"}, wantErr: ai.ErrInvalidConfig},
		{
			name:     "negative attempts",
			provider: provider,
			cfg:      testConfig(),
			opts:     []Option{WithRetryConfig(retry.Config{MaxAttempts: -1})},
			wantErr:  retry.ErrInvalidConfig,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.provider, tt.cfg, tt.opts...)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestGenerateUI_FixesInvalidReply(t *testing.T) {
	provider := &fakeProvider{replies: []string{missingIDReply, validReply}}
	store := historymem.New()
	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	c, err := New(provider, testConfig(), WithRetryConfig(fastRetry()), WithHistory(store))
	require.NoError(t, err)
	c.now = func() time.Time { return created }

	result, err := c.GenerateUI(context.Background(), "a submit button")
	require.NoError(t, err)

	assert.True(t, result.Succeeded)
	assert.Equal(t, retry.StateSuccess, result.State)
	require.Len(t, result.Attempts, 2)
	require.NotNil(t, result.FinalSchema)
	assert.Equal(t, "submit", result.FinalSchema.Root.ID)

	calls := provider.calls()
	require.Len(t, calls, 2)
	assert.Equal(t, "You design UIs.", calls[0].SystemPrompt)
	assert.Contains(t, calls[0].Messages[0].Content, "a submit button")
	require.Len(t, calls[1].Messages, 3, "the retry carries the first exchange")
	assert.Equal(t, ai.RoleAssistant, calls[1].Messages[1].Role)
	assert.Contains(t, calls[1].Messages[2].Content, "component id is required")

	record, err := store.Get(context.Background(), result.RunID)
	require.NoError(t, err)
	assert.Equal(t, "a submit button", record.Task)
	assert.Equal(t, c.Builder("a submit button").Key(), record.PromptKey)
	assert.Equal(t, 2, record.Attempts)
	assert.True(t, record.CreatedAt.Equal(created))
}

func TestGenerateUI_EmptyTask(t *testing.T) {
	provider := &fakeProvider{replies: []string{validReply}}
	c, err := New(provider, testConfig())
	require.NoError(t, err)

	_, err = c.GenerateUI(context.Background(), "  \n")
	assert.ErrorIs(t, err, retry.ErrEmptyPrompt)
	assert.Empty(t, provider.calls())
}

func TestGenerateUI_ProviderErrorExhaustsAttempts(t *testing.T) {
	provider := &fakeProvider{err: errors.New("connection refused")}
	c, err := New(provider, testConfig(), WithRetryConfig(fastRetry()))
	require.NoError(t, err)

	result, err := c.GenerateUI(context.Background(), "a form")
	require.NoError(t, err)

	assert.False(t, result.Succeeded)
	assert.Equal(t, retry.StateExhausted, result.State)
	require.Len(t, result.Attempts, 3)
	assert.Equal(t, schema.CodeGenerationFailed, result.Attempts[0].Validation.Errors[0].Code)
}

func TestGenerateUI_Catalog(t *testing.T) {
	cat, err := catalog.New("2.1.0",
		catalog.Component{Name: "Button", Description: "A clickable control."},
	)
	require.NoError(t, err)

	t.Run("unknown component fails", func(t *testing.T) {
		provider := &fakeProvider{replies: []string{cardReply}}
		c, err := New(provider, testConfig(), WithCatalog(cat), WithRetryConfig(retry.Config{MaxAttempts: 1}))
		require.NoError(t, err)

		result, err := c.GenerateUI(context.Background(), "a card")
		require.NoError(t, err)

		assert.False(t, result.Succeeded)
		assert.Equal(t, schema.CodeUnknownComponent, result.Attempts[0].Validation.Errors[0].Code)

		first := provider.calls()[0].Messages[0].Content
		assert.Contains(t, first, "Component catalog (version 2.1.0)")
		assert.Contains(t, first, "Button")
	})

	t.Run("unknown component as warning", func(t *testing.T) {
		provider := &fakeProvider{replies: []string{cardReply}}
		c, err := New(provider, testConfig(), WithCatalog(cat), WithUnknownComponentsAsWarnings())
		require.NoError(t, err)

		result, err := c.GenerateUI(context.Background(), "a card")
		require.NoError(t, err)

		assert.True(t, result.Succeeded)
		require.Len(t, result.Attempts[0].Validation.Warnings, 1)
		assert.Equal(t, schema.CodeUnknownComponent, result.Attempts[0].Validation.Warnings[0].Code)
	})
}

func TestGenerateUI_PromptCache(t *testing.T) {
	provider := &fakeProvider{replies: []string{validReply}}
	promptCache := cachemem.New()
	c, err := New(provider, testConfig(), WithCache(promptCache), WithLanguage("Italian"))
	require.NoError(t, err)

	ctx := context.Background()
	for range 3 {
		_, err := c.GenerateUI(ctx, "a button")
		require.NoError(t, err)
	}
	_, err = c.GenerateUI(ctx, "another button")
	require.NoError(t, err)
	assert.Equal(t, 2, promptCache.Len())

	calls := provider.calls()
	assert.Equal(t, calls[0].Messages[0].Content, calls[2].Messages[0].Content)
	assert.Contains(t, calls[0].Messages[0].Content, "Italian")

	require.NoError(t, c.InvalidatePrompts(ctx))
	assert.Zero(t, promptCache.Len())
}

func TestBuildPrompt_OptionsReachTheBuilder(t *testing.T) {
	c, err := New(&fakeProvider{replies: []string{validReply}}, testConfig(),
		WithExamples(validReply),
		WithDesignTokens(map[string]string{"color.primary": "#0050ff"}),
		WithTokenBudget(100000),
	)
	require.NoError(t, err)

	built, key, err := c.BuildPrompt(context.Background(), "a button")
	require.NoError(t, err)

	assert.Equal(t, c.Builder("a button").Key(), key)
	assert.Contains(t, built.Text, "color.primary")
	assert.Contains(t, built.Text, "Example 1:")
	assert.False(t, built.OverBudget)
}

func TestGenerateUI_CancelledRunIsStillSaved(t *testing.T) {
	provider := &fakeProvider{block: true}
	store := historymem.New()
	c, err := New(provider, testConfig(), WithHistory(store), WithRetryConfig(fastRetry()))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	result, err := c.GenerateUI(ctx, "a slow form")
	require.NoError(t, err)
	assert.Equal(t, retry.StateCancelled, result.State)
	require.Len(t, result.Attempts, 1)

	records, err := store.List(context.Background(), history.Filter{State: retry.StateCancelled})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, result.RunID, records[0].RunID)
}

func TestGenerateUI_Observability(t *testing.T) {
	recorder := observabilitytest.New()
	provider := &fakeProvider{replies: []string{missingIDReply, validReply}}
	c, err := New(provider, testConfig(),
		WithObserver(recorder),
		WithRetryConfig(fastRetry()),
		WithHistory(historymem.New()),
	)
	require.NoError(t, err)

	result, err := c.GenerateUI(context.Background(), "a button")
	require.NoError(t, err)

	for _, name := range []string{
		observability.SpanGenerateUI,
		observability.SpanPromptBuild,
		observability.SpanRetryRun,
		observability.SpanLLMRequest,
		observability.SpanHistorySave,
	} {
		span, ok := recorder.SpanNamed(name)
		require.True(t, ok, name)
		assert.True(t, span.Ended, name)
	}

	span, _ := recorder.SpanNamed(observability.SpanGenerateUI)
	assert.Equal(t, result.RunID, span.Attrs[observability.AttrRunID])
	assert.Equal(t, true, span.Attrs[observability.AttrSucceeded])
	assert.Equal(t, 1, span.Attrs[observability.AttrComponents])
	assert.Equal(t, observability.StatusOK, span.Status)

	assert.Equal(t, int64(2), recorder.CounterValue(observability.MetricLLMRequests))
	assert.Len(t, recorder.HistogramValues(observability.MetricLLMDuration), 2)
}

func TestGenerateUI_StateHooks(t *testing.T) {
	var states []retry.State
	c, err := New(&fakeProvider{replies: []string{validReply}}, testConfig(),
		WithStateHook(func(_ string, _, to retry.State) { states = append(states, to) }),
	)
	require.NoError(t, err)

	_, err = c.GenerateUI(context.Background(), "a button")
	require.NoError(t, err)
	assert.Equal(t, []retry.State{
		retry.StateGenerating, retry.StateExtracting, retry.StateValidating, retry.StateSuccess,
	}, states)
}

func TestWithMiddleware_Order(t *testing.T) {
	var order []string
	tag := func(name string) Middleware {
		return func(next retry.GenerateFunc) retry.GenerateFunc {
			return func(ctx context.Context, prompt string, history []ai.Message) (string, error) {
				order = append(order, name+" in")
				text, err := next(ctx, prompt, history)
				order = append(order, name+" out")
				return text, err
			}
		}
	}

	c, err := New(&fakeProvider{replies: []string{validReply}}, testConfig(),
		WithMiddleware(tag("outer"), nil, tag("inner")),
	)
	require.NoError(t, err)

	_, err = c.GenerateUI(context.Background(), "a button")
	require.NoError(t, err)
	assert.Equal(t, []string{"outer in", "inner in", "inner out", "outer out"}, order)
}

func TestWithRepair(t *testing.T) {
	almost := "```json\n{'version': '1.0', 'root': {'id': 'a', 'type': 'Button'},}\n```"
	provider := &fakeProvider{replies: []string{almost}}

	strict, err := New(provider, testConfig(), WithRetryConfig(retry.Config{MaxAttempts: 1}))
	require.NoError(t, err)
	result, err := strict.GenerateUI(context.Background(), "a button")
	require.NoError(t, err)
	assert.False(t, result.Succeeded)

	repairing, err := New(provider, testConfig(), WithRepair(), WithRetryConfig(retry.Config{MaxAttempts: 1}))
	require.NoError(t, err)
	result, err = repairing.GenerateUI(context.Background(), "a button")
	require.NoError(t, err)
	assert.True(t, result.Succeeded, strings.Join(errorMessages(result), "; "))
}

func errorMessages(result *retry.Result) []string {
	var out []string
	for _, attempt := range result.Attempts {
		for _, e := range attempt.Validation.Errors {
			out = append(out, e.Error())
		}
	}
	return out
}
