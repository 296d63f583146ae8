package openai

import (
	"context"
	"errors"
	"net/http"

	"github.com/leofalp/uigen/internal/utils"
	"github.com/leofalp/uigen/providers/ai"
	"github.com/leofalp/uigen/providers/observability"
)

// ErrNoChoices is returned when a completion carries no choices.
var ErrNoChoices = errors.New("no choices in response")

// Provider talks to one chat-completions endpoint.
type Provider struct {
	config  ai.GenerationConfig
	client  *http.Client
	headers []utils.HeaderOption
}

// Option customizes a Provider.
type Option func(*Provider)

// WithHTTPClient replaces the HTTP client. The client's own timeout is left
// untouched.
func WithHTTPClient(client *http.Client) Option {
	return func(p *Provider) {
		if client != nil {
			p.client = client
		}
	}
}

// WithHeader adds a header to every request.
func WithHeader(key, value string) Option {
	return func(p *Provider) {
		p.headers = append(p.headers, utils.HeaderOption{Key: key, Value: value})
	}
}

// New validates config and returns a provider for it.
func New(config ai.GenerationConfig, opts ...Option) (*Provider, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	p := &Provider{
		config: config,
		client: &http.Client{Timeout: config.Timeout},
	}
	if config.Provider == ai.ProviderOpenRouter {
		p.headers = append(p.headers, utils.HeaderOption{Key: "X-Title", Value: "uigen"})
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Name returns the configured provider name.
func (p *Provider) Name() string {
	return string(p.config.Provider)
}

func (p *Provider) url() string {
	return p.config.BaseURL() + chatCompletionsEndpoint
}

// model returns the request's model, falling back to the configured one.
func (p *Provider) model(request ai.ChatRequest) string {
	if request.Model != "" {
		return request.Model
	}
	return p.config.Model
}

func (p *Provider) annotate(ctx context.Context, request ai.ChatRequest, streaming bool) {
	attrs := []observability.Attribute{
		observability.String(observability.AttrLLMProvider, p.Name()),
		observability.String(observability.AttrLLMEndpoint, p.config.BaseURL()),
		observability.String(observability.AttrLLMModel, p.model(request)),
		observability.Bool(observability.AttrLLMStreaming, streaming),
		observability.Int(observability.AttrMessagesCount, len(request.Messages)),
	}
	if span := observability.SpanFromContext(ctx); span != nil {
		span.SetAttributes(attrs...)
	}
	if observer := observability.ObserverFromContext(ctx); observer != nil {
		observer.Trace(ctx, "sending chat completion", attrs...)
	}
}

// SendMessage performs a blocking chat completion.
func (p *Provider) SendMessage(ctx context.Context, request ai.ChatRequest) (*ai.ChatResponse, error) {
	p.annotate(ctx, request, false)

	body := toChatCompletion(request)
	body.Model = p.model(request)

	response, err := utils.PostJSON[chatCompletionResponse](ctx, p.client, p.url(), p.config.APIKey, body, p.headers...)
	if err != nil {
		return nil, err
	}
	if len(response.Choices) == 0 {
		return nil, ErrNoChoices
	}

	out := fromChatCompletion(*response)
	if span := observability.SpanFromContext(ctx); span != nil {
		span.SetAttributes(observability.String(observability.AttrLLMFinishReason, out.FinishReason))
	}
	return out, nil
}
