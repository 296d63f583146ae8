package retry

import (
	"context"
	"errors"
	"fmt"

	"github.com/leofalp/uigen/providers/ai"
)

// GenerateFunc produces a completion for prompt. history holds the earlier
// turns of the run (user prompt, assistant reply, …), not including prompt.
// It must honor ctx: the orchestrator abandons a call once its deadline
// passes.
type GenerateFunc func(ctx context.Context, prompt string, history []ai.Message) (string, error)

// ErrNilProvider is returned by FromProvider for a nil provider.
var ErrNilProvider = errors.New("provider is nil")

// FromProvider adapts provider to a GenerateFunc. cfg is validated here, so
// configuration errors surface before any attempt. Providers that implement
// ai.StreamProvider are streamed and their output collected.
func FromProvider(provider ai.Provider, cfg ai.GenerationConfig) (GenerateFunc, error) {
	if provider == nil {
		return nil, ErrNilProvider
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	streamer, streams := provider.(ai.StreamProvider)

	return func(ctx context.Context, prompt string, history []ai.Message) (string, error) {
		messages := make([]ai.Message, 0, len(history)+1)
		messages = append(messages, history...)
		messages = append(messages, ai.UserMessage(prompt))
		request := ai.NewRequest(cfg, messages)

		if streams {
			stream, err := streamer.StreamMessage(ctx, request)
			if err != nil {
				return "", fmt.Errorf("stream message: %w", err)
			}
			response, err := stream.Collect()
			if err != nil {
				return "", fmt.Errorf("collect stream: %w", err)
			}
			return response.Content, nil
		}

		response, err := provider.SendMessage(ctx, request)
		if err != nil {
			return "", fmt.Errorf("send message: %w", err)
		}
		return response.Content, nil
	}, nil
}
