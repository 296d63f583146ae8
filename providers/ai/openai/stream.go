package openai

import (
	"context"
	"fmt"
	"io"

	"github.com/leofalp/uigen/internal/utils"
	"github.com/leofalp/uigen/providers/ai"
)

// StreamMessage starts a streaming chat completion with usage reporting on.
func (p *Provider) StreamMessage(ctx context.Context, request ai.ChatRequest) (*ai.ChatStream, error) {
	p.annotate(ctx, request, true)

	body := toChatCompletion(request)
	body.Model = p.model(request)
	body.Stream = true
	body.StreamOptions = &streamOptions{IncludeUsage: true}

	response, err := utils.PostStream(ctx, p.client, p.url(), p.config.APIKey, body, p.headers...)
	if err != nil {
		return nil, err
	}

	scanner := utils.NewSSEScanner(response.Body)
	return ai.NewChatStream(func(yield func(ai.StreamEvent, error) bool) {
		defer utils.CloseWithLog(response.Body)

		for {
			if ctx.Err() != nil {
				yield(ai.StreamEvent{}, ctx.Err())
				return
			}

			payload, err := scanner.Next()
			if err == io.EOF {
				return
			}
			if err != nil {
				yield(ai.StreamEvent{}, fmt.Errorf("SSE read error: %w", err))
				return
			}

			chunk, err := unmarshalChunk(payload)
			if err != nil {
				yield(ai.StreamEvent{}, fmt.Errorf("failed to parse streaming chunk: %w", err))
				return
			}
			for _, event := range chunkToEvents(chunk) {
				if !yield(event, nil) {
					return
				}
			}
		}
	}), nil
}

// chunkToEvents converts one chunk into stream events. The usage chunk
// usually has no choices, so it is handled first.
func chunkToEvents(chunk *chatCompletionChunk) []ai.StreamEvent {
	var events []ai.StreamEvent

	if chunk.Usage != nil {
		events = append(events, ai.StreamEvent{Type: ai.StreamEventUsage, Usage: chunk.Usage.toGeneric()})
	}
	for _, choice := range chunk.Choices {
		if choice.Delta.Content != nil && *choice.Delta.Content != "" {
			events = append(events, ai.StreamEvent{Type: ai.StreamEventContent, Content: *choice.Delta.Content})
		}
		if choice.FinishReason != nil && *choice.FinishReason != "" {
			events = append(events, ai.StreamEvent{Type: ai.StreamEventDone, FinishReason: *choice.FinishReason})
		}
	}
	return events
}
