package ai

import (
	"iter"
	"strings"
)

// StreamEventType identifies the payload of a StreamEvent.
type StreamEventType string

const (
	StreamEventContent StreamEventType = "content"
	StreamEventUsage   StreamEventType = "usage"
	StreamEventDone    StreamEventType = "done"
)

// StreamEvent is one delta of a streamed reply.
type StreamEvent struct {
	Type         StreamEventType `json:"type"`
	Content      string          `json:"content,omitempty"`
	Usage        *Usage          `json:"usage,omitempty"`
	FinishReason string          `json:"finish_reason,omitempty"`
}

// ChatStream wraps a streaming iterator. It must be consumed, by ranging over
// Iter or by calling Collect, so the provider can release its connection.
type ChatStream struct {
	iterator iter.Seq2[StreamEvent, error]
}

func NewChatStream(iterator iter.Seq2[StreamEvent, error]) *ChatStream {
	return &ChatStream{iterator: iterator}
}

// Iter returns the underlying iterator.
func (s *ChatStream) Iter() iter.Seq2[StreamEvent, error] {
	return s.iterator
}

// Collect drains the stream into one response. On a mid-stream error the
// content received so far is returned with the error.
func (s *ChatStream) Collect() (*ChatResponse, error) {
	var content strings.Builder
	response := &ChatResponse{}

	for event, err := range s.iterator {
		if err != nil {
			response.Content = content.String()
			return response, err
		}
		switch event.Type {
		case StreamEventContent:
			content.WriteString(event.Content)
		case StreamEventUsage:
			if event.Usage != nil {
				response.Usage = event.Usage
			}
		case StreamEventDone:
			response.FinishReason = event.FinishReason
		}
	}

	response.Content = content.String()
	return response, nil
}
