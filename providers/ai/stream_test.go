package ai

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func streamOf(events []StreamEvent, err error) *ChatStream {
	return NewChatStream(func(yield func(StreamEvent, error) bool) {
		for _, event := range events {
			if !yield(event, nil) {
				return
			}
		}
		if err != nil {
			yield(StreamEvent{}, err)
		}
	})
}

func TestChatStream_Collect(t *testing.T) {
	stream := streamOf([]StreamEvent{
		{Type: StreamEventContent, Content: "```json\n"},
		{Type: StreamEventContent, Content: `{"version":"1.0"}`},
		{Type: StreamEventContent, Content: "\n```"},
		{Type: StreamEventUsage, Usage: &Usage{TotalTokens: 12}},
		{Type: StreamEventDone, FinishReason: "stop"},
	}, nil)

	response, err := stream.Collect()
	require.NoError(t, err)
	assert.Equal(t, "```json\n{\"version\":\"1.0\"}\n```", response.Content)
	assert.Equal(t, "stop", response.FinishReason)
	assert.Equal(t, 12, response.Usage.TotalTokens)
}

func TestChatStream_CollectPartialOnError(t *testing.T) {
	boom := errors.New("connection reset")
	stream := streamOf([]StreamEvent{{Type: StreamEventContent, Content: "partial"}}, boom)

	response, err := stream.Collect()
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, "partial", response.Content)
}

func TestChatStream_IterEarlyBreak(t *testing.T) {
	stream := streamOf([]StreamEvent{
		{Type: StreamEventContent, Content: "a"},
		{Type: StreamEventContent, Content: "b"},
	}, nil)

	seen := 0
	for range stream.Iter() {
		seen++
		break
	}
	assert.Equal(t, 1, seen)
}
