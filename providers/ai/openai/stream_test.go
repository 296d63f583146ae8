package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leofalp/uigen/providers/ai"
)

func writeSSE(w http.ResponseWriter, data string) {
	fmt.Fprintf(w, "data: %s\n\n", data)
	if flusher, ok := w.(http.Flusher); ok {
		flusher.Flush()
	}
}

func TestStreamMessage_Collect(t *testing.T) {
	var got chatCompletionRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "text/event-stream")
		writeSSE(w, `{"id":"c1","choices":[{"index":0,"delta":{"role":"assistant","content":"`+"```json"+`"},"finish_reason":null}]}`)
		writeSSE(w, `{"id":"c1","choices":[{"index":0,"delta":{"content":"\n{}\n"},"finish_reason":null}]}`)
		writeSSE(w, `{"id":"c1","choices":[{"index":0,"delta":{"content":"`+"```"+`"},"finish_reason":null}]}`)
		writeSSE(w, `{"id":"c1","choices":[],"usage":{"prompt_tokens":7,"completion_tokens":3,"total_tokens":10}}`)
		writeSSE(w, `{"id":"c1","choices":[{"index":0,"delta":{},"finish_reason":"stop"}]}`)
		writeSSE(w, "[DONE]")
	}))
	defer server.Close()

	provider, err := New(testConfig(server.URL))
	require.NoError(t, err)

	stream, err := provider.StreamMessage(context.Background(), ai.ChatRequest{Messages: []ai.Message{ai.UserMessage("a card")}})
	require.NoError(t, err)

	response, err := stream.Collect()
	require.NoError(t, err)
	assert.Equal(t, "```json\n{}\n```", response.Content)
	assert.Equal(t, "stop", response.FinishReason)
	assert.Equal(t, 10, response.Usage.TotalTokens)

	assert.True(t, got.Stream)
	require.NotNil(t, got.StreamOptions)
	assert.True(t, got.StreamOptions.IncludeUsage)
}

func TestStreamMessage_MalformedChunk(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeSSE(w, `{"choices":[{"delta":{"content":"par"}}]}`)
		writeSSE(w, `{not json`)
	}))
	defer server.Close()

	provider, err := New(testConfig(server.URL))
	require.NoError(t, err)

	stream, err := provider.StreamMessage(context.Background(), ai.ChatRequest{Messages: []ai.Message{ai.UserMessage("x")}})
	require.NoError(t, err)

	response, err := stream.Collect()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse streaming chunk")
	assert.Equal(t, "par", response.Content)
}

func TestStreamMessage_StatusErrorBeforeStream(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	provider, err := New(testConfig(server.URL))
	require.NoError(t, err)

	stream, err := provider.StreamMessage(context.Background(), ai.ChatRequest{Messages: []ai.Message{ai.UserMessage("x")}})
	assert.Nil(t, stream)
	assert.Contains(t, err.Error(), "401")
}

func TestChunkToEvents(t *testing.T) {
	content := "hi"
	empty := ""
	stop := "length"

	events := chunkToEvents(&chatCompletionChunk{
		Usage: &chatUsage{TotalTokens: 3},
		Choices: []streamChoice{
			{Delta: streamDelta{Content: &content}},
			{Delta: streamDelta{Content: &empty}, FinishReason: &stop},
		},
	})

	require.Len(t, events, 3)
	assert.Equal(t, ai.StreamEventUsage, events[0].Type)
	assert.Equal(t, ai.StreamEvent{Type: ai.StreamEventContent, Content: "hi"}, events[1])
	assert.Equal(t, ai.StreamEvent{Type: ai.StreamEventDone, FinishReason: "length"}, events[2])
}
