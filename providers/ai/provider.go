package ai

import "context"

// Provider sends a chat request and returns the completed reply.
type Provider interface {
	SendMessage(ctx context.Context, request ChatRequest) (*ChatResponse, error)
}

// StreamProvider is implemented by providers that can stream a reply.
// Callers detect it with a type assertion and fall back to SendMessage.
type StreamProvider interface {
	Provider
	// StreamMessage returns the reply as a stream of deltas. Errors before
	// the stream starts are returned directly; errors during the stream are
	// yielded by the iterator.
	StreamMessage(ctx context.Context, request ChatRequest) (*ChatStream, error)
}
