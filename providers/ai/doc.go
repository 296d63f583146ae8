// Package ai holds the provider-agnostic chat types used to call a model:
// [Message], [ChatRequest], [ChatResponse], the [Provider] and
// [StreamProvider] interfaces, and [GenerationConfig], the validated
// configuration a provider is built from.
package ai
