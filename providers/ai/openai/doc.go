// Package openai implements ai.Provider and ai.StreamProvider over the
// OpenAI chat-completions protocol. The same adapter serves OpenAI,
// OpenRouter, Ollama and any compatible custom endpoint; the provider named
// in the GenerationConfig only picks the default base URL and whether an API
// key is mandatory.
package openai
