package ai

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

// ErrInvalidConfig is wrapped by every GenerationConfig validation error.
var ErrInvalidConfig = errors.New("invalid generation config")

// ProviderName selects a model provider. Every supported provider speaks the
// OpenAI chat-completions protocol; they differ in default endpoint and in
// whether an API key is required.
type ProviderName string

const (
	ProviderOpenAI     ProviderName = "openai"
	ProviderOpenRouter ProviderName = "openrouter"
	ProviderOllama     ProviderName = "ollama"
	// ProviderCustom targets any compatible server and requires Endpoint.
	ProviderCustom ProviderName = "custom"
)

var defaultEndpoints = map[ProviderName]string{
	ProviderOpenAI:     "https://api.openai.com/v1",
	ProviderOpenRouter: "https://openrouter.ai/api/v1",
	ProviderOllama:     "http://localhost:11434/v1",
}

// GenerationConfig configures how the model is called.
type GenerationConfig struct {
	Provider ProviderName `json:"provider" mapstructure:"provider"`
	APIKey   string       `json:"-" mapstructure:"api_key"`
	Model    string       `json:"model" mapstructure:"model"`
	// Endpoint overrides the provider's base URL. Required for ProviderCustom.
	Endpoint string `json:"endpoint,omitempty" mapstructure:"endpoint"`
	// Temperature must be within [0, 1] when set.
	Temperature *float64 `json:"temperature,omitempty" mapstructure:"temperature"`
	// MaxTokens must be positive when set.
	MaxTokens *int `json:"max_tokens,omitempty" mapstructure:"max_tokens"`
	// Timeout bounds a single HTTP call. Zero leaves it to the caller's
	// context.
	Timeout      time.Duration `json:"timeout,omitempty" mapstructure:"timeout"`
	SystemPrompt string        `json:"system_prompt,omitempty" mapstructure:"system_prompt"`
}

// Validate reports the first invalid setting. Every error wraps
// ErrInvalidConfig.
func (c GenerationConfig) Validate() error {
	switch c.Provider {
	case ProviderOpenAI, ProviderOpenRouter, ProviderOllama, ProviderCustom:
	case "":
		return fmt.Errorf("%w: provider is required", ErrInvalidConfig)
	default:
		return fmt.Errorf("%w: unknown provider %q", ErrInvalidConfig, c.Provider)
	}

	if c.Provider != ProviderOllama && strings.TrimSpace(c.APIKey) == "" {
		return fmt.Errorf("%w: api key is required for provider %q", ErrInvalidConfig, c.Provider)
	}
	if strings.TrimSpace(c.Model) == "" {
		return fmt.Errorf("%w: model is required", ErrInvalidConfig)
	}
	if c.Provider == ProviderCustom && strings.TrimSpace(c.Endpoint) == "" {
		return fmt.Errorf("%w: endpoint is required for the custom provider", ErrInvalidConfig)
	}
	if c.Temperature != nil && (math.IsNaN(*c.Temperature) || *c.Temperature < 0 || *c.Temperature > 1) {
		return fmt.Errorf("%w: temperature %v is outside [0, 1]", ErrInvalidConfig, *c.Temperature)
	}
	if c.MaxTokens != nil && *c.MaxTokens <= 0 {
		return fmt.Errorf("%w: max tokens must be positive, got %d", ErrInvalidConfig, *c.MaxTokens)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("%w: timeout must not be negative, got %s", ErrInvalidConfig, c.Timeout)
	}
	return nil
}

// BaseURL returns Endpoint, or the provider's default when Endpoint is empty.
func (c GenerationConfig) BaseURL() string {
	if c.Endpoint != "" {
		return strings.TrimRight(c.Endpoint, "/")
	}
	return defaultEndpoints[c.Provider]
}
