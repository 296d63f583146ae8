// Package config loads uigen settings: built-in defaults, then an optional
// YAML file, then UIGEN_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/leofalp/uigen/core/retry"
	"github.com/leofalp/uigen/providers/ai"
)

// EnvPrefix prefixes every environment override: generation.model is read
// from UIGEN_GENERATION_MODEL.
const EnvPrefix = "UIGEN"

// ErrInvalid is wrapped by every Validate error.
var ErrInvalid = errors.New("invalid configuration")

// Config is the root of the configuration tree.
type Config struct {
	Generation ai.GenerationConfig `mapstructure:"generation"`
	Retry      retry.Config        `mapstructure:"retry"`
	Prompt     PromptConfig        `mapstructure:"prompt"`
	Catalog    CatalogConfig       `mapstructure:"catalog"`
	Cache      CacheConfig         `mapstructure:"cache"`
	History    HistoryConfig       `mapstructure:"history"`
	Log        LogConfig           `mapstructure:"log"`
	Metrics    MetricsConfig       `mapstructure:"metrics"`
	RateLimit  RateLimitConfig     `mapstructure:"rate_limit"`
	Tracing    TracingConfig       `mapstructure:"tracing"`
	// Repair lets extraction fix almost-JSON replies.
	Repair bool `mapstructure:"repair"`
}

type PromptConfig struct {
	TokenBudget  int               `mapstructure:"token_budget"`
	Language     string            `mapstructure:"language"`
	Examples     []string          `mapstructure:"examples"`
	DesignTokens map[string]string `mapstructure:"design_tokens"`
}

type CatalogConfig struct {
	// Path of the YAML catalog. Empty disables catalog validation.
	Path string `mapstructure:"path"`
	// Watch reloads the catalog when the file changes.
	Watch             bool   `mapstructure:"watch"`
	UnknownAsWarnings bool   `mapstructure:"unknown_as_warnings"`
	VersionConstraint string `mapstructure:"version_constraint"`
}

// Cache backends.
const (
	CacheNone   = "none"
	CacheMemory = "memory"
	CacheRedis  = "redis"
)

type CacheConfig struct {
	Backend string        `mapstructure:"backend"`
	TTL     time.Duration `mapstructure:"ttl"`
	Redis   RedisConfig   `mapstructure:"redis"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Prefix   string `mapstructure:"prefix"`
}

// History backends.
const (
	HistoryNone   = "none"
	HistoryMemory = "memory"
	HistorySQLite = "sqlite"
)

type HistoryConfig struct {
	Backend string `mapstructure:"backend"`
	// Path of the SQLite database; "~" expands to the home directory.
	Path string `mapstructure:"path"`
}

// Log backends.
const (
	LogSlog    = "slog"
	LogZerolog = "zerolog"
)

type LogConfig struct {
	Backend string `mapstructure:"backend"`
	Level   string `mapstructure:"level"`
	// Format is compact, pretty or json. Only the slog backend uses it.
	Format string `mapstructure:"format"`
}

type MetricsConfig struct {
	// Textfile, when set, receives the Prometheus metrics of the process in
	// text exposition format when the command exits.
	Textfile  string `mapstructure:"textfile"`
	Namespace string `mapstructure:"namespace"`
}

// TracingConfig exports spans over OTLP/gRPC when enabled.
type TracingConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	Endpoint    string  `mapstructure:"endpoint"`
	Insecure    bool    `mapstructure:"insecure"`
	ServiceName string  `mapstructure:"service_name"`
	SampleRate  float64 `mapstructure:"sample_rate"`
}

type RateLimitConfig struct {
	// PerSecond of zero disables rate limiting.
	PerSecond float64 `mapstructure:"per_second"`
	Burst     int     `mapstructure:"burst"`
}

func setDefaults(v *viper.Viper) {
	retryDefaults := retry.DefaultConfig()

	v.SetDefault("generation.provider", string(ai.ProviderOpenAI))
	v.SetDefault("generation.api_key", "")
	v.SetDefault("generation.model", "gpt-4o-mini")
	v.SetDefault("generation.endpoint", "")
	v.SetDefault("generation.timeout", "60s")
	v.SetDefault("generation.system_prompt", "You are a UI generator. You reply only with UI schemas.")

	v.SetDefault("retry.max_attempts", retryDefaults.MaxAttempts)
	v.SetDefault("retry.per_attempt_timeout", retryDefaults.PerAttemptTimeout)
	v.SetDefault("retry.total_timeout", retryDefaults.TotalTimeout)
	v.SetDefault("retry.initial_backoff", "0s")
	v.SetDefault("retry.max_backoff", retryDefaults.MaxBackoff)
	v.SetDefault("retry.backoff_factor", retryDefaults.BackoffFactor)
	v.SetDefault("retry.jitter_fraction", retryDefaults.JitterFraction)
	v.SetDefault("retry.max_previous_output_chars", retryDefaults.MaxPreviousOutputChars)

	v.SetDefault("prompt.token_budget", 0)
	v.SetDefault("prompt.language", "")

	v.SetDefault("catalog.path", "")
	v.SetDefault("catalog.watch", false)
	v.SetDefault("catalog.unknown_as_warnings", false)
	v.SetDefault("catalog.version_constraint", "")

	v.SetDefault("cache.backend", CacheMemory)
	v.SetDefault("cache.ttl", "0s")
	v.SetDefault("cache.redis.addr", "localhost:6379")
	v.SetDefault("cache.redis.password", "")
	v.SetDefault("cache.redis.db", 0)
	v.SetDefault("cache.redis.prefix", "uigen:prompt:")

	v.SetDefault("history.backend", HistoryNone)
	v.SetDefault("history.path", "~/.uigen/history.db")

	v.SetDefault("log.backend", LogSlog)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "compact")

	v.SetDefault("metrics.textfile", "")
	v.SetDefault("metrics.namespace", "uigen")

	v.SetDefault("rate_limit.per_second", 0.0)
	v.SetDefault("rate_limit.burst", 1)

	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.endpoint", "localhost:4317")
	v.SetDefault("tracing.insecure", true)
	v.SetDefault("tracing.service_name", "uigen")
	v.SetDefault("tracing.sample_rate", 1.0)

	v.SetDefault("repair", false)
}

// Load reads path (optional; "" skips the file) over the defaults, then
// applies environment overrides. ${VAR} and ${VAR:default} placeholders in
// the file are expanded from the environment before parsing. When no API key
// is configured the provider's conventional variable is consulted
// (OPENAI_API_KEY, OPENROUTER_API_KEY).
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	setDefaults(v)

	if path != "" {
		expanded, err := ExpandPath(path)
		if err != nil {
			return nil, err
		}
		content, err := os.ReadFile(expanded)
		if err != nil {
			return nil, fmt.Errorf("read config file %s: %w", expanded, err)
		}
		if err := v.MergeConfig(strings.NewReader(expandEnv(string(content)))); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", expanded, err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// Keys without a default are invisible to AutomaticEnv during Unmarshal.
	for _, key := range []string{"generation.temperature", "generation.max_tokens"} {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("bind %s: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if cfg.Generation.APIKey == "" {
		cfg.Generation.APIKey = apiKeyFromEnv(cfg.Generation.Provider)
	}
	if cfg.History.Path != "" {
		expanded, err := ExpandPath(cfg.History.Path)
		if err != nil {
			return nil, err
		}
		cfg.History.Path = expanded
	}
	return &cfg, nil
}

func apiKeyFromEnv(provider ai.ProviderName) string {
	switch provider {
	case ai.ProviderOpenAI:
		return os.Getenv("OPENAI_API_KEY")
	case ai.ProviderOpenRouter:
		return os.Getenv("OPENROUTER_API_KEY")
	}
	return ""
}

// Validate checks the generation and retry settings and the backend names.
func (c *Config) Validate() error {
	if err := c.Generation.Validate(); err != nil {
		return err
	}
	if err := c.Retry.Validate(); err != nil {
		return err
	}
	switch c.Cache.Backend {
	case CacheNone, CacheMemory, CacheRedis:
	default:
		return fmt.Errorf("%w: unknown cache backend %q", ErrInvalid, c.Cache.Backend)
	}
	switch c.History.Backend {
	case HistoryNone, HistoryMemory:
	case HistorySQLite:
		if c.History.Path == "" {
			return fmt.Errorf("%w: history.path is required for the sqlite backend", ErrInvalid)
		}
	default:
		return fmt.Errorf("%w: unknown history backend %q", ErrInvalid, c.History.Backend)
	}
	switch c.Log.Backend {
	case LogSlog, LogZerolog:
	default:
		return fmt.Errorf("%w: unknown log backend %q", ErrInvalid, c.Log.Backend)
	}
	if c.RateLimit.PerSecond < 0 {
		return fmt.Errorf("%w: rate_limit.per_second must not be negative", ErrInvalid)
	}
	if c.RateLimit.PerSecond > 0 && c.RateLimit.Burst < 1 {
		return fmt.Errorf("%w: rate_limit.burst must be at least 1", ErrInvalid)
	}
	if c.Tracing.Enabled && c.Tracing.Endpoint == "" {
		return fmt.Errorf("%w: tracing.endpoint is required when tracing is enabled", ErrInvalid)
	}
	if c.Tracing.SampleRate < 0 || c.Tracing.SampleRate > 1 {
		return fmt.Errorf("%w: tracing.sample_rate %v is outside [0, 1]", ErrInvalid, c.Tracing.SampleRate)
	}
	if c.Catalog.Watch && c.Catalog.Path == "" {
		return fmt.Errorf("%w: catalog.watch needs catalog.path", ErrInvalid)
	}
	return nil
}

// ExpandPath replaces a leading "~" with the home directory.
func ExpandPath(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("expand %s: %w", path, err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}

var placeholder = regexp.MustCompile(`\$\{(\w+)(:([^}]*))?\}`)

// expandEnv replaces ${VAR} and ${VAR:default}. Unset variables without a
// default are left as written.
func expandEnv(s string) string {
	return placeholder.ReplaceAllStringFunc(s, func(match string) string {
		groups := placeholder.FindStringSubmatch(match)
		if value, ok := os.LookupEnv(groups[1]); ok {
			return value
		}
		if groups[2] != "" {
			return groups[3]
		}
		return match
	})
}
