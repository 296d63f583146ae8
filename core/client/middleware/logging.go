package middleware

import (
	"context"
	"log/slog"
	"time"

	"github.com/leofalp/uigen/core/client"
	"github.com/leofalp/uigen/core/retry"
	"github.com/leofalp/uigen/internal/utils"
	"github.com/leofalp/uigen/providers/ai"
)

// LogLevel controls how much the logging middleware writes per call.
type LogLevel int

const (
	// LogLevelMinimal logs the duration and the reply size.
	LogLevelMinimal LogLevel = iota

	// LogLevelStandard adds the prompt size and the number of earlier turns.
	LogLevelStandard

	// LogLevelVerbose adds the prompt and reply text, truncated.
	//
	// WARNING: prompts and replies may contain user data. Do not use
	// LogLevelVerbose in production.
	LogLevelVerbose
)

const truncateLen = 500

// NewLoggingMiddleware writes an slog record before and after every generate
// call. logger must not be nil.
func NewLoggingMiddleware(logger *slog.Logger, level LogLevel) client.Middleware {
	return func(next retry.GenerateFunc) retry.GenerateFunc {
		return func(ctx context.Context, prompt string, history []ai.Message) (string, error) {
			logger.InfoContext(ctx, "llm generate", requestAttrs(prompt, history, level)...)

			start := time.Now()
			text, err := next(ctx, prompt, history)
			elapsed := time.Since(start)

			if err != nil {
				logger.ErrorContext(ctx, "llm generate failed",
					slog.Duration("duration", elapsed),
					slog.String("error", err.Error()),
				)
				return text, err
			}

			logger.InfoContext(ctx, "llm generate completed", responseAttrs(text, elapsed, level)...)
			return text, nil
		}
	}
}

func requestAttrs(prompt string, history []ai.Message, level LogLevel) []any {
	var attrs []any
	if level >= LogLevelStandard {
		attrs = append(attrs,
			slog.Int("prompt_chars", len(prompt)),
			slog.Int("history_messages", len(history)),
		)
	}
	if level >= LogLevelVerbose {
		attrs = append(attrs, slog.String("prompt", utils.TruncateString(prompt, truncateLen)))
	}
	return attrs
}

func responseAttrs(text string, elapsed time.Duration, level LogLevel) []any {
	attrs := []any{
		slog.Duration("duration", elapsed),
		slog.Int("response_chars", len(text)),
	}
	if level >= LogLevelVerbose && text != "" {
		attrs = append(attrs, slog.String("response", utils.TruncateString(text, truncateLen)))
	}
	return attrs
}
