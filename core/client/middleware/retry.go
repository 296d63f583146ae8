package middleware

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"github.com/leofalp/uigen/core/client"
	"github.com/leofalp/uigen/core/retry"
	"github.com/leofalp/uigen/internal/utils"
	"github.com/leofalp/uigen/providers/ai"
)

// RetryConfig tunes NewTransientRetryMiddleware. Zero fields take the
// defaults noted on each.
type RetryConfig struct {
	// MaxRetries is the number of repeats after the first failure. Default 2.
	MaxRetries int
	// InitialBackoff is the pause before the first repeat. Default 500ms.
	InitialBackoff time.Duration
	// MaxBackoff caps the pause. Default 5s.
	MaxBackoff time.Duration
	// BackoffFactor multiplies the pause after each repeat. Default 2.
	BackoffFactor float64
	// JitterFraction adds up to this fraction of the pause as noise. Default 0.1.
	JitterFraction float64
	// Retryable decides which errors are repeated. The default repeats HTTP
	// 429 and 5xx answers.
	Retryable func(error) bool
}

// Retryable is the default RetryConfig.Retryable.
func Retryable(err error) bool {
	var status *utils.StatusError
	return errors.As(err, &status) && status.Retryable()
}

func (c *RetryConfig) applyDefaults() {
	if c.MaxRetries == 0 {
		c.MaxRetries = 2
	}
	if c.InitialBackoff == 0 {
		c.InitialBackoff = 500 * time.Millisecond
	}
	if c.MaxBackoff == 0 {
		c.MaxBackoff = 5 * time.Second
	}
	if c.BackoffFactor == 0 {
		c.BackoffFactor = 2
	}
	if c.JitterFraction == 0 {
		c.JitterFraction = 0.1
	}
	if c.Retryable == nil {
		c.Retryable = Retryable
	}
}

// backoff returns the pause before repeat n, counted from 0.
func (c RetryConfig) backoff(n int) time.Duration {
	base := float64(c.InitialBackoff) * math.Pow(c.BackoffFactor, float64(n))
	if base > float64(c.MaxBackoff) {
		base = float64(c.MaxBackoff)
	}
	jitter := base * c.JitterFraction * rand.Float64() //nolint:gosec // non-cryptographic jitter
	return time.Duration(base + jitter)
}

// NewTransientRetryMiddleware repeats a generate call that failed with a
// transient transport error. It works inside one orchestrator attempt and
// therefore inside its deadline: when the context ends while waiting, the
// context error is returned. Errors the config does not consider retryable
// are returned at once.
func NewTransientRetryMiddleware(config RetryConfig) client.Middleware {
	config.applyDefaults()

	return func(next retry.GenerateFunc) retry.GenerateFunc {
		return func(ctx context.Context, prompt string, history []ai.Message) (string, error) {
			var lastErr error
			for n := 0; n <= config.MaxRetries; n++ {
				if n > 0 {
					timer := time.NewTimer(config.backoff(n - 1))
					select {
					case <-ctx.Done():
						timer.Stop()
						return "", ctx.Err()
					case <-timer.C:
					}
				}

				text, err := next(ctx, prompt, history)
				if err == nil {
					return text, nil
				}
				lastErr = err
				if !config.Retryable(err) {
					return "", err
				}
			}
			return "", fmt.Errorf("%w after %d retries: %w", ErrRetryExhausted, config.MaxRetries, lastErr)
		}
	}
}
