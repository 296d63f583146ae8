package retry

import (
	"math"
	"math/rand/v2"
	"time"
)

// backoff returns the pause before attempt n+1 (n ≥ 1):
// min(InitialBackoff * BackoffFactor^(n-1), MaxBackoff) plus up to
// JitterFraction of that as random noise.
func (c Config) backoff(n int) time.Duration {
	if c.InitialBackoff <= 0 || n < 1 {
		return 0
	}
	base := float64(c.InitialBackoff) * math.Pow(c.BackoffFactor, float64(n-1))
	if base > float64(c.MaxBackoff) {
		base = float64(c.MaxBackoff)
	}
	jitter := base * c.JitterFraction * rand.Float64() //nolint:gosec // non-cryptographic jitter
	return time.Duration(base + jitter)
}
