package middleware

import "errors"

// ErrRetryExhausted is wrapped, together with the last provider error, when
// every transient retry failed.
var ErrRetryExhausted = errors.New("transient retries exhausted")
