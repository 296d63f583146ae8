package client

import (
	"github.com/leofalp/uigen/core/retry"
)

// Middleware wraps one generate call. It receives the next function in the
// chain and returns a function that calls it, possibly observing or changing
// the prompt, the history or the reply on the way.
type Middleware func(next retry.GenerateFunc) retry.GenerateFunc

// chain applies middlewares around base. The first middleware is the
// outermost wrapper: it runs first on the way in and last on the way out.
func chain(base retry.GenerateFunc, middlewares []Middleware) retry.GenerateFunc {
	generate := base
	for i := len(middlewares) - 1; i >= 0; i-- {
		if middlewares[i] != nil {
			generate = middlewares[i](generate)
		}
	}
	return generate
}
