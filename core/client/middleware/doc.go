// Package middleware provides ready-made [client.Middleware] values for the
// provider calls a client makes.
//
//   - [NewTransientRetryMiddleware] repeats a call that failed with a
//     rate-limit or server error before the attempt is counted as failed.
//   - [NewLoggingMiddleware] writes slog records around every call, at three
//     levels of detail.
//
// Usage:
//
//	c, err := client.New(provider, cfg,
//	    client.WithMiddleware(
//	        middleware.NewLoggingMiddleware(slog.Default(), middleware.LogLevelStandard),
//	        middleware.NewTransientRetryMiddleware(middleware.RetryConfig{MaxRetries: 2}),
//	    ),
//	)
//
// The first middleware is the outermost, so above one logged call may cover
// several HTTP requests.
package middleware
