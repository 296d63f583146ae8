package observability

// combined routes each concern to its own backend.
type combined struct {
	Tracer
	Metrics
	Logger
}

// Combine builds a Provider from separate backends, for example OpenTelemetry
// spans, Prometheus metrics and slog records. Any nil part is replaced by the
// matching part of fallback, which must then be non-nil.
func Combine(tracer Tracer, metrics Metrics, logger Logger, fallback Provider) Provider {
	if tracer == nil {
		tracer = fallback
	}
	if metrics == nil {
		metrics = fallback
	}
	if logger == nil {
		logger = fallback
	}
	return &combined{Tracer: tracer, Metrics: metrics, Logger: logger}
}
