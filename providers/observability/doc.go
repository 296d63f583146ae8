// Package observability defines the tracing, metrics and logging interfaces
// the uigen pipeline reports through, plus the attribute, span and metric
// names it uses.
//
// A [Provider] bundles a [Tracer], [Metrics] and a [Logger]. Backends live in
// sub-packages: slogobs (log/slog, the default), zerologobs (rs/zerolog),
// promobs (Prometheus metrics) and otelobs (OpenTelemetry tracing). [Combine]
// builds one Provider out of parts taken from different backends.
//
// Every component accepts a nil Provider and then records nothing.
package observability
