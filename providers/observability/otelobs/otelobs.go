// Package otelobs records uigen spans with OpenTelemetry. It implements
// observability.Tracer; combine it with a metrics and a logging backend
// through observability.Combine.
package otelobs

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"

	"github.com/leofalp/uigen/providers/observability"
)

// InstrumentationName identifies uigen spans.
const InstrumentationName = "github.com/leofalp/uigen"

// Tracer adapts an OpenTelemetry tracer.
type Tracer struct {
	tracer trace.Tracer
}

var _ observability.Tracer = (*Tracer)(nil)

// New wraps tp. A nil tp uses the global tracer provider.
func New(tp trace.TracerProvider) *Tracer {
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	return &Tracer{tracer: tp.Tracer(InstrumentationName)}
}

// ProviderConfig configures NewTracerProvider.
type ProviderConfig struct {
	ServiceName string
	// SampleRate is the fraction of runs traced. 1 or more samples
	// everything, 0 or less samples nothing.
	SampleRate float64
}

// NewTracerProvider builds an SDK tracer provider batching spans to
// exporter. The caller owns Shutdown.
func NewTracerProvider(cfg ProviderConfig, exporter sdktrace.SpanExporter) *sdktrace.TracerProvider {
	var sampler sdktrace.Sampler
	switch {
	case cfg.SampleRate >= 1:
		sampler = sdktrace.AlwaysSample()
	case cfg.SampleRate <= 0:
		sampler = sdktrace.NeverSample()
	default:
		sampler = sdktrace.TraceIDRatioBased(cfg.SampleRate)
	}

	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "uigen"
	}

	return sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(resource.NewSchemaless(attribute.String("service.name", serviceName))),
		sdktrace.WithSampler(sdktrace.ParentBased(sampler)),
	)
}

func (t *Tracer) StartSpan(ctx context.Context, name string, attrs ...observability.Attribute) (context.Context, observability.Span) {
	ctx, otelSpan := t.tracer.Start(ctx, name, trace.WithAttributes(toOtel(attrs)...))
	s := &span{span: otelSpan}
	return observability.ContextWithSpan(ctx, s), s
}

type span struct {
	span trace.Span
}

func (s *span) End() {
	s.span.End()
}

func (s *span) SetAttributes(attrs ...observability.Attribute) {
	s.span.SetAttributes(toOtel(attrs)...)
}

func (s *span) SetStatus(code observability.StatusCode, description string) {
	switch code {
	case observability.StatusOK:
		s.span.SetStatus(codes.Ok, description)
	case observability.StatusError:
		s.span.SetStatus(codes.Error, description)
	default:
		s.span.SetStatus(codes.Unset, description)
	}
}

func (s *span) RecordError(err error) {
	if err == nil {
		return
	}
	s.span.RecordError(err)
}

func (s *span) AddEvent(name string, attrs ...observability.Attribute) {
	s.span.AddEvent(name, trace.WithAttributes(toOtel(attrs)...))
}

// TraceID returns the trace id of the span in ctx, or "".
func TraceID(ctx context.Context) string {
	sc := trace.SpanFromContext(ctx).SpanContext()
	if !sc.IsValid() {
		return ""
	}
	return sc.TraceID().String()
}

func toOtel(attrs []observability.Attribute) []attribute.KeyValue {
	out := make([]attribute.KeyValue, 0, len(attrs))
	for _, attr := range attrs {
		switch v := attr.Value.(type) {
		case string:
			out = append(out, attribute.String(attr.Key, v))
		case int:
			out = append(out, attribute.Int(attr.Key, v))
		case int64:
			out = append(out, attribute.Int64(attr.Key, v))
		case float64:
			out = append(out, attribute.Float64(attr.Key, v))
		case bool:
			out = append(out, attribute.Bool(attr.Key, v))
		case time.Duration:
			out = append(out, attribute.Int64(attr.Key+"_ms", v.Milliseconds()))
		case []string:
			out = append(out, attribute.StringSlice(attr.Key, v))
		default:
			out = append(out, attribute.String(attr.Key, fmt.Sprint(v)))
		}
	}
	return out
}
