// Package zerologobs is an observability backend on rs/zerolog. It logs the
// same events as slogobs for services that already standardise on zerolog.
package zerologobs

import (
	"context"
	"io"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/leofalp/uigen/providers/observability"
)

// Observer implements observability.Provider on a zerolog.Logger.
type Observer struct {
	logger zerolog.Logger

	mu       sync.Mutex
	counters map[string]int64
}

var _ observability.Provider = (*Observer)(nil)

// New wraps logger.
func New(logger zerolog.Logger) *Observer {
	return &Observer{logger: logger, counters: make(map[string]int64)}
}

// NewWriter returns an Observer writing JSON lines with timestamps to w at
// the given level. A nil w means os.Stderr.
func NewWriter(w io.Writer, level zerolog.Level) *Observer {
	if w == nil {
		w = os.Stderr
	}
	logger := zerolog.New(w).Level(level).With().Timestamp().Str("component", "uigen").Logger()
	return New(logger)
}

// ParseLevel maps a level name to a zerolog level, defaulting to info.
func ParseLevel(s string) zerolog.Level {
	level, err := zerolog.ParseLevel(s)
	if err != nil || level == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return level
}

func (o *Observer) StartSpan(ctx context.Context, name string, attrs ...observability.Attribute) (context.Context, observability.Span) {
	s := &span{name: name, start: time.Now(), logger: o.logger, attrs: append([]observability.Attribute(nil), attrs...)}
	withAttrs(o.logger.Debug(), attrs).Str("span", name).Msg("span started")
	return observability.ContextWithSpan(ctx, s), s
}

func (o *Observer) Counter(name string) observability.Counter {
	return &counter{observer: o, name: name}
}

func (o *Observer) Histogram(name string) observability.Histogram {
	return &histogram{logger: o.logger, name: name}
}

func (o *Observer) Trace(_ context.Context, msg string, attrs ...observability.Attribute) {
	withAttrs(o.logger.Trace(), attrs).Msg(msg)
}

func (o *Observer) Debug(_ context.Context, msg string, attrs ...observability.Attribute) {
	withAttrs(o.logger.Debug(), attrs).Msg(msg)
}

func (o *Observer) Info(_ context.Context, msg string, attrs ...observability.Attribute) {
	withAttrs(o.logger.Info(), attrs).Msg(msg)
}

func (o *Observer) Warn(_ context.Context, msg string, attrs ...observability.Attribute) {
	withAttrs(o.logger.Warn(), attrs).Msg(msg)
}

func (o *Observer) Error(_ context.Context, msg string, attrs ...observability.Attribute) {
	withAttrs(o.logger.Error(), attrs).Msg(msg)
}

type span struct {
	name   string
	start  time.Time
	logger zerolog.Logger

	mu    sync.Mutex
	attrs []observability.Attribute
}

func (s *span) End() {
	s.mu.Lock()
	attrs := append([]observability.Attribute(nil), s.attrs...)
	s.mu.Unlock()
	withAttrs(s.logger.Debug(), attrs).Str("span", s.name).Dur(observability.AttrDuration, time.Since(s.start)).Msg("span ended")
}

func (s *span) SetAttributes(attrs ...observability.Attribute) {
	s.mu.Lock()
	s.attrs = append(s.attrs, attrs...)
	s.mu.Unlock()
}

func (s *span) SetStatus(code observability.StatusCode, description string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attrs = append(s.attrs, observability.String(observability.AttrStatus, code.String()))
	if description != "" {
		s.attrs = append(s.attrs, observability.String(observability.AttrStatusDescription, description))
	}
}

func (s *span) RecordError(err error) {
	if err == nil {
		return
	}
	s.logger.Error().Err(err).Str("span", s.name).Msg("span error")
}

func (s *span) AddEvent(name string, attrs ...observability.Attribute) {
	withAttrs(s.logger.Debug(), attrs).Str("span", s.name).Msg(name)
}

type counter struct {
	observer *Observer
	name     string
}

func (c *counter) Add(_ context.Context, value int64, attrs ...observability.Attribute) {
	c.observer.mu.Lock()
	c.observer.counters[c.name] += value
	total := c.observer.counters[c.name]
	c.observer.mu.Unlock()
	withAttrs(c.observer.logger.Debug(), attrs).Str("metric", c.name).Int64("delta", value).Int64("value", total).Msg("counter")
}

type histogram struct {
	logger zerolog.Logger
	name   string
}

func (h *histogram) Record(_ context.Context, value float64, attrs ...observability.Attribute) {
	withAttrs(h.logger.Debug(), attrs).Str("metric", h.name).Float64("value", value).Msg("histogram")
}

// withAttrs adds attrs to event using typed zerolog fields where possible.
// A disabled event is a nil pointer, which every zerolog method accepts.
func withAttrs(event *zerolog.Event, attrs []observability.Attribute) *zerolog.Event {
	for _, attr := range attrs {
		switch v := attr.Value.(type) {
		case string:
			event = event.Str(attr.Key, v)
		case int:
			event = event.Int(attr.Key, v)
		case int64:
			event = event.Int64(attr.Key, v)
		case float64:
			event = event.Float64(attr.Key, v)
		case bool:
			event = event.Bool(attr.Key, v)
		case time.Duration:
			event = event.Dur(attr.Key, v)
		case error:
			event = event.AnErr(attr.Key, v)
		default:
			event = event.Interface(attr.Key, v)
		}
	}
	return event
}
