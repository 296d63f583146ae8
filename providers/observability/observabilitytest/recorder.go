// Package observabilitytest provides an in-memory observability.Provider for
// tests that need to assert on what a component reported.
package observabilitytest

import (
	"context"
	"sync"

	"github.com/leofalp/uigen/providers/observability"
)

// Record is one captured log line.
type Record struct {
	Level string
	Msg   string
	Attrs map[string]any
}

// SpanRecord is one captured span.
type SpanRecord struct {
	Name   string
	Attrs  map[string]any
	Events []string
	Status observability.StatusCode
	Errors []error
	Ended  bool
}

// Recorder captures everything reported to it. It is safe for concurrent use.
type Recorder struct {
	mu         sync.Mutex
	records    []Record
	spans      []*SpanRecord
	counters   map[string]int64
	histograms map[string][]float64
}

var _ observability.Provider = (*Recorder)(nil)

// New returns an empty Recorder.
func New() *Recorder {
	return &Recorder{
		counters:   map[string]int64{},
		histograms: map[string][]float64{},
	}
}

// Records returns a copy of the captured log lines.
func (r *Recorder) Records() []Record {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Record(nil), r.records...)
}

// HasMessage reports whether a log line with msg was captured.
func (r *Recorder) HasMessage(msg string) bool {
	for _, record := range r.Records() {
		if record.Msg == msg {
			return true
		}
	}
	return false
}

// Spans returns a copy of the captured spans.
func (r *Recorder) Spans() []SpanRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]SpanRecord, 0, len(r.spans))
	for _, span := range r.spans {
		out = append(out, *span)
	}
	return out
}

// SpanNamed returns the first captured span called name.
func (r *Recorder) SpanNamed(name string) (SpanRecord, bool) {
	for _, span := range r.Spans() {
		if span.Name == name {
			return span, true
		}
	}
	return SpanRecord{}, false
}

// CounterValue returns the running total of the named counter.
func (r *Recorder) CounterValue(name string) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.counters[name]
}

// HistogramValues returns the values recorded on the named histogram.
func (r *Recorder) HistogramValues(name string) []float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]float64(nil), r.histograms[name]...)
}

func (r *Recorder) StartSpan(ctx context.Context, name string, attrs ...observability.Attribute) (context.Context, observability.Span) {
	span := &recordedSpan{recorder: r, record: &SpanRecord{Name: name, Attrs: toMap(attrs)}}
	r.mu.Lock()
	r.spans = append(r.spans, span.record)
	r.mu.Unlock()
	return observability.ContextWithSpan(ctx, span), span
}

func (r *Recorder) Counter(name string) observability.Counter {
	return counterFunc(func(value int64) {
		r.mu.Lock()
		r.counters[name] += value
		r.mu.Unlock()
	})
}

func (r *Recorder) Histogram(name string) observability.Histogram {
	return histogramFunc(func(value float64) {
		r.mu.Lock()
		r.histograms[name] = append(r.histograms[name], value)
		r.mu.Unlock()
	})
}

func (r *Recorder) Trace(ctx context.Context, msg string, attrs ...observability.Attribute) {
	r.log("TRACE", msg, attrs)
}

func (r *Recorder) Debug(ctx context.Context, msg string, attrs ...observability.Attribute) {
	r.log("DEBUG", msg, attrs)
}

func (r *Recorder) Info(ctx context.Context, msg string, attrs ...observability.Attribute) {
	r.log("INFO", msg, attrs)
}

func (r *Recorder) Warn(ctx context.Context, msg string, attrs ...observability.Attribute) {
	r.log("WARN", msg, attrs)
}

func (r *Recorder) Error(ctx context.Context, msg string, attrs ...observability.Attribute) {
	r.log("ERROR", msg, attrs)
}

func (r *Recorder) log(level, msg string, attrs []observability.Attribute) {
	r.mu.Lock()
	r.records = append(r.records, Record{Level: level, Msg: msg, Attrs: toMap(attrs)})
	r.mu.Unlock()
}

type recordedSpan struct {
	recorder *Recorder
	record   *SpanRecord
}

func (s *recordedSpan) End() {
	s.recorder.mu.Lock()
	s.record.Ended = true
	s.recorder.mu.Unlock()
}

func (s *recordedSpan) SetAttributes(attrs ...observability.Attribute) {
	s.recorder.mu.Lock()
	for _, attr := range attrs {
		s.record.Attrs[attr.Key] = attr.Value
	}
	s.recorder.mu.Unlock()
}

func (s *recordedSpan) SetStatus(code observability.StatusCode, _ string) {
	s.recorder.mu.Lock()
	s.record.Status = code
	s.recorder.mu.Unlock()
}

func (s *recordedSpan) RecordError(err error) {
	s.recorder.mu.Lock()
	s.record.Errors = append(s.record.Errors, err)
	s.recorder.mu.Unlock()
}

func (s *recordedSpan) AddEvent(name string, _ ...observability.Attribute) {
	s.recorder.mu.Lock()
	s.record.Events = append(s.record.Events, name)
	s.recorder.mu.Unlock()
}

type counterFunc func(int64)

func (f counterFunc) Add(_ context.Context, value int64, _ ...observability.Attribute) { f(value) }

type histogramFunc func(float64)

func (f histogramFunc) Record(_ context.Context, value float64, _ ...observability.Attribute) {
	f(value)
}

func toMap(attrs []observability.Attribute) map[string]any {
	out := make(map[string]any, len(attrs))
	for _, attr := range attrs {
		out[attr.Key] = attr.Value
	}
	return out
}
