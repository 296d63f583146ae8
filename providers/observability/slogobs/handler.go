package slogobs

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"sync"
)

const timeLayout = "2006-01-02 15:04:05"

const (
	colorReset  = "\033[0m"
	colorGray   = "\033[90m"
	colorBlue   = "\033[34m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorRed    = "\033[31m"
)

// Handler is a slog.Handler rendering records in one of the Format layouts.
type Handler struct {
	format Format
	level  slog.Leveler
	colors bool

	mu  *sync.Mutex
	out io.Writer

	attrs  []slog.Attr
	prefix string
}

// HandlerOptions configures NewHandler. Zero values mean compact output at
// INFO level on stderr.
type HandlerOptions struct {
	Format Format
	Level  slog.Leveler
	Output io.Writer
	Colors bool
}

func NewHandler(opts HandlerOptions) *Handler {
	if opts.Output == nil {
		opts.Output = os.Stderr
	}
	if opts.Format == "" {
		opts.Format = FormatCompact
	}
	if opts.Level == nil {
		opts.Level = slog.LevelInfo
	}

	colors := opts.Colors
	if !colors && opts.Format != FormatJSON {
		if f, ok := opts.Output.(*os.File); ok {
			colors = isTerminal(f)
		}
	}

	return &Handler{
		format: opts.Format,
		level:  opts.Level,
		colors: colors,
		mu:     &sync.Mutex{},
		out:    opts.Output,
	}
}

func (h *Handler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *Handler) Handle(_ context.Context, r slog.Record) error {
	fields := h.fields(r)

	var line []byte
	var err error
	switch h.format {
	case FormatJSON:
		line, err = h.renderJSON(r, fields)
	case FormatPretty:
		line = h.renderPretty(r, fields)
	default:
		line, err = h.renderCompact(r, fields)
	}
	if err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err = h.out.Write(line)
	return err
}

func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.attrs = make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	clone.attrs = append(clone.attrs, h.attrs...)
	for _, attr := range attrs {
		attr.Key = h.prefix + attr.Key
		clone.attrs = append(clone.attrs, attr)
	}
	return &clone
}

func (h *Handler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	clone.prefix = h.prefix + name + "."
	return &clone
}

// fields flattens handler and record attributes into one map. Later keys
// overwrite earlier ones.
func (h *Handler) fields(r slog.Record) map[string]any {
	fields := make(map[string]any, len(h.attrs)+r.NumAttrs())
	for _, attr := range h.attrs {
		fields[attr.Key] = attr.Value.Resolve().Any()
	}
	r.Attrs(func(attr slog.Attr) bool {
		fields[h.prefix+attr.Key] = attr.Value.Resolve().Any()
		return true
	})
	for key, value := range fields {
		// Errors and durations have no useful JSON form of their own.
		switch v := value.(type) {
		case error:
			fields[key] = v.Error()
		case fmt.Stringer:
			fields[key] = v.String()
		}
	}
	return fields
}

func (h *Handler) renderCompact(r slog.Record, fields map[string]any) ([]byte, error) {
	buf := make([]byte, 0, 256)
	buf = append(buf, r.Time.Format(timeLayout)...)
	buf = append(buf, ' ')
	buf = h.appendLevel(buf, r.Level, "%5s")
	buf = append(buf, ' ')
	buf = append(buf, r.Message...)

	if len(fields) > 0 {
		encoded, err := json.Marshal(fields)
		if err != nil {
			return nil, fmt.Errorf("encode log attributes: %w", err)
		}
		buf = append(buf, " → "...)
		buf = append(buf, encoded...)
	}
	return append(buf, '\n'), nil
}

func (h *Handler) renderPretty(r slog.Record, fields map[string]any) []byte {
	buf := make([]byte, 0, 256)
	buf = append(buf, '[')
	buf = append(buf, r.Time.Format(timeLayout)...)
	buf = append(buf, "] "...)
	buf = h.appendLevel(buf, r.Level, "%-5s")
	buf = append(buf, " | "...)
	buf = append(buf, r.Message...)
	buf = append(buf, '\n')

	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		buf = append(buf, fmt.Sprintf("  • %s = %v\n", key, fields[key])...)
	}
	return buf
}

func (h *Handler) renderJSON(r slog.Record, fields map[string]any) ([]byte, error) {
	object := make(map[string]any, len(fields)+3)
	for key, value := range fields {
		object[key] = value
	}
	object["time"] = r.Time.Format("2006-01-02T15:04:05.000Z07:00")
	object["level"] = levelName(r.Level)
	object["msg"] = r.Message

	encoded, err := json.Marshal(object)
	if err != nil {
		return nil, fmt.Errorf("encode log record: %w", err)
	}
	return append(encoded, '\n'), nil
}

func (h *Handler) appendLevel(buf []byte, level slog.Level, layout string) []byte {
	name := fmt.Sprintf(layout, levelName(level))
	if !h.colors {
		return append(buf, name...)
	}
	buf = append(buf, levelColor(level)...)
	buf = append(buf, name...)
	return append(buf, colorReset...)
}

func levelColor(level slog.Level) string {
	switch {
	case level < slog.LevelDebug:
		return colorGray
	case level < slog.LevelInfo:
		return colorBlue
	case level < slog.LevelWarn:
		return colorGreen
	case level < slog.LevelError:
		return colorYellow
	default:
		return colorRed
	}
}

func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}
