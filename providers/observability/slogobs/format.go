package slogobs

import (
	"log/slog"
	"os"
	"strings"
)

// Format selects how the handler renders a record.
type Format string

const (
	// FormatCompact is one line per record with attributes as a JSON object:
	//	2026-03-01 10:40:35 DEBUG attempt failed → {"uigen.attempt":1}
	FormatCompact Format = "compact"
	// FormatPretty puts each attribute on its own indented line.
	FormatPretty Format = "pretty"
	// FormatJSON is one JSON object per record.
	FormatJSON Format = "json"
)

// LevelTrace sits below slog.LevelDebug.
const LevelTrace = slog.LevelDebug - 4

func (f Format) String() string {
	return string(f)
}

// ParseFormat maps s to a Format, defaulting to FormatCompact.
func ParseFormat(s string) Format {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case FormatPretty:
		return FormatPretty
	case FormatJSON:
		return FormatJSON
	default:
		return FormatCompact
	}
}

// ParseLevel maps s to a slog level. Unknown values give slog.LevelInfo and
// ok == false.
func ParseLevel(s string) (level slog.Level, ok bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "TRACE":
		return LevelTrace, true
	case "DEBUG":
		return slog.LevelDebug, true
	case "INFO":
		return slog.LevelInfo, true
	case "WARN", "WARNING":
		return slog.LevelWarn, true
	case "ERROR":
		return slog.LevelError, true
	default:
		return slog.LevelInfo, false
	}
}

// FormatFromEnv reads UIGEN_LOG_FORMAT, then LOG_FORMAT.
func FormatFromEnv() Format {
	return ParseFormat(firstEnv("UIGEN_LOG_FORMAT", "LOG_FORMAT"))
}

// LevelFromEnv reads UIGEN_LOG_LEVEL, then LOG_LEVEL. The default is INFO.
func LevelFromEnv() slog.Level {
	level, _ := ParseLevel(firstEnv("UIGEN_LOG_LEVEL", "LOG_LEVEL"))
	return level
}

func firstEnv(keys ...string) string {
	for _, key := range keys {
		if value := os.Getenv(key); value != "" {
			return value
		}
	}
	return ""
}

func levelName(level slog.Level) string {
	switch {
	case level < slog.LevelDebug:
		return "TRACE"
	case level < slog.LevelInfo:
		return "DEBUG"
	case level < slog.LevelWarn:
		return "INFO"
	case level < slog.LevelError:
		return "WARN"
	default:
		return "ERROR"
	}
}
