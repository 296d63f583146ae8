// Package slogobs is the default observability backend. It writes spans,
// metric updates and log records through log/slog, using a handler that
// renders compact, pretty or JSON lines.
//
// Format and level come from UIGEN_LOG_FORMAT and UIGEN_LOG_LEVEL (falling
// back to LOG_FORMAT and LOG_LEVEL) unless set with [WithFormat] and
// [WithLevel].
package slogobs
