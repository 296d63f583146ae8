package zerologobs

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leofalp/uigen/providers/observability"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var lines []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var record map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &record))
		lines = append(lines, record)
	}
	return lines
}

func TestObserver_TypedFields(t *testing.T) {
	var buf bytes.Buffer
	observer := NewWriter(&buf, zerolog.InfoLevel)

	observer.Info(context.Background(), "run finished",
		observability.String(observability.AttrRunID, "r-1"),
		observability.Int(observability.AttrAttempt, 3),
		observability.Bool(observability.AttrSucceeded, true),
		observability.Float64(observability.AttrFixRate, 0.5),
		observability.Duration(observability.AttrDuration, 2*time.Second),
	)

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	record := lines[0]
	assert.Equal(t, "info", record["level"])
	assert.Equal(t, "run finished", record["message"])
	assert.Equal(t, "uigen", record["component"])
	assert.Equal(t, "r-1", record[observability.AttrRunID])
	assert.Equal(t, float64(3), record[observability.AttrAttempt])
	assert.Equal(t, true, record[observability.AttrSucceeded])
	assert.Equal(t, 0.5, record[observability.AttrFixRate])
	assert.Contains(t, record, "time")
}

func TestObserver_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	observer := NewWriter(&buf, zerolog.WarnLevel)

	observer.Debug(context.Background(), "hidden")
	observer.Info(context.Background(), "hidden too")
	observer.Warn(context.Background(), "shown")

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "shown", lines[0]["message"])
}

func TestObserver_SpanAndMetrics(t *testing.T) {
	var buf bytes.Buffer
	observer := NewWriter(&buf, zerolog.DebugLevel)
	ctx := context.Background()

	spanCtx, span := observer.StartSpan(ctx, observability.SpanRetryRun)
	assert.Equal(t, span, observability.SpanFromContext(spanCtx))
	span.SetStatus(observability.StatusOK, "")
	span.RecordError(errors.New("boom"))
	span.End()

	observer.Counter(observability.MetricRuns).Add(ctx, 1)
	observer.Counter(observability.MetricRuns).Add(ctx, 1)

	lines := decodeLines(t, &buf)
	messages := make([]string, 0, len(lines))
	for _, line := range lines {
		messages = append(messages, line["message"].(string))
	}
	assert.Equal(t, []string{"span started", "span error", "span ended", "counter", "counter"}, messages)
	assert.Equal(t, "ok", lines[2][observability.AttrStatus])
	assert.Equal(t, "boom", lines[1]["error"])
	assert.Equal(t, float64(2), lines[4]["value"])
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, ParseLevel("debug"))
	assert.Equal(t, zerolog.InfoLevel, ParseLevel("nonsense"))
	assert.Equal(t, zerolog.InfoLevel, ParseLevel(""))
}
