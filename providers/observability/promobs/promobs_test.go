package promobs

import (
	"context"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leofalp/uigen/providers/observability"
)

func TestCounter(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := New(reg, WithNamespace("test"))
	ctx := context.Background()

	runs := metrics.Counter(observability.MetricRuns)
	runs.Add(ctx, 1, observability.String(observability.AttrState, "success"))
	runs.Add(ctx, 2, observability.String(observability.AttrState, "exhausted"))
	runs.Add(ctx, 1, observability.String(observability.AttrState, "success"))

	expected := `
# HELP test_uigen_runs_total uigen counter uigen.runs
# TYPE test_uigen_runs_total counter
test_uigen_runs_total{uigen_state="exhausted"} 2
test_uigen_runs_total{uigen_state="success"} 2
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "test_uigen_runs_total"))
}

func TestCounter_LabelSetIsFixedByFirstUse(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := New(reg)
	ctx := context.Background()

	hits := metrics.Counter(observability.MetricCacheHits)
	hits.Add(ctx, 1, observability.String(observability.AttrCacheBackend, "memory"))
	hits.Add(ctx, 1)
	hits.Add(ctx, 1, observability.String(observability.AttrCacheBackend, "memory"), observability.Bool("extra", true))

	count, err := testutil.GatherAndCount(reg, "uigen_cache_hits_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestCounter_IgnoresNegative(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := New(reg)
	metrics.Counter("uigen.attempts").Add(context.Background(), -1)

	count, err := testutil.GatherAndCount(reg)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := New(reg, WithBuckets(observability.MetricFixRate, []float64{0.25, 0.5, 1}))
	ctx := context.Background()

	fixRate := metrics.Histogram(observability.MetricFixRate)
	fixRate.Record(ctx, 0.5)
	fixRate.Record(ctx, 1)

	expected := `
# HELP uigen_fix_rate uigen histogram uigen.fix_rate
# TYPE uigen_fix_rate histogram
uigen_fix_rate_bucket{le="0.25"} 0
uigen_fix_rate_bucket{le="0.5"} 1
uigen_fix_rate_bucket{le="1"} 2
uigen_fix_rate_bucket{le="+Inf"} 2
uigen_fix_rate_sum 1.5
uigen_fix_rate_count 2
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "uigen_fix_rate"))
}

func TestSanitize(t *testing.T) {
	assert.Equal(t, "uigen_run_duration", sanitize("uigen.run.duration"))
	assert.Equal(t, "http_status_code", sanitize("http.status_code"))
	assert.Equal(t, "a_b", sanitize("a-b"))
}
