// Package historytest holds the behavior every history.Provider must share,
// run against each implementation by its own tests.
package historytest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leofalp/uigen/core/retry"
	"github.com/leofalp/uigen/core/schema"
	"github.com/leofalp/uigen/providers/history"
)

var base = time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)

func record(id string, succeeded bool, state retry.State, attempts int, fixRate *float64, offset time.Duration) history.Record {
	result := &retry.Result{
		RunID:     id,
		Succeeded: succeeded,
		State:     state,
		FixRate:   fixRate,
		Elapsed:   1500 * time.Millisecond,
	}
	for i := 1; i <= attempts; i++ {
		validation := schema.Failure(schema.CodeMissingField, "root.id", "component id is required")
		if succeeded && i == attempts {
			validation = schema.NewResult(nil, nil)
		}
		result.Attempts = append(result.Attempts, retry.Attempt{Index: i, RawResponse: "reply", Validation: validation})
	}
	return history.NewRecord("task "+id, "key-"+id, result, base.Add(offset))
}

// Run exercises newProvider with the shared behavior suite. newProvider must
// return an empty provider on every call.
func Run(t *testing.T, newProvider func(t *testing.T) history.Provider) {
	t.Helper()
	ctx := context.Background()
	half := 0.5

	t.Run("save and get", func(t *testing.T) {
		provider := newProvider(t)
		want := record("a", false, retry.StateExhausted, 3, &half, 0)
		require.NoError(t, provider.Save(ctx, want))

		got, err := provider.Get(ctx, "a")
		require.NoError(t, err)
		assert.Equal(t, "a", got.RunID)
		assert.Equal(t, "task a", got.Task)
		assert.Equal(t, "key-a", got.PromptKey)
		assert.False(t, got.Succeeded)
		assert.Equal(t, retry.StateExhausted, got.State)
		assert.Equal(t, 3, got.Attempts)
		require.NotNil(t, got.FixRate)
		assert.InDelta(t, 0.5, *got.FixRate, 1e-9)
		assert.Equal(t, 1500*time.Millisecond, got.Elapsed)
		assert.True(t, got.CreatedAt.Equal(base))

		require.NotNil(t, got.Result)
		require.Len(t, got.Result.Attempts, 3)
		assert.Equal(t, schema.CodeMissingField, got.Result.Attempts[0].Validation.Errors[0].Code)
	})

	t.Run("get unknown", func(t *testing.T) {
		_, err := newProvider(t).Get(ctx, "missing")
		assert.ErrorIs(t, err, history.ErrNotFound)
	})

	t.Run("empty run id is rejected", func(t *testing.T) {
		assert.Error(t, newProvider(t).Save(ctx, history.Record{}))
	})

	t.Run("save replaces", func(t *testing.T) {
		provider := newProvider(t)
		require.NoError(t, provider.Save(ctx, record("a", false, retry.StateExhausted, 2, nil, 0)))
		require.NoError(t, provider.Save(ctx, record("a", true, retry.StateSuccess, 1, nil, 0)))

		got, err := provider.Get(ctx, "a")
		require.NoError(t, err)
		assert.True(t, got.Succeeded)
		assert.Nil(t, got.FixRate)

		all, err := provider.List(ctx, history.Filter{})
		require.NoError(t, err)
		assert.Len(t, all, 1)
	})

	t.Run("list order filter and limit", func(t *testing.T) {
		provider := newProvider(t)
		require.NoError(t, provider.Save(ctx, record("old", true, retry.StateSuccess, 1, nil, 0)))
		require.NoError(t, provider.Save(ctx, record("mid", false, retry.StateTimedOut, 1, nil, time.Minute)))
		require.NoError(t, provider.Save(ctx, record("new", false, retry.StateExhausted, 3, &half, 2*time.Minute)))

		all, err := provider.List(ctx, history.Filter{})
		require.NoError(t, err)
		assert.Equal(t, []string{"new", "mid", "old"}, ids(all))

		failed := false
		onlyFailed, err := provider.List(ctx, history.Filter{Succeeded: &failed})
		require.NoError(t, err)
		assert.Equal(t, []string{"new", "mid"}, ids(onlyFailed))

		timedOut, err := provider.List(ctx, history.Filter{State: retry.StateTimedOut})
		require.NoError(t, err)
		assert.Equal(t, []string{"mid"}, ids(timedOut))

		limited, err := provider.List(ctx, history.Filter{Limit: 2})
		require.NoError(t, err)
		assert.Equal(t, []string{"new", "mid"}, ids(limited))
	})

	t.Run("stats", func(t *testing.T) {
		provider := newProvider(t)
		empty, err := provider.Stats(ctx)
		require.NoError(t, err)
		assert.Zero(t, empty.Runs)
		assert.Nil(t, empty.AverageFixRate)

		quarter := 0.25
		require.NoError(t, provider.Save(ctx, record("a", true, retry.StateSuccess, 1, nil, 0)))
		require.NoError(t, provider.Save(ctx, record("b", true, retry.StateSuccess, 3, &quarter, time.Second)))
		require.NoError(t, provider.Save(ctx, record("c", false, retry.StateExhausted, 2, &half, 2*time.Second)))

		stats, err := provider.Stats(ctx)
		require.NoError(t, err)
		assert.Equal(t, 3, stats.Runs)
		assert.Equal(t, 2, stats.Succeeded)
		assert.InDelta(t, 2.0, stats.AverageAttempts, 1e-9)
		require.NotNil(t, stats.AverageFixRate)
		assert.InDelta(t, 0.375, *stats.AverageFixRate, 1e-9)
	})
}

func ids(records []history.Record) []string {
	out := make([]string, len(records))
	for i, record := range records {
		out[i] = record.RunID
	}
	return out
}
