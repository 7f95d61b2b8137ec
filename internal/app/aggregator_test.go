package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ereli-sevenai/RTFD/internal/config"
	"github.com/ereli-sevenai/RTFD/internal/domain"
	"github.com/ereli-sevenai/RTFD/internal/utils"
)

func newTestAggregator(timeout time.Duration) *Aggregator {
	cfg := config.Default()
	cfg.Concurrency.ProviderTimeout = timeout
	return NewAggregator(cfg, utils.NewDefaultLogger())
}

// TestAggregator_Collect tests concurrent fan-out and outcome assembly
func TestAggregator_Collect(t *testing.T) {
	t.Run("records every outcome under provider identity", func(t *testing.T) {
		agg := newTestAggregator(time.Second)

		tasks := []Task{
			{Provider: "alpha", Run: func(ctx context.Context) (any, error) { return "a-data", nil }},
			{Provider: "beta", Run: func(ctx context.Context) (any, error) { return "b-data", nil }},
			{Provider: "gamma", Run: func(ctx context.Context) (any, error) { return "c-data", nil }},
		}

		result := agg.Collect(context.Background(), "widget", tasks)

		assert.Equal(t, "widget", result.Subject)
		assert.Equal(t, []string{"alpha", "beta", "gamma"}, result.Providers)
		require.Len(t, result.Outcomes, 3)
		assert.Equal(t, "a-data", result.Outcomes["alpha"].Data)
		assert.Equal(t, "b-data", result.Outcomes["beta"].Data)
		assert.Equal(t, "c-data", result.Outcomes["gamma"].Data)
		assert.Empty(t, result.Failures())
	})

	t.Run("failure does not disturb other outcomes", func(t *testing.T) {
		agg := newTestAggregator(time.Second)

		tasks := []Task{
			{Provider: "healthy", Run: func(ctx context.Context) (any, error) { return "ok", nil }},
			{Provider: "missing", Run: func(ctx context.Context) (any, error) {
				return nil, domain.ErrNotFound
			}},
		}

		result := agg.Collect(context.Background(), "widget", tasks)

		assert.Equal(t, "ok", result.Outcomes["healthy"].Data)
		assert.False(t, result.Outcomes["healthy"].Failed())

		assert.True(t, result.Outcomes["missing"].Failed())
		assert.Equal(t, "not_found", result.Outcomes["missing"].ErrorReason())
		assert.Equal(t, []string{"healthy"}, result.Succeeded())
	})

	t.Run("stalled provider times out as unreachable", func(t *testing.T) {
		agg := newTestAggregator(50 * time.Millisecond)

		tasks := []Task{
			{Provider: "fast", Run: func(ctx context.Context) (any, error) { return 1, nil }},
			{Provider: "slow", Run: func(ctx context.Context) (any, error) {
				select {
				case <-time.After(10 * time.Millisecond):
					return 2, nil
				case <-ctx.Done():
					return nil, ctx.Err()
				}
			}},
			{Provider: "stalled", Run: func(ctx context.Context) (any, error) {
				<-ctx.Done()
				return nil, ctx.Err()
			}},
		}

		result := agg.Collect(context.Background(), "widget", tasks)

		assert.Equal(t, 1, result.Outcomes["fast"].Data)
		assert.Equal(t, 2, result.Outcomes["slow"].Data)

		stalled := result.Outcomes["stalled"]
		require.True(t, stalled.Failed())
		assert.True(t, domain.IsUnreachable(stalled.Err))
		assert.Equal(t, "unreachable", stalled.ErrorReason())
		assert.Nil(t, stalled.Data)
	})

	t.Run("all failures still well-formed", func(t *testing.T) {
		agg := newTestAggregator(time.Second)

		tasks := []Task{
			{Provider: "one", Run: func(ctx context.Context) (any, error) { return nil, domain.ErrNotFound }},
			{Provider: "two", Run: func(ctx context.Context) (any, error) { return nil, errors.New("boom") }},
		}

		result := agg.Collect(context.Background(), "widget", tasks)

		assert.Equal(t, []string{"one", "two"}, result.Providers)
		require.Len(t, result.Outcomes, 2)
		assert.Empty(t, result.Succeeded())
		assert.Equal(t, map[string]string{
			"one": "not_found",
			"two": "unreachable",
		}, result.Failures())
	})

	t.Run("raw errors are classified", func(t *testing.T) {
		agg := newTestAggregator(time.Second)

		tasks := []Task{
			{Provider: "raw", Run: func(ctx context.Context) (any, error) {
				return nil, errors.New("connection reset by peer")
			}},
		}

		result := agg.Collect(context.Background(), "widget", tasks)
		assert.True(t, domain.IsUnreachable(result.Outcomes["raw"].Err))
	})

	t.Run("cancelled context fails every outcome", func(t *testing.T) {
		agg := newTestAggregator(time.Second)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		// Tasks check their context the way real adapters do: whether a
		// task is abandoned before running or run with a dead context,
		// its outcome must be an unreachable failure.
		run := func(ctx context.Context) (any, error) {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			return "unused", nil
		}
		tasks := []Task{
			{Provider: "never-one", Run: run},
			{Provider: "never-two", Run: run},
		}

		result := agg.Collect(ctx, "widget", tasks)

		assert.Equal(t, []string{"never-one", "never-two"}, result.Providers)
		require.Len(t, result.Outcomes, 2)
		for _, name := range result.Providers {
			outcome := result.Outcomes[name]
			assert.True(t, outcome.Failed(), "outcome for %s", name)
			assert.True(t, domain.IsUnreachable(outcome.Err), "outcome for %s", name)
		}
	})

	t.Run("no tasks", func(t *testing.T) {
		agg := newTestAggregator(time.Second)
		result := agg.Collect(context.Background(), "widget", nil)

		assert.Equal(t, "widget", result.Subject)
		assert.Empty(t, result.Providers)
		assert.Empty(t, result.Outcomes)
	})
}
