// Package app coordinates providers into aggregate operations: locate,
// search, and the fetch-normalize-extract-select documentation
// pipeline.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/ereli-sevenai/RTFD/internal/config"
	"github.com/ereli-sevenai/RTFD/internal/domain"
	"github.com/ereli-sevenai/RTFD/internal/utils"
)

// Task is one named provider invocation for the aggregator.
type Task struct {
	Provider string
	Run      func(ctx context.Context) (any, error)
}

// Aggregator fans tasks out over a bounded worker pool and records one
// outcome per task under its provider name. A failing or stalling
// provider never aborts the fan-out; its outcome carries the classified
// error instead.
type Aggregator struct {
	logger   *utils.Logger
	timeout  time.Duration
	workers  int
	progress func(provider string)
}

// NewAggregator creates an aggregator with the configured per-provider
// timeout and worker bound.
func NewAggregator(cfg *config.Config, logger *utils.Logger) *Aggregator {
	timeout := cfg.Concurrency.ProviderTimeout
	if timeout <= 0 {
		timeout = config.DefaultProviderTimeout
	}
	workers := cfg.Concurrency.Workers
	if workers <= 0 {
		workers = config.DefaultWorkers
	}

	return &Aggregator{
		logger:  logger.WithComponent("aggregator"),
		timeout: timeout,
		workers: workers,
	}
}

// Collect runs every task concurrently and assembles the outcome map.
// Each task gets its own deadline; a task that misses it records an
// unreachable failure. The result always holds one outcome per task,
// keyed by provider name, regardless of completion order.
func (a *Aggregator) Collect(ctx context.Context, subject string, tasks []Task) *domain.AggregateResult {
	result := &domain.AggregateResult{
		Subject:  subject,
		Outcomes: make(map[string]domain.ProviderOutcome, len(tasks)),
	}

	indexes := make([]int, len(tasks))
	for i := range tasks {
		indexes[i] = i
		result.Providers = append(result.Providers, tasks[i].Provider)
	}

	start := time.Now()
	outcomes := make([]domain.ProviderOutcome, len(tasks))
	utils.ParallelForEach(ctx, indexes, a.workers, func(ctx context.Context, i int) error {
		task := tasks[i]

		callCtx, cancel := context.WithTimeout(ctx, a.timeout)
		defer cancel()

		callStart := time.Now()
		data, err := task.Run(callCtx)
		if err != nil {
			err = domain.Classify(err)
			data = nil
			a.logger.Debug().
				Str("provider", task.Provider).
				Dur("elapsed", time.Since(callStart)).
				Err(err).
				Msg("Provider call failed")
		}

		outcomes[i] = domain.ProviderOutcome{
			Provider: task.Provider,
			Data:     data,
			Err:      err,
		}
		if a.progress != nil {
			a.progress(task.Provider)
		}
		return nil
	})

	// Cancellation can abandon queued tasks before they run. Fill the
	// empty slots so the outcome map stays total.
	for i, task := range tasks {
		if outcomes[i].Provider == "" {
			outcomes[i] = domain.ProviderOutcome{
				Provider: task.Provider,
				Err:      fmt.Errorf("%w: call abandoned: %v", domain.ErrUnreachable, context.Cause(ctx)),
			}
		}
		result.Outcomes[task.Provider] = outcomes[i]
	}

	a.logger.Debug().
		Str("subject", subject).
		Int("providers", len(tasks)).
		Int("failed", len(result.Failures())).
		Dur("elapsed", time.Since(start)).
		Msg("Fan-out completed")

	return result
}
