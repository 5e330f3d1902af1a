package scheduler

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/agentcore/core/agent/tools"
)

// ParallelOptions configures Parallel (§4.3).
type ParallelOptions struct {
	// Concurrency is the batch size; defaults to 5.
	Concurrency int
	// Timeout bounds each batch as a whole; defaults to 60s.
	Timeout time.Duration
	// FailFast aborts the whole call on the first tool that returns an
	// error, and halts further batches once any result in a completed
	// batch carries an error.
	FailFast bool
}

// Parallel chunks calls into batches of Concurrency, running each batch
// against a single batch-wide timeout. Results accumulate across batches in
// submission order; batches themselves run in submission order so earlier
// batches' results are available before later batches start.
func (s *Scheduler) Parallel(ctx context.Context, calls []tools.ToolCall, opts ParallelOptions) ([]CallResult, error) {
	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	s.emit(ctx, "parallel", "start", map[string]any{"count": len(calls)})

	results := make([]CallResult, 0, len(calls))
	for start := 0; start < len(calls); start += concurrency {
		end := start + concurrency
		if end > len(calls) {
			end = len(calls)
		}
		batch := calls[start:end]

		batchResults, err := s.runBatch(ctx, batch, timeout, opts.FailFast)
		results = append(results, batchResults...)
		if err != nil {
			s.emit(ctx, "parallel", "error", map[string]any{"err": err.Error()})
			return results, err
		}
		if opts.FailFast && anyError(batchResults) {
			s.emit(ctx, "parallel", "error", map[string]any{"reason": "result carried error, halting further batches"})
			return results, nil
		}
	}

	s.emit(ctx, "parallel", "success", map[string]any{"count": len(results)})
	return results, nil
}

// runBatch executes one batch of calls concurrently against a shared
// timeout. When failFast is set, the first call that returns a Go error
// cancels the batch context and the error propagates to the caller.
func (s *Scheduler) runBatch(ctx context.Context, batch []tools.ToolCall, timeout time.Duration, failFast bool) ([]CallResult, error) {
	batchCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	out := make([]CallResult, len(batch))
	if failFast {
		g, gCtx := errgroup.WithContext(batchCtx)
		for i, call := range batch {
			i, call := i, call
			g.Go(func() error {
				r := s.invokeOne(gCtx, call, timeout)
				out[i] = r
				if r.Error != nil {
					return fmt.Errorf("tool %q: %w", call.ToolName, r.Error)
				}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return out, err
		}
		return out, nil
	}

	var g errgroup.Group
	for i, call := range batch {
		i, call := i, call
		g.Go(func() error {
			out[i] = s.invokeOne(batchCtx, call, timeout)
			return nil
		})
	}
	_ = g.Wait()
	return out, nil
}

func anyError(results []CallResult) bool {
	for _, r := range results {
		if r.IsError() {
			return true
		}
	}
	return false
}
