package scheduler

import (
	"context"
	"time"

	"github.com/agentcore/core/agent/tools"
)

// SequentialOptions configures Sequential (§4.3).
type SequentialOptions struct {
	// StopOnError short-circuits the remaining calls once one fails.
	StopOnError bool
	// PassResults merges the previous successful result into the next
	// call's arguments under the "previousResult" key.
	PassResults bool
	// Timeout bounds each individual call; defaults to 60s.
	Timeout time.Duration
}

// Sequential invokes calls in order, optionally threading the previous
// successful result forward and optionally stopping at the first error
// (§4.3).
func (s *Scheduler) Sequential(ctx context.Context, calls []tools.ToolCall, opts SequentialOptions) ([]CallResult, error) {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	s.emit(ctx, "sequential", "start", map[string]any{"count": len(calls)})

	results := make([]CallResult, 0, len(calls))
	var lastSuccess any
	haveLastSuccess := false

	for _, call := range calls {
		effective := call
		if opts.PassResults && haveLastSuccess {
			args := make(map[string]any, len(call.Arguments)+1)
			for k, v := range call.Arguments {
				args[k] = v
			}
			args["previousResult"] = lastSuccess
			effective.Arguments = args
		}

		r := s.invokeOne(ctx, effective, timeout)
		results = append(results, r)

		if r.IsError() {
			s.emit(ctx, "sequential", "error", map[string]any{"tool": r.ToolName, "err": errString(r.Error)})
			if opts.StopOnError {
				return results, nil
			}
			continue
		}
		lastSuccess = r.Result
		haveLastSuccess = true
	}

	s.emit(ctx, "sequential", "success", map[string]any{"count": len(results)})
	return results, nil
}
