package scheduler

import (
	"context"
	"time"

	"github.com/agentcore/core/agent/tools"
)

type (
	// Condition evaluates whether a tool call is eligible to run this
	// iteration, given the aggregate state accumulated from prior
	// iterations' successful results (keyed by tool name).
	Condition func(state map[string]any) bool

	// ConditionalCall pairs a call with the condition that gates it.
	ConditionalCall struct {
		Call      tools.ToolCall
		Condition Condition
	}

	// ConditionalOptions configures Conditional (§4.3).
	ConditionalOptions struct {
		// EvaluateAll runs all tools matched in an iteration concurrently;
		// otherwise they run sequentially within the iteration.
		EvaluateAll bool
		// DefaultTool names a tool to run, at most once per call to
		// Conditional, when no other tool matches in an iteration. It must
		// also be present in calls.
		DefaultTool string
		// Timeout bounds each individual call; defaults to 60s.
		Timeout time.Duration
	}
)

// Conditional repeatedly collects the calls whose Condition matches the
// accumulated state, runs them, folds their successful results into state,
// and removes them from the remaining set. Each iteration removes at least
// one call or breaks, guaranteeing termination (§4.3).
func (s *Scheduler) Conditional(ctx context.Context, calls []ConditionalCall, opts ConditionalOptions) ([]CallResult, error) {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	s.emit(ctx, "conditional", "start", map[string]any{"count": len(calls)})

	remaining := append([]ConditionalCall(nil), calls...)
	state := make(map[string]any, len(calls))
	results := make([]CallResult, 0, len(calls))
	defaultUsed := false

	for len(remaining) > 0 {
		var matched, unmatched []ConditionalCall
		for _, c := range remaining {
			if c.Condition != nil && c.Condition(state) {
				matched = append(matched, c)
			} else {
				unmatched = append(unmatched, c)
			}
		}

		if len(matched) == 0 {
			defaultIdx := -1
			for i, c := range unmatched {
				if !defaultUsed && opts.DefaultTool != "" && c.Call.ToolName == opts.DefaultTool {
					defaultIdx = i
					break
				}
			}
			if defaultIdx == -1 {
				break
			}
			defaultCall := unmatched[defaultIdx]
			unmatched = append(unmatched[:defaultIdx], unmatched[defaultIdx+1:]...)
			defaultUsed = true

			r := s.invokeOne(ctx, defaultCall.Call, timeout)
			results = append(results, r)
			if !r.IsError() {
				state[r.ToolName] = r.Result
			}
			remaining = unmatched
			continue
		}

		toolCalls := make([]tools.ToolCall, len(matched))
		for i, c := range matched {
			toolCalls[i] = c.Call
		}

		var iterResults []CallResult
		if opts.EvaluateAll {
			var err error
			iterResults, err = s.Parallel(ctx, toolCalls, ParallelOptions{Timeout: timeout})
			if err != nil {
				s.emit(ctx, "conditional", "error", map[string]any{"err": err.Error()})
				return append(results, iterResults...), err
			}
		} else {
			var err error
			iterResults, err = s.Sequential(ctx, toolCalls, SequentialOptions{Timeout: timeout})
			if err != nil {
				return append(results, iterResults...), err
			}
		}

		for _, r := range iterResults {
			if !r.IsError() {
				state[r.ToolName] = r.Result
			}
		}
		results = append(results, iterResults...)
		remaining = unmatched
	}

	s.emit(ctx, "conditional", "success", map[string]any{"count": len(results)})
	return results, nil
}
