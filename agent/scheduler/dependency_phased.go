package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/agentcore/core/agent/deps"
	"github.com/agentcore/core/agent/toolerrors"
	"github.com/agentcore/core/agent/tools"
)

// DependencyPhasedOptions configures DependencyPhased (§4.3).
type DependencyPhasedOptions struct {
	// MaxConcurrency bounds the batch size within each phase; defaults to 5.
	MaxConcurrency int
	// Timeout bounds each phase's batch as a whole; defaults to 60s.
	Timeout time.Duration
	// FailFast aborts the whole call with a fatal error naming the failing
	// tool when a *required* dependency fails.
	FailFast bool
}

// DependencyPhased resolves calls into phases via the dependency resolver
// (C4) and runs each phase with Parallel in turn. All phase-N results are
// available in the aggregate before any phase-(N+1) call begins (§4.3, §5).
func (s *Scheduler) DependencyPhased(ctx context.Context, calls []tools.ToolCall, dependencies []tools.ToolDependency, opts DependencyPhasedOptions) ([]CallResult, []string, error) {
	resolution := deps.Resolve(calls, dependencies)

	required := make(map[string]map[string]bool, len(dependencies))
	for _, d := range dependencies {
		if d.Type == tools.DependencyOptional {
			continue
		}
		if required[d.ToolName] == nil {
			required[d.ToolName] = make(map[string]bool, len(d.Dependencies))
		}
		for _, dep := range d.Dependencies {
			required[d.ToolName][dep] = true
		}
	}

	s.emit(ctx, "dependency-phased", "start", map[string]any{"phases": len(resolution.ExecutionOrder)})

	failed := make(map[string]bool)
	results := make([]CallResult, 0, len(calls))

	for _, phase := range resolution.ExecutionOrder {
		if opts.FailFast {
			for _, call := range phase {
				for dep := range required[call.ToolName] {
					if failed[dep] {
						err := toolerrors.New(toolerrors.KindToolExecution,
							fmt.Sprintf("dependency-phased: aborting, required dependency %q of tool %q failed", dep, call.ToolName))
						s.emit(ctx, "dependency-phased", "error", map[string]any{"err": err.Error()})
						return results, resolution.Warnings, err
					}
				}
			}
		}

		phaseResults, err := s.Parallel(ctx, phase, ParallelOptions{
			Concurrency: opts.MaxConcurrency,
			Timeout:     opts.Timeout,
		})
		results = append(results, phaseResults...)
		if err != nil {
			return results, resolution.Warnings, err
		}
		for _, r := range phaseResults {
			if r.IsError() {
				failed[r.ToolName] = true
			}
		}
	}

	s.emit(ctx, "dependency-phased", "success", map[string]any{"count": len(results)})
	return results, resolution.Warnings, nil
}
