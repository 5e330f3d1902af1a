// Package scheduler implements the Batch Scheduler (C5): it runs groups of
// tool calls in one of four modes (parallel, sequential, conditional,
// dependency-phased) and always returns results in submission order, phases
// in order (§4.3).
package scheduler

import (
	"context"
	"time"

	"github.com/agentcore/core/agent/events"
	"github.com/agentcore/core/agent/invoker"
	"github.com/agentcore/core/agent/telemetry"
	"github.com/agentcore/core/agent/tools"
	"github.com/agentcore/core/agent/types"
)

// Caller is the narrow seam the scheduler invokes tools through. The real
// *invoker.Invoker satisfies this; tests supply a fake.
type Caller interface {
	Invoke(ctx context.Context, toolName string, input map[string]any, opts invoker.Options) (any, error)
}

// CallResult is one entry of the `[{toolName, result?, error?}]` array every
// scheduling mode returns (§4.3).
type CallResult struct {
	ToolName string
	Result   any
	Error    error
}

// IsError reports whether the call carries an error: a Go-level error from
// the invoker, or a content-level semantic error detected by the same
// consolidated predicate C1 uses (types.ActionResult.IsError, §3/§9 Open
// Questions) — {isError:true}/{successful:false} at the top level or nested
// under a "result" key.
func (r CallResult) IsError() bool {
	if r.Error != nil {
		return true
	}
	return types.ToolResult(r.Result, true).IsError()
}

const (
	defaultConcurrency = 5
	defaultTimeout     = 60 * time.Second
)

type (
	// Scheduler runs batches of tool calls per §4.3.
	Scheduler struct {
		caller   Caller
		notifier events.Notifier
		logger   telemetry.Logger
		tenantID string
		threadID string
	}

	// Option configures a Scheduler at construction.
	Option func(*Scheduler)
)

// WithNotifier configures the event seam used for best-effort
// tool.<mode>.execution.{start,success,error} emissions.
func WithNotifier(n events.Notifier) Option {
	return func(s *Scheduler) { s.notifier = n }
}

// WithLogger configures the scheduler's logger. Defaults to a no-op logger.
func WithLogger(l telemetry.Logger) Option {
	return func(s *Scheduler) { s.logger = l }
}

// WithTenantID stamps every event emission with a tenant id.
func WithTenantID(id string) Option {
	return func(s *Scheduler) { s.tenantID = id }
}

// WithThreadID stamps every invoked call with a thread id, used for the
// invoker's best-effort session enrichment (§4.1 step 5).
func WithThreadID(id string) Option {
	return func(s *Scheduler) { s.threadID = id }
}

// ForThread returns a shallow copy of s scoped to threadID, leaving s itself
// untouched. Callers that serve many threads from one long-lived Scheduler
// (e.g. a strategy invoking on behalf of whichever run is active) use this
// instead of mutating shared state.
func (s *Scheduler) ForThread(threadID string) *Scheduler {
	clone := *s
	clone.threadID = threadID
	return &clone
}

// New constructs a Scheduler backed by caller.
func New(caller Caller, opts ...Option) *Scheduler {
	s := &Scheduler{
		caller:   caller,
		notifier: events.NewNoopNotifier(),
		logger:   telemetry.NewNoopLogger(),
	}
	for _, o := range opts {
		if o != nil {
			o(s)
		}
	}
	return s
}

func (s *Scheduler) emit(ctx context.Context, mode, phase string, data any) {
	err := s.notifier.Emit(ctx, events.Event{
		Type: "tool." + mode + ".execution." + phase,
		Data: data,
		Metadata: map[string]string{
			"tenantId": s.tenantID,
		},
	})
	if err != nil {
		s.logger.Warn(ctx, "scheduler: event emission failed", "mode", mode, "phase", phase, "err", err)
	}
}

// errString renders a CallResult's Error for event payloads, covering the
// content-level-only error case where Error is nil but IsError() is true.
func errString(err error) string {
	if err == nil {
		return "result carried a semantic error"
	}
	return err.Error()
}

func (s *Scheduler) invokeOne(ctx context.Context, call tools.ToolCall, timeout time.Duration) CallResult {
	result, err := s.caller.Invoke(ctx, call.ToolName, call.Arguments, invoker.Options{
		Timeout:  timeout,
		TenantID: s.tenantID,
		ThreadID: s.threadID,
	})
	return CallResult{ToolName: call.ToolName, Result: result, Error: err}
}
