// Package session defines the narrow seam the core uses to write best-effort
// execution progress into an external session/context store (§6.3). The
// store itself — persistence, schema, durability — is out of scope (§1);
// the core only depends on this interface, grounded on the teacher's
// runtime/agent/session.Store contract.
package session

import "context"

type (
	// StepStatus describes the lifecycle of the step currently executing.
	StepStatus string

	// CurrentStep reports the tool call presently in flight for a thread.
	CurrentStep struct {
		ID     string
		Status StepStatus
		Tool   string
	}

	// ExecutionPatch is a partial update applied to a thread's execution
	// state. Zero-valued fields are left untouched by Sink implementations
	// unless documented otherwise (e.g. CompletedSteps/FailedSteps append).
	ExecutionPatch struct {
		CurrentStep    *CurrentStep
		CompletedSteps []string
		FailedSteps    []string
		LastError      string
	}

	// Entity is a single keyed fact recorded against a thread (for example
	// tool result caches, keyed by tool name).
	Entity struct {
		Kind string
		ID   string
		Data any
	}

	// Context is the subset of session state the core reads back to enrich
	// a ToolContext (§4.1 step 5).
	Context struct {
		SessionID      string
		ThreadID       string
		RecentMessages []RecentMessage
		Entities       map[string]any
		CompletedSteps []string
		FailedSteps    []string
	}

	// RecentMessage mirrors tools.RecentMessage to avoid an import cycle
	// between session and tools; callers at the wiring layer convert
	// between the two freely (they are structurally identical).
	RecentMessage struct {
		Role    string
		Content string
	}

	// Sink is the write-through seam into the external session store.
	// Every write must be idempotent keyed by (threadID, callID) per §5:
	// concurrent runs over the same thread share the store and must
	// tolerate concurrent writes (last-writer-wins on scalars, set-union on
	// step-id lists).
	//
	// All methods are best-effort from the core's perspective: callers
	// (invoker, strategy runtime) log and swallow errors rather than fail
	// the run, except where the spec calls out a hard dependency.
	Sink interface {
		// UpdateExecution applies patch to threadID's execution state.
		UpdateExecution(ctx context.Context, threadID string, patch ExecutionPatch) error
		// AddEntities records entity snapshots against threadID.
		AddEntities(ctx context.Context, threadID string, entities []Entity) error
		// GetContext loads the current context for threadID. Returns an
		// error if the thread is unknown; callers treat that as "no
		// enrichment available" rather than fatal.
		GetContext(ctx context.Context, threadID string) (Context, error)
	}

	// noopSink discards every write and reports no context. It is the
	// library default so tests and callers that do not need session
	// persistence need not provide anything.
	noopSink struct{}
)

// NewNoopSink returns a Sink that discards every write and reports an empty
// context. Use this when no session store is configured.
func NewNoopSink() Sink { return noopSink{} }

func (noopSink) UpdateExecution(context.Context, string, ExecutionPatch) error { return nil }
func (noopSink) AddEntities(context.Context, string, []Entity) error           { return nil }
func (noopSink) GetContext(_ context.Context, threadID string) (Context, error) {
	return Context{ThreadID: threadID}, nil
}

const (
	// StepStatusExecuting indicates a tool call is currently in flight.
	StepStatusExecuting StepStatus = "executing"
	// StepStatusCompleted indicates a tool call finished successfully.
	StepStatusCompleted StepStatus = "completed"
	// StepStatusFailed indicates a tool call finished with an error.
	StepStatusFailed StepStatus = "failed"
)
