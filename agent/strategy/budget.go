// Package strategy implements the Strategy Runtime (C6): the loop
// scaffolding for iterative strategies — budgets, loop detection, forced
// finalization, and best-effort session updates (§4.4). The strategies
// themselves live in the react and rewoo packages; the ReAct strategy runs
// on this package, while the ReWoo pipeline does not use it and applies its
// own overall and per-work timeouts.
package strategy

import "time"

// Budgets bounds a single run (§6.6 defaults in parentheses).
type Budgets struct {
	// MaxIterations bounds the number of Think/Act/Observe cycles. Default
	// 10.
	MaxIterations int
	// MaxToolCalls bounds the number of tool_call actions across the run.
	// Default 20.
	MaxToolCalls int
	// MaxExecutionTime bounds wall-clock run time. Default 300s.
	MaxExecutionTime time.Duration
	// StepTimeout bounds a single iteration. Default 60s.
	StepTimeout time.Duration
}

// DefaultBudgets returns the §6.6 defaults.
func DefaultBudgets() Budgets {
	return Budgets{
		MaxIterations:    10,
		MaxToolCalls:     20,
		MaxExecutionTime: 300 * time.Second,
		StepTimeout:      60 * time.Second,
	}
}

// BreachKind names which budget tripped, as reported by
// BudgetTracker.BeginIteration and BudgetTracker.RecordToolCall.
type BreachKind string

const (
	BreachNone             BreachKind = ""
	BreachMaxIterations    BreachKind = "max_iterations"
	BreachMaxToolCalls     BreachKind = "max_tool_calls"
	BreachMaxExecutionTime BreachKind = "max_execution_time"
	BreachStepTimeout      BreachKind = "step_timeout"
)

// BudgetTracker accumulates iteration/tool-call counts and elapsed time
// against a Budgets and reports breaches (P2 Budget monotonicity).
type BudgetTracker struct {
	budgets    Budgets
	started    time.Time
	iterations int
	toolCalls  int
}

// NewBudgetTracker starts a tracker against b, with the clock beginning now.
func NewBudgetTracker(b Budgets, now time.Time) *BudgetTracker {
	return &BudgetTracker{budgets: b, started: now}
}

// BeginIteration records the start of a new iteration and reports whether
// the run may proceed; if not, it reports which budget was breached.
func (t *BudgetTracker) BeginIteration(now time.Time) (bool, BreachKind) {
	if t.budgets.MaxIterations > 0 && t.iterations >= t.budgets.MaxIterations {
		return false, BreachMaxIterations
	}
	if t.budgets.MaxExecutionTime > 0 && now.Sub(t.started) >= t.budgets.MaxExecutionTime {
		return false, BreachMaxExecutionTime
	}
	t.iterations++
	return true, BreachNone
}

// RecordToolCall increments the tool-call count and reports whether doing
// so breached MaxToolCalls.
func (t *BudgetTracker) RecordToolCall() (bool, BreachKind) {
	t.toolCalls++
	if t.budgets.MaxToolCalls > 0 && t.toolCalls > t.budgets.MaxToolCalls {
		return false, BreachMaxToolCalls
	}
	return true, BreachNone
}

// Iterations reports the number of iterations begun so far.
func (t *BudgetTracker) Iterations() int { return t.iterations }

// ToolCalls reports the number of tool calls recorded so far.
func (t *BudgetTracker) ToolCalls() int { return t.toolCalls }

// Elapsed reports wall-clock time since the tracker started.
func (t *BudgetTracker) Elapsed(now time.Time) time.Duration { return now.Sub(t.started) }

// StepTimeout reports the per-iteration timeout budget.
func (t *BudgetTracker) StepTimeout() time.Duration { return t.budgets.StepTimeout }

// IsLastIteration reports whether the iteration about to start is the last
// one permitted by MaxIterations. The ReAct strategy does not call it; it
// forces finalization once BeginIteration reports a breach.
func (t *BudgetTracker) IsLastIteration() bool {
	return t.budgets.MaxIterations > 0 && t.iterations >= t.budgets.MaxIterations-1
}
