package types

import "time"

// StepType discriminates the ExecutionStep tagged union across both
// strategies: ReAct uses think/act/observe, ReWoo uses sketch/work/organize,
// and plan/execute/synthesize are shared by plan-driven extensions.
type StepType string

const (
	StepThink      StepType = "think"
	StepAct        StepType = "act"
	StepObserve    StepType = "observe"
	StepPlan       StepType = "plan"
	StepExecute    StepType = "execute"
	StepSynthesize StepType = "synthesize"
	StepSketch     StepType = "sketch"
	StepWork       StepType = "work"
	StepOrganize   StepType = "organize"
)

// ExecutionStep is one append-only entry in a run's history (§3). Steps are
// never mutated once appended (P1 Append-only history).
type ExecutionStep struct {
	ID          string
	Type        StepType
	Thought     *AgentThought
	Action      *AgentAction
	Result      *ActionResult
	Observation *ResultAnalysis
	Timestamp   time.Time
	Duration    time.Duration
	Metadata    map[string]any
}

// ExecutionResult is the terminal artifact of a run (§3). Complexity
// mirrors len(Steps) at completion time.
type ExecutionResult struct {
	Output        string
	Strategy      string
	Steps         []ExecutionStep
	Success       bool
	Error         string
	ExecutionTime time.Duration
	Complexity    int
	Metadata      map[string]any
}

// Clone returns a defensive copy of r suitable for handing to a caller who
// must not observe subsequent mutation (§3 Ownership: "callers receive
// defensive copies of ExecutionResult").
func (r ExecutionResult) Clone() ExecutionResult {
	out := r
	out.Steps = append([]ExecutionStep(nil), r.Steps...)
	if r.Metadata != nil {
		out.Metadata = make(map[string]any, len(r.Metadata))
		for k, v := range r.Metadata {
			out.Metadata[k] = v
		}
	}
	return out
}

// StrategyExecutionContext is the mutable vessel threaded through a run
// (§3). The owning strategy exclusively mutates it; History is append-only.
type StrategyExecutionContext struct {
	Input        string
	Tools        []string
	AgentContext map[string]any
	Config       map[string]any
	History      []ExecutionStep
	Metadata     map[string]any
}

// AppendStep appends step to the context's history. This is the only
// sanctioned mutation path for History, keeping the append-only invariant
// (P1) centralized in one place.
func (c *StrategyExecutionContext) AppendStep(step ExecutionStep) {
	c.History = append(c.History, step)
}
