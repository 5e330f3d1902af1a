// Package types defines the tagged-union data model shared by every
// strategy and scheduler component (§3): actions a model can request,
// results an action can produce, and the append-only execution trace a run
// accumulates. Per DESIGN NOTES §9, every union is modeled as an explicit
// Go type with a Kind/Tag discriminator rather than a dynamic map — no
// dynamic key ever crosses this boundary.
package types

// ActionKind discriminates the AgentAction tagged union.
type ActionKind string

const (
	// ActionToolCall requests a tool invocation.
	ActionToolCall ActionKind = "tool_call"
	// ActionFinalAnswer ends the run with a user-facing answer.
	ActionFinalAnswer ActionKind = "final_answer"
	// ActionNeedMoreInfo asks the caller for clarification.
	ActionNeedMoreInfo ActionKind = "need_more_info"
	// ActionExecutePlan runs a previously produced plan by id.
	ActionExecutePlan ActionKind = "execute_plan"
)

// AgentAction is the tagged union of actions a strategy may take after a
// Think step. Exactly the fields relevant to Kind are populated.
type AgentAction struct {
	Kind ActionKind

	// Tool/Arguments are populated when Kind == ActionToolCall.
	Tool      string
	Arguments map[string]any

	// Content is populated when Kind == ActionFinalAnswer.
	Content string

	// Question is populated when Kind == ActionNeedMoreInfo.
	Question string

	// PlanID is populated when Kind == ActionExecutePlan.
	PlanID string
}

// ToolCall builds an ActionToolCall action.
func ToolCall(tool string, arguments map[string]any) AgentAction {
	return AgentAction{Kind: ActionToolCall, Tool: tool, Arguments: arguments}
}

// FinalAnswer builds an ActionFinalAnswer action.
func FinalAnswer(content string) AgentAction {
	return AgentAction{Kind: ActionFinalAnswer, Content: content}
}

// NeedMoreInfo builds an ActionNeedMoreInfo action.
func NeedMoreInfo(question string) AgentAction {
	return AgentAction{Kind: ActionNeedMoreInfo, Question: question}
}

// ExecutePlan builds an ActionExecutePlan action.
func ExecutePlan(planID string) AgentAction {
	return AgentAction{Kind: ActionExecutePlan, PlanID: planID}
}

// Hypothesis is a candidate (approach, confidence, action) triple proposed
// during ReAct reasoning (glossary: Hypothesis).
type Hypothesis struct {
	Approach   string
	Confidence float64
	Action     AgentAction
}

// AgentThought is the structured output of a Think step. Confidence is
// always clamped to [0,1] by NewAgentThought; missing confidence defaults
// to 0.5 (§3 invariant, P5).
type AgentThought struct {
	Reasoning   string
	Action      AgentAction
	Confidence  float64
	Hypotheses  []Hypothesis
	Reflection  string

	EarlyStopping *EarlyStopping
}

// EarlyStopping signals that the model believes the run should terminate
// immediately with a final answer.
type EarlyStopping struct {
	ShouldStop bool
	Reason     string
}

// NewAgentThought constructs an AgentThought with confidence clamped to
// [0,1]. Pass hasConfidence=false to request the §3 default of 0.5.
func NewAgentThought(reasoning string, action AgentAction, confidence float64, hasConfidence bool) AgentThought {
	c := confidence
	if !hasConfidence {
		c = 0.5
	}
	return AgentThought{
		Reasoning:  reasoning,
		Action:     action,
		Confidence: ClampConfidence(c),
	}
}

// ClampConfidence clamps c to the closed interval [0,1] (P5).
func ClampConfidence(c float64) float64 {
	if c < 0 {
		return 0
	}
	if c > 1 {
		return 1
	}
	return c
}
