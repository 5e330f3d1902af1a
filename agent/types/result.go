package types

// ActionResultKind discriminates the ActionResult tagged union.
type ActionResultKind string

const (
	// ResultToolResult carries a tool's output (success or failure).
	ResultToolResult ActionResultKind = "tool_result"
	// ResultFinalAnswer carries the run's terminal answer.
	ResultFinalAnswer ActionResultKind = "final_answer"
	// ResultError carries a hard failure.
	ResultError ActionResultKind = "error"
	// ResultNeedsReplan signals the current plan can no longer proceed.
	ResultNeedsReplan ActionResultKind = "needs_replan"
)

// ActionResult is the tagged union produced by executing an AgentAction
// (§3). A result is an error if (a) Kind == ResultError, or (b)
// Success == false, or (c) Content carries an MCP-style error marker — see
// IsError.
type ActionResult struct {
	Kind ActionResultKind

	// Content/Success populate ResultToolResult.
	Content any
	Success bool

	// Message populates ResultError.
	Message string
}

// ToolResult builds a ResultToolResult action result.
func ToolResult(content any, success bool) ActionResult {
	return ActionResult{Kind: ResultToolResult, Content: content, Success: success}
}

// FinalAnswerResult builds a ResultFinalAnswer action result.
func FinalAnswerResult(content any) ActionResult {
	return ActionResult{Kind: ResultFinalAnswer, Content: content, Success: true}
}

// ErrorResult builds a ResultError action result.
func ErrorResult(message string) ActionResult {
	return ActionResult{Kind: ResultError, Message: message}
}

// NeedsReplanResult builds a ResultNeedsReplan action result.
func NeedsReplanResult() ActionResult {
	return ActionResult{Kind: ResultNeedsReplan}
}

// IsError implements the consolidated "result contains error" predicate
// from §3 / §9 Open Questions: a result is an error if its tag is
// ResultError, or Success is explicitly false, or its Content carries
// {isError:true} or {successful:false} at the top level or nested under a
// "result" field (MCP-style). This is the single authoritative
// implementation; every other component that needs to classify a result as
// an error calls this function rather than re-deriving the predicate (P6:
// deterministic and stable under re-evaluation).
func (r ActionResult) IsError() bool {
	if r.Kind == ResultError {
		return true
	}
	if r.Kind == ResultToolResult && !r.Success {
		return true
	}
	return contentCarriesError(r.Content)
}

func contentCarriesError(content any) bool {
	m, ok := content.(map[string]any)
	if !ok {
		return false
	}
	if carriesErrorMarker(m) {
		return true
	}
	if nested, ok := m["result"].(map[string]any); ok {
		return carriesErrorMarker(nested)
	}
	return false
}

func carriesErrorMarker(m map[string]any) bool {
	if v, ok := m["isError"].(bool); ok && v {
		return true
	}
	if v, ok := m["successful"].(bool); ok && !v {
		return true
	}
	return false
}

// ResultAnalysis is derived deterministically from an ActionResult (§3) —
// no model call during observation.
type ResultAnalysis struct {
	IsComplete         bool
	IsSuccessful       bool
	ShouldContinue     bool
	Feedback           string
	SuggestedNextAction *AgentAction
}

// Analyze derives a ResultAnalysis from result without any model call
// (§4.5 step 4).
func Analyze(result ActionResult) ResultAnalysis {
	switch result.Kind {
	case ResultFinalAnswer:
		return ResultAnalysis{IsComplete: true, IsSuccessful: true, ShouldContinue: false, Feedback: "final answer produced"}
	case ResultNeedsReplan:
		return ResultAnalysis{IsComplete: false, IsSuccessful: false, ShouldContinue: true, Feedback: "plan can no longer proceed; replanning required"}
	case ResultError:
		return ResultAnalysis{IsComplete: false, IsSuccessful: false, ShouldContinue: true, Feedback: result.Message}
	default: // ResultToolResult
		if result.IsError() {
			return ResultAnalysis{IsComplete: false, IsSuccessful: false, ShouldContinue: true, Feedback: "tool result indicates failure"}
		}
		return ResultAnalysis{IsComplete: false, IsSuccessful: true, ShouldContinue: true, Feedback: "tool result indicates success"}
	}
}
