package react

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/agentcore/core/agent/types"
)

// Parser implements the §4.5 step 1 multi-tier cascade: strict structured
// JSON, then JSON extracted from a fenced code block, then manual regex
// extraction, then a zero-confidence final-answer fallback. Each tier is
// tried in order; the first that succeeds wins.
type Parser struct{}

// rawThought mirrors the structured shape requested from the model:
// {reasoning, confidence, hypotheses[], reflection, earlyStopping, action}.
type rawThought struct {
	Reasoning     string           `json:"reasoning"`
	Confidence    *float64         `json:"confidence"`
	Hypotheses    []rawHypothesis  `json:"hypotheses"`
	Reflection    string           `json:"reflection"`
	EarlyStopping *rawEarlyStop    `json:"earlyStopping"`
	Action        *rawAction       `json:"action"`
}

type rawHypothesis struct {
	Approach   string     `json:"approach"`
	Confidence float64    `json:"confidence"`
	Action     *rawAction `json:"action"`
}

type rawEarlyStop struct {
	ShouldStop bool   `json:"shouldStop"`
	Reason     string `json:"reason"`
}

type rawAction struct {
	Type      string         `json:"type"`
	Tool      string         `json:"tool"`
	Arguments map[string]any `json:"arguments"`
	Content   string         `json:"content"`
	Question  string         `json:"question"`
}

// Parse runs the §4.5 cascade over raw model output.
func (Parser) Parse(raw string) (types.AgentThought, error) {
	if thought, ok := parseStrictJSON(raw); ok {
		return thought, nil
	}
	if thought, ok := parseFencedJSON(raw); ok {
		return thought, nil
	}
	if thought, ok := parseManualRegex(raw); ok {
		return thought, nil
	}
	return zeroConfidenceFallback(raw), nil
}

func parseStrictJSON(raw string) (types.AgentThought, bool) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" || trimmed[0] != '{' {
		return types.AgentThought{}, false
	}
	var rt rawThought
	if err := json.Unmarshal([]byte(trimmed), &rt); err != nil {
		return types.AgentThought{}, false
	}
	if rt.Action == nil && len(rt.Hypotheses) == 0 {
		return types.AgentThought{}, false
	}
	return rt.toThought(), true
}

var fencedBlock = regexp.MustCompile("(?s)```(?:json)?\\s*(\\{.*?\\})\\s*```")

func parseFencedJSON(raw string) (types.AgentThought, bool) {
	m := fencedBlock.FindStringSubmatch(raw)
	if m == nil {
		return types.AgentThought{}, false
	}
	var rt rawThought
	if err := json.Unmarshal([]byte(m[1]), &rt); err != nil {
		return types.AgentThought{}, false
	}
	return rt.toThought(), true
}

var (
	reReasoning = regexp.MustCompile(`(?i)reasoning["']?\s*[:=]\s*"([^"]*)"`)
	reActionType = regexp.MustCompile(`(?i)"?type"?\s*[:=]\s*"(tool_call|final_answer|need_more_info)"`)
	reToolName  = regexp.MustCompile(`(?i)"?tool(?:Name)?"?\s*[:=]\s*"([^"]*)"`)
	reContent   = regexp.MustCompile(`(?i)"?content"?\s*[:=]\s*"([^"]*)"`)
	reInput     = regexp.MustCompile(`(?i)"?(?:input|arguments)"?\s*[:=]\s*\{`)
)

// parseManualRegex is tier (c): best-effort extraction of reasoning,
// action.type, toolName, and content/input from unstructured model output
// that nonetheless mentions these fields in a recognizable shape.
func parseManualRegex(raw string) (types.AgentThought, bool) {
	typeMatch := reActionType.FindStringSubmatch(raw)
	if typeMatch == nil {
		return types.AgentThought{}, false
	}
	reasoning := ""
	if m := reReasoning.FindStringSubmatch(raw); m != nil {
		reasoning = m[1]
	}

	var action types.AgentAction
	switch typeMatch[1] {
	case string(types.ActionToolCall):
		tool := ""
		if m := reToolName.FindStringSubmatch(raw); m != nil {
			tool = m[1]
		}
		args := map[string]any{}
		if loc := reInput.FindStringIndex(raw); loc != nil {
			var parsed map[string]any
			if err := json.NewDecoder(strings.NewReader(raw[loc[1]-1:])).Decode(&parsed); err == nil && parsed != nil {
				args = parsed
			}
		}
		action = types.ToolCall(tool, args)
	case string(types.ActionFinalAnswer):
		content := ""
		if m := reContent.FindStringSubmatch(raw); m != nil {
			content = m[1]
		}
		action = types.FinalAnswer(content)
	default:
		action = types.FinalAnswer(reasoning)
	}

	return types.NewAgentThought(reasoning, action, 0, false), true
}

// zeroConfidenceFallback is tier (d): when nothing parses, report the
// failure as a zero-confidence final answer (§8 B3).
func zeroConfidenceFallback(raw string) types.AgentThought {
	reason := "could not interpret model output"
	if strings.TrimSpace(raw) == "" {
		reason = "model returned empty content"
	}
	return types.NewAgentThought(
		reason,
		types.FinalAnswer("I was unable to determine a next step: "+reason+"."),
		0,
		true,
	)
}

func (rt rawThought) toThought() types.AgentThought {
	hasConfidence := rt.Confidence != nil
	confidence := 0.0
	if hasConfidence {
		confidence = *rt.Confidence
	}

	action := types.FinalAnswer(rt.Reasoning)
	if rt.Action != nil {
		action = rt.Action.toAction()
	}

	thought := types.NewAgentThought(rt.Reasoning, action, confidence, hasConfidence)
	thought.Reflection = rt.Reflection
	if rt.EarlyStopping != nil {
		thought.EarlyStopping = &types.EarlyStopping{ShouldStop: rt.EarlyStopping.ShouldStop, Reason: rt.EarlyStopping.Reason}
	}
	for _, h := range rt.Hypotheses {
		act := action
		if h.Action != nil {
			act = h.Action.toAction()
		}
		thought.Hypotheses = append(thought.Hypotheses, types.Hypothesis{
			Approach:   h.Approach,
			Confidence: types.ClampConfidence(h.Confidence),
			Action:     act,
		})
	}
	return thought
}

func (ra rawAction) toAction() types.AgentAction {
	switch types.ActionKind(ra.Type) {
	case types.ActionToolCall:
		return types.ToolCall(ra.Tool, ra.Arguments)
	case types.ActionNeedMoreInfo:
		return types.NeedMoreInfo(ra.Question)
	case types.ActionExecutePlan:
		return types.ExecutePlan(ra.Tool)
	default:
		return types.FinalAnswer(ra.Content)
	}
}
