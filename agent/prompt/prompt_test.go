package prompt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/agentcore/core/agent/tools"
	"github.com/agentcore/core/agent/types"
)

func TestComposeExecutorIncludesToolsAndShape(t *testing.T) {
	req := Request{
		Input: "what is the weather",
		Tools: []tools.ToolDefinition{{
			Name:        "search",
			Description: "searches the web",
			InputSchema: []byte(`{"type":"object","required":["q"],"properties":{"q":{"type":"string","description":"query"}}}`),
		}},
		Mode: ModeExecutor,
	}
	got := Compose(req)
	require.Contains(t, got.SystemPrompt, "search: searches the web")
	require.Contains(t, got.SystemPrompt, "q (string, required)")
	require.Contains(t, got.SystemPrompt, `"action"`)
	require.Contains(t, got.UserPrompt, "what is the weather")
}

func TestComposeEmptyToolsNoted(t *testing.T) {
	got := Compose(Request{Input: "hi", Mode: ModeExecutor})
	require.Contains(t, got.SystemPrompt, "(none)")
}

func TestComposeHistoryLimitAndErrorAnnotation(t *testing.T) {
	history := make([]types.ExecutionStep, 0, 12)
	for i := 0; i < 12; i++ {
		r := types.ToolResult("ok", true)
		history = append(history, types.ExecutionStep{Type: types.StepObserve, Result: &r})
	}
	errResult := types.ErrorResult("boom")
	history = append(history, types.ExecutionStep{Type: types.StepObserve, Result: &errResult})

	got := Compose(Request{Input: "x", History: history, Mode: ModeExecutor, HistoryLimit: 3})
	require.Equal(t, 1, strings.Count(got.UserPrompt, "ERROR"))
}

func TestComposeForcedFinalModeShape(t *testing.T) {
	got := Compose(Request{Input: "x", Mode: ModeFinalAnswerForced})
	require.Contains(t, got.SystemPrompt, "MUST provide a final_answer")
	require.Contains(t, got.SystemPrompt, `"final_answer"`)
}
