package strategy

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/agentcore/core/agent/model"
	"github.com/agentcore/core/agent/prompt"
	"github.com/agentcore/core/agent/types"
)

func TestBudgetTrackerMaxIterations(t *testing.T) {
	start := time.Unix(0, 0)
	tr := NewBudgetTracker(Budgets{MaxIterations: 2, MaxExecutionTime: time.Hour}, start)

	ok, breach := tr.BeginIteration(start)
	require.True(t, ok)
	require.Equal(t, BreachNone, breach)

	ok, breach = tr.BeginIteration(start)
	require.True(t, ok)

	ok, breach = tr.BeginIteration(start)
	require.False(t, ok)
	require.Equal(t, BreachMaxIterations, breach)
}

func TestBudgetTrackerMaxToolCalls(t *testing.T) {
	tr := NewBudgetTracker(Budgets{MaxToolCalls: 1}, time.Unix(0, 0))
	ok, _ := tr.RecordToolCall()
	require.True(t, ok)
	ok, breach := tr.RecordToolCall()
	require.False(t, ok)
	require.Equal(t, BreachMaxToolCalls, breach)
}

func TestBudgetTrackerMaxExecutionTime(t *testing.T) {
	start := time.Unix(0, 0)
	tr := NewBudgetTracker(Budgets{MaxIterations: 100, MaxExecutionTime: time.Second}, start)
	ok, breach := tr.BeginIteration(start.Add(2 * time.Second))
	require.False(t, ok)
	require.Equal(t, BreachMaxExecutionTime, breach)
}

func TestRuntimeRecordActionDetectsLoop(t *testing.T) {
	rt := NewRuntime(DefaultBudgets(), time.Unix(0, 0), nil, nil)
	action := types.ToolCall("search", map[string]any{"q": "a"})

	require.False(t, rt.RecordAction(action))
	require.False(t, rt.RecordAction(action))
	require.True(t, rt.RecordAction(action))
}

type stubParser struct {
	thought types.AgentThought
	err     error
}

func (s stubParser) Parse(raw string) (types.AgentThought, error) { return s.thought, s.err }

type stubClient struct {
	resp model.CallResponse
	err  error
}

func (s stubClient) Call(ctx context.Context, req model.CallRequest) (model.CallResponse, error) {
	return s.resp, s.err
}

func TestForceFinalizeUsesParsedFinalAnswer(t *testing.T) {
	client := stubClient{resp: model.CallResponse{Content: `{"action":{"type":"final_answer","content":"done"}}`}}
	parser := stubParser{thought: types.AgentThought{Action: types.FinalAnswer("done")}}

	action := ForceFinalize(context.Background(), client, parser, &types.StrategyExecutionContext{Input: "x"}, prompt.Identity{})
	require.Equal(t, types.ActionFinalAnswer, action.Kind)
	require.Equal(t, "done", action.Content)
}

func TestForceFinalizeSynthesizesFromHistoryOnModelError(t *testing.T) {
	client := stubClient{err: errors.New("model unavailable")}
	parser := stubParser{}

	result := types.ToolResult("42", true)
	execCtx := &types.StrategyExecutionContext{
		Input: "x",
		History: []types.ExecutionStep{
			{Type: types.StepObserve, Result: &result},
		},
	}

	action := ForceFinalize(context.Background(), client, parser, execCtx, prompt.Identity{})
	require.Equal(t, types.ActionFinalAnswer, action.Kind)
	require.Contains(t, action.Content, "42")
}

func TestForceFinalizeFallsBackWithNoHistory(t *testing.T) {
	client := stubClient{err: errors.New("model unavailable")}
	parser := stubParser{}

	action := ForceFinalize(context.Background(), client, parser, &types.StrategyExecutionContext{Input: "x"}, prompt.Identity{})
	require.Equal(t, types.ActionFinalAnswer, action.Kind)
	require.Contains(t, action.Content, "Unable to determine")
}
