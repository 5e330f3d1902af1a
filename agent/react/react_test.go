package react

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/agentcore/core/agent/invoker"
	"github.com/agentcore/core/agent/model"
	"github.com/agentcore/core/agent/scheduler"
	"github.com/agentcore/core/agent/strategy"
	"github.com/agentcore/core/agent/tools"
	"github.com/agentcore/core/agent/types"
)

// scriptedClient returns one CallResponse per Call, in order, then repeats
// the last response if Call is invoked more times than scripted.
type scriptedClient struct {
	responses []string
	calls     int
}

func (c *scriptedClient) Call(ctx context.Context, req model.CallRequest) (model.CallResponse, error) {
	i := c.calls
	if i >= len(c.responses) {
		i = len(c.responses) - 1
	}
	c.calls++
	return model.CallResponse{Content: c.responses[i]}, nil
}

// fakeCaller invokes tools against an in-memory result table.
type fakeCaller struct {
	results map[string]any
	errs    map[string]error
	delay   time.Duration
	calls   []string
}

func (f *fakeCaller) Invoke(ctx context.Context, toolName string, input map[string]any, opts invoker.Options) (any, error) {
	f.calls = append(f.calls, toolName)
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err, ok := f.errs[toolName]; ok {
		return nil, err
	}
	return f.results[toolName], nil
}

func toolCallJSON(tool string, args map[string]any) string {
	body, _ := json.Marshal(map[string]any{
		"reasoning": "calling " + tool,
		"action": map[string]any{
			"type":      "tool_call",
			"tool":      tool,
			"arguments": args,
		},
	})
	return string(body)
}

func finalAnswerJSON(content string) string {
	body, _ := json.Marshal(map[string]any{
		"reasoning": "done",
		"action": map[string]any{
			"type":    "final_answer",
			"content": content,
		},
	})
	return string(body)
}

func newEchoRegistry(t *testing.T) *tools.Registry {
	t.Helper()
	reg := tools.NewRegistry()
	err := reg.Register(tools.ToolDefinition{
		Name:        "search",
		Description: "searches for things",
		InputSchema: []byte(`{"type":"object"}`),
		Execute: func(ctx context.Context, input map[string]any, tc *tools.ToolContext) (any, error) {
			return "found it", nil
		},
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	return reg
}

// Scenario 1: the model requests a tool that does not exist. The strategy
// must rewrite the action into a final answer naming the available tools
// and tag the step with metadata.fallbackReason = "tool_not_available".
func TestExecuteToolNotFoundFallback(t *testing.T) {
	client := &scriptedClient{responses: []string{toolCallJSON("nonexistent", map[string]any{})}}
	registry := newEchoRegistry(t)
	caller := &fakeCaller{results: map[string]any{}}

	s := New(client, registry, scheduler.New(caller))
	execCtx := &types.StrategyExecutionContext{Input: "do something"}

	result := s.Execute(context.Background(), execCtx, "")

	if !result.Success {
		t.Fatalf("expected success, got %+v", result)
	}
	last := result.Steps[len(result.Steps)-1]
	if last.Thought == nil {
		t.Fatalf("expected a thought on the final step")
	}
	if got := last.Thought.Reasoning; !contains(got, "invalid") || !contains(got, "Available tools") {
		t.Fatalf("expected reasoning to mention invalid tool and available tools, got %q", got)
	}
	if last.Metadata["fallbackReason"] != "tool_not_available" {
		t.Fatalf("expected fallbackReason metadata, got %+v", last.Metadata)
	}
	if len(caller.calls) != 0 {
		t.Fatalf("expected no tool invocation, got %v", caller.calls)
	}
}

// Scenario 5: three identical tool-call fingerprints in a row trip the loop
// guard on the third iteration, forcing a finalized answer.
func TestExecuteLoopGuardForcesFinalAnswer(t *testing.T) {
	sameCall := toolCallJSON("search", map[string]any{"q": "x"})
	client := &scriptedClient{responses: []string{sameCall, sameCall, sameCall, finalAnswerJSON("forced")}}
	registry := newEchoRegistry(t)
	caller := &fakeCaller{results: map[string]any{"search": "result"}}

	s := New(client, registry, scheduler.New(caller))
	execCtx := &types.StrategyExecutionContext{Input: "loop please"}

	result := s.Execute(context.Background(), execCtx, "")

	if !result.Success {
		t.Fatalf("expected success, got %+v", result)
	}
	last := result.Steps[len(result.Steps)-1]
	if last.Metadata["forcedFinal"] != true {
		t.Fatalf("expected forcedFinal metadata on the terminal step, got %+v", last.Metadata)
	}
	if last.Metadata["reason"] != "loop_detected" {
		t.Fatalf("expected reason=loop_detected, got %+v", last.Metadata)
	}
	// The guard must not have fired before the third identical call.
	if len(caller.calls) != 2 {
		t.Fatalf("expected exactly 2 tool invocations before the guard fired, got %d (%v)", len(caller.calls), caller.calls)
	}
}

// B1: with no tools registered, the strategy still produces a final answer
// straight from the model's reasoning, defaulting to confidence 0.5 when the
// model omits a confidence field.
func TestExecuteEmptyToolSetProducesFinalAnswer(t *testing.T) {
	client := &scriptedClient{responses: []string{finalAnswerJSON("no tools needed")}}
	registry := tools.NewRegistry()
	caller := &fakeCaller{}

	s := New(client, registry, scheduler.New(caller))
	execCtx := &types.StrategyExecutionContext{Input: "just answer"}

	result := s.Execute(context.Background(), execCtx, "")

	if !result.Success || result.Output != "no tools needed" {
		t.Fatalf("unexpected result: %+v", result)
	}
	think := result.Steps[0]
	if think.Thought == nil || think.Thought.Confidence != 0.5 {
		t.Fatalf("expected default confidence 0.5, got %+v", think.Thought)
	}
}

// B3: a model response that parses at none of the structured tiers falls
// through to the zero-confidence fallback and still terminates the run.
func TestExecuteUnparseableResponseFallsBackToZeroConfidence(t *testing.T) {
	client := &scriptedClient{responses: []string{"   "}}
	registry := newEchoRegistry(t)
	caller := &fakeCaller{}

	s := New(client, registry, scheduler.New(caller))
	execCtx := &types.StrategyExecutionContext{Input: "say nothing useful"}

	result := s.Execute(context.Background(), execCtx, "")

	if !result.Success {
		t.Fatalf("expected success (fallback final answer), got %+v", result)
	}
	think := result.Steps[0]
	if think.Thought == nil || think.Thought.Confidence != 0 {
		t.Fatalf("expected zero confidence on unparseable output, got %+v", think.Thought)
	}
}

func TestExecuteSuccessfulToolCallThenFinalAnswer(t *testing.T) {
	client := &scriptedClient{responses: []string{
		toolCallJSON("search", map[string]any{"q": "go"}),
		finalAnswerJSON("found it via search"),
	}}
	registry := newEchoRegistry(t)
	caller := &fakeCaller{results: map[string]any{"search": "found it"}}

	s := New(client, registry, scheduler.New(caller))
	execCtx := &types.StrategyExecutionContext{Input: "look it up"}

	result := s.Execute(context.Background(), execCtx, "thread-1")

	if !result.Success || result.Output != "found it via search" {
		t.Fatalf("unexpected result: %+v", result)
	}
	if len(caller.calls) != 1 || caller.calls[0] != "search" {
		t.Fatalf("expected exactly one call to search, got %v", caller.calls)
	}
	if result.Complexity != len(result.Steps) {
		t.Fatalf("expected complexity to mirror step count")
	}
}

func TestExecuteBudgetExhaustionForcesFinalAnswer(t *testing.T) {
	sameCall := toolCallJSON("search", map[string]any{"q": "x"})
	client := &scriptedClient{responses: []string{sameCall}}
	registry := newEchoRegistry(t)
	caller := &fakeCaller{results: map[string]any{"search": "r"}}

	budgets := strategy.Budgets{MaxIterations: 2, MaxToolCalls: 100, MaxExecutionTime: 300_000_000_000, StepTimeout: 60_000_000_000}
	s := New(client, registry, scheduler.New(caller), WithBudgets(budgets))
	execCtx := &types.StrategyExecutionContext{Input: "keep going"}

	result := s.Execute(context.Background(), execCtx, "")

	if !result.Success {
		t.Fatalf("expected success (forced final), got %+v", result)
	}
	last := result.Steps[len(result.Steps)-1]
	if last.Metadata["forcedFinal"] != true {
		t.Fatalf("expected forcedFinal metadata, got %+v", last.Metadata)
	}
}

// Issue: StepTimeout must actually bound a slow iteration, not just be
// plumbed through Budgets inertly.
func TestExecuteStepTimeoutForcesFinalAnswer(t *testing.T) {
	sameCall := toolCallJSON("search", map[string]any{"q": "x"})
	client := &scriptedClient{responses: []string{sameCall, finalAnswerJSON("forced")}}
	registry := newEchoRegistry(t)
	caller := &fakeCaller{results: map[string]any{"search": "r"}, delay: 50 * time.Millisecond}

	budgets := strategy.DefaultBudgets()
	budgets.StepTimeout = 5 * time.Millisecond
	s := New(client, registry, scheduler.New(caller), WithBudgets(budgets))
	execCtx := &types.StrategyExecutionContext{Input: "be slow"}

	result := s.Execute(context.Background(), execCtx, "")

	if !result.Success {
		t.Fatalf("expected success (forced final), got %+v", result)
	}
	last := result.Steps[len(result.Steps)-1]
	if last.Metadata["breach"] != string(strategy.BreachStepTimeout) {
		t.Fatalf("expected breach=step_timeout, got %+v", last.Metadata)
	}
}

func contains(s, substr string) bool {
	return len(s) >= len(substr) && (func() bool {
		for i := 0; i+len(substr) <= len(s); i++ {
			if s[i:i+len(substr)] == substr {
				return true
			}
		}
		return false
	})()
}
