// Command demo wires a scripted model client and one in-process tool
// through the ReAct strategy, mirroring the teacher's cmd/demo: a
// minimal, runnable path through the library rather than a real model
// provider or tool backend.
package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/agentcore/core/agent/invoker"
	"github.com/agentcore/core/agent/model"
	"github.com/agentcore/core/agent/react"
	"github.com/agentcore/core/agent/scheduler"
	"github.com/agentcore/core/agent/tools"
	"github.com/agentcore/core/agent/types"
)

// scriptedClient returns canned responses in order: first a tool call, then
// a final answer citing the tool's result. A real deployment supplies an
// adapter over an actual model provider (§6.1); the core never depends on
// one directly.
type scriptedClient struct {
	responses []string
	calls     int
}

func (c *scriptedClient) Call(context.Context, model.CallRequest) (model.CallResponse, error) {
	i := c.calls
	if i >= len(c.responses) {
		i = len(c.responses) - 1
	}
	c.calls++
	return model.CallResponse{Content: c.responses[i]}, nil
}

func scriptedJSON(v map[string]any) string {
	body, _ := json.Marshal(v)
	return string(body)
}

func main() {
	registry := tools.NewRegistry()
	err := registry.Register(tools.ToolDefinition{
		Name:        "weather",
		Description: "looks up the current weather for a city",
		InputSchema: []byte(`{"type":"object","properties":{"city":{"type":"string"}},"required":["city"]}`),
		Execute: func(_ context.Context, input map[string]any, _ *tools.ToolContext) (any, error) {
			return fmt.Sprintf("sunny in %v", input["city"]), nil
		},
	})
	if err != nil {
		panic(err)
	}

	client := &scriptedClient{responses: []string{
		scriptedJSON(map[string]any{
			"reasoning": "I should look up the weather before answering.",
			"action": map[string]any{
				"type":      "tool_call",
				"tool":      "weather",
				"arguments": map[string]any{"city": "Lisbon"},
			},
		}),
		scriptedJSON(map[string]any{
			"reasoning": "The tool returned an answer.",
			"action": map[string]any{
				"type":    "final_answer",
				"content": "It's sunny in Lisbon.",
			},
		}),
	}}

	iv := invoker.New(registry)
	sched := scheduler.New(iv)

	strat := react.New(client, registry, sched)
	execCtx := &types.StrategyExecutionContext{Input: "What's the weather in Lisbon?"}

	result := strat.Execute(context.Background(), execCtx, "")

	fmt.Println("Output:", result.Output)
	fmt.Println("Success:", result.Success)
	fmt.Println("Steps:", result.Complexity)
}
