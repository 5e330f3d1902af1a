package strategy

import (
	"context"
	"fmt"
	"time"

	"github.com/agentcore/core/agent/model"
	"github.com/agentcore/core/agent/prompt"
	"github.com/agentcore/core/agent/session"
	"github.com/agentcore/core/agent/strategy/loopguard"
	"github.com/agentcore/core/agent/telemetry"
	"github.com/agentcore/core/agent/types"
)

// ResponseParser decodes a raw model completion into an AgentThought. Each
// strategy supplies its own cascade (§4.5 step 1 for ReAct); the runtime
// only needs the result to drive forced finalization.
type ResponseParser interface {
	Parse(raw string) (types.AgentThought, error)
}

// Runtime bundles the loop scaffolding shared by every strategy: budget
// tracking, loop detection, best-effort session updates, and forced
// finalization (§4.4).
type Runtime struct {
	Budgets *BudgetTracker
	Loop    *loopguard.Guard

	sink   session.Sink
	logger telemetry.Logger
}

// NewRuntime constructs a Runtime. sink/logger may be nil, in which case
// no-op defaults are used.
func NewRuntime(budgets Budgets, now time.Time, sink session.Sink, logger telemetry.Logger) *Runtime {
	if sink == nil {
		sink = session.NewNoopSink()
	}
	if logger == nil {
		logger = telemetry.NewNoopLogger()
	}
	return &Runtime{
		Budgets: NewBudgetTracker(budgets, now),
		Loop:    loopguard.New(),
		sink:    sink,
		logger:  logger,
	}
}

// RecordAction feeds action's fingerprint into the loop guard and reports
// whether a loop was detected this iteration (§4.4).
func (r *Runtime) RecordAction(action types.AgentAction) bool {
	r.Loop.Record(loopguard.Make(string(action.Kind), action.Tool, action.Arguments))
	return r.Loop.Detect()
}

// ReportStepBoundary pushes a best-effort progress update to the session
// store at a step boundary (§4.4). Failures are logged, never propagated.
func (r *Runtime) ReportStepBoundary(ctx context.Context, threadID string, patch session.ExecutionPatch) {
	if threadID == "" {
		return
	}
	if err := r.sink.UpdateExecution(ctx, threadID, patch); err != nil {
		r.logger.Warn(ctx, "strategy: session progress report failed", "thread_id", threadID, "err", err)
	}
}

// ForceFinalize constructs a terminating prompt, asks client for a response,
// and parses it with parser. If the response is not itself a final answer,
// it synthesizes one from the most recent successful tool result in
// execCtx.History (§4.4).
func ForceFinalize(
	ctx context.Context,
	client model.Client,
	parser ResponseParser,
	execCtx *types.StrategyExecutionContext,
	identity prompt.Identity,
) types.AgentAction {
	composed := prompt.Compose(prompt.Request{
		Input:    execCtx.Input,
		History:  execCtx.History,
		Identity: identity,
		Mode:     prompt.ModeFinalAnswerForced,
	})

	resp, err := client.Call(ctx, model.CallRequest{
		Messages: []model.Message{
			{Role: "system", Content: composed.SystemPrompt},
			{Role: "user", Content: composed.UserPrompt},
		},
	})
	if err == nil {
		thought, perr := parser.Parse(resp.Content)
		if perr == nil && thought.Action.Kind == types.ActionFinalAnswer {
			return thought.Action
		}
	}
	return synthesizeFromHistory(execCtx.History)
}

// synthesizeFromHistory builds a final answer from the most recent
// successful tool result when forced finalization could not get a usable
// answer out of the model (§4.4 fallback).
func synthesizeFromHistory(history []types.ExecutionStep) types.AgentAction {
	for i := len(history) - 1; i >= 0; i-- {
		result := history[i].Result
		if result == nil || result.Kind != types.ResultToolResult || result.IsError() {
			continue
		}
		return types.FinalAnswer(fmt.Sprintf("Based on the most recent successful tool result: %v", result.Content))
	}
	return types.FinalAnswer("Unable to determine a final answer from the available history.")
}
