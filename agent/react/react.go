// Package react implements the ReAct Strategy (C7): a Think → Act → Observe
// loop over the Strategy Runtime (C6) scaffolding.
package react

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/agentcore/core/agent/model"
	"github.com/agentcore/core/agent/prompt"
	"github.com/agentcore/core/agent/scheduler"
	"github.com/agentcore/core/agent/session"
	"github.com/agentcore/core/agent/strategy"
	"github.com/agentcore/core/agent/telemetry"
	"github.com/agentcore/core/agent/tools"
	"github.com/agentcore/core/agent/types"
)

type (
	// Strategy runs the ReAct loop (§4.5).
	Strategy struct {
		client    model.Client
		registry  *tools.Registry
		scheduler *scheduler.Scheduler
		parser    strategy.ResponseParser
		sink      session.Sink
		logger    telemetry.Logger
		budgets   strategy.Budgets
		identity  prompt.Identity

		temperature float64
	}

	// Option configures a Strategy at construction.
	Option func(*Strategy)
)

// WithSessionSink configures the session store seam for best-effort progress
// reporting (§4.4).
func WithSessionSink(sink session.Sink) Option { return func(s *Strategy) { s.sink = sink } }

// WithLogger configures the strategy's logger.
func WithLogger(l telemetry.Logger) Option { return func(s *Strategy) { s.logger = l } }

// WithBudgets overrides the §6.6 default budgets.
func WithBudgets(b strategy.Budgets) Option { return func(s *Strategy) { s.budgets = b } }

// WithIdentity sets the persona surfaced in prompts.
func WithIdentity(id prompt.Identity) Option { return func(s *Strategy) { s.identity = id } }

// WithTemperature sets the sampling temperature used for Think calls.
func WithTemperature(t float64) Option { return func(s *Strategy) { s.temperature = t } }

// WithParser overrides the default multi-tier Parser, mainly for tests.
func WithParser(p strategy.ResponseParser) Option { return func(s *Strategy) { s.parser = p } }

// New constructs a ReAct Strategy. client supplies Think calls, registry
// supplies the set of known tools for unavailable-tool detection, sched
// invokes tool calls via the Batch Scheduler (C5) — Act always goes through
// Sequential with a single-element slice (§4.5 step 3), which is also what
// makes the tool.sequential.execution.* events fire during a ReAct run.
func New(client model.Client, registry *tools.Registry, sched *scheduler.Scheduler, opts ...Option) *Strategy {
	s := &Strategy{
		client:    client,
		registry:  registry,
		scheduler: sched,
		parser:    Parser{},
		sink:      session.NewNoopSink(),
		logger:    telemetry.NewNoopLogger(),
		budgets:   strategy.DefaultBudgets(),
	}
	for _, o := range opts {
		if o != nil {
			o(s)
		}
	}
	return s
}

// contaminatedPrefix / contaminatedMarker identify history entries from a
// prior, unrelated execution that must never leak into a fresh run's prompt
// context (§4.5 "contaminated history" guard).
const (
	contaminatedPrefix = "Previous execution:"
	contaminatedMarker = "Previous execution completed"
)

// FilterContaminatedHistory drops entries whose reasoning begins with
// contaminatedPrefix or whose final-answer content contains
// contaminatedMarker.
func FilterContaminatedHistory(history []types.ExecutionStep) []types.ExecutionStep {
	out := make([]types.ExecutionStep, 0, len(history))
	for _, step := range history {
		if step.Thought != nil && strings.HasPrefix(step.Thought.Reasoning, contaminatedPrefix) {
			continue
		}
		if step.Action != nil && step.Action.Kind == types.ActionFinalAnswer && strings.Contains(step.Action.Content, contaminatedMarker) {
			continue
		}
		out = append(out, step)
	}
	return out
}

// Execute runs the ReAct loop to completion (§4.5), returning the run's
// terminal ExecutionResult. It never returns an error: every failure mode is
// represented inside the result (a failed/`error` step, or an unsuccessful
// final ExecutionResult), consistent with §7's propagation policy.
func (s *Strategy) Execute(ctx context.Context, execCtx *types.StrategyExecutionContext, threadID string) types.ExecutionResult {
	started := time.Now()
	rt := strategy.NewRuntime(s.budgets, started, s.sink, s.logger)

	for {
		ok, breach := rt.Budgets.BeginIteration(time.Now())
		if !ok {
			action := s.forceFinalize(ctx, execCtx)
			s.appendFinalStep(execCtx, action, map[string]any{"forcedFinal": true, "breach": string(breach)})
			return s.buildResult(execCtx, started, true)
		}

		step := types.ExecutionStep{ID: fmt.Sprintf("step-%d", rt.Budgets.Iterations()), Timestamp: time.Now()}

		stepCtx, cancelStep := stepContext(ctx, rt.Budgets.StepTimeout())

		thought := s.think(stepCtx, execCtx)
		step.Type = types.StepThink
		step.Thought = &thought

		action := s.selectAction(thought)

		if thought.EarlyStopping != nil && thought.EarlyStopping.ShouldStop {
			action = types.FinalAnswer(fmt.Sprintf("Stopping early: %s", thought.EarlyStopping.Reason))
		}

		if rt.RecordAction(action) {
			cancelStep()
			finalAction := s.forceFinalize(ctx, execCtx)
			s.appendFinalStep(execCtx, finalAction, map[string]any{"forcedFinal": true, "reason": "loop_detected"})
			return s.buildResult(execCtx, started, true)
		}

		if action.Kind == types.ActionFinalAnswer {
			cancelStep()
			step.Action = &action
			result := types.FinalAnswerResult(action.Content)
			step.Result = &result
			analysis := types.Analyze(result)
			step.Observation = &analysis
			step.Duration = time.Since(step.Timestamp)
			execCtx.AppendStep(step)
			s.reportStep(ctx, threadID, step)
			return s.buildResult(execCtx, started, true)
		}

		action, result, budgetExceeded, fallbackReason := s.act(stepCtx, execCtx, action, rt, threadID)
		stepBreached := stepCtx.Err() == context.DeadlineExceeded
		cancelStep()
		if stepBreached {
			finalAction := s.forceFinalize(ctx, execCtx)
			s.appendFinalStep(execCtx, finalAction, map[string]any{"forcedFinal": true, "breach": string(strategy.BreachStepTimeout)})
			return s.buildResult(execCtx, started, true)
		}
		if budgetExceeded {
			finalAction := s.forceFinalize(ctx, execCtx)
			s.appendFinalStep(execCtx, finalAction, map[string]any{"forcedFinal": true, "breach": string(strategy.BreachMaxToolCalls)})
			return s.buildResult(execCtx, started, true)
		}
		if fallbackReason != "" {
			step.Thought.Reasoning = action.Content
			step.Metadata = map[string]any{"fallbackReason": fallbackReason}
		}
		step.Action = &action
		step.Result = &result
		analysis := types.Analyze(result)
		step.Observation = &analysis
		step.Duration = time.Since(step.Timestamp)

		execCtx.AppendStep(step)
		s.reportStep(ctx, threadID, step)

		if fallbackReason != "" {
			return s.buildResult(execCtx, started, true)
		}
	}
}

// stepContext derives a per-iteration context bounded by timeout (§6.6
// StepTimeout). A non-positive timeout disables the bound and returns ctx
// unchanged, with a no-op cancel.
func stepContext(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, timeout)
}

// think builds the prompt, calls the model, and parses the reply (§4.5 step 1).
func (s *Strategy) think(ctx context.Context, execCtx *types.StrategyExecutionContext) types.AgentThought {
	filtered := FilterContaminatedHistory(execCtx.History)
	defs := s.registry.All()

	composed := prompt.Compose(prompt.Request{
		Input:    execCtx.Input,
		Tools:    defs,
		History:  filtered,
		Identity: s.identity,
		Mode:     prompt.ModeExecutor,
	})

	resp, err := s.client.Call(ctx, model.CallRequest{
		Messages: []model.Message{
			{Role: "system", Content: composed.SystemPrompt},
			{Role: "user", Content: composed.UserPrompt},
		},
		Temperature: s.temperature,
	})
	if err != nil {
		s.logger.Warn(ctx, "react: model call failed", "err", err)
		return types.NewAgentThought("model call failed: "+err.Error(), types.FinalAnswer("I could not complete this request due to a model error."), 0, true)
	}

	thought, _ := s.parser.Parse(resp.Content)
	return thought
}

// selectAction picks the highest-confidence hypothesis, falling back to the
// parsed action when there are none (§4.5 step 2, §8 B2 stable tie-break:
// the first-encountered maximum wins since later ties never replace it).
func (s *Strategy) selectAction(thought types.AgentThought) types.AgentAction {
	if len(thought.Hypotheses) == 0 {
		return thought.Action
	}
	best := thought.Hypotheses[0]
	for _, h := range thought.Hypotheses[1:] {
		if h.Confidence > best.Confidence {
			best = h
		}
	}
	return best.Action
}

// act validates and invokes a tool_call action (§4.5 step 3). The returned
// fallbackReason is non-empty exactly when the action was rewritten into a
// final answer because the requested tool is unregistered (scenario:
// metadata.fallbackReason = "tool_not_available").
func (s *Strategy) act(ctx context.Context, execCtx *types.StrategyExecutionContext, action types.AgentAction, rt *strategy.Runtime, threadID string) (types.AgentAction, types.ActionResult, bool, string) {
	switch action.Kind {
	case types.ActionToolCall:
		if _, ok := s.registry.Lookup(action.Tool); !ok {
			names := strings.Join(s.registry.Names(), ", ")
			fallback := types.FinalAnswer(fmt.Sprintf("Tool %q is invalid or not available. Available tools: %s", action.Tool, names))
			return fallback, types.FinalAnswerResult(fallback.Content), false, "tool_not_available"
		}
		if ok, _ := rt.Budgets.RecordToolCall(); !ok {
			return action, types.ActionResult{}, true, ""
		}
		call := tools.ToolCall{ID: action.Tool, ToolName: action.Tool, Arguments: action.Arguments}
		results, err := s.scheduler.ForThread(threadID).Sequential(ctx, []tools.ToolCall{call}, scheduler.SequentialOptions{})
		if err != nil {
			return action, types.ErrorResult(err.Error()), false, ""
		}
		r := results[0]
		if r.Error != nil {
			return action, types.ErrorResult(r.Error.Error()), false, ""
		}
		success := !types.ToolResult(r.Result, true).IsError()
		return action, types.ToolResult(r.Result, success), false, ""
	case types.ActionNeedMoreInfo:
		return action, types.ToolResult(map[string]any{"question": action.Question}, true), false, ""
	default:
		return action, types.FinalAnswerResult(action.Content), false, ""
	}
}

func (s *Strategy) forceFinalize(ctx context.Context, execCtx *types.StrategyExecutionContext) types.AgentAction {
	return strategy.ForceFinalize(ctx, s.client, s.parser, execCtx, s.identity)
}

func (s *Strategy) appendFinalStep(execCtx *types.StrategyExecutionContext, action types.AgentAction, metadata map[string]any) {
	result := types.FinalAnswerResult(action.Content)
	analysis := types.Analyze(result)
	execCtx.AppendStep(types.ExecutionStep{
		ID:          fmt.Sprintf("step-final-%d", len(execCtx.History)),
		Type:        types.StepAct,
		Action:      &action,
		Result:      &result,
		Observation: &analysis,
		Timestamp:   time.Now(),
		Metadata:    metadata,
	})
}

func (s *Strategy) reportStep(ctx context.Context, threadID string, step types.ExecutionStep) {
	if threadID == "" {
		return
	}
	patch := session.ExecutionPatch{
		CurrentStep: &session.CurrentStep{ID: step.ID, Status: session.StepStatusCompleted},
	}
	if step.Result != nil && step.Result.IsError() {
		patch.FailedSteps = []string{step.ID}
		patch.CurrentStep.Status = session.StepStatusFailed
	} else {
		patch.CompletedSteps = []string{step.ID}
	}
	if err := s.sink.UpdateExecution(ctx, threadID, patch); err != nil {
		s.logger.Warn(ctx, "react: session progress report failed", "thread_id", threadID, "err", err)
	}
}

// buildResult assembles the terminal ExecutionResult from execCtx's history
// (§3, §7: success reflects whether a final answer was produced).
func (s *Strategy) buildResult(execCtx *types.StrategyExecutionContext, started time.Time, success bool) types.ExecutionResult {
	var output string
	for i := len(execCtx.History) - 1; i >= 0; i-- {
		if a := execCtx.History[i].Action; a != nil && a.Kind == types.ActionFinalAnswer {
			output = a.Content
			break
		}
	}
	return types.ExecutionResult{
		Output:        output,
		Strategy:      "react",
		Steps:         append([]types.ExecutionStep(nil), execCtx.History...),
		Success:       success,
		ExecutionTime: time.Since(started),
		Complexity:    len(execCtx.History),
	}
}
