// Package rewoo implements the ReWoo Strategy (C8): a Sketch → Work →
// Organize pipeline that plans sub-questions once, gathers evidence for all
// of them concurrently, then synthesizes a single answer — trading ReAct's
// interleaved reasoning for fewer model round-trips on questions that
// decompose cleanly (§4.6).
package rewoo

import (
	"context"
	"fmt"
	"time"

	"github.com/agentcore/core/agent/invoker"
	"github.com/agentcore/core/agent/model"
	"github.com/agentcore/core/agent/prompt"
	"github.com/agentcore/core/agent/session"
	"github.com/agentcore/core/agent/telemetry"
	"github.com/agentcore/core/agent/tools"
	"github.com/agentcore/core/agent/types"
)

// Caller is the narrow seam the Work phase invokes a single tool through.
type Caller interface {
	Invoke(ctx context.Context, toolName string, input map[string]any, opts invoker.Options) (any, error)
}

// Verifier inspects a synthesized Organization against its supporting
// evidence and optionally demands a re-run of Organize with added
// constraints (§4.6 "optional Verify pass"). A nil Verifier skips the phase
// entirely.
type Verifier interface {
	Check(ctx context.Context, input string, org Organization, evidence []Evidence) (constraints string, needsVerify bool)
}

type (
	// Strategy runs the ReWoo pipeline.
	Strategy struct {
		client   model.Client
		registry *tools.Registry
		caller   Caller
		verifier Verifier
		sink     session.Sink
		logger   telemetry.Logger
		identity prompt.Identity

		topKSketches           int
		maxParallelWork        int
		perWorkTimeout         time.Duration
		overallTimeout         time.Duration
		maxVerifyPasses        int
		requireEvidenceAnchors bool
	}

	// Option configures a Strategy at construction.
	Option func(*Strategy)
)

// WithSessionSink configures the session store seam for best-effort progress
// reporting.
func WithSessionSink(sink session.Sink) Option { return func(s *Strategy) { s.sink = sink } }

// WithLogger configures the strategy's logger.
func WithLogger(l telemetry.Logger) Option { return func(s *Strategy) { s.logger = l } }

// WithIdentity sets the persona surfaced in prompts.
func WithIdentity(id prompt.Identity) Option { return func(s *Strategy) { s.identity = id } }

// WithVerifier installs an optional Verify-pass gate.
func WithVerifier(v Verifier) Option { return func(s *Strategy) { s.verifier = v } }

// WithTopKSketches overrides the §6.6 default of 4 sketches.
func WithTopKSketches(n int) Option { return func(s *Strategy) { s.topKSketches = n } }

// WithMaxParallelWork overrides the §6.6 default Work-phase concurrency gate
// of 4.
func WithMaxParallelWork(n int) Option { return func(s *Strategy) { s.maxParallelWork = n } }

// WithPerWorkTimeout overrides the §6.6 default of 25s per evidence call.
func WithPerWorkTimeout(d time.Duration) Option { return func(s *Strategy) { s.perWorkTimeout = d } }

// WithOverallTimeout overrides the §6.6 default of 120s for the whole run.
func WithOverallTimeout(d time.Duration) Option { return func(s *Strategy) { s.overallTimeout = d } }

// WithMaxVerifyPasses overrides the §6.6 default of 1 Verify retry.
func WithMaxVerifyPasses(n int) Option { return func(s *Strategy) { s.maxVerifyPasses = n } }

// WithRequireEvidenceAnchors overrides the §6.6 default of true: when set,
// Organize responses with no citations are auto-cited against the first six
// evidence ids.
func WithRequireEvidenceAnchors(b bool) Option {
	return func(s *Strategy) { s.requireEvidenceAnchors = b }
}

// New constructs a ReWoo Strategy with the §6.6 defaults.
func New(client model.Client, registry *tools.Registry, caller Caller, opts ...Option) *Strategy {
	s := &Strategy{
		client:                 client,
		registry:               registry,
		caller:                 caller,
		sink:                   session.NewNoopSink(),
		logger:                 telemetry.NewNoopLogger(),
		topKSketches:           4,
		maxParallelWork:        4,
		perWorkTimeout:         25 * time.Second,
		overallTimeout:         120 * time.Second,
		maxVerifyPasses:        1,
		requireEvidenceAnchors: true,
	}
	for _, o := range opts {
		if o != nil {
			o(s)
		}
	}
	return s
}

// Execute runs the sketch → work → organize → [verify]? → done pipeline to
// completion (§4.6). Like ReAct's Execute, it never returns a Go error:
// every fatal phase failure is reported as an unsuccessful ExecutionResult.
func (s *Strategy) Execute(ctx context.Context, execCtx *types.StrategyExecutionContext, threadID string) types.ExecutionResult {
	started := time.Now()
	ctx, cancel := context.WithTimeout(ctx, s.overallTimeout)
	defer cancel()

	sketches, err := s.sketch(ctx, execCtx)
	if err != nil {
		s.appendPhaseFailure(execCtx, types.StepSketch, err)
		return s.fail(execCtx, started, err)
	}
	s.reportStep(ctx, threadID, "sketch", true)

	evidence := s.work(ctx, sketches, threadID)
	s.appendWorkStep(execCtx, evidence)
	s.reportStep(ctx, threadID, "work", true)

	org, err := s.organize(ctx, execCtx, evidence, "")
	if err != nil {
		s.appendPhaseFailure(execCtx, types.StepOrganize, err)
		return s.fail(execCtx, started, err)
	}

	if s.verifier != nil {
		for pass := 0; pass < s.maxVerifyPasses; pass++ {
			constraints, needsVerify := s.verifier.Check(ctx, execCtx.Input, org, evidence)
			if !needsVerify {
				break
			}
			reorganized, verr := s.organize(ctx, execCtx, evidence, constraints)
			if verr != nil {
				s.appendPhaseFailure(execCtx, types.StepOrganize, verr)
				return s.fail(execCtx, started, verr)
			}
			org = reorganized
			s.appendVerifyStep(execCtx, constraints, org)
		}
	}

	s.appendOrganizeStep(execCtx, org)
	s.reportStep(ctx, threadID, "organize", true)

	return types.ExecutionResult{
		Output:        org.Answer,
		Strategy:      "rewoo",
		Steps:         append([]types.ExecutionStep(nil), execCtx.History...),
		Success:       true,
		ExecutionTime: time.Since(started),
		Complexity:    len(execCtx.History),
		Metadata: map[string]any{
			"citations":  org.Citations,
			"confidence": org.Confidence,
		},
	}
}

func (s *Strategy) fail(execCtx *types.StrategyExecutionContext, started time.Time, err error) types.ExecutionResult {
	return types.ExecutionResult{
		Strategy:      "rewoo",
		Steps:         append([]types.ExecutionStep(nil), execCtx.History...),
		Success:       false,
		Error:         err.Error(),
		ExecutionTime: time.Since(started),
		Complexity:    len(execCtx.History),
	}
}

func (s *Strategy) appendPhaseFailure(execCtx *types.StrategyExecutionContext, phase types.StepType, err error) {
	result := types.ErrorResult(err.Error())
	analysis := types.Analyze(result)
	execCtx.AppendStep(types.ExecutionStep{
		ID:          fmt.Sprintf("%s-failed", phase),
		Type:        phase,
		Result:      &result,
		Observation: &analysis,
		Timestamp:   time.Now(),
	})
}

func (s *Strategy) appendWorkStep(execCtx *types.StrategyExecutionContext, evidence []Evidence) {
	failed := 0
	for _, e := range evidence {
		if e.Error != "" {
			failed++
		}
	}
	result := types.ToolResult(map[string]any{"evidence": evidence}, true)
	analysis := types.Analyze(result)
	execCtx.AppendStep(types.ExecutionStep{
		ID:          "work",
		Type:        types.StepWork,
		Result:      &result,
		Observation: &analysis,
		Timestamp:   time.Now(),
		Metadata:    map[string]any{"evidenceCount": len(evidence), "failedCount": failed},
	})
}

func (s *Strategy) appendOrganizeStep(execCtx *types.StrategyExecutionContext, org Organization) {
	action := types.FinalAnswer(org.Answer)
	result := types.FinalAnswerResult(org.Answer)
	analysis := types.Analyze(result)
	execCtx.AppendStep(types.ExecutionStep{
		ID:          "organize",
		Type:        types.StepOrganize,
		Action:      &action,
		Result:      &result,
		Observation: &analysis,
		Timestamp:   time.Now(),
		Metadata:    map[string]any{"citations": org.Citations, "confidence": org.Confidence},
	})
}

func (s *Strategy) appendVerifyStep(execCtx *types.StrategyExecutionContext, constraints string, org Organization) {
	result := types.FinalAnswerResult(org.Answer)
	analysis := types.Analyze(result)
	execCtx.AppendStep(types.ExecutionStep{
		ID:          fmt.Sprintf("verify-%d", len(execCtx.History)),
		Type:        types.StepSynthesize,
		Result:      &result,
		Observation: &analysis,
		Timestamp:   time.Now(),
		Metadata:    map[string]any{"constraints": constraints},
	})
}

func (s *Strategy) reportStep(ctx context.Context, threadID, stepID string, ok bool) {
	if threadID == "" {
		return
	}
	patch := session.ExecutionPatch{CompletedSteps: []string{stepID}}
	if !ok {
		patch = session.ExecutionPatch{FailedSteps: []string{stepID}}
	}
	if err := s.sink.UpdateExecution(ctx, threadID, patch); err != nil {
		s.logger.Warn(ctx, "rewoo: session progress report failed", "thread_id", threadID, "err", err)
	}
}
