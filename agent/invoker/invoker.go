// Package invoker implements the Tool Invoker (C3): it validates input,
// enforces a per-call timeout, enriches the execution context from the
// session store, and reports telemetry — all without retrying (§4.1 step
// 6: "Retries are not performed here").
package invoker

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/santhosh-tekuri/jsonschema/v6"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/agentcore/core/agent/session"
	"github.com/agentcore/core/agent/telemetry"
	"github.com/agentcore/core/agent/toolerrors"
	"github.com/agentcore/core/agent/tools"
)

const (
	defaultTimeout = 60 * time.Second
)

type (
	// Options configures a single Invoke call (§4.1 contract: `opts =
	// {timeout?, correlationId?, tenantId?, threadId?}`).
	Options struct {
		Timeout       time.Duration
		CorrelationID string
		TenantID      string
		ThreadID      string
	}

	// Invoker executes one tool call at a time with validation, timeout,
	// enrichment, and telemetry (C3).
	Invoker struct {
		registry         *tools.Registry
		sink             session.Sink
		logger           telemetry.Logger
		tracer           telemetry.Tracer
		defaultTimeout   time.Duration
		validateSchemas  bool
		recentMsgLimit   int
	}

	// Option configures an Invoker at construction.
	Option func(*Invoker)
)

// WithSessionSink configures the session store seam used for best-effort
// context enrichment and progress reporting (§4.1 steps 2 and 5).
func WithSessionSink(sink session.Sink) Option {
	return func(i *Invoker) { i.sink = sink }
}

// WithLogger configures the invoker's logger. Defaults to a no-op logger.
func WithLogger(logger telemetry.Logger) Option {
	return func(i *Invoker) { i.logger = logger }
}

// WithTracer configures the invoker's tracer. Defaults to a no-op tracer.
func WithTracer(tracer telemetry.Tracer) Option {
	return func(i *Invoker) { i.tracer = tracer }
}

// WithDefaultTimeout overrides the default per-call timeout (§6.6
// toolTimeout, default 60-120s; this core defaults to 60s for the simple
// path per §5).
func WithDefaultTimeout(d time.Duration) Option {
	return func(i *Invoker) {
		if d > 0 {
			i.defaultTimeout = d
		}
	}
}

// WithValidateSchemas toggles input schema validation (§6.6
// validateSchemas, default true).
func WithValidateSchemas(enabled bool) Option {
	return func(i *Invoker) { i.validateSchemas = enabled }
}

// New constructs an Invoker backed by registry. Defaults: 60s timeout,
// schema validation enabled, no-op session sink/logger/tracer.
func New(registry *tools.Registry, opts ...Option) *Invoker {
	i := &Invoker{
		registry:        registry,
		sink:            session.NewNoopSink(),
		logger:          telemetry.NewNoopLogger(),
		tracer:          telemetry.NewNoopTracer(),
		defaultTimeout:  defaultTimeout,
		validateSchemas: true,
		recentMsgLimit:  3,
	}
	for _, o := range opts {
		if o != nil {
			o(i)
		}
	}
	return i
}

// Invoke executes toolName with input, following the §4.1 contract:
//  1. mint a callId and start a span
//  2. best-effort session progress report
//  3. look up the tool (ToolNotFound if absent)
//  4. validate input against the schema unless disabled
//  5. enrich the ToolContext from the session store (best-effort)
//  6. race execution against a single timeout
//  7/8. record success/failure back to the session store (best-effort)
func (iv *Invoker) Invoke(ctx context.Context, toolName string, input map[string]any, opts Options) (any, error) {
	callID := uuid.NewString()
	tracer := iv.tracer
	if tracer == nil {
		tracer = telemetry.NewNoopTracer()
	}
	ctx, span := tracer.Start(ctx, "invoker.invoke",
		trace.WithAttributes(
			attribute.String("invoker.tool", toolName),
			attribute.String("invoker.call_id", callID),
			attribute.String("invoker.tenant_id", opts.TenantID),
			attribute.String("invoker.thread_id", opts.ThreadID),
		),
	)
	defer span.End()

	if opts.ThreadID != "" {
		iv.reportExecuting(ctx, opts.ThreadID, callID, toolName)
	}

	def, ok := iv.registry.Lookup(toolName)
	if !ok {
		err := toolerrors.New(toolerrors.KindToolNotFound, fmt.Sprintf("tool %q is not registered", toolName))
		iv.recordFailure(ctx, span, opts.ThreadID, callID, err)
		return nil, err
	}

	if iv.validateSchemas && len(def.InputSchema) > 0 {
		if err := iv.validate(def, input); err != nil {
			iv.recordFailure(ctx, span, opts.ThreadID, callID, err)
			return nil, err
		}
	}

	tc := iv.buildContext(ctx, callID, opts)

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = iv.defaultTimeout
	}
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	result, err := iv.race(callCtx, def, input, tc)
	if err != nil {
		if callCtx.Err() != nil {
			err = toolerrors.NewWithCause(toolerrors.KindTimeout, fmt.Sprintf("tool %q timed out after %s", toolName, timeout), err)
		} else {
			err = toolerrors.NewWithCause(toolerrors.KindToolExecution, fmt.Sprintf("tool %q failed", toolName), err)
		}
		iv.recordFailure(ctx, span, opts.ThreadID, callID, err)
		return nil, err
	}

	span.SetStatus(codes.Ok, "ok")
	iv.recordSuccess(ctx, opts.ThreadID, callID, toolName, result)
	return result, nil
}

// race runs def.Execute and lets callCtx's deadline win if Execute does not
// return first. The goroutine is intentionally allowed to outlive this call
// on a timeout: cancellation propagates via callCtx so the tool itself
// observes it, but we do not block the caller waiting for a misbehaving
// tool to notice. Per §5, a cancelled call must not write to the session
// store after return — recordFailure/recordSuccess are called exactly once
// by the caller, never from the abandoned goroutine.
func (iv *Invoker) race(callCtx context.Context, def tools.ToolDefinition, input map[string]any, tc *tools.ToolContext) (any, error) {
	type out struct {
		val any
		err error
	}
	done := make(chan out, 1)
	go func() {
		val, err := def.Execute(callCtx, input, tc)
		done <- out{val: val, err: err}
	}()
	select {
	case o := <-done:
		return o.val, o.err
	case <-callCtx.Done():
		return nil, callCtx.Err()
	}
}

// validate compiles def's input schema and checks input against it,
// returning a ValidationError that lists the instance paths from the
// validator's error tree on failure (§4.1 step 4). Compilation happens per call rather
// than being cached by tool name: schemas are small and calls are not
// hot-path enough in this core to warrant a compiled-schema cache.
func (iv *Invoker) validate(def tools.ToolDefinition, input map[string]any) error {
	resource := schemaResourceName(def.Name)
	doc, err := jsonschema.UnmarshalJSON(bytesReader(def.InputSchema))
	if err != nil {
		return toolerrors.NewWithCause(toolerrors.KindValidation, fmt.Sprintf("tool %q has a malformed input schema", def.Name), err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(resource, doc); err != nil {
		return toolerrors.NewWithCause(toolerrors.KindValidation, fmt.Sprintf("tool %q has an invalid input schema", def.Name), err)
	}
	schema, err := compiler.Compile(resource)
	if err != nil {
		return toolerrors.NewWithCause(toolerrors.KindValidation, fmt.Sprintf("tool %q schema failed to compile", def.Name), err)
	}
	if err := schema.Validate(toJSONValue(input)); err != nil {
		return newValidationError(def.Name, err)
	}
	return nil
}

func schemaResourceName(toolName string) string {
	return "mem://" + toolName + ".json"
}

func (iv *Invoker) buildContext(ctx context.Context, callID string, opts Options) *tools.ToolContext {
	tc := &tools.ToolContext{
		CallID:        callID,
		CorrelationID: opts.CorrelationID,
		TenantID:      opts.TenantID,
		ThreadID:      opts.ThreadID,
	}
	if opts.ThreadID == "" {
		return tc
	}
	sessCtx, err := iv.sink.GetContext(ctx, opts.ThreadID)
	if err != nil {
		iv.logger.Warn(ctx, "invoker: session enrichment failed, using minimal context", "thread_id", opts.ThreadID, "err", err)
		return tc
	}
	recent := sessCtx.RecentMessages
	if len(recent) > iv.recentMsgLimit {
		recent = recent[len(recent)-iv.recentMsgLimit:]
	}
	msgs := make([]tools.RecentMessage, 0, len(recent))
	for _, m := range recent {
		msgs = append(msgs, tools.RecentMessage{Role: m.Role, Content: m.Content})
	}
	tc.Session = &tools.SessionSnapshot{
		SessionID:      sessCtx.SessionID,
		RecentMessages: msgs,
		Entities:       sessCtx.Entities,
		CompletedSteps: sessCtx.CompletedSteps,
		FailedSteps:    sessCtx.FailedSteps,
	}
	return tc
}

func (iv *Invoker) reportExecuting(ctx context.Context, threadID, callID, toolName string) {
	err := iv.sink.UpdateExecution(ctx, threadID, session.ExecutionPatch{
		CurrentStep: &session.CurrentStep{ID: callID, Status: session.StepStatusExecuting, Tool: toolName},
	})
	if err != nil {
		iv.logger.Warn(ctx, "invoker: session progress report failed", "thread_id", threadID, "err", err)
	}
}

func (iv *Invoker) recordSuccess(ctx context.Context, threadID, callID, toolName string, result any) {
	if threadID == "" {
		return
	}
	if err := iv.sink.AddEntities(ctx, threadID, []session.Entity{{Kind: "toolResults", ID: toolName, Data: result}}); err != nil {
		iv.logger.Warn(ctx, "invoker: recording tool result entity failed", "thread_id", threadID, "err", err)
	}
	err := iv.sink.UpdateExecution(ctx, threadID, session.ExecutionPatch{CompletedSteps: []string{callID}})
	if err != nil {
		iv.logger.Warn(ctx, "invoker: session completion report failed", "thread_id", threadID, "err", err)
	}
}

func (iv *Invoker) recordFailure(ctx context.Context, span telemetry.Span, threadID, callID string, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	if threadID == "" {
		return
	}
	reportErr := iv.sink.UpdateExecution(ctx, threadID, session.ExecutionPatch{
		FailedSteps: []string{callID},
		LastError:   err.Error(),
	})
	if reportErr != nil {
		iv.logger.Warn(ctx, "invoker: session failure report failed", "thread_id", threadID, "err", reportErr)
	}
}
