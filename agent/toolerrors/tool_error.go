// Package toolerrors provides structured error types for tool invocation and
// strategy failures. ToolError preserves error chains and supports
// errors.Is/As while remaining a plain, serializable value.
package toolerrors

import (
	"errors"
	"fmt"
)

// ToolError represents a structured failure that preserves a human-readable
// message and causal context while still implementing the standard error
// interface. Errors may be nested via Cause to retain diagnostics across
// retries and strategy hand-offs.
type ToolError struct {
	// Message is the human-readable summary of the failure.
	Message string
	// Kind classifies the failure for policy/strategy decisions. Empty Kind
	// means unclassified.
	Kind Kind
	// Cause links to the underlying error, enabling error chains with
	// errors.Is/As.
	Cause *ToolError

	// wrapped is the original error a FromError conversion was built from,
	// kept so errors.Is/As can still reach it.
	wrapped error
}

// Kind enumerates the error taxonomy from the component design: each kind
// maps to a distinct recovery path in the strategy layer.
type Kind string

const (
	// KindValidation indicates tool input did not match its schema.
	KindValidation Kind = "validation"
	// KindToolNotFound indicates the requested tool is not registered.
	KindToolNotFound Kind = "tool_not_found"
	// KindTimeout indicates a tool call or batch exceeded its deadline.
	KindTimeout Kind = "timeout"
	// KindParse indicates model output could not be interpreted.
	KindParse Kind = "parse"
	// KindToolExecution indicates the tool itself raised.
	KindToolExecution Kind = "tool_execution"
	// KindSemantic indicates the tool returned success=false or isError=true.
	KindSemantic Kind = "semantic"
	// KindBudgetExceeded indicates an iteration/tool/time/loop budget tripped.
	KindBudgetExceeded Kind = "budget_exceeded"
	// KindCircularDependency indicates a cycle was detected while resolving a
	// tool dependency graph. This kind is advisory: callers must not treat it
	// as fatal.
	KindCircularDependency Kind = "circular_dependency"
)

// New constructs a ToolError with the provided message and kind. Use when
// the failure does not wrap an underlying error but still requires
// structured reporting.
func New(kind Kind, message string) *ToolError {
	if message == "" {
		message = "tool error"
	}
	return &ToolError{Message: message, Kind: kind}
}

// NewWithCause constructs a ToolError that wraps an underlying error. The
// cause is converted into a ToolError chain so error metadata survives
// while still supporting errors.Is/As through Unwrap.
func NewWithCause(kind Kind, message string, cause error) *ToolError {
	if message == "" && cause != nil {
		message = cause.Error()
	}
	return &ToolError{
		Message: message,
		Kind:    kind,
		Cause:   FromError(cause),
	}
}

// FromError converts an arbitrary error into a ToolError chain, preserving
// the original Kind when the error already carries one.
func FromError(err error) *ToolError {
	if err == nil {
		return nil
	}
	var te *ToolError
	if errors.As(err, &te) {
		return te
	}
	return &ToolError{
		Message: err.Error(),
		Cause:   FromError(errors.Unwrap(err)),
		wrapped: err,
	}
}

// Errorf formats according to a format specifier and returns the result as a
// ToolError of the given kind.
func Errorf(kind Kind, format string, args ...any) *ToolError {
	return New(kind, fmt.Sprintf(format, args...))
}

// Error implements the error interface.
func (e *ToolError) Error() string {
	if e == nil {
		return ""
	}
	return e.Message
}

// Unwrap returns the underlying error to support errors.Is/As.
func (e *ToolError) Unwrap() error {
	if e == nil {
		return nil
	}
	if e.wrapped != nil {
		return e.wrapped
	}
	return e.Cause
}

// Is reports whether this error (or its cause chain) carries the given kind.
// It allows callers to write `errors.Is(err, toolerrors.New(toolerrors.KindTimeout, ""))`-style
// checks, but the idiomatic path is inspecting Kind directly via errors.As.
func (e *ToolError) Is(target error) bool {
	t, ok := target.(*ToolError)
	if !ok || t == nil {
		return false
	}
	return e != nil && e.Kind != "" && e.Kind == t.Kind
}

// Retryable reports whether the error's kind is retryable at a
// circuit-breaker layer external to this core (timeouts only; everything
// else requires a different approach, not a blind retry).
func (e *ToolError) Retryable() bool {
	return e != nil && e.Kind == KindTimeout
}
