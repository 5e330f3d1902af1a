package events

import (
	"context"

	"github.com/google/uuid"

	"github.com/agentcore/core/agent/invoker"
)

const (
	// EventToolExecuteRequest names the inbound event a Bridge listens for.
	EventToolExecuteRequest = "tool.execute.request"
	// EventToolExecuteResponse names the outbound event a Bridge emits.
	EventToolExecuteResponse = "tool.execute.response"
)

// ToolExecuteRequest is the payload carried by an EventToolExecuteRequest
// event (§4.8).
type ToolExecuteRequest struct {
	ToolName string
	Input    map[string]any
}

// ToolExecuteResponse is the payload carried by an EventToolExecuteResponse
// event. Exactly one of Result/Error is meaningful, discriminated by
// Success.
type ToolExecuteResponse struct {
	ToolName string
	Result   any
	Success  bool
	Error    string
}

// Invoker is the subset of invoker.Invoker the bridge depends on.
type Invoker interface {
	Invoke(ctx context.Context, toolName string, input map[string]any, opts invoker.Options) (any, error)
}

// Bridge registers a handler for EventToolExecuteRequest, invokes the tool
// through an Invoker, and emits EventToolExecuteResponse carrying the
// correlation id from the inbound event's metadata (§4.8).
type Bridge struct {
	invoker Invoker
	emit    Notifier
}

// NewBridge constructs a Bridge that executes requests via invoker and
// publishes responses via emit. If emit is nil, responses are discarded.
func NewBridge(invoker Invoker, emit Notifier) *Bridge {
	if emit == nil {
		emit = NewNoopNotifier()
	}
	return &Bridge{invoker: invoker, emit: emit}
}

// Register attaches the bridge to bus as a Handler for
// EventToolExecuteRequest events; other event types are ignored.
func (b *Bridge) Register(bus *Bus) (Subscription, error) {
	return bus.Register(HandlerFunc(func(ctx context.Context, event Event) error {
		if event.Type != EventToolExecuteRequest {
			return nil
		}
		return b.handle(ctx, event)
	}))
}

func (b *Bridge) handle(ctx context.Context, event Event) error {
	req, ok := event.Data.(ToolExecuteRequest)
	if !ok {
		return nil
	}
	correlationID := event.Metadata["correlationId"]
	if correlationID == "" {
		correlationID = uuid.NewString()
	}

	result, err := b.invoker.Invoke(ctx, req.ToolName, req.Input, invoker.Options{CorrelationID: correlationID})
	resp := ToolExecuteResponse{ToolName: req.ToolName, Result: result, Success: err == nil}
	if err != nil {
		resp.Error = err.Error()
	}
	// Delivery is at-least-once only when emit supports async emission;
	// otherwise this is fire-and-forget from the bridge's perspective (the
	// error return below only reflects the publish attempt itself).
	return b.emit.Emit(ctx, Event{
		Type:     EventToolExecuteResponse,
		Data:     resp,
		Metadata: map[string]string{"correlationId": correlationID},
	})
}
