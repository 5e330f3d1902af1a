package events

import (
	"context"
	"errors"
	"testing"

	"github.com/agentcore/core/agent/invoker"
)

type fakeInvoker struct {
	result any
	err    error
}

func (f fakeInvoker) Invoke(ctx context.Context, toolName string, input map[string]any, opts invoker.Options) (any, error) {
	return f.result, f.err
}

func TestBridgeHandlesRequestAndEmitsResponse(t *testing.T) {
	var captured Event
	notifier := NotifierFunc(func(ctx context.Context, e Event) error {
		captured = e
		return nil
	})

	b := NewBridge(fakeInvoker{result: "ok"}, notifier)
	bus := NewBus()
	if _, err := b.Register(bus); err != nil {
		t.Fatalf("register: %v", err)
	}

	err := bus.Emit(context.Background(), Event{
		Type:     EventToolExecuteRequest,
		Data:     ToolExecuteRequest{ToolName: "search", Input: map[string]any{}},
		Metadata: map[string]string{"correlationId": "c1"},
	})
	if err != nil {
		t.Fatalf("emit: %v", err)
	}

	resp, ok := captured.Data.(ToolExecuteResponse)
	if !ok {
		t.Fatalf("expected ToolExecuteResponse, got %T", captured.Data)
	}
	if !resp.Success || resp.Result != "ok" {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if captured.Metadata["correlationId"] != "c1" {
		t.Fatalf("expected correlation id propagated, got %q", captured.Metadata["correlationId"])
	}
}

func TestBridgeReportsToolFailure(t *testing.T) {
	var captured Event
	notifier := NotifierFunc(func(ctx context.Context, e Event) error {
		captured = e
		return nil
	})
	b := NewBridge(fakeInvoker{err: errors.New("tool failed")}, notifier)
	bus := NewBus()
	_, _ = b.Register(bus)

	_ = bus.Emit(context.Background(), Event{
		Type: EventToolExecuteRequest,
		Data: ToolExecuteRequest{ToolName: "search", Input: map[string]any{}},
	})

	resp := captured.Data.(ToolExecuteResponse)
	if resp.Success {
		t.Fatalf("expected Success=false")
	}
	if resp.Error != "tool failed" {
		t.Fatalf("expected error message propagated, got %q", resp.Error)
	}
}

func TestBridgeIgnoresOtherEventTypes(t *testing.T) {
	called := false
	notifier := NotifierFunc(func(ctx context.Context, e Event) error {
		called = true
		return nil
	})
	b := NewBridge(fakeInvoker{}, notifier)
	bus := NewBus()
	_, _ = b.Register(bus)

	_ = bus.Emit(context.Background(), Event{Type: "unrelated"})
	if called {
		t.Fatalf("bridge should ignore unrelated event types")
	}
}
