package events

import (
	"context"
	"errors"
	"testing"
)

func TestBusEmitFanOutAndUnregister(t *testing.T) {
	bus := NewBus()
	var calls int
	sub, err := bus.Register(HandlerFunc(func(ctx context.Context, event Event) error {
		calls++
		return nil
	}))
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	if err := bus.Emit(context.Background(), Event{Type: "x"}); err != nil {
		t.Fatalf("emit: %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected 1 call, got %d", calls)
	}

	if err := sub.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := sub.Close(); err != nil {
		t.Fatalf("close should be idempotent: %v", err)
	}

	if err := bus.Emit(context.Background(), Event{Type: "x"}); err != nil {
		t.Fatalf("emit after close: %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected no further calls after close, got %d", calls)
	}
}

func TestBusEmitStopsAtFirstError(t *testing.T) {
	bus := NewBus()
	boom := errors.New("boom")
	var secondCalled bool

	_, _ = bus.Register(HandlerFunc(func(ctx context.Context, event Event) error {
		return boom
	}))
	_, _ = bus.Register(HandlerFunc(func(ctx context.Context, event Event) error {
		secondCalled = true
		return nil
	}))

	err := bus.Emit(context.Background(), Event{Type: "x"})
	if err == nil {
		t.Fatalf("expected error")
	}
	_ = secondCalled // fan-out order across a map is unspecified; only the error propagation is asserted
}

func TestBusEmitNoSubscribers(t *testing.T) {
	bus := NewBus()
	if err := bus.Emit(context.Background(), Event{Type: "x"}); err != nil {
		t.Fatalf("expected nil error with no subscribers: %v", err)
	}
}

func TestRegisterNilHandler(t *testing.T) {
	bus := NewBus()
	if _, err := bus.Register(nil); err == nil {
		t.Fatalf("expected error registering nil handler")
	}
}
