// Package events implements the best-effort event seam used by the Batch
// Scheduler (C5) and the Event Bridge (C10). It is grounded on the teacher's
// runtime/agent/hooks.Bus: a thread-safe, synchronous fan-out bus with a
// Subscription handle for unregistering. Per DESIGN NOTES §9, emission is
// wrapped behind a Notifier seam so unit tests need not construct a bus at
// all.
package events

import (
	"context"
	"errors"
	"sync"
)

type (
	// Event is a single notification published on the bus.
	Event struct {
		// Type names the event, e.g. "tool.parallel.execution.start" or
		// "tool.execute.request".
		Type string
		// Data carries the event payload. Shape is defined per Type.
		Data any
		// Metadata carries routing context such as correlation id.
		Metadata map[string]string
	}

	// Notifier is the narrow seam components use to publish events. A
	// no-op Notifier is the library default; unit tests need not configure
	// a real bus.
	Notifier interface {
		// Emit publishes an event. Implementations must not block
		// indefinitely; callers treat a returned error as best-effort and
		// typically log and continue rather than fail the run.
		Emit(ctx context.Context, event Event) error
	}

	// Handler reacts to published events. Used both as a Bus subscriber
	// and as the registration shape for the Event Bridge (C10).
	Handler interface {
		Handle(ctx context.Context, event Event) error
	}

	// HandlerFunc adapts a plain function to the Handler interface.
	HandlerFunc func(ctx context.Context, event Event) error

	// NotifierFunc adapts a plain function to the Notifier interface.
	NotifierFunc func(ctx context.Context, event Event) error

	// Subscription represents an active registration on a Bus. Close is
	// idempotent and safe to call multiple times.
	Subscription interface {
		Close() error
	}

	// Bus publishes events to registered subscribers in a synchronous
	// fan-out pattern, stopping at the first subscriber error. It is
	// thread-safe.
	Bus struct {
		mu          sync.RWMutex
		subscribers map[*subscription]Handler
	}

	subscription struct {
		bus  *Bus
		once sync.Once
	}

	noopNotifier struct{}
)

// Handle calls f.
func (f HandlerFunc) Handle(ctx context.Context, event Event) error { return f(ctx, event) }

// Emit calls f.
func (f NotifierFunc) Emit(ctx context.Context, event Event) error { return f(ctx, event) }

// NewBus constructs an in-memory event bus ready for immediate use.
func NewBus() *Bus {
	return &Bus{subscribers: make(map[*subscription]Handler)}
}

// NewNoopNotifier returns a Notifier that discards every event. It is the
// library default.
func NewNoopNotifier() Notifier { return noopNotifier{} }

func (noopNotifier) Emit(context.Context, Event) error { return nil }

// Emit implements Notifier by publishing to every registered subscriber,
// stopping at the first error. Subscribers are held in a map, so the order
// in which they are called is not defined. If no subscribers are
// registered, Emit returns nil immediately without allocating.
func (b *Bus) Emit(ctx context.Context, event Event) error {
	b.mu.RLock()
	if len(b.subscribers) == 0 {
		b.mu.RUnlock()
		return nil
	}
	subs := make([]Handler, 0, len(b.subscribers))
	for _, sub := range b.subscribers {
		subs = append(subs, sub)
	}
	b.mu.RUnlock()
	for _, sub := range subs {
		if err := sub.Handle(ctx, event); err != nil {
			return err
		}
	}
	return nil
}

// Register adds a subscriber to the bus. Register returns an error if
// handler is nil.
func (b *Bus) Register(handler Handler) (Subscription, error) {
	if handler == nil {
		return nil, errors.New("events: handler is required")
	}
	s := &subscription{bus: b}
	b.mu.Lock()
	b.subscribers[s] = handler
	b.mu.Unlock()
	return s, nil
}

// Close removes the subscriber from the bus. Idempotent.
func (s *subscription) Close() error {
	s.once.Do(func() {
		s.bus.mu.Lock()
		delete(s.bus.subscribers, s)
		s.bus.mu.Unlock()
	})
	return nil
}
