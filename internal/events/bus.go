package events

import (
	"context"
	"log/slog"
	"slices"
	"sync"
)

// Emitter publishes events. Services depend on this rather than on Bus.
type Emitter interface {
	Emit(event Event)
}

// NoopEmitter is a no-op implementation of Emitter for testing.
type NoopEmitter struct{}

// Emit implements Emitter.Emit as a no-op.
func (NoopEmitter) Emit(Event) {}

// Handler receives events.
type Handler func(Event)

type subscription struct {
	id      int
	handler Handler
	types   []EventType
}

// Bus delivers events synchronously, in subscription order, on the
// emitting goroutine. A panicking handler is logged and skipped.
type Bus struct {
	logger *slog.Logger

	mu     sync.RWMutex
	subs   []subscription
	nextID int
	closed bool
}

var _ Emitter = (*Bus)(nil)

// NewBus creates an empty bus.
func NewBus(logger *slog.Logger) *Bus {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Bus{logger: logger}
}

// Subscribe registers h for the given types, or for every type when none
// are given. The returned func removes the subscription.
func (b *Bus) Subscribe(h Handler, types ...EventType) (unsubscribe func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	b.subs = append(b.subs, subscription{id: id, handler: h, types: types})

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		b.subs = slices.DeleteFunc(b.subs, func(s subscription) bool { return s.id == id })
	}
}

// Emit delivers event to every matching subscriber before returning.
func (b *Bus) Emit(event Event) {
	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return
	}
	subs := slices.Clone(b.subs)
	b.mu.RUnlock()

	for _, s := range subs {
		if len(s.types) > 0 && !slices.Contains(s.types, event.Type) {
			continue
		}
		b.deliver(s, event)
	}
}

func (b *Bus) deliver(s subscription, event Event) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("event handler panicked",
				slog.String("event_type", string(event.Type)),
				slog.Any("panic", r))
		}
	}()
	s.handler(event)
}

// Shutdown drops all subscribers; later events are discarded.
func (b *Bus) Shutdown(_ context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	b.subs = nil
	return nil
}
