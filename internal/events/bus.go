package events

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// Handler consumes one event. A returned error is logged, never propagated.
type Handler func(ctx context.Context, event Event) error

// Publisher is what write paths depend on.
type Publisher interface {
	Publish(ctx context.Context, event Event)
}

// Bus dispatches events synchronously to the subscribers of their channel.
type Bus struct {
	mu     sync.RWMutex
	subs   map[Name][]Handler
	logger *slog.Logger
}

// NewBus constructs an empty bus.
func NewBus(logger *slog.Logger) *Bus {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bus{
		subs:   make(map[Name][]Handler),
		logger: logger,
	}
}

// Subscribe registers h for the named channel.
func (b *Bus) Subscribe(name Name, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs[name] = append(b.subs[name], h)
}

// SubscribeAll registers h for every known channel.
func (b *Bus) SubscribeAll(h Handler) {
	for _, name := range Names {
		b.Subscribe(name, h)
	}
}

// Publish delivers event to every subscriber of its channel in registration order.
func (b *Bus) Publish(ctx context.Context, event Event) {
	if event == nil {
		return
	}
	name := event.EventName()

	b.mu.RLock()
	handlers := append([]Handler(nil), b.subs[name]...)
	b.mu.RUnlock()

	for _, h := range handlers {
		if err := b.invoke(ctx, h, event); err != nil {
			b.logger.Warn("event subscriber failed", "event", string(name), "error", err)
		}
	}
}

func (b *Bus) invoke(ctx context.Context, h Handler, event Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("subscriber panic: %v", r)
		}
	}()
	return h(ctx, event)
}
