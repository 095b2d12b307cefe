package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"
)

const defaultPublishTimeout = 5 * time.Second

// Broker publishes raw payloads to a named channel. *mq.MQ satisfies it.
type Broker interface {
	Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error)
}

type envelope struct {
	channel string
	data    []byte
	attrs   map[string]string
}

// Forwarder relays domain events to an external broker. Subscribing only
// enqueues; a single goroutine started by Run drains the queue.
type Forwarder struct {
	broker Broker
	prefix string
	queue  chan envelope
	logger *slog.Logger
}

// NewForwarder constructs a Forwarder with a queue of the given size.
func NewForwarder(broker Broker, prefix string, size int, logger *slog.Logger) *Forwarder {
	if size < 1 {
		size = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Forwarder{
		broker: broker,
		prefix: prefix,
		queue:  make(chan envelope, size),
		logger: logger,
	}
}

// Attach subscribes the forwarder to every channel of bus.
func (f *Forwarder) Attach(bus *Bus) {
	bus.SubscribeAll(f.Enqueue)
}

// Enqueue is the bus handler. It drops the event when the queue is full.
func (f *Forwarder) Enqueue(_ context.Context, event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	name := string(event.EventName())
	env := envelope{
		channel: f.prefix + name,
		data:    data,
		attrs:   map[string]string{"event": name},
	}
	select {
	case f.queue <- env:
	default:
		f.logger.Warn("event forward queue full, dropping event", "event", name)
	}
	return nil
}

// Run publishes queued events until ctx is cancelled.
func (f *Forwarder) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case env := <-f.queue:
			pubCtx, cancel := context.WithTimeout(ctx, defaultPublishTimeout)
			if _, err := f.broker.Publish(pubCtx, env.channel, env.data, env.attrs); err != nil {
				f.logger.Warn("failed to forward event", "channel", env.channel, "error", err)
			}
			cancel()
		}
	}
}
