package events

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestBusDeliversToChannelSubscribersInOrder(t *testing.T) {
	bus := NewBus(discardLogger())

	var got []string
	bus.Subscribe(JobApplied, func(ctx context.Context, e Event) error {
		got = append(got, "first")
		return nil
	})
	bus.Subscribe(JobApplied, func(ctx context.Context, e Event) error {
		got = append(got, "second")
		return nil
	})
	bus.Subscribe(ChatNewMessage, func(ctx context.Context, e Event) error {
		got = append(got, "chat")
		return nil
	})

	bus.Publish(context.Background(), JobAppliedEvent{ApplicationID: 1, UserID: 2, JobID: 3})

	assert.Equal(t, []string{"first", "second"}, got)
}

func TestBusIsolatesFailingSubscribers(t *testing.T) {
	bus := NewBus(discardLogger())

	called := false
	bus.Subscribe(UserRegistered, func(ctx context.Context, e Event) error {
		return errors.New("smtp down")
	})
	bus.Subscribe(UserRegistered, func(ctx context.Context, e Event) error {
		panic("boom")
	})
	bus.Subscribe(UserRegistered, func(ctx context.Context, e Event) error {
		called = true
		ev, ok := e.(UserRegisteredEvent)
		require.True(t, ok)
		assert.Equal(t, "a@example.com", ev.Email)
		return nil
	})

	assert.NotPanics(t, func() {
		bus.Publish(context.Background(), UserRegisteredEvent{UserID: 1, Email: "a@example.com", Method: "email"})
	})
	assert.True(t, called)
}

type fakeBroker struct {
	mu       sync.Mutex
	channels []string
	payloads [][]byte
	done     chan struct{}
}

func (b *fakeBroker) Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.channels = append(b.channels, channel)
	b.payloads = append(b.payloads, data)
	if b.done != nil {
		close(b.done)
		b.done = nil
	}
	return "id", nil
}

func TestForwarderPublishesPrefixedChannel(t *testing.T) {
	bus := NewBus(discardLogger())
	broker := &fakeBroker{done: make(chan struct{})}
	done := broker.done
	fwd := NewForwarder(broker, "portal.", 4, discardLogger())
	fwd.Attach(bus)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go fwd.Run(ctx)

	bus.Publish(ctx, ChatNewMessageEvent{MessageID: 7, SenderID: 1, ReceiverID: 2, Message: "hi"})

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("event was not forwarded")
	}

	broker.mu.Lock()
	defer broker.mu.Unlock()
	require.Len(t, broker.channels, 1)
	assert.Equal(t, "portal.chat:newMessage", broker.channels[0])
	assert.JSONEq(t, `{"messageId":7,"senderId":1,"receiverId":2,"message":"hi"}`, string(broker.payloads[0]))
}

func TestForwarderDropsWhenQueueFull(t *testing.T) {
	fwd := NewForwarder(&fakeBroker{}, "", 1, discardLogger())

	require.NoError(t, fwd.Enqueue(context.Background(), JobAppliedEvent{ApplicationID: 1}))
	require.NoError(t, fwd.Enqueue(context.Background(), JobAppliedEvent{ApplicationID: 2}))

	assert.Len(t, fwd.queue, 1)
}
