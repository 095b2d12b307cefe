package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/jobportal/apiserver/internal/mq"
)

// ErrUnknownEvent is returned by Decode for a channel the bus does not know.
var ErrUnknownEvent = errors.New("unknown event")

// Source delivers forwarded events back from the broker. *mq.MQ satisfies it.
type Source interface {
	Subscribe(ctx context.Context, channel string, handler mq.Handler) error
}

// Decode rebuilds the typed event published on channel name.
func Decode(name Name, data []byte) (Event, error) {
	switch name {
	case UserRegistered:
		return decodeAs[UserRegisteredEvent](data)
	case JobApplied:
		return decodeAs[JobAppliedEvent](data)
	case ApplicationStatusChanged:
		return decodeAs[ApplicationStatusChangedEvent](data)
	case ChatNewMessage:
		return decodeAs[ChatNewMessageEvent](data)
	default:
		return nil, fmt.Errorf("%w %q", ErrUnknownEvent, name)
	}
}

func decodeAs[T Event](data []byte) (Event, error) {
	var event T
	if err := json.Unmarshal(data, &event); err != nil {
		return nil, err
	}
	return event, nil
}

// Tail consumes every forwarded channel under prefix and republishes the
// decoded events on bus. It returns nil once ctx is cancelled, or the first
// subscription error.
func Tail(ctx context.Context, src Source, prefix string, bus *Bus) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, name := range Names {
		name := name
		channel := prefix + string(name)
		g.Go(func() error {
			err := src.Subscribe(gctx, channel, func(ctx context.Context, msg mq.Message) error {
				event, err := Decode(name, msg.Data)
				if err != nil {
					return fmt.Errorf("%w: %s: %v", mq.ErrMalformed, channel, err)
				}
				bus.Publish(ctx, event)
				return nil
			})
			if err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("subscribe %s: %w", channel, err)
			}
			return nil
		})
	}
	return g.Wait()
}
