package events

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jobportal/apiserver/internal/mq"
	"github.com/jobportal/apiserver/types"
)

func TestDecode(t *testing.T) {
	tests := []struct {
		name Name
		data string
		want Event
	}{
		{UserRegistered, `{"userId":1,"email":"a@b.c","name":"Ana","method":"local"}`,
			UserRegisteredEvent{UserID: 1, Email: "a@b.c", Name: "Ana", Method: "local"}},
		{JobApplied, `{"applicationId":3,"userId":1,"jobId":2,"recruiterId":9}`,
			JobAppliedEvent{ApplicationID: 3, UserID: 1, JobID: 2, RecruiterID: 9}},
		{ApplicationStatusChanged, `{"applicationId":3,"userId":1,"status":"accepted","jobTitle":"Go dev"}`,
			ApplicationStatusChangedEvent{ApplicationID: 3, UserID: 1, Status: types.ApplicationStatus("accepted"), JobTitle: "Go dev"}},
		{ChatNewMessage, `{"messageId":5,"senderId":1,"receiverId":2,"message":"hi"}`,
			ChatNewMessageEvent{MessageID: 5, SenderID: 1, ReceiverID: 2, Message: "hi"}},
	}
	for _, tt := range tests {
		t.Run(string(tt.name), func(t *testing.T) {
			got, err := Decode(tt.name, []byte(tt.data))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := Decode("job:deleted", []byte(`{}`))
	assert.ErrorIs(t, err, ErrUnknownEvent)

	_, err = Decode(JobApplied, []byte(`not json`))
	assert.Error(t, err)
}

// replaySource hands each subscriber the messages queued for its channel,
// then blocks until the context ends.
type replaySource struct {
	mu       sync.Mutex
	messages map[string][]string
	channels []string
	results  map[string][]error
	err      error
}

func (s *replaySource) Subscribe(ctx context.Context, channel string, handler mq.Handler) error {
	s.mu.Lock()
	s.channels = append(s.channels, channel)
	queued := s.messages[channel]
	s.mu.Unlock()

	if s.err != nil {
		return s.err
	}
	for _, data := range queued {
		err := handler(ctx, mq.Message{Data: []byte(data)})
		s.mu.Lock()
		s.results[channel] = append(s.results[channel], err)
		s.mu.Unlock()
	}
	<-ctx.Done()
	return ctx.Err()
}

func (s *replaySource) subscribed() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := append([]string(nil), s.channels...)
	sort.Strings(out)
	return out
}

func TestTailRepublishesForwardedEvents(t *testing.T) {
	src := &replaySource{
		messages: map[string][]string{
			"portal.job:applied":     {`{"applicationId":3,"userId":1,"jobId":2,"recruiterId":9}`},
			"portal.chat:newMessage": {`{"messageId":5`},
		},
		results: map[string][]error{},
	}

	bus := NewBus(discardLogger())
	got := make(chan Event, 4)
	bus.SubscribeAll(func(ctx context.Context, e Event) error {
		got <- e
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Tail(ctx, src, "portal.", bus) }()

	select {
	case e := <-got:
		assert.Equal(t, JobAppliedEvent{ApplicationID: 3, UserID: 1, JobID: 2, RecruiterID: 9}, e)
	case <-time.After(2 * time.Second):
		t.Fatal("forwarded event was not republished")
	}

	require.Eventually(t, func() bool { return len(src.subscribed()) == len(Names) }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, []string{
		"portal.application:statusChanged",
		"portal.chat:newMessage",
		"portal.job:applied",
		"portal.user:registered",
	}, src.subscribed())

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("tail did not stop after cancel")
	}

	src.mu.Lock()
	defer src.mu.Unlock()
	require.Len(t, src.results["portal.job:applied"], 1)
	assert.NoError(t, src.results["portal.job:applied"][0])
	require.Len(t, src.results["portal.chat:newMessage"], 1)
	assert.ErrorIs(t, src.results["portal.chat:newMessage"][0], mq.ErrMalformed)
	assert.Empty(t, got)
}

func TestTailReturnsSubscribeError(t *testing.T) {
	src := &replaySource{err: errors.New("channel closed"), results: map[string][]error{}}

	err := Tail(context.Background(), src, "portal.", NewBus(discardLogger()))
	assert.ErrorContains(t, err, "channel closed")
}
