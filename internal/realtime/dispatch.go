package realtime

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"

	"github.com/jobportal/apiserver/internal/apperr"
	"github.com/jobportal/apiserver/types"
)

// MessageSender persists chat messages. *services.ChatService satisfies it.
type MessageSender interface {
	SendMessage(ctx context.Context, senderID, receiverID int, text string) (types.ChatMessage, error)
}

// Ids arrive as numbers or numeric strings depending on the client.
type sendMessagePayload struct {
	SenderID   types.LooseID `json:"senderId"`
	ReceiverID types.LooseID `json:"receiverId"`
	Message    string        `json:"message"`
}

type typingPayload struct {
	SenderID   types.LooseID `json:"senderId"`
	ReceiverID types.LooseID `json:"receiverId"`
}

type userTypingPayload struct {
	SenderID int  `json:"senderId"`
	IsTyping bool `json:"isTyping"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// Dispatcher handles inbound frames for any connection.
type Dispatcher struct {
	hub    *Hub
	chat   MessageSender
	logger *slog.Logger
}

func NewDispatcher(hub *Hub, chat MessageSender, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{hub: hub, chat: chat, logger: logger}
}

// Hub returns the registry the dispatcher delivers through.
func (d *Dispatcher) Hub() *Hub {
	return d.hub
}

// Handle processes one inbound frame from p. Failures are reported to p
// alone as an error event; they never end the connection.
func (d *Dispatcher) Handle(ctx context.Context, p Peer, frame Frame) {
	switch frame.Event {
	case EventJoin:
		d.join(p, frame.Data)
	case EventSendMessage:
		d.sendMessage(ctx, p, frame.Data)
	case EventTyping:
		d.typing(p, frame.Data, true)
	case EventStopTyping:
		d.typing(p, frame.Data, false)
	default:
		d.fail(p, "Unknown event.")
	}
}

// join re-confirms group membership. Connections are already in their own
// group, so only the caller's id is accepted.
func (d *Dispatcher) join(p Peer, data json.RawMessage) {
	userID, ok := parseUserID(data)
	if !ok || userID != p.UserID() {
		d.fail(p, "You can only join your own room.")
		return
	}
	d.hub.Join(p)
}

// sendMessage persists through the shared chat path, then emits the stored
// row to the sender's and receiver's groups. When both are the same user the
// row is emitted once, so no connection sees a message twice.
func (d *Dispatcher) sendMessage(ctx context.Context, p Peer, data json.RawMessage) {
	var payload sendMessagePayload
	if err := json.Unmarshal(data, &payload); err != nil {
		d.fail(p, "Invalid message payload.")
		return
	}
	if payload.SenderID != 0 && int(payload.SenderID) != p.UserID() {
		d.fail(p, "Sender does not match the authenticated user.")
		return
	}

	msg, err := d.chat.SendMessage(ctx, p.UserID(), int(payload.ReceiverID), payload.Message)
	if err != nil {
		if apperr.KindOf(err) == apperr.KindInternal {
			d.logger.Error("socket send message failed", "user_id", p.UserID(), "error", err)
			d.fail(p, "Failed to send message.")
			return
		}
		d.fail(p, apperr.MessageOf(err))
		return
	}

	frame, err := NewFrame(EventMessageReceived, msg)
	if err != nil {
		d.logger.Error("encode message frame", "message_id", msg.ID, "error", err)
		return
	}
	d.hub.Emit(msg.SenderID, frame)
	if msg.ReceiverID != msg.SenderID {
		d.hub.Emit(msg.ReceiverID, frame)
	}
}

func (d *Dispatcher) typing(p Peer, data json.RawMessage, isTyping bool) {
	var payload typingPayload
	if err := json.Unmarshal(data, &payload); err != nil || payload.ReceiverID < 1 {
		d.fail(p, "Receiver ID is required.")
		return
	}
	if payload.SenderID != 0 && int(payload.SenderID) != p.UserID() {
		d.fail(p, "Sender does not match the authenticated user.")
		return
	}

	frame, err := NewFrame(EventUserTyping, userTypingPayload{SenderID: p.UserID(), IsTyping: isTyping})
	if err != nil {
		return
	}
	d.hub.EmitExcept(int(payload.ReceiverID), p.ID(), frame)
}

func (d *Dispatcher) fail(p Peer, message string) {
	frame, err := NewFrame(EventError, errorPayload{Message: message})
	if err != nil {
		return
	}
	p.Send(frame)
}

// parseUserID accepts 7, "7" or {"userId": 7}.
func parseUserID(data json.RawMessage) (int, bool) {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '{' {
		var obj struct {
			UserID types.LooseID `json:"userId"`
		}
		if err := json.Unmarshal(data, &obj); err != nil {
			return 0, false
		}
		return int(obj.UserID), obj.UserID > 0
	}
	var id types.LooseID
	if err := json.Unmarshal(data, &id); err != nil {
		return 0, false
	}
	return int(id), id > 0
}
