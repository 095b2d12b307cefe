package services

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/jobportal/apiserver/internal/apperr"
	"github.com/jobportal/apiserver/internal/authz"
	"github.com/jobportal/apiserver/internal/events"
	"github.com/jobportal/apiserver/internal/store"
	"github.com/jobportal/apiserver/types"
)

const (
	// HistoryLimit caps how many messages a history request returns.
	HistoryLimit = 100
	// MaxMessageLength is the longest accepted chat message, in runes.
	MaxMessageLength = 5000
)

// ChatRepository defines persistence operations for chat messages.
type ChatRepository interface {
	Create(ctx context.Context, msg types.ChatMessage) (types.ChatMessage, error)
	History(ctx context.Context, a, b, limit int) ([]types.ChatMessage, error)
	Conversations(ctx context.Context, userID int) ([]types.Conversation, error)
}

// ChatService is the single write path for chat messages. Both the REST
// endpoint and the websocket session persist through SendMessage.
type ChatService struct {
	repo   ChatRepository
	users  UserRepository
	events events.Publisher
}

func NewChatService(repo ChatRepository, users UserRepository, publisher events.Publisher) *ChatService {
	return &ChatService{repo: repo, users: users, events: publisher}
}

// SendMessage validates and persists one message from senderID to receiverID
// and publishes chat:newMessage. The returned message carries the
// server-assigned id and timestamp.
func (s *ChatService) SendMessage(ctx context.Context, senderID, receiverID int, text string) (types.ChatMessage, error) {
	if receiverID < 1 || strings.TrimSpace(text) == "" {
		return types.ChatMessage{}, apperr.Validation("Receiver ID and message are required.")
	}
	if utf8.RuneCountInString(text) > MaxMessageLength {
		return types.ChatMessage{}, apperr.Validation("Message is too long.")
	}

	if _, err := s.users.GetByID(ctx, receiverID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.ChatMessage{}, apperr.NotFound("Receiver not found.")
		}
		return types.ChatMessage{}, err
	}

	msg, err := s.repo.Create(ctx, types.ChatMessage{
		SenderID:   senderID,
		ReceiverID: receiverID,
		Message:    text,
	})
	if err != nil {
		return types.ChatMessage{}, err
	}

	s.events.Publish(ctx, events.ChatNewMessageEvent{
		MessageID:  msg.ID,
		SenderID:   msg.SenderID,
		ReceiverID: msg.ReceiverID,
		Message:    msg.Message,
	})
	return msg, nil
}

// History returns the most recent messages between currentID and otherID in
// ascending order, with the counterpart's public profile.
func (s *ChatService) History(ctx context.Context, currentID, otherID int) (types.ChatHistory, error) {
	other, err := s.users.GetByID(ctx, otherID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.ChatHistory{}, apperr.NotFound("User not found.")
		}
		return types.ChatHistory{}, err
	}

	messages, err := s.repo.History(ctx, currentID, otherID, HistoryLimit)
	if err != nil {
		return types.ChatHistory{}, err
	}
	if messages == nil {
		messages = []types.ChatMessage{}
	}
	return types.ChatHistory{OtherUser: other.Public(), Messages: messages}, nil
}

// Conversations lists one summary per counterpart, most recent first.
func (s *ChatService) Conversations(ctx context.Context, userID int) ([]types.Conversation, error) {
	conversations, err := s.repo.Conversations(ctx, userID)
	if err != nil {
		return nil, err
	}
	if conversations == nil {
		conversations = []types.Conversation{}
	}
	return conversations, nil
}

// AvailableContacts lists the accounts user may start a chat with.
func (s *ChatService) AvailableContacts(ctx context.Context, user types.User) ([]types.PublicUser, error) {
	roles, all := authz.ContactRoles(user.Role)
	if !all && len(roles) == 0 {
		return []types.PublicUser{}, nil
	}
	contacts, err := s.users.ListContacts(ctx, user.ID, roles)
	if err != nil {
		return nil, err
	}
	if contacts == nil {
		contacts = []types.PublicUser{}
	}
	return contacts, nil
}
