package types

import "time"

// ChatMessage is one immutable message between two users.
type ChatMessage struct {
	// ID is the server-assigned identifier of the message.
	ID int64 `json:"id" db:"id"`

	// SenderID identifies the author.
	SenderID int `json:"senderId" db:"sender_id"`

	// ReceiverID identifies the addressee.
	ReceiverID int `json:"receiverId" db:"receiver_id"`

	// Message is the message text.
	Message string `json:"message" db:"message"`

	// CreatedAt is the server-assigned creation timestamp.
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// ChatHistory is the ordered message log between the caller and another user.
type ChatHistory struct {
	OtherUser PublicUser    `json:"otherUser"`
	Messages  []ChatMessage `json:"messages"`
}

// Conversation summarizes the caller's exchange with one counterpart.
type Conversation struct {
	User          PublicUser  `json:"user"`
	LastMessage   ChatMessage `json:"lastMessage"`
	LastMessageAt time.Time   `json:"lastMessageAt"`
}
