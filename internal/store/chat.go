package store

import (
	"context"
	"database/sql"

	"github.com/jobportal/apiserver/types"
)

// ChatRepository handles persistence for chat messages.
type ChatRepository struct {
	db *sql.DB
}

func NewChatRepository(db *sql.DB) *ChatRepository {
	return &ChatRepository{db: db}
}

// Create inserts a message; the id and timestamp are assigned by the database.
func (r *ChatRepository) Create(ctx context.Context, msg types.ChatMessage) (types.ChatMessage, error) {
	const query = `
		INSERT INTO chat_messages (sender_id, receiver_id, message)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`
	if err := r.db.QueryRowContext(ctx, query, msg.SenderID, msg.ReceiverID, msg.Message).Scan(&msg.ID, &msg.CreatedAt); err != nil {
		return types.ChatMessage{}, translate(err)
	}
	return msg, nil
}

// History returns the newest limit messages exchanged between a and b, oldest first.
func (r *ChatRepository) History(ctx context.Context, a, b, limit int) ([]types.ChatMessage, error) {
	const query = `
		SELECT id, sender_id, receiver_id, message, created_at
		FROM (
			SELECT id, sender_id, receiver_id, message, created_at
			FROM chat_messages
			WHERE (sender_id = $1 AND receiver_id = $2)
			   OR (sender_id = $2 AND receiver_id = $1)
			ORDER BY created_at DESC, id DESC
			LIMIT $3
		) recent
		ORDER BY created_at ASC, id ASC`
	rows, err := r.db.QueryContext(ctx, query, a, b, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	messages := make([]types.ChatMessage, 0, limit)
	for rows.Next() {
		var msg types.ChatMessage
		if err := rows.Scan(&msg.ID, &msg.SenderID, &msg.ReceiverID, &msg.Message, &msg.CreatedAt); err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}

// Conversations returns one entry per counterpart of userID with that
// counterpart's profile and the latest message, most recent contact first.
func (r *ChatRepository) Conversations(ctx context.Context, userID int) ([]types.Conversation, error) {
	const query = `
		SELECT user_id, user_name, user_email, user_role, id, sender_id, receiver_id, message, created_at
		FROM (
			SELECT DISTINCT ON (m.counterpart_id)
				u.id AS user_id, u.name AS user_name, u.email AS user_email, u.role AS user_role,
				m.id, m.sender_id, m.receiver_id, m.message, m.created_at
			FROM (
				SELECT c.id, c.sender_id, c.receiver_id, c.message, c.created_at,
					CASE WHEN c.sender_id = $1 THEN c.receiver_id ELSE c.sender_id END AS counterpart_id
				FROM chat_messages c
				WHERE c.sender_id = $1 OR c.receiver_id = $1
			) m
			JOIN users u ON u.id = m.counterpart_id
			ORDER BY m.counterpart_id, m.created_at DESC, m.id DESC
		) latest
		ORDER BY created_at DESC, id DESC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	conversations := []types.Conversation{}
	for rows.Next() {
		var conv types.Conversation
		if err := rows.Scan(
			&conv.User.ID,
			&conv.User.Name,
			&conv.User.Email,
			&conv.User.Role,
			&conv.LastMessage.ID,
			&conv.LastMessage.SenderID,
			&conv.LastMessage.ReceiverID,
			&conv.LastMessage.Message,
			&conv.LastMessage.CreatedAt,
		); err != nil {
			return nil, err
		}
		conv.LastMessageAt = conv.LastMessage.CreatedAt
		conversations = append(conversations, conv)
	}
	return conversations, rows.Err()
}
