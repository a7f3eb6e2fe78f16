package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"chatgate/internal/models"
)

// SaveMessage appends a chat message. Appending happens on every handled
// send regardless of delivery outcome; the invariant check runs again here
// so a hand-built message cannot bypass it.
func (d *Database) SaveMessage(ctx context.Context, msg *models.ChatMessage) error {
	if err := msg.Validate(); err != nil {
		return err
	}

	encryptedContent, err := d.encryptor.Encrypt(msg.Content)
	if err != nil {
		return fmt.Errorf("failed to encrypt message content: %w", err)
	}

	query := `
		INSERT INTO chat_messages (
			message_id, sender_id, receiver_id, chatroom_id,
			content, kind, is_read, sent_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = d.db.ExecContext(ctx, query,
		msg.ID,
		msg.SenderID,
		nullable(msg.ReceiverID),
		nullable(msg.ChatroomID),
		encryptedContent,
		string(msg.Kind),
		msg.IsRead,
		msg.SentAt.UTC(),
		msg.UpdatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to save message: %w", err)
	}

	return nil
}

// FindUnreadForUser returns the unread private messages addressed to a user,
// oldest first.
func (d *Database) FindUnreadForUser(ctx context.Context, userID string) ([]*models.ChatMessage, error) {
	query := `
		SELECT message_id, sender_id, receiver_id, chatroom_id,
			   content, kind, is_read, sent_at, updated_at
		FROM chat_messages
		WHERE receiver_id = ? AND is_read = 0
		ORDER BY sent_at, id
	`
	return d.queryMessages(ctx, query, userID)
}

// FindForRoom returns all messages for a chat room, oldest first.
func (d *Database) FindForRoom(ctx context.Context, chatroomID string) ([]*models.ChatMessage, error) {
	query := `
		SELECT message_id, sender_id, receiver_id, chatroom_id,
			   content, kind, is_read, sent_at, updated_at
		FROM chat_messages
		WHERE chatroom_id = ?
		ORDER BY sent_at, id
	`
	return d.queryMessages(ctx, query, chatroomID)
}

// MarkReadForUser marks every private message addressed to the user as read.
func (d *Database) MarkReadForUser(ctx context.Context, userID string) error {
	query := `
		UPDATE chat_messages
		SET is_read = 1, updated_at = ?
		WHERE receiver_id = ? AND is_read = 0
	`
	if _, err := d.db.ExecContext(ctx, query, time.Now().UTC(), userID); err != nil {
		return fmt.Errorf("failed to mark messages read for user: %w", err)
	}
	return nil
}

// MarkReadForRoom marks every message in the room as read.
func (d *Database) MarkReadForRoom(ctx context.Context, chatroomID string) error {
	query := `
		UPDATE chat_messages
		SET is_read = 1, updated_at = ?
		WHERE chatroom_id = ? AND is_read = 0
	`
	if _, err := d.db.ExecContext(ctx, query, time.Now().UTC(), chatroomID); err != nil {
		return fmt.Errorf("failed to mark messages read for room: %w", err)
	}
	return nil
}

// MarkRead marks a single message as read.
func (d *Database) MarkRead(ctx context.Context, messageID string) error {
	query := `
		UPDATE chat_messages
		SET is_read = 1, updated_at = ?
		WHERE message_id = ?
	`
	result, err := d.db.ExecContext(ctx, query, time.Now().UTC(), messageID)
	if err != nil {
		return fmt.Errorf("failed to mark message read: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("no message found with ID: %s", messageID)
	}
	return nil
}

func (d *Database) queryMessages(ctx context.Context, query string, args ...interface{}) ([]*models.ChatMessage, error) {
	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	var messages []*models.ChatMessage
	for rows.Next() {
		var (
			msg                models.ChatMessage
			receiverID, roomID sql.NullString
			encryptedContent   string
			kind               string
		)
		if err := rows.Scan(
			&msg.ID,
			&msg.SenderID,
			&receiverID,
			&roomID,
			&encryptedContent,
			&kind,
			&msg.IsRead,
			&msg.SentAt,
			&msg.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}

		msg.ReceiverID = receiverID.String
		msg.ChatroomID = roomID.String
		msg.Kind = models.MessageKind(kind)

		msg.Content, err = d.encryptor.Decrypt(encryptedContent)
		if err != nil {
			return nil, fmt.Errorf("failed to decrypt message content: %w", err)
		}

		messages = append(messages, &msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate messages: %w", err)
	}

	return messages, nil
}

func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
