package database

import (
	"context"
	"fmt"

	"chatgate/internal/models"
)

// SaveOfflineNotification queues a notification for delivery on the
// receiver's next connect.
func (d *Database) SaveOfflineNotification(ctx context.Context, n *models.OfflineNotification) error {
	encryptedContent, err := d.encryptor.Encrypt(n.Message.Content)
	if err != nil {
		return fmt.Errorf("failed to encrypt notification content: %w", err)
	}

	query := `
		INSERT INTO offline_notifications (
			receiver_id, sender_id, content, kind, created_at, delivered
		) VALUES (?, ?, ?, ?, ?, 0)
	`

	result, err := d.db.ExecContext(ctx, query,
		n.ReceiverID,
		n.Message.SenderID,
		encryptedContent,
		string(n.Message.Kind),
		n.Message.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to save offline notification: %w", err)
	}

	if id, err := result.LastInsertId(); err == nil {
		n.ID = id
	}
	return nil
}

// PendingForUser returns the undelivered notifications for one user in
// creation order. Records stay pending until MarkDelivered confirms the push.
func (d *Database) PendingForUser(ctx context.Context, userID string) ([]*models.OfflineNotification, error) {
	query := `
		SELECT id, receiver_id, sender_id, content, kind, created_at
		FROM offline_notifications
		WHERE receiver_id = ? AND delivered = 0
		ORDER BY created_at, id
	`

	rows, err := d.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query pending notifications: %w", err)
	}
	defer rows.Close()

	var pending []*models.OfflineNotification
	for rows.Next() {
		var (
			n                models.OfflineNotification
			encryptedContent string
			kind             string
		)
		if err := rows.Scan(
			&n.ID,
			&n.ReceiverID,
			&n.Message.SenderID,
			&encryptedContent,
			&kind,
			&n.Message.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}

		n.Message.Kind = models.NotificationKind(kind)
		n.Message.Content, err = d.encryptor.Decrypt(encryptedContent)
		if err != nil {
			return nil, fmt.Errorf("failed to decrypt notification content: %w", err)
		}

		pending = append(pending, &n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate notifications: %w", err)
	}

	return pending, nil
}

// MarkDelivered flips a pending notification to delivered. A record already
// delivered is an error; each record is satisfied at most once per drain.
func (d *Database) MarkDelivered(ctx context.Context, id int64) error {
	query := `
		UPDATE offline_notifications
		SET delivered = 1
		WHERE id = ? AND delivered = 0
	`

	result, err := d.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to mark notification delivered: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("no pending notification with ID: %d", id)
	}

	return nil
}
