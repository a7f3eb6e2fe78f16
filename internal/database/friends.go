package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"chatgate/internal/models"
)

// SaveFriendRequest persists a new pending friend request.
func (d *Database) SaveFriendRequest(ctx context.Context, req *models.FriendRequest) error {
	query := `
		INSERT INTO friend_requests (
			sender_id, receiver_id, description, status, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?)
	`

	result, err := d.db.ExecContext(ctx, query,
		req.SenderID,
		req.ReceiverID,
		req.Description,
		string(req.Status),
		req.CreatedAt.UTC(),
		req.UpdatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to save friend request: %w", err)
	}

	if id, err := result.LastInsertId(); err == nil {
		req.ID = id
	}
	return nil
}

// GetFriendRequest retrieves a friend request by ID. Returns nil when not found.
func (d *Database) GetFriendRequest(ctx context.Context, id int64) (*models.FriendRequest, error) {
	query := `
		SELECT id, sender_id, receiver_id, description, status, created_at, updated_at
		FROM friend_requests
		WHERE id = ?
	`

	var (
		req    models.FriendRequest
		status string
	)
	err := d.db.QueryRowContext(ctx, query, id).Scan(
		&req.ID,
		&req.SenderID,
		&req.ReceiverID,
		&req.Description,
		&status,
		&req.CreatedAt,
		&req.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get friend request: %w", err)
	}

	req.Status = models.FriendRequestStatus(status)
	return &req, nil
}

// UpdateFriendRequestStatus transitions a friend request to a new status.
func (d *Database) UpdateFriendRequestStatus(ctx context.Context, id int64, status models.FriendRequestStatus) error {
	query := `
		UPDATE friend_requests
		SET status = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := d.db.ExecContext(ctx, query, string(status), time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to update friend request status: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("no friend request found with ID: %d", id)
	}

	return nil
}
