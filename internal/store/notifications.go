package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/erazemk/najdeno/internal/db"
	"github.com/erazemk/najdeno/internal/model"
)

const notificationColumns = `id, user_id, title, message, type, read, related_item_id, related_claim_id, created_at`

func scanNotification(row interface{ Scan(...any) error }) (*model.Notification, error) {
	n := &model.Notification{}
	err := row.Scan(&n.ID, &n.UserID, &n.Title, &n.Message, &n.Type, &n.Read,
		&n.RelatedItemID, &n.RelatedClaimID, &n.CreatedAt)
	if err != nil {
		return nil, err
	}
	return n, nil
}

// CreateNotification inserts an unread notification, filling in ID and
// creation time.
func CreateNotification(ctx context.Context, q db.DBTX, n *model.Notification, now time.Time) error {
	if n.Type == "" {
		n.Type = model.NotificationInfo
	}
	result, err := q.ExecContext(ctx,
		`INSERT INTO notifications (user_id, title, message, type, read, related_item_id, related_claim_id, created_at)
		 VALUES (?, ?, ?, ?, 0, ?, ?, ?)`,
		n.UserID, n.Title, n.Message, n.Type, n.RelatedItemID, n.RelatedClaimID, now,
	)
	if err != nil {
		return fmt.Errorf("creating notification: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("getting notification id: %w", err)
	}
	n.ID = id
	n.Read = false
	n.CreatedAt = now
	return nil
}

// GetNotification returns a notification by ID.
func GetNotification(ctx context.Context, q db.DBTX, id int64) (*model.Notification, error) {
	n, err := scanNotification(q.QueryRowContext(ctx,
		`SELECT `+notificationColumns+` FROM notifications WHERE id = ?`, id,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting notification: %w", err)
	}
	return n, nil
}

// ListNotifications returns a user's notifications, newest first.
func ListNotifications(ctx context.Context, q db.DBTX, userID string, unreadOnly bool) ([]model.Notification, error) {
	query := `SELECT ` + notificationColumns + ` FROM notifications WHERE user_id = ?`
	if unreadOnly {
		query += ` AND read = 0`
	}
	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := q.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("listing notifications: %w", err)
	}
	defer rows.Close()

	list := []model.Notification{}
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning notification: %w", err)
		}
		list = append(list, *n)
	}
	return list, rows.Err()
}

// MarkNotificationRead flags a single notification as read.
func MarkNotificationRead(ctx context.Context, q db.DBTX, id int64) error {
	if _, err := q.ExecContext(ctx,
		`UPDATE notifications SET read = 1 WHERE id = ?`, id,
	); err != nil {
		return fmt.Errorf("marking notification read: %w", err)
	}
	return nil
}

// MarkAllNotificationsRead flags every unread notification of a user as read
// and returns how many changed.
func MarkAllNotificationsRead(ctx context.Context, q db.DBTX, userID string) (int64, error) {
	result, err := q.ExecContext(ctx,
		`UPDATE notifications SET read = 1 WHERE user_id = ? AND read = 0`, userID,
	)
	if err != nil {
		return 0, fmt.Errorf("marking notifications read: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("marking notifications read: %w", err)
	}
	return n, nil
}
