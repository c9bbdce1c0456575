package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/NTMQuannuaQMTN/sizzl-prototype-sub000/internal/persistence"
)

// NotificationRepository implements persistence.NotificationRepository using SQLite
type NotificationRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewNotificationRepository creates a new SQLite notification repository
func NewNotificationRepository(pool *ConnectionPool) *NotificationRepository {
	return &NotificationRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

func (r *NotificationRepository) CreateNotification(ctx context.Context, n persistence.Notification) error {
	if n.ID == "" || n.UserID == "" {
		return persistence.ErrConstraintViolation
	}
	_, err := r.helper.Exec(ctx, `
		INSERT INTO notifications (id, user_id, kind, event_id, actor_id, message, created_at, read_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		n.ID,
		n.UserID,
		n.Kind,
		nullString(n.EventID),
		nullString(n.ActorID),
		n.Message,
		formatTime(n.CreatedAt),
		nullTime(n.ReadAt),
	)
	return r.mapper.MapError(err)
}

// ListNotifications returns the newest notifications for userID first.
func (r *NotificationRepository) ListNotifications(ctx context.Context, userID string, unreadOnly bool, limit int) ([]persistence.Notification, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `
		SELECT id, user_id, kind, event_id, actor_id, message, created_at, read_at
		FROM notifications
		WHERE user_id = ?`
	if unreadOnly {
		query += ` AND read_at IS NULL`
	}
	query += ` ORDER BY created_at DESC, id DESC LIMIT ?`

	rows, err := r.helper.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var notifications []persistence.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, r.mapper.MapError(err)
		}
		notifications = append(notifications, n)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return notifications, nil
}

// MarkNotificationRead marks one notification owned by userID as read. Already
// read notifications keep their original read time.
func (r *NotificationRepository) MarkNotificationRead(ctx context.Context, userID, id string, readAt time.Time) error {
	result, err := r.helper.Exec(ctx,
		`UPDATE notifications SET read_at = COALESCE(read_at, ?) WHERE id = ? AND user_id = ?`,
		formatTime(readAt), id, userID,
	)
	if err != nil {
		return r.mapper.MapError(err)
	}
	return requireAffected(result)
}

// MarkAllNotificationsRead marks every unread notification of userID and
// returns how many changed.
func (r *NotificationRepository) MarkAllNotificationsRead(ctx context.Context, userID string, readAt time.Time) (int64, error) {
	result, err := r.helper.Exec(ctx,
		`UPDATE notifications SET read_at = ? WHERE user_id = ? AND read_at IS NULL`,
		formatTime(readAt), userID,
	)
	if err != nil {
		return 0, r.mapper.MapError(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return affected, nil
}

func scanNotification(row rowScanner) (persistence.Notification, error) {
	var (
		n                persistence.Notification
		eventID, actorID sql.NullString
		createdAt        string
		readAt           sql.NullString
	)
	if err := row.Scan(&n.ID, &n.UserID, &n.Kind, &eventID, &actorID, &n.Message, &createdAt, &readAt); err != nil {
		return persistence.Notification{}, err
	}
	n.EventID = stringPtr(eventID)
	n.ActorID = stringPtr(actorID)

	var err error
	if n.CreatedAt, err = parseTime(createdAt); err != nil {
		return persistence.Notification{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if n.ReadAt, err = parseNullTime(readAt); err != nil {
		return persistence.Notification{}, fmt.Errorf("failed to parse read_at: %w", err)
	}
	return n, nil
}
