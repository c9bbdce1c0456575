package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/NTMQuannuaQMTN/sizzl-prototype-sub000/internal/persistence"
)

// NotificationService exposes a user's in-app notifications.
type NotificationService struct {
	notifications persistence.NotificationRepository
	now           func() time.Time
	logger        *slog.Logger
}

// NewNotificationService wires dependencies for notification operations.
func NewNotificationService(notifications persistence.NotificationRepository, now func() time.Time) *NotificationService {
	return NewNotificationServiceWithLogger(notifications, now, nil)
}

// NewNotificationServiceWithLogger wires dependencies with a specific logger.
func NewNotificationServiceWithLogger(notifications persistence.NotificationRepository, now func() time.Time, logger *slog.Logger) *NotificationService {
	if now == nil {
		now = time.Now
	}
	return &NotificationService{notifications: notifications, now: now, logger: defaultLogger(logger)}
}

func (s *NotificationService) ready(principal Principal) error {
	if s == nil {
		return fmt.Errorf("NotificationService is nil")
	}
	if s.notifications == nil {
		return fmt.Errorf("notification repository not configured")
	}
	if principal.UserID == "" {
		return ErrUnauthorized
	}
	return nil
}

// List returns the principal's notifications, newest first.
func (s *NotificationService) List(ctx context.Context, principal Principal, unreadOnly bool, limit int) ([]Notification, error) {
	if err := s.ready(principal); err != nil {
		return nil, err
	}
	records, err := s.notifications.ListNotifications(ctx, principal.UserID, unreadOnly, limit)
	if err != nil {
		return nil, mapRepoError(err)
	}
	out := make([]Notification, 0, len(records))
	for _, record := range records {
		out = append(out, notificationFromRecord(record))
	}
	return out, nil
}

// MarkRead marks one of the principal's notifications as read.
func (s *NotificationService) MarkRead(ctx context.Context, principal Principal, id string) error {
	if err := s.ready(principal); err != nil {
		return err
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return ErrNotFound
	}
	return mapRepoError(s.notifications.MarkNotificationRead(ctx, principal.UserID, id, s.now()))
}

// MarkAllRead marks every unread notification of the principal as read.
func (s *NotificationService) MarkAllRead(ctx context.Context, principal Principal) (updated int64, err error) {
	if err = s.ready(principal); err != nil {
		return
	}
	logger := serviceLogger(ctx, s.logger, "NotificationService", "MarkAllRead", "principal_id", principal.UserID)
	defer func() {
		logOutcome(ctx, logger, err, "mark all read", "updated", updated)
	}()

	updated, err = s.notifications.MarkAllNotificationsRead(ctx, principal.UserID, s.now())
	err = mapRepoError(err)
	return
}
