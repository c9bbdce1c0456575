package persistence

import (
	"context"
	"time"
)

// UserRepository exposes operations for student accounts.
type UserRepository interface {
	CreateUser(ctx context.Context, user User) error
	UpdateUser(ctx context.Context, user User) error
	GetUser(ctx context.Context, id string) (User, error)
	GetUserByEmail(ctx context.Context, email string) (User, error)
	SearchUsers(ctx context.Context, query string, limit int) ([]User, error)
	MissingUserIDs(ctx context.Context, ids []string) ([]string, error)
}

// SessionRepository stores authentication session state.
type SessionRepository interface {
	CreateSession(ctx context.Context, session Session) (Session, error)
	GetSession(ctx context.Context, token string) (Session, error)
	UpdateSession(ctx context.Context, session Session) (Session, error)
	RevokeSession(ctx context.Context, token string, revokedAt time.Time) (Session, error)
	DeleteExpiredSessions(ctx context.Context, reference time.Time) (int64, error)
}

// EventRepository stores events together with their cohosts and perks.
type EventRepository interface {
	CreateEvent(ctx context.Context, event Event) error
	UpdateEvent(ctx context.Context, event Event) error
	GetEvent(ctx context.Context, id string) (Event, error)
	GetEventBySlug(ctx context.Context, slug string) (Event, error)
	DeleteEvent(ctx context.Context, id string) error
	ListEvents(ctx context.Context, filter EventFilter) ([]Event, error)
	DueReminders(ctx context.Context, after, until time.Time) ([]Event, error)
	MarkReminderSent(ctx context.Context, eventID string, sentAt time.Time) error
}

// RSVPRepository stores event responses.
type RSVPRepository interface {
	UpsertRSVP(ctx context.Context, rsvp RSVP) (RSVP, error)
	GetRSVP(ctx context.Context, eventID, userID string) (RSVP, error)
	DeleteRSVP(ctx context.Context, eventID, userID string) error
	ListGuests(ctx context.Context, eventID string) ([]Guest, error)
}

// InvitationRepository stores event invitations.
type InvitationRepository interface {
	CreateInvitation(ctx context.Context, invitation Invitation) error
	GetInvitationByCode(ctx context.Context, code string) (Invitation, error)
	GetInvitationForUser(ctx context.Context, eventID, userID string) (Invitation, error)
	UpdateInvitationStatus(ctx context.Context, id, status string, respondedAt time.Time) error
	ListInvitationsForUser(ctx context.Context, userID string) ([]Invitation, error)
	ListUnrespondedInvitees(ctx context.Context, eventID string) ([]User, error)
}

// NotificationRepository stores in-app notifications.
type NotificationRepository interface {
	CreateNotification(ctx context.Context, notification Notification) error
	ListNotifications(ctx context.Context, userID string, unreadOnly bool, limit int) ([]Notification, error)
	MarkNotificationRead(ctx context.Context, userID, id string, readAt time.Time) error
	MarkAllNotificationsRead(ctx context.Context, userID string, readAt time.Time) (int64, error)
}
