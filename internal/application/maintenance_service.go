package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/NTMQuannuaQMTN/sizzl-prototype-sub000/internal/persistence"
	"github.com/NTMQuannuaQMTN/sizzl-prototype-sub000/internal/queue"
)

// MaintenanceService holds the periodic jobs run by the sweeper.
type MaintenanceService struct {
	sessions      persistence.SessionRepository
	events        persistence.EventRepository
	invitations   persistence.InvitationRepository
	notifications persistence.NotificationRepository
	mailer        Mailer
	reminderLead  time.Duration
	idGenerator   func() string
	now           func() time.Time
	logger        *slog.Logger
}

// NewMaintenanceService wires dependencies for maintenance jobs.
func NewMaintenanceService(sessions persistence.SessionRepository, events persistence.EventRepository, invitations persistence.InvitationRepository, notifications persistence.NotificationRepository, mailer Mailer, reminderLead time.Duration, idGenerator func() string, now func() time.Time, logger *slog.Logger) *MaintenanceService {
	if reminderLead <= 0 {
		reminderLead = 24 * time.Hour
	}
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &MaintenanceService{
		sessions:      sessions,
		events:        events,
		invitations:   invitations,
		notifications: notifications,
		mailer:        mailer,
		reminderLead:  reminderLead,
		idGenerator:   idGenerator,
		now:           now,
		logger:        defaultLogger(logger),
	}
}

func (s *MaintenanceService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "MaintenanceService", operation, attrs...)
}

// PurgeExpiredSessions deletes sessions past their expiry.
func (s *MaintenanceService) PurgeExpiredSessions(ctx context.Context) (deleted int64, err error) {
	if s == nil || s.sessions == nil {
		err = fmt.Errorf("session repository not configured")
		return
	}
	logger := s.loggerWith(ctx, "PurgeExpiredSessions")
	defer func() {
		logOutcome(ctx, logger, err, "session purge", "deleted", deleted)
	}()

	deleted, err = s.sessions.DeleteExpiredSessions(ctx, s.now())
	return
}

// SendRSVPReminders nudges invitees who have not answered events whose RSVP
// deadline falls within the reminder lead. Each event is reminded once.
func (s *MaintenanceService) SendRSVPReminders(ctx context.Context) (result ReminderResult, err error) {
	if s == nil || s.events == nil || s.invitations == nil {
		err = fmt.Errorf("reminder dependencies not configured")
		return
	}
	logger := s.loggerWith(ctx, "SendRSVPReminders")
	defer func() {
		logOutcome(ctx, logger, err, "rsvp reminders", "events", result.Events, "reminders", result.Reminders)
	}()

	now := s.now()
	var due []persistence.Event
	due, err = s.events.DueReminders(ctx, now, now.Add(s.reminderLead))
	if err != nil {
		return
	}

	for _, record := range due {
		var sent int
		sent, err = s.remindEvent(ctx, logger, eventFromRecord(record), now)
		if err != nil {
			return
		}
		if err = s.events.MarkReminderSent(ctx, record.ID, now); err != nil {
			return
		}
		result.Events++
		result.Reminders += sent
	}
	return
}

func (s *MaintenanceService) remindEvent(ctx context.Context, logger *slog.Logger, event Event, now time.Time) (int, error) {
	invitees, err := s.invitations.ListUnrespondedInvitees(ctx, event.ID)
	if err != nil {
		return 0, err
	}
	deadline := event.RSVPClosesAt()
	eventID := event.ID
	for _, invitee := range invitees {
		if s.notifications != nil {
			err := s.notifications.CreateNotification(ctx, persistence.Notification{
				ID:        s.idGenerator(),
				UserID:    invitee.ID,
				Kind:      persistence.NotificationRSVPReminder,
				EventID:   &eventID,
				Message:   fmt.Sprintf("RSVPs for %s close soon.", event.Title),
				CreatedAt: now,
			})
			if err != nil {
				logger.WarnContext(ctx, "reminder notification failed", "event_id", event.ID, "user_id", invitee.ID, "error", err)
			}
		}
		if s.mailer != nil {
			err := s.mailer.EnqueueRSVPReminder(ctx, queue.ReminderPayload{
				Email:      mailAddress(invitee),
				Name:       userFromRecord(invitee).DisplayName(),
				EventID:    event.ID,
				EventTitle: event.Title,
				EventStart: event.Start,
				Deadline:   deadline,
			})
			if err != nil {
				logger.WarnContext(ctx, "reminder mail enqueue failed", "event_id", event.ID, "user_id", invitee.ID, "error", err)
			}
		}
	}
	return len(invitees), nil
}
