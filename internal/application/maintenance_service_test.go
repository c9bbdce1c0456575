package application

import (
	"context"
	"testing"
	"time"

	"github.com/NTMQuannuaQMTN/sizzl-prototype-sub000/internal/persistence"
	"github.com/NTMQuannuaQMTN/sizzl-prototype-sub000/internal/schedule"
)

func TestMaintenanceService_SendRSVPReminders(t *testing.T) {
	t.Parallel()

	h := newServiceHarness(t)
	ctx := context.Background()
	host := h.seedUser(t, "host", "Hana")
	amy := h.seedUser(t, "amy", "Amy")
	ben := h.seedUser(t, "ben", "Ben")

	soon := EventInput{
		Title:        "Trivia",
		Public:       true,
		Schedule:     schedule.EventSchedule{StartDate: day(2025, time.July, 21), StartTime: "6:00pm"},
		RSVPDeadline: timePtr(time.Date(2025, 7, 21, 8, 0, 0, 0, time.UTC)),
	}
	due := h.createEvent(t, host, soon, true)

	later := eventInput("Regatta", "11:00am", "")
	later.RSVPDeadline = timePtr(time.Date(2025, 7, 24, 11, 0, 0, 0, time.UTC))
	notDue := h.createEvent(t, host, later, true)

	for _, event := range []Event{due, notDue} {
		if _, err := h.invitations.Invite(ctx, host, event.ID, []string{amy.UserID, ben.UserID}); err != nil {
			t.Fatalf("Invite failed: %v", err)
		}
	}
	if _, err := h.rsvps.Respond(ctx, ben, due.ID, RSVPMaybe); err != nil {
		t.Fatalf("Respond failed: %v", err)
	}

	result, err := h.maintenance.SendRSVPReminders(ctx)
	if err != nil {
		t.Fatalf("SendRSVPReminders failed: %v", err)
	}
	if result.Events != 1 || result.Reminders != 1 {
		t.Fatalf("expected one reminder for one event, got %+v", result)
	}
	if len(h.mailer.reminders) != 1 {
		t.Fatalf("expected one reminder mail, got %d", len(h.mailer.reminders))
	}
	mail := h.mailer.reminders[0]
	if mail.Email != "amy@mit.edu" || mail.EventID != due.ID || !mail.Deadline.Equal(*due.RSVPDeadline) {
		t.Fatalf("unexpected reminder mail %+v", mail)
	}

	notes, _ := h.notifications.List(ctx, amy, false, 0)
	reminders := 0
	for _, n := range notes {
		if n.Kind == persistence.NotificationRSVPReminder && n.EventID == due.ID {
			reminders++
		}
	}
	if reminders != 1 {
		t.Fatalf("expected one reminder notification, got %+v", notes)
	}

	again, err := h.maintenance.SendRSVPReminders(ctx)
	if err != nil {
		t.Fatalf("second SendRSVPReminders failed: %v", err)
	}
	if again.Events != 0 || len(h.mailer.reminders) != 1 {
		t.Fatalf("expected each event to be reminded once, got %+v", again)
	}

	h.clock.Advance(3*24*time.Hour + 2*time.Hour)
	later3, err := h.maintenance.SendRSVPReminders(ctx)
	if err != nil {
		t.Fatalf("third SendRSVPReminders failed: %v", err)
	}
	if later3.Events != 1 || later3.Reminders != 2 {
		t.Fatalf("expected the regatta reminder for both invitees, got %+v", later3)
	}
}

func TestMaintenanceService_PurgeExpiredSessions(t *testing.T) {
	t.Parallel()

	h := newServiceHarness(t)
	ctx := context.Background()
	user := h.seedUser(t, "user", "Uma")

	sessions := []persistence.Session{
		{ID: "s-old", UserID: user.UserID, Token: "tok-old", ExpiresAt: serviceBaseTime.Add(-time.Hour)},
		{ID: "s-new", UserID: user.UserID, Token: "tok-new", ExpiresAt: serviceBaseTime.Add(time.Hour)},
	}
	for _, s := range sessions {
		s.CreatedAt, s.UpdatedAt = serviceBaseTime.Add(-2*time.Hour), serviceBaseTime.Add(-2*time.Hour)
		if _, err := h.store.Sessions.CreateSession(ctx, s); err != nil {
			t.Fatalf("CreateSession(%s) failed: %v", s.ID, err)
		}
	}

	deleted, err := h.maintenance.PurgeExpiredSessions(ctx)
	if err != nil {
		t.Fatalf("PurgeExpiredSessions failed: %v", err)
	}
	if deleted != 1 {
		t.Fatalf("expected 1 expired session deleted, got %d", deleted)
	}
	if _, err := h.store.Sessions.GetSession(ctx, "tok-new"); err != nil {
		t.Fatalf("expected live session to remain, got %v", err)
	}
}
