package application

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/NTMQuannuaQMTN/sizzl-prototype-sub000/internal/persistence"
	"github.com/NTMQuannuaQMTN/sizzl-prototype-sub000/internal/persistence/sqlite"
	"github.com/NTMQuannuaQMTN/sizzl-prototype-sub000/internal/persistence/sqlite/migration"
	"github.com/NTMQuannuaQMTN/sizzl-prototype-sub000/internal/schedule"
)

// serviceBaseTime is a Sunday morning; events in these tests start the following Friday.
var serviceBaseTime = time.Date(2025, 7, 20, 9, 0, 0, 0, time.UTC)

// serviceHarness wires the event-facing services over a migrated SQLite file.
type serviceHarness struct {
	store         *sqlite.Store
	clock         *testClock
	mailer        *mailerStub
	events        *EventService
	rsvps         *RSVPService
	invitations   *InvitationService
	notifications *NotificationService
	maintenance   *MaintenanceService
}

func newServiceHarness(t *testing.T) *serviceHarness {
	t.Helper()

	store, err := sqlite.OpenWithConfig(migration.TempFileTestSQLiteConfig(filepath.Join(t.TempDir(), "app.db")))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	if err := store.Migrate(context.Background(), nil); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	clock := newTestClock(serviceBaseTime)
	ids := sequenceIDs("id")
	mailer := &mailerStub{}

	events := NewEventService(store.Events, store.Users, store.Invitations, store.Notifications, ids, clock.Now, "https://sizzl.test/")
	h := &serviceHarness{
		store:         store,
		clock:         clock,
		mailer:        mailer,
		events:        events,
		rsvps:         NewRSVPService(events, store.RSVPs, store.Invitations, clock.Now),
		invitations:   NewInvitationService(events, store.Users, store.Invitations, store.RSVPs, store.Notifications, mailer, ids, clock.Now),
		notifications: NewNotificationService(store.Notifications, clock.Now),
		maintenance:   NewMaintenanceService(store.Sessions, store.Events, store.Invitations, store.Notifications, mailer, 24*time.Hour, ids, clock.Now, nil),
	}
	return h
}

// seedUser creates an onboarded user and returns its principal.
func (h *serviceHarness) seedUser(t *testing.T, id, firstName string) Principal {
	t.Helper()

	username := id
	err := h.store.Users.CreateUser(context.Background(), persistence.User{
		ID:        id,
		Email:     id + "@mit.edu",
		Username:  &username,
		FirstName: firstName,
		LastName:  "Tester",
		CreatedAt: serviceBaseTime,
		UpdatedAt: serviceBaseTime,
	})
	if err != nil {
		t.Fatalf("seed user %s: %v", id, err)
	}
	return Principal{UserID: id, Email: id + "@mit.edu"}
}

func (h *serviceHarness) createEvent(t *testing.T, host Principal, input EventInput, publish bool) Event {
	t.Helper()

	result, err := h.events.CreateEvent(context.Background(), host, input, publish)
	if err != nil {
		t.Fatalf("CreateEvent(%q) failed: %v", input.Title, err)
	}
	return result.Event
}

func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 0, 0, 0, 0, time.UTC)
}

// eventInput returns a public event on Friday 2025-07-25 from start to end.
func eventInput(title string, start, end schedule.TimeSlot) EventInput {
	return EventInput{
		Title:  title,
		Public: true,
		Schedule: schedule.EventSchedule{
			StartDate: day(2025, time.July, 25),
			StartTime: start,
			EndDate:   day(2025, time.July, 25),
			EndTime:   end,
			EndIsSet:  end != "",
		},
		Location: schedule.Location{Name: "Quad", Address: "77 Mass Ave"},
	}
}

func timePtr(t time.Time) *time.Time { return &t }
