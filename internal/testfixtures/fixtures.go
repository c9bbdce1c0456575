package testfixtures

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/NTMQuannuaQMTN/sizzl-prototype-sub000/internal/application"
	"github.com/NTMQuannuaQMTN/sizzl-prototype-sub000/internal/persistence"
	"github.com/NTMQuannuaQMTN/sizzl-prototype-sub000/internal/schedule"
)

var userCounter uint64

// ----------------------------- User fixtures -----------------------------

// UserFixture is an onboarded student account.
type UserFixture struct {
	ID        string
	Email     string
	Username  string
	FirstName string
	LastName  string
	CreatedAt time.Time
}

// UserOption configures the generated user fixture.
type UserOption func(*UserFixture)

// NewUserFixture returns a user with a unique id and school address.
func NewUserFixture(opts ...UserOption) UserFixture {
	idx := atomic.AddUint64(&userCounter, 1)
	id := fmt.Sprintf("user-%03d", idx)
	fixture := UserFixture{
		ID:        id,
		Email:     id + "@mit.edu",
		Username:  fmt.Sprintf("student%03d", idx),
		FirstName: "Student",
		LastName:  fmt.Sprintf("%03d", idx),
		CreatedAt: ReferenceTime(),
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

func WithUserID(id string) UserOption {
	return func(f *UserFixture) {
		f.ID = id
		f.Email = id + "@mit.edu"
	}
}

func WithUserName(first, last string) UserOption {
	return func(f *UserFixture) {
		f.FirstName = first
		f.LastName = last
	}
}

func WithUsername(username string) UserOption {
	return func(f *UserFixture) {
		f.Username = username
	}
}

// Persistence returns the fixture as a stored row.
func (f UserFixture) Persistence() persistence.User {
	user := persistence.User{
		ID:        f.ID,
		Email:     f.Email,
		FirstName: f.FirstName,
		LastName:  f.LastName,
		CreatedAt: f.CreatedAt,
		UpdatedAt: f.CreatedAt,
	}
	if f.Username != "" {
		username := f.Username
		user.Username = &username
	}
	return user
}

func (f UserFixture) Principal() application.Principal {
	return application.Principal{UserID: f.ID, Email: f.Email}
}

// SeedUser stores the fixture and returns its principal.
func SeedUser(tb testing.TB, users persistence.UserRepository, f UserFixture) application.Principal {
	tb.Helper()
	if err := users.CreateUser(context.Background(), f.Persistence()); err != nil {
		tb.Fatalf("seed user %s: %v", f.ID, err)
	}
	return f.Principal()
}

// ----------------------------- Event fixtures ----------------------------

// EventFixture describes an event in calendar terms: a day plus picker slots.
type EventFixture struct {
	Title        string
	Public       bool
	Day          time.Time
	Start        schedule.TimeSlot
	End          schedule.TimeSlot
	RSVPDeadline *time.Time
	Location     schedule.Location
	Perks        []schedule.Perk
}

// EventOption configures the generated event fixture.
type EventOption func(*EventFixture)

// NewEventFixture returns a public evening event on the Friday after ReferenceTime.
func NewEventFixture(opts ...EventOption) EventFixture {
	fixture := EventFixture{
		Title:    "Rooftop Social",
		Public:   true,
		Day:      time.Date(2025, time.July, 25, 0, 0, 0, 0, time.UTC),
		Start:    "6:00pm",
		End:      "9:00pm",
		Location: schedule.Location{Name: "Student Center", Address: "84 Mass Ave"},
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

func WithEventTitle(title string) EventOption {
	return func(f *EventFixture) {
		f.Title = title
	}
}

func WithEventPrivate() EventOption {
	return func(f *EventFixture) {
		f.Public = false
	}
}

// WithEventTimes sets the day and slots. An empty end leaves the event open-ended.
func WithEventTimes(day time.Time, start, end schedule.TimeSlot) EventOption {
	return func(f *EventFixture) {
		f.Day = day
		f.Start = start
		f.End = end
	}
}

func WithEventRSVPDeadline(deadline time.Time) EventOption {
	return func(f *EventFixture) {
		f.RSVPDeadline = &deadline
	}
}

func WithEventPerks(perks ...schedule.Perk) EventOption {
	return func(f *EventFixture) {
		f.Perks = perks
	}
}

// Input returns the fixture as a create or update request.
func (f EventFixture) Input() application.EventInput {
	return application.EventInput{
		Title:  f.Title,
		Public: f.Public,
		Schedule: schedule.EventSchedule{
			StartDate: f.Day,
			StartTime: f.Start,
			EndDate:   f.Day,
			EndTime:   f.End,
			EndIsSet:  f.End != "",
		},
		RSVPDeadline: f.RSVPDeadline,
		Location:     f.Location,
		Perks:        f.Perks,
	}
}
