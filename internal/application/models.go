package application

import (
	"io"
	"time"

	"github.com/NTMQuannuaQMTN/sizzl-prototype-sub000/internal/schedule"
)

// Principal represents the authenticated user invoking a service method.
type Principal struct {
	UserID       string
	Email        string
	NeedsProfile bool
	SessionToken string
}

// User is a student account as exposed by the application services.
type User struct {
	ID           string
	Email        string
	Username     string
	FirstName    string
	LastName     string
	ContactEmail string
	Bio          string
	AvatarURL    string
	NeedsProfile bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// DisplayName returns the full name, falling back to the username and then the email.
func (u User) DisplayName() string {
	switch {
	case u.FirstName != "" || u.LastName != "":
		if u.LastName == "" {
			return u.FirstName
		}
		if u.FirstName == "" {
			return u.LastName
		}
		return u.FirstName + " " + u.LastName
	case u.Username != "":
		return "@" + u.Username
	default:
		return u.Email
	}
}

// ProfileInput captures the editable profile fields.
type ProfileInput struct {
	Username     string
	FirstName    string
	LastName     string
	ContactEmail string
	Bio          string
	AvatarURL    string
}

// AuthResult is returned after a successful login or session refresh.
type AuthResult struct {
	Token     string
	ExpiresAt time.Time
	User      User
}

// Event status values.
const (
	EventStatusDraft     = "draft"
	EventStatusPublished = "published"
)

// Event is a stored event with absolute timestamps.
type Event struct {
	ID           string
	HostID       string
	Slug         string
	Title        string
	Bio          string
	ImageURL     string
	Public       bool
	Status       string
	Start        time.Time
	End          *time.Time
	RSVPDeadline *time.Time
	Location     schedule.Location
	Cohosts      []schedule.Cohost
	Perks        []schedule.Perk
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Published reports whether the event is visible beyond its hosts.
func (e Event) Published() bool { return e.Status == EventStatusPublished }

// RSVPClosesAt is the moment responses stop being accepted: the RSVP deadline, or the start when none is set.
func (e Event) RSVPClosesAt() time.Time {
	if e.RSVPDeadline != nil {
		return *e.RSVPDeadline
	}
	return e.Start
}

// Span returns the event's schedule span.
func (e Event) Span() schedule.Span {
	span := schedule.Span{Start: e.Start}
	if e.End != nil {
		span.End = *e.End
		span.HasEnd = true
	}
	return span
}

// EventInput is the authored content of an event. The schedule is the
// date/time picker selection; dates carry the event's time zone.
type EventInput struct {
	Title        string
	Public       bool
	ImageURL     string
	Schedule     schedule.EventSchedule
	RSVPDeadline *time.Time
	Cohosts      []schedule.Cohost
	Location     schedule.Location
	Bio          string
	Perks        []schedule.Perk
}

// ConflictWarning describes another event of the host that overlaps the saved one.
type ConflictWarning struct {
	EventID string
	Title   string
	Role    string
	Start   time.Time
	End     time.Time
}

// EventResult is returned by event mutations.
type EventResult struct {
	Event    Event
	Warnings []ConflictWarning
}

// ListPeriod selects upcoming or past events.
type ListPeriod string

const (
	ListPeriodAll      ListPeriod = ""
	ListPeriodUpcoming ListPeriod = "upcoming"
	ListPeriodPast     ListPeriod = "past"
)

// ListEventsParams wraps the data required to list events.
type ListEventsParams struct {
	Principal Principal
	Relation  string
	Period    ListPeriod
	Limit     int
}

// RSVP status values.
const (
	RSVPGoing    = "going"
	RSVPMaybe    = "maybe"
	RSVPNotGoing = "not_going"
)

// RSVP is a user's response to an event.
type RSVP struct {
	EventID   string
	UserID    string
	Status    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Guest is a response together with the responder's public profile.
type Guest struct {
	UserID      string
	Username    string
	DisplayName string
	AvatarURL   string
	Status      string
	RespondedAt time.Time
}

// Invitation is an invite to an event.
type Invitation struct {
	ID          string
	Code        string
	EventID     string
	EventTitle  string
	EventStart  time.Time
	InviterID   string
	InviteeID   string
	Status      string
	CreatedAt   time.Time
	RespondedAt *time.Time
}

// Notification is an in-app message.
type Notification struct {
	ID        string
	Kind      string
	EventID   string
	ActorID   string
	Message   string
	CreatedAt time.Time
	ReadAt    *time.Time
}

// UploadParams describes an uploaded image.
type UploadParams struct {
	Principal   Principal
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// Upload is a stored object.
type Upload struct {
	Key string
	URL string
}

// ReminderResult summarizes one reminder sweep.
type ReminderResult struct {
	Events    int
	Reminders int
}
