package scheduler

import (
	"sort"
	"time"
)

// DefaultDuration is the length assumed for an event without an end time.
const DefaultDuration = time.Hour

// Role describes how a user takes part in a booked event.
type Role string

const (
	RoleHost   Role = "host"
	RoleCohost Role = "cohost"
	RoleGuest  Role = "guest"
)

func (r Role) rank() int {
	switch r {
	case RoleHost:
		return 0
	case RoleCohost:
		return 1
	default:
		return 2
	}
}

// Booking is an event occupying part of a user's calendar. A zero End means
// the event has no end time.
type Booking struct {
	EventID string
	Title   string
	Role    Role
	Start   time.Time
	End     time.Time
}

func (b Booking) end() time.Time {
	if b.End.IsZero() || !b.End.After(b.Start) {
		return b.Start.Add(DefaultDuration)
	}
	return b.End
}

// Overlaps reports whether the half-open intervals [Start, End) of b and other intersect.
func (b Booking) Overlaps(other Booking) bool {
	return b.Start.Before(other.end()) && other.Start.Before(b.end())
}

// Conflict details an existing booking that overlaps a candidate event.
type Conflict struct {
	WithEventID string
	Title       string
	Role        Role
	Start       time.Time
	End         time.Time
}

// DetectConflicts returns the existing bookings that overlap candidate,
// ordered by start time. A booking with the candidate's own event ID is
// ignored, and an event listed under several roles is reported once with the
// strongest role.
func DetectConflicts(existing []Booking, candidate Booking) []Conflict {
	byEvent := make(map[string]Booking)
	for _, booking := range existing {
		if booking.EventID == "" || booking.EventID == candidate.EventID {
			continue
		}
		if !booking.Overlaps(candidate) {
			continue
		}
		if current, ok := byEvent[booking.EventID]; ok && current.Role.rank() <= booking.Role.rank() {
			continue
		}
		byEvent[booking.EventID] = booking
	}

	conflicts := make([]Conflict, 0, len(byEvent))
	for _, booking := range byEvent {
		conflicts = append(conflicts, Conflict{
			WithEventID: booking.EventID,
			Title:       booking.Title,
			Role:        booking.Role,
			Start:       booking.Start,
			End:         booking.end(),
		})
	}
	sort.Slice(conflicts, func(i, j int) bool {
		if conflicts[i].Start.Equal(conflicts[j].Start) {
			return conflicts[i].WithEventID < conflicts[j].WithEventID
		}
		return conflicts[i].Start.Before(conflicts[j].Start)
	})
	return conflicts
}
