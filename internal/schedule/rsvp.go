package schedule

import "time"

// Day is the fixed 24 hour unit used for RSVP arithmetic.
const Day = 24 * time.Hour

// MaxRSVPLead is how far before the event start an RSVP deadline may be placed.
// The bound is inclusive.
const MaxRSVPLead = 8 * Day

// Window is the closed interval an RSVP deadline must fall into. Date pickers
// read their min and max from the same value the check uses.
type Window struct {
	Earliest time.Time
	Latest   time.Time
}

// WindowFor returns [eventStart-MaxRSVPLead, eventStart].
func WindowFor(eventStart time.Time) Window {
	return Window{Earliest: eventStart.Add(-MaxRSVPLead), Latest: eventStart}
}

// NotBefore raises the lower bound to now when now is later.
func (w Window) NotBefore(now time.Time) Window {
	if now.After(w.Earliest) {
		w.Earliest = now
	}
	return w
}

// Empty reports whether no instant satisfies the window.
func (w Window) Empty() bool {
	return w.Earliest.After(w.Latest)
}

// Contains reports whether t lies inside the window, bounds included.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Earliest) && !t.After(w.Latest)
}

// Check returns ErrRSVPDeadlineOutOfWindow when candidate is outside the window.
func (w Window) Check(candidate time.Time) error {
	if candidate.IsZero() {
		return ErrInvalidDate
	}
	if !w.Contains(candidate) {
		return ErrRSVPDeadlineOutOfWindow
	}
	return nil
}

// DaysBefore returns (eventStart - candidate) in days.
func DaysBefore(eventStart, candidate time.Time) float64 {
	return float64(eventStart.Sub(candidate)) / float64(Day)
}

// ValidateRSVPDeadline accepts candidate iff 0 <= DaysBefore(eventStart, candidate) <= 8.
func ValidateRSVPDeadline(eventStart, candidate time.Time) error {
	if eventStart.IsZero() {
		return ErrInvalidDate
	}
	return WindowFor(eventStart).Check(candidate)
}
