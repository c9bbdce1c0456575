package schedule

import "errors"

var (
	// ErrPastStartTime is returned when the combined start is before the current moment.
	ErrPastStartTime = errors.New("schedule: start time is in the past")
	// ErrEndBeforeMinimumDuration is returned when an explicit end is less than MinimumDuration after the start.
	ErrEndBeforeMinimumDuration = errors.New("schedule: end is before the minimum duration")
	// ErrRSVPDeadlineOutOfWindow is returned when an RSVP deadline falls outside the allowed window.
	ErrRSVPDeadlineOutOfWindow = errors.New("schedule: rsvp deadline out of window")
	// ErrMalformedTimeLabel is returned when a time label does not match the H:MMam/pm pattern
	// or is not one of the Slots.
	ErrMalformedTimeLabel = errors.New("schedule: malformed time label")
	// ErrInvalidDate is returned for zero or otherwise unusable dates.
	ErrInvalidDate = errors.New("schedule: invalid date")
	// ErrSubmitDisabled is returned by Submit until the title is set and a schedule is committed.
	ErrSubmitDisabled = errors.New("schedule: draft cannot be submitted yet")
	// ErrInvalidTransition is returned when a draft operation is not allowed in its current state.
	ErrInvalidTransition = errors.New("schedule: invalid draft transition")
	// ErrUnknownPerk is returned by SetPerk for a kind outside PerkKinds.
	ErrUnknownPerk = errors.New("schedule: unknown perk")
)

// Message returns the inline text shown next to the control that produced err.
func Message(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrPastStartTime):
		return "Start time can't be in the past."
	case errors.Is(err, ErrEndBeforeMinimumDuration):
		return "End time must be at least 30 minutes after the start."
	case errors.Is(err, ErrRSVPDeadlineOutOfWindow):
		return "RSVP deadline must be between now and the event start, at most 8 days before it."
	case errors.Is(err, ErrMalformedTimeLabel):
		return "Pick a time from the list."
	case errors.Is(err, ErrInvalidDate):
		return "Pick a valid date."
	case errors.Is(err, ErrSubmitDisabled):
		return "Add a title and confirm the date first."
	case errors.Is(err, ErrUnknownPerk):
		return "Unknown perk."
	default:
		return "Something went wrong."
	}
}
