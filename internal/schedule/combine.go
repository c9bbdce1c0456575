package schedule

import (
	"fmt"
	"time"
)

// Combine merges the calendar day of date with the clock time of slot. The
// result keeps the location of date and has seconds and nanoseconds zeroed.
// A label that does not parse, or that is not one of the Slots, fails with
// ErrMalformedTimeLabel; the date is never returned unchanged in its place.
func Combine(date time.Time, slot TimeSlot) (time.Time, error) {
	if date.IsZero() {
		return time.Time{}, ErrInvalidDate
	}
	hour, minute, err := slot.Clock()
	if err != nil {
		return time.Time{}, err
	}
	if slot.Index() < 0 {
		return time.Time{}, fmt.Errorf("%w: %q is not on the %s grid", ErrMalformedTimeLabel, string(slot), SlotInterval)
	}
	y, m, d := date.Date()
	return time.Date(y, m, d, hour, minute, 0, 0, date.Location()), nil
}
