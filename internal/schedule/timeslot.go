package schedule

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const (
	// SlotInterval is the spacing between two selectable clock times.
	SlotInterval = 15 * time.Minute
	// SlotsPerDay is the number of selectable clock times in a day.
	SlotsPerDay = int(24 * time.Hour / SlotInterval)
)

// TimeSlot is a 12-hour clock label such as "2:15pm".
type TimeSlot string

var (
	slotPattern = regexp.MustCompile(`^(1[0-2]|[1-9]):([0-5][0-9])(am|pm)$`)
	daySlots    = buildSlots()
)

func buildSlots() []TimeSlot {
	slots := make([]TimeSlot, 0, SlotsPerDay)
	step := int(SlotInterval / time.Minute)
	for minutes := 0; minutes < 24*60; minutes += step {
		slots = append(slots, clockLabel(minutes/60, minutes%60))
	}
	return slots
}

// Slots returns the selectable clock times of one day in order, starting at 12:00am.
func Slots() []TimeSlot {
	out := make([]TimeSlot, len(daySlots))
	copy(out, daySlots)
	return out
}

// SlotOf formats the wall clock time of t. Minutes are kept as is, not rounded to the grid.
func SlotOf(t time.Time) TimeSlot {
	return clockLabel(t.Hour(), t.Minute())
}

func clockLabel(hour, minute int) TimeSlot {
	suffix := "am"
	if hour >= 12 {
		suffix = "pm"
	}
	display := hour % 12
	if display == 0 {
		display = 12
	}
	return TimeSlot(fmt.Sprintf("%d:%02d%s", display, minute, suffix))
}

// Clock returns the 24-hour hour and minute the label stands for.
func (s TimeSlot) Clock() (hour, minute int, err error) {
	m := slotPattern.FindStringSubmatch(strings.ToLower(strings.TrimSpace(string(s))))
	if m == nil {
		return 0, 0, fmt.Errorf("%w: %q", ErrMalformedTimeLabel, string(s))
	}
	hour, _ = strconv.Atoi(m[1])
	minute, _ = strconv.Atoi(m[2])
	switch {
	case m[3] == "am" && hour == 12:
		hour = 0
	case m[3] == "pm" && hour != 12:
		hour += 12
	}
	return hour, minute, nil
}

// Index returns the position of the label in Slots, or -1 when it is off the grid or malformed.
func (s TimeSlot) Index() int {
	hour, minute, err := s.Clock()
	if err != nil {
		return -1
	}
	offset := time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute
	if offset%SlotInterval != 0 {
		return -1
	}
	return int(offset / SlotInterval)
}

func (s TimeSlot) String() string { return string(s) }

// NextSlot returns the calendar day and slot of the first selectable time
// strictly after now. When no slot remains today it rolls over to 12:00am of
// the following day.
func NextSlot(now time.Time) (time.Time, TimeSlot) {
	day := startOfDay(now)
	step := int(SlotInterval / time.Minute)
	next := (now.Hour()*60+now.Minute())/step*step + step
	if next >= 24*60 {
		return day.AddDate(0, 0, 1), daySlots[0]
	}
	return day, clockLabel(next/60, next%60)
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
