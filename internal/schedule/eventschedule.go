package schedule

import "time"

// MinimumDuration is the shortest allowed gap between an explicit end and the start.
const MinimumDuration = 30 * time.Minute

const defaultLength = time.Hour

// EventSchedule is the date and time selection made while authoring an event.
// The end pair only counts when EndIsSet is true.
type EventSchedule struct {
	StartDate time.Time
	StartTime TimeSlot
	EndDate   time.Time
	EndTime   TimeSlot
	EndIsSet  bool
}

// Span is an EventSchedule resolved to absolute timestamps.
type Span struct {
	Start  time.Time
	End    time.Time
	HasEnd bool
}

// DefaultSchedule seeds a new draft with the next selectable slot after now.
// The suggested end sits one hour later but is not set.
func DefaultSchedule(now time.Time) EventSchedule {
	date, slot := NextSlot(now)
	start, _ := Combine(date, slot)
	end := start.Add(defaultLength)
	return EventSchedule{
		StartDate: date,
		StartTime: slot,
		EndDate:   startOfDay(end),
		EndTime:   SlotOf(end),
	}
}

// ScheduleFromSpan rebuilds the picker selection for an already resolved span.
func ScheduleFromSpan(span Span) EventSchedule {
	s := EventSchedule{
		StartDate: startOfDay(span.Start),
		StartTime: SlotOf(span.Start),
	}
	end := span.Start.Add(defaultLength)
	if span.HasEnd {
		end = span.End
		s.EndIsSet = true
	}
	s.EndDate = startOfDay(end)
	s.EndTime = SlotOf(end)
	return s
}

// Start combines the start date and time.
func (s EventSchedule) Start() (time.Time, error) {
	return Combine(s.StartDate, s.StartTime)
}

// End combines the end date and time regardless of EndIsSet.
func (s EventSchedule) End() (time.Time, error) {
	return Combine(s.EndDate, s.EndTime)
}

// Resolve combines the selection into a Span without applying any rule.
func (s EventSchedule) Resolve() (Span, error) {
	start, err := s.Start()
	if err != nil {
		return Span{}, err
	}
	span := Span{Start: start}
	if !s.EndIsSet {
		return span, nil
	}
	end, err := s.End()
	if err != nil {
		return Span{}, err
	}
	span.End = end
	span.HasEnd = true
	return span, nil
}

// ValidateSchedule resolves s and applies CheckSpan.
func ValidateSchedule(s EventSchedule, now time.Time) (Span, error) {
	span, err := s.Resolve()
	if err != nil {
		return Span{}, err
	}
	if err := CheckSpan(span, now); err != nil {
		return Span{}, err
	}
	return span, nil
}

// CheckSpan rejects a start strictly before now and, when an end is present,
// an end less than MinimumDuration after the start.
func CheckSpan(span Span, now time.Time) error {
	if span.Start.IsZero() {
		return ErrInvalidDate
	}
	if span.Start.Before(now) {
		return ErrPastStartTime
	}
	if span.HasEnd && span.End.Sub(span.Start) < MinimumDuration {
		return ErrEndBeforeMinimumDuration
	}
	return nil
}
