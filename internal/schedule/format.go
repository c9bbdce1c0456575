package schedule

import "time"

const (
	fullDateLayout = "Monday, Jan 2, 2006"
	rsvpDateLayout = "Mon, Jan 2, 2006"
)

// FormatFullDate renders t as "Friday, Aug 1, 2025".
func FormatFullDate(t time.Time) (string, error) {
	if !validDate(t) {
		return "", ErrInvalidDate
	}
	return t.Format(fullDateLayout), nil
}

// FormatRSVPDate renders t as "Fri, Aug 1, 2025".
func FormatRSVPDate(t time.Time) (string, error) {
	if !validDate(t) {
		return "", ErrInvalidDate
	}
	return t.Format(rsvpDateLayout), nil
}

// FormatTimeRange renders "2:15pm - 4:00pm", or only the start when the span has no end.
func FormatTimeRange(span Span) (string, error) {
	if !validDate(span.Start) || (span.HasEnd && !validDate(span.End)) {
		return "", ErrInvalidDate
	}
	label := string(SlotOf(span.Start))
	if span.HasEnd {
		label += " - " + string(SlotOf(span.End))
	}
	return label, nil
}

func validDate(t time.Time) bool {
	return !t.IsZero() && t.Year() >= 1 && t.Year() <= 9999
}
