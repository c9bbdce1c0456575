package schedule

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestFormatters(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		format func(time.Time) (string, error)
		at     time.Time
		want   string
	}{
		{"full date", FormatFullDate, time.Date(2025, 8, 1, 19, 30, 0, 0, time.UTC), "Friday, Aug 1, 2025"},
		{"full date two digit day", FormatFullDate, time.Date(2025, 11, 12, 0, 0, 0, 0, time.UTC), "Wednesday, Nov 12, 2025"},
		{"rsvp date", FormatRSVPDate, time.Date(2025, 7, 24, 0, 0, 0, 0, time.UTC), "Thu, Jul 24, 2025"},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			for i := 0; i < 2; i++ {
				got, err := tc.format(tc.at)
				if err != nil {
					t.Fatalf("format returned error: %v", err)
				}
				if got != tc.want {
					t.Fatalf("expected %q, got %q", tc.want, got)
				}
			}
		})
	}

	if _, err := FormatFullDate(time.Time{}); !errors.Is(err, ErrInvalidDate) {
		t.Fatalf("expected ErrInvalidDate from FormatFullDate, got %v", err)
	}
	if _, err := FormatRSVPDate(time.Time{}); !errors.Is(err, ErrInvalidDate) {
		t.Fatalf("expected ErrInvalidDate from FormatRSVPDate, got %v", err)
	}
}

func TestFormatTimeRange(t *testing.T) {
	t.Parallel()

	start := time.Date(2025, 8, 1, 14, 15, 0, 0, time.UTC)

	label, err := FormatTimeRange(Span{Start: start, End: start.Add(105 * time.Minute), HasEnd: true})
	if err != nil || label != "2:15pm - 4:00pm" {
		t.Fatalf("expected %q, got %q (%v)", "2:15pm - 4:00pm", label, err)
	}

	label, err = FormatTimeRange(Span{Start: start})
	if err != nil || label != "2:15pm" {
		t.Fatalf("expected %q, got %q (%v)", "2:15pm", label, err)
	}

	if _, err := FormatTimeRange(Span{Start: start, HasEnd: true}); !errors.Is(err, ErrInvalidDate) {
		t.Fatalf("expected ErrInvalidDate for a zero end, got %v", err)
	}
}

func TestMessage(t *testing.T) {
	t.Parallel()

	if got := Message(nil); got != "" {
		t.Fatalf("expected empty message for nil, got %q", got)
	}
	if got := Message(ErrEndBeforeMinimumDuration); !strings.Contains(got, "30 minutes") {
		t.Fatalf("unexpected duration message %q", got)
	}
	if got := Message(ErrRSVPDeadlineOutOfWindow); !strings.Contains(got, "8 days") {
		t.Fatalf("unexpected deadline message %q", got)
	}
	if Message(ErrMalformedTimeLabel) != Message(wrap(ErrMalformedTimeLabel)) {
		t.Fatalf("wrapped errors should share the message")
	}
}

type wrapped struct{ inner error }

func (w wrapped) Error() string { return "wrapped: " + w.inner.Error() }
func (w wrapped) Unwrap() error { return w.inner }

func wrap(err error) error { return wrapped{inner: err} }
