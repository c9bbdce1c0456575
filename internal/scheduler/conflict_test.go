package scheduler

import (
	"testing"
	"time"
)

var day = time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)

func at(hour, minute int) time.Time {
	return day.Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute)
}

func TestDetectConflicts(t *testing.T) {
	t.Parallel()

	candidate := Booking{EventID: "new", Start: at(19, 0), End: at(21, 0)}

	t.Run("overlapping bookings produce conflicts in start order", func(t *testing.T) {
		t.Parallel()

		existing := []Booking{
			{EventID: "late", Title: "Late", Role: RoleGuest, Start: at(20, 30), End: at(23, 0)},
			{EventID: "early", Title: "Early", Role: RoleHost, Start: at(18, 0), End: at(19, 30)},
		}
		conflicts := DetectConflicts(existing, candidate)
		if len(conflicts) != 2 {
			t.Fatalf("expected 2 conflicts, got %d", len(conflicts))
		}
		if conflicts[0].WithEventID != "early" || conflicts[1].WithEventID != "late" {
			t.Fatalf("unexpected order: %+v", conflicts)
		}
	})

	t.Run("touching bookings do not conflict", func(t *testing.T) {
		t.Parallel()

		existing := []Booking{
			{EventID: "before", Role: RoleHost, Start: at(17, 0), End: at(19, 0)},
			{EventID: "after", Role: RoleGuest, Start: at(21, 0), End: at(22, 0)},
		}
		if conflicts := DetectConflicts(existing, candidate); len(conflicts) != 0 {
			t.Fatalf("expected no conflicts, got %+v", conflicts)
		}
	})

	t.Run("open-ended bookings last one hour", func(t *testing.T) {
		t.Parallel()

		existing := []Booking{
			{EventID: "open", Role: RoleCohost, Start: at(18, 15)},
			{EventID: "too-early", Role: RoleCohost, Start: at(18, 0)},
		}
		conflicts := DetectConflicts(existing, candidate)
		if len(conflicts) != 1 || conflicts[0].WithEventID != "open" {
			t.Fatalf("expected only the open-ended booking, got %+v", conflicts)
		}
		if !conflicts[0].End.Equal(at(19, 15)) {
			t.Fatalf("expected default end 19:15, got %v", conflicts[0].End)
		}
	})

	t.Run("open-ended candidate", func(t *testing.T) {
		t.Parallel()

		open := Booking{EventID: "new", Start: at(19, 0)}
		existing := []Booking{{EventID: "x", Role: RoleGuest, Start: at(19, 45), End: at(20, 0)}}
		if conflicts := DetectConflicts(existing, open); len(conflicts) != 1 {
			t.Fatalf("expected 1 conflict, got %+v", conflicts)
		}
	})

	t.Run("same event and duplicate roles", func(t *testing.T) {
		t.Parallel()

		existing := []Booking{
			{EventID: "new", Role: RoleHost, Start: at(19, 0), End: at(21, 0)},
			{EventID: "dup", Role: RoleGuest, Start: at(19, 0), End: at(20, 0)},
			{EventID: "dup", Role: RoleCohost, Start: at(19, 0), End: at(20, 0)},
		}
		conflicts := DetectConflicts(existing, candidate)
		if len(conflicts) != 1 {
			t.Fatalf("expected 1 conflict, got %+v", conflicts)
		}
		if conflicts[0].Role != RoleCohost {
			t.Fatalf("expected strongest role cohost, got %s", conflicts[0].Role)
		}
	})
}
