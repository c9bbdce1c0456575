// Package schedule holds the scheduling rules behind event creation: the
// selectable clock times, combining a picked date with a picked time, the
// start/end and RSVP-deadline checks, the display formatters and the
// EventDraft state holder that gates submission.
//
// Everything here is pure. Callers inject the current time and handle
// persistence themselves; a Draft is owned by a single session and is not
// safe for concurrent use.
package schedule
