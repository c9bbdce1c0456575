// Package calendar renders events as iCalendar documents.
package calendar

import (
	"errors"
	"time"

	ical "github.com/arran4/golang-ical"
)

const (
	productID   = "-//Sizzl//Events//EN"
	uidDomain   = "@sizzl.app"
	openEndSpan = time.Hour
)

var ErrNoEvents = errors.New("calendar: nothing to export")

// Event is one entry in an exported calendar. A nil End exports a one hour event.
type Event struct {
	ID          string
	Title       string
	Description string
	Location    string
	URL         string
	Start       time.Time
	End         *time.Time
	Created     time.Time
	Updated     time.Time
}

// Export serializes events into a PUBLISH calendar stamped at now.
func Export(events []Event, now time.Time) (string, error) {
	if len(events) == 0 {
		return "", ErrNoEvents
	}

	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(productID)

	for _, e := range events {
		if e.ID == "" || e.Start.IsZero() {
			return "", errors.New("calendar: event needs an id and a start")
		}
		vevent := cal.AddEvent(e.ID + uidDomain)
		vevent.SetDtStampTime(now.UTC())
		vevent.SetStartAt(e.Start.UTC())
		end := e.Start.Add(openEndSpan)
		if e.End != nil {
			end = *e.End
		}
		vevent.SetEndAt(end.UTC())
		vevent.SetSummary(e.Title)
		if e.Description != "" {
			vevent.SetDescription(e.Description)
		}
		if e.Location != "" {
			vevent.SetLocation(e.Location)
		}
		if e.URL != "" {
			vevent.SetURL(e.URL)
		}
		if !e.Created.IsZero() {
			vevent.SetCreatedTime(e.Created.UTC())
		}
		if !e.Updated.IsZero() {
			vevent.SetModifiedAt(e.Updated.UTC())
		}
	}
	return cal.Serialize(), nil
}
