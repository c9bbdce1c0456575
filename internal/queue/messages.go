package queue

import (
	"fmt"
	"strings"
	"time"

	"github.com/NTMQuannuaQMTN/sizzl-prototype-sub000/internal/mail"
	"github.com/NTMQuannuaQMTN/sizzl-prototype-sub000/internal/schedule"
)

func loginCodeMessage(p LoginCodePayload, now time.Time) mail.Message {
	minutes := int(p.ExpiresAt.Sub(now).Round(time.Minute) / time.Minute)
	if minutes < 1 {
		minutes = 1
	}
	return mail.Message{
		To:      p.Email,
		Subject: "Your Sizzl login code",
		Body: fmt.Sprintf("Your login code is %s.\n\nIt expires in %d minutes. If you did not ask for it, ignore this email.\n",
			p.Code, minutes),
	}
}

func invitationMessage(p InvitationPayload, loc *time.Location) (mail.Message, error) {
	when, err := describeWhen(p.EventStart, p.EventEnd, loc)
	if err != nil {
		return mail.Message{}, err
	}

	var body strings.Builder
	fmt.Fprintf(&body, "Hi %s,\n\n", greetingName(p.InviteeName))
	fmt.Fprintf(&body, "%s invited you to %s.\n\n", greetingName(p.InviterName), p.EventTitle)
	fmt.Fprintf(&body, "When: %s\n", when)
	if p.Location != "" {
		fmt.Fprintf(&body, "Where: %s\n", p.Location)
	}
	fmt.Fprintf(&body, "\nOpen the app and use invitation code %s to respond.\n", p.Code)

	return mail.Message{
		To:      p.Email,
		Subject: "You're invited: " + p.EventTitle,
		Body:    body.String(),
	}, nil
}

func reminderMessage(p ReminderPayload, loc *time.Location) (mail.Message, error) {
	deadline, err := schedule.FormatRSVPDate(p.Deadline.In(loc))
	if err != nil {
		return mail.Message{}, err
	}
	when, err := describeWhen(p.EventStart, nil, loc)
	if err != nil {
		return mail.Message{}, err
	}

	body := fmt.Sprintf("Hi %s,\n\nRSVPs for %s close on %s at %s.\nThe event starts %s.\n",
		greetingName(p.Name), p.EventTitle, deadline, schedule.SlotOf(p.Deadline.In(loc)), when)
	return mail.Message{
		To:      p.Email,
		Subject: "RSVP closing soon: " + p.EventTitle,
		Body:    body,
	}, nil
}

// describeWhen renders "Friday, Aug 1, 2025, 7:30pm - 10:00pm".
func describeWhen(start time.Time, end *time.Time, loc *time.Location) (string, error) {
	span := schedule.Span{Start: start.In(loc)}
	if end != nil {
		span.End = end.In(loc)
		span.HasEnd = true
	}
	date, err := schedule.FormatFullDate(span.Start)
	if err != nil {
		return "", err
	}
	times, err := schedule.FormatTimeRange(span)
	if err != nil {
		return "", err
	}
	return date + ", " + times, nil
}

func greetingName(name string) string {
	if strings.TrimSpace(name) == "" {
		return "there"
	}
	return strings.TrimSpace(name)
}
