package application

import (
	"github.com/NTMQuannuaQMTN/sizzl-prototype-sub000/internal/persistence"
	"github.com/NTMQuannuaQMTN/sizzl-prototype-sub000/internal/schedule"
)

func userFromRecord(u persistence.User) User {
	user := User{
		ID:           u.ID,
		Email:        u.Email,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		ContactEmail: u.ContactEmail,
		Bio:          u.Bio,
		AvatarURL:    u.AvatarURL,
		NeedsProfile: u.NeedsProfile,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
	if u.Username != nil {
		user.Username = *u.Username
	}
	return user
}

func eventFromRecord(e persistence.Event) Event {
	event := Event{
		ID:           e.ID,
		HostID:       e.HostID,
		Slug:         e.Slug,
		Title:        e.Title,
		Bio:          e.Bio,
		ImageURL:     e.ImageURL,
		Public:       e.Public,
		Status:       e.Status,
		Start:        e.StartsAt,
		End:          e.EndsAt,
		RSVPDeadline: e.RSVPDeadline,
		Location: schedule.Location{
			Name:    e.LocationName,
			Address: e.LocationAddress,
		},
		CreatedAt: e.CreatedAt,
		UpdatedAt: e.UpdatedAt,
	}
	if e.Latitude != nil && e.Longitude != nil {
		event.Location.Coords = &schedule.Coordinates{Latitude: *e.Latitude, Longitude: *e.Longitude}
	}
	for _, c := range e.Cohosts {
		cohost := schedule.Cohost{Label: c.Label}
		if c.UserID != nil {
			cohost.UserID = *c.UserID
		}
		event.Cohosts = append(event.Cohosts, cohost)
	}
	for _, p := range e.Perks {
		event.Perks = append(event.Perks, schedule.Perk{Kind: schedule.PerkKind(p.Kind), Detail: p.Detail})
	}
	return event
}

// applySubmission copies the authored fields of sub onto record.
func applySubmission(record *persistence.Event, sub schedule.Submission) {
	record.Title = sub.Title
	record.Bio = sub.Bio
	record.ImageURL = sub.Image
	record.Public = sub.Public
	record.StartsAt = sub.Start
	record.EndsAt = sub.End
	record.RSVPDeadline = sub.RSVPDeadline
	record.LocationName = sub.Location.Name
	record.LocationAddress = sub.Location.Address
	record.Latitude, record.Longitude = nil, nil
	if sub.Location.Coords != nil {
		lat, lng := sub.Location.Coords.Latitude, sub.Location.Coords.Longitude
		record.Latitude, record.Longitude = &lat, &lng
	}
	record.Cohosts = record.Cohosts[:0:0]
	for _, c := range sub.Cohosts {
		cohost := persistence.Cohost{Label: c.Label}
		if c.IsUser() {
			id := c.UserID
			cohost.UserID = &id
		}
		record.Cohosts = append(record.Cohosts, cohost)
	}
	record.Perks = record.Perks[:0:0]
	for _, p := range sub.Perks {
		record.Perks = append(record.Perks, persistence.Perk{Kind: string(p.Kind), Detail: p.Detail})
	}
}

// submissionOf rebuilds the draft submission for a stored event.
func submissionOf(e Event) schedule.Submission {
	return schedule.Submission{
		Title:        e.Title,
		Public:       e.Public,
		Image:        e.ImageURL,
		Start:        e.Start,
		End:          e.End,
		RSVPDeadline: e.RSVPDeadline,
		Cohosts:      e.Cohosts,
		Location:     e.Location,
		Bio:          e.Bio,
		Perks:        e.Perks,
		Final:        e.Published(),
	}
}

func rsvpFromRecord(r persistence.RSVP) RSVP {
	return RSVP{
		EventID:   r.EventID,
		UserID:    r.UserID,
		Status:    r.Status,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

func guestFromRecord(g persistence.Guest) Guest {
	user := User{FirstName: g.FirstName, LastName: g.LastName}
	if g.Username != nil {
		user.Username = *g.Username
	}
	return Guest{
		UserID:      g.RSVP.UserID,
		Username:    user.Username,
		DisplayName: user.DisplayName(),
		AvatarURL:   g.AvatarURL,
		Status:      g.RSVP.Status,
		RespondedAt: g.RSVP.UpdatedAt,
	}
}

func invitationFromRecord(i persistence.Invitation) Invitation {
	return Invitation{
		ID:          i.ID,
		Code:        i.Code,
		EventID:     i.EventID,
		EventTitle:  i.EventTitle,
		EventStart:  i.EventStartsAt,
		InviterID:   i.InviterID,
		InviteeID:   i.InviteeID,
		Status:      i.Status,
		CreatedAt:   i.CreatedAt,
		RespondedAt: i.RespondedAt,
	}
}

func notificationFromRecord(n persistence.Notification) Notification {
	notification := Notification{
		ID:        n.ID,
		Kind:      n.Kind,
		Message:   n.Message,
		CreatedAt: n.CreatedAt,
		ReadAt:    n.ReadAt,
	}
	if n.EventID != nil {
		notification.EventID = *n.EventID
	}
	if n.ActorID != nil {
		notification.ActorID = *n.ActorID
	}
	return notification
}
