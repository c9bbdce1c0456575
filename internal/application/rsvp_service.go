package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/NTMQuannuaQMTN/sizzl-prototype-sub000/internal/persistence"
)

// RSVPService records guest responses.
type RSVPService struct {
	events      *EventService
	rsvps       persistence.RSVPRepository
	invitations persistence.InvitationRepository
	now         func() time.Time
	logger      *slog.Logger
}

// NewRSVPService wires dependencies for RSVP operations. Event visibility rules come from events.
func NewRSVPService(events *EventService, rsvps persistence.RSVPRepository, invitations persistence.InvitationRepository, now func() time.Time) *RSVPService {
	return NewRSVPServiceWithLogger(events, rsvps, invitations, now, nil)
}

// NewRSVPServiceWithLogger wires dependencies with a specific logger.
func NewRSVPServiceWithLogger(events *EventService, rsvps persistence.RSVPRepository, invitations persistence.InvitationRepository, now func() time.Time, logger *slog.Logger) *RSVPService {
	if now == nil {
		now = time.Now
	}
	return &RSVPService{events: events, rsvps: rsvps, invitations: invitations, now: now, logger: defaultLogger(logger)}
}

func (s *RSVPService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "RSVPService", operation, attrs...)
}

func (s *RSVPService) ready() error {
	if s == nil {
		return fmt.Errorf("RSVPService is nil")
	}
	if s.events == nil || s.rsvps == nil {
		return fmt.Errorf("rsvp dependencies not configured")
	}
	return nil
}

// Respond records or changes the principal's response to a published event.
func (s *RSVPService) Respond(ctx context.Context, principal Principal, eventID, status string) (rsvp RSVP, err error) {
	if err = s.ready(); err != nil {
		return
	}

	status = strings.ToLower(strings.TrimSpace(status))
	logger := s.loggerWith(ctx, "Respond", "event_id", eventID, "principal_id", principal.UserID, "status", status)
	defer func() {
		logOutcome(ctx, logger, err, "rsvp")
	}()

	if !validRSVPStatus(status) {
		err = newValidationError("status", "Choose going, maybe or not going.")
		return
	}

	var event Event
	event, err = s.openEvent(ctx, principal, eventID)
	if err != nil {
		return
	}

	now := s.now()
	var stored persistence.RSVP
	stored, err = s.rsvps.UpsertRSVP(ctx, persistence.RSVP{
		EventID:   event.ID,
		UserID:    principal.UserID,
		Status:    status,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		err = mapRepoError(err)
		return
	}

	s.syncInvitation(ctx, logger, event.ID, principal.UserID, status, now)
	rsvp = rsvpFromRecord(stored)
	return
}

// Withdraw removes the principal's response while responses are still open.
func (s *RSVPService) Withdraw(ctx context.Context, principal Principal, eventID string) (err error) {
	if err = s.ready(); err != nil {
		return
	}

	logger := s.loggerWith(ctx, "Withdraw", "event_id", eventID, "principal_id", principal.UserID)
	defer func() {
		logOutcome(ctx, logger, err, "rsvp withdrawal")
	}()

	var event Event
	event, err = s.openEvent(ctx, principal, eventID)
	if err != nil {
		return
	}
	err = mapRepoError(s.rsvps.DeleteRSVP(ctx, event.ID, principal.UserID))
	return
}

// GetRSVP returns the principal's own response.
func (s *RSVPService) GetRSVP(ctx context.Context, principal Principal, eventID string) (RSVP, error) {
	if err := s.ready(); err != nil {
		return RSVP{}, err
	}
	event, err := s.events.GetEvent(ctx, principal, eventID)
	if err != nil {
		return RSVP{}, err
	}
	stored, err := s.rsvps.GetRSVP(ctx, event.ID, principal.UserID)
	if err != nil {
		return RSVP{}, mapRepoError(err)
	}
	return rsvpFromRecord(stored), nil
}

// ListGuests returns the responses to a visible event, going first.
func (s *RSVPService) ListGuests(ctx context.Context, principal Principal, eventID string) ([]Guest, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	event, err := s.events.GetEvent(ctx, principal, eventID)
	if err != nil {
		return nil, err
	}
	records, err := s.rsvps.ListGuests(ctx, event.ID)
	if err != nil {
		return nil, mapRepoError(err)
	}
	guests := make([]Guest, 0, len(records))
	for _, record := range records {
		guests = append(guests, guestFromRecord(record))
	}
	return guests, nil
}

// openEvent loads a published event that still accepts responses from principal.
func (s *RSVPService) openEvent(ctx context.Context, principal Principal, eventID string) (Event, error) {
	if principal.UserID == "" {
		return Event{}, ErrUnauthorized
	}
	event, err := s.events.GetEvent(ctx, principal, eventID)
	if err != nil {
		return Event{}, err
	}
	if !event.Published() {
		return Event{}, ErrNotFound
	}
	if isHost(event, principal.UserID) {
		return Event{}, newValidationError("status", "Hosts don't RSVP to their own event.")
	}
	if !s.now().Before(event.RSVPClosesAt()) {
		return Event{}, ErrRSVPClosed
	}
	return event, nil
}

// syncInvitation mirrors a response onto a pending invitation.
func (s *RSVPService) syncInvitation(ctx context.Context, logger *slog.Logger, eventID, userID, status string, at time.Time) {
	if s.invitations == nil {
		return
	}
	invitation, err := s.invitations.GetInvitationForUser(ctx, eventID, userID)
	if err != nil {
		if !errors.Is(err, persistence.ErrNotFound) {
			logger.WarnContext(ctx, "invitation lookup failed", "error", err)
		}
		return
	}
	next := persistence.InvitationAccepted
	if status == RSVPNotGoing {
		next = persistence.InvitationDeclined
	}
	if invitation.Status == next {
		return
	}
	if err := s.invitations.UpdateInvitationStatus(ctx, invitation.ID, next, at); err != nil {
		logger.WarnContext(ctx, "invitation status update failed", "invitation_id", invitation.ID, "error", err)
	}
}

func validRSVPStatus(status string) bool {
	switch status {
	case RSVPGoing, RSVPMaybe, RSVPNotGoing:
		return true
	default:
		return false
	}
}
