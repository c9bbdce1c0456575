package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/NTMQuannuaQMTN/sizzl-prototype-sub000/internal/persistence"
	"github.com/NTMQuannuaQMTN/sizzl-prototype-sub000/internal/queue"
)

const maxInviteesPerRequest = 100

// InvitationService invites users to events and records their answers.
type InvitationService struct {
	events        *EventService
	users         persistence.UserRepository
	invitations   persistence.InvitationRepository
	rsvps         persistence.RSVPRepository
	notifications persistence.NotificationRepository
	mailer        Mailer
	idGenerator   func() string
	shortID       func(size int) (string, error)
	now           func() time.Time
	logger        *slog.Logger
}

// NewInvitationService wires dependencies for invitation operations.
func NewInvitationService(events *EventService, users persistence.UserRepository, invitations persistence.InvitationRepository, rsvps persistence.RSVPRepository, notifications persistence.NotificationRepository, mailer Mailer, idGenerator func() string, now func() time.Time) *InvitationService {
	return NewInvitationServiceWithLogger(events, users, invitations, rsvps, notifications, mailer, idGenerator, now, nil)
}

// NewInvitationServiceWithLogger wires dependencies with a specific logger.
func NewInvitationServiceWithLogger(events *EventService, users persistence.UserRepository, invitations persistence.InvitationRepository, rsvps persistence.RSVPRepository, notifications persistence.NotificationRepository, mailer Mailer, idGenerator func() string, now func() time.Time, logger *slog.Logger) *InvitationService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &InvitationService{
		events:        events,
		users:         users,
		invitations:   invitations,
		rsvps:         rsvps,
		notifications: notifications,
		mailer:        mailer,
		idGenerator:   idGenerator,
		shortID:       newShortID,
		now:           now,
		logger:        defaultLogger(logger),
	}
}

func (s *InvitationService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "InvitationService", operation, attrs...)
}

func (s *InvitationService) ready() error {
	if s == nil {
		return fmt.Errorf("InvitationService is nil")
	}
	if s.events == nil || s.users == nil || s.invitations == nil || s.rsvps == nil {
		return fmt.Errorf("invitation dependencies not configured")
	}
	return nil
}

// Invite sends invitations for a published event to userIDs. Users already
// invited, the host, and the inviter are skipped. Only newly created
// invitations are returned.
func (s *InvitationService) Invite(ctx context.Context, principal Principal, eventID string, userIDs []string) (created []Invitation, err error) {
	if err = s.ready(); err != nil {
		return
	}

	logger := s.loggerWith(ctx, "Invite", "event_id", eventID, "principal_id", principal.UserID, "requested", len(userIDs))
	defer func() {
		logOutcome(ctx, logger, err, "invitation", "created", len(created))
	}()

	var event Event
	event, err = s.events.GetEvent(ctx, principal, eventID)
	if err != nil {
		return
	}
	if !canEdit(event, principal.UserID) {
		err = ErrUnauthorized
		return
	}
	if !event.Published() {
		err = newValidationError("event", "Publish the event before inviting guests.")
		return
	}

	ids := uniqueStrings(userIDs)
	if len(ids) == 0 {
		err = newValidationError("user_ids", "Pick at least one person to invite.")
		return
	}
	if len(ids) > maxInviteesPerRequest {
		err = newValidationError("user_ids", fmt.Sprintf("Invite at most %d people at a time.", maxInviteesPerRequest))
		return
	}
	var missing []string
	missing, err = s.users.MissingUserIDs(ctx, ids)
	if err != nil {
		err = mapRepoError(err)
		return
	}
	if len(missing) > 0 {
		err = newValidationError("user_ids", "Unknown user: "+strings.Join(missing, ", "))
		return
	}

	inviter := persistence.User{ID: principal.UserID}
	if record, lookupErr := s.users.GetUser(ctx, principal.UserID); lookupErr == nil {
		inviter = record
	}
	inviterName := userFromRecord(inviter).DisplayName()

	for _, userID := range ids {
		if userID == principal.UserID || userID == event.HostID {
			continue
		}
		var invitation Invitation
		var ok bool
		invitation, ok, err = s.inviteOne(ctx, event, principal.UserID, userID)
		if err != nil {
			return
		}
		if !ok {
			continue
		}
		created = append(created, invitation)
		s.announce(ctx, logger, event, invitation, inviterName)
	}
	return
}

func (s *InvitationService) inviteOne(ctx context.Context, event Event, inviterID, inviteeID string) (Invitation, bool, error) {
	if _, err := s.invitations.GetInvitationForUser(ctx, event.ID, inviteeID); err == nil {
		return Invitation{}, false, nil
	} else if !errors.Is(err, persistence.ErrNotFound) {
		return Invitation{}, false, err
	}

	code, err := s.shortID(invitationCodeSize)
	if err != nil {
		return Invitation{}, false, fmt.Errorf("generate invitation code: %w", err)
	}
	record := persistence.Invitation{
		ID:            s.idGenerator(),
		Code:          code,
		EventID:       event.ID,
		InviterID:     inviterID,
		InviteeID:     inviteeID,
		Status:        persistence.InvitationPending,
		CreatedAt:     s.now(),
		EventTitle:    event.Title,
		EventStartsAt: event.Start,
	}
	if err := s.invitations.CreateInvitation(ctx, record); err != nil {
		if errors.Is(err, persistence.ErrDuplicate) {
			return Invitation{}, false, nil
		}
		return Invitation{}, false, err
	}
	return invitationFromRecord(record), true, nil
}

// announce creates the in-app notification and queues the invitation mail.
// Failures are logged; the invitation itself is already stored.
func (s *InvitationService) announce(ctx context.Context, logger *slog.Logger, event Event, invitation Invitation, inviterName string) {
	if s.notifications != nil {
		eventID, actorID := event.ID, invitation.InviterID
		err := s.notifications.CreateNotification(ctx, persistence.Notification{
			ID:        s.idGenerator(),
			UserID:    invitation.InviteeID,
			Kind:      persistence.NotificationInvitation,
			EventID:   &eventID,
			ActorID:   &actorID,
			Message:   fmt.Sprintf("%s invited you to %s.", inviterName, event.Title),
			CreatedAt: s.now(),
		})
		if err != nil {
			logger.WarnContext(ctx, "invitation notification failed", "invitee_id", invitation.InviteeID, "error", err)
		}
	}

	if s.mailer == nil {
		return
	}
	invitee, err := s.users.GetUser(ctx, invitation.InviteeID)
	if err != nil {
		logger.WarnContext(ctx, "invitee lookup failed", "invitee_id", invitation.InviteeID, "error", err)
		return
	}
	err = s.mailer.EnqueueInvitation(ctx, queue.InvitationPayload{
		Email:       mailAddress(invitee),
		InviteeName: userFromRecord(invitee).DisplayName(),
		InviterName: inviterName,
		EventTitle:  event.Title,
		EventStart:  event.Start,
		EventEnd:    event.End,
		Location:    locationText(event.Location),
		Code:        invitation.Code,
	})
	if err != nil {
		logger.WarnContext(ctx, "invitation mail enqueue failed", "invitee_id", invitation.InviteeID, "error", err)
	}
}

// AcceptInvitation accepts the invitation behind code and marks the invitee as going.
func (s *InvitationService) AcceptInvitation(ctx context.Context, principal Principal, code string) (Invitation, error) {
	return s.answer(ctx, principal, code, persistence.InvitationAccepted, RSVPGoing)
}

// DeclineInvitation declines the invitation behind code and marks the invitee as not going.
func (s *InvitationService) DeclineInvitation(ctx context.Context, principal Principal, code string) (Invitation, error) {
	return s.answer(ctx, principal, code, persistence.InvitationDeclined, RSVPNotGoing)
}

func (s *InvitationService) answer(ctx context.Context, principal Principal, code, status, rsvpStatus string) (invitation Invitation, err error) {
	if err = s.ready(); err != nil {
		return
	}

	logger := s.loggerWith(ctx, "AnswerInvitation", "principal_id", principal.UserID, "status", status)
	defer func() {
		logOutcome(ctx, logger, err, "invitation answer", "event_id", invitation.EventID)
	}()

	var record persistence.Invitation
	record, err = s.invitations.GetInvitationByCode(ctx, strings.TrimSpace(code))
	if err != nil {
		err = mapRepoError(err)
		return
	}
	if record.InviteeID != principal.UserID {
		err = ErrNotFound
		return
	}

	var event Event
	event, err = s.events.GetEvent(ctx, principal, record.EventID)
	if err != nil {
		return
	}
	now := s.now()
	if !now.Before(event.RSVPClosesAt()) {
		err = ErrRSVPClosed
		return
	}

	if record.Status != status {
		if err = s.invitations.UpdateInvitationStatus(ctx, record.ID, status, now); err != nil {
			err = mapRepoError(err)
			return
		}
		record.Status = status
		record.RespondedAt = &now
	}
	if _, err = s.rsvps.UpsertRSVP(ctx, persistence.RSVP{
		EventID:   record.EventID,
		UserID:    principal.UserID,
		Status:    rsvpStatus,
		CreatedAt: now,
		UpdatedAt: now,
	}); err != nil {
		err = mapRepoError(err)
		return
	}

	invitation = invitationFromRecord(record)
	return
}

// ListInvitations lists the principal's invitations to published events, soonest first.
func (s *InvitationService) ListInvitations(ctx context.Context, principal Principal) ([]Invitation, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	if principal.UserID == "" {
		return nil, ErrUnauthorized
	}
	records, err := s.invitations.ListInvitationsForUser(ctx, principal.UserID)
	if err != nil {
		return nil, mapRepoError(err)
	}
	out := make([]Invitation, 0, len(records))
	for _, record := range records {
		out = append(out, invitationFromRecord(record))
	}
	return out, nil
}

func mailAddress(user persistence.User) string {
	if user.ContactEmail != "" {
		return user.ContactEmail
	}
	return user.Email
}

func uniqueStrings(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
