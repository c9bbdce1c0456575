package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gosimple/slug"
	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/NTMQuannuaQMTN/sizzl-prototype-sub000/internal/calendar"
	"github.com/NTMQuannuaQMTN/sizzl-prototype-sub000/internal/persistence"
	"github.com/NTMQuannuaQMTN/sizzl-prototype-sub000/internal/schedule"
	"github.com/NTMQuannuaQMTN/sizzl-prototype-sub000/internal/scheduler"
)

const (
	maxTitleLength     = 100
	maxEventBioLength  = 2000
	maxSlugBaseLength  = 48
	slugAttempts       = 3
	defaultEventLimit  = 50
	maxEventLimit      = 200
	conflictLookback   = 7 * schedule.Day
	shortIDAlphabet    = "abcdefghijkmnpqrstuvwxyz23456789"
	slugSuffixLength   = 6
	invitationCodeSize = 10
)

// EventService orchestrates validation, authorization and persistence for events.
type EventService struct {
	events        persistence.EventRepository
	users         persistence.UserRepository
	invitations   persistence.InvitationRepository
	notifications persistence.NotificationRepository
	idGenerator   func() string
	shortID       func(size int) (string, error)
	now           func() time.Time
	publicBaseURL string
	logger        *slog.Logger
}

// NewEventService wires dependencies for event operations.
func NewEventService(events persistence.EventRepository, users persistence.UserRepository, invitations persistence.InvitationRepository, notifications persistence.NotificationRepository, idGenerator func() string, now func() time.Time, publicBaseURL string) *EventService {
	return NewEventServiceWithLogger(events, users, invitations, notifications, idGenerator, now, publicBaseURL, nil)
}

// NewEventServiceWithLogger wires dependencies with a specific logger.
func NewEventServiceWithLogger(events persistence.EventRepository, users persistence.UserRepository, invitations persistence.InvitationRepository, notifications persistence.NotificationRepository, idGenerator func() string, now func() time.Time, publicBaseURL string, logger *slog.Logger) *EventService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &EventService{
		events:        events,
		users:         users,
		invitations:   invitations,
		notifications: notifications,
		idGenerator:   idGenerator,
		shortID:       newShortID,
		now:           now,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
		logger:        defaultLogger(logger),
	}
}

func newShortID(size int) (string, error) {
	return gonanoid.Generate(shortIDAlphabet, size)
}

func (s *EventService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "EventService", operation, attrs...)
}

func (s *EventService) ready() error {
	if s == nil {
		return fmt.Errorf("EventService is nil")
	}
	if s.events == nil || s.users == nil {
		return fmt.Errorf("event repositories not configured")
	}
	return nil
}

// CreateEvent validates input through the draft state machine and stores the
// event as published, or as a draft when publish is false.
func (s *EventService) CreateEvent(ctx context.Context, principal Principal, input EventInput, publish bool) (result EventResult, err error) {
	if err = s.ready(); err != nil {
		return
	}

	logger := s.loggerWith(ctx, "CreateEvent", "host_id", principal.UserID, "publish", publish)
	defer func() {
		logOutcome(ctx, logger, err, "event creation",
			"event_id", result.Event.ID,
			"slug", result.Event.Slug,
			"warnings", len(result.Warnings),
		)
	}()

	if principal.UserID == "" {
		err = ErrUnauthorized
		return
	}

	draft := schedule.NewDraft(s.now)
	vErr := &ValidationError{}
	s.applyInput(draft, input, nil, vErr)
	s.checkCohosts(ctx, principal.UserID, draft.Cohosts(), vErr)
	if vErr.HasErrors() {
		err = vErr
		return
	}

	var sub schedule.Submission
	sub, err = finishDraft(draft, publish)
	if err != nil {
		return
	}

	now := s.now()
	record := persistence.Event{
		ID:        s.idGenerator(),
		HostID:    principal.UserID,
		Status:    statusFor(sub.Final),
		CreatedAt: now,
		UpdatedAt: now,
	}
	applySubmission(&record, sub)

	result.Warnings, err = s.detectConflicts(ctx, principal.UserID, eventFromRecord(record))
	if err != nil {
		return
	}

	if err = s.createWithSlug(ctx, &record); err != nil {
		return
	}

	result.Event = eventFromRecord(record)
	if result.Event.Published() {
		s.notifyCohosts(ctx, logger, result.Event, principal.UserID, registeredCohosts(result.Event.Cohosts))
	}
	return
}

func (s *EventService) createWithSlug(ctx context.Context, record *persistence.Event) error {
	base := slugBase(record.Title)
	var err error
	for attempt := 0; attempt < slugAttempts; attempt++ {
		var suffix string
		suffix, err = s.shortID(slugSuffixLength)
		if err != nil {
			return fmt.Errorf("generate slug: %w", err)
		}
		record.Slug = base + "-" + suffix
		err = s.events.CreateEvent(ctx, *record)
		if !errors.Is(err, persistence.ErrDuplicate) {
			return mapRepoError(err)
		}
	}
	return mapRepoError(err)
}

func slugBase(title string) string {
	base := slug.Make(title)
	if len(base) > maxSlugBaseLength {
		base = strings.TrimRight(base[:maxSlugBaseLength], "-")
	}
	if base == "" {
		return "event"
	}
	return base
}

// UpdateEvent replaces the authored content of an event. Hosts and registered
// cohosts may edit. An unchanged schedule or RSVP deadline is not re-checked
// against the current time, so a published event can still be edited after it
// starts. A draft's start is checked when it is published.
func (s *EventService) UpdateEvent(ctx context.Context, principal Principal, eventID string, input EventInput) (result EventResult, err error) {
	if err = s.ready(); err != nil {
		return
	}

	logger := s.loggerWith(ctx, "UpdateEvent", "event_id", eventID, "principal_id", principal.UserID)
	defer func() {
		logOutcome(ctx, logger, err, "event update", "warnings", len(result.Warnings))
	}()

	var record persistence.Event
	record, err = s.events.GetEvent(ctx, eventID)
	if err != nil {
		err = mapRepoError(err)
		return
	}
	existing := eventFromRecord(record)
	if !canEdit(existing, principal.UserID) {
		err = visibleError(existing, principal.UserID)
		return
	}

	draft := schedule.DraftFromSubmission(schedule.Submission{
		Start:        existing.Start,
		End:          existing.End,
		RSVPDeadline: existing.RSVPDeadline,
		Final:        existing.Published(),
	}, s.now)
	vErr := &ValidationError{}
	s.applyInput(draft, input, &existing, vErr)
	s.checkCohosts(ctx, existing.HostID, draft.Cohosts(), vErr)
	if vErr.HasErrors() {
		err = vErr
		return
	}

	var sub schedule.Submission
	sub, err = finishDraft(draft, existing.Published())
	if err != nil {
		return
	}

	if !sameTime(existing.RSVPDeadline, sub.RSVPDeadline) || !existing.Start.Equal(sub.Start) {
		record.ReminderSentAt = nil
	}
	applySubmission(&record, sub)
	record.UpdatedAt = s.now()

	updated := eventFromRecord(record)
	result.Warnings, err = s.detectConflicts(ctx, existing.HostID, updated)
	if err != nil {
		return
	}

	if err = s.events.UpdateEvent(ctx, record); err != nil {
		err = mapRepoError(err)
		return
	}

	result.Event = updated
	if updated.Published() {
		added := difference(registeredCohosts(updated.Cohosts), registeredCohosts(existing.Cohosts))
		s.notifyCohosts(ctx, logger, updated, principal.UserID, added)
	}
	return
}

// PublishEvent turns a saved draft into a published event. Publishing an
// already published event returns it unchanged.
func (s *EventService) PublishEvent(ctx context.Context, principal Principal, eventID string) (result EventResult, err error) {
	if err = s.ready(); err != nil {
		return
	}

	logger := s.loggerWith(ctx, "PublishEvent", "event_id", eventID, "principal_id", principal.UserID)
	defer func() {
		logOutcome(ctx, logger, err, "event publish")
	}()

	var record persistence.Event
	record, err = s.events.GetEvent(ctx, eventID)
	if err != nil {
		err = mapRepoError(err)
		return
	}
	existing := eventFromRecord(record)
	if existing.HostID != principal.UserID {
		err = visibleError(existing, principal.UserID)
		return
	}
	if existing.Published() {
		result.Event = existing
		return
	}

	draft := schedule.DraftFromSubmission(submissionOf(existing), s.now)
	var sub schedule.Submission
	sub, err = finishDraft(draft, true)
	if err != nil {
		return
	}

	applySubmission(&record, sub)
	record.Status = persistence.EventStatusPublished
	record.UpdatedAt = s.now()

	published := eventFromRecord(record)
	result.Warnings, err = s.detectConflicts(ctx, existing.HostID, published)
	if err != nil {
		return
	}
	if err = s.events.UpdateEvent(ctx, record); err != nil {
		err = mapRepoError(err)
		return
	}

	result.Event = published
	s.notifyCohosts(ctx, logger, published, principal.UserID, registeredCohosts(published.Cohosts))
	return
}

// DeleteEvent removes an event. Only the host may delete it.
func (s *EventService) DeleteEvent(ctx context.Context, principal Principal, eventID string) (err error) {
	if err = s.ready(); err != nil {
		return
	}

	logger := s.loggerWith(ctx, "DeleteEvent", "event_id", eventID, "principal_id", principal.UserID)
	defer func() {
		logOutcome(ctx, logger, err, "event deletion")
	}()

	var record persistence.Event
	record, err = s.events.GetEvent(ctx, eventID)
	if err != nil {
		err = mapRepoError(err)
		return
	}
	event := eventFromRecord(record)
	if event.HostID != principal.UserID {
		err = visibleError(event, principal.UserID)
		return
	}
	err = mapRepoError(s.events.DeleteEvent(ctx, eventID))
	return
}

// GetEvent loads an event the principal is allowed to see.
func (s *EventService) GetEvent(ctx context.Context, principal Principal, eventID string) (Event, error) {
	if err := s.ready(); err != nil {
		return Event{}, err
	}
	record, err := s.events.GetEvent(ctx, strings.TrimSpace(eventID))
	if err != nil {
		return Event{}, mapRepoError(err)
	}
	return s.visible(ctx, principal, eventFromRecord(record))
}

// GetEventBySlug loads an event by its share slug.
func (s *EventService) GetEventBySlug(ctx context.Context, principal Principal, eventSlug string) (Event, error) {
	if err := s.ready(); err != nil {
		return Event{}, err
	}
	record, err := s.events.GetEventBySlug(ctx, strings.ToLower(strings.TrimSpace(eventSlug)))
	if err != nil {
		return Event{}, mapRepoError(err)
	}
	return s.visible(ctx, principal, eventFromRecord(record))
}

// ListEvents lists events by their relation to the principal.
func (s *EventService) ListEvents(ctx context.Context, params ListEventsParams) ([]Event, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	if params.Principal.UserID == "" {
		return nil, ErrUnauthorized
	}

	relation := persistence.EventRelation(strings.ToLower(strings.TrimSpace(params.Relation)))
	if relation == "" {
		relation = persistence.RelationHosting
	}
	switch relation {
	case persistence.RelationHosting, persistence.RelationCohosting, persistence.RelationAttending,
		persistence.RelationInvited, persistence.RelationDrafts, persistence.RelationDiscover:
	default:
		return nil, newValidationError("relation", "Unknown event list.")
	}

	period := params.Period
	if relation == persistence.RelationDiscover && period == ListPeriodAll {
		period = ListPeriodUpcoming
	}
	filter := persistence.EventFilter{
		UserID:   params.Principal.UserID,
		Relation: relation,
		Limit:    params.Limit,
	}
	now := s.now()
	switch period {
	case ListPeriodAll:
	case ListPeriodUpcoming:
		filter.StartsAfter = &now
	case ListPeriodPast:
		filter.StartsBefore = &now
	default:
		return nil, newValidationError("period", "Unknown period.")
	}
	if filter.Limit <= 0 {
		filter.Limit = defaultEventLimit
	}
	if filter.Limit > maxEventLimit {
		filter.Limit = maxEventLimit
	}

	records, err := s.events.ListEvents(ctx, filter)
	if err != nil {
		return nil, mapRepoError(err)
	}
	out := make([]Event, 0, len(records))
	for _, record := range records {
		out = append(out, eventFromRecord(record))
	}
	return out, nil
}

// ExportCalendar renders a visible event as an iCalendar document.
func (s *EventService) ExportCalendar(ctx context.Context, principal Principal, eventID string) (string, error) {
	event, err := s.GetEvent(ctx, principal, eventID)
	if err != nil {
		return "", err
	}

	entry := calendar.Event{
		ID:          event.ID,
		Title:       event.Title,
		Description: event.Bio,
		Location:    locationText(event.Location),
		Start:       event.Start,
		End:         event.End,
		Created:     event.CreatedAt,
		Updated:     event.UpdatedAt,
	}
	if s.publicBaseURL != "" && event.Slug != "" {
		entry.URL = s.publicBaseURL + "/e/" + event.Slug
	}
	return calendar.Export([]calendar.Event{entry}, s.now())
}

// applyInput runs input through the draft setters, recording failures on vErr.
// existing is nil when creating.
func (s *EventService) applyInput(draft *schedule.Draft, input EventInput, existing *Event, vErr *ValidationError) {
	title := strings.TrimSpace(input.Title)
	switch {
	case title == "":
		vErr.add("title", "Title is required.")
	case utf8.RuneCountInString(title) > maxTitleLength:
		vErr.add("title", fmt.Sprintf("Title must be at most %d characters.", maxTitleLength))
	}
	if utf8.RuneCountInString(strings.TrimSpace(input.Bio)) > maxEventBioLength {
		vErr.add("bio", fmt.Sprintf("Description must be at most %d characters.", maxEventBioLength))
	}

	_ = draft.SetTitle(title)
	_ = draft.SetPublic(input.Public)
	_ = draft.SetImage(input.ImageURL)
	_ = draft.SetLocation(input.Location)
	_ = draft.SetBio(input.Bio)
	for _, cohost := range input.Cohosts {
		_ = draft.AddCohost(cohost)
	}
	for _, perk := range input.Perks {
		if err := draft.SetPerk(perk.Kind, true, perk.Detail); err != nil {
			vErr.add("perks", schedule.Message(err))
		}
	}

	scheduleChanged := true
	if existing != nil {
		if span, err := input.Schedule.Resolve(); err == nil && sameSpan(span, existing.Span()) {
			scheduleChanged = false
		}
	}
	if scheduleChanged {
		if err := draft.SetSchedule(input.Schedule); err != nil {
			vErr.addSchedule(scheduleField(input.Schedule, err), err)
			return
		}
	}

	switch {
	case input.RSVPDeadline == nil:
		_ = draft.ClearRSVPDeadline()
	case existing != nil && !scheduleChanged && sameTime(existing.RSVPDeadline, input.RSVPDeadline):
	default:
		if err := draft.SetRSVPDeadline(*input.RSVPDeadline); err != nil {
			vErr.addSchedule("rsvp_deadline", err)
		}
	}
}

// checkCohosts verifies registered cohosts exist and are not the host.
func (s *EventService) checkCohosts(ctx context.Context, hostID string, cohosts []schedule.Cohost, vErr *ValidationError) {
	ids := registeredCohosts(cohosts)
	for _, id := range ids {
		if id == hostID {
			vErr.add("cohosts", "The host can't also be a cohost.")
			return
		}
	}
	if len(ids) == 0 {
		return
	}
	missing, err := s.users.MissingUserIDs(ctx, ids)
	if err != nil {
		vErr.add("cohosts", "Cohosts could not be checked.")
		return
	}
	if len(missing) > 0 {
		vErr.add("cohosts", "Unknown user: "+strings.Join(missing, ", "))
	}
}

// finishDraft submits draft and publishes or saves it.
func finishDraft(draft *schedule.Draft, publish bool) (schedule.Submission, error) {
	if err := draft.Submit(); err != nil {
		if errors.Is(err, schedule.ErrSubmitDisabled) {
			if strings.TrimSpace(draft.Title()) == "" {
				return schedule.Submission{}, newValidationError("title", "Title is required.")
			}
			return schedule.Submission{}, newValidationError("start", schedule.Message(schedule.ErrSubmitDisabled))
		}
		return schedule.Submission{}, err
	}
	if !publish {
		return draft.SaveDraft()
	}
	sub, err := draft.Publish()
	if err != nil {
		if field := spanField(err); field != "" {
			v := &ValidationError{}
			v.addSchedule(field, err)
			return schedule.Submission{}, v
		}
		return schedule.Submission{}, err
	}
	return sub, nil
}

func (s *EventService) detectConflicts(ctx context.Context, userID string, event Event) ([]ConflictWarning, error) {
	candidate := scheduler.Booking{EventID: event.ID, Title: event.Title, Role: scheduler.RoleHost, Start: event.Start}
	if event.End != nil {
		candidate.End = *event.End
	}
	after := event.Start.Add(-conflictLookback)
	before := event.Start.Add(scheduler.DefaultDuration)
	if event.End != nil && event.End.After(before) {
		before = *event.End
	}

	relations := []struct {
		relation persistence.EventRelation
		role     scheduler.Role
	}{
		{persistence.RelationHosting, scheduler.RoleHost},
		{persistence.RelationCohosting, scheduler.RoleCohost},
		{persistence.RelationAttending, scheduler.RoleGuest},
	}

	var bookings []scheduler.Booking
	for _, rel := range relations {
		records, err := s.events.ListEvents(ctx, persistence.EventFilter{
			UserID:       userID,
			Relation:     rel.relation,
			StartsAfter:  &after,
			StartsBefore: &before,
		})
		if err != nil {
			return nil, mapRepoError(err)
		}
		for _, record := range records {
			booking := scheduler.Booking{EventID: record.ID, Title: record.Title, Role: rel.role, Start: record.StartsAt}
			if record.EndsAt != nil {
				booking.End = *record.EndsAt
			}
			bookings = append(bookings, booking)
		}
	}

	conflicts := scheduler.DetectConflicts(bookings, candidate)
	if len(conflicts) == 0 {
		return nil, nil
	}
	warnings := make([]ConflictWarning, 0, len(conflicts))
	for _, c := range conflicts {
		warnings = append(warnings, ConflictWarning{
			EventID: c.WithEventID,
			Title:   c.Title,
			Role:    string(c.Role),
			Start:   c.Start,
			End:     c.End,
		})
	}
	return warnings, nil
}

func (s *EventService) notifyCohosts(ctx context.Context, logger *slog.Logger, event Event, actorID string, userIDs []string) {
	if s.notifications == nil || len(userIDs) == 0 {
		return
	}
	actor := s.displayName(ctx, actorID)
	eventID := event.ID
	for _, userID := range userIDs {
		if userID == actorID {
			continue
		}
		actorRef := actorID
		err := s.notifications.CreateNotification(ctx, persistence.Notification{
			ID:        s.idGenerator(),
			UserID:    userID,
			Kind:      persistence.NotificationCohostAdded,
			EventID:   &eventID,
			ActorID:   &actorRef,
			Message:   fmt.Sprintf("%s added you as a cohost of %s.", actor, event.Title),
			CreatedAt: s.now(),
		})
		if err != nil {
			logger.WarnContext(ctx, "cohost notification failed", "cohost_id", userID, "error", err)
		}
	}
}

func (s *EventService) displayName(ctx context.Context, userID string) string {
	if s.users == nil || userID == "" {
		return "Someone"
	}
	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return "Someone"
	}
	return userFromRecord(user).DisplayName()
}

// visible returns event when principal may see it and ErrNotFound otherwise.
func (s *EventService) visible(ctx context.Context, principal Principal, event Event) (Event, error) {
	if canEdit(event, principal.UserID) {
		return event, nil
	}
	if !event.Published() {
		return Event{}, ErrNotFound
	}
	if event.Public {
		return event, nil
	}
	if principal.UserID == "" || s.invitations == nil {
		return Event{}, ErrNotFound
	}
	if _, err := s.invitations.GetInvitationForUser(ctx, event.ID, principal.UserID); err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return Event{}, ErrNotFound
		}
		return Event{}, err
	}
	return event, nil
}

func isHost(event Event, userID string) bool {
	return userID != "" && event.HostID == userID
}

func isCohost(event Event, userID string) bool {
	if userID == "" {
		return false
	}
	for _, c := range event.Cohosts {
		if c.UserID == userID {
			return true
		}
	}
	return false
}

func canEdit(event Event, userID string) bool {
	return isHost(event, userID) || isCohost(event, userID)
}

// visibleError hides events the principal cannot see and forbids the rest.
func visibleError(event Event, userID string) error {
	if canEdit(event, userID) || (event.Published() && event.Public) {
		return ErrUnauthorized
	}
	return ErrNotFound
}

func registeredCohosts(cohosts []schedule.Cohost) []string {
	var ids []string
	for _, c := range cohosts {
		if c.IsUser() {
			ids = append(ids, c.UserID)
		}
	}
	return ids
}

func difference(values, remove []string) []string {
	drop := make(map[string]struct{}, len(remove))
	for _, v := range remove {
		drop[v] = struct{}{}
	}
	var out []string
	for _, v := range values {
		if _, ok := drop[v]; !ok {
			out = append(out, v)
		}
	}
	return out
}

func statusFor(final bool) string {
	if final {
		return persistence.EventStatusPublished
	}
	return persistence.EventStatusDraft
}

// scheduleField names the input field a schedule error belongs to.
func scheduleField(s schedule.EventSchedule, err error) string {
	if errors.Is(err, schedule.ErrMalformedTimeLabel) || errors.Is(err, schedule.ErrInvalidDate) {
		if _, startErr := s.Start(); startErr != nil {
			return "start"
		}
		return "end"
	}
	if field := spanField(err); field != "" {
		return field
	}
	return "start"
}

func spanField(err error) string {
	switch {
	case errors.Is(err, schedule.ErrPastStartTime), errors.Is(err, schedule.ErrInvalidDate):
		return "start"
	case errors.Is(err, schedule.ErrEndBeforeMinimumDuration):
		return "end"
	default:
		return ""
	}
}

func sameSpan(a, b schedule.Span) bool {
	if !a.Start.Equal(b.Start) || a.HasEnd != b.HasEnd {
		return false
	}
	return !a.HasEnd || a.End.Equal(b.End)
}

func sameTime(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}

func locationText(loc schedule.Location) string {
	switch {
	case loc.Name != "" && loc.Address != "":
		return loc.Name + ", " + loc.Address
	case loc.Name != "":
		return loc.Name
	default:
		return loc.Address
	}
}
