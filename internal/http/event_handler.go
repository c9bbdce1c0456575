package http

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/NTMQuannuaQMTN/sizzl-prototype-sub000/internal/application"
	"github.com/NTMQuannuaQMTN/sizzl-prototype-sub000/internal/schedule"
)

const dateLayout = "2006-01-02"

type eventService interface {
	CreateEvent(ctx context.Context, principal application.Principal, input application.EventInput, publish bool) (application.EventResult, error)
	UpdateEvent(ctx context.Context, principal application.Principal, eventID string, input application.EventInput) (application.EventResult, error)
	PublishEvent(ctx context.Context, principal application.Principal, eventID string) (application.EventResult, error)
	DeleteEvent(ctx context.Context, principal application.Principal, eventID string) error
	GetEvent(ctx context.Context, principal application.Principal, eventID string) (application.Event, error)
	GetEventBySlug(ctx context.Context, principal application.Principal, slug string) (application.Event, error)
	ListEvents(ctx context.Context, params application.ListEventsParams) ([]application.Event, error)
	ExportCalendar(ctx context.Context, principal application.Principal, eventID string) (string, error)
}

// EventHandler serves event authoring, lookup and listing. Calendar dates in
// requests and formatted labels in responses use the configured location.
type EventHandler struct {
	service   eventService
	location  *time.Location
	responder responder
	logger    *slog.Logger
}

func NewEventHandler(service eventService, location *time.Location, logger *slog.Logger) *EventHandler {
	if location == nil {
		location = time.UTC
	}
	base := defaultLogger(logger)
	return &EventHandler{service: service, location: location, responder: newResponder(base), logger: base}
}

func (h *EventHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "EventHandler", operation, attrs...)
}

func (h *EventHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req eventRequest
	if err := decodeJSON(r, &req); err != nil {
		h.log(r.Context(), "Create", "principal_id", principal.UserID, "error_kind", "bad_request").WarnContext(r.Context(), "failed to decode event request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}
	input, vErr := req.toInput(h.location)
	if vErr != nil {
		h.responder.handleServiceError(r.Context(), w, vErr)
		return
	}

	publish := req.Publish == nil || *req.Publish
	result, err := h.service.CreateEvent(r.Context(), principal, input, publish)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.renderResult(r.Context(), w, http.StatusCreated, result)
}

func (h *EventHandler) Get(w http.ResponseWriter, r *http.Request, eventID string) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	event, err := h.service.GetEvent(r.Context(), principal, eventID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, eventResponse{Event: toEventDTO(event, h.location)})
}

func (h *EventHandler) GetBySlug(w http.ResponseWriter, r *http.Request, slug string) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	event, err := h.service.GetEventBySlug(r.Context(), principal, slug)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, eventResponse{Event: toEventDTO(event, h.location)})
}

func (h *EventHandler) Update(w http.ResponseWriter, r *http.Request, eventID string) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req eventRequest
	if err := decodeJSON(r, &req); err != nil {
		h.log(r.Context(), "Update", "principal_id", principal.UserID, "event_id", eventID, "error_kind", "bad_request").WarnContext(r.Context(), "failed to decode event update", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}
	input, vErr := req.toInput(h.location)
	if vErr != nil {
		h.responder.handleServiceError(r.Context(), w, vErr)
		return
	}

	result, err := h.service.UpdateEvent(r.Context(), principal, eventID, input)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.renderResult(r.Context(), w, http.StatusOK, result)
}

func (h *EventHandler) Publish(w http.ResponseWriter, r *http.Request, eventID string) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	result, err := h.service.PublishEvent(r.Context(), principal, eventID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.renderResult(r.Context(), w, http.StatusOK, result)
}

func (h *EventHandler) Delete(w http.ResponseWriter, r *http.Request, eventID string) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	if err := h.service.DeleteEvent(r.Context(), principal, eventID); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

// List serves GET /events?relation=&period=&limit=.
func (h *EventHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	query := r.URL.Query()
	limit, _ := strconv.Atoi(strings.TrimSpace(query.Get("limit")))

	events, err := h.service.ListEvents(r.Context(), application.ListEventsParams{
		Principal: principal,
		Relation:  query.Get("relation"),
		Period:    application.ListPeriod(strings.ToLower(strings.TrimSpace(query.Get("period")))),
		Limit:     limit,
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	out := make([]eventDTO, 0, len(events))
	for _, event := range events {
		out = append(out, toEventDTO(event, h.location))
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listEventsResponse{Events: out})
}

// Calendar serves the event as a downloadable .ics file.
func (h *EventHandler) Calendar(w http.ResponseWriter, r *http.Request, eventID string) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	doc, err := h.service.ExportCalendar(r.Context(), principal, eventID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="event.ics"`)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(doc)); err != nil {
		h.log(r.Context(), "Calendar", "event_id", eventID).WarnContext(r.Context(), "failed to write calendar", "error", err)
	}
}

func (h *EventHandler) renderResult(ctx context.Context, w http.ResponseWriter, status int, result application.EventResult) {
	h.responder.writeJSON(ctx, w, status, eventResponse{
		Event:    toEventDTO(result.Event, h.location),
		Warnings: toWarningDTOs(result.Warnings),
	})
}

type eventRequest struct {
	scheduleDTO
	Title        string      `json:"title"`
	Public       *bool       `json:"public"`
	ImageURL     string      `json:"image_url"`
	Bio          string      `json:"bio"`
	RSVPDeadline *string     `json:"rsvp_deadline"`
	Location     locationDTO `json:"location"`
	Cohosts      []cohostDTO `json:"cohosts"`
	Perks        []perkDTO   `json:"perks"`
	Publish      *bool       `json:"publish,omitempty"`
}

// toInput converts the request. Unparseable dates are left zero so the
// scheduling rules report them on the matching field.
func (r eventRequest) toInput(loc *time.Location) (application.EventInput, *application.ValidationError) {
	input := application.EventInput{
		Title:    r.Title,
		Public:   r.Public == nil || *r.Public,
		ImageURL: r.ImageURL,
		Bio:      r.Bio,
		Schedule: r.toSchedule(loc),
		Location: r.Location.toLocation(),
	}
	for _, c := range r.Cohosts {
		input.Cohosts = append(input.Cohosts, schedule.Cohost{UserID: c.UserID, Label: c.Label})
	}
	for _, p := range r.Perks {
		input.Perks = append(input.Perks, schedule.Perk{Kind: schedule.PerkKind(strings.TrimSpace(p.Kind)), Detail: p.Detail})
	}

	if r.RSVPDeadline != nil && strings.TrimSpace(*r.RSVPDeadline) != "" {
		deadline, err := time.Parse(time.RFC3339, strings.TrimSpace(*r.RSVPDeadline))
		if err != nil {
			return application.EventInput{}, &application.ValidationError{FieldErrors: map[string]string{
				"rsvp_deadline": "Use an RFC 3339 timestamp.",
			}}
		}
		input.RSVPDeadline = &deadline
	}
	return input, nil
}

func parseDate(value string, loc *time.Location) time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}
	}
	t, err := time.ParseInLocation(dateLayout, value, loc)
	if err != nil {
		return time.Time{}
	}
	return t
}

type eventResponse struct {
	Event    eventDTO             `json:"event"`
	Warnings []conflictWarningDTO `json:"warnings,omitempty"`
}

type listEventsResponse struct {
	Events []eventDTO `json:"events"`
}

type locationDTO struct {
	Name      string   `json:"name"`
	Address   string   `json:"address"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
}

func (l locationDTO) toLocation() schedule.Location {
	loc := schedule.Location{Name: l.Name, Address: l.Address}
	if l.Latitude != nil && l.Longitude != nil {
		loc.Coords = &schedule.Coordinates{Latitude: *l.Latitude, Longitude: *l.Longitude}
	}
	return loc
}

type cohostDTO struct {
	UserID string `json:"user_id,omitempty"`
	Label  string `json:"label,omitempty"`
}

type perkDTO struct {
	Kind   string `json:"kind"`
	Detail string `json:"detail,omitempty"`
}

type eventDTO struct {
	ID           string      `json:"id"`
	Slug         string      `json:"slug"`
	HostID       string      `json:"host_id"`
	Title        string      `json:"title"`
	Bio          string      `json:"bio,omitempty"`
	ImageURL     string      `json:"image_url,omitempty"`
	Public       bool        `json:"public"`
	Status       string      `json:"status"`
	Start        string      `json:"start"`
	End          *string     `json:"end,omitempty"`
	RSVPDeadline *string     `json:"rsvp_deadline,omitempty"`
	RSVPClosesAt string      `json:"rsvp_closes_at"`
	FullDate     string      `json:"full_date"`
	TimeRange    string      `json:"time_range"`
	RSVPDate     string      `json:"rsvp_date"`
	Location     locationDTO `json:"location"`
	Cohosts      []cohostDTO `json:"cohosts"`
	Perks        []perkDTO   `json:"perks"`
	CreatedAt    string      `json:"created_at"`
	UpdatedAt    string      `json:"updated_at"`
}

func toEventDTO(event application.Event, loc *time.Location) eventDTO {
	dto := eventDTO{
		ID:           event.ID,
		Slug:         event.Slug,
		HostID:       event.HostID,
		Title:        event.Title,
		Bio:          event.Bio,
		ImageURL:     event.ImageURL,
		Public:       event.Public,
		Status:       event.Status,
		Start:        formatTimestamp(event.Start),
		End:          formatTimestampPtr(event.End),
		RSVPDeadline: formatTimestampPtr(event.RSVPDeadline),
		RSVPClosesAt: formatTimestamp(event.RSVPClosesAt()),
		Location:     locationDTO{Name: event.Location.Name, Address: event.Location.Address},
		Cohosts:      make([]cohostDTO, 0, len(event.Cohosts)),
		Perks:        make([]perkDTO, 0, len(event.Perks)),
		CreatedAt:    formatTimestamp(event.CreatedAt),
		UpdatedAt:    formatTimestamp(event.UpdatedAt),
	}
	if coords := event.Location.Coords; coords != nil {
		lat, lng := coords.Latitude, coords.Longitude
		dto.Location.Latitude, dto.Location.Longitude = &lat, &lng
	}
	for _, c := range event.Cohosts {
		dto.Cohosts = append(dto.Cohosts, cohostDTO{UserID: c.UserID, Label: c.Label})
	}
	for _, p := range event.Perks {
		dto.Perks = append(dto.Perks, perkDTO{Kind: string(p.Kind), Detail: p.Detail})
	}

	span := event.Span()
	span.Start = span.Start.In(loc)
	span.End = span.End.In(loc)
	dto.FullDate, _ = schedule.FormatFullDate(span.Start)
	dto.TimeRange, _ = schedule.FormatTimeRange(span)
	dto.RSVPDate, _ = schedule.FormatRSVPDate(event.RSVPClosesAt().In(loc))
	return dto
}

type conflictWarningDTO struct {
	EventID string  `json:"event_id"`
	Title   string  `json:"title"`
	Role    string  `json:"role"`
	Start   string  `json:"start"`
	End     *string `json:"end,omitempty"`
}

func toWarningDTOs(warnings []application.ConflictWarning) []conflictWarningDTO {
	if len(warnings) == 0 {
		return nil
	}
	out := make([]conflictWarningDTO, 0, len(warnings))
	for _, warning := range warnings {
		dto := conflictWarningDTO{
			EventID: warning.EventID,
			Title:   warning.Title,
			Role:    warning.Role,
			Start:   formatTimestamp(warning.Start),
		}
		if !warning.End.IsZero() {
			end := formatTimestamp(warning.End)
			dto.End = &end
		}
		out = append(out, dto)
	}
	return out
}
