package http

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/NTMQuannuaQMTN/sizzl-prototype-sub000/internal/application"
	"github.com/NTMQuannuaQMTN/sizzl-prototype-sub000/internal/schedule"
)

// ScheduleHandler exposes the date and time picker rules so clients offer the
// same choices the server accepts.
type ScheduleHandler struct {
	location  *time.Location
	now       func() time.Time
	responder responder
}

func NewScheduleHandler(location *time.Location, now func() time.Time, logger *slog.Logger) *ScheduleHandler {
	if location == nil {
		location = time.UTC
	}
	if now == nil {
		now = time.Now
	}
	return &ScheduleHandler{location: location, now: now, responder: newResponder(logger)}
}

// Slots lists the selectable times of day and the suggested schedule for a new event.
func (h *ScheduleHandler) Slots(w http.ResponseWriter, r *http.Request) {
	slots := schedule.Slots()
	labels := make([]string, 0, len(slots))
	for _, slot := range slots {
		labels = append(labels, slot.String())
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, slotsResponse{
		Slots:    labels,
		Default:  toScheduleDTO(schedule.DefaultSchedule(h.now().In(h.location))),
		Timezone: h.location.String(),
	})
}

// Validate checks a schedule selection and an optional RSVP deadline.
func (h *ScheduleHandler) Validate(w http.ResponseWriter, r *http.Request) {
	var req validateScheduleRequest
	if err := decodeJSON(r, &req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	selection := req.toSchedule(h.location)
	now := h.now()
	span, err := schedule.ValidateSchedule(selection, now)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, scheduleValidationError(selection, err))
		return
	}

	window := schedule.WindowFor(span.Start).NotBefore(now)
	local := schedule.Span{Start: span.Start.In(h.location), End: span.End.In(h.location), HasEnd: span.HasEnd}
	resp := validateScheduleResponse{
		Start: formatTimestamp(span.Start),
		RSVPWindow: rsvpWindowDTO{
			Earliest: formatTimestamp(window.Earliest),
			Latest:   formatTimestamp(window.Latest),
		},
	}
	if span.HasEnd {
		end := formatTimestamp(span.End)
		resp.End = &end
	}
	resp.FullDate, _ = schedule.FormatFullDate(local.Start)
	resp.TimeRange, _ = schedule.FormatTimeRange(local)

	closes := span.Start
	if raw := strings.TrimSpace(req.RSVPDeadline); raw != "" {
		deadline, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			h.responder.handleServiceError(r.Context(), w, fieldError("rsvp_deadline", "Use an RFC 3339 timestamp."))
			return
		}
		if err := window.Check(deadline); err != nil {
			h.responder.handleServiceError(r.Context(), w, fieldError("rsvp_deadline", schedule.Message(err)))
			return
		}
		closes = deadline
		resp.RSVPDeadline = formatTimestampPtr(&deadline)
	}
	resp.RSVPDate, _ = schedule.FormatRSVPDate(closes.In(h.location))

	h.responder.writeJSON(r.Context(), w, http.StatusOK, resp)
}

func scheduleValidationError(s schedule.EventSchedule, err error) error {
	field := "start"
	switch {
	case errors.Is(err, schedule.ErrEndBeforeMinimumDuration):
		field = "end"
	case errors.Is(err, schedule.ErrMalformedTimeLabel), errors.Is(err, schedule.ErrInvalidDate):
		if _, startErr := s.Start(); startErr == nil {
			field = "end"
		}
	}
	return fieldError(field, schedule.Message(err))
}

func fieldError(field, message string) *application.ValidationError {
	return &application.ValidationError{FieldErrors: map[string]string{field: message}}
}

type validateScheduleRequest struct {
	scheduleDTO
	RSVPDeadline string `json:"rsvp_deadline"`
}

type scheduleDTO struct {
	StartDate string `json:"start_date"`
	StartTime string `json:"start_time"`
	EndDate   string `json:"end_date"`
	EndTime   string `json:"end_time"`
	EndIsSet  bool   `json:"end_is_set"`
}

func (d scheduleDTO) toSchedule(loc *time.Location) schedule.EventSchedule {
	s := schedule.EventSchedule{
		StartDate: parseDate(d.StartDate, loc),
		StartTime: schedule.TimeSlot(strings.TrimSpace(d.StartTime)),
		EndDate:   parseDate(d.EndDate, loc),
		EndTime:   schedule.TimeSlot(strings.TrimSpace(d.EndTime)),
		EndIsSet:  d.EndIsSet,
	}
	if s.EndIsSet && strings.TrimSpace(d.EndDate) == "" {
		s.EndDate = s.StartDate
	}
	return s
}

func toScheduleDTO(s schedule.EventSchedule) scheduleDTO {
	return scheduleDTO{
		StartDate: s.StartDate.Format(dateLayout),
		StartTime: s.StartTime.String(),
		EndDate:   s.EndDate.Format(dateLayout),
		EndTime:   s.EndTime.String(),
		EndIsSet:  s.EndIsSet,
	}
}

type slotsResponse struct {
	Slots    []string    `json:"slots"`
	Default  scheduleDTO `json:"default"`
	Timezone string      `json:"timezone"`
}

type rsvpWindowDTO struct {
	Earliest string `json:"earliest"`
	Latest   string `json:"latest"`
}

type validateScheduleResponse struct {
	Start        string        `json:"start"`
	End          *string       `json:"end,omitempty"`
	FullDate     string        `json:"full_date"`
	TimeRange    string        `json:"time_range"`
	RSVPWindow   rsvpWindowDTO `json:"rsvp_window"`
	RSVPDeadline *string       `json:"rsvp_deadline,omitempty"`
	RSVPDate     string        `json:"rsvp_date"`
}
