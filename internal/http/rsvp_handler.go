package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/NTMQuannuaQMTN/sizzl-prototype-sub000/internal/application"
)

type rsvpService interface {
	Respond(ctx context.Context, principal application.Principal, eventID, status string) (application.RSVP, error)
	Withdraw(ctx context.Context, principal application.Principal, eventID string) error
	GetRSVP(ctx context.Context, principal application.Principal, eventID string) (application.RSVP, error)
	ListGuests(ctx context.Context, principal application.Principal, eventID string) ([]application.Guest, error)
}

type RSVPHandler struct {
	service   rsvpService
	responder responder
}

func NewRSVPHandler(service rsvpService, logger *slog.Logger) *RSVPHandler {
	return &RSVPHandler{service: service, responder: newResponder(logger)}
}

func (h *RSVPHandler) Get(w http.ResponseWriter, r *http.Request, eventID string) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	rsvp, err := h.service.GetRSVP(r.Context(), principal, eventID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, rsvpResponse{RSVP: toRSVPDTO(rsvp)})
}

func (h *RSVPHandler) Put(w http.ResponseWriter, r *http.Request, eventID string) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req rsvpRequest
	if err := decodeJSON(r, &req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	rsvp, err := h.service.Respond(r.Context(), principal, eventID, req.Status)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, rsvpResponse{RSVP: toRSVPDTO(rsvp)})
}

func (h *RSVPHandler) Delete(w http.ResponseWriter, r *http.Request, eventID string) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	if err := h.service.Withdraw(r.Context(), principal, eventID); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

func (h *RSVPHandler) Guests(w http.ResponseWriter, r *http.Request, eventID string) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	guests, err := h.service.ListGuests(r.Context(), principal, eventID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	resp := guestsResponse{Guests: make([]guestDTO, 0, len(guests))}
	for _, g := range guests {
		resp.Counts.add(g.Status)
		resp.Guests = append(resp.Guests, guestDTO{
			UserID:      g.UserID,
			Username:    g.Username,
			DisplayName: g.DisplayName,
			AvatarURL:   g.AvatarURL,
			Status:      g.Status,
			RespondedAt: formatTimestamp(g.RespondedAt),
		})
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, resp)
}

type rsvpRequest struct {
	Status string `json:"status"`
}

type rsvpResponse struct {
	RSVP rsvpDTO `json:"rsvp"`
}

type rsvpDTO struct {
	EventID   string `json:"event_id"`
	UserID    string `json:"user_id"`
	Status    string `json:"status"`
	UpdatedAt string `json:"updated_at"`
}

func toRSVPDTO(rsvp application.RSVP) rsvpDTO {
	return rsvpDTO{
		EventID:   rsvp.EventID,
		UserID:    rsvp.UserID,
		Status:    rsvp.Status,
		UpdatedAt: formatTimestamp(rsvp.UpdatedAt),
	}
}

type guestsResponse struct {
	Guests []guestDTO  `json:"guests"`
	Counts guestCounts `json:"counts"`
}

type guestCounts struct {
	Going    int `json:"going"`
	Maybe    int `json:"maybe"`
	NotGoing int `json:"not_going"`
}

func (c *guestCounts) add(status string) {
	switch status {
	case application.RSVPGoing:
		c.Going++
	case application.RSVPMaybe:
		c.Maybe++
	case application.RSVPNotGoing:
		c.NotGoing++
	}
}

type guestDTO struct {
	UserID      string `json:"user_id"`
	Username    string `json:"username,omitempty"`
	DisplayName string `json:"display_name"`
	AvatarURL   string `json:"avatar_url,omitempty"`
	Status      string `json:"status"`
	RespondedAt string `json:"responded_at"`
}
