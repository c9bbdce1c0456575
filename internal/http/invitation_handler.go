package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/NTMQuannuaQMTN/sizzl-prototype-sub000/internal/application"
)

type invitationService interface {
	Invite(ctx context.Context, principal application.Principal, eventID string, userIDs []string) ([]application.Invitation, error)
	AcceptInvitation(ctx context.Context, principal application.Principal, code string) (application.Invitation, error)
	DeclineInvitation(ctx context.Context, principal application.Principal, code string) (application.Invitation, error)
	ListInvitations(ctx context.Context, principal application.Principal) ([]application.Invitation, error)
}

type InvitationHandler struct {
	service   invitationService
	responder responder
	logger    *slog.Logger
}

func NewInvitationHandler(service invitationService, logger *slog.Logger) *InvitationHandler {
	base := defaultLogger(logger)
	return &InvitationHandler{service: service, responder: newResponder(base), logger: base}
}

// Create invites users to an event. Already invited users are skipped.
func (h *InvitationHandler) Create(w http.ResponseWriter, r *http.Request, eventID string) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req inviteRequest
	if err := decodeJSON(r, &req); err != nil {
		handlerLogger(r.Context(), h.logger, "InvitationHandler", "Create", "event_id", eventID).WarnContext(r.Context(), "failed to decode invite request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	created, err := h.service.Invite(r.Context(), principal, eventID, req.UserIDs)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, listInvitationsResponse{Invitations: toInvitationDTOs(created)})
}

func (h *InvitationHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	invitations, err := h.service.ListInvitations(r.Context(), principal)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listInvitationsResponse{Invitations: toInvitationDTOs(invitations)})
}

func (h *InvitationHandler) Accept(w http.ResponseWriter, r *http.Request, code string) {
	h.answer(w, r, code, true)
}

func (h *InvitationHandler) Decline(w http.ResponseWriter, r *http.Request, code string) {
	h.answer(w, r, code, false)
}

func (h *InvitationHandler) answer(w http.ResponseWriter, r *http.Request, code string, accept bool) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	answer := h.service.DeclineInvitation
	if accept {
		answer = h.service.AcceptInvitation
	}
	invitation, err := answer(r.Context(), principal, code)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, invitationResponse{Invitation: toInvitationDTO(invitation)})
}

type inviteRequest struct {
	UserIDs []string `json:"user_ids"`
}

type invitationResponse struct {
	Invitation invitationDTO `json:"invitation"`
}

type listInvitationsResponse struct {
	Invitations []invitationDTO `json:"invitations"`
}

type invitationDTO struct {
	ID          string  `json:"id"`
	Code        string  `json:"code"`
	EventID     string  `json:"event_id"`
	EventTitle  string  `json:"event_title"`
	EventStart  string  `json:"event_start"`
	InviterID   string  `json:"inviter_id"`
	InviteeID   string  `json:"invitee_id"`
	Status      string  `json:"status"`
	CreatedAt   string  `json:"created_at"`
	RespondedAt *string `json:"responded_at,omitempty"`
}

func toInvitationDTO(i application.Invitation) invitationDTO {
	return invitationDTO{
		ID:          i.ID,
		Code:        i.Code,
		EventID:     i.EventID,
		EventTitle:  i.EventTitle,
		EventStart:  formatTimestamp(i.EventStart),
		InviterID:   i.InviterID,
		InviteeID:   i.InviteeID,
		Status:      i.Status,
		CreatedAt:   formatTimestamp(i.CreatedAt),
		RespondedAt: formatTimestampPtr(i.RespondedAt),
	}
}

func toInvitationDTOs(invitations []application.Invitation) []invitationDTO {
	out := make([]invitationDTO, 0, len(invitations))
	for _, i := range invitations {
		out = append(out, toInvitationDTO(i))
	}
	return out
}
