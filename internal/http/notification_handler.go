package http

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/NTMQuannuaQMTN/sizzl-prototype-sub000/internal/application"
)

type notificationService interface {
	List(ctx context.Context, principal application.Principal, unreadOnly bool, limit int) ([]application.Notification, error)
	MarkRead(ctx context.Context, principal application.Principal, id string) error
	MarkAllRead(ctx context.Context, principal application.Principal) (int64, error)
}

type NotificationHandler struct {
	service   notificationService
	responder responder
}

func NewNotificationHandler(service notificationService, logger *slog.Logger) *NotificationHandler {
	return &NotificationHandler{service: service, responder: newResponder(logger)}
}

// List serves GET /notifications?unread=true&limit=.
func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	query := r.URL.Query()
	unread, _ := strconv.ParseBool(strings.TrimSpace(query.Get("unread")))
	limit, _ := strconv.Atoi(strings.TrimSpace(query.Get("limit")))

	notifications, err := h.service.List(r.Context(), principal, unread, limit)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	out := make([]notificationDTO, 0, len(notifications))
	for _, n := range notifications {
		out = append(out, notificationDTO{
			ID:        n.ID,
			Kind:      n.Kind,
			EventID:   n.EventID,
			ActorID:   n.ActorID,
			Message:   n.Message,
			CreatedAt: formatTimestamp(n.CreatedAt),
			ReadAt:    formatTimestampPtr(n.ReadAt),
		})
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listNotificationsResponse{Notifications: out})
}

func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request, id string) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	if err := h.service.MarkRead(r.Context(), principal, id); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

func (h *NotificationHandler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	updated, err := h.service.MarkAllRead(r.Context(), principal)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, markAllReadResponse{Updated: updated})
}

type listNotificationsResponse struct {
	Notifications []notificationDTO `json:"notifications"`
}

type markAllReadResponse struct {
	Updated int64 `json:"updated"`
}

type notificationDTO struct {
	ID        string  `json:"id"`
	Kind      string  `json:"kind"`
	EventID   string  `json:"event_id,omitempty"`
	ActorID   string  `json:"actor_id,omitempty"`
	Message   string  `json:"message"`
	CreatedAt string  `json:"created_at"`
	ReadAt    *string `json:"read_at,omitempty"`
}
