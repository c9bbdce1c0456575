package http

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/NTMQuannuaQMTN/sizzl-prototype-sub000/internal/application"
)

type profileService interface {
	GetProfile(ctx context.Context, userID string) (application.User, error)
	UpdateProfile(ctx context.Context, principal application.Principal, input application.ProfileInput) (application.User, error)
	SearchUsers(ctx context.Context, principal application.Principal, query string, limit int) ([]application.User, error)
}

// ProfileHandler serves the signed-in user's profile and the user directory.
type ProfileHandler struct {
	service   profileService
	responder responder
	logger    *slog.Logger
}

func NewProfileHandler(service profileService, logger *slog.Logger) *ProfileHandler {
	base := defaultLogger(logger)
	return &ProfileHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *ProfileHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "ProfileHandler", operation, attrs...)
}

func (h *ProfileHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	user, err := h.service.GetProfile(r.Context(), principal.UserID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, userResponse{User: toUserDTO(user)})
}

// UpdateMe completes or edits the profile. The first successful update ends onboarding.
func (h *ProfileHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req profileRequest
	if err := decodeJSON(r, &req); err != nil {
		h.log(r.Context(), "UpdateMe", "principal_id", principal.UserID, "error_kind", "bad_request").WarnContext(r.Context(), "failed to decode profile update", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	user, err := h.service.UpdateProfile(r.Context(), principal, req.toInput())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, userResponse{User: toUserDTO(user)})
}

// Search finds other users by username or name for cohost and invitation pickers.
func (h *ProfileHandler) Search(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	query := r.URL.Query()
	limit, _ := strconv.Atoi(strings.TrimSpace(query.Get("limit")))

	users, err := h.service.SearchUsers(r.Context(), principal, query.Get("q"), limit)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	out := make([]userDTO, 0, len(users))
	for _, user := range users {
		out = append(out, toPublicUserDTO(user))
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listUsersResponse{Users: out})
}

func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request, userID string) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	user, err := h.service.GetProfile(r.Context(), userID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, userResponse{User: toPublicUserDTO(user)})
}

type profileRequest struct {
	Username     string `json:"username"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	ContactEmail string `json:"contact_email"`
	Bio          string `json:"bio"`
	AvatarURL    string `json:"avatar_url"`
}

func (r profileRequest) toInput() application.ProfileInput {
	return application.ProfileInput{
		Username:     r.Username,
		FirstName:    r.FirstName,
		LastName:     r.LastName,
		ContactEmail: r.ContactEmail,
		Bio:          r.Bio,
		AvatarURL:    r.AvatarURL,
	}
}

type userResponse struct {
	User userDTO `json:"user"`
}

type listUsersResponse struct {
	Users []userDTO `json:"users"`
}

type userDTO struct {
	ID           string `json:"id"`
	Email        string `json:"email,omitempty"`
	Username     string `json:"username,omitempty"`
	DisplayName  string `json:"display_name"`
	FirstName    string `json:"first_name,omitempty"`
	LastName     string `json:"last_name,omitempty"`
	ContactEmail string `json:"contact_email,omitempty"`
	Bio          string `json:"bio,omitempty"`
	AvatarURL    string `json:"avatar_url,omitempty"`
	NeedsProfile bool   `json:"needs_profile,omitempty"`
	CreatedAt    string `json:"created_at,omitempty"`
}

func toUserDTO(user application.User) userDTO {
	return userDTO{
		ID:           user.ID,
		Email:        user.Email,
		Username:     user.Username,
		DisplayName:  user.DisplayName(),
		FirstName:    user.FirstName,
		LastName:     user.LastName,
		ContactEmail: user.ContactEmail,
		Bio:          user.Bio,
		AvatarURL:    user.AvatarURL,
		NeedsProfile: user.NeedsProfile,
		CreatedAt:    formatTimestamp(user.CreatedAt),
	}
}

// toPublicUserDTO hides the sign-in address of other users.
func toPublicUserDTO(user application.User) userDTO {
	dto := toUserDTO(user)
	dto.Email = ""
	dto.NeedsProfile = false
	if user.Username == "" && user.FirstName == "" && user.LastName == "" {
		dto.DisplayName = "Someone"
	}
	return dto
}
