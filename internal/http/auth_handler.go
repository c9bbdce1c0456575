package http

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/NTMQuannuaQMTN/sizzl-prototype-sub000/internal/application"
)

type authService interface {
	RequestCode(ctx context.Context, email string) (time.Time, error)
	VerifyCode(ctx context.Context, email, code string) (application.AuthResult, error)
	RefreshSession(ctx context.Context, token string) (application.AuthResult, error)
	RevokeSession(ctx context.Context, token string) error
}

// AuthHandler serves the email code login flow and session management.
type AuthHandler struct {
	service       authService
	secureCookies bool
	responder     responder
	logger        *slog.Logger
}

// NewAuthHandler builds an AuthHandler. secureCookies marks the session cookie Secure.
func NewAuthHandler(service authService, secureCookies bool, logger *slog.Logger) *AuthHandler {
	base := defaultLogger(logger)
	return &AuthHandler{service: service, secureCookies: secureCookies, responder: newResponder(base), logger: base}
}

func (h *AuthHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "AuthHandler", operation, attrs...)
}

// RequestCode mails a one-time login code to a school address.
func (h *AuthHandler) RequestCode(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req codeRequest
	if err := decodeJSON(r, &req); err != nil {
		h.log(r.Context(), "RequestCode", "error_kind", "bad_request").WarnContext(r.Context(), "failed to decode code request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	expiresAt, err := h.service.RequestCode(r.Context(), req.Email)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusAccepted, codeResponse{ExpiresAt: formatTimestamp(expiresAt)})
}

// Verify exchanges a login code for a session token.
func (h *AuthHandler) Verify(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req verifyRequest
	if err := decodeJSON(r, &req); err != nil {
		h.log(r.Context(), "Verify", "error_kind", "bad_request").WarnContext(r.Context(), "failed to decode verify request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	result, err := h.service.VerifyCode(r.Context(), req.Email, req.Code)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.log(r.Context(), "Verify", "user_id", result.User.ID).InfoContext(r.Context(), "user signed in")
	h.writeSession(r.Context(), w, http.StatusCreated, result)
}

// Refresh extends the current session and returns a fresh token.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	result, err := h.service.RefreshSession(r.Context(), extractTokenFromRequest(r))
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.writeSession(r.Context(), w, http.StatusOK, result)
}

// DeleteCurrentSession revokes the session behind the request token.
func (h *AuthHandler) DeleteCurrentSession(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	if err := h.service.RevokeSession(r.Context(), extractTokenFromRequest(r)); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	clearSessionCookie(w, h.secureCookies)
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

func (h *AuthHandler) writeSession(ctx context.Context, w http.ResponseWriter, status int, result application.AuthResult) {
	setSessionCookie(w, result.Token, result.ExpiresAt, h.secureCookies)
	h.responder.writeJSON(ctx, w, status, sessionResponse{
		Token:        result.Token,
		ExpiresAt:    formatTimestamp(result.ExpiresAt),
		User:         toUserDTO(result.User),
		NeedsProfile: result.User.NeedsProfile,
	})
}

const maxJSONBody = 1 << 20

type codeRequest struct {
	Email string `json:"email"`
}

type codeResponse struct {
	ExpiresAt string `json:"expires_at"`
}

type verifyRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

type sessionResponse struct {
	Token        string  `json:"token"`
	ExpiresAt    string  `json:"expires_at"`
	User         userDTO `json:"user"`
	NeedsProfile bool    `json:"needs_profile"`
}

func decodeJSON(r *http.Request, dst any) error {
	decoder := json.NewDecoder(io.LimitReader(r.Body, maxJSONBody))
	return decoder.Decode(dst)
}

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func formatTimestampPtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := formatTimestamp(*t)
	return &s
}

func trimmedPath(path, prefix string) string {
	return strings.Trim(strings.TrimPrefix(path, prefix), "/")
}
