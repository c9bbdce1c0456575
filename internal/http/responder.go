package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/NTMQuannuaQMTN/sizzl-prototype-sub000/internal/application"
	"github.com/NTMQuannuaQMTN/sizzl-prototype-sub000/internal/logging"
)

var (
	errBadRequestBody      = errors.New("Request body is not valid JSON.")
	errMissingSessionToken = errors.New("Sign in to continue.")
)

type responder struct {
	logger *slog.Logger
}

func newResponder(logger *slog.Logger) responder {
	if logger == nil {
		logger = slog.Default()
	}
	return responder{logger: logger}
}

func (r responder) writeJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	if w == nil {
		return
	}

	if status == http.StatusNoContent || payload == nil {
		w.WriteHeader(status)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		r.loggerFor(ctx).ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

func (r responder) writeError(ctx context.Context, w http.ResponseWriter, status int, err error) {
	message := statusMessage(status)
	if err != nil {
		if msg := strings.TrimSpace(err.Error()); msg != "" {
			message = msg
		}
		r.loggerFor(ctx).WarnContext(ctx, "request rejected", "status", status, "error", err)
	}

	r.writeJSON(ctx, w, status, errorResponse{Message: message})
}

// handleServiceError maps application errors onto status codes.
func (r responder) handleServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		r.writeError(ctx, w, http.StatusInternalServerError, errors.New("unknown error"))
		return
	}

	var vErr *application.ValidationError
	if errors.As(err, &vErr) {
		r.writeJSON(ctx, w, http.StatusUnprocessableEntity, errorResponse{
			ErrorCode: "VALIDATION_FAILED",
			Message:   statusMessage(http.StatusUnprocessableEntity),
			Errors:    vErr.FieldErrors,
		})
		return
	}

	status, code := http.StatusInternalServerError, ""
	switch {
	case errors.Is(err, application.ErrUnauthorized):
		status, code = http.StatusForbidden, "FORBIDDEN"
	case errors.Is(err, application.ErrNotFound):
		status, code = http.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, application.ErrAlreadyExists):
		status, code = http.StatusConflict, "ALREADY_EXISTS"
	case errors.Is(err, application.ErrRSVPClosed):
		status, code = http.StatusConflict, "RSVP_CLOSED"
	case errors.Is(err, application.ErrInvalidCredentials):
		status, code = http.StatusUnauthorized, "AUTH_INVALID_CODE"
	case errors.Is(err, application.ErrCodeExpired):
		status, code = http.StatusUnauthorized, "AUTH_CODE_EXPIRED"
	case errors.Is(err, application.ErrSessionExpired), errors.Is(err, application.ErrSessionRevoked):
		status, code = http.StatusUnauthorized, "AUTH_SESSION_EXPIRED"
	case errors.Is(err, application.ErrTooManyAttempts):
		status, code = http.StatusTooManyRequests, "AUTH_TOO_MANY_ATTEMPTS"
	case errors.Is(err, application.ErrUnavailable):
		status, code = http.StatusServiceUnavailable, "UNAVAILABLE"
	}

	if status == http.StatusInternalServerError {
		r.loggerFor(ctx).ErrorContext(ctx, "request failed", "error", err, "error_kind", application.ErrorKind(err))
	}
	r.writeJSON(ctx, w, status, errorResponse{ErrorCode: code, Message: errorMessage(err, status)})
}

func (r responder) loggerFor(ctx context.Context) *slog.Logger {
	return logging.FromContext(ctx, r.logger)
}

func errorMessage(err error, status int) string {
	switch {
	case errors.Is(err, application.ErrRSVPClosed):
		return "RSVPs for this event are closed."
	case errors.Is(err, application.ErrInvalidCredentials):
		return "That code is not right."
	case errors.Is(err, application.ErrCodeExpired):
		return "That code expired. Request a new one."
	case errors.Is(err, application.ErrTooManyAttempts):
		return "Too many wrong codes. Request a new one."
	case errors.Is(err, application.ErrUnavailable):
		return "This feature is not available right now."
	default:
		return statusMessage(status)
	}
}

func statusMessage(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "The request is malformed."
	case http.StatusUnauthorized:
		return "Sign in to continue."
	case http.StatusForbidden:
		return "You can't do that."
	case http.StatusNotFound:
		return "Not found."
	case http.StatusConflict:
		return "That conflicts with the current state."
	case http.StatusRequestEntityTooLarge:
		return "The upload is too large."
	case http.StatusUnprocessableEntity:
		return "Some fields need attention."
	default:
		return "Something went wrong."
	}
}

type errorResponse struct {
	ErrorCode string            `json:"error_code,omitempty"`
	Message   string            `json:"message"`
	Errors    map[string]string `json:"errors,omitempty"`
}
