package application

import (
	"errors"
	"sort"
	"strings"

	"github.com/NTMQuannuaQMTN/sizzl-prototype-sub000/internal/persistence"
	"github.com/NTMQuannuaQMTN/sizzl-prototype-sub000/internal/schedule"
)

var (
	// ErrUnauthorized is returned when the acting principal lacks permission for an operation.
	ErrUnauthorized = errors.New("application: unauthorized")
	// ErrNotFound is returned when the requested resource does not exist.
	ErrNotFound = errors.New("application: not found")
	// ErrAlreadyExists is returned when a unique resource is created twice.
	ErrAlreadyExists = errors.New("application: already exists")
	// ErrInvalidCredentials is returned when a login code or token does not match.
	ErrInvalidCredentials = errors.New("application: invalid credentials")
	// ErrSessionExpired is returned when a session is past its expiry.
	ErrSessionExpired = errors.New("application: session expired")
	// ErrSessionRevoked is returned when a session was logged out.
	ErrSessionRevoked = errors.New("application: session revoked")
	// ErrCodeExpired is returned when no live login code exists for an email.
	ErrCodeExpired = errors.New("application: login code expired")
	// ErrTooManyAttempts is returned when a login code was guessed wrong too often.
	ErrTooManyAttempts = errors.New("application: too many attempts")
	// ErrRSVPClosed is returned when responding after the RSVP deadline.
	ErrRSVPClosed = errors.New("application: rsvp closed")
	// ErrUnavailable is returned when an optional collaborator is not configured.
	ErrUnavailable = errors.New("application: unavailable")
)

// ValidationError captures field level validation issues that callers can surface to users.
type ValidationError struct {
	FieldErrors map[string]string
}

// Error implements the error interface.
func (v *ValidationError) Error() string {
	if v == nil {
		return ""
	}
	if len(v.FieldErrors) == 0 {
		return "validation failed"
	}
	fields := make([]string, 0, len(v.FieldErrors))
	for field := range v.FieldErrors {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	return "validation failed: " + strings.Join(fields, ", ")
}

// HasErrors reports whether any field level issues were recorded.
func (v *ValidationError) HasErrors() bool {
	return v != nil && len(v.FieldErrors) > 0
}

func (v *ValidationError) add(field, message string) {
	if v.FieldErrors == nil {
		v.FieldErrors = make(map[string]string)
	}
	if _, exists := v.FieldErrors[field]; exists {
		return
	}
	v.FieldErrors[field] = message
}

// addSchedule records a scheduling rule violation under field using the inline message for err.
func (v *ValidationError) addSchedule(field string, err error) {
	v.add(field, schedule.Message(err))
}

func newValidationError(field, message string) *ValidationError {
	v := &ValidationError{}
	v.add(field, message)
	return v
}

// mapRepoError converts persistence sentinels into application sentinels.
func mapRepoError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, persistence.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, persistence.ErrDuplicate):
		return ErrAlreadyExists
	default:
		return err
	}
}
