package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	netmail "net/mail"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/NTMQuannuaQMTN/sizzl-prototype-sub000/internal/persistence"
)

const (
	maxBioLength     = 280
	maxNameLength    = 50
	defaultUserLimit = 20
	maxUserLimit     = 50
)

var (
	usernamePattern = regexp.MustCompile(`^[a-z0-9._]{3,20}$`)
	namePattern     = regexp.MustCompile(`^[\p{L}][\p{L} '\-]*$`)
)

// ProfileService manages the profile attached to each account.
type ProfileService struct {
	users  persistence.UserRepository
	now    func() time.Time
	logger *slog.Logger
}

// NewProfileService wires dependencies for the profile service.
func NewProfileService(users persistence.UserRepository, now func() time.Time) *ProfileService {
	return NewProfileServiceWithLogger(users, now, nil)
}

// NewProfileServiceWithLogger wires dependencies with a specific logger.
func NewProfileServiceWithLogger(users persistence.UserRepository, now func() time.Time, logger *slog.Logger) *ProfileService {
	if now == nil {
		now = time.Now
	}
	return &ProfileService{users: users, now: now, logger: defaultLogger(logger)}
}

func (s *ProfileService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "ProfileService", operation, attrs...)
}

// GetProfile loads a user's profile.
func (s *ProfileService) GetProfile(ctx context.Context, userID string) (User, error) {
	if s == nil {
		return User{}, fmt.Errorf("ProfileService is nil")
	}
	if s.users == nil {
		return User{}, fmt.Errorf("user repository not configured")
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return User{}, ErrNotFound
	}
	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return User{}, mapRepoError(err)
	}
	return userFromRecord(user), nil
}

// UpdateProfile validates input and replaces the principal's profile. A valid
// username completes onboarding.
func (s *ProfileService) UpdateProfile(ctx context.Context, principal Principal, input ProfileInput) (user User, err error) {
	if s == nil {
		err = fmt.Errorf("ProfileService is nil")
		return
	}
	if s.users == nil {
		err = fmt.Errorf("user repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "UpdateProfile", "user_id", principal.UserID)
	defer func() {
		logOutcome(ctx, logger, err, "profile update", "needs_profile", user.NeedsProfile)
	}()

	if principal.UserID == "" {
		err = ErrUnauthorized
		return
	}

	normalized := normalizeProfileInput(input)
	if vErr := validateProfileInput(normalized); vErr.HasErrors() {
		err = vErr
		return
	}

	var record persistence.User
	record, err = s.users.GetUser(ctx, principal.UserID)
	if err != nil {
		err = mapRepoError(err)
		return
	}

	username := normalized.Username
	record.Username = &username
	record.FirstName = normalized.FirstName
	record.LastName = normalized.LastName
	record.ContactEmail = normalized.ContactEmail
	record.Bio = normalized.Bio
	record.AvatarURL = normalized.AvatarURL
	record.NeedsProfile = false
	record.UpdatedAt = s.now()

	if err = s.users.UpdateUser(ctx, record); err != nil {
		if errors.Is(err, persistence.ErrDuplicate) {
			err = newValidationError("username", "Username is taken.")
			return
		}
		err = mapRepoError(err)
		return
	}

	user = userFromRecord(record)
	return
}

// SearchUsers finds onboarded users by username or name prefix for the cohost and invite pickers.
func (s *ProfileService) SearchUsers(ctx context.Context, principal Principal, query string, limit int) ([]User, error) {
	if s == nil {
		return nil, fmt.Errorf("ProfileService is nil")
	}
	if s.users == nil {
		return nil, fmt.Errorf("user repository not configured")
	}
	if principal.UserID == "" {
		return nil, ErrUnauthorized
	}

	query = strings.TrimSpace(query)
	if query == "" {
		return []User{}, nil
	}
	if limit <= 0 {
		limit = defaultUserLimit
	}
	if limit > maxUserLimit {
		limit = maxUserLimit
	}

	records, err := s.users.SearchUsers(ctx, strings.ToLower(query), limit)
	if err != nil {
		return nil, mapRepoError(err)
	}
	out := make([]User, 0, len(records))
	for _, record := range records {
		if record.ID == principal.UserID {
			continue
		}
		out = append(out, userFromRecord(record))
	}
	return out, nil
}

func normalizeProfileInput(input ProfileInput) ProfileInput {
	return ProfileInput{
		Username:     strings.ToLower(strings.TrimPrefix(strings.TrimSpace(input.Username), "@")),
		FirstName:    strings.Join(strings.Fields(input.FirstName), " "),
		LastName:     strings.Join(strings.Fields(input.LastName), " "),
		ContactEmail: strings.ToLower(strings.TrimSpace(input.ContactEmail)),
		Bio:          strings.TrimSpace(input.Bio),
		AvatarURL:    strings.TrimSpace(input.AvatarURL),
	}
}

func validateProfileInput(input ProfileInput) *ValidationError {
	vErr := &ValidationError{}

	switch {
	case input.Username == "":
		vErr.add("username", "Username is required.")
	case !usernamePattern.MatchString(input.Username):
		vErr.add("username", "Use 3-20 lowercase letters, numbers, dots or underscores.")
	}

	validateName(vErr, "first_name", "First name", input.FirstName)
	validateName(vErr, "last_name", "Last name", input.LastName)

	if input.ContactEmail != "" {
		if addr, err := netmail.ParseAddress(input.ContactEmail); err != nil || addr.Address != input.ContactEmail {
			vErr.add("contact_email", "Enter a valid email address.")
		}
	}

	if utf8.RuneCountInString(input.Bio) > maxBioLength {
		vErr.add("bio", fmt.Sprintf("Bio must be at most %d characters.", maxBioLength))
	}

	return vErr
}

func validateName(vErr *ValidationError, field, label, value string) {
	switch {
	case value == "":
		vErr.add(field, label+" is required.")
	case utf8.RuneCountInString(value) > maxNameLength:
		vErr.add(field, fmt.Sprintf("%s must be at most %d characters.", label, maxNameLength))
	case !namePattern.MatchString(value):
		vErr.add(field, label+" can only contain letters, spaces, apostrophes and hyphens.")
	}
}
