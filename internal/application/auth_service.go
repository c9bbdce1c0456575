package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	netmail "net/mail"
	"strings"
	"time"

	"github.com/NTMQuannuaQMTN/sizzl-prototype-sub000/internal/otpstore"
	"github.com/NTMQuannuaQMTN/sizzl-prototype-sub000/internal/persistence"
	"github.com/NTMQuannuaQMTN/sizzl-prototype-sub000/internal/queue"
	"github.com/NTMQuannuaQMTN/sizzl-prototype-sub000/internal/token"
)

// TokenSigner issues and verifies signed session tokens.
type TokenSigner interface {
	Issue(userID, sessionToken string, expiresAt time.Time) (string, error)
	Parse(raw string) (token.Claims, error)
}

// Mailer hands outbound mail to the background queue.
type Mailer interface {
	EnqueueLoginCode(ctx context.Context, p queue.LoginCodePayload) error
	EnqueueInvitation(ctx context.Context, p queue.InvitationPayload) error
	EnqueueRSVPReminder(ctx context.Context, p queue.ReminderPayload) error
}

// AuthConfig tunes the login flow.
type AuthConfig struct {
	SchoolDomains []string
	CodeTTL       time.Duration
	MaxAttempts   int
	SessionTTL    time.Duration
	HashParams    Argon2idParams
}

func (c AuthConfig) withDefaults() AuthConfig {
	if len(c.SchoolDomains) == 0 {
		c.SchoolDomains = []string{"edu"}
	}
	if c.CodeTTL <= 0 {
		c.CodeTTL = 10 * time.Minute
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 5
	}
	if c.SessionTTL <= 0 {
		c.SessionTTL = 30 * 24 * time.Hour
	}
	if c.HashParams == (Argon2idParams{}) {
		c.HashParams = DefaultArgon2idParams
	}
	return c
}

// AuthService coordinates the school email login flow and session lifecycle.
type AuthService struct {
	users        persistence.UserRepository
	sessions     persistence.SessionRepository
	codes        otpstore.Store
	signer       TokenSigner
	mailer       Mailer
	cfg          AuthConfig
	idGenerator  func() string
	generateCode func() (string, error)
	now          func() time.Time
	logger       *slog.Logger
}

// NewAuthService constructs an AuthService with the provided dependencies.
func NewAuthService(users persistence.UserRepository, sessions persistence.SessionRepository, codes otpstore.Store, signer TokenSigner, mailer Mailer, cfg AuthConfig, idGenerator func() string, now func() time.Time) *AuthService {
	return NewAuthServiceWithLogger(users, sessions, codes, signer, mailer, cfg, idGenerator, now, nil)
}

// NewAuthServiceWithLogger constructs an AuthService with a specified logger.
func NewAuthServiceWithLogger(users persistence.UserRepository, sessions persistence.SessionRepository, codes otpstore.Store, signer TokenSigner, mailer Mailer, cfg AuthConfig, idGenerator func() string, now func() time.Time, logger *slog.Logger) *AuthService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &AuthService{
		users:        users,
		sessions:     sessions,
		codes:        codes,
		signer:       signer,
		mailer:       mailer,
		cfg:          cfg.withDefaults(),
		idGenerator:  idGenerator,
		generateCode: GenerateLoginCode,
		now:          now,
		logger:       defaultLogger(logger),
	}
}

func (s *AuthService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "AuthService", operation, attrs...)
}

// RequestCode sends a fresh login code to a school email address and returns when it expires.
func (s *AuthService) RequestCode(ctx context.Context, email string) (expiresAt time.Time, err error) {
	if s == nil {
		err = fmt.Errorf("AuthService is nil")
		return
	}
	if s.codes == nil || s.mailer == nil {
		err = fmt.Errorf("login code store not configured")
		return
	}

	email = normalizeEmail(email)
	logger := s.loggerWith(ctx, "RequestCode", "email_domain", emailDomain(email))
	defer func() {
		logOutcome(ctx, logger, err, "login code request", "expires_at", expiresAt)
	}()

	if vErr := s.validateSchoolEmail(email); vErr != nil {
		err = vErr
		return
	}

	var code string
	code, err = s.generateCode()
	if err != nil {
		err = fmt.Errorf("generate login code: %w", err)
		return
	}
	var hash string
	hash, err = HashLoginCode(code, s.cfg.HashParams)
	if err != nil {
		err = fmt.Errorf("hash login code: %w", err)
		return
	}

	expires := s.now().Add(s.cfg.CodeTTL)
	if err = s.codes.Save(ctx, otpstore.Challenge{Email: email, CodeHash: hash, ExpiresAt: expires}); err != nil {
		return
	}
	if err = s.mailer.EnqueueLoginCode(ctx, queue.LoginCodePayload{Email: email, Code: code, ExpiresAt: expires}); err != nil {
		err = fmt.Errorf("enqueue login code: %w", err)
		return
	}

	expiresAt = expires
	return
}

// VerifyCode exchanges a login code for a session. First time logins create the account.
func (s *AuthService) VerifyCode(ctx context.Context, email, code string) (result AuthResult, err error) {
	if s == nil {
		err = fmt.Errorf("AuthService is nil")
		return
	}
	if s.codes == nil || s.users == nil || s.sessions == nil || s.signer == nil {
		err = fmt.Errorf("auth dependencies not configured")
		return
	}

	email = normalizeEmail(email)
	code = strings.TrimSpace(code)
	logger := s.loggerWith(ctx, "VerifyCode", "email_domain", emailDomain(email))
	defer func() {
		logOutcome(ctx, logger, err, "login", "user_id", result.User.ID, "needs_profile", result.User.NeedsProfile)
	}()

	if email == "" || code == "" {
		err = ErrInvalidCredentials
		return
	}

	var challenge otpstore.Challenge
	challenge, err = s.codes.Get(ctx, email)
	if err != nil {
		if errors.Is(err, otpstore.ErrNotFound) {
			err = ErrCodeExpired
		}
		return
	}
	if challenge.Attempts >= s.cfg.MaxAttempts {
		err = errors.Join(ErrTooManyAttempts, s.codes.Delete(ctx, email))
		return
	}

	if verifyErr := VerifyLoginCode(challenge.CodeHash, code); verifyErr != nil {
		attempts, incErr := s.codes.IncrementAttempts(ctx, email)
		switch {
		case errors.Is(incErr, otpstore.ErrNotFound):
			err = ErrCodeExpired
		case incErr != nil:
			err = incErr
		case attempts >= s.cfg.MaxAttempts:
			err = errors.Join(ErrTooManyAttempts, s.codes.Delete(ctx, email))
		default:
			err = ErrInvalidCredentials
		}
		return
	}

	if err = s.codes.Delete(ctx, email); err != nil {
		return
	}

	var user persistence.User
	user, err = s.findOrCreateUser(ctx, email)
	if err != nil {
		return
	}

	now := s.now()
	session := persistence.Session{
		ID:        s.idGenerator(),
		UserID:    user.ID,
		Token:     s.idGenerator(),
		ExpiresAt: now.Add(s.cfg.SessionTTL),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err = s.sessions.DeleteExpiredSessions(ctx, now); err != nil {
		return
	}
	session, err = s.sessions.CreateSession(ctx, session)
	if err != nil {
		err = mapRepoError(err)
		return
	}

	var signed string
	signed, err = s.signer.Issue(user.ID, session.Token, session.ExpiresAt)
	if err != nil {
		return
	}

	result = AuthResult{Token: signed, ExpiresAt: session.ExpiresAt, User: userFromRecord(user)}
	return
}

func (s *AuthService) findOrCreateUser(ctx context.Context, email string) (persistence.User, error) {
	user, err := s.users.GetUserByEmail(ctx, email)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, persistence.ErrNotFound) {
		return persistence.User{}, err
	}

	now := s.now()
	user = persistence.User{
		ID:           s.idGenerator(),
		Email:        email,
		NeedsProfile: true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, persistence.ErrDuplicate) {
			// Lost a race with a concurrent first login for the same email.
			return s.users.GetUserByEmail(ctx, email)
		}
		return persistence.User{}, err
	}
	return user, nil
}

// ValidateSession verifies a signed token and returns the principal it belongs to.
func (s *AuthService) ValidateSession(ctx context.Context, raw string) (principal Principal, err error) {
	if s == nil {
		err = fmt.Errorf("AuthService is nil")
		return
	}

	logger := s.loggerWith(ctx, "ValidateSession", "token_provided", strings.TrimSpace(raw) != "")
	defer func() {
		if err != nil {
			logger.WarnContext(ctx, "session validation failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.DebugContext(ctx, "session validated", "principal_id", principal.UserID)
	}()

	var session persistence.Session
	session, err = s.activeSession(ctx, raw)
	if err != nil {
		return
	}

	var user persistence.User
	user, err = s.users.GetUser(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			err = ErrInvalidCredentials
		}
		return
	}

	principal = Principal{
		UserID:       user.ID,
		Email:        user.Email,
		NeedsProfile: user.NeedsProfile,
		SessionToken: session.Token,
	}
	return
}

// RefreshSession extends an active session and issues a new signed token for it.
func (s *AuthService) RefreshSession(ctx context.Context, raw string) (result AuthResult, err error) {
	if s == nil {
		err = fmt.Errorf("AuthService is nil")
		return
	}

	logger := s.loggerWith(ctx, "RefreshSession")
	defer func() {
		logOutcome(ctx, logger, err, "session refresh", "user_id", result.User.ID, "expires_at", result.ExpiresAt)
	}()

	var session persistence.Session
	session, err = s.activeSession(ctx, raw)
	if err != nil {
		return
	}

	var user persistence.User
	user, err = s.users.GetUser(ctx, session.UserID)
	if err != nil {
		err = mapRepoError(err)
		return
	}

	now := s.now()
	session.ExpiresAt = now.Add(s.cfg.SessionTTL)
	session.UpdatedAt = now
	session, err = s.sessions.UpdateSession(ctx, session)
	if err != nil {
		err = mapRepoError(err)
		return
	}

	var signed string
	signed, err = s.signer.Issue(user.ID, session.Token, session.ExpiresAt)
	if err != nil {
		return
	}
	result = AuthResult{Token: signed, ExpiresAt: session.ExpiresAt, User: userFromRecord(user)}
	return
}

// RevokeSession logs the session behind a signed token out.
func (s *AuthService) RevokeSession(ctx context.Context, raw string) (err error) {
	if s == nil {
		return fmt.Errorf("AuthService is nil")
	}

	logger := s.loggerWith(ctx, "RevokeSession")
	defer func() {
		logOutcome(ctx, logger, err, "session revocation")
	}()

	var session persistence.Session
	session, err = s.activeSession(ctx, raw)
	if err != nil {
		return
	}
	if _, err = s.sessions.RevokeSession(ctx, session.Token, s.now()); err != nil {
		err = mapRepoError(err)
	}
	return
}

func (s *AuthService) activeSession(ctx context.Context, raw string) (persistence.Session, error) {
	if s.signer == nil || s.sessions == nil || s.users == nil {
		return persistence.Session{}, fmt.Errorf("auth dependencies not configured")
	}

	raw = strings.TrimSpace(raw)
	if raw == "" {
		return persistence.Session{}, ErrInvalidCredentials
	}

	claims, err := s.signer.Parse(raw)
	if err != nil {
		if errors.Is(err, token.ErrExpiredToken) {
			return persistence.Session{}, ErrSessionExpired
		}
		return persistence.Session{}, ErrInvalidCredentials
	}

	session, err := s.sessions.GetSession(ctx, claims.SessionToken)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return persistence.Session{}, ErrInvalidCredentials
		}
		return persistence.Session{}, err
	}
	if session.UserID != claims.UserID {
		return persistence.Session{}, ErrInvalidCredentials
	}
	if session.RevokedAt != nil && !session.RevokedAt.IsZero() {
		return persistence.Session{}, ErrSessionRevoked
	}
	if !session.ExpiresAt.After(s.now()) {
		return persistence.Session{}, ErrSessionExpired
	}
	return session, nil
}

func (s *AuthService) validateSchoolEmail(email string) *ValidationError {
	if email == "" {
		return newValidationError("email", "Email is required.")
	}
	addr, err := netmail.ParseAddress(email)
	if err != nil || addr.Address != email || addr.Name != "" {
		return newValidationError("email", "Enter a valid email address.")
	}
	domain := emailDomain(email)
	for _, allowed := range s.cfg.SchoolDomains {
		allowed = strings.ToLower(strings.Trim(strings.TrimSpace(allowed), "."))
		if allowed == "" {
			continue
		}
		if domain == allowed || strings.HasSuffix(domain, "."+allowed) {
			return nil
		}
	}
	return newValidationError("email", "Use your school email address.")
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func emailDomain(email string) string {
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return ""
	}
	return email[at+1:]
}
