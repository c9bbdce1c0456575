package testfixtures

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/NTMQuannuaQMTN/sizzl-prototype-sub000/internal/application"
	"github.com/NTMQuannuaQMTN/sizzl-prototype-sub000/internal/mail"
	"github.com/NTMQuannuaQMTN/sizzl-prototype-sub000/internal/otpstore"
	"github.com/NTMQuannuaQMTN/sizzl-prototype-sub000/internal/persistence/sqlite"
	"github.com/NTMQuannuaQMTN/sizzl-prototype-sub000/internal/queue"
	"github.com/NTMQuannuaQMTN/sizzl-prototype-sub000/internal/token"
)

// PublicBaseURL is the share link base used by fixture services.
const PublicBaseURL = "https://sizzl.test/"

// FastHashParams keep login code hashing cheap in tests.
var FastHashParams = application.Argon2idParams{Memory: 64, Iterations: 1, Parallelism: 1, SaltLength: 8, KeyLength: 16}

// Services is every application service wired over one SQLite store, an
// inline mail queue and in-memory code and object stores.
type Services struct {
	Store   *sqlite.Store
	Clock   *Clock
	IDs     *IDGenerator
	Outbox  *Outbox
	Objects *ObjectStore

	Auth          *application.AuthService
	Profiles      *application.ProfileService
	Events        *application.EventService
	RSVPs         *application.RSVPService
	Invitations   *application.InvitationService
	Notifications *application.NotificationService
	Media         *application.MediaService
	Maintenance   *application.MaintenanceService
}

// ServicesOption configures NewServices.
type ServicesOption func(*servicesConfig)

type servicesConfig struct {
	clock        *Clock
	logger       *slog.Logger
	reminderLead time.Duration
	maxImage     int64
}

func WithClock(clock *Clock) ServicesOption {
	return func(c *servicesConfig) {
		c.clock = clock
	}
}

func WithLogger(logger *slog.Logger) ServicesOption {
	return func(c *servicesConfig) {
		c.logger = logger
	}
}

func WithMaxImageBytes(n int64) ServicesOption {
	return func(c *servicesConfig) {
		c.maxImage = n
	}
}

// NewServices builds the full service graph for integration tests.
func NewServices(tb testing.TB, opts ...ServicesOption) *Services {
	tb.Helper()

	cfg := servicesConfig{
		logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
		reminderLead: 24 * time.Hour,
		maxImage:     1 << 20,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.clock == nil {
		cfg.clock = NewClock(time.Time{})
	}

	store := NewSQLiteStore(tb)
	clock := cfg.clock
	ids := NewIDGenerator("id")
	outbox := &Outbox{}
	objects := &ObjectStore{BaseURL: "https://cdn.sizzl.test/"}

	signer, err := token.NewSigner("fixture-secret", clock.Now)
	if err != nil {
		tb.Fatalf("token signer: %v", err)
	}
	mailer := queue.NewInlineClient(queue.NewHandler(outbox, time.UTC, clock.Now, cfg.logger))

	events := application.NewEventServiceWithLogger(store.Events, store.Users, store.Invitations, store.Notifications, ids.Next, clock.Now, PublicBaseURL, cfg.logger)
	return &Services{
		Store:   store,
		Clock:   clock,
		IDs:     ids,
		Outbox:  outbox,
		Objects: objects,
		Auth: application.NewAuthServiceWithLogger(store.Users, store.Sessions, otpstore.NewMemoryStore(0, clock.Now), signer, mailer, application.AuthConfig{
			SchoolDomains: []string{"mit.edu"},
			HashParams:    FastHashParams,
		}, ids.Next, clock.Now, cfg.logger),
		Profiles:      application.NewProfileServiceWithLogger(store.Users, clock.Now, cfg.logger),
		Events:        events,
		RSVPs:         application.NewRSVPServiceWithLogger(events, store.RSVPs, store.Invitations, clock.Now, cfg.logger),
		Invitations:   application.NewInvitationServiceWithLogger(events, store.Users, store.Invitations, store.RSVPs, store.Notifications, mailer, ids.Next, clock.Now, cfg.logger),
		Notifications: application.NewNotificationServiceWithLogger(store.Notifications, clock.Now, cfg.logger),
		Media:         application.NewMediaService(objects, cfg.maxImage, ids.Next, cfg.logger),
		Maintenance:   application.NewMaintenanceService(store.Sessions, store.Events, store.Invitations, store.Notifications, mailer, cfg.reminderLead, ids.Next, clock.Now, cfg.logger),
	}
}

// SignIn runs the login flow for email and returns the session token.
func (s *Services) SignIn(tb testing.TB, email string) application.AuthResult {
	tb.Helper()

	ctx := context.Background()
	if _, err := s.Auth.RequestCode(ctx, email); err != nil {
		tb.Fatalf("RequestCode(%s): %v", email, err)
	}
	code, ok := s.Outbox.LoginCode(email)
	if !ok {
		tb.Fatalf("no login code mailed to %s", email)
	}
	result, err := s.Auth.VerifyCode(ctx, email, code)
	if err != nil {
		tb.Fatalf("VerifyCode(%s): %v", email, err)
	}
	return result
}

var loginCodePattern = regexp.MustCompile(`login code is (\d+)`)

// Outbox records delivered mail.
type Outbox struct {
	mu       sync.Mutex
	messages []mail.Message
}

func (o *Outbox) Send(_ context.Context, msg mail.Message) error {
	if err := msg.Validate(); err != nil {
		return err
	}
	o.mu.Lock()
	o.messages = append(o.messages, msg)
	o.mu.Unlock()
	return nil
}

// Messages returns a copy of everything sent so far.
func (o *Outbox) Messages() []mail.Message {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]mail.Message(nil), o.messages...)
}

// SentTo returns the messages addressed to to, oldest first.
func (o *Outbox) SentTo(to string) []mail.Message {
	var out []mail.Message
	for _, msg := range o.Messages() {
		if msg.To == to {
			out = append(out, msg)
		}
	}
	return out
}

// LoginCode extracts the most recent login code mailed to email.
func (o *Outbox) LoginCode(email string) (string, bool) {
	sent := o.SentTo(email)
	for i := len(sent) - 1; i >= 0; i-- {
		if m := loginCodePattern.FindStringSubmatch(sent[i].Body); m != nil {
			return m[1], true
		}
	}
	return "", false
}

// ObjectStore keeps uploaded objects in memory.
type ObjectStore struct {
	BaseURL string

	mu      sync.Mutex
	objects map[string][]byte
}

func (s *ObjectStore) Put(_ context.Context, key, _ string, _ int64, body io.Reader) (string, error) {
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, body); err != nil {
		return "", err
	}
	s.mu.Lock()
	if s.objects == nil {
		s.objects = make(map[string][]byte)
	}
	s.objects[key] = buf.Bytes()
	s.mu.Unlock()
	return s.BaseURL + key, nil
}

// Object returns the stored bytes for key.
func (s *ObjectStore) Object(key string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.objects[key]
	return data, ok
}
