package application

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/NTMQuannuaQMTN/sizzl-prototype-sub000/internal/persistence"
	"github.com/NTMQuannuaQMTN/sizzl-prototype-sub000/internal/queue"
)

// sequenceIDs returns id-1, id-2, ... on each call.
func sequenceIDs(prefix string) func() string {
	var mu sync.Mutex
	n := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("%s-%d", prefix, n)
	}
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

// userRepositoryStub is an in-memory persistence.UserRepository.
type userRepositoryStub struct {
	byID map[string]persistence.User

	createErr error
	getErr    error
	updateErr error
}

func newUserRepositoryStub(users ...persistence.User) *userRepositoryStub {
	s := &userRepositoryStub{byID: make(map[string]persistence.User)}
	for _, u := range users {
		s.byID[u.ID] = u
	}
	return s
}

func (s *userRepositoryStub) CreateUser(ctx context.Context, user persistence.User) error {
	if s.createErr != nil {
		return s.createErr
	}
	for _, existing := range s.byID {
		if existing.Email == user.Email {
			return persistence.ErrDuplicate
		}
	}
	s.byID[user.ID] = user
	return nil
}

func (s *userRepositoryStub) UpdateUser(ctx context.Context, user persistence.User) error {
	if s.updateErr != nil {
		return s.updateErr
	}
	if _, ok := s.byID[user.ID]; !ok {
		return persistence.ErrNotFound
	}
	if user.Username != nil {
		for id, existing := range s.byID {
			if id != user.ID && existing.Username != nil && *existing.Username == *user.Username {
				return persistence.ErrDuplicate
			}
		}
	}
	s.byID[user.ID] = user
	return nil
}

func (s *userRepositoryStub) GetUser(ctx context.Context, id string) (persistence.User, error) {
	if s.getErr != nil {
		return persistence.User{}, s.getErr
	}
	user, ok := s.byID[id]
	if !ok {
		return persistence.User{}, persistence.ErrNotFound
	}
	return user, nil
}

func (s *userRepositoryStub) GetUserByEmail(ctx context.Context, email string) (persistence.User, error) {
	if s.getErr != nil {
		return persistence.User{}, s.getErr
	}
	for _, user := range s.byID {
		if user.Email == email {
			return user, nil
		}
	}
	return persistence.User{}, persistence.ErrNotFound
}

func (s *userRepositoryStub) SearchUsers(ctx context.Context, query string, limit int) ([]persistence.User, error) {
	var out []persistence.User
	for _, user := range s.byID {
		if user.Username != nil && strings.HasPrefix(*user.Username, query) {
			out = append(out, user)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *userRepositoryStub) MissingUserIDs(ctx context.Context, ids []string) ([]string, error) {
	var missing []string
	for _, id := range ids {
		if _, ok := s.byID[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing, nil
}

// sessionRepositoryStub provides an in-memory persistence.SessionRepository.
type sessionRepositoryStub struct {
	sessionsByID map[string]persistence.Session
	tokenToID    map[string]string

	createErr error
	deleteErr error

	deleteCalls []time.Time
}

func newSessionRepositoryStub() *sessionRepositoryStub {
	return &sessionRepositoryStub{
		sessionsByID: make(map[string]persistence.Session),
		tokenToID:    make(map[string]string),
	}
}

func (s *sessionRepositoryStub) CreateSession(ctx context.Context, session persistence.Session) (persistence.Session, error) {
	if s.createErr != nil {
		return persistence.Session{}, s.createErr
	}
	s.sessionsByID[session.ID] = session
	s.tokenToID[session.Token] = session.ID
	return session, nil
}

func (s *sessionRepositoryStub) GetSession(ctx context.Context, token string) (persistence.Session, error) {
	id, ok := s.tokenToID[token]
	if !ok {
		return persistence.Session{}, persistence.ErrNotFound
	}
	return s.sessionsByID[id], nil
}

func (s *sessionRepositoryStub) UpdateSession(ctx context.Context, session persistence.Session) (persistence.Session, error) {
	current, ok := s.sessionsByID[session.ID]
	if !ok {
		return persistence.Session{}, persistence.ErrNotFound
	}
	delete(s.tokenToID, current.Token)
	s.sessionsByID[session.ID] = session
	s.tokenToID[session.Token] = session.ID
	return session, nil
}

func (s *sessionRepositoryStub) RevokeSession(ctx context.Context, token string, revokedAt time.Time) (persistence.Session, error) {
	id, ok := s.tokenToID[token]
	if !ok {
		return persistence.Session{}, persistence.ErrNotFound
	}
	session := s.sessionsByID[id]
	if session.RevokedAt == nil {
		revoked := revokedAt.UTC()
		session.RevokedAt = &revoked
	}
	s.sessionsByID[id] = session
	return session, nil
}

func (s *sessionRepositoryStub) DeleteExpiredSessions(ctx context.Context, reference time.Time) (int64, error) {
	if s.deleteErr != nil {
		return 0, s.deleteErr
	}
	s.deleteCalls = append(s.deleteCalls, reference)
	var deleted int64
	for id, session := range s.sessionsByID {
		if !session.ExpiresAt.After(reference) {
			delete(s.sessionsByID, id)
			delete(s.tokenToID, session.Token)
			deleted++
		}
	}
	return deleted, nil
}

// mailerStub records enqueued mail tasks.
type mailerStub struct {
	mu          sync.Mutex
	loginCodes  []queue.LoginCodePayload
	invitations []queue.InvitationPayload
	reminders   []queue.ReminderPayload
	err         error
}

func (m *mailerStub) EnqueueLoginCode(ctx context.Context, p queue.LoginCodePayload) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.loginCodes = append(m.loginCodes, p)
	return nil
}

func (m *mailerStub) EnqueueInvitation(ctx context.Context, p queue.InvitationPayload) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.invitations = append(m.invitations, p)
	return nil
}

func (m *mailerStub) EnqueueRSVPReminder(ctx context.Context, p queue.ReminderPayload) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.reminders = append(m.reminders, p)
	return nil
}

func (m *mailerStub) lastLoginCode() queue.LoginCodePayload {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.loginCodes) == 0 {
		return queue.LoginCodePayload{}
	}
	return m.loginCodes[len(m.loginCodes)-1]
}

// testClock is a controllable time source.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock(t time.Time) *testClock { return &testClock{now: t} }

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}
