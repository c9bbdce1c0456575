package otpstore

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is a process-local Store for single-instance deployments and tests.
type MemoryStore struct {
	mu         sync.Mutex
	now        func() time.Time
	maxEntries int
	entries    map[string]Challenge
}

// NewMemoryStore returns an empty store holding at most maxEntries challenges.
func NewMemoryStore(maxEntries int, now func() time.Time) *MemoryStore {
	if maxEntries <= 0 {
		maxEntries = 10000
	}
	if now == nil {
		now = time.Now
	}
	return &MemoryStore{
		now:        now,
		maxEntries: maxEntries,
		entries:    make(map[string]Challenge),
	}
}

func (s *MemoryStore) Save(_ context.Context, challenge Challenge) error {
	challenge.Email = normalizeEmail(challenge.Email)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.cleanupLocked()
	if _, exists := s.entries[challenge.Email]; !exists && len(s.entries) >= s.maxEntries {
		s.evictOneLocked()
	}
	s.entries[challenge.Email] = challenge
	return nil
}

func (s *MemoryStore) Get(_ context.Context, email string) (Challenge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	challenge, ok := s.liveLocked(normalizeEmail(email))
	if !ok {
		return Challenge{}, ErrNotFound
	}
	return challenge, nil
}

func (s *MemoryStore) IncrementAttempts(_ context.Context, email string) (int, error) {
	key := normalizeEmail(email)

	s.mu.Lock()
	defer s.mu.Unlock()

	challenge, ok := s.liveLocked(key)
	if !ok {
		return 0, ErrNotFound
	}
	challenge.Attempts++
	s.entries[key] = challenge
	return challenge.Attempts, nil
}

func (s *MemoryStore) Delete(_ context.Context, email string) error {
	s.mu.Lock()
	delete(s.entries, normalizeEmail(email))
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) liveLocked(key string) (Challenge, bool) {
	challenge, ok := s.entries[key]
	if !ok {
		return Challenge{}, false
	}
	if !s.now().Before(challenge.ExpiresAt) {
		delete(s.entries, key)
		return Challenge{}, false
	}
	return challenge, true
}

func (s *MemoryStore) cleanupLocked() {
	now := s.now()
	for key, challenge := range s.entries {
		if !now.Before(challenge.ExpiresAt) {
			delete(s.entries, key)
		}
	}
}

// evictOneLocked drops the challenge closest to expiry.
func (s *MemoryStore) evictOneLocked() {
	var (
		victim string
		soon   time.Time
	)
	for key, challenge := range s.entries {
		if victim == "" || challenge.ExpiresAt.Before(soon) {
			victim, soon = key, challenge.ExpiresAt
		}
	}
	delete(s.entries, victim)
}
