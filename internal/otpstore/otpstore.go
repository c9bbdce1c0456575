// Package otpstore keeps pending one-time login code challenges keyed by
// email address until they are verified or expire.
package otpstore

import (
	"context"
	"errors"
	"strings"
	"time"
)

// ErrNotFound is returned when no live challenge exists for an email.
var ErrNotFound = errors.New("otpstore: challenge not found")

// Challenge is a pending login code. Only the hash of the code is stored.
type Challenge struct {
	Email     string
	CodeHash  string
	Attempts  int
	ExpiresAt time.Time
}

// Store persists challenges. Save replaces any challenge for the same email.
type Store interface {
	Save(ctx context.Context, challenge Challenge) error
	Get(ctx context.Context, email string) (Challenge, error)
	IncrementAttempts(ctx context.Context, email string) (int, error)
	Delete(ctx context.Context, email string) error
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

var (
	_ Store = (*MemoryStore)(nil)
	_ Store = (*RedisStore)(nil)
)
