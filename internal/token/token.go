// Package token signs and verifies the bearer tokens handed to clients. A
// token names the user and the server-side session it belongs to.
package token

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("token: invalid")
	ErrExpiredToken = errors.New("token: expired")
)

const defaultIssuer = "sizzl"

// Claims is the verified content of a token.
type Claims struct {
	UserID       string
	SessionToken string
	IssuedAt     time.Time
	ExpiresAt    time.Time
}

// Signer issues and parses HS256 tokens.
type Signer struct {
	secret []byte
	issuer string
	now    func() time.Time
}

// NewSigner returns a signer for secret. now defaults to time.Now.
func NewSigner(secret string, now func() time.Time) (*Signer, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, fmt.Errorf("token: secret must not be empty")
	}
	if now == nil {
		now = time.Now
	}
	return &Signer{secret: []byte(secret), issuer: defaultIssuer, now: now}, nil
}

// Issue signs a token binding userID to sessionToken until expiresAt.
func (s *Signer) Issue(userID, sessionToken string, expiresAt time.Time) (string, error) {
	if userID == "" || sessionToken == "" {
		return "", fmt.Errorf("token: user and session are required")
	}
	claims := jwt.RegisteredClaims{
		Issuer:    s.issuer,
		Subject:   userID,
		ID:        sessionToken,
		IssuedAt:  jwt.NewNumericDate(s.now()),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("token: sign: %w", err)
	}
	return signed, nil
}

// Parse verifies the signature, issuer and expiry of raw.
func (s *Signer) Parse(raw string) (Claims, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Claims{}, ErrInvalidToken
	}

	var registered jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(raw, &registered, func(*jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Claims{}, ErrExpiredToken
		}
		return Claims{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if registered.Subject == "" || registered.ID == "" {
		return Claims{}, ErrInvalidToken
	}

	claims := Claims{
		UserID:       registered.Subject,
		SessionToken: registered.ID,
		ExpiresAt:    registered.ExpiresAt.Time,
	}
	if registered.IssuedAt != nil {
		claims.IssuedAt = registered.IssuedAt.Time
	}
	return claims, nil
}
