// Package token issues and verifies the HS256 session tokens handed out on
// login and email verification, and mints the single-use opaque tokens sent
// in account emails.
package token

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/ErlanBelekov/wisdom-hub/internal/domain"
	"github.com/golang-jwt/jwt/v5"
)

const (
	TTL = 7 * 24 * time.Hour

	// IssuerName is the iss claim on every session token.
	IssuerName = "wisdom-hub"
)

type Claims struct {
	UserID string
	Email  string
}

type sessionClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

type Issuer struct {
	key []byte
	now func() time.Time
}

func NewIssuer(key []byte) *Issuer {
	return &Issuer{key: key, now: time.Now}
}

// WithClock returns a copy of the issuer that reads time from now.
func (i *Issuer) WithClock(now func() time.Time) *Issuer {
	return &Issuer{key: i.key, now: now}
}

func (i *Issuer) Issue(userID, email string) (string, error) {
	now := i.now()
	claims := sessionClaims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    IssuerName,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(TTL)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.key)
	if err != nil {
		return "", fmt.Errorf("sign jwt: %w", err)
	}
	return signed, nil
}

// Verify returns domain.ErrInvalidToken for any token that is malformed,
// signed with another key or algorithm, expired, from another issuer or
// missing a subject.
func (i *Issuer) Verify(raw string) (*Claims, error) {
	var claims sessionClaims
	_, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		return i.key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuer(IssuerName),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		return nil, errors.Join(domain.ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return nil, domain.ErrInvalidToken
	}
	return &Claims{UserID: claims.Subject, Email: claims.Email}, nil
}

// NewOpaque returns a random 32-byte hex token and the digest to store for it.
func NewOpaque() (raw, hash string, err error) {
	b := make([]byte, 32)
	if _, err = io.ReadFull(rand.Reader, b); err != nil {
		return "", "", fmt.Errorf("generate token: %w", err)
	}
	raw = hex.EncodeToString(b)
	return raw, HashOpaque(raw), nil
}

// HashOpaque is the SHA-256 hex digest under which an opaque token is stored.
func HashOpaque(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
