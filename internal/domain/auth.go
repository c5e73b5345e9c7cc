package domain

import (
	"errors"
	"strings"
	"time"
)

var (
	ErrUserNotFound          = errors.New("user not found")
	ErrDuplicateEmail        = errors.New("user already exists")
	ErrInvalidCredentials    = errors.New("invalid credentials")
	ErrEmailNotVerified      = errors.New("email not verified")
	ErrInvalidToken          = errors.New("invalid token")
	ErrMissingToken          = errors.New("missing token")
	ErrInvalidOrExpiredToken = errors.New("token is invalid or expired")
	ErrForbidden             = errors.New("forbidden")
)

// ValidationError carries a client-facing message for malformed input.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func NewValidationError(msg string) error {
	return &ValidationError{Msg: msg}
}

type User struct {
	ID            string
	Email         string
	Name          string
	PasswordHash  string
	EmailVerified bool

	VerificationTokenHash      *string
	VerificationTokenExpiresAt *time.Time
	ResetTokenHash             *string
	ResetTokenExpiresAt        *time.Time

	Interests []string
	Timezone  string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NormalizeEmail is the canonical form used for storage and lookups.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Interests is the closed set of interest tags a user may select.
var Interests = []string{
	"Mindset",
	"Consciousness",
	"Discipline",
	"Growth",
	"Spiritual Development",
	"Psychology",
	"Self-Improvement",
	"Meditation",
	"Philosophy",
	"Wellness",
	"Motivation",
	"Leadership",
	"Relationships",
	"Habits",
	"Resilience",
	"Authenticity",
	"Intuition",
}

func IsInterest(tag string) bool {
	for _, i := range Interests {
		if i == tag {
			return true
		}
	}
	return false
}
