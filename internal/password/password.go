// Package password hashes and checks user passwords with bcrypt.
package password

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

const (
	MinLength = 8
	// bcrypt ignores everything past 72 bytes; reject instead of silently truncating.
	MaxBytes = 72

	MinCost = 10
)

var (
	ErrTooShort = fmt.Errorf("password must be at least %d characters", MinLength)
	ErrTooLong  = fmt.Errorf("password must be at most %d bytes", MaxBytes)
)

type Hasher struct {
	cost int
}

// NewHasher returns a bcrypt hasher. Costs below MinCost are raised to it.
func NewHasher(cost int) *Hasher {
	if cost < MinCost {
		cost = MinCost
	}
	return &Hasher{cost: cost}
}

func Validate(pw string) error {
	if len([]rune(pw)) < MinLength {
		return ErrTooShort
	}
	if len(pw) > MaxBytes {
		return ErrTooLong
	}
	return nil
}

func (h *Hasher) Hash(pw string) (string, error) {
	if err := Validate(pw); err != nil {
		return "", err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(pw), h.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// Compare reports whether pw matches hash. A malformed hash is a mismatch.
func (h *Hasher) Compare(hash, pw string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(pw))
	return err == nil
}

// IsValidationError reports whether err came from Validate.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrTooShort) || errors.Is(err, ErrTooLong)
}
