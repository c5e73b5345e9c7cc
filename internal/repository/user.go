package repository

import (
	"context"
	"time"

	"github.com/ErlanBelekov/wisdom-hub/internal/domain"
)

// UserRepository is the credential store. Token arguments are SHA-256 hex
// digests; raw tokens never reach the database.
type UserRepository interface {
	// Create inserts a new user. Returns domain.ErrDuplicateEmail when the
	// normalized email is already taken, including when a concurrent signup
	// wins the race on the unique index.
	Create(ctx context.Context, u *domain.User) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByVerificationToken(ctx context.Context, tokenHash string) (*domain.User, error)
	FindByResetToken(ctx context.Context, tokenHash string) (*domain.User, error)

	// ConsumeVerificationToken atomically marks the owner verified and clears
	// the token. Unknown, used, or expired tokens yield domain.ErrInvalidOrExpiredToken.
	ConsumeVerificationToken(ctx context.Context, tokenHash string, now time.Time) (*domain.User, error)
	SetVerificationToken(ctx context.Context, userID, tokenHash string, expiresAt time.Time) error

	SetResetToken(ctx context.Context, userID, tokenHash string, expiresAt time.Time) error
	// ConsumeResetToken clears the reset token and stores the new password hash in one statement.
	ConsumeResetToken(ctx context.Context, tokenHash, passwordHash string, now time.Time) (*domain.User, error)

	UpdateInterests(ctx context.Context, userID string, interests []string) (*domain.User, error)

	// ClearExpiredTokens nulls out verification and reset tokens whose expiry has passed.
	ClearExpiredTokens(ctx context.Context, now time.Time) (verification, reset int64, err error)
}
