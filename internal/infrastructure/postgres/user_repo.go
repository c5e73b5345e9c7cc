package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ErlanBelekov/wisdom-hub/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const userColumns = `id, email, name, password_hash, email_verified,
	verification_token_hash, verification_token_expires_at,
	reset_token_hash, reset_token_expires_at,
	interests, timezone, created_at, updated_at`

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func (r *UserRepository) Create(ctx context.Context, u *domain.User) (*domain.User, error) {
	interests := u.Interests
	if interests == nil {
		interests = []string{}
	}
	timezone := u.Timezone
	if timezone == "" {
		timezone = "UTC"
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO users (
			email, name, password_hash, email_verified,
			verification_token_hash, verification_token_expires_at,
			interests, timezone
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+userColumns,
		domain.NormalizeEmail(u.Email), u.Name, u.PasswordHash, u.EmailVerified,
		u.VerificationTokenHash, u.VerificationTokenExpiresAt,
		interests, timezone,
	)

	created, err := scanUser(row)
	if err != nil {
		if name, ok := uniqueConstraint(err); ok && name == "users_email_key" {
			return nil, domain.ErrDuplicateEmail
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return created, nil
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row)
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`,
		domain.NormalizeEmail(email))
	return scanUser(row)
}

func (r *UserRepository) FindByVerificationToken(ctx context.Context, tokenHash string) (*domain.User, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE verification_token_hash = $1`, tokenHash)
	return scanUser(row)
}

func (r *UserRepository) FindByResetToken(ctx context.Context, tokenHash string) (*domain.User, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE reset_token_hash = $1`, tokenHash)
	return scanUser(row)
}

// ConsumeVerificationToken claims the token with a single UPDATE so two
// concurrent verifications cannot both succeed.
func (r *UserRepository) ConsumeVerificationToken(ctx context.Context, tokenHash string, now time.Time) (*domain.User, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE users
		SET    email_verified                = TRUE,
		       verification_token_hash       = NULL,
		       verification_token_expires_at = NULL,
		       updated_at                    = NOW()
		WHERE  verification_token_hash = $1
		  AND  verification_token_expires_at > $2
		RETURNING `+userColumns,
		tokenHash, now)

	u, err := scanUser(row)
	if errors.Is(err, domain.ErrUserNotFound) {
		return nil, domain.ErrInvalidOrExpiredToken
	}
	return u, err
}

func (r *UserRepository) SetVerificationToken(ctx context.Context, userID, tokenHash string, expiresAt time.Time) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE users
		SET    verification_token_hash = $2, verification_token_expires_at = $3, updated_at = NOW()
		WHERE  id = $1`,
		userID, tokenHash, expiresAt)
	if err != nil {
		return fmt.Errorf("set verification token: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) SetResetToken(ctx context.Context, userID, tokenHash string, expiresAt time.Time) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE users
		SET    reset_token_hash = $2, reset_token_expires_at = $3, updated_at = NOW()
		WHERE  id = $1`,
		userID, tokenHash, expiresAt)
	if err != nil {
		return fmt.Errorf("set reset token: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) ConsumeResetToken(ctx context.Context, tokenHash, passwordHash string, now time.Time) (*domain.User, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE users
		SET    password_hash          = $2,
		       reset_token_hash       = NULL,
		       reset_token_expires_at = NULL,
		       updated_at             = NOW()
		WHERE  reset_token_hash = $1
		  AND  reset_token_expires_at > $3
		RETURNING `+userColumns,
		tokenHash, passwordHash, now)

	u, err := scanUser(row)
	if errors.Is(err, domain.ErrUserNotFound) {
		return nil, domain.ErrInvalidOrExpiredToken
	}
	return u, err
}

func (r *UserRepository) UpdateInterests(ctx context.Context, userID string, interests []string) (*domain.User, error) {
	if interests == nil {
		interests = []string{}
	}
	row := r.pool.QueryRow(ctx, `
		UPDATE users SET interests = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING `+userColumns,
		userID, interests)
	return scanUser(row)
}

func (r *UserRepository) ClearExpiredTokens(ctx context.Context, now time.Time) (int64, int64, error) {
	verification, err := r.pool.Exec(ctx, `
		UPDATE users
		SET    verification_token_hash = NULL, verification_token_expires_at = NULL, updated_at = NOW()
		WHERE  verification_token_expires_at <= $1`, now)
	if err != nil {
		return 0, 0, fmt.Errorf("clear verification tokens: %w", err)
	}

	reset, err := r.pool.Exec(ctx, `
		UPDATE users
		SET    reset_token_hash = NULL, reset_token_expires_at = NULL, updated_at = NOW()
		WHERE  reset_token_expires_at <= $1`, now)
	if err != nil {
		return verification.RowsAffected(), 0, fmt.Errorf("clear reset tokens: %w", err)
	}

	return verification.RowsAffected(), reset.RowsAffected(), nil
}

func scanUser(row rowScanner) (*domain.User, error) {
	var u domain.User
	err := row.Scan(
		&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.EmailVerified,
		&u.VerificationTokenHash, &u.VerificationTokenExpiresAt,
		&u.ResetTokenHash, &u.ResetTokenExpiresAt,
		&u.Interests, &u.Timezone, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}
	return &u, nil
}
