package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	// timezone validation must not depend on the host's zoneinfo
	_ "time/tzdata"

	"github.com/ErlanBelekov/wisdom-hub/internal/domain"
	"github.com/ErlanBelekov/wisdom-hub/internal/email"
	"github.com/ErlanBelekov/wisdom-hub/internal/metrics"
	"github.com/ErlanBelekov/wisdom-hub/internal/password"
	"github.com/ErlanBelekov/wisdom-hub/internal/repository"
	"github.com/ErlanBelekov/wisdom-hub/internal/token"
)

const (
	verificationTokenTTL = 24 * time.Hour
	resetTokenTTL        = time.Hour
)

type AuthUsecase struct {
	users  repository.UserRepository
	hasher *password.Hasher
	tokens *token.Issuer
	email  email.Sender
	links  email.Links
	logger *slog.Logger
	now    func() time.Time

	// compared against on unknown emails so login timing is the same either way
	dummyHash string
}

func NewAuthUsecase(
	users repository.UserRepository,
	hasher *password.Hasher,
	tokens *token.Issuer,
	emailSender email.Sender,
	links email.Links,
	logger *slog.Logger,
) *AuthUsecase {
	dummy, err := hasher.Hash("timing-equalizer-password")
	if err != nil {
		// only reachable if bcrypt itself is broken
		panic(fmt.Sprintf("hash dummy password: %v", err))
	}
	return &AuthUsecase{
		users:     users,
		hasher:    hasher,
		tokens:    tokens,
		email:     emailSender,
		links:     links,
		logger:    logger.With("component", "auth_usecase"),
		now:       time.Now,
		dummyHash: dummy,
	}
}

type SignupInput struct {
	Email     string
	Password  string
	Name      string
	Interests []string
	Timezone  string
}

// Session is what a successful login or verification hands back to the client.
type Session struct {
	User  *domain.User
	Token string
}

// Signup creates an unverified account and emails its verification link.
// A failed email does not fail the signup.
func (u *AuthUsecase) Signup(ctx context.Context, in SignupInput) (*domain.User, error) {
	in.Email = domain.NormalizeEmail(in.Email)
	in.Name = strings.TrimSpace(in.Name)
	if in.Email == "" || in.Name == "" || in.Password == "" {
		return nil, domain.NewValidationError("email, password and name are required")
	}
	if err := password.Validate(in.Password); err != nil {
		return nil, domain.NewValidationError(err.Error())
	}
	interests, err := normalizeInterests(in.Interests)
	if err != nil {
		return nil, err
	}
	if in.Timezone != "" {
		if _, err := time.LoadLocation(in.Timezone); err != nil {
			return nil, domain.NewValidationError("unknown timezone")
		}
	}

	// Best-effort pre-check; the unique index on email decides races.
	if _, err := u.users.FindByEmail(ctx, in.Email); err == nil {
		return nil, domain.ErrDuplicateEmail
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, fmt.Errorf("find user: %w", err)
	}

	hash, err := u.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	rawToken, tokenHash, err := token.NewOpaque()
	if err != nil {
		return nil, err
	}
	expiresAt := u.now().Add(verificationTokenTTL)

	user, err := u.users.Create(ctx, &domain.User{
		Email:                      in.Email,
		Name:                       in.Name,
		PasswordHash:               hash,
		VerificationTokenHash:      &tokenHash,
		VerificationTokenExpiresAt: &expiresAt,
		Interests:                  interests,
		Timezone:                   in.Timezone,
	})
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	metrics.SignupsTotal.Inc()

	u.send(ctx, user.Email, email.Verification(u.links, user.Name, rawToken))
	return user, nil
}

// Login returns ErrInvalidCredentials for an unknown email or a wrong
// password, and ErrEmailNotVerified only after the password matched.
func (u *AuthUsecase) Login(ctx context.Context, emailAddr, pw string) (*Session, error) {
	user, err := u.users.FindByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			u.hasher.Compare(u.dummyHash, pw)
			metrics.LoginsTotal.WithLabelValues("invalid_credentials").Inc()
			return nil, domain.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("find user: %w", err)
	}

	if !u.hasher.Compare(user.PasswordHash, pw) {
		metrics.LoginsTotal.WithLabelValues("invalid_credentials").Inc()
		return nil, domain.ErrInvalidCredentials
	}
	if !user.EmailVerified {
		metrics.LoginsTotal.WithLabelValues("unverified").Inc()
		return nil, domain.ErrEmailNotVerified
	}

	signed, err := u.tokens.Issue(user.ID, user.Email)
	if err != nil {
		return nil, err
	}
	metrics.LoginsTotal.WithLabelValues("success").Inc()
	return &Session{User: user, Token: signed}, nil
}

// VerifyEmail consumes a verification token, marks the account verified and
// starts a session.
func (u *AuthUsecase) VerifyEmail(ctx context.Context, rawToken string) (*Session, error) {
	if rawToken == "" {
		return nil, domain.ErrInvalidOrExpiredToken
	}

	user, err := u.users.ConsumeVerificationToken(ctx, token.HashOpaque(rawToken), u.now())
	if err != nil {
		if errors.Is(err, domain.ErrInvalidOrExpiredToken) {
			return nil, err
		}
		return nil, fmt.Errorf("consume verification token: %w", err)
	}

	signed, err := u.tokens.Issue(user.ID, user.Email)
	if err != nil {
		return nil, err
	}

	u.send(ctx, user.Email, email.Welcome(user.Name))
	return &Session{User: user, Token: signed}, nil
}

// ForgotPassword stores a reset token and emails it when the account exists.
// Callers must respond identically whether or not it does.
func (u *AuthUsecase) ForgotPassword(ctx context.Context, emailAddr string) error {
	user, err := u.users.FindByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil
		}
		return fmt.Errorf("find user: %w", err)
	}

	rawToken, tokenHash, err := token.NewOpaque()
	if err != nil {
		return err
	}
	if err := u.users.SetResetToken(ctx, user.ID, tokenHash, u.now().Add(resetTokenTTL)); err != nil {
		return fmt.Errorf("store reset token: %w", err)
	}

	u.send(ctx, user.Email, email.PasswordReset(u.links, user.Name, rawToken))
	return nil
}

func (u *AuthUsecase) ResetPassword(ctx context.Context, rawToken, newPassword string) error {
	hash, err := u.hasher.Hash(newPassword)
	if err != nil {
		if password.IsValidationError(err) {
			return domain.NewValidationError(err.Error())
		}
		return fmt.Errorf("hash password: %w", err)
	}
	if rawToken == "" {
		return domain.ErrInvalidOrExpiredToken
	}

	if _, err := u.users.ConsumeResetToken(ctx, token.HashOpaque(rawToken), hash, u.now()); err != nil {
		if errors.Is(err, domain.ErrInvalidOrExpiredToken) {
			return err
		}
		return fmt.Errorf("consume reset token: %w", err)
	}
	return nil
}

// ResendVerification rotates the verification token of an unverified account.
// Like ForgotPassword, the result does not reveal whether the account exists.
func (u *AuthUsecase) ResendVerification(ctx context.Context, emailAddr string) error {
	user, err := u.users.FindByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil
		}
		return fmt.Errorf("find user: %w", err)
	}
	if user.EmailVerified {
		return nil
	}

	rawToken, tokenHash, err := token.NewOpaque()
	if err != nil {
		return err
	}
	if err := u.users.SetVerificationToken(ctx, user.ID, tokenHash, u.now().Add(verificationTokenTTL)); err != nil {
		return fmt.Errorf("store verification token: %w", err)
	}

	u.send(ctx, user.Email, email.Verification(u.links, user.Name, rawToken))
	return nil
}

func (u *AuthUsecase) Me(ctx context.Context, userID string) (*domain.User, error) {
	user, err := u.users.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	return user, nil
}

func (u *AuthUsecase) UpdateInterests(ctx context.Context, userID string, interests []string) (*domain.User, error) {
	normalized, err := normalizeInterests(interests)
	if err != nil {
		return nil, err
	}
	user, err := u.users.UpdateInterests(ctx, userID, normalized)
	if err != nil {
		return nil, fmt.Errorf("update interests: %w", err)
	}
	return user, nil
}

func (u *AuthUsecase) send(ctx context.Context, to string, msg email.Message) {
	if err := u.email.Send(ctx, to, msg); err != nil {
		metrics.EmailFailuresTotal.WithLabelValues(msg.Kind).Inc()
		u.logger.WarnContext(ctx, "send email", "kind", msg.Kind, "error", err)
	}
}

// normalizeInterests rejects unknown tags and drops duplicates, keeping order.
func normalizeInterests(in []string) ([]string, error) {
	out := make([]string, 0, len(in))
	seen := make(map[string]bool, len(in))
	for _, tag := range in {
		tag = strings.TrimSpace(tag)
		if !domain.IsInterest(tag) {
			return nil, domain.NewValidationError(fmt.Sprintf("unknown interest %q", tag))
		}
		if seen[tag] {
			continue
		}
		seen[tag] = true
		out = append(out, tag)
	}
	return out, nil
}
