package usecase_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ErlanBelekov/wisdom-hub/internal/domain"
	"github.com/ErlanBelekov/wisdom-hub/internal/email"
	"github.com/ErlanBelekov/wisdom-hub/internal/password"
	"github.com/ErlanBelekov/wisdom-hub/internal/repository"
	"github.com/ErlanBelekov/wisdom-hub/internal/token"
	"github.com/ErlanBelekov/wisdom-hub/internal/usecase"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---- helpers ----

const (
	testJWTKey = "test-jwt-secret-at-least-32-chars!!"
	testAppURL = "http://localhost:8080"
)

func newAuth(repo repository.UserRepository, sender *fakeEmailSender) *usecase.AuthUsecase {
	return usecase.NewAuthUsecase(
		repo,
		password.NewHasher(password.MinCost),
		token.NewIssuer([]byte(testJWTKey)),
		sender,
		email.NewLinks(testAppURL),
		discardLogger,
	)
}

func tokenFromBody(t *testing.T, body string) string {
	t.Helper()
	idx := strings.Index(body, "?token=")
	require.NotEqual(t, -1, idx, "email body does not contain ?token=: %q", body)
	return strings.SplitN(body[idx+len("?token="):], `"`, 2)[0]
}

func signup(t *testing.T, auth *usecase.AuthUsecase, addr string) *domain.User {
	t.Helper()
	u, err := auth.Signup(context.Background(), usecase.SignupInput{
		Email: addr, Password: "password123", Name: "Ann",
	})
	require.NoError(t, err, "signup")
	return u
}

// ---- scenario ----

func TestSignupLoginVerifyLogin(t *testing.T) {
	ctx := context.Background()
	repo := newMemUserRepo()
	sender := &fakeEmailSender{}
	auth := newAuth(repo, sender)

	user := signup(t, auth, "a@x.com")
	require.False(t, user.EmailVerified, "new user should be unverified")

	_, err := auth.Login(ctx, "a@x.com", "password123")
	require.ErrorIs(t, err, domain.ErrEmailNotVerified)

	session, err := auth.VerifyEmail(ctx, tokenFromBody(t, sender.last().body))
	require.NoError(t, err)
	assert.NotEmpty(t, session.Token)
	assert.True(t, session.User.EmailVerified)

	session, err = auth.Login(ctx, "A@X.com ", "password123")
	require.NoError(t, err)

	claims, err := token.NewIssuer([]byte(testJWTKey)).Verify(session.Token)
	require.NoError(t, err, "issued token does not verify")
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, "a@x.com", claims.Email)
}

// ---- Signup ----

func TestSignup_StoresHashOfEmailedToken(t *testing.T) {
	repo := newMemUserRepo()
	sender := &fakeEmailSender{}
	user := signup(t, newAuth(repo, sender), "a@x.com")

	raw := tokenFromBody(t, sender.last().body)
	stored, err := repo.FindByID(context.Background(), user.ID)
	require.NoError(t, err)

	require.NotNil(t, stored.VerificationTokenHash)
	assert.Equal(t, token.HashOpaque(raw), *stored.VerificationTokenHash)
	assert.NotEqual(t, "password123", stored.PasswordHash, "password stored in plaintext")
}

func TestSignup_VerificationExpiresInADay(t *testing.T) {
	repo := newMemUserRepo()
	before := time.Now()
	user := signup(t, newAuth(repo, &fakeEmailSender{}), "a@x.com")

	stored, err := repo.FindByID(context.Background(), user.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.VerificationTokenExpiresAt)
	assert.WithinRange(t, *stored.VerificationTokenExpiresAt,
		before.Add(23*time.Hour), time.Now().Add(25*time.Hour))
}

func TestSignup_DuplicateEmail(t *testing.T) {
	repo := newMemUserRepo()
	auth := newAuth(repo, &fakeEmailSender{})
	signup(t, auth, "a@x.com")

	_, err := auth.Signup(context.Background(), usecase.SignupInput{
		Email: " A@x.COM", Password: "password123", Name: "Ann",
	})
	assert.ErrorIs(t, err, domain.ErrDuplicateEmail)
}

// gatedUserRepo holds every FindByEmail caller until n of them have arrived,
// so all concurrent signups pass the existence check before any insert.
type gatedUserRepo struct {
	*memUserRepo
	gate sync.WaitGroup
}

func newGatedUserRepo(n int) *gatedUserRepo {
	r := &gatedUserRepo{memUserRepo: newMemUserRepo()}
	r.gate.Add(n)
	return r
}

func (r *gatedUserRepo) FindByEmail(ctx context.Context, addr string) (*domain.User, error) {
	r.gate.Done()
	r.gate.Wait()
	return r.memUserRepo.FindByEmail(ctx, addr)
}

func TestSignup_ConcurrentDuplicatesCreateOneUser(t *testing.T) {
	const attempts = 8
	repo := newGatedUserRepo(attempts)
	auth := newAuth(repo, &fakeEmailSender{})

	var wg sync.WaitGroup
	errs := make(chan error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			addr := "a@x.com"
			if i%2 == 1 {
				addr = " A@X.com"
			}
			_, err := auth.Signup(context.Background(), usecase.SignupInput{
				Email: addr, Password: "password123", Name: "Ann",
			})
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)

	var ok, dup int
	for err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, domain.ErrDuplicateEmail):
			dup++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, ok, "successful signups")
	assert.Equal(t, attempts-1, dup, "duplicate signups")

	repo.mu.Lock()
	defer repo.mu.Unlock()
	assert.Len(t, repo.byID, 1, "stored users")
}

func TestSignup_Validation(t *testing.T) {
	tests := []struct {
		name string
		in   usecase.SignupInput
	}{
		{"missing email", usecase.SignupInput{Password: "password123", Name: "Ann"}},
		{"missing name", usecase.SignupInput{Email: "a@x.com", Password: "password123"}},
		{"short password", usecase.SignupInput{Email: "a@x.com", Password: "short", Name: "Ann"}},
		{"unknown interest", usecase.SignupInput{Email: "a@x.com", Password: "password123", Name: "Ann", Interests: []string{"Cooking"}}},
		{"bad timezone", usecase.SignupInput{Email: "a@x.com", Password: "password123", Name: "Ann", Timezone: "Mars/Olympus"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := newAuth(newMemUserRepo(), &fakeEmailSender{}).Signup(context.Background(), tc.in)
			var ve *domain.ValidationError
			assert.ErrorAs(t, err, &ve)
		})
	}
}

func TestSignup_AcceptsIANATimezone(t *testing.T) {
	repo := newMemUserRepo()
	user, err := newAuth(repo, &fakeEmailSender{}).Signup(context.Background(), usecase.SignupInput{
		Email: "a@x.com", Password: "password123", Name: "Ann", Timezone: "Asia/Bishkek",
	})
	require.NoError(t, err)
	assert.Equal(t, "Asia/Bishkek", user.Timezone)
}

func TestSignup_EmailFailureIsNotFatal(t *testing.T) {
	repo := newMemUserRepo()
	sender := &fakeEmailSender{err: errors.New("smtp unavailable")}

	_, err := newAuth(repo, sender).Signup(context.Background(), usecase.SignupInput{
		Email: "a@x.com", Password: "password123", Name: "Ann",
	})
	require.NoError(t, err, "signup failed on email error")

	_, err = repo.FindByEmail(context.Background(), "a@x.com")
	assert.NoError(t, err, "user not created")
}

// ---- Login ----

func TestLogin_WrongPasswordAndUnknownEmailLookTheSame(t *testing.T) {
	repo := newMemUserRepo()
	auth := newAuth(repo, &fakeEmailSender{})
	signup(t, auth, "a@x.com")

	_, wrongPw := auth.Login(context.Background(), "a@x.com", "password124")
	_, unknown := auth.Login(context.Background(), "nobody@x.com", "password123")

	assert.ErrorIs(t, wrongPw, domain.ErrInvalidCredentials)
	assert.ErrorIs(t, unknown, domain.ErrInvalidCredentials)
}

func TestLogin_UnverifiedWrongPasswordIsInvalidCredentials(t *testing.T) {
	auth := newAuth(newMemUserRepo(), &fakeEmailSender{})
	signup(t, auth, "a@x.com")

	_, err := auth.Login(context.Background(), "a@x.com", "nope-nope-nope")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

// ---- VerifyEmail ----

func TestVerifyEmail_TokenIsSingleUse(t *testing.T) {
	sender := &fakeEmailSender{}
	auth := newAuth(newMemUserRepo(), sender)
	signup(t, auth, "a@x.com")
	raw := tokenFromBody(t, sender.last().body)

	_, err := auth.VerifyEmail(context.Background(), raw)
	require.NoError(t, err, "first verify")

	_, err = auth.VerifyEmail(context.Background(), raw)
	assert.ErrorIs(t, err, domain.ErrInvalidOrExpiredToken)
}

func TestVerifyEmail_SendsWelcome(t *testing.T) {
	sender := &fakeEmailSender{}
	auth := newAuth(newMemUserRepo(), sender)
	signup(t, auth, "a@x.com")

	_, err := auth.VerifyEmail(context.Background(), tokenFromBody(t, sender.last().body))
	require.NoError(t, err)
	assert.Equal(t, email.Welcome("").Subject, sender.last().subject)
}

func TestVerifyEmail_UnknownOrEmptyToken(t *testing.T) {
	auth := newAuth(newMemUserRepo(), &fakeEmailSender{})
	for _, raw := range []string{"", "deadbeef"} {
		_, err := auth.VerifyEmail(context.Background(), raw)
		assert.ErrorIs(t, err, domain.ErrInvalidOrExpiredToken, "VerifyEmail(%q)", raw)
	}
}

func TestVerifyEmail_ExpiredToken(t *testing.T) {
	repo := newMemUserRepo()
	sender := &fakeEmailSender{}
	auth := newAuth(repo, sender)
	user := signup(t, auth, "a@x.com")
	raw := tokenFromBody(t, sender.last().body)

	past := time.Now().Add(-time.Minute)
	require.NoError(t, repo.SetVerificationToken(context.Background(), user.ID, token.HashOpaque(raw), past))

	_, err := auth.VerifyEmail(context.Background(), raw)
	assert.ErrorIs(t, err, domain.ErrInvalidOrExpiredToken)
}

// ---- ForgotPassword / ResetPassword ----

func TestForgotPassword_UnknownEmailIsSilent(t *testing.T) {
	sender := &fakeEmailSender{}
	err := newAuth(newMemUserRepo(), sender).ForgotPassword(context.Background(), "nobody@x.com")
	require.NoError(t, err)
	assert.Empty(t, sender.sent, "emails sent for unknown address")
}

func TestForgotThenResetPassword(t *testing.T) {
	ctx := context.Background()
	sender := &fakeEmailSender{}
	auth := newAuth(newMemUserRepo(), sender)
	signup(t, auth, "a@x.com")
	_, err := auth.VerifyEmail(ctx, tokenFromBody(t, sender.last().body))
	require.NoError(t, err)

	require.NoError(t, auth.ForgotPassword(ctx, "a@x.com"))
	raw := tokenFromBody(t, sender.last().body)

	require.NoError(t, auth.ResetPassword(ctx, raw, "brand-new-password"))

	_, err = auth.Login(ctx, "a@x.com", "password123")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials, "old password")

	_, err = auth.Login(ctx, "a@x.com", "brand-new-password")
	assert.NoError(t, err, "new password")

	err = auth.ResetPassword(ctx, raw, "another-password")
	assert.ErrorIs(t, err, domain.ErrInvalidOrExpiredToken, "reused reset token")
}

func TestResetPassword_RejectsBadPasswords(t *testing.T) {
	auth := newAuth(newMemUserRepo(), &fakeEmailSender{})
	for _, pw := range []string{"short", strings.Repeat("x", password.MaxBytes+1)} {
		err := auth.ResetPassword(context.Background(), "tok", pw)
		var ve *domain.ValidationError
		assert.ErrorAs(t, err, &ve, "password of %d bytes", len(pw))
	}
}

func TestResetPassword_EmptyToken(t *testing.T) {
	err := newAuth(newMemUserRepo(), &fakeEmailSender{}).ResetPassword(context.Background(), "", "brand-new-password")
	assert.ErrorIs(t, err, domain.ErrInvalidOrExpiredToken)
}

// ---- ResendVerification ----

func TestResendVerification_RotatesToken(t *testing.T) {
	ctx := context.Background()
	sender := &fakeEmailSender{}
	auth := newAuth(newMemUserRepo(), sender)
	signup(t, auth, "a@x.com")
	first := tokenFromBody(t, sender.last().body)

	require.NoError(t, auth.ResendVerification(ctx, "a@x.com"))
	second := tokenFromBody(t, sender.last().body)
	require.NotEqual(t, first, second, "token was not rotated")

	_, err := auth.VerifyEmail(ctx, first)
	assert.ErrorIs(t, err, domain.ErrInvalidOrExpiredToken, "old token")

	_, err = auth.VerifyEmail(ctx, second)
	assert.NoError(t, err, "new token")
}

func TestResendVerification_VerifiedUserGetsNothing(t *testing.T) {
	ctx := context.Background()
	sender := &fakeEmailSender{}
	auth := newAuth(newMemUserRepo(), sender)
	signup(t, auth, "a@x.com")
	_, err := auth.VerifyEmail(ctx, tokenFromBody(t, sender.last().body))
	require.NoError(t, err)
	sent := len(sender.sent)

	require.NoError(t, auth.ResendVerification(ctx, "a@x.com"))
	assert.Len(t, sender.sent, sent, "verification email sent to a verified account")
}

// ---- Interests ----

func TestUpdateInterests_DedupesAndValidates(t *testing.T) {
	repo := newMemUserRepo()
	auth := newAuth(repo, &fakeEmailSender{})
	user := signup(t, auth, "a@x.com")

	got, err := auth.UpdateInterests(context.Background(), user.ID, []string{"Mindset", " Habits", "Mindset"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Mindset", "Habits"}, got.Interests)

	_, err = auth.UpdateInterests(context.Background(), user.ID, []string{"Cooking"})
	var ve *domain.ValidationError
	assert.ErrorAs(t, err, &ve)
}

func TestMe_UnknownUser(t *testing.T) {
	_, err := newAuth(newMemUserRepo(), &fakeEmailSender{}).Me(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}
