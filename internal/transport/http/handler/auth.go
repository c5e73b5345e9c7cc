package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/ErlanBelekov/wisdom-hub/internal/domain"
	"github.com/ErlanBelekov/wisdom-hub/internal/transport/http/middleware"
	"github.com/ErlanBelekov/wisdom-hub/internal/usecase"
	"github.com/gin-gonic/gin"
)

const (
	msgResetSent        = "If an account with that email exists, a password reset link has been sent"
	msgVerificationSent = "If an unverified account with that email exists, a verification email has been sent"
	msgPasswordReset    = "Password has been reset"
)

// authUsecaser is the subset of AuthUsecase the handler needs.
// Defined here (point of use) so tests can inject a fake.
type authUsecaser interface {
	Signup(ctx context.Context, in usecase.SignupInput) (*domain.User, error)
	Login(ctx context.Context, email, password string) (*usecase.Session, error)
	VerifyEmail(ctx context.Context, rawToken string) (*usecase.Session, error)
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, rawToken, newPassword string) error
	ResendVerification(ctx context.Context, email string) error
	Me(ctx context.Context, userID string) (*domain.User, error)
	UpdateInterests(ctx context.Context, userID string, interests []string) (*domain.User, error)
}

type AuthHandler struct {
	authUsecase authUsecaser
	logger      *slog.Logger
}

func NewAuthHandler(authUsecase authUsecaser, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		authUsecase: authUsecase,
		logger:      logger.With("component", "auth_handler"),
	}
}

type signupRequest struct {
	Email     string   `json:"email"    binding:"required,email"`
	Password  string   `json:"password" binding:"required"`
	Name      string   `json:"name"     binding:"required"`
	Interests []string `json:"interests"`
	Timezone  string   `json:"timezone"`
}

type loginRequest struct {
	Email    string `json:"email"    binding:"required"`
	Password string `json:"password" binding:"required"`
}

type tokenRequest struct {
	Token string `json:"token" binding:"required"`
}

type emailRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type resetPasswordRequest struct {
	Token    string `json:"token"    binding:"required"`
	Password string `json:"password" binding:"required"`
}

type interestsRequest struct {
	Interests []string `json:"interests" binding:"required"`
}

type sessionResponse struct {
	User  userResponse `json:"user"`
	Token string       `json:"token"`
}

// POST /auth/signup
func (h *AuthHandler) Signup(c *gin.Context) {
	var req signupRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.authUsecase.Signup(c.Request.Context(), usecase.SignupInput{
		Email:     req.Email,
		Password:  req.Password,
		Name:      req.Name,
		Interests: req.Interests,
		Timezone:  req.Timezone,
	})
	if err != nil {
		respondError(c, h.logger, "signup", err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Account created. Please check your email to verify your account.",
		"user":    newUserResponse(user),
	})
}

// POST /auth/login
// 401 for unknown email or wrong password, 403 for a correct password on an
// unverified account.
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if !bindJSON(c, &req) {
		return
	}

	session, err := h.authUsecase.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, h.logger, "login", err)
		return
	}

	c.JSON(http.StatusOK, sessionResponse{User: newUserResponse(session.User), Token: session.Token})
}

// POST /auth/verify-email
func (h *AuthHandler) VerifyEmail(c *gin.Context) {
	var req tokenRequest
	if !bindJSON(c, &req) {
		return
	}

	session, err := h.authUsecase.VerifyEmail(c.Request.Context(), req.Token)
	if err != nil {
		respondError(c, h.logger, "verify email", err)
		return
	}

	c.JSON(http.StatusOK, sessionResponse{User: newUserResponse(session.User), Token: session.Token})
}

// POST /auth/forgot-password
// Always returns the same 200 body so the response does not reveal whether
// the email has an account.
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req emailRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.authUsecase.ForgotPassword(c.Request.Context(), req.Email); err != nil {
		h.logger.ErrorContext(c.Request.Context(), "forgot password", "error", err)
	}

	c.JSON(http.StatusOK, gin.H{"message": msgResetSent})
}

// POST /auth/reset-password
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req resetPasswordRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.authUsecase.ResetPassword(c.Request.Context(), req.Token, req.Password); err != nil {
		respondError(c, h.logger, "reset password", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": msgPasswordReset})
}

// POST /auth/resend-verification
func (h *AuthHandler) ResendVerification(c *gin.Context) {
	var req emailRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.authUsecase.ResendVerification(c.Request.Context(), req.Email); err != nil {
		h.logger.ErrorContext(c.Request.Context(), "resend verification", "error", err)
	}

	c.JSON(http.StatusOK, gin.H{"message": msgVerificationSent})
}

// GET /auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	user, err := h.authUsecase.Me(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		respondError(c, h.logger, "me", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": newUserResponse(user)})
}

// PUT /auth/me/interests
func (h *AuthHandler) UpdateInterests(c *gin.Context) {
	var req interestsRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.authUsecase.UpdateInterests(c.Request.Context(), middleware.UserID(c), req.Interests)
	if err != nil {
		respondError(c, h.logger, "update interests", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": newUserResponse(user)})
}

// GET /interests
func Interests(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"interests": domain.Interests})
}
