package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/ErlanBelekov/wisdom-hub/internal/domain"
	"github.com/gin-gonic/gin"
)

const (
	errInternalServer        = "Internal server error"
	errDuplicateEmail        = "User already exists"
	errInvalidCredentials    = "Invalid credentials"
	errEmailNotVerified      = "Please verify your email before logging in"
	errInvalidOrExpiredToken = "Token is invalid or expired"
	errUserNotFound          = "User not found"
	errForbidden             = "Forbidden"

	errPaymentNotSucceeded   = "Payment not successful"
	errPaymentMismatch       = "Payment does not match this purchase"
	errMissingProduct        = "Exactly one of article_id, book_id or course_id is required"
	errInvalidAmount         = "Amount must be a positive number of minor currency units"
	errPaymentsNotConfigured = "Payments are not configured"

	errWebhookSignature     = "Webhook signature verification failed"
	errWebhookNotConfigured = "Webhook endpoint is not configured"

	errAffiliateNotFound     = "Affiliate not found"
	errAlreadyRegistered     = "User is already registered as an affiliate"
	errInvalidCommissionRate = "Commission rate must be between 1 and 100"

	errSubscriptionNotFound = "No subscription found"
)

type errorMapping struct {
	target error
	status int
	msg    string
}

// errorTable maps domain errors to their HTTP status and client message.
// Order matters only where one error wraps another.
var errorTable = []errorMapping{
	{domain.ErrDuplicateEmail, http.StatusConflict, errDuplicateEmail},
	{domain.ErrInvalidCredentials, http.StatusUnauthorized, errInvalidCredentials},
	{domain.ErrEmailNotVerified, http.StatusForbidden, errEmailNotVerified},
	{domain.ErrInvalidOrExpiredToken, http.StatusBadRequest, errInvalidOrExpiredToken},
	{domain.ErrUserNotFound, http.StatusNotFound, errUserNotFound},
	{domain.ErrForbidden, http.StatusForbidden, errForbidden},

	{domain.ErrPaymentsNotConfigured, http.StatusServiceUnavailable, errPaymentsNotConfigured},
	{domain.ErrPaymentNotSucceeded, http.StatusBadRequest, errPaymentNotSucceeded},
	{domain.ErrPaymentMismatch, http.StatusBadRequest, errPaymentMismatch},
	{domain.ErrMissingProductReference, http.StatusBadRequest, errMissingProduct},
	{domain.ErrInvalidAmount, http.StatusBadRequest, errInvalidAmount},

	{domain.ErrWebhookNotConfigured, http.StatusServiceUnavailable, errWebhookNotConfigured},
	{domain.ErrWebhookSignature, http.StatusBadRequest, errWebhookSignature},

	{domain.ErrAffiliateNotFound, http.StatusNotFound, errAffiliateNotFound},
	{domain.ErrAlreadyRegistered, http.StatusConflict, errAlreadyRegistered},
	{domain.ErrInvalidCommissionRate, http.StatusBadRequest, errInvalidCommissionRate},

	{domain.ErrSubscriptionNotFound, http.StatusNotFound, errSubscriptionNotFound},
}

// respondError writes the {error} body for err. Anything not in errorTable is
// logged and reported as a 500 without details.
func respondError(c *gin.Context, logger *slog.Logger, op string, err error) {
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		c.JSON(http.StatusBadRequest, gin.H{"error": verr.Msg})
		return
	}

	for _, m := range errorTable {
		if errors.Is(err, m.target) {
			c.JSON(m.status, gin.H{"error": m.msg})
			return
		}
	}

	logger.ErrorContext(c.Request.Context(), op, "error", err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
}

// bindJSON decodes the body into req, answering 400 itself on failure.
func bindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return false
	}
	return true
}

// bindOptionalJSON is bindJSON for endpoints whose body may be omitted. An
// empty body, with or without a Content-Length, leaves req at its zero value.
func bindOptionalJSON(c *gin.Context, req any) bool {
	err := c.ShouldBindJSON(req)
	if err == nil || errors.Is(err, io.EOF) {
		return true
	}
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	return false
}
