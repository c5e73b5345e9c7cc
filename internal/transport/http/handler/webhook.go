package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/ErlanBelekov/wisdom-hub/internal/domain"
	"github.com/ErlanBelekov/wisdom-hub/internal/metrics"
	"github.com/gin-gonic/gin"
)

const maxWebhookBody = 1 << 16

type webhookParser interface {
	Parse(payload []byte, signature string) (*domain.WebhookEvent, error)
}

type webhookUsecaser interface {
	Handle(ctx context.Context, ev *domain.WebhookEvent) (domain.WebhookOutcome, error)
}

type WebhookHandler struct {
	parser         webhookParser
	webhookUsecase webhookUsecaser
	logger         *slog.Logger
}

func NewWebhookHandler(parser webhookParser, webhookUsecase webhookUsecaser, logger *slog.Logger) *WebhookHandler {
	return &WebhookHandler{
		parser:         parser,
		webhookUsecase: webhookUsecase,
		logger:         logger.With("component", "webhook_handler"),
	}
}

// POST /webhooks/stripe
// The signature is checked against the exact request bytes before anything
// is decoded or applied.
func (h *WebhookHandler) Stripe(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBody)
	payload, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	ev, err := h.parser.Parse(payload, c.GetHeader("Stripe-Signature"))
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrWebhookNotConfigured):
			metrics.WebhookRejectedTotal.WithLabelValues("not_configured").Inc()
			h.logger.ErrorContext(c.Request.Context(), "webhook received but no secret configured")
		case errors.Is(err, domain.ErrWebhookSignature):
			metrics.WebhookRejectedTotal.WithLabelValues("signature").Inc()
			h.logger.WarnContext(c.Request.Context(), "webhook signature rejected", "error", err)
		}
		respondError(c, h.logger, "parse webhook", err)
		return
	}

	if _, err := h.webhookUsecase.Handle(c.Request.Context(), ev); err != nil {
		respondError(c, h.logger, "handle webhook", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"received": true})
}
