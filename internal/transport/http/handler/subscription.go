package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/ErlanBelekov/wisdom-hub/internal/domain"
	"github.com/ErlanBelekov/wisdom-hub/internal/transport/http/middleware"
	"github.com/gin-gonic/gin"
)

type subscriptionUsecaser interface {
	Mine(ctx context.Context, userID string) (*domain.Subscription, error)
	Plans() []domain.Plan
}

type SubscriptionHandler struct {
	subscriptionUsecase subscriptionUsecaser
	logger              *slog.Logger
}

func NewSubscriptionHandler(subscriptionUsecase subscriptionUsecaser, logger *slog.Logger) *SubscriptionHandler {
	return &SubscriptionHandler{
		subscriptionUsecase: subscriptionUsecase,
		logger:              logger.With("component", "subscription_handler"),
	}
}

// GET /subscriptions/plans
func (h *SubscriptionHandler) Plans(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"plans": h.subscriptionUsecase.Plans()})
}

// GET /subscriptions/me
func (h *SubscriptionHandler) Mine(c *gin.Context) {
	sub, err := h.subscriptionUsecase.Mine(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		respondError(c, h.logger, "get subscription", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"subscription": subscriptionResponse{
		Status:           sub.Status,
		Plan:             sub.Plan,
		CurrentPeriodEnd: sub.CurrentPeriodEnd,
		UpdatedAt:        sub.UpdatedAt,
	}})
}
