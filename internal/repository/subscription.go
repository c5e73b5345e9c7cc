package repository

import (
	"context"

	"github.com/ErlanBelekov/wisdom-hub/internal/domain"
)

type SubscriptionRepository interface {
	FindByUserID(ctx context.Context, userID string) (*domain.Subscription, error)
}
