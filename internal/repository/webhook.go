package repository

import (
	"context"
	"time"

	"github.com/ErlanBelekov/wisdom-hub/internal/domain"
)

// WebhookRepository applies provider events. Every method records the event
// id in the same transaction as its effect and returns
// domain.ErrEventAlreadyProcessed when the id was seen before, leaving state untouched.
type WebhookRepository interface {
	Record(ctx context.Context, eventID, eventType string, outcome domain.WebhookOutcome) error
	RefundPurchases(ctx context.Context, eventID, eventType, paymentRef string) (int64, error)
	// UpsertSubscription returns domain.ErrUserNotFound when s.UserID names no user.
	UpsertSubscription(ctx context.Context, eventID, eventType string, s *domain.Subscription) error
	CancelSubscription(ctx context.Context, eventID, eventType, providerSubscriptionID string) (int64, error)

	PruneEvents(ctx context.Context, olderThan time.Time) (int64, error)
}
