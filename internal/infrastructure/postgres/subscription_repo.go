package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/ErlanBelekov/wisdom-hub/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type SubscriptionRepository struct {
	pool *pgxpool.Pool
}

func NewSubscriptionRepository(pool *pgxpool.Pool) *SubscriptionRepository {
	return &SubscriptionRepository{pool: pool}
}

func (r *SubscriptionRepository) FindByUserID(ctx context.Context, userID string) (*domain.Subscription, error) {
	var s domain.Subscription
	var customerID, subscriptionID *string
	err := r.pool.QueryRow(ctx, `
		SELECT user_id, provider_customer_id, provider_subscription_id, status, plan,
		       current_period_end, created_at, updated_at
		FROM subscriptions
		WHERE user_id = $1`,
		userID,
	).Scan(&s.UserID, &customerID, &subscriptionID, &s.Status, &s.Plan,
		&s.CurrentPeriodEnd, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrSubscriptionNotFound
		}
		return nil, fmt.Errorf("find subscription: %w", err)
	}
	if customerID != nil {
		s.ProviderCustomerID = *customerID
	}
	if subscriptionID != nil {
		s.ProviderSubscriptionID = *subscriptionID
	}
	return &s, nil
}
