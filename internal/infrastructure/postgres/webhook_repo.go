package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/ErlanBelekov/wisdom-hub/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type WebhookRepository struct {
	pool *pgxpool.Pool
}

func NewWebhookRepository(pool *pgxpool.Pool) *WebhookRepository {
	return &WebhookRepository{pool: pool}
}

// claimEvent inserts the event id; a conflict means a retry of an event we already applied.
func claimEvent(ctx context.Context, tx pgx.Tx, eventID, eventType string, outcome domain.WebhookOutcome) error {
	tag, err := tx.Exec(ctx, `
		INSERT INTO webhook_events (id, type, outcome)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO NOTHING`,
		eventID, eventType, outcome)
	if err != nil {
		return fmt.Errorf("record webhook event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrEventAlreadyProcessed
	}
	return nil
}

func (r *WebhookRepository) Record(ctx context.Context, eventID, eventType string, outcome domain.WebhookOutcome) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		return claimEvent(ctx, tx, eventID, eventType, outcome)
	})
}

func (r *WebhookRepository) RefundPurchases(ctx context.Context, eventID, eventType, paymentRef string) (int64, error) {
	var refunded int64
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if err := claimEvent(ctx, tx, eventID, eventType, domain.OutcomeApplied); err != nil {
			return err
		}
		tag, err := tx.Exec(ctx, `
			UPDATE purchases
			SET    status = $2, updated_at = NOW()
			WHERE  payment_reference = $1 AND status <> $2`,
			paymentRef, domain.PurchaseRefunded)
		if err != nil {
			return fmt.Errorf("refund purchases: %w", err)
		}
		refunded = tag.RowsAffected()
		return nil
	})
	return refunded, err
}

func (r *WebhookRepository) UpsertSubscription(ctx context.Context, eventID, eventType string, s *domain.Subscription) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if err := claimEvent(ctx, tx, eventID, eventType, domain.OutcomeApplied); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, `
			INSERT INTO subscriptions (
				user_id, provider_customer_id, provider_subscription_id, status, plan, current_period_end
			) VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (user_id) DO UPDATE
			SET provider_customer_id     = EXCLUDED.provider_customer_id,
			    provider_subscription_id = EXCLUDED.provider_subscription_id,
			    status                   = EXCLUDED.status,
			    plan                     = EXCLUDED.plan,
			    current_period_end       = EXCLUDED.current_period_end,
			    updated_at               = NOW()`,
			s.UserID, s.ProviderCustomerID, s.ProviderSubscriptionID, s.Status, s.Plan, s.CurrentPeriodEnd)
		if err != nil {
			if isForeignKeyViolation(err) || isInvalidText(err) {
				return domain.ErrUserNotFound
			}
			return fmt.Errorf("upsert subscription: %w", err)
		}
		return nil
	})
}

func (r *WebhookRepository) CancelSubscription(ctx context.Context, eventID, eventType, providerSubscriptionID string) (int64, error) {
	var canceled int64
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if err := claimEvent(ctx, tx, eventID, eventType, domain.OutcomeApplied); err != nil {
			return err
		}
		tag, err := tx.Exec(ctx, `
			UPDATE subscriptions
			SET    status = $2, updated_at = NOW()
			WHERE  provider_subscription_id = $1`,
			providerSubscriptionID, domain.SubscriptionCanceled)
		if err != nil {
			return fmt.Errorf("cancel subscription: %w", err)
		}
		canceled = tag.RowsAffected()
		return nil
	})
	return canceled, err
}

func (r *WebhookRepository) PruneEvents(ctx context.Context, olderThan time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM webhook_events WHERE received_at < $1`, olderThan)
	if err != nil {
		return 0, fmt.Errorf("prune webhook events: %w", err)
	}
	return tag.RowsAffected(), nil
}
