package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ErlanBelekov/wisdom-hub/internal/domain"
	"github.com/ErlanBelekov/wisdom-hub/internal/metrics"
	"github.com/ErlanBelekov/wisdom-hub/internal/repository"
)

// WebhookUsecase applies verified provider events exactly once.
type WebhookUsecase struct {
	repo   repository.WebhookRepository
	logger *slog.Logger
}

func NewWebhookUsecase(repo repository.WebhookRepository, logger *slog.Logger) *WebhookUsecase {
	return &WebhookUsecase{
		repo:   repo,
		logger: logger.With("component", "webhook_usecase"),
	}
}

// Handle applies ev. A redelivered event id reports OutcomeDuplicate and
// changes nothing.
func (u *WebhookUsecase) Handle(ctx context.Context, ev *domain.WebhookEvent) (domain.WebhookOutcome, error) {
	outcome, err := u.apply(ctx, ev)
	if errors.Is(err, domain.ErrEventAlreadyProcessed) {
		outcome, err = domain.OutcomeDuplicate, nil
	}
	if err != nil {
		return "", err
	}

	metrics.WebhookEventsTotal.WithLabelValues(ev.Type, string(outcome)).Inc()
	u.logger.InfoContext(ctx, "webhook event", "event_id", ev.ID, "type", ev.Type, "outcome", outcome)
	return outcome, nil
}

func (u *WebhookUsecase) apply(ctx context.Context, ev *domain.WebhookEvent) (domain.WebhookOutcome, error) {
	if ev.Malformed {
		u.logger.WarnContext(ctx, "webhook object did not decode", "event_id", ev.ID, "type", ev.Type)
		return u.record(ctx, ev, domain.OutcomeIgnored)
	}

	switch ev.Type {
	case domain.EventPaymentSucceeded, domain.EventPaymentFailed:
		u.logger.InfoContext(ctx, "payment event", "type", ev.Type, "payment_intent", ev.PaymentIntentID)
		return u.record(ctx, ev, domain.OutcomeLogged)

	case domain.EventChargeRefunded:
		if ev.RefundedPayment == "" {
			u.logger.InfoContext(ctx, "refund left purchase in place", "event_id", ev.ID)
			return u.record(ctx, ev, domain.OutcomeIgnored)
		}
		n, err := u.repo.RefundPurchases(ctx, ev.ID, ev.Type, ev.RefundedPayment)
		if err != nil {
			return "", fmt.Errorf("refund purchases: %w", err)
		}
		u.logger.InfoContext(ctx, "purchases refunded", "payment_reference", ev.RefundedPayment, "count", n)
		return domain.OutcomeApplied, nil

	case domain.EventSubscriptionCreated, domain.EventSubscriptionUpdated:
		sub := ev.Subscription
		if sub == nil || sub.UserID == "" {
			u.logger.WarnContext(ctx, "subscription event without user_id metadata", "event_id", ev.ID)
			return u.record(ctx, ev, domain.OutcomeIgnored)
		}
		err := u.repo.UpsertSubscription(ctx, ev.ID, ev.Type, sub)
		if errors.Is(err, domain.ErrUserNotFound) {
			u.logger.WarnContext(ctx, "subscription for unknown user", "event_id", ev.ID, "user_id", sub.UserID)
			return u.record(ctx, ev, domain.OutcomeIgnored)
		}
		if err != nil {
			return "", fmt.Errorf("upsert subscription: %w", err)
		}
		return domain.OutcomeApplied, nil

	case domain.EventSubscriptionDeleted:
		if ev.Subscription == nil || ev.Subscription.ProviderSubscriptionID == "" {
			return u.record(ctx, ev, domain.OutcomeIgnored)
		}
		if _, err := u.repo.CancelSubscription(ctx, ev.ID, ev.Type, ev.Subscription.ProviderSubscriptionID); err != nil {
			return "", fmt.Errorf("cancel subscription: %w", err)
		}
		return domain.OutcomeApplied, nil

	default:
		return u.record(ctx, ev, domain.OutcomeIgnored)
	}
}

func (u *WebhookUsecase) record(ctx context.Context, ev *domain.WebhookEvent, outcome domain.WebhookOutcome) (domain.WebhookOutcome, error) {
	if err := u.repo.Record(ctx, ev.ID, ev.Type, outcome); err != nil {
		return "", fmt.Errorf("record event: %w", err)
	}
	return outcome, nil
}
