package domain

import "errors"

var (
	ErrWebhookSignature      = errors.New("webhook signature verification failed")
	ErrWebhookNotConfigured  = errors.New("webhook secret not configured")
	ErrEventAlreadyProcessed = errors.New("webhook event already processed")
)

// Event kinds we act on. Everything else is recorded and ignored.
const (
	EventPaymentSucceeded    = "payment_intent.succeeded"
	EventPaymentFailed       = "payment_intent.payment_failed"
	EventChargeRefunded      = "charge.refunded"
	EventSubscriptionCreated = "customer.subscription.created"
	EventSubscriptionUpdated = "customer.subscription.updated"
	EventSubscriptionDeleted = "customer.subscription.deleted"
)

// WebhookEvent is a provider event whose signature has already been verified.
type WebhookEvent struct {
	ID   string
	Type string

	PaymentIntentID string        // payment_intent.*
	RefundedPayment string        // charge.refunded, full refunds only: the charge's payment intent
	Subscription    *Subscription // customer.subscription.*

	// Malformed is set when the signature checked out but data.object did not
	// decode into the type the event kind promises.
	Malformed bool
}

type WebhookOutcome string

const (
	OutcomeApplied WebhookOutcome = "applied"
	OutcomeLogged  WebhookOutcome = "logged"
	OutcomeIgnored WebhookOutcome = "ignored"

	// OutcomeDuplicate is reported for redeliveries and never stored.
	OutcomeDuplicate WebhookOutcome = "duplicate"
)
