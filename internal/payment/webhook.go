package payment

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/ErlanBelekov/wisdom-hub/internal/domain"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/webhook"
)

// WebhookVerifier checks the Stripe-Signature header against the endpoint
// secret before anything in the payload is trusted.
type WebhookVerifier struct {
	secret string
}

func NewWebhookVerifier(secret string) *WebhookVerifier {
	return &WebhookVerifier{secret: secret}
}

// Parse verifies the signature (5 minute tolerance) and decodes the event.
// Returns domain.ErrWebhookNotConfigured without a secret and
// domain.ErrWebhookSignature when the signature does not match. A signed
// event whose object does not decode comes back with Malformed set.
func (v *WebhookVerifier) Parse(payload []byte, signature string) (*domain.WebhookEvent, error) {
	if v.secret == "" {
		return nil, domain.ErrWebhookNotConfigured
	}

	event, err := webhook.ConstructEventWithOptions(payload, signature, v.secret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrWebhookSignature, err)
	}

	out := &domain.WebhookEvent{ID: event.ID, Type: string(event.Type)}
	if event.Data == nil {
		return out, nil
	}

	var decodeErr error
	switch out.Type {
	case domain.EventPaymentSucceeded, domain.EventPaymentFailed:
		var pi stripe.PaymentIntent
		if decodeErr = json.Unmarshal(event.Data.Raw, &pi); decodeErr == nil {
			out.PaymentIntentID = pi.ID
		}

	case domain.EventChargeRefunded:
		// Partial refunds also arrive as charge.refunded; only a charge that
		// is refunded in full revokes the purchase.
		var ch stripe.Charge
		if decodeErr = json.Unmarshal(event.Data.Raw, &ch); decodeErr == nil && ch.Refunded && ch.PaymentIntent != nil {
			out.RefundedPayment = ch.PaymentIntent.ID
		}

	case domain.EventSubscriptionCreated, domain.EventSubscriptionUpdated, domain.EventSubscriptionDeleted:
		var sub stripe.Subscription
		if decodeErr = json.Unmarshal(event.Data.Raw, &sub); decodeErr == nil {
			out.Subscription = subscriptionFromStripe(&sub)
		}
	}
	if decodeErr != nil {
		// a redelivery carries the same payload
		out.Malformed = true
	}

	return out, nil
}

func subscriptionFromStripe(sub *stripe.Subscription) *domain.Subscription {
	s := &domain.Subscription{
		UserID:                 sub.Metadata[MetaUserID],
		ProviderSubscriptionID: sub.ID,
		Status:                 string(sub.Status),
	}
	if sub.Customer != nil {
		s.ProviderCustomerID = sub.Customer.ID
	}
	if sub.CurrentPeriodEnd > 0 {
		end := time.Unix(sub.CurrentPeriodEnd, 0).UTC()
		s.CurrentPeriodEnd = &end
	}
	if sub.Items != nil && len(sub.Items.Data) > 0 && sub.Items.Data[0].Price != nil {
		price := sub.Items.Data[0].Price
		s.Plan = price.ID
		if price.LookupKey != "" {
			s.Plan = price.LookupKey
		}
	}
	return s
}
