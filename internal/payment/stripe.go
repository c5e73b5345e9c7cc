package payment

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/ErlanBelekov/wisdom-hub/internal/domain"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
)

type StripeGateway struct {
	api *client.API
}

// NewStripeGateway returns a gateway backed by the Stripe API. With an empty
// key every call fails with domain.ErrPaymentsNotConfigured.
func NewStripeGateway(secretKey string) *StripeGateway {
	if secretKey == "" {
		return &StripeGateway{}
	}
	api := &client.API{}
	api.Init(secretKey, nil)
	return &StripeGateway{api: api}
}

func (g *StripeGateway) CreateIntent(ctx context.Context, p IntentParams) (*Intent, error) {
	if g.api == nil {
		return nil, domain.ErrPaymentsNotConfigured
	}

	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(p.Amount),
		Currency: stripe.String(p.Currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = ctx
	for k, v := range p.Metadata {
		params.AddMetadata(k, v)
	}

	pi, err := g.api.PaymentIntents.New(params)
	if err != nil {
		return nil, fmt.Errorf("create payment intent: %w", err)
	}
	return fromStripe(pi), nil
}

func (g *StripeGateway) GetIntent(ctx context.Context, id string) (*Intent, error) {
	if g.api == nil {
		return nil, domain.ErrPaymentsNotConfigured
	}

	params := &stripe.PaymentIntentParams{}
	params.Context = ctx

	pi, err := g.api.PaymentIntents.Get(id, params)
	if err != nil {
		var stripeErr *stripe.Error
		if errors.As(err, &stripeErr) && stripeErr.HTTPStatusCode == http.StatusNotFound {
			return nil, fmt.Errorf("%w: unknown payment intent", domain.ErrPaymentNotSucceeded)
		}
		return nil, fmt.Errorf("get payment intent: %w", err)
	}
	return fromStripe(pi), nil
}

func fromStripe(pi *stripe.PaymentIntent) *Intent {
	return &Intent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		Status:       string(pi.Status),
		Amount:       pi.Amount,
		Currency:     string(pi.Currency),
		Metadata:     pi.Metadata,
	}
}
