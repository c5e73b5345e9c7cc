package payment_test

import (
	"context"
	"testing"

	"github.com/ErlanBelekov/wisdom-hub/internal/domain"
	"github.com/ErlanBelekov/wisdom-hub/internal/payment"
	"github.com/stretchr/testify/assert"
)

func TestStripeGateway_NoKey(t *testing.T) {
	g := payment.NewStripeGateway("")

	_, err := g.CreateIntent(context.Background(), payment.IntentParams{Amount: 100, Currency: "usd"})
	assert.ErrorIs(t, err, domain.ErrPaymentsNotConfigured)

	_, err = g.GetIntent(context.Background(), "pi_1")
	assert.ErrorIs(t, err, domain.ErrPaymentsNotConfigured)
}
