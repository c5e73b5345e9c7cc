// Package payment talks to the payment provider: creating and re-fetching
// payment intents, and turning signed webhook deliveries into domain events.
package payment

import "context"

// Metadata keys attached to every payment intent we create.
const (
	MetaUserID        = "user_id"
	MetaProductType   = "product_type"
	MetaProductID     = "product_id"
	MetaAffiliateCode = "affiliate_code"
)

const StatusSucceeded = "succeeded"

type IntentParams struct {
	Amount   int64
	Currency string
	Metadata map[string]string
}

// Intent is the provider's view of one payment attempt.
type Intent struct {
	ID           string
	ClientSecret string
	Status       string
	Amount       int64
	Currency     string
	Metadata     map[string]string
}

type Gateway interface {
	CreateIntent(ctx context.Context, p IntentParams) (*Intent, error)
	GetIntent(ctx context.Context, id string) (*Intent, error)
}
