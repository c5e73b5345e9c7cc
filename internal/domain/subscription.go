package domain

import (
	"errors"
	"time"
)

var ErrSubscriptionNotFound = errors.New("subscription not found")

const SubscriptionCanceled = "canceled"

type Subscription struct {
	UserID                 string
	ProviderCustomerID     string
	ProviderSubscriptionID string
	Status                 string
	Plan                   string
	CurrentPeriodEnd       *time.Time
	CreatedAt              time.Time
	UpdatedAt              time.Time
}

type Plan struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Price    int64    `json:"price"`
	Interval string   `json:"interval,omitempty"`
	Features []string `json:"features"`
}

var Plans = []Plan{
	{
		ID:       "free",
		Name:     "Free",
		Price:    0,
		Features: []string{"Daily quote", "Limited articles"},
	},
	{
		ID:       "premium_monthly",
		Name:     "Premium",
		Price:    999,
		Interval: "month",
		Features: []string{"All articles", "All books", "Personalised recommendations"},
	},
	{
		ID:       "premium_yearly",
		Name:     "Premium (yearly)",
		Price:    7999,
		Interval: "year",
		Features: []string{"All articles", "All books", "Personalised recommendations", "Two months free"},
	},
}
