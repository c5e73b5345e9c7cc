package repository

import (
	"context"

	"github.com/ErlanBelekov/wisdom-hub/internal/domain"
)

type PurchaseRepository interface {
	// Create records a purchase and, when commission is non-nil, its commission
	// in the same transaction. commission.PurchaseID is filled in by the repository.
	// Returns domain.ErrDuplicatePurchase if (user, payment reference) already exists.
	Create(ctx context.Context, p *domain.Purchase, commission *domain.Commission) (*domain.Purchase, error)
	FindByPaymentReference(ctx context.Context, userID, paymentRef string) (*domain.Purchase, error)
	// ListByUser returns purchases most-recent-first.
	ListByUser(ctx context.Context, userID string) ([]*domain.Purchase, error)
}
