package repository

import (
	"context"

	"github.com/ErlanBelekov/wisdom-hub/internal/domain"
)

type AffiliateRepository interface {
	// Create returns domain.ErrAlreadyRegistered if the user has an affiliate
	// record and domain.ErrAffiliateCodeInUse on a code collision.
	Create(ctx context.Context, a *domain.Affiliate) (*domain.Affiliate, error)
	FindByUserID(ctx context.Context, userID string) (*domain.Affiliate, error)
	FindByCode(ctx context.Context, code string) (*domain.Affiliate, error)
	ListPending(ctx context.Context) ([]*domain.Affiliate, error)

	// SetStatus updates the status and appends the audit record atomically.
	SetStatus(ctx context.Context, id string, status domain.AffiliateStatus, audit domain.AdminAction) (*domain.Affiliate, error)

	Stats(ctx context.Context, affiliateID string, recent int) (*domain.AffiliateStats, error)
}
