package usecase

import (
	"context"
	"fmt"

	"github.com/ErlanBelekov/wisdom-hub/internal/domain"
	"github.com/ErlanBelekov/wisdom-hub/internal/repository"
)

type SubscriptionUsecase struct {
	repo repository.SubscriptionRepository
}

func NewSubscriptionUsecase(repo repository.SubscriptionRepository) *SubscriptionUsecase {
	return &SubscriptionUsecase{repo: repo}
}

func (u *SubscriptionUsecase) Mine(ctx context.Context, userID string) (*domain.Subscription, error) {
	s, err := u.repo.FindByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("find subscription: %w", err)
	}
	return s, nil
}

func (u *SubscriptionUsecase) Plans() []domain.Plan {
	return domain.Plans
}
