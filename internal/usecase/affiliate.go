package usecase

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"strings"

	"github.com/ErlanBelekov/wisdom-hub/internal/domain"
	"github.com/ErlanBelekov/wisdom-hub/internal/repository"
)

const (
	affiliateCodePrefix = "AFF-"
	codeAttempts        = 3
	recentSalesLimit    = 10
)

// Caller identifies who is making a request.
type Caller struct {
	UserID string
	Admin  bool
}

type AffiliateUsecase struct {
	repo    repository.AffiliateRepository
	appURL  string
	logger  *slog.Logger
	newCode func() (string, error)
}

func NewAffiliateUsecase(repo repository.AffiliateRepository, appURL string, logger *slog.Logger) *AffiliateUsecase {
	return &AffiliateUsecase{
		repo:    repo,
		appURL:  appURL,
		logger:  logger.With("component", "affiliate_usecase"),
		newCode: randomAffiliateCode,
	}
}

// WithCodeGenerator replaces the random code source. Intended for tests.
func (u *AffiliateUsecase) WithCodeGenerator(gen func() (string, error)) *AffiliateUsecase {
	u.newCode = gen
	return u
}

// Register opens a pending affiliate account. rate 0 means the default rate.
func (u *AffiliateUsecase) Register(ctx context.Context, userID string, rate int) (*domain.Affiliate, error) {
	if rate == 0 {
		rate = domain.DefaultCommissionRate
	}
	if rate < 1 || rate > 100 {
		return nil, domain.ErrInvalidCommissionRate
	}

	if _, err := u.repo.FindByUserID(ctx, userID); err == nil {
		return nil, domain.ErrAlreadyRegistered
	} else if !errors.Is(err, domain.ErrAffiliateNotFound) {
		return nil, fmt.Errorf("find affiliate: %w", err)
	}

	for attempt := 1; ; attempt++ {
		code, err := u.newCode()
		if err != nil {
			return nil, err
		}

		aff, err := u.repo.Create(ctx, &domain.Affiliate{
			UserID:         userID,
			Code:           code,
			CommissionRate: rate,
		})
		if err == nil {
			u.logger.InfoContext(ctx, "affiliate registered", "affiliate_id", aff.ID, "user_id", userID)
			return aff, nil
		}
		if errors.Is(err, domain.ErrAffiliateCodeInUse) && attempt < codeAttempts {
			continue
		}
		if errors.Is(err, domain.ErrAlreadyRegistered) {
			return nil, err
		}
		return nil, fmt.Errorf("create affiliate: %w", err)
	}
}

func (u *AffiliateUsecase) Mine(ctx context.Context, userID string) (*domain.Affiliate, error) {
	aff, err := u.repo.FindByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("find affiliate: %w", err)
	}
	return aff, nil
}

func (u *AffiliateUsecase) Approve(ctx context.Context, adminID, affiliateID string) (*domain.Affiliate, error) {
	return u.setStatus(ctx, affiliateID, domain.AffiliateApproved, domain.AdminAction{
		AdminID:      adminID,
		Action:       "approve_affiliate",
		ResourceType: "affiliate",
		ResourceID:   affiliateID,
	})
}

func (u *AffiliateUsecase) Reject(ctx context.Context, adminID, affiliateID, reason string) (*domain.Affiliate, error) {
	return u.setStatus(ctx, affiliateID, domain.AffiliateRejected, domain.AdminAction{
		AdminID:      adminID,
		Action:       "reject_affiliate",
		ResourceType: "affiliate",
		ResourceID:   affiliateID,
		Details:      strings.TrimSpace(reason),
	})
}

func (u *AffiliateUsecase) setStatus(ctx context.Context, id string, status domain.AffiliateStatus, audit domain.AdminAction) (*domain.Affiliate, error) {
	aff, err := u.repo.SetStatus(ctx, id, status, audit)
	if err != nil {
		return nil, fmt.Errorf("set affiliate status: %w", err)
	}
	u.logger.InfoContext(ctx, "affiliate status changed",
		"affiliate_id", id, "status", status, "admin_id", audit.AdminID)
	return aff, nil
}

func (u *AffiliateUsecase) ListPending(ctx context.Context) ([]*domain.Affiliate, error) {
	list, err := u.repo.ListPending(ctx)
	if err != nil {
		return nil, fmt.Errorf("list pending affiliates: %w", err)
	}
	return list, nil
}

type AffiliateReport struct {
	Affiliate *domain.Affiliate
	Stats     *domain.AffiliateStats
}

// Stats reports earnings for code. Only the affiliate and admins may see them.
func (u *AffiliateUsecase) Stats(ctx context.Context, caller Caller, code string) (*AffiliateReport, error) {
	aff, err := u.repo.FindByCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("find affiliate: %w", err)
	}
	if aff.UserID != caller.UserID && !caller.Admin {
		return nil, domain.ErrForbidden
	}

	stats, err := u.repo.Stats(ctx, aff.ID, recentSalesLimit)
	if err != nil {
		return nil, fmt.Errorf("affiliate stats: %w", err)
	}
	return &AffiliateReport{Affiliate: aff, Stats: stats}, nil
}

type ReferralLink struct {
	Link      string
	Code      string
	ShareText string
}

func (u *AffiliateUsecase) ReferralLink(ctx context.Context, code string) (*ReferralLink, error) {
	aff, err := u.repo.FindByCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("find affiliate: %w", err)
	}

	link := u.appURL + "?ref=" + url.QueryEscape(aff.Code)
	return &ReferralLink{
		Link:      link,
		Code:      aff.Code,
		ShareText: "Join me on Wisdom Hub and get exclusive insights on personal development! Use my referral link: " + link,
	}, nil
}

func randomAffiliateCode() (string, error) {
	b := make([]byte, 6)
	if _, err := io.ReadFull(rand.Reader, b); err != nil {
		return "", fmt.Errorf("generate affiliate code: %w", err)
	}
	return affiliateCodePrefix + strings.ToUpper(hex.EncodeToString(b)), nil
}
