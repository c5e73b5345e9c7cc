package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ErlanBelekov/wisdom-hub/internal/domain"
	"github.com/ErlanBelekov/wisdom-hub/internal/metrics"
	"github.com/ErlanBelekov/wisdom-hub/internal/payment"
	"github.com/ErlanBelekov/wisdom-hub/internal/repository"
)

const defaultCurrency = "usd"

type PaymentUsecase struct {
	purchases  repository.PurchaseRepository
	affiliates repository.AffiliateRepository
	gateway    payment.Gateway
	logger     *slog.Logger
}

func NewPaymentUsecase(
	purchases repository.PurchaseRepository,
	affiliates repository.AffiliateRepository,
	gateway payment.Gateway,
	logger *slog.Logger,
) *PaymentUsecase {
	return &PaymentUsecase{
		purchases:  purchases,
		affiliates: affiliates,
		gateway:    gateway,
		logger:     logger.With("component", "payment_usecase"),
	}
}

type CreateIntentInput struct {
	UserID        string
	Amount        int64
	Currency      string
	Product       domain.ProductRef
	AffiliateCode string
}

// CreateIntent opens a payment with the provider. The buyer, product and
// referring affiliate travel in the intent metadata so ConfirmPurchase can
// check them against what the provider reports.
func (u *PaymentUsecase) CreateIntent(ctx context.Context, in CreateIntentInput) (*payment.Intent, error) {
	if in.Amount <= 0 {
		return nil, domain.ErrInvalidAmount
	}
	productType, productID, err := in.Product.Resolve()
	if err != nil {
		return nil, err
	}
	currency := strings.ToLower(strings.TrimSpace(in.Currency))
	if currency == "" {
		currency = defaultCurrency
	}

	meta := map[string]string{
		payment.MetaUserID:      in.UserID,
		payment.MetaProductType: string(productType),
		payment.MetaProductID:   productID,
	}
	if code := strings.ToUpper(strings.TrimSpace(in.AffiliateCode)); code != "" {
		meta[payment.MetaAffiliateCode] = code
	}

	intent, err := u.gateway.CreateIntent(ctx, payment.IntentParams{
		Amount:   in.Amount,
		Currency: currency,
		Metadata: meta,
	})
	if err != nil {
		return nil, fmt.Errorf("create intent: %w", err)
	}
	return intent, nil
}

type ConfirmInput struct {
	UserID           string
	PaymentReference string
	Product          domain.ProductRef
	Amount           int64
}

// ConfirmPurchase records a purchase for a payment the provider reports as
// succeeded. Repeating it for the same payment returns the existing purchase
// with created=false.
func (u *PaymentUsecase) ConfirmPurchase(ctx context.Context, in ConfirmInput) (*domain.Purchase, bool, error) {
	productType, productID, err := in.Product.Resolve()
	if err != nil {
		return nil, false, err
	}
	if in.PaymentReference == "" {
		return nil, false, domain.NewValidationError("paymentIntentId is required")
	}
	if in.Amount <= 0 {
		return nil, false, domain.ErrInvalidAmount
	}

	intent, err := u.gateway.GetIntent(ctx, in.PaymentReference)
	if err != nil {
		return nil, false, fmt.Errorf("get intent: %w", err)
	}
	if intent.Status != payment.StatusSucceeded {
		return nil, false, domain.ErrPaymentNotSucceeded
	}
	if err := matchIntent(intent, in, productType, productID); err != nil {
		u.logger.WarnContext(ctx, "payment does not match purchase",
			"payment_reference", in.PaymentReference, "user_id", in.UserID, "reason", err)
		return nil, false, domain.ErrPaymentMismatch
	}

	commission, err := u.commissionFor(ctx, intent, in.UserID)
	if err != nil {
		return nil, false, err
	}

	created, err := u.purchases.Create(ctx, &domain.Purchase{
		UserID:           in.UserID,
		Product:          domain.ProductRefFor(productType, productID),
		Amount:           intent.Amount,
		Currency:         intent.Currency,
		PaymentReference: in.PaymentReference,
	}, commission)
	if err != nil {
		if errors.Is(err, domain.ErrDuplicatePurchase) {
			existing, findErr := u.purchases.FindByPaymentReference(ctx, in.UserID, in.PaymentReference)
			if findErr != nil {
				return nil, false, fmt.Errorf("find existing purchase: %w", findErr)
			}
			metrics.PurchasesTotal.WithLabelValues("existing").Inc()
			return existing, false, nil
		}
		return nil, false, fmt.Errorf("record purchase: %w", err)
	}

	metrics.PurchasesTotal.WithLabelValues("created").Inc()
	if commission != nil {
		metrics.CommissionsTotal.Inc()
		u.logger.InfoContext(ctx, "commission recorded",
			"affiliate_id", commission.AffiliateID, "purchase_id", created.ID, "amount", commission.Amount)
	}
	return created, true, nil
}

func matchIntent(intent *payment.Intent, in ConfirmInput, productType domain.ProductType, productID string) error {
	if intent.Metadata[payment.MetaUserID] != in.UserID {
		return errors.New("intent belongs to another user")
	}
	if intent.Amount != in.Amount {
		return fmt.Errorf("amount %d, intent has %d", in.Amount, intent.Amount)
	}
	if t, ok := intent.Metadata[payment.MetaProductType]; ok && t != string(productType) {
		return fmt.Errorf("product type %s, intent has %s", productType, t)
	}
	if id, ok := intent.Metadata[payment.MetaProductID]; ok && id != productID {
		return errors.New("product id differs from intent")
	}
	return nil
}

// commissionFor returns the commission owed for the intent, or nil when the
// referral code is absent, unknown, not approved, or the buyer's own.
func (u *PaymentUsecase) commissionFor(ctx context.Context, intent *payment.Intent, buyerID string) (*domain.Commission, error) {
	code := intent.Metadata[payment.MetaAffiliateCode]
	if code == "" {
		return nil, nil
	}

	aff, err := u.affiliates.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, domain.ErrAffiliateNotFound) {
			u.logger.InfoContext(ctx, "unknown affiliate code on payment", "code", code)
			return nil, nil
		}
		return nil, fmt.Errorf("find affiliate: %w", err)
	}
	if aff.Status != domain.AffiliateApproved || aff.UserID == buyerID {
		return nil, nil
	}

	amount := domain.CommissionFor(intent.Amount, aff.CommissionRate)
	if amount <= 0 {
		return nil, nil
	}
	return &domain.Commission{AffiliateID: aff.ID, Amount: amount}, nil
}

func (u *PaymentUsecase) ListPurchases(ctx context.Context, userID string) ([]*domain.Purchase, error) {
	purchases, err := u.purchases.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list purchases: %w", err)
	}
	return purchases, nil
}
