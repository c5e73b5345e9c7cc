package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/ErlanBelekov/wisdom-hub/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const purchaseColumns = `id, user_id, article_id, book_id, course_id, amount, currency,
	payment_reference, status, created_at, updated_at`

type PurchaseRepository struct {
	pool *pgxpool.Pool
}

func NewPurchaseRepository(pool *pgxpool.Pool) *PurchaseRepository {
	return &PurchaseRepository{pool: pool}
}

// Create inserts the purchase and its commission in one transaction, so a
// purchase never exists without the commission it earned.
func (r *PurchaseRepository) Create(ctx context.Context, p *domain.Purchase, commission *domain.Commission) (*domain.Purchase, error) {
	var created *domain.Purchase

	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, `
			INSERT INTO purchases (
				user_id, article_id, book_id, course_id, amount, currency, payment_reference, status
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			RETURNING `+purchaseColumns,
			p.UserID, p.Product.ArticleID, p.Product.BookID, p.Product.CourseID,
			p.Amount, p.Currency, p.PaymentReference, domain.PurchaseCompleted,
		)

		var err error
		created, err = scanPurchase(row)
		if err != nil {
			return err
		}

		if commission == nil {
			return nil
		}

		commission.PurchaseID = created.ID
		return tx.QueryRow(ctx, `
			INSERT INTO commissions (affiliate_id, purchase_id, amount, status)
			VALUES ($1, $2, $3, $4)
			RETURNING id, created_at`,
			commission.AffiliateID, commission.PurchaseID, commission.Amount, domain.CommissionPending,
		).Scan(&commission.ID, &commission.CreatedAt)
	})
	if err != nil {
		if name, ok := uniqueConstraint(err); ok {
			switch name {
			case "purchases_user_payment_key", "commissions_purchase_id_key":
				return nil, domain.ErrDuplicatePurchase
			}
		}
		return nil, fmt.Errorf("create purchase: %w", err)
	}

	if commission != nil {
		commission.Status = domain.CommissionPending
	}
	return created, nil
}

func (r *PurchaseRepository) FindByPaymentReference(ctx context.Context, userID, paymentRef string) (*domain.Purchase, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+purchaseColumns+`
		FROM purchases
		WHERE user_id = $1 AND payment_reference = $2`,
		userID, paymentRef)
	return scanPurchase(row)
}

func (r *PurchaseRepository) ListByUser(ctx context.Context, userID string) ([]*domain.Purchase, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+purchaseColumns+`
		FROM purchases
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("list purchases: %w", err)
	}
	defer rows.Close()

	purchases := []*domain.Purchase{}
	for rows.Next() {
		p, err := scanPurchase(rows)
		if err != nil {
			return nil, err
		}
		purchases = append(purchases, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate purchases: %w", err)
	}
	return purchases, nil
}

func scanPurchase(row rowScanner) (*domain.Purchase, error) {
	var p domain.Purchase
	err := row.Scan(
		&p.ID, &p.UserID, &p.Product.ArticleID, &p.Product.BookID, &p.Product.CourseID,
		&p.Amount, &p.Currency, &p.PaymentReference, &p.Status, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrPurchaseNotFound
		}
		return nil, fmt.Errorf("scan purchase: %w", err)
	}
	return &p, nil
}
