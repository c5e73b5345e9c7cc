package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/ErlanBelekov/wisdom-hub/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const affiliateColumns = `a.id, a.user_id, a.affiliate_code, a.commission_rate, a.status,
	a.approved_at, a.created_at, a.updated_at, u.name, u.email`

type AffiliateRepository struct {
	pool *pgxpool.Pool
}

func NewAffiliateRepository(pool *pgxpool.Pool) *AffiliateRepository {
	return &AffiliateRepository{pool: pool}
}

func (r *AffiliateRepository) Create(ctx context.Context, a *domain.Affiliate) (*domain.Affiliate, error) {
	var id string
	err := r.pool.QueryRow(ctx, `
		INSERT INTO affiliates (user_id, affiliate_code, commission_rate, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id`,
		a.UserID, a.Code, a.CommissionRate, domain.AffiliatePending,
	).Scan(&id)
	if err != nil {
		if name, ok := uniqueConstraint(err); ok {
			switch name {
			case "affiliates_user_id_key":
				return nil, domain.ErrAlreadyRegistered
			case "affiliates_code_key":
				return nil, domain.ErrAffiliateCodeInUse
			}
		}
		return nil, fmt.Errorf("create affiliate: %w", err)
	}
	return r.findOne(ctx, `a.id = $1`, id)
}

func (r *AffiliateRepository) FindByUserID(ctx context.Context, userID string) (*domain.Affiliate, error) {
	return r.findOne(ctx, `a.user_id = $1`, userID)
}

func (r *AffiliateRepository) FindByCode(ctx context.Context, code string) (*domain.Affiliate, error) {
	return r.findOne(ctx, `a.affiliate_code = $1`, code)
}

func (r *AffiliateRepository) findOne(ctx context.Context, where string, arg any) (*domain.Affiliate, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+affiliateColumns+`
		FROM affiliates a
		JOIN users u ON u.id = a.user_id
		WHERE `+where, arg)
	return scanAffiliate(row)
}

func (r *AffiliateRepository) ListPending(ctx context.Context) ([]*domain.Affiliate, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+affiliateColumns+`
		FROM affiliates a
		JOIN users u ON u.id = a.user_id
		WHERE a.status = $1
		ORDER BY a.created_at ASC`,
		domain.AffiliatePending)
	if err != nil {
		return nil, fmt.Errorf("list pending affiliates: %w", err)
	}
	defer rows.Close()

	affiliates := []*domain.Affiliate{}
	for rows.Next() {
		a, err := scanAffiliate(rows)
		if err != nil {
			return nil, err
		}
		affiliates = append(affiliates, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate affiliates: %w", err)
	}
	return affiliates, nil
}

// SetStatus changes the status and writes the audit row in one transaction.
func (r *AffiliateRepository) SetStatus(ctx context.Context, id string, status domain.AffiliateStatus, audit domain.AdminAction) (*domain.Affiliate, error) {
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE affiliates
			SET    status      = $2::text,
			       approved_at = CASE WHEN $2::text = 'approved' THEN NOW() ELSE approved_at END,
			       updated_at  = NOW()
			WHERE  id = $1`,
			id, status)
		if err != nil {
			if isInvalidText(err) {
				return domain.ErrAffiliateNotFound
			}
			return fmt.Errorf("update affiliate status: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return domain.ErrAffiliateNotFound
		}

		if _, err := tx.Exec(ctx, `
			INSERT INTO admin_logs (admin_id, action, resource_type, resource_id, details)
			VALUES ($1, $2, $3, $4, $5)`,
			audit.AdminID, audit.Action, audit.ResourceType, audit.ResourceID, audit.Details,
		); err != nil {
			return fmt.Errorf("insert admin log: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return r.findOne(ctx, `a.id = $1`, id)
}

func (r *AffiliateRepository) Stats(ctx context.Context, affiliateID string, recent int) (*domain.AffiliateStats, error) {
	var s domain.AffiliateStats
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*),
		       COALESCE(SUM(amount), 0),
		       COALESCE(SUM(amount) FILTER (WHERE status = 'pending'), 0),
		       COALESCE(SUM(amount) FILTER (WHERE status = 'paid'), 0)
		FROM commissions
		WHERE affiliate_id = $1`,
		affiliateID,
	).Scan(&s.TotalCommissions, &s.TotalEarnings, &s.PendingEarnings, &s.PaidEarnings)
	if err != nil {
		return nil, fmt.Errorf("commission totals: %w", err)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT p.id, p.amount, c.amount, p.created_at,
		       CASE
		           WHEN p.article_id IS NOT NULL THEN 'article'
		           WHEN p.book_id    IS NOT NULL THEN 'book'
		           ELSE 'course'
		       END
		FROM commissions c
		JOIN purchases p ON p.id = c.purchase_id
		WHERE c.affiliate_id = $1
		ORDER BY p.created_at DESC
		LIMIT $2`,
		affiliateID, recent)
	if err != nil {
		return nil, fmt.Errorf("recent sales: %w", err)
	}
	defer rows.Close()

	s.RecentSales = []domain.Sale{}
	for rows.Next() {
		var sale domain.Sale
		if err := rows.Scan(&sale.PurchaseID, &sale.Amount, &sale.Commission, &sale.CreatedAt, &sale.ProductType); err != nil {
			return nil, fmt.Errorf("scan sale: %w", err)
		}
		s.RecentSales = append(s.RecentSales, sale)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sales: %w", err)
	}
	return &s, nil
}

func scanAffiliate(row rowScanner) (*domain.Affiliate, error) {
	var a domain.Affiliate
	err := row.Scan(
		&a.ID, &a.UserID, &a.Code, &a.CommissionRate, &a.Status,
		&a.ApprovedAt, &a.CreatedAt, &a.UpdatedAt, &a.UserName, &a.UserEmail,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAffiliateNotFound
		}
		return nil, fmt.Errorf("scan affiliate: %w", err)
	}
	return &a, nil
}
