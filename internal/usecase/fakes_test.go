package usecase_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/ErlanBelekov/wisdom-hub/internal/domain"
	"github.com/ErlanBelekov/wisdom-hub/internal/email"
)

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// ---- users ----

// memUserRepo is an in-memory credential store with the same uniqueness and
// single-use token rules as the postgres one.
type memUserRepo struct {
	mu     sync.Mutex
	byID   map[string]*domain.User
	nextID int
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{byID: make(map[string]*domain.User)}
}

func (r *memUserRepo) clone(u *domain.User) *domain.User {
	c := *u
	c.Interests = append([]string(nil), u.Interests...)
	return &c
}

func (r *memUserRepo) Create(_ context.Context, u *domain.User) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	email := domain.NormalizeEmail(u.Email)
	for _, existing := range r.byID {
		if existing.Email == email {
			return nil, domain.ErrDuplicateEmail
		}
	}
	r.nextID++
	c := r.clone(u)
	c.ID = fmt.Sprintf("user-%d", r.nextID)
	c.Email = email
	c.CreatedAt = time.Now()
	c.UpdatedAt = c.CreatedAt
	r.byID[c.ID] = c
	return r.clone(c), nil
}

func (r *memUserRepo) find(match func(*domain.User) bool) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.byID {
		if match(u) {
			return r.clone(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *memUserRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	return r.find(func(u *domain.User) bool { return u.ID == id })
}

func (r *memUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	email = domain.NormalizeEmail(email)
	return r.find(func(u *domain.User) bool { return u.Email == email })
}

func (r *memUserRepo) FindByVerificationToken(_ context.Context, hash string) (*domain.User, error) {
	return r.find(func(u *domain.User) bool {
		return u.VerificationTokenHash != nil && *u.VerificationTokenHash == hash
	})
}

func (r *memUserRepo) FindByResetToken(_ context.Context, hash string) (*domain.User, error) {
	return r.find(func(u *domain.User) bool {
		return u.ResetTokenHash != nil && *u.ResetTokenHash == hash
	})
}

func (r *memUserRepo) ConsumeVerificationToken(_ context.Context, hash string, now time.Time) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.byID {
		if u.VerificationTokenHash != nil && *u.VerificationTokenHash == hash &&
			u.VerificationTokenExpiresAt != nil && u.VerificationTokenExpiresAt.After(now) {
			u.EmailVerified = true
			u.VerificationTokenHash = nil
			u.VerificationTokenExpiresAt = nil
			return r.clone(u), nil
		}
	}
	return nil, domain.ErrInvalidOrExpiredToken
}

func (r *memUserRepo) SetVerificationToken(_ context.Context, userID, hash string, expiresAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[userID]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.VerificationTokenHash = &hash
	u.VerificationTokenExpiresAt = &expiresAt
	return nil
}

func (r *memUserRepo) SetResetToken(_ context.Context, userID, hash string, expiresAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[userID]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.ResetTokenHash = &hash
	u.ResetTokenExpiresAt = &expiresAt
	return nil
}

func (r *memUserRepo) ConsumeResetToken(_ context.Context, hash, passwordHash string, now time.Time) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.byID {
		if u.ResetTokenHash != nil && *u.ResetTokenHash == hash &&
			u.ResetTokenExpiresAt != nil && u.ResetTokenExpiresAt.After(now) {
			u.PasswordHash = passwordHash
			u.ResetTokenHash = nil
			u.ResetTokenExpiresAt = nil
			return r.clone(u), nil
		}
	}
	return nil, domain.ErrInvalidOrExpiredToken
}

func (r *memUserRepo) UpdateInterests(_ context.Context, userID string, interests []string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[userID]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	u.Interests = append([]string(nil), interests...)
	return r.clone(u), nil
}

func (r *memUserRepo) ClearExpiredTokens(_ context.Context, now time.Time) (int64, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var v, rs int64
	for _, u := range r.byID {
		if u.VerificationTokenExpiresAt != nil && !u.VerificationTokenExpiresAt.After(now) {
			u.VerificationTokenHash, u.VerificationTokenExpiresAt = nil, nil
			v++
		}
		if u.ResetTokenExpiresAt != nil && !u.ResetTokenExpiresAt.After(now) {
			u.ResetTokenHash, u.ResetTokenExpiresAt = nil, nil
			rs++
		}
	}
	return v, rs, nil
}

// ---- email ----

type sentEmail struct {
	to, subject, body string
}

type fakeEmailSender struct {
	mu   sync.Mutex
	sent []sentEmail
	err  error
}

func (s *fakeEmailSender) Send(_ context.Context, to string, msg email.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, sentEmail{to: to, subject: msg.Subject, body: msg.Body})
	return nil
}

func (s *fakeEmailSender) last() sentEmail {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.sent) == 0 {
		return sentEmail{}
	}
	return s.sent[len(s.sent)-1]
}

// ---- purchases ----

type memPurchaseRepo struct {
	mu          sync.Mutex
	purchases   []*domain.Purchase
	commissions []*domain.Commission
}

func (r *memPurchaseRepo) Create(_ context.Context, p *domain.Purchase, c *domain.Commission) (*domain.Purchase, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.purchases {
		if existing.UserID == p.UserID && existing.PaymentReference == p.PaymentReference {
			return nil, domain.ErrDuplicatePurchase
		}
	}
	created := *p
	created.ID = fmt.Sprintf("purchase-%d", len(r.purchases)+1)
	created.Status = domain.PurchaseCompleted
	created.CreatedAt = time.Now()
	r.purchases = append(r.purchases, &created)
	if c != nil {
		c.PurchaseID = created.ID
		c.ID = fmt.Sprintf("commission-%d", len(r.commissions)+1)
		c.Status = domain.CommissionPending
		r.commissions = append(r.commissions, c)
	}
	out := created
	return &out, nil
}

func (r *memPurchaseRepo) FindByPaymentReference(_ context.Context, userID, ref string) (*domain.Purchase, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.purchases {
		if p.UserID == userID && p.PaymentReference == ref {
			out := *p
			return &out, nil
		}
	}
	return nil, domain.ErrPurchaseNotFound
}

func (r *memPurchaseRepo) ListByUser(_ context.Context, userID string) ([]*domain.Purchase, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*domain.Purchase{}
	for i := len(r.purchases) - 1; i >= 0; i-- {
		if r.purchases[i].UserID == userID {
			p := *r.purchases[i]
			out = append(out, &p)
		}
	}
	return out, nil
}

// ---- affiliates ----

type memAffiliateRepo struct {
	mu         sync.Mutex
	affiliates []*domain.Affiliate
	audit      []domain.AdminAction
	stats      map[string]*domain.AffiliateStats
}

func (r *memAffiliateRepo) Create(_ context.Context, a *domain.Affiliate) (*domain.Affiliate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.affiliates {
		if existing.UserID == a.UserID {
			return nil, domain.ErrAlreadyRegistered
		}
		if existing.Code == a.Code {
			return nil, domain.ErrAffiliateCodeInUse
		}
	}
	created := *a
	created.ID = fmt.Sprintf("aff-%d", len(r.affiliates)+1)
	created.Status = domain.AffiliatePending
	created.CreatedAt = time.Now()
	r.affiliates = append(r.affiliates, &created)
	out := created
	return &out, nil
}

func (r *memAffiliateRepo) find(match func(*domain.Affiliate) bool) (*domain.Affiliate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.affiliates {
		if match(a) {
			out := *a
			return &out, nil
		}
	}
	return nil, domain.ErrAffiliateNotFound
}

func (r *memAffiliateRepo) FindByUserID(_ context.Context, userID string) (*domain.Affiliate, error) {
	return r.find(func(a *domain.Affiliate) bool { return a.UserID == userID })
}

func (r *memAffiliateRepo) FindByCode(_ context.Context, code string) (*domain.Affiliate, error) {
	return r.find(func(a *domain.Affiliate) bool { return a.Code == code })
}

func (r *memAffiliateRepo) ListPending(_ context.Context) ([]*domain.Affiliate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*domain.Affiliate{}
	for _, a := range r.affiliates {
		if a.Status == domain.AffiliatePending {
			c := *a
			out = append(out, &c)
		}
	}
	return out, nil
}

func (r *memAffiliateRepo) SetStatus(_ context.Context, id string, status domain.AffiliateStatus, audit domain.AdminAction) (*domain.Affiliate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.affiliates {
		if a.ID == id {
			a.Status = status
			if status == domain.AffiliateApproved {
				now := time.Now()
				a.ApprovedAt = &now
			}
			r.audit = append(r.audit, audit)
			out := *a
			return &out, nil
		}
	}
	return nil, domain.ErrAffiliateNotFound
}

func (r *memAffiliateRepo) Stats(_ context.Context, affiliateID string, _ int) (*domain.AffiliateStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.stats[affiliateID]; ok {
		return s, nil
	}
	return &domain.AffiliateStats{RecentSales: []domain.Sale{}}, nil
}

// addApproved seeds an approved affiliate and returns it.
func (r *memAffiliateRepo) addApproved(userID, code string, rate int) *domain.Affiliate {
	r.mu.Lock()
	defer r.mu.Unlock()
	a := &domain.Affiliate{
		ID:             fmt.Sprintf("aff-%d", len(r.affiliates)+1),
		UserID:         userID,
		Code:           code,
		CommissionRate: rate,
		Status:         domain.AffiliateApproved,
	}
	r.affiliates = append(r.affiliates, a)
	return a
}
