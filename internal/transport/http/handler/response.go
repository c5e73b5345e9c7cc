package handler

import (
	"time"

	"github.com/ErlanBelekov/wisdom-hub/internal/domain"
)

type userResponse struct {
	ID            string    `json:"id"`
	Email         string    `json:"email"`
	Name          string    `json:"name"`
	EmailVerified bool      `json:"emailVerified"`
	Interests     []string  `json:"interests"`
	Timezone      string    `json:"timezone"`
	CreatedAt     time.Time `json:"createdAt"`
}

func newUserResponse(u *domain.User) userResponse {
	interests := u.Interests
	if interests == nil {
		interests = []string{}
	}
	return userResponse{
		ID:            u.ID,
		Email:         u.Email,
		Name:          u.Name,
		EmailVerified: u.EmailVerified,
		Interests:     interests,
		Timezone:      u.Timezone,
		CreatedAt:     u.CreatedAt,
	}
}

type purchaseResponse struct {
	ID              string    `json:"id"`
	ArticleID       *string   `json:"articleId,omitempty"`
	BookID          *string   `json:"bookId,omitempty"`
	CourseID        *string   `json:"courseId,omitempty"`
	Amount          int64     `json:"amount"`
	Currency        string    `json:"currency"`
	PaymentIntentID string    `json:"paymentIntentId"`
	Status          string    `json:"status"`
	CreatedAt       time.Time `json:"createdAt"`
}

func newPurchaseResponse(p *domain.Purchase) purchaseResponse {
	return purchaseResponse{
		ID:              p.ID,
		ArticleID:       p.Product.ArticleID,
		BookID:          p.Product.BookID,
		CourseID:        p.Product.CourseID,
		Amount:          p.Amount,
		Currency:        p.Currency,
		PaymentIntentID: p.PaymentReference,
		Status:          string(p.Status),
		CreatedAt:       p.CreatedAt,
	}
}

type affiliateResponse struct {
	ID             string     `json:"id"`
	UserID         string     `json:"userId"`
	AffiliateCode  string     `json:"affiliateCode"`
	CommissionRate int        `json:"commissionRate"`
	Status         string     `json:"status"`
	ApprovedAt     *time.Time `json:"approvedAt,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
	UserName       string     `json:"userName,omitempty"`
	UserEmail      string     `json:"userEmail,omitempty"`
}

func newAffiliateResponse(a *domain.Affiliate) affiliateResponse {
	return affiliateResponse{
		ID:             a.ID,
		UserID:         a.UserID,
		AffiliateCode:  a.Code,
		CommissionRate: a.CommissionRate,
		Status:         string(a.Status),
		ApprovedAt:     a.ApprovedAt,
		CreatedAt:      a.CreatedAt,
		UserName:       a.UserName,
		UserEmail:      a.UserEmail,
	}
}

type statisticsResponse struct {
	TotalCommissions int64 `json:"totalCommissions"`
	TotalEarnings    int64 `json:"totalEarnings"`
	PendingEarnings  int64 `json:"pendingEarnings"`
	PaidEarnings     int64 `json:"paidEarnings"`
}

type saleResponse struct {
	PurchaseID  string    `json:"purchaseId"`
	Amount      int64     `json:"amount"`
	Commission  int64     `json:"commission"`
	ProductType string    `json:"productType"`
	CreatedAt   time.Time `json:"createdAt"`
}

type subscriptionResponse struct {
	Status           string     `json:"status"`
	Plan             string     `json:"plan"`
	CurrentPeriodEnd *time.Time `json:"currentPeriodEnd,omitempty"`
	UpdatedAt        time.Time  `json:"updatedAt"`
}
