package domain

import (
	"errors"
	"time"
)

var (
	ErrPurchaseNotFound        = errors.New("purchase not found")
	ErrDuplicatePurchase       = errors.New("purchase already recorded for this payment")
	ErrPaymentNotSucceeded     = errors.New("payment not successful")
	ErrPaymentMismatch         = errors.New("payment does not match purchase")
	ErrMissingProductReference = errors.New("exactly one of article_id, book_id or course_id is required")
	ErrInvalidAmount           = errors.New("amount must be a positive number of minor currency units")
	ErrPaymentsNotConfigured   = errors.New("payment provider not configured")
)

type PurchaseStatus string

const (
	PurchaseCompleted PurchaseStatus = "completed"
	PurchaseRefunded  PurchaseStatus = "refunded"
)

type ProductType string

const (
	ProductArticle ProductType = "article"
	ProductBook    ProductType = "book"
	ProductCourse  ProductType = "course"
)

// ProductRef points at exactly one purchasable item.
type ProductRef struct {
	ArticleID *string
	BookID    *string
	CourseID  *string
}

// Resolve returns the single referenced product, or ErrMissingProductReference
// when none or more than one reference is set.
func (p ProductRef) Resolve() (ProductType, string, error) {
	var (
		typ   ProductType
		id    string
		count int
	)
	if p.ArticleID != nil && *p.ArticleID != "" {
		typ, id = ProductArticle, *p.ArticleID
		count++
	}
	if p.BookID != nil && *p.BookID != "" {
		typ, id = ProductBook, *p.BookID
		count++
	}
	if p.CourseID != nil && *p.CourseID != "" {
		typ, id = ProductCourse, *p.CourseID
		count++
	}
	if count != 1 {
		return "", "", ErrMissingProductReference
	}
	return typ, id, nil
}

// ProductRefFor builds a ref pointing at a single product.
func ProductRefFor(t ProductType, id string) ProductRef {
	switch t {
	case ProductArticle:
		return ProductRef{ArticleID: &id}
	case ProductBook:
		return ProductRef{BookID: &id}
	default:
		return ProductRef{CourseID: &id}
	}
}

type Purchase struct {
	ID               string
	UserID           string
	Product          ProductRef
	Amount           int64 // minor currency units
	Currency         string
	PaymentReference string
	Status           PurchaseStatus
	CreatedAt        time.Time
	UpdatedAt        time.Time
}
