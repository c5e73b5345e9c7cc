package domain

import (
	"errors"
	"time"
)

var (
	ErrAffiliateNotFound     = errors.New("affiliate not found")
	ErrAlreadyRegistered     = errors.New("user already has an affiliate account")
	ErrAffiliateCodeInUse    = errors.New("affiliate code already in use")
	ErrInvalidCommissionRate = errors.New("commission rate must be between 1 and 100")
)

type AffiliateStatus string

const (
	AffiliatePending  AffiliateStatus = "pending"
	AffiliateApproved AffiliateStatus = "approved"
	AffiliateRejected AffiliateStatus = "rejected"
)

const DefaultCommissionRate = 20

type Affiliate struct {
	ID             string
	UserID         string
	Code           string
	CommissionRate int // percent
	Status         AffiliateStatus
	ApprovedAt     *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time

	// Populated by queries that join users.
	UserName  string
	UserEmail string
}

type CommissionStatus string

const (
	CommissionPending CommissionStatus = "pending"
	CommissionPaid    CommissionStatus = "paid"
)

type Commission struct {
	ID          string
	AffiliateID string
	PurchaseID  string
	Amount      int64
	Status      CommissionStatus
	CreatedAt   time.Time
}

// CommissionFor computes the payout for a sale, truncated to whole minor units.
func CommissionFor(amount int64, ratePercent int) int64 {
	return amount * int64(ratePercent) / 100
}

type Sale struct {
	PurchaseID  string
	Amount      int64
	Commission  int64
	ProductType ProductType
	CreatedAt   time.Time
}

type AffiliateStats struct {
	TotalCommissions int64
	TotalEarnings    int64
	PendingEarnings  int64
	PaidEarnings     int64
	RecentSales      []Sale
}

// AdminAction is one row of the admin audit trail.
type AdminAction struct {
	AdminID      string
	Action       string
	ResourceType string
	ResourceID   string
	Details      string
}
