package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/ErlanBelekov/wisdom-hub/internal/domain"
	"github.com/ErlanBelekov/wisdom-hub/internal/transport/http/middleware"
	"github.com/ErlanBelekov/wisdom-hub/internal/usecase"
	"github.com/gin-gonic/gin"
)

type affiliateUsecaser interface {
	Register(ctx context.Context, userID string, rate int) (*domain.Affiliate, error)
	Mine(ctx context.Context, userID string) (*domain.Affiliate, error)
	Approve(ctx context.Context, adminID, affiliateID string) (*domain.Affiliate, error)
	Reject(ctx context.Context, adminID, affiliateID, reason string) (*domain.Affiliate, error)
	ListPending(ctx context.Context) ([]*domain.Affiliate, error)
	Stats(ctx context.Context, caller usecase.Caller, code string) (*usecase.AffiliateReport, error)
	ReferralLink(ctx context.Context, code string) (*usecase.ReferralLink, error)
}

type AffiliateHandler struct {
	affiliateUsecase affiliateUsecaser
	logger           *slog.Logger
}

func NewAffiliateHandler(affiliateUsecase affiliateUsecaser, logger *slog.Logger) *AffiliateHandler {
	return &AffiliateHandler{
		affiliateUsecase: affiliateUsecase,
		logger:           logger.With("component", "affiliate_handler"),
	}
}

type registerAffiliateRequest struct {
	CommissionRate int `json:"commission_rate" binding:"omitempty,min=1,max=100"`
}

type rejectAffiliateRequest struct {
	Reason string `json:"reason" binding:"max=500"`
}

// POST /affiliates/register
// The body is optional; an empty body registers at the default rate.
func (h *AffiliateHandler) Register(c *gin.Context) {
	var req registerAffiliateRequest
	if !bindOptionalJSON(c, &req) {
		return
	}

	aff, err := h.affiliateUsecase.Register(c.Request.Context(), middleware.UserID(c), req.CommissionRate)
	if err != nil {
		respondError(c, h.logger, "register affiliate", err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":   "Affiliate registration submitted for approval",
		"affiliate": newAffiliateResponse(aff),
	})
}

// GET /affiliates/me
func (h *AffiliateHandler) Mine(c *gin.Context) {
	aff, err := h.affiliateUsecase.Mine(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		respondError(c, h.logger, "get own affiliate", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"affiliate": newAffiliateResponse(aff)})
}

// GET /affiliates/:affiliate/stats
func (h *AffiliateHandler) Stats(c *gin.Context) {
	caller := usecase.Caller{UserID: middleware.UserID(c), Admin: middleware.IsAdmin(c)}

	report, err := h.affiliateUsecase.Stats(c.Request.Context(), caller, c.Param("affiliate"))
	if err != nil {
		respondError(c, h.logger, "affiliate stats", err)
		return
	}

	s := report.Stats
	sales := make([]saleResponse, 0, len(s.RecentSales))
	for _, sale := range s.RecentSales {
		sales = append(sales, saleResponse{
			PurchaseID:  sale.PurchaseID,
			Amount:      sale.Amount,
			Commission:  sale.Commission,
			ProductType: string(sale.ProductType),
			CreatedAt:   sale.CreatedAt,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"affiliate": newAffiliateResponse(report.Affiliate),
		"statistics": statisticsResponse{
			TotalCommissions: s.TotalCommissions,
			TotalEarnings:    s.TotalEarnings,
			PendingEarnings:  s.PendingEarnings,
			PaidEarnings:     s.PaidEarnings,
		},
		"recentSales": sales,
	})
}

// GET /affiliates/:affiliate/referral-link
func (h *AffiliateHandler) ReferralLink(c *gin.Context) {
	link, err := h.affiliateUsecase.ReferralLink(c.Request.Context(), c.Param("affiliate"))
	if err != nil {
		respondError(c, h.logger, "referral link", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"referralLink":  link.Link,
		"affiliateCode": link.Code,
		"shareText":     link.ShareText,
	})
}

// GET /affiliates/pending (admin)
func (h *AffiliateHandler) ListPending(c *gin.Context) {
	list, err := h.affiliateUsecase.ListPending(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, "list pending affiliates", err)
		return
	}

	resp := make([]affiliateResponse, 0, len(list))
	for _, a := range list {
		resp = append(resp, newAffiliateResponse(a))
	}
	c.JSON(http.StatusOK, gin.H{"affiliates": resp})
}

// POST /affiliates/:affiliate/approve (admin)
func (h *AffiliateHandler) Approve(c *gin.Context) {
	aff, err := h.affiliateUsecase.Approve(c.Request.Context(), middleware.UserID(c), c.Param("affiliate"))
	if err != nil {
		respondError(c, h.logger, "approve affiliate", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"affiliate": newAffiliateResponse(aff)})
}

// POST /affiliates/:affiliate/reject (admin)
func (h *AffiliateHandler) Reject(c *gin.Context) {
	var req rejectAffiliateRequest
	if !bindOptionalJSON(c, &req) {
		return
	}

	aff, err := h.affiliateUsecase.Reject(c.Request.Context(), middleware.UserID(c), c.Param("affiliate"), req.Reason)
	if err != nil {
		respondError(c, h.logger, "reject affiliate", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"affiliate": newAffiliateResponse(aff)})
}
