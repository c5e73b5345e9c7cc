package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/ErlanBelekov/wisdom-hub/internal/domain"
	"github.com/ErlanBelekov/wisdom-hub/internal/payment"
	"github.com/ErlanBelekov/wisdom-hub/internal/transport/http/middleware"
	"github.com/ErlanBelekov/wisdom-hub/internal/usecase"
	"github.com/gin-gonic/gin"
)

type paymentUsecaser interface {
	CreateIntent(ctx context.Context, in usecase.CreateIntentInput) (*payment.Intent, error)
	ConfirmPurchase(ctx context.Context, in usecase.ConfirmInput) (*domain.Purchase, bool, error)
	ListPurchases(ctx context.Context, userID string) ([]*domain.Purchase, error)
}

type PaymentHandler struct {
	paymentUsecase paymentUsecaser
	logger         *slog.Logger
}

func NewPaymentHandler(paymentUsecase paymentUsecaser, logger *slog.Logger) *PaymentHandler {
	return &PaymentHandler{
		paymentUsecase: paymentUsecase,
		logger:         logger.With("component", "payment_handler"),
	}
}

type productFields struct {
	ArticleID *string `json:"article_id"`
	BookID    *string `json:"book_id"`
	CourseID  *string `json:"course_id"`
}

func (p productFields) ref() domain.ProductRef {
	return domain.ProductRef{ArticleID: p.ArticleID, BookID: p.BookID, CourseID: p.CourseID}
}

type createIntentRequest struct {
	productFields
	Amount        int64  `json:"amount" binding:"required"`
	Currency      string `json:"currency" binding:"omitempty,len=3,alpha"`
	AffiliateCode string `json:"affiliate_code"`
}

type createIntentResponse struct {
	ClientSecret    string `json:"clientSecret"`
	PaymentIntentID string `json:"paymentIntentId"`
}

type confirmRequest struct {
	productFields
	PaymentIntentID string `json:"paymentIntentId" binding:"required"`
	Amount          int64  `json:"amount"          binding:"required"`
}

// POST /payments/create-intent
func (h *PaymentHandler) CreateIntent(c *gin.Context) {
	var req createIntentRequest
	if !bindJSON(c, &req) {
		return
	}

	intent, err := h.paymentUsecase.CreateIntent(c.Request.Context(), usecase.CreateIntentInput{
		UserID:        middleware.UserID(c),
		Amount:        req.Amount,
		Currency:      req.Currency,
		Product:       req.ref(),
		AffiliateCode: req.AffiliateCode,
	})
	if err != nil {
		respondError(c, h.logger, "create payment intent", err)
		return
	}

	c.JSON(http.StatusOK, createIntentResponse{
		ClientSecret:    intent.ClientSecret,
		PaymentIntentID: intent.ID,
	})
}

// POST /payments/confirm
// 201 when the purchase is recorded, 200 with the same purchase when this
// payment was already confirmed.
func (h *PaymentHandler) Confirm(c *gin.Context) {
	var req confirmRequest
	if !bindJSON(c, &req) {
		return
	}

	purchase, created, err := h.paymentUsecase.ConfirmPurchase(c.Request.Context(), usecase.ConfirmInput{
		UserID:           middleware.UserID(c),
		PaymentReference: req.PaymentIntentID,
		Product:          req.ref(),
		Amount:           req.Amount,
	})
	if err != nil {
		respondError(c, h.logger, "confirm purchase", err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, gin.H{"purchase": newPurchaseResponse(purchase)})
}

// GET /payments/purchases
func (h *PaymentHandler) ListPurchases(c *gin.Context) {
	purchases, err := h.paymentUsecase.ListPurchases(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		respondError(c, h.logger, "list purchases", err)
		return
	}

	resp := make([]purchaseResponse, 0, len(purchases))
	for _, p := range purchases {
		resp = append(resp, newPurchaseResponse(p))
	}
	c.JSON(http.StatusOK, gin.H{"purchases": resp})
}
