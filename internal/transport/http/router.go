package httptransport

import (
	"log/slog"

	"github.com/ErlanBelekov/wisdom-hub/internal/ratelimit"
	"github.com/ErlanBelekov/wisdom-hub/internal/token"
	"github.com/ErlanBelekov/wisdom-hub/internal/transport/http/handler"
	"github.com/ErlanBelekov/wisdom-hub/internal/transport/http/middleware"
	"github.com/gin-gonic/gin"

	sloggin "github.com/samber/slog-gin"
)

type Handlers struct {
	Health        *handler.HealthHandler
	Auth          *handler.AuthHandler
	Payments      *handler.PaymentHandler
	Webhooks      *handler.WebhookHandler
	Affiliates    *handler.AffiliateHandler
	Subscriptions *handler.SubscriptionHandler
}

type Options struct {
	Tokens      *token.Issuer
	AuthLimiter ratelimit.Limiter
	AdminEmails []string
}

func NewRouter(logger *slog.Logger, h Handlers, opts Options) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Security())
	r.Use(sloggin.NewWithConfig(logger, sloggin.Config{
		DefaultLevel:     slog.LevelInfo,
		ClientErrorLevel: slog.LevelWarn,
		ServerErrorLevel: slog.LevelError,
		Filters:          []sloggin.Filter{sloggin.IgnorePathPrefix("/health")},
	}))
	r.Use(middleware.Metrics())

	authMW := middleware.Auth(opts.Tokens)
	admins := middleware.Admins(opts.AdminEmails)
	limited := middleware.RateLimit(opts.AuthLimiter, "auth", logger)

	r.GET("/health/live", h.Health.Live)
	r.GET("/health/ready", h.Health.Ready)
	r.GET("/interests", handler.Interests)

	// Reads the raw body itself for signature verification.
	r.POST("/webhooks/stripe", h.Webhooks.Stripe)

	auth := r.Group("/auth")
	auth.POST("/signup", limited, h.Auth.Signup)
	auth.POST("/login", limited, h.Auth.Login)
	auth.POST("/verify-email", limited, h.Auth.VerifyEmail)
	auth.POST("/forgot-password", limited, h.Auth.ForgotPassword)
	auth.POST("/reset-password", limited, h.Auth.ResetPassword)
	auth.POST("/resend-verification", limited, h.Auth.ResendVerification)
	auth.GET("/me", authMW, h.Auth.Me)
	auth.PUT("/me/interests", authMW, h.Auth.UpdateInterests)

	payments := r.Group("/payments", authMW)
	payments.POST("/create-intent", h.Payments.CreateIntent)
	payments.POST("/confirm", h.Payments.Confirm)
	payments.GET("/purchases", h.Payments.ListPurchases)

	affiliates := r.Group("/affiliates")
	affiliates.GET("/:affiliate/referral-link", h.Affiliates.ReferralLink)

	member := affiliates.Group("", authMW, admins)
	member.POST("/register", h.Affiliates.Register)
	member.GET("/me", h.Affiliates.Mine)
	member.GET("/:affiliate/stats", h.Affiliates.Stats)

	admin := member.Group("", middleware.RequireAdmin())
	admin.GET("/pending", h.Affiliates.ListPending)
	admin.POST("/:affiliate/approve", h.Affiliates.Approve)
	admin.POST("/:affiliate/reject", h.Affiliates.Reject)

	subscriptions := r.Group("/subscriptions")
	subscriptions.GET("/plans", h.Subscriptions.Plans)
	subscriptions.GET("/me", authMW, h.Subscriptions.Mine)

	return r
}
