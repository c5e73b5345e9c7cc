package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ErlanBelekov/wisdom-hub/config"
	"github.com/ErlanBelekov/wisdom-hub/internal/email"
	"github.com/ErlanBelekov/wisdom-hub/internal/health"
	"github.com/ErlanBelekov/wisdom-hub/internal/infrastructure/postgres"
	ctxlog "github.com/ErlanBelekov/wisdom-hub/internal/log"
	"github.com/ErlanBelekov/wisdom-hub/internal/metrics"
	"github.com/ErlanBelekov/wisdom-hub/internal/password"
	"github.com/ErlanBelekov/wisdom-hub/internal/payment"
	"github.com/ErlanBelekov/wisdom-hub/internal/ratelimit"
	"github.com/ErlanBelekov/wisdom-hub/internal/token"
	httptransport "github.com/ErlanBelekov/wisdom-hub/internal/transport/http"
	"github.com/ErlanBelekov/wisdom-hub/internal/transport/http/handler"
	"github.com/ErlanBelekov/wisdom-hub/internal/usecase"
	"github.com/gin-gonic/gin"
	"github.com/lmittmann/tint"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	logger := newLogger(cfg.Env, cfg.SlogLevel())

	if cfg.Env != "local" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	if cfg.RunMigrations {
		if err := postgres.Migrate(ctx, cfg.DatabaseURL); err != nil {
			stop()
			log.Fatalf("migrate: %v", err)
		}
		logger.Info("migrations applied")
	}

	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		stop()
		log.Fatalf("db: %v", err)
	}
	defer pool.Close()

	metrics.Register()
	checker := health.NewChecker(pool, logger, prometheus.DefaultRegisterer)

	// Rate limiting is shared across instances through Redis when configured.
	var authLimiter ratelimit.Limiter = ratelimit.NewMemory(cfg.RateLimitRequests, cfg.RateLimitWindow)
	if cfg.RedisURL != "" {
		rdb, err := ratelimit.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			stop()
			log.Fatalf("redis: %v", err)
		}
		defer rdb.Close()
		authLimiter = ratelimit.NewRedis(rdb, cfg.RateLimitRequests, cfg.RateLimitWindow)
		checker.With("redis", health.PingFunc(func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		}))
		logger.Info("redis connected")
	}

	tokens := token.NewIssuer([]byte(cfg.JWTSecret))
	emailSender := email.NewSender(cfg.Env, cfg.ResendAPIKey, cfg.EmailFrom, logger)

	if cfg.StripeWebhookSecret == "" {
		logger.Warn("STRIPE_WEBHOOK_SECRET not set, webhook deliveries will be refused")
	}

	// Users
	userRepo := postgres.NewUserRepository(pool)
	authUsecase := usecase.NewAuthUsecase(
		userRepo,
		password.NewHasher(cfg.BcryptCost),
		tokens,
		emailSender,
		email.NewLinks(cfg.AppURL),
		logger,
	)

	// Payments
	purchaseRepo := postgres.NewPurchaseRepository(pool)
	affiliateRepo := postgres.NewAffiliateRepository(pool)
	paymentUsecase := usecase.NewPaymentUsecase(
		purchaseRepo,
		affiliateRepo,
		payment.NewStripeGateway(cfg.StripeSecretKey),
		logger,
	)
	webhookUsecase := usecase.NewWebhookUsecase(postgres.NewWebhookRepository(pool), logger)

	// Affiliates and subscriptions
	affiliateUsecase := usecase.NewAffiliateUsecase(affiliateRepo, cfg.AppURL, logger)
	subscriptionUsecase := usecase.NewSubscriptionUsecase(postgres.NewSubscriptionRepository(pool))

	router := httptransport.NewRouter(logger, httptransport.Handlers{
		Health:        handler.NewHealthHandler(checker),
		Auth:          handler.NewAuthHandler(authUsecase, logger),
		Payments:      handler.NewPaymentHandler(paymentUsecase, logger),
		Webhooks:      handler.NewWebhookHandler(payment.NewWebhookVerifier(cfg.StripeWebhookSecret), webhookUsecase, logger),
		Affiliates:    handler.NewAffiliateHandler(affiliateUsecase, logger),
		Subscriptions: handler.NewSubscriptionHandler(subscriptionUsecase, logger),
	}, httptransport.Options{
		Tokens:      tokens,
		AuthLimiter: authLimiter,
		AdminEmails: cfg.AdminEmails,
	})

	srv := http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	metricsSrv := metrics.NewServer(":"+cfg.MetricsPort, checker)

	go func() {
		logger.Info("server started", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server: %v", err)
		}
	}()

	go func() {
		logger.Info("metrics server started", "port", cfg.MetricsPort)
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server", "error", err)
		}
	}()

	<-ctx.Done()
	stop()
	logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", "error", err)
	}
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("metrics server shutdown", "error", err)
	}
}

func newLogger(env string, level slog.Level) *slog.Logger {
	var inner slog.Handler
	if env == "local" {
		inner = tint.NewHandler(os.Stdout, &tint.Options{
			Level:      level,
			TimeFormat: time.Kitchen,
		})
	} else {
		inner = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: level,
		})
	}
	return slog.New(ctxlog.NewContextHandler(inner)).With("service", "wisdom-hub")
}
