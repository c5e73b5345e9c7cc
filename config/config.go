package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
)

type Config struct {
	Env      string `env:"ENV" envDefault:"local" validate:"required,oneof=local staging production"`
	Port     string `env:"PORT" envDefault:"8080" validate:"required"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info" validate:"oneof=debug info warn error"`

	DatabaseURL   string `env:"DATABASE_URL,required" validate:"required"`
	RunMigrations bool   `env:"RUN_MIGRATIONS" envDefault:"true"`

	MetricsPort string `env:"METRICS_PORT" envDefault:"9090"`

	JWTSecret  string `env:"JWT_SECRET,required" validate:"required,min=32"`
	BcryptCost int    `env:"BCRYPT_COST" envDefault:"10" validate:"min=10,max=15"`

	StripeSecretKey     string `env:"STRIPE_SECRET_KEY"     validate:"required_if=Env production,required_if=Env staging"`
	StripeWebhookSecret string `env:"STRIPE_WEBHOOK_SECRET" validate:"required_if=Env production,required_if=Env staging"`

	ResendAPIKey string `env:"RESEND_API_KEY" validate:"required_if=Env production,required_if=Env staging"`
	EmailFrom    string `env:"EMAIL_FROM"     validate:"required_if=Env production,required_if=Env staging"`
	AppURL       string `env:"APP_URL"        envDefault:"http://localhost:8080" validate:"required,url"`

	RedisURL          string        `env:"REDIS_URL"`
	RateLimitRequests int           `env:"RATE_LIMIT_REQUESTS" envDefault:"10" validate:"min=1"`
	RateLimitWindow   time.Duration `env:"RATE_LIMIT_WINDOW"   envDefault:"1m" validate:"min=1s"`

	AdminEmails []string `env:"ADMIN_EMAILS" envSeparator:","`

	JanitorSchedule string `env:"JANITOR_SCHEDULE" envDefault:"@every 15m" validate:"required"`
}

func Load() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	for i, e := range cfg.AdminEmails {
		cfg.AdminEmails[i] = strings.ToLower(strings.TrimSpace(e))
	}

	return cfg, nil
}

func (c *Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
