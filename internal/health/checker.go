package health

import (
	"context"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Pinger is satisfied by *pgxpool.Pool. Redis is adapted with PingFunc.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a function to Pinger.
type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

// CheckResult represents the health of a single dependency.
type CheckResult struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// HealthResult is the top-level health response.
type HealthResult struct {
	Status string                 `json:"status"`
	Checks map[string]CheckResult `json:"checks,omitempty"`
}

type dependency struct {
	name   string
	pinger Pinger
}

// Checker verifies that all dependencies are reachable.
type Checker struct {
	deps   []dependency
	logger *slog.Logger
	gauge  *prometheus.GaugeVec
}

// NewChecker creates a health checker for postgres and registers its
// Prometheus gauge. Further dependencies are added with With.
func NewChecker(db Pinger, logger *slog.Logger, reg prometheus.Registerer) *Checker {
	gauge := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "wisdomhub",
		Name:      "health_check_up",
		Help:      "Whether a dependency is reachable. 1 = up, 0 = down.",
	}, []string{"dependency"})
	reg.MustRegister(gauge)

	return &Checker{
		deps:   []dependency{{name: "postgres", pinger: db}},
		logger: logger.With("component", "health"),
		gauge:  gauge,
	}
}

// With adds a named dependency to the readiness check.
func (c *Checker) With(name string, p Pinger) *Checker {
	c.deps = append(c.deps, dependency{name: name, pinger: p})
	return c
}

// Liveness returns a simple "up" response if the process is running.
func (c *Checker) Liveness(_ context.Context) HealthResult {
	return HealthResult{Status: "up"}
}

// Readiness pings every dependency and reports per-check status.
func (c *Checker) Readiness(ctx context.Context) HealthResult {
	checkCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	result := HealthResult{
		Status: "up",
		Checks: make(map[string]CheckResult, len(c.deps)),
	}

	for _, d := range c.deps {
		if err := d.pinger.Ping(checkCtx); err != nil {
			c.logger.Warn("health check failed", "dependency", d.name, "error", err)
			result.Status = "down"
			result.Checks[d.name] = CheckResult{Status: "down", Error: err.Error()}
			c.gauge.WithLabelValues(d.name).Set(0)
			continue
		}
		result.Checks[d.name] = CheckResult{Status: "up"}
		c.gauge.WithLabelValues(d.name).Set(1)
	}

	return result
}
