package janitor

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ErlanBelekov/wisdom-hub/internal/metrics"
	"github.com/robfig/cron/v3"
)

// EventRetention is how long processed webhook event ids are kept for dedup.
const EventRetention = 30 * 24 * time.Hour

type TokenStore interface {
	ClearExpiredTokens(ctx context.Context, now time.Time) (verification, reset int64, err error)
}

type EventStore interface {
	PruneEvents(ctx context.Context, olderThan time.Time) (int64, error)
}

type Janitor struct {
	tokens   TokenStore
	events   EventStore
	schedule cron.Schedule
	logger   *slog.Logger
	now      func() time.Time
}

// New parses spec as a standard cron expression or descriptor such as "@every 15m".
func New(tokens TokenStore, events EventStore, spec string, logger *slog.Logger) (*Janitor, error) {
	sched, err := cron.ParseStandard(spec)
	if err != nil {
		return nil, fmt.Errorf("parse janitor schedule %q: %w", spec, err)
	}
	return &Janitor{
		tokens:   tokens,
		events:   events,
		schedule: sched,
		logger:   logger.With("component", "janitor"),
		now:      time.Now,
	}, nil
}

// Start sweeps on every tick of the schedule until ctx is cancelled.
func (j *Janitor) Start(ctx context.Context) {
	j.logger.Info("janitor started")

	for {
		next := j.schedule.Next(j.now())
		timer := time.NewTimer(time.Until(next))

		select {
		case <-ctx.Done():
			timer.Stop()
			j.logger.Info("janitor shut down")
			return
		case <-timer.C:
			j.Sweep(ctx)
		}
	}
}

// Sweep runs one cleanup pass. Failures are logged and retried on the next tick.
func (j *Janitor) Sweep(ctx context.Context) {
	start := time.Now()
	defer func() {
		metrics.JanitorSweepDuration.Observe(time.Since(start).Seconds())
	}()

	now := j.now()

	verification, reset, err := j.tokens.ClearExpiredTokens(ctx, now)
	if err != nil {
		j.logger.ErrorContext(ctx, "clear expired tokens", "error", err)
	}
	j.count("verification_token", verification)
	j.count("reset_token", reset)

	pruned, err := j.events.PruneEvents(ctx, now.Add(-EventRetention))
	if err != nil {
		j.logger.ErrorContext(ctx, "prune webhook events", "error", err)
	}
	j.count("webhook_event", pruned)

	if verification+reset+pruned > 0 {
		j.logger.InfoContext(ctx, "janitor sweep",
			"verification_tokens", verification,
			"reset_tokens", reset,
			"webhook_events", pruned,
		)
	}
}

func (j *Janitor) count(kind string, n int64) {
	if n > 0 {
		metrics.JanitorClearedTotal.WithLabelValues(kind).Add(float64(n))
	}
}
