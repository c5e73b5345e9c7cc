// Package ratelimit implements fixed-window request counters, in memory for
// single-instance deployments and in Redis when several instances share a limit.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Decision is the outcome of one Allow call.
type Decision struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// RetryAfter is how long the caller should wait before the window resets.
func (d Decision) RetryAfter(now time.Time) time.Duration {
	wait := d.ResetAt.Sub(now)
	if wait < time.Second {
		return time.Second
	}
	return wait
}

type Limiter interface {
	Allow(ctx context.Context, key string) (Decision, error)
}

type window struct {
	start time.Time
	count int
}

// Memory counts requests per key within windows aligned to the window size.
type Memory struct {
	limit  int
	per    time.Duration
	now    func() time.Time
	mu     sync.Mutex
	counts map[string]window
}

func NewMemory(limit int, per time.Duration) *Memory {
	return &Memory{
		limit:  limit,
		per:    per,
		now:    time.Now,
		counts: make(map[string]window),
	}
}

// WithClock replaces the time source. Intended for tests.
func (m *Memory) WithClock(now func() time.Time) *Memory {
	m.now = now
	return m
}

func (m *Memory) Allow(_ context.Context, key string) (Decision, error) {
	now := m.now()
	start := now.Truncate(m.per)

	m.mu.Lock()
	defer m.mu.Unlock()

	w, ok := m.counts[key]
	if !ok || w.start.Before(start) {
		if !ok && len(m.counts) >= 10_000 {
			m.sweep(start)
		}
		w = window{start: start}
	}

	d := Decision{Limit: m.limit, ResetAt: start.Add(m.per)}
	if w.count >= m.limit {
		return d, nil
	}
	w.count++
	m.counts[key] = w

	d.Allowed = true
	d.Remaining = m.limit - w.count
	return d, nil
}

// sweep drops counters from finished windows. Caller holds mu.
func (m *Memory) sweep(current time.Time) {
	for k, w := range m.counts {
		if w.start.Before(current) {
			delete(m.counts, k)
		}
	}
}
