// Package ratelimit implements a per-client sliding-window request counter.
//
// State is a process-local map keyed by client identifier (source IP). A
// multi-instance deployment would swap the map for a shared counter with
// atomic increment-with-expiry behind the same Check contract.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"meme-factory/internal/logger"
)

// Result is the outcome of a rate limit check.
type Result struct {
	Allowed   bool
	Remaining int
	ResetAt   time.Time
}

// RetryAfter is how long until the window resets.
func (r Result) RetryAfter() time.Duration {
	return time.Until(r.ResetAt)
}

type entry struct {
	count       int
	windowStart time.Time
}

// Limiter counts requests per client identifier over a sliding window that
// restarts relative to the first request seen, not a fixed clock boundary.
type Limiter struct {
	mu      sync.Mutex
	entries map[string]*entry
	max     int
	window  time.Duration

	// now is swappable for tests.
	now func() time.Time
}

// New creates a limiter allowing max requests per window.
func New(max int, window time.Duration) *Limiter {
	return &Limiter{
		entries: make(map[string]*entry),
		max:     max,
		window:  window,
		now:     time.Now,
	}
}

// Check records a request attempt for clientID and reports whether it is
// allowed. The read-modify-write is atomic per identifier: two concurrent
// requests from the same client cannot both consume the last slot. Check
// never fails; an unknown identifier is simply a first request.
func (l *Limiter) Check(clientID string) Result {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()

	e, ok := l.entries[clientID]
	if !ok || now.Sub(e.windowStart) >= l.window {
		// First request, or the previous window has fully elapsed.
		l.entries[clientID] = &entry{count: 1, windowStart: now}
		return Result{
			Allowed:   true,
			Remaining: l.max - 1,
			ResetAt:   now.Add(l.window),
		}
	}

	resetAt := e.windowStart.Add(l.window)

	if e.count >= l.max {
		return Result{Allowed: false, Remaining: 0, ResetAt: resetAt}
	}

	e.count++
	return Result{
		Allowed:   true,
		Remaining: l.max - e.count,
		ResetAt:   resetAt,
	}
}

// Sweep drops entries whose window has fully elapsed, bounding memory to the
// set of recently-active clients. Best-effort: Check handles expired windows
// itself, so correctness does not depend on sweeping.
func (l *Limiter) Sweep() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	removed := 0
	for id, e := range l.entries {
		if now.Sub(e.windowStart) >= l.window {
			delete(l.entries, id)
			removed++
		}
	}
	return removed
}

// Run sweeps at window cadence until ctx is cancelled.
func (l *Limiter) Run(ctx context.Context) {
	ticker := time.NewTicker(l.window)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := l.Sweep(); removed > 0 {
				logger.Debug("rate limit sweep removed %d expired entries", removed)
			}
		}
	}
}
