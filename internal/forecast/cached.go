package forecast

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

type cachedEntry struct {
	result    *Result
	expiresAt time.Time
}

type inFlightCall struct {
	done   chan struct{}
	result *Result
	err    error
}

const maxCleanupInterval = 5 * time.Minute

// Cached wraps a Forecaster with in-memory TTL caching. Entries are keyed by
// a fingerprint of the input, so a forecast is recomputed as soon as the
// household's spending picture changes.
type Cached struct {
	inner Forecaster
	ttl   time.Duration

	mu          sync.RWMutex
	entries     map[string]cachedEntry
	inFlight    map[string]*inFlightCall
	lastCleanup time.Time
}

// NewCached returns a forecaster that caches results in memory.
func NewCached(inner Forecaster, ttl time.Duration) *Cached {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &Cached{
		inner:    inner,
		ttl:      ttl,
		entries:  make(map[string]cachedEntry),
		inFlight: make(map[string]*inFlightCall),
	}
}

func fingerprint(in Input) string {
	var b []byte
	for _, h := range in.History {
		b = fmt.Appendf(b, "%s=%s;", h.Month, h.Spent.String())
	}
	return fmt.Sprintf("%s|%s/%d/%d|%s|%d",
		b, in.CurrentMonthSpent.String(), in.DaysPassed, in.TotalDays,
		in.MonthlyBudget.String(), in.ForecastMonths)
}

// Forecast returns a cached result when one is fresh, otherwise computes it.
func (c *Cached) Forecast(ctx context.Context, in Input) (*Result, error) {
	if c.inner == nil {
		return nil, errors.New("inner forecaster is required")
	}

	key := fingerprint(in)
	now := time.Now()

	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if ok && now.Before(entry.expiresAt) {
		return entry.result, nil
	}

	c.mu.Lock()
	// Re-check under write lock in case another goroutine refreshed it.
	entry, ok = c.entries[key]
	if ok && now.Before(entry.expiresAt) {
		c.mu.Unlock()
		return entry.result, nil
	}
	if ok {
		delete(c.entries, key)
	}

	if call, waiting := c.inFlight[key]; waiting {
		c.mu.Unlock()
		return waitForInFlight(ctx, call)
	}

	call := &inFlightCall{done: make(chan struct{})}
	c.inFlight[key] = call
	c.mu.Unlock()

	// Run the computation with cancellation detached from a single caller
	// so one deadline-bound caller cannot fail all concurrent waiters.
	go c.computeAndBroadcast(context.WithoutCancel(ctx), key, in, call)
	return waitForInFlight(ctx, call)
}

func (c *Cached) computeAndBroadcast(ctx context.Context, key string, in Input, call *inFlightCall) {
	result, err := c.inner.Forecast(ctx, in)

	computedAt := time.Now()
	c.mu.Lock()
	if err == nil {
		c.entries[key] = cachedEntry{
			result:    result,
			expiresAt: computedAt.Add(c.ttl),
		}
		c.cleanupExpiredLocked(computedAt)
	}
	call.result = result
	call.err = err
	delete(c.inFlight, key)
	close(call.done)
	c.mu.Unlock()
}

func waitForInFlight(ctx context.Context, call *inFlightCall) (*Result, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-call.done:
		return call.result, call.err
	}
}

func (c *Cached) cleanupExpiredLocked(now time.Time) {
	interval := min(c.ttl, maxCleanupInterval)
	if now.Sub(c.lastCleanup) < interval {
		return
	}
	for key, entry := range c.entries {
		if !now.Before(entry.expiresAt) {
			delete(c.entries, key)
		}
	}
	c.lastCleanup = now
}
