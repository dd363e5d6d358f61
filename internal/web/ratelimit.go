package web

import (
	"context"
	"sync"
	"time"
)

const (
	// MaxAskRequestsPerMinute limits assistant questions per session.
	MaxAskRequestsPerMinute = 10

	// cleanupInterval is how often idle question budgets are dropped.
	cleanupInterval = 5 * time.Minute

	// maxBucketAge is how long a budget may sit unused before it is dropped.
	maxBucketAge = 30 * time.Minute
)

// askBudget is one session's question allowance. It holds at most perMinute
// questions and earns them back continuously, perMinute per minute.
type askBudget struct {
	mu        sync.Mutex
	perMinute float64
	available float64
	updated   time.Time
}

func newAskBudget(perMinute int, now time.Time) *askBudget {
	return &askBudget{
		perMinute: float64(perMinute),
		available: float64(perMinute),
		updated:   now,
	}
}

// spend refills the budget up to now and takes one question from it.
func (b *askBudget) spend(now time.Time) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if elapsed := now.Sub(b.updated); elapsed > 0 {
		b.available = min(b.perMinute, b.available+elapsed.Minutes()*b.perMinute)
	}
	b.updated = now

	if b.available < 1 {
		return false
	}
	b.available--
	return true
}

// idle reports how long the budget has gone unused at now.
func (b *askBudget) idle(now time.Time) time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()
	return now.Sub(b.updated)
}

// rateLimiter tracks assistant question budgets per session.
type rateLimiter struct {
	mu        sync.Mutex
	perMinute int
	budgets   map[string]*askBudget
	now       func() time.Time
}

// newRateLimiter creates a rate limiter allowing perMinute questions per
// minute per session. Zero or less selects MaxAskRequestsPerMinute.
func newRateLimiter(perMinute int) *rateLimiter {
	if perMinute <= 0 {
		perMinute = MaxAskRequestsPerMinute
	}
	return &rateLimiter{
		perMinute: perMinute,
		budgets:   make(map[string]*askBudget),
		now:       time.Now,
	}
}

// allowAsk reports whether sessionID may ask another question now.
func (rl *rateLimiter) allowAsk(sessionID string) bool {
	now := rl.now()

	rl.mu.Lock()
	budget, ok := rl.budgets[sessionID]
	if !ok {
		budget = newAskBudget(rl.perMinute, now)
		rl.budgets[sessionID] = budget
	}
	rl.mu.Unlock()

	return budget.spend(now)
}

// size returns the number of tracked sessions.
func (rl *rateLimiter) size() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.budgets)
}

// cleanupStale drops budgets unused for longer than maxAge.
func (rl *rateLimiter) cleanupStale(maxAge time.Duration) {
	now := rl.now()

	rl.mu.Lock()
	defer rl.mu.Unlock()
	for sessionID, budget := range rl.budgets {
		if budget.idle(now) > maxAge {
			delete(rl.budgets, sessionID)
		}
	}
}

// startCleanup drops stale budgets every cleanupInterval until ctx is done.
func (rl *rateLimiter) startCleanup(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(cleanupInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				rl.cleanupStale(maxBucketAge)
			case <-ctx.Done():
				return
			}
		}
	}()
}
