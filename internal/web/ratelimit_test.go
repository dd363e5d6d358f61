package web

import (
	"testing"
	"time"
)

// fakeClock is a settable time source.
type fakeClock struct {
	t time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) now() time.Time { return c.t }

func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newClockedLimiter(perMinute int, c *fakeClock) *rateLimiter {
	rl := newRateLimiter(perMinute)
	rl.now = c.now
	return rl
}

func TestAskBudget_Spend(t *testing.T) {
	tests := []struct {
		name      string
		perMinute int
		requests  int
		want      int // number of requests that should succeed
	}{
		{"all requests allowed", 10, 5, 5},
		{"some requests denied", 3, 5, 3},
		{"exactly at capacity", 5, 5, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			now := newFakeClock().now()
			b := newAskBudget(tt.perMinute, now)

			allowed := 0
			for i := 0; i < tt.requests; i++ {
				if b.spend(now) {
					allowed++
				}
			}

			if allowed != tt.want {
				t.Errorf("allowed %d requests, want %d", allowed, tt.want)
			}
		})
	}
}

func TestAskBudget_Refill(t *testing.T) {
	clock := newFakeClock()
	b := newAskBudget(10, clock.now())

	for i := 0; i < 10; i++ {
		if !b.spend(clock.now()) {
			t.Fatalf("expected request %d to be allowed", i)
		}
	}
	if b.spend(clock.now()) {
		t.Fatal("expected request to be denied when budget is empty")
	}

	// Ten per minute earns one question every six seconds.
	clock.advance(3 * time.Second)
	if b.spend(clock.now()) {
		t.Error("half a question should not be spendable")
	}
	clock.advance(3 * time.Second)
	if !b.spend(clock.now()) {
		t.Error("expected request to be allowed after six seconds")
	}
	if b.spend(clock.now()) {
		t.Error("only one question should have been earned")
	}

	// A long pause refills to capacity, not beyond.
	clock.advance(time.Hour)
	allowed := 0
	for i := 0; i < 20; i++ {
		if b.spend(clock.now()) {
			allowed++
		}
	}
	if allowed != 10 {
		t.Errorf("allowed %d after an hour, want 10", allowed)
	}
}

func TestRateLimiter_AllowAsk(t *testing.T) {
	rl := newClockedLimiter(0, newFakeClock())

	allowed := 0
	for i := 0; i < MaxAskRequestsPerMinute+5; i++ {
		if rl.allowAsk("session") {
			allowed++
		}
	}

	if allowed != MaxAskRequestsPerMinute {
		t.Errorf("allowed %d questions, want %d", allowed, MaxAskRequestsPerMinute)
	}
}

func TestRateLimiter_CustomCapacity(t *testing.T) {
	clock := newFakeClock()
	rl := newClockedLimiter(2, clock)

	if !rl.allowAsk("s") || !rl.allowAsk("s") {
		t.Fatal("expected first two questions to be allowed")
	}
	if rl.allowAsk("s") {
		t.Error("third question should be denied")
	}

	clock.advance(30 * time.Second)
	if !rl.allowAsk("s") {
		t.Error("question should be allowed after refill")
	}
}

func TestRateLimiter_DifferentSessions(t *testing.T) {
	rl := newClockedLimiter(1, newFakeClock())

	if !rl.allowAsk("session1") {
		t.Fatal("expected session1 to be allowed")
	}
	if rl.allowAsk("session1") {
		t.Error("expected session1 to be rate limited")
	}
	if !rl.allowAsk("session2") {
		t.Error("expected session2 to be allowed (different session)")
	}
}

func TestRateLimiter_CleanupStale(t *testing.T) {
	clock := newFakeClock()
	rl := newClockedLimiter(0, clock)

	rl.allowAsk("stale")
	clock.advance(2 * time.Hour)
	rl.allowAsk("recent")

	rl.cleanupStale(time.Hour)

	rl.mu.Lock()
	_, recentExists := rl.budgets["recent"]
	_, staleExists := rl.budgets["stale"]
	rl.mu.Unlock()

	if !recentExists {
		t.Error("recent session should not have been cleaned up")
	}
	if staleExists {
		t.Error("stale session should have been cleaned up")
	}
	if got := rl.size(); got != 1 {
		t.Errorf("size() = %d, want 1", got)
	}
}
