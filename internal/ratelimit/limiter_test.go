package ratelimit

import (
	"sync"
	"testing"
	"time"
)

func newTestLimiter(max int, window time.Duration) (*Limiter, *time.Time) {
	l := New(max, window)
	current := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return current }
	return l, &current
}

func TestLimiter_WindowCap(t *testing.T) {
	l, _ := newTestLimiter(5, time.Hour)

	for i := 0; i < 5; i++ {
		res := l.Check("1.2.3.4")
		if !res.Allowed {
			t.Fatalf("request %d should be allowed", i+1)
		}
		if res.Remaining != 5-(i+1) {
			t.Errorf("request %d: expected remaining %d, got %d", i+1, 5-(i+1), res.Remaining)
		}
	}

	res := l.Check("1.2.3.4")
	if res.Allowed {
		t.Error("6th request should be denied")
	}
	if res.Remaining != 0 {
		t.Errorf("expected remaining 0, got %d", res.Remaining)
	}

	// Denial must not consume quota: still denied, still remaining 0.
	res = l.Check("1.2.3.4")
	if res.Allowed || res.Remaining != 0 {
		t.Errorf("repeat denial changed state: %+v", res)
	}
}

func TestLimiter_ResetAt(t *testing.T) {
	l, current := newTestLimiter(2, time.Hour)

	start := *current
	first := l.Check("client")
	if want := start.Add(time.Hour); !first.ResetAt.Equal(want) {
		t.Errorf("expected resetAt %v, got %v", want, first.ResetAt)
	}

	// Later requests in the same window keep the original reset time.
	*current = start.Add(10 * time.Minute)
	second := l.Check("client")
	if want := start.Add(time.Hour); !second.ResetAt.Equal(want) {
		t.Errorf("expected resetAt %v, got %v", want, second.ResetAt)
	}
}

func TestLimiter_WindowReset(t *testing.T) {
	l, current := newTestLimiter(2, time.Hour)

	l.Check("client")
	l.Check("client")
	if res := l.Check("client"); res.Allowed {
		t.Fatal("3rd request in window should be denied")
	}

	// Strictly after windowStart+window the counter starts fresh.
	*current = current.Add(time.Hour + time.Second)
	res := l.Check("client")
	if !res.Allowed {
		t.Fatal("request after window elapsed should be allowed")
	}
	if res.Remaining != 1 {
		t.Errorf("fresh window should have remaining 1, got %d", res.Remaining)
	}
}

func TestLimiter_IndependentClients(t *testing.T) {
	l, _ := newTestLimiter(1, time.Hour)

	if res := l.Check("a"); !res.Allowed {
		t.Error("first request from a should be allowed")
	}
	if res := l.Check("b"); !res.Allowed {
		t.Error("first request from b should be allowed")
	}
	if res := l.Check("a"); res.Allowed {
		t.Error("second request from a should be denied")
	}
}

func TestLimiter_Sweep(t *testing.T) {
	l, current := newTestLimiter(10, time.Hour)

	l.Check("old")
	*current = current.Add(2 * time.Hour)
	l.Check("fresh")

	if removed := l.Sweep(); removed != 1 {
		t.Errorf("expected 1 entry swept, got %d", removed)
	}

	l.mu.Lock()
	_, oldExists := l.entries["old"]
	_, freshExists := l.entries["fresh"]
	l.mu.Unlock()

	if oldExists {
		t.Error("expired entry should have been removed")
	}
	if !freshExists {
		t.Error("active entry should survive the sweep")
	}
}

func TestLimiter_ConcurrentSameClient(t *testing.T) {
	l := New(50, time.Hour)

	var wg sync.WaitGroup
	allowed := make(chan bool, 200)
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			allowed <- l.Check("shared").Allowed
		}()
	}
	wg.Wait()
	close(allowed)

	count := 0
	for a := range allowed {
		if a {
			count++
		}
	}
	if count != 50 {
		t.Errorf("expected exactly 50 allowed under concurrency, got %d", count)
	}
}
