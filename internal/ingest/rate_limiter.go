package ingest

import (
	"sync"
	"time"
)

// RateLimiter spaces calls at least one interval apart. Each caller
// reserves the next free slot under the lock and sleeps outside it, so
// concurrent goroutines queue fairly instead of racing the clock.
type RateLimiter struct {
	mu       sync.Mutex
	interval time.Duration
	next     time.Time
}

func NewRateLimiter(interval time.Duration) *RateLimiter {
	if interval <= 0 {
		interval = time.Second
	}
	return &RateLimiter{interval: interval}
}

// WaitTurn blocks until the caller's reserved slot arrives.
func (r *RateLimiter) WaitTurn() {
	r.mu.Lock()
	slot := r.next
	if now := time.Now(); slot.Before(now) {
		slot = now
	}
	r.next = slot.Add(r.interval)
	r.mu.Unlock()

	time.Sleep(time.Until(slot))
}
