package ingest

import (
	"testing"
	"time"
)

func TestRateLimiterSpacesTurns(t *testing.T) {
	limiter := NewRateLimiter(20 * time.Millisecond)

	start := time.Now()
	limiter.WaitTurn()
	limiter.WaitTurn()
	limiter.WaitTurn()
	elapsed := time.Since(start)

	if elapsed < 40*time.Millisecond {
		t.Fatalf("three turns at 20ms should take at least 40ms, took %v", elapsed)
	}
}

func TestRateLimiterDefaultsBadInterval(t *testing.T) {
	limiter := NewRateLimiter(0)
	if limiter.interval != time.Second {
		t.Fatalf("expected the one-second fallback, got %v", limiter.interval)
	}
}
