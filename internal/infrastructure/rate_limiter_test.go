package infrastructure

import (
	"testing"
	"time"
)

func TestRateLimiterAllowsUpToMax(t *testing.T) {
	rl := NewSenderRateLimiter(3, time.Minute)

	for i := 0; i < 3; i++ {
		if !rl.Allow("551199") {
			t.Fatalf("event %d should be allowed", i)
		}
	}
	if rl.Allow("551199") {
		t.Fatal("fourth event should be limited")
	}
}

func TestRateLimiterIsPerKey(t *testing.T) {
	rl := NewSenderRateLimiter(1, time.Minute)

	if !rl.Allow("a") {
		t.Fatal("first key should be allowed")
	}
	if !rl.Allow("b") {
		t.Fatal("other key must have its own budget")
	}
	if rl.Allow("a") {
		t.Fatal("first key should now be limited")
	}
}

func TestRateLimiterWindowSlides(t *testing.T) {
	rl := NewSenderRateLimiter(1, 30*time.Millisecond)

	if !rl.Allow("k") {
		t.Fatal("first event should be allowed")
	}
	if rl.Allow("k") {
		t.Fatal("second immediate event should be limited")
	}

	time.Sleep(50 * time.Millisecond)
	if !rl.Allow("k") {
		t.Fatal("event after the window should be allowed again")
	}
}
