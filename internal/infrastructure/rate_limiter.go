package infrastructure

import (
	"sync"
	"time"
)

// SenderRateLimiter implements sliding-window rate limiting per sender
// number: at most maxEvents webhook deliveries per window.
type SenderRateLimiter struct {
	mu          sync.Mutex
	events      map[string][]time.Time
	maxEvents   int
	window      time.Duration
	cleanupTick time.Duration
}

func NewSenderRateLimiter(maxEvents int, window time.Duration) *SenderRateLimiter {
	rl := &SenderRateLimiter{
		events:      make(map[string][]time.Time),
		maxEvents:   maxEvents,
		window:      window,
		cleanupTick: 5 * time.Minute,
	}

	go rl.cleanup()

	return rl
}

// Allow records one event for key and reports whether it fits the window.
func (rl *SenderRateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	q := rl.events[key]

	// drop events that slid out of the window
	i := 0
	for i < len(q) && now.Sub(q[i]) > rl.window {
		i++
	}
	q = q[i:]

	if len(q) >= rl.maxEvents {
		rl.events[key] = q
		return false
	}

	rl.events[key] = append(q, now)
	return true
}

// cleanup removes idle senders periodically so the map does not grow forever.
func (rl *SenderRateLimiter) cleanup() {
	ticker := time.NewTicker(rl.cleanupTick)
	for range ticker.C {
		rl.mu.Lock()
		now := time.Now()
		for key, q := range rl.events {
			if len(q) == 0 || now.Sub(q[len(q)-1]) > 10*time.Minute {
				delete(rl.events, key)
			}
		}
		rl.mu.Unlock()
	}
}
