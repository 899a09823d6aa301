package sim

import (
	"sync"
	"time"
)

// RateLimiter tracks per-user message rates over a one-minute window.
// Exceeding the limit only triggers an advisory rate_limit notice; it is
// not a hard block on the session.
type RateLimiter struct {
	mu      sync.Mutex
	limit   int
	clients map[int64]*clientWindow
}

type clientWindow struct {
	count       int
	windowStart time.Time
}

func NewRateLimiter(perMinute int) *RateLimiter {
	if perMinute <= 0 {
		perMinute = 30
	}
	return &RateLimiter{
		limit:   perMinute,
		clients: make(map[int64]*clientWindow),
	}
}

// Allow reports whether the user is inside their per-minute budget.
func (rl *RateLimiter) Allow(userID int64) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()

	window, exists := rl.clients[userID]
	if !exists {
		rl.clients[userID] = &clientWindow{count: 1, windowStart: now}
		return true
	}

	if now.Sub(window.windowStart) >= time.Minute {
		window.count = 1
		window.windowStart = now
		return true
	}

	if window.count >= rl.limit {
		return false
	}

	window.count++
	return true
}

// Cleanup drops stale per-user state. Call periodically.
func (rl *RateLimiter) Cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	for userID, window := range rl.clients {
		if now.Sub(window.windowStart) > 5*time.Minute {
			delete(rl.clients, userID)
		}
	}
}
