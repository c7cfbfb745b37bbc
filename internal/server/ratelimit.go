package server

import (
	"fmt"
	"sync"
	"time"
)

// RateLimiter allows each client a fixed number of requests per sliding
// window.
type RateLimiter struct {
	mu     sync.Mutex
	limit  int
	window time.Duration
	now    func() time.Time

	// hits holds request times inside the current window, oldest first.
	hits map[string][]time.Time
}

// NewRateLimiter allows limit requests per window for every client.
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		limit:  limit,
		window: window,
		now:    time.Now,
		hits:   make(map[string][]time.Time),
	}
}

// Allow records a request from client, or returns a *RateLimitError when the
// client is over its limit.
func (rl *RateLimiter) Allow(client string) error {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	recent := rl.prune(client, now)
	if rl.limit > 0 && len(recent) >= rl.limit {
		return &RateLimitError{
			Limit:      rl.limit,
			Window:     rl.window,
			RetryAfter: recent[0].Add(rl.window).Sub(now),
		}
	}
	rl.hits[client] = append(recent, now)
	return nil
}

// Used returns how many requests client made inside the current window.
func (rl *RateLimiter) Used(client string) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.prune(client, rl.now()))
}

// prune drops hits that left the window. Callers hold mu.
func (rl *RateLimiter) prune(client string, now time.Time) []time.Time {
	hits := rl.hits[client]
	cutoff := now.Add(-rl.window)
	i := 0
	for i < len(hits) && !hits[i].After(cutoff) {
		i++
	}
	hits = hits[i:]
	if len(hits) == 0 {
		delete(rl.hits, client)
		return nil
	}
	rl.hits[client] = hits
	return hits
}

// RateLimitError represents a rate limit violation.
type RateLimitError struct {
	Limit      int
	Window     time.Duration
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limit exceeded (limit: %d per %v, retry after: %v)", e.Limit, e.Window, e.RetryAfter)
}
