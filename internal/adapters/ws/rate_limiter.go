package ws

import (
	"sync"
	"time"

	"github.com/peerline/peerchat/internal/domain"
)

// rateLimiter caps chat_message events per connection over a sliding
// window.
type rateLimiter struct {
	mu       sync.Mutex
	history  map[domain.ConnID][]time.Time
	limit    int
	interval time.Duration
}

func newRateLimiter(limit int, interval time.Duration) *rateLimiter {
	return &rateLimiter{
		history:  make(map[domain.ConnID][]time.Time),
		limit:    limit,
		interval: interval,
	}
}

func (rl *rateLimiter) Allow(conn domain.ConnID) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	windowStart := now.Add(-rl.interval)

	attempts := rl.history[conn]
	fresh := make([]time.Time, 0, len(attempts))
	for _, t := range attempts {
		if t.After(windowStart) {
			fresh = append(fresh, t)
		}
	}

	if len(fresh) >= rl.limit {
		rl.history[conn] = fresh
		return false
	}

	fresh = append(fresh, now)
	rl.history[conn] = fresh
	return true
}

func (rl *rateLimiter) Forget(conn domain.ConnID) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	delete(rl.history, conn)
}
