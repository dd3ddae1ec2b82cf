package signal

import (
	"sync"
	"time"

	"github.com/dkeye/Lobby/internal/core"
)

// EventRateLimiter caps inbound events per connection over a sliding window.
// A non-positive limit disables it.
type EventRateLimiter struct {
	mu       sync.Mutex
	history  map[core.SessionID][]time.Time
	limit    int
	interval time.Duration
	now      func() time.Time
}

func NewEventRateLimiter(limit int, interval time.Duration) *EventRateLimiter {
	return &EventRateLimiter{
		history:  make(map[core.SessionID][]time.Time),
		limit:    limit,
		interval: interval,
		now:      time.Now,
	}
}

func (rl *EventRateLimiter) Allow(sid core.SessionID) bool {
	if rl.limit <= 0 {
		return true
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	windowStart := now.Add(-rl.interval)

	attempts := rl.history[sid]
	fresh := attempts[:0]
	for _, t := range attempts {
		if t.After(windowStart) {
			fresh = append(fresh, t)
		}
	}

	if len(fresh) >= rl.limit {
		rl.history[sid] = fresh
		return false
	}

	rl.history[sid] = append(fresh, now)
	return true
}

// Forget drops the history of a closed connection.
func (rl *EventRateLimiter) Forget(sid core.SessionID) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	delete(rl.history, sid)
}
