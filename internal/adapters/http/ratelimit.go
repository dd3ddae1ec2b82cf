package http

import (
	"sync"
	"time"
)

// IPRateLimiter is a fixed-window request counter keyed by client IP.
type IPRateLimiter struct {
	mu      sync.Mutex
	windows map[string]*window
	max     int
	per     time.Duration
	now     func() time.Time

	lastSweep time.Time
}

type window struct {
	start time.Time
	used  int
}

func NewIPRateLimiter(max int, per time.Duration) *IPRateLimiter {
	return &IPRateLimiter{
		windows: make(map[string]*window),
		max:     max,
		per:     per,
		now:     time.Now,
	}
}

// Take spends one request for ip. It reports whether the request may proceed,
// how many remain in the current window and when that window ends.
func (l *IPRateLimiter) Take(ip string) (ok bool, remaining int, reset time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.sweep(now)

	w := l.windows[ip]
	if w == nil || !now.Before(w.start.Add(l.per)) {
		w = &window{start: now}
		l.windows[ip] = w
	}
	reset = w.start.Add(l.per)

	if w.used >= l.max {
		return false, 0, reset
	}
	w.used++
	return true, l.max - w.used, reset
}

func (l *IPRateLimiter) Limit() int { return l.max }

// sweep drops expired windows at most once per window length.
func (l *IPRateLimiter) sweep(now time.Time) {
	if now.Sub(l.lastSweep) < l.per {
		return
	}
	l.lastSweep = now
	for ip, w := range l.windows {
		if !now.Before(w.start.Add(l.per)) {
			delete(l.windows, ip)
		}
	}
}
