package router

import (
	"sync"
	"time"
)

// rateLimiter is a sliding one-minute window of request timestamps.
type rateLimiter struct {
	mu     sync.Mutex
	limit  int
	window time.Duration
	stamps []time.Time
}

func newRateLimiter(limitPerMinute int) *rateLimiter {
	return &rateLimiter{limit: limitPerMinute, window: time.Minute}
}

// allow prunes timestamps that fell out of the window, then admits and
// records the request only while the window holds fewer than the limit.
func (l *rateLimiter) allow(now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.prune(now)
	if len(l.stamps) >= l.limit {
		return false
	}
	l.stamps = append(l.stamps, now)
	return true
}

// remaining reports how many more requests the window can admit.
func (l *rateLimiter) remaining(now time.Time) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.prune(now)
	if left := l.limit - len(l.stamps); left > 0 {
		return left
	}
	return 0
}

// prune drops stamps at or before now minus the window. Callers hold mu.
func (l *rateLimiter) prune(now time.Time) {
	cutoff := now.Add(-l.window)
	kept := l.stamps[:0]
	for _, t := range l.stamps {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	l.stamps = kept
}
