// Package ratelimit bounds the rate of record-creation operations with a
// sliding window: at most Limit creations within any Window-long span.
package ratelimit

import (
	"fmt"
	"sync"
	"time"
)

// Error reports a denied acquisition with the wait until the oldest counted
// timestamp exits the window.
type Error struct {
	Limit      int
	Window     time.Duration
	RetryAfter time.Duration
}

func (e *Error) Error() string {
	return fmt.Sprintf("rate limit reached: %d creations in the last %s; retry in %s",
		e.Limit, e.Window, e.RetryAfter.Round(time.Second))
}

// Limiter is a sliding-window limiter. Timestamps older than the window are
// evicted lazily on each acquisition attempt; the slice never holds more
// than Limit entries.
type Limiter struct {
	limit  int
	window time.Duration
	now    func() time.Time

	mu     sync.Mutex
	stamps []time.Time
}

// New creates a limiter allowing limit acquisitions per window.
func New(limit int, window time.Duration) *Limiter {
	return &Limiter{limit: limit, window: window, now: time.Now}
}

// TryAcquire records an acquisition if fewer than the ceiling remain in the
// current window. Denial is a value, not an error; retryAfter is zero on
// success.
func (l *Limiter) TryAcquire() (ok bool, retryAfter time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	cutoff := now.Add(-l.window)

	kept := l.stamps[:0]
	for _, ts := range l.stamps {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	l.stamps = kept

	if len(l.stamps) >= l.limit {
		return false, l.stamps[0].Add(l.window).Sub(now)
	}

	l.stamps = append(l.stamps, now)
	return true, 0
}

// Err builds the typed error for a denied acquisition.
func (l *Limiter) Err(retryAfter time.Duration) *Error {
	return &Error{Limit: l.limit, Window: l.window, RetryAfter: retryAfter}
}
