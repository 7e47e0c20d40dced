package svgmaker

import (
	"context"
	"sync"
	"time"
)

// rateLimitWindow is the rolling lookback over which admissions are counted.
const rateLimitWindow = time.Minute

// RateLimiter admits at most capacity operations per rolling window,
// delaying callers that would exceed it. It never rejects, only waits.
// Each Client owns exactly one instance; it is safe for concurrent use.
type RateLimiter struct {
	mu       sync.Mutex
	capacity int
	window   time.Duration
	admitted []time.Time

	// now is swapped in tests to drive the window without sleeping.
	now func() time.Time
}

// NewRateLimiter creates a rate limiter admitting capacity operations per
// 60-second rolling window. A non-positive capacity admits everything
// without delay.
func NewRateLimiter(capacity int) *RateLimiter {
	return newRateLimiter(capacity, rateLimitWindow)
}

func newRateLimiter(capacity int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		capacity: capacity,
		window:   window,
		now:      time.Now,
	}
}

// Wait blocks until the caller may proceed under the rolling window, or
// until ctx is cancelled. Admission order is FIFO-fair under light
// contention; concurrent waiters may re-check after a wakeup.
func (rl *RateLimiter) Wait(ctx context.Context) error {
	for {
		wait, admitted := rl.tryAdmit()
		if admitted {
			return nil
		}
		if wait <= 0 {
			// Oldest entry aged out between the check and now; re-check.
			continue
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// tryAdmit prunes expired entries and either records an admission or
// returns how long until the oldest entry leaves the window.
func (rl *RateLimiter) tryAdmit() (time.Duration, bool) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if rl.capacity <= 0 {
		return 0, true
	}

	now := rl.now()
	rl.prune(now)

	if len(rl.admitted) < rl.capacity {
		rl.admitted = append(rl.admitted, now)
		return 0, true
	}
	return rl.window - now.Sub(rl.admitted[0]), false
}

// prune drops timestamps older than the window. Callers hold mu.
func (rl *RateLimiter) prune(now time.Time) {
	cutoff := now.Add(-rl.window)
	i := 0
	for i < len(rl.admitted) && !rl.admitted[i].After(cutoff) {
		i++
	}
	if i > 0 {
		rl.admitted = append(rl.admitted[:0], rl.admitted[i:]...)
	}
}

// inWindow returns the number of admissions currently inside the window.
func (rl *RateLimiter) inWindow() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.prune(rl.now())
	return len(rl.admitted)
}
