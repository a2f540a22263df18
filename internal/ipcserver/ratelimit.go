package ipcserver

import (
	"sync"
	"time"
)

// connectRateLimiter caps how many connections a single UID may open per
// sliding window, protecting the accept loop from a misbehaving or
// reconnect-looping peer. In-memory only: the IPC endpoint is local, so
// there is nothing to persist across restarts.
type connectRateLimiter struct {
	maxAttempts int
	window      time.Duration

	mu          sync.Mutex
	attempts    map[uint32][]time.Time
	lastCleanup time.Time
}

const rateLimitCleanupInterval = 5 * time.Minute

func newConnectRateLimiter(maxAttempts int, window time.Duration) *connectRateLimiter {
	return &connectRateLimiter{
		maxAttempts: maxAttempts,
		window:      window,
		attempts:    make(map[uint32][]time.Time),
		lastCleanup: time.Now(),
	}
}

// allow reports whether uid may connect now, and records the attempt if so.
func (r *connectRateLimiter) allow(uid uint32) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	cutoff := now.Add(-r.window)

	if now.Sub(r.lastCleanup) > rateLimitCleanupInterval {
		for u, times := range r.attempts {
			stale := true
			for _, t := range times {
				if t.After(cutoff) {
					stale = false
					break
				}
			}
			if stale {
				delete(r.attempts, u)
			}
		}
		r.lastCleanup = now
	}

	existing := r.attempts[uid]
	pruned := make([]time.Time, 0, len(existing))
	for _, t := range existing {
		if t.After(cutoff) {
			pruned = append(pruned, t)
		}
	}

	if len(pruned) >= r.maxAttempts {
		r.attempts[uid] = pruned
		return false
	}

	r.attempts[uid] = append(pruned, now)
	return true
}
