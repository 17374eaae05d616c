package signal

import (
	"sync"
	"time"

	"github.com/dkeye/devcircle/internal/core"
)

// RateLimiter is a sliding-window limit per session. A non-positive limit disables it.
type RateLimiter struct {
	mu       sync.Mutex
	history  map[core.SessionID][]time.Time
	limit    int
	interval time.Duration
	now      func() time.Time
}

func NewRateLimiter(limit int, interval time.Duration) *RateLimiter {
	return &RateLimiter{
		history:  make(map[core.SessionID][]time.Time),
		limit:    limit,
		interval: interval,
		now:      time.Now,
	}
}

func (rl *RateLimiter) Allow(sid core.SessionID) bool {
	ok, _ := rl.Reserve(sid)
	return ok
}

// Reserve records an event for sid if the window has room. Otherwise it reports
// how long until the oldest event in the window expires.
func (rl *RateLimiter) Reserve(sid core.SessionID) (bool, time.Duration) {
	if rl.limit <= 0 {
		return true, 0
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
		return false, fresh[0].Add(rl.interval).Sub(now)
	}

	rl.history[sid] = append(fresh, now)
	return true, 0
}

// Forget drops the history of a closed session.
func (rl *RateLimiter) Forget(sid core.SessionID) {
	rl.mu.Lock()
	delete(rl.history, sid)
	rl.mu.Unlock()
}
