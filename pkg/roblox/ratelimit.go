package roblox

import (
	"sync"
	"time"

	"github.com/zuxsoft/RobAccounts/pkg/logger"
)

// RateLimiter enforces a minimum interval between API calls across every
// goroutine sharing it. One limiter is shared by all monitors so the tool's
// total API rate stays bounded no matter how many accounts run.
type RateLimiter struct {
	mu       sync.Mutex
	interval time.Duration
	last     time.Time
	logger   logger.Logger

	// Injectable for tests.
	now   func() time.Time
	sleep func(time.Duration)
}

// NewRateLimiter creates a limiter with the given minimum interval.
func NewRateLimiter(interval time.Duration, log logger.Logger) *RateLimiter {
	if interval <= 0 {
		interval = 6 * time.Second
	}
	return &RateLimiter{
		interval: interval,
		logger:   log,
		now:      time.Now,
		sleep:    time.Sleep,
	}
}

// Wait blocks until the minimum interval since the previous call has
// elapsed, then records this call. The first call never waits.
func (r *RateLimiter) Wait() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.last.IsZero() {
		elapsed := r.now().Sub(r.last)
		if elapsed < r.interval {
			wait := r.interval - elapsed
			r.logger.Debug("rate limiter waiting", "wait", wait)
			r.sleep(wait)
		}
	}

	r.last = r.now()
}
