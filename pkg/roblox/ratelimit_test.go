package roblox

import (
	"testing"
	"time"

	"github.com/zuxsoft/RobAccounts/pkg/logger"
)

// fakeClock drives the limiter without real sleeping.
type fakeClock struct {
	now   time.Time
	slept []time.Duration
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Sleep(d time.Duration) {
	c.slept = append(c.slept, d)
	c.now = c.now.Add(d)
}

func newTestLimiter(interval time.Duration) (*RateLimiter, *fakeClock) {
	clock := &fakeClock{now: time.Unix(1000, 0)}
	limiter := NewRateLimiter(interval, logger.Noop())
	limiter.now = clock.Now
	limiter.sleep = clock.Sleep
	return limiter, clock
}

func TestRateLimiterFirstCallNeverWaits(t *testing.T) {
	limiter, clock := newTestLimiter(6 * time.Second)

	limiter.Wait()

	if len(clock.slept) != 0 {
		t.Errorf("first Wait() slept %v, want no sleep", clock.slept)
	}
}

func TestRateLimiterEnforcesInterval(t *testing.T) {
	limiter, clock := newTestLimiter(6 * time.Second)

	limiter.Wait()
	clock.now = clock.now.Add(2 * time.Second)
	limiter.Wait()

	if len(clock.slept) != 1 {
		t.Fatalf("slept %d times, want 1", len(clock.slept))
	}
	if clock.slept[0] != 4*time.Second {
		t.Errorf("slept %v, want 4s to fill the 6s interval", clock.slept[0])
	}
}

func TestRateLimiterNoWaitAfterInterval(t *testing.T) {
	limiter, clock := newTestLimiter(6 * time.Second)

	limiter.Wait()
	clock.now = clock.now.Add(10 * time.Second)
	limiter.Wait()

	if len(clock.slept) != 0 {
		t.Errorf("slept %v, want no sleep when interval already elapsed", clock.slept)
	}
}

func TestRateLimiterDefaultInterval(t *testing.T) {
	limiter := NewRateLimiter(0, logger.Noop())
	if limiter.interval != 6*time.Second {
		t.Errorf("interval = %v, want 6s default", limiter.interval)
	}
}
