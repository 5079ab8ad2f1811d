package rejoin

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/zuxsoft/RobAccounts/pkg/logger"
	"github.com/zuxsoft/RobAccounts/pkg/roblox"
)

// debounceThreshold is how many consecutive negative readings confirm a
// disconnect. A single bad reading is rechecked on the next poll instead of
// triggering a relaunch.
const debounceThreshold = 2

// monitor is one account's rejoin worker.
type monitor struct {
	account string
	token   string
	config  Config
	opts    Options

	oracle     Oracle
	relauncher Relauncher
	logger     logger.Logger

	stopChan chan struct{}
	done     chan struct{}

	mu          sync.RWMutex
	state       State
	retryCount  int
	lastJobID   string
	lastChecked time.Time
}

func newMonitor(account, token string, cfg Config, opts Options, oracle Oracle, rel Relauncher, log logger.Logger) *monitor {
	if cfg.PollInterval == 0 {
		cfg.PollInterval = 10 * time.Second
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 5
	}
	if opts.SettleDelay == 0 {
		opts.SettleDelay = 10 * time.Second
	}
	if opts.JitterMin == 0 {
		opts.JitterMin = 6 * time.Second
	}
	if opts.JitterMax <= opts.JitterMin {
		opts.JitterMax = opts.JitterMin + 3*time.Second
	}

	return &monitor{
		account:    account,
		token:      token,
		config:     cfg,
		opts:       opts,
		oracle:     oracle,
		relauncher: rel,
		logger:     log.With("account", account),
		stopChan:   make(chan struct{}),
		done:       make(chan struct{}),
	}
}

// status snapshots the monitor.
func (m *monitor) status() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return Status{
		Account:     m.account,
		State:       m.state,
		PlaceID:     m.config.PlaceID,
		RetryCount:  m.retryCount,
		LastJobID:   m.lastJobID,
		LastChecked: m.lastChecked,
	}
}

func (m *monitor) setState(s State) {
	m.mu.Lock()
	prev := m.state
	m.state = s
	m.mu.Unlock()

	if prev != s {
		m.logger.Info("monitor state changed", "from", prev.String(), "to", s.String())
	}
}

// stop signals the worker. The worker observes it within one wait.
func (m *monitor) stop() {
	select {
	case <-m.stopChan:
	default:
		close(m.stopChan)
	}
}

// wait sleeps d, returning false if a stop arrived first.
func (m *monitor) wait(d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-m.stopChan:
		return false
	case <-timer.C:
		return true
	}
}

// run is the worker loop. It owns the monitor's state transitions and exits
// only into Stopped or Failed.
func (m *monitor) run(ctx context.Context) {
	defer close(m.done)

	m.setState(StateStarting)

	// Staggered start: monitors share one rate limiter, and a burst of
	// presence calls at t=0 would serialize them anyway.
	jitter := m.opts.JitterMin + time.Duration(rand.Int63n(int64(m.opts.JitterMax-m.opts.JitterMin)))
	if !m.wait(jitter) {
		m.setState(StateStopped)
		return
	}

	userID, err := m.oracle.ResolveUserID(ctx, m.account)
	if err != nil {
		m.logger.Error("cannot resolve user id, monitor failed", "error", err)
		m.setState(StateFailed)
		return
	}

	// Without a pre-matched process the account is launched first.
	if !m.relauncher.Alive(m.account) {
		m.setState(StateWaitingForProcess)
		if !m.launchOnce(ctx, "") {
			return // launchOnce set the terminal state
		}
	} else {
		m.logger.Info("using pre-matched process")
	}

	m.setState(StateMonitoring)

	consecutiveFails := 0
	for {
		select {
		case <-m.stopChan:
			m.setState(StateStopped)
			return
		default:
		}

		connected, jobID := m.check(ctx, userID)

		m.mu.Lock()
		m.lastChecked = time.Now()
		m.mu.Unlock()

		if connected {
			consecutiveFails = 0
			m.mu.Lock()
			m.retryCount = 0
			if jobID != "" {
				m.lastJobID = jobID
			}
			m.mu.Unlock()

			if !m.wait(m.config.PollInterval) {
				m.setState(StateStopped)
				return
			}
			continue
		}

		consecutiveFails++
		if consecutiveFails < debounceThreshold {
			m.logger.Warn("negative reading, verifying on next check",
				"consecutive", consecutiveFails,
				"threshold", debounceThreshold)
			if !m.wait(m.config.PollInterval) {
				m.setState(StateStopped)
				return
			}
			continue
		}

		// Confirmed disconnect.
		consecutiveFails = 0

		m.mu.Lock()
		m.retryCount++
		retries := m.retryCount
		lastJob := m.lastJobID
		m.mu.Unlock()

		m.logger.Info("disconnect confirmed, rejoining",
			"attempt", retries,
			"max_retries", m.config.MaxRetries)

		m.setState(StateReconnecting)

		if err := m.relauncher.Kill(m.account); err != nil {
			m.logger.Warn("failed to kill old process", "error", err)
		}

		if m.launchAttempt(ctx, lastJob) {
			m.mu.Lock()
			m.retryCount = 0
			m.mu.Unlock()

			m.setState(StateMonitoring)
			if !m.wait(m.opts.SettleDelay) {
				m.setState(StateStopped)
				return
			}
			continue
		}

		if retries >= m.config.MaxRetries {
			m.logger.Error("relaunch retries exhausted, monitor failed",
				"retries", retries)
			m.setState(StateFailed)
			return
		}

		m.setState(StateMonitoring)
		if !m.wait(m.config.PollInterval) {
			m.setState(StateStopped)
			return
		}
	}
}

// check takes one presence reading. Returns whether the account counts as
// connected, and the observed server job id when in game. A reading error
// counts as a negative reading, never as a crash.
func (m *monitor) check(ctx context.Context, userID int64) (connected bool, jobID string) {
	presence, err := m.oracle.Presence(ctx, userID, m.token)
	if err != nil {
		m.logger.Warn("presence reading failed", "error", err)
		return false, ""
	}

	if !presence.InGame() {
		return false, ""
	}

	if m.config.VerifyPlace && presence.PlaceID != m.config.PlaceID {
		m.logger.Warn("in wrong place",
			"place_id", presence.PlaceID,
			"expected", m.config.PlaceID)
		return false, ""
	}

	return true, presence.JobID
}

// launchOnce performs the initial launch, retrying up to the ceiling. On
// exhaustion it marks the monitor Failed and returns false; a stop during
// the attempts marks Stopped.
func (m *monitor) launchOnce(ctx context.Context, lastJob string) bool {
	for {
		if m.launchAttempt(ctx, lastJob) {
			if !m.wait(m.opts.SettleDelay) {
				m.setState(StateStopped)
				return false
			}
			return true
		}

		m.mu.Lock()
		m.retryCount++
		retries := m.retryCount
		m.mu.Unlock()

		if retries >= m.config.MaxRetries {
			m.logger.Error("initial launch retries exhausted", "retries", retries)
			m.setState(StateFailed)
			return false
		}

		if !m.wait(m.config.PollInterval) {
			m.setState(StateStopped)
			return false
		}
	}
}

// launchAttempt performs one launch. The explicit config job id wins over
// the last observed one.
func (m *monitor) launchAttempt(ctx context.Context, lastJob string) bool {
	jobID := m.config.JobID
	if jobID == "" {
		jobID = lastJob
	}

	err := m.relauncher.Launch(ctx, m.account, roblox.LaunchRequest{
		Username:      m.account,
		SessionToken:  m.token,
		PlaceID:       m.config.PlaceID,
		PrivateServer: m.config.PrivateServer,
		JobID:         jobID,
	})
	if err != nil {
		m.logger.Warn("launch failed", "error", err)
		return false
	}

	return true
}
