package rejoin

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/zuxsoft/RobAccounts/pkg/logger"
	"github.com/zuxsoft/RobAccounts/pkg/store"
)

// Manager owns the per-account monitors.
type Manager struct {
	repo       store.Repository
	oracle     Oracle
	relauncher Relauncher
	opts       Options
	logger     logger.Logger

	mu       sync.RWMutex
	monitors map[string]*monitor
	closed   bool
}

// NewManager creates a rejoin manager.
func NewManager(repo store.Repository, oracle Oracle, rel Relauncher, opts Options, log logger.Logger) *Manager {
	return &Manager{
		repo:       repo,
		oracle:     oracle,
		relauncher: rel,
		opts:       opts,
		logger:     log,
		monitors:   make(map[string]*monitor),
	}
}

// Start begins monitoring one account.
func (mgr *Manager) Start(ctx context.Context, account string, cfg Config) error {
	if cfg.PlaceID == 0 {
		return ErrNoPlaceID
	}

	token, err := mgr.repo.SessionToken(account)
	if err != nil {
		return err
	}

	mgr.mu.Lock()
	defer mgr.mu.Unlock()

	if mgr.closed {
		return ErrManagerClosed
	}
	if existing, ok := mgr.monitors[account]; ok {
		// A terminal monitor can be restarted; a live one cannot.
		switch existing.status().State {
		case StateStopped, StateFailed:
			delete(mgr.monitors, account)
		default:
			return fmt.Errorf("%w: %s", ErrAlreadyMonitored, account)
		}
	}

	m := newMonitor(account, token, cfg, mgr.opts, mgr.oracle, mgr.relauncher, mgr.logger)
	mgr.monitors[account] = m

	go m.run(ctx)

	mgr.logger.Info("monitor started",
		"account", account,
		"place_id", cfg.PlaceID,
		"verify_place", cfg.VerifyPlace)

	return nil
}

// StartAll pre-matches running processes to accounts, then starts a monitor
// for every config. Individual start failures are logged and skipped so one
// bad account cannot block the rest.
func (mgr *Manager) StartAll(ctx context.Context, configs map[string]Config) error {
	mgr.mu.RLock()
	closed := mgr.closed
	mgr.mu.RUnlock()
	if closed {
		return ErrManagerClosed
	}

	// Resolve ids up front so already-running clients can be claimed before
	// any monitor decides to launch a fresh one.
	ids := make(map[string]int64, len(configs))
	for account := range configs {
		id, err := mgr.oracle.ResolveUserID(ctx, account)
		if err != nil {
			mgr.logger.Warn("cannot resolve user id for pre-match",
				"account", account, "error", err)
			continue
		}
		ids[account] = id
	}

	matches := mgr.relauncher.PreMatch(ctx, ids)
	mgr.logger.Info("pre-match complete",
		"accounts", len(configs),
		"matched", len(matches))

	for account, cfg := range configs {
		if err := mgr.Start(ctx, account, cfg); err != nil {
			mgr.logger.Error("failed to start monitor",
				"account", account, "error", err)
		}
	}

	return nil
}

// Stop stops one account's monitor and waits for its worker to exit.
func (mgr *Manager) Stop(account string) error {
	mgr.mu.Lock()
	m, ok := mgr.monitors[account]
	if ok {
		delete(mgr.monitors, account)
	}
	mgr.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrNotMonitored, account)
	}

	m.stop()
	<-m.done

	mgr.logger.Info("monitor stopped", "account", account)
	return nil
}

// StopAll signals every monitor and waits up to timeout for them to exit.
// Returns the accounts that did not stop in time.
func (mgr *Manager) StopAll(timeout time.Duration) []string {
	mgr.mu.Lock()
	monitors := mgr.monitors
	mgr.monitors = make(map[string]*monitor)
	mgr.mu.Unlock()

	for _, m := range monitors {
		m.stop()
	}

	deadline := time.After(timeout)
	var stuck []string
	for account, m := range monitors {
		select {
		case <-m.done:
		case <-deadline:
			stuck = append(stuck, account)
		}
	}

	if len(stuck) > 0 {
		mgr.logger.Warn("monitors did not stop in time", "accounts", stuck)
	} else {
		mgr.logger.Info("all monitors stopped", "count", len(monitors))
	}

	sort.Strings(stuck)
	return stuck
}

// Status returns one account's monitor snapshot.
func (mgr *Manager) Status(account string) (Status, error) {
	mgr.mu.RLock()
	defer mgr.mu.RUnlock()

	m, ok := mgr.monitors[account]
	if !ok {
		return Status{}, fmt.Errorf("%w: %s", ErrNotMonitored, account)
	}
	return m.status(), nil
}

// Statuses returns every monitor's snapshot, sorted by account.
func (mgr *Manager) Statuses() []Status {
	mgr.mu.RLock()
	defer mgr.mu.RUnlock()

	out := make([]Status, 0, len(mgr.monitors))
	for _, m := range mgr.monitors {
		out = append(out, m.status())
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Account < out[j].Account
	})
	return out
}

// Close stops everything and marks the manager unusable.
func (mgr *Manager) Close() error {
	mgr.mu.Lock()
	if mgr.closed {
		mgr.mu.Unlock()
		return nil
	}
	mgr.closed = true
	mgr.mu.Unlock()

	mgr.StopAll(5 * time.Second)
	return nil
}
