package procs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/zuxsoft/RobAccounts/pkg/logger"
)

// Tracker owns the account to PID attribution table.
//
// Launches are serialized across all accounts: the snapshot/launch/diff
// sequence is only sound when one launch is in flight at a time.
type Tracker struct {
	lister Lister
	logs   LogReader
	logger logger.Logger
	config Config

	// Injectable for tests.
	sleep func(time.Duration)

	launchMu sync.Mutex

	mu   sync.RWMutex
	pids map[string]int // account -> pid
}

// NewTracker creates a tracker over the given process lister and log reader.
func NewTracker(cfg Config, lister Lister, logs LogReader, log logger.Logger) *Tracker {
	if cfg.SettleDelay == 0 {
		cfg.SettleDelay = 5 * time.Second
	}
	return &Tracker{
		lister: lister,
		logs:   logs,
		logger: log,
		config: cfg,
		sleep:  time.Sleep,
		pids:   make(map[string]int),
	}
}

// LaunchAndAttribute launches via launch and attributes the new process to
// the account.
//
// Under the global launch lock: snapshot the process table, launch, wait for
// the client to appear, diff against the snapshot, drop pids already
// attributed elsewhere, and take the highest remaining pid. The highest pid
// is the most recently spawned on every supported OS, which matters when an
// unrelated client appeared during the settle window.
func (t *Tracker) LaunchAndAttribute(ctx context.Context, account string, launch LaunchFunc) (int, error) {
	t.launchMu.Lock()
	defer t.launchMu.Unlock()

	before, err := t.lister.PIDs()
	if err != nil {
		return 0, fmt.Errorf("failed to snapshot processes: %w", err)
	}

	if err := launch(ctx); err != nil {
		return 0, err
	}

	select {
	case <-ctx.Done():
		return 0, ctx.Err()
	default:
	}
	t.sleep(t.config.SettleDelay)

	after, err := t.lister.PIDs()
	if err != nil {
		return 0, fmt.Errorf("failed to re-enumerate processes: %w", err)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	attributed := make(map[int]bool, len(t.pids))
	for _, pid := range t.pids {
		attributed[pid] = true
	}

	best := 0
	for pid := range after {
		if _, existed := before[pid]; existed {
			continue
		}
		if attributed[pid] {
			continue
		}
		if pid > best {
			best = pid
		}
	}

	if best == 0 {
		anyNew := false
		for pid := range after {
			if _, existed := before[pid]; !existed {
				anyNew = true
				break
			}
		}
		if anyNew {
			return 0, fmt.Errorf("%w: account %s", ErrAttributionAmbiguous, account)
		}
		return 0, fmt.Errorf("%w: account %s", ErrNoNewProcess, account)
	}

	t.pids[account] = best
	t.logger.Info("process attributed", "account", account, "pid", best)

	return best, nil
}

// PreMatch attributes already-running client processes to accounts by log
// identity before any monitoring starts.
//
// accounts maps each account name to its numeric user id. Untracked pids are
// identified through their freshly written logs; a pid whose logged user id
// equals an account's id is attributed to that account. Returns the matches
// made in this call.
func (t *Tracker) PreMatch(ctx context.Context, accounts map[string]int64) map[string]int {
	pids, err := t.lister.PIDs()
	if err != nil {
		t.logger.Warn("failed to enumerate processes for pre-match", "error", err)
		return nil
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	attributed := make(map[int]bool, len(t.pids))
	for _, pid := range t.pids {
		attributed[pid] = true
	}

	// Identify each untracked pid once.
	pidIdentity := make(map[int]int64)
	for pid := range pids {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		if attributed[pid] {
			continue
		}

		createTime, err := t.lister.CreateTime(pid)
		if err != nil {
			t.logger.Debug("no create time for pid", "pid", pid, "error", err)
			continue
		}

		userID, err := t.logs.Identity(pid, createTime)
		if err != nil {
			t.logger.Debug("no identity for pid", "pid", pid, "error", err)
			continue
		}

		pidIdentity[pid] = userID
	}

	matches := make(map[string]int)
	for account, userID := range accounts {
		if _, tracked := t.pids[account]; tracked {
			continue
		}
		for pid, id := range pidIdentity {
			if id == userID {
				t.pids[account] = pid
				matches[account] = pid
				delete(pidIdentity, pid)
				t.logger.Info("pre-matched process",
					"account", account,
					"user_id", userID,
					"pid", pid)
				break
			}
		}
	}

	return matches
}

// PID returns the pid attributed to an account.
func (t *Tracker) PID(account string) (int, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	pid, ok := t.pids[account]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrNotTracked, account)
	}
	return pid, nil
}

// Alive reports whether the account's attributed process is still running.
// False when the account has no attribution.
func (t *Tracker) Alive(account string) bool {
	pid, err := t.PID(account)
	if err != nil {
		return false
	}
	return t.lister.Alive(pid)
}

// Kill terminates the account's attributed process and releases the
// attribution. A missing attribution is not an error.
func (t *Tracker) Kill(account string) error {
	pid, err := t.PID(account)
	if err != nil {
		return nil
	}

	if killErr := t.lister.Kill(pid); killErr != nil {
		t.logger.Warn("failed to kill process", "account", account, "pid", pid, "error", killErr)
	} else {
		t.logger.Info("killed process", "account", account, "pid", pid)
	}

	t.Release(account)
	return nil
}

// Release drops the account's attribution without touching the process.
func (t *Tracker) Release(account string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.pids, account)
}

// Tracked returns a copy of the attribution table.
func (t *Tracker) Tracked() map[string]int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make(map[string]int, len(t.pids))
	for account, pid := range t.pids {
		out[account] = pid
	}
	return out
}
