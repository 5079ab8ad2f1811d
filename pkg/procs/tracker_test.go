package procs

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/zuxsoft/RobAccounts/pkg/logger"
)

// fakeLister is a scriptable process table.
type fakeLister struct {
	mu    sync.Mutex
	pids  map[int]struct{}
	times map[int]time.Time
	dead  map[int]bool
}

func newFakeLister(pids ...int) *fakeLister {
	l := &fakeLister{
		pids:  make(map[int]struct{}),
		times: make(map[int]time.Time),
		dead:  make(map[int]bool),
	}
	for _, pid := range pids {
		l.pids[pid] = struct{}{}
	}
	return l
}

func (l *fakeLister) spawn(pid int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.pids[pid] = struct{}{}
}

func (l *fakeLister) PIDs() (map[int]struct{}, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make(map[int]struct{}, len(l.pids))
	for pid := range l.pids {
		out[pid] = struct{}{}
	}
	return out, nil
}

func (l *fakeLister) Alive(pid int) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.pids[pid]
	return ok && !l.dead[pid]
}

func (l *fakeLister) Kill(pid int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.pids, pid)
	l.dead[pid] = true
	return nil
}

func (l *fakeLister) CreateTime(pid int) (time.Time, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	t, ok := l.times[pid]
	if !ok {
		return time.Time{}, errors.New("unknown pid")
	}
	return t, nil
}

// fakeLogs maps pids to identities directly.
type fakeLogs struct {
	identities map[int]int64
}

func (f *fakeLogs) Identity(pid int, _ time.Time) (int64, error) {
	id, ok := f.identities[pid]
	if !ok {
		return 0, ErrNoIdentity
	}
	return id, nil
}

func newTestTracker(lister *fakeLister, logs LogReader) *Tracker {
	if logs == nil {
		logs = &fakeLogs{}
	}
	tr := NewTracker(Config{SettleDelay: time.Millisecond}, lister, logs, logger.Noop())
	tr.sleep = func(time.Duration) {}
	return tr
}

func TestLaunchAndAttribute(t *testing.T) {
	lister := newFakeLister(100)
	tr := newTestTracker(lister, nil)

	pid, err := tr.LaunchAndAttribute(context.Background(), "alice", func(context.Context) error {
		lister.spawn(200)
		return nil
	})
	if err != nil {
		t.Fatalf("LaunchAndAttribute() error = %v", err)
	}
	if pid != 200 {
		t.Errorf("pid = %d, want 200", pid)
	}

	got, err := tr.PID("alice")
	if err != nil || got != 200 {
		t.Errorf("PID() = %d, %v", got, err)
	}
}

func TestLaunchAndAttributeHighestPIDWins(t *testing.T) {
	lister := newFakeLister()
	tr := newTestTracker(lister, nil)

	// Two new processes appeared during the settle window; the most recent
	// (highest pid) is ours.
	pid, err := tr.LaunchAndAttribute(context.Background(), "alice", func(context.Context) error {
		lister.spawn(300)
		lister.spawn(301)
		return nil
	})
	if err != nil {
		t.Fatalf("LaunchAndAttribute() error = %v", err)
	}
	if pid != 301 {
		t.Errorf("pid = %d, want highest new pid 301", pid)
	}
}

func TestLaunchAndAttributeExcludesAttributed(t *testing.T) {
	lister := newFakeLister()
	tr := newTestTracker(lister, nil)

	if _, err := tr.LaunchAndAttribute(context.Background(), "alice", func(context.Context) error {
		lister.spawn(400)
		return nil
	}); err != nil {
		t.Fatal(err)
	}

	// bob's launch window races with alice's process appearing: 400 is
	// already attributed, so only 401 is eligible.
	tr.Release("bob")
	pid, err := tr.LaunchAndAttribute(context.Background(), "bob", func(context.Context) error {
		lister.spawn(401)
		return nil
	})
	if err != nil {
		t.Fatalf("LaunchAndAttribute() error = %v", err)
	}
	if pid != 401 {
		t.Errorf("pid = %d, want 401", pid)
	}
}

func TestLaunchAndAttributeNoNewProcess(t *testing.T) {
	lister := newFakeLister(100)
	tr := newTestTracker(lister, nil)

	_, err := tr.LaunchAndAttribute(context.Background(), "alice", func(context.Context) error {
		return nil // launch "succeeded" but no process appeared
	})
	if !errors.Is(err, ErrNoNewProcess) {
		t.Errorf("error = %v, want ErrNoNewProcess", err)
	}
	if _, pidErr := tr.PID("alice"); !errors.Is(pidErr, ErrNotTracked) {
		t.Errorf("PID() error = %v, want ErrNotTracked after failed launch", pidErr)
	}
}

func TestLaunchAndAttributeLaunchError(t *testing.T) {
	lister := newFakeLister()
	tr := newTestTracker(lister, nil)

	launchErr := errors.New("ticket expired")
	_, err := tr.LaunchAndAttribute(context.Background(), "alice", func(context.Context) error {
		return launchErr
	})
	if !errors.Is(err, launchErr) {
		t.Errorf("error = %v, want launch error passed through", err)
	}
}

func TestAttributionMutualExclusion(t *testing.T) {
	lister := newFakeLister()
	tr := newTestTracker(lister, nil)

	// Concurrent launches for many accounts: every account must end up with
	// a distinct pid.
	accounts := []string{"a", "b", "c", "d", "e", "f"}
	next := 1000
	var nextMu sync.Mutex

	var wg sync.WaitGroup
	for _, account := range accounts {
		wg.Add(1)
		go func(account string) {
			defer wg.Done()
			_, err := tr.LaunchAndAttribute(context.Background(), account, func(context.Context) error {
				nextMu.Lock()
				next++
				lister.spawn(next)
				nextMu.Unlock()
				return nil
			})
			if err != nil {
				t.Errorf("LaunchAndAttribute(%s) error = %v", account, err)
			}
		}(account)
	}
	wg.Wait()

	seen := make(map[int]string)
	for account, pid := range tr.Tracked() {
		if other, dup := seen[pid]; dup {
			t.Errorf("pid %d attributed to both %s and %s", pid, other, account)
		}
		seen[pid] = account
	}
	if len(seen) != len(accounts) {
		t.Errorf("tracked %d pids, want %d", len(seen), len(accounts))
	}
}

func TestPreMatch(t *testing.T) {
	now := time.Now()
	lister := newFakeLister(500, 501, 502)
	lister.times[500] = now
	lister.times[501] = now
	lister.times[502] = now

	logs := &fakeLogs{identities: map[int]int64{
		500: 111,
		501: 222,
	}}
	tr := newTestTracker(lister, logs)

	matches := tr.PreMatch(context.Background(), map[string]int64{
		"alice":   111,
		"bob":     222,
		"charlie": 333, // no running process
	})

	if matches["alice"] != 500 || matches["bob"] != 501 {
		t.Errorf("matches = %v", matches)
	}
	if _, matched := matches["charlie"]; matched {
		t.Error("charlie matched with no identifiable process")
	}
}

func TestPreMatchSkipsTrackedAccounts(t *testing.T) {
	now := time.Now()
	lister := newFakeLister(600, 601)
	lister.times[600] = now
	lister.times[601] = now

	logs := &fakeLogs{identities: map[int]int64{600: 111, 601: 111}}
	tr := newTestTracker(lister, logs)

	first := tr.PreMatch(context.Background(), map[string]int64{"alice": 111})
	if len(first) != 1 {
		t.Fatalf("first PreMatch = %v", first)
	}

	// alice already tracked: a second pass must not reassign her.
	second := tr.PreMatch(context.Background(), map[string]int64{"alice": 111})
	if len(second) != 0 {
		t.Errorf("second PreMatch = %v, want no new matches", second)
	}
}

func TestKillReleasesAttribution(t *testing.T) {
	lister := newFakeLister()
	tr := newTestTracker(lister, nil)

	if _, err := tr.LaunchAndAttribute(context.Background(), "alice", func(context.Context) error {
		lister.spawn(700)
		return nil
	}); err != nil {
		t.Fatal(err)
	}

	if !tr.Alive("alice") {
		t.Error("Alive() = false for running process")
	}

	if err := tr.Kill("alice"); err != nil {
		t.Fatalf("Kill() error = %v", err)
	}
	if _, err := tr.PID("alice"); !errors.Is(err, ErrNotTracked) {
		t.Errorf("PID() after kill error = %v, want ErrNotTracked", err)
	}
	if tr.Alive("alice") {
		t.Error("Alive() = true after kill")
	}

	// Killing an untracked account is a no-op.
	if err := tr.Kill("bob"); err != nil {
		t.Errorf("Kill() untracked error = %v", err)
	}
}
