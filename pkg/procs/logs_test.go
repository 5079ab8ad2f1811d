package procs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/zuxsoft/RobAccounts/pkg/logger"
)

func writeLog(t *testing.T, dir string, stamp time.Time, content string) string {
	t.Helper()

	name := fmt.Sprintf("0.623.0_%s_Player_abcdef_last.log", stamp.UTC().Format("20060102T150405Z"))
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestIdentityFromFreshLog(t *testing.T) {
	dir := t.TempDir()
	created := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	writeLog(t, dir, created.Add(3*time.Second), "startup flags\nauth userid: 445566, displayname: X\n")

	r := NewLogReader(dir, logger.Noop())

	id, err := r.Identity(1234, created)
	if err != nil {
		t.Fatalf("Identity() error = %v", err)
	}
	if id != 445566 {
		t.Errorf("Identity() = %d", id)
	}
}

func TestIdentityIgnoresStaleLogs(t *testing.T) {
	dir := t.TempDir()
	created := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)

	// One log predates the process, one is past the window.
	writeLog(t, dir, created.Add(-5*time.Second), "userid: 111,\n")
	writeLog(t, dir, created.Add(25*time.Second), "userid: 222,\n")

	r := NewLogReader(dir, logger.Noop())

	if _, err := r.Identity(1234, created); !errors.Is(err, ErrNoIdentity) {
		t.Errorf("Identity() error = %v, want ErrNoIdentity", err)
	}
}

func TestIdentityPrefersClosestLog(t *testing.T) {
	dir := t.TempDir()
	created := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)

	writeLog(t, dir, created.Add(8*time.Second), "userid: 888,\n")
	writeLog(t, dir, created.Add(2*time.Second), "userid: 222,\n")

	r := NewLogReader(dir, logger.Noop())

	id, err := r.Identity(1234, created)
	if err != nil {
		t.Fatalf("Identity() error = %v", err)
	}
	if id != 222 {
		t.Errorf("Identity() = %d, want the log closest after creation", id)
	}
}

func TestIdentityConsumesLogs(t *testing.T) {
	dir := t.TempDir()
	created := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	writeLog(t, dir, created.Add(2*time.Second), "userid: 333,\n")

	r := NewLogReader(dir, logger.Noop())

	if _, err := r.Identity(1, created); err != nil {
		t.Fatalf("first Identity() error = %v", err)
	}

	// The same log must never identify a second process.
	if _, err := r.Identity(2, created); !errors.Is(err, ErrNoIdentity) {
		t.Errorf("second Identity() error = %v, want ErrNoIdentity", err)
	}
}

func TestIdentitySkipsLogsWithoutMarker(t *testing.T) {
	dir := t.TempDir()
	created := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)

	writeLog(t, dir, created.Add(1*time.Second), "no marker here\n")
	writeLog(t, dir, created.Add(4*time.Second), "userid: 777,\n")

	r := NewLogReader(dir, logger.Noop())

	id, err := r.Identity(1234, created)
	if err != nil {
		t.Fatalf("Identity() error = %v", err)
	}
	if id != 777 {
		t.Errorf("Identity() = %d", id)
	}

	// The marker-less log was not consumed and would still be skipped, but
	// the matched one is gone.
	if _, err := r.Identity(5678, created); !errors.Is(err, ErrNoIdentity) {
		t.Errorf("Identity() error = %v, want ErrNoIdentity", err)
	}
}

func TestIdentityIgnoresNonLastLogs(t *testing.T) {
	dir := t.TempDir()
	created := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)

	stamp := created.Add(2 * time.Second).UTC().Format("20060102T150405Z")
	path := filepath.Join(dir, fmt.Sprintf("0.623.0_%s_Player_abcdef.log", stamp))
	if err := os.WriteFile(path, []byte("userid: 999,\n"), 0600); err != nil {
		t.Fatal(err)
	}

	r := NewLogReader(dir, logger.Noop())

	if _, err := r.Identity(1234, created); !errors.Is(err, ErrNoIdentity) {
		t.Errorf("Identity() error = %v, want ErrNoIdentity", err)
	}
}
