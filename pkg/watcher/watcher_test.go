package watcher

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/zuxsoft/RobAccounts/pkg/logger"
)

func TestNew(t *testing.T) {
	w, err := New(Config{Files: []string{"saved_accounts.json"}}, logger.Noop())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if w == nil {
		t.Fatal("New() returned nil watcher")
	}

	if closeErr := w.Close(); closeErr != nil {
		t.Errorf("Close() error = %v", closeErr)
	}
}

func TestStartInvalidDir(t *testing.T) {
	tmpDir := t.TempDir()
	nonExistent := filepath.Join(tmpDir, "nonexistent")

	w, err := New(Config{Files: []string{"saved_accounts.json"}}, logger.Noop())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer func() {
		if err := w.Close(); err != nil {
			t.Logf("Close() error = %v", err)
		}
	}()

	if startErr := w.Start(context.Background(), nonExistent); !errors.Is(startErr, ErrInvalidDir) {
		t.Errorf("Start() error = %v, want ErrInvalidDir", startErr)
	}
}

func TestWatchedFileEvents(t *testing.T) {
	tmpDir := t.TempDir()

	w, err := New(Config{
		Files:            []string{"saved_accounts.json"},
		DebounceInterval: 50 * time.Millisecond,
	}, logger.Noop())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer func() {
		if err := w.Close(); err != nil {
			t.Logf("Close() error = %v", err)
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := w.Start(ctx, tmpDir); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	// An atomic-style save: temp file plus rename into place.
	tmpName := filepath.Join(tmpDir, ".saved_accounts.json.tmp-1")
	if err := os.WriteFile(tmpName, []byte(`{}`), 0600); err != nil {
		t.Fatal(err)
	}
	if err := os.Rename(tmpName, filepath.Join(tmpDir, "saved_accounts.json")); err != nil {
		t.Fatal(err)
	}

	select {
	case event := <-w.Events():
		if filepath.Base(event.Path) != "saved_accounts.json" {
			t.Errorf("event path = %s", event.Path)
		}
	case <-time.After(2 * time.Second):
		t.Error("timed out waiting for store event")
	}
}

func TestUnrelatedFilesIgnored(t *testing.T) {
	tmpDir := t.TempDir()

	w, err := New(Config{
		Files:            []string{"saved_accounts.json"},
		DebounceInterval: 50 * time.Millisecond,
	}, logger.Noop())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer func() {
		if err := w.Close(); err != nil {
			t.Logf("Close() error = %v", err)
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := w.Start(ctx, tmpDir); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	if err := os.WriteFile(filepath.Join(tmpDir, "other.txt"), []byte("x"), 0600); err != nil {
		t.Fatal(err)
	}

	select {
	case event := <-w.Events():
		t.Errorf("unexpected event for unrelated file: %+v", event)
	case <-time.After(300 * time.Millisecond):
	}
}

func TestDebounceCoalesces(t *testing.T) {
	tmpDir := t.TempDir()
	target := filepath.Join(tmpDir, "saved_accounts.json")

	w, err := New(Config{
		Files:            []string{"saved_accounts.json"},
		DebounceInterval: 200 * time.Millisecond,
	}, logger.Noop())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer func() {
		if err := w.Close(); err != nil {
			t.Logf("Close() error = %v", err)
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := w.Start(ctx, tmpDir); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	// Rapid successive writes within the debounce window.
	for i := 0; i < 5; i++ {
		if err := os.WriteFile(target, []byte(`{}`), 0600); err != nil {
			t.Fatal(err)
		}
		time.Sleep(10 * time.Millisecond)
	}

	received := 0
	deadline := time.After(time.Second)
loop:
	for {
		select {
		case <-w.Events():
			received++
		case <-deadline:
			break loop
		}
	}

	if received != 1 {
		t.Errorf("received %d events, want 1 coalesced event", received)
	}
}

func TestStopStartLifecycle(t *testing.T) {
	tmpDir := t.TempDir()

	w, err := New(Config{Files: []string{"saved_accounts.json"}}, logger.Noop())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer func() {
		if err := w.Close(); err != nil {
			t.Logf("Close() error = %v", err)
		}
	}()

	if err := w.Stop(); !errors.Is(err, ErrNotStarted) {
		t.Errorf("Stop() before start error = %v, want ErrNotStarted", err)
	}

	ctx := context.Background()
	if err := w.Start(ctx, tmpDir); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := w.Start(ctx, tmpDir); !errors.Is(err, ErrAlreadyStarted) {
		t.Errorf("second Start() error = %v, want ErrAlreadyStarted", err)
	}
	if err := w.Stop(); err != nil {
		t.Errorf("Stop() error = %v", err)
	}
}
