// Package watcher provides change notification for the account store files.
//
// The store is written atomically (temp file plus rename), so edits from
// another process surface as create/rename events on the data directory
// rather than plain writes. The watcher observes the directory, filters to
// the store files, and debounces the event bursts a single save produces.
//
// Example usage:
//
//	w, err := watcher.New(watcher.Config{
//	    Files: []string{"saved_accounts.json"},
//	}, logger.Default())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer w.Close()
//
//	if err := w.Start(ctx, dataDir); err != nil {
//	    log.Fatal(err)
//	}
//
//	for event := range w.Events() {
//	    repo.Reload()
//	    _ = event
//	}
package watcher

import (
	"context"
	"time"
)

// Op describes a file operation type.
type Op uint32

// File operation types.
const (
	OpCreate Op = 1 << iota // File created
	OpWrite                 // File modified
	OpRemove                // File deleted
	OpRename                // File renamed/moved
)

// String returns a human-readable operation name.
func (op Op) String() string {
	switch op {
	case OpCreate:
		return "CREATE"
	case OpWrite:
		return "WRITE"
	case OpRemove:
		return "REMOVE"
	case OpRename:
		return "RENAME"
	default:
		return "UNKNOWN"
	}
}

// Event represents a change to a watched store file.
type Event struct {
	// Path is the absolute path to the file that changed.
	Path string

	// Op is the operation that triggered the event.
	Op Op

	// Timestamp is when the event occurred.
	Timestamp time.Time
}

// Watcher reports external changes to the account store.
type Watcher interface {
	// Start begins watching the data directory.
	//
	// Returns an error if the directory cannot be watched. Event delivery
	// happens on a background goroutine until the context is cancelled or
	// Stop is called.
	Start(ctx context.Context, dataDir string) error

	// Stop gracefully shuts down the watcher.
	Stop() error

	// Events returns the channel for receiving debounced change events.
	Events() <-chan Event

	// Errors returns the channel for receiving non-fatal watcher errors.
	Errors() <-chan error

	// Close closes the watcher and releases resources.
	Close() error
}

// Config contains watcher configuration.
type Config struct {
	// Files are the file names (relative to the data directory) to report
	// events for. Events on other files in the directory are dropped.
	Files []string

	// DebounceInterval is the time to wait before emitting an event.
	// Multiple events for the same file within this interval are coalesced.
	// Default: 250ms.
	DebounceInterval time.Duration

	// FailureThreshold is the number of consecutive backend failures before
	// the watcher gives up and reports ErrTooManyFailures.
	// Default: 5.
	FailureThreshold int
}
