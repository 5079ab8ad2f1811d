package watcher

import "errors"

// Common errors returned by the watcher.
var (
	// ErrWatcherClosed is returned when attempting to use a closed watcher.
	ErrWatcherClosed = errors.New("watcher is closed")

	// ErrAlreadyStarted is returned when Start is called on a running watcher.
	ErrAlreadyStarted = errors.New("watcher already started")

	// ErrNotStarted is returned when Stop is called on a non-running watcher.
	ErrNotStarted = errors.New("watcher not started")

	// ErrTooManyFailures is returned after repeated backend failures.
	ErrTooManyFailures = errors.New("too many watcher failures")

	// ErrInvalidDir is returned when the data directory cannot be watched.
	ErrInvalidDir = errors.New("invalid data directory")
)
