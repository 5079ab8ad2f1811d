package procs

import "errors"

// Common errors returned by the tracker.
var (
	// ErrNoNewProcess is returned when a launch produced no new client process.
	ErrNoNewProcess = errors.New("no new client process after launch")

	// ErrAttributionAmbiguous is returned when every new process is already
	// attributed to another account.
	ErrAttributionAmbiguous = errors.New("new processes already attributed")

	// ErrNotTracked is returned when an account has no attributed process.
	ErrNotTracked = errors.New("account has no tracked process")

	// ErrNoIdentity is returned when no fresh log identifies a process.
	ErrNoIdentity = errors.New("no identity found for process")
)
