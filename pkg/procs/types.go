// Package procs tracks which running game client belongs to which account.
//
// The game client gives no direct account handle, so ownership is inferred
// two ways: by diffing the process table around a launch this tool performed,
// and by reading the freshly written client log of an already-running process
// to recover the user id inside it. Either way the result is an attribution
// table mapping each account to at most one PID, with every PID attributed to
// at most one account.
package procs

import (
	"context"
	"time"
)

// Lister enumerates and controls game client processes.
type Lister interface {
	// PIDs returns the set of running game client process ids.
	PIDs() (map[int]struct{}, error)

	// Alive reports whether a pid is still a running game client.
	Alive(pid int) bool

	// Kill force-terminates a process.
	Kill(pid int) error

	// CreateTime returns when a process started, in UTC.
	CreateTime(pid int) (time.Time, error)
}

// LogReader recovers the user id a client process logged in as.
type LogReader interface {
	// Identity returns the user id found in the log written by the process
	// that started at createTime. Each log file is consumed at most once
	// across the reader's lifetime, so two processes can never claim the
	// same log. Returns ErrNoIdentity when no fresh unconsumed log matches.
	Identity(pid int, createTime time.Time) (int64, error)
}

// LaunchFunc performs one game launch. The tracker serializes calls so
// process-table diffs cannot interleave.
type LaunchFunc func(ctx context.Context) error

// Config contains tracker configuration.
type Config struct {
	// SettleDelay is how long to wait after a launch before diffing the
	// process table. Default: 5s.
	SettleDelay time.Duration
}
