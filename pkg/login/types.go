// Package login acquires account credentials.
//
// The actual browser automation lives outside the core; this package defines
// the Capturer contract it must satisfy and a bounded pool that runs capture
// sessions concurrently, saving successful logins into the account store.
package login

import (
	"context"
	"time"
)

// Credentials is what a completed capture session yields.
type Credentials struct {
	Username     string
	SessionToken string
	UserID       int64
	Password     string
}

// Capturer runs one interactive login and returns the captured credentials.
// Capture must honor ctx cancellation; a cancelled session returns ctx.Err().
type Capturer interface {
	Capture(ctx context.Context) (*Credentials, error)
}

// Result is the outcome of one capture session.
type Result struct {
	// SessionID identifies the capture session.
	SessionID string

	// Credentials is set on success.
	Credentials *Credentials

	// Err is set on failure, including timeout and cancellation.
	Err error
}

// maxSessionCap bounds concurrent capture sessions regardless of config.
const maxSessionCap = 10

// Config holds pool configuration.
type Config struct {
	// MaxSessions is the concurrent session ceiling. Default: 10, which is
	// also the hard cap.
	MaxSessions int

	// SessionTimeout bounds one capture session. Default: 300s.
	SessionTimeout time.Duration
}
