// Package rejoin keeps accounts inside their configured game.
//
// Each account gets its own monitor goroutine: poll presence, debounce a
// single bad reading, and when a disconnect is confirmed kill the old client
// and relaunch into the same server. A manager owns the monitors and handles
// bulk start/stop.
package rejoin

import (
	"context"
	"time"

	"github.com/zuxsoft/RobAccounts/pkg/roblox"
)

// State is a monitor's lifecycle state.
type State int

// Monitor states.
const (
	// StateStarting is the initial jitter delay before the first check.
	StateStarting State = iota

	// StateWaitingForProcess is the initial launch and settle phase.
	StateWaitingForProcess

	// StateMonitoring is the steady polling loop.
	StateMonitoring

	// StateReconnecting is an in-progress kill and relaunch.
	StateReconnecting

	// StateStopped is a clean stop requested by the user.
	StateStopped

	// StateFailed is terminal: the retry ceiling was reached.
	StateFailed
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateStarting:
		return "starting"
	case StateWaitingForProcess:
		return "waiting_for_process"
	case StateMonitoring:
		return "monitoring"
	case StateReconnecting:
		return "reconnecting"
	case StateStopped:
		return "stopped"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Oracle is the presence source a monitor polls.
type Oracle interface {
	// Presence returns a presence reading, or an error when the reading
	// could not be taken. An error never means "offline".
	Presence(ctx context.Context, userID int64, token string) (*roblox.Presence, error)

	// ResolveUserID maps a username to its numeric user id.
	ResolveUserID(ctx context.Context, username string) (int64, error)
}

// Relauncher launches game clients and tracks which process belongs to
// which account.
type Relauncher interface {
	// Launch starts a client for the request and attributes the new process
	// to the account.
	Launch(ctx context.Context, account string, req roblox.LaunchRequest) error

	// Kill terminates the account's attributed process and releases the
	// attribution. Missing attribution is not an error.
	Kill(account string) error

	// Alive reports whether the account's attributed process is running.
	Alive(account string) bool

	// PreMatch attributes already-running processes to accounts by log
	// identity, returning the matches made.
	PreMatch(ctx context.Context, accounts map[string]int64) map[string]int
}

// Config is one account's rejoin configuration.
type Config struct {
	// PlaceID is the game to keep the account in. Required.
	PlaceID int64 `json:"place_id"`

	// PrivateServer is the private-server link code, digits only.
	PrivateServer string `json:"private_server,omitempty"`

	// JobID pins relaunches to a specific server. When empty, the last
	// observed server from presence is used instead.
	JobID string `json:"job_id,omitempty"`

	// PollInterval between presence checks. Default: 10s.
	PollInterval time.Duration `json:"poll_interval,omitempty"`

	// MaxRetries is the relaunch ceiling before the monitor fails.
	// Default: 5.
	MaxRetries int `json:"max_retries,omitempty"`

	// VerifyPlace requires the account to be in PlaceID specifically;
	// when false any game counts as connected.
	VerifyPlace bool `json:"verify_place"`
}

// Options tune monitor timing beyond the per-account Config.
type Options struct {
	// SettleDelay after a successful launch before polling resumes.
	// Default: 10s.
	SettleDelay time.Duration

	// JitterMin/JitterMax bound the random start delay that staggers
	// monitors sharing the rate limiter. Defaults: 6s and 9s.
	JitterMin time.Duration
	JitterMax time.Duration
}

// Status is a snapshot of one monitor for display.
type Status struct {
	Account     string
	State       State
	PlaceID     int64
	RetryCount  int
	LastJobID   string
	LastChecked time.Time
}
