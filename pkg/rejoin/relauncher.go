package rejoin

import (
	"context"

	"github.com/zuxsoft/RobAccounts/pkg/procs"
	"github.com/zuxsoft/RobAccounts/pkg/roblox"
)

// procRelauncher implements Relauncher over the API client and the process
// tracker: launches go through the tracker so the new process is attributed
// under the global launch lock.
type procRelauncher struct {
	client  roblox.Client
	tracker *procs.Tracker
}

// NewRelauncher binds a Roblox client and a process tracker into the
// Relauncher the monitors use.
func NewRelauncher(client roblox.Client, tracker *procs.Tracker) Relauncher {
	return &procRelauncher{client: client, tracker: tracker}
}

// Launch implements Relauncher.Launch.
func (r *procRelauncher) Launch(ctx context.Context, account string, req roblox.LaunchRequest) error {
	_, err := r.tracker.LaunchAndAttribute(ctx, account, func(ctx context.Context) error {
		return r.client.Launch(ctx, req)
	})
	return err
}

// Kill implements Relauncher.Kill.
func (r *procRelauncher) Kill(account string) error {
	return r.tracker.Kill(account)
}

// Alive implements Relauncher.Alive.
func (r *procRelauncher) Alive(account string) bool {
	return r.tracker.Alive(account)
}

// PreMatch implements Relauncher.PreMatch.
func (r *procRelauncher) PreMatch(ctx context.Context, accounts map[string]int64) map[string]int {
	return r.tracker.PreMatch(ctx, accounts)
}
