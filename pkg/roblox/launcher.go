package roblox

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/zuxsoft/RobAccounts/pkg/logger"
)

// Launcher preference values.
const (
	LauncherDefault   = "default"   // OS protocol handler
	LauncherBloxstrap = "bloxstrap" // Bloxstrap bootstrapper
	LauncherFishstrap = "fishstrap" // Fishstrap bootstrapper
	LauncherClient    = "client"    // RobloxPlayerBeta.exe directly
)

// Launcher starts the game client with a protocol URL.
//
// The preference selects how the URL is handed off: the OS protocol handler,
// a custom bootstrapper (Bloxstrap/Fishstrap), or the newest installed client
// binary directly. Launching the raw client first quarantines
// RobloxPlayerInstaller.exe so the client cannot pop an update installer mid-run.
type Launcher struct {
	preference string
	logger     logger.Logger

	// localAppData and startProc are injectable for tests.
	localAppData func() string
	startProc    func(name string, args ...string) error
}

// NewLauncher creates a launcher with the given preference.
func NewLauncher(preference string, log logger.Logger) *Launcher {
	if preference == "" {
		preference = LauncherDefault
	}
	return &Launcher{
		preference: preference,
		logger:     log,
		localAppData: func() string {
			return os.Getenv("LOCALAPPDATA")
		},
		startProc: func(name string, args ...string) error {
			cmd := exec.Command(name, args...)
			if err := cmd.Start(); err != nil {
				return err
			}
			// The launcher process outlives us; don't wait on it.
			return cmd.Process.Release()
		},
	}
}

// DetectCustom reports which custom bootstrapper is installed, if any.
// Returns the binary path and its preference name, or empty strings.
func (l *Launcher) DetectCustom() (path, name string) {
	appData := l.localAppData()
	if appData == "" {
		return "", ""
	}

	bloxstrap := filepath.Join(appData, "Bloxstrap", "Bloxstrap.exe")
	if _, err := os.Stat(bloxstrap); err == nil {
		return bloxstrap, LauncherBloxstrap
	}

	fishstrap := filepath.Join(appData, "Fishstrap", "Fishstrap.exe")
	if _, err := os.Stat(fishstrap); err == nil {
		return fishstrap, LauncherFishstrap
	}

	return "", ""
}

// Open hands a protocol URL to the preferred launcher.
func (l *Launcher) Open(url string) error {
	switch l.preference {
	case LauncherBloxstrap, LauncherFishstrap:
		binary, err := l.bootstrapperPath(l.preference)
		if err != nil {
			return err
		}
		if err := l.startProc(binary, "-player", url); err != nil {
			return fmt.Errorf("failed to start %s: %w", l.preference, err)
		}
		l.logger.Info("launched via bootstrapper", "launcher", l.preference)
		return nil

	case LauncherClient:
		l.QuarantineInstallers()

		binary, err := l.clientPath()
		if err != nil {
			return err
		}
		if err := l.startProc(binary, url); err != nil {
			return fmt.Errorf("failed to start client: %w", err)
		}
		l.logger.Info("launched via client binary", "path", binary)
		return nil

	default:
		if err := l.openProtocolURL(url); err != nil {
			return fmt.Errorf("failed to open protocol URL: %w", err)
		}
		l.logger.Info("launched via protocol handler")
		return nil
	}
}

// bootstrapperPath locates a custom bootstrapper binary.
func (l *Launcher) bootstrapperPath(name string) (string, error) {
	appData := l.localAppData()
	if appData == "" {
		return "", fmt.Errorf("%w: LOCALAPPDATA not set", ErrLauncherNotFound)
	}

	var binary string
	switch name {
	case LauncherBloxstrap:
		binary = filepath.Join(appData, "Bloxstrap", "Bloxstrap.exe")
	case LauncherFishstrap:
		binary = filepath.Join(appData, "Fishstrap", "Fishstrap.exe")
	default:
		return "", fmt.Errorf("%w: %s", ErrLauncherNotFound, name)
	}

	if _, err := os.Stat(binary); err != nil {
		return "", fmt.Errorf("%w: %s", ErrLauncherNotFound, binary)
	}
	return binary, nil
}

// clientPath locates the newest installed RobloxPlayerBeta.exe under the
// Versions directory.
func (l *Launcher) clientPath() (string, error) {
	versions, err := l.versionsDir()
	if err != nil {
		return "", err
	}

	entries, err := os.ReadDir(versions)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrLauncherNotFound, err)
	}

	var newest string
	var newestTime time.Time
	for _, entry := range entries {
		if !entry.IsDir() || !strings.HasPrefix(entry.Name(), "version-") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if newest == "" || info.ModTime().After(newestTime) {
			newest = entry.Name()
			newestTime = info.ModTime()
		}
	}
	if newest == "" {
		return "", fmt.Errorf("%w: no version folders under %s", ErrLauncherNotFound, versions)
	}

	binary := filepath.Join(versions, newest, "RobloxPlayerBeta.exe")
	if _, err := os.Stat(binary); err != nil {
		return "", fmt.Errorf("%w: %s", ErrLauncherNotFound, binary)
	}
	return binary, nil
}

func (l *Launcher) versionsDir() (string, error) {
	appData := l.localAppData()
	if appData == "" {
		return "", fmt.Errorf("%w: LOCALAPPDATA not set", ErrLauncherNotFound)
	}
	return filepath.Join(appData, "Roblox", "Versions"), nil
}

// quarantineDir is where quarantined installers live, keyed by version id.
func (l *Launcher) quarantineDir() string {
	return filepath.Join(l.localAppData(), "RobAccounts", "Quarantine")
}

// QuarantineInstallers moves RobloxPlayerInstaller.exe out of every version
// folder so it cannot spawn an installer window. Best effort; failures are
// logged and skipped.
func (l *Launcher) QuarantineInstallers() {
	versions, err := l.versionsDir()
	if err != nil {
		return
	}
	entries, err := os.ReadDir(versions)
	if err != nil {
		return
	}

	quarantine := l.quarantineDir()

	for _, entry := range entries {
		if !entry.IsDir() || !strings.HasPrefix(entry.Name(), "version-") {
			continue
		}

		installer := filepath.Join(versions, entry.Name(), "RobloxPlayerInstaller.exe")
		if _, err := os.Stat(installer); err != nil {
			continue
		}

		versionID := strings.TrimPrefix(entry.Name(), "version-")
		destDir := filepath.Join(quarantine, versionID)
		if err := os.MkdirAll(destDir, 0700); err != nil {
			l.logger.Warn("failed to create quarantine folder", "version", versionID, "error", err)
			continue
		}

		dest := filepath.Join(destDir, "RobloxPlayerInstaller.exe")
		if _, err := os.Stat(dest); err == nil {
			continue
		}
		if err := os.Rename(installer, dest); err != nil {
			l.logger.Warn("failed to quarantine installer", "version", versionID, "error", err)
			continue
		}

		l.logger.Info("quarantined installer", "version", versionID)
	}
}

// RestoreInstallers moves quarantined installers back into their version
// folders and removes the quarantine directory.
func (l *Launcher) RestoreInstallers() {
	versions, err := l.versionsDir()
	if err != nil {
		return
	}

	quarantine := l.quarantineDir()
	entries, err := os.ReadDir(quarantine)
	if err != nil {
		return
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		src := filepath.Join(quarantine, entry.Name(), "RobloxPlayerInstaller.exe")
		if _, err := os.Stat(src); err != nil {
			continue
		}

		versionDir := filepath.Join(versions, "version-"+entry.Name())
		if _, err := os.Stat(versionDir); err != nil {
			continue
		}

		dest := filepath.Join(versionDir, "RobloxPlayerInstaller.exe")
		if err := os.Rename(src, dest); err != nil {
			l.logger.Warn("failed to restore installer", "version", entry.Name(), "error", err)
			continue
		}

		l.logger.Info("restored installer", "version", entry.Name())
	}

	if err := os.RemoveAll(quarantine); err != nil {
		l.logger.Warn("failed to remove quarantine folder", "error", err)
	}
}

// openProtocolURL asks the OS to open a roblox-player: URL.
func (l *Launcher) openProtocolURL(url string) error {
	switch runtime.GOOS {
	case "windows":
		return l.startProc("rundll32", "url.dll,FileProtocolHandler", url)
	case "darwin":
		return l.startProc("open", url)
	default:
		return l.startProc("xdg-open", url)
	}
}

// ExtractPrivateServerCode validates a private-server code. The code must be
// digits only; anything else is rejected rather than guessed at.
func ExtractPrivateServerCode(input string) (string, error) {
	if input == "" {
		return "", nil
	}
	for _, r := range input {
		if r < '0' || r > '9' {
			return "", fmt.Errorf("%w: %q", ErrInvalidPrivateServer, input)
		}
	}
	return input, nil
}

// BuildLaunchURL assembles the roblox-player protocol URL for a launch.
//
// With no place id the URL opens the home screen. A private-server code adds
// linkCode; otherwise a job id adds gameId to target a specific server.
func BuildLaunchURL(ticket string, req LaunchRequest) (string, error) {
	code, err := ExtractPrivateServerCode(req.PrivateServer)
	if err != nil {
		return "", err
	}

	trackerID := 55393295400 + rand.Int63n(100)
	launchTime := time.Now().UnixMilli()

	if req.PlaceID == 0 {
		return fmt.Sprintf(
			"roblox-player:1+launchmode:play+gameinfo:%s+launchtime:%d+browsertrackerid:%d+robloxLocale:en_us+gameLocale:en_us",
			ticket, launchTime, trackerID), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "roblox-player:1+launchmode:play+gameinfo:%s+launchtime:%d", ticket, launchTime)
	fmt.Fprintf(&b, "+placelauncherurl:https://assetgame.roblox.com/game/PlaceLauncher.ashx?request=RequestGameJob")
	fmt.Fprintf(&b, "&browserTrackerId=%d&placeId=%d&isPlayTogetherGame=false", trackerID, req.PlaceID)

	if code != "" {
		fmt.Fprintf(&b, "&linkCode=%s", code)
	} else if req.JobID != "" {
		fmt.Fprintf(&b, "&gameId=%s", req.JobID)
	}

	fmt.Fprintf(&b, "+browsertrackerid:%d+robloxLocale:en_us+gameLocale:en_us", trackerID)

	return b.String(), nil
}

// Launch implements Client.Launch: mint a ticket, build the URL, hand it to
// the launcher.
func (c *client) Launch(ctx context.Context, req LaunchRequest) error {
	if c.launcher == nil {
		return fmt.Errorf("%w: no launcher configured", ErrLauncherNotFound)
	}

	c.logger.Info("launching",
		"username", req.Username,
		"place_id", req.PlaceID,
		"job_id", req.JobID)

	ticket, err := c.AuthTicket(ctx, req.SessionToken)
	if err != nil {
		return fmt.Errorf("failed to get auth ticket: %w", err)
	}

	url, err := BuildLaunchURL(ticket, req)
	if err != nil {
		return err
	}

	return c.launcher.Open(url)
}
