package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"syscall"

	"golang.org/x/term"

	"github.com/zuxsoft/RobAccounts/pkg/config"
	"github.com/zuxsoft/RobAccounts/pkg/logger"
	"github.com/zuxsoft/RobAccounts/pkg/procs"
	"github.com/zuxsoft/RobAccounts/pkg/rejoin"
	"github.com/zuxsoft/RobAccounts/pkg/roblox"
	"github.com/zuxsoft/RobAccounts/pkg/store"
)

// app bundles the components every command starts from.
type app struct {
	cfg    *config.Config
	log    logger.Logger
	repo   store.Repository
	client roblox.Client
}

// newApp loads configuration, opens the account store (prompting for the
// password when the store needs one) and builds the API client.
func newApp(configPath string) (*app, error) {
	cfg, err := config.NewLoader(configPath).Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	log := logger.New(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})

	repo, err := openRepository(cfg, log)
	if err != nil {
		return nil, err
	}

	launcher := roblox.NewLauncher(cfg.Launcher.Preference, log)
	client, err := roblox.New(roblox.Config{
		MinRequestInterval: cfg.API.MinRequestInterval,
		RequestTimeout:     cfg.API.RequestTimeout,
		CachePath:          filepath.Join(cfg.Storage.DataDir, cfg.Storage.CacheFile),
	}, launcher, log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize API client: %w", err)
	}

	return &app{cfg: cfg, log: log, repo: repo, client: client}, nil
}

// close releases the app's resources.
func (a *app) close() {
	if a.client != nil {
		if err := a.client.Close(); err != nil {
			a.log.Error("failed to close API client", "error", err)
		}
	}
}

// openRepository opens the store, asking for the password interactively when
// the encryption config demands one.
func openRepository(cfg *config.Config, log logger.Logger) (store.Repository, error) {
	opts := store.Options{
		DataDir:              cfg.Storage.DataDir,
		AccountsFile:         cfg.Storage.AccountsFile,
		EncryptionConfigFile: cfg.Storage.EncryptionConfigFile,
		Logger:               log,
	}

	repo, err := store.Open(opts)
	if err == nil {
		return repo, nil
	}
	if !errors.Is(err, store.ErrPasswordRequired) {
		return nil, fmt.Errorf("failed to open account store: %w", err)
	}

	// Up to three attempts before giving up.
	for i := 0; i < 3; i++ {
		password, perr := promptPassword("Store password: ")
		if perr != nil {
			return nil, perr
		}

		opts.Password = password
		repo, err = store.Open(opts)
		if err == nil {
			return repo, nil
		}
		if !errors.Is(err, store.ErrWrongPassword) {
			return nil, fmt.Errorf("failed to open account store: %w", err)
		}
		fmt.Fprintln(os.Stderr, "Wrong password.")
	}

	return nil, store.ErrWrongPassword
}

// promptPassword reads a password without echoing it.
func promptPassword(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	raw, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(raw), nil
}

// newTracker builds the process tracker over the platform's client logs.
func (a *app) newTracker() *procs.Tracker {
	logsDir := a.cfg.Launcher.LogsDir
	if logsDir == "" {
		logsDir = defaultLogsDir()
	}

	return procs.NewTracker(procs.Config{
		SettleDelay: a.cfg.Launcher.SettleDelay,
	}, procs.NewLister(a.log), procs.NewLogReader(logsDir, a.log), a.log)
}

// newRejoinManager wires the rejoin manager with the app's client and a
// process tracker.
func (a *app) newRejoinManager(tracker *procs.Tracker) *rejoin.Manager {
	opts := rejoin.Options{
		SettleDelay: a.cfg.Rejoin.SettleDelay,
		JitterMin:   a.cfg.Rejoin.JitterMin,
		JitterMax:   a.cfg.Rejoin.JitterMax,
	}
	return rejoin.NewManager(a.repo, a.client, rejoin.NewRelauncher(a.client, tracker), opts, a.log)
}

// rejoinConfigsPath is where per-account rejoin configs live.
func (a *app) rejoinConfigsPath() string {
	return filepath.Join(a.cfg.Storage.DataDir, "rejoin_configs.json")
}

// defaultLogsDir is the platform's Roblox client log directory.
func defaultLogsDir() string {
	home, _ := os.UserHomeDir()

	switch runtime.GOOS {
	case "windows":
		if appData := os.Getenv("LOCALAPPDATA"); appData != "" {
			return filepath.Join(appData, "Roblox", "logs")
		}
		return filepath.Join(home, "AppData", "Local", "Roblox", "logs")
	case "darwin":
		return filepath.Join(home, "Library", "Logs", "Roblox")
	default:
		return filepath.Join(home, ".local", "share", "Roblox", "logs")
	}
}
