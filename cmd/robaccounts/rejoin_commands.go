package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/zuxsoft/RobAccounts/pkg/display"
	"github.com/zuxsoft/RobAccounts/pkg/rejoin"
	"github.com/zuxsoft/RobAccounts/pkg/watcher"
)

// runRejoinCommand dispatches the rejoin subcommands.
func runRejoinCommand(configPath string, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: rejoin <set|remove|list|run>")
	}

	switch args[0] {
	case "set":
		return runRejoinSet(configPath, args[1:])
	case "remove":
		return runRejoinRemove(configPath, args[1:])
	case "list":
		return runRejoinList(configPath, args[1:])
	case "run":
		return runRejoinRun(configPath, args[1:])
	default:
		return fmt.Errorf("unknown rejoin subcommand: %s", args[0])
	}
}

func runRejoinSet(configPath string, args []string) error {
	fs := flag.NewFlagSet("rejoin set", flag.ExitOnError)
	account := fs.String("account", "", "stored account username")
	placeID := fs.Int64("place", 0, "place id to keep the account in")
	privateServer := fs.String("private-server", "", "private server link or code")
	jobID := fs.String("job", "", "pin relaunches to a specific server")
	interval := fs.Duration("interval", 0, "presence poll interval (default from config)")
	maxRetries := fs.Int("max-retries", 0, "relaunch ceiling (default from config)")
	anyGame := fs.Bool("any-game", false, "count any game as connected, not just -place")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *account == "" || *placeID == 0 {
		return fmt.Errorf("rejoin set requires -account and -place")
	}

	a, err := newApp(configPath)
	if err != nil {
		return err
	}
	defer a.close()

	if _, err := a.repo.Get(*account); err != nil {
		return err
	}

	cfg := rejoin.Config{
		PlaceID:       *placeID,
		PrivateServer: *privateServer,
		JobID:         *jobID,
		PollInterval:  *interval,
		MaxRetries:    *maxRetries,
		VerifyPlace:   !*anyGame,
	}
	if cfg.PollInterval == 0 {
		cfg.PollInterval = a.cfg.Rejoin.PollInterval
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = a.cfg.Rejoin.MaxRetries
	}

	configs, err := rejoin.LoadConfigs(a.rejoinConfigsPath())
	if err != nil {
		return err
	}
	configs[*account] = cfg

	if err := rejoin.SaveConfigs(a.rejoinConfigsPath(), configs); err != nil {
		return err
	}

	fmt.Printf("Rejoin configured for %s (place %d)\n", *account, *placeID)
	return nil
}

func runRejoinRemove(configPath string, args []string) error {
	fs := flag.NewFlagSet("rejoin remove", flag.ExitOnError)
	account := fs.String("account", "", "stored account username")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *account == "" {
		return fmt.Errorf("rejoin remove requires -account")
	}

	a, err := newApp(configPath)
	if err != nil {
		return err
	}
	defer a.close()

	configs, err := rejoin.LoadConfigs(a.rejoinConfigsPath())
	if err != nil {
		return err
	}
	if _, ok := configs[*account]; !ok {
		return fmt.Errorf("no rejoin config for %s", *account)
	}
	delete(configs, *account)

	if err := rejoin.SaveConfigs(a.rejoinConfigsPath(), configs); err != nil {
		return err
	}

	fmt.Printf("Rejoin removed for %s\n", *account)
	return nil
}

func runRejoinList(configPath string, args []string) error {
	fs := flag.NewFlagSet("rejoin list", flag.ExitOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	a, err := newApp(configPath)
	if err != nil {
		return err
	}
	defer a.close()

	configs, err := rejoin.LoadConfigs(a.rejoinConfigsPath())
	if err != nil {
		return err
	}
	if len(configs) == 0 {
		fmt.Println("No rejoin configs")
		return nil
	}

	accounts := make([]string, 0, len(configs))
	for account := range configs {
		accounts = append(accounts, account)
	}
	sort.Strings(accounts)

	for _, account := range accounts {
		cfg := configs[account]
		line := fmt.Sprintf("%-20s place %d", account, cfg.PlaceID)
		if cfg.PrivateServer != "" {
			line += " (private server)"
		}
		if cfg.JobID != "" {
			line += fmt.Sprintf(" job %s", cfg.JobID)
		}
		if !cfg.VerifyPlace {
			line += " [any game]"
		}
		fmt.Println(line)
	}
	return nil
}

func runRejoinRun(configPath string, args []string) error {
	fs := flag.NewFlagSet("rejoin run", flag.ExitOnError)
	statusInterval := fs.Duration("status-interval", 30*time.Second, "status table interval (0 disables)")
	format := fs.String("format", "table", "status output format (table, simple)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	a, err := newApp(configPath)
	if err != nil {
		return err
	}
	defer a.close()

	configs, err := rejoin.LoadConfigs(a.rejoinConfigsPath())
	if err != nil {
		return err
	}
	if len(configs) == 0 {
		return fmt.Errorf("no rejoin configs; run rejoin set first")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	manager := a.newRejoinManager(a.newTracker())
	defer func() {
		if err := manager.Close(); err != nil {
			a.log.Error("failed to close rejoin manager", "error", err)
		}
	}()

	// Reload accounts when another process rewrites the store file, so
	// token refreshes land without a restart.
	w, err := watcher.New(watcher.Config{
		Files: []string{a.cfg.Storage.AccountsFile},
	}, a.log)
	if err != nil {
		return fmt.Errorf("failed to initialize store watcher: %w", err)
	}
	defer func() {
		if err := w.Close(); err != nil {
			a.log.Error("failed to close store watcher", "error", err)
		}
	}()

	if err := w.Start(ctx, a.cfg.Storage.DataDir); err != nil {
		return fmt.Errorf("failed to watch data directory: %w", err)
	}
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-w.Events():
				if !ok {
					return
				}
				if err := a.repo.Reload(); err != nil {
					a.log.Error("failed to reload account store", "error", err)
				}
			case err, ok := <-w.Errors():
				if !ok {
					return
				}
				a.log.Error("store watcher error", "error", err)
			}
		}
	}()

	if err := manager.StartAll(ctx, configs); err != nil {
		return err
	}

	fmt.Printf("Monitoring %d accounts, Ctrl-C to stop\n", len(configs))

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	formatter := display.New(display.Config{Format: display.Format(*format)})

	var ticker *time.Ticker
	var tick <-chan time.Time
	if *statusInterval > 0 {
		ticker = time.NewTicker(*statusInterval)
		tick = ticker.C
		defer ticker.Stop()
	}

	for {
		select {
		case sig := <-sigChan:
			fmt.Printf("\nReceived %v, stopping monitors...\n", sig)
			if stuck := manager.StopAll(10 * time.Second); len(stuck) > 0 {
				return fmt.Errorf("monitors did not stop: %v", stuck)
			}
			return nil
		case <-tick:
			if err := formatter.FormatStatuses(os.Stdout, manager.Statuses()); err != nil {
				a.log.Error("failed to format statuses", "error", err)
			}
		}
	}
}
