package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/zuxsoft/RobAccounts/pkg/display"
	"github.com/zuxsoft/RobAccounts/pkg/roblox"
)

// runLaunchCommand launches the game client for one stored account.
func runLaunchCommand(configPath string, args []string) error {
	fs := flag.NewFlagSet("launch", flag.ExitOnError)
	account := fs.String("account", "", "stored account username")
	placeID := fs.Int64("place", 0, "place id to join (0 opens the home screen)")
	jobID := fs.String("job", "", "specific server job id")
	privateServer := fs.String("private-server", "", "private server link or code")
	smallest := fs.Bool("smallest", false, "join the public server with the fewest players")
	track := fs.Bool("track", true, "attribute the launched process to the account")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *account == "" {
		return fmt.Errorf("launch requires -account")
	}

	a, err := newApp(configPath)
	if err != nil {
		return err
	}
	defer a.close()

	token, err := a.repo.SessionToken(*account)
	if err != nil {
		return err
	}

	ctx := context.Background()

	req := roblox.LaunchRequest{
		Username:      *account,
		SessionToken:  token,
		PlaceID:       *placeID,
		PrivateServer: *privateServer,
		JobID:         *jobID,
	}

	if *smallest && *jobID == "" && *privateServer == "" {
		if *placeID == 0 {
			return fmt.Errorf("-smallest requires -place")
		}
		server, err := a.client.SmallestServer(ctx, *placeID)
		if err != nil {
			return err
		}
		req.JobID = server.ID
		fmt.Printf("Joining server %s (%d/%d players)\n",
			server.ID, server.Playing, server.MaxPlayers)
	}

	if !*track {
		if err := a.client.Launch(ctx, req); err != nil {
			return err
		}
		fmt.Printf("Launched %s\n", *account)
		return nil
	}

	tracker := a.newTracker()
	pid, err := tracker.LaunchAndAttribute(ctx, *account, func(ctx context.Context) error {
		return a.client.Launch(ctx, req)
	})
	if err != nil {
		return err
	}

	fmt.Printf("Launched %s (pid %d)\n", *account, pid)
	return nil
}

// runServersCommand lists public servers for a place.
func runServersCommand(configPath string, args []string) error {
	fs := flag.NewFlagSet("servers", flag.ExitOnError)
	placeID := fs.Int64("place", 0, "place id")
	format := fs.String("format", "table", "output format (table, json, simple)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *placeID == 0 {
		return fmt.Errorf("servers requires -place")
	}

	a, err := newApp(configPath)
	if err != nil {
		return err
	}
	defer a.close()

	servers, err := a.client.Servers(context.Background(), *placeID)
	if err != nil {
		return err
	}

	formatter := display.New(display.Config{Format: display.Format(*format)})
	return formatter.FormatServers(os.Stdout, servers)
}
