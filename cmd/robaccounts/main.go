// Package main provides the robaccounts CLI application.
//
// RobAccounts manages a local collection of Roblox accounts: an encrypted
// credential store, game launching with per-account process attribution,
// and auto-rejoin monitors that keep accounts inside their configured game.
package main

import (
	"flag"
	"fmt"
	"os"
)

// version is set during build time.
var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run executes the main application logic.
func run() error {
	configPath := flag.String("config", "", "path to configuration file")
	showVersion := flag.Bool("version", false, "show version information")

	flag.Parse()

	if *showVersion {
		fmt.Printf("robaccounts %s\n", version)
		return nil
	}

	args := flag.Args()
	if len(args) == 0 {
		return showUsage()
	}

	command := args[0]

	switch command {
	case "accounts":
		return runAccountsCommand(*configPath, args[1:])
	case "launch":
		return runLaunchCommand(*configPath, args[1:])
	case "servers":
		return runServersCommand(*configPath, args[1:])
	case "rejoin":
		return runRejoinCommand(*configPath, args[1:])
	case "login":
		return runLoginCommand(*configPath, args[1:])
	case "encryption":
		return runEncryptionCommand(*configPath, args[1:])
	case "config":
		return runConfigCommand(*configPath, args[1:])
	case "wipe":
		return runWipeCommand(*configPath, args[1:])
	case "help":
		return showUsage()
	default:
		return fmt.Errorf("unknown command: %s", command)
	}
}

// showUsage displays usage information.
func showUsage() error {
	usage := `RobAccounts - Roblox multi-account manager

Usage:
  robaccounts [flags] <command> [command flags]

Commands:
  accounts    Account management (list, add, delete, note, validate)
  launch      Launch the game client for an account
  servers     List public servers for a place
  rejoin      Auto-rejoin monitors (set, remove, list, run)
  login       Capture account credentials interactively
  encryption  Store encryption (status, setup)
  config      Configuration management (show, init)
  wipe        Remove all stored data
  help        Show this help message

Global Flags:
  -config     Path to configuration file
  -version    Show version information

Examples:
  # List stored accounts
  robaccounts accounts list

  # Add an account from a pasted cookie
  robaccounts accounts add -username builderman

  # Check which stored tokens are still valid
  robaccounts accounts validate

  # Launch into a place, picking the emptiest public server
  robaccounts launch -account builderman -place 189707 -smallest

  # Launch into a private server
  robaccounts launch -account builderman -place 189707 -private-server 12345678

  # Configure auto-rejoin for an account
  robaccounts rejoin set -account builderman -place 189707

  # Run every configured rejoin monitor until interrupted
  robaccounts rejoin run

  # Encrypt the store with a password
  robaccounts encryption setup -method password

Version: %s
`

	fmt.Printf(usage, version)
	return nil
}
