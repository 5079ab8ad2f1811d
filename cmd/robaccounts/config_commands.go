package main

import (
	"flag"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/zuxsoft/RobAccounts/pkg/config"
)

// runConfigCommand dispatches the config subcommands.
func runConfigCommand(configPath string, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: config <show|init>")
	}

	switch args[0] {
	case "show":
		return runConfigShow(configPath, args[1:])
	case "init":
		return runConfigInit(configPath, args[1:])
	default:
		return fmt.Errorf("unknown config subcommand: %s", args[0])
	}
}

// runConfigShow prints the effective configuration after defaults, file and
// environment overrides are applied.
func runConfigShow(configPath string, args []string) error {
	fs := flag.NewFlagSet("config show", flag.ExitOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.NewLoader(configPath).Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	out, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	_, err = os.Stdout.Write(out)
	return err
}

// runConfigInit writes the default configuration to a file as a starting
// point for edits.
func runConfigInit(configPath string, args []string) error {
	fs := flag.NewFlagSet("config init", flag.ExitOnError)
	output := fs.String("output", "robaccounts.yaml", "file to write")
	force := fs.Bool("force", false, "overwrite an existing file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if !*force {
		if _, err := os.Stat(*output); err == nil {
			return fmt.Errorf("%s already exists, use -force to overwrite", *output)
		}
	}

	out, err := yaml.Marshal(config.Default())
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(*output, out, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	fmt.Printf("Wrote default configuration to %s\n", *output)
	return nil
}
