package main

import (
	"strings"
	"testing"
)

// TestCommandRouting tests top-level command recognition.
func TestCommandRouting(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{
			name:    "unknown accounts subcommand",
			args:    []string{"accounts", "frobnicate"},
			wantErr: "unknown accounts subcommand",
		},
		{
			name:    "accounts without subcommand",
			args:    []string{"accounts"},
			wantErr: "usage: accounts",
		},
		{
			name:    "unknown rejoin subcommand",
			args:    []string{"rejoin", "frobnicate"},
			wantErr: "unknown rejoin subcommand",
		},
		{
			name:    "rejoin without subcommand",
			args:    []string{"rejoin"},
			wantErr: "usage: rejoin",
		},
		{
			name:    "unknown encryption subcommand",
			args:    []string{"encryption", "frobnicate"},
			wantErr: "unknown encryption subcommand",
		},
		{
			name:    "unknown config subcommand",
			args:    []string{"config", "frobnicate"},
			wantErr: "unknown config subcommand",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var err error
			switch tt.args[0] {
			case "accounts":
				err = runAccountsCommand("", tt.args[1:])
			case "rejoin":
				err = runRejoinCommand("", tt.args[1:])
			case "encryption":
				err = runEncryptionCommand("", tt.args[1:])
			case "config":
				err = runConfigCommand("", tt.args[1:])
			}

			if err == nil {
				t.Fatal("expected an error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %q, want substring %q", err, tt.wantErr)
			}
		})
	}
}

// TestRequiredFlags tests that commands refuse to run without their
// mandatory flags, before any component is initialized.
func TestRequiredFlags(t *testing.T) {
	tests := []struct {
		name string
		run  func() error
	}{
		{
			name: "accounts add without username",
			run:  func() error { return runAccountsAdd("", nil) },
		},
		{
			name: "accounts delete without username",
			run:  func() error { return runAccountsDelete("", nil) },
		},
		{
			name: "accounts note without username",
			run:  func() error { return runAccountsNote("", nil) },
		},
		{
			name: "launch without account",
			run:  func() error { return runLaunchCommand("", nil) },
		},
		{
			name: "servers without place",
			run:  func() error { return runServersCommand("", nil) },
		},
		{
			name: "rejoin set without account",
			run:  func() error { return runRejoinSet("", nil) },
		},
		{
			name: "rejoin remove without account",
			run:  func() error { return runRejoinRemove("", nil) },
		},
		{
			name: "login with zero count",
			run:  func() error { return runLoginCommand("", []string{"-count", "0"}) },
		},
		{
			name: "encryption setup without method",
			run:  func() error { return runEncryptionSetup("", nil) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.run(); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestShowUsage(t *testing.T) {
	if err := showUsage(); err != nil {
		t.Errorf("showUsage() error = %v", err)
	}
}

func TestDefaultLogsDir(t *testing.T) {
	if defaultLogsDir() == "" {
		t.Error("defaultLogsDir() returned empty path")
	}
}
