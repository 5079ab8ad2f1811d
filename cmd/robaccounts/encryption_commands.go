package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/zuxsoft/RobAccounts/pkg/store"
)

// runEncryptionCommand dispatches the encryption subcommands.
func runEncryptionCommand(configPath string, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: encryption <status|setup>")
	}

	switch args[0] {
	case "status":
		return runEncryptionStatus(configPath, args[1:])
	case "setup":
		return runEncryptionSetup(configPath, args[1:])
	default:
		return fmt.Errorf("unknown encryption subcommand: %s", args[0])
	}
}

func runEncryptionStatus(configPath string, args []string) error {
	fs := flag.NewFlagSet("encryption status", flag.ExitOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	a, err := newApp(configPath)
	if err != nil {
		return err
	}
	defer a.close()

	path := filepath.Join(a.cfg.Storage.DataDir, a.cfg.Storage.EncryptionConfigFile)
	encCfg, err := store.LoadEncryptionConfig(path)
	if err != nil {
		return err
	}

	switch {
	case !encCfg.SetupCompleted:
		fmt.Println("Encryption: not configured")
	case !encCfg.Enabled:
		fmt.Println("Encryption: disabled")
	default:
		fmt.Printf("Encryption: enabled (%s)\n", encCfg.Method)
	}
	fmt.Printf("Accounts: %d\n", a.repo.Len())
	return nil
}

func runEncryptionSetup(configPath string, args []string) error {
	fs := flag.NewFlagSet("encryption setup", flag.ExitOnError)
	method := fs.String("method", "", "encryption method (hardware, password, disabled)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var target store.EncryptionConfig
	var password string

	switch *method {
	case "hardware":
		target = store.HardwareConfig()
	case "password":
		pw, err := promptNewPassword()
		if err != nil {
			return err
		}
		target, err = store.PasswordConfig(pw)
		if err != nil {
			return err
		}
		password = pw
	case "disabled":
		if !confirm("Store accounts in plain text?") {
			return fmt.Errorf("aborted")
		}
		target = store.DisabledConfig()
	default:
		return fmt.Errorf("encryption setup requires -method hardware, password or disabled")
	}

	a, err := newApp(configPath)
	if err != nil {
		return err
	}
	defer a.close()

	repo, err := a.repo.SwitchEncryption(target, password)
	if err != nil {
		return fmt.Errorf("failed to switch encryption: %w", err)
	}
	a.repo = repo

	fmt.Printf("Encryption switched to %s (%d accounts re-encrypted)\n",
		*method, repo.Len())
	return nil
}

// promptNewPassword asks for a password twice and insists they match.
func promptNewPassword() (string, error) {
	for {
		first, err := promptPassword("New store password: ")
		if err != nil {
			return "", err
		}
		if first == "" {
			fmt.Fprintln(os.Stderr, "Password cannot be empty.")
			continue
		}

		second, err := promptPassword("Repeat password: ")
		if err != nil {
			return "", err
		}
		if first == second {
			return first, nil
		}
		fmt.Fprintln(os.Stderr, "Passwords do not match.")
	}
}

// confirm asks a yes/no question on the terminal.
func confirm(question string) bool {
	fmt.Fprintf(os.Stderr, "%s [y/N] ", question)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}

// runWipeCommand removes every account, the encryption config and the
// persistent caches.
func runWipeCommand(configPath string, args []string) error {
	fs := flag.NewFlagSet("wipe", flag.ExitOnError)
	force := fs.Bool("force", false, "skip the confirmation prompt")
	if err := fs.Parse(args); err != nil {
		return err
	}

	a, err := newApp(configPath)
	if err != nil {
		return err
	}
	defer a.close()

	if !*force && !confirm(fmt.Sprintf("Delete all %d stored accounts and caches?", a.repo.Len())) {
		return fmt.Errorf("aborted")
	}

	if err := a.repo.Wipe(); err != nil {
		return fmt.Errorf("failed to wipe account store: %w", err)
	}
	if err := a.client.WipeCache(); err != nil {
		return fmt.Errorf("failed to wipe id cache: %w", err)
	}

	// The wiped store may still carry an encryption envelope; remove both
	// files so the next run starts from a clean, unconfigured state.
	accountsPath := filepath.Join(a.cfg.Storage.DataDir, a.cfg.Storage.AccountsFile)
	if err := os.Remove(accountsPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove accounts file: %w", err)
	}
	encPath := filepath.Join(a.cfg.Storage.DataDir, a.cfg.Storage.EncryptionConfigFile)
	if err := os.Remove(encPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove encryption config: %w", err)
	}

	configsPath := a.rejoinConfigsPath()
	if err := os.Remove(configsPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove rejoin configs: %w", err)
	}

	fmt.Println("All data wiped")
	return nil
}
