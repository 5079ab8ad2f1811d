package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/zuxsoft/RobAccounts/pkg/display"
	"github.com/zuxsoft/RobAccounts/pkg/login"
	"github.com/zuxsoft/RobAccounts/pkg/roblox"
	"github.com/zuxsoft/RobAccounts/pkg/store"
)

// runAccountsCommand dispatches the accounts subcommands.
func runAccountsCommand(configPath string, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: accounts <list|add|delete|note|validate>")
	}

	switch args[0] {
	case "list":
		return runAccountsList(configPath, args[1:])
	case "add", "import":
		return runAccountsAdd(configPath, args[1:])
	case "delete":
		return runAccountsDelete(configPath, args[1:])
	case "note":
		return runAccountsNote(configPath, args[1:])
	case "validate":
		return runAccountsValidate(configPath, args[1:])
	default:
		return fmt.Errorf("unknown accounts subcommand: %s", args[0])
	}
}

func runAccountsList(configPath string, args []string) error {
	fs := flag.NewFlagSet("accounts list", flag.ExitOnError)
	format := fs.String("format", "table", "output format (table, json, simple)")
	showTokens := fs.Bool("show-tokens", false, "include redacted token previews")
	compact := fs.Bool("compact", false, "compact output")
	if err := fs.Parse(args); err != nil {
		return err
	}

	a, err := newApp(configPath)
	if err != nil {
		return err
	}
	defer a.close()

	formatter := display.New(display.Config{
		Format:     display.Format(*format),
		ShowTokens: *showTokens,
		Compact:    *compact,
	})
	return formatter.FormatAccounts(os.Stdout, a.repo.List())
}

func runAccountsAdd(configPath string, args []string) error {
	fs := flag.NewFlagSet("accounts add", flag.ExitOnError)
	username := fs.String("username", "", "account username")
	cookie := fs.String("cookie", "", "session cookie (prompted when omitted)")
	note := fs.String("note", "", "free-form note")
	noValidate := fs.Bool("no-validate", false, "skip live token validation")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *username == "" {
		return fmt.Errorf("accounts add requires -username")
	}

	raw := *cookie
	if raw == "" {
		fmt.Fprint(os.Stderr, "Paste cookie: ")
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil {
			return fmt.Errorf("failed to read cookie: %w", err)
		}
		raw = line
	}

	token, err := login.NormalizeCookie(raw)
	if err != nil {
		return err
	}

	a, err := newApp(configPath)
	if err != nil {
		return err
	}
	defer a.close()

	account := store.Account{
		Username:     *username,
		SessionToken: token,
		Note:         *note,
	}

	// Validate against the live API before saving, so a mistyped or expired
	// cookie is caught immediately. The authenticated identity also corrects
	// a misspelled username.
	if !*noValidate {
		user, err := a.client.Validate(context.Background(), token)
		if err != nil {
			if errors.Is(err, roblox.ErrUnauthenticated) {
				return fmt.Errorf("cookie is not accepted by the API: %w", err)
			}
			return fmt.Errorf("failed to validate cookie: %w", err)
		}
		if !strings.EqualFold(user.Name, *username) {
			fmt.Fprintf(os.Stderr, "Cookie belongs to %q, storing under that name.\n", user.Name)
			account.Username = user.Name
		}
		account.UserID = user.ID
	}

	if err := a.repo.Add(account); err != nil {
		return err
	}

	fmt.Printf("Stored account %s\n", account.Username)
	return nil
}

func runAccountsDelete(configPath string, args []string) error {
	fs := flag.NewFlagSet("accounts delete", flag.ExitOnError)
	username := fs.String("username", "", "account username")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *username == "" {
		return fmt.Errorf("accounts delete requires -username")
	}

	a, err := newApp(configPath)
	if err != nil {
		return err
	}
	defer a.close()

	if err := a.repo.Delete(*username); err != nil {
		return err
	}

	fmt.Printf("Deleted account %s\n", *username)
	return nil
}

func runAccountsNote(configPath string, args []string) error {
	fs := flag.NewFlagSet("accounts note", flag.ExitOnError)
	username := fs.String("username", "", "account username")
	note := fs.String("note", "", "note text (empty clears the note)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *username == "" {
		return fmt.Errorf("accounts note requires -username")
	}

	a, err := newApp(configPath)
	if err != nil {
		return err
	}
	defer a.close()

	return a.repo.SetNote(*username, *note)
}

func runAccountsValidate(configPath string, args []string) error {
	fs := flag.NewFlagSet("accounts validate", flag.ExitOnError)
	username := fs.String("username", "", "validate a single account")
	if err := fs.Parse(args); err != nil {
		return err
	}

	a, err := newApp(configPath)
	if err != nil {
		return err
	}
	defer a.close()

	usernames := a.repo.Usernames()
	if *username != "" {
		usernames = []string{*username}
	}

	ctx := context.Background()
	invalid := 0
	for _, name := range usernames {
		token, err := a.repo.SessionToken(name)
		if err != nil {
			return err
		}

		user, err := a.client.Validate(ctx, token)
		switch {
		case err == nil:
			fmt.Printf("%-20s OK (id %d) %s\n", name, user.ID, login.PreviewToken(token))
		case errors.Is(err, roblox.ErrUnauthenticated):
			invalid++
			fmt.Printf("%-20s EXPIRED %s\n", name, login.PreviewToken(token))
		default:
			return fmt.Errorf("failed to validate %s: %w", name, err)
		}
	}

	if invalid > 0 {
		fmt.Printf("%d of %d tokens expired\n", invalid, len(usernames))
	}
	return nil
}
