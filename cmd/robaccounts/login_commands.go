package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/zuxsoft/RobAccounts/pkg/login"
	"github.com/zuxsoft/RobAccounts/pkg/roblox"
)

// terminalCapturer acquires credentials from a pasted cookie, validating it
// against the live API before handing it to the pool.
type terminalCapturer struct {
	client roblox.Client
	in     *bufio.Reader
}

func (c *terminalCapturer) Capture(ctx context.Context) (*login.Credentials, error) {
	fmt.Fprint(os.Stderr, "Paste cookie (or empty line to cancel): ")

	lineChan := make(chan string, 1)
	errChan := make(chan error, 1)
	go func() {
		line, err := c.in.ReadString('\n')
		if err != nil {
			errChan <- err
			return
		}
		lineChan <- line
	}()

	var raw string
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case err := <-errChan:
		return nil, fmt.Errorf("failed to read cookie: %w", err)
	case raw = <-lineChan:
	}

	if strings.TrimSpace(raw) == "" {
		return nil, fmt.Errorf("cancelled")
	}

	token, err := login.NormalizeCookie(raw)
	if err != nil {
		return nil, err
	}

	user, err := c.client.Validate(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("cookie rejected: %w", err)
	}

	return &login.Credentials{
		Username:     user.Name,
		SessionToken: token,
		UserID:       user.ID,
	}, nil
}

// runLoginCommand captures one or more accounts through the session pool.
func runLoginCommand(configPath string, args []string) error {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	count := fs.Int("count", 1, "number of accounts to capture")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *count < 1 {
		return fmt.Errorf("login requires -count >= 1")
	}

	a, err := newApp(configPath)
	if err != nil {
		return err
	}
	defer a.close()

	capturer := &terminalCapturer{client: a.client, in: bufio.NewReader(os.Stdin)}
	pool, err := login.NewPool(login.Config{
		MaxSessions:    a.cfg.Login.MaxSessions,
		SessionTimeout: a.cfg.Login.Timeout,
	}, capturer, a.repo, a.log)
	if err != nil {
		return err
	}
	defer pool.Close()

	ctx := context.Background()
	captured := 0

	// The terminal is a single shared prompt, so sessions run one at a
	// time even though the pool allows more.
	for i := 0; i < *count; i++ {
		if _, err := pool.Begin(ctx); err != nil {
			return err
		}

		res := <-pool.Results()
		if res.Err != nil {
			fmt.Fprintf(os.Stderr, "Capture failed: %v\n", res.Err)
			continue
		}

		captured++
		fmt.Printf("Stored account %s (id %d)\n",
			res.Credentials.Username, res.Credentials.UserID)
	}
	pool.Wait()

	fmt.Printf("Captured %d of %d accounts\n", captured, *count)
	return nil
}
