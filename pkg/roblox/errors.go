package roblox

import "errors"

// Common errors returned by the Roblox client.
var (
	// ErrUnauthenticated is returned when the API rejects the session token.
	ErrUnauthenticated = errors.New("session token rejected")

	// ErrUserNotFound is returned when a username resolves to no account.
	ErrUserNotFound = errors.New("user not found")

	// ErrRateLimited is returned when retries were exhausted against 429s.
	ErrRateLimited = errors.New("rate limited by API")

	// ErrRequestFailed is returned for non-auth HTTP failures.
	ErrRequestFailed = errors.New("API request failed")

	// ErrNoTicket is returned when the auth ticket flow yields no ticket.
	ErrNoTicket = errors.New("no authentication ticket issued")

	// ErrNoServers is returned when a place has no public servers.
	ErrNoServers = errors.New("no public servers found")

	// ErrInvalidPrivateServer is returned for non-numeric private server codes.
	ErrInvalidPrivateServer = errors.New("private server code must contain only digits")

	// ErrLauncherNotFound is returned when the preferred launcher binary is
	// not installed.
	ErrLauncherNotFound = errors.New("launcher not found")

	// ErrClientClosed is returned when using a closed client.
	ErrClientClosed = errors.New("client is closed")
)
